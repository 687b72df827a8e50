package commands

import (
	"strings"

	"github.com/spf13/cobra"

	trackpro "github.com/chimerakang/trackpro-go"
)

func newAccountsCommand(c *cli) *cobra.Command {
	var withProfile bool
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List user accounts (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := c.client().Accounts()
			var (
				accounts []trackpro.Account
				err      error
			)
			if withProfile {
				accounts, err = svc.ListWithProfile(cmd.Context())
			} else {
				accounts, err = svc.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			headers := []string{"USER ID", "USERNAME", "TYPE", "STATUS"}
			if withProfile {
				headers = append(headers, "NAME")
			}
			rows := make([][]string, len(accounts))
			for i, a := range accounts {
				status := c.ui.ok.Render(string(a.Status))
				if a.Status != trackpro.AccountActivated {
					status = c.ui.warn.Render(string(a.Status))
				}
				rows[i] = []string{a.UserID, a.Username, string(a.Type), status}
				if withProfile {
					rows[i] = append(rows[i], orDash(strings.TrimSpace(a.FirstName+" "+a.LastName)))
				}
			}
			c.ui.table(cmd.OutOrStdout(), headers, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withProfile, "profile", false, "include profile names")
	return cmd
}
