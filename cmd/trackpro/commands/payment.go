package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/format"
)

func newPaymentCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Record payments",
	}
	cmd.AddCommand(newPaymentAddCommand(c))
	return cmd
}

func newPaymentAddCommand(c *cli) *cobra.Command {
	var (
		projectID string
		userID    string
		body      trackpro.PaymentCreate
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a payment against a project (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.client().Payments().Add(cmd.Context(), projectID, userID, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded payment #%d of %s on %s\n",
				p.ID, format.Money(p.Amount), c.ui.title.Render(projectID))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&projectID, "project", "", "project ID")
	f.StringVar(&userID, "user", "", "project owner user ID")
	f.Float64Var(&body.Amount, "amount", 0, "amount in millions of VND")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
