package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/format"
	"github.com/chimerakang/trackpro-go/session"
)

func newLoginCommand(c *cli) *cobra.Command {
	var user trackpro.LoginUser
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Log in and keep the session",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationAnonymous: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.client().Auth().Login(cmd.Context(), user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", c.ui.title.Render(user.Username), s.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&user.Password, "password", "p", "", "account password")
	return cmd
}

func newSignupCommand(c *cli) *cobra.Command {
	var user trackpro.SignupUser
	cmd := &cobra.Command{
		Use:         "signup",
		Short:       "Create a client account and log in",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationAnonymous: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user.ConfirmPassword == "" {
				user.ConfirmPassword = user.Password
			}
			s, err := c.client().Auth().Signup(cmd.Context(), user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created (%s)\n", c.ui.title.Render(user.Username), s.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&user.FirstName, "first-name", "", "first name")
	f.StringVar(&user.LastName, "last-name", "", "last name")
	f.StringVarP(&user.Username, "username", "u", "", "account username")
	f.StringVarP(&user.Password, "password", "p", "", "account password")
	f.StringVar(&user.ConfirmPassword, "confirm", "", "password confirmation (defaults to --password)")
	return cmd
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.client().Auth().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(c *cli) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if refresh {
				if _, err := c.client().Auth().Refresh(cmd.Context()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			s := c.client().CurrentSession()
			if !s.Authenticated() {
				fmt.Fprintln(out, c.ui.muted.Render("Not logged in"))
				return nil
			}

			pairs := [][2]string{{"User ID", s.UserID}, {"Role", string(s.Role)}}
			if claims, err := session.Claims(s.AccessToken); err == nil && !claims.ExpiresAt.IsZero() {
				expiry := claims.ExpiresAt.Format(time.RFC3339)
				if claims.Expired(time.Now()) {
					expiry += " " + c.ui.warn.Render("(expired, refreshed on next call)")
				}
				pairs = append(pairs, [2]string{"Token expires", expiry})
				if !claims.IssuedAt.IsZero() {
					pairs = append(pairs, [2]string{"Issued", format.DateWithText(claims.IssuedAt.Format(time.RFC3339))})
				}
			}
			c.ui.fields(out, pairs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "exchange the token for a fresh one first")
	return cmd
}
