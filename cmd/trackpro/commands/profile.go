package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	trackpro "github.com/chimerakang/trackpro-go"
)

func newProfileCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and update profiles",
	}
	cmd.AddCommand(newProfileShowCommand(c), newProfileUpdateCommand(c))
	return cmd
}

// profileID returns the explicit ID or the logged-in user.
func (c *cli) profileID(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	s := c.client().CurrentSession()
	if !s.Authenticated() {
		return "", errors.New("not logged in and no user ID given")
	}
	return s.UserID, nil
}

func newProfileShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show [user-id]",
		Short: "Show a profile, yours by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.profileID(args)
			if err != nil {
				return err
			}
			p, err := c.client().Profiles().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			c.printProfile(cmd, p)
			return nil
		},
	}
}

func (c *cli) printProfile(cmd *cobra.Command, p *trackpro.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, c.ui.title.Render(p.FirstName+" "+p.LastName))
	c.ui.fields(out, [][2]string{
		{"User ID", p.UserID},
		{"Phone", orDash(p.PhoneNumber)},
		{"Image", orDash(p.ImageURL)},
		{"About", orDash(p.About)},
	})
}

func newProfileUpdateCommand(c *cli) *cobra.Command {
	var in trackpro.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "update [user-id]",
		Short: "Update a profile; unset flags keep their current value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.profileID(args)
			if err != nil {
				return err
			}
			profiles := c.client().Profiles()
			cur, err := profiles.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			u := trackpro.ProfileUpdate{
				FirstName:   cur.FirstName,
				LastName:    cur.LastName,
				ImageURL:    cur.ImageURL,
				About:       cur.About,
				PhoneNumber: cur.PhoneNumber,
			}
			changed := cmd.Flags().Changed
			if changed("first-name") {
				u.FirstName = in.FirstName
			}
			if changed("last-name") {
				u.LastName = in.LastName
			}
			if changed("image") {
				u.ImageURL = in.ImageURL
			}
			if changed("about") {
				u.About = in.About
			}
			if changed("phone") {
				u.PhoneNumber = in.PhoneNumber
			}

			p, err := profiles.Update(cmd.Context(), id, u)
			if err != nil {
				return err
			}
			c.printProfile(cmd, p)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&in.ImageURL, "image", "", "avatar URL")
	f.StringVar(&in.About, "about", "", "short biography")
	f.StringVar(&in.PhoneNumber, "phone", "", "phone number")
	return cmd
}
