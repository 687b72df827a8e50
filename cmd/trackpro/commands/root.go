// Package commands implements the trackpro command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	trackpro "github.com/chimerakang/trackpro-go"
	"github.com/chimerakang/trackpro-go/internal/app"
	"github.com/chimerakang/trackpro-go/internal/config"
)

// errSessionEnded is reported after a terminal authentication failure.
var errSessionEnded = errors.New("session expired or revoked, run `trackpro login` again")

// annotationAnonymous marks commands whose authentication errors are about
// the credentials given, not the stored session.
const annotationAnonymous = "trackpro/anonymous"

// cli carries state shared by every command of one invocation.
type cli struct {
	configPath string
	debug      bool
	app        *app.App
	ui         *palette
}

func (c *cli) client() *trackpro.Client { return c.app.Client }

// newRootCommand builds the command tree. The persistent pre-run loads the
// configuration and assembles the client into c.
func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "trackpro",
		Short:         "Track projects and payments from the terminal",
		Long:          `trackpro talks to the TrackPro API. The session is kept between runs in a file or in Redis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.debug {
				cfg.Log.Level = "debug"
			}
			a, err := app.New(cmd.Context(), cfg, cfg.Log.Logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config file (default: $TRACKPRO_CONFIG or ./trackpro.yaml)")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "log every API call")

	root.AddCommand(
		newLoginCommand(c),
		newSignupCommand(c),
		newLogoutCommand(c),
		newWhoamiCommand(c),
		newProjectsCommand(c),
		newProjectCommand(c),
		newPaymentCommand(c),
		newProfileCommand(c),
		newAccountsCommand(c),
	)
	return root
}

// Run executes the command line args and releases every resource it opened.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{ui: newPalette(stdout)}
	root := newRootCommand(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if c.app != nil {
		ended := trackpro.IsAuthentication(err) && cmd.Annotations[annotationAnonymous] == ""
		if ended && c.app.Store.Snapshot().Authenticated() {
			_ = c.app.Store.RemoveUser()
			err = fmt.Errorf("%w: %w", errSessionEnded, err)
		}
		if cerr := c.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Execute runs the command line of the current process.
func Execute() {
	if err := Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, newPalette(os.Stderr).err.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
