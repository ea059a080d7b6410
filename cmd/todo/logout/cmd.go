// Package logoutcmd implements the `todo logout` command.
package logoutcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/config"
)

// Command implements `todo logout`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the logout command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	_, had := svc.Session.Current()
	envActive, err := svc.Logout()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if had {
		fmt.Fprintln(out, "Signed out.")
	} else {
		fmt.Fprintln(out, "Not signed in.")
	}
	if envActive {
		fmt.Fprintf(out, "%s is still set in the environment; unset it to stay signed out.\n", config.EnvToken)
	}
	return nil
}
