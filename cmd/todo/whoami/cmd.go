// Package whoamicmd implements the `todo whoami` command.
package whoamicmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
)

// Command implements `todo whoami`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the whoami command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and token status",
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

	who, err := svc.Whoami()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User:    %s\n", who.User.DisplayName())
	if who.User.Email != "" {
		fmt.Fprintf(out, "Email:   %s\n", who.User.Email)
	}
	fmt.Fprintf(out, "Token:   %s\n", who.Source)
	switch {
	case who.ExpiresAt == nil:
		fmt.Fprintln(out, "Expires: never (opaque token)")
	case who.Valid:
		fmt.Fprintf(out, "Expires: %s (in %s)\n", who.ExpiresAt.Format(time.RFC3339), time.Until(*who.ExpiresAt).Round(time.Minute))
	default:
		fmt.Fprintf(out, "Expires: %s (expired, run `todo login`)\n", who.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Backend: %s (%s)\n", who.BaseURL, svc.BaseURLSource)
	return nil
}
