// Package rmcmd implements the `todo rm` command.
package rmcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
)

// Command implements `todo rm`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the rm command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "rm <id-or-number>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE:    c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	list, err := shared.Mount(cmd, svc)
	if err != nil {
		return err
	}
	defer list.Close()

	target, err := shared.Lookup(list, args[0])
	if err != nil {
		return err
	}
	if err := list.Delete(cmd.Context(), target.ID); err != nil {
		return shared.Explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", target.Text)
	return nil
}
