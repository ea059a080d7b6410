// Package donecmd implements the `todo done` command.
package donecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
)

// Command implements `todo done`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the done command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "done <id-or-number>",
		Aliases: []string{"toggle"},
		Short:   "Toggle a todo between done and not done",
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
	t, err := list.Toggle(cmd.Context(), target.ID, !target.Completed)
	if err != nil {
		return shared.Explain(err)
	}

	verb := "Reopened"
	if t.Completed {
		verb = "Completed"
	}
	counts := list.Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d of %d done)\n", verb, t.Text, counts.Completed, counts.Total)
	return nil
}
