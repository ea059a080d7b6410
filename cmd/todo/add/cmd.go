// Package addcmd implements the `todo add` command.
package addcmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/todolist"
)

// Command implements `todo add`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the add command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a todo to the end of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("nothing to add: text is empty")
	}

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

	t, err := list.Add(cmd.Context(), text)
	if errors.Is(err, todolist.ErrEmptyText) {
		return errors.New("nothing to add: text is empty")
	}
	if err != nil {
		return shared.Explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added #%d: %s (id: %s)\n", list.Counts().Total, t.Text, t.ID)
	return nil
}
