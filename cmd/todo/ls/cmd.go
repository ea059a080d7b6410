// Package lscmd implements the `todo ls` command.
package lscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/render"
)

// Command implements `todo ls`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	group bool
}

// New creates the ls command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos with progress",
		Args:    cobra.NoArgs,
		RunE:    c.run,
	}
	c.cmd.Flags().BoolVar(&c.group, "group", false, "Group pending and done todos")
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

	list, err := shared.Mount(cmd, svc)
	if err != nil {
		return err
	}
	defer list.Close()

	th, err := shared.Theme(cmd, svc)
	if err != nil {
		return err
	}
	sess, _ := svc.Session.Current()
	counts := list.Counts()

	lines := []string{
		render.Header(th, sess.User.DisplayName(), counts),
		render.ProgressBar(th, counts, 28),
		"",
	}
	if c.group {
		lines = append(lines, render.Grouped(th, list.Todos())...)
	} else {
		lines = append(lines, render.List(th, list.Todos())...)
	}
	lines = append(lines, "", render.Stats(th, counts))

	fmt.Fprintln(cmd.OutOrStdout(), render.Panel(th, lines))
	return nil
}
