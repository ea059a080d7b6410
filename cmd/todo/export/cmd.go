// Package exportcmd implements the `todo export` command.
package exportcmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/markdown"
)

// Command implements `todo export`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	out string
}

// New creates the export command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "export",
		Short: "Export the todo list as a markdown checklist",
		Long: "Export the todo list as a markdown checklist.\n\n" +
			"With --out, an existing file is updated in place: only the generated\n" +
			"block and its front-matter keys are rewritten.",
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	c.cmd.Flags().StringVarP(&c.out, "out", "o", "", "Write to this file instead of stdout")
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

	sess, _ := svc.Session.Current()
	user := sess.User.DisplayName()
	now := time.Now()

	if c.out == "" {
		doc, err := markdown.Render(user, list.Todos(), now)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), doc)
		return nil
	}
	if err := markdown.WriteFile(c.out, user, list.Todos(), now); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d todos to %s\n", list.Counts().Total, c.out)
	return nil
}
