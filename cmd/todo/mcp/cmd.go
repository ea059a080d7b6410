// Package mcpcmd implements the `todo mcp` command.
package mcpcmd

import (
	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	internalmcp "github.com/go-ports/todo/internal/mcp"
)

// Command implements `todo mcp`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the mcp command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "mcp",
		Short: "Start the todo MCP server (stdio transport)",
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
	return internalmcp.Serve(cmd.Context(), svc)
}
