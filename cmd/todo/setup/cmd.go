// Package setupcmd implements the `todo setup` command group.
package setupcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/setup"
)

// Command implements `todo setup`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the setup command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "setup",
		Short: "Register the todo MCP server with a coding agent",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	for _, a := range setup.Agents() {
		c.cmd.AddCommand(c.newAgent(a))
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) newAgent(agent setup.Agent) *cobra.Command {
	var (
		configFile string
		command    string
		project    bool
	)
	cmd := &cobra.Command{
		Use:   string(agent),
		Short: fmt.Sprintf("Register the todo MCP server with %s", agent),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Pin home and backend only when they were chosen explicitly, so
			// the agent's server sees the same session as this shell.
			var home string
			if path, source := c.ctx.ResolveHome(); source != "default" {
				home = path
			}
			entry := setup.NewEntry(command, home, c.ctx.APIURL)
			res, err := setup.Install(shared.AgentTarget(agent, project, configFile), entry)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config-file", "", "Agent config file to edit (default: the agent's own location)")
	cmd.Flags().StringVar(&command, "command", "todo", "Executable the agent should run")
	cmd.Flags().BoolVar(&project, "project", false, "Install in the current project instead of globally")
	return cmd
}
