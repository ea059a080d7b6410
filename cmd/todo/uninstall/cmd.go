// Package uninstallcmd implements the `todo uninstall` command group.
package uninstallcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/setup"
)

// Command implements `todo uninstall`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the uninstall command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the todo MCP server from a coding agent",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	for _, a := range setup.Agents() {
		c.cmd.AddCommand(newAgent(a))
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func newAgent(agent setup.Agent) *cobra.Command {
	var (
		configFile string
		project    bool
	)
	cmd := &cobra.Command{
		Use:   string(agent),
		Short: fmt.Sprintf("Remove the todo MCP server from %s", agent),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := setup.Uninstall(shared.AgentTarget(agent, project, configFile))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config-file", "", "Agent config file to edit (default: the agent's own location)")
	cmd.Flags().BoolVar(&project, "project", false, "Uninstall from the current project instead of globally")
	return cmd
}
