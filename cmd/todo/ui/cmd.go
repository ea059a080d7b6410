// Package uicmd implements the `todo ui` command.
package uicmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/render"
	"github.com/go-ports/todo/internal/router"
	"github.com/go-ports/todo/internal/tui"
)

// Command implements `todo ui`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	theme  string
	screen string
}

// New creates the ui command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.theme, "theme", "", "Override ui.theme (classic, neon, mono)")
	c.cmd.Flags().StringVar(&c.screen, "screen", "/", "Initial screen: /, /login, /register or /todos")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	start, ok := router.Parse(c.screen)
	if !ok {
		return fmt.Errorf("unknown screen %q", c.screen)
	}

	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	// The alternate screen owns the terminal, so logs go to a file.
	logPath := filepath.Join(svc.Home, "todo.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	level := c.ctx.LogLevel
	if level == "" {
		level = svc.Config.Log.Level
	}
	if err := shared.SetupLogging(logFile, level); err != nil {
		return err
	}

	name := svc.Config.UI.Theme
	if c.theme != "" {
		name = c.theme
	}
	th, err := render.NewTheme(name, lipgloss.DefaultRenderer())
	if err != nil {
		return err
	}

	return tui.Run(cmd.Context(), svc, tui.Options{
		Theme:      th,
		ShowErrors: svc.Config.UI.ShowErrors,
		Start:      start,
	})
}
