// Package shared holds the context passed to all CLI commands.
package shared

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/go-ports/todo/internal/api"
	"github.com/go-ports/todo/internal/config"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/render"
	"github.com/go-ports/todo/internal/service"
	"github.com/go-ports/todo/internal/todolist"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// Home overrides the client home directory.
	// When empty, resolution falls through to TODO_HOME env → ~/.todo.
	Home string
	// APIURL overrides the backend base URL.
	APIURL string
	// LogLevel overrides log.level from config.yaml.
	LogLevel string
	// Ephemeral keeps the session in memory for this invocation.
	Ephemeral bool
}

// ResolveHome returns the home directory and where it came from.
func (c *Context) ResolveHome() (path, source string) {
	return config.ResolveHome(c.Home)
}

// Service opens the service for one command invocation.
func (c *Context) Service() (*service.Service, error) {
	home, _ := c.ResolveHome()
	return service.New(service.Options{Home: home, BaseURL: c.APIURL, Ephemeral: c.Ephemeral})
}

// Theme builds the configured theme for cmd's output writer.
func Theme(cmd *cobra.Command, svc *service.Service) (render.Theme, error) {
	return render.NewTheme(svc.Config.UI.Theme, lipgloss.NewRenderer(cmd.OutOrStdout()))
}

// Explain adds a hint to errors the user can act on.
func Explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("%w: session expired or revoked (run `todo login`)", err)
	default:
		return err
	}
}

// Mount loads the todo list for one command. Unlike the UI, a failed fetch
// is returned: a CLI must not print an empty list it never received.
func Mount(cmd *cobra.Command, svc *service.Service) (*todolist.Synchronizer, error) {
	list, err := svc.Mount(cmd.Context(), todolist.WithReporter(todolist.Discard))
	if err != nil {
		if list != nil {
			list.Close()
		}
		return nil, Explain(err)
	}
	return list, nil
}

// Lookup resolves a todo reference (id or 1-based index) or fails with a
// hint.
func Lookup(list *todolist.Synchronizer, ref string) (models.Todo, error) {
	t, ok := list.Lookup(ref)
	if !ok {
		return models.Todo{}, fmt.Errorf("no todo matches %q (see `todo ls` for ids and numbers)", ref)
	}
	return t, nil
}
