// Package configcmd implements the `todo config` command group.
package configcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/config"
	"github.com/go-ports/todo/internal/redaction"
)

const configTemplate = `# todo client configuration

api:
  base_url: http://localhost:5000   # overridden by --api-url and TODO_API_URL
  timeout: 30s                      # per request; 0 disables

# Where the signed-in session is kept.
session:
  storage: file                     # file | sqlite | memory

ui:
  theme: classic                    # classic | neon | mono
  show_errors: true                 # status line for failed todo requests

log:
  level: warn                       # debug | info | warn | error
`

// Command implements `todo config`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the config command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Args:  cobra.NoArgs,
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(newConfigInit(ctx))
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	_, homeSource := c.ctx.ResolveHome()
	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	cfg := svc.Config
	storage := cfg.Session.Storage
	if c.ctx.Ephemeral {
		storage = "memory"
	}
	sess, _ := svc.Session.Current()
	sessionPath := svc.SessionPath
	if sessionPath == "" {
		sessionPath = "(memory)"
	}

	data := map[string]any{
		"api": map[string]any{
			"base_url": cfg.API.BaseURL,
			"timeout":  cfg.API.Timeout.String(),
		},
		"session": map[string]any{
			"storage": storage,
			"path":    sessionPath,
			"source":  svc.Session.Source(),
			"token":   redaction.Secret(sess.Token),
		},
		"ui": map[string]any{
			"theme":       cfg.UI.Theme,
			"show_errors": cfg.UI.ShowErrors,
		},
		"log": map[string]any{
			"level": cfg.Log.Level,
		},
		"home":            svc.Home,
		"home_source":     homeSource,
		"base_url":        svc.BaseURL,
		"base_url_source": svc.BaseURLSource,
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

// ---------------------------------------------------------------------------
// config init
// ---------------------------------------------------------------------------

func newConfigInit(ctx *shared.Context) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := config.Home(ctx.Home)
			if err != nil {
				return err
			}
			cfgPath := config.Path(home)
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				fmt.Fprintf(out, "Config already exists at %s\n", cfgPath)
				fmt.Fprintln(out, "Use --force to overwrite.")
				return nil
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, []byte(configTemplate), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}
