// Package rootcmd wires the root cobra.Command for the todo CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	addcmd "github.com/go-ports/todo/cmd/todo/add"
	configcmd "github.com/go-ports/todo/cmd/todo/config"
	donecmd "github.com/go-ports/todo/cmd/todo/done"
	exportcmd "github.com/go-ports/todo/cmd/todo/export"
	logincmd "github.com/go-ports/todo/cmd/todo/login"
	logoutcmd "github.com/go-ports/todo/cmd/todo/logout"
	lscmd "github.com/go-ports/todo/cmd/todo/ls"
	mcpcmd "github.com/go-ports/todo/cmd/todo/mcp"
	registercmd "github.com/go-ports/todo/cmd/todo/register"
	rmcmd "github.com/go-ports/todo/cmd/todo/rm"
	setupcmd "github.com/go-ports/todo/cmd/todo/setup"
	"github.com/go-ports/todo/cmd/todo/shared"
	uicmd "github.com/go-ports/todo/cmd/todo/ui"
	uninstallcmd "github.com/go-ports/todo/cmd/todo/uninstall"
	versioncmd "github.com/go-ports/todo/cmd/todo/version"
	whoamicmd "github.com/go-ports/todo/cmd/todo/whoami"
	"github.com/go-ports/todo/internal/config"
)

// New creates and returns the root cobra.Command for the todo CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "A terminal client for a multi-user todo API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := ctx.LogLevel
			if level == "" {
				if home, _ := ctx.ResolveHome(); home != "" {
					if cfg, err := config.Load(config.Path(home)); err == nil {
						level = cfg.Log.Level
					}
				}
			}
			return shared.SetupLogging(cmd.ErrOrStderr(), level)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&ctx.Home, "home", "",
		"Override client home directory (default: $TODO_HOME env → ~/.todo)")
	pf.StringVar(&ctx.APIURL, "api-url", "",
		"Backend base URL (default: $TODO_API_URL env → api.base_url in config.yaml → "+config.DefaultBaseURL+")")
	pf.StringVar(&ctx.LogLevel, "log-level", "",
		"Log level: debug, info, warn, error (default: log.level in config.yaml → warn)")
	pf.BoolVar(&ctx.Ephemeral, "ephemeral", false,
		"Keep the session in memory only for this invocation")

	root.AddCommand(
		logincmd.New(ctx).Cmd(),
		registercmd.New(ctx).Cmd(),
		logoutcmd.New(ctx).Cmd(),
		whoamicmd.New(ctx).Cmd(),
		lscmd.New(ctx).Cmd(),
		addcmd.New(ctx).Cmd(),
		donecmd.New(ctx).Cmd(),
		rmcmd.New(ctx).Cmd(),
		exportcmd.New(ctx).Cmd(),
		uicmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
		setupcmd.New(ctx).Cmd(),
		uninstallcmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		versioncmd.New(ctx).Cmd(),
	)

	return root
}
