package shared

import (
	"os"

	"github.com/go-ports/todo/internal/setup"
)

// AgentTarget picks the agent config file: configFile when set, else the
// project-local or user-wide default.
//
//revive:disable:flag-parameter
func AgentTarget(agent setup.Agent, project bool, configFile string) setup.Target {
	if configFile != "" {
		return setup.Target{Agent: agent, Path: configFile}
	}
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	return setup.DefaultTarget(agent, project, cwd, home)
}

//revive:enable:flag-parameter
