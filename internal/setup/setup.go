// Package setup registers and unregisters the todo MCP server with supported
// coding agents (Claude Code, Cursor, Codex, OpenCode).
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ServerName is the key the MCP server is registered under.
const ServerName = "todo"

// Agent is a supported coding agent.
type Agent string

// Supported agents.
const (
	ClaudeCode Agent = "claude-code"
	Cursor     Agent = "cursor"
	Codex      Agent = "codex"
	OpenCode   Agent = "opencode"
)

// Agents lists every supported agent in display order.
func Agents() []Agent { return []Agent{ClaudeCode, Cursor, Codex, OpenCode} }

// ParseAgent validates an agent name.
func ParseAgent(s string) (Agent, error) {
	for _, a := range Agents() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown agent %q (want one of %s)", s, joinAgents())
}

func joinAgents() string {
	names := make([]string, 0, len(Agents()))
	for _, a := range Agents() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

// Entry is the command line an agent runs to start the server.
type Entry struct {
	Command string
	Args    []string
}

// NewEntry returns the `<command> [--home H] [--api-url U] mcp` entry. Empty
// home or baseURL are left out so the server resolves them itself.
func NewEntry(command, home, baseURL string) Entry {
	if command == "" {
		command = "todo"
	}
	var args []string
	if home != "" {
		args = append(args, "--home", home)
	}
	if baseURL != "" {
		args = append(args, "--api-url", baseURL)
	}
	return Entry{Command: command, Args: append(args, "mcp")}
}

// Target is one agent config file.
type Target struct {
	Agent Agent
	Path  string
}

// DefaultTarget returns the config file for agent, either the user-wide one
// under userHome or the project-local one under dir.
//
//revive:disable:flag-parameter
func DefaultTarget(agent Agent, project bool, dir, userHome string) Target {
	base := userHome
	if project {
		base = dir
	}
	var path string
	switch agent {
	case ClaudeCode:
		path = filepath.Join(userHome, ".claude.json")
		if project {
			path = filepath.Join(dir, ".mcp.json")
		}
	case Cursor:
		path = filepath.Join(base, ".cursor", "mcp.json")
	case Codex:
		path = filepath.Join(base, ".codex", "config.toml")
	case OpenCode:
		path = filepath.Join(userHome, ".config", "opencode", "opencode.json")
		if project {
			path = filepath.Join(dir, "opencode.json")
		}
	}
	return Target{Agent: agent, Path: path}
}

//revive:enable:flag-parameter

// Result describes what Install or Uninstall did.
type Result struct {
	Changed bool
	Message string
}

// Install registers e in t. An existing registration is left untouched.
func Install(t Target, e Entry) (Result, error) {
	var (
		added bool
		err   error
	)
	switch t.Agent {
	case ClaudeCode, Cursor:
		added, err = installJSON(t.Path, "mcpServers", map[string]any{
			"type":    "stdio",
			"command": e.Command,
			"args":    toAny(e.Args),
		})
	case OpenCode:
		added, err = installJSON(t.Path, "mcp", map[string]any{
			"type":    "local",
			"command": toAny(append([]string{e.Command}, e.Args...)),
		})
	case Codex:
		added, err = appendTOMLSection(t.Path, e)
	default:
		return Result{}, fmt.Errorf("setup.Install: unknown agent %q", t.Agent)
	}
	if err != nil {
		return Result{}, fmt.Errorf("setup.Install %s: %w", t.Path, err)
	}
	if !added {
		return Result{Message: "Already installed in " + t.Path}, nil
	}
	return Result{Changed: true, Message: "Installed " + ServerName + " MCP server in " + t.Path}, nil
}

// Uninstall removes the registration from t, deleting the file when nothing
// else is left in it.
func Uninstall(t Target) (Result, error) {
	var (
		removed bool
		err     error
	)
	switch t.Agent {
	case ClaudeCode, Cursor:
		removed, err = uninstallJSON(t.Path, "mcpServers")
	case OpenCode:
		removed, err = uninstallJSON(t.Path, "mcp")
	case Codex:
		removed, err = removeTOMLSection(t.Path)
	default:
		return Result{}, fmt.Errorf("setup.Uninstall: unknown agent %q", t.Agent)
	}
	if err != nil {
		return Result{}, fmt.Errorf("setup.Uninstall %s: %w", t.Path, err)
	}
	if !removed {
		return Result{Message: "Nothing to remove in " + t.Path}, nil
	}
	return Result{Changed: true, Message: "Removed " + ServerName + " MCP server from " + t.Path}, nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// ---------------------------------------------------------------------------
// JSON helpers (Claude Code, Cursor, OpenCode)
// ---------------------------------------------------------------------------

// readJSON returns the object stored at path, or an empty one when the file
// is missing. A file that is not a JSON object is an error so it is never
// overwritten.
func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func writeJSON(path string, data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644) // #nosec G306 -- agent config files (MCP server entries) do not contain secrets
}

func installJSON(path, key string, entry map[string]any) (bool, error) {
	data, err := readJSON(path)
	if err != nil {
		return false, err
	}
	servers, _ := data[key].(map[string]any)
	if servers == nil {
		servers = make(map[string]any)
		data[key] = servers
	}
	if _, exists := servers[ServerName]; exists {
		return false, nil
	}
	servers[ServerName] = entry
	return true, writeJSON(path, data)
}

func uninstallJSON(path, key string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	data, err := readJSON(path)
	if err != nil {
		return false, err
	}
	servers, _ := data[key].(map[string]any)
	if _, exists := servers[ServerName]; !exists {
		return false, nil
	}
	delete(servers, ServerName)
	if len(servers) == 0 {
		delete(data, key)
	}
	if len(data) == 0 {
		return true, os.Remove(path)
	}
	return true, writeJSON(path, data)
}

// ---------------------------------------------------------------------------
// TOML helpers (Codex; text-based, only handles the [mcp_servers.todo] table)
// ---------------------------------------------------------------------------

const tomlHeader = "[mcp_servers." + ServerName + "]"

func tomlSection(e Entry) string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = strconv.Quote(a)
	}
	return fmt.Sprintf("\n%s\ncommand = %s\nargs = [%s]\n", tomlHeader, strconv.Quote(e.Command), strings.Join(args, ", "))
}

func hasTOMLSection(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == tomlHeader {
			return true
		}
	}
	return false
}

func appendTOMLSection(path string, e Entry) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if hasTOMLSection(string(data)) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G302 -- agent TOML config is not a sensitive credential file
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := f.WriteString(tomlSection(e)); err != nil {
		return false, err
	}
	return true, nil
}

func removeTOMLSection(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	content := string(data)
	if !hasTOMLSection(content) {
		return false, nil
	}
	// Skip the header and its key-value pairs up to the next table or EOF.
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	inSection := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == tomlHeader {
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(trimmed, "[") {
			inSection = false
		}
		if !inSection {
			kept = append(kept, line)
		}
	}
	cleaned := strings.TrimRight(strings.Join(kept, "\n"), "\n")
	if strings.TrimSpace(cleaned) == "" {
		return true, os.Remove(path)
	}
	return true, os.WriteFile(path, []byte(cleaned+"\n"), 0o644) // #nosec G306 -- agent TOML config is not a sensitive credential file
}
