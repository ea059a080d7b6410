// Package config handles configuration loading, home directory resolution,
// and backend base URL resolution.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is used when no flag, env var, or config value is present.
const DefaultBaseURL = "http://localhost:5000"

// Environment variables read once at startup.
const (
	EnvHome   = "TODO_HOME"
	EnvAPIURL = "TODO_API_URL"
	EnvToken  = "TODO_TOKEN"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// APIConfig holds settings for the REST backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 disables the per-request timeout
}

// SessionConfig selects the session persistence adapter.
type SessionConfig struct {
	Storage string `yaml:"storage"` // "file" | "sqlite" | "memory"
}

// UIConfig controls the terminal UI.
type UIConfig struct {
	Theme      string `yaml:"theme"`       // "classic" | "neon" | "mono"
	ShowErrors bool   `yaml:"show_errors"` // status line for todo failures
}

// LogConfig controls slog output.
type LogConfig struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
}

// Config is the root configuration read from <home>/config.yaml.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{Storage: "file"},
		UI: UIConfig{
			Theme:      "classic",
			ShowErrors: true,
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if api, ok := raw["api"].(map[string]any); ok {
		if v, ok := api["base_url"].(string); ok && v != "" {
			cfg.API.BaseURL = v
		}
		if v, ok := api["timeout"]; ok {
			d, err := parseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("config.Load: api.timeout: %w", err)
			}
			cfg.API.Timeout = d
		}
	}

	if sess, ok := raw["session"].(map[string]any); ok {
		if v, ok := sess["storage"].(string); ok && v != "" {
			cfg.Session.Storage = v
		}
	}

	if ui, ok := raw["ui"].(map[string]any); ok {
		if v, ok := ui["theme"].(string); ok && v != "" {
			cfg.UI.Theme = v
		}
		if v, ok := ui["show_errors"].(bool); ok {
			cfg.UI.ShowErrors = v
		}
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v, ok := lg["level"].(string); ok && v != "" {
			cfg.Log.Level = v
		}
	}

	return cfg, nil
}

// parseDuration accepts "30s"-style strings or bare integers (seconds).
func parseDuration(v any) (time.Duration, error) {
	switch x := v.(type) {
	case string:
		return time.ParseDuration(strings.TrimSpace(x))
	case int:
		return time.Duration(x) * time.Second, nil
	case float64:
		return time.Duration(x * float64(time.Second)), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}

// ---------------------------------------------------------------------------
// Home resolution
// ---------------------------------------------------------------------------

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ResolveHome returns the client home directory and the source of the resolution.
// Priority: flag → TODO_HOME env → ~/.todo
// source is one of "flag", "env", or "default". path is empty when the user
// home directory is unknown and neither flag nor env is usable.
func ResolveHome(flag string) (path, source string) {
	if flag != "" {
		if p, err := normalizePath(flag); err == nil {
			return p, "flag"
		}
	}
	if env := os.Getenv(EnvHome); env != "" {
		if p, err := normalizePath(env); err == nil {
			return p, "env"
		}
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", "default"
	}
	return filepath.Join(home, ".todo"), "default"
}

// ErrNoHome is returned by Home when no directory can be resolved.
var ErrNoHome = errors.New("cannot determine home directory (set " + EnvHome + " or pass --home)")

// Home is ResolveHome for callers that need a usable directory.
func Home(flag string) (string, error) {
	path, _ := ResolveHome(flag)
	if path == "" {
		return "", ErrNoHome
	}
	return path, nil
}

// Path returns the config.yaml location inside home.
func Path(home string) string { return filepath.Join(home, "config.yaml") }

// ResolveBaseURL returns the backend base URL and its source.
// Priority: flag → TODO_API_URL env → config file → DefaultBaseURL.
func ResolveBaseURL(flag string, cfg *Config) (url, source string) {
	if flag = strings.TrimSpace(flag); flag != "" {
		return strings.TrimRight(flag, "/"), "flag"
	}
	if env := strings.TrimSpace(os.Getenv(EnvAPIURL)); env != "" {
		return strings.TrimRight(env, "/"), "env"
	}
	if cfg != nil && cfg.API.BaseURL != "" && cfg.API.BaseURL != DefaultBaseURL {
		return strings.TrimRight(cfg.API.BaseURL, "/"), "config"
	}
	return DefaultBaseURL, "default"
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment without overriding variables already set.
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config.LoadDotEnv %s: %w", p, err)
		}
	}
	return nil
}
