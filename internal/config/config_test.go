package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/todo/internal/config"
)

func TestDefault_HappyPath(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default()
	c.Assert(cfg, qt.IsNotNil)
	c.Assert(cfg.API.BaseURL, qt.Equals, "http://localhost:5000")
	c.Assert(cfg.API.Timeout, qt.Equals, 30*time.Second)
	c.Assert(cfg.Session.Storage, qt.Equals, "file")
	c.Assert(cfg.UI.Theme, qt.Equals, "classic")
	c.Assert(cfg.UI.ShowErrors, qt.IsTrue)
	c.Assert(cfg.Log.Level, qt.Equals, "warn")
}

func TestLoad_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("non-existent file returns defaults without error", func(c *qt.C) {
		cfg, err := config.Load("/nonexistent/config.yaml")
		c.Assert(err, qt.IsNil)
		c.Assert(cfg, qt.DeepEquals, config.Default())
	})

	tests := []struct {
		name        string
		yaml        string
		wantBaseURL string
		wantTimeout time.Duration
		wantStorage string
		wantTheme   string
		wantErrors  bool
		wantLevel   string
	}{
		{
			name:        "full file overrides all fields",
			yaml:        "api:\n  base_url: https://todo.example.com\n  timeout: 5s\nsession:\n  storage: sqlite\nui:\n  theme: neon\n  show_errors: false\nlog:\n  level: debug\n",
			wantBaseURL: "https://todo.example.com",
			wantTimeout: 5 * time.Second,
			wantStorage: "sqlite",
			wantTheme:   "neon",
			wantErrors:  false,
			wantLevel:   "debug",
		},
		{
			name:        "integer timeout is seconds",
			yaml:        "api:\n  timeout: 12\n",
			wantBaseURL: config.DefaultBaseURL,
			wantTimeout: 12 * time.Second,
			wantStorage: "file",
			wantTheme:   "classic",
			wantErrors:  true,
			wantLevel:   "warn",
		},
		{
			name:        "zero timeout disables it",
			yaml:        "api:\n  timeout: 0s\n",
			wantBaseURL: config.DefaultBaseURL,
			wantTimeout: 0,
			wantStorage: "file",
			wantTheme:   "classic",
			wantErrors:  true,
			wantLevel:   "warn",
		},
		{
			name:        "empty strings retain defaults",
			yaml:        "api:\n  base_url: \"\"\nui:\n  theme: \"\"\n",
			wantBaseURL: config.DefaultBaseURL,
			wantTimeout: 30 * time.Second,
			wantStorage: "file",
			wantTheme:   "classic",
			wantErrors:  true,
			wantLevel:   "warn",
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			c.Assert(os.WriteFile(path, []byte(tt.yaml), 0o600), qt.IsNil)

			cfg, err := config.Load(path)
			c.Assert(err, qt.IsNil)
			c.Assert(cfg.API.BaseURL, qt.Equals, tt.wantBaseURL)
			c.Assert(cfg.API.Timeout, qt.Equals, tt.wantTimeout)
			c.Assert(cfg.Session.Storage, qt.Equals, tt.wantStorage)
			c.Assert(cfg.UI.Theme, qt.Equals, tt.wantTheme)
			c.Assert(cfg.UI.ShowErrors, qt.Equals, tt.wantErrors)
			c.Assert(cfg.Log.Level, qt.Equals, tt.wantLevel)
		})
	}
}

func TestLoad_FailurePath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "api: [unclosed\n"},
		{"bad duration", "api:\n  timeout: soon\n"},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			c.Assert(os.WriteFile(path, []byte(tc.yaml), 0o600), qt.IsNil)

			cfg, err := config.Load(path)
			c.Assert(err, qt.IsNotNil)
			c.Assert(cfg, qt.IsNil)
		})
	}
}

func TestResolveHome_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("flag wins over env", func(c *qt.C) {
		flag := t.TempDir()
		c.Setenv(config.EnvHome, t.TempDir())
		path, source := config.ResolveHome(flag)
		c.Assert(source, qt.Equals, "flag")
		c.Assert(path, qt.Equals, flag)
	})

	c.Run("env used when flag empty", func(c *qt.C) {
		env := t.TempDir()
		c.Setenv(config.EnvHome, env)
		path, source := config.ResolveHome("")
		c.Assert(source, qt.Equals, "env")
		c.Assert(path, qt.Equals, env)
	})

	c.Run("default under user home", func(c *qt.C) {
		c.Setenv(config.EnvHome, "")
		path, source := config.ResolveHome("")
		c.Assert(source, qt.Equals, "default")
		c.Assert(filepath.Base(path), qt.Equals, ".todo")
	})
}

func TestResolveHome_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Setenv("HOME", "")
	c.Setenv(config.EnvHome, "")

	path, source := config.ResolveHome("")
	c.Assert(path, qt.Equals, "")
	c.Assert(source, qt.Equals, "default")

	_, err := config.Home("")
	c.Assert(err, qt.Equals, config.ErrNoHome)

	flag := c.TB.TempDir()
	got, err := config.Home(flag)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, flag)
}

func TestResolveBaseURL_HappyPath(t *testing.T) {
	c := qt.New(t)

	custom := config.Default()
	custom.API.BaseURL = "https://cfg.example.com/"

	cases := []struct {
		name       string
		flag       string
		env        string
		cfg        *config.Config
		wantURL    string
		wantSource string
	}{
		{"flag beats everything", "http://flag:1/", "http://env:2", custom, "http://flag:1", "flag"},
		{"env beats config", "", "http://env:2", custom, "http://env:2", "env"},
		{"config beats default", "", "", custom, "https://cfg.example.com", "config"},
		{"default config", "", "", config.Default(), config.DefaultBaseURL, "default"},
		{"nil config", "", "", nil, config.DefaultBaseURL, "default"},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Setenv(config.EnvAPIURL, tc.env)
			url, source := config.ResolveBaseURL(tc.flag, tc.cfg)
			c.Assert(url, qt.Equals, tc.wantURL)
			c.Assert(source, qt.Equals, tc.wantSource)
		})
	}
}

func TestLoadDotEnv_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("missing file is not an error", func(c *qt.C) {
		c.Assert(config.LoadDotEnv(filepath.Join(t.TempDir(), ".env")), qt.IsNil)
	})

	c.Run("values are loaded without overriding existing env", func(c *qt.C) {
		path := filepath.Join(t.TempDir(), ".env")
		c.Assert(os.WriteFile(path, []byte("TODO_API_URL=http://dotenv:9\nTODO_HOME=/from/dotenv\n"), 0o600), qt.IsNil)
		c.Setenv(config.EnvAPIURL, "")
		_ = os.Unsetenv(config.EnvAPIURL)
		c.Setenv(config.EnvHome, "/already/set")

		c.Assert(config.LoadDotEnv(path), qt.IsNil)
		c.Assert(os.Getenv(config.EnvAPIURL), qt.Equals, "http://dotenv:9")
		c.Assert(os.Getenv(config.EnvHome), qt.Equals, "/already/set")
	})
}
