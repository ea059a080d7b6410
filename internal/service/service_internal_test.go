package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/todo/internal/apitest"
	"github.com/go-ports/todo/internal/auth"
	"github.com/go-ports/todo/internal/config"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/session"
	"github.com/go-ports/todo/internal/todolist"
)

var adaForm = auth.Form{Email: "ada@example.com", Password: "pw"}

func newBackend(c *qt.C) (*apitest.Server, models.User) {
	srv := apitest.New(c.TB, apitest.WithSequentialIDs())
	return srv, srv.AddUser("ada", adaForm.Email, adaForm.Password)
}

func newService(c *qt.C, opts Options) *Service {
	c.Setenv(config.EnvToken, "")
	c.Setenv(config.EnvAPIURL, "")
	if opts.Home == "" {
		opts.Home = c.TB.TempDir()
	}
	if opts.Reporter == nil {
		opts.Reporter = todolist.Discard
	}
	svc, err := New(opts)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = svc.Close() })
	return svc
}

func writeConfig(c *qt.C, home, body string) {
	c.Assert(os.WriteFile(config.Path(home), []byte(body), 0o600), qt.IsNil)
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("defaults", func(c *qt.C) {
		svc := newService(c, Options{})
		c.Assert(svc.BaseURL, qt.Equals, config.DefaultBaseURL)
		c.Assert(svc.BaseURLSource, qt.Equals, "default")
		_, ok := svc.Session.Current()
		c.Assert(ok, qt.IsFalse)
	})

	c.Run("session_path_per_storage", func(c *qt.C) {
		for storage, want := range map[string]string{
			StorageFile:   "session.json",
			StorageSQLite: "session.db",
			StorageMemory: "",
		} {
			home := c.TB.TempDir()
			writeConfig(c, home, "session:\n  storage: "+storage+"\n")
			svc := newService(c, Options{Home: home})
			if want == "" {
				c.Assert(svc.SessionPath, qt.Equals, "")
				continue
			}
			c.Assert(svc.SessionPath, qt.Equals, filepath.Join(home, want))
		}
	})

	c.Run("config_base_url_and_flag", func(c *qt.C) {
		home := c.TB.TempDir()
		writeConfig(c, home, "api:\n  base_url: http://cfg.example:1/\n")

		svc := newService(c, Options{Home: home})
		c.Assert(svc.BaseURL, qt.Equals, "http://cfg.example:1")
		c.Assert(svc.BaseURLSource, qt.Equals, "config")

		svc = newService(c, Options{Home: home, BaseURL: "http://flag.example:2"})
		c.Assert(svc.BaseURLSource, qt.Equals, "flag")
	})
}

func TestNew_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Run("unknown_storage", func(c *qt.C) {
		home := c.TB.TempDir()
		writeConfig(c, home, "session:\n  storage: redis\n")
		_, err := New(Options{Home: home})
		c.Assert(err, qt.ErrorMatches, `service.New: unknown session storage "redis".*`)
	})

	c.Run("bad_config", func(c *qt.C) {
		home := c.TB.TempDir()
		writeConfig(c, home, "api: [unclosed\n")
		_, err := New(Options{Home: home})
		c.Assert(err, qt.ErrorMatches, `service.New: load config: .*`)
	})

	c.Run("no_home", func(c *qt.C) {
		c.Setenv("HOME", "")
		c.Setenv(config.EnvHome, "")
		_, err := New(Options{})
		c.Assert(err, qt.ErrorMatches, `service.New: resolve home: cannot determine home directory .*`)
		c.Assert(errors.Is(err, config.ErrNoHome), qt.IsTrue)
	})
}

// ---------------------------------------------------------------------------
// Session lifecycle
// ---------------------------------------------------------------------------

func TestLogin_PersistsAcrossProcesses(t *testing.T) {
	c := qt.New(t)

	for _, storage := range []string{StorageFile, StorageSQLite} {
		c.Run(storage, func(c *qt.C) {
			srv, _ := newBackend(c)
			home := c.TB.TempDir()
			writeConfig(c, home, "session:\n  storage: "+storage+"\n")

			first := newService(c, Options{Home: home, BaseURL: srv.URL})
			sess, err := first.Login(context.Background(), adaForm)
			c.Assert(err, qt.IsNil)
			c.Assert(sess.User.Username, qt.Equals, "ada")
			c.Assert(first.Close(), qt.IsNil)

			// A new process restores the session without logging in again.
			second := newService(c, Options{Home: home, BaseURL: srv.URL})
			who, err := second.Whoami()
			c.Assert(err, qt.IsNil)
			c.Assert(who.User.Username, qt.Equals, "ada")
			c.Assert(who.Source, qt.Equals, session.SourcePersisted)
			c.Assert(who.Valid, qt.IsTrue)
			c.Assert(who.ExpiresAt, qt.IsNotNil)
			c.Assert(srv.Count(apitest.RouteLogin), qt.Equals, 1)

			envActive, err := second.Logout()
			c.Assert(err, qt.IsNil)
			c.Assert(envActive, qt.IsFalse)
			_, err = second.Whoami()
			c.Assert(err, qt.ErrorIs, ErrNotSignedIn)
		})
	}
}

func TestLogin_FailurePath(t *testing.T) {
	c := qt.New(t)

	srv, _ := newBackend(c)
	svc := newService(c, Options{BaseURL: srv.URL, Ephemeral: true})

	_, err := svc.Login(context.Background(), auth.Form{Email: adaForm.Email, Password: "nope"})
	c.Assert(err, qt.ErrorMatches, "login: Invalid credentials")

	_, err = svc.Register(context.Background(), auth.Form{Username: "ada", Email: adaForm.Email, Password: "pw"})
	c.Assert(err, qt.ErrorMatches, "register: User already exists")
}

func TestEnvToken(t *testing.T) {
	c := qt.New(t)

	srv, user := newBackend(c)
	srv.Seed(user, models.Todo{Text: "from env"})

	home := c.TB.TempDir()
	c.Setenv(config.EnvAPIURL, "")
	c.Setenv(config.EnvToken, "Bearer "+srv.Token(user))
	svc, err := New(Options{Home: home, BaseURL: srv.URL, Reporter: todolist.Discard})
	c.Assert(err, qt.IsNil)
	defer svc.Close()

	c.Assert(svc.Session.Source(), qt.Equals, session.SourceEnv)
	list, err := svc.Mount(context.Background())
	c.Assert(err, qt.IsNil)
	defer list.Close()
	c.Assert(list.Todos()[0].Text, qt.Equals, "from env")

	envActive, err := svc.Logout()
	c.Assert(err, qt.IsNil)
	c.Assert(envActive, qt.IsTrue)

	_, err = os.Stat(filepath.Join(home, "session.json"))
	c.Assert(errors.Is(err, os.ErrNotExist), qt.IsTrue)
}

// ---------------------------------------------------------------------------
// Mount / Bind
// ---------------------------------------------------------------------------

func TestMount_HappyPath(t *testing.T) {
	c := qt.New(t)

	srv, user := newBackend(c)
	srv.Seed(user, models.Todo{Text: "A"}, models.Todo{Text: "B", Completed: true})
	svc := newService(c, Options{BaseURL: srv.URL, Ephemeral: true})
	_, err := svc.Login(context.Background(), adaForm)
	c.Assert(err, qt.IsNil)

	list, err := svc.Mount(context.Background())
	c.Assert(err, qt.IsNil)
	defer list.Close()
	c.Assert(list.State(), qt.Equals, todolist.Ready)
	c.Assert(list.Counts(), qt.Equals, models.Counts{Total: 2, Completed: 1, Remaining: 1})
}

func TestMount_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Run("not_signed_in", func(c *qt.C) {
		svc := newService(c, Options{Ephemeral: true})
		_, err := svc.Mount(context.Background())
		c.Assert(err, qt.ErrorIs, ErrNotSignedIn)
	})

	c.Run("expired_token", func(c *qt.C) {
		srv := apitest.New(c.TB, apitest.WithTokenTTL(-time.Minute))
		user := srv.AddUser("ada", adaForm.Email, adaForm.Password)
		svc := newService(c, Options{BaseURL: srv.URL, Ephemeral: true})
		c.Assert(svc.Session.Set(srv.Token(user), user), qt.IsNil)

		_, err := svc.Mount(context.Background())
		c.Assert(err, qt.ErrorIs, ErrNotSignedIn)
	})

	c.Run("fetch_fails", func(c *qt.C) {
		srv, _ := newBackend(c)
		srv.Fail(apitest.RouteList, 503, "down")
		svc := newService(c, Options{BaseURL: srv.URL, Ephemeral: true})
		_, err := svc.Login(context.Background(), adaForm)
		c.Assert(err, qt.IsNil)

		list, err := svc.Mount(context.Background())
		c.Assert(err, qt.IsNotNil)
		c.Assert(list, qt.IsNotNil)
		c.Assert(list.State(), qt.Equals, todolist.Ready)
		c.Assert(list.Todos(), qt.HasLen, 0)
	})
}

func TestBind_FollowsSession(t *testing.T) {
	c := qt.New(t)

	srv, ada := newBackend(c)
	bob := srv.AddUser("bob", "bob@example.com", "pw")
	srv.Seed(ada, models.Todo{Text: "ada's"})
	srv.Seed(bob, models.Todo{Text: "bob's"})

	svc := newService(c, Options{BaseURL: srv.URL, Ephemeral: true})
	_, err := svc.Login(context.Background(), adaForm)
	c.Assert(err, qt.IsNil)
	list, err := svc.Mount(context.Background())
	c.Assert(err, qt.IsNil)
	unbind := svc.Bind(list)
	defer unbind()

	_, err = svc.Login(context.Background(), auth.Form{Email: "bob@example.com", Password: "pw"})
	c.Assert(err, qt.IsNil)
	c.Assert(list.State(), qt.Equals, todolist.Loading)
	c.Assert(list.Load(context.Background()), qt.IsNil)
	c.Assert(list.Todos()[0].Text, qt.Equals, "bob's")

	_, err = svc.Logout()
	c.Assert(err, qt.IsNil)
	c.Assert(list.Load(context.Background()), qt.ErrorIs, todolist.ErrClosed)
}
