// Package service wires configuration, the session store, the REST client,
// the auth screens and todo list synchronizers for the outer surfaces (CLI,
// terminal UI, MCP).
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ports/todo/internal/api"
	"github.com/go-ports/todo/internal/auth"
	"github.com/go-ports/todo/internal/config"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/session"
	"github.com/go-ports/todo/internal/todolist"
)

// ErrNotSignedIn is returned when an operation needs a valid session.
var ErrNotSignedIn = errors.New("not signed in (run `todo login`)")

// Session storage kinds accepted in session.storage.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Options configures New. Zero values use the resolved defaults.
type Options struct {
	Home       string       // client home; resolved via config.ResolveHome when empty
	BaseURL    string       // --api-url flag value
	Ephemeral  bool         // keep the session in memory regardless of config
	HTTPClient *http.Client // replaces the default client (tests)
	Reporter   todolist.Reporter
}

// Service is shared by every surface of one process.
type Service struct {
	Home          string
	Config        *config.Config
	BaseURL       string
	BaseURLSource string
	Session       *session.Store
	// SessionPath is the file holding the session, empty for memory storage.
	SessionPath   string

	client   *api.Client
	reporter todolist.Reporter
	closer   io.Closer
}

// New loads configuration from the home directory, restores the persisted
// session and prepares the REST client.
func New(opts Options) (*Service, error) {
	home := opts.Home
	if home == "" {
		var err error
		if home, err = config.Home(""); err != nil {
			return nil, fmt.Errorf("service.New: resolve home: %w", err)
		}
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, fmt.Errorf("service.New: create home: %w", err)
	}

	cfg, err := config.Load(config.Path(home))
	if err != nil {
		return nil, fmt.Errorf("service.New: load config: %w", err)
	}
	baseURL, source := config.ResolveBaseURL(opts.BaseURL, cfg)

	storage := cfg.Session.Storage
	if opts.Ephemeral {
		storage = StorageMemory
	}
	adapter, closer, err := openAdapter(home, storage)
	if err != nil {
		return nil, fmt.Errorf("service.New: %w", err)
	}

	store, err := session.New(adapter, os.Getenv(config.EnvToken))
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("service.New: %w", err)
	}

	var sessionPath string
	if l, ok := adapter.(session.Locator); ok {
		sessionPath = l.Path()
	}

	var clientOpts []api.Option
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	} else {
		clientOpts = append(clientOpts, api.WithTimeout(cfg.API.Timeout))
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = todolist.LogReporter{}
	}

	slog.Debug("service ready", "home", home, "base_url", baseURL, "base_url_source", source, "storage", storage)
	return &Service{
		Home:          home,
		Config:        cfg,
		BaseURL:       baseURL,
		BaseURLSource: source,
		Session:       store,
		SessionPath:   sessionPath,
		client:        api.New(baseURL, clientOpts...),
		reporter:      reporter,
		closer:        closer,
	}, nil
}

func openAdapter(home, storage string) (session.Adapter, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(storage)) {
	case "", StorageFile:
		return session.NewFileAdapter(filepath.Join(home, "session.json")), nil, nil
	case StorageSQLite:
		a, err := session.OpenSQLiteAdapter(filepath.Join(home, "session.db"))
		if err != nil {
			return nil, nil, err
		}
		return a, a, nil
	case StorageMemory:
		return session.NewMemoryAdapter(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session storage %q (want file, sqlite or memory)", storage)
	}
}

// Close releases the session adapter.
func (s *Service) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// AuthScreen returns a fresh login or register screen bound to the store.
func (s *Service) AuthScreen(kind auth.Kind) *auth.Screen {
	return auth.New(kind, s.client, s.Session)
}

// Login submits credentials through a login screen. The error text is the
// message the screen would show.
func (s *Service) Login(ctx context.Context, f auth.Form) (models.Session, error) {
	return s.submit(ctx, auth.Login, f)
}

// Register submits a registration through a register screen.
func (s *Service) Register(ctx context.Context, f auth.Form) (models.Session, error) {
	return s.submit(ctx, auth.Register, f)
}

func (s *Service) submit(ctx context.Context, kind auth.Kind, f auth.Form) (models.Session, error) {
	sess, err := s.AuthScreen(kind).Submit(ctx, f)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", kind, err)
	}
	return sess, nil
}

// Logout clears the session. envActive reports that TODO_TOKEN is still set
// and will sign the next process in again.
func (s *Service) Logout() (envActive bool, err error) {
	envActive = s.Session.Source() == session.SourceEnv
	if err := s.Session.Clear(); err != nil {
		return envActive, fmt.Errorf("service.Logout: %w", err)
	}
	return envActive, nil
}

// Identity describes the active session for whoami.
type Identity struct {
	User      models.User
	Source    string
	ExpiresAt *time.Time
	Valid     bool
	BaseURL   string
}

// Whoami reports the active session, or ErrNotSignedIn.
func (s *Service) Whoami() (Identity, error) {
	sess, ok := s.Session.Current()
	if !ok {
		return Identity{}, ErrNotSignedIn
	}
	return Identity{
		User:      sess.User,
		Source:    s.Session.Source(),
		ExpiresAt: session.ExpiresAt(sess.Token),
		Valid:     s.Session.Valid(),
		BaseURL:   s.BaseURL,
	}, nil
}

// ---------------------------------------------------------------------------
// Todos
// ---------------------------------------------------------------------------

// Backend returns a client bound to the current token.
func (s *Service) Backend() (*api.Client, error) {
	if !s.Session.Valid() {
		return nil, ErrNotSignedIn
	}
	sess, _ := s.Session.Current()
	return s.client.WithToken(sess.Token), nil
}

// NewList returns an unloaded synchronizer bound to the current token.
func (s *Service) NewList(opts ...todolist.Option) (*todolist.Synchronizer, error) {
	b, err := s.Backend()
	if err != nil {
		return nil, err
	}
	opts = append([]todolist.Option{todolist.WithReporter(s.reporter)}, opts...)
	return todolist.New(b, opts...), nil
}

// Mount is one visit to the todo screen: a synchronizer bound to the current
// token, loaded. A failed fetch returns the (empty, Ready) list together with
// the error so the caller decides whether to surface it.
func (s *Service) Mount(ctx context.Context, opts ...todolist.Option) (*todolist.Synchronizer, error) {
	list, err := s.NewList(opts...)
	if err != nil {
		return nil, err
	}
	return list, list.Load(ctx)
}

// Bind keeps list on the active token: a new session rebinds it, signing out
// closes it. The returned func stops following the store.
func (s *Service) Bind(list *todolist.Synchronizer) (unbind func()) {
	return s.Session.Subscribe(func(sess models.Session, ok bool) {
		if !ok {
			list.Close()
			return
		}
		list.Rebind(s.client.WithToken(sess.Token))
	})
}
