// Package auth implements the login and register screens: form validation,
// a single in-flight submission, and handing the issued session to the
// session store.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-ports/todo/internal/api"
	"github.com/go-ports/todo/internal/models"
)

// ErrInFlight is returned by Submit while an earlier submission is pending.
var ErrInFlight = errors.New("auth: submission already in flight")

// Kind selects the login or register screen.
type Kind int

// Screen kinds.
const (
	Login Kind = iota
	Register
)

func (k Kind) String() string {
	if k == Register {
		return "register"
	}
	return "login"
}

// Title is the screen heading.
func (k Kind) Title() string {
	if k == Register {
		return "Register"
	}
	return "Login"
}

// Fields lists the form fields shown by the screen, in order.
func (k Kind) Fields() []string {
	if k == Register {
		return []string{"username", "email", "password"}
	}
	return []string{"email", "password"}
}

func (k Kind) fallback() string {
	if k == Register {
		return api.RegisterFailed
	}
	return api.LoginFailed
}

// Backend issues sessions. *api.Client satisfies it.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)
	Register(ctx context.Context, reg models.Registration) (models.Session, error)
}

// SessionStore receives the issued session. *session.Store satisfies it.
type SessionStore interface {
	Set(token string, user models.User) error
}

// Form is the union of both screens' fields. Username is ignored by Login.
type Form struct {
	Username string
	Email    string
	Password string // #nosec G117 -- form input, never persisted
}

// MissingFieldsError is returned when required fields are empty. No request
// is sent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Please fill in " + strings.Join(e.Fields, ", ")
}

// Screen is one auth screen. It is safe for concurrent use.
type Screen struct {
	kind    Kind
	backend Backend
	store   SessionStore

	mu       sync.Mutex
	inFlight bool
	message  string
}

// New returns a screen of the given kind.
func New(kind Kind, backend Backend, store SessionStore) *Screen {
	return &Screen{kind: kind, backend: backend, store: store}
}

// Kind returns the screen kind.
func (s *Screen) Kind() Kind { return s.kind }

// Error returns the message to display, or "" after a successful submit.
func (s *Screen) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// InFlight reports whether a submission is pending.
func (s *Screen) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submit sends exactly one login or register request for f. On success the
// session store is populated; on failure Error holds the server's message or
// the fallback and the existing session is left alone.
func (s *Screen) Submit(ctx context.Context, f Form) (models.Session, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return models.Session{}, ErrInFlight
	}
	if missing := s.missing(f); len(missing) > 0 {
		err := &MissingFieldsError{Fields: missing}
		s.message = err.Error()
		s.mu.Unlock()
		return models.Session{}, err
	}
	s.inFlight = true
	s.mu.Unlock()

	sess, err := s.send(ctx, f)
	if err == nil {
		err = s.store.Set(sess.Token, sess.User)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.message = s.messageFor(err)
		return models.Session{}, err
	}
	s.message = ""
	return sess, nil
}

func (s *Screen) missing(f Form) []string {
	if s.kind == Register {
		return models.Registration{Username: f.Username, Email: f.Email, Password: f.Password}.Missing()
	}
	return models.Credentials{Email: f.Email, Password: f.Password}.Missing()
}

func (s *Screen) send(ctx context.Context, f Form) (models.Session, error) {
	if s.kind == Register {
		return s.backend.Register(ctx, models.Registration{Username: f.Username, Email: f.Email, Password: f.Password})
	}
	return s.backend.Login(ctx, models.Credentials{Email: f.Email, Password: f.Password})
}

func (s *Screen) messageFor(err error) string {
	var ae *api.AuthError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return s.kind.fallback()
}
