// Package session holds the authenticated session and mirrors every change
// to a persistence Adapter so a new process restores it without
// re-authenticating.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/go-ports/todo/internal/models"
)

// ErrEmptyToken is returned by Set when the token is blank.
var ErrEmptyToken = errors.New("session: empty token")

// Token sources reported by Store.Source.
const (
	SourceNone      = ""
	SourceEnv       = "env"
	SourcePersisted = "persisted"
)

// Store is the session store. It is safe for concurrent use.
type Store struct {
	adapter Adapter
	now     func() time.Time

	mu      sync.RWMutex
	current *models.Session
	source  string
	subs    map[int]func(models.Session, bool)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New restores the persisted session from adapter. envToken, when non-empty,
// overrides the persisted token without being written back.
func New(adapter Adapter, envToken string, opts ...Option) (*Store, error) {
	s := &Store{
		adapter: adapter,
		now:     time.Now,
		subs:    make(map[int]func(models.Session, bool)),
	}
	for _, o := range opts {
		o(s)
	}

	token, hasToken, err := adapter.Load(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("session.New: load token: %w", err)
	}
	var user models.User
	if raw, ok, err := adapter.Load(KeyUser); err != nil {
		return nil, fmt.Errorf("session.New: load user: %w", err)
	} else if ok && raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			slog.Warn("session: discarding unreadable user entry", "err", err)
			hasToken = false
		}
	}

	if env := normalizeToken(envToken); env != "" {
		s.current = &models.Session{Token: env, User: user}
		s.source = SourceEnv
		return s, nil
	}
	if hasToken {
		if token = normalizeToken(token); token != "" {
			s.current = &models.Session{Token: token, User: user}
			s.source = SourcePersisted
		}
	}
	return s, nil
}

// Current returns the active session, if any.
func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, false
	}
	return *s.current, true
}

// Source reports where the active token came from.
func (s *Store) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Valid reports whether a token is present and not past its exp claim.
func (s *Store) Valid() bool {
	sess, ok := s.Current()
	if !ok || sess.Token == "" {
		return false
	}
	exp := ExpiresAt(sess.Token)
	return exp == nil || s.now().Before(*exp)
}

// Set replaces the current session with (token, user) and persists both.
func (s *Store) Set(token string, user models.User) error {
	token = normalizeToken(token)
	if token == "" {
		return ErrEmptyToken
	}
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session.Set: marshal user: %w", err)
	}

	s.mu.Lock()
	if err := s.adapter.Save(KeyToken, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session.Set: save token: %w", err)
	}
	if err := s.adapter.Save(KeyUser, string(b)); err != nil {
		s.restoreLocked()
		s.mu.Unlock()
		return fmt.Errorf("session.Set: save user: %w", err)
	}
	next := models.Session{Token: token, User: user}
	s.current = &next
	s.source = SourcePersisted
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, next, true)
	return nil
}

// restoreLocked writes the in-memory session back after a partial Set so
// disk and memory agree again.
func (s *Store) restoreLocked() {
	if s.current == nil || s.source != SourcePersisted {
		_ = s.adapter.Delete(KeyToken, KeyUser)
		return
	}
	b, err := json.Marshal(s.current.User)
	if err != nil {
		_ = s.adapter.Delete(KeyToken, KeyUser)
		return
	}
	_ = s.adapter.Save(KeyToken, s.current.Token)
	_ = s.adapter.Save(KeyUser, string(b))
}

// Clear removes the session and its persisted entries.
func (s *Store) Clear() error {
	s.mu.Lock()
	if err := s.adapter.Delete(KeyToken, KeyUser); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session.Clear: %w", err)
	}
	s.current = nil
	s.source = SourceNone
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, models.Session{}, false)
	return nil
}

// Subscribe registers fn to be called after every Set or Clear.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(sess models.Session, ok bool)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// subscribers must be called with mu held.
func (s *Store) subscribers() []func(models.Session, bool) {
	out := make([]func(models.Session, bool), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(subs []func(models.Session, bool), sess models.Session, ok bool) {
	for _, fn := range subs {
		fn(sess, ok)
	}
}

// ExpiresAt returns the exp claim of a JWT token, or nil for opaque tokens
// and tokens without exp. The signature is not verified; that is the
// backend's job.
func ExpiresAt(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

// normalizeToken trims s and strips a case-insensitive "Bearer" scheme.
// A bare scheme normalizes to "".
func normalizeToken(s string) string {
	s = strings.TrimSpace(s)
	const scheme = "bearer"
	if len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme) {
		rest := s[len(scheme):]
		if rest == "" {
			return ""
		}
		if r := rest[0]; r == ' ' || r == '\t' {
			return strings.TrimSpace(rest)
		}
	}
	return s
}
