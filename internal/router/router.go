// Package router is the binary gate between the auth screens and the todo
// screen. It knows nothing about how a screen is drawn.
package router

import (
	"slices"
	"strings"
	"sync"

	"github.com/go-ports/todo/internal/models"
)

// Screen is a navigable location.
type Screen int

// Screens.
const (
	Root Screen = iota
	Login
	Register
	Todos
)

var paths = map[Screen]string{
	Root:     "/",
	Login:    "/login",
	Register: "/register",
	Todos:    "/todos",
}

// Path returns the location path, e.g. "/login".
func (s Screen) Path() string {
	if p, ok := paths[s]; ok {
		return p
	}
	return "/"
}

func (s Screen) String() string { return s.Path() }

// Parse maps a path onto a Screen. Trailing slashes and case are ignored;
// unknown paths report false.
func Parse(path string) (Screen, bool) {
	p := "/" + strings.Trim(strings.ToLower(strings.TrimSpace(path)), "/")
	for s, sp := range paths {
		if sp == p {
			return s, true
		}
	}
	return Root, false
}

// Resolve applies the gate: without a valid token only Login and Register
// are reachable, with one the auth screens redirect to Todos.
func Resolve(requested Screen, authenticated bool) Screen {
	switch requested {
	case Login, Register:
		if authenticated {
			return Todos
		}
		return requested
	case Todos:
		if authenticated {
			return Todos
		}
		return Login
	default:
		if authenticated {
			return Todos
		}
		return Login
	}
}

// SessionSource is what the gate observes. *session.Store satisfies it.
type SessionSource interface {
	Valid() bool
	Subscribe(fn func(sess models.Session, ok bool)) (unsubscribe func())
}

// Gate tracks the requested screen and re-resolves it on every session
// change.
type Gate struct {
	src   SessionSource
	unsub func()

	mu        sync.Mutex
	requested Screen
	current   Screen
	listeners []func(Screen)
}

// NewGate starts observing src with requested as the initial location.
func NewGate(src SessionSource, requested Screen) *Gate {
	g := &Gate{src: src, requested: requested}
	g.current = Resolve(requested, src.Valid())
	g.unsub = src.Subscribe(func(models.Session, bool) { g.refresh() })
	return g
}

// Current returns the resolved screen.
func (g *Gate) Current() Screen {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Navigate requests s and returns where the gate actually lands.
func (g *Gate) Navigate(s Screen) Screen {
	g.mu.Lock()
	g.requested = s
	g.mu.Unlock()
	return g.refresh()
}

// OnChange registers fn to be called whenever the resolved screen changes.
func (g *Gate) OnChange(fn func(Screen)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Close stops observing the session source.
func (g *Gate) Close() {
	if g.unsub != nil {
		g.unsub()
	}
}

func (g *Gate) refresh() Screen {
	authed := g.src.Valid()
	g.mu.Lock()
	next := Resolve(g.requested, authed)
	changed := next != g.current
	g.current = next
	// Land on the resolved screen so a later logout goes to Login, not back
	// to a stale request.
	g.requested = next
	listeners := slices.Clone(g.listeners)
	g.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(next)
		}
	}
	return next
}
