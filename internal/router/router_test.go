package router_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/router"
	"github.com/go-ports/todo/internal/session"
)

func TestParse(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		path string
		want router.Screen
		ok   bool
	}{
		{path: "/", want: router.Root, ok: true},
		{path: "", want: router.Root, ok: true},
		{path: "/login", want: router.Login, ok: true},
		{path: "login/", want: router.Login, ok: true},
		{path: "/REGISTER", want: router.Register, ok: true},
		{path: "/todos", want: router.Todos, ok: true},
		{path: "/admin", want: router.Root},
	}
	for _, tt := range tests {
		c.Run(tt.path, func(c *qt.C) {
			got, ok := router.Parse(tt.path)
			c.Assert(ok, qt.Equals, tt.ok)
			c.Assert(got, qt.Equals, tt.want)
		})
	}
	c.Assert(router.Todos.String(), qt.Equals, "/todos")
}

func TestResolve(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		requested router.Screen
		authed    bool
		want      router.Screen
	}{
		{requested: router.Root, authed: false, want: router.Login},
		{requested: router.Login, authed: false, want: router.Login},
		{requested: router.Register, authed: false, want: router.Register},
		{requested: router.Todos, authed: false, want: router.Login},
		{requested: router.Root, authed: true, want: router.Todos},
		{requested: router.Login, authed: true, want: router.Todos},
		{requested: router.Register, authed: true, want: router.Todos},
		{requested: router.Todos, authed: true, want: router.Todos},
	}
	for _, tt := range tests {
		name := tt.requested.Path()
		if tt.authed {
			name += "_authed"
		}
		c.Run(name, func(c *qt.C) {
			c.Assert(router.Resolve(tt.requested, tt.authed), qt.Equals, tt.want)
		})
	}
}

func TestGate_FollowsSession(t *testing.T) {
	c := qt.New(t)

	store, err := session.New(session.NewMemoryAdapter(), "")
	c.Assert(err, qt.IsNil)

	g := router.NewGate(store, router.Root)
	defer g.Close()
	c.Assert(g.Current(), qt.Equals, router.Login)

	var seen []router.Screen
	g.OnChange(func(s router.Screen) { seen = append(seen, s) })

	c.Assert(g.Navigate(router.Register), qt.Equals, router.Register)
	c.Assert(g.Navigate(router.Todos), qt.Equals, router.Login)

	c.Assert(store.Set("tok", models.User{Username: "ada"}), qt.IsNil)
	c.Assert(g.Current(), qt.Equals, router.Todos)
	c.Assert(g.Navigate(router.Login), qt.Equals, router.Todos)

	c.Assert(store.Clear(), qt.IsNil)
	c.Assert(g.Current(), qt.Equals, router.Login)

	c.Assert(seen, qt.DeepEquals, []router.Screen{router.Register, router.Login, router.Todos, router.Login})
}

func TestGate_Close(t *testing.T) {
	c := qt.New(t)

	store, err := session.New(session.NewMemoryAdapter(), "")
	c.Assert(err, qt.IsNil)

	g := router.NewGate(store, router.Login)
	g.Close()
	c.Assert(store.Set("tok", models.User{}), qt.IsNil)
	c.Assert(g.Current(), qt.Equals, router.Login)
}
