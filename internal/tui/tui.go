// Package tui is the interactive terminal front end: the router decides
// between the auth screens and the todo screen, and every network call runs
// as a Bubble Tea command.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-ports/todo/internal/auth"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/render"
	"github.com/go-ports/todo/internal/router"
	"github.com/go-ports/todo/internal/service"
	"github.com/go-ports/todo/internal/todolist"
)

// Options configures the UI.
type Options struct {
	Theme      render.Theme
	ShowErrors bool          // show failed todo requests in the status line
	Start      router.Screen // requested initial screen
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(ctx context.Context, svc *service.Service, opts Options) error {
	m := New(ctx, svc, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui.Run: %w", err)
	}
	return nil
}

// Model is the Bubble Tea model.
type Model struct {
	ctx   context.Context
	svc   *service.Service
	opts  Options
	gate  *router.Gate
	help  help.Model
	width int

	screen router.Screen

	// auth screens
	auth   *auth.Screen
	fields []string
	inputs []textinput.Model
	focus  int

	initCmd tea.Cmd

	// todo screen
	list    *todolist.Synchronizer
	unbind  func()
	loaded  bool
	cursor  int
	adding  bool
	input   textinput.Model
	status  string
	noteErr bool
}

// Messages produced by commands. Each carries the object it belongs to so a
// response for a screen that was left is ignored.
type (
	authDoneMsg struct {
		screen *auth.Screen
		err    error
	}
	loadedMsg struct {
		list *todolist.Synchronizer
		err  error
	}
	mutatedMsg struct {
		list *todolist.Synchronizer
		op   todolist.Op
		err  error
	}
)

// New builds the model and resolves the initial screen.
func New(ctx context.Context, svc *service.Service, opts Options) Model {
	m := Model{
		ctx:  ctx,
		svc:  svc,
		opts: opts,
		gate: router.NewGate(svc.Session, opts.Start),
		help: help.New(),
	}
	m.input = newInput(render.Placeholder, false)
	m.input.CharLimit = 500
	var cmd tea.Cmd
	m, cmd = m.enter(m.gate.Current())
	m.initCmd = cmd
	return m
}

// Init implements tea.Model. It loads the list when the first screen is the
// todo screen.
func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// Close releases the synchronizer and stops observing the session.
func (m Model) Close() {
	if m.unbind != nil {
		m.unbind()
	}
	if m.list != nil {
		m.list.Close()
	}
	m.gate.Close()
}

// Screen returns the screen on display.
func (m Model) Screen() router.Screen { return m.screen }

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Cursor.SetMode(cursor.CursorStatic)
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// enter switches to s and prepares its state.
func (m Model) enter(s router.Screen) (Model, tea.Cmd) {
	m.screen = s
	switch s {
	case router.Todos:
		return m.enterTodos()
	case router.Register:
		return m.enterAuth(auth.Register), nil
	default:
		return m.enterAuth(auth.Login), nil
	}
}

func (m Model) enterAuth(kind auth.Kind) Model {
	m.leaveTodos()
	m.auth = m.svc.AuthScreen(kind)
	m.fields = kind.Fields()
	m.inputs = make([]textinput.Model, len(m.fields))
	for i, f := range m.fields {
		m.inputs[i] = newInput(f, f == "password")
	}
	m.focus = 0
	m.inputs[0].Focus()
	return m
}

func (m Model) enterTodos() (Model, tea.Cmd) {
	m.auth = nil
	m.leaveTodos()
	list, err := m.svc.NewList()
	if err != nil {
		m.screen = m.gate.Navigate(router.Login)
		return m.enterAuth(auth.Login), nil
	}
	m.list = list
	m.unbind = m.svc.Bind(list)
	m.loaded = false
	m.cursor = 0
	m.status = ""
	return m, m.loadCmd()
}

func (m *Model) leaveTodos() {
	if m.unbind != nil {
		m.unbind()
		m.unbind = nil
	}
	if m.list != nil {
		m.list.Close()
		m.list = nil
	}
	m.adding = false
	m.input.Reset()
	m.input.Blur()
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (m Model) submitCmd() tea.Cmd {
	screen := m.auth
	form := auth.Form{}
	for i, f := range m.fields {
		v := m.inputs[i].Value()
		switch f {
		case "username":
			form.Username = v
		case "email":
			form.Email = v
		case "password":
			form.Password = v
		}
	}
	ctx := m.ctx
	return func() tea.Msg {
		_, err := screen.Submit(ctx, form)
		return authDoneMsg{screen: screen, err: err}
	}
}

func (m Model) loadCmd() tea.Cmd {
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		return loadedMsg{list: list, err: list.Load(ctx)}
	}
}

func (m Model) addCmd(text string) tea.Cmd {
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		_, err := list.Add(ctx, text)
		return mutatedMsg{list: list, op: todolist.OpAdd, err: err}
	}
}

func (m Model) toggleCmd(id models.ID, completed bool) tea.Cmd {
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		_, err := list.Toggle(ctx, id, completed)
		return mutatedMsg{list: list, op: todolist.OpToggle, err: err}
	}
}

func (m Model) deleteCmd(id models.ID) tea.Cmd {
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		return mutatedMsg{list: list, op: todolist.OpDelete, err: list.Delete(ctx, id)}
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case authDoneMsg:
		return m.onAuthDone(msg)
	case loadedMsg:
		if msg.list != m.list {
			return m, nil
		}
		m.loaded = true
		m.clampCursor()
		m.setStatus(todolist.OpLoad, msg.err)
		return m, nil
	case mutatedMsg:
		if msg.list != m.list {
			return m, nil
		}
		if msg.op == todolist.OpAdd && msg.err == nil {
			m.input.Reset()
		}
		m.clampCursor()
		m.setStatus(msg.op, msg.err)
		return m, nil
	case tea.KeyMsg:
		if m.screen == router.Todos {
			return m.updateTodos(msg)
		}
		return m.updateAuth(msg)
	}
	return m, nil
}

func (m Model) onAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	if msg.screen != m.auth || errors.Is(msg.err, auth.ErrInFlight) {
		return m, nil
	}
	if msg.err != nil {
		return m, nil
	}
	next := m.gate.Navigate(router.Todos)
	return m.enter(next)
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, authKeyMap.Quit):
		return m, tea.Quit
	case key.Matches(msg, authKeyMap.Switch):
		target := router.Register
		if m.auth.Kind() == auth.Register {
			target = router.Login
		}
		return m.enter(m.gate.Navigate(target))
	case key.Matches(msg, authKeyMap.Submit):
		if m.focus < len(m.inputs)-1 {
			m.moveFocus(1)
			return m, nil
		}
		if m.auth.InFlight() {
			return m, nil
		}
		return m, m.submitCmd()
	case key.Matches(msg, authKeyMap.Next):
		m.moveFocus(1)
		return m, nil
	case key.Matches(msg, authKeyMap.Prev):
		m.moveFocus(-1)
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) moveFocus(delta int) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m Model) updateTodos(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.adding {
		switch {
		case key.Matches(msg, todoKeyMap.Cancel):
			m.adding = false
			m.input.Reset()
			m.input.Blur()
			return m, nil
		case key.Matches(msg, todoKeyMap.Submit):
			// The input is cleared once the server confirms the add.
			text := m.input.Value()
			if m.list.State() != todolist.Ready {
				return m, nil
			}
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			return m, m.addCmd(text)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, todoKeyMap.Quit):
		return m, tea.Quit
	case key.Matches(msg, todoKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, todoKeyMap.Down):
		if m.cursor < len(m.list.Todos())-1 {
			m.cursor++
		}
	case key.Matches(msg, todoKeyMap.Add):
		m.adding = true
		m.input.Focus()
	case key.Matches(msg, todoKeyMap.Reload):
		m.loaded = false
		return m, m.loadCmd()
	case key.Matches(msg, todoKeyMap.Logout):
		envActive, err := m.svc.Logout()
		m.leaveTodos()
		var cmd tea.Cmd
		m, cmd = m.enter(m.gate.Navigate(router.Login))
		if err != nil {
			m.status, m.noteErr = err.Error(), true
		} else if envActive {
			m.status, m.noteErr = "TODO_TOKEN is still set; the next start signs in again", false
		}
		return m, cmd
	case key.Matches(msg, todoKeyMap.Toggle), key.Matches(msg, todoKeyMap.Delete):
		todos := m.list.Todos()
		if m.list.State() != todolist.Ready || m.cursor >= len(todos) {
			return m, nil
		}
		var cmd tea.Cmd
		item := render.Item{
			Todo:     todos[m.cursor],
			OnToggle: func(id models.ID, completed bool) { cmd = m.toggleCmd(id, completed) },
			OnDelete: func(id models.ID) { cmd = m.deleteCmd(id) },
		}
		if key.Matches(msg, todoKeyMap.Toggle) {
			item.Toggle()
		} else {
			item.Delete()
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.list.Todos())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// setStatus shows err in the status line when ShowErrors is on. Discarded
// responses and successes clear it.
func (m *Model) setStatus(op todolist.Op, err error) {
	if err == nil || errors.Is(err, todolist.ErrStale) || errors.Is(err, todolist.ErrClosed) {
		m.status, m.noteErr = "", false
		return
	}
	if !m.opts.ShowErrors {
		return
	}
	m.status, m.noteErr = fmt.Sprintf("%s failed: %v", op, err), true
}
