package tui

import (
	"github.com/go-ports/todo/internal/auth"
	"github.com/go-ports/todo/internal/render"
	"github.com/go-ports/todo/internal/router"
	"github.com/go-ports/todo/internal/todolist"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.screen == router.Todos {
		return m.viewTodos()
	}
	return m.viewAuth()
}

func (m Model) viewAuth() string {
	th := m.opts.Theme
	if m.auth == nil {
		return ""
	}
	heading := "Welcome Back"
	if m.auth.Kind() == auth.Register {
		heading = "Create Account"
	}

	lines := []string{th.Title.Render(heading), ""}
	for i, f := range m.fields {
		lines = append(lines, th.Muted.Render(f), m.inputs[i].View())
	}
	lines = append(lines, "")
	switch {
	case m.auth.InFlight():
		lines = append(lines, th.Muted.Render("Submitting…"))
	case m.auth.Error() != "":
		lines = append(lines, th.Error.Render(m.auth.Error()))
	}
	if m.status != "" {
		lines = append(lines, m.statusLine())
	}
	lines = append(lines, m.help.ShortHelpView(authKeyMap.ShortHelp()))
	return render.Panel(th, lines)
}

func (m Model) viewTodos() string {
	th := m.opts.Theme
	if m.list == nil {
		return ""
	}
	var username string
	if sess, ok := m.svc.Session.Current(); ok {
		username = sess.User.DisplayName()
	}
	counts := m.list.Counts()

	lines := []string{
		render.Header(th, username, counts),
		render.ProgressBar(th, counts, m.barWidth()),
		"",
	}
	if m.adding {
		lines = append(lines, m.input.View())
	} else {
		lines = append(lines, th.Muted.Render(render.Placeholder+" (a to add)"))
	}
	lines = append(lines, "")

	todos := m.list.Todos()
	switch {
	case !m.loaded || m.list.State() == todolist.Loading:
		lines = append(lines, th.Muted.Render("Loading…"))
	case len(todos) == 0:
		lines = append(lines, th.Muted.Render(render.EmptyMessage))
	default:
		for i, t := range todos {
			lines = append(lines, render.Item{Todo: t}.Render(th, i == m.cursor))
		}
	}

	lines = append(lines, "", render.Stats(th, counts))
	if m.status != "" {
		lines = append(lines, m.statusLine())
	}
	if m.adding {
		lines = append(lines, m.help.ShortHelpView(todoKeyMap.inputHelp()))
	} else {
		lines = append(lines, m.help.ShortHelpView(todoKeyMap.ShortHelp()))
	}
	return render.Panel(th, lines)
}

func (m Model) statusLine() string {
	if m.noteErr {
		return m.opts.Theme.Error.Render(m.status)
	}
	return m.opts.Theme.Muted.Render(m.status)
}

func (m Model) barWidth() int {
	if m.width <= 0 {
		return 28
	}
	return max(5, min(40, m.width-16))
}
