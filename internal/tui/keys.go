package tui

import "github.com/charmbracelet/bubbles/key"

type authKeys struct {
	Next, Prev, Submit, Switch, Quit key.Binding
}

type todoKeys struct {
	Up, Down, Toggle, Delete, Add, Submit, Cancel, Reload, Logout, Quit key.Binding
}

var authKeyMap = authKeys{
	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Switch: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "login / register")),
	Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

var todoKeyMap = todoKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	Delete: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
	Add:    key.NewBinding(key.WithKeys("a", "i"), key.WithHelp("a", "add")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Logout: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k authKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Next, k.Switch, k.Quit}
}

func (k todoKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Reload, k.Logout, k.Quit}
}

func (k todoKeys) inputHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}
