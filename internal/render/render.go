// Package render turns todos and list statistics into terminal text.
// Nothing here holds state or talks to the network; actions are handed back
// to the caller through callbacks.
package render

import (
	"fmt"
	"strings"

	"github.com/go-ports/todo/internal/models"
)

// Fixed copy shown by every surface.
const (
	EmptyMessage = "No tasks yet. Add one above to get started!"
	Placeholder  = "What needs to be done?"
)

// Item presents one todo with its toggle and delete affordances.
type Item struct {
	Todo     models.Todo
	OnToggle func(id models.ID, completed bool)
	OnDelete func(id models.ID)
}

// Toggle requests the opposite completion state for the todo.
func (it Item) Toggle() {
	if it.OnToggle != nil {
		it.OnToggle(it.Todo.ID, !it.Todo.Completed)
	}
}

// Delete requests removal of the todo.
func (it Item) Delete() {
	if it.OnDelete != nil {
		it.OnDelete(it.Todo.ID)
	}
}

// Render returns the item as one line: cursor, checkbox and text, the text
// struck through when completed.
func (it Item) Render(th Theme, selected bool) string {
	prefix := "  "
	if selected {
		prefix = th.Selected.Render(th.Cursor) + " "
	}
	return prefix + it.body(th)
}

// Numbered renders the item with its 1-based position instead of a cursor.
func (it Item) Numbered(th Theme, n int) string {
	return th.Muted.Render(fmt.Sprintf("%2d.", n)) + " " + it.body(th)
}

func (it Item) body(th Theme) string {
	text := oneLine(it.Todo.Text)
	if it.Todo.Completed {
		return th.Success.Render(th.BoxChecked) + " " + th.Done.Render(text)
	}
	return th.Muted.Render(th.BoxUnchecked) + " " + text
}

// Header greets the user and summarizes progress.
func Header(th Theme, username string, c models.Counts) string {
	if username == "" {
		username = "there"
	}
	return th.Title.Render(fmt.Sprintf("Welcome back, %s!", username)) + "\n" +
		th.Muted.Render(fmt.Sprintf("%d of %d tasks completed", c.Completed, c.Total))
}

// Stats renders the Total / Completed / Remaining counters.
func Stats(th Theme, c models.Counts) string {
	return fmt.Sprintf("%s %d  %s %d  %s %d",
		th.Accent.Render("Total"), c.Total,
		th.Success.Render("Completed"), c.Completed,
		th.Pending.Render("Remaining"), c.Remaining,
	)
}

// ProgressBar renders completed/total as a bar of width cells.
func ProgressBar(th Theme, c models.Counts, width int) string {
	if width < 5 {
		width = 5
	}
	total := c.Total
	if total <= 0 {
		total = 1
	}
	filled := c.Completed * width / total
	if filled > width {
		filled = width
	}
	bar := strings.Repeat(th.BarFull, filled) + strings.Repeat(th.BarEmpty, width-filled)
	return fmt.Sprintf("%s %3d%%", th.Success.Render(bar), c.Completed*100/total)
}

// List renders todos one per line, numbered from 1. An empty list renders
// EmptyMessage.
func List(th Theme, todos []models.Todo) []string {
	if len(todos) == 0 {
		return []string{th.Muted.Render(EmptyMessage)}
	}
	out := make([]string, 0, len(todos))
	for i, t := range todos {
		out = append(out, Item{Todo: t}.Numbered(th, i+1))
	}
	return out
}

// Grouped renders pending todos, then completed ones, under headings. The
// numbers stay the list positions so they can be passed to `done` and `rm`.
func Grouped(th Theme, todos []models.Todo) []string {
	if len(todos) == 0 {
		return []string{th.Muted.Render(EmptyMessage)}
	}
	var pending, done []string
	for i, t := range todos {
		line := Item{Todo: t}.Numbered(th, i+1)
		if t.Completed {
			done = append(done, line)
		} else {
			pending = append(pending, line)
		}
	}
	section := func(title string, lines []string) []string {
		out := []string{th.Accent.Render(title)}
		if len(lines) == 0 {
			return append(out, th.Muted.Render("(none)"))
		}
		return append(out, lines...)
	}
	out := section("Pending", pending)
	out = append(out, "")
	return append(out, section("Done", done)...)
}

// Panel frames lines in the theme border.
func Panel(th Theme, lines []string) string {
	return th.Panel.Render(strings.Join(lines, "\n"))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
