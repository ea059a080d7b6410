// Package markdown exports a todo list as an Obsidian-compatible checklist
// file. Re-exporting into an existing file replaces only the generated block
// and front-matter keys, so notes written around the list survive.
package markdown

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-ports/todo/internal/models"
)

// Markers delimiting the generated block.
const (
	BeginMarker = "<!-- todo:begin -->"
	EndMarker   = "<!-- todo:end -->"
)

// Checklist renders todos as GitHub-style task list items, pending first.
func Checklist(todos []models.Todo) string {
	var pending, done []string
	for _, t := range todos {
		text := strings.Join(strings.Fields(t.Text), " ")
		if t.Completed {
			done = append(done, "- [x] "+text)
		} else {
			pending = append(pending, "- [ ] "+text)
		}
	}

	var sb strings.Builder
	section := func(title string, lines []string) {
		sb.WriteString("## ")
		sb.WriteString(title)
		sb.WriteString("\n\n")
		if len(lines) == 0 {
			sb.WriteString("_None._\n")
			return
		}
		for _, l := range lines {
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}
	section("Pending", pending)
	sb.WriteString("\n")
	section("Done", done)
	return sb.String()
}

func block(todos []models.Todo) string {
	return BeginMarker + "\n" + Checklist(todos) + EndMarker
}

// frontmatterFields are the keys this package owns.
func frontmatterFields(user string, todos []models.Todo, now time.Time) map[string]any {
	c := models.CountsOf(todos)
	return map[string]any{
		"user":      user,
		"exported":  now.UTC().Format(time.RFC3339),
		"total":     c.Total,
		"completed": c.Completed,
	}
}

// Render produces a new export document.
func Render(user string, todos []models.Todo, now time.Time) (string, error) {
	fm := frontmatterFields(user, todos, now)
	fm["tags"] = []string{"todo"}
	head, err := marshalFrontmatter(fm)
	if err != nil {
		return "", err
	}
	return head + "\n# Todos for " + user + "\n\n" + block(todos) + "\n", nil
}

// Merge updates an existing export. Front-matter keys it does not own are
// kept; the generated block is replaced in place, or appended when missing.
func Merge(existing, user string, todos []models.Todo, now time.Time) (string, error) {
	rawFM, body := splitFrontmatter(existing)

	fm := map[string]any{}
	if rawFM != "" {
		if err := yaml.Unmarshal([]byte(rawFM), &fm); err != nil {
			return "", fmt.Errorf("markdown.Merge: front-matter: %w", err)
		}
		if fm == nil {
			fm = map[string]any{}
		}
	}
	for k, v := range frontmatterFields(user, todos, now) {
		fm[k] = v
	}
	head, err := marshalFrontmatter(fm)
	if err != nil {
		return "", err
	}
	return head + replaceBlock(body, block(todos)), nil
}

// WriteFile creates path with Render, or merges into it when it exists.
func WriteFile(path, user string, todos []models.Todo, now time.Time) error {
	var content string
	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		content, err = Render(user, todos, now)
	case err != nil:
		return fmt.Errorf("markdown.WriteFile: %w", err)
	default:
		content, err = Merge(string(existing), user, todos, now)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("markdown.WriteFile: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0o644) // #nosec G306 -- exported checklists hold no credentials
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// splitFrontmatter splits YAML front-matter (without the --- fences) from the
// body. Returns ("", content) when no front-matter is detected.
func splitFrontmatter(content string) (frontmatter, body string) {
	if !strings.HasPrefix(content, "---\n") {
		return "", content
	}
	parts := strings.SplitN(content, "---\n", 3)
	if len(parts) < 3 {
		return "", content
	}
	return parts[1], parts[2]
}

func marshalFrontmatter(fm map[string]any) (string, error) {
	b, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("markdown: front-matter: %w", err)
	}
	return "---\n" + string(b) + "---\n", nil
}

func replaceBlock(body, blk string) string {
	start := strings.Index(body, BeginMarker)
	end := strings.Index(body, EndMarker)
	if start < 0 || end < start {
		return strings.TrimRight(body, "\n") + "\n\n" + blk + "\n"
	}
	return body[:start] + blk + body[end+len(EndMarker):]
}
