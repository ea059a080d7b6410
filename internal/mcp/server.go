// Package mcp provides the stdio MCP server exposing the todo list as tools
// for coding agents.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/todo/internal/buildinfo"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/service"
	"github.com/go-ports/todo/internal/todolist"
)

var validFilters = []string{"all", "open", "done"}

const listDescription = `List the signed-in user's todos in display order. Each entry carries its id and its 1-based index; either can be passed as ` + "`ref`" + ` to todo_toggle and todo_delete. Call this first: indexes shift after deletes.`

const addDescription = `Add a todo to the end of the signed-in user's list. Leading and trailing whitespace is trimmed; blank text is rejected without contacting the backend.`

const toggleDescription = `Mark a todo completed or not completed. ` + "`ref`" + ` is a todo id or its 1-based index from todo_list. Without ` + "`completed`" + ` the current state is flipped.`

const deleteDescription = `Delete a todo. ` + "`ref`" + ` is a todo id or its 1-based index from todo_list.`

const whoamiDescription = `Report the signed-in user, where the token came from, and when it expires. Tools fail until someone runs ` + "`todo login`" + ` (or TODO_TOKEN is set).`

// NewServer creates and registers all todo tools on a new MCP server.
// It is separate from Serve so tests can drive it over the in-process
// transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("todo", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve runs the stdio MCP server, blocking until stdin closes.
func Serve(_ context.Context, svc *service.Service) error {
	return mcpserver.ServeStdio(NewServer(svc))
}

func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("todo_list",
		mcp.WithDescription(listDescription),
		mcp.WithString("filter",
			mcp.Description("all (default), open, or done."),
			mcp.Enum(validFilters...),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleList(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("todo_add",
		mcp.WithDescription(addDescription),
		mcp.WithString("text",
			mcp.Description("What needs to be done."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAdd(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("todo_toggle",
		mcp.WithDescription(toggleDescription),
		mcp.WithString("ref",
			mcp.Description("Todo id or 1-based index."),
			mcp.Required(),
		),
		mcp.WithBoolean("completed",
			mcp.Description("Target state. Omit to flip."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleToggle(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("todo_delete",
		mcp.WithDescription(deleteDescription),
		mcp.WithString("ref",
			mcp.Description("Todo id or 1-based index."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDelete(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("todo_whoami",
		mcp.WithDescription(whoamiDescription),
	), func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleWhoami(svc)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleList(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := req.GetString("filter", "all")
	if !isValidFilter(filter) {
		filter = "all"
	}

	list, err := mount(ctx, svc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer list.Close()

	todos := list.Todos()
	out := make([]map[string]any, 0, len(todos))
	for i, t := range todos {
		if (filter == "open" && t.Completed) || (filter == "done" && !t.Completed) {
			continue
		}
		entry := todoJSON(t)
		entry["index"] = i + 1
		out = append(out, entry)
	}

	result := map[string]any{
		"todos":  out,
		"counts": countsJSON(list.Counts()),
	}
	if sess, ok := svc.Session.Current(); ok {
		result["user"] = sess.User.DisplayName()
	}
	return jsonResult(result)
}

func handleAdd(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text must not be empty"), nil
	}

	list, err := mount(ctx, svc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer list.Close()

	t, err := list.Add(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"todo":   todoJSON(t),
		"counts": countsJSON(list.Counts()),
	})
}

func handleToggle(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := mount(ctx, svc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer list.Close()

	target, err := resolveRef(list, req.GetString("ref", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	completed := req.GetBool("completed", !target.Completed)

	t, err := list.Toggle(ctx, target.ID, completed)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"todo":   todoJSON(t),
		"counts": countsJSON(list.Counts()),
	})
}

func handleDelete(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := mount(ctx, svc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer list.Close()

	target, err := resolveRef(list, req.GetString("ref", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := list.Delete(ctx, target.ID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"deleted": todoJSON(target),
		"counts":  countsJSON(list.Counts()),
	})
}

func handleWhoami(svc *service.Service) (*mcp.CallToolResult, error) {
	who, err := svc.Whoami()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := map[string]any{
		"username": who.User.Username,
		"email":    who.User.Email,
		"source":   who.Source,
		"valid":    who.Valid,
		"base_url": who.BaseURL,
	}
	if who.ExpiresAt != nil {
		out["expires_at"] = who.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return jsonResult(out)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// mount loads a fresh list for one tool call. Unlike the CLI default, a
// failed fetch is an error here; an agent must not mistake it for an empty
// list.
func mount(ctx context.Context, svc *service.Service) (*todolist.Synchronizer, error) {
	list, err := svc.Mount(ctx, todolist.WithReporter(todolist.Discard))
	if err != nil {
		if list != nil {
			list.Close()
		}
		return nil, err
	}
	return list, nil
}

func resolveRef(list *todolist.Synchronizer, ref string) (models.Todo, error) {
	if strings.TrimSpace(ref) == "" {
		return models.Todo{}, errors.New("ref must not be empty")
	}
	t, ok := list.Lookup(ref)
	if !ok {
		return models.Todo{}, fmt.Errorf("no todo matches %q (use an id or an index from todo_list)", ref)
	}
	return t, nil
}

func isValidFilter(f string) bool {
	for _, v := range validFilters {
		if v == f {
			return true
		}
	}
	return false
}

func todoJSON(t models.Todo) map[string]any {
	return map[string]any{
		"id":        t.ID.String(),
		"text":      t.Text,
		"completed": t.Completed,
	}
}

func countsJSON(c models.Counts) map[string]any {
	return map[string]any{
		"total":     c.Total,
		"completed": c.Completed,
		"remaining": c.Remaining,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
