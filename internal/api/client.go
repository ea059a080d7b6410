// Package api is a typed client for the todo REST backend.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-ports/todo/internal/buildinfo"
	"github.com/go-ports/todo/internal/models"
)

// Client calls the backend. A Client without a token can only log in or
// register; WithToken returns a copy that attaches the bearer credential.
type Client struct {
	BaseURL   string
	client    *http.Client
	timeout   *time.Duration
	token     string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. hc is never modified;
// WithTimeout applies to a copy of it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

// New returns a Client for baseURL with a 30s timeout.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "todo/" + buildinfo.Version,
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout != nil {
		hc := *c.client
		hc.Timeout = *c.timeout
		c.client = &hc
	}
	return c
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token attached to c, if any.
func (c *Client) Token() string { return c.token }

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a session via POST /api/login.
// Failures are returned as *AuthError.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	return c.authenticate(ctx, "/api/login", creds, LoginFailed)
}

// Register creates an account via POST /api/register and returns its session.
// Failures are returned as *AuthError.
func (c *Client) Register(ctx context.Context, reg models.Registration) (models.Session, error) {
	return c.authenticate(ctx, "/api/register", reg, RegisterFailed)
}

func (c *Client) authenticate(ctx context.Context, path string, body any, fallback string) (models.Session, error) {
	var resp authResponse
	if err := doJSON(ctx, c.client, http.MethodPost, c.BaseURL+path, c.headers(false), body, &resp); err != nil {
		return models.Session{}, newAuthError(fallback, err)
	}
	if strings.TrimSpace(resp.Token) == "" {
		return models.Session{}, newAuthError(fallback, errors.New("response carried no token"))
	}
	return models.Session{Token: resp.Token, User: resp.User}, nil
}

// ---------------------------------------------------------------------------
// Todos
// ---------------------------------------------------------------------------

// ListTodos fetches the full list via GET /api/todos.
func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	todos := make([]models.Todo, 0)
	if err := doJSON(ctx, c.client, http.MethodGet, c.BaseURL+"/api/todos", c.headers(true), nil, &todos); err != nil {
		return nil, newNetworkError("list todos", err)
	}
	if todos == nil {
		// a JSON null body
		todos = make([]models.Todo, 0)
	}
	return todos, nil
}

// CreateTodo creates a todo via POST /api/todos and returns the server record.
func (c *Client) CreateTodo(ctx context.Context, text string) (models.Todo, error) {
	var t models.Todo
	body := map[string]any{"text": text}
	if err := doJSON(ctx, c.client, http.MethodPost, c.BaseURL+"/api/todos", c.headers(true), body, &t); err != nil {
		return models.Todo{}, newNetworkError("create todo", err)
	}
	return t, nil
}

// UpdateTodo sets completed via PUT /api/todos/:id and returns the server record.
func (c *Client) UpdateTodo(ctx context.Context, id models.ID, completed bool) (models.Todo, error) {
	var t models.Todo
	body := map[string]any{"completed": completed}
	if err := doJSON(ctx, c.client, http.MethodPut, c.todoURL(id), c.headers(true), body, &t); err != nil {
		return models.Todo{}, newNetworkError(fmt.Sprintf("update todo %s", id), err)
	}
	return t, nil
}

// DeleteTodo deletes a todo via DELETE /api/todos/:id. Any response body is ignored.
func (c *Client) DeleteTodo(ctx context.Context, id models.ID) error {
	if err := doJSON(ctx, c.client, http.MethodDelete, c.todoURL(id), c.headers(true), nil, nil); err != nil {
		return newNetworkError(fmt.Sprintf("delete todo %s", id), err)
	}
	return nil
}

func (c *Client) todoURL(id models.ID) string {
	return c.BaseURL + "/api/todos/" + url.PathEscape(id.String())
}

func (c *Client) headers(auth bool) map[string]string {
	h := map[string]string{"User-Agent": c.userAgent}
	if auth && c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}
