// Package apitest runs an in-process fake of the todo REST backend for tests.
// It speaks the same wire shapes the real backend does: Mongo-style "_id"
// fields, {token, user} auth responses and {message} error bodies.
package apitest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-ports/todo/internal/models"
)

// Route names a backend endpoint for failure injection.
type Route string

// Backend routes.
const (
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteList     Route = "list"
	RouteCreate   Route = "create"
	RouteUpdate   Route = "update"
	RouteDelete   Route = "delete"
)

// Request is one recorded inbound request.
type Request struct {
	Route         Route
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

type failure struct {
	status  int
	message string
}

type account struct {
	user models.User
	hash []byte
}

// Server is the fake backend.
type Server struct {
	*httptest.Server

	key        []byte
	sequential bool
	tokenTTL   time.Duration

	mu       sync.Mutex
	accounts map[string]*account       // by email
	todos    map[models.ID][]models.Todo // by user id, in insertion order
	failures map[Route]failure
	requests []Request
	nextID   int
}

// Option configures a Server.
type Option func(*Server)

// WithSequentialIDs makes the server assign "1", "2", ... instead of UUIDs.
func WithSequentialIDs() Option {
	return func(s *Server) { s.sequential = true }
}

// WithTokenTTL sets the exp claim of issued tokens (default one hour).
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// New starts a fake backend and registers its shutdown on tb.
func New(tb testing.TB, opts ...Option) *Server {
	tb.Helper()
	s := &Server{
		key:      []byte("apitest-signing-key"),
		tokenTTL: time.Hour,
		accounts: make(map[string]*account),
		todos:    make(map[models.ID][]models.Todo),
		failures: make(map[Route]failure),
	}
	for _, o := range opts {
		o(s)
	}

	r := mux.NewRouter().UseEncodedPath()
	r.Methods(http.MethodPost).Path("/api/login").Handler(s.guard(RouteLogin, http.HandlerFunc(s.login)))
	r.Methods(http.MethodPost).Path("/api/register").Handler(s.guard(RouteRegister, http.HandlerFunc(s.register)))
	r.Methods(http.MethodGet).Path("/api/todos").Handler(s.guard(RouteList, s.authed(s.listTodos)))
	r.Methods(http.MethodPost).Path("/api/todos").Handler(s.guard(RouteCreate, s.authed(s.createTodo)))
	r.Methods(http.MethodPut).Path("/api/todos/{id}").Handler(s.guard(RouteUpdate, s.authed(s.updateTodo)))
	r.Methods(http.MethodDelete).Path("/api/todos/{id}").Handler(s.guard(RouteDelete, s.authed(s.deleteTodo)))

	s.Server = httptest.NewServer(r)
	tb.Cleanup(s.Close)
	return s
}

// ---------------------------------------------------------------------------
// Test controls
// ---------------------------------------------------------------------------

// AddUser registers an account and returns its profile.
func (s *Server) AddUser(username, email, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.addUserLocked(username, email, password)
	if err != nil {
		panic("apitest: " + err.Error())
	}
	return u
}

// Token issues a valid token for user.
func (s *Server) Token(user models.User) string {
	tok, err := s.issue(user.ID)
	if err != nil {
		panic("apitest: " + err.Error())
	}
	return tok
}

// Seed appends todos to user's list. Empty ids are assigned.
func (s *Server) Seed(user models.User, todos ...models.Todo) []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		if t.ID == "" {
			t.ID = s.newIDLocked()
		}
		s.todos[user.ID] = append(s.todos[user.ID], t)
		out = append(out, t)
	}
	return out
}

// Todos returns the server-side list for user.
func (s *Server) Todos(user models.User) []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]models.Todo, 0, len(s.todos[user.ID])), s.todos[user.ID]...)
}

// Fail makes every request to route answer status with {message} until
// Recover is called. An empty message sends a non-JSON body.
func (s *Server) Fail(route Route, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Recover clears all injected failures.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[Route]failure)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]Request, 0, len(s.requests)), s.requests...)
}

// Count returns how many requests hit route.
func (s *Server) Count(route Route) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Route == route {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

type ctxKey struct{}

// guard records the request and applies injected failures.
func (s *Server) guard(route Route, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Route:         route,
			Method:        r.Method,
			Path:          r.URL.EscapedPath(),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          string(body),
		})
		f, failing := s.failures[route]
		s.mu.Unlock()

		if failing {
			if f.message == "" {
				http.Error(w, "upstream exploded", f.status)
				return
			}
			writeJSON(w, f.status, map[string]string{"message": f.message})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// authed verifies the bearer token and passes the user id to h.
func (s *Server) authed(h func(w http.ResponseWriter, r *http.Request, userID models.ID)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token, authorization denied"})
			return
		}
		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return s.key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || claims.Subject == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token is not valid"})
			return
		}
		h(w, r, models.ID(claims.Subject))
	})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(in.Password)) != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid credentials"})
		return
	}
	s.writeSession(w, http.StatusOK, acct.user)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.Registration
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	if len(in.Missing()) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "All fields are required"})
		return
	}
	s.mu.Lock()
	u, err := s.addUserLocked(in.Username, in.Email, in.Password)
	s.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	s.writeSession(w, http.StatusCreated, u)
}

func (s *Server) listTodos(w http.ResponseWriter, _ *http.Request, userID models.ID) {
	s.mu.Lock()
	out := append(make([]models.Todo, 0, len(s.todos[userID])), s.todos[userID]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request, userID models.ID) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Text is required"})
		return
	}
	s.mu.Lock()
	t := models.Todo{ID: s.newIDLocked(), Text: in.Text}
	s.todos[userID] = append(s.todos[userID], t)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request, userID models.ID) {
	id := pathID(r)
	var in struct {
		Text      *string `json:"text"`
		Completed *bool   `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.todos[userID]
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if in.Text != nil {
			list[i].Text = *in.Text
		}
		if in.Completed != nil {
			list[i].Completed = *in.Completed
		}
		writeJSON(w, http.StatusOK, list[i])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Todo not found"})
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request, userID models.ID) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.todos[userID]
	for i := range list {
		if list[i].ID == id {
			s.todos[userID] = append(list[:i:i], list[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Todo not found"})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Server) addUserLocked(username, email, password string) (models.User, error) {
	key := strings.ToLower(email)
	if _, exists := s.accounts[key]; exists {
		return models.User{}, errors.New("User already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{ID: s.newIDLocked(), Username: username, Email: email}
	s.accounts[key] = &account{user: u, hash: hash}
	return u, nil
}

func (s *Server) newIDLocked() models.ID {
	if s.sequential {
		s.nextID++
		return models.ID(strconv.Itoa(s.nextID))
	}
	return models.ID(uuid.NewString())
}

func (s *Server) issue(userID models.ID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

func (s *Server) writeSession(w http.ResponseWriter, status int, u models.User) {
	tok, err := s.issue(u.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
		return
	}
	writeJSON(w, status, map[string]any{
		"token": tok,
		"user":  map[string]any{"_id": u.ID, "username": u.Username, "email": u.Email},
	})
}

func pathID(r *http.Request) models.ID {
	raw := mux.Vars(r)["id"]
	if id, err := url.PathUnescape(raw); err == nil {
		return models.ID(id)
	}
	return models.ID(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
