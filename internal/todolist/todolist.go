// Package todolist keeps a local, ordered copy of the signed-in user's todos
// consistent with the backend.
//
// Every mutation is fire-and-confirm: the request is sent first and the local
// list changes only when the server answers, and then only with the record
// the server returned. Failures leave the list untouched and go to the
// Reporter.
package todolist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/go-ports/todo/internal/models"
)

// Backend is the subset of the REST client the synchronizer needs.
// *api.Client satisfies it.
type Backend interface {
	ListTodos(ctx context.Context) ([]models.Todo, error)
	CreateTodo(ctx context.Context, text string) (models.Todo, error)
	UpdateTodo(ctx context.Context, id models.ID, completed bool) (models.Todo, error)
	DeleteTodo(ctx context.Context, id models.ID) error
}

// State is the synchronizer lifecycle state.
type State int

// Lifecycle states.
const (
	Loading State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

var (
	// ErrEmptyText is returned by Add for blank text. No request is sent.
	ErrEmptyText = errors.New("todolist: empty text")
	// ErrNotReady is returned by mutations before the first Load completes.
	ErrNotReady = errors.New("todolist: list not loaded")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("todolist: closed")
	// ErrStale is returned when a response arrives after Rebind or Close and
	// was discarded.
	ErrStale = errors.New("todolist: response discarded")
)

// Synchronizer is one mounted todo screen bound to one session token.
// It is safe for concurrent use.
type Synchronizer struct {
	reporter Reporter

	mu       sync.Mutex
	backend  Backend
	state    State
	order    []models.ID
	records  map[models.ID]models.Todo
	gen      uint64
	lifetime context.Context
	cancel   context.CancelFunc
	closed   bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithReporter sets the failure visibility policy. The default logs at warn.
func WithReporter(r Reporter) Option {
	return func(s *Synchronizer) { s.reporter = r }
}

// New returns a Synchronizer in the Loading state. Call Load to fetch.
func New(backend Backend, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		reporter: LogReporter{},
		backend:  backend,
		state:    Loading,
		records:  make(map[models.ID]models.Todo),
	}
	for _, o := range opts {
		o(s)
	}
	if s.reporter == nil {
		s.reporter = Discard
	}
	s.lifetime, s.cancel = context.WithCancel(context.Background())
	return s
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Rebind switches to a new backend (the active token changed). In-flight
// requests are cancelled, their responses discarded, the list dropped, and
// the state returns to Loading.
func (s *Synchronizer) Rebind(backend Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancel()
	s.gen++
	s.lifetime, s.cancel = context.WithCancel(context.Background())
	s.backend = backend
	s.state = Loading
	s.resetLocked(nil)
}

// Close cancels in-flight requests. Later responses are discarded and every
// further call returns ErrClosed.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.cancel()
}

// begin derives a request context cancelled by either ctx or the
// synchronizer lifetime, and snapshots the generation it belongs to.
func (s *Synchronizer) begin(ctx context.Context, needReady bool) (context.Context, func(), Backend, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, nil, 0, ErrClosed
	}
	if needReady && s.state != Ready {
		return nil, nil, nil, 0, ErrNotReady
	}
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.lifetime, cancel)
	done := func() {
		stop()
		cancel()
	}
	return reqCtx, done, s.backend, s.gen, nil
}

// settle locks mu and reports whether the response for gen may be applied.
// The caller must unlock.
func (s *Synchronizer) settle(gen uint64) bool {
	s.mu.Lock()
	return !s.closed && gen == s.gen
}

func (s *Synchronizer) report(op Op, err error) {
	s.reporter.Report(op, err)
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

// Load fetches the full list. On success the list is replaced; on failure
// it becomes empty. Either way the state is Ready afterwards.
func (s *Synchronizer) Load(ctx context.Context) error {
	reqCtx, done, b, gen, err := s.begin(ctx, false)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if gen == s.gen {
		s.state = Loading
	}
	s.mu.Unlock()

	todos, err := b.ListTodos(reqCtx)
	done()

	if !s.settle(gen) {
		s.mu.Unlock()
		return ErrStale
	}
	s.state = Ready
	if err != nil {
		s.resetLocked(nil)
		s.mu.Unlock()
		s.report(OpLoad, err)
		return fmt.Errorf("todolist.Load: %w", err)
	}
	s.resetLocked(todos)
	s.mu.Unlock()
	return nil
}

// Add creates a todo from text and appends the server's record.
// Blank text returns ErrEmptyText without sending anything.
func (s *Synchronizer) Add(ctx context.Context, text string) (models.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Todo{}, ErrEmptyText
	}
	reqCtx, done, b, gen, err := s.begin(ctx, true)
	if err != nil {
		return models.Todo{}, err
	}

	t, err := b.CreateTodo(reqCtx, text)
	done()

	if !s.settle(gen) {
		s.mu.Unlock()
		return models.Todo{}, ErrStale
	}
	if err != nil {
		s.mu.Unlock()
		s.report(OpAdd, err)
		return models.Todo{}, fmt.Errorf("todolist.Add: %w", err)
	}
	if _, exists := s.records[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.records[t.ID] = t
	s.mu.Unlock()
	return t, nil
}

// Toggle sets completed on id and replaces the local entry with the record
// the server returned, at the same position. A response for an id that is
// no longer in the list (deleted meanwhile) is dropped.
func (s *Synchronizer) Toggle(ctx context.Context, id models.ID, completed bool) (models.Todo, error) {
	reqCtx, done, b, gen, err := s.begin(ctx, true)
	if err != nil {
		return models.Todo{}, err
	}

	t, err := b.UpdateTodo(reqCtx, id, completed)
	done()

	if !s.settle(gen) {
		s.mu.Unlock()
		return models.Todo{}, ErrStale
	}
	if err != nil {
		s.mu.Unlock()
		s.report(OpToggle, err)
		return models.Todo{}, fmt.Errorf("todolist.Toggle: %w", err)
	}
	if t.ID == "" {
		t.ID = id
	}
	s.mergeLocked(id, t)
	s.mu.Unlock()
	return t, nil
}

// Delete removes id on the server, then locally.
func (s *Synchronizer) Delete(ctx context.Context, id models.ID) error {
	reqCtx, done, b, gen, err := s.begin(ctx, true)
	if err != nil {
		return err
	}

	err = b.DeleteTodo(reqCtx, id)
	done()

	if !s.settle(gen) {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		s.mu.Unlock()
		s.report(OpDelete, err)
		return fmt.Errorf("todolist.Delete: %w", err)
	}
	s.removeLocked(id)
	s.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// State returns the lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Todos returns a copy of the list in display order.
func (s *Synchronizer) Todos() []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Todo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Counts derives the list statistics from the current list.
func (s *Synchronizer) Counts() models.Counts {
	return models.CountsOf(s.Todos())
}

// Get returns the entry for id.
func (s *Synchronizer) Get(id models.ID) (models.Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.records[id]
	return t, ok
}

// Lookup resolves ref as an exact id first, then as a 1-based position.
func (s *Synchronizer) Lookup(ref string) (models.Todo, bool) {
	ref = strings.TrimSpace(ref)
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.records[models.ID(ref)]; ok {
		return t, true
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(s.order) {
		return s.records[s.order[n-1]], true
	}
	return models.Todo{}, false
}

// ---------------------------------------------------------------------------
// Reconciliation (mu held)
// ---------------------------------------------------------------------------

// resetLocked replaces the list. A repeated id keeps its first position and
// its last record.
func (s *Synchronizer) resetLocked(todos []models.Todo) {
	s.order = make([]models.ID, 0, len(todos))
	s.records = make(map[models.ID]models.Todo, len(todos))
	for _, t := range todos {
		if _, seen := s.records[t.ID]; seen {
			slog.Debug("todolist: duplicate id in list response", "id", t.ID)
		} else {
			s.order = append(s.order, t.ID)
		}
		s.records[t.ID] = t
	}
}

// mergeLocked replaces the entry keyed by id with t, keeping its position.
// When the server answers with an id already listed elsewhere, that entry
// takes t and the slot of id is dropped.
func (s *Synchronizer) mergeLocked(id models.ID, t models.Todo) {
	if _, ok := s.records[id]; !ok {
		slog.Debug("todolist: dropping update for id no longer listed", "id", id)
		return
	}
	if _, clash := s.records[t.ID]; clash && t.ID != id {
		s.removeLocked(id)
	} else if t.ID != id {
		for i, oid := range s.order {
			if oid == id {
				s.order[i] = t.ID
				break
			}
		}
		delete(s.records, id)
	}
	s.records[t.ID] = t
}

func (s *Synchronizer) removeLocked(id models.ID) {
	if _, ok := s.records[id]; !ok {
		return
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
