// Package search debounces expense search input. A new keystroke cancels any
// pending request's eventual state update: the latest query always wins, and
// a stale in-flight response for an abandoned query is discarded rather than
// applied. There is no request cancellation token; discarding happens by
// checking that the query that produced a response is still the current one.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"onepocket/internal/api"
	"onepocket/internal/core"
)

// DefaultDebounce matches the 300ms input debounce of the listing views.
const DefaultDebounce = 300 * time.Millisecond

// Results is one applied result set.
type Results struct {
	Query    string
	Expenses []core.Expense
	Err      error
}

// Searcher runs note-substring searches against the remote API behind a
// debounce timer. apply is invoked once per settled query, never for
// superseded ones.
type Searcher struct {
	api      api.ExpenseAPI
	apply    func(Results)
	debounce time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	closed     bool
}

func New(expenseAPI api.ExpenseAPI, apply func(Results), debounce time.Duration) *Searcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Searcher{
		api:      expenseAPI,
		apply:    apply,
		debounce: debounce,
	}
}

// Query registers a new input value. A blank query cancels any pending search
// and clears results synchronously; anything else (re)arms the debounce
// timer.
func (s *Searcher) Query(ctx context.Context, query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if strings.TrimSpace(query) == "" {
		s.mu.Unlock()
		s.apply(Results{Query: ""})
		return
	}

	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(ctx, gen, query)
	})
	s.mu.Unlock()
}

// Close stops any pending timer. Safe to call more than once.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Searcher) run(ctx context.Context, gen uint64, query string) {
	if !s.current(gen) {
		return
	}

	expenses, err := s.api.SearchExpenses(ctx, query)

	// The query may have moved on while the request was in flight; a stale
	// response must not be applied.
	if !s.current(gen) {
		if err == nil {
			slog.DebugContext(ctx, "Discarding stale search response", "query", query)
		}
		return
	}

	if err != nil {
		slog.ErrorContext(ctx, "Search failed", "query", query, "error", err)
	}
	s.apply(Results{Query: query, Expenses: expenses, Err: err})
}

func (s *Searcher) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && gen == s.generation
}
