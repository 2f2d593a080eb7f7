package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onepocket/internal/core"
)

type searchAPI struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]core.Expense
	err     error
	delay   time.Duration
}

func (s *searchAPI) SearchExpenses(ctx context.Context, query string) ([]core.Expense, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	delay := s.delay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func (s *searchAPI) ListExpenses(ctx context.Context) ([]core.Expense, error) { return nil, nil }

func (s *searchAPI) AddExpense(ctx context.Context, form core.ExpenseForm) (core.Expense, error) {
	return core.Expense{}, nil
}

func (s *searchAPI) DeleteExpense(ctx context.Context, id string) error    { return nil }
func (s *searchAPI) ReimburseExpense(ctx context.Context, id string) error { return nil }

func (s *searchAPI) queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type recorder struct {
	mu      sync.Mutex
	applied []Results
}

func (r *recorder) apply(res Results) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, res)
}

func (r *recorder) results() []Results {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Results(nil), r.applied...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRapidTypingCollapsesToLatestQuery(t *testing.T) {
	api := &searchAPI{results: map[string][]core.Expense{
		"ab": {{ID: "1", Note: "about town"}},
	}}
	rec := &recorder{}
	s := New(api, rec.apply, 40*time.Millisecond)
	defer s.Close()

	ctx := context.Background()
	s.Query(ctx, "a")
	time.Sleep(10 * time.Millisecond)
	s.Query(ctx, "ab")

	waitFor(t, func() bool { return len(rec.results()) > 0 })
	time.Sleep(80 * time.Millisecond)

	require.Equal(t, []string{"ab"}, api.queries(), "superseded query must never reach the API")
	applied := rec.results()
	require.Len(t, applied, 1)
	assert.Equal(t, "ab", applied[0].Query)
	require.Len(t, applied[0].Expenses, 1)
	assert.Equal(t, "1", applied[0].Expenses[0].ID)
}

func TestStaleResponseDiscarded(t *testing.T) {
	api := &searchAPI{
		delay: 50 * time.Millisecond,
		results: map[string][]core.Expense{
			"slow": {{ID: "old"}},
			"fast": {{ID: "new"}},
		},
	}
	rec := &recorder{}
	s := New(api, rec.apply, 5*time.Millisecond)
	defer s.Close()

	ctx := context.Background()
	s.Query(ctx, "slow")
	// Let the first request start, then supersede it mid-flight.
	time.Sleep(20 * time.Millisecond)
	s.Query(ctx, "fast")

	waitFor(t, func() bool { return len(rec.results()) > 0 })
	time.Sleep(100 * time.Millisecond)

	applied := rec.results()
	require.Len(t, applied, 1)
	assert.Equal(t, "fast", applied[0].Query)
}

func TestBlankQueryClearsSynchronously(t *testing.T) {
	api := &searchAPI{}
	rec := &recorder{}
	s := New(api, rec.apply, time.Hour)
	defer s.Close()

	ctx := context.Background()
	s.Query(ctx, "pending")
	s.Query(ctx, "   ")

	applied := rec.results()
	require.Len(t, applied, 1, "clear is applied before Query returns")
	assert.Equal(t, "", applied[0].Query)
	assert.Empty(t, applied[0].Expenses)

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, api.queries(), "blank input cancels the pending search")
}

func TestSearchErrorSurfacedNotCached(t *testing.T) {
	api := &searchAPI{err: assert.AnError}
	rec := &recorder{}
	s := New(api, rec.apply, 5*time.Millisecond)
	defer s.Close()

	s.Query(context.Background(), "boom")
	waitFor(t, func() bool { return len(rec.results()) > 0 })

	applied := rec.results()
	require.Len(t, applied, 1)
	assert.Equal(t, "boom", applied[0].Query)
	assert.Error(t, applied[0].Err)
}

func TestCloseStopsPendingQuery(t *testing.T) {
	api := &searchAPI{}
	rec := &recorder{}
	s := New(api, rec.apply, 20*time.Millisecond)

	s.Query(context.Background(), "doomed")
	s.Close()
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, api.queries())
	assert.Empty(t, rec.results())

	// Queries after Close are ignored.
	s.Query(context.Background(), "late")
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, api.queries())
}
