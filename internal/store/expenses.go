// Package store keeps in-memory entity lists consistent with the remote API.
// Mutations are confirmed-then-applied: the local list changes only after the
// server accepts, so it is always a subset of confirmed server state. There
// is no optimistic tentative write anywhere in this layer.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"onepocket/internal/api"
	"onepocket/internal/core"
)

// ExpenseStore is the client-side expense list.
type ExpenseStore struct {
	api      api.ExpenseAPI
	onChange func() // fired after any confirmed mutation; may be nil

	mu             sync.RWMutex
	userID         string
	expenses       []core.Expense
	initialLoading bool
	busy           bool
}

// NewExpenseStore builds a store over the given API. onChange, if non-nil,
// runs after every confirmed mutation (the report cache hooks in here).
func NewExpenseStore(expenseAPI api.ExpenseAPI, onChange func()) *ExpenseStore {
	return &ExpenseStore{
		api:            expenseAPI,
		onChange:       onChange,
		initialLoading: true,
	}
}

// SetUser switches the active user. The expense list never leaks between
// sessions: it is discarded unconditionally and reloaded only when a user is
// present.
func (s *ExpenseStore) SetUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.userID = userID
	s.expenses = nil
	s.initialLoading = userID != ""
	s.mu.Unlock()

	if userID == "" {
		return nil
	}
	return s.Load(ctx)
}

// Load fetches the full expense list. The initial-loading flag stays true
// until the first load finishes, success or not, so callers can tell first
// paint from per-action latency.
func (s *ExpenseStore) Load(ctx context.Context) error {
	expenses, err := s.api.ListExpenses(ctx)

	s.mu.Lock()
	s.initialLoading = false
	if err == nil {
		s.expenses = expenses
	}
	s.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Failed to load expenses", "error", err)
		return fmt.Errorf("load expenses: %w", err)
	}
	return nil
}

// Add submits the form and, only on success, prepends the server-confirmed
// record so the newest expense lists first. On failure the list is untouched
// and the error propagates to the caller for user-visible feedback.
func (s *ExpenseStore) Add(ctx context.Context, form core.ExpenseForm) (core.Expense, error) {
	s.setBusy(true)
	defer s.setBusy(false)

	confirmed, err := s.api.AddExpense(ctx, form)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}

	s.mu.Lock()
	s.expenses = append([]core.Expense{confirmed}, s.expenses...)
	s.mu.Unlock()

	s.notify()
	return confirmed, nil
}

// Delete removes the expense remotely, then locally by id.
func (s *ExpenseStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.removeByID(id)
	s.notify()
	return nil
}

// Reimburse marks the expense reimbursed remotely, then removes it from the
// active list by id.
func (s *ExpenseStore) Reimburse(ctx context.Context, id string) error {
	if err := s.api.ReimburseExpense(ctx, id); err != nil {
		return fmt.Errorf("reimburse expense: %w", err)
	}
	s.removeByID(id)
	s.notify()
	return nil
}

// Expenses returns a copy of the current list, newest first.
func (s *ExpenseStore) Expenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// InitialLoading reports whether the first load is still in flight.
func (s *ExpenseStore) InitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialLoading
}

// Busy reports whether a per-action request is outstanding. Callers should
// disable the triggering control while true.
func (s *ExpenseStore) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

func (s *ExpenseStore) setBusy(b bool) {
	s.mu.Lock()
	s.busy = b
	s.mu.Unlock()
}

func (s *ExpenseStore) removeByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.expenses = kept
}

func (s *ExpenseStore) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
