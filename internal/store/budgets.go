package store

import (
	"context"
	"fmt"
	"sync"

	"onepocket/internal/api"
	"onepocket/internal/core"
)

// BudgetStore is the client-side budget list. The one-budget-per
// (category, month) rule is enforced here by filtering available categories,
// not by a server constraint the client can see.
type BudgetStore struct {
	api      api.BudgetAPI
	onChange func() // may be nil

	mu      sync.RWMutex
	budgets []core.Budget
}

func NewBudgetStore(budgetAPI api.BudgetAPI, onChange func()) *BudgetStore {
	return &BudgetStore{api: budgetAPI, onChange: onChange}
}

// Load fetches the full budget list.
func (s *BudgetStore) Load(ctx context.Context) error {
	budgets, err := s.api.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	s.mu.Lock()
	s.budgets = budgets
	s.mu.Unlock()
	return nil
}

// Create adds a budget after rejecting a duplicate (category, month) pair
// client-side.
func (s *BudgetStore) Create(ctx context.Context, form core.BudgetForm) (core.Budget, error) {
	if err := form.Validate(); err != nil {
		return core.Budget{}, err
	}
	month := form.Month
	if month == "" {
		month = core.Today().MonthKey()
	}
	if s.hasBudget(form.Category, month) {
		return core.Budget{}, fmt.Errorf("budget for %q in %s already exists", form.Category, month)
	}

	created, err := s.api.CreateBudget(ctx, form)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	s.mu.Lock()
	s.budgets = append(s.budgets, created)
	s.mu.Unlock()
	s.notify()
	return created, nil
}

// Update replaces a budget's amount/month/category by id.
func (s *BudgetStore) Update(ctx context.Context, id string, form core.BudgetForm) (core.Budget, error) {
	if err := form.Validate(); err != nil {
		return core.Budget{}, err
	}

	updated, err := s.api.UpdateBudget(ctx, id, form)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}

	s.mu.Lock()
	for i, b := range s.budgets {
		if b.ID == id {
			s.budgets[i] = updated
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return updated, nil
}

// Delete removes a budget remotely, then locally by id.
func (s *BudgetStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}

	s.mu.Lock()
	kept := s.budgets[:0]
	for _, b := range s.budgets {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	s.budgets = kept
	s.mu.Unlock()
	s.notify()
	return nil
}

// Reset drops the list on user switch.
func (s *BudgetStore) Reset() {
	s.mu.Lock()
	s.budgets = nil
	s.mu.Unlock()
}

// Budgets returns a copy of the current list.
func (s *BudgetStore) Budgets() []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Budget, len(s.budgets))
	copy(out, s.budgets)
	return out
}

// AvailableCategories filters categories that do not yet have a budget for
// the given month.
func (s *BudgetStore) AvailableCategories(categories []string, month string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	taken := make(map[string]bool)
	for _, b := range s.budgets {
		if b.Month == month {
			taken[b.Category] = true
		}
	}

	var out []string
	for _, c := range categories {
		if !taken[c] {
			out = append(out, c)
		}
	}
	return out
}

// Statuses derives the budget-vs-actual view for the given month.
func (s *BudgetStore) Statuses(categories []string, expenses []core.Expense, month string) []core.BudgetStatus {
	return core.BudgetStatuses(categories, s.Budgets(), expenses, month)
}

func (s *BudgetStore) hasBudget(category, month string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.budgets {
		if b.Category == category && b.Month == month {
			return true
		}
	}
	return false
}

func (s *BudgetStore) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
