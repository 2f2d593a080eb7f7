package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"onepocket/internal/core"
)

// fakeAPI is an in-memory stand-in for the remote service implementing every
// port the stores use. Error fields force the next matching call to fail.
type fakeAPI struct {
	mu sync.Mutex

	expenses   []core.Expense
	categories []core.Category
	budgets    []core.Budget
	months     []string
	summaries  map[string]core.MonthlySummary

	nextID int

	listErr      error
	addErr       error
	deleteErr    error
	reimburseErr error
	categoryErr  error
	budgetErr    error
	reportErr    error

	listCalls    int
	summaryCalls int
	createdNames []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{summaries: make(map[string]core.MonthlySummary)}
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeAPI) ListExpenses(context.Context) ([]core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]core.Expense, len(f.expenses))
	copy(out, f.expenses)
	return out, nil
}

func (f *fakeAPI) AddExpense(_ context.Context, form core.ExpenseForm) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return core.Expense{}, f.addErr
	}
	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date := core.Today()
	if form.Date != "" {
		date, _ = core.ParseDate(form.Date)
	}
	e := core.Expense{
		ID:           f.id("e"),
		Amount:       core.Money{Cents: cents},
		Category:     form.Category,
		Date:         date,
		CreatedAt:    time.Now(),
		Reimbursable: form.Reimbursable,
	}
	f.expenses = append(f.expenses, e)
	return e, nil
}

func (f *fakeAPI) DeleteExpense(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeAPI) ReimburseExpense(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reimburseErr
}

func (f *fakeAPI) SearchExpenses(_ context.Context, query string) ([]core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Expense
	for _, e := range f.expenses {
		if query != "" && containsFold(e.Note, query) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAPI) ListCategories(context.Context) ([]core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	out := make([]core.Category, len(f.categories))
	copy(out, f.categories)
	return out, nil
}

func (f *fakeAPI) CreateCategory(_ context.Context, name string) (core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdNames = append(f.createdNames, name)
	if f.categoryErr != nil {
		return core.Category{}, f.categoryErr
	}
	c := core.Category{ID: f.id("c"), Name: name}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeAPI) DeleteCategory(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.categoryErr != nil {
		return f.categoryErr
	}
	kept := f.categories[:0]
	for _, c := range f.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	f.categories = kept
	return nil
}

func (f *fakeAPI) ListBudgets(context.Context) ([]core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.budgetErr != nil {
		return nil, f.budgetErr
	}
	out := make([]core.Budget, len(f.budgets))
	copy(out, f.budgets)
	return out, nil
}

func (f *fakeAPI) CreateBudget(_ context.Context, form core.BudgetForm) (core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.budgetErr != nil {
		return core.Budget{}, f.budgetErr
	}
	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	month := form.Month
	if month == "" {
		month = core.Today().MonthKey()
	}
	b := core.Budget{ID: f.id("b"), Category: form.Category, Amount: core.Money{Cents: cents}, Month: month}
	f.budgets = append(f.budgets, b)
	return b, nil
}

func (f *fakeAPI) UpdateBudget(_ context.Context, id string, form core.BudgetForm) (core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.budgetErr != nil {
		return core.Budget{}, f.budgetErr
	}
	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	for i, b := range f.budgets {
		if b.ID == id {
			f.budgets[i].Amount = core.Money{Cents: cents}
			return f.budgets[i], nil
		}
	}
	return core.Budget{}, fmt.Errorf("budget %s not found", id)
}

func (f *fakeAPI) DeleteBudget(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.budgetErr != nil {
		return f.budgetErr
	}
	kept := f.budgets[:0]
	for _, b := range f.budgets {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	f.budgets = kept
	return nil
}

func (f *fakeAPI) MonthlySummary(_ context.Context, month string) (core.MonthlySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	if f.reportErr != nil {
		return core.MonthlySummary{}, f.reportErr
	}
	return f.summaries[month], nil
}

func (f *fakeAPI) MonthlyComparison(_ context.Context, months int) ([]core.MonthlySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	out := make([]core.MonthlySummary, 0, months)
	for _, m := range f.months {
		if len(out) == months {
			break
		}
		out = append(out, f.summaries[m])
	}
	return out, nil
}

func (f *fakeAPI) AvailableMonths(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	out := make([]string, len(f.months))
	copy(out, f.months)
	return out, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
