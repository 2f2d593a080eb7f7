package api

import (
	"context"

	"onepocket/internal/core"
)

// Ports for the remote expense service. The HTTP client implements all of
// them; tests substitute fakes.
type (
	AuthAPI interface {
		Login(ctx context.Context, username, password string) (core.User, string, error)
		Register(ctx context.Context, username, password string) (core.User, string, error)
	}

	ExpenseAPI interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		AddExpense(ctx context.Context, form core.ExpenseForm) (core.Expense, error)
		DeleteExpense(ctx context.Context, id string) error
		ReimburseExpense(ctx context.Context, id string) error
		// SearchExpenses matches the query as a note substring, server-side.
		SearchExpenses(ctx context.Context, query string) ([]core.Expense, error)
	}

	CategoryAPI interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, name string) (core.Category, error)
		// DeleteCategory fails with the server's generic error when the
		// category is still referenced by expenses.
		DeleteCategory(ctx context.Context, id string) error
	}

	BudgetAPI interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		CreateBudget(ctx context.Context, form core.BudgetForm) (core.Budget, error)
		UpdateBudget(ctx context.Context, id string, form core.BudgetForm) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) error
	}

	ReportAPI interface {
		MonthlySummary(ctx context.Context, month string) (core.MonthlySummary, error)
		// MonthlyComparison returns summaries for the n trailing months,
		// most recent first.
		MonthlyComparison(ctx context.Context, months int) ([]core.MonthlySummary, error)
		AvailableMonths(ctx context.Context) ([]string, error)
	}
)
