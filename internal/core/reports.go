package core

// CategorySpending is one category's share of a monthly summary.
type CategorySpending struct {
	Category   string
	Amount     Money
	Percentage float64
}

// BudgetComparison pairs a month's budget with what was actually spent.
type BudgetComparison struct {
	Category       string
	BudgetAmount   Money
	ActualSpent    Money
	Difference     Money // budget minus actual
	PercentageUsed float64
}

// MonthlySummary is the server-computed report for one YYYY-MM month.
type MonthlySummary struct {
	Month             string
	TotalSpent        Money
	TotalReimbursable Money
	CategoryBreakdown []CategorySpending
	BudgetComparisons []BudgetComparison
}
