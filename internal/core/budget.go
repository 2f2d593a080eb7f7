package core

// BudgetStatus is the derived budget-vs-actual view for one category in one
// month. It is computed locally and never persisted.
type BudgetStatus struct {
	Category       string
	BudgetAmount   Money
	Spent          Money
	Remaining      Money
	PercentageUsed float64
	IsExceeded     bool
}

// BudgetStatuses derives the status of every known category for the given
// month. At most one budget matches a (category, month) pair; categories
// without a budget get a zero BudgetAmount. Spending counts non-reimbursable
// expenses whose date falls in the month.
//
// A zero budget is never exceeded, regardless of spend, and its usage
// percentage is 0. That is a deliberate policy, not an accident.
func BudgetStatuses(categories []string, budgets []Budget, expenses []Expense, month string) []BudgetStatus {
	spentByCategory := make(map[string]int64)
	for _, e := range expenses {
		if e.Reimbursable || e.Date.MonthKey() != month {
			continue
		}
		spentByCategory[e.Category] += e.Amount.Cents
	}

	budgetByCategory := make(map[string]Money)
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		if _, ok := budgetByCategory[b.Category]; ok {
			continue // first match wins; duplicates are filtered at creation
		}
		budgetByCategory[b.Category] = b.Amount
	}

	out := make([]BudgetStatus, 0, len(categories))
	for _, cat := range categories {
		budget := budgetByCategory[cat]
		spent := spentByCategory[cat]

		status := BudgetStatus{
			Category:     cat,
			BudgetAmount: budget,
			Spent:        Money{Cents: spent},
			Remaining:    Money{Cents: budget.Cents - spent},
		}
		if budget.Cents > 0 {
			status.PercentageUsed = float64(spent) / float64(budget.Cents) * 100
			status.IsExceeded = spent > budget.Cents
		}
		out = append(out, status)
	}
	return out
}
