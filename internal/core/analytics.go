package core

import "sort"

// categoryPalette is the fixed display palette. Colors are assigned by each
// category's rank of first appearance, cycling when there are more than nine
// categories.
var categoryPalette = []string{
	"#2563eb", // blue
	"#dc2626", // red
	"#059669", // green
	"#d97706", // orange
	"#7c3aed", // purple
	"#0891b2", // cyan
	"#be185d", // pink
	"#65a30d", // lime
	"#4338ca", // indigo
}

// CategoryData is the per-category aggregate over the non-reimbursable subset
// of an expense list.
type CategoryData struct {
	Category   string
	Amount     Money
	Count      int
	Percentage float64 // share of the non-reimbursable grand total, 0-100
	Color      string
}

// DateGroup is one calendar day's expenses, newest first.
type DateGroup struct {
	Date     string
	Expenses []Expense
}

// CategoryAnalytics aggregates expenses into per-category totals, counts and
// percentages. Reimbursable expenses are excluded entirely; if nothing
// remains the result is nil. The result is sorted by amount descending, ties
// keeping first-seen order.
func CategoryAnalytics(expenses []Expense) []CategoryData {
	idx := make(map[string]int)
	var out []CategoryData
	var total int64

	for _, e := range expenses {
		if e.Reimbursable {
			continue
		}
		i, ok := idx[e.Category]
		if !ok {
			i = len(out)
			idx[e.Category] = i
			out = append(out, CategoryData{
				Category: e.Category,
				Color:    categoryPalette[i%len(categoryPalette)],
			})
		}
		out[i].Amount.Cents += e.Amount.Cents
		out[i].Count++
		total += e.Amount.Cents
	}

	if len(out) == 0 {
		return nil
	}
	if total > 0 {
		for i := range out {
			out[i].Percentage = float64(out[i].Amount.Cents) / float64(total) * 100
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Amount.Cents > out[b].Amount.Cents
	})
	return out
}

// TopCategories returns the limit highest-spending categories.
func TopCategories(expenses []Expense, limit int) []CategoryData {
	data := CategoryAnalytics(expenses)
	if limit < 0 {
		limit = 0
	}
	if len(data) > limit {
		data = data[:limit]
	}
	return data
}

// TotalSpending sums every non-reimbursable amount. Reimbursable expenses
// never contribute to any total, percentage or budget consumption anywhere in
// the system.
func TotalSpending(expenses []Expense) Money {
	var total int64
	for _, e := range expenses {
		if e.Reimbursable {
			continue
		}
		total += e.Amount.Cents
	}
	return Money{Cents: total}
}

// SpendingByTimeRange returns expenses dated on or after today minus days.
// The comparison is by calendar date, not instant.
func SpendingByTimeRange(expenses []Expense, days int, today Date) []Expense {
	cutoff := today.AddDays(-days)
	var out []Expense
	for _, e := range expenses {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// GroupExpensesByDate groups expenses by their exact date string. Groups come
// back ordered by date descending; within a group items are ordered by
// creation timestamp descending. Both orderings are stable, and every input
// element appears in exactly one group. Listing views depend on this order.
func GroupExpensesByDate(expenses []Expense) []DateGroup {
	idx := make(map[string]int)
	var groups []DateGroup
	for _, e := range expenses {
		key := e.Date.String()
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, DateGroup{Date: key})
		}
		groups[i].Expenses = append(groups[i].Expenses, e)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Date > groups[b].Date
	})
	for i := range groups {
		g := groups[i].Expenses
		sort.SliceStable(g, func(a, b int) bool {
			return g[a].CreatedAt.After(g[b].CreatedAt)
		})
	}
	return groups
}
