package core

import (
	"testing"
	"time"
)

func TestBudgetStatuses(t *testing.T) {
	month := "2024-01"
	categories := []string{"Bills", "Travel", "Shopping"}
	budgets := []Budget{
		{ID: "b1", Category: "Bills", Amount: Money{Cents: 100000}, Month: month},
		{ID: "b2", Category: "Travel", Amount: Money{Cents: 50000}, Month: month},
		{ID: "b3", Category: "Bills", Amount: Money{Cents: 999}, Month: "2023-12"}, // other month, ignored
	}
	now := time.Now()
	expenses := []Expense{
		exp("1", "Bills", 120000, NewDate(2024, 1, 10), now, false),
		exp("2", "Travel", 20000, NewDate(2024, 1, 11), now, false),
		exp("3", "Travel", 30000, NewDate(2023, 12, 30), now, false), // other month
		exp("4", "Bills", 500000, NewDate(2024, 1, 12), now, true),   // reimbursable
		exp("5", "Shopping", 7000, NewDate(2024, 1, 13), now, false),
	}

	statuses := BudgetStatuses(categories, budgets, expenses, month)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}

	bills := statuses[0]
	if bills.Spent.Cents != 120000 {
		t.Fatalf("bills spent: expected 120000, got %d", bills.Spent.Cents)
	}
	if bills.Remaining.Cents != -20000 {
		t.Fatalf("bills remaining: expected -20000, got %d", bills.Remaining.Cents)
	}
	if bills.PercentageUsed != 120 {
		t.Fatalf("bills percentage: expected 120, got %v", bills.PercentageUsed)
	}
	if !bills.IsExceeded {
		t.Fatalf("bills should be exceeded")
	}

	travel := statuses[1]
	if travel.Spent.Cents != 20000 || travel.PercentageUsed != 40 || travel.IsExceeded {
		t.Fatalf("travel status wrong: %+v", travel)
	}
}

func TestBudgetStatusesZeroBudgetNeverExceeded(t *testing.T) {
	month := "2024-01"
	expenses := []Expense{
		exp("1", "Shopping", 7000, NewDate(2024, 1, 13), time.Now(), false),
	}

	statuses := BudgetStatuses([]string{"Shopping"}, nil, expenses, month)
	if len(statuses) != 1 {
		t.Fatalf("expected 1 status, got %d", len(statuses))
	}
	s := statuses[0]
	if s.BudgetAmount.Cents != 0 {
		t.Fatalf("expected zero budget, got %d", s.BudgetAmount.Cents)
	}
	if s.Spent.Cents != 7000 {
		t.Fatalf("expected spent 7000, got %d", s.Spent.Cents)
	}
	// Zero budget: percentage stays 0 and the budget is never exceeded, even
	// with nonzero spend.
	if s.PercentageUsed != 0 || s.IsExceeded {
		t.Fatalf("zero-budget policy violated: %+v", s)
	}
	if s.Remaining.Cents != -7000 {
		t.Fatalf("expected remaining -7000, got %d", s.Remaining.Cents)
	}
}

func TestBudgetStatusesFirstBudgetWinsOnDuplicate(t *testing.T) {
	month := "2024-01"
	budgets := []Budget{
		{ID: "b1", Category: "Bills", Amount: Money{Cents: 1000}, Month: month},
		{ID: "b2", Category: "Bills", Amount: Money{Cents: 9999}, Month: month},
	}
	statuses := BudgetStatuses([]string{"Bills"}, budgets, nil, month)
	if statuses[0].BudgetAmount.Cents != 1000 {
		t.Fatalf("expected first budget to win, got %d", statuses[0].BudgetAmount.Cents)
	}
}
