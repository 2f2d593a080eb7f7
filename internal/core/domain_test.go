package core

import (
	"errors"
	"testing"
)

func TestExpenseFormValidate(t *testing.T) {
	today := NewDate(2024, 1, 10)

	good := ExpenseForm{Amount: "12.50", Category: "Bills", Date: "2024-01-09"}
	if err := good.Validate(today); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Date defaults to today when omitted.
	if err := (ExpenseForm{Amount: "1", Category: "Bills"}).Validate(today); err != nil {
		t.Fatalf("expected ok without date, got %v", err)
	}

	cases := []struct {
		form ExpenseForm
		want error
	}{
		{ExpenseForm{Amount: "", Category: "Bills"}, ErrInvalidAmount},
		{ExpenseForm{Amount: "-1", Category: "Bills"}, ErrInvalidAmount},
		{ExpenseForm{Amount: "1", Category: "  "}, ErrEmptyCategory},
		{ExpenseForm{Amount: "1", Category: "Bills", Date: "not-a-date"}, ErrInvalidDate},
		{ExpenseForm{Amount: "1", Category: "Bills", Date: "2024-01-11"}, ErrFutureDate},
		{ExpenseForm{Amount: "1", Category: "Bills", PaymentMethod: "cheque"}, ErrInvalidPayment},
	}
	for i, tc := range cases {
		err := tc.form.Validate(today)
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestBudgetFormValidate(t *testing.T) {
	if err := (BudgetForm{Category: "Bills", Amount: "1000", Month: "2024-01"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (BudgetForm{Category: "Bills", Amount: "1000"}).Validate(); err != nil {
		t.Fatalf("expected ok without month, got %v", err)
	}
	if err := (BudgetForm{Category: "Bills", Amount: "1000", Month: "January"}).Validate(); !errors.Is(err, ErrInvalidMonthKey) {
		t.Fatalf("expected ErrInvalidMonthKey, got %v", err)
	}
	if err := (BudgetForm{Category: "", Amount: "1000"}).Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, p := range []PaymentMethod{PaymentUPI, PaymentCash, PaymentCreditCard} {
		if !p.Valid() {
			t.Fatalf("%q should be valid", p)
		}
	}
	if PaymentMethod("cheque").Valid() {
		t.Fatalf("cheque should be invalid")
	}
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-01-05" {
		t.Fatalf("round trip failed: %q", d.String())
	}
	if d.MonthKey() != "2024-01" {
		t.Fatalf("month key: %q", d.MonthKey())
	}
	if got := d.AddDays(-5).String(); got != "2023-12-31" {
		t.Fatalf("AddDays: %q", got)
	}
	if _, err := ParseMonthKey("2024-13"); err == nil {
		t.Fatalf("expected error for invalid month")
	}
}
