package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PaymentUPI        PaymentMethod = "upi"
	PaymentCash       PaymentMethod = "cash"
	PaymentCreditCard PaymentMethod = "credit_card"
)

// DefaultCategories is the seed list applied when a user has no categories yet.
var DefaultCategories = []string{
	"Household",
	"Transportation",
	"Shopping",
	"Travel",
	"Food/Drinks",
	"Luxury",
	"Miscellaneous",
	"Bills",
	"Investment",
	"For someone",
	"EMI",
}

type (
	PaymentMethod string

	// Expense is a confirmed expense record as returned by the remote API.
	Expense struct {
		ID            string
		Amount        Money
		Category      string
		Date          Date
		CreatedAt     time.Time // server-assigned, orders items within a day
		PaymentMethod PaymentMethod
		Note          string
		Reimbursable  bool
		Reimbursed    bool
	}

	// ExpenseForm is the user-entered data for a new expense. Amount is kept
	// as the raw input string until submission so offline-queued forms
	// round-trip through JSON unchanged.
	ExpenseForm struct {
		Amount        string        `json:"amount"`
		Category      string        `json:"category"`
		Date          string        `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
		PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
		Note          string        `json:"note,omitempty"`
		Reimbursable  bool          `json:"reimbursable,omitempty"`
	}

	Category struct {
		ID        string
		Name      string
		UserID    string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Budget struct {
		ID        string
		Category  string
		Amount    Money
		Month     string // YYYY-MM
		UserID    string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	BudgetForm struct {
		Category string `json:"category"`
		Amount   string `json:"amount"`
		Month    string `json:"month,omitempty"` // defaults to current month
	}

	User struct {
		ID       string
		Username string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrFutureDate      = errors.New("date is in the future")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidPayment  = errors.New("invalid payment method")
	ErrInvalidMonthKey = errors.New("invalid month key")
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentUPI, PaymentCash, PaymentCreditCard:
		return true
	}
	return false
}

// Validate checks an expense form before submission. today bounds the date;
// the client never submits a future date even though the server would accept
// one.
func (f ExpenseForm) Validate(today Date) error {
	if _, err := ParseDecimalToCents(f.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(f.Category) == "" {
		return ErrEmptyCategory
	}
	if f.Date != "" {
		d, err := ParseDate(f.Date)
		if err != nil {
			return ErrInvalidDate
		}
		if d.After(today) {
			return ErrFutureDate
		}
	}
	if f.PaymentMethod != "" && !f.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	if len(f.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (f BudgetForm) Validate() error {
	if _, err := ParseDecimalToCents(f.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(f.Category) == "" {
		return ErrEmptyCategory
	}
	if f.Month != "" {
		if _, err := ParseMonthKey(f.Month); err != nil {
			return ErrInvalidMonthKey
		}
	}
	return nil
}
