package api

import (
	"math"
	"time"

	"onepocket/internal/core"
)

// Wire representations. The server speaks decimal amounts; cents are a client
// concern, converted at this boundary only.

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type authPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type wireExpense struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"` // category label; legacy field name
	Date          string  `json:"date"`
	CreatedAt     string  `json:"createdAt"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Note          string  `json:"note,omitempty"`
	Reimbursable  bool    `json:"reimbursable,omitempty"`
	Reimbursed    bool    `json:"reimbursed,omitempty"`
}

type wireCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type wireBudget struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Month     string  `json:"month"`
	UserID    string  `json:"userId"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type wireCategorySpending struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type wireBudgetComparison struct {
	Category       string  `json:"category"`
	BudgetAmount   float64 `json:"budgetAmount"`
	ActualSpent    float64 `json:"actualSpent"`
	Difference     float64 `json:"difference"`
	PercentageUsed float64 `json:"percentageUsed"`
}

type wireMonthlySummary struct {
	Month             string                 `json:"month"`
	TotalSpent        float64                `json:"totalSpent"`
	TotalReimbursable float64                `json:"totalReimbursable,omitempty"`
	CategoryBreakdown []wireCategorySpending `json:"categoryBreakdown"`
	BudgetComparisons []wireBudgetComparison `json:"budgetComparisons"`
}

type expenseRequest struct {
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
	Date          string  `json:"date"`
	PaymentMethod string  `json:"paymentMethod"`
	Note          string  `json:"note,omitempty"`
	Reimbursable  bool    `json:"reimbursable,omitempty"`
}

type budgetRequest struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Month    string  `json:"month"`
}

func centsFromUnits(v float64) core.Money {
	return core.Money{Cents: int64(math.Round(v * 100))}
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func (w wireExpense) toDomain() core.Expense {
	date, _ := core.ParseDate(w.Date)
	method := core.PaymentMethod(w.PaymentMethod)
	if method == "" {
		method = core.PaymentUPI
	}
	return core.Expense{
		ID:            w.ID,
		Amount:        centsFromUnits(w.Amount),
		Category:      w.Reason,
		Date:          date,
		CreatedAt:     parseTimestamp(w.CreatedAt),
		PaymentMethod: method,
		Note:          w.Note,
		Reimbursable:  w.Reimbursable,
		Reimbursed:    w.Reimbursed,
	}
}

func (w wireCategory) toDomain() core.Category {
	return core.Category{
		ID:        w.ID,
		Name:      w.Name,
		UserID:    w.UserID,
		CreatedAt: parseTimestamp(w.CreatedAt),
		UpdatedAt: parseTimestamp(w.UpdatedAt),
	}
}

func (w wireBudget) toDomain() core.Budget {
	return core.Budget{
		ID:        w.ID,
		Category:  w.Category,
		Amount:    centsFromUnits(w.Amount),
		Month:     w.Month,
		UserID:    w.UserID,
		CreatedAt: parseTimestamp(w.CreatedAt),
		UpdatedAt: parseTimestamp(w.UpdatedAt),
	}
}

func (w wireMonthlySummary) toDomain() core.MonthlySummary {
	s := core.MonthlySummary{
		Month:             w.Month,
		TotalSpent:        centsFromUnits(w.TotalSpent),
		TotalReimbursable: centsFromUnits(w.TotalReimbursable),
	}
	for _, cb := range w.CategoryBreakdown {
		s.CategoryBreakdown = append(s.CategoryBreakdown, core.CategorySpending{
			Category:   cb.Category,
			Amount:     centsFromUnits(cb.Amount),
			Percentage: cb.Percentage,
		})
	}
	for _, bc := range w.BudgetComparisons {
		s.BudgetComparisons = append(s.BudgetComparisons, core.BudgetComparison{
			Category:       bc.Category,
			BudgetAmount:   centsFromUnits(bc.BudgetAmount),
			ActualSpent:    centsFromUnits(bc.ActualSpent),
			Difference:     centsFromUnits(bc.Difference),
			PercentageUsed: bc.PercentageUsed,
		})
	}
	return s
}

func expenseRequestFrom(form core.ExpenseForm, today core.Date) (expenseRequest, error) {
	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		return expenseRequest{}, err
	}
	date := form.Date
	if date == "" {
		date = today.String()
	}
	method := form.PaymentMethod
	if method == "" {
		method = core.PaymentUPI
	}
	return expenseRequest{
		Amount:        core.Money{Cents: cents}.Units(),
		Reason:        form.Category,
		Date:          date,
		PaymentMethod: string(method),
		Note:          form.Note,
		Reimbursable:  form.Reimbursable,
	}, nil
}

func budgetRequestFrom(form core.BudgetForm, today core.Date) (budgetRequest, error) {
	cents, err := core.ParseDecimalToCents(form.Amount)
	if err != nil {
		return budgetRequest{}, err
	}
	month := form.Month
	if month == "" {
		month = today.MonthKey()
	}
	return budgetRequest{
		Category: form.Category,
		Amount:   core.Money{Cents: cents}.Units(),
		Month:    month,
	}, nil
}
