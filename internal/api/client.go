// Package api is the client for the remote expense service. Every call is a
// JSON round trip wrapped in the service's {success, data, error} envelope;
// failures are returned to callers, never swallowed here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"onepocket/internal/core"
)

// Client talks to the remote expense service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token up front, e.g. from a restored session.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do runs one JSON round trip. out may be nil when the caller only cares
// about success.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env struct {
		envelope
		Data json.RawMessage `json:"data"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%s %s: status %d: decode envelope: %w", method, path, resp.StatusCode, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		if env.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, env.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

// Login implements AuthAPI.
func (c *Client) Login(ctx context.Context, username, password string) (core.User, string, error) {
	var payload authPayload
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &payload)
	if err != nil {
		return core.User{}, "", err
	}
	c.SetToken(payload.Token)
	return core.User{ID: payload.ID, Username: payload.Username}, payload.Token, nil
}

// Register implements AuthAPI.
func (c *Client) Register(ctx context.Context, username, password string) (core.User, string, error) {
	var payload authPayload
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"password": password,
	}, &payload)
	if err != nil {
		return core.User{}, "", err
	}
	c.SetToken(payload.Token)
	return core.User{ID: payload.ID, Username: payload.Username}, payload.Token, nil
}

// ListExpenses implements ExpenseAPI.
func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var wire []wireExpense
	if err := c.do(ctx, http.MethodGet, "/api/expenses", nil, &wire); err != nil {
		return nil, err
	}
	return expensesFromWire(wire), nil
}

// AddExpense implements ExpenseAPI. The server assigns the id and creation
// timestamp; the returned record is the confirmed one.
func (c *Client) AddExpense(ctx context.Context, form core.ExpenseForm) (core.Expense, error) {
	req, err := expenseRequestFrom(form, core.Today())
	if err != nil {
		return core.Expense{}, err
	}
	var wire wireExpense
	if err := c.do(ctx, http.MethodPost, "/api/expenses", req, &wire); err != nil {
		return core.Expense{}, err
	}
	return wire.toDomain(), nil
}

// DeleteExpense implements ExpenseAPI.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/expenses/"+url.PathEscape(id), nil, nil)
}

// ReimburseExpense implements ExpenseAPI.
func (c *Client) ReimburseExpense(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/expenses/"+url.PathEscape(id)+"/reimburse", nil, nil)
}

// SearchExpenses implements ExpenseAPI.
func (c *Client) SearchExpenses(ctx context.Context, query string) ([]core.Expense, error) {
	var wire []wireExpense
	path := "/api/expenses/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}
	return expensesFromWire(wire), nil
}

// ListCategories implements CategoryAPI.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var wire []wireCategory
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.Category, len(wire))
	for i, w := range wire {
		out[i] = w.toDomain()
	}
	return out, nil
}

// CreateCategory implements CategoryAPI.
func (c *Client) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	var wire wireCategory
	err := c.do(ctx, http.MethodPost, "/api/categories", map[string]string{"name": name}, &wire)
	if err != nil {
		return core.Category{}, err
	}
	return wire.toDomain(), nil
}

// DeleteCategory implements CategoryAPI.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

// ListBudgets implements BudgetAPI.
func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var wire []wireBudget
	if err := c.do(ctx, http.MethodGet, "/api/budgets", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.Budget, len(wire))
	for i, w := range wire {
		out[i] = w.toDomain()
	}
	return out, nil
}

// CreateBudget implements BudgetAPI.
func (c *Client) CreateBudget(ctx context.Context, form core.BudgetForm) (core.Budget, error) {
	req, err := budgetRequestFrom(form, core.Today())
	if err != nil {
		return core.Budget{}, err
	}
	var wire wireBudget
	if err := c.do(ctx, http.MethodPost, "/api/budgets", req, &wire); err != nil {
		return core.Budget{}, err
	}
	return wire.toDomain(), nil
}

// UpdateBudget implements BudgetAPI.
func (c *Client) UpdateBudget(ctx context.Context, id string, form core.BudgetForm) (core.Budget, error) {
	req, err := budgetRequestFrom(form, core.Today())
	if err != nil {
		return core.Budget{}, err
	}
	var wire wireBudget
	if err := c.do(ctx, http.MethodPut, "/api/budgets/"+url.PathEscape(id), req, &wire); err != nil {
		return core.Budget{}, err
	}
	return wire.toDomain(), nil
}

// DeleteBudget implements BudgetAPI.
func (c *Client) DeleteBudget(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/budgets/"+url.PathEscape(id), nil, nil)
}

// MonthlySummary implements ReportAPI.
func (c *Client) MonthlySummary(ctx context.Context, month string) (core.MonthlySummary, error) {
	var wire wireMonthlySummary
	path := "/api/reports/monthly/" + url.PathEscape(month)
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return core.MonthlySummary{}, err
	}
	return wire.toDomain(), nil
}

// MonthlyComparison implements ReportAPI.
func (c *Client) MonthlyComparison(ctx context.Context, months int) ([]core.MonthlySummary, error) {
	var wire []wireMonthlySummary
	path := fmt.Sprintf("/api/reports/comparison?months=%d", months)
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]core.MonthlySummary, len(wire))
	for i, w := range wire {
		out[i] = w.toDomain()
	}
	return out, nil
}

// AvailableMonths implements ReportAPI.
func (c *Client) AvailableMonths(ctx context.Context) ([]string, error) {
	var months []string
	if err := c.do(ctx, http.MethodGet, "/api/reports/months", nil, &months); err != nil {
		return nil, err
	}
	return months, nil
}

func expensesFromWire(wire []wireExpense) []core.Expense {
	out := make([]core.Expense, len(wire))
	for i, w := range wire {
		out[i] = w.toDomain()
	}
	return out
}

var (
	_ AuthAPI     = (*Client)(nil)
	_ ExpenseAPI  = (*Client)(nil)
	_ CategoryAPI = (*Client)(nil)
	_ BudgetAPI   = (*Client)(nil)
	_ ReportAPI   = (*Client)(nil)
)
