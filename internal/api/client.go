// Package api is the client for the remote finance REST API. The
// backend owns all entities; this client shapes requests and responses
// and maps failures to user-facing notifications.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finboard/internal/core"
)

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// NewClient creates a client for the given base URL. The timeout
// bounds every call; callers pass context for earlier cancellation.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.WarnContext(ctx, "Backend call failed",
			"operation", op,
			"status", resp.StatusCode,
			"method", method,
			"path", path)
		return &APIError{StatusCode: resp.StatusCode, Operation: op, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// --- Expenses ---

// ListExpenses returns transactions matching the filter. The filter's
// active fields become query parameters; unset fields are omitted.
func (c *Client) ListExpenses(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	var payload []transactionPayload
	if err := c.do(ctx, "list expenses", http.MethodGet, "/expenses", f.QueryValues(), nil, &payload); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(payload))
	for i, p := range payload {
		out[i] = toTransaction(p)
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var created transactionPayload
	if err := c.do(ctx, "create expense", http.MethodPost, "/expenses", nil, fromTransaction(t), &created); err != nil {
		return core.Transaction{}, err
	}
	return toTransaction(created), nil
}

// CreateExpensesBulk creates many expenses in one call. Validation
// happens before any network traffic: a malformed record rejects the
// whole payload.
func (c *Client) CreateExpensesBulk(ctx context.Context, list []core.Transaction) ([]core.Transaction, error) {
	if len(list) == 0 {
		return nil, nil
	}
	for i, t := range list {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("bulk expense %d: %w", i, err)
		}
	}
	payload := make([]transactionPayload, len(list))
	for i, t := range list {
		payload[i] = fromTransaction(t)
	}
	var created []transactionPayload
	if err := c.do(ctx, "bulk create expenses", http.MethodPost, "/expenses/bulk", nil, payload, &created); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(created))
	for i, p := range created {
		out[i] = toTransaction(p)
	}
	return out, nil
}

func (c *Client) UpdateExpense(ctx context.Context, t core.Transaction) error {
	return c.do(ctx, "update expense", http.MethodPut, "/expenses/"+url.PathEscape(t.ID), nil, fromTransaction(t), nil)
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.do(ctx, "delete expense", http.MethodDelete, "/expenses/"+url.PathEscape(id), nil, nil, nil)
}

// --- Budgets ---

func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var payload []budgetPayload
	if err := c.do(ctx, "list budgets", http.MethodGet, "/budgets", nil, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]core.Budget, len(payload))
	for i, p := range payload {
		out[i] = core.Budget{Category: p.Category, Limit: p.Limit, Spent: p.Spent}
	}
	return out, nil
}

func (c *Client) CreateBudget(ctx context.Context, b core.Budget) error {
	return c.do(ctx, "create budget", http.MethodPost, "/budgets", nil,
		budgetPayload{Category: b.Category, Limit: b.Limit, Spent: b.Spent}, nil)
}

// UpdateBudgetSpent adds an amount to a category's running total.
func (c *Client) UpdateBudgetSpent(ctx context.Context, category string, amount float64) error {
	body := map[string]any{"amount": amount}
	return c.do(ctx, "update budget spent", http.MethodPatch,
		"/budgets/"+url.PathEscape(category)+"/spent", nil, body, nil)
}

func (c *Client) DeleteBudget(ctx context.Context, category string) error {
	return c.do(ctx, "delete budget", http.MethodDelete, "/budgets/"+url.PathEscape(category), nil, nil, nil)
}

// --- Categories ---

// ListCategories returns categories, optionally including the
// system-seeded defaults.
func (c *Client) ListCategories(ctx context.Context, includeDefaults bool) ([]core.Category, error) {
	query := url.Values{}
	if includeDefaults {
		query.Set("include_defaults", "true")
	}
	var payload []categoryPayload
	if err := c.do(ctx, "list categories", http.MethodGet, "/categories", query, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]core.Category, len(payload))
	for i, p := range payload {
		out[i] = toCategory(p)
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	var created categoryPayload
	if err := c.do(ctx, "create category", http.MethodPost, "/categories", nil, fromCategory(cat), &created); err != nil {
		return core.Category{}, err
	}
	return toCategory(created), nil
}

func (c *Client) UpdateCategory(ctx context.Context, cat core.Category) error {
	if cat.IsDefault {
		return core.ErrDefaultImmutable
	}
	return c.do(ctx, "update category", http.MethodPut, "/categories/"+url.PathEscape(cat.ID), nil, fromCategory(cat), nil)
}

func (c *Client) DeleteCategory(ctx context.Context, cat core.Category) error {
	if cat.IsDefault {
		return core.ErrDefaultImmutable
	}
	return c.do(ctx, "delete category", http.MethodDelete, "/categories/"+url.PathEscape(cat.ID), nil, nil, nil)
}

// --- Goals ---

func (c *Client) ListGoals(ctx context.Context) ([]core.Goal, error) {
	var payload []goalPayload
	if err := c.do(ctx, "list goals", http.MethodGet, "/goals", nil, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]core.Goal, len(payload))
	for i, p := range payload {
		out[i] = toGoal(p)
	}
	return out, nil
}

func (c *Client) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	var created goalPayload
	if err := c.do(ctx, "create goal", http.MethodPost, "/goals", nil, fromGoal(g), &created); err != nil {
		return core.Goal{}, err
	}
	return toGoal(created), nil
}

func (c *Client) UpdateGoal(ctx context.Context, g core.Goal) error {
	return c.do(ctx, "update goal", http.MethodPut, "/goals/"+url.PathEscape(g.ID), nil, fromGoal(g), nil)
}

// UpdateGoalProgress sets a goal's current amount.
func (c *Client) UpdateGoalProgress(ctx context.Context, id string, current float64) error {
	body := map[string]any{"current_amount": current}
	return c.do(ctx, "update goal progress", http.MethodPatch, "/goals/"+url.PathEscape(id)+"/progress", nil, body, nil)
}

func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, "delete goal", http.MethodDelete, "/goals/"+url.PathEscape(id), nil, nil, nil)
}

// --- Insights, report, preferences, rates ---

// GenerateInsights asks the backend for fresh AI observations. One
// shot; the result is rendered opaquely.
func (c *Client) GenerateInsights(ctx context.Context) ([]core.Insight, error) {
	var payload []insightPayload
	if err := c.do(ctx, "generate insights", http.MethodPost, "/insights/generate", nil, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]core.Insight, len(payload))
	for i, p := range payload {
		out[i] = core.Insight{Type: p.Type, Title: p.Title, Message: p.Message, Actionable: p.Actionable}
	}
	return out, nil
}

func (c *Client) GenerateReport(ctx context.Context, year, month int) (Report, error) {
	query := url.Values{}
	query.Set("year", fmt.Sprintf("%d", year))
	query.Set("month", fmt.Sprintf("%d", month))
	var report Report
	if err := c.do(ctx, "generate report", http.MethodGet, "/reports/financial", query, nil, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}

func (c *Client) GetPreferences(ctx context.Context) (core.Preferences, error) {
	var p preferencesPayload
	if err := c.do(ctx, "get preferences", http.MethodGet, "/preferences", nil, nil, &p); err != nil {
		return core.Preferences{}, err
	}
	return core.Preferences{Currency: p.Currency, Language: p.Language}, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, p core.Preferences) error {
	return c.do(ctx, "update preferences", http.MethodPut, "/preferences", nil,
		preferencesPayload{Currency: p.Currency, Language: p.Language}, nil)
}

func (c *Client) GetRates(ctx context.Context) (core.Rates, error) {
	var p ratesPayload
	if err := c.do(ctx, "get rates", http.MethodGet, "/rates", nil, nil, &p); err != nil {
		return core.Rates{}, err
	}
	return core.Rates{Base: p.Base, Rates: p.Rates}, nil
}

// ExtractExpense uploads a document to the backend extraction endpoint
// and returns the best-effort structured expense.
func (c *Client) ExtractExpense(ctx context.Context, filename, mimeType string, data []byte) (core.Transaction, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("extract expense: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return core.Transaction{}, fmt.Errorf("extract expense: write file: %w", err)
	}
	if err := mw.WriteField("mime_type", mimeType); err != nil {
		return core.Transaction{}, fmt.Errorf("extract expense: write field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return core.Transaction{}, fmt.Errorf("extract expense: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/expenses/extract", &buf)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("extract expense: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("extract expense: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return core.Transaction{}, &APIError{StatusCode: resp.StatusCode, Operation: "extract expense", Body: string(raw)}
	}

	var payload transactionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.Transaction{}, fmt.Errorf("extract expense: decode response: %w", err)
	}
	return toTransaction(payload), nil
}
