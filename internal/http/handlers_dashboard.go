package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finboard/internal/api"
	"finboard/internal/core"
	"finboard/internal/state"
	"finboard/internal/viewmodel"
)

// breakdownLimit caps the category rows shown on the dashboard; the
// remainder is folded into an "Other" row.
const breakdownLimit = 8

type summaryView struct {
	TotalIncome   string
	TotalExpenses string
	NetAmount     string
	NetNegative   bool
	Currency      string
}

type breakdownRow struct {
	Name       string
	Icon       string
	Color      string
	Amount     string
	Percentage float64
	Width      int
}

type budgetRow struct {
	Category    string
	Limit       string
	Spent       string
	PercentUsed float64
	BarWidth    float64
	Over        bool
}

type dashboardData struct {
	Summary       summaryView
	Breakdown     []breakdownRow
	BudgetsUnder  []budgetRow
	BudgetsOver   []budgetRow
	Goals         []viewmodel.GoalView
	Filter        core.Filter
	PendingSearch string
	HasFilters    bool
	Currency      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	// Initial bulk load; any collection failing fails the whole page.
	data, err := s.dashboard.Load(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Initial dashboard load failed", "error", err)
		title, message := api.UserMessage(err)
		w.WriteHeader(http.StatusBadGateway)
		if terr := s.templates.ExecuteTemplate(w, "error.html", struct {
			Title   string
			Message string
		}{title, message}); terr != nil {
			slog.ErrorContext(r.Context(), "Error template execution failed", "error", terr)
		}
		return
	}

	page := struct {
		Dashboard  dashboardData
		Categories []viewmodel.CategoryView
		Expenses   []expenseRow
		HasFilters bool
	}{
		Dashboard:  s.buildDashboard(r.Context(), data.Expenses, data.Budgets, data.Goals),
		Categories: categoryViews(data.Categories),
		Expenses:   s.expenseRows(r.Context(), data.Expenses),
		HasFilters: s.state.HasActiveFilters(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleDashboardPartial renders the summary, breakdown, and budget
// panels for the committed filter.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	filter := s.state.Filter()
	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	expenses, err := s.dashboard.GetExpenses(ctx, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard expenses load failed", "error", err)
		s.renderPartialError(w, r, err)
		return
	}
	budgets, err := s.dashboard.GetBudgets(ctx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard budgets load failed", "error", err)
		s.renderPartialError(w, r, err)
		return
	}
	goals, err := s.dashboard.GetGoals(ctx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard goals load failed", "error", err)
		s.renderPartialError(w, r, err)
		return
	}

	data := s.buildDashboard(r.Context(), expenses, budgets, goals)
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard.html")
		_, _ = w.Write([]byte(`<section id="dashboard"><div class="placeholder">Error rendering dashboard</div></section>`))
	}
}

func (s *Server) buildDashboard(ctx context.Context, expenses []core.Transaction, budgets []core.Budget, goals []core.Goal) dashboardData {
	prefs := s.state.Preferences()
	currency := prefs.Currency
	rates := s.loadRates(ctx)

	summary := core.Summarize(expenses, currency, rates)
	breakdown := core.BreakdownByCategory(expenses, currency, rates)
	adherence := core.PartitionBudgets(budgets)
	filter := s.state.Filter()

	data := dashboardData{
		Summary: summaryView{
			TotalIncome:   formatAmount(summary.TotalIncome, currency),
			TotalExpenses: formatAmount(summary.TotalExpenses, currency),
			NetAmount:     formatAmount(summary.NetAmount, currency),
			NetNegative:   summary.NetAmount < 0,
			Currency:      currency,
		},
		Goals:         goalViews(goals),
		Filter:        filter,
		PendingSearch: s.state.PendingSearch(),
		HasFilters:    filter.HasActive(),
		Currency:      currency,
	}

	data.Breakdown = breakdownRows(breakdown, currency)

	for _, b := range adherence.Under {
		data.BudgetsUnder = append(data.BudgetsUnder, newBudgetRow(b, currency))
	}
	for _, b := range adherence.Over {
		data.BudgetsOver = append(data.BudgetsOver, newBudgetRow(b, currency))
	}

	return data
}

// breakdownRows maps category sums into display rows, keeping the first
// breakdownLimit categories and folding the tail into "Other".
func breakdownRows(breakdown []core.CategoryAmount, currency string) []breakdownRow {
	var maxAmount float64
	for _, ca := range breakdown {
		if ca.Amount > maxAmount {
			maxAmount = ca.Amount
		}
	}

	width := func(amount float64) int {
		if maxAmount <= 0 || amount <= 0 {
			return 0
		}
		w := int(amount/maxAmount*100 + 0.5)
		if w > 0 && w < 2 {
			w = 2
		}
		if w > 100 {
			w = 100
		}
		return w
	}

	var rows []breakdownRow
	var otherAmount, otherPct float64
	for i, ca := range breakdown {
		if i < breakdownLimit {
			rows = append(rows, breakdownRow{
				Name:       ca.Name,
				Icon:       viewmodel.CategoryIcon(ca.Name),
				Color:      viewmodel.CategoryColor(ca.Name),
				Amount:     formatAmount(ca.Amount, currency),
				Percentage: ca.Percentage,
				Width:      width(ca.Amount),
			})
			continue
		}
		otherAmount += ca.Amount
		otherPct += ca.Percentage
	}
	if otherAmount > 0 {
		rows = append(rows, breakdownRow{
			Name:       "Other",
			Icon:       viewmodel.FallbackIcon,
			Color:      viewmodel.FallbackColor,
			Amount:     formatAmount(otherAmount, currency),
			Percentage: otherPct,
			Width:      width(otherAmount),
		})
	}
	return rows
}

func newBudgetRow(b core.Budget, currency string) budgetRow {
	return budgetRow{
		Category:    b.Category,
		Limit:       formatAmount(b.Limit, currency),
		Spent:       formatAmount(b.Spent, currency),
		PercentUsed: b.PercentUsed(),
		BarWidth:    b.BarWidth(),
		Over:        b.Over(),
	}
}

func goalViews(goals []core.Goal) []viewmodel.GoalView {
	out := make([]viewmodel.GoalView, len(goals))
	for i, g := range goals {
		out[i] = viewmodel.NewGoalView(g)
	}
	return out
}

func categoryViews(cats []core.Category) []viewmodel.CategoryView {
	out := make([]viewmodel.CategoryView, len(cats))
	for i, c := range cats {
		out[i] = viewmodel.NewCategoryView(c)
	}
	return out
}

// loadRates fetches conversion rates, falling back to empty rates so a
// rate outage degrades amounts to their original currency.
func (s *Server) loadRates(ctx context.Context) core.Rates {
	rates, err := s.dashboard.GetRates(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Rates unavailable, amounts stay unconverted", "error", err)
		return core.Rates{}
	}
	return rates
}

func (s *Server) renderPartialError(w http.ResponseWriter, r *http.Request, err error) {
	title, message := api.UserMessage(err)
	NewHTMXResponse().
		Status(http.StatusOK).
		TriggerErrorNotification(fmt.Sprintf("%s: %s", title, message)).
		BodyHTML(`<section id="dashboard"><div class="placeholder">` + title + `</div></section>`).
		Write(w)
}

// handleFilters sets (POST) or clears (DELETE) one filter field.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodPost, http.MethodDelete); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("field"))
	field, ok := filterField(name)
	if !ok {
		BadRequestError("Unknown filter field").Write(w)
		return
	}

	if r.Method == http.MethodDelete {
		s.state.Dispatch(state.ClearFilter{Field: field})
	} else {
		s.state.Dispatch(state.SetFilter{Field: field, Value: sanitizeInput(r.Form.Get("value"))})
	}

	NewHTMXResponse().
		TriggerFilterChanged().
		Write(w)
}

// handleClearFilters resets the whole filter set, including any pending
// debounced search input.
func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	s.state.Dispatch(state.ClearFilters{})

	NewHTMXResponse().
		TriggerFilterChanged().
		TriggerFormReset().
		Write(w)
}

// handleSearch records a search keystroke. The filter commits only
// after the debounce window passes with no further input.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	s.state.SearchInput(sanitizeInput(r.Form.Get("search")))
	w.WriteHeader(http.StatusNoContent)
}

// handlePreferences updates display currency and language.
func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	prefs := s.state.Preferences()
	if v := sanitizeInput(r.Form.Get("currency")); v != "" {
		prefs.Currency = v
	}
	if v := sanitizeInput(r.Form.Get("language")); v != "" {
		prefs.Language = v
	}

	cols, err := s.dashboard.UpdatePreferences(r.Context(), prefs)
	if err != nil {
		slog.ErrorContext(r.Context(), "Preferences update failed", "error", err)
		title, message := api.UserMessage(err)
		NewHTMXResponse().
			Status(http.StatusBadGateway).
			TriggerErrorNotification(fmt.Sprintf("%s: %s", title, message)).
			Write(w)
		return
	}

	s.state.Dispatch(state.SetCurrency{Currency: prefs.Currency})
	s.state.Dispatch(state.SetLanguage{Language: prefs.Language})

	NewHTMXResponse().
		TriggerCollectionsInvalidated(cols).
		TriggerSuccessNotification("Preferences saved").
		Write(w)
}
