package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finboard/internal/api"
	"finboard/internal/core"
	"finboard/internal/viewmodel"
)

// goalRowView augments the goal view with amounts formatted in the
// display currency.
type goalRowView struct {
	viewmodel.GoalView
	Target       string
	Current      string
	RemainingFmt string
}

func newGoalRowView(gv viewmodel.GoalView, currency string) goalRowView {
	return goalRowView{
		GoalView:     gv,
		Target:       formatAmount(gv.TargetAmount, currency),
		Current:      formatAmount(gv.CurrentAmount, currency),
		RemainingFmt: formatAmount(gv.Remaining, currency),
	}
}

func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.ErrorContext(r.Context(), "Mutation failed", "operation", op, "error", err)
	title, message := api.UserMessage(err)
	NewHTMXResponse().
		Status(http.StatusBadGateway).
		TriggerErrorNotification(fmt.Sprintf("%s: %s", title, message)).
		Write(w)
}

// handleGoals creates (POST) or deletes (DELETE) a goal.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createGoal(w, r)
	case http.MethodDelete:
		s.deleteGoal(w, r)
	default:
		MethodNotAllowedError("POST, DELETE").Write(w)
	}
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	target, err := core.ParseAmount(r.Form.Get("target_amount"))
	if err != nil {
		UnprocessableEntityError("Invalid target amount").Write(w)
		return
	}

	goal := core.Goal{
		Title:        sanitizeInput(r.Form.Get("title")),
		Description:  sanitizeInput(r.Form.Get("description")),
		GoalType:     core.GoalType(sanitizeInput(r.Form.Get("goal_type"))),
		TargetAmount: target,
		TimeHorizon:  sanitizeInput(r.Form.Get("time_horizon")),
		Status:       core.GoalActive,
		Priority:     core.GoalPriority(sanitizeInput(r.Form.Get("priority"))),
	}
	if v := sanitizeInput(r.Form.Get("target_date")); v != "" {
		goal.TargetDate = parseDateValue(v)
	}
	if err := goal.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	created, cols, err := s.dashboard.AddGoal(r.Context(), goal)
	if err != nil {
		s.writeMutationError(w, r, "create goal", err)
		return
	}

	NewHTMXResponse().
		Trigger("goal:created", map[string]string{"id": created.ID}).
		TriggerCollectionsInvalidated(cols).
		TriggerFormReset().
		TriggerSuccessNotification("Goal created").
		Write(w)
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.URL.Query().Get("id"))
	if id == "" {
		BadRequestError("Missing goal id").Write(w)
		return
	}

	cols, err := s.dashboard.DeleteGoal(r.Context(), id)
	if err != nil {
		s.writeMutationError(w, r, "delete goal", err)
		return
	}

	NewHTMXResponse().
		Trigger("goal:deleted", map[string]string{"id": id}).
		TriggerCollectionsInvalidated(cols).
		TriggerSuccessNotification("Goal deleted").
		Write(w)
}

// handleGoalProgress updates a goal's current amount.
func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		BadRequestError("Missing goal id").Write(w)
		return
	}
	current, err := core.ParseAmount(r.Form.Get("current_amount"))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	cols, err := s.dashboard.UpdateGoalProgress(r.Context(), id, current)
	if err != nil {
		s.writeMutationError(w, r, "update goal progress", err)
		return
	}

	NewHTMXResponse().
		Trigger("goal:updated", map[string]string{"id": id}).
		TriggerCollectionsInvalidated(cols).
		TriggerSuccessNotification("Progress updated").
		Write(w)
}

// handleBudgets creates (POST) or deletes (DELETE) a budget.
func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBudget(w, r)
	case http.MethodDelete:
		s.deleteBudget(w, r)
	default:
		MethodNotAllowedError("POST, DELETE").Write(w)
	}
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	limit, err := core.ParseAmount(r.Form.Get("limit"))
	if err != nil {
		UnprocessableEntityError("Invalid limit").Write(w)
		return
	}

	budget := core.Budget{
		Category: sanitizeInput(r.Form.Get("category")),
		Limit:    limit,
	}
	if err := budget.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	cols, err := s.dashboard.AddBudget(r.Context(), budget)
	if err != nil {
		s.writeMutationError(w, r, "create budget", err)
		return
	}

	NewHTMXResponse().
		Trigger("budget:created", map[string]string{"category": budget.Category}).
		TriggerCollectionsInvalidated(cols).
		TriggerFormReset().
		TriggerSuccessNotification("Budget created").
		Write(w)
}

func (s *Server) deleteBudget(w http.ResponseWriter, r *http.Request) {
	category := sanitizeInput(r.URL.Query().Get("category"))
	if category == "" {
		BadRequestError("Missing budget category").Write(w)
		return
	}

	cols, err := s.dashboard.DeleteBudget(r.Context(), category)
	if err != nil {
		s.writeMutationError(w, r, "delete budget", err)
		return
	}

	NewHTMXResponse().
		Trigger("budget:deleted", map[string]string{"category": category}).
		TriggerCollectionsInvalidated(cols).
		TriggerSuccessNotification("Budget deleted").
		Write(w)
}

// handleGenerateInsights requests fresh AI insights from the backend.
func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	// Insight generation can be slow on the backend side
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	list, cols, err := s.dashboard.GenerateInsights(ctx)
	if err != nil {
		s.writeMutationError(w, r, "generate insights", err)
		return
	}

	NewHTMXResponse().
		Trigger("insights:generated", map[string]int{"count": len(list)}).
		TriggerCollectionsInvalidated(cols).
		TriggerSuccessNotification("Insights refreshed").
		Write(w)
}

// handleGoalsPartial renders the goals panel.
func (s *Server) handleGoalsPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	goals, err := s.dashboard.GetGoals(ctx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Goals load failed", "error", err)
		s.renderPartialError(w, r, err)
		return
	}

	data := struct {
		Goals    []goalRowView
		Currency string
	}{Currency: s.state.Preferences().Currency}
	for _, gv := range goalViews(goals) {
		data.Goals = append(data.Goals, newGoalRowView(gv, data.Currency))
	}

	if err := s.templates.ExecuteTemplate(w, "goals.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "goals.html")
		_, _ = w.Write([]byte(`<section id="goals"><div class="placeholder">Error rendering goals</div></section>`))
	}
}

// handleInsightsPartial renders cached insights, or an empty state
// prompting generation.
func (s *Server) handleInsightsPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	insights, ok := s.dashboard.GetInsights(r.Context())

	data := struct {
		Insights  []core.Insight
		Generated bool
	}{Insights: insights, Generated: ok}

	if err := s.templates.ExecuteTemplate(w, "insights.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "insights.html")
		_, _ = w.Write([]byte(`<section id="insights"><div class="placeholder">Error rendering insights</div></section>`))
	}
}
