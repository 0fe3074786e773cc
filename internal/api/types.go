package api

import (
	"time"

	"finboard/internal/core"
)

// Wire types for the backend REST API. The backend owns the format;
// these mirror the shapes the dashboard depends on.

type transactionPayload struct {
	ID               string             `json:"id,omitempty"`
	Date             string             `json:"date"`
	Description      string             `json:"description"`
	Merchant         string             `json:"merchant,omitempty"`
	Category         string             `json:"category"`
	Type             string             `json:"type"`
	Amount           float64            `json:"amount"`
	Currency         string             `json:"currency,omitempty"`
	ConvertedAmounts map[string]float64 `json:"converted_amounts,omitempty"`
}

type categoryPayload struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	IsDefault   bool   `json:"is_default"`
}

type budgetPayload struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
	Spent    float64 `json:"spent"`
}

type goalPayload struct {
	ID            string  `json:"id,omitempty"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	GoalType      string  `json:"goal_type"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	TargetDate    string  `json:"target_date,omitempty"`
	TimeHorizon   string  `json:"time_horizon,omitempty"`
	Status        string  `json:"status,omitempty"`
	Priority      string  `json:"priority,omitempty"`
}

type insightPayload struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Actionable string `json:"actionable,omitempty"`
}

type preferencesPayload struct {
	Currency string `json:"currency"`
	Language string `json:"language"`
}

type ratesPayload struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Report is the backend-generated financial report, rendered as-is.
type Report struct {
	Period    string   `json:"period"`
	Summary   string   `json:"summary"`
	Sections  []string `json:"sections,omitempty"`
	Generated string   `json:"generated_at,omitempty"`
}

const dateLayout = "2006-01-02"

func toTransaction(p transactionPayload) core.Transaction {
	date, _ := time.Parse(dateLayout, p.Date)
	return core.Transaction{
		ID:               p.ID,
		Date:             date,
		Description:      p.Description,
		Merchant:         p.Merchant,
		Category:         p.Category,
		Type:             core.TransactionType(p.Type),
		Amount:           p.Amount,
		Currency:         p.Currency,
		ConvertedAmounts: p.ConvertedAmounts,
	}
}

func fromTransaction(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:               t.ID,
		Date:             t.Date.Format(dateLayout),
		Description:      t.Description,
		Merchant:         t.Merchant,
		Category:         t.Category,
		Type:             string(t.Type),
		Amount:           t.Amount,
		Currency:         t.Currency,
		ConvertedAmounts: t.ConvertedAmounts,
	}
}

func toCategory(p categoryPayload) core.Category {
	return core.Category{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		Icon:        p.Icon,
		IsDefault:   p.IsDefault,
	}
}

func fromCategory(c core.Category) categoryPayload {
	return categoryPayload{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		IsDefault:   c.IsDefault,
	}
}

func toGoal(p goalPayload) core.Goal {
	target, _ := time.Parse(dateLayout, p.TargetDate)
	return core.Goal{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		GoalType:      core.GoalType(p.GoalType),
		TargetAmount:  p.TargetAmount,
		CurrentAmount: p.CurrentAmount,
		TargetDate:    target,
		TimeHorizon:   p.TimeHorizon,
		Status:        core.GoalStatus(p.Status),
		Priority:      core.GoalPriority(p.Priority),
	}
}

func fromGoal(g core.Goal) goalPayload {
	p := goalPayload{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		GoalType:      string(g.GoalType),
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		TimeHorizon:   g.TimeHorizon,
		Status:        string(g.Status),
		Priority:      string(g.Priority),
	}
	if !g.TargetDate.IsZero() {
		p.TargetDate = g.TargetDate.Format(dateLayout)
	}
	return p
}
