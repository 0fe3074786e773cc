package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

const (
	GoalSpending GoalType = "spending"
	GoalSaving   GoalType = "saving"
	GoalDebt     GoalType = "debt"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

type (
	TransactionType string
	GoalType        string
	GoalStatus      string
	GoalPriority    string

	// Transaction is a single income or expense record. Amount is always
	// non-negative in the original Currency; sign semantics come from Type.
	// ConvertedAmounts carries backend pre-computed amounts per currency
	// and, when present for a target currency, is used verbatim.
	Transaction struct {
		ID               string
		Date             time.Time
		Description      string
		Merchant         string
		Category         string
		Type             TransactionType
		Amount           float64
		Currency         string
		ConvertedAmounts map[string]float64
	}

	// Category is keyed by Name. Default categories are system-seeded and
	// immutable from the UI.
	Category struct {
		ID          string
		Name        string
		Description string
		Color       string
		Icon        string
		IsDefault   bool
	}

	// Budget holds a spending cap and running total for one category.
	Budget struct {
		Category string
		Limit    float64
		Spent    float64
	}

	Goal struct {
		ID            string
		Title         string
		Description   string
		GoalType      GoalType
		TargetAmount  float64
		CurrentAmount float64
		TargetDate    time.Time
		TimeHorizon   string
		Status        GoalStatus
		Priority      GoalPriority
	}

	// Insight is an opaque server-generated observation; rendered, never
	// computed locally.
	Insight struct {
		Type       string
		Title      string
		Message    string
		Actionable string
	}

	// Preferences holds user display settings.
	Preferences struct {
		Currency string
		Language string
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidGoalType    = errors.New("invalid goal type")
	ErrInvalidGoalStatus  = errors.New("invalid goal status")
	ErrDefaultImmutable   = errors.New("default category is immutable")
	ErrEmptyCategoryName  = errors.New("empty category name")
	ErrInvalidBudgetLimit = errors.New("budget limit must be positive")
)

func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

func (g GoalType) Valid() bool {
	return g == GoalSpending || g == GoalSaving || g == GoalDebt
}

func (s GoalStatus) Valid() bool {
	return s == GoalActive || s == GoalCompleted || s == GoalPaused
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Limit <= 0 {
		return ErrInvalidBudgetLimit
	}
	return nil
}

// PercentUsed returns spent/limit*100 uncapped; over-budget rendering
// decides separately how to display values past 100.
func (b Budget) PercentUsed() float64 {
	if b.Limit == 0 {
		return 0
	}
	return b.Spent / b.Limit * 100
}

// Over reports whether the budget is exceeded. Strict comparison: a
// budget spent exactly to its limit is still under.
func (b Budget) Over() bool {
	return b.Spent > b.Limit
}

// BarWidth returns the percent used capped at 100 for progress-bar
// rendering.
func (b Budget) BarWidth() float64 {
	p := b.PercentUsed()
	if p > 100 {
		return 100
	}
	return p
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return errors.New("empty goal title")
	}
	if !g.GoalType.Valid() {
		return ErrInvalidGoalType
	}
	if g.Status != "" && !g.Status.Valid() {
		return ErrInvalidGoalStatus
	}
	if g.TargetAmount <= 0 {
		return errors.New("goal target must be positive")
	}
	return nil
}

// Remaining returns target minus current, negative when the goal is
// overshot. Display uses the raw value.
func (g Goal) Remaining() float64 {
	return g.TargetAmount - g.CurrentAmount
}

// ProgressPercent is clamped to [0,100] for the progress bar even when
// current exceeds target.
func (g Goal) ProgressPercent() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := g.CurrentAmount / g.TargetAmount * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// OverTarget drives a distinct visual state independent of the clamped
// percentage.
func (g Goal) OverTarget() bool {
	return g.CurrentAmount > g.TargetAmount
}
