// Package viewmodel shapes domain entities for display: icon and color
// lookups keyed by user-extensible strings, and goal status/priority
// tables. Every lookup has a defined fallback because category keys
// come from users, not from a closed enum.
package viewmodel

import "finboard/internal/core"

// Fallbacks for unknown keys.
const (
	FallbackIcon  = "tag"
	FallbackColor = "slate"
)

var categoryIcons = map[string]string{
	"food":          "utensils",
	"groceries":     "shopping-cart",
	"transport":     "car",
	"housing":       "home",
	"rent":          "home",
	"utilities":     "zap",
	"health":        "heart-pulse",
	"entertainment": "film",
	"travel":        "plane",
	"shopping":      "shopping-bag",
	"education":     "book-open",
	"salary":        "banknote",
	"savings":       "piggy-bank",
	"subscriptions": "repeat",
	"gifts":         "gift",
	"pets":          "paw-print",
}

var categoryColors = map[string]string{
	"food":          "orange",
	"groceries":     "lime",
	"transport":     "blue",
	"housing":       "violet",
	"rent":          "violet",
	"utilities":     "yellow",
	"health":        "red",
	"entertainment": "pink",
	"travel":        "cyan",
	"shopping":      "fuchsia",
	"education":     "indigo",
	"salary":        "green",
	"savings":       "emerald",
	"subscriptions": "sky",
	"gifts":         "rose",
	"pets":          "amber",
}

// CategoryIcon returns the icon token for a category icon key. Unknown
// keys render the generic tag glyph.
func CategoryIcon(key string) string {
	if icon, ok := categoryIcons[key]; ok {
		return icon
	}
	return FallbackIcon
}

// CategoryColor returns the color token for a category color key with
// a neutral fallback.
func CategoryColor(key string) string {
	if color, ok := categoryColors[key]; ok {
		return color
	}
	return FallbackColor
}

// CategoryView is a display-ready category.
type CategoryView struct {
	core.Category
	IconGlyph  string
	ColorToken string
	// Default categories get no edit/delete affordances.
	Editable bool
}

// NewCategoryView resolves display assets for a category.
func NewCategoryView(c core.Category) CategoryView {
	return CategoryView{
		Category:   c,
		IconGlyph:  CategoryIcon(c.Icon),
		ColorToken: CategoryColor(c.Color),
		Editable:   !c.IsDefault,
	}
}

// StatusView is the rendering entry for a goal status or priority.
type StatusView struct {
	Label string
	Icon  string
	Color string
}

var goalStatusViews = map[core.GoalStatus]StatusView{
	core.GoalActive:    {Label: "Active", Icon: "play", Color: "blue"},
	core.GoalCompleted: {Label: "Completed", Icon: "check-circle", Color: "green"},
	core.GoalPaused:    {Label: "Paused", Icon: "pause", Color: "gray"},
}

var goalPriorityViews = map[core.GoalPriority]StatusView{
	core.PriorityLow:    {Label: "Low", Icon: "arrow-down", Color: "gray"},
	core.PriorityMedium: {Label: "Medium", Icon: "minus", Color: "yellow"},
	core.PriorityHigh:   {Label: "High", Icon: "arrow-up", Color: "red"},
}

var goalTypeViews = map[core.GoalType]StatusView{
	core.GoalSpending: {Label: "Spending limit", Icon: "trending-down", Color: "orange"},
	core.GoalSaving:   {Label: "Savings target", Icon: "piggy-bank", Color: "emerald"},
	core.GoalDebt:     {Label: "Debt payoff", Icon: "credit-card", Color: "red"},
}

// GoalStatusView looks up the rendering entry for a status, defaulting
// to the active entry for unknown values.
func GoalStatusView(s core.GoalStatus) StatusView {
	if v, ok := goalStatusViews[s]; ok {
		return v
	}
	return goalStatusViews[core.GoalActive]
}

// GoalPriorityView looks up the rendering entry for a priority,
// defaulting to medium.
func GoalPriorityView(p core.GoalPriority) StatusView {
	if v, ok := goalPriorityViews[p]; ok {
		return v
	}
	return goalPriorityViews[core.PriorityMedium]
}

// GoalTypeView looks up the rendering entry for a goal type with the
// generic tag fallback.
func GoalTypeView(t core.GoalType) StatusView {
	if v, ok := goalTypeViews[t]; ok {
		return v
	}
	return StatusView{Label: string(t), Icon: FallbackIcon, Color: FallbackColor}
}

// GoalView carries the derived display values for one goal: the
// clamped progress-bar percentage and the distinct over-target state.
type GoalView struct {
	core.Goal
	ProgressPercent float64
	OverTarget      bool
	Remaining       float64
	Status          StatusView
	Priority        StatusView
	Type            StatusView
}

// NewGoalView derives display values for a goal.
func NewGoalView(g core.Goal) GoalView {
	return GoalView{
		Goal:            g,
		ProgressPercent: g.ProgressPercent(),
		OverTarget:      g.OverTarget(),
		Remaining:       g.Remaining(),
		Status:          GoalStatusView(g.Status),
		Priority:        GoalPriorityView(g.Priority),
		Type:            GoalTypeView(g.GoalType),
	}
}
