package core

import (
	"net/url"
	"strings"
	"time"
)

// Filter is the shared search/category/type/date constraint applied
// across views. Every field is optional; the zero value means no
// constraint. Empty strings are never stored as active values.
type Filter struct {
	Search    string
	Category  string
	Type      TransactionType
	StartDate time.Time
	EndDate   time.Time
}

// FilterField names a single filter constraint.
type FilterField string

const (
	FieldSearch    FilterField = "search"
	FieldCategory  FilterField = "category"
	FieldType      FilterField = "type"
	FieldStartDate FilterField = "start_date"
	FieldEndDate   FilterField = "end_date"
)

// HasActive reports whether any filter field is set.
func (f Filter) HasActive() bool {
	return f.Search != "" || f.Category != "" || f.Type != "" ||
		!f.StartDate.IsZero() || !f.EndDate.IsZero()
}

// Matches applies all active constraints to a transaction. Search is a
// case-insensitive substring match over description and merchant.
func (f Filter) Matches(t Transaction) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strings.ToLower(t.Merchant), needle) {
			return false
		}
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if !f.StartDate.IsZero() && t.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && t.Date.After(f.EndDate) {
		return false
	}
	return true
}

// Apply returns the transactions matching the filter, preserving input
// order.
func (f Filter) Apply(list []Transaction) []Transaction {
	if !f.HasActive() {
		return list
	}
	out := make([]Transaction, 0, len(list))
	for _, t := range list {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// QueryValues encodes the active filter fields as backend list-endpoint
// query parameters. Unset fields are omitted entirely.
func (f Filter) QueryValues() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Type != "" {
		v.Set("type", string(f.Type))
	}
	if !f.StartDate.IsZero() {
		v.Set("start_date", f.StartDate.Format("2006-01-02"))
	}
	if !f.EndDate.IsZero() {
		v.Set("end_date", f.EndDate.Format("2006-01-02"))
	}
	return v
}

// Key returns a stable cache-key fragment for the filter.
func (f Filter) Key() string {
	if !f.HasActive() {
		return "all"
	}
	return f.QueryValues().Encode()
}
