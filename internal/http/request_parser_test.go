package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"finboard/internal/core"
)

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"matching single method", http.MethodPost, []string{http.MethodPost}, false},
		{"matching one of several", http.MethodDelete, []string{http.MethodPost, http.MethodDelete}, false},
		{"non-matching method", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", nil)
			got := RequireMethod(req, tt.allowed...)
			if (got != nil) != tt.wantErr {
				t.Errorf("RequireMethod(%s, %v) error = %v, want %v", tt.method, tt.allowed, got != nil, tt.wantErr)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rr := httptest.NewRecorder()
	RequireDeleteOrPOST(req).Write(rr)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != "DELETE, POST" {
		t.Errorf("Allow = %q", got)
	}
}

func TestParseFormOrFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if got := ParseFormOrFail(req); got != nil {
		t.Errorf("expected nil for valid form, got error response")
	}
	if req.Form.Get("a") != "1" {
		t.Errorf("form value not parsed")
	}

	bad := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("%zz"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if got := ParseFormOrFail(bad); got == nil {
		t.Error("expected error response for malformed form body")
	}
}

func TestFilterField(t *testing.T) {
	tests := []struct {
		name string
		want core.FilterField
		ok   bool
	}{
		{"search", core.FieldSearch, true},
		{"category", core.FieldCategory, true},
		{"type", core.FieldType, true},
		{"start_date", core.FieldStartDate, true},
		{"end_date", core.FieldEndDate, true},
		{"bogus", "", false},
	}

	for _, tt := range tests {
		got, ok := filterField(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("filterField(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFilterValues(t *testing.T) {
	values := url.Values{
		"search":     {"  coffee  "},
		"category":   {"Food"},
		"type":       {"expense"},
		"start_date": {"2026-03-01"},
		"end_date":   {"not-a-date"},
	}

	f := parseFilterValues(values)
	if f.Search != "coffee" {
		t.Errorf("Search = %q", f.Search)
	}
	if f.Category != "Food" {
		t.Errorf("Category = %q", f.Category)
	}
	if f.Type != core.TypeExpense {
		t.Errorf("Type = %q", f.Type)
	}
	if f.StartDate.IsZero() {
		t.Error("StartDate should be set")
	}
	if !f.EndDate.IsZero() {
		t.Error("invalid end_date should stay zero")
	}

	empty := parseFilterValues(url.Values{})
	if empty.HasActive() {
		t.Error("empty values should yield an inactive filter")
	}
}
