package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"finboard/internal/api"
	"finboard/internal/core"
)

// countingBackend serves canned collections and counts hits per path.
type countingBackend struct {
	hits map[string]*int64
}

func newCountingBackend() (*countingBackend, *httptest.Server) {
	b := &countingBackend{hits: map[string]*int64{
		"/expenses":   new(int64),
		"/budgets":    new(int64),
		"/categories": new(int64),
		"/goals":      new(int64),
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /expenses", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(b.hits["/expenses"], 1)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "t1", "date": "2026-03-01", "description": "Coffee", "category": "Food", "type": "expense", "amount": 4.5},
		})
	})
	mux.HandleFunc("POST /expenses", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "t2"
		json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("GET /budgets", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(b.hits["/budgets"], 1)
		json.NewEncoder(w).Encode([]map[string]any{
			{"category": "Food", "limit": 300.0, "spent": 120.0},
		})
	})
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(b.hits["/categories"], 1)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "c1", "name": "Food", "is_default": true},
		})
	})
	mux.HandleFunc("GET /goals", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(b.hits["/goals"], 1)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "g1", "title": "Emergency fund", "goal_type": "saving", "target_amount": 1000.0, "current_amount": 250.0},
		})
	})
	mux.HandleFunc("POST /insights/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"type": "tip", "title": "Spending up", "message": "Food spending rose 20%"},
		})
	})

	return b, httptest.NewServer(mux)
}

func (b *countingBackend) count(path string) int64 {
	return atomic.LoadInt64(b.hits[path])
}

func newTestService(t *testing.T) (*DashboardService, *countingBackend) {
	t.Helper()
	backend, server := newCountingBackend()
	t.Cleanup(server.Close)
	return NewDashboardService(api.NewClient(server.URL, "test-key", 5*time.Second)), backend
}

func TestLoadFetchesAllCollections(t *testing.T) {
	svc, backend := newTestService(t)

	data, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(data.Expenses) != 1 || data.Expenses[0].Description != "Coffee" {
		t.Errorf("unexpected expenses: %+v", data.Expenses)
	}
	if len(data.Budgets) != 1 || data.Budgets[0].Category != "Food" {
		t.Errorf("unexpected budgets: %+v", data.Budgets)
	}
	if len(data.Categories) != 1 || len(data.Goals) != 1 {
		t.Errorf("unexpected categories/goals: %+v / %+v", data.Categories, data.Goals)
	}

	for _, path := range []string{"/expenses", "/budgets", "/categories", "/goals"} {
		if got := backend.count(path); got != 1 {
			t.Errorf("%s fetched %d times, want 1", path, got)
		}
	}
}

func TestLoadFailsWhole(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /budgets", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewDashboardService(api.NewClient(server.URL, "test-key", 5*time.Second))
	if _, err := svc.Load(context.Background()); err == nil {
		t.Fatal("expected Load to fail when one collection fails")
	}
}

func TestReadsAreCached(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.GetExpenses(ctx, core.Filter{}); err != nil {
			t.Fatalf("GetExpenses: %v", err)
		}
	}
	if got := backend.count("/expenses"); got != 1 {
		t.Errorf("expected 1 backend fetch, got %d", got)
	}

	// A different filter is a different cache key
	if _, err := svc.GetExpenses(ctx, core.Filter{Category: "Food"}); err != nil {
		t.Fatalf("GetExpenses filtered: %v", err)
	}
	if got := backend.count("/expenses"); got != 2 {
		t.Errorf("expected 2 backend fetches, got %d", got)
	}
}

func TestMutationInvalidatesCollections(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetExpenses(ctx, core.Filter{}); err != nil {
		t.Fatalf("GetExpenses: %v", err)
	}
	if _, err := svc.GetBudgets(ctx); err != nil {
		t.Fatalf("GetBudgets: %v", err)
	}
	if _, err := svc.GetGoals(ctx); err != nil {
		t.Fatalf("GetGoals: %v", err)
	}

	_, cols, err := svc.AddExpense(ctx, core.Transaction{
		Description: "Lunch",
		Amount:      12,
		Type:        core.TypeExpense,
		Category:    "Food",
		Date:        time.Now(),
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 invalidated collections, got %v", cols)
	}

	// Expenses and budgets refetch, goals stay cached
	if _, err := svc.GetExpenses(ctx, core.Filter{}); err != nil {
		t.Fatalf("GetExpenses: %v", err)
	}
	if _, err := svc.GetBudgets(ctx); err != nil {
		t.Fatalf("GetBudgets: %v", err)
	}
	if _, err := svc.GetGoals(ctx); err != nil {
		t.Fatalf("GetGoals: %v", err)
	}

	if got := backend.count("/expenses"); got != 2 {
		t.Errorf("expenses fetched %d times, want 2", got)
	}
	if got := backend.count("/budgets"); got != 2 {
		t.Errorf("budgets fetched %d times, want 2", got)
	}
	if got := backend.count("/goals"); got != 1 {
		t.Errorf("goals fetched %d times, want 1", got)
	}
}

func TestGenerateInsightsCachesResult(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, ok := svc.GetInsights(ctx); ok {
		t.Fatal("expected no cached insights before generation")
	}

	list, cols, err := svc.GenerateInsights(ctx)
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Spending up" {
		t.Errorf("unexpected insights: %+v", list)
	}
	if len(cols) != 1 {
		t.Errorf("expected 1 invalidated collection, got %v", cols)
	}

	cached, ok := svc.GetInsights(ctx)
	if !ok || len(cached) != 1 {
		t.Error("expected generated insights to be cached")
	}
}
