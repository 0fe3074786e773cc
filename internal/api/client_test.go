package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finboard/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second)
}

func TestListExpensesSendsFilterParams(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/expenses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode([]transactionPayload{
			{ID: "1", Date: "2025-03-10", Description: "coffee", Category: "Food", Type: "expense", Amount: 4.5, Currency: "USD"},
		})
	})

	filter := core.Filter{Search: "coffee", Category: "Food"}
	list, err := client.ListExpenses(context.Background(), filter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].Description != "coffee" || list[0].Type != core.TypeExpense {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].Date.Format("2006-01-02") != "2025-03-10" {
		t.Fatalf("date not parsed: %v", list[0].Date)
	}
	if gotQuery["search"][0] != "coffee" || gotQuery["category"][0] != "Food" {
		t.Fatalf("filter params not sent: %v", gotQuery)
	}
	if _, ok := gotQuery["type"]; ok {
		t.Fatalf("unset filter fields must be omitted")
	}
}

func TestCreateExpense(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/expenses" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var p transactionPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		p.ID = "42"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
	})

	created, err := client.CreateExpense(context.Background(), core.Transaction{
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "lunch",
		Category:    "Food",
		Type:        core.TypeExpense,
		Amount:      12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "42" || created.Description != "lunch" {
		t.Fatalf("unexpected created: %+v", created)
	}
}

func TestBulkCreateValidatesBeforeNetwork(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.CreateExpensesBulk(context.Background(), []core.Transaction{
		{Date: time.Now(), Description: "ok", Category: "Food", Type: core.TypeExpense, Amount: 1},
		{Date: time.Now(), Description: "", Category: "Food", Type: core.TypeExpense, Amount: 1},
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if called {
		t.Fatalf("malformed payload must be rejected before any network call")
	}
}

func TestErrorMapping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.ListBudgets(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected APIError 500, got %v", err)
	}
	title, msg := UserMessage(err)
	if title != "Server error" || msg == "" {
		t.Fatalf("unexpected user message: %q %q", title, msg)
	}

	title, _ = UserMessage(errors.New("plain"))
	if title != "Something went wrong" {
		t.Fatalf("generic errors need the generic title, got %q", title)
	}
}

func TestDefaultCategoryImmutable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no call expected for default category")
	})

	def := core.Category{ID: "1", Name: "Food", IsDefault: true}
	if err := client.UpdateCategory(context.Background(), def); !errors.Is(err, core.ErrDefaultImmutable) {
		t.Fatalf("expected ErrDefaultImmutable, got %v", err)
	}
	if err := client.DeleteCategory(context.Background(), def); !errors.Is(err, core.ErrDefaultImmutable) {
		t.Fatalf("expected ErrDefaultImmutable, got %v", err)
	}
}

func TestExtractExpense(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/expenses/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("mime_type") != "application/pdf" {
			t.Errorf("mime_type not sent")
		}
		_ = json.NewEncoder(w).Encode(transactionPayload{
			Date: "2025-03-10", Description: "receipt", Category: "Food", Type: "expense", Amount: 9.99,
		})
	})

	tx, err := client.ExtractExpense(context.Background(), "receipt.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Description != "receipt" || tx.Amount != 9.99 {
		t.Fatalf("unexpected extraction: %+v", tx)
	}
}

func TestGetRates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ratesPayload{Base: "USD", Rates: map[string]float64{"EUR": 0.9}})
	})
	rates, err := client.GetRates(context.Background())
	if err != nil || rates.Base != "USD" || rates.Rates["EUR"] != 0.9 {
		t.Fatalf("unexpected rates: %+v (err=%v)", rates, err)
	}
}
