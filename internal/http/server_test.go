package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"finboard/internal/api"
	"finboard/internal/core"
	"finboard/internal/services"
	"finboard/internal/state"
	"finboard/internal/upload"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, filename, mimeType string, data []byte) (core.Transaction, error) {
	return core.Transaction{
		Date:        time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: "Receipt " + filename,
		Category:    "Food",
		Type:        core.TypeExpense,
		Amount:      9.99,
		Currency:    "USD",
	}, nil
}

// newBackend serves canned collections the way the real API would.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /expenses", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "t1", "date": "2026-03-01", "description": "Coffee", "category": "Food", "type": "expense", "amount": 4.5, "currency": "USD"},
		})
	})
	mux.HandleFunc("POST /expenses", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "t2"
		json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("DELETE /expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /budgets", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"category": "Food", "limit": 300.0, "spent": 120.0},
		})
	})
	mux.HandleFunc("PATCH /budgets/{category}/spent", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "c1", "name": "Food", "is_default": true},
		})
	})
	mux.HandleFunc("POST /categories", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "c2"
		json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("GET /goals", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "g1", "title": "Emergency fund", "goal_type": "saving", "target_amount": 1000.0, "current_amount": 250.0, "status": "active"},
		})
	})
	mux.HandleFunc("PUT /preferences", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /rates", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"base": "USD", "rates": map[string]float64{"USD": 1}})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	backend := newBackend(t)
	dashboard := services.NewDashboardService(api.NewClient(backend.URL, "test-key", 5*time.Second))
	store := state.New(core.Preferences{Currency: "USD"}, state.WithSearchDebounce(10*time.Millisecond))
	uploads := upload.NewProcessor(fakeExtractor{},
		func(ctx context.Context, tx core.Transaction) error {
			_, _, err := dashboard.AddExpense(ctx, tx)
			return err
		},
		func(ctx context.Context, category string, amount float64) error {
			_, err := dashboard.BumpBudgetSpent(ctx, category, amount)
			return err
		})

	srv := NewServer(":0", Deps{Dashboard: dashboard, Uploads: uploads, State: store})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(srv *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(srv, req)
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Finboard") {
		t.Fatal("index body missing heading")
	}
	if !strings.Contains(body, "Coffee") {
		t.Fatal("index body missing loaded expense")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rr.Code)
	}
}

func TestIndexBackendFailureRendersErrorPage(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	dashboard := services.NewDashboardService(api.NewClient(failing.URL, "test-key", 2*time.Second))
	srv := NewServer(":0", Deps{
		Dashboard: dashboard,
		State:     state.New(core.Preferences{Currency: "USD"}),
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Try again") {
		t.Fatal("expected full-page error body")
	}
}

func TestCreateExpenseValidationAndSuccess(t *testing.T) {
	srv := newTestServer(t)

	// Wrong method
	rr := serve(srv, httptest.NewRequest(http.MethodPut, "/expenses", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != "POST, DELETE" {
		t.Fatalf("Allow=%q", got)
	}

	// Invalid amount
	rr = postForm(srv, "/expenses", "description=x&amount=abc&category=Food")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Missing description
	rr = postForm(srv, "/expenses", "description=&amount=1.23&category=Food")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Success
	rr = postForm(srv, "/expenses", "description=Lunch&amount=12.50&category=Food")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, want := range []string{"expense:created", "collections:invalidated", "expenses", "budgets", "show-notification"} {
		if !strings.Contains(trigger, want) {
			t.Errorf("HX-Trigger missing %q: %s", want, trigger)
		}
	}
	if !strings.Contains(rr.Body.String(), "Lunch") {
		t.Fatalf("expected created description in body: %s", rr.Body.String())
	}
}

func TestDeleteExpense(t *testing.T) {
	srv := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodDelete, "/expenses", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rr.Code)
	}

	rr = serve(srv, httptest.NewRequest(http.MethodDelete, "/expenses?id=t1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "expense:deleted") {
		t.Fatalf("HX-Trigger missing expense:deleted: %s", trigger)
	}
}

func TestFilterFlow(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(srv, "/filters", "field=category&value=Food")
	if rr.Code != http.StatusOK {
		t.Fatalf("set filter status=%d", rr.Code)
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "filter:changed") {
		t.Fatalf("HX-Trigger missing filter:changed: %s", trigger)
	}
	if got := srv.state.Filter().Category; got != "Food" {
		t.Fatalf("filter category=%q", got)
	}

	rr = postForm(srv, "/filters", "field=bogus&value=x")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rr.Code)
	}

	rr = postForm(srv, "/filters/clear", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("clear status=%d", rr.Code)
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "form:reset") {
		t.Fatalf("HX-Trigger missing form:reset: %s", trigger)
	}
	if srv.state.HasActiveFilters() {
		t.Fatal("expected filters cleared")
	}
}

func TestSearchDebounces(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(srv, "/search", "search=cof")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("search status=%d", rr.Code)
	}
	if got := srv.state.Filter().Search; got != "" {
		t.Fatalf("search committed immediately: %q", got)
	}

	deadline := time.Now().Add(time.Second)
	for srv.state.Filter().Search != "cof" {
		if time.Now().After(deadline) {
			t.Fatal("search never committed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPreferencesUpdate(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(srv, "/preferences", "currency=EUR")
	if rr.Code != http.StatusOK {
		t.Fatalf("preferences status=%d", rr.Code)
	}
	if got := srv.state.Preferences().Currency; got != "EUR" {
		t.Fatalf("currency=%q", got)
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "collections:invalidated") {
		t.Fatalf("HX-Trigger missing invalidation: %s", trigger)
	}
}

func TestUploadDropsUnsupportedFiles(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	addUploadPart(t, mw, "receipt.pdf", "application/pdf", []byte("%PDF-1.4"))
	addUploadPart(t, mw, "notes.txt", "text/plain", []byte("not a receipt"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("upload status=%d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, "receipt.pdf") {
		t.Fatalf("expected pdf result row: %s", body)
	}
	if strings.Contains(body, "notes.txt") {
		t.Fatalf("unsupported file should produce no row: %s", body)
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "upload:done") {
		t.Fatalf("HX-Trigger missing upload:done: %s", trigger)
	}
}

func TestUploadWithNoSupportedFiles(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	addUploadPart(t, mw, "notes.txt", "text/plain", []byte("plain text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := serve(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("upload status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No supported files") {
		t.Fatalf("expected empty-batch message: %s", rr.Body.String())
	}
	if trigger := rr.Header().Get("HX-Trigger"); strings.Contains(trigger, "upload:done") {
		t.Fatalf("unexpected upload:done trigger: %s", trigger)
	}
}

func addUploadPart(t *testing.T, mw *multipart.Writer, name, mimeType string, data []byte) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
}

func TestCategoryMutations(t *testing.T) {
	srv := newTestServer(t)

	rr := postForm(srv, "/categories", "name=Travel&color=blue&icon=plane")
	if rr.Code != http.StatusOK {
		t.Fatalf("create category status=%d: %s", rr.Code, rr.Body.String())
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "category:created") {
		t.Fatalf("HX-Trigger missing category:created: %s", trigger)
	}

	// Default categories are immutable from the UI
	rr = serve(srv, httptest.NewRequest(http.MethodDelete, "/categories?id=c1", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 deleting a default category, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/categories", strings.NewReader("id=c1&name=Renamed"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = serve(srv, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 editing a default category, got %d", rr.Code)
	}
}

func TestDashboardPartialRenders(t *testing.T) {
	srv := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/ui/dashboard", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard partial status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Food") {
		t.Fatalf("expected category breakdown: %s", body)
	}
	if !strings.Contains(body, "Budgets") {
		t.Fatalf("expected budget panel: %s", body)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t)

	var limited bool
	for i := 0; i < 70; i++ {
		rr := postForm(srv, "/search", "search=x")
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected rate limit to trip after sustained POSTs")
	}
}
