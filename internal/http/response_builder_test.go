package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finboard/internal/cache"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpenseCreated("t1").
		TriggerFormReset().
		TriggerCollectionsInvalidated([]cache.Collection{cache.Expenses, cache.Budgets}).
		TriggerSuccessNotification("Test message").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	expectedParts := []string{
		`"expense:created"`,
		`"form:reset"`,
		`"collections:invalidated"`,
		`"expenses"`,
		`"budgets"`,
		`"show-notification"`,
		`"type":"success"`,
		`"duration":3000`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_EmptyInvalidationSet(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerCollectionsInvalidated(nil).
		Write(w)

	if w.Header().Get("HX-Trigger") != "" {
		t.Error("empty invalidation set should not produce a trigger")
	}
}

func TestHTMXResponseBuilder_ErrorNotificationDuration(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerErrorNotification("failed").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"duration":5000`) {
		t.Errorf("error notification should last 5000ms: %s", trigger)
	}
	if !strings.Contains(trigger, `"type":"error"`) {
		t.Errorf("expected error type: %s", trigger)
	}
}

func TestErrorResponseEscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError(`<script>alert("x")</script>`).Write(w)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if strings.Contains(w.Body.String(), "<script>") {
		t.Error("error message was not HTML-escaped")
	}
}

func TestMethodNotAllowedSetsAllowHeader(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("POST, DELETE").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if got := w.Header().Get("Allow"); got != "POST, DELETE" {
		t.Errorf("Allow = %q, want %q", got, "POST, DELETE")
	}
}
