package http

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"finboard/internal/api"
	"finboard/internal/core"
	"finboard/internal/upload"
	"finboard/internal/viewmodel"
)

// maxUploadBytes bounds a whole upload batch.
const maxUploadBytes = 32 << 20

type expenseRow struct {
	ID          string
	Date        string
	Description string
	Merchant    string
	Category    string
	Icon        string
	Color       string
	Amount      string
	Income      bool
}

func (s *Server) expenseRows(ctx context.Context, list []core.Transaction) []expenseRow {
	prefs := s.state.Preferences()
	rates := s.loadRates(ctx)

	rows := make([]expenseRow, len(list))
	for i, t := range list {
		rows[i] = expenseRow{
			ID:          t.ID,
			Date:        t.Date.Format("Jan 2, 2006"),
			Description: t.Description,
			Merchant:    t.Merchant,
			Category:    t.Category,
			Icon:        viewmodel.CategoryIcon(t.Category),
			Color:       viewmodel.CategoryColor(t.Category),
			Amount:      formatAmount(t.AmountIn(prefs.Currency, rates), prefs.Currency),
			Income:      t.Type == core.TypeIncome,
		}
	}
	return rows
}

// handleExpenses creates (POST) or deletes (DELETE) an expense.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createExpense(w, r)
	case http.MethodDelete:
		s.deleteExpense(w, r)
	default:
		MethodNotAllowedError("POST, DELETE").Write(w)
	}
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	desc := sanitizeInput(r.Form.Get("description"))
	merchant := sanitizeInput(r.Form.Get("merchant"))
	category := sanitizeInput(r.Form.Get("category"))
	txType := core.TransactionType(sanitizeInput(r.Form.Get("type")))
	if txType == "" {
		txType = core.TypeExpense
	}

	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	date := time.Now()
	if v := sanitizeInput(r.Form.Get("date")); v != "" {
		if parsed := parseDateValue(v); !parsed.IsZero() {
			date = parsed
		}
	}

	tx := core.Transaction{
		Date:        date,
		Description: desc,
		Merchant:    merchant,
		Category:    category,
		Type:        txType,
		Amount:      amount,
		Currency:    s.state.Preferences().Currency,
	}
	if err := tx.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	created, cols, err := s.dashboard.AddExpense(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save expense",
			"error", err,
			"description", tx.Description,
			"amount", tx.Amount,
			"category", tx.Category)
		title, message := api.UserMessage(err)
		NewHTMXResponse().
			Status(http.StatusBadGateway).
			TriggerErrorNotification(fmt.Sprintf("%s: %s", title, message)).
			BodyHTML(`<div class="error">` + template.HTMLEscapeString(title) + `</div>`).
			Write(w)
		return
	}

	// Offline capture mirror, best effort
	if s.capture != nil {
		if _, err := s.capture.CaptureExpense(r.Context(), created); err != nil {
			slog.WarnContext(r.Context(), "Local capture failed", "error", err)
		}
	}

	NewHTMXResponse().
		TriggerExpenseCreated(created.ID).
		TriggerCollectionsInvalidated(cols).
		TriggerFormReset().
		TriggerSuccessNotification("Expense saved").
		BodyHTML(`<div class="success">Saved: ` + template.HTMLEscapeString(created.Description) + `</div>`).
		Write(w)
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.URL.Query().Get("id"))
	if id == "" {
		BadRequestError("Missing expense id").Write(w)
		return
	}

	cols, err := s.dashboard.DeleteExpense(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete expense", "error", err, "id", id)
		title, message := api.UserMessage(err)
		NewHTMXResponse().
			Status(http.StatusBadGateway).
			TriggerErrorNotification(fmt.Sprintf("%s: %s", title, message)).
			Write(w)
		return
	}

	NewHTMXResponse().
		TriggerExpenseDeleted(id).
		TriggerCollectionsInvalidated(cols).
		TriggerSuccessNotification("Expense deleted").
		Write(w)
}

// handleExpensesPartial renders the transaction list for the committed
// filter.
func (s *Server) handleExpensesPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	list, err := s.dashboard.GetExpenses(ctx, s.state.Filter())
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense list load failed", "error", err)
		s.renderPartialError(w, r, err)
		return
	}

	data := struct {
		Expenses   []expenseRow
		HasFilters bool
	}{
		Expenses:   s.expenseRows(r.Context(), list),
		HasFilters: s.state.HasActiveFilters(),
	}

	if err := s.templates.ExecuteTemplate(w, "expenses.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "expenses.html")
		_, _ = w.Write([]byte(`<section id="expenses"><div class="placeholder">Error rendering expenses</div></section>`))
	}
}

// handleUpload runs uploaded receipts through extraction. Unsupported
// file types are dropped before processing; accepted files process
// sequentially and render one status row each.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if s.uploads == nil {
		InternalServerError("Upload processing is not configured").Write(w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		slog.ErrorContext(r.Context(), "Multipart parse error", "error", err)
		BadRequestError("Invalid upload").Write(w)
		return
	}

	var files []upload.File
	for _, headers := range r.MultipartForm.File {
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				slog.ErrorContext(r.Context(), "Upload open failed", "file", h.Filename, "error", err)
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				slog.ErrorContext(r.Context(), "Upload read failed", "file", h.Filename, "error", err)
				continue
			}
			files = append(files, upload.File{
				Name:     h.Filename,
				MIMEType: h.Header.Get("Content-Type"),
				Data:     data,
			})
		}
	}

	results := s.uploads.ProcessBatch(r.Context(), files)

	completed := 0
	failed := 0
	var html string
	for _, res := range results {
		switch res.Status {
		case upload.StatusCompleted:
			completed++
			html += `<div class="upload-row success">` + template.HTMLEscapeString(res.Name) +
				`: ` + template.HTMLEscapeString(res.Expense.Description) + `</div>`
		case upload.StatusError:
			failed++
			html += `<div class="upload-row error">` + template.HTMLEscapeString(res.Name) +
				`: ` + template.HTMLEscapeString(res.ErrorMsg) + `</div>`
		}
	}
	if len(results) == 0 {
		html = `<div class="upload-row">No supported files in upload</div>`
	}

	resp := NewHTMXResponse().BodyHTML(html)
	if completed > 0 {
		resp.Trigger("upload:done", map[string]int{"completed": completed, "failed": failed}).
			TriggerSuccessNotification(fmt.Sprintf("%d file(s) processed", completed))
	}
	if failed > 0 {
		resp.TriggerErrorNotification(fmt.Sprintf("%d file(s) failed", failed))
	}
	resp.Write(w)
}
