// Package sheets exports monthly dashboard summaries to a Google
// spreadsheet. Authentication uses a service account; credentials come
// from the standard Google environment variables.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finboard/internal/api"
	"finboard/internal/core"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewExporter creates a Sheets exporter for the given spreadsheet.
func NewExporter(ctx context.Context, spreadsheetID, sheetName string) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using service account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// ExportSummary appends one row per summary plus one per category to
// the configured sheet.
func (e *Exporter) ExportSummary(ctx context.Context, period string, summary core.Summary, breakdown []core.CategoryAmount) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := [][]any{
		{period, "total_income", summary.TotalIncome, summary.Currency},
		{period, "total_expenses", summary.TotalExpenses, summary.Currency},
		{period, "net", summary.NetAmount, summary.Currency},
	}
	for _, cat := range breakdown {
		rows = append(rows, []any{period, "category:" + cat.Name, cat.Amount, summary.Currency})
	}

	if err := e.appendRows(ctx, rows); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Exported summary to Google Sheets",
		"period", period,
		"rows", len(rows),
		"spreadsheet_id", e.spreadsheetID)

	return nil
}

// ExportReport appends a backend-generated report.
func (e *Exporter) ExportReport(ctx context.Context, report api.Report) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := [][]any{
		{report.Period, "summary", report.Summary, time.Now().Format(time.RFC3339)},
	}
	for _, section := range report.Sections {
		rows = append(rows, []any{report.Period, "section", section, ""})
	}

	if err := e.appendRows(ctx, rows); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Exported report to Google Sheets",
		"period", report.Period,
		"sections", len(report.Sections))

	return nil
}

func (e *Exporter) appendRows(ctx context.Context, rows [][]any) error {
	rng := fmt.Sprintf("%s!A:D", e.sheetName)
	vr := &gsheet.ValueRange{Values: rows}

	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append rows to sheet %s: %w", e.sheetName, err)
	}

	return nil
}
