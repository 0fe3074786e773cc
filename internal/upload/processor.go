// Package upload drives expense creation from dropped files. Files run
// through a small per-file state machine and are processed one at a
// time, so per-file status updates stay ordered and a budget update
// from one file can never race an update from the next.
package upload

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"finboard/internal/core"
	"finboard/internal/extract"
)

// Status is the per-file processing state.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// File is an accepted upload.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Result is the outcome for one accepted file.
type Result struct {
	ID       string
	Name     string
	Status   Status
	Expense  core.Transaction
	ErrorMsg string
}

// ExpenseAddedFunc persists an extracted expense.
type ExpenseAddedFunc func(ctx context.Context, t core.Transaction) error

// BudgetUpdateFunc bumps a category's running total.
type BudgetUpdateFunc func(ctx context.Context, category string, amount float64) error

// Processor extracts expenses from uploaded files.
type Processor struct {
	extractor extract.Extractor

	onExpense ExpenseAddedFunc
	onBudget  BudgetUpdateFunc

	mu      sync.Mutex
	results map[string]*Result
}

// NewProcessor creates a processor. onBudget may be nil; it is invoked
// only when both it and an extracted category are present.
func NewProcessor(extractor extract.Extractor, onExpense ExpenseAddedFunc, onBudget BudgetUpdateFunc) *Processor {
	return &Processor{
		extractor: extractor,
		onExpense: onExpense,
		onBudget:  onBudget,
		results:   make(map[string]*Result),
	}
}

// Accepted reports whether a file type enters the pipeline. Only PDFs
// and images are processed; anything else is silently ignored and gets
// no state entry.
func Accepted(mimeType string) bool {
	return mimeType == "application/pdf" || strings.HasPrefix(mimeType, "image/")
}

// ProcessBatch runs the accepted files sequentially in input order.
// Each file is awaited before the next starts. A failure during
// extraction or persistence marks that file error and the batch
// continues. Returns the results for accepted files only.
func (p *Processor) ProcessBatch(ctx context.Context, files []File) []Result {
	var accepted []File
	for _, f := range files {
		if Accepted(f.MIMEType) {
			accepted = append(accepted, f)
		} else {
			slog.DebugContext(ctx, "Ignoring unsupported upload", "file", f.Name, "mime_type", f.MIMEType)
		}
	}

	out := make([]Result, 0, len(accepted))
	for _, f := range accepted {
		out = append(out, p.processOne(ctx, f))
	}
	return out
}

func (p *Processor) processOne(ctx context.Context, f File) Result {
	r := &Result{
		ID:     uuid.NewString(),
		Name:   f.Name,
		Status: StatusProcessing,
	}
	p.setResult(r)

	expense, err := p.extractor.Extract(ctx, f.Name, f.MIMEType, f.Data)
	if err != nil {
		slog.ErrorContext(ctx, "File extraction failed", "file", f.Name, "error", err)
		return p.fail(r, err)
	}

	if err := p.onExpense(ctx, expense); err != nil {
		slog.ErrorContext(ctx, "Extracted expense persistence failed", "file", f.Name, "error", err)
		return p.fail(r, err)
	}

	if expense.Category != "" && p.onBudget != nil {
		if err := p.onBudget(ctx, expense.Category, expense.Amount); err != nil {
			slog.ErrorContext(ctx, "Budget update for extracted expense failed",
				"file", f.Name, "category", expense.Category, "error", err)
			return p.fail(r, err)
		}
	}

	r.Status = StatusCompleted
	r.Expense = expense
	p.setResult(r)
	slog.InfoContext(ctx, "File processed",
		"file", f.Name,
		"description", expense.Description,
		"amount", expense.Amount,
		"category", expense.Category)
	return *r
}

func (p *Processor) fail(r *Result, err error) Result {
	r.Status = StatusError
	r.ErrorMsg = err.Error()
	p.setResult(r)
	return *r
}

func (p *Processor) setResult(r *Result) {
	p.mu.Lock()
	copied := *r
	p.results[r.ID] = &copied
	p.mu.Unlock()
}

// Result returns the recorded state for a file ID.
func (p *Processor) Result(id string) (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.results[id]
	if !ok {
		return Result{}, false
	}
	return *r, true
}

// Results returns a snapshot of all recorded file states.
func (p *Processor) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, 0, len(p.results))
	for _, r := range p.results {
		out = append(out, *r)
	}
	return out
}
