// Package worker pushes locally captured expenses to the backend API.
// Captures are written to SQLite first; the worker drains them via AMQP
// notifications, with a periodic sweep as backup for lost messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/storage"
)

// ExpensePusher is the backend surface the worker needs.
type ExpensePusher interface {
	CreateExpense(ctx context.Context, t core.Transaction) (core.Transaction, error)
	CreateExpensesBulk(ctx context.Context, list []core.Transaction) ([]core.Transaction, error)
}

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	backend   ExpensePusher
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, backend ExpensePusher, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		backend:   backend,
		batchSize: batchSize,
	}
}

// HandleCapturedMessage processes a single captured-expense message.
// Returning an error nacks the delivery so it is redelivered.
func (w *SyncWorker) HandleCapturedMessage(ctx context.Context, msg *amqp.ExpenseCapturedMessage) error {
	slog.InfoContext(ctx, "Processing captured message",
		"id", msg.ID,
		"version", msg.Version)

	row, err := w.storage.GetCaptured(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get captured expense from storage: %w", err)
	}

	if row.Synced != 0 {
		slog.InfoContext(ctx, "Captured expense already synced, skipping", "id", msg.ID)
		return nil
	}

	if err := w.pushExpense(ctx, row); err != nil {
		return fmt.Errorf("push expense to backend: %w", err)
	}

	return nil
}

// ProcessPending pushes any captured expenses that have not synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, row := range pending {
		if err := w.pushExpense(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense", "id", row.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains expenses left pending across worker downtime.
// Uses a larger batch than the periodic sweep.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, row := range pending {
		if err := w.pushExpense(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense during startup",
				"id", row.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

// RunPeriodicSweep runs ProcessPending on an interval until ctx is done.
func (w *SyncWorker) RunPeriodicSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic sweep", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sweep failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) pushExpense(ctx context.Context, row storage.CapturedExpense) error {
	tx, err := row.Transaction()
	if err != nil {
		// Unparseable rows never sync, flag them so the sweep stops retrying
		if markErr := w.storage.MarkSyncError(ctx, row.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", row.ID, "error", markErr)
		}
		return fmt.Errorf("convert captured expense: %w", err)
	}

	if _, err := w.backend.CreateExpense(ctx, tx); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, row.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", row.ID, "error", markErr)
		}
		return fmt.Errorf("create expense on backend: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, row.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", row.ID, "error", err)
		// Don't return error here - the push actually worked
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"id", row.ID,
		"uuid", row.UUID,
		"description", row.Description,
		"amount", row.Amount)

	return nil
}
