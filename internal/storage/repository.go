package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finboard/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateCaptured saves a locally captured expense awaiting backend sync.
func (r *SQLiteRepository) CreateCaptured(ctx context.Context, t core.Transaction) (CapturedExpense, error) {
	row, err := r.queries.CreateCapturedExpense(ctx, CreateCapturedExpenseParams{
		UUID:        t.ID,
		Date:        t.Date.Format(dateLayout),
		Description: t.Description,
		Merchant:    t.Merchant,
		Category:    t.Category,
		TxType:      string(t.Type),
		Amount:      t.Amount,
		Currency:    t.Currency,
	})
	if err != nil {
		return CapturedExpense{}, fmt.Errorf("create captured expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"uuid", row.UUID,
		"description", row.Description,
		"amount", row.Amount,
		"category", row.Category)

	return row, nil
}

// GetCaptured retrieves a captured expense by its row ID.
func (r *SQLiteRepository) GetCaptured(ctx context.Context, id int64) (CapturedExpense, error) {
	row, err := r.queries.GetCapturedExpense(ctx, id)
	if err != nil {
		return CapturedExpense{}, fmt.Errorf("get captured expense by id: %w", err)
	}
	return row, nil
}

// GetPendingSync returns captured expenses not yet pushed to the backend.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]CapturedExpense, error) {
	rows, err := r.queries.GetPendingSyncExpenses(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	return rows, nil
}

// CountPending returns how many captured expenses still await sync.
func (r *SQLiteRepository) CountPending(ctx context.Context) (int64, error) {
	n, err := r.queries.CountPendingSync(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending sync expenses: %w", err)
	}
	return n, nil
}

// MarkSynced marks a captured expense as successfully pushed.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkExpenseSynced(ctx, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}

	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError flags a captured expense so the sweep stops retrying it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkExpenseSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}

	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

// Transaction converts a stored row back to the domain shape.
func (e CapturedExpense) Transaction() (core.Transaction, error) {
	date, err := time.Parse(dateLayout, e.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse captured expense date %q: %w", e.Date, err)
	}
	return core.Transaction{
		ID:          e.UUID,
		Date:        date,
		Description: e.Description,
		Merchant:    e.Merchant,
		Category:    e.Category,
		Type:        core.TransactionType(e.TxType),
		Amount:      e.Amount,
		Currency:    e.Currency,
	}, nil
}
