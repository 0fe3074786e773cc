package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// CapturedExpense is a row of the captured_expenses table.
type CapturedExpense struct {
	ID          int64
	UUID        string
	Date        string
	Description string
	Merchant    string
	Category    string
	TxType      string
	Amount      float64
	Currency    string
	Synced      int64
	SyncError   int64
	Version     int64
	CreatedAt   time.Time
}

type CreateCapturedExpenseParams struct {
	UUID        string
	Date        string
	Description string
	Merchant    string
	Category    string
	TxType      string
	Amount      float64
	Currency    string
}

const createCapturedExpense = `
INSERT INTO captured_expenses (uuid, date, description, merchant, category, tx_type, amount, currency)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, uuid, date, description, merchant, category, tx_type, amount, currency, synced, sync_error, version, created_at
`

func (q *Queries) CreateCapturedExpense(ctx context.Context, arg CreateCapturedExpenseParams) (CapturedExpense, error) {
	row := q.db.QueryRowContext(ctx, createCapturedExpense,
		arg.UUID,
		arg.Date,
		arg.Description,
		arg.Merchant,
		arg.Category,
		arg.TxType,
		arg.Amount,
		arg.Currency,
	)
	var e CapturedExpense
	err := row.Scan(
		&e.ID,
		&e.UUID,
		&e.Date,
		&e.Description,
		&e.Merchant,
		&e.Category,
		&e.TxType,
		&e.Amount,
		&e.Currency,
		&e.Synced,
		&e.SyncError,
		&e.Version,
		&e.CreatedAt,
	)
	return e, err
}

const getCapturedExpense = `
SELECT id, uuid, date, description, merchant, category, tx_type, amount, currency, synced, sync_error, version, created_at
FROM captured_expenses
WHERE id = ?
`

func (q *Queries) GetCapturedExpense(ctx context.Context, id int64) (CapturedExpense, error) {
	row := q.db.QueryRowContext(ctx, getCapturedExpense, id)
	var e CapturedExpense
	err := row.Scan(
		&e.ID,
		&e.UUID,
		&e.Date,
		&e.Description,
		&e.Merchant,
		&e.Category,
		&e.TxType,
		&e.Amount,
		&e.Currency,
		&e.Synced,
		&e.SyncError,
		&e.Version,
		&e.CreatedAt,
	)
	return e, err
}

const getPendingSyncExpenses = `
SELECT id, uuid, date, description, merchant, category, tx_type, amount, currency, synced, sync_error, version, created_at
FROM captured_expenses
WHERE synced = 0 AND sync_error = 0
ORDER BY created_at ASC
LIMIT ?
`

func (q *Queries) GetPendingSyncExpenses(ctx context.Context, limit int64) ([]CapturedExpense, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncExpenses, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CapturedExpense
	for rows.Next() {
		var e CapturedExpense
		if err := rows.Scan(
			&e.ID,
			&e.UUID,
			&e.Date,
			&e.Description,
			&e.Merchant,
			&e.Category,
			&e.TxType,
			&e.Amount,
			&e.Currency,
			&e.Synced,
			&e.SyncError,
			&e.Version,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markExpenseSynced = `
UPDATE captured_expenses
SET synced = 1, sync_error = 0, version = version + 1
WHERE id = ?
`

func (q *Queries) MarkExpenseSynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markExpenseSynced, id)
	return err
}

const markExpenseSyncError = `
UPDATE captured_expenses
SET sync_error = 1, version = version + 1
WHERE id = ?
`

func (q *Queries) MarkExpenseSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markExpenseSyncError, id)
	return err
}

const countPendingSync = `
SELECT COUNT(*) FROM captured_expenses WHERE synced = 0 AND sync_error = 0
`

func (q *Queries) CountPendingSync(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPendingSync)
	var n int64
	err := row.Scan(&n)
	return n, err
}
