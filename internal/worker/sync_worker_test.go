package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/storage"
)

type fakeBackend struct {
	created []core.Transaction
	failAll bool
}

func (f *fakeBackend) CreateExpense(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if f.failAll {
		return core.Transaction{}, errors.New("backend unavailable")
	}
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeBackend) CreateExpensesBulk(_ context.Context, list []core.Transaction) ([]core.Transaction, error) {
	if f.failAll {
		return nil, errors.New("backend unavailable")
	}
	f.created = append(f.created, list...)
	return list, nil
}

func newWorkerWithCapture(t *testing.T, backend ExpensePusher) (*SyncWorker, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewSyncWorker(repo, backend, 10), repo
}

func captureExpense(t *testing.T, repo *storage.SQLiteRepository, desc string) storage.CapturedExpense {
	t.Helper()
	row, err := repo.CreateCaptured(context.Background(), core.Transaction{
		ID:          "uuid-" + desc,
		Description: desc,
		Amount:      20,
		Type:        core.TypeExpense,
		Category:    "Food",
		Currency:    "USD",
		Date:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateCaptured: %v", err)
	}
	return row
}

func TestHandleCapturedMessage(t *testing.T) {
	backend := &fakeBackend{}
	w, repo := newWorkerWithCapture(t, backend)
	ctx := context.Background()

	row := captureExpense(t, repo, "Lunch")

	msg := amqp.NewExpenseCapturedMessage(row.ID, row.Version)
	if err := w.HandleCapturedMessage(ctx, msg); err != nil {
		t.Fatalf("HandleCapturedMessage: %v", err)
	}

	if len(backend.created) != 1 || backend.created[0].Description != "Lunch" {
		t.Errorf("unexpected pushed expenses: %+v", backend.created)
	}

	synced, err := repo.GetCaptured(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetCaptured: %v", err)
	}
	if synced.Synced != 1 {
		t.Error("expected row marked synced after push")
	}
}

func TestHandleCapturedMessageSkipsAlreadySynced(t *testing.T) {
	backend := &fakeBackend{}
	w, repo := newWorkerWithCapture(t, backend)
	ctx := context.Background()

	row := captureExpense(t, repo, "Lunch")
	if err := repo.MarkSynced(ctx, row.ID); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	if err := w.HandleCapturedMessage(ctx, amqp.NewExpenseCapturedMessage(row.ID, row.Version)); err != nil {
		t.Fatalf("HandleCapturedMessage: %v", err)
	}
	if len(backend.created) != 0 {
		t.Error("already synced expense should not be pushed again")
	}
}

func TestHandleCapturedMessageBackendFailure(t *testing.T) {
	backend := &fakeBackend{failAll: true}
	w, repo := newWorkerWithCapture(t, backend)
	ctx := context.Background()

	row := captureExpense(t, repo, "Lunch")

	if err := w.HandleCapturedMessage(ctx, amqp.NewExpenseCapturedMessage(row.ID, row.Version)); err == nil {
		t.Fatal("expected error when backend push fails")
	}

	got, err := repo.GetCaptured(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetCaptured: %v", err)
	}
	if got.SyncError != 1 {
		t.Error("expected sync error flag after backend failure")
	}
}

func TestProcessPending(t *testing.T) {
	backend := &fakeBackend{}
	w, repo := newWorkerWithCapture(t, backend)
	ctx := context.Background()

	captureExpense(t, repo, "One")
	captureExpense(t, repo, "Two")

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	if len(backend.created) != 2 {
		t.Fatalf("expected 2 pushed expenses, got %d", len(backend.created))
	}

	count, err := repo.CountPending(ctx)
	if err != nil {
		t.Fatalf("CountPending: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no pending after sweep, got %d", count)
	}
}

func TestStartupSyncCheckEmpty(t *testing.T) {
	backend := &fakeBackend{}
	w, _ := newWorkerWithCapture(t, backend)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if len(backend.created) != 0 {
		t.Error("nothing should be pushed with empty queue")
	}
}
