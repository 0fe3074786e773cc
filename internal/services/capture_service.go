package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/storage"
)

// CaptureService records expenses locally and notifies the sync worker.
// The local save is the source of truth; a failed publish never fails
// the capture, the periodic sweep picks the row up later.
type CaptureService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewCaptureService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *CaptureService {
	return &CaptureService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CaptureExpense validates and saves an expense locally, then publishes
// a sync notification.
func (s *CaptureService) CaptureExpense(ctx context.Context, t core.Transaction) (storage.CapturedExpense, error) {
	if err := t.Validate(); err != nil {
		return storage.CapturedExpense{}, fmt.Errorf("validate expense: %w", err)
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	row, err := s.storage.CreateCaptured(ctx, t)
	if err != nil {
		return storage.CapturedExpense{}, fmt.Errorf("save expense: %w", err)
	}

	if err := s.publishCapturedMessage(ctx, row.ID, row.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish captured message",
			"id", row.ID, "error", err)
		// Don't fail the request - expense is saved locally
	}

	return row, nil
}

// PendingCount reports how many captured expenses still await sync.
func (s *CaptureService) PendingCount(ctx context.Context) (int64, error) {
	return s.storage.CountPending(ctx)
}

func (s *CaptureService) publishCapturedMessage(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping captured message")
		return nil
	}

	return s.amqpClient.PublishExpenseCaptured(ctx, id, version)
}

// Close closes both storage and AMQP connections.
func (s *CaptureService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close capture service: %v", errs)
	}

	return nil
}
