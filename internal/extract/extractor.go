// Package extract turns uploaded documents (receipts, statements) into
// best-effort structured expenses. The default provider delegates to
// the backend extraction endpoint; a direct Gemini provider is
// available for deployments without that endpoint.
package extract

import (
	"context"
	"fmt"

	"finboard/internal/api"
	"finboard/internal/core"
)

// Extractor parses one document into a transaction. Results are
// best-effort: callers validate before persisting.
type Extractor interface {
	Extract(ctx context.Context, filename, mimeType string, data []byte) (core.Transaction, error)
}

// BackendType selects the extraction provider.
type BackendType string

const (
	RemoteBackend BackendType = "remote"
	GeminiBackend BackendType = "gemini"
)

// Config holds provider construction inputs.
type Config struct {
	Type        BackendType
	APIClient   *api.Client
	GeminiModel string
	// Categories constrain what the Gemini provider may assign.
	Categories []core.Category
}

// New creates the configured extractor.
func New(ctx context.Context, cfg Config) (Extractor, error) {
	switch cfg.Type {
	case RemoteBackend:
		if cfg.APIClient == nil {
			return nil, fmt.Errorf("remote extractor requires an API client")
		}
		return &remoteExtractor{client: cfg.APIClient}, nil
	case GeminiBackend:
		return newGeminiExtractor(ctx, cfg.GeminiModel, cfg.Categories)
	default:
		return nil, fmt.Errorf("unsupported extract backend: %s", cfg.Type)
	}
}

// remoteExtractor posts the file to the backend AI endpoint.
type remoteExtractor struct {
	client *api.Client
}

func (r *remoteExtractor) Extract(ctx context.Context, filename, mimeType string, data []byte) (core.Transaction, error) {
	tx, err := r.client.ExtractExpense(ctx, filename, mimeType, data)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("remote extraction: %w", err)
	}
	return tx, nil
}
