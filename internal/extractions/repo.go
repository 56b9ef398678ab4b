package extractions

import (
	"context"
	"time"
)

// Repo defines persistence operations for extractions. There is no
// Postgres implementation on purpose: extracted resume text lives only
// in expiring stores.
type Repo interface {
	Create(ctx context.Context, extraction Extraction) error
	GetByID(ctx context.Context, extractionID string) (Extraction, error)
	MarkExtracting(ctx context.Context, extractionID string, startedAt time.Time) error
	MarkExtracted(ctx context.Context, extractionID, text, method string, completedAt time.Time) error
	MarkFailed(ctx context.Context, extractionID, code, message string, retryable bool, completedAt time.Time) error
}
