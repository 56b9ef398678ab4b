package letters

import (
	"context"
	"time"

	"coverletter-backend/internal/llm"
)

// Repo defines persistence operations for letters.
type Repo interface {
	Create(ctx context.Context, letter Letter) error
	GetByID(ctx context.Context, letterID string) (Letter, error)
	MarkGenerating(ctx context.Context, letterID string, startedAt time.Time) error
	MarkReady(ctx context.Context, letterID, content string, usage llm.Usage, completedAt time.Time) error
	MarkFailed(ctx context.Context, letterID, code, message string, retryable bool, completedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]Letter, error)
}
