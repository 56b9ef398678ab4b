package extractions

import (
	"context"
	"sync"
	"time"

	"coverletter-backend/internal/shared/telemetry"
)

// MemoryRepo stores extractions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Extraction
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo. A non-positive ttl disables expiry.
func NewMemoryRepo(ttl time.Duration) *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Extraction),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Create stores the extraction.
func (r *MemoryRepo) Create(ctx context.Context, extraction Extraction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[extraction.ID] = extraction
	return nil
}

// GetByID returns an extraction by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, extractionID string) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	extraction, ok := r.byID[extractionID]
	if !ok || r.expired(extraction) {
		return Extraction{}, ErrNotFound
	}
	return extraction, nil
}

// MarkExtracting moves a queued extraction into the extracting state.
func (r *MemoryRepo) MarkExtracting(ctx context.Context, extractionID string, startedAt time.Time) error {
	return r.update(ctx, extractionID, func(extraction *Extraction) {
		extraction.Status = StatusExtracting
		extraction.StartedAt = &startedAt
	})
}

// MarkExtracted records the recovered text and how it was obtained.
func (r *MemoryRepo) MarkExtracted(ctx context.Context, extractionID, text, method string, completedAt time.Time) error {
	return r.update(ctx, extractionID, func(extraction *Extraction) {
		extraction.Status = StatusExtracted
		extraction.Text = text
		extraction.Method = method
		extraction.CompletedAt = &completedAt
	})
}

// MarkFailed records a terminal failure.
func (r *MemoryRepo) MarkFailed(ctx context.Context, extractionID, code, message string, retryable bool, completedAt time.Time) error {
	return r.update(ctx, extractionID, func(extraction *Extraction) {
		extraction.Status = StatusFailed
		extraction.ErrorCode = code
		extraction.ErrorMessage = message
		extraction.Retryable = retryable
		extraction.CompletedAt = &completedAt
	})
}

// StartJanitor purges expired extractions until ctx is cancelled.
func (r *MemoryRepo) StartJanitor(ctx context.Context, every time.Duration) {
	if r.ttl <= 0 {
		return
	}
	if every <= 0 {
		every = time.Minute
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if purged := r.purgeExpired(); purged > 0 {
					telemetry.Info("extractions.janitor", map[string]any{"purged": purged})
				}
			}
		}
	}()
}

func (r *MemoryRepo) update(ctx context.Context, extractionID string, apply func(*Extraction)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	extraction, ok := r.byID[extractionID]
	if !ok || r.expired(extraction) {
		return ErrNotFound
	}
	apply(&extraction)
	extraction.UpdatedAt = r.now().UTC()
	r.byID[extractionID] = extraction
	return nil
}

func (r *MemoryRepo) expired(extraction Extraction) bool {
	if r.ttl <= 0 {
		return false
	}
	return r.now().Sub(extraction.CreatedAt) > r.ttl
}

func (r *MemoryRepo) purgeExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := 0
	for id, extraction := range r.byID {
		if r.expired(extraction) {
			delete(r.byID, id)
			purged++
		}
	}
	return purged
}
