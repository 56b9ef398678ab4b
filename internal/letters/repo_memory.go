package letters

import (
	"context"
	"sort"
	"sync"
	"time"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/telemetry"
)

// MemoryRepo stores letters in memory and is safe for concurrent use.
// Records older than the TTL are dropped, so nothing survives a restart
// or outlives the retention window.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Letter
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo. A non-positive ttl disables expiry.
func NewMemoryRepo(ttl time.Duration) *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Letter),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Create stores the letter.
func (r *MemoryRepo) Create(ctx context.Context, letter Letter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[letter.ID] = letter
	return nil
}

// GetByID returns a letter by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, letterID string) (Letter, error) {
	if err := ctx.Err(); err != nil {
		return Letter{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	letter, ok := r.byID[letterID]
	if !ok || r.expired(letter) {
		return Letter{}, ErrNotFound
	}
	return letter, nil
}

// MarkGenerating moves a queued letter into the generating state.
func (r *MemoryRepo) MarkGenerating(ctx context.Context, letterID string, startedAt time.Time) error {
	return r.update(ctx, letterID, func(letter *Letter) {
		letter.Status = StatusGenerating
		letter.StartedAt = &startedAt
	})
}

// MarkReady records the generated letter text and token usage.
func (r *MemoryRepo) MarkReady(ctx context.Context, letterID, content string, usage llm.Usage, completedAt time.Time) error {
	return r.update(ctx, letterID, func(letter *Letter) {
		letter.Status = StatusReady
		letter.Content = content
		letter.PromptTokens = usage.PromptTokens
		letter.CompletionTokens = usage.CompletionTokens
		letter.CompletedAt = &completedAt
	})
}

// MarkFailed records a terminal failure.
func (r *MemoryRepo) MarkFailed(ctx context.Context, letterID, code, message string, retryable bool, completedAt time.Time) error {
	return r.update(ctx, letterID, func(letter *Letter) {
		letter.Status = StatusFailed
		letter.ErrorCode = code
		letter.ErrorMessage = message
		letter.Retryable = retryable
		letter.CompletedAt = &completedAt
	})
}

// List returns letters newest-first with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Letter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	all := make([]Letter, 0, len(r.byID))
	for _, letter := range r.byID {
		if !r.expired(letter) {
			all = append(all, letter)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []Letter{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// StartJanitor purges expired letters until ctx is cancelled.
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
					telemetry.Info("letters.janitor", map[string]any{"purged": purged})
				}
			}
		}
	}()
}

func (r *MemoryRepo) update(ctx context.Context, letterID string, apply func(*Letter)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	letter, ok := r.byID[letterID]
	if !ok || r.expired(letter) {
		return ErrNotFound
	}
	apply(&letter)
	letter.UpdatedAt = r.now().UTC()
	r.byID[letterID] = letter
	return nil
}

func (r *MemoryRepo) expired(letter Letter) bool {
	if r.ttl <= 0 {
		return false
	}
	return r.now().Sub(letter.CreatedAt) > r.ttl
}

func (r *MemoryRepo) purgeExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := 0
	for id, letter := range r.byID {
		if r.expired(letter) {
			delete(r.byID, id)
			purged++
		}
	}
	return purged
}
