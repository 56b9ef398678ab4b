package extractions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "extraction:"

// RedisRepo stores extractions in Redis with a native TTL.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepo constructs a RedisRepo. A non-positive ttl disables expiry.
func NewRedisRepo(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{client: client, ttl: ttl}
}

// Create stores the extraction.
func (r *RedisRepo) Create(ctx context.Context, extraction Extraction) error {
	payload, err := json.Marshal(extraction)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, redisKeyPrefix+extraction.ID, payload, ttl).Err()
}

// GetByID returns an extraction by its ID.
func (r *RedisRepo) GetByID(ctx context.Context, extractionID string) (Extraction, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+extractionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Extraction{}, ErrNotFound
	}
	if err != nil {
		return Extraction{}, err
	}
	var extraction Extraction
	if err := json.Unmarshal(data, &extraction); err != nil {
		return Extraction{}, fmt.Errorf("unmarshal extraction: %w", err)
	}
	return extraction, nil
}

// MarkExtracting moves a queued extraction into the extracting state.
func (r *RedisRepo) MarkExtracting(ctx context.Context, extractionID string, startedAt time.Time) error {
	return r.update(ctx, extractionID, func(extraction *Extraction) {
		extraction.Status = StatusExtracting
		extraction.StartedAt = &startedAt
	})
}

// MarkExtracted records the recovered text and how it was obtained.
func (r *RedisRepo) MarkExtracted(ctx context.Context, extractionID, text, method string, completedAt time.Time) error {
	return r.update(ctx, extractionID, func(extraction *Extraction) {
		extraction.Status = StatusExtracted
		extraction.Text = text
		extraction.Method = method
		extraction.CompletedAt = &completedAt
	})
}

// MarkFailed records a terminal failure.
func (r *RedisRepo) MarkFailed(ctx context.Context, extractionID, code, message string, retryable bool, completedAt time.Time) error {
	return r.update(ctx, extractionID, func(extraction *Extraction) {
		extraction.Status = StatusFailed
		extraction.ErrorCode = code
		extraction.ErrorMessage = message
		extraction.Retryable = retryable
		extraction.CompletedAt = &completedAt
	})
}

func (r *RedisRepo) update(ctx context.Context, extractionID string, apply func(*Extraction)) error {
	extraction, err := r.GetByID(ctx, extractionID)
	if err != nil {
		return err
	}
	apply(&extraction)
	extraction.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(extraction)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	return r.client.Set(ctx, redisKeyPrefix+extractionID, payload, redis.KeepTTL).Err()
}
