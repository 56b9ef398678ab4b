package letters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"coverletter-backend/internal/llm"
)

const (
	redisKeyPrefix = "letter:"
	redisScanCount = 500
)

// RedisRepo stores letters in Redis with a native TTL, so expiry needs
// no janitor and records are shared across replicas.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepo constructs a RedisRepo. A non-positive ttl disables expiry.
func NewRedisRepo(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{client: client, ttl: ttl}
}

// Create stores the letter.
func (r *RedisRepo) Create(ctx context.Context, letter Letter) error {
	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal letter: %w", err)
	}
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, redisKeyPrefix+letter.ID, payload, ttl).Err()
}

// GetByID returns a letter by its ID.
func (r *RedisRepo) GetByID(ctx context.Context, letterID string) (Letter, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+letterID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Letter{}, ErrNotFound
	}
	if err != nil {
		return Letter{}, err
	}
	var letter Letter
	if err := json.Unmarshal(data, &letter); err != nil {
		return Letter{}, fmt.Errorf("unmarshal letter: %w", err)
	}
	return letter, nil
}

// MarkGenerating moves a queued letter into the generating state.
func (r *RedisRepo) MarkGenerating(ctx context.Context, letterID string, startedAt time.Time) error {
	return r.update(ctx, letterID, func(letter *Letter) {
		letter.Status = StatusGenerating
		letter.StartedAt = &startedAt
	})
}

// MarkReady records the generated letter text and token usage.
func (r *RedisRepo) MarkReady(ctx context.Context, letterID, content string, usage llm.Usage, completedAt time.Time) error {
	return r.update(ctx, letterID, func(letter *Letter) {
		letter.Status = StatusReady
		letter.Content = content
		letter.PromptTokens = usage.PromptTokens
		letter.CompletionTokens = usage.CompletionTokens
		letter.CompletedAt = &completedAt
	})
}

// MarkFailed records a terminal failure.
func (r *RedisRepo) MarkFailed(ctx context.Context, letterID, code, message string, retryable bool, completedAt time.Time) error {
	return r.update(ctx, letterID, func(letter *Letter) {
		letter.Status = StatusFailed
		letter.ErrorCode = code
		letter.ErrorMessage = message
		letter.Retryable = retryable
		letter.CompletedAt = &completedAt
	})
}

// List returns letters newest-first with limit/offset. Keys are walked
// with SCAN, so the listing is best-effort under concurrent writes.
func (r *RedisRepo) List(ctx context.Context, limit, offset int) ([]Letter, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, redisKeyPrefix+"*", redisScanCount).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 || len(keys) >= redisScanCount {
			break
		}
	}
	if len(keys) == 0 {
		return []Letter{}, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	letters := make([]Letter, 0, len(values))
	for _, raw := range values {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var letter Letter
		if err := json.Unmarshal([]byte(str), &letter); err != nil {
			continue
		}
		letters = append(letters, letter)
	}
	sort.Slice(letters, func(i, j int) bool {
		return letters[i].CreatedAt.After(letters[j].CreatedAt)
	})

	if offset >= len(letters) {
		return []Letter{}, nil
	}
	end := len(letters)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return letters[offset:end], nil
}

func (r *RedisRepo) update(ctx context.Context, letterID string, apply func(*Letter)) error {
	letter, err := r.GetByID(ctx, letterID)
	if err != nil {
		return err
	}
	apply(&letter)
	letter.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal letter: %w", err)
	}
	return r.client.Set(ctx, redisKeyPrefix+letterID, payload, redis.KeepTTL).Err()
}
