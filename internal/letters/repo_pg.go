package letters

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"coverletter-backend/internal/llm"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new letter.
func (r *PGRepo) Create(ctx context.Context, letter Letter) error {
	const query = `
INSERT INTO letters (
	id, status, resume_text, job_description, industry, tone, theme, template,
	model, letter, prompt_tokens, completion_tokens, error_code, error_message,
	retryable, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.DB.ExecContext(ctx, query,
		letter.ID,
		letter.Status,
		letter.ResumeText,
		letter.JobDescription,
		letter.Industry,
		letter.Tone,
		letter.Theme,
		letter.Template,
		letter.Model,
		letter.Content,
		letter.PromptTokens,
		letter.CompletionTokens,
		letter.ErrorCode,
		letter.ErrorMessage,
		letter.Retryable,
		letter.CreatedAt,
		letter.UpdatedAt,
	)
	return err
}

// GetByID returns a letter by ID.
func (r *PGRepo) GetByID(ctx context.Context, letterID string) (Letter, error) {
	const query = `
SELECT id, status, resume_text, job_description, industry, tone, theme, template,
       model, letter, prompt_tokens, completion_tokens, error_code, error_message,
       retryable, created_at, started_at, completed_at, updated_at
FROM letters
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, letterID)
	letter, err := scanLetter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Letter{}, ErrNotFound
	}
	return letter, err
}

// MarkGenerating moves a queued letter into the generating state.
func (r *PGRepo) MarkGenerating(ctx context.Context, letterID string, startedAt time.Time) error {
	const query = `
UPDATE letters
SET status = $2, started_at = $3, updated_at = NOW()
WHERE id = $1`
	return r.exec(ctx, query, letterID, StatusGenerating, startedAt)
}

// MarkReady records the generated letter text and token usage.
func (r *PGRepo) MarkReady(ctx context.Context, letterID, content string, usage llm.Usage, completedAt time.Time) error {
	const query = `
UPDATE letters
SET status = $2, letter = $3, prompt_tokens = $4, completion_tokens = $5,
    completed_at = $6, updated_at = NOW()
WHERE id = $1`
	return r.exec(ctx, query, letterID, StatusReady, content, usage.PromptTokens, usage.CompletionTokens, completedAt)
}

// MarkFailed records a terminal failure.
func (r *PGRepo) MarkFailed(ctx context.Context, letterID, code, message string, retryable bool, completedAt time.Time) error {
	const query = `
UPDATE letters
SET status = $2, error_code = $3, error_message = $4, retryable = $5,
    completed_at = $6, updated_at = NOW()
WHERE id = $1`
	return r.exec(ctx, query, letterID, StatusFailed, code, message, retryable, completedAt)
}

// List returns letters newest-first with limit/offset.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Letter, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, status, resume_text, job_description, industry, tone, theme, template,
       model, letter, prompt_tokens, completion_tokens, error_code, error_message,
       retryable, created_at, started_at, completed_at, updated_at
FROM letters
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	letters := make([]Letter, 0, limit)
	for rows.Next() {
		letter, err := scanLetter(rows)
		if err != nil {
			return nil, err
		}
		letters = append(letters, letter)
	}
	return letters, rows.Err()
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLetter(row rowScanner) (Letter, error) {
	var letter Letter
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	err := row.Scan(
		&letter.ID,
		&letter.Status,
		&letter.ResumeText,
		&letter.JobDescription,
		&letter.Industry,
		&letter.Tone,
		&letter.Theme,
		&letter.Template,
		&letter.Model,
		&letter.Content,
		&letter.PromptTokens,
		&letter.CompletionTokens,
		&letter.ErrorCode,
		&letter.ErrorMessage,
		&letter.Retryable,
		&letter.CreatedAt,
		&startedAt,
		&completedAt,
		&letter.UpdatedAt,
	)
	if err != nil {
		return Letter{}, err
	}
	if startedAt.Valid {
		letter.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		letter.CompletedAt = &completedAt.Time
	}
	return letter, nil
}
