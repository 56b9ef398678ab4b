package letters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/letter"
)

const (
	StatusQueued     = "queued"
	StatusGenerating = "generating"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

var validate = validator.New()

// CreateInput carries a cover letter request into the service.
type CreateInput struct {
	ResumeText     string
	JobDescription string
	Industry       string
	Tone           string `validate:"omitempty,oneof=Professional Friendly Formal Casual"`
	Theme          string `validate:"omitempty,oneof=Light Dark"`
	Template       string `validate:"omitempty,oneof=Classic Modern Creative"`
}

// Service contains business logic for cover letter generation.
type Service struct {
	Repo             Repo
	LLM              llm.Client
	Model            string
	TemplatesEnabled bool

	// Sem bounds concurrent model calls when non-nil.
	Sem chan struct{}
}

// Create validates the submission, enqueues a letter, and kicks off
// asynchronous generation. Validation failures return before any model
// call and leave no record behind.
func (s *Service) Create(ctx context.Context, input CreateInput) (Letter, error) {
	resume := strings.TrimSpace(input.ResumeText)
	jobDescription := strings.TrimSpace(input.JobDescription)
	if resume == "" || jobDescription == "" {
		details := make([]FieldIssue, 0, 2)
		if resume == "" {
			details = append(details, FieldIssue{Field: "resumeText", Issue: "required"})
		}
		if jobDescription == "" {
			details = append(details, FieldIssue{Field: "jobDescription", Issue: "required"})
		}
		metrics.IncGenerationRejected()
		return Letter{}, &ValidationError{Message: MissingFieldsMessage, Details: details}
	}

	input.Tone = letter.NormalizeTone(input.Tone)
	input.Theme = strings.TrimSpace(input.Theme)
	input.Template = strings.TrimSpace(input.Template)
	if err := validate.Struct(input); err != nil {
		metrics.IncGenerationRejected()
		return Letter{}, invalidFieldsError(err)
	}

	if (input.Theme != "" || input.Template != "") && !s.TemplatesEnabled {
		details := make([]FieldIssue, 0, 2)
		if input.Theme != "" {
			details = append(details, FieldIssue{Field: "theme", Issue: "not_enabled"})
		}
		if input.Template != "" {
			details = append(details, FieldIssue{Field: "template", Issue: "not_enabled"})
		}
		metrics.IncGenerationRejected()
		return Letter{}, &ValidationError{Message: "presentation templates are not enabled", Details: details}
	}
	if input.Template != "" && input.Theme == "" {
		input.Theme = letter.ThemeLight
	}

	now := time.Now().UTC()
	rec := Letter{
		ID:             uuid.NewString(),
		Status:         StatusQueued,
		ResumeText:     resume,
		JobDescription: jobDescription,
		Industry:       letter.NormalizeIndustry(input.Industry),
		Tone:           input.Tone,
		Theme:          input.Theme,
		Template:       input.Template,
		Model:          s.Model,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Repo.Create(ctx, rec); err != nil {
		return Letter{}, err
	}

	go s.completeAsync(telemetry.BackgroundWithRequestID(ctx), rec.ID)

	return rec, nil
}

// Get returns a letter by ID.
func (s *Service) Get(ctx context.Context, letterID string) (Letter, error) {
	if letterID == "" {
		return Letter{}, errors.New("letterID is required")
	}
	return s.Repo.GetByID(ctx, letterID)
}

// List returns letters ordered newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Letter, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Download returns a ready letter for artifact delivery.
func (s *Service) Download(ctx context.Context, letterID string) (Letter, error) {
	rec, err := s.Get(ctx, letterID)
	if err != nil {
		return Letter{}, err
	}
	if rec.Status != StatusReady {
		return Letter{}, ErrNotReady
	}
	return rec, nil
}

func (s *Service) completeAsync(ctx context.Context, letterID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failLetter(ctx, letterID, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()
	if err := s.Repo.MarkGenerating(ctx, letterID, startedAt); err != nil {
		s.failLetter(ctx, letterID, fmt.Errorf("set generating failed: %w", err), &startedAt)
		return
	}

	rec, err := s.Repo.GetByID(ctx, letterID)
	if err != nil {
		s.failLetter(ctx, letterID, fmt.Errorf("letter lookup: %w", err), &startedAt)
		return
	}
	metrics.IncGenerationStarted()
	telemetry.Info("letter.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"letter_id":         rec.ID,
		"status":            StatusGenerating,
		"status_transition": "queued->generating",
	})
	if s.LLM == nil {
		s.failLetter(ctx, letterID, errors.New("missing llm client"), &startedAt)
		return
	}

	if s.Sem != nil {
		s.Sem <- struct{}{}
		defer func() { <-s.Sem }()
	}

	completion, err := s.LLM.Complete(ctx, llm.Request{
		Model:    rec.Model,
		Messages: llm.BuildCoverLetterMessages(rec.ResumeText, rec.JobDescription, rec.Industry, rec.Tone),
	})
	if err != nil {
		s.failLetter(ctx, letterID, fmt.Errorf("generate letter: %w", err), &startedAt)
		return
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.MarkReady(ctx, letterID, completion.Text, completion.Usage, completedAt); err != nil {
		s.failLetter(ctx, letterID, fmt.Errorf("set ready failed: %w", err), &startedAt)
		return
	}
	metrics.IncGenerationCompleted()
	metrics.AddTokens(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	metrics.ObserveGenerationDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("letter.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"letter_id":         rec.ID,
		"status":            StatusReady,
		"status_transition": "generating->ready",
		"duration_ms":       durationMs(&startedAt, &completedAt),
		"prompt_tokens":     completion.Usage.PromptTokens,
		"completion_tokens": completion.Usage.CompletionTokens,
	})
}

func (s *Service) failLetter(ctx context.Context, letterID string, err error, startedAt *time.Time) {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.MarkFailed(context.Background(), letterID, code, msg, retryable, completedAt); updateErr != nil {
		telemetry.Error("letters.fail_update", map[string]any{
			"letter_id": letterID,
			"err":       updateErr.Error(),
			"orig":      msg,
		})
	}
	metrics.IncGenerationFailed()
	if startedAt != nil {
		metrics.ObserveGenerationDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("letter.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"letter_id":         letterID,
		"status":            StatusFailed,
		"status_transition": "generating->failed",
		"error_code":        code,
		"retryable":         retryable,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func invalidFieldsError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: "invalid request fields"}
	}
	details := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldIssue{Field: strings.ToLower(fe.Field()), Issue: "invalid"})
	}
	return &ValidationError{Message: "invalid request fields", Details: details}
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return ErrorCodeLLMTimeout, true
	case strings.Contains(msg, "generate letter"):
		return ErrorCodeGeneration, false
	case strings.Contains(msg, "letter lookup"),
		strings.Contains(msg, "set generating"),
		strings.Contains(msg, "set ready"):
		return ErrorCodeStorage, true
	default:
		return ErrorCodeInternal, false
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
