package extractions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/normalize"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/shared/util"
)

const (
	StatusQueued     = "queued"
	StatusExtracting = "extracting"
	StatusExtracted  = "extracted"
	StatusFailed     = "failed"
)

// Service contains business logic for resume text extraction.
type Service struct {
	Repo        Repo
	Normalizer  *normalize.Normalizer
	LLM         llm.Client
	VisionModel string

	// TextLayerProbe reads the embedded PDF text layer before falling
	// back to vision extraction.
	TextLayerProbe bool

	// Sem bounds concurrent model calls when non-nil.
	Sem chan struct{}

	// probeTextLayer is a seam for tests; nil means normalize.TextLayer.
	probeTextLayer func(data []byte) (string, error)
}

func (s *Service) textLayer(data []byte) (string, error) {
	if s.probeTextLayer != nil {
		return s.probeTextLayer(data)
	}
	return normalize.TextLayer(data)
}

// Create validates the upload, enqueues an extraction, and kicks off the
// asynchronous pipeline. The raw bytes travel with the worker goroutine
// and are never persisted.
func (s *Service) Create(ctx context.Context, fileName string, data []byte) (Extraction, error) {
	fileName, err := util.SanitizeFileName(fileName)
	if err != nil || len(data) == 0 {
		return Extraction{}, &ValidationError{
			Message: "a resume file is required",
			Details: []FieldIssue{{Field: "file", Issue: "required"}},
		}
	}
	if !normalize.Supported(fileName) {
		return Extraction{}, &ValidationError{
			Message: "unsupported file type; upload a .pdf, .png, .jpg or .jpeg resume",
			Details: []FieldIssue{{Field: "file", Issue: "unsupported_type"}},
		}
	}

	now := time.Now().UTC()
	rec := Extraction{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		FileName:  fileName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return Extraction{}, err
	}

	go s.completeAsync(telemetry.BackgroundWithRequestID(ctx), rec.ID, fileName, data)

	return rec, nil
}

// Get returns an extraction by ID.
func (s *Service) Get(ctx context.Context, extractionID string) (Extraction, error) {
	if extractionID == "" {
		return Extraction{}, errors.New("extractionID is required")
	}
	return s.Repo.GetByID(ctx, extractionID)
}

func (s *Service) completeAsync(ctx context.Context, extractionID, fileName string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.failExtraction(ctx, extractionID, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()
	if err := s.Repo.MarkExtracting(ctx, extractionID, startedAt); err != nil {
		s.failExtraction(ctx, extractionID, fmt.Errorf("set extracting failed: %w", err), &startedAt)
		return
	}
	metrics.IncExtractionStarted()
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"extraction_id":     extractionID,
		"status":            StatusExtracting,
		"status_transition": "queued->extracting",
		"file_name":         fileName,
	})

	if s.TextLayerProbe && normalize.IsPDF(fileName) {
		if text, err := s.textLayer(data); err == nil && text != "" {
			s.finishExtraction(ctx, extractionID, text, MethodTextLayer, startedAt)
			return
		}
		// No text layer or an unreadable one; the vision path decides.
	}

	img, err := s.Normalizer.Normalize(data, fileName)
	if err != nil {
		s.failExtraction(ctx, extractionID, fmt.Errorf("normalize resume: %w", err), &startedAt)
		return
	}
	if s.LLM == nil {
		s.failExtraction(ctx, extractionID, errors.New("missing llm client"), &startedAt)
		return
	}

	if s.Sem != nil {
		s.Sem <- struct{}{}
		defer func() { <-s.Sem }()
	}

	completion, err := s.LLM.Complete(ctx, llm.Request{
		Model:    s.VisionModel,
		Messages: llm.BuildExtractionMessages(llm.Image{MIME: img.MIME, Base64: img.Base64}),
	})
	if err != nil {
		s.failExtraction(ctx, extractionID, fmt.Errorf("extract text: %w", err), &startedAt)
		return
	}
	metrics.AddTokens(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	s.finishExtraction(ctx, extractionID, completion.Text, MethodVision, startedAt)
}

func (s *Service) finishExtraction(ctx context.Context, extractionID, text, method string, startedAt time.Time) {
	completedAt := time.Now().UTC()
	if err := s.Repo.MarkExtracted(ctx, extractionID, text, method, completedAt); err != nil {
		s.failExtraction(ctx, extractionID, fmt.Errorf("set extracted failed: %w", err), &startedAt)
		return
	}
	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"extraction_id":     extractionID,
		"status":            StatusExtracted,
		"status_transition": "extracting->extracted",
		"method":            method,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
}

func (s *Service) failExtraction(ctx context.Context, extractionID string, err error, startedAt *time.Time) {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.MarkFailed(context.Background(), extractionID, code, msg, retryable, completedAt); updateErr != nil {
		telemetry.Error("extractions.fail_update", map[string]any{
			"extraction_id": extractionID,
			"err":           updateErr.Error(),
			"orig":          msg,
		})
	}
	metrics.IncExtractionFailed()
	if startedAt != nil {
		metrics.ObserveExtractionDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        telemetry.RequestIDFromContext(ctx),
		"extraction_id":     extractionID,
		"status":            StatusFailed,
		"status_transition": "extracting->failed",
		"error_code":        code,
		"retryable":         retryable,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
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
	switch {
	case errors.Is(err, normalize.ErrNoPages):
		return ErrorCodeConversionEmpty, false
	case errors.Is(err, normalize.ErrUnsupportedType):
		return ErrorCodeValidation, false
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return ErrorCodeLLMTimeout, true
	case strings.Contains(msg, "normalize resume"):
		return ErrorCodeConversion, false
	case strings.Contains(msg, "extract text"):
		return ErrorCodeExtraction, false
	case strings.Contains(msg, "set extracting"),
		strings.Contains(msg, "set extracted"):
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
