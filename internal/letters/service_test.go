package letters

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"coverletter-backend/internal/llm"
	"coverletter-backend/letter"
)

type staticLLM struct {
	calls int
	text  string
}

func (s *staticLLM) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	_ = ctx
	_ = req
	s.calls++
	return llm.Completion{Text: s.text, Usage: llm.Usage{PromptTokens: 42, CompletionTokens: 17, TotalTokens: 59}}, nil
}

type captureLLM struct {
	calls int
	req   llm.Request
	text  string
}

func (c *captureLLM) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	_ = ctx
	c.calls++
	c.req = req
	return llm.Completion{Text: c.text, Usage: llm.Usage{PromptTokens: 42, CompletionTokens: 17, TotalTokens: 59}}, nil
}

type timeoutLLM struct{}

func (timeoutLLM) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	_ = ctx
	_ = req
	return llm.Completion{}, context.DeadlineExceeded
}

type erroringLLM struct {
	err error
}

func (e erroringLLM) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	_ = ctx
	_ = req
	return llm.Completion{}, e.err
}

func setupService(t *testing.T, client llm.Client) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo(time.Hour)
	svc := &Service{
		Repo:             repo,
		LLM:              client,
		Model:            "text-model",
		TemplatesEnabled: true,
	}
	return svc, repo
}

func queueLetter(t *testing.T, repo *MemoryRepo, id string) Letter {
	t.Helper()
	now := time.Now().UTC()
	rec := Letter{
		ID:             id,
		Status:         StatusQueued,
		ResumeText:     "Jane Doe\nSoftware Engineer\n10 years of Go experience",
		JobDescription: "Backend engineer building payment systems",
		Industry:       letter.DefaultIndustry,
		Tone:           letter.DefaultTone,
		Model:          "text-model",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("create letter: %v", err)
	}
	return rec
}

func TestCreateRejectsWhenBothFieldsMissing(t *testing.T) {
	client := &staticLLM{text: "letter"}
	svc, repo := setupService(t, client)

	_, err := svc.Create(context.Background(), CreateInput{ResumeText: "   ", JobDescription: ""})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vErr.Message != MissingFieldsMessage {
		t.Fatalf("expected canonical message, got %q", vErr.Message)
	}
	if len(vErr.Details) != 2 {
		t.Fatalf("expected two field issues, got %#v", vErr.Details)
	}
	if client.calls != 0 {
		t.Fatalf("expected no model calls, got %d", client.calls)
	}

	recs, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list letters: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records for rejected request, got %d", len(recs))
	}
}

func TestCreateRejectsWhenResumeMissing(t *testing.T) {
	client := &staticLLM{text: "letter"}
	svc, _ := setupService(t, client)

	_, err := svc.Create(context.Background(), CreateInput{JobDescription: "A job"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vErr.Message != MissingFieldsMessage {
		t.Fatalf("expected canonical message, got %q", vErr.Message)
	}
	if len(vErr.Details) != 1 || vErr.Details[0].Field != "resumeText" {
		t.Fatalf("expected resumeText issue, got %#v", vErr.Details)
	}
	if client.calls != 0 {
		t.Fatalf("expected no model calls, got %d", client.calls)
	}
}

func TestCreateRejectsWhenJobDescriptionMissing(t *testing.T) {
	svc, _ := setupService(t, &staticLLM{text: "letter"})

	_, err := svc.Create(context.Background(), CreateInput{ResumeText: "A resume"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(vErr.Details) != 1 || vErr.Details[0].Field != "jobDescription" {
		t.Fatalf("expected jobDescription issue, got %#v", vErr.Details)
	}
}

func TestCreateRejectsUnknownTone(t *testing.T) {
	client := &staticLLM{text: "letter"}
	svc, _ := setupService(t, client)

	_, err := svc.Create(context.Background(), CreateInput{
		ResumeText:     "A resume",
		JobDescription: "A job",
		Tone:           "Sarcastic",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(vErr.Details) != 1 || vErr.Details[0].Field != "tone" {
		t.Fatalf("expected tone issue, got %#v", vErr.Details)
	}
	if client.calls != 0 {
		t.Fatalf("expected no model calls, got %d", client.calls)
	}
}

func TestCreateDefaultsIndustryAndTone(t *testing.T) {
	svc, _ := setupService(t, &staticLLM{text: "letter"})

	rec, err := svc.Create(context.Background(), CreateInput{
		ResumeText:     "A resume",
		JobDescription: "A job",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Status != StatusQueued {
		t.Fatalf("expected status queued, got %s", rec.Status)
	}
	if rec.Industry != letter.DefaultIndustry {
		t.Fatalf("expected default industry, got %q", rec.Industry)
	}
	if rec.Tone != letter.DefaultTone {
		t.Fatalf("expected default tone, got %q", rec.Tone)
	}
	if rec.Model != "text-model" {
		t.Fatalf("expected configured model, got %q", rec.Model)
	}
}

func TestCreateRejectsTemplateWhenDisabled(t *testing.T) {
	svc, _ := setupService(t, &staticLLM{text: "letter"})
	svc.TemplatesEnabled = false

	_, err := svc.Create(context.Background(), CreateInput{
		ResumeText:     "A resume",
		JobDescription: "A job",
		Template:       letter.TemplateModern,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(vErr.Details) != 1 || vErr.Details[0].Issue != "not_enabled" {
		t.Fatalf("expected not_enabled issue, got %#v", vErr.Details)
	}
}

func TestCreateDefaultsThemeWithTemplate(t *testing.T) {
	svc, _ := setupService(t, &staticLLM{text: "letter"})

	rec, err := svc.Create(context.Background(), CreateInput{
		ResumeText:     "A resume",
		JobDescription: "A job",
		Template:       letter.TemplateModern,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Theme != letter.ThemeLight {
		t.Fatalf("expected light theme default, got %q", rec.Theme)
	}
}

func TestGenerationBuildsPromptFromRecord(t *testing.T) {
	client := &captureLLM{text: "Dear Hiring Manager,\n\nI am excited to apply."}
	svc, repo := setupService(t, client)
	svc.Sem = make(chan struct{}, 1)

	rec := queueLetter(t, repo, "letter-prompt")
	svc.completeAsync(context.Background(), rec.ID)

	if client.calls != 1 {
		t.Fatalf("expected exactly one model call, got %d", client.calls)
	}
	if client.req.Model != "text-model" {
		t.Fatalf("expected configured model, got %s", client.req.Model)
	}
	if len(client.req.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(client.req.Messages))
	}
	if client.req.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("expected system role first, got %s", client.req.Messages[0].Role)
	}
	user := client.req.Messages[1].Text
	if !strings.Contains(user, "Technology industry") {
		t.Fatalf("expected industry in prompt, got %q", user)
	}
	if !strings.Contains(user, "Professional style") {
		t.Fatalf("expected tone in prompt, got %q", user)
	}
	if !strings.Contains(user, rec.ResumeText) {
		t.Fatalf("expected resume text in prompt")
	}
	if !strings.Contains(user, rec.JobDescription) {
		t.Fatalf("expected job description in prompt")
	}

	got, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get letter: %v", err)
	}
	if got.Status != StatusReady {
		t.Fatalf("expected status ready, got %s", got.Status)
	}
	if got.Content != client.text {
		t.Fatalf("unexpected letter content: %q", got.Content)
	}
	if got.PromptTokens != 42 || got.CompletionTokens != 17 {
		t.Fatalf("expected usage to be stored, got %d/%d", got.PromptTokens, got.CompletionTokens)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
}

func TestFailureCodeLLMTimeout(t *testing.T) {
	svc, repo := setupService(t, timeoutLLM{})

	rec := queueLetter(t, repo, "letter-timeout")
	svc.completeAsync(context.Background(), rec.ID)

	got, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get letter: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeLLMTimeout {
		t.Fatalf("expected error code %s, got %s", ErrorCodeLLMTimeout, got.ErrorCode)
	}
	if !got.Retryable {
		t.Fatalf("expected retryable true for timeout")
	}
}

func TestFailureCodeGeneration(t *testing.T) {
	svc, repo := setupService(t, erroringLLM{err: errors.New("groq error: model overloaded (service_unavailable)")})

	rec := queueLetter(t, repo, "letter-upstream")
	svc.completeAsync(context.Background(), rec.ID)

	got, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get letter: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeGeneration {
		t.Fatalf("expected error code %s, got %s", ErrorCodeGeneration, got.ErrorCode)
	}
	if got.Retryable {
		t.Fatalf("expected retryable false for upstream error")
	}
	if got.ErrorMessage == "" {
		t.Fatalf("expected error message to be recorded")
	}
}

type failingMarkReadyRepo struct {
	*MemoryRepo
}

func (f failingMarkReadyRepo) MarkReady(ctx context.Context, letterID, content string, usage llm.Usage, completedAt time.Time) error {
	_ = ctx
	_ = letterID
	_ = content
	_ = usage
	_ = completedAt
	return errors.New("connection reset")
}

func TestFailureCodeStorage(t *testing.T) {
	repo := NewMemoryRepo(time.Hour)
	svc := &Service{
		Repo:  failingMarkReadyRepo{MemoryRepo: repo},
		LLM:   &staticLLM{text: "letter"},
		Model: "text-model",
	}

	queueLetter(t, repo, "letter-storage")
	svc.completeAsync(context.Background(), "letter-storage")

	got, err := repo.GetByID(context.Background(), "letter-storage")
	if err != nil {
		t.Fatalf("get letter: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeStorage {
		t.Fatalf("expected error code %s, got %s", ErrorCodeStorage, got.ErrorCode)
	}
	if !got.Retryable {
		t.Fatalf("expected retryable true for storage failure")
	}
}

func TestDownloadRequiresReady(t *testing.T) {
	svc, repo := setupService(t, &staticLLM{text: "letter"})

	rec := queueLetter(t, repo, "letter-pending")
	if _, err := svc.Download(context.Background(), rec.ID); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if _, err := svc.Download(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
