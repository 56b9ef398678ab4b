package letters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"coverletter-backend/letter"
)

func setupLetterRouter(t *testing.T) (*gin.Engine, *MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepo(time.Hour)
	svc := &Service{
		Repo:             repo,
		LLM:              &staticLLM{text: "Dear Hiring Manager,"},
		Model:            "text-model",
		TemplatesEnabled: true,
	}
	handler := NewHandler(svc)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, nil)

	return router, repo
}

func seedReadyLetter(t *testing.T, repo *MemoryRepo, id, content string) Letter {
	t.Helper()
	now := time.Now().UTC()
	rec := Letter{
		ID:               id,
		Status:           StatusReady,
		ResumeText:       "resume",
		JobDescription:   "job",
		Industry:         letter.DefaultIndustry,
		Tone:             letter.DefaultTone,
		Theme:            letter.ThemeDark,
		Template:         letter.TemplateModern,
		Model:            "text-model",
		Content:          content,
		PromptTokens:     42,
		CompletionTokens: 17,
		CreatedAt:        now,
		CompletedAt:      &now,
		UpdatedAt:        now,
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("create letter: %v", err)
	}
	return rec
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateLetterAccepted(t *testing.T) {
	router, repo := setupLetterRouter(t)

	resp := postJSON(t, router, "/api/v1/letters", map[string]string{
		"resumeText":     "Jane Doe, Software Engineer",
		"jobDescription": "Backend engineer role",
	})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		LetterID string `json:"letterId"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.LetterID == "" {
		t.Fatalf("expected letterId, got empty")
	}
	if created.Status != StatusQueued {
		t.Fatalf("expected status queued, got %s", created.Status)
	}

	got, err := repo.GetByID(context.Background(), created.LetterID)
	if err != nil {
		t.Fatalf("get letter: %v", err)
	}
	if got.JobDescription != "Backend engineer role" {
		t.Fatalf("expected job description stored, got %q", got.JobDescription)
	}
}

func TestCreateLetterMissingFieldsReturnsCanonicalMessage(t *testing.T) {
	router, _ := setupLetterRouter(t)

	resp := postJSON(t, router, "/api/v1/letters", map[string]string{
		"resumeText": "   ",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	var decoded struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details []struct {
				Field string `json:"field"`
				Issue string `json:"issue"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %s", decoded.Error.Code)
	}
	if decoded.Error.Message != MissingFieldsMessage {
		t.Fatalf("expected canonical message, got %q", decoded.Error.Message)
	}
	if len(decoded.Error.Details) != 2 {
		t.Fatalf("expected two field issues, got %#v", decoded.Error.Details)
	}
}

func TestCreateLetterRejectsMalformedBody(t *testing.T) {
	router, _ := setupLetterRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/letters", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestGetLetterReadyIncludesFormatted(t *testing.T) {
	router, repo := setupLetterRouter(t)
	seedReadyLetter(t, repo, "letter-ready", "Dear Hiring Manager,\n\nI am excited to apply.")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters/letter-ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var decoded struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Model     string `json:"model"`
		Letter    string `json:"letter"`
		Formatted string `json:"formatted"`
		Usage     *struct {
			PromptTokens     int `json:"promptTokens"`
			CompletionTokens int `json:"completionTokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Status != StatusReady {
		t.Fatalf("expected status ready, got %s", decoded.Status)
	}
	if decoded.Letter != "Dear Hiring Manager,\n\nI am excited to apply." {
		t.Fatalf("unexpected letter text: %q", decoded.Letter)
	}
	if !strings.HasPrefix(decoded.Formatted, "COVER LETTER") {
		t.Fatalf("expected modern framing, got %q", decoded.Formatted)
	}
	if !strings.Contains(decoded.Formatted, decoded.Letter) {
		t.Fatalf("expected formatted text to contain the raw letter")
	}
	if decoded.Model != "text-model" {
		t.Fatalf("expected model in response, got %q", decoded.Model)
	}
	if decoded.Usage == nil || decoded.Usage.PromptTokens != 42 {
		t.Fatalf("expected usage in response, got %#v", decoded.Usage)
	}
}

func TestGetLetterNotFound(t *testing.T) {
	router, _ := setupLetterRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters/missing", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestDownloadReturnsAttachment(t *testing.T) {
	router, repo := setupLetterRouter(t)
	content := "Dear Hiring Manager,\n\nI am excited to apply.\n"
	seedReadyLetter(t, repo, "letter-dl", content)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters/letter-dl/download", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != letter.ContentType {
		t.Fatalf("expected content type %q, got %q", letter.ContentType, got)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, letter.FileName) {
		t.Fatalf("expected attachment named %s, got %q", letter.FileName, got)
	}
	if resp.Body.String() != content {
		t.Fatalf("expected body to match stored letter exactly, got %q", resp.Body.String())
	}
}

func TestDownloadPendingLetterConflicts(t *testing.T) {
	router, repo := setupLetterRouter(t)
	queueLetter(t, repo, "letter-wip")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters/letter-wip/download", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}

	var decoded struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Error.Code != "not_ready" {
		t.Fatalf("expected not_ready, got %s", decoded.Error.Code)
	}
}

func TestDownloadEditedEchoesBytes(t *testing.T) {
	router, _ := setupLetterRouter(t)
	edited := "Dear Team,\n\nEdited by hand before saving.\n"

	resp := postJSON(t, router, "/api/v1/letters/download", map[string]string{"letter": edited})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if resp.Body.String() != edited {
		t.Fatalf("expected body to match submitted text exactly, got %q", resp.Body.String())
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, letter.FileName) {
		t.Fatalf("expected attachment named %s, got %q", letter.FileName, got)
	}
}

func TestDownloadEditedRequiresText(t *testing.T) {
	router, _ := setupLetterRouter(t)

	resp := postJSON(t, router, "/api/v1/letters/download", map[string]string{"letter": "   "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestListLettersCapsLimit(t *testing.T) {
	router, repo := setupLetterRouter(t)
	for _, id := range []string{"letter-a", "letter-b", "letter-c"} {
		seedReadyLetter(t, repo, id, "content")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/letters?limit=2", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if _, ok := items[0]["letterId"]; !ok {
		t.Fatalf("expected letterId in summaries, got %#v", items[0])
	}
}
