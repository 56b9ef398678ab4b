package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/config"
)

func testConfig() config.Config {
	return config.Config{
		Port:                  "0",
		Env:                   "dev",
		CORSAllowOrigin:       []string{"http://localhost:5173"},
		TextModel:             "text-model",
		VisionModel:           "vision-model",
		LLMMaxConcurrent:      2,
		Store:                 "memory",
		RecordTTL:             time.Hour,
		MaxUploadBytes:        1 << 20,
		VisionExtraction:      true,
		PresentationTemplates: true,
	}
}

func TestRouterHealthAndCapabilities(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", resp.Code)
	}
	var health struct {
		OK            bool   `json:"ok"`
		Store         string `json:"store"`
		LLMConfigured bool   `json:"llmConfigured"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if !health.OK {
		t.Fatalf("expected ok health, got %+v", health)
	}
	if health.Store != "memory" {
		t.Fatalf("expected memory store, got %q", health.Store)
	}
	if health.LLMConfigured {
		t.Fatalf("expected unconfigured llm without an api key")
	}

	reqCaps := httptest.NewRequest(http.MethodGet, "/api/v1/capabilities", nil)
	respCaps := httptest.NewRecorder()
	router.ServeHTTP(respCaps, reqCaps)
	if respCaps.Code != http.StatusOK {
		t.Fatalf("expected capabilities 200, got %d", respCaps.Code)
	}

	var caps struct {
		IndustryDefault       string   `json:"industryDefault"`
		Tones                 []string `json:"tones"`
		Themes                []string `json:"themes"`
		Templates             []string `json:"templates"`
		VisionExtraction      bool     `json:"visionExtraction"`
		PresentationTemplates bool     `json:"presentationTemplates"`
	}
	if err := json.NewDecoder(respCaps.Body).Decode(&caps); err != nil {
		t.Fatalf("decode capabilities: %v", err)
	}
	if caps.IndustryDefault != "Technology" {
		t.Fatalf("expected Technology default, got %q", caps.IndustryDefault)
	}
	if len(caps.Tones) != 4 {
		t.Fatalf("expected 4 tones, got %v", caps.Tones)
	}
	if len(caps.Themes) != 2 || len(caps.Templates) != 3 {
		t.Fatalf("expected theme and template lists, got %v / %v", caps.Themes, caps.Templates)
	}
	if !caps.VisionExtraction || !caps.PresentationTemplates {
		t.Fatalf("expected enabled feature flags, got %+v", caps)
	}
}

func TestRouterHidesExtractionRoutesWhenDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.VisionExtraction = false
	cfg.PresentationTemplates = false
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for disabled extractions, got %d", resp.Code)
	}

	reqCaps := httptest.NewRequest(http.MethodGet, "/api/v1/capabilities", nil)
	respCaps := httptest.NewRecorder()
	router.ServeHTTP(respCaps, reqCaps)

	var caps map[string]any
	if err := json.NewDecoder(respCaps.Body).Decode(&caps); err != nil {
		t.Fatalf("decode capabilities: %v", err)
	}
	if caps["visionExtraction"] != false {
		t.Fatalf("expected visionExtraction false, got %v", caps["visionExtraction"])
	}
	if _, ok := caps["templates"]; ok {
		t.Fatalf("expected no template list when presentation templates are disabled")
	}
}

func TestAddrNormalizesPort(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		"9000":  ":9000",
		":9000": ":9000",
	}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
