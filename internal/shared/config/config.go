package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	GroqAPIKey       string
	GroqBaseURL      string
	TextModel        string
	VisionModel      string
	LLMTimeout       time.Duration
	LLMMaxConcurrent int

	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string
	RecordTTL     time.Duration

	MaxUploadBytes int64

	VisionExtraction      bool
	PresentationTemplates bool
	ExtractTextLayer      bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load()
	_ = godotenv.Load("cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	apiKey := os.Getenv("GROQ_API_KEY")

	if env == "production" && apiKey == "" {
		log.Printf("GROQ_API_KEY is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		GroqAPIKey:       apiKey,
		GroqBaseURL:      getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		TextModel:        getEnv("TEXT_MODEL", "llama-3.3-70b-versatile"),
		VisionModel:      getEnv("VISION_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
		LLMTimeout:       time.Duration(getInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		LLMMaxConcurrent: getInt("LLM_MAX_CONCURRENT", 4),

		Store:         normalizeStoreType(getEnv("STORE", "memory")),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RecordTTL:     time.Duration(getInt("RECORD_TTL_MINUTES", 60)) * time.Minute,

		MaxUploadBytes: int64(getInt("MAX_UPLOAD_MB", 10)) << 20,

		VisionExtraction:      getBool("VISION_EXTRACTION", true),
		PresentationTemplates: getBool("PRESENTATION_TEMPLATES", true),
		ExtractTextLayer:      getBool("EXTRACT_TEXT_LAYER", false),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return val
}

func getBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("invalid %s=%q, using %t", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	case "postgres", "pg":
		return "postgres"
	default:
		return "memory"
	}
}
