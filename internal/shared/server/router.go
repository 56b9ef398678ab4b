package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"coverletter-backend/internal/extractions"
	"coverletter-backend/internal/letters"
	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/llm/groq"
	"coverletter-backend/internal/normalize"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
	"coverletter-backend/internal/shared/storage/db"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(rateLimits()),
	)

	// Dependencies
	letterRepo, extractionRepo, storeKind := newStores(cfg)
	client := newLLMClient(cfg)
	_, unconfigured := client.(llm.Unconfigured)

	var sem chan struct{}
	if cfg.LLMMaxConcurrent > 0 {
		sem = make(chan struct{}, cfg.LLMMaxConcurrent)
	}

	letterSvc := &letters.Service{
		Repo:             letterRepo,
		LLM:              client,
		Model:            cfg.TextModel,
		TemplatesEnabled: cfg.PresentationTemplates,
		Sem:              sem,
	}
	letterHandler := letters.NewHandler(letterSvc)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{
			"ok":            true,
			"store":         storeKind,
			"llmConfigured": !unconfigured,
		})
	})
	registerCapabilityRoutes(api, cfg)

	letterHandler.RegisterRoutes(api, middleware.PollLimit(middleware.NewPollLimiter(0, nil)))

	if cfg.VisionExtraction {
		extractionSvc := &extractions.Service{
			Repo:           extractionRepo,
			Normalizer:     normalize.New(normalize.FitzRenderer{}),
			LLM:            client,
			VisionModel:    cfg.VisionModel,
			TextLayerProbe: cfg.ExtractTextLayer,
			Sem:            sem,
		}
		extractionHandler := extractions.NewHandler(extractionSvc, cfg.MaxUploadBytes)
		extractionHandler.RegisterRoutes(api, middleware.PollLimit(middleware.NewPollLimiter(0, nil)))
	}

	r.GET("/metrics", metrics.Handler())

	return r
}

// newStores picks the persistence backend. Anything that cannot be reached
// falls back to the in-memory store so the service still comes up. Extracted
// resume text always lives in an expiring store, even when letters are
// durable.
func newStores(cfg config.Config) (letters.Repo, extractions.Repo, string) {
	switch cfg.Store {
	case "redis":
		if cfg.RedisAddr == "" {
			log.Printf("STORE=redis requires REDIS_ADDR, falling back to memory")
			break
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, falling back to memory: %v", err)
			break
		}
		return letters.NewRedisRepo(client, cfg.RecordTTL), extractions.NewRedisRepo(client, cfg.RecordTTL), "redis"
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Printf("STORE=postgres requires DATABASE_URL, falling back to memory")
			break
		}
		conn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
			break
		}
		if err := db.RunMigrations(context.Background(), conn); err != nil {
			log.Printf("failed to run migrations, falling back to memory: %v", err)
			break
		}
		extractionRepo := extractions.NewMemoryRepo(cfg.RecordTTL)
		extractionRepo.StartJanitor(context.Background(), time.Minute)
		return &letters.PGRepo{DB: conn}, extractionRepo, "postgres"
	}

	letterRepo := letters.NewMemoryRepo(cfg.RecordTTL)
	letterRepo.StartJanitor(context.Background(), time.Minute)
	extractionRepo := extractions.NewMemoryRepo(cfg.RecordTTL)
	extractionRepo.StartJanitor(context.Background(), time.Minute)
	return letterRepo, extractionRepo, "memory"
}

func newLLMClient(cfg config.Config) llm.Client {
	if cfg.GroqAPIKey == "" {
		log.Printf("GROQ_API_KEY not set; generation and extraction will fail until configured")
		return llm.Unconfigured{}
	}
	client, err := groq.NewClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.LLMTimeout)
	if err != nil {
		log.Printf("failed to build groq client: %v", err)
		return llm.Unconfigured{}
	}
	return client
}

func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		GroupFor: func(c *gin.Context) string {
			switch c.FullPath() {
			case "/api/v1/letters/:id", "/api/v1/extractions/:id":
				return "POLLING"
			}
			return ""
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 2, Burst: 10},
			"POLLING": {Rate: 5, Burst: 20},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
