// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/auth"
	"github.com/tbourn/go-sentiment-backend/internal/config"
	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/http/handlers"
	"github.com/tbourn/go-sentiment-backend/internal/http/middleware"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
	"github.com/tbourn/go-sentiment-backend/internal/services"
)

// analysisRepoShim adapts the repository free functions to the
// services.AnalysisRepo interface expected by the AnalysisService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type analysisRepoShim struct{}

// CreateAnalysis proxies repo.CreateAnalysis.
func (analysisRepoShim) CreateAnalysis(ctx context.Context, db *gorm.DB, rec *domain.AnalysisRecord) error {
	return repo.CreateAnalysis(ctx, db, rec)
}

// CountAnalyses proxies repo.CountAnalyses.
func (analysisRepoShim) CountAnalyses(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountAnalyses(ctx, db, userID)
}

// ListAnalysesPage proxies repo.ListAnalysesPage (pagination support).
func (analysisRepoShim) ListAnalysesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.AnalysisRecord, error) {
	return repo.ListAnalysesPage(ctx, db, userID, offset, limit)
}

// ListRecentAnalyses proxies repo.ListRecentAnalyses (stats support).
func (analysisRepoShim) ListRecentAnalyses(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.AnalysisRecord, error) {
	return repo.ListRecentAnalyses(ctx, db, userID, limit)
}

// GetAnalysis proxies repo.GetAnalysis.
func (analysisRepoShim) GetAnalysis(ctx context.Context, db *gorm.DB, id, userID string) (*domain.AnalysisRecord, error) {
	return repo.GetAnalysis(ctx, db, id, userID)
}

// SentimentCounts proxies repo.SentimentCounts (stats support).
func (analysisRepoShim) SentimentCounts(ctx context.Context, db *gorm.DB, userID string) (map[string]int64, error) {
	return repo.SentimentCounts(ctx, db, userID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression, rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the public API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
//
// The idempotency validator is mounted on the analysis group, after
// authentication, so replay lookups can see the caller's identity.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, classifier services.Classifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. The built-in header masks
	// (Authorization, Cookie, Set-Cookie) already cover everything sensitive
	// this API receives; bearer tokens never appear anywhere else.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Response compression (skip the metrics scrape endpoint)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/classifier
	tokens := auth.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	analysisSvc := services.NewAnalysisService(db, analysisRepoShim{}, classifier)
	analysisSvc.MaxTextRunes = cfg.MaxTextChars
	authSvc := &services.AuthService{DB: db, Tokens: tokens}
	userSvc := &services.UserService{DB: db}

	h := handlers.New(authSvc, analysisSvc, userSvc)
	h.IdemTTL = cfg.IdempotencyTTL

	requireAuth := middleware.RequireAuth(tokens)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api"
	api := groupWithPrefix(r, apiBase)
	{
		// Auth
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/me", requireAuth, h.Me)
		api.POST("/auth/logout", requireAuth, h.Logout)
		api.PUT("/auth/change-password", requireAuth, h.ChangePassword)

		// Analysis (idempotency after auth so replay lookups see the user)
		analysis := api.Group("/analysis", requireAuth)
		analysis.Use(middleware.IdempotencyValidator(
			middleware.IdempotencyOptions{
				MaxLen: 200,
				Scope:  repo.ScopeAnalysis,
			},
			func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
				rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
				if err != nil || rec == nil {
					return false, nil
				}
				return true, nil
			},
		))
		analysis.POST("", h.Analyze)
		analysis.GET("/history", h.History)
		analysis.GET("/:id", h.GetAnalysis)

		// Users
		users := api.Group("/users", requireAuth)
		users.GET("/profile", h.GetProfile)
		users.PUT("/profile", h.UpdateProfile)
		users.DELETE("/account", h.DeleteAccount)
		users.GET("/stats", h.UserStats)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
