// Command server boots the sentiment analysis API.
//
// Startup order:
//  1. Load .env (best effort) and typed configuration from the environment.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Open SQLite and run schema migrations.
//  4. Set up OpenTelemetry tracing (no-op unless enabled).
//  5. Build the OpenAI classifier when an API key is configured; without one
//     the service runs in rule-based mode only.
//  6. Mount the Gin router and serve with graceful shutdown.
package main

//	@title			Sentiment Analysis API
//	@version		1.0
//	@description	REST backend for text sentiment analysis with per-user history.
//	@BasePath		/api
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the token.

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-sentiment-backend/docs" // swagger spec registration
	"github.com/tbourn/go-sentiment-backend/internal/config"
	httpapi "github.com/tbourn/go-sentiment-backend/internal/http"
	"github.com/tbourn/go-sentiment-backend/internal/llm"
	"github.com/tbourn/go-sentiment-backend/internal/observability"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
	"github.com/tbourn/go-sentiment-backend/internal/services"
	"github.com/tbourn/go-sentiment-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments use the process environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	var classifier services.Classifier
	if cfg.OpenAI.APIKey != "" {
		opts := []llm.Option{llm.WithModel(cfg.OpenAI.Model)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		classifier = llm.NewClient(cfg.OpenAI.APIKey, opts...)
		log.Info().Str("model", cfg.OpenAI.Model).Msg("openai classifier enabled")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set; using rule-based analysis only")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, classifier, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Block until SIGINT/SIGTERM, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
