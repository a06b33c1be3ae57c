// Package services – AnalysisService
//
// This file implements AnalysisService, the orchestrator of the sentiment
// pipeline. It validates and truncates input, consults the external
// classifier when one is configured, falls back to the rule-based lexicon
// scorer on any provider failure, routes every result through the
// normalizer, and persists exactly one record per successful call.
//
// Provider failures never cross this boundary: they are logged and absorbed
// by the fallback path, so callers see either a valid record, ErrEmptyText,
// or a persistence error.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// user identifiers, pagination parameters, and which path produced a result.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/sentiment"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxTextRunesDefault caps analyzed input when the service is not configured
// with an explicit limit.
const maxTextRunesDefault = 5000

// Classifier is the external sentiment provider contract consumed by
// AnalysisService. Implementations perform a single attempt per invocation;
// retry/fallback policy belongs to the service.
type Classifier interface {
	// Classify returns the provider's raw, unvalidated result for text.
	Classify(ctx context.Context, text string) (sentiment.Raw, error)
}

// AnalysisRepo defines the repository contract required by AnalysisService.
// Implementations are responsible for persistence of analysis records.
type AnalysisRepo interface {
	// CreateAnalysis inserts a new record, assigning its ID and timestamp.
	CreateAnalysis(ctx context.Context, db *gorm.DB, rec *domain.AnalysisRecord) error

	// CountAnalyses returns the total number of records for pagination.
	CountAnalyses(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListAnalysesPage returns a page of records, most recent first.
	ListAnalysesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.AnalysisRecord, error)

	// ListRecentAnalyses returns up to limit most recent records.
	ListRecentAnalyses(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.AnalysisRecord, error)

	// GetAnalysis fetches a record by ID ensuring it belongs to the user.
	GetAnalysis(ctx context.Context, db *gorm.DB, id, userID string) (*domain.AnalysisRecord, error)

	// SentimentCounts returns per-label totals for the user's records.
	SentimentCounts(ctx context.Context, db *gorm.DB, userID string) (map[string]int64, error)
}

// AnalysisService coordinates classification and persistence of sentiment
// analyses. A nil Classifier puts the service in fallback-only mode, which is
// the deployment posture when no provider credential is configured.
type AnalysisService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the analysis repository used by this service.
	Repo AnalysisRepo
	// Classifier is the optional external provider; nil means fallback-only.
	Classifier Classifier

	// MaxTextRunes caps analyzed input by rune length (default 5000).
	MaxTextRunes int
}

// NewAnalysisService constructs an AnalysisService with the default input cap.
func NewAnalysisService(db *gorm.DB, repo AnalysisRepo, classifier Classifier) *AnalysisService {
	return &AnalysisService{
		DB:           db,
		Repo:         repo,
		Classifier:   classifier,
		MaxTextRunes: maxTextRunesDefault,
	}
}

// Analyze classifies text on behalf of userID and persists the result.
//
// Blank input (empty or whitespace-only) fails with ErrEmptyText and writes
// nothing. Input beyond the configured cap is silently truncated. The
// provider is attempted only when configured; any provider failure is logged
// and absorbed by the lexicon fallback, which cannot fail. Whichever raw
// result was produced is normalized before the single record write.
func (s *AnalysisService) Analyze(ctx context.Context, userID, text string) (*domain.AnalysisRecord, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Analyze",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if limit := s.maxRunes(); len(text) > limit {
		if runes := []rune(text); len(runes) > limit {
			text = string(runes[:limit])
		}
	}

	raw, fromProvider := s.classify(ctx, text)
	span.SetAttributes(attribute.Bool("analysis.provider", fromProvider))

	res := sentiment.Normalize(raw)

	rec := &domain.AnalysisRecord{
		UserID:        userID,
		Text:          text,
		Sentiment:     res.Sentiment,
		Confidence:    res.Confidence,
		Explanation:   res.Explanation,
		PositiveScore: &res.PositiveScore,
		NegativeScore: &res.NegativeScore,
		NeutralScore:  &res.NeutralScore,
	}
	if err := s.Repo.CreateAnalysis(ctx, s.DB, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// classify runs the provider when configured and reports whether its result
// was used. Every provider failure degrades to the lexicon scorer.
func (s *AnalysisService) classify(ctx context.Context, text string) (sentiment.Raw, bool) {
	if s.Classifier == nil {
		log.Debug().Msg("no sentiment provider configured, using fallback analysis")
		return sentiment.Score(text), false
	}

	raw, err := s.Classifier.Classify(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("sentiment provider failed, using fallback analysis")
		return sentiment.Score(text), false
	}
	return raw, true
}

// History returns a page of the user's analysis records, most recent first,
// along with the total count. Page values below 1 are clamped to 1; limits
// outside [1,100] are clamped to the default of 10 and the cap of 100.
// A page beyond the last yields an empty slice, not an error.
func (s *AnalysisService) History(ctx context.Context, userID string, page, limit int) ([]domain.AnalysisRecord, int64, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	total, err := s.Repo.CountAnalyses(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.AnalysisRecord{}, 0, nil
	}

	items, err := s.Repo.ListAnalysesPage(ctx, s.DB, userID, offset, limit)
	return items, total, err
}

// Get fetches one record owned by userID. Missing or foreign records yield
// ErrAnalysisNotFound; any other storage error is propagated unchanged.
func (s *AnalysisService) Get(ctx context.Context, userID, id string) (*domain.AnalysisRecord, error) {
	rec, err := s.Repo.GetAnalysis(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UserStats aggregates a user's analysis activity for the stats endpoint.
type UserStats struct {
	TotalAnalyses   int64                   `json:"total_analyses"`
	SentimentCounts map[string]int64        `json:"sentiment_counts"`
	RecentAnalyses  []domain.AnalysisRecord `json:"recent_analyses"`
}

// Stats returns the total record count, per-sentiment counts, and the five
// most recent records for userID.
func (s *AnalysisService) Stats(ctx context.Context, userID string) (*UserStats, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Stats",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	total, err := s.Repo.CountAnalyses(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.Repo.SentimentCounts(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.Repo.ListRecentAnalyses(ctx, s.DB, userID, 5)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		TotalAnalyses:   total,
		SentimentCounts: counts,
		RecentAnalyses:  recent,
	}, nil
}

// maxRunes returns the configured input cap, defaulting when unset.
func (s *AnalysisService) maxRunes() int {
	if s.MaxTextRunes > 0 {
		return s.MaxTextRunes
	}
	return maxTextRunesDefault
}
