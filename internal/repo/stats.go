// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) and the user statistics
// endpoint. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// AnalysesStats returns aggregate metadata for a user's analysis records:
// the total number of rows and the maximum CreatedAt timestamp among them.
// When the user has no records, the returned count is 0 and maxCreatedAt is
// nil. Used primarily for weak ETag generation on the history endpoint.
func AnalysesStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.AnalysisRecord{}).Where("user_id = ?", userID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// SentimentCounts groups a user's records by sentiment label and returns the
// per-label totals. Labels with no records are absent from the map.
func SentimentCounts(ctx context.Context, db *gorm.DB, userID string) (map[string]int64, error) {
	var rows []struct {
		Sentiment string
		N         int64
	}
	err := db.WithContext(ctx).
		Model(&domain.AnalysisRecord{}).
		Select("sentiment, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("sentiment").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Sentiment] = r.N
	}
	return out, nil
}
