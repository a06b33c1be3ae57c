// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// AnalysisRecord model.
//
// Records are insert-only: they are written exactly once by the analysis
// service and never updated. Reads are always scoped by the owning user so
// access control cannot be bypassed at this layer.
//
// Functions:
//
//   - CreateAnalysis(ctx, db, rec) -> error
//     Inserts a record prepared by the service (UUID + timestamp stamped here).
//
//   - CountAnalyses(ctx, db, userID) -> (int64, error)
//     Returns the total number of records owned by the user.
//
//   - ListAnalysesPage(ctx, db, userID, offset, limit) -> []domain.AnalysisRecord, error
//     Returns a page of records, most recent first.
//
//   - GetAnalysis(ctx, db, id, userID) -> *domain.AnalysisRecord, error
//     Fetches one record by ID/owner, or ErrNotFound.
//
//   - DeleteAnalysesByUser(ctx, db, userID) -> error
//     Removes all records of a user (account-deletion cascade).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// CreateAnalysis inserts a new analysis record. The record ID and creation
// timestamp are assigned here, at write time; all other fields come from the
// caller, which must have routed them through the normalizer.
func CreateAnalysis(ctx context.Context, db *gorm.DB, rec *domain.AnalysisRecord) error {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	if rec.Source == "" {
		rec.Source = "manual"
	}
	return db.WithContext(ctx).Create(rec).Error
}

// CountAnalyses returns the total number of records owned by userID.
func CountAnalyses(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.AnalysisRecord{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListAnalysesPage returns a paginated slice of records for userID, ordered
// by creation time descending. The caller computes offset and limit
// (e.g., (page-1)*limit).
func ListAnalysesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.AnalysisRecord, error) {
	var out []domain.AnalysisRecord
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListRecentAnalyses returns up to limit most recent records for userID.
func ListRecentAnalyses(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.AnalysisRecord, error) {
	var out []domain.AnalysisRecord
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetAnalysis fetches a single record by its ID and owner. If the record
// does not exist or belongs to someone else, it returns ErrNotFound.
func GetAnalysis(ctx context.Context, db *gorm.DB, id, userID string) (*domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteAnalysesByUser removes every record owned by userID. Used by the
// account-deletion cascade; deleting zero rows is not an error.
func DeleteAnalysesByUser(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.AnalysisRecord{}).Error
}
