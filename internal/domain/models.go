// Package domain defines the persistence models for users and sentiment
// analysis records. These types are mapped with GORM and form the core data
// layer of the sentiment backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Sentiment labels persisted on AnalysisRecord. Every stored record carries
// exactly one of these values; the normalizer in internal/sentiment is the
// single gate that guarantees it.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// User represents a registered account. Passwords are stored only as bcrypt
// hashes; the hash never leaves the persistence/service layers.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Username: unique handle (3–30 chars, word characters only).
//   - Email: unique, lowercased login identifier.
//   - Name: optional display name.
//   - PasswordHash: bcrypt digest; excluded from JSON.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type User struct {
	ID           string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Username     string         `json:"username"   gorm:"type:varchar(30);not null;uniqueIndex:ux_users_username"`
	Email        string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Name         string         `json:"name,omitempty" gorm:"type:varchar(100)"`
	PasswordHash string         `json:"-"          gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// AnalysisRecord is one persisted sentiment classification. Records are
// created exactly once by the analysis service and never mutated afterwards;
// they disappear only when the owning user account is deleted (cascade).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; indexed together with CreatedAt for history reads.
//   - Text: the analyzed input, capped at 5000 characters upstream.
//   - Sentiment: positive | negative | neutral (enforced by DB constraint).
//   - Confidence: certainty in [0,1].
//   - Explanation: short free-form rationale.
//   - PositiveScore / NegativeScore / NeutralScore: optional per-label
//     scores in [0,1]; present when the classifier supplied them. They are
//     not required to sum to 1.
//   - Source: where the text came from (currently always "manual").
//   - CreatedAt: analysis timestamp, stamped at write time.
//   - User: FK association, ensures cascade delete with the account.
type AnalysisRecord struct {
	ID            string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_analyses,priority:1"`
	Text          string    `json:"text"       gorm:"type:text;not null"`
	Sentiment     string    `json:"sentiment"  gorm:"type:varchar(16);not null;check:sentiment IN ('positive','negative','neutral')"`
	Confidence    float64   `json:"confidence" gorm:"not null;check:confidence >= 0 AND confidence <= 1"`
	Explanation   string    `json:"explanation,omitempty" gorm:"type:text"`
	PositiveScore *float64  `json:"positive_score,omitempty"`
	NegativeScore *float64  `json:"negative_score,omitempty"`
	NeutralScore  *float64  `json:"neutral_score,omitempty"`
	Source        string    `json:"source"     gorm:"type:varchar(32);not null;default:'manual'"`
	CreatedAt     time.Time `json:"created_at" gorm:"index:idx_user_analyses,priority:2"`

	// User is the owning account. Records are cascade-deleted when the
	// account is removed.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AnalysisRecord.
func (AnalysisRecord) TableName() string { return "analysis_records" }
