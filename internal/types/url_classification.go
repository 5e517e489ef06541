package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UrlClassification is the curated training label for a URL, produced only by
// majority-vote promotion or an accepted HITL correction. At most one row per
// URL; label disputes are settled in predict_data before promotion, never by
// rewriting this table.
type UrlClassification struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	URL       string         `gorm:"column:url;not null;uniqueIndex" json:"url"`
	Label     string         `gorm:"column:label;not null" json:"label"`
	Tokens    datatypes.JSON `gorm:"column:stopword_removed_tokens;type:jsonb" json:"stopword_removed_tokens"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (UrlClassification) TableName() string { return "url_classification" }
