package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PredictionRecord is the append-only raw signal for one classification
// request, correlated with its ActivityLogEntry through LogID.
type PredictionRecord struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Text           string         `gorm:"column:text;not null" json:"text"`
	Label          string         `gorm:"column:label;not null" json:"label"`
	PredictedProba datatypes.JSON `gorm:"column:predicted_proba;type:jsonb" json:"predicted_proba"`
	URL            string         `gorm:"column:url;not null;index" json:"url"`
	ChildID        string         `gorm:"column:child_id" json:"child_id"`
	ParentID       *string        `gorm:"column:parent_id" json:"parent_id,omitempty"`
	LogID          uuid.UUID      `gorm:"column:log_id;type:uuid;index" json:"log_id"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (PredictionRecord) TableName() string { return "predict_data" }
