package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ScreenshotRecord is the single-artifact evaluation result for an uploaded
// screenshot. Independent lifecycle; not linked to any ContentRecord.
type ScreenshotRecord struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Caption    string         `gorm:"column:caption" json:"caption"`
	Text       string         `gorm:"column:text" json:"text"`
	Tokens     datatypes.JSON `gorm:"column:tokens;type:jsonb" json:"tokens"`
	Label      string         `gorm:"column:label" json:"label"`
	Embedding  datatypes.JSON `gorm:"column:embedding;type:jsonb" json:"embedding,omitempty"`
	StorageKey string         `gorm:"column:storage_key" json:"storage_key"`
	ChildID    string         `gorm:"column:child_id" json:"child_id"`
	ParentID   *string        `gorm:"column:parent_id" json:"parent_id,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (ScreenshotRecord) TableName() string { return "screenshot_data" }
