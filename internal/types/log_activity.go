package types

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLogEntry is one access-decision record per classification request.
// GrantAccess is tri-state: nil means the request never reached a verdict and
// must be treated as inconclusive, never as "safe".
type ActivityLogEntry struct {
	LogID       uuid.UUID `gorm:"column:log_id;type:uuid;primaryKey" json:"log_id"`
	ChildID     string    `gorm:"column:child_id;not null;index" json:"child_id"`
	ParentID    *string   `gorm:"column:parent_id" json:"parent_id,omitempty"`
	URL         string    `gorm:"column:url;not null" json:"url"`
	GrantAccess *bool     `gorm:"column:grant_access" json:"grant_access"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (ActivityLogEntry) TableName() string { return "log_activity" }
