package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Segment is a time-bounded slice of a scraped video. Segments are
// time-ordered but may have gaps; consumers must not assume contiguity.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Caption    string  `json:"caption"`
	Transcript string  `json:"transcript"`
	Danger     string  `json:"danger,omitempty"`
}

// ContentRecord is the cached scrape+normalize result for one URL.
// Rows are created on first successful scrape and never deleted; only the
// per-segment danger labels mutate afterwards.
type ContentRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	URL         string         `gorm:"column:url;not null;uniqueIndex" json:"url"`
	Text        string         `gorm:"column:text;not null" json:"text"`
	RawText     string         `gorm:"column:raw_text" json:"raw_text"`
	Tokens      datatypes.JSON `gorm:"column:stopword_removed_tokens;type:jsonb" json:"stopword_removed_tokens"`
	ImageLinks  string         `gorm:"column:link_gambar" json:"link_gambar"`
	ImageFolder string         `gorm:"column:folder_gambar" json:"folder_gambar"`
	VideoLinks  string         `gorm:"column:link_video" json:"link_video"`
	VideoFolder string         `gorm:"column:folder_video" json:"folder_video"`
	Segments    datatypes.JSON `gorm:"column:segments;type:jsonb" json:"segments,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (ContentRecord) TableName() string { return "clean_data" }
