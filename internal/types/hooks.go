package types

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are generated app-side so the models behave identically on postgres
// and the sqlite test driver.

func (r *ContentRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (e *ActivityLogEntry) BeforeCreate(_ *gorm.DB) error {
	if e.LogID == uuid.Nil {
		e.LogID = uuid.New()
	}
	return nil
}

func (r *PredictionRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *UrlClassification) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *ScreenshotRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
