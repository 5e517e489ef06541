package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

type ScreenshotRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.ScreenshotRecord) (*types.ScreenshotRecord, error)
}

type screenshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScreenshotRepo(db *gorm.DB, baseLog *logger.Logger) ScreenshotRepo {
	return &screenshotRepo{db: db, log: baseLog.With("repo", "ScreenshotRepo")}
}

func (r *screenshotRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.ScreenshotRecord) (*types.ScreenshotRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}
