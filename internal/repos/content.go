package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

type ContentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.ContentRecord) (*types.ContentRecord, error)
	GetByURL(ctx context.Context, tx *gorm.DB, url string) (*types.ContentRecord, error)
	UpdateSegments(ctx context.Context, tx *gorm.DB, id uuid.UUID, segments datatypes.JSON) error
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{db: db, log: baseLog.With("repo", "ContentRepo")}
}

func (r *contentRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.ContentRecord) (*types.ContentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByURL returns nil without error when no record exists for the URL.
func (r *contentRepo) GetByURL(ctx context.Context, tx *gorm.DB, url string) (*types.ContentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rec types.ContentRecord
	err := transaction.WithContext(ctx).Where("url = ?", url).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *contentRepo) UpdateSegments(ctx context.Context, tx *gorm.DB, id uuid.UUID, segments datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ContentRecord{}).
		Where("id = ?", id).
		Update("segments", segments).Error
}
