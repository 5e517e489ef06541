package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

type UrlClassificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.UrlClassification) (*types.UrlClassification, error)
	CreateBatch(ctx context.Context, tx *gorm.DB, recs []*types.UrlClassification) (int, error)
	GetByURL(ctx context.Context, tx *gorm.DB, url string) (*types.UrlClassification, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.UrlClassification, error)
}

type urlClassificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUrlClassificationRepo(db *gorm.DB, baseLog *logger.Logger) UrlClassificationRepo {
	return &urlClassificationRepo{db: db, log: baseLog.With("repo", "UrlClassificationRepo")}
}

func (r *urlClassificationRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.UrlClassification) (*types.UrlClassification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateBatch inserts seed rows one at a time, skipping URLs that already
// have a curated label. Returns the number actually inserted.
func (r *urlClassificationRepo) CreateBatch(ctx context.Context, tx *gorm.DB, recs []*types.UrlClassification) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	inserted := 0
	for _, rec := range recs {
		err := transaction.WithContext(ctx).Create(rec).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Debug("Seed row skipped, URL already curated", "url", rec.URL)
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *urlClassificationRepo) GetByURL(ctx context.Context, tx *gorm.DB, url string) (*types.UrlClassification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rec types.UrlClassification
	err := transaction.WithContext(ctx).Where("url = ?", url).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *urlClassificationRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.UrlClassification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UrlClassification
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
