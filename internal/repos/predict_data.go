package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

type PredictionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.PredictionRecord) (*types.PredictionRecord, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PredictionRecord, error)
	GetLatestByLogID(ctx context.Context, tx *gorm.DB, logID uuid.UUID) (*types.PredictionRecord, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.PredictionRecord, error)
	UpdateLabel(ctx context.Context, tx *gorm.DB, id uuid.UUID, label string) error
	DeleteByURL(ctx context.Context, tx *gorm.DB, url string) (int64, error)
}

type predictionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	return &predictionRepo{db: db, log: baseLog.With("repo", "PredictionRepo")}
}

func (r *predictionRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.PredictionRecord) (*types.PredictionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *predictionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PredictionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rec types.PredictionRecord
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *predictionRepo) GetLatestByLogID(ctx context.Context, tx *gorm.DB, logID uuid.UUID) (*types.PredictionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rec types.PredictionRecord
	err := transaction.WithContext(ctx).
		Where("log_id = ?", logID).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *predictionRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.PredictionRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PredictionRecord
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *predictionRepo) UpdateLabel(ctx context.Context, tx *gorm.DB, id uuid.UUID, label string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.PredictionRecord{}).
		Where("id = ?", id).
		Update("label", label)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *predictionRepo) DeleteByURL(ctx context.Context, tx *gorm.DB, url string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("url = ?", url).
		Delete(&types.PredictionRecord{})
	return res.RowsAffected, res.Error
}
