package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

type ActivityLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.ActivityLogEntry) (*types.ActivityLogEntry, error)
	GetByID(ctx context.Context, tx *gorm.DB, logID uuid.UUID) (*types.ActivityLogEntry, error)
	UpdateGrantAccess(ctx context.Context, tx *gorm.DB, logID uuid.UUID, grant bool) error
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	return &activityLogRepo{db: db, log: baseLog.With("repo", "ActivityLogRepo")}
}

func (r *activityLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.ActivityLogEntry) (*types.ActivityLogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *activityLogRepo) GetByID(ctx context.Context, tx *gorm.DB, logID uuid.UUID) (*types.ActivityLogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var entry types.ActivityLogEntry
	err := transaction.WithContext(ctx).Where("log_id = ?", logID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateGrantAccess sets the access verdict exactly once after classification.
// Returns gorm.ErrRecordNotFound when the target row has vanished.
func (r *activityLogRepo) UpdateGrantAccess(ctx context.Context, tx *gorm.DB, logID uuid.UUID, grant bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.ActivityLogEntry{}).
		Where("log_id = ?", logID).
		Updates(map[string]interface{}{
			"grant_access": grant,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
