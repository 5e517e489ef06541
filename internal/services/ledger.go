package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/snailly"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

// ActivityLedger records the open/close lifecycle of one classification
// request in log_activity. An entry opens with no verdict and closes
// exactly once with the access decision.
type ActivityLedger interface {
	Open(ctx context.Context, childID, parentID, url string) (*types.ActivityLogEntry, error)
	Close(ctx context.Context, logID uuid.UUID, grant bool) error
	Get(ctx context.Context, logID uuid.UUID) (*types.ActivityLogEntry, error)
}

type activityLedger struct {
	repo    repos.ActivityLogRepo
	snailly snailly.Client
	log     *logger.Logger
}

// NewActivityLedger accepts a nil snailly client; parent resolution is
// skipped when it is absent.
func NewActivityLedger(repo repos.ActivityLogRepo, snaillyClient snailly.Client, baseLog *logger.Logger) ActivityLedger {
	return &activityLedger{
		repo:    repo,
		snailly: snaillyClient,
		log:     baseLog.With("service", "ActivityLedger"),
	}
}

// Open creates the entry with grant_access unset. A missing parent is
// looked up from the child when possible and stored as NULL otherwise.
func (l *activityLedger) Open(ctx context.Context, childID, parentID, url string) (*types.ActivityLogEntry, error) {
	if strings.TrimSpace(childID) == "" {
		return nil, apperr.MissingRequiredField("child_id")
	}
	if strings.TrimSpace(url) == "" {
		return nil, apperr.MissingRequiredField("url")
	}

	parent := normalizeParent(parentID)
	if parent == nil && l.snailly != nil {
		resolved, err := l.snailly.ResolveParent(ctx, childID)
		if err != nil {
			l.log.Warn("Parent lookup failed, recording NULL parent", "child_id", childID, "error", err)
		} else {
			parent = normalizeParent(resolved)
		}
	}

	entry := &types.ActivityLogEntry{
		ChildID:  childID,
		ParentID: parent,
		URL:      url,
	}
	return l.repo.Create(ctx, nil, entry)
}

func (l *activityLedger) Close(ctx context.Context, logID uuid.UUID, grant bool) error {
	err := l.repo.UpdateGrantAccess(ctx, nil, logID, grant)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.LogNotFound(err)
	}
	return err
}

func (l *activityLedger) Get(ctx context.Context, logID uuid.UUID) (*types.ActivityLogEntry, error) {
	entry, err := l.repo.GetByID(ctx, nil, logID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.LogNotFound(err)
	}
	return entry, err
}

// normalizeParent maps empty and sentinel values to NULL so the column
// never stores a fake parent id.
func normalizeParent(parentID string) *string {
	p := strings.TrimSpace(parentID)
	if p == "" || strings.EqualFold(p, "null") || strings.EqualFold(p, "none") {
		return nil
	}
	return &p
}
