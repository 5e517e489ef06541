package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ariqhikari/SnaillyJaya/internal/repos/testutil"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

func TestActivityLogOpenThenClose(t *testing.T) {
	db := testutil.DB(t)
	repo := NewActivityLogRepo(db, testutil.Logger(t))
	ctx := context.Background()

	entry, err := repo.Create(ctx, nil, &types.ActivityLogEntry{
		ChildID: "child-1",
		URL:     "https://example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.GrantAccess != nil {
		t.Fatal("new entry must open without a verdict")
	}

	if err := repo.UpdateGrantAccess(ctx, nil, entry.LogID, true); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, entry.LogID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.GrantAccess == nil || !*got.GrantAccess {
		t.Fatalf("expected grant_access true, got %+v", got.GrantAccess)
	}
}

func TestActivityLogCloseMissingEntry(t *testing.T) {
	db := testutil.DB(t)
	repo := NewActivityLogRepo(db, testutil.Logger(t))

	err := repo.UpdateGrantAccess(context.Background(), nil, uuid.New(), false)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestActivityLogNullParentPersists(t *testing.T) {
	db := testutil.DB(t)
	repo := NewActivityLogRepo(db, testutil.Logger(t))
	ctx := context.Background()

	entry, err := repo.Create(ctx, nil, &types.ActivityLogEntry{
		ChildID:  "child-2",
		ParentID: nil,
		URL:      "https://example.com/x",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, entry.LogID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ParentID != nil {
		t.Fatalf("expected NULL parent, got %v", *got.ParentID)
	}
}
