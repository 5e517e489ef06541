package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ariqhikari/SnaillyJaya/internal/clients/gcp"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/repos/testutil"
	"github.com/ariqhikari/SnaillyJaya/internal/textproc"
)

type fakeVision struct {
	caption      string
	captionByURL map[string]string
	err          error
}

func (f *fakeVision) CaptionImageURL(_ context.Context, url string) (string, error) {
	if f.captionByURL != nil {
		caption, ok := f.captionByURL[url]
		if !ok {
			return "", errors.New("caption backend rejected url")
		}
		return caption, nil
	}
	return f.caption, f.err
}

func (f *fakeVision) CaptionImageBytes(context.Context, []byte) (string, error) {
	return f.caption, f.err
}

func (f *fakeVision) Close() error { return nil }

func newScreenshotService(t *testing.T, trained bool, vision gcp.Vision) ScreenshotService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	normalizer, err := textproc.NewNormalizer()
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}

	registry := ml.NewRegistry()
	if trained {
		ctx := context.Background()
		predictRepo := repos.NewPredictionRepo(db, log)
		urlRepo := repos.NewUrlClassificationRepo(db, log)
		contentRepo := repos.NewContentRepo(db, log)
		curator := NewLabelCurator(predictRepo, urlRepo, contentRepo, log)
		coordinator := NewRetrainingCoordinator(
			curator, urlRepo, registry, ml.NewTrainer(log), ml.NewStore(t.TempDir(), log), nil, log)
		seedCurated(t, urlRepo, 10)
		if _, err := coordinator.Retrain(ctx); err != nil {
			t.Fatalf("retrain: %v", err)
		}
	}

	return NewScreenshotService(
		vision, nil, nil, normalizer, ml.NewEngine(registry, log), repos.NewScreenshotRepo(db, log), log)
}

func TestScreenshotUnknownWhenClassifierUnavailable(t *testing.T) {
	svc := newScreenshotService(t, false, &fakeVision{caption: "situs judi online gacor"})

	result, err := svc.Evaluate(context.Background(), []byte("raw-image-bytes"), "child-1", "parent-1")
	if err != nil {
		t.Fatalf("captioned screenshot must not fail on classifier outage: %v", err)
	}
	if result.Label != ml.LabelUnknown {
		t.Fatalf("label = %q, want %q", result.Label, ml.LabelUnknown)
	}
	if result.Caption != "situs judi online gacor" {
		t.Fatalf("caption lost: %q", result.Caption)
	}
	if result.ID == uuid.Nil {
		t.Fatal("evaluation must be persisted even without a verdict")
	}
}

func TestScreenshotDangerCaption(t *testing.T) {
	svc := newScreenshotService(t, true, &fakeVision{caption: "situs judi online gacor"})

	result, err := svc.Evaluate(context.Background(), []byte("raw-image-bytes"), "child-1", "parent-1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.Label != ml.LabelDanger {
		t.Fatalf("label = %q, want %q", result.Label, ml.LabelDanger)
	}
	if len(result.Proba) != 2 {
		t.Fatalf("expected two class probabilities, got %v", result.Proba)
	}
}

func TestScreenshotNoCaptionBackend(t *testing.T) {
	svc := newScreenshotService(t, false, nil)

	if _, err := svc.Evaluate(context.Background(), []byte("raw-image-bytes"), "child-1", ""); err == nil {
		t.Fatal("no captioning backend must surface an error")
	}
}
