package services

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/datatypes"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/scrape"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/repos/testutil"
	"github.com/ariqhikari/SnaillyJaya/internal/textproc"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

// classifyFixture wires the full text-classification path over one sqlite
// database, with the scrapers present but never exercised.
type classifyFixture struct {
	service     ClassifyService
	ledger      ActivityLedger
	gate        NotificationGate
	store       ContentStore
	predictRepo repos.PredictionRepo
	snailly     *fakeSnailly
}

func newClassifyFixture(t *testing.T, trained bool) *classifyFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	contentRepo := repos.NewContentRepo(db, log)
	activityRepo := repos.NewActivityLogRepo(db, log)
	predictRepo := repos.NewPredictionRepo(db, log)
	urlRepo := repos.NewUrlClassificationRepo(db, log)

	normalizer, err := textproc.NewNormalizer()
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}

	registry := ml.NewRegistry()
	if trained {
		curator := NewLabelCurator(predictRepo, urlRepo, contentRepo, log)
		coordinator := NewRetrainingCoordinator(
			curator, urlRepo, registry, ml.NewTrainer(log), ml.NewStore(t.TempDir(), log), nil, log)
		seedCurated(t, urlRepo, 10)
		if _, err := coordinator.Retrain(ctx); err != nil {
			t.Fatalf("retrain: %v", err)
		}
	}

	sc := &fakeSnailly{parentByChild: map[string]string{}}
	ledger := NewActivityLedger(activityRepo, sc, log)
	gate := NewNotificationGate(urlRepo, sc, log)
	store := NewContentStore(contentRepo, nil, log)
	dispatcher := NewScrapeDispatcher(scrape.NewWebScraper(log), scrape.NewSocialScraper(log), nil, nil, nil, log)
	engine := ml.NewEngine(registry, log)

	return &classifyFixture{
		service:     NewClassifyService(store, dispatcher, normalizer, engine, ledger, gate, predictRepo, log),
		ledger:      ledger,
		gate:        gate,
		store:       store,
		predictRepo: predictRepo,
		snailly:     sc,
	}
}

func TestClassifyTextRequiresText(t *testing.T) {
	fx := newClassifyFixture(t, false)

	_, err := fx.service.ClassifyText(context.Background(), ClassifyRequest{
		URL:     "https://a.com",
		Text:    "   ",
		ChildID: "child-1",
	})
	if !apperr.Is(err, apperr.CodeMissingRequiredField) {
		t.Fatalf("blank text must be rejected, got %v", err)
	}
}

func TestClassifyTextWithoutModel(t *testing.T) {
	fx := newClassifyFixture(t, false)

	_, err := fx.service.ClassifyText(context.Background(), ClassifyRequest{
		URL:     "https://a.com",
		Text:    "situs judi online gacor",
		ChildID: "child-1",
	})
	if !apperr.Is(err, apperr.CodeModelUnavailable) {
		t.Fatalf("expected model_unavailable, got %v", err)
	}
}

func TestClassifyTextDangerVerdict(t *testing.T) {
	fx := newClassifyFixture(t, true)
	ctx := context.Background()

	result, err := fx.service.ClassifyText(ctx, ClassifyRequest{
		URL:      "https://fresh-danger.com",
		Text:     "situs judi online gacor",
		ChildID:  "child-1",
		ParentID: "parent-1",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Label != ml.LabelDanger {
		t.Fatalf("label = %q, want %q", result.Label, ml.LabelDanger)
	}
	if result.GrantAccess {
		t.Fatal("dangerous content must not grant access")
	}
	if len(result.Proba) != 2 {
		t.Fatalf("expected two class probabilities, got %v", result.Proba)
	}

	entry, err := fx.ledger.Get(ctx, result.LogID)
	if err != nil {
		t.Fatalf("ledger get: %v", err)
	}
	if entry.GrantAccess == nil || *entry.GrantAccess {
		t.Fatal("ledger entry must be closed with grant_access=false")
	}

	rec, err := fx.predictRepo.GetLatestByLogID(ctx, nil, result.LogID)
	if err != nil || rec == nil {
		t.Fatalf("prediction row missing: %v", err)
	}
	if rec.Label != ml.LabelDanger {
		t.Fatalf("persisted label = %q", rec.Label)
	}

	flushGate(t, fx.gate)
	if sent := fx.snailly.sent(); len(sent) != 1 {
		t.Fatalf("expected one parent notification, got %d", len(sent))
	}
}

func TestClassifyTextSafeVerdict(t *testing.T) {
	fx := newClassifyFixture(t, true)
	ctx := context.Background()

	result, err := fx.service.ClassifyText(ctx, ClassifyRequest{
		URL:      "https://fresh-safe.com",
		Text:     "belajar baca tulis sekolah",
		ChildID:  "child-1",
		ParentID: "parent-1",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Label != ml.LabelSafe {
		t.Fatalf("label = %q, want %q", result.Label, ml.LabelSafe)
	}
	if !result.GrantAccess {
		t.Fatal("safe content must grant access")
	}
	flushGate(t, fx.gate)
	if sent := fx.snailly.sent(); len(sent) != 0 {
		t.Fatalf("safe verdicts must not notify, got %d", len(sent))
	}
}

func TestClassifyTextLabelsStoredSegments(t *testing.T) {
	fx := newClassifyFixture(t, true)
	ctx := context.Background()

	segJSON, err := json.Marshal([]types.Segment{
		{Caption: "situs judi online gacor"},
		{Caption: "belajar baca tulis sekolah"},
	})
	if err != nil {
		t.Fatalf("marshal segments: %v", err)
	}
	if _, err := fx.store.Put(ctx, &types.ContentRecord{
		URL:      "https://video-site.com",
		Text:     "situs judi online gacor",
		Segments: datatypes.JSON(segJSON),
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	result, err := fx.service.ClassifyText(ctx, ClassifyRequest{
		URL:     "https://video-site.com",
		Text:    "situs judi online gacor",
		ChildID: "child-1",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !result.FromCache {
		t.Fatal("existing record must be reported as cached")
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected two labeled segments, got %d", len(result.Segments))
	}
	if result.Segments[0].Danger != ml.LabelDanger {
		t.Fatalf("first segment label = %q, want %q", result.Segments[0].Danger, ml.LabelDanger)
	}
	if result.Segments[1].Danger != ml.LabelSafe {
		t.Fatalf("second segment label = %q, want %q", result.Segments[1].Danger, ml.LabelSafe)
	}

	stored, err := fx.store.GetByURL(ctx, "https://video-site.com")
	if err != nil || stored == nil {
		t.Fatalf("record lookup: %v", err)
	}
	var persisted []types.Segment
	if err := json.Unmarshal(stored.Segments, &persisted); err != nil {
		t.Fatalf("unmarshal stored segments: %v", err)
	}
	if persisted[0].Danger != ml.LabelDanger {
		t.Fatalf("segment labels not persisted: %+v", persisted)
	}
}
