package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/repos/testutil"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

type curatorFixture struct {
	curator     LabelCurator
	predictRepo repos.PredictionRepo
	urlRepo     repos.UrlClassificationRepo
	contentRepo repos.ContentRepo
}

func newCurator(t *testing.T) *curatorFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	predictRepo := repos.NewPredictionRepo(db, log)
	urlRepo := repos.NewUrlClassificationRepo(db, log)
	contentRepo := repos.NewContentRepo(db, log)
	return &curatorFixture{
		curator:     NewLabelCurator(predictRepo, urlRepo, contentRepo, log),
		predictRepo: predictRepo,
		urlRepo:     urlRepo,
		contentRepo: contentRepo,
	}
}

func addCleanData(t *testing.T, repo repos.ContentRepo, url string) {
	t.Helper()
	if _, err := repo.Create(context.Background(), nil, &types.ContentRecord{
		URL:    url,
		Text:   "judi online",
		Tokens: datatypes.JSON(`["judi","online"]`),
	}); err != nil {
		t.Fatalf("seed clean_data: %v", err)
	}
}

func addPredictions(t *testing.T, repo repos.PredictionRepo, url string, labels ...string) {
	t.Helper()
	for _, label := range labels {
		if _, err := repo.Create(context.Background(), nil, &types.PredictionRecord{
			Text:  "t",
			Label: label,
			URL:   url,
		}); err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}
}

func TestMajorityLabelsOddCountGetsVerdict(t *testing.T) {
	fx := newCurator(t)
	addPredictions(t, fx.predictRepo, "https://a.com", "berbahaya", "berbahaya", "aman")

	winners, err := fx.curator.ComputeMajorityLabels(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if winners["https://a.com"] != "berbahaya" {
		t.Fatalf("expected berbahaya verdict, got %v", winners)
	}
}

func TestMajorityLabelsEvenCountWaits(t *testing.T) {
	fx := newCurator(t)
	addPredictions(t, fx.predictRepo, "https://a.com", "berbahaya", "aman")

	winners, err := fx.curator.ComputeMajorityLabels(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if _, ok := winners["https://a.com"]; ok {
		t.Fatal("even prediction count must not produce a verdict")
	}
}

func TestMajorityLabelsSingletonCounts(t *testing.T) {
	fx := newCurator(t)
	addPredictions(t, fx.predictRepo, "https://one.com", "aman")

	winners, err := fx.curator.ComputeMajorityLabels(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if winners["https://one.com"] != "aman" {
		t.Fatalf("single prediction is an odd count and must win: %v", winners)
	}
}

func TestPromoteWritesWinnersOnce(t *testing.T) {
	fx := newCurator(t)
	addCleanData(t, fx.contentRepo, "https://a.com")
	addPredictions(t, fx.predictRepo, "https://a.com", "berbahaya", "berbahaya", "aman")
	addPredictions(t, fx.predictRepo, "https://b.com", "aman", "aman")

	inserted, err := fx.curator.Promote(context.Background())
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected 1 promoted row, got %d", inserted)
	}

	rec, err := fx.urlRepo.GetByURL(context.Background(), nil, "https://a.com")
	if err != nil || rec == nil {
		t.Fatalf("promoted row missing: %v", err)
	}
	if rec.Label != "berbahaya" {
		t.Fatalf("wrong promoted label: %q", rec.Label)
	}
	if len(rec.Tokens) == 0 {
		t.Fatal("promoted row must carry clean_data tokens")
	}

	// second promotion with unchanged votes inserts nothing new
	inserted, err = fx.curator.Promote(context.Background())
	if err != nil {
		t.Fatalf("second promote: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("re-promotion must skip existing URLs, inserted %d", inserted)
	}
}

func TestPromoteDeletesTransientPredictions(t *testing.T) {
	fx := newCurator(t)
	addCleanData(t, fx.contentRepo, "https://a.com")
	addPredictions(t, fx.predictRepo, "https://a.com", "berbahaya", "berbahaya", "aman")
	addPredictions(t, fx.predictRepo, "https://pending.com", "aman", "aman")

	if _, err := fx.curator.Promote(context.Background()); err != nil {
		t.Fatalf("promote: %v", err)
	}

	rows, err := fx.predictRepo.ListAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, row := range rows {
		if row.URL == "https://a.com" {
			t.Fatal("predictions for a promoted URL must be deleted")
		}
	}
	if len(rows) != 2 {
		t.Fatalf("unpromoted URL's predictions must survive, got %d rows", len(rows))
	}
}

func TestPromoteSkipsURLWithoutCleanData(t *testing.T) {
	fx := newCurator(t)
	addPredictions(t, fx.predictRepo, "https://notext.com", "aman", "aman", "aman")

	inserted, err := fx.curator.Promote(context.Background())
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("URL without clean_data must not be promoted, inserted %d", inserted)
	}

	rec, err := fx.urlRepo.GetByURL(context.Background(), nil, "https://notext.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("token-less row was promoted anyway: %+v", rec)
	}

	// votes stay so a later cycle can promote once text exists
	rows, err := fx.predictRepo.ListAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("skipped URL must keep its predictions, got %d", len(rows))
	}
}

func TestCorrectLabelByIDValidatesLabel(t *testing.T) {
	fx := newCurator(t)
	rec, err := fx.predictRepo.Create(context.Background(), nil, &types.PredictionRecord{Text: "t", Label: "aman", URL: "u"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := fx.curator.CorrectLabelByID(context.Background(), rec.ID, "sangat-bahaya"); !apperr.Is(err, apperr.CodeMissingRequiredField) {
		t.Fatalf("unknown label must be rejected, got %v", err)
	}
	if err := fx.curator.CorrectLabelByID(context.Background(), rec.ID, "berbahaya"); err != nil {
		t.Fatalf("valid correction failed: %v", err)
	}

	got, err := fx.predictRepo.GetByID(context.Background(), nil, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Label != "berbahaya" {
		t.Fatalf("correction not applied: %q", got.Label)
	}
}

func TestCorrectLabelByLogID(t *testing.T) {
	fx := newCurator(t)
	logID := uuid.New()
	if _, err := fx.predictRepo.Create(context.Background(), nil, &types.PredictionRecord{
		Text: "t", Label: "aman", URL: "u", LogID: logID,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := fx.curator.CorrectLabelByLogID(context.Background(), logID, "berbahaya"); err != nil {
		t.Fatalf("correction by log id failed: %v", err)
	}

	rec, err := fx.predictRepo.GetLatestByLogID(context.Background(), nil, logID)
	if err != nil || rec == nil {
		t.Fatalf("get latest: %v", err)
	}
	if rec.Label != "berbahaya" {
		t.Fatalf("correction not applied: %q", rec.Label)
	}
}

func TestCorrectLabelByLogIDMissing(t *testing.T) {
	fx := newCurator(t)

	err := fx.curator.CorrectLabelByLogID(context.Background(), uuid.New(), "aman")
	if !apperr.Is(err, apperr.CodeLogNotFound) {
		t.Fatalf("expected log_not_found, got %v", err)
	}
}
