package services

import (
	"context"
	"testing"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/repos/testutil"
	"github.com/ariqhikari/SnaillyJaya/internal/textproc"
)

func newSeeder(t *testing.T) (DatasetSeeder, repos.UrlClassificationRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	normalizer, err := textproc.NewNormalizer()
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	urlRepo := repos.NewUrlClassificationRepo(db, log)
	return NewDatasetSeeder(urlRepo, normalizer, log), urlRepo
}

func TestSeederInsertsNormalizedRows(t *testing.T) {
	seeder, urlRepo := newSeeder(t)
	ctx := context.Background()

	inserted, err := seeder.Seed(ctx, []SeedRow{
		{URL: "https://bad.com", Text: "Situs judi online gacor!", Label: "berbahaya"},
		{URL: "https://good.com", Text: "Belajar membaca bersama", Label: "aman"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	rec, err := urlRepo.GetByURL(ctx, nil, "https://bad.com")
	if err != nil || rec == nil {
		t.Fatalf("seeded row missing: %v", err)
	}
	if len(rec.Tokens) == 0 {
		t.Fatal("seeded row must carry normalized tokens")
	}
}

func TestSeederSkipsDuplicateURLs(t *testing.T) {
	seeder, _ := newSeeder(t)
	ctx := context.Background()

	if _, err := seeder.Seed(ctx, []SeedRow{{URL: "https://a.com", Text: "konten pertama kali", Label: "aman"}}); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	inserted, err := seeder.Seed(ctx, []SeedRow{{URL: "https://a.com", Text: "konten kedua kali", Label: "berbahaya"}})
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("duplicate url must be skipped, inserted %d", inserted)
	}
}

func TestSeederRejectsBadLabel(t *testing.T) {
	seeder, _ := newSeeder(t)

	_, err := seeder.Seed(context.Background(), []SeedRow{{URL: "https://a.com", Text: "teks", Label: "netral"}})
	if !apperr.Is(err, apperr.CodeMissingRequiredField) {
		t.Fatalf("expected rejection of unknown label, got %v", err)
	}
}

func TestSeederRejectsEmptyDataset(t *testing.T) {
	seeder, _ := newSeeder(t)

	_, err := seeder.Seed(context.Background(), nil)
	if !apperr.Is(err, apperr.CodeMissingRequiredField) {
		t.Fatalf("expected rejection of empty dataset, got %v", err)
	}
}
