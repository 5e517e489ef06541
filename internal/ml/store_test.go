package ml

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ariqhikari/SnaillyJaya/internal/repos/testutil"
)

func fittedTestModel(version string) *Model {
	vec := NewTfidfVectorizer()
	vec.Fit([]string{
		"judi online gacor",
		"judi online bola",
		"belajar baca tulis",
		"belajar baca buku",
	})

	x := []SparseVector{
		vec.Transform("judi online"),
		vec.Transform("judi online gacor"),
		vec.Transform("belajar baca"),
		vec.Transform("belajar baca tulis"),
	}
	y := []int{1, 1, 0, 0}
	clf := TrainLinearSVM(x, y, vec.NumFeatures(), [2]string{"aman", "berbahaya"}, 1.0, 42)

	return &Model{Vectorizer: vec, Classifier: clf, Version: version}
}

func TestStoreSaveThenLoadLatest(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testutil.Logger(t))
	model := fittedTestModel("20260829_120000")

	summary := &TrainingSummary{
		Timestamp:   model.Version,
		NumFeatures: model.Vectorizer.NumFeatures(),
		NumSamples:  4,
		NumClasses:  2,
		Classes:     []string{"aman", "berbahaya"},
	}
	if err := store.Save(model, summary); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, name := range []string{
		"svm_model_20260829_120000.gob",
		"tfidf_vectorizer_20260829_120000.gob",
		"svm_model_latest.gob",
		"tfidf_vectorizer_latest.gob",
		"training_summary.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	loaded, err := store.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Version != model.Version {
		t.Fatalf("loaded version: got %q want %q", loaded.Version, model.Version)
	}
	if loaded.Vectorizer.NumFeatures() != model.Vectorizer.NumFeatures() {
		t.Fatal("vectorizer state lost in round trip")
	}

	// the loaded pair must predict identically to the saved one
	sample := "judi online gacor"
	want := model.Classifier.Predict(model.Vectorizer.Transform(sample))
	got := loaded.Classifier.Predict(loaded.Vectorizer.Transform(sample))
	if want != got {
		t.Fatalf("loaded model predicts differently: got %d want %d", got, want)
	}
}

func TestStoreSaveReplacesLatestCleanly(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testutil.Logger(t))

	first := fittedTestModel("20260829_120000")
	if err := store.Save(first, &TrainingSummary{Timestamp: first.Version}); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := fittedTestModel("20260829_140000")
	if err := store.Save(second, &TrainingSummary{Timestamp: second.Version}); err != nil {
		t.Fatalf("save second: %v", err)
	}

	loaded, err := store.LoadLatest()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Version != second.Version {
		t.Fatalf("latest alias points at %q, want %q", loaded.Version, second.Version)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStoreLoadLatestMissing(t *testing.T) {
	store := NewStore(t.TempDir(), testutil.Logger(t))

	_, err := store.LoadLatest()
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestStoreSummaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testutil.Logger(t))
	model := fittedTestModel("20260829_130000")

	in := &TrainingSummary{
		Timestamp:          model.Version,
		ValidationAccuracy: 0.9,
		TestAccuracy:       0.85,
		NumFeatures:        model.Vectorizer.NumFeatures(),
		NumSamples:         40,
		NumClasses:         2,
		Classes:            []string{"aman", "berbahaya"},
	}
	if err := store.Save(model, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := store.LoadSummary()
	if err != nil {
		t.Fatalf("load summary: %v", err)
	}
	if out.TestAccuracy != in.TestAccuracy || out.NumSamples != in.NumSamples {
		t.Fatalf("summary fields lost: %+v", out)
	}
}
