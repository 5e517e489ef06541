package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/gcp"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
)

// RetrainingCoordinator rebuilds the model pair from curated labels and
// hot-swaps it into the registry. At most one retrain runs at a time; a
// failed run leaves the active model untouched.
type RetrainingCoordinator interface {
	Retrain(ctx context.Context) (*ml.TrainingSummary, error)
	InFlight() bool
}

type retrainingCoordinator struct {
	curator  LabelCurator
	urlRepo  repos.UrlClassificationRepo
	registry *ml.Registry
	trainer  *ml.Trainer
	store    *ml.Store
	bucket   gcp.BucketService
	running  atomic.Bool
	log      *logger.Logger
}

// NewRetrainingCoordinator accepts a nil bucket service; artifact
// archiving is skipped when it is absent.
func NewRetrainingCoordinator(
	curator LabelCurator,
	urlRepo repos.UrlClassificationRepo,
	registry *ml.Registry,
	trainer *ml.Trainer,
	store *ml.Store,
	bucket gcp.BucketService,
	baseLog *logger.Logger,
) RetrainingCoordinator {
	return &retrainingCoordinator{
		curator:  curator,
		urlRepo:  urlRepo,
		registry: registry,
		trainer:  trainer,
		store:    store,
		bucket:   bucket,
		log:      baseLog.With("service", "RetrainingCoordinator"),
	}
}

func (r *retrainingCoordinator) InFlight() bool {
	return r.running.Load()
}

func (r *retrainingCoordinator) Retrain(ctx context.Context) (*ml.TrainingSummary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, apperr.RetrainInFlight()
	}
	defer r.running.Store(false)

	if _, err := r.curator.Promote(ctx); err != nil {
		return nil, err
	}

	samples, err := r.loadSamples(ctx)
	if err != nil {
		return nil, err
	}

	model, summary, err := r.trainer.Train(samples, ml.TrainerOptions{})
	if err != nil {
		return nil, err
	}

	if err := r.store.Save(model, summary); err != nil {
		return nil, err
	}
	r.archive(ctx, model.Version)

	r.registry.Swap(model)
	r.log.Info("Model retrained and swapped",
		"version", model.Version,
		"samples", summary.NumSamples,
		"test_accuracy", summary.TestAccuracy)
	return summary, nil
}

// loadSamples reads curated rows from url_classification. The training
// text is the stored token list rejoined with spaces.
func (r *retrainingCoordinator) loadSamples(ctx context.Context) ([]ml.Sample, error) {
	rows, err := r.urlRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	var samples []ml.Sample
	for _, row := range rows {
		text := tokensToText(row.Tokens)
		if text == "" {
			continue
		}
		samples = append(samples, ml.Sample{Text: text, Label: row.Label})
	}
	if len(samples) == 0 {
		return nil, apperr.InsufficientData(errors.New("no usable curated rows"))
	}
	return samples, nil
}

func tokensToText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(tokens, " "))
}

// archive is best-effort; a failed upload never fails the retrain.
func (r *retrainingCoordinator) archive(ctx context.Context, version string) {
	if r.bucket == nil {
		return
	}
	for _, path := range r.store.ArtifactPaths(version) {
		f, err := os.Open(path)
		if err != nil {
			r.log.Warn("Artifact open failed, skipping archive", "path", path, "error", err)
			continue
		}
		key := "models/" + version + "/" + filepath.Base(path)
		if err := r.bucket.UploadFile(ctx, gcp.BucketCategoryModel, key, f); err != nil {
			r.log.Warn("Artifact archive failed", "key", key, "error", err)
		}
		_ = f.Close()
	}
}
