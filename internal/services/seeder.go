package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/textproc"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

// SeedRow is one curated example supplied by an operator to bootstrap the
// training set before any organic traffic exists.
type SeedRow struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Label string `json:"label"`
}

// DatasetSeeder bulk-loads labeled rows into url_classification, skipping
// URLs already present.
type DatasetSeeder interface {
	Seed(ctx context.Context, rows []SeedRow) (int, error)
}

type datasetSeeder struct {
	urlRepo    repos.UrlClassificationRepo
	normalizer *textproc.Normalizer
	log        *logger.Logger
}

func NewDatasetSeeder(urlRepo repos.UrlClassificationRepo, normalizer *textproc.Normalizer, baseLog *logger.Logger) DatasetSeeder {
	return &datasetSeeder{
		urlRepo:    urlRepo,
		normalizer: normalizer,
		log:        baseLog.With("service", "DatasetSeeder"),
	}
}

func (s *datasetSeeder) Seed(ctx context.Context, rows []SeedRow) (int, error) {
	if len(rows) == 0 {
		return 0, apperr.MissingRequiredField("dataset")
	}

	recs := make([]*types.UrlClassification, 0, len(rows))
	for _, row := range rows {
		if row.URL == "" || row.Text == "" {
			continue
		}
		if err := validateLabel(row.Label); err != nil {
			return 0, err
		}
		_, tokens := s.normalizer.Normalize(row.Text)
		if len(tokens) == 0 {
			continue
		}
		tokensJSON, err := json.Marshal(tokens)
		if err != nil {
			return 0, err
		}
		recs = append(recs, &types.UrlClassification{
			URL:    row.URL,
			Label:  row.Label,
			Tokens: datatypes.JSON(tokensJSON),
		})
	}
	if len(recs) == 0 {
		return 0, apperr.MissingRequiredField("dataset")
	}

	inserted, err := s.urlRepo.CreateBatch(ctx, nil, recs)
	if err != nil {
		return inserted, err
	}
	s.log.Info("Dataset seeded", "provided", len(rows), "inserted", inserted)
	return inserted, nil
}
