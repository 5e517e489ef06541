package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

// LabelCurator turns raw predictions into curated training labels: a
// majority vote over predict_data per URL, plus human corrections applied
// before promotion.
type LabelCurator interface {
	ComputeMajorityLabels(ctx context.Context) (map[string]string, error)
	Promote(ctx context.Context) (int, error)
	CorrectLabelByID(ctx context.Context, id uuid.UUID, label string) error
	CorrectLabelByLogID(ctx context.Context, logID uuid.UUID, label string) error
}

type labelCurator struct {
	predictRepo repos.PredictionRepo
	urlRepo     repos.UrlClassificationRepo
	contentRepo repos.ContentRepo
	log         *logger.Logger
}

func NewLabelCurator(predictRepo repos.PredictionRepo, urlRepo repos.UrlClassificationRepo, contentRepo repos.ContentRepo, baseLog *logger.Logger) LabelCurator {
	return &labelCurator{
		predictRepo: predictRepo,
		urlRepo:     urlRepo,
		contentRepo: contentRepo,
		log:         baseLog.With("service", "LabelCurator"),
	}
}

// ComputeMajorityLabels tallies predictions per URL. Only URLs with an odd
// number of predictions get a verdict; an even count can tie, so those
// URLs wait for the next sighting.
func (c *labelCurator) ComputeMajorityLabels(ctx context.Context) (map[string]string, error) {
	rows, err := c.predictRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	votes := map[string]map[string]int{}
	for _, row := range rows {
		if votes[row.URL] == nil {
			votes[row.URL] = map[string]int{}
		}
		votes[row.URL][row.Label]++
	}

	winners := map[string]string{}
	for url, tally := range votes {
		total := 0
		for _, n := range tally {
			total += n
		}
		if total%2 == 0 {
			continue
		}
		winners[url] = majority(tally)
	}
	return winners, nil
}

func majority(tally map[string]int) string {
	labels := make([]string, 0, len(tally))
	for label := range tally {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	best, bestCount := "", -1
	for _, label := range labels {
		if tally[label] > bestCount {
			best, bestCount = label, tally[label]
		}
	}
	return best
}

// Promote writes majority winners into url_classification, carrying the
// normalized tokens from clean_data. A URL without a clean_data record is
// skipped with a warning so no label ever enters the training set without
// backing text. Promoted URLs get their transient predictions deleted.
func (c *labelCurator) Promote(ctx context.Context) (int, error) {
	winners, err := c.ComputeMajorityLabels(ctx)
	if err != nil {
		return 0, err
	}
	if len(winners) == 0 {
		return 0, nil
	}

	urls := make([]string, 0, len(winners))
	for url := range winners {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	inserted := 0
	for _, url := range urls {
		existing, err := c.urlRepo.GetByURL(ctx, nil, url)
		if err != nil {
			return inserted, err
		}
		if existing != nil {
			continue
		}

		content, err := c.contentRepo.GetByURL(ctx, nil, url)
		if err != nil {
			return inserted, err
		}
		if content == nil {
			c.log.Warn("No clean_data record for majority URL, skipping promotion", "url", url)
			continue
		}

		rec := &types.UrlClassification{URL: url, Label: winners[url], Tokens: content.Tokens}
		if _, err := c.urlRepo.Create(ctx, nil, rec); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return inserted, err
		}
		inserted++

		if deleted, err := c.predictRepo.DeleteByURL(ctx, nil, url); err != nil {
			c.log.Warn("Promoted URL's predictions not cleaned up", "url", url, "error", err)
		} else {
			c.log.Debug("Transient predictions removed after promotion", "url", url, "deleted", deleted)
		}
	}

	c.log.Info("Majority labels promoted", "candidates", len(urls), "inserted", inserted)
	return inserted, nil
}

func (c *labelCurator) CorrectLabelByID(ctx context.Context, id uuid.UUID, label string) error {
	if err := validateLabel(label); err != nil {
		return err
	}
	err := c.predictRepo.UpdateLabel(ctx, nil, id, label)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.LogNotFound(err)
	}
	return err
}

// CorrectLabelByLogID corrects the most recent prediction tied to an
// activity log entry, for callers that only hold the log id.
func (c *labelCurator) CorrectLabelByLogID(ctx context.Context, logID uuid.UUID, label string) error {
	if err := validateLabel(label); err != nil {
		return err
	}
	rec, err := c.predictRepo.GetLatestByLogID(ctx, nil, logID)
	if err != nil {
		return err
	}
	if rec == nil {
		return apperr.LogNotFound(errors.New("no prediction for log_id " + logID.String()))
	}
	return c.predictRepo.UpdateLabel(ctx, nil, rec.ID, label)
}

func validateLabel(label string) error {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case ml.LabelSafe, ml.LabelDanger:
		return nil
	default:
		return apperr.MissingRequiredField("label")
	}
}
