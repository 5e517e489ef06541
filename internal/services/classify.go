package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/textproc"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

// ClassifyRequest is one access-decision request from a child device.
// Text is only set on the direct-text path; the URL path scrapes it.
type ClassifyRequest struct {
	URL      string
	Text     string
	ChildID  string
	ParentID string
}

// ClassifyResult is the verdict returned to the device.
type ClassifyResult struct {
	LogID       uuid.UUID       `json:"log_id"`
	URL         string          `json:"url"`
	Label       string          `json:"label"`
	Proba       []float64       `json:"predicted_proba"`
	GrantAccess bool            `json:"grant_access"`
	Segments    []types.Segment `json:"segments,omitempty"`
	FromCache   bool            `json:"from_cache"`
}

// ClassifyService runs the full request pipeline: open the ledger entry,
// resolve content, classify, record the prediction, close the entry, and
// gate the parent notification.
type ClassifyService interface {
	ClassifyURL(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error)
	ClassifyText(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error)
	ScrapeURL(ctx context.Context, url string) (*types.ContentRecord, bool, error)
}

type classifyService struct {
	store       ContentStore
	dispatcher  ScrapeDispatcher
	normalizer  *textproc.Normalizer
	engine      *ml.Engine
	ledger      ActivityLedger
	gate        NotificationGate
	predictRepo repos.PredictionRepo
	log         *logger.Logger
}

func NewClassifyService(
	store ContentStore,
	dispatcher ScrapeDispatcher,
	normalizer *textproc.Normalizer,
	engine *ml.Engine,
	ledger ActivityLedger,
	gate NotificationGate,
	predictRepo repos.PredictionRepo,
	baseLog *logger.Logger,
) ClassifyService {
	return &classifyService{
		store:       store,
		dispatcher:  dispatcher,
		normalizer:  normalizer,
		engine:      engine,
		ledger:      ledger,
		gate:        gate,
		predictRepo: predictRepo,
		log:         baseLog.With("service", "ClassifyService"),
	}
}

// ScrapeURL returns the cached record for a URL, scraping and normalizing
// on a miss. The bool reports whether the record came from the cache.
func (s *classifyService) ScrapeURL(ctx context.Context, url string) (*types.ContentRecord, bool, error) {
	if existing, err := s.store.GetByURL(ctx, url); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, true, nil
	}

	scraped, err := s.dispatcher.Dispatch(ctx, url)
	if err != nil {
		return nil, false, err
	}

	normalized, tokens := s.normalizer.Normalize(scraped.RawText)
	if normalized == "" && len(scraped.Segments) == 0 {
		return nil, false, apperr.EmptyAfterPreprocessing(errors.New("no usable text after preprocessing " + url))
	}

	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return nil, false, err
	}
	rec := &types.ContentRecord{
		URL:        url,
		Text:       normalized,
		RawText:    scraped.RawText,
		Tokens:     datatypes.JSON(tokensJSON),
		ImageLinks: strings.Join(scraped.ImageLinks, ","),
		VideoLinks: strings.Join(scraped.VideoLinks, ","),
	}
	if len(scraped.Segments) > 0 {
		segJSON, err := json.Marshal(scraped.Segments)
		if err != nil {
			return nil, false, err
		}
		rec.Segments = datatypes.JSON(segJSON)
	}

	stored, err := s.store.Put(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

func (s *classifyService) ClassifyURL(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error) {
	entry, err := s.ledger.Open(ctx, req.ChildID, req.ParentID, req.URL)
	if err != nil {
		return nil, err
	}

	rec, fromCache, err := s.ScrapeURL(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	segments := s.classifySegments(ctx, rec)

	result, err := s.finish(ctx, entry, req, rec.Text)
	if err != nil {
		return nil, err
	}
	result.Segments = segments
	result.FromCache = fromCache
	return result, nil
}

// ClassifyText classifies text the caller already extracted, skipping the
// scrape step. Used by devices that ship page text alongside the URL.
func (s *classifyService) ClassifyText(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.MissingRequiredField("text")
	}

	entry, err := s.ledger.Open(ctx, req.ChildID, req.ParentID, req.URL)
	if err != nil {
		return nil, err
	}

	normalized, _ := s.normalizer.Normalize(req.Text)
	if normalized == "" {
		return nil, apperr.EmptyAfterPreprocessing(errors.New("no usable text after preprocessing"))
	}

	result, err := s.finish(ctx, entry, req, normalized)
	if err != nil {
		return nil, err
	}

	// A URL scraped earlier may carry video segments that still need labels.
	if rec, err := s.store.GetByURL(ctx, req.URL); err != nil {
		s.log.Warn("Cached record lookup failed", "url", req.URL, "error", err)
	} else if rec != nil {
		result.Segments = s.classifySegments(ctx, rec)
		result.FromCache = true
	}
	return result, nil
}

// finish runs the shared tail of both classify paths: predict, persist the
// prediction, close the ledger entry with the verdict, gate the notification.
func (s *classifyService) finish(ctx context.Context, entry *types.ActivityLogEntry, req ClassifyRequest, text string) (*ClassifyResult, error) {
	label, proba, err := s.engine.Classify(text)
	if err != nil {
		return nil, err
	}

	probaJSON, _ := json.Marshal(proba)
	prediction := &types.PredictionRecord{
		Text:           text,
		Label:          label,
		PredictedProba: datatypes.JSON(probaJSON),
		URL:            req.URL,
		ChildID:        req.ChildID,
		ParentID:       entry.ParentID,
		LogID:          entry.LogID,
	}
	if _, err := s.predictRepo.Create(ctx, nil, prediction); err != nil {
		return nil, err
	}

	grant := label == ml.LabelSafe
	if err := s.ledger.Close(ctx, entry.LogID, grant); err != nil {
		if apperr.Is(err, apperr.CodeLogNotFound) {
			s.log.Warn("Ledger entry vanished before close", "log_id", entry.LogID)
		} else {
			return nil, err
		}
	}

	parentID := ""
	if entry.ParentID != nil {
		parentID = *entry.ParentID
	}
	s.gate.NotifyIfFirstSighting(ctx, parentID, req.ChildID, req.URL, label)

	return &ClassifyResult{
		LogID:       entry.LogID,
		URL:         req.URL,
		Label:       label,
		Proba:       proba,
		GrantAccess: grant,
	}, nil
}

// classifySegments labels each video segment and persists the updated list.
// Failures here degrade to an unlabeled segment list, never a failed request.
func (s *classifyService) classifySegments(ctx context.Context, rec *types.ContentRecord) []types.Segment {
	if len(rec.Segments) == 0 {
		return nil
	}
	var segments []types.Segment
	if err := json.Unmarshal(rec.Segments, &segments); err != nil {
		s.log.Warn("Stored segments unreadable", "url", rec.URL, "error", err)
		return nil
	}

	changed := false
	for i := range segments {
		if segments[i].Danger != "" {
			continue
		}
		combined := MergeCaptionParts([]string{segments[i].Caption, segments[i].Transcript})
		normalized, _ := s.normalizer.Normalize(combined)
		segments[i].Danger = s.engine.ClassifySegment(normalized)
		changed = true
	}
	if changed {
		if err := s.store.UpdateSegments(ctx, rec.ID, rec.URL, segments); err != nil {
			s.log.Warn("Segment label update failed", "url", rec.URL, "error", err)
		}
	}
	return segments
}
