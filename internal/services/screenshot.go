package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"gorm.io/datatypes"

	"github.com/ariqhikari/SnaillyJaya/internal/clients/gcp"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/inference"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/textproc"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

const maxScreenshotWidth = 1024

// ScreenshotResult is the verdict for one uploaded screenshot.
type ScreenshotResult struct {
	ID      uuid.UUID `json:"id"`
	Caption string    `json:"caption"`
	Label   string    `json:"label"`
	Proba   []float64 `json:"predicted_proba,omitempty"`
}

// ScreenshotService evaluates a single uploaded screenshot: caption it,
// normalize the caption, classify, and persist the evaluation. The unknown
// label is reserved for when no classifier can produce a verdict.
type ScreenshotService interface {
	Evaluate(ctx context.Context, img []byte, childID, parentID string) (*ScreenshotResult, error)
}

type screenshotService struct {
	vision     gcp.Vision
	inference  inference.Client
	bucket     gcp.BucketService
	normalizer *textproc.Normalizer
	engine     *ml.Engine
	repo       repos.ScreenshotRepo
	log        *logger.Logger
}

// NewScreenshotService accepts nil vision, inference, and bucket clients;
// each missing client disables its step.
func NewScreenshotService(
	vision gcp.Vision,
	inferenceClient inference.Client,
	bucket gcp.BucketService,
	normalizer *textproc.Normalizer,
	engine *ml.Engine,
	repo repos.ScreenshotRepo,
	baseLog *logger.Logger,
) ScreenshotService {
	return &screenshotService{
		vision:     vision,
		inference:  inferenceClient,
		bucket:     bucket,
		normalizer: normalizer,
		engine:     engine,
		repo:       repo,
		log:        baseLog.With("service", "ScreenshotService"),
	}
}

func (s *screenshotService) Evaluate(ctx context.Context, img []byte, childID, parentID string) (*ScreenshotResult, error) {
	scaled, err := downscale(img)
	if err != nil {
		s.log.Warn("Screenshot downscale failed, using original bytes", "error", err)
		scaled = img
	}

	caption, err := s.captionImage(ctx, scaled)
	if err != nil {
		return nil, err
	}

	normalized, tokens := s.normalizer.Normalize(caption)

	// Once a caption exists the request must succeed: a classifier outage
	// degrades to the unknown label, never to an error.
	label := ml.LabelUnknown
	var proba []float64
	if normalized != "" {
		predicted, p, err := s.engine.Classify(normalized)
		if err != nil {
			s.log.Warn("Screenshot classification unavailable, labeling unknown", "error", err)
		} else {
			label = predicted
			proba = p
		}
	}

	rec := &types.ScreenshotRecord{
		Caption: caption,
		Text:    normalized,
		Label:   label,
		ChildID: childID,
	}
	if parentID != "" {
		rec.ParentID = &parentID
	}
	if tokensJSON, err := json.Marshal(tokens); err == nil {
		rec.Tokens = datatypes.JSON(tokensJSON)
	}
	if s.inference != nil && normalized != "" {
		if embedding, err := s.inference.EmbedText(ctx, normalized); err != nil {
			s.log.Warn("Embedding failed", "error", err)
		} else if raw, err := json.Marshal(embedding); err == nil {
			rec.Embedding = datatypes.JSON(raw)
		}
	}
	if s.bucket != nil {
		key := fmt.Sprintf("screenshots/%s/%d.jpg", childID, time.Now().UnixNano())
		if err := s.bucket.UploadFile(ctx, gcp.BucketCategoryScreenshot, key, bytes.NewReader(scaled)); err != nil {
			s.log.Warn("Screenshot upload failed", "key", key, "error", err)
		} else {
			rec.StorageKey = key
		}
	}

	stored, err := s.repo.Create(ctx, nil, rec)
	if err != nil {
		return nil, err
	}

	return &ScreenshotResult{
		ID:      stored.ID,
		Caption: caption,
		Label:   label,
		Proba:   proba,
	}, nil
}

// captionImage prefers the vision API and falls back to the inference
// sidecar when vision is unavailable or errors.
func (s *screenshotService) captionImage(ctx context.Context, img []byte) (string, error) {
	if s.vision != nil {
		caption, err := s.vision.CaptionImageBytes(ctx, img)
		if err == nil {
			return caption, nil
		}
		s.log.Warn("Vision captioning failed", "error", err)
	}
	if s.inference != nil {
		return s.inference.CaptionImage(ctx, img)
	}
	return "", fmt.Errorf("no captioning backend available")
}

// downscale caps the width and re-encodes as JPEG to keep caption requests
// under provider size limits.
func downscale(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	if bounds.Dx() <= maxScreenshotWidth {
		return raw, nil
	}

	height := bounds.Dy() * maxScreenshotWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxScreenshotWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
