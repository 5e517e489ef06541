package gcp

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

// Vision captions images: label annotations plus any text found in the
// frame, joined into one caption string per image.
type Vision interface {
	CaptionImageURL(ctx context.Context, imageURL string) (string, error)
	CaptionImageBytes(ctx context.Context, img []byte) (string, error)
	Close() error
}

type visionService struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient

	maxLabels int
	minScore  float32
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Vision")

	client, err := vision.NewImageAnnotatorClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionService{
		log:       slog,
		client:    client,
		maxLabels: 10,
		minScore:  0.6,
	}, nil
}

func (v *visionService) CaptionImageURL(ctx context.Context, imageURL string) (string, error) {
	img := &visionpb.Image{Source: &visionpb.ImageSource{ImageUri: imageURL}}
	return v.caption(ctx, img)
}

func (v *visionService) CaptionImageBytes(ctx context.Context, raw []byte) (string, error) {
	return v.caption(ctx, &visionpb.Image{Content: raw})
}

func (v *visionService) caption(ctx context.Context, img *visionpb.Image) (string, error) {
	req := &visionpb.AnnotateImageRequest{
		Image: img,
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: int32(v.maxLabels)},
			{Type: visionpb.Feature_TEXT_DETECTION, MaxResults: 1},
		},
	}
	batch, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if batch == nil || len(batch.GetResponses()) == 0 || batch.GetResponses()[0] == nil {
		return "", nil
	}
	resp := batch.GetResponses()[0]
	if e := resp.GetError(); e != nil && e.GetMessage() != "" {
		return "", fmt.Errorf("annotate image: %s", e.GetMessage())
	}

	var parts []string
	for _, label := range resp.GetLabelAnnotations() {
		if label.GetScore() < v.minScore {
			continue
		}
		parts = append(parts, label.GetDescription())
	}
	if anns := resp.GetTextAnnotations(); len(anns) > 0 {
		if text := strings.TrimSpace(anns[0].GetDescription()); text != "" {
			parts = append(parts, text)
		}
	}

	caption := strings.Join(parts, " ")
	v.log.Debug("Image captioned", "labels", len(resp.GetLabelAnnotations()), "caption_len", len(caption))
	return caption, nil
}

func (v *visionService) Close() error {
	return v.client.Close()
}
