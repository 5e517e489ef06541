package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/utils"
)

// Client talks to the image inference sidecar: OCR-style captioning of
// screenshots and text embeddings for near-duplicate detection.
type Client interface {
	CaptionImage(ctx context.Context, img []byte) (string, error)
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

type client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(baseLog *logger.Logger) Client {
	return &client{
		baseURL: utils.GetEnv("INFERENCE_BASE_URL", "http://localhost:9090", baseLog),
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     baseLog.With("client", "Inference"),
	}
}

type captionRequest struct {
	ImageBase64 []byte `json:"image_base64"`
}

type captionResponse struct {
	Caption string `json:"caption"`
}

func (c *client) CaptionImage(ctx context.Context, img []byte) (string, error) {
	var out captionResponse
	if err := c.post(ctx, "/caption", captionRequest{ImageBase64: img}, &out); err != nil {
		return "", err
	}
	return out.Caption, nil
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (c *client) EmbedText(ctx context.Context, text string) ([]float64, error) {
	var out embedResponse
	if err := c.post(ctx, "/embed", embedRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

func (c *client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
