package snailly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/utils"
)

// Client talks to the parent-facing Snailly API: push notifications and
// parent lookup by child.
type Client interface {
	SendNotification(ctx context.Context, n Notification) error
	ResolveParent(ctx context.Context, childID string) (string, error)
}

type Notification struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
	URL      string `json:"url"`
	Label    string `json:"label"`
	Message  string `json:"message"`
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(baseLog *logger.Logger) Client {
	return &client{
		baseURL: utils.GetEnv("SNAILLY_API_BASE_URL", "http://localhost:8000", baseLog),
		token:   utils.GetEnv("SNAILLY_API_TOKEN", "", nil),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     baseLog.With("client", "SnaillyAPI"),
	}
}

func (c *client) SendNotification(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notifications", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send notification: status %d", resp.StatusCode)
	}
	c.log.Debug("Notification sent", "child_id", n.ChildID, "url", n.URL)
	return nil
}

func (c *client) ResolveParent(ctx context.Context, childID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/children/"+childID+"/parent", nil)
	if err != nil {
		return "", fmt.Errorf("build parent lookup: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup parent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup parent: status %d", resp.StatusCode)
	}

	var body struct {
		ParentID string `json:"parent_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode parent lookup: %w", err)
	}
	return body.ParentID, nil
}
