package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

// WebScraper fetches a page over plain HTTP and extracts its visible text
// and media links. Used for every host outside the social set.
type WebScraper struct {
	client *http.Client
	log    *logger.Logger
}

func NewWebScraper(baseLog *logger.Logger) *WebScraper {
	return &WebScraper{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    baseLog.With("client", "WebScraper"),
	}
}

// PageContent is the raw scrape result before normalization.
type PageContent struct {
	Text       string
	ImageLinks []string
	VideoLinks []string
}

// skipped elements contribute no visible text
var invisibleTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "iframe": {},
	"head": {}, "meta": {}, "link": {}, "svg": {},
}

func (w *WebScraper) Fetch(ctx context.Context, pageURL string) (*PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	base, _ := url.Parse(pageURL)
	content := &PageContent{}
	var parts []string
	w.walk(doc, base, content, &parts)
	content.Text = strings.Join(parts, " ")

	w.log.Debug("Page scraped",
		"url", pageURL,
		"text_len", len(content.Text),
		"images", len(content.ImageLinks),
		"videos", len(content.VideoLinks))
	return content, nil
}

func (w *WebScraper) walk(n *html.Node, base *url.URL, content *PageContent, parts *[]string) {
	switch n.Type {
	case html.ElementNode:
		if _, skip := invisibleTags[n.Data]; skip {
			return
		}
		switch n.Data {
		case "img":
			if src := attr(n, "src"); src != "" {
				content.ImageLinks = append(content.ImageLinks, resolve(base, src))
			}
		case "video", "source":
			if src := attr(n, "src"); src != "" {
				content.VideoLinks = append(content.VideoLinks, resolve(base, src))
			}
		}
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, base, content, parts)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
