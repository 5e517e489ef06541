package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

// SocialHosts is the fixed set of hosts routed through the headless
// browser instead of the plain HTTP scraper.
var SocialHosts = map[string]struct{}{
	"instagram.com": {},
	"tiktok.com":    {},
	"youtube.com":   {},
	"youtu.be":      {},
}

// IsSocialHost reports whether the host (with any www. prefix stripped)
// belongs to the social set.
func IsSocialHost(host string) bool {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	_, ok := SocialHosts[host]
	return ok
}

// SocialScraper drives a headless browser against social pages, which
// render captions and media client-side.
type SocialScraper struct {
	timeout time.Duration
	log     *logger.Logger
}

func NewSocialScraper(baseLog *logger.Logger) *SocialScraper {
	return &SocialScraper{
		timeout: 60 * time.Second,
		log:     baseLog.With("client", "SocialScraper"),
	}
}

// SocialContent carries caption text and direct media URLs for one post.
type SocialContent struct {
	Caption    string
	ImageLinks []string
	VideoLinks []string
}

func (s *SocialScraper) Fetch(ctx context.Context, pageURL string) (*SocialContent, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("mute-audio", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, s.timeout)
	defer cancelRun()

	var caption string
	var imageLinks, videoLinks []string

	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(4*time.Second),
		chromedp.Evaluate(captionJS, &caption),
		chromedp.Evaluate(`Array.from(document.querySelectorAll('img')).map(i => i.src).filter(Boolean)`, &imageLinks),
		chromedp.Evaluate(`Array.from(document.querySelectorAll('video')).map(v => v.src || (v.querySelector('source') || {}).src || '').filter(Boolean)`, &videoLinks),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	caption = strings.TrimSpace(caption)
	s.log.Debug("Social page rendered",
		"url", pageURL,
		"caption_len", len(caption),
		"images", len(imageLinks),
		"videos", len(videoLinks))

	return &SocialContent{
		Caption:    caption,
		ImageLinks: imageLinks,
		VideoLinks: videoLinks,
	}, nil
}

// captionJS pulls the post caption from whichever selector the platform
// uses, falling back to the og:description meta tag.
const captionJS = `(() => {
	const selectors = [
		'h1[data-e2e="browse-video-desc"]',
		'div[data-e2e="browse-video-desc"]',
		'h1.ytd-watch-metadata',
		'meta[property="og:title"]',
		'article h1',
	];
	for (const sel of selectors) {
		const el = document.querySelector(sel);
		if (!el) continue;
		const text = el.content || el.innerText || '';
		if (text.trim()) return text.trim();
	}
	const og = document.querySelector('meta[property="og:description"]');
	return og && og.content ? og.content.trim() : '';
})()`
