package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/gcp"
	"github.com/ariqhikari/SnaillyJaya/internal/clients/scrape"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

const (
	captionConcurrency = 4
	maxMediaBytes      = 32 << 20
)

// placeholder markers emitted by upstream caption providers; the marker may
// carry trailing detail ("[ERROR] no valid frame"), so matching is by
// containment, never whole-string equality
var captionPlaceholders = []string{"[ERROR]", "[WARNING]", "[NO CAPTION]"}

func isPlaceholderCaption(s string) bool {
	upper := strings.ToUpper(s)
	for _, marker := range captionPlaceholders {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// ScrapeResult is the raw content for one URL before normalization.
type ScrapeResult struct {
	RawText    string
	ImageLinks []string
	VideoLinks []string
	Segments   []types.Segment
}

// ScrapeDispatcher routes a URL to the right scraper by host: the social
// set goes through the headless browser plus media annotation, everything
// else through the plain HTTP scraper.
type ScrapeDispatcher interface {
	Dispatch(ctx context.Context, pageURL string) (*ScrapeResult, error)
}

type scrapeDispatcher struct {
	web    *scrape.WebScraper
	social *scrape.SocialScraper
	vision gcp.Vision
	video  gcp.Video
	speech gcp.Speech
	media  *http.Client
	log    *logger.Logger
}

// NewScrapeDispatcher accepts nil vision, video, and speech clients; media
// annotation is skipped when they are absent.
func NewScrapeDispatcher(web *scrape.WebScraper, social *scrape.SocialScraper, vision gcp.Vision, video gcp.Video, speech gcp.Speech, baseLog *logger.Logger) ScrapeDispatcher {
	return &scrapeDispatcher{
		web:    web,
		social: social,
		vision: vision,
		video:  video,
		speech: speech,
		media:  &http.Client{Timeout: 60 * time.Second},
		log:    baseLog.With("service", "ScrapeDispatcher"),
	}
}

func (d *scrapeDispatcher) Dispatch(ctx context.Context, pageURL string) (*ScrapeResult, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid url %q", pageURL)
	}

	var result *ScrapeResult
	if scrape.IsSocialHost(parsed.Host) {
		result, err = d.dispatchSocial(ctx, pageURL)
	} else {
		result, err = d.dispatchWeb(ctx, pageURL)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(result.RawText) == "" && len(result.Segments) == 0 {
		return nil, apperr.ScrapeEmpty(errors.New("no content extracted from " + pageURL))
	}
	return result, nil
}

func (d *scrapeDispatcher) dispatchWeb(ctx context.Context, pageURL string) (*ScrapeResult, error) {
	page, err := d.web.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	parts := []string{page.Text}
	parts = append(parts, d.captionImages(ctx, page.ImageLinks)...)

	return &ScrapeResult{
		RawText:    MergeCaptionParts(parts),
		ImageLinks: page.ImageLinks,
		VideoLinks: page.VideoLinks,
	}, nil
}

func (d *scrapeDispatcher) dispatchSocial(ctx context.Context, pageURL string) (*ScrapeResult, error) {
	post, err := d.social.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	result := &ScrapeResult{
		ImageLinks: post.ImageLinks,
		VideoLinks: post.VideoLinks,
	}

	parts := []string{post.Caption}
	parts = append(parts, d.captionImages(ctx, post.ImageLinks)...)

	if d.video != nil && len(post.VideoLinks) > 0 {
		segments, err := d.video.AnnotateVideoURL(ctx, post.VideoLinks[0])
		if err != nil {
			d.log.Warn("Video annotation failed", "url", post.VideoLinks[0], "error", err)
		} else {
			d.fillMissingTranscripts(ctx, segments, post.VideoLinks[0])
			result.Segments = segments
			for _, seg := range segments {
				parts = append(parts, seg.Caption, seg.Transcript)
			}
		}
	}

	result.RawText = MergeCaptionParts(parts)
	return result, nil
}

// captionImages captions every image link through the Vision client, a
// bounded number at a time. Order follows the input; failed links are
// skipped with a warning.
func (d *scrapeDispatcher) captionImages(ctx context.Context, links []string) []string {
	if d.vision == nil || len(links) == 0 {
		return nil
	}

	captions := make([]string, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(captionConcurrency)
	for i, link := range links {
		g.Go(func() error {
			caption, err := d.vision.CaptionImageURL(gctx, link)
			if err != nil {
				d.log.Warn("Image captioning failed", "url", link, "error", err)
				return nil
			}
			captions[i] = caption
			return nil
		})
	}
	_ = g.Wait()

	kept := captions[:0]
	for _, c := range captions {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return kept
}

// fillMissingTranscripts runs the Speech fallback when video annotation
// produced shots but no speech transcription: the media file is fetched and
// recognized directly, and the transcript lands on the first segment.
func (d *scrapeDispatcher) fillMissingTranscripts(ctx context.Context, segments []types.Segment, videoURL string) {
	if d.speech == nil || !needsTranscript(segments) {
		return
	}

	audio, err := d.fetchMedia(ctx, videoURL)
	if err != nil {
		d.log.Warn("Media fetch for transcription fallback failed", "url", videoURL, "error", err)
		return
	}
	transcript, err := d.speech.TranscribeAudioBytes(ctx, audio)
	if err != nil {
		d.log.Warn("Speech fallback failed", "url", videoURL, "error", err)
		return
	}
	if transcript == "" {
		return
	}
	segments[0].Transcript = transcript
}

// needsTranscript reports whether annotation produced segments but no
// speech transcription at all.
func needsTranscript(segments []types.Segment) bool {
	if len(segments) == 0 {
		return false
	}
	for _, seg := range segments {
		if strings.TrimSpace(seg.Transcript) != "" {
			return false
		}
	}
	return true
}

func (d *scrapeDispatcher) fetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.media.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media %s: status %d", mediaURL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
}

// MergeCaptionParts joins caption and transcript fragments with ". ",
// dropping empties and provider placeholder markers.
func MergeCaptionParts(parts []string) string {
	var kept []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if isPlaceholderCaption(p) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ". ")
}
