package gcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	videointelligence "cloud.google.com/go/videointelligence/apiv1"
	videopb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

// Video splits a video into shots and produces one Segment per shot,
// with visual labels as the caption and spoken words as the transcript.
type Video interface {
	AnnotateVideoURL(ctx context.Context, videoURI string) ([]types.Segment, error)
	AnnotateVideoBytes(ctx context.Context, raw []byte) ([]types.Segment, error)
	Close() error
}

type videoService struct {
	log          *logger.Logger
	client       *videointelligence.Client
	languageCode string
	minScore     float32
}

func NewVideo(log *logger.Logger) (Video, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Video")

	client, err := videointelligence.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("video intelligence client: %w", err)
	}

	return &videoService{
		log:          slog,
		client:       client,
		languageCode: "id-ID",
		minScore:     0.5,
	}, nil
}

func (v *videoService) AnnotateVideoURL(ctx context.Context, videoURI string) ([]types.Segment, error) {
	return v.annotate(ctx, &videopb.AnnotateVideoRequest{InputUri: videoURI})
}

func (v *videoService) AnnotateVideoBytes(ctx context.Context, raw []byte) ([]types.Segment, error) {
	return v.annotate(ctx, &videopb.AnnotateVideoRequest{InputContent: raw})
}

func (v *videoService) annotate(ctx context.Context, req *videopb.AnnotateVideoRequest) ([]types.Segment, error) {
	req.Features = []videopb.Feature{
		videopb.Feature_SHOT_CHANGE_DETECTION,
		videopb.Feature_LABEL_DETECTION,
		videopb.Feature_SPEECH_TRANSCRIPTION,
	}
	req.VideoContext = &videopb.VideoContext{
		SpeechTranscriptionConfig: &videopb.SpeechTranscriptionConfig{
			LanguageCode:               v.languageCode,
			EnableAutomaticPunctuation: true,
		},
	}

	op, err := v.client.AnnotateVideo(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("annotate video: %w", err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("annotate video wait: %w", err)
	}
	results := resp.GetAnnotationResults()
	if len(results) == 0 {
		return nil, nil
	}
	return v.buildSegments(results[0]), nil
}

type timedWord struct {
	at   float64
	word string
}

// buildSegments carves the timeline along shot boundaries and folds each
// label and spoken word into the shot it overlaps.
func (v *videoService) buildSegments(res *videopb.VideoAnnotationResults) []types.Segment {
	var segments []types.Segment
	for _, shot := range res.GetShotAnnotations() {
		segments = append(segments, types.Segment{
			Start: shot.GetStartTimeOffset().AsDuration().Seconds(),
			End:   shot.GetEndTimeOffset().AsDuration().Seconds(),
		})
	}
	if len(segments) == 0 {
		segments = append(segments, types.Segment{Start: 0, End: 0})
		segments[0].End = lastTimestamp(res)
	}

	for _, ann := range res.GetShotLabelAnnotations() {
		desc := ann.GetEntity().GetDescription()
		if desc == "" {
			continue
		}
		for _, ls := range ann.GetSegments() {
			if ls.GetConfidence() < v.minScore {
				continue
			}
			mid := (ls.GetSegment().GetStartTimeOffset().AsDuration().Seconds() +
				ls.GetSegment().GetEndTimeOffset().AsDuration().Seconds()) / 2
			if i := segmentAt(segments, mid); i >= 0 {
				if segments[i].Caption == "" {
					segments[i].Caption = desc
				} else if !strings.Contains(segments[i].Caption, desc) {
					segments[i].Caption += " " + desc
				}
			}
		}
	}

	var words []timedWord
	for _, tr := range res.GetSpeechTranscriptions() {
		alts := tr.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		for _, w := range alts[0].GetWords() {
			words = append(words, timedWord{
				at:   w.GetStartTime().AsDuration().Seconds(),
				word: w.GetWord(),
			})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].at < words[j].at })
	for _, w := range words {
		if i := segmentAt(segments, w.at); i >= 0 {
			if segments[i].Transcript == "" {
				segments[i].Transcript = w.word
			} else {
				segments[i].Transcript += " " + w.word
			}
		}
	}

	v.log.Debug("Video annotated", "segments", len(segments), "words", len(words))
	return segments
}

func segmentAt(segments []types.Segment, at float64) int {
	for i, s := range segments {
		if at >= s.Start && (at < s.End || i == len(segments)-1) {
			return i
		}
	}
	return -1
}

func lastTimestamp(res *videopb.VideoAnnotationResults) float64 {
	var last float64
	for _, tr := range res.GetSpeechTranscriptions() {
		for _, alt := range tr.GetAlternatives() {
			for _, w := range alt.GetWords() {
				if end := w.GetEndTime().AsDuration().Seconds(); end > last {
					last = end
				}
			}
		}
	}
	return last
}

func (v *videoService) Close() error {
	return v.client.Close()
}
