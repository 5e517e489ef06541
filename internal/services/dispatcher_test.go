package services

import (
	"context"
	"testing"

	"github.com/ariqhikari/SnaillyJaya/internal/clients/scrape"
	"github.com/ariqhikari/SnaillyJaya/internal/repos/testutil"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

func TestSocialHostClassification(t *testing.T) {
	social := []string{
		"instagram.com",
		"www.instagram.com",
		"tiktok.com",
		"m.tiktok.com",
		"youtube.com",
		"www.youtube.com",
		"youtu.be",
		"INSTAGRAM.COM",
	}
	for _, host := range social {
		if !scrape.IsSocialHost(host) {
			t.Errorf("%q must route to the social scraper", host)
		}
	}

	web := []string{
		"example.com",
		"notinstagram.com",
		"youtube.com.evil.net",
		"facebook.com",
	}
	for _, host := range web {
		if scrape.IsSocialHost(host) {
			t.Errorf("%q must route to the web scraper", host)
		}
	}
}

func TestMergeCaptionPartsDropsPlaceholders(t *testing.T) {
	got := MergeCaptionParts([]string{"kucing lucu", "[ERROR]", "[NO CAPTION]", "main bola", "[WARNING]"})
	want := "kucing lucu. main bola"
	if got != want {
		t.Fatalf("merge: got %q want %q", got, want)
	}
}

func TestMergeCaptionPartsSkipsEmpties(t *testing.T) {
	got := MergeCaptionParts([]string{"", "   ", "satu", "", "dua"})
	if got != "satu. dua" {
		t.Fatalf("merge: got %q", got)
	}
}

func TestMergeCaptionPartsAllPlaceholders(t *testing.T) {
	if got := MergeCaptionParts([]string{"[ERROR]", "[NO CAPTION]", ""}); got != "" {
		t.Fatalf("expected empty merge, got %q", got)
	}
}

func TestMergeCaptionPartsDropsPlaceholdersWithDetail(t *testing.T) {
	got := MergeCaptionParts([]string{
		"[ERROR] Tidak ada frame valid",
		"[WARNING] caption model timeout",
		"[no caption] untuk video ini",
		"judul video",
	})
	if got != "judul video" {
		t.Fatalf("placeholder with trailing detail must be dropped: got %q", got)
	}
}

func TestCaptionImagesKeepsOrderAndSkipsFailures(t *testing.T) {
	vision := &fakeVision{captionByURL: map[string]string{
		"https://cdn.example.com/a.jpg": "kucing lucu",
		"https://cdn.example.com/c.jpg": "main bola",
	}}
	d := NewScrapeDispatcher(nil, nil, vision, nil, nil, testutil.Logger(t)).(*scrapeDispatcher)

	got := d.captionImages(context.Background(), []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.jpg",
		"https://cdn.example.com/c.jpg",
	})

	if len(got) != 2 || got[0] != "kucing lucu" || got[1] != "main bola" {
		t.Fatalf("captions: got %v", got)
	}
}

func TestNeedsTranscript(t *testing.T) {
	if needsTranscript(nil) {
		t.Fatal("no segments means nothing to transcribe")
	}
	blank := []types.Segment{{Caption: "a"}, {Caption: "b", Transcript: "   "}}
	if !needsTranscript(blank) {
		t.Fatal("segments with only blank transcripts need the fallback")
	}
	partial := []types.Segment{{Transcript: "halo semua"}, {}}
	if needsTranscript(partial) {
		t.Fatal("any existing transcript disables the fallback")
	}
}
