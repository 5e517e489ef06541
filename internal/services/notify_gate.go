package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ariqhikari/SnaillyJaya/internal/clients/snailly"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
)

const notifyQueueSize = 64

// NotificationGate notifies a parent about a dangerous URL only on its
// first sighting. A URL already present in url_classification was seen
// before and stays silent.
type NotificationGate interface {
	NotifyIfFirstSighting(ctx context.Context, parentID, childID, url, label string)
}

type notificationGate struct {
	urlRepo repos.UrlClassificationRepo
	snailly snailly.Client
	seen    *gocache.Cache
	queue   chan snailly.Notification
	pending sync.WaitGroup
	log     *logger.Logger
}

// NewNotificationGate accepts a nil snailly client, which reduces the gate
// to a no-op dedup check. Deliveries run on a single worker goroutine so
// the classification response never waits on the snailly service.
func NewNotificationGate(urlRepo repos.UrlClassificationRepo, snaillyClient snailly.Client, baseLog *logger.Logger) NotificationGate {
	g := &notificationGate{
		urlRepo: urlRepo,
		snailly: snaillyClient,
		seen:    gocache.New(12*time.Hour, 30*time.Minute),
		queue:   make(chan snailly.Notification, notifyQueueSize),
		log:     baseLog.With("service", "NotificationGate"),
	}
	go g.deliver()
	return g
}

func (g *notificationGate) deliver() {
	for n := range g.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := g.snailly.SendNotification(ctx, n)
		cancel()
		if err != nil {
			g.log.Warn("Notification delivery failed", "url", n.URL, "parent_id", n.ParentID, "error", err)
		} else {
			g.log.Info("Parent notified of first sighting", "url", n.URL, "parent_id", n.ParentID)
		}
		g.pending.Done()
	}
}

func (g *notificationGate) enqueue(n snailly.Notification) {
	g.pending.Add(1)
	select {
	case g.queue <- n:
	default:
		g.pending.Done()
		g.log.Warn("Notification queue full, dropping", "url", n.URL, "parent_id", n.ParentID)
	}
}

// wait blocks until every enqueued notification has been delivered.
func (g *notificationGate) wait() {
	g.pending.Wait()
}

// NotifyIfFirstSighting is best-effort throughout: a lookup or delivery
// failure is logged and never propagated to the classification response.
func (g *notificationGate) NotifyIfFirstSighting(ctx context.Context, parentID, childID, url, label string) {
	if label != ml.LabelDanger {
		return
	}
	if _, found := g.seen.Get(url); found {
		return
	}

	existing, err := g.urlRepo.GetByURL(ctx, nil, url)
	if err != nil {
		g.log.Warn("First-sighting lookup failed, skipping notification", "url", url, "error", err)
		return
	}
	g.seen.SetDefault(url, struct{}{})
	if existing != nil {
		return
	}

	if g.snailly == nil || parentID == "" {
		return
	}
	g.enqueue(snailly.Notification{
		ParentID: parentID,
		ChildID:  childID,
		URL:      url,
		Label:    label,
		Message:  fmt.Sprintf("Konten berbahaya terdeteksi: %s", url),
	})
}
