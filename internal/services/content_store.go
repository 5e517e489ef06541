package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	rediscache "github.com/ariqhikari/SnaillyJaya/internal/clients/redis"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/repos"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
)

// ContentStore is the URL-keyed cache over clean_data, with an optional
// redis front. A URL is scraped once; every later request for the same URL
// is served from here.
type ContentStore interface {
	GetByURL(ctx context.Context, url string) (*types.ContentRecord, error)
	Put(ctx context.Context, rec *types.ContentRecord) (*types.ContentRecord, error)
	UpdateSegments(ctx context.Context, id uuid.UUID, url string, segments []types.Segment) error
}

type contentStore struct {
	repo  repos.ContentRepo
	cache rediscache.ContentCache
	log   *logger.Logger
}

// NewContentStore accepts a nil cache, which disables the redis front and
// serves every read from the database.
func NewContentStore(repo repos.ContentRepo, cache rediscache.ContentCache, baseLog *logger.Logger) ContentStore {
	return &contentStore{
		repo:  repo,
		cache: cache,
		log:   baseLog.With("service", "ContentStore"),
	}
}

func (s *contentStore) GetByURL(ctx context.Context, url string) (*types.ContentRecord, error) {
	if s.cache != nil {
		if rec, err := s.cache.Get(ctx, url); err == nil && rec != nil {
			return rec, nil
		} else if err != nil {
			s.log.Warn("Cache read failed, falling back to database", "url", url, "error", err)
		}
	}

	rec, err := s.repo.GetByURL(ctx, nil, url)
	if err != nil {
		return nil, err
	}
	if rec != nil && s.cache != nil {
		if err := s.cache.Set(ctx, rec); err != nil {
			s.log.Warn("Cache write failed", "url", url, "error", err)
		}
	}
	return rec, nil
}

// Put inserts a fresh record. When a concurrent request already inserted
// the same URL, the unique constraint fires and the existing row wins; the
// losing insert degrades to a read.
func (s *contentStore) Put(ctx context.Context, rec *types.ContentRecord) (*types.ContentRecord, error) {
	created, err := s.repo.Create(ctx, nil, rec)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.log.Info("Concurrent insert for URL, reusing existing row", "url", rec.URL)
		existing, readErr := s.repo.GetByURL(ctx, nil, rec.URL)
		if readErr != nil {
			return nil, readErr
		}
		if existing == nil {
			return nil, err
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, created); err != nil {
			s.log.Warn("Cache write failed", "url", created.URL, "error", err)
		}
	}
	return created, nil
}

// UpdateSegments persists per-segment danger labels after classification
// and drops the now-stale cache entry.
func (s *contentStore) UpdateSegments(ctx context.Context, id uuid.UUID, url string, segments []types.Segment) error {
	raw, err := json.Marshal(segments)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateSegments(ctx, nil, id, datatypes.JSON(raw)); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, url); err != nil {
			s.log.Warn("Cache invalidate failed", "url", url, "error", err)
		}
	}
	return nil
}
