package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/types"
	"github.com/ariqhikari/SnaillyJaya/internal/utils"
)

// ContentCache fronts the clean_data table with a URL-keyed redis entry so
// repeated visits to the same URL skip the database read.
type ContentCache interface {
	Get(ctx context.Context, url string) (*types.ContentRecord, error)
	Set(ctx context.Context, record *types.ContentRecord) error
	Invalidate(ctx context.Context, url string) error
	Close() error
}

type contentCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewContentCache connects using REDIS_ADDR. Callers treat a nil cache as
// "caching disabled", so a missing address is an error here, not a default.
func NewContentCache(log *logger.Logger) (ContentCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          utils.GetEnvAsInt("REDIS_DB", 0, log),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &contentCache{
		log: log.With("service", "ContentCache"),
		rdb: rdb,
		ttl: time.Duration(utils.GetEnvAsInt("CACHE_TTL_HOURS", 24, log)) * time.Hour,
	}, nil
}

func cacheKey(url string) string {
	return "content:" + url
}

func (c *contentCache) Get(ctx context.Context, url string) (*types.ContentRecord, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(url)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var record types.ContentRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		// stale or corrupt entry, drop it
		_ = c.rdb.Del(ctx, cacheKey(url)).Err()
		return nil, nil
	}
	return &record, nil
}

func (c *contentCache) Set(ctx context.Context, record *types.ContentRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(record.URL), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *contentCache) Invalidate(ctx context.Context, url string) error {
	return c.rdb.Del(ctx, cacheKey(url)).Err()
}

func (c *contentCache) Close() error {
	return c.rdb.Close()
}
