package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	fallbackDashboardTTL = time.Minute
	redisDialTimeout     = 5 * time.Second
	unlinkBatchSize      = 100
)

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisDashboardCache(cfg config.CacheConfig) (*redisDashboardCache, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("dashboard cache at %s unreachable: %w", opts.Addr, err)
	}

	return &redisDashboardCache{client: client, ttl: dashboardTTL(cfg)}, nil
}

// redisOptions prefers CACHE_REDIS_URL; otherwise host, port, password and
// db are combined, defaulting to a local redis.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func dashboardTTL(cfg config.CacheConfig) time.Duration {
	if cfg.DashboardTTLSeconds <= 0 {
		return fallbackDashboardTTL
	}
	return time.Duration(cfg.DashboardTTLSeconds) * time.Second
}

func (c *redisDashboardCache) Get(ctx context.Context, datasetID uuid.UUID, filter domain.Filter) (*domain.Dashboard, bool, error) {
	payload, err := c.client.Get(ctx, buildDashboardKey(datasetID, filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(payload, &dashboard); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}
	return &dashboard, true, nil
}

func (c *redisDashboardCache) Set(ctx context.Context, datasetID uuid.UUID, filter domain.Filter, dashboard *domain.Dashboard) error {
	payload, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}
	if err := c.client.Set(ctx, buildDashboardKey(datasetID, filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateDataset drops every filter variant cached for one dataset.
func (c *redisDashboardCache) InvalidateDataset(ctx context.Context, datasetID uuid.UUID) error {
	n, err := c.purge(ctx, datasetPattern(datasetID))
	if err != nil {
		return fmt.Errorf("invalidate dataset %s: %w", datasetID, err)
	}
	log.Debug().Str("dataset_id", datasetID.String()).Int("keys", n).Msg("dashboard cache invalidated")
	return nil
}

// InvalidateAll drops every cached dashboard of every dataset.
func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	n, err := c.purge(ctx, allDashboardsPattern())
	if err != nil {
		return fmt.Errorf("invalidate dashboards: %w", err)
	}
	log.Debug().Int("keys", n).Msg("dashboard cache cleared")
	return nil
}

// purge unlinks the keys matching pattern in batches and returns how many
// were removed.
func (c *redisDashboardCache) purge(ctx context.Context, pattern string) (int, error) {
	var (
		removed int
		batch   = make([]string, 0, unlinkBatchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink failed: %w", err)
		}
		removed += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := c.client.Scan(ctx, 0, pattern, unlinkBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == unlinkBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}
	return removed, flush()
}
