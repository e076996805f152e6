package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetCacheKeyedOnModTimeAndSize(t *testing.T) {
	c := NewDatasetCache()
	ds := domain.NewDataset("plan.xlsx", nil, nil, nil)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	key := FileKey{Path: "/data/plan.xlsx", ModTime: now, Size: 100}

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Put(key, ds)
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Same(t, ds, got)

	_, ok = c.Get(FileKey{Path: key.Path, ModTime: now.Add(time.Second), Size: 100})
	assert.False(t, ok, "newer modification time")

	_, ok = c.Get(FileKey{Path: key.Path, ModTime: now, Size: 101})
	assert.False(t, ok, "different size")

	c.Invalidate(key.Path)
	assert.Zero(t, c.Len())
}

func TestDatasetCachePutReplacesOlderVersion(t *testing.T) {
	c := NewDatasetCache()
	old := FileKey{Path: "p", ModTime: time.Unix(1, 0), Size: 1}
	cur := FileKey{Path: "p", ModTime: time.Unix(2, 0), Size: 1}

	first := domain.NewDataset("old", nil, nil, nil)
	assert.Nil(t, c.Put(old, first))
	assert.Same(t, first, c.Put(cur, domain.NewDataset("new", nil, nil, nil)))

	assert.Equal(t, 1, c.Len())
	ds, ok := c.Get(cur)
	require.True(t, ok)
	assert.Equal(t, "new", ds.Source)
}

func TestKeyForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("1234"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	key := KeyFor(path, info)
	assert.Equal(t, path, key.Path)
	assert.EqualValues(t, 4, key.Size)
	assert.Contains(t, key.String(), path+"@")
}

func TestFilterHash(t *testing.T) {
	assert.Equal(t, "default", FilterHash(domain.Filter{}))

	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	a := FilterHash(domain.Filter{Periods: []time.Time{jan, feb}, Origins: []string{"Sur", "Norte"}})
	b := FilterHash(domain.Filter{Periods: []time.Time{feb, jan}, Origins: []string{"Norte", "Sur"}})
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)

	assert.NotEqual(t,
		FilterHash(domain.Filter{Materials: []string{"A1"}}),
		FilterHash(domain.Filter{Materials: []string{"a1"}}),
	)
	assert.NotEqual(t,
		FilterHash(domain.Filter{State: domain.StateCritical}),
		FilterHash(domain.Filter{FromPeriod: &jan}),
	)
}

func TestDashboardKeyIsScopedByDataset(t *testing.T) {
	id := uuid.New()
	key := buildDashboardKey(id, domain.Filter{})
	assert.Equal(t, "dashboard:"+id.String()+":default", key)
	assert.True(t, len(key) > len(datasetPrefix(id)))
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewDashboardCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, c.Set(ctx, id, domain.Filter{}, &domain.Dashboard{DatasetID: id}))

	got, ok, err := c.Get(ctx, id, domain.Filter{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.InvalidateDataset(ctx, id))
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{RedisURL: "redis://:secret@cache:6380/2", RedisHost: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(config.CacheConfig{RedisHost: "cache", RedisDB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)

	opts, err = redisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	_, err = redisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

func TestDashboardTTL(t *testing.T) {
	assert.Equal(t, time.Minute, dashboardTTL(config.CacheConfig{}))
	assert.Equal(t, time.Minute, dashboardTTL(config.CacheConfig{DashboardTTLSeconds: -5}))
	assert.Equal(t, 90*time.Second, dashboardTTL(config.CacheConfig{DashboardTTLSeconds: 90}))
}

func TestInvalidationPatternsCoverDashboardKeys(t *testing.T) {
	id := uuid.New()
	key := buildDashboardKey(id, domain.Filter{Origins: []string{"Norte"}})

	assert.True(t, strings.HasPrefix(key, strings.TrimSuffix(datasetPattern(id), "*")))
	assert.True(t, strings.HasPrefix(key, strings.TrimSuffix(allDashboardsPattern(), "*")))
	assert.False(t, strings.HasPrefix(key, strings.TrimSuffix(datasetPattern(uuid.New()), "*")))
}
