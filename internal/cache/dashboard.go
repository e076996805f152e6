package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/google/uuid"
)

const dashboardKeyPrefix = "dashboard"

// DashboardCache stores computed dashboards per dataset and filter.
type DashboardCache interface {
	Get(ctx context.Context, datasetID uuid.UUID, filter domain.Filter) (*domain.Dashboard, bool, error)
	Set(ctx context.Context, datasetID uuid.UUID, filter domain.Filter, dashboard *domain.Dashboard) error
	InvalidateDataset(ctx context.Context, datasetID uuid.UUID) error
	InvalidateAll(ctx context.Context) error
}

type noopDashboardCache struct{}

// NewDashboardCache returns a redis-backed cache, or a no-op cache when
// caching is disabled.
func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	c, err := newRedisDashboardCache(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (n *noopDashboardCache) Get(ctx context.Context, datasetID uuid.UUID, filter domain.Filter) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) Set(ctx context.Context, datasetID uuid.UUID, filter domain.Filter, dashboard *domain.Dashboard) error {
	return nil
}

func (n *noopDashboardCache) InvalidateDataset(ctx context.Context, datasetID uuid.UUID) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func datasetPrefix(datasetID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:", dashboardKeyPrefix, datasetID)
}

func datasetPattern(datasetID uuid.UUID) string {
	return datasetPrefix(datasetID) + "*"
}

func allDashboardsPattern() string {
	return dashboardKeyPrefix + ":*"
}

func buildDashboardKey(datasetID uuid.UUID, filter domain.Filter) string {
	return datasetPrefix(datasetID) + FilterHash(filter)
}

// FilterHash is a stable digest of filter; the order of list values does
// not matter. The empty filter hashes to "default".
func FilterHash(filter domain.Filter) string {
	parts := []string{}

	if len(filter.Periods) > 0 {
		periods := make([]string, len(filter.Periods))
		for i, p := range filter.Periods {
			periods[i] = p.Format("2006-01")
		}
		parts = append(parts, "periods="+joinStrings(periods))
	}
	if len(filter.Origins) > 0 {
		parts = append(parts, "origins="+joinStrings(filter.Origins))
	}
	if len(filter.Materials) > 0 {
		parts = append(parts, "materials="+joinStrings(filter.Materials))
	}
	if filter.State != "" {
		parts = append(parts, "state="+strings.ToLower(string(filter.State)))
	}
	if filter.FromPeriod != nil {
		parts = append(parts, "from="+filter.FromPeriod.Format("2006-01"))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(c[i])
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
