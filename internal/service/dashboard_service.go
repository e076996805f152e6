package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/analytics"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/cache"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/export"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/pipeline/supply"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/workbook"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// ErrNoData means neither an upload nor a default workbook is available.
var ErrNoData = errors.New("no data loaded")

// DefaultPeriodCount is how many of the latest periods are preselected.
const DefaultPeriodCount = 3

type DashboardConfig struct {
	DataDir   string
	UploadDir string
}

// DashboardService owns the active dataset and serves filtered views of it.
// An uploaded workbook takes precedence over the default one in DataDir.
type DashboardService struct {
	pipeline   *supply.Pipeline
	config     DashboardConfig
	datasets   *cache.DatasetCache
	dashboards cache.DashboardCache
	loads      singleflight.Group

	mu     sync.RWMutex
	upload *domain.Dataset
}

func NewDashboardService(p *supply.Pipeline, cfg DashboardConfig, datasets *cache.DatasetCache, dashboards cache.DashboardCache) *DashboardService {
	if datasets == nil {
		datasets = cache.NewDatasetCache()
	}
	if dashboards == nil {
		dashboards = cache.NewNoopDashboardCache()
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	return &DashboardService{
		pipeline:   p,
		config:     cfg,
		datasets:   datasets,
		dashboards: dashboards,
	}
}

// LoadUpload reads a workbook from r and makes it the active dataset. It
// always re-reads. A failed load leaves the previous dataset active.
func (s *DashboardService) LoadUpload(ctx context.Context, filename string, r io.Reader) (*domain.Dataset, error) {
	if !workbook.IsWorkbook(filename) {
		return nil, fmt.Errorf("%w: %s is not an .xlsx or .xls file", supply.ErrLoadFailed, filename)
	}

	path, err := s.saveUpload(filename, r)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	ds, err := s.loadFile(ctx, path, filename)
	if err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("dashboard: upload rejected")
		return nil, err
	}

	s.mu.Lock()
	previous := s.upload
	s.upload = ds
	s.mu.Unlock()

	if previous != nil {
		s.invalidate(ctx, previous.ID)
	}

	log.Info().Str("file", filename).Str("dataset_id", ds.ID.String()).Int("rows", ds.Rows).Msg("dashboard: upload loaded")
	return ds, nil
}

func (s *DashboardService) saveUpload(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	path := filepath.Join(s.config.UploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

// LoadDefault loads the first workbook in DataDir. The result is memoized
// per file path, modification time and size; concurrent callers share one
// read.
func (s *DashboardService) LoadDefault(ctx context.Context) (*domain.Dataset, error) {
	path, info, err := workbook.Find(s.config.DataDir)
	if errors.Is(err, workbook.ErrNoWorkbook) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, err
	}

	key := cache.KeyFor(path, info)
	if ds, ok := s.datasets.Get(key); ok {
		return ds, nil
	}

	v, err, _ := s.loads.Do(key.String(), func() (interface{}, error) {
		if ds, ok := s.datasets.Get(key); ok {
			return ds, nil
		}
		ds, err := s.loadFile(ctx, path, filepath.Base(path))
		if err != nil {
			s.datasets.Invalidate(path)
			return nil, err
		}
		if stale := s.datasets.Put(key, ds); stale != nil {
			s.invalidate(ctx, stale.ID)
		}
		log.Info().Str("file", path).Str("dataset_id", ds.ID.String()).Int("rows", ds.Rows).Msg("dashboard: default workbook loaded")
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Dataset), nil
}

func (s *DashboardService) loadFile(ctx context.Context, path, source string) (*domain.Dataset, error) {
	res, err := s.pipeline.ProcessFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return domain.NewDataset(source, res.Columns, res.Records, res.Notices), nil
}

// Current returns the uploaded dataset, or the default one when nothing
// was uploaded.
func (s *DashboardService) Current(ctx context.Context) (*domain.Dataset, error) {
	s.mu.RLock()
	ds := s.upload
	s.mu.RUnlock()

	if ds != nil {
		return ds, nil
	}
	return s.LoadDefault(ctx)
}

// ResetUpload drops the uploaded dataset so the default workbook is served again.
func (s *DashboardService) ResetUpload(ctx context.Context) {
	s.mu.Lock()
	previous := s.upload
	s.upload = nil
	s.mu.Unlock()

	if previous != nil {
		s.invalidate(ctx, previous.ID)
	}
}

func (s *DashboardService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.dashboards.InvalidateDataset(ctx, id); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache invalidate failed")
	}
}

// Dashboard computes every view for the active dataset under filter.
func (s *DashboardService) Dashboard(ctx context.Context, filter domain.Filter) (*domain.Dashboard, error) {
	ds, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	filter, notices := resolveFuture(ds, filter)

	dashboard, ok, err := s.dashboards.Get(ctx, ds.ID, filter)
	if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get failed")
	}
	if !ok {
		built := analytics.Build(ds, filter)
		dashboard = &built
		if err := s.dashboards.Set(ctx, ds.ID, filter, dashboard); err != nil {
			log.Warn().Err(err).Msg("dashboard: cache set failed")
		}
	}

	dashboard.Notices = append(notices, dashboard.Notices...)
	return dashboard, nil
}

// resolveFuture drops a FromPeriod cut-off that would leave nothing to
// show, so the view falls back to every period.
func resolveFuture(ds *domain.Dataset, filter domain.Filter) (domain.Filter, []domain.Notice) {
	notices := make([]domain.Notice, 0)
	if filter.FromPeriod == nil {
		return filter, notices
	}
	if len(filter.Apply(ds.Records)) > 0 {
		return filter, notices
	}

	filter.FromPeriod = nil
	notices = append(notices, domain.Warningf("no future periods available; showing all periods"))
	return filter, notices
}

// Records returns the rows of the active dataset that pass filter.
func (s *DashboardService) Records(ctx context.Context, filter domain.Filter) ([]domain.Record, error) {
	ds, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	filter, _ = resolveFuture(ds, filter)
	return filter.Apply(ds.Records), nil
}

// Options lists the filter values present in the active dataset. The
// default selection is the latest DefaultPeriodCount periods.
func (s *DashboardService) Options(ctx context.Context) (*domain.FilterOptions, error) {
	ds, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return FilterOptions(ds.Records), nil
}

// FilterOptions collects the distinct periods, origins and materials of records.
func FilterOptions(records []domain.Record) *domain.FilterOptions {
	periods := lo.Uniq(lo.FilterMap(records, func(r domain.Record, _ int) (time.Time, bool) {
		return domain.MonthStart(r.Period), r.HasPeriod()
	}))
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	origins := lo.Uniq(lo.FilterMap(records, func(r domain.Record, _ int) (string, bool) {
		return r.Origin, r.Origin != ""
	}))
	sort.Strings(origins)

	materials := lo.Uniq(lo.Map(records, func(r domain.Record, _ int) string { return r.Material }))
	sort.Strings(materials)

	defaults := periods
	if len(defaults) > DefaultPeriodCount {
		defaults = defaults[len(defaults)-DefaultPeriodCount:]
	}

	return &domain.FilterOptions{
		Periods:        periods,
		Origins:        origins,
		Materials:      materials,
		States:         domain.CoverageStates,
		DefaultPeriods: defaults,
	}
}

// ExportCSV writes one view of the active dataset under filter as CSV.
func (s *DashboardService) ExportCSV(ctx context.Context, view string, filter domain.Filter, w io.Writer) error {
	if !export.IsView(view) {
		return fmt.Errorf("%w: %s", export.ErrUnknownView, view)
	}

	var (
		dashboard *domain.Dashboard
		records   []domain.Record
		err       error
	)
	if view == export.ViewRecords {
		records, err = s.Records(ctx, filter)
	} else {
		dashboard, err = s.Dashboard(ctx, filter)
	}
	if err != nil {
		return err
	}

	grid, err := export.Table(view, dashboard, records)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, grid)
}
