package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/export"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/pipeline/supply"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// allValues are the selector labels that mean "no restriction".
var allValues = map[string]struct{}{"todas": {}, "todos": {}, "all": {}}

type DashboardHandler struct {
	service        *service.DashboardService
	maxUploadBytes int64
	now            func() time.Time
}

func NewDashboardHandler(svc *service.DashboardService, maxUploadBytes int64) *DashboardHandler {
	return &DashboardHandler{service: svc, maxUploadBytes: maxUploadBytes, now: time.Now}
}

// queryList reads a parameter given repeated (?p=a&p=b) or comma-separated
// (?p=a,b). Blank values and the "all" sentinels are dropped.
func queryList(c *gin.Context, param string) []string {
	var out []string
	for _, raw := range c.QueryArray(param) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, all := allValues[strings.ToLower(part)]; all {
				return nil
			}
			out = append(out, part)
		}
	}
	return out
}

func (h *DashboardHandler) parseFilter(c *gin.Context) (domain.Filter, error) {
	var filter domain.Filter

	for _, p := range queryList(c, "periods") {
		t, err := domain.ParseMonth(p)
		if err != nil {
			return filter, err
		}
		filter.Periods = append(filter.Periods, t)
	}

	filter.Origins = queryList(c, "origins")
	filter.Materials = queryList(c, "materials")

	if state := strings.TrimSpace(c.Query("state")); state != "" {
		if _, all := allValues[strings.ToLower(state)]; !all {
			parsed, ok := domain.ParseCoverageState(state)
			if !ok {
				return filter, fmt.Errorf("unknown coverage state %q", state)
			}
			filter.State = parsed
		}
	}

	if future := strings.ToLower(strings.TrimSpace(c.Query("future"))); future == "true" || future == "1" {
		from := domain.MonthStart(h.now())
		filter.FromPeriod = &from
	}

	return filter, nil
}

// writeError maps service errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	if se, ok := supply.IsSchemaError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "missing required columns",
			"missing": se.Missing,
			"notices": se.Notices,
		})
		return
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large", "details": err.Error()})
	case errors.Is(err, supply.ErrLoadFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to load workbook", "details": err.Error()})
	case errors.Is(err, service.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": "no data loaded", "details": "upload a workbook or place one in the data directory"})
	case errors.Is(err, export.ErrUnknownView):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown view", "details": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("dashboard request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
	}
}

// Upload handles a multipart workbook in the "file" field.
func (h *DashboardHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided", "details": err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload", "details": err.Error()})
		return
	}
	defer file.Close()

	ds, err := h.service.LoadUpload(c.Request.Context(), header.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ds)
}

func (h *DashboardHandler) GetCurrent(c *gin.Context) {
	ds, err := h.service.Current(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (h *DashboardHandler) ResetCurrent(c *gin.Context) {
	h.service.ResetUpload(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *DashboardHandler) GetFilters(c *gin.Context) {
	opts, err := h.service.Options(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (h *DashboardHandler) GetRecords(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	records, err := h.service.Records(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = make([]domain.Record, 0)
	}

	c.JSON(http.StatusOK, gin.H{
		"items": records,
		"total": len(records),
	})
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// viewOf picks one view out of a dashboard.
func viewOf(d *domain.Dashboard, view string) (interface{}, bool) {
	switch view {
	case export.ViewStateDistribution:
		return d.StateDistribution, true
	case export.ViewStateStats:
		return d.StateStats, true
	case export.ViewPeriodRollups:
		return d.PeriodRollups, true
	case export.ViewTopInventory:
		return d.TopInventory, true
	case export.ViewBottomInventory:
		return d.BottomInventory, true
	case export.ViewOriginWAPE:
		return d.OriginWAPE, true
	case export.ViewTopEntityWAPE:
		return d.TopEntityWAPE, true
	case export.ViewBottomEntityWAPE:
		return d.BottomEntityWAPE, true
	case export.ViewWAPEEvolution:
		return d.WAPEEvolution, true
	case export.ViewOriginDistribution:
		return d.OriginDistribution, true
	case export.ViewPlanning:
		return d.Planning, true
	case export.ViewMaterialSummary:
		return d.MaterialSummary, true
	case "summary":
		return d.Summary, true
	}
	return nil, false
}

func (h *DashboardHandler) GetView(c *gin.Context) {
	view := c.Param("view")
	if view == export.ViewRecords {
		h.GetRecords(c)
		return
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	data, ok := viewOf(dashboard, view)
	if !ok {
		writeError(c, fmt.Errorf("%w: %s", export.ErrUnknownView, view))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"view":    view,
		"data":    data,
		"notices": dashboard.Notices,
	})
}

func (h *DashboardHandler) ExportView(c *gin.Context) {
	view := c.Param("view")
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.Request.Context(), view, filter, &buf); err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view+".csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
