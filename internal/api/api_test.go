package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/cache"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/pipeline/supply"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func planBytes(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	rows := map[string][][]interface{}{
		"Fcst Actual": {
			{"CODIGO SAP", "Enero 2026", "Febrero 2026"},
			{"A1", 100, 120},
			{"B2", 10, 5},
		},
		"StockACOL": {
			{"Material", "Libre"},
			{"A1", 40},
			{"B2", 500},
		},
	}
	for _, name := range []string{"Fcst Actual", "StockACOL"} {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows[name] {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestRouter(t *testing.T, maxUpload int64) *gin.Engine {
	t.Helper()
	svc := service.NewDashboardService(
		supply.NewPipeline(supply.Config{}),
		service.DashboardConfig{DataDir: t.TempDir(), UploadDir: t.TempDir()},
		cache.NewDatasetCache(),
		cache.NewNoopDashboardCache(),
	)
	return NewRouter(&Services{DashboardService: svc, MaxUploadBytes: maxUpload}, nil)
}

func upload(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := get(newTestRouter(t, 0), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNoDataIsNotFound(t *testing.T) {
	router := newTestRouter(t, 0)

	for _, target := range []string{"/api/v1/dashboard", "/api/v1/filters", "/api/v1/datasets/current"} {
		w := get(router, target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestUploadAndQuery(t *testing.T) {
	router := newTestRouter(t, 0)

	w := upload(t, router, "plan.xlsx", planBytes(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ds struct {
		Source string `json:"source"`
		Rows   int    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ds))
	assert.Equal(t, "plan.xlsx", ds.Source)
	assert.Equal(t, 4, ds.Rows)

	w = get(router, "/api/v1/records?materials=A1&periods=2026-02")
	require.Equal(t, http.StatusOK, w.Code)
	var records struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Equal(t, 1, records.Total)

	w = get(router, "/api/v1/records?materials=Todos")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Equal(t, 4, records.Total)

	w = get(router, "/api/v1/dashboard?state=critical")
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard struct {
		Summary struct {
			Records int `json:"records"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	assert.Equal(t, 2, dashboard.Summary.Records)

	w = get(router, "/api/v1/views/period_rollups")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"view":"period_rollups"`)

	w = get(router, "/api/v1/filters")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"materials":["A1","B2"]`)
}

func TestInvalidFilters(t *testing.T) {
	router := newTestRouter(t, 0)
	require.Equal(t, http.StatusCreated, upload(t, router, "plan.xlsx", planBytes(t)).Code)

	assert.Equal(t, http.StatusBadRequest, get(router, "/api/v1/dashboard?periods=enero").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/api/v1/dashboard?state=purple").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/api/v1/views/pie_chart").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/api/v1/export/pie_chart").Code)
}

func TestExport(t *testing.T) {
	router := newTestRouter(t, 0)
	require.Equal(t, http.StatusCreated, upload(t, router, "plan.xlsx", planBytes(t)).Code)

	w := get(router, "/api/v1/export/records?materials=B2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `records.csv`)

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Material,"))
}

func TestUploadErrors(t *testing.T) {
	router := newTestRouter(t, 0)

	w := upload(t, router, "plan.csv", []byte("a,b\n1,2\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"SKU", "Periodo", "Ppto", "Salidas"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"A1", "2026-01-01", 1, 1}))
	bad, err := f.WriteToBuffer()
	require.NoError(t, err)

	w = upload(t, router, "bad.xlsx", bad.Bytes())
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"missing"`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", strings.NewReader(""))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTooLarge(t *testing.T) {
	router := newTestRouter(t, 1024)

	w := upload(t, router, "plan.xlsx", planBytes(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestResetCurrent(t *testing.T) {
	router := newTestRouter(t, 0)
	require.Equal(t, http.StatusCreated, upload(t, router, "plan.xlsx", planBytes(t)).Code)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/current", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, get(router, "/api/v1/datasets/current").Code)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
