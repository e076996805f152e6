package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/metrics"
)

// ParseNumber coerces a cell to a number. Blank or non-numeric cells are
// missing (nil).
func ParseNumber(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// EntityKey normalizes a material identifier for joins: trimmed, and whole
// numbers written with a zero fraction lose it ("1001.0" -> "1001").
// Codes with leading zeros ("007.0") are kept as written.
func EntityKey(cell string) string {
	key := strings.TrimSpace(cell)
	dot := strings.Index(key, ".")
	if dot < 0 {
		return key
	}
	if whole := strings.TrimLeft(key[:dot], "+-"); len(whole) > 1 && whole[0] == '0' {
		return key
	}
	if v, err := strconv.ParseFloat(key, 64); err == nil && v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return key
}

// Project turns a canonical long table into typed records. Rows without a
// material are dropped. Coverage is taken from Cob(D) when the column is
// present, otherwise derived from inventory and forecast; the coverage
// state is always derived from coverage.
func Project(t *Table) ([]domain.Record, []domain.Notice) {
	if t.Empty() {
		return nil, nil
	}

	var notices []domain.Notice
	mat := t.Index(domain.ColMaterial)
	if mat < 0 {
		return nil, []domain.Notice{domain.Errorf("no %s column after normalization", domain.ColMaterial)}
	}

	desc := t.Index(domain.ColDescription)
	origin := t.Index(domain.ColOrigin)
	period := t.Index(domain.ColPeriod)
	if period < 0 {
		notices = append(notices, domain.Warningf(
			"no period column (Fecha or Mes) found; time-based views are unavailable"))
	}

	numeric := make(map[string]int, len(domain.NumericColumns))
	for _, col := range domain.NumericColumns {
		numeric[col] = t.Index(col)
	}
	num := func(row []string, col string) *float64 {
		if i := numeric[col]; i >= 0 {
			return ParseNumber(row[i])
		}
		return nil
	}
	hasCoverage := numeric[domain.ColCoverage] >= 0
	canDerive := numeric[domain.ColInventory] >= 0 && numeric[domain.ColForecast] >= 0

	records := make([]domain.Record, 0, len(t.Rows))
	var dropped, badPeriods int
	for _, row := range t.Rows {
		material := EntityKey(row[mat])
		if material == "" {
			dropped++
			continue
		}

		rec := domain.Record{
			Material:    material,
			Forecast:    num(row, domain.ColForecast),
			Inventory:   num(row, domain.ColInventory),
			Dispatch:    num(row, domain.ColDispatch),
			Quantity:    num(row, domain.ColQuantity),
			Production:  num(row, domain.ColProduction),
			ForecastAct: num(row, domain.ColForecastAct),
		}
		if desc >= 0 {
			rec.Description = strings.TrimSpace(row[desc])
		}
		if origin >= 0 {
			rec.Origin = strings.TrimSpace(row[origin])
		}
		if period >= 0 {
			if p, ok := t.ParsePeriod(row[period]); ok {
				rec.Period = p
			} else {
				badPeriods++
			}
		}

		switch {
		case hasCoverage:
			rec.Coverage = num(row, domain.ColCoverage)
		case canDerive && rec.Inventory != nil:
			rec.Coverage = domain.Float(metrics.CoverageDays(*rec.Inventory, rec.Forecast))
		}
		rec.State = metrics.StateOf(rec.Coverage)

		records = append(records, rec)
	}

	if dropped > 0 {
		notices = append(notices, domain.Infof("%d rows without a material were ignored", dropped))
	}
	if period >= 0 && len(records) > 0 {
		switch {
		case badPeriods == len(records):
			notices = append(notices, domain.Warningf(
				"column %s could not be converted to valid dates; check the format in the workbook", domain.ColPeriod))
		case badPeriods > 0:
			notices = append(notices, domain.Infof(
				"%d values in column %s could not be converted to dates and were ignored", badPeriods, domain.ColPeriod))
		}
	}

	return records, notices
}
