package normalize

import (
	"strings"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
)

var (
	// entityPriority is tried as exact matches before falling back to any
	// label containing "cod".
	entityPriority       = []string{"codigo sap", "codigo", "material", "sku"}
	descriptionSpellings = []string{"producto", "descripcion", "descripción"}
	retainedLabels       = []string{"segmento", "um", "origen"}
	derivedMarkers       = []string{"dif", "var", "venta", "$"}
)

// PeriodLayout is how periods are written into Table cells.
const PeriodLayout = "2006-01-02"

// EntityColumn returns the index of the material identifier column of a
// wide table, or -1.
func EntityColumn(t *Table) int {
	for _, want := range entityPriority {
		for i, c := range t.Columns {
			if !c.IsDate && normalizeLabel(c.Label) == want {
				return i
			}
		}
	}
	for i, c := range t.Columns {
		if !c.IsDate && strings.Contains(strings.ToLower(c.Label), "cod") {
			return i
		}
	}
	return -1
}

func descriptionColumn(t *Table) int {
	for i, c := range t.Columns {
		if c.IsDate {
			continue
		}
		label := normalizeLabel(c.Label)
		for _, want := range descriptionSpellings {
			if label == want {
				return i
			}
		}
	}
	return -1
}

// isPeriodColumn reports whether c holds raw values for one period.
func isPeriodColumn(c Column) bool {
	if c.IsDate {
		return true
	}
	label := strings.ToLower(c.Label)
	return containsAny(label, spanishMonths) && !containsAny(label, derivedMarkers)
}

// Unpivot melts a wide table (one row per material, one column per month)
// into one row per material and month with a Fecha column and a value
// column named valueColumn. Identifier columns are carried along and the
// material and description columns are renamed to their canonical labels.
// Month columns whose label cannot be parsed are dropped. The input is
// returned unchanged when it has no material column or no month columns.
func Unpivot(t *Table, valueColumn string) (*Table, []domain.Notice) {
	if t == nil {
		return nil, nil
	}

	entity := EntityColumn(t)
	if entity < 0 {
		return t, []domain.Notice{domain.Warningf("no material column found to reshape the data")}
	}
	desc := descriptionColumn(t)

	ids := []int{entity}
	if desc >= 0 {
		ids = append(ids, desc)
	}

	type periodColumn struct {
		index  int
		period time.Time
	}
	var (
		periods    []periodColumn
		candidates int
	)
	for i, c := range t.Columns {
		if i == entity || i == desc {
			continue
		}
		if !c.IsDate && containsExact(strings.ToLower(c.Label), retainedLabels) {
			ids = append(ids, i)
			continue
		}
		if !isPeriodColumn(c) {
			continue
		}

		candidates++
		if c.IsDate {
			periods = append(periods, periodColumn{i, domain.MonthStart(c.Date)})
		} else if p, ok := t.ParsePeriod(c.Label); ok {
			periods = append(periods, periodColumn{i, p})
		}
	}

	if candidates == 0 {
		return t, nil
	}

	var notices []domain.Notice
	switch {
	case len(periods) == 0:
		notices = append(notices, domain.Warningf("none of the %d month columns could be converted to dates", candidates))
	case len(periods) < candidates:
		notices = append(notices, domain.Infof("%d month columns could not be converted to dates and were ignored", candidates-len(periods)))
	}

	columns := make([]Column, 0, len(ids)+2)
	for _, i := range ids {
		label := t.Columns[i].Label
		switch i {
		case entity:
			label = domain.ColMaterial
		case desc:
			label = domain.ColDescription
		}
		columns = append(columns, Column{Label: label})
	}
	columns = append(columns, Column{Label: domain.ColPeriod}, Column{Label: valueColumn})

	rows := make([][]string, 0, len(periods)*len(t.Rows))
	for _, pc := range periods {
		fecha := pc.period.Format(PeriodLayout)
		for _, row := range t.Rows {
			out := make([]string, 0, len(columns))
			for _, i := range ids {
				out = append(out, row[i])
			}
			out = append(out, fecha, row[pc.index])
			rows = append(rows, out)
		}
	}

	return &Table{Columns: columns, Rows: rows, Date1904: t.Date1904}, notices
}

func containsExact(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
