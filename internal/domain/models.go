package domain

import (
	"time"

	"github.com/google/uuid"
)

// Canonical column labels of the long-format table.
const (
	ColMaterial    = "Material"
	ColDescription = "Descripción"
	ColPeriod      = "Fecha"
	ColOrigin      = "Origen"
	ColForecast    = "FCST"
	ColInventory   = "Inv Kg-L"
	ColDispatch    = "Despachos KL"
	ColCoverage    = "Cob(D)"
	ColQuantity    = "Q"
	ColProduction  = "Prod Kg-L"
	ColForecastAct = "FCST Act"
	ColState       = "Estado_Cobertura"
)

// Record is one row of the canonical long table: one material in one period.
// Numeric fields are nil when the source cell was missing or not a number.
type Record struct {
	Material    string        `json:"material"`
	Description string        `json:"descripcion,omitempty"`
	Period      time.Time     `json:"fecha"`
	Origin      string        `json:"origen,omitempty"`
	Forecast    *float64      `json:"fcst"`
	Inventory   *float64      `json:"inv_kg_l"`
	Dispatch    *float64      `json:"despachos_kl"`
	Coverage    *float64      `json:"cob_d"`
	Quantity    *float64      `json:"q,omitempty"`
	Production  *float64      `json:"prod_kg_l,omitempty"`
	ForecastAct *float64      `json:"fcst_act,omitempty"`
	State       CoverageState `json:"estado_cobertura"`
}

// HasPeriod reports whether the record carries a parsed period.
func (r Record) HasPeriod() bool {
	return !r.Period.IsZero()
}

// Value returns the numeric column with the given canonical label.
func (r Record) Value(column string) (float64, bool) {
	var p *float64
	switch column {
	case ColForecast:
		p = r.Forecast
	case ColInventory:
		p = r.Inventory
	case ColDispatch:
		p = r.Dispatch
	case ColCoverage:
		p = r.Coverage
	case ColQuantity:
		p = r.Quantity
	case ColProduction:
		p = r.Production
	case ColForecastAct:
		p = r.ForecastAct
	}
	if p == nil {
		return 0, false
	}

	return *p, true
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// ValueOr dereferences p, returning def when p is nil.
func ValueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}

	return *p
}

// NumericColumns lists the numeric canonical labels carried on a Record.
var NumericColumns = []string{
	ColForecast, ColInventory, ColDispatch, ColCoverage, ColQuantity, ColProduction, ColForecastAct,
}

// Dataset is the canonical table built from a single load. It is never
// mutated after construction; filtering produces new slices.
type Dataset struct {
	ID       uuid.UUID `json:"id"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Columns  []string  `json:"columns"`
	Rows     int       `json:"rows"`
	Notices  []Notice  `json:"notices"`
	Records  []Record  `json:"-"`
}

// NewDataset stamps a fresh identity on records loaded from source.
func NewDataset(source string, columns []string, records []Record, notices []Notice) *Dataset {
	if notices == nil {
		notices = make([]Notice, 0)
	}
	return &Dataset{
		ID:       uuid.New(),
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Columns:  columns,
		Rows:     len(records),
		Notices:  notices,
		Records:  records,
	}
}

// HasColumn reports whether the canonical table had the given column.
func (d *Dataset) HasColumn(label string) bool {
	for _, c := range d.Columns {
		if c == label {
			return true
		}
	}
	return false
}

// UploadedFile describes a workbook received through the API.
type UploadedFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	Size     int64  `json:"size"`
}
