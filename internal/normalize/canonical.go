package normalize

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
)

// Rule maps a normalized (trimmed, lowercased) column label onto a
// canonical one.
type Rule struct {
	Canonical string
	Match     func(label string) bool
}

// oneOf matches any of the given spellings exactly.
func oneOf(spellings ...string) func(string) bool {
	set := make(map[string]struct{}, len(spellings))
	for _, s := range spellings {
		set[normalizeLabel(s)] = struct{}{}
	}
	return func(label string) bool {
		_, ok := set[label]
		return ok
	}
}

// CanonicalRules is evaluated in order; the first rule that matches a label
// decides its canonical name. Each canonical name matches itself.
var CanonicalRules = []Rule{
	{domain.ColMaterial, oneOf(
		"material", "materiales", "sku", "código", "codigo", "producto",
		"código material", "codigo material", "codigo sap", "código sap",
	)},
	{domain.ColDescription, oneOf(
		"descripción", "descripcion", "descripción material", "descripcion material",
	)},
	{domain.ColPeriod, oneOf("fecha", "mes", "periodo", "período", "date", "month")},
	{domain.ColForecast, oneOf("fcst", "f (mkl)", "forecast", "presupuesto", "ppto", "f")},
	{domain.ColInventory, oneOf(
		"inv kg-l", "inventario", "inv (mkl)", "stock", "inv", "inv.", "existencia",
	)},
	{domain.ColDispatch, oneOf(
		"despachos kl", "desp (mkl)", "despachos", "venta", "venta real", "desp", "salidas",
	)},
	{domain.ColOrigin, oneOf("origen")},
	{domain.ColCoverage, oneOf("cob(d)", "cob (d)", "cobertura")},
	{domain.ColQuantity, oneOf("q", "q (mkl)")},
	{domain.ColProduction, oneOf("prod kg-l")},
	{domain.ColForecastAct, oneOf("fcst act")},
	{domain.ColState, oneOf("estado_cobertura")},
}

// CanonicalName returns the canonical label for label, or label itself
// (trimmed) when no rule matches.
func CanonicalName(label string) (string, bool) {
	key := normalizeLabel(label)
	for _, rule := range CanonicalRules {
		if rule.Match(key) {
			return rule.Canonical, true
		}
	}
	return strings.TrimSpace(label), false
}

// Canonicalize renames every column to its canonical label. When a second
// column claims a canonical name already taken, it is renamed to
// "unmapped_N" and a warning is returned; values are never overwritten.
// Row data is shared with the input.
func Canonicalize(t *Table) (*Table, []domain.Notice) {
	if t == nil {
		return nil, nil
	}

	var notices []domain.Notice
	columns := make([]Column, len(t.Columns))
	taken := make(map[string]string, len(t.Columns))
	unmapped := 0

	for i, col := range t.Columns {
		if col.IsDate {
			columns[i] = col
			continue
		}

		name, matched := CanonicalName(col.Label)
		if prev, clash := taken[name]; clash && matched {
			unmapped++
			renamed := fmt.Sprintf("unmapped_%d", unmapped)
			notices = append(notices, domain.Warningf(
				"column %q maps to %q, already provided by %q; kept as %q",
				col.Label, name, prev, renamed,
			))
			name = renamed
		}
		taken[name] = col.Label
		columns[i] = Column{Label: name}
	}

	return &Table{Columns: columns, Rows: t.Rows, Date1904: t.Date1904}, notices
}
