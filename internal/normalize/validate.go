package normalize

import (
	"fmt"
	"strings"
)

// RequiredGroup is a concept the long table must carry, satisfied by any
// one of its spellings.
type RequiredGroup struct {
	Display   string
	Spellings []string
}

// RequiredGroups are checked in order; missing groups are reported in this order.
var RequiredGroups = []RequiredGroup{
	{"Material", []string{
		"Material", "Materiales", "SKU", "Código", "Codigo", "Código Material", "Codigo Material",
		"CODIGO SAP", "Codigo SAP", "Producto", "PRODUCTO",
	}},
	{"Fecha/Mes", []string{"Fecha", "Mes", "Periodo", "Date", "Month"}},
	{"Forecast", []string{"FCST", "F (MKL)", "Forecast", "Presupuesto", "Ppto", "F"}},
	{"Inventario", []string{"Inv Kg-L", "Inventario", "Inv (MKL)", "Stock", "Inv", "Inv.", "Existencia"}},
	{"Despachos", []string{"Despachos KL", "Desp (MKL)", "Despachos", "Venta", "Venta Real", "Desp", "Salidas"}},
}

// MsgEmptyTable is the single message reported for an empty table.
const MsgEmptyTable = "file is empty or could not be read"

var (
	spanishMonths = []string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
	englishMonths = []string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
	}
)

// Validation is the outcome of a schema check. Deferred means the table is
// still wide and has to be unpivoted before the long-format check applies.
type Validation struct {
	Valid    bool     `json:"valid"`
	Deferred bool     `json:"deferred,omitempty"`
	Missing  []string `json:"missing,omitempty"`
}

// Validate checks t against the required concept groups.
func Validate(t *Table) Validation {
	if t.Empty() {
		return Validation{Missing: []string{MsgEmptyTable}}
	}

	labels := t.Labels()
	for _, c := range t.Columns {
		if c.IsDate && hasEntity(labels) {
			return Validation{Valid: true, Deferred: true}
		}
	}
	return ValidateLabels(labels)
}

// ValidateLabels runs the schema check on column labels alone.
func ValidateLabels(labels []string) Validation {
	if len(labels) == 0 {
		return Validation{Missing: []string{MsgEmptyTable}}
	}

	cols := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		cols[normalizeLabel(l)] = struct{}{}
	}

	if isWide(cols) {
		return Validation{Valid: true, Deferred: true}
	}

	var missing []string
	for _, group := range RequiredGroups {
		if !anyPresent(cols, group.Spellings) {
			missing = append(missing, fmt.Sprintf(
				"%s: none of the accepted columns found -> %s",
				group.Display, strings.Join(group.Spellings, ", "),
			))
		}
	}
	if len(missing) > 0 {
		return Validation{Missing: missing}
	}
	return Validation{Valid: true}
}

func isWide(cols map[string]struct{}) bool {
	if !anyPresent(cols, RequiredGroups[0].Spellings) {
		return false
	}
	for col := range cols {
		if containsAny(col, spanishMonths) || containsAny(col, englishMonths) {
			return true
		}
	}
	return false
}

func hasEntity(labels []string) bool {
	cols := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		cols[normalizeLabel(l)] = struct{}{}
	}
	return anyPresent(cols, RequiredGroups[0].Spellings)
}

func anyPresent(cols map[string]struct{}, spellings []string) bool {
	for _, s := range spellings {
		if _, ok := cols[normalizeLabel(s)]; ok {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
