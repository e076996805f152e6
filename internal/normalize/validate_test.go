package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLongFormatAlternateSpellings(t *testing.T) {
	v := Validate(labelsTable("SKU", "Periodo", "Ppto", "Stock", "Salidas"))
	assert.True(t, v.Valid)
	assert.False(t, v.Deferred)
	assert.Empty(t, v.Missing)
}

func TestValidateReportsMissingGroup(t *testing.T) {
	v := Validate(labelsTable("SKU", "Periodo", "Ppto", "Salidas"))
	assert.False(t, v.Valid)
	require.Len(t, v.Missing, 1)
	assert.Contains(t, v.Missing[0], "Inventario")
	for _, spelling := range []string{"Inv Kg-L", "Inventario", "Inv (MKL)", "Stock", "Inv", "Inv.", "Existencia"} {
		assert.Contains(t, v.Missing[0], spelling)
	}
}

func TestValidateMissingGroupsKeepOrder(t *testing.T) {
	v := Validate(labelsTable("Producto", "Notas"))
	require.Len(t, v.Missing, 4)
	assert.Contains(t, v.Missing[0], "Fecha/Mes")
	assert.Contains(t, v.Missing[3], "Despachos")
}

func TestValidateWideFormatIsDeferred(t *testing.T) {
	v := Validate(labelsTable("CODIGO SAP", "Producto", "Enero 2026", "Febrero 2026"))
	assert.True(t, v.Valid)
	assert.True(t, v.Deferred)

	v = Validate(labelsTable("Material", "January 2026"))
	assert.True(t, v.Deferred)
}

func TestValidateDateHeaderIsDeferred(t *testing.T) {
	tbl := NewTable(
		[]Column{{Label: "Material"}, {Label: "2026-01-01", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), IsDate: true}},
		[][]string{{"A1", "5"}},
	)
	v := Validate(tbl)
	assert.True(t, v.Valid)
	assert.True(t, v.Deferred)
}

func TestValidateMonthNamesWithoutEntityAreNotWide(t *testing.T) {
	v := Validate(labelsTable("Notas", "Enero 2026"))
	assert.False(t, v.Valid)
	assert.Len(t, v.Missing, 5)
}

func TestValidateEmptyTable(t *testing.T) {
	for _, tbl := range []*Table{nil, {}, NewTable([]Column{{Label: "SKU"}}, nil)} {
		v := Validate(tbl)
		assert.False(t, v.Valid)
		assert.Equal(t, []string{MsgEmptyTable}, v.Missing)
	}
}
