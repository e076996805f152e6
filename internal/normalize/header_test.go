package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocateHeader(t *testing.T) {
	grid := [][]string{
		{"Reporte mensual"},
		{},
		{"Codigo SAP", "Producto", "Enero 2026", "Febrero 2026"},
		{"A1", "Aceite", "100", "120"},
	}

	assert.Equal(t, 2, LocateHeader(grid, 20, []string{"codigo", "producto", "enero", "febrero"}))
	assert.Equal(t, 2, LocateHeader(grid, 20, nil))
}

func TestLocateHeaderDefaultsToFirstRow(t *testing.T) {
	grid := [][]string{
		{"foo", "bar"},
		{"1", "2"},
	}
	assert.Equal(t, 0, LocateHeader(grid, 20, nil))
	assert.Equal(t, 0, LocateHeader(nil, 20, nil))
}

func TestLocateHeaderTieKeepsEarliestRow(t *testing.T) {
	grid := [][]string{
		{"title"},
		{"Material", "Stock"},
		{"Material", "Libre"},
	}
	assert.Equal(t, 1, LocateHeader(grid, 20, []string{"material"}))
}

func TestLocateHeaderRespectsLimit(t *testing.T) {
	grid := [][]string{{"x"}, {"y"}, {"Material"}}
	assert.Equal(t, 0, LocateHeader(grid, 2, []string{"material"}))
	assert.Equal(t, 2, LocateHeader(grid, 3, []string{"material"}))
}
