package supply

import (
	"strings"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/normalize"
)

var (
	inventoryBuckets  = []string{"libre", "bloqueado", "transito", "calidad"}
	inventoryFallback = []string{"total", "cantidad"}
)

// inventoryColumns finds the material column and the quantity columns to
// add up in an inventory sheet. material is -1 when none is found.
func inventoryColumns(t *normalize.Table) (material int, quantities []int) {
	material = -1
	for i, c := range t.Columns {
		label := strings.ToLower(c.Label)
		if strings.Contains(label, "material") && !strings.Contains(label, "nombre") {
			material = i
			break
		}
	}

	pick := func(keys []string) []int {
		var cols []int
		for i, c := range t.Columns {
			if i == material {
				continue
			}
			label := strings.ToLower(c.Label)
			for _, k := range keys {
				if strings.Contains(label, k) {
					cols = append(cols, i)
					break
				}
			}
		}
		return cols
	}

	quantities = pick(inventoryBuckets)
	if len(quantities) == 0 {
		quantities = pick(inventoryFallback)
	}
	return material, quantities
}

// InventoryTotals sums the quantity columns of every row and then every row
// of the same material, collapsing lots and warehouses into one figure per
// material. Non-numeric cells are skipped. Rows without a material are ignored.
func InventoryTotals(t *normalize.Table) (map[string]float64, []domain.Notice) {
	material, quantities := inventoryColumns(t)
	if material < 0 {
		return nil, []domain.Notice{domain.Warningf("inventory sheet has no material column; inventory set to 0")}
	}
	if len(quantities) == 0 {
		return nil, []domain.Notice{domain.Warningf("inventory sheet has no quantity columns; inventory set to 0")}
	}

	totals := make(map[string]float64)
	for _, row := range t.Rows {
		key := normalize.EntityKey(row[material])
		if key == "" {
			continue
		}

		var sum float64
		for _, i := range quantities {
			if v := normalize.ParseNumber(row[i]); v != nil {
				sum += *v
			}
		}
		totals[key] += sum
	}
	return totals, nil
}
