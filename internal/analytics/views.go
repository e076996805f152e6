package analytics

import (
	"sort"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TopN is the length of the top and bottom lists on the dashboard.
const TopN = 15

// round rounds half away from zero at the given number of decimal places.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(part)/float64(total)*100, 1)
}

func withPeriod(records []domain.Record) []domain.Record {
	return lo.Filter(records, func(r domain.Record, _ int) bool { return r.HasPeriod() })
}

// byPeriod groups records by month and returns the months in ascending order.
func byPeriod(records []domain.Record) ([]time.Time, map[time.Time][]domain.Record) {
	groups := lo.GroupBy(withPeriod(records), func(r domain.Record) time.Time {
		return domain.MonthStart(r.Period)
	})
	periods := lo.Keys(groups)
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	return periods, groups
}

func sum(records []domain.Record, column string) float64 {
	return lo.SumBy(records, func(r domain.Record) float64 {
		v, _ := r.Value(column)
		return v
	})
}

// StateDistribution counts records per period and coverage state. Percent
// is the share of the period's records, rounded to one decimal. Records
// without a period are left out.
func StateDistribution(records []domain.Record) []domain.StateShare {
	periods, groups := byPeriod(records)

	var out []domain.StateShare
	for _, p := range periods {
		rows := groups[p]
		counts := lo.CountValuesBy(rows, func(r domain.Record) domain.CoverageState { return r.State })

		states := lo.Keys(counts)
		sort.Slice(states, func(i, j int) bool { return states[i].Rank() < states[j].Rank() })
		for _, s := range states {
			out = append(out, domain.StateShare{
				Period:  p,
				State:   s,
				Count:   counts[s],
				Percent: percent(counts[s], len(rows)),
			})
		}
	}
	return out
}

// StateStats summarizes each coverage state over the whole selection.
func StateStats(records []domain.Record) []domain.StateStat {
	groups := lo.GroupBy(records, func(r domain.Record) domain.CoverageState { return r.State })

	out := make([]domain.StateStat, 0, len(groups))
	for state, rows := range groups {
		out = append(out, domain.StateStat{
			State:     state,
			Count:     len(rows),
			Inventory: sum(rows, domain.ColInventory),
			Forecast:  sum(rows, domain.ColForecast),
			Percent:   percent(len(rows), len(records)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State.Rank() < out[j].State.Rank() })
	return out
}

// PeriodRollups sums inventory, forecast and dispatch per period and
// averages coverage over the records that have one.
func PeriodRollups(records []domain.Record) []domain.PeriodRollup {
	periods, groups := byPeriod(records)

	out := make([]domain.PeriodRollup, 0, len(periods))
	for _, p := range periods {
		rows := groups[p]
		rollup := domain.PeriodRollup{
			Period:    p,
			Inventory: sum(rows, domain.ColInventory),
			Forecast:  sum(rows, domain.ColForecast),
			Dispatch:  sum(rows, domain.ColDispatch),
		}

		covered := lo.Filter(rows, func(r domain.Record, _ int) bool { return r.Coverage != nil })
		if len(covered) > 0 {
			rollup.MeanCoverage = domain.Float(sum(covered, domain.ColCoverage) / float64(len(covered)))
		}
		out = append(out, rollup)
	}
	return out
}

// TopEntities returns up to n records ranked by column, largest first or
// smallest first when ascending. Records missing the value are skipped.
// Ties keep their input order.
func TopEntities(records []domain.Record, column string, n int, ascending bool) []domain.RankedEntity {
	ranked := make([]domain.RankedEntity, 0, len(records))
	for _, r := range records {
		v, ok := r.Value(column)
		if !ok {
			continue
		}
		ranked = append(ranked, domain.RankedEntity{
			Material:    r.Material,
			Value:       v,
			Origin:      r.Origin,
			Description: r.Description,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ascending {
			return ranked[i].Value < ranked[j].Value
		}
		return ranked[i].Value > ranked[j].Value
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// OriginDistribution counts distinct materials per origin, fewest first.
// Records without an origin are ignored.
func OriginDistribution(records []domain.Record) []domain.OriginCount {
	withOrigin := lo.Filter(records, func(r domain.Record, _ int) bool { return r.Origin != "" })
	groups := lo.GroupBy(withOrigin, func(r domain.Record) string { return r.Origin })

	out := make([]domain.OriginCount, 0, len(groups))
	for origin, rows := range groups {
		materials := lo.Uniq(lo.Map(rows, func(r domain.Record, _ int) string { return r.Material }))
		out = append(out, domain.OriginCount{Origin: origin, Materials: len(materials)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Materials != out[j].Materials {
			return out[i].Materials < out[j].Materials
		}
		return out[i].Origin < out[j].Origin
	})
	return out
}

type materialPeriod struct {
	material string
	period   time.Time
}

// PlanningDetail sums the planning figures of each material in each period,
// ordered by material then period.
func PlanningDetail(records []domain.Record) []domain.PlanningRow {
	groups := lo.GroupBy(withPeriod(records), func(r domain.Record) materialPeriod {
		return materialPeriod{r.Material, domain.MonthStart(r.Period)}
	})

	out := make([]domain.PlanningRow, 0, len(groups))
	for key, rows := range groups {
		out = append(out, domain.PlanningRow{
			Material:   key.material,
			Period:     key.period,
			Forecast:   sum(rows, domain.ColForecast),
			Production: sum(rows, domain.ColProduction),
			Inventory:  sum(rows, domain.ColInventory),
			Quantity:   sum(rows, domain.ColQuantity),
			Coverage:   sum(rows, domain.ColCoverage),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Material != out[j].Material {
			return out[i].Material < out[j].Material
		}
		return out[i].Period.Before(out[j].Period)
	})
	return out
}

// MaterialSummary totals Q per material, largest first. Nil when no record
// carries a quantity.
func MaterialSummary(records []domain.Record) []domain.MaterialQuantity {
	withQ := lo.Filter(records, func(r domain.Record, _ int) bool { return r.Quantity != nil })
	if len(withQ) == 0 {
		return nil
	}
	groups := lo.GroupBy(withQ, func(r domain.Record) string { return r.Material })

	out := make([]domain.MaterialQuantity, 0, len(groups))
	for material, rows := range groups {
		out = append(out, domain.MaterialQuantity{Material: material, Quantity: sum(rows, domain.ColQuantity)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Material < out[j].Material
	})
	return out
}
