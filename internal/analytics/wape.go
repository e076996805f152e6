package analytics

import (
	"math"
	"sort"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/metrics"
	"github.com/samber/lo"
)

type totals struct {
	forecast float64
	dispatch float64
}

func totalsOf(rows []domain.Record) totals {
	return totals{
		forecast: sum(rows, domain.ColForecast),
		dispatch: sum(rows, domain.ColDispatch),
	}
}

func (t totals) absDiff() float64 {
	return math.Abs(t.dispatch - t.forecast)
}

// OriginWAPE computes WAPE per origin from forecast and dispatch totals.
// Origins whose dispatch total is not positive have no defined WAPE and are
// left out, as are records without an origin. Sorted by origin.
func OriginWAPE(records []domain.Record) []domain.OriginWAPE {
	withOrigin := lo.Filter(records, func(r domain.Record, _ int) bool { return r.Origin != "" })
	groups := lo.GroupBy(withOrigin, func(r domain.Record) string { return r.Origin })

	out := make([]domain.OriginWAPE, 0, len(groups))
	for origin, rows := range groups {
		t := totalsOf(rows)
		if t.dispatch <= 0 {
			continue
		}
		out = append(out, domain.OriginWAPE{
			Origin:   origin,
			Forecast: t.forecast,
			Dispatch: t.dispatch,
			AbsDiff:  t.absDiff(),
			WAPE:     metrics.WAPE(t.forecast, t.dispatch),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Origin < out[j].Origin })
	return out
}

type entityKey struct {
	material string
	origin   string
}

// EntityWAPE computes WAPE per material, or per (material, origin) when the
// selection carries origins. Groups whose dispatch total is not positive are
// left out. Sorted by material then origin.
func EntityWAPE(records []domain.Record) []domain.EntityWAPE {
	byOrigin := lo.ContainsBy(records, func(r domain.Record) bool { return r.Origin != "" })
	groups := lo.GroupBy(records, func(r domain.Record) entityKey {
		if byOrigin {
			return entityKey{r.Material, r.Origin}
		}
		return entityKey{material: r.Material}
	})

	out := make([]domain.EntityWAPE, 0, len(groups))
	for key, rows := range groups {
		t := totalsOf(rows)
		if t.dispatch <= 0 {
			continue
		}
		out = append(out, domain.EntityWAPE{
			Material: key.material,
			Origin:   key.origin,
			Forecast: t.forecast,
			Dispatch: t.dispatch,
			AbsDiff:  t.absDiff(),
			WAPE:     metrics.WAPE(t.forecast, t.dispatch),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Material != out[j].Material {
			return out[i].Material < out[j].Material
		}
		return out[i].Origin < out[j].Origin
	})
	return out
}

// RankEntityWAPE returns up to n entities with the highest WAPE, or the
// lowest when ascending. Ties keep the order of entities.
func RankEntityWAPE(entities []domain.EntityWAPE, n int, ascending bool) []domain.EntityWAPE {
	ranked := append([]domain.EntityWAPE(nil), entities...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ascending {
			return ranked[i].WAPE < ranked[j].WAPE
		}
		return ranked[i].WAPE > ranked[j].WAPE
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// WAPEEvolution computes WAPE per period, oldest first. Totals and the
// absolute difference are rounded to two decimals and WAPE to one.
// UnderForecast holds the difference when forecast is below dispatch and
// OverForecast its negative when forecast is above; the other is 0.
func WAPEEvolution(records []domain.Record) []domain.WAPEPoint {
	periods, groups := byPeriod(records)

	out := make([]domain.WAPEPoint, 0, len(periods))
	for _, p := range periods {
		t := totalsOf(groups[p])
		point := domain.WAPEPoint{
			Period:   p,
			Forecast: round(t.forecast, 2),
			Dispatch: round(t.dispatch, 2),
			AbsDiff:  round(t.absDiff(), 2),
			WAPE:     round(metrics.WAPE(t.forecast, t.dispatch), 1),
		}
		switch {
		case point.Forecast < point.Dispatch:
			point.UnderForecast = point.AbsDiff
		case point.Forecast > point.Dispatch:
			point.OverForecast = -point.AbsDiff
		}
		out = append(out, point)
	}
	return out
}
