package analytics

import (
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/metrics"
	"github.com/samber/lo"
)

// WAPEGoodThreshold is the global WAPE below which forecasting is considered good.
const WAPEGoodThreshold = 15

// Summarize computes the headline KPIs of a selection.
func Summarize(records []domain.Record) domain.Summary {
	t := totalsOf(records)
	s := domain.Summary{
		Records:   len(records),
		SKUs:      len(lo.Uniq(lo.Map(records, func(r domain.Record, _ int) string { return r.Material }))),
		Inventory: sum(records, domain.ColInventory),
		Forecast:  t.forecast,
		Dispatch:  t.dispatch,
		Critical:  lo.CountBy(records, func(r domain.Record) bool { return r.State == domain.StateCritical }),
		AbsDiff:   t.absDiff(),
		WAPE:      metrics.WAPE(t.forecast, t.dispatch),
	}
	s.CriticalPercent = percent(s.Critical, s.Records)
	s.WAPEGood = s.WAPE < WAPEGoodThreshold

	switch {
	case t.forecast > t.dispatch:
		s.Bias = domain.BiasOverForecast
	case t.forecast < t.dispatch:
		s.Bias = domain.BiasUnderForecast
	default:
		s.Bias = domain.BiasBalanced
	}
	return s
}

// Build computes every dashboard view for the records of ds that pass
// filter. Views that need a column the dataset lacks are left empty and
// reported with an info notice.
func Build(ds *domain.Dataset, filter domain.Filter) domain.Dashboard {
	records := filter.Apply(ds.Records)
	entities := EntityWAPE(records)

	d := domain.Dashboard{
		DatasetID:          ds.ID,
		Filter:             filter,
		Summary:            Summarize(records),
		StateStats:         StateStats(records),
		TopInventory:       TopEntities(records, domain.ColInventory, TopN, false),
		BottomInventory:    TopEntities(records, domain.ColInventory, TopN, true),
		OriginWAPE:         make([]domain.OriginWAPE, 0),
		TopEntityWAPE:      RankEntityWAPE(entities, TopN, false),
		BottomEntityWAPE:   RankEntityWAPE(entities, TopN, true),
		OriginDistribution: make([]domain.OriginCount, 0),
		MaterialSummary:    MaterialSummary(records),
		Notices:            make([]domain.Notice, 0),
	}

	if ds.HasColumn(domain.ColPeriod) {
		d.StateDistribution = StateDistribution(records)
		d.PeriodRollups = PeriodRollups(records)
		d.WAPEEvolution = WAPEEvolution(records)
		d.Planning = PlanningDetail(records)
	} else {
		d.Notices = append(d.Notices, domain.Infof("no %s column: period views are unavailable", domain.ColPeriod))
	}

	if ds.HasColumn(domain.ColOrigin) {
		d.OriginWAPE = OriginWAPE(records)
		d.OriginDistribution = OriginDistribution(records)
	} else {
		d.Notices = append(d.Notices, domain.Infof("no %s column: origin views are unavailable", domain.ColOrigin))
	}

	if len(records) == 0 {
		d.Notices = append(d.Notices, domain.Warningf("no records match the selected filters"))
	}
	return d
}
