package analytics

import (
	"testing"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func rec(material, origin string, period time.Time, fcst, inv, desp float64) domain.Record {
	r := domain.Record{
		Material:  material,
		Origin:    origin,
		Period:    period,
		Forecast:  domain.Float(fcst),
		Inventory: domain.Float(inv),
		Dispatch:  domain.Float(desp),
	}
	r.Coverage = domain.Float(metrics.CoverageDays(inv, r.Forecast))
	r.State = metrics.StateOf(r.Coverage)
	return r
}

func sample() []domain.Record {
	return []domain.Record{
		rec("A1", "Norte", jan, 100, 10, 80), // 3 days, critical
		rec("A2", "Norte", jan, 100, 200, 0), // 60 days, low
		rec("A3", "Sur", jan, 10, 100, 20),   // 300 days, healthy
		rec("A1", "Norte", feb, 50, 100, 60), // 60 days, low
		rec("A3", "Sur", feb, 0, 0, 0),       // zero demand, critical
		{Material: "A4", Origin: "Sur", Period: feb, State: domain.StateNoData},
	}
}

func TestStateDistribution(t *testing.T) {
	shares := StateDistribution(sample())
	require.Len(t, shares, 5)

	assert.Equal(t, domain.StateShare{Period: jan, State: domain.StateCritical, Count: 1, Percent: 33.3}, shares[0])
	assert.Equal(t, domain.StateShare{Period: jan, State: domain.StateLow, Count: 1, Percent: 33.3}, shares[1])
	assert.Equal(t, domain.StateShare{Period: jan, State: domain.StateHealthy, Count: 1, Percent: 33.3}, shares[2])
	assert.Equal(t, feb, shares[3].Period)
	assert.Equal(t, domain.StateCritical, shares[3].State)

	var febTotal float64
	for _, s := range shares[3:] {
		febTotal += float64(s.Count)
	}
	assert.Equal(t, 3.0, febTotal)
}

func TestStateDistributionSkipsMissingPeriods(t *testing.T) {
	shares := StateDistribution([]domain.Record{{Material: "A", State: domain.StateNoData}})
	assert.Empty(t, shares)
}

func TestStateStats(t *testing.T) {
	stats := StateStats(sample())
	require.Len(t, stats, 4)

	assert.Equal(t, domain.StateCritical, stats[0].State)
	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, 10.0, stats[0].Inventory)
	assert.Equal(t, 100.0, stats[0].Forecast)
	assert.Equal(t, 33.3, stats[0].Percent)

	assert.Equal(t, domain.StateNoData, stats[3].State)
	assert.Equal(t, 16.7, stats[3].Percent)
}

func TestPeriodRollups(t *testing.T) {
	rollups := PeriodRollups(sample())
	require.Len(t, rollups, 2)

	assert.Equal(t, jan, rollups[0].Period)
	assert.Equal(t, 310.0, rollups[0].Inventory)
	assert.Equal(t, 210.0, rollups[0].Forecast)
	assert.Equal(t, 100.0, rollups[0].Dispatch)
	require.NotNil(t, rollups[0].MeanCoverage)
	assert.InDelta(t, 121.0, *rollups[0].MeanCoverage, 1e-9)

	// A4 has no coverage and is left out of the mean.
	require.NotNil(t, rollups[1].MeanCoverage)
	assert.InDelta(t, 30.0, *rollups[1].MeanCoverage, 1e-9)
}

func TestTopEntities(t *testing.T) {
	records := sample()

	top := TopEntities(records, domain.ColInventory, 2, false)
	require.Len(t, top, 2)
	assert.Equal(t, "A2", top[0].Material)
	assert.Equal(t, 200.0, top[0].Value)
	// A3 (jan) and A1 (feb) tie at 100; input order wins.
	assert.Equal(t, "A3", top[1].Material)

	bottom := TopEntities(records, domain.ColInventory, 3, true)
	require.Len(t, bottom, 3)
	assert.Equal(t, []string{"A3", "A1", "A3"}, []string{bottom[0].Material, bottom[1].Material, bottom[2].Material})

	all := TopEntities(records, domain.ColInventory, 100, false)
	assert.Len(t, all, 5, "records without inventory are skipped")
}

func TestOriginWAPE(t *testing.T) {
	out := OriginWAPE(sample())
	require.Len(t, out, 2)

	assert.Equal(t, "Norte", out[0].Origin)
	assert.Equal(t, 250.0, out[0].Forecast)
	assert.Equal(t, 140.0, out[0].Dispatch)
	assert.Equal(t, 110.0, out[0].AbsDiff)
	assert.InDelta(t, 78.571, out[0].WAPE, 1e-3)

	assert.Equal(t, "Sur", out[1].Origin)
	assert.InDelta(t, 50.0, out[1].WAPE, 1e-9)
}

func TestOriginWAPEExcludesZeroDispatch(t *testing.T) {
	out := OriginWAPE([]domain.Record{
		rec("A", "Norte", jan, 100, 0, 0),
		rec("B", "", jan, 100, 0, 50),
	})
	assert.Empty(t, out)
}

func TestEntityWAPE(t *testing.T) {
	out := EntityWAPE(sample())
	require.Len(t, out, 2, "A2 and A4 have no dispatch")

	assert.Equal(t, "A1", out[0].Material)
	assert.Equal(t, "Norte", out[0].Origin)
	assert.Equal(t, 150.0, out[0].Forecast)
	assert.Equal(t, 140.0, out[0].Dispatch)
	assert.InDelta(t, 10.0/140*100, out[0].WAPE, 1e-9)

	assert.Equal(t, "A3", out[1].Material)
	assert.Equal(t, 10.0, out[1].AbsDiff)
}

func TestEntityWAPEWithoutOrigins(t *testing.T) {
	out := EntityWAPE([]domain.Record{
		rec("A", "", jan, 10, 0, 20),
		rec("A", "", feb, 30, 0, 20),
	})
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Origin)
	assert.Equal(t, 0.0, out[0].WAPE)
}

func TestRankEntityWAPE(t *testing.T) {
	entities := []domain.EntityWAPE{
		{Material: "A", WAPE: 10},
		{Material: "B", WAPE: 50},
		{Material: "C", WAPE: 10},
		{Material: "D", WAPE: 5},
	}

	top := RankEntityWAPE(entities, 2, false)
	assert.Equal(t, "B", top[0].Material)
	assert.Equal(t, "A", top[1].Material)

	bottom := RankEntityWAPE(entities, 3, true)
	assert.Equal(t, []string{"D", "A", "C"}, []string{bottom[0].Material, bottom[1].Material, bottom[2].Material})

	assert.Equal(t, "A", entities[0].Material, "input is not reordered")
}

func TestWAPEEvolution(t *testing.T) {
	points := WAPEEvolution([]domain.Record{
		rec("A", "", feb, 80, 0, 100),
		rec("A", "", jan, 120.456, 0, 100),
		rec("B", "", jan, 0, 0, 0),
	})
	require.Len(t, points, 2)

	assert.Equal(t, jan, points[0].Period)
	assert.Equal(t, 120.46, points[0].Forecast)
	assert.Equal(t, 20.46, points[0].AbsDiff)
	assert.Equal(t, 20.5, points[0].WAPE)
	assert.Equal(t, 0.0, points[0].UnderForecast)
	assert.Equal(t, -20.46, points[0].OverForecast)

	assert.Equal(t, feb, points[1].Period)
	assert.Equal(t, 20.0, points[1].UnderForecast)
	assert.Equal(t, 0.0, points[1].OverForecast)
	assert.Equal(t, 20.0, points[1].WAPE)
}

func TestWAPEEvolutionBalancedPeriod(t *testing.T) {
	points := WAPEEvolution([]domain.Record{rec("A", "", jan, 50, 0, 50)})
	require.Len(t, points, 1)
	assert.Zero(t, points[0].UnderForecast)
	assert.Zero(t, points[0].OverForecast)
	assert.Zero(t, points[0].WAPE)
}

func TestOriginDistribution(t *testing.T) {
	out := OriginDistribution(sample())
	assert.Equal(t, []domain.OriginCount{
		{Origin: "Norte", Materials: 2},
		{Origin: "Sur", Materials: 2},
	}, out)
}

func TestPlanningDetail(t *testing.T) {
	records := sample()
	records[0].Production = domain.Float(7)
	records[0].Quantity = domain.Float(3)

	rows := PlanningDetail(records)
	require.Len(t, rows, 6)
	assert.Equal(t, "A1", rows[0].Material)
	assert.Equal(t, jan, rows[0].Period)
	assert.Equal(t, 7.0, rows[0].Production)
	assert.Equal(t, 3.0, rows[0].Quantity)
	assert.Equal(t, feb, rows[1].Period)
}

func TestMaterialSummary(t *testing.T) {
	assert.Nil(t, MaterialSummary(sample()))

	records := []domain.Record{
		{Material: "A", Quantity: domain.Float(1)},
		{Material: "B", Quantity: domain.Float(5)},
		{Material: "A", Quantity: domain.Float(2)},
		{Material: "C"},
	}
	assert.Equal(t, []domain.MaterialQuantity{
		{Material: "B", Quantity: 5},
		{Material: "A", Quantity: 3},
	}, MaterialSummary(records))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())

	assert.Equal(t, 6, s.Records)
	assert.Equal(t, 4, s.SKUs)
	assert.Equal(t, 410.0, s.Inventory)
	assert.Equal(t, 260.0, s.Forecast)
	assert.Equal(t, 160.0, s.Dispatch)
	assert.Equal(t, 2, s.Critical)
	assert.Equal(t, 33.3, s.CriticalPercent)
	assert.Equal(t, 100.0, s.AbsDiff)
	assert.InDelta(t, 62.5, s.WAPE, 1e-9)
	assert.False(t, s.WAPEGood)
	assert.Equal(t, domain.BiasOverForecast, s.Bias)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Records)
	assert.Zero(t, s.CriticalPercent)
	assert.True(t, s.WAPEGood)
	assert.Equal(t, domain.BiasBalanced, s.Bias)
}

func TestBuild(t *testing.T) {
	ds := domain.NewDataset("plan.xlsx",
		[]string{domain.ColMaterial, domain.ColPeriod, domain.ColOrigin, domain.ColForecast, domain.ColInventory, domain.ColDispatch},
		sample(), nil)

	d := Build(ds, domain.Filter{Origins: []string{"Sur"}})
	assert.Equal(t, ds.ID, d.DatasetID)
	assert.Equal(t, 3, d.Summary.Records)
	require.Len(t, d.OriginWAPE, 1)
	assert.Equal(t, "Sur", d.OriginWAPE[0].Origin)
	assert.Len(t, d.PeriodRollups, 2)
	assert.Empty(t, d.Notices)
}

func TestBuildDegradesWithoutOptionalColumns(t *testing.T) {
	ds := domain.NewDataset("flat.xlsx",
		[]string{domain.ColMaterial, domain.ColForecast, domain.ColInventory, domain.ColDispatch},
		[]domain.Record{{Material: "A", Forecast: domain.Float(1), Inventory: domain.Float(1), Dispatch: domain.Float(1)}}, nil)

	d := Build(ds, domain.Filter{})
	assert.Empty(t, d.StateDistribution)
	assert.Empty(t, d.OriginWAPE)
	assert.Len(t, d.Notices, 2)
	for _, n := range d.Notices {
		assert.Equal(t, domain.NoticeInfo, n.Level)
	}
}

func TestBuildNoMatches(t *testing.T) {
	ds := domain.NewDataset("plan.xlsx",
		[]string{domain.ColMaterial, domain.ColPeriod, domain.ColOrigin},
		sample(), nil)

	d := Build(ds, domain.Filter{Materials: []string{"ZZZ"}})
	assert.Zero(t, d.Summary.Records)
	require.NotEmpty(t, d.Notices)
	assert.Equal(t, domain.NoticeWarning, d.Notices[len(d.Notices)-1].Level)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 21.43, round(metrics.WAPESeries([]float64{100, 50}, []float64{80, 60}), 2))
	assert.Equal(t, 3.0, round(2.5, 0))
	assert.Equal(t, -3.0, round(-2.5, 0))
	assert.Equal(t, 33.3, round(33.333, 1))
}
