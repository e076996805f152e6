package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
)

// ErrUnknownView is returned for a view name that has no table.
var ErrUnknownView = errors.New("unknown view")

// View names accepted by Table.
const (
	ViewRecords            = "records"
	ViewStateDistribution  = "state_distribution"
	ViewStateStats         = "state_stats"
	ViewPeriodRollups      = "period_rollups"
	ViewTopInventory       = "top_inventory"
	ViewBottomInventory    = "bottom_inventory"
	ViewOriginWAPE         = "origin_wape"
	ViewTopEntityWAPE      = "top_entity_wape"
	ViewBottomEntityWAPE   = "bottom_entity_wape"
	ViewWAPEEvolution      = "wape_evolution"
	ViewOriginDistribution = "origin_distribution"
	ViewPlanning           = "planning"
	ViewMaterialSummary    = "material_summary"
)

// Grid is a header plus rows of formatted cells.
type Grid struct {
	Header []string
	Rows   [][]string
}

type builder func(d *domain.Dashboard, records []domain.Record) Grid

var builders = map[string]builder{
	ViewRecords:            func(_ *domain.Dashboard, r []domain.Record) Grid { return recordsGrid(r) },
	ViewStateDistribution:  func(d *domain.Dashboard, _ []domain.Record) Grid { return stateDistributionGrid(d.StateDistribution) },
	ViewStateStats:         func(d *domain.Dashboard, _ []domain.Record) Grid { return stateStatsGrid(d.StateStats) },
	ViewPeriodRollups:      func(d *domain.Dashboard, _ []domain.Record) Grid { return periodRollupsGrid(d.PeriodRollups) },
	ViewTopInventory:       func(d *domain.Dashboard, _ []domain.Record) Grid { return rankedGrid(d.TopInventory) },
	ViewBottomInventory:    func(d *domain.Dashboard, _ []domain.Record) Grid { return rankedGrid(d.BottomInventory) },
	ViewOriginWAPE:         func(d *domain.Dashboard, _ []domain.Record) Grid { return originWAPEGrid(d.OriginWAPE) },
	ViewTopEntityWAPE:      func(d *domain.Dashboard, _ []domain.Record) Grid { return entityWAPEGrid(d.TopEntityWAPE) },
	ViewBottomEntityWAPE:   func(d *domain.Dashboard, _ []domain.Record) Grid { return entityWAPEGrid(d.BottomEntityWAPE) },
	ViewWAPEEvolution:      func(d *domain.Dashboard, _ []domain.Record) Grid { return wapeEvolutionGrid(d.WAPEEvolution) },
	ViewOriginDistribution: func(d *domain.Dashboard, _ []domain.Record) Grid { return originDistributionGrid(d.OriginDistribution) },
	ViewPlanning:           func(d *domain.Dashboard, _ []domain.Record) Grid { return planningGrid(d.Planning) },
	ViewMaterialSummary:    func(d *domain.Dashboard, _ []domain.Record) Grid { return materialSummaryGrid(d.MaterialSummary) },
}

// Views lists every exportable view name, sorted.
func Views() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsView reports whether name is an exportable view.
func IsView(name string) bool {
	_, ok := builders[name]
	return ok
}

// Table lays out one view as a grid. records feeds the "records" view; the
// others read from d.
func Table(view string, d *domain.Dashboard, records []domain.Record) (Grid, error) {
	build, ok := builders[view]
	if !ok {
		return Grid{}, fmt.Errorf("%w: %s", ErrUnknownView, view)
	}
	if d == nil {
		d = &domain.Dashboard{}
	}
	return build(d, records), nil
}

// WriteCSV writes g as comma-separated UTF-8 text with a header row.
func WriteCSV(w io.Writer, g Grid) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(g.Header); err != nil {
		return err
	}
	for _, row := range g.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func period(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func recordsGrid(records []domain.Record) Grid {
	g := Grid{Header: []string{
		domain.ColMaterial, domain.ColDescription, domain.ColPeriod, domain.ColOrigin,
		domain.ColForecast, domain.ColInventory, domain.ColDispatch, domain.ColCoverage,
		domain.ColQuantity, domain.ColProduction, domain.ColForecastAct, domain.ColState,
	}}
	for _, r := range records {
		g.Rows = append(g.Rows, []string{
			r.Material, r.Description, period(r.Period), r.Origin,
			optional(r.Forecast), optional(r.Inventory), optional(r.Dispatch), optional(r.Coverage),
			optional(r.Quantity), optional(r.Production), optional(r.ForecastAct), string(r.State),
		})
	}
	return g
}

func stateDistributionGrid(shares []domain.StateShare) Grid {
	g := Grid{Header: []string{domain.ColPeriod, domain.ColState, "Cantidad", "Porcentaje"}}
	for _, s := range shares {
		g.Rows = append(g.Rows, []string{period(s.Period), string(s.State), strconv.Itoa(s.Count), num(s.Percent)})
	}
	return g
}

func stateStatsGrid(stats []domain.StateStat) Grid {
	g := Grid{Header: []string{"Estado", "Cantidad_SKU", "Inventario_Total", "FCST_Total", "Porcentaje_SKU"}}
	for _, s := range stats {
		g.Rows = append(g.Rows, []string{string(s.State), strconv.Itoa(s.Count), num(s.Inventory), num(s.Forecast), num(s.Percent)})
	}
	return g
}

func periodRollupsGrid(rollups []domain.PeriodRollup) Grid {
	g := Grid{Header: []string{domain.ColPeriod, domain.ColInventory, domain.ColForecast, domain.ColDispatch, domain.ColCoverage}}
	for _, r := range rollups {
		g.Rows = append(g.Rows, []string{period(r.Period), num(r.Inventory), num(r.Forecast), num(r.Dispatch), optional(r.MeanCoverage)})
	}
	return g
}

func rankedGrid(entities []domain.RankedEntity) Grid {
	g := Grid{Header: []string{domain.ColMaterial, "Valor", domain.ColOrigin, domain.ColDescription}}
	for _, e := range entities {
		g.Rows = append(g.Rows, []string{e.Material, num(e.Value), e.Origin, e.Description})
	}
	return g
}

func originWAPEGrid(rows []domain.OriginWAPE) Grid {
	g := Grid{Header: []string{domain.ColOrigin, domain.ColForecast, domain.ColDispatch, "Dif Wape Abs", "Wape (%)"}}
	for _, r := range rows {
		g.Rows = append(g.Rows, []string{r.Origin, num(r.Forecast), num(r.Dispatch), num(r.AbsDiff), num(r.WAPE)})
	}
	return g
}

func entityWAPEGrid(rows []domain.EntityWAPE) Grid {
	g := Grid{Header: []string{domain.ColMaterial, domain.ColOrigin, domain.ColForecast, domain.ColDispatch, "Dif Wape Abs", "Wape (%)"}}
	for _, r := range rows {
		g.Rows = append(g.Rows, []string{r.Material, r.Origin, num(r.Forecast), num(r.Dispatch), num(r.AbsDiff), num(r.WAPE)})
	}
	return g
}

func wapeEvolutionGrid(points []domain.WAPEPoint) Grid {
	g := Grid{Header: []string{domain.ColPeriod, domain.ColForecast, "Despachos", "Dif_Wape_Abs", "Wape_%", "+Wape", "-Wape"}}
	for _, p := range points {
		g.Rows = append(g.Rows, []string{
			period(p.Period), num(p.Forecast), num(p.Dispatch), num(p.AbsDiff),
			num(p.WAPE), num(p.UnderForecast), num(p.OverForecast),
		})
	}
	return g
}

func originDistributionGrid(rows []domain.OriginCount) Grid {
	g := Grid{Header: []string{domain.ColOrigin, "N_SKU"}}
	for _, r := range rows {
		g.Rows = append(g.Rows, []string{r.Origin, strconv.Itoa(r.Materials)})
	}
	return g
}

func planningGrid(rows []domain.PlanningRow) Grid {
	g := Grid{Header: []string{
		domain.ColMaterial, "Mes", domain.ColForecast, domain.ColProduction,
		domain.ColInventory, domain.ColQuantity, domain.ColCoverage,
	}}
	for _, r := range rows {
		g.Rows = append(g.Rows, []string{
			r.Material, r.Period.Format("January 2006"), num(r.Forecast), num(r.Production),
			num(r.Inventory), num(r.Quantity), num(r.Coverage),
		})
	}
	return g
}

func materialSummaryGrid(rows []domain.MaterialQuantity) Grid {
	g := Grid{Header: []string{domain.ColMaterial, domain.ColQuantity}}
	for _, r := range rows {
		g.Rows = append(g.Rows, []string{r.Material, num(r.Quantity)})
	}
	return g
}
