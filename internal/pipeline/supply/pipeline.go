package supply

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/normalize"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/pipeline"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/workbook"
	"github.com/rs/zerolog/log"
)

// Config tunes workbook loading.
type Config struct {
	// HeaderScanRows is how many leading rows are searched for the header.
	HeaderScanRows int
}

// Sheets records which sheet served each role in a load.
type Sheets struct {
	Forecast  string `json:"forecast,omitempty"`
	Inventory string `json:"inventory,omitempty"`
	Dispatch  string `json:"dispatch,omitempty"`
	Fallback  string `json:"fallback,omitempty"`
}

// LoadResult is the consolidated table from a workbook before validation.
type LoadResult struct {
	Table   *normalize.Table
	Sheets  Sheets
	Notices []domain.Notice
}

// Result is the validated, typed outcome of processing a workbook.
type Result struct {
	Columns []string
	Records []domain.Record
	Sheets  Sheets
	Notices []domain.Notice
}

// Pipeline turns supply-planning workbooks into canonical records.
type Pipeline struct {
	config Config
}

// NewPipeline creates a new supply pipeline instance.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.HeaderScanRows <= 0 {
		cfg.HeaderScanRows = normalize.DefaultHeaderScanRows
	}
	return &Pipeline{config: cfg}
}

// Name returns the unique identifier of this pipeline.
func (p *Pipeline) Name() string {
	return "supply_plan"
}

// Validate checks that inputFile exists and looks like a workbook.
func (p *Pipeline) Validate(inputFile string) error {
	if !workbook.IsWorkbook(inputFile) {
		return fmt.Errorf("%s is not an .xlsx or .xls file", inputFile)
	}
	info, err := os.Stat(inputFile)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", inputFile, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", inputFile)
	}
	return nil
}

// ProcessFile opens the workbook at path and processes it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	wb, err := workbook.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer wb.Close()

	return p.Process(ctx, wb)
}

// Transform processes a workbook file for a batch run.
func (p *Pipeline) Transform(ctx context.Context, inputFile string) (*pipeline.Output, error) {
	res, err := p.ProcessFile(ctx, inputFile)
	if err != nil {
		return nil, err
	}
	return &pipeline.Output{Rows: len(res.Records), Notices: res.Notices}, nil
}

var _ pipeline.Pipeline = (*Pipeline)(nil)

// Process loads wb, validates the result and projects it into records.
// It returns ErrLoadFailed for unreadable workbooks and *SchemaError when
// required column groups are missing.
func (p *Pipeline) Process(ctx context.Context, wb *workbook.Workbook) (*Result, error) {
	loaded, err := p.Load(ctx, wb)
	if err != nil {
		return nil, err
	}
	notices := loaded.Notices
	table := loaded.Table

	check := normalize.Validate(table)
	if !check.Valid {
		return nil, &SchemaError{Missing: check.Missing, Notices: notices}
	}

	if check.Deferred {
		long, unpivotNotices := normalize.Unpivot(table, domain.ColForecast)
		notices = append(notices, unpivotNotices...)
		table, notices = fillForecastOnly(long, notices)

		check = normalize.ValidateLabels(table.Labels())
		if !check.Valid || check.Deferred {
			missing := check.Missing
			if len(missing) == 0 {
				missing = []string{"month columns could not be reshaped into rows"}
			}
			return nil, &SchemaError{Missing: missing, Notices: notices}
		}
	}

	canonical, canonNotices := normalize.Canonicalize(table)
	notices = append(notices, canonNotices...)

	records, projNotices := normalize.Project(canonical)
	notices = append(notices, projNotices...)
	if len(records) == 0 {
		notices = append(notices, domain.Warningf("no rows with a material were found"))
	}

	log.Info().
		Str("workbook", wb.Name()).
		Int("records", len(records)).
		Int("notices", len(notices)).
		Msg("supply: workbook processed")

	return &Result{
		Columns: canonical.Labels(),
		Records: records,
		Sheets:  loaded.Sheets,
		Notices: notices,
	}, nil
}

// Load builds one long table from wb. A forecast sheet is unpivoted and
// joined with per-material inventory totals from the inventory sheet;
// without a usable forecast sheet the first sheet is returned as a flat
// table. Any read error or panic is reported as ErrLoadFailed.
func (p *Pipeline) Load(ctx context.Context, wb *workbook.Workbook) (res *LoadResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("workbook", wb.Name()).Msg("supply: workbook load panicked")
			res, err = nil, fmt.Errorf("%w: %v", ErrLoadFailed, r)
		}
	}()

	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrLoadFailed, wb.Name())
	}

	res = &LoadResult{}
	var forecast *normalize.Table

	if name, ok := SelectSheet(sheets, RoleForecast); ok {
		res.Sheets.Forecast = name
		res.Notices = append(res.Notices, domain.Infof("loading forecast from sheet %s", name))

		forecast, err = p.forecastTable(wb, name, res)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if forecast.Empty() {
		return p.fallback(wb, sheets[0], res)
	}

	var totals map[string]float64
	if name, ok := SelectSheet(sheets, RoleInventory); ok {
		res.Sheets.Inventory = name
		res.Notices = append(res.Notices, domain.Infof("loading inventory from sheet %s", name))

		totals, err = p.inventoryTotals(wb, name, res)
		if err != nil {
			return nil, err
		}
	}

	if name, ok := SelectSheet(sheets, RoleDispatch); ok {
		res.Sheets.Dispatch = name
		res.Notices = append(res.Notices, domain.Infof("sheet %s found; dispatch values are not read from it yet", name))
	}

	res.Table = mergeInventory(forecast, totals)
	res.Notices = append(res.Notices, domain.Infof("data consolidated from %d sheets", countSheets(res.Sheets)))
	return res, nil
}

func (p *Pipeline) forecastTable(wb *workbook.Workbook, sheet string, res *LoadResult) (*normalize.Table, error) {
	raw, err := p.readSheet(wb, sheet, forecastKeywords)
	if err != nil {
		return nil, err
	}

	long, notices := normalize.Unpivot(raw, domain.ColForecast)
	res.Notices = append(res.Notices, notices...)
	if long == raw || !long.Has(domain.ColMaterial) || !long.Has(domain.ColPeriod) {
		res.Notices = append(res.Notices, domain.Warningf("forecast sheet %s has no month columns to reshape", sheet))
		return nil, nil
	}
	return long, nil
}

func (p *Pipeline) inventoryTotals(wb *workbook.Workbook, sheet string, res *LoadResult) (map[string]float64, error) {
	raw, err := p.readSheet(wb, sheet, inventoryKeywords)
	if err != nil {
		return nil, err
	}

	totals, notices := InventoryTotals(raw)
	res.Notices = append(res.Notices, notices...)
	return totals, nil
}

func (p *Pipeline) fallback(wb *workbook.Workbook, sheet string, res *LoadResult) (*LoadResult, error) {
	res.Sheets.Fallback = sheet
	res.Notices = append(res.Notices, domain.Warningf(
		"no standard forecast sheet detected; loading sheet %s as a single table", sheet))

	table, err := p.readSheet(wb, sheet, normalize.DefaultHeaderKeywords)
	if err != nil {
		return nil, err
	}
	res.Table = table
	return res, nil
}

// readSheet locates the header row of sheet by keywords and reads it.
func (p *Pipeline) readSheet(wb *workbook.Workbook, sheet string, keywords []string) (*normalize.Table, error) {
	preview, err := wb.Preview(sheet, p.config.HeaderScanRows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	header := normalize.LocateHeader(preview, p.config.HeaderScanRows, keywords)

	table, err := wb.Table(sheet, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	log.Debug().Str("sheet", sheet).Int("header_row", header).Int("rows", table.Len()).Msg("supply: sheet read")
	return table, nil
}

// mergeInventory left-joins per-material inventory onto the forecast rows.
// Materials without inventory get 0, and dispatch is 0 for every row.
func mergeInventory(forecast *normalize.Table, totals map[string]float64) *normalize.Table {
	mat := forecast.Index(domain.ColMaterial)

	rows := make([][]string, len(forecast.Rows))
	for i, row := range forecast.Rows {
		r := append([]string(nil), row...)
		r[mat] = normalize.EntityKey(r[mat])
		rows[i] = r
	}
	keyed := &normalize.Table{Columns: forecast.Columns, Rows: rows, Date1904: forecast.Date1904}

	merged := keyed.WithColumn(domain.ColInventory, func(row []string) string {
		return formatNumber(totals[row[mat]])
	})
	return merged.WithColumn(domain.ColDispatch, func([]string) string { return "0" })
}

// fillForecastOnly completes a reshaped single-sheet forecast with zero
// inventory and dispatch when the sheet did not carry them.
func fillForecastOnly(t *normalize.Table, notices []domain.Notice) (*normalize.Table, []domain.Notice) {
	if !t.Has(domain.ColMaterial) || !t.Has(domain.ColPeriod) {
		return t, notices
	}
	for _, col := range []string{domain.ColInventory, domain.ColDispatch} {
		if t.Has(col) {
			continue
		}
		t = t.WithColumn(col, func([]string) string { return "0" })
		notices = append(notices, domain.Infof("no %s values in a single-sheet forecast; set to 0", col))
	}
	return t, notices
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func countSheets(s Sheets) int {
	n := 0
	for _, name := range []string{s.Forecast, s.Inventory} {
		if name != "" {
			n++
		}
	}
	return n
}
