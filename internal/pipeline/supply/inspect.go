package supply

import (
	"context"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/normalize"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/workbook"
)

// SheetReport describes how one sheet of a workbook would be read.
type SheetReport struct {
	Name       string               `json:"name"`
	Role       SheetRole            `json:"role"`
	HeaderRow  int                  `json:"header_row"`
	Columns    []string             `json:"columns"`
	Rows       int                  `json:"rows"`
	Validation normalize.Validation `json:"validation"`
	Error      string               `json:"error,omitempty"`
}

// Inspect reports the header row, columns and raw schema check of every
// sheet in wb. Per-sheet read errors are recorded in the report instead of
// aborting.
func (p *Pipeline) Inspect(ctx context.Context, wb *workbook.Workbook) ([]SheetReport, error) {
	sheets := wb.Sheets()
	reports := make([]SheetReport, 0, len(sheets))

	for _, name := range sheets {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		role := ClassifySheet(name)
		keywords := keywordsFor(role)
		if keywords == nil {
			keywords = normalize.DefaultHeaderKeywords
		}

		report := SheetReport{Name: name, Role: role}
		preview, err := wb.Preview(name, p.config.HeaderScanRows)
		if err != nil {
			report.Error = err.Error()
			reports = append(reports, report)
			continue
		}
		report.HeaderRow = normalize.LocateHeader(preview, p.config.HeaderScanRows, keywords)

		table, err := wb.Table(name, report.HeaderRow)
		if err != nil {
			report.Error = err.Error()
			reports = append(reports, report)
			continue
		}
		report.Columns = table.Labels()
		report.Rows = table.Len()
		report.Validation = normalize.Validate(table)

		reports = append(reports, report)
	}

	return reports, nil
}
