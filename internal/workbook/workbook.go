package workbook

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/normalize"
	"github.com/xuri/excelize/v2"
)

var rawValues = excelize.Options{RawCellValue: true}

// Workbook is an open spreadsheet. Cell values are read raw (unformatted),
// so numbers keep full precision and dates come back as serials.
type Workbook struct {
	file     *excelize.File
	name     string
	date1904 bool
}

// Open reads a workbook from r. name is only used for messages.
func Open(r io.Reader, name string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", name, err)
	}
	return newWorkbook(f, name), nil
}

// OpenFile opens the workbook at path.
func OpenFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return newWorkbook(f, filepath.Base(path)), nil
}

// FromFile wraps an already open excelize file.
func FromFile(f *excelize.File, name string) *Workbook {
	return newWorkbook(f, name)
}

func newWorkbook(f *excelize.File, name string) *Workbook {
	wb := &Workbook{file: f, name: name}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) Name() string {
	return w.name
}

// Sheets returns sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Preview returns up to n leading rows of sheet with no header assumed.
func (w *Workbook) Preview(sheet string, n int) ([][]string, error) {
	rows, err := w.file.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var grid [][]string
	for len(grid) < n && rows.Next() {
		record, err := rows.Columns(rawValues)
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		grid = append(grid, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}

	return grid, nil
}

// Grid returns every row of sheet.
func (w *Workbook) Grid(sheet string) ([][]string, error) {
	grid, err := w.file.GetRows(sheet, rawValues)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return grid, nil
}

// Table reads sheet using the row at headerRow (0-based) as the header.
// Header cells formatted as dates become date-typed columns.
func (w *Workbook) Table(sheet string, headerRow int) (*normalize.Table, error) {
	grid, err := w.Grid(sheet)
	if err != nil {
		return nil, err
	}
	if headerRow >= len(grid) {
		return &normalize.Table{Date1904: w.date1904}, nil
	}

	table := normalize.TableFromGrid(grid, headerRow, w.headerDates(sheet, headerRow, grid[headerRow]))
	table.Date1904 = w.date1904
	return table, nil
}

func (w *Workbook) headerDates(sheet string, headerRow int, header []string) map[int]time.Time {
	dates := make(map[int]time.Time)
	for i, cell := range header {
		serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil || serial <= 0 {
			continue
		}

		ref, err := excelize.CoordinatesToCellName(i+1, headerRow+1)
		if err != nil {
			continue
		}
		styleID, err := w.file.GetCellStyle(sheet, ref)
		if err != nil || styleID == 0 {
			continue
		}
		style, err := w.file.GetStyle(styleID)
		if err != nil || !isDateFormat(style) {
			continue
		}

		if t, err := excelize.ExcelDateToTime(serial, w.date1904); err == nil {
			dates[i] = t
		}
	}
	return dates
}

// isDateFormat reports whether a cell style displays its number as a date.
func isDateFormat(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDatePattern(*style.CustomNumFmt)
	}

	switch id := style.NumFmt; {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

func isDatePattern(format string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			quoted = !quoted
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case !quoted && !bracket:
			b.WriteRune(r)
		}
	}
	f := b.String()
	return strings.Contains(f, "yy") || strings.Contains(f, "d") || strings.Contains(f, "mmm")
}
