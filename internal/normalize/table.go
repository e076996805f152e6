package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Column is a header cell. Header cells formatted as dates in the workbook
// keep their parsed value in Date.
type Column struct {
	Label  string
	Date   time.Time
	IsDate bool
}

// Table is the untyped grid between the workbook and the typed projection.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []Column
	Rows    [][]string
	// Date1904 marks tables read from a workbook using the 1904 date
	// system; numeric date cells are decoded accordingly.
	Date1904 bool
}

// NewTable builds a table from columns and rows, padding or truncating rows
// to the column count.
func NewTable(columns []Column, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		t.Rows = append(t.Rows, fit(row, len(columns)))
	}
	return t
}

// TableFromGrid uses grid[headerRow] as the header and the rows below it as
// data. Blank header cells become "Unnamed: N" and repeated labels get a
// ".N" suffix. dates maps a column index to the date of a date-formatted
// header cell. Fully blank data rows are skipped.
func TableFromGrid(grid [][]string, headerRow int, dates map[int]time.Time) *Table {
	if headerRow < 0 || headerRow >= len(grid) {
		return &Table{}
	}

	width := 0
	for _, row := range grid[headerRow:] {
		if len(row) > width {
			width = len(row)
		}
	}

	header := fit(grid[headerRow], width)
	columns := make([]Column, width)
	seen := make(map[string]int, width)
	for i, cell := range header {
		if d, ok := dates[i]; ok {
			columns[i] = Column{Label: d.Format("2006-01-02"), Date: d, IsDate: true}
			continue
		}

		label := strings.TrimSpace(cell)
		if label == "" {
			label = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[label]; dup {
			base := label
			for {
				n++
				label = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[label]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[label] = 0
		columns[i] = Column{Label: label}
	}

	rows := make([][]string, 0, len(grid)-headerRow-1)
	for _, row := range grid[headerRow+1:] {
		if blank(row) {
			continue
		}
		rows = append(rows, row)
	}

	return NewTable(columns, rows)
}

// Labels returns the column labels in order.
func (t *Table) Labels() []string {
	labels := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
	}
	return labels
}

// Index returns the position of the first column labelled exactly label, or -1.
func (t *Table) Index(label string) int {
	for i, c := range t.Columns {
		if c.Label == label {
			return i
		}
	}
	return -1
}

// Has reports whether a column labelled exactly label exists.
func (t *Table) Has(label string) bool {
	return t.Index(label) >= 0
}

// Empty reports whether the table has no columns or no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Value returns the cell at row r under the column labelled label.
func (t *Table) Value(r int, label string) string {
	i := t.Index(label)
	if i < 0 {
		return ""
	}
	return t.Rows[r][i]
}

// WithColumn returns a copy of t with a new column whose value is produced
// per row by fn.
func (t *Table) WithColumn(label string, fn func(row []string) string) *Table {
	columns := append(append([]Column(nil), t.Columns...), Column{Label: label})
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = append(append(make([]string, 0, len(row)+1), row...), fn(row))
	}
	return &Table{Columns: columns, Rows: rows, Date1904: t.Date1904}
}

func fit(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
