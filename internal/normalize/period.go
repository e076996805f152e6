package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/xuri/excelize/v2"
)

var monthYearLayouts = []string{"January 2006", "2006 January", "Jan 2006"}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/2006",
	"1/2006",
}

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// ParsePeriod parses a period label into the first day of its month (UTC).
// Spanish month names are translated without relying on the system locale,
// and anything after the first "." is discarded for such labels so that
// duplicate-header suffixes like "Enero 2026.1" still parse. Labels without
// a Spanish month may be English month names, ISO or slash dates, YYYYMM
// codes or Excel date serials in the 1900 date system.
func ParsePeriod(label string) (time.Time, bool) {
	return parsePeriod(label, false)
}

// ParsePeriod parses a cell of t; Excel serials follow the table's date system.
func (t *Table) ParsePeriod(cell string) (time.Time, bool) {
	return parsePeriod(cell, t != nil && t.Date1904)
}

func parsePeriod(label string, date1904 bool) (time.Time, bool) {
	raw := strings.TrimSpace(label)
	s := strings.ToLower(raw)
	if s == "" {
		return time.Time{}, false
	}

	for i, es := range spanishMonths {
		if !strings.Contains(s, es) {
			continue
		}
		if dot := strings.Index(s, "."); dot >= 0 {
			s = s[:dot]
		}
		return parseMonthYear(strings.Replace(s, es, englishMonths[i], 1))
	}

	if t, ok := parseMonthYear(s); ok {
		return t, true
	}
	return parseDateLike(raw, date1904)
}

func parseMonthYear(s string) (time.Time, bool) {
	s = strings.NewReplacer("-", " ", "/", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range monthYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.MonthStart(t), true
		}
	}
	return time.Time{}, false
}

func parseDateLike(s string, date1904 bool) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.MonthStart(t), true
		}
	}

	if len(s) == 6 && !strings.ContainsAny(s, ".-+e") {
		if code, err := strconv.Atoi(s); err == nil {
			year, month := code/100, code%100
			if year >= 1900 && year < 3000 && month >= 1 && month <= 12 {
				return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
			}
		}
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return time.Time{}, false
	}
	return domain.MonthStart(t), true
}
