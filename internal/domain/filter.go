package domain

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Filter narrows the canonical table. Empty fields match everything; all
// predicates are set membership or equality.
type Filter struct {
	Periods   []time.Time   `json:"periods,omitempty"`
	Origins   []string      `json:"origins,omitempty"`
	Materials []string      `json:"materials,omitempty"`
	State     CoverageState `json:"state,omitempty"`

	// FromPeriod keeps only periods at or after the given month.
	FromPeriod *time.Time `json:"from_period,omitempty"`
}

// IsZero reports whether the filter matches every record.
func (f Filter) IsZero() bool {
	return len(f.Periods) == 0 && len(f.Origins) == 0 && len(f.Materials) == 0 &&
		f.State == "" && f.FromPeriod == nil
}

// Match reports whether a single record passes the filter.
func (f Filter) Match(r Record) bool {
	if len(f.Periods) > 0 {
		if !r.HasPeriod() {
			return false
		}
		if !lo.ContainsBy(f.Periods, func(p time.Time) bool { return SameMonth(p, r.Period) }) {
			return false
		}
	}
	if f.FromPeriod != nil {
		if !r.HasPeriod() || MonthStart(r.Period).Before(MonthStart(*f.FromPeriod)) {
			return false
		}
	}
	if len(f.Origins) > 0 && !lo.Contains(f.Origins, r.Origin) {
		return false
	}
	if len(f.Materials) > 0 && !lo.Contains(f.Materials, r.Material) {
		return false
	}
	if f.State != "" && r.State != f.State {
		return false
	}
	return true
}

// Apply returns the records that pass the filter. The input is not modified.
func (f Filter) Apply(records []Record) []Record {
	if f.IsZero() {
		return records
	}
	return lo.Filter(records, func(r Record, _ int) bool { return f.Match(r) })
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonth reads a YYYY-MM (or YYYY-MM-DD) value as the start of its month.
func ParseMonth(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return MonthStart(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid period %q, expected YYYY-MM", value)
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// FilterOptions lists the values a presentation layer can offer for each filter.
type FilterOptions struct {
	Periods        []time.Time     `json:"periods"`
	Origins        []string        `json:"origins"`
	Materials      []string        `json:"materials"`
	States         []CoverageState `json:"states"`
	DefaultPeriods []time.Time     `json:"default_periods"`
}
