package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2026-03")
	require.NoError(t, err)
	assert.Equal(t, month(2026, time.March), got)

	got, err = ParseMonth("2026-03-19")
	require.NoError(t, err)
	assert.Equal(t, month(2026, time.March), got)

	_, err = ParseMonth("marzo")
	assert.Error(t, err)
}

func TestFilterMatch(t *testing.T) {
	rec := Record{Material: "A1", Origin: "Norte", Period: time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), State: StateLow}
	feb := month(2026, time.February)
	mar := month(2026, time.March)

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero", Filter{}, true},
		{"same month", Filter{Periods: []time.Time{feb}}, true},
		{"other month", Filter{Periods: []time.Time{mar}}, false},
		{"from before", Filter{FromPeriod: &feb}, true},
		{"from after", Filter{FromPeriod: &mar}, false},
		{"origin", Filter{Origins: []string{"Sur"}}, false},
		{"material case-sensitive", Filter{Materials: []string{"a1"}}, false},
		{"state", Filter{State: StateLow}, true},
		{"other state", Filter{State: StateCritical}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(rec))
		})
	}

	assert.False(t, Filter{Periods: []time.Time{feb}}.Match(Record{Material: "B"}))
}

func TestFilterApplyKeepsInput(t *testing.T) {
	records := []Record{{Material: "A"}, {Material: "B"}}

	assert.Len(t, Filter{}.Apply(records), 2)
	out := Filter{Materials: []string{"B"}}.Apply(records)
	require.Len(t, out, 1)
	assert.Equal(t, "B", out[0].Material)
	assert.Equal(t, "A", records[0].Material)
}

func TestParseCoverageState(t *testing.T) {
	s, ok := ParseCoverageState(" Cob < 45 ")
	assert.True(t, ok)
	assert.Equal(t, StateCritical, s)

	_, ok = ParseCoverageState("purple")
	assert.False(t, ok)

	assert.Less(t, StateCritical.Rank(), StateNoData.Rank())
	assert.Equal(t, len(CoverageStates), CoverageState("x").Rank())
}
