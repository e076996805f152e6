package domain

import "strings"

// CoverageState buckets a record by its days of coverage.
type CoverageState string

const (
	StateCritical CoverageState = "Cob < 45"
	StateLow      CoverageState = "Cob < 90"
	StateHealthy  CoverageState = "Cob > 90"
	StateNoData   CoverageState = "Sin Dato"
)

// CoverageStates lists every state in display order.
var CoverageStates = []CoverageState{StateCritical, StateLow, StateHealthy, StateNoData}

var coverageStateCodes = map[string]CoverageState{
	"cob < 45":  StateCritical,
	"cob<45":    StateCritical,
	"critical":  StateCritical,
	"cob < 90":  StateLow,
	"cob<90":    StateLow,
	"low":       StateLow,
	"cob > 90":  StateHealthy,
	"cob>90":    StateHealthy,
	"healthy":   StateHealthy,
	"sin dato":  StateNoData,
	"no_data":   StateNoData,
	"no data":   StateNoData,
	"sin_dato":  StateNoData,
	"undefined": StateNoData,
}

// ParseCoverageState returns the state for a label (case-insensitive).
func ParseCoverageState(label string) (CoverageState, bool) {
	state, ok := coverageStateCodes[strings.ToLower(strings.TrimSpace(label))]

	return state, ok
}

// Rank orders states for sorting; unknown states sort last.
func (s CoverageState) Rank() int {
	for i, state := range CoverageStates {
		if state == s {
			return i
		}
	}

	return len(CoverageStates)
}
