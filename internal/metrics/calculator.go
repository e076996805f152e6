package metrics

import (
	"math"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
)

// DaysPerMonth converts a monthly demand into a daily rate.
const DaysPerMonth = 30

// Coverage thresholds in days.
const (
	CriticalDays = 45
	LowDays      = 90
)

// CoverageDays returns how many days the inventory covers at the given
// monthly demand. A missing or zero demand yields 0.
func CoverageDays(inventory float64, monthlyDemand *float64) float64 {
	if monthlyDemand == nil || *monthlyDemand == 0 || math.IsNaN(*monthlyDemand) {
		return 0
	}
	if math.IsNaN(inventory) {
		return 0
	}

	return inventory / *monthlyDemand * DaysPerMonth
}

// WAPE is the scalar form: |actual - forecast| / actual * 100, 0 when actual is 0.
func WAPE(forecast, actual float64) float64 {
	if actual == 0 {
		return 0
	}

	return math.Abs(actual-forecast) / actual * 100
}

// WAPESeries is the paired form over aligned forecast and actual values:
// sum(|a-f|) / sum(|a|) * 100, 0 when the denominator is 0. Extra values in
// the longer slice are ignored.
func WAPESeries(forecast, actual []float64) float64 {
	n := len(forecast)
	if len(actual) < n {
		n = len(actual)
	}

	var errSum, actualSum float64
	for i := 0; i < n; i++ {
		errSum += math.Abs(actual[i] - forecast[i])
		actualSum += math.Abs(actual[i])
	}
	if actualSum == 0 {
		return 0
	}

	return errSum / actualSum * 100
}

// StateOf buckets a coverage value. Thresholds are lower-inclusive: exactly
// 45 days is "Cob < 90".
func StateOf(days *float64) domain.CoverageState {
	if days == nil || math.IsNaN(*days) {
		return domain.StateNoData
	}

	switch d := *days; {
	case d < CriticalDays:
		return domain.StateCritical
	case d < LowDays:
		return domain.StateLow
	default:
		return domain.StateHealthy
	}
}
