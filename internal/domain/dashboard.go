package domain

import (
	"time"

	"github.com/google/uuid"
)

// StateShare is the count of records in one coverage state for one period.
type StateShare struct {
	Period  time.Time     `json:"period"`
	State   CoverageState `json:"state"`
	Count   int           `json:"count"`
	Percent float64       `json:"percent"` // share of the period, one decimal
}

// StateStat summarizes one coverage state across the whole selection.
type StateStat struct {
	State     CoverageState `json:"state"`
	Count     int           `json:"count"`
	Inventory float64       `json:"inventory"`
	Forecast  float64       `json:"forecast"`
	Percent   float64       `json:"percent"`
}

// PeriodRollup holds per-period totals. MeanCoverage is nil when no record
// in the period has a coverage value.
type PeriodRollup struct {
	Period       time.Time `json:"period"`
	Inventory    float64   `json:"inventory"`
	Forecast     float64   `json:"forecast"`
	Dispatch     float64   `json:"dispatch"`
	MeanCoverage *float64  `json:"mean_coverage"`
}

// RankedEntity is one row of a top-N / bottom-N list.
type RankedEntity struct {
	Material    string  `json:"material"`
	Value       float64 `json:"value"`
	Origin      string  `json:"origin,omitempty"`
	Description string  `json:"description,omitempty"`
}

// OriginWAPE is forecast accuracy aggregated by origin.
type OriginWAPE struct {
	Origin   string  `json:"origin"`
	Forecast float64 `json:"forecast"`
	Dispatch float64 `json:"dispatch"`
	AbsDiff  float64 `json:"abs_diff"`
	WAPE     float64 `json:"wape"`
}

// EntityWAPE is forecast accuracy aggregated by material (and origin when known).
type EntityWAPE struct {
	Material string  `json:"material"`
	Origin   string  `json:"origin,omitempty"`
	Forecast float64 `json:"forecast"`
	Dispatch float64 `json:"dispatch"`
	AbsDiff  float64 `json:"abs_diff"`
	WAPE     float64 `json:"wape"`
}

// WAPEPoint is one period of the WAPE evolution. UnderForecast is the
// "+Wape" magnitude (forecast below dispatch); OverForecast is the "-Wape"
// value, negative when forecast exceeds dispatch.
type WAPEPoint struct {
	Period        time.Time `json:"period"`
	Forecast      float64   `json:"forecast"`
	Dispatch      float64   `json:"dispatch"`
	AbsDiff       float64   `json:"abs_diff"`
	WAPE          float64   `json:"wape"`
	UnderForecast float64   `json:"plus_wape"`
	OverForecast  float64   `json:"minus_wape"`
}

// OriginCount is the number of distinct materials sourced from an origin.
type OriginCount struct {
	Origin    string `json:"origin"`
	Materials int    `json:"materials"`
}

// PlanningRow aggregates one material in one period.
type PlanningRow struct {
	Material   string    `json:"material"`
	Period     time.Time `json:"period"`
	Forecast   float64   `json:"forecast"`
	Production float64   `json:"production"`
	Inventory  float64   `json:"inventory"`
	Quantity   float64   `json:"quantity"`
	Coverage   float64   `json:"coverage"`
}

// MaterialQuantity is the total Q per material.
type MaterialQuantity struct {
	Material string  `json:"material"`
	Quantity float64 `json:"quantity"`
}

// Bias labels for forecast direction.
const (
	BiasOverForecast  = "over-forecast"
	BiasUnderForecast = "under-forecast"
	BiasBalanced      = "balanced"
)

// Summary carries the headline KPIs of a selection.
type Summary struct {
	Records         int     `json:"records"`
	SKUs            int     `json:"skus"`
	Inventory       float64 `json:"inventory"`
	Forecast        float64 `json:"forecast"`
	Dispatch        float64 `json:"dispatch"`
	Critical        int     `json:"critical"`
	CriticalPercent float64 `json:"critical_percent"`
	WAPE            float64 `json:"wape"`
	WAPEGood        bool    `json:"wape_good"`
	AbsDiff         float64 `json:"abs_diff"`
	Bias            string  `json:"bias"`
}

// Dashboard bundles every view computed for one filtered selection.
type Dashboard struct {
	DatasetID          uuid.UUID          `json:"dataset_id"`
	Filter             Filter             `json:"filter"`
	Summary            Summary            `json:"summary"`
	StateDistribution  []StateShare       `json:"state_distribution"`
	StateStats         []StateStat        `json:"state_stats"`
	PeriodRollups      []PeriodRollup     `json:"period_rollups"`
	TopInventory       []RankedEntity     `json:"top_inventory"`
	BottomInventory    []RankedEntity     `json:"bottom_inventory"`
	OriginWAPE         []OriginWAPE       `json:"origin_wape"`
	TopEntityWAPE      []EntityWAPE       `json:"top_entity_wape"`
	BottomEntityWAPE   []EntityWAPE       `json:"bottom_entity_wape"`
	WAPEEvolution      []WAPEPoint        `json:"wape_evolution"`
	OriginDistribution []OriginCount      `json:"origin_distribution"`
	Planning           []PlanningRow      `json:"planning"`
	MaterialSummary    []MaterialQuantity `json:"material_summary"`
	Notices            []Notice           `json:"notices"`
}
