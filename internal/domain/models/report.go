package models

import "time"

// CacheStatusOK is the stock-cache success sentinel; any other status
// triggers the per-region detail lookup.
const CacheStatusOK = "SUCCESS"

// CacheStatusUnavailable marks a cache status that could not be fetched.
const CacheStatusUnavailable = "unavailable"

// CacheDetail is one region's stock-cache breakdown.
type CacheDetail struct {
	DBCount    int     `json:"db"`
	CacheCount int     `json:"cache"`
	Percent    float64 `json:"percent"`
}

// CacheStatus is the stock-cache health of a marketplace. Detail is only
// populated when Status is not the success sentinel.
type CacheStatus struct {
	Status string                 `json:"status"`
	Detail map[string]CacheDetail `json:"detail,omitempty"`
}

// Activity is the tightest recency bound found for one signal: Count
// events inside the last WindowMinutes.
type Activity struct {
	Count         int    `json:"count"`
	WindowMinutes int    `json:"window_minutes"`
	Note          string `json:"note,omitempty"`
}

// HistoryPoint is an order count for one past date.
type HistoryPoint struct {
	Date   time.Time `json:"date"`
	Orders int       `json:"orders"`
}

// RegionDynamics is a region whose order flow is shrinking.
type RegionDynamics struct {
	Region    string  `json:"region"`
	Orders    int     `json:"orders"`
	ChangePct float64 `json:"change_pct"`
}

// StoreDiscrepancy compares store counts between the accounting system
// and the live platform for one region.
type StoreDiscrepancy struct {
	DB             int     `json:"db"`
	Live           int     `json:"live"`
	ConvergencePct float64 `json:"convergence_pct"`
}

// Report is the consolidated result of one run. Every field degrades
// independently: a failed sub-probe leaves its field zero-valued and adds
// an entry to Degraded instead of invalidating the report.
type Report struct {
	Marketplace string    `json:"marketplace"`
	Env         Env       `json:"env"`
	GeneratedAt time.Time `json:"generated_at"`

	Stores map[string]int `json:"stores,omitempty"` // region code -> active store count
	Cache  CacheStatus    `json:"cache"`

	Orders Activity `json:"orders"`
	Stocks Activity `json:"stocks"`
	Prices Activity `json:"prices"`

	History        []HistoryPoint              `json:"history,omitempty"`
	ProblemRegions []RegionDynamics            `json:"problem_regions,omitempty"`
	Schedules      map[string]int              `json:"schedules,omitempty"` // region city -> schedule count
	Discrepancy    map[string]StoreDiscrepancy `json:"discrepancy,omitempty"`

	// Degraded maps a report field to the reason it could not be filled.
	Degraded map[string]string `json:"degraded,omitempty"`
}
