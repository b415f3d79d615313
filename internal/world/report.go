package world

import "time"

// Warning is a non-fatal problem found during generation: a configuration
// gap resolved by a fallback, or an exhausted search budget.
type Warning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// SettlementTally compares requested and placed settlements of one class.
type SettlementTally struct {
	Type      SettlementType `json:"type"`
	Requested int            `json:"requested"`
	Placed    int            `json:"placed"`
}

// RiverPath is one generated river, source first. Mouth is the water tile
// the last path tile drains into.
type RiverPath struct {
	Tiles []OffsetCoord `json:"tiles"`
	Mouth OffsetCoord   `json:"mouth"`
}

// StageTiming records how long a stage ran.
type StageTiming struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsed"`
}

// Report is the typed result of a generation run. Shortfalls are reported
// here rather than returned as errors.
type Report struct {
	Seed     int64     `json:"seed"`
	Warnings []Warning `json:"warnings"`

	LandBudgetCapHit    bool    `json:"land_budget_cap_hit"`
	LandBudgetRemaining float64 `json:"land_budget_remaining"`
	MoistureCapHit      bool    `json:"moisture_cap_hit"`

	Settlements          []SettlementTally `json:"settlements"`
	ExtremeSettlements   int               `json:"extreme_settlements"`
	BackgroundPopulation int               `json:"background_population"`

	VegetationTiles int `json:"vegetation_tiles"`

	RiversRequested int         `json:"rivers_requested"`
	RiversCreated   int         `json:"rivers_created"`
	RiverAttempts   int         `json:"river_attempts"`
	Rivers          []RiverPath `json:"rivers"`

	StartingLocation *OffsetCoord `json:"starting_location,omitempty"`

	Stages []StageTiming `json:"stages"`
}

func newReport(seed int64) *Report {
	return &Report{Seed: seed}
}

// SettlementsPlaced returns the total number of placed settlements.
func (r *Report) SettlementsPlaced() int {
	n := 0
	for _, t := range r.Settlements {
		n += t.Placed
	}
	return n
}

// Shortfall reports whether fewer settlements or rivers were produced than
// requested.
func (r *Report) Shortfall() bool {
	if r.RiversCreated < r.RiversRequested {
		return true
	}
	for _, t := range r.Settlements {
		if t.Placed < t.Requested {
			return true
		}
	}
	return false
}
