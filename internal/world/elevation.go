package world

import (
	"fmt"
	"strings"
)

// ElevationMode selects how raw elevation is produced.
type ElevationMode uint8

const (
	ElevationNoise ElevationMode = iota
	ElevationLandBudget
)

var elevationModeNames = [...]string{"noise", "land_budget"}

func (m ElevationMode) String() string {
	if int(m) < len(elevationModeNames) {
		return elevationModeNames[m]
	}
	return "unknown"
}

func (m ElevationMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ElevationMode) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, n := range elevationModeNames {
		if n == name {
			*m = ElevationMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown elevation mode %q", b)
}

// SmoothingConfig blends each tile toward the mean of its neighbors.
type SmoothingConfig struct {
	Enabled    bool    `json:"enabled"`
	Iterations int     `json:"iterations"`
	Factor     float64 `json:"factor"`
}

// LandBudgetConfig drives the raise/lower continent builder.
type LandBudgetConfig struct {
	Budget         float64 `json:"budget"`
	AddCycles      int     `json:"add_cycles"`
	SubtractCycles int     `json:"subtract_cycles"`
	AddRadius      int     `json:"add_radius"`
	SubtractRadius int     `json:"subtract_radius"`

	AddMinChange      float64 `json:"add_min_change"`
	AddMaxChange      float64 `json:"add_max_change"`
	SubtractMinChange float64 `json:"subtract_min_change"`
	SubtractMaxChange float64 `json:"subtract_max_change"`

	// MaxIterations caps the outer raise/lower loop.
	MaxIterations int `json:"max_iterations"`

	// SmoothDuringSteps runs after every individual raise and lower step.
	SmoothDuringSteps SmoothingConfig `json:"smooth_during_steps"`
}

// ElevationBand maps an inclusive elevation range to a category and biome.
type ElevationBand struct {
	Category ElevationCategory `json:"category"`
	Min      float64           `json:"min"`
	Max      float64           `json:"max"`
	Biome    string            `json:"biome"`
}

// Contains reports whether e falls inside the band.
func (b ElevationBand) Contains(e float64) bool {
	return e >= b.Min && e <= b.Max
}

// ElevationConfig configures ElevationStage.
type ElevationConfig struct {
	Mode       ElevationMode    `json:"mode"`
	Noise      NoiseParams      `json:"noise"`
	LandBudget LandBudgetConfig `json:"land_budget"`

	// Smoothing is the final pass, applied in both modes.
	Smoothing SmoothingConfig `json:"smoothing"`

	Bands []ElevationBand `json:"bands"`

	// Tiles outside every band become Land with this biome.
	FallbackBiome string `json:"fallback_biome"`
}

// ElevationStage assigns elevation and the Water/Land/Mountain category.
type ElevationStage struct {
	Config ElevationConfig
}

func (s *ElevationStage) Name() string { return "elevation" }

func (s *ElevationStage) Apply(g *Grid, run *Run) error {
	switch s.Config.Mode {
	case ElevationLandBudget:
		s.landBudget(g, run)
	default:
		offsets := run.Noise.Offsets(run.Rand, s.Config.Noise)
		for _, t := range g.Tiles() {
			t.Elevation = run.Noise.SampleTile(t, s.Config.Noise, offsets)
		}
	}

	if s.Config.Smoothing.Enabled {
		smoothElevation(g, s.Config.Smoothing.Iterations, s.Config.Smoothing.Factor)
	}

	s.classify(g, run)
	return nil
}

// budgetEpsilon absorbs float residue left after the last raise.
const budgetEpsilon = 1e-9

// landBudget grows land from a flat sea floor. Each outer iteration raises
// AddCycles random neighborhoods, spending budget, then lowers SubtractCycles
// neighborhoods, refunding it. The budget moves by the change actually
// applied after clamping.
func (s *ElevationStage) landBudget(g *Grid, run *Run) {
	cfg := s.Config.LandBudget
	tiles := g.Tiles()
	for _, t := range tiles {
		t.Elevation = 0
	}
	if len(tiles) == 0 {
		return
	}

	budget := cfg.Budget
	iterations := 0
	for budget > budgetEpsilon && iterations < cfg.MaxIterations {
		iterations++

		for i := 0; i < cfg.AddCycles && budget > budgetEpsilon; i++ {
			center := tiles[run.Rand.Intn(len(tiles))]
			for _, t := range g.TilesInRange(center, cfg.AddRadius) {
				if budget <= budgetEpsilon {
					break
				}
				if t.Elevation >= 1 {
					continue
				}
				change := min(randRange(run.Rand, cfg.AddMinChange, cfg.AddMaxChange), budget)
				next := clamp01(t.Elevation + change)
				budget -= next - t.Elevation
				t.Elevation = next
			}
			s.smoothStep(g)
		}

		for i := 0; i < cfg.SubtractCycles; i++ {
			center := tiles[run.Rand.Intn(len(tiles))]
			for _, t := range g.TilesInRange(center, cfg.SubtractRadius) {
				if t.Elevation <= 0 {
					continue
				}
				change := randRange(run.Rand, cfg.SubtractMinChange, cfg.SubtractMaxChange)
				next := clamp01(t.Elevation - change)
				budget += t.Elevation - next
				t.Elevation = next
			}
			s.smoothStep(g)
		}
	}

	run.Report.LandBudgetRemaining = budget
	if budget > budgetEpsilon {
		run.Report.LandBudgetCapHit = true
		run.warn(s.Name(), fmt.Sprintf("land budget iteration cap %d reached with %.3f budget left", cfg.MaxIterations, budget))
	}
	run.Logger.Info("land budget spent", "iterations", iterations, "remaining", budget)
}

func (s *ElevationStage) smoothStep(g *Grid) {
	sm := s.Config.LandBudget.SmoothDuringSteps
	if sm.Enabled {
		smoothElevation(g, sm.Iterations, sm.Factor)
	}
}

// smoothElevation blends every tile toward its neighbors' mean. Each round
// reads a snapshot of the previous round, so tile order does not matter.
func smoothElevation(g *Grid, iterations int, factor float64) {
	tiles := g.Tiles()
	next := make([]float64, len(tiles))
	for range iterations {
		for i, t := range tiles {
			ns := t.Neighbors()
			if len(ns) == 0 {
				next[i] = t.Elevation
				continue
			}
			sum := 0.0
			for _, n := range ns {
				sum += n.Elevation
			}
			next[i] = lerp(t.Elevation, sum/float64(len(ns)), factor)
		}
		for i, t := range tiles {
			t.Elevation = clamp01(next[i])
		}
	}
}

// classify assigns the first matching band. Unmatched tiles fall back to
// Land with FallbackBiome and are reported.
func (s *ElevationStage) classify(g *Grid, run *Run) {
	for _, gap := range bandCoverageGaps(s.Config.Bands) {
		run.warn(s.Name(), fmt.Sprintf("elevation bands leave [%.3f, %.3f] uncovered", gap.Min, gap.Max))
	}

	resolved := make([]*Biome, len(s.Config.Bands))
	for i, b := range s.Config.Bands {
		resolved[i] = run.biome(s.Name(), b.Biome)
	}

	var fallback *Biome
	unmatched := 0
	for _, t := range g.Tiles() {
		matched := false
		for i, b := range s.Config.Bands {
			if b.Contains(t.Elevation) {
				t.Category = b.Category
				t.Biome = resolved[i]
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if fallback == nil {
			fallback = run.biome(s.Name(), s.Config.FallbackBiome)
		}
		t.Category = CategoryLand
		t.Biome = fallback
		unmatched++
	}

	if unmatched > 0 {
		run.warn(s.Name(), fmt.Sprintf("%d tiles matched no elevation band, classified as land", unmatched))
	}

	counts := g.CategoryCounts()
	run.Logger.Info("elevation classified",
		"water", counts[CategoryWater],
		"land", counts[CategoryLand],
		"mountain", counts[CategoryMountain],
	)
}
