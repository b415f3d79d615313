package world

import "fmt"

// DecorationConfig configures DecorationStage.
type DecorationConfig struct {
	// LowMountainPercent is the share of the Mountain band, from its lower
	// bound, that counts as low mountain.
	LowMountainPercent float64 `json:"low_mountain_percent"`
}

// DecorationStage types mountain tiles as low or high. Mountains occupy
// their tile, so any vegetation there is cleared.
type DecorationStage struct {
	Config DecorationConfig
	Bands  []ElevationBand
}

func (s *DecorationStage) Name() string { return "decoration" }

func (s *DecorationStage) Apply(g *Grid, run *Run) error {
	var band *ElevationBand
	for i := range s.Bands {
		if s.Bands[i].Category == CategoryMountain {
			band = &s.Bands[i]
			break
		}
	}
	if band == nil {
		run.warn(s.Name(), "no mountain elevation band, skipping mountain decoration")
		return nil
	}

	split := band.Min + (band.Max-band.Min)*clamp(s.Config.LowMountainPercent, 0, 100)/100

	low, high := 0, 0
	for _, t := range g.Tiles() {
		if t.Category != CategoryMountain {
			continue
		}
		if t.Elevation <= split {
			t.Mountain = MountainLow
			low++
		} else {
			t.Mountain = MountainHigh
			high++
		}
		t.IsOccupied = true
		t.HasVegetation = false
	}

	run.Logger.Info("mountains decorated", "low", low, "high", high)
	return nil
}

// StartingLocationStage flags one random tile whose biome allows a start.
type StartingLocationStage struct{}

func (s *StartingLocationStage) Name() string { return "starting_location" }

func (s *StartingLocationStage) Apply(g *Grid, run *Run) error {
	var candidates []*Tile
	for _, t := range g.Tiles() {
		t.IsStartingLocation = false
		if t.Biome != nil && t.Biome.EligibleForStart {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		run.warn(s.Name(), fmt.Sprintf("no tile among %d has a start-eligible biome", g.Len()))
		return nil
	}

	start := candidates[run.Rand.Intn(len(candidates))]
	start.IsStartingLocation = true
	coord := start.Offset
	run.Report.StartingLocation = &coord

	run.Logger.Info("starting location chosen", "col", coord.Col, "row", coord.Row, "biome", start.BiomeName())
	return nil
}
