// Settlement placement: seeds housed settlements on suitable land, largest
// classes first, then scatters background population.
package world

import (
	"fmt"
	"math/rand"
	"sort"
)

// SettlementClass is one kind of settlement and how many to place.
type SettlementClass struct {
	Type          SettlementType `json:"type"`
	Count         int            `json:"count"`
	Radius        int            `json:"radius"` // exclusion radius in hex steps
	MinPopulation int            `json:"min_population"`
	MaxPopulation int            `json:"max_population"`
}

// SettlementConfig configures SettlementStage.
type SettlementConfig struct {
	Classes []SettlementClass `json:"classes"`

	// Suitability windows. A tile outside any of them can still be picked as
	// an extreme settlement with probability ExtremeChance.
	Elevation     Window  `json:"elevation"`
	Moisture      Window  `json:"moisture"`
	Temperature   Window  `json:"temperature"`
	ExtremeChance float64 `json:"extreme_chance"`

	// PlacementRetries bounds the attempts for each settlement instance.
	PlacementRetries int `json:"placement_retries"`

	BackgroundMin int `json:"background_min"`
	BackgroundMax int `json:"background_max"`
}

// SettlementStage places settlements and background population.
type SettlementStage struct {
	Config SettlementConfig
}

func (s *SettlementStage) Name() string { return "settlement" }

type candidate struct {
	tile    *Tile
	extreme bool
}

func (s *SettlementStage) Apply(g *Grid, run *Run) error {
	cfg := s.Config

	classes := make([]SettlementClass, len(cfg.Classes))
	copy(classes, cfg.Classes)
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].Type > classes[j].Type })

	var placed []*Tile
	for _, class := range classes {
		tally := SettlementTally{Type: class.Type, Requested: class.Count}

		for n := 0; n < class.Count; n++ {
			t, extreme, ok := s.pick(g, run.Rand, class, placed)
			if !ok {
				run.warn(s.Name(), fmt.Sprintf("no site for %s %d/%d after %d attempts", class.Type, n+1, class.Count, s.attempts()))
				continue
			}

			t.Settlement = class.Type
			t.Population = randIntInclusive(run.Rand, class.MinPopulation, class.MaxPopulation)
			t.HasHousing = true
			t.IsOccupied = true
			t.IsExtremeSettlement = extreme
			if extreme {
				run.Report.ExtremeSettlements++
			}
			placed = append(placed, t)
			tally.Placed++
		}

		run.Report.Settlements = append(run.Report.Settlements, tally)
		run.Logger.Info("settlements placed", "type", class.Type.String(), "requested", tally.Requested, "placed", tally.Placed)
	}

	names := generateNames(run.Rand, len(placed))
	for i, t := range placed {
		t.SettlementName = names[i]
	}

	for _, t := range g.Tiles() {
		if !t.Habitable() || t.HasHousing {
			continue
		}
		t.Population = randIntInclusive(run.Rand, cfg.BackgroundMin, cfg.BackgroundMax)
		run.Report.BackgroundPopulation += t.Population
	}

	return nil
}

func (s *SettlementStage) attempts() int {
	return max(s.Config.PlacementRetries, 1)
}

// pick draws a site for one settlement. Each attempt rebuilds the eligible
// list in row-major order; unsuitable tiles enter it only on an extreme roll.
func (s *SettlementStage) pick(g *Grid, rng *rand.Rand, class SettlementClass, placed []*Tile) (*Tile, bool, bool) {
	for range s.attempts() {
		var eligible []candidate
		for _, t := range g.Tiles() {
			if t.Category != CategoryLand || t.HasHousing {
				continue
			}
			if tooClose(t, placed, class.Radius) {
				continue
			}
			if s.suitable(t) {
				eligible = append(eligible, candidate{tile: t})
				continue
			}
			if s.Config.ExtremeChance > 0 && rng.Float64() < s.Config.ExtremeChance {
				eligible = append(eligible, candidate{tile: t, extreme: true})
			}
		}
		if len(eligible) == 0 {
			continue
		}
		c := eligible[rng.Intn(len(eligible))]
		return c.tile, c.extreme, true
	}
	return nil, false, false
}

func (s *SettlementStage) suitable(t *Tile) bool {
	return s.Config.Elevation.Contains(t.Elevation) &&
		s.Config.Moisture.Contains(t.Moisture) &&
		s.Config.Temperature.Contains(t.Temperature)
}

// tooClose reports whether t is within radius steps of any placed settlement.
func tooClose(t *Tile, placed []*Tile, radius int) bool {
	for _, p := range placed {
		if HexDistance(t, p) <= radius {
			return true
		}
	}
	return false
}

// generateNames produces procedural settlement names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if used[name] && len(used) < len(prefixes)*len(suffixes) {
			continue
		}
		used[name] = true
		names = append(names, name)
	}

	return names
}
