package world

// VegetationConfig configures VegetationStage.
type VegetationConfig struct {
	Elevation Window  `json:"elevation"`
	Moisture  Window  `json:"moisture"`
	MaxTiles  int     `json:"max_tiles"`
	Chance    float64 `json:"chance"`
}

// VegetationStage marks a random subset of open, dry-footed tiles as
// vegetated.
type VegetationStage struct {
	Config VegetationConfig
}

func (s *VegetationStage) Name() string { return "vegetation" }

func (s *VegetationStage) Apply(g *Grid, run *Run) error {
	cfg := s.Config

	var eligible []*Tile
	for _, t := range g.Tiles() {
		if t.IsOccupied || !t.Habitable() || t.HasRiver {
			continue
		}
		if !cfg.Elevation.Contains(t.Elevation) || !cfg.Moisture.Contains(t.Moisture) {
			continue
		}
		eligible = append(eligible, t)
	}

	run.Rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	count := 0
	for _, t := range eligible {
		if count >= cfg.MaxTiles {
			break
		}
		if run.Rand.Float64() >= cfg.Chance {
			continue
		}
		t.HasVegetation = true
		t.IsOccupied = true
		count++
	}

	run.Report.VegetationTiles = count
	run.Logger.Info("vegetation placed", "eligible", len(eligible), "placed", count)
	return nil
}
