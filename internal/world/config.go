package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// RandomSeed asks the generator to pick a seed once per process.
const RandomSeed int64 = -1

// ErrInvalidConfig is returned for configurations that cannot produce a grid.
var ErrInvalidConfig = errors.New("invalid generation config")

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Orientation Orientation `json:"orientation"`
	Seed        int64       `json:"seed"` // RandomSeed = pick one per session

	Noise       NoiseConfig       `json:"noise"`
	Catalog     []Biome           `json:"catalog"`
	Elevation   ElevationConfig   `json:"elevation"`
	Moisture    MoistureConfig    `json:"moisture"`
	Temperature TemperatureConfig `json:"temperature"`
	Biomes      BiomeConfig       `json:"biomes"`
	Settlements SettlementConfig  `json:"settlements"`
	Vegetation  VegetationConfig  `json:"vegetation"`
	Rivers      RiverConfig       `json:"rivers"`
	Decoration  DecorationConfig  `json:"decoration"`
}

// Window is an inclusive [Min, Max] suitability range.
type Window struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the window.
func (w Window) Contains(v float64) bool {
	return v >= w.Min && v <= w.Max
}

// DefaultGenConfig returns a reasonable starting configuration: a 40x30
// land-budget continent with propagated moisture and latitude temperature.
func DefaultGenConfig() GenConfig {
	tables := defaultTables()

	return GenConfig{
		Width:  40,
		Height: 30,
		Seed:   42,
		Noise: NoiseConfig{
			OffsetRangeMin: -100000,
			OffsetRangeMax: 100000,
			Min:            -1,
			Max:            1,
		},
		Catalog: tables.Biomes,
		Elevation: ElevationConfig{
			Mode:  ElevationLandBudget,
			Noise: NoiseParams{Scale: 8, Octaves: 4, Persistence: 0.5, Lacunarity: 2},
			// Raises and lowers move elevation without creating it, so the
			// mean tile ends near Budget/tiles: 0.35 here, just above the shoreline.
			LandBudget: LandBudgetConfig{
				Budget:            420,
				AddCycles:         3,
				SubtractCycles:    1,
				AddRadius:         3,
				SubtractRadius:    2,
				AddMinChange:      0.05,
				AddMaxChange:      0.15,
				SubtractMinChange: 0.02,
				SubtractMaxChange: 0.08,
				MaxIterations:     10000,
			},
			Smoothing:     SmoothingConfig{Enabled: true, Iterations: 2, Factor: 0.5},
			Bands:         tables.ElevationBands,
			FallbackBiome: tables.FallbackBiome,
		},
		Moisture: MoistureConfig{
			Mode:          MoisturePropagation,
			Noise:         NoiseParams{Scale: 10, Octaves: 3, Persistence: 0.5, Lacunarity: 2},
			Water:         PropagationParams{DecayRate: 0.7, Jitter: 0.05, MaxRange: 6},
			River:         PropagationParams{DecayRate: 0.5, Jitter: 0.05, MaxRange: 3},
			IncludeRivers: true,
			MaxIterations: 100000,
		},
		Temperature: TemperatureConfig{
			Mode:               TemperatureEquatorCentered,
			Noise:              NoiseParams{Scale: 12, Octaves: 3, Persistence: 0.5, Lacunarity: 2},
			PoleValue:          0.05,
			EquatorValue:       0.95,
			ElevationThreshold: 0.6,
			DropRate:           0.8,
			Jitter:             0.05,
		},
		Biomes: BiomeConfig{
			Bands:    tables.BiomeBands,
			Fallback: tables.FallbackBiome,
		},
		Settlements: SettlementConfig{
			Classes: []SettlementClass{
				{Type: SettlementCity, Count: 2, Radius: 6, MinPopulation: 2000, MaxPopulation: 5000},
				{Type: SettlementTown, Count: 4, Radius: 4, MinPopulation: 200, MaxPopulation: 1000},
				{Type: SettlementVillage, Count: 8, Radius: 3, MinPopulation: 20, MaxPopulation: 200},
				{Type: SettlementHamlet, Count: 12, Radius: 2, MinPopulation: 5, MaxPopulation: 20},
			},
			Elevation:        Window{Min: 0.3, Max: 0.65},
			Moisture:         Window{Min: 0.2, Max: 0.9},
			Temperature:      Window{Min: 0.25, Max: 0.9},
			ExtremeChance:    0.02,
			PlacementRetries: 20,
			BackgroundMin:    0,
			BackgroundMax:    4,
		},
		Vegetation: VegetationConfig{
			Elevation: Window{Min: 0.3, Max: 0.7},
			Moisture:  Window{Min: 0.35, Max: 1},
			MaxTiles:  200,
			Chance:    0.4,
		},
		Rivers: RiverConfig{
			Count:                4,
			MinLength:            4,
			MinSourceElevation:   0.5,
			BaseCost:             1,
			UphillCostMultiplier: 10,
			MaxRetries:           30,
			RestrictNeighbors:    true,
		},
		Decoration: DecorationConfig{LowMountainPercent: 50},
	}
}

// SmallTestConfig returns a tiny noise-driven world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 10
	cfg.Height = 10
	cfg.Seed = 42
	cfg.Elevation.Mode = ElevationNoise
	cfg.Elevation.Noise = NoiseParams{Scale: 4, Octaves: 3, Persistence: 0.5, Lacunarity: 2}
	cfg.Settlements.Classes = []SettlementClass{
		{Type: SettlementTown, Count: 1, Radius: 3, MinPopulation: 200, MaxPopulation: 400},
		{Type: SettlementHamlet, Count: 3, Radius: 1, MinPopulation: 5, MaxPopulation: 20},
	}
	cfg.Vegetation.MaxTiles = 20
	cfg.Rivers.Count = 1
	cfg.Rivers.MinLength = 3
	return cfg
}

// LoadGenConfig decodes JSON over the defaults, so a file only needs the
// fields it changes.
func LoadGenConfig(r io.Reader) (GenConfig, error) {
	cfg := DefaultGenConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return GenConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return GenConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run. Coverage gaps in
// band tables are not errors; they are reported as warnings during generation.
func (c GenConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Noise.Max <= c.Noise.Min {
		return fmt.Errorf("%w: noise range [%g, %g]", ErrInvalidConfig, c.Noise.Min, c.Noise.Max)
	}
	noise := []struct {
		stage  string
		params NoiseParams
	}{
		{"elevation", c.Elevation.Noise},
		{"moisture", c.Moisture.Noise},
		{"temperature", c.Temperature.Noise},
	}
	for _, n := range noise {
		if n.params.Scale <= 0 {
			return fmt.Errorf("%w: %s noise scale %g", ErrInvalidConfig, n.stage, n.params.Scale)
		}
		if n.params.Octaves < 0 {
			return fmt.Errorf("%w: %s noise octaves %d", ErrInvalidConfig, n.stage, n.params.Octaves)
		}
	}
	for _, cl := range c.Settlements.Classes {
		if cl.MaxPopulation < cl.MinPopulation {
			return fmt.Errorf("%w: %s population range [%d, %d]", ErrInvalidConfig, cl.Type, cl.MinPopulation, cl.MaxPopulation)
		}
	}
	if c.Settlements.BackgroundMax < c.Settlements.BackgroundMin {
		return fmt.Errorf("%w: background population range [%d, %d]", ErrInvalidConfig,
			c.Settlements.BackgroundMin, c.Settlements.BackgroundMax)
	}
	return nil
}

// bandCoverageGaps returns the sub-ranges of [0, 1] not covered by any band.
func bandCoverageGaps(bands []ElevationBand) []Window {
	sorted := make([]ElevationBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	var gaps []Window
	covered := 0.0
	started := false
	for _, b := range sorted {
		if b.Max < b.Min {
			continue
		}
		if !started {
			if b.Min > 0 {
				gaps = append(gaps, Window{Min: 0, Max: b.Min})
			}
			covered = b.Max
			started = true
			continue
		}
		if b.Min > covered {
			gaps = append(gaps, Window{Min: covered, Max: b.Min})
		}
		if b.Max > covered {
			covered = b.Max
		}
	}
	if !started {
		return []Window{{Min: 0, Max: 1}}
	}
	if covered < 1 {
		gaps = append(gaps, Window{Min: covered, Max: 1})
	}
	return gaps
}
