package world

import "fmt"

// Biome is a tile classification record. Model and FogOverlay are opaque
// hooks for the rendering layer; generation never reads them.
type Biome struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Model            string `json:"model,omitempty"`
	FogOverlay       string `json:"fog_overlay,omitempty"`
	EligibleForStart bool   `json:"eligible_for_start"`
}

// BiomeCatalog indexes classification records by name.
type BiomeCatalog struct {
	byName map[string]*Biome
	order  []*Biome
}

// NewBiomeCatalog builds a catalog. Later duplicates of a name are ignored.
func NewBiomeCatalog(biomes []Biome) *BiomeCatalog {
	c := &BiomeCatalog{byName: make(map[string]*Biome, len(biomes))}
	for i := range biomes {
		b := biomes[i]
		if _, dup := c.byName[b.Name]; dup {
			continue
		}
		c.byName[b.Name] = &b
		c.order = append(c.order, &b)
	}
	return c
}

// Lookup returns the record registered under name.
func (c *BiomeCatalog) Lookup(name string) (*Biome, bool) {
	b, ok := c.byName[name]
	return b, ok
}

// All returns the records in registration order.
func (c *BiomeCatalog) All() []*Biome {
	return c.order
}

// BiomeBand maps a temperature x moisture rectangle to a biome.
type BiomeBand struct {
	Name           string  `json:"name"`
	MinTemperature float64 `json:"min_temperature"`
	MaxTemperature float64 `json:"max_temperature"`
	MinMoisture    float64 `json:"min_moisture"`
	MaxMoisture    float64 `json:"max_moisture"`
	Biome          string  `json:"biome"`
}

// Contains reports whether (temperature, moisture) falls inside the band,
// bounds inclusive.
func (b BiomeBand) Contains(temperature, moisture float64) bool {
	return temperature >= b.MinTemperature && temperature <= b.MaxTemperature &&
		moisture >= b.MinMoisture && moisture <= b.MaxMoisture
}

// BiomeConfig holds the ordered band table and the fallback biome name.
type BiomeConfig struct {
	Bands    []BiomeBand `json:"bands"`
	Fallback string      `json:"fallback"`
}

// BiomeStage classifies Land tiles by temperature and moisture. Water and
// Mountain tiles keep the biome assigned by elevation classification.
type BiomeStage struct {
	Config BiomeConfig
}

func (s *BiomeStage) Name() string { return "biome" }

func (s *BiomeStage) Apply(g *Grid, run *Run) error {
	fallback := run.biome(s.Name(), s.Config.Fallback)

	// Resolve band biomes once so a missing catalog entry is reported once.
	resolved := make([]*Biome, len(s.Config.Bands))
	for i, band := range s.Config.Bands {
		resolved[i] = run.biome(s.Name(), band.Biome)
	}

	matched, unmatched := 0, 0
	for _, t := range g.Tiles() {
		if t.Category != CategoryLand {
			continue
		}

		assigned := false
		for i, band := range s.Config.Bands {
			if band.Contains(t.Temperature, t.Moisture) && resolved[i] != nil {
				t.Biome = resolved[i]
				assigned = true
				break
			}
		}
		if assigned {
			matched++
			continue
		}
		t.Biome = fallback
		unmatched++
	}

	if unmatched > 0 {
		run.warn(s.Name(), fmt.Sprintf("%d land tiles matched no biome band, assigned fallback %q", unmatched, s.Config.Fallback))
	}
	run.Logger.Info("biomes assigned", "matched", matched, "fallback", unmatched)
	return nil
}
