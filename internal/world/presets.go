package world

import (
	"embed"
	"encoding/json"
	"fmt"
)

// presetFS embeds the default classification tables.
//
//go:embed data/*.json
var presetFS embed.FS

// presetTables is the shape of data/presets.json.
type presetTables struct {
	FallbackBiome  string          `json:"fallback_biome"`
	Biomes         []Biome         `json:"biomes"`
	ElevationBands []ElevationBand `json:"elevation_bands"`
	BiomeBands     []BiomeBand     `json:"biome_bands"`
}

// loadPreset reads and unmarshals a JSON file from the embedded filesystem.
func loadPreset[T any](filename string) (T, error) {
	var result T

	content, err := presetFS.ReadFile(filename)
	if err != nil {
		return result, fmt.Errorf("failed to read embedded file %s: %w", filename, err)
	}

	if err := json.Unmarshal(content, &result); err != nil {
		return result, fmt.Errorf("failed to parse JSON from %s: %w", filename, err)
	}

	return result, nil
}

// defaultTables loads the built-in tables, panicking on error. The file is
// compiled in, so a failure here is a build defect.
func defaultTables() presetTables {
	tables, err := loadPreset[presetTables]("data/presets.json")
	if err != nil {
		panic(err)
	}
	return tables
}

// DefaultBiomeCatalog returns the built-in classification records.
func DefaultBiomeCatalog() *BiomeCatalog {
	return NewBiomeCatalog(defaultTables().Biomes)
}
