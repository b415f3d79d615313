package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseParams shapes one fractal noise layer.
type NoiseParams struct {
	Scale       float64 `json:"scale"`
	Octaves     int     `json:"octaves"`
	Persistence float64 `json:"persistence"`
	Lacunarity  float64 `json:"lacunarity"`
}

// NoiseConfig holds the settings shared by every noise layer of a run.
type NoiseConfig struct {
	// Per-octave translations are drawn from [OffsetRangeMin, OffsetRangeMax).
	OffsetRangeMin int `json:"offset_range_min"`
	OffsetRangeMax int `json:"offset_range_max"`

	// The raw fractal sum is clamped to [Min, Max] then rescaled to [0, 1].
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Vec2 is a 2D translation applied to one octave.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NoiseField samples layered simplex noise. It holds no mutable state, so
// identical arguments always produce identical output.
type NoiseField struct {
	noise opensimplex.Noise
	cfg   NoiseConfig
}

// NewNoiseField creates a field whose primitive is seeded with seed.
func NewNoiseField(seed int64, cfg NoiseConfig) *NoiseField {
	return &NoiseField{
		noise: opensimplex.New(seed),
		cfg:   cfg,
	}
}

// NoiseOffsets draws one translation per octave from rng.
func NoiseOffsets(rng *rand.Rand, octaves int, lo, hi int) []Vec2 {
	offsets := make([]Vec2, octaves)
	for i := range offsets {
		offsets[i] = Vec2{
			X: float64(randIntRange(rng, lo, hi)),
			Y: float64(randIntRange(rng, lo, hi)),
		}
	}
	return offsets
}

// Offsets draws per-octave translations for p using the field's range.
func (f *NoiseField) Offsets(rng *rand.Rand, p NoiseParams) []Vec2 {
	return NoiseOffsets(rng, p.Octaves, f.cfg.OffsetRangeMin, f.cfg.OffsetRangeMax)
}

// Sample returns fractal noise at (x, y) normalized to [0, 1].
//
// Each octave samples at frequency lacunarity^i and amplitude
// persistence^i, translated by offsets[i]. Missing offsets count as zero.
func (f *NoiseField) Sample(x, y float64, p NoiseParams, offsets []Vec2) float64 {
	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}

	amplitude := 1.0
	frequency := 1.0
	total := 0.0

	for i := 0; i < p.Octaves; i++ {
		var off Vec2
		if i < len(offsets) {
			off = offsets[i]
		}
		sx := x/scale*frequency + off.X
		sy := y/scale*frequency + off.Y

		total += f.noise.Eval2(sx, sy) * amplitude

		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}

	total = clamp(total, f.cfg.Min, f.cfg.Max)
	return inverseLerp(f.cfg.Min, f.cfg.Max, total)
}

// SampleTile samples at the tile's offset address.
func (f *NoiseField) SampleTile(t *Tile, p NoiseParams, offsets []Vec2) float64 {
	return f.Sample(float64(t.Offset.Col), float64(t.Offset.Row), p, offsets)
}
