package world

import (
	"fmt"
	"math"
	"strings"
)

// TemperatureMode selects how temperature is produced.
type TemperatureMode uint8

const (
	TemperatureNoise TemperatureMode = iota
	TemperaturePolarToEquator
	TemperatureEquatorCentered
)

var temperatureModeNames = [...]string{"noise", "polar_to_equator", "equator_centered"}

func (m TemperatureMode) String() string {
	if int(m) < len(temperatureModeNames) {
		return temperatureModeNames[m]
	}
	return "unknown"
}

func (m TemperatureMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *TemperatureMode) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, n := range temperatureModeNames {
		if n == name {
			*m = TemperatureMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown temperature mode %q", b)
}

// TemperatureConfig configures TemperatureStage. The elevation drop and
// jitter only apply to the latitude modes.
type TemperatureConfig struct {
	Mode  TemperatureMode `json:"mode"`
	Noise NoiseParams     `json:"noise"`

	PoleValue    float64 `json:"pole_value"`
	EquatorValue float64 `json:"equator_value"`

	ElevationThreshold float64 `json:"elevation_threshold"`
	DropRate           float64 `json:"drop_rate"`
	Jitter             float64 `json:"jitter"`
}

// TemperatureStage assigns temperature by noise or by latitude.
type TemperatureStage struct {
	Config TemperatureConfig
}

func (s *TemperatureStage) Name() string { return "temperature" }

func (s *TemperatureStage) Apply(g *Grid, run *Run) error {
	cfg := s.Config

	if cfg.Mode == TemperatureNoise {
		offsets := run.Noise.Offsets(run.Rand, cfg.Noise)
		for _, t := range g.Tiles() {
			t.Temperature = run.Noise.SampleTile(t, cfg.Noise, offsets)
		}
		return nil
	}

	maxRow := float64(max(g.Height-1, 1))
	equator := maxRow / 2

	for _, t := range g.Tiles() {
		row := float64(t.Offset.Row)

		var temp float64
		if cfg.Mode == TemperaturePolarToEquator {
			temp = lerp(cfg.PoleValue, cfg.EquatorValue, row/maxRow)
		} else {
			temp = lerp(cfg.EquatorValue, cfg.PoleValue, math.Abs(row-equator)/equator)
		}

		if t.Elevation > cfg.ElevationThreshold {
			temp -= (t.Elevation - cfg.ElevationThreshold) * cfg.DropRate
		}
		temp += randRange(run.Rand, -cfg.Jitter, cfg.Jitter)
		t.Temperature = clamp01(temp)
	}

	run.Logger.Info("temperature assigned", "mode", cfg.Mode.String())
	return nil
}
