package world

import (
	"fmt"
	"strings"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
)

// MoistureMode selects how moisture is produced.
type MoistureMode uint8

const (
	MoistureNoise MoistureMode = iota
	MoisturePropagation
)

var moistureModeNames = [...]string{"noise", "propagation"}

func (m MoistureMode) String() string {
	if int(m) < len(moistureModeNames) {
		return moistureModeNames[m]
	}
	return "unknown"
}

func (m MoistureMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MoistureMode) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, n := range moistureModeNames {
		if n == name {
			*m = MoistureMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown moisture mode %q", b)
}

// PropagationParams shapes one moisture spread from a set of sources.
type PropagationParams struct {
	DecayRate float64 `json:"decay_rate"`
	Jitter    float64 `json:"jitter"` // uniform in [-Jitter, Jitter]
	MaxRange  int     `json:"max_range"`
}

// MoistureConfig configures MoistureStage.
type MoistureConfig struct {
	Mode  MoistureMode `json:"mode"`
	Noise NoiseParams  `json:"noise"`

	Water         PropagationParams `json:"water"`
	River         PropagationParams `json:"river"`
	IncludeRivers bool              `json:"include_rivers"`

	// MaxIterations bounds the dequeues of each propagation pass.
	MaxIterations int `json:"max_iterations"`
}

// MoistureStage assigns moisture from noise or by spreading it outward from
// water and river tiles.
type MoistureStage struct {
	Config MoistureConfig
}

func (s *MoistureStage) Name() string { return "moisture" }

func (s *MoistureStage) Apply(g *Grid, run *Run) error {
	if s.Config.Mode == MoistureNoise {
		offsets := run.Noise.Offsets(run.Rand, s.Config.Noise)
		for _, t := range g.Tiles() {
			t.Moisture = run.Noise.SampleTile(t, s.Config.Noise, offsets)
		}
		return nil
	}

	for _, t := range g.Tiles() {
		t.Moisture = 0
	}

	var waterSources, riverSources []*Tile
	for _, t := range g.Tiles() {
		switch {
		case t.Category == CategoryWater:
			t.Moisture = 1
			waterSources = append(waterSources, t)
		case s.Config.IncludeRivers && t.HasRiver:
			t.Moisture = max(t.Moisture, 0.5)
			riverSources = append(riverSources, t)
		}
	}

	s.propagate(run, "water", waterSources, s.Config.Water)
	if s.Config.IncludeRivers {
		s.propagate(run, "river", riverSources, s.Config.River)
	}

	run.Logger.Info("moisture propagated", "water_sources", len(waterSources), "river_sources", len(riverSources))
	return nil
}

// propagate runs a multi-source BFS. Every newly reached tile gains the
// decayed moisture of the tile it was reached from.
func (s *MoistureStage) propagate(run *Run, source string, sources []*Tile, p PropagationParams) {
	type entry struct {
		tile     *Tile
		distance int
	}

	visited := mapset.New[*Tile]()
	frontier := queue.New[entry]()
	for _, t := range sources {
		visited.Put(t)
		frontier.Enqueue(entry{tile: t})
	}

	steps := 0
	for !frontier.Empty() {
		if steps >= s.Config.MaxIterations {
			run.Report.MoistureCapHit = true
			run.warn(s.Name(), fmt.Sprintf("%s propagation stopped at iteration cap %d", source, s.Config.MaxIterations))
			return
		}
		steps++

		cur := frontier.Dequeue()
		if cur.distance >= p.MaxRange {
			continue
		}
		for _, n := range cur.tile.Neighbors() {
			if visited.Has(n) {
				continue
			}
			gain := clamp01(cur.tile.Moisture*p.DecayRate + randRange(run.Rand, -p.Jitter, p.Jitter))
			n.Moisture = clamp01(n.Moisture + gain)
			visited.Put(n)
			frontier.Enqueue(entry{tile: n, distance: cur.distance + 1})
		}
	}
}
