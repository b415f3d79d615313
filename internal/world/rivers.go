package world

import (
	"fmt"
	"math"

	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"
)

// RiverConfig configures RiverStage.
type RiverConfig struct {
	Count int `json:"count"`

	// MinLength is the minimum straight-line distance, in offset units,
	// between a source and the water body it drains into.
	MinLength          float64 `json:"min_length"`
	MinSourceElevation float64 `json:"min_source_elevation"`

	BaseCost             float64 `json:"base_cost"`
	UphillCostMultiplier float64 `json:"uphill_cost_multiplier"`

	// MaxRetries bounds failed attempts; successful rivers do not count.
	MaxRetries int `json:"max_retries"`

	// RestrictNeighbors keeps later rivers off every tile touching an
	// earlier one.
	RestrictNeighbors bool `json:"restrict_neighbors"`
}

// RiverStage carves rivers from inland sources down to water.
type RiverStage struct {
	Config RiverConfig
}

func (s *RiverStage) Name() string { return "rivers" }

func (s *RiverStage) Apply(g *Grid, run *Run) error {
	cfg := s.Config
	restricted := mapset.New[*Tile]()

	run.Report.RiversRequested = cfg.Count

	created, failures := 0, 0
	for created < cfg.Count && failures < cfg.MaxRetries {
		run.Report.RiverAttempts++

		sources := riverSources(g, cfg.MinSourceElevation, restricted)
		if len(sources) == 0 {
			run.warn(s.Name(), "no eligible river source left")
			break
		}
		source := sources[run.Rand.Intn(len(sources))]

		water, target := riverTarget(g, source, cfg.MinLength, restricted)
		if water == nil {
			failures++
			run.Logger.Debug("no coastal water far enough from source", "source", source.Offset)
			continue
		}

		path := findRiverPath(source, target, cfg, restricted)
		if path == nil {
			failures++
			run.Logger.Debug("no river path", "source", source.Offset, "target", target.Offset)
			continue
		}

		if err := commitRiver(path, water); err != nil {
			return err
		}

		for _, t := range path {
			restricted.Put(t)
			if cfg.RestrictNeighbors {
				for _, n := range t.Neighbors() {
					restricted.Put(n)
				}
			}
		}

		coords := make([]OffsetCoord, len(path))
		for i, t := range path {
			coords[i] = t.Offset
		}
		run.Report.Rivers = append(run.Report.Rivers, RiverPath{Tiles: coords, Mouth: water.Offset})
		created++
	}

	run.Report.RiversCreated = created
	if created < cfg.Count {
		run.warn(s.Name(), fmt.Sprintf("created %d of %d rivers after %d failed attempts", created, cfg.Count, failures))
	}
	run.Logger.Info("rivers generated", "created", created, "requested", cfg.Count, "attempts", run.Report.RiverAttempts)
	return nil
}

// riverSources lists open Land tiles high enough to start a river, in
// row-major order.
func riverSources(g *Grid, minElevation float64, restricted mapset.Set[*Tile]) []*Tile {
	var out []*Tile
	for _, t := range g.Tiles() {
		if t.Category != CategoryLand || t.HasRiver || t.Elevation < minElevation {
			continue
		}
		if restricted.Has(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// riverTarget returns the closest Water tile at least minLength away from
// source that still has an open Land neighbor, together with that neighbor.
// Water with no open shore is skipped. Ties keep the first tile in row-major
// order.
func riverTarget(g *Grid, source *Tile, minLength float64, restricted mapset.Set[*Tile]) (water, mouth *Tile) {
	bestDist := math.Inf(1)
	for _, t := range g.Tiles() {
		if t.Category != CategoryWater {
			continue
		}
		d := gridDistance(source.Offset, t.Offset)
		if d < minLength || d >= bestDist {
			continue
		}
		if shore := openShore(t, restricted); shore != nil {
			water, mouth, bestDist = t, shore, d
		}
	}
	return water, mouth
}

// openShore picks the first open Land neighbor of water.
func openShore(water *Tile, restricted mapset.Set[*Tile]) *Tile {
	for _, n := range water.Neighbors() {
		if n.Category == CategoryLand && !n.HasRiver && !restricted.Has(n) {
			return n
		}
	}
	return nil
}

// riverStepCost charges uphill moves by the climb times the multiplier and
// downhill moves by the plain drop.
func riverStepCost(from, to *Tile, cfg RiverConfig) float64 {
	dz := to.Elevation - from.Elevation
	if dz > 0 {
		return cfg.BaseCost + dz*cfg.UphillCostMultiplier
	}
	return cfg.BaseCost + math.Abs(dz)
}

type pathNode struct {
	tile *Tile
	f    float64
	seq  int
}

// findRiverPath runs A* over open Land tiles from source to target and
// returns the path source first, or nil when target is unreachable.
func findRiverPath(source, target *Tile, cfg RiverConfig, restricted mapset.Set[*Tile]) []*Tile {
	heuristic := func(t *Tile) float64 {
		return gridDistance(t.Offset, target.Offset)
	}

	open := heap.New[pathNode](func(a, b pathNode) bool {
		if a.f != b.f {
			return a.f < b.f
		}
		return a.seq < b.seq
	})
	closed := mapset.New[*Tile]()
	gScore := map[*Tile]float64{source: 0}
	cameFrom := map[*Tile]*Tile{}

	seq := 0
	open.Push(pathNode{tile: source, f: heuristic(source), seq: seq})

	for open.Size() > 0 {
		cur, _ := open.Pop()
		if closed.Has(cur.tile) {
			continue
		}
		if cur.tile == target {
			return reconstructPath(cameFrom, target)
		}
		closed.Put(cur.tile)

		for _, n := range cur.tile.Neighbors() {
			if closed.Has(n) || n.Category != CategoryLand || restricted.Has(n) {
				continue
			}
			cost := gScore[cur.tile] + riverStepCost(cur.tile, n, cfg)
			if old, ok := gScore[n]; ok && cost >= old {
				continue
			}
			gScore[n] = cost
			cameFrom[n] = cur.tile
			seq++
			open.Push(pathNode{tile: n, f: cost + heuristic(n), seq: seq})
		}
	}
	return nil
}

func reconstructPath(cameFrom map[*Tile]*Tile, end *Tile) []*Tile {
	path := []*Tile{end}
	for t, ok := cameFrom[end]; ok; t, ok = cameFrom[t] {
		path = append(path, t)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// commitRiver flags the path and sets matching edge bits on both sides of
// every step, including the final step into water. Nothing is changed if any
// step turns out not to be adjacent.
func commitRiver(path []*Tile, water *Tile) error {
	steps := append(append([]*Tile(nil), path...), water)

	type saved struct {
		hasRiver bool
		edges    RiverEdges
	}
	snapshot := make([]saved, len(steps))
	for i, t := range steps {
		snapshot[i] = saved{t.HasRiver, t.Rivers}
	}
	rollback := func() {
		for i, t := range steps {
			t.HasRiver = snapshot[i].hasRiver
			t.Rivers = snapshot[i].edges
		}
	}

	for i := 0; i+1 < len(steps); i++ {
		a, b := steps[i], steps[i+1]
		edge := EdgeBetween(a.Offset, b.Offset)
		if edge == InvalidEdge {
			rollback()
			return fmt.Errorf("river step %d,%d -> %d,%d: %w",
				a.Offset.Col, a.Offset.Row, b.Offset.Col, b.Offset.Row, ErrNotAdjacent)
		}
		a.Rivers.Set(edge)
		b.Rivers.Set(OppositeEdge(edge))
	}
	for _, t := range path {
		t.HasRiver = true
	}
	return nil
}
