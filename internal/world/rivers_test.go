package world

import (
	"errors"
	"math"
	"testing"

	"github.com/zyedidia/generic/mapset"
)

// slopeGrid is a coast along column 0 rising to the east.
func slopeGrid(width, height int) *Grid {
	g := NewGrid(width, height)
	for _, t := range g.Tiles() {
		if t.Offset.Col == 0 {
			t.Category = CategoryWater
			t.Elevation = 0.1
			continue
		}
		t.Category = CategoryLand
		t.Elevation = 0.3 + 0.08*float64(t.Offset.Col)
	}
	return g
}

func TestRiverStageCarvesToWater(t *testing.T) {
	g := slopeGrid(8, 4)
	run := testRun(21)
	stage := &RiverStage{Config: RiverConfig{
		Count:                1,
		MinLength:            3,
		MinSourceElevation:   0.75,
		BaseCost:             1,
		UphillCostMultiplier: 10,
		MaxRetries:           5,
	}}
	mustApply(t, stage, g, run)

	if run.Report.RiversCreated != 1 || len(run.Report.Rivers) != 1 {
		t.Fatalf("created %d rivers, warnings %+v", run.Report.RiversCreated, run.Report.Warnings)
	}
	river := run.Report.Rivers[0]
	source := g.Get(river.Tiles[0])
	if source.Elevation < 0.75 {
		t.Errorf("source %v elevation %v below minimum", source.Offset, source.Elevation)
	}

	for _, c := range river.Tiles {
		tile := g.Get(c)
		if !tile.HasRiver || !tile.IsLand() {
			t.Errorf("path tile %v: river=%v land=%v", c, tile.HasRiver, tile.IsLand())
		}
	}

	mouth := g.Get(river.Mouth)
	if mouth.Category != CategoryWater || mouth.HasRiver {
		t.Errorf("mouth %v: category %s, river flag %v", mouth.Offset, mouth.Category, mouth.HasRiver)
	}
	last := river.Tiles[len(river.Tiles)-1]
	e := EdgeBetween(last, river.Mouth)
	if e == InvalidEdge || !g.Get(last).Rivers.Has(e) || !mouth.Rivers.Has(OppositeEdge(e)) {
		t.Errorf("final step %v -> %v not connected on both sides", last, river.Mouth)
	}

	steps := append(append([]OffsetCoord(nil), river.Tiles...), river.Mouth)
	for i := 0; i+1 < len(steps); i++ {
		e := EdgeBetween(steps[i], steps[i+1])
		if e == InvalidEdge {
			t.Fatalf("step %v -> %v not adjacent", steps[i], steps[i+1])
		}
		if !g.Get(steps[i]).Rivers.Has(e) || !g.Get(steps[i+1]).Rivers.Has(OppositeEdge(e)) {
			t.Errorf("step %v -> %v missing edge bits", steps[i], steps[i+1])
		}
	}
}

func TestRiverStageNoWaterFarEnough(t *testing.T) {
	g := landGrid(5, 5, 0.8, 0, 0)
	water := g.At(0, 0)
	water.Category = CategoryWater
	water.Elevation = 0.1

	run := testRun(3)
	stage := &RiverStage{Config: RiverConfig{
		Count:              2,
		MinLength:          100,
		MinSourceElevation: 0.5,
		BaseCost:           1,
		MaxRetries:         5,
	}}
	if err := stage.Apply(g, run); err != nil {
		t.Fatalf("shortfall must not be an error: %v", err)
	}

	if run.Report.RiversCreated != 0 || run.Report.RiverAttempts != 5 {
		t.Errorf("created %d after %d attempts, want 0 after 5", run.Report.RiversCreated, run.Report.RiverAttempts)
	}
	if !hasWarning(run.Report, "rivers", "created 0 of 2") {
		t.Errorf("warnings = %+v", run.Report.Warnings)
	}
	for _, tile := range g.Tiles() {
		if tile.HasRiver || tile.Rivers != 0 {
			t.Fatalf("tile %v modified by failed attempts", tile.Offset)
		}
	}
}

func TestRiverStageRestrictsLaterRivers(t *testing.T) {
	g := slopeGrid(10, 10)
	run := testRun(8)
	stage := &RiverStage{Config: RiverConfig{
		Count:                3,
		MinLength:            2,
		MinSourceElevation:   0.7,
		BaseCost:             1,
		UphillCostMultiplier: 10,
		MaxRetries:           20,
		RestrictNeighbors:    true,
	}}
	mustApply(t, stage, g, run)

	owner := make(map[OffsetCoord]int)
	for i, r := range run.Report.Rivers {
		for _, c := range r.Tiles {
			if prev, ok := owner[c]; ok {
				t.Fatalf("tile %v shared by rivers %d and %d", c, prev, i)
			}
			owner[c] = i
		}
	}
	for c, i := range owner {
		for _, n := range g.Get(c).Neighbors() {
			if j, ok := owner[n.Offset]; ok && j != i {
				t.Fatalf("rivers %d and %d touch at %v/%v", i, j, c, n.Offset)
			}
		}
	}
}

// coastGrid is open sea west of column 6 and lowland east of it, with a
// single river source at (7,4).
func coastGrid() *Grid {
	g := NewGrid(12, 9)
	for _, t := range g.Tiles() {
		if t.Offset.Col < 6 {
			t.Category = CategoryWater
			t.Elevation = 0.1
			continue
		}
		t.Category = CategoryLand
		t.Elevation = 0.4
	}
	g.At(7, 4).Elevation = 0.8
	return g
}

func TestRiverStageSkipsOpenSea(t *testing.T) {
	g := coastGrid()
	run := testRun(5)
	stage := &RiverStage{Config: RiverConfig{
		Count:                1,
		MinLength:            4,
		MinSourceElevation:   0.5,
		BaseCost:             1,
		UphillCostMultiplier: 10,
		MaxRetries:           10,
	}}
	mustApply(t, stage, g, run)

	if run.Report.RiversCreated != 1 || run.Report.RiverAttempts != 1 {
		t.Fatalf("created %d after %d attempts, warnings %+v",
			run.Report.RiversCreated, run.Report.RiverAttempts, run.Report.Warnings)
	}
	river := run.Report.Rivers[0]
	if want := (OffsetCoord{Col: 5, Row: 0}); river.Mouth != want {
		t.Errorf("mouth = %v, want %v", river.Mouth, want)
	}
	if first, last := river.Tiles[0], river.Tiles[len(river.Tiles)-1]; first != (OffsetCoord{Col: 7, Row: 4}) || last != (OffsetCoord{Col: 6, Row: 0}) {
		t.Errorf("river runs %v -> %v, want (7,4) -> (6,0)", first, last)
	}
}

func TestRiverTarget(t *testing.T) {
	g := coastGrid()
	source := g.At(7, 4)

	tests := []struct {
		name      string
		minLength float64
		block     []OffsetCoord
		water     OffsetCoord
		mouth     OffsetCoord
	}{
		{"adjacent coast", 1, nil, OffsetCoord{Col: 5, Row: 4}, OffsetCoord{Col: 6, Row: 4}},
		{"inland water skipped", 4, nil, OffsetCoord{Col: 5, Row: 0}, OffsetCoord{Col: 6, Row: 0}},
		{"restricted shore skipped", 4, []OffsetCoord{{Col: 6, Row: 0}}, OffsetCoord{Col: 5, Row: 8}, OffsetCoord{Col: 6, Row: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restricted := mapset.New[*Tile]()
			for _, c := range tt.block {
				restricted.Put(g.Get(c))
			}
			water, mouth := riverTarget(g, source, tt.minLength, restricted)
			if water == nil || mouth == nil {
				t.Fatal("no target found")
			}
			if water.Offset != tt.water || mouth.Offset != tt.mouth {
				t.Errorf("target %v via %v, want %v via %v", water.Offset, mouth.Offset, tt.water, tt.mouth)
			}
		})
	}

	if water, _ := riverTarget(g, source, 20, mapset.New[*Tile]()); water != nil {
		t.Errorf("found %v beyond every water tile", water.Offset)
	}
}

func TestFindRiverPathAvoidsNonLand(t *testing.T) {
	g := landGrid(5, 3, 0.5, 0, 0)
	// Wall of mountains across column 2 with a gap in row 2.
	g.At(2, 0).Category = CategoryMountain
	g.At(2, 1).Category = CategoryMountain

	cfg := RiverConfig{BaseCost: 1, UphillCostMultiplier: 10}
	path := findRiverPath(g.At(0, 0), g.At(4, 0), cfg, mapset.New[*Tile]())
	if path == nil {
		t.Fatal("expected a path through the gap")
	}
	for _, tile := range path {
		if !tile.IsLand() {
			t.Fatalf("path crosses %s at %v", tile.Category, tile.Offset)
		}
	}
	if path[0] != g.At(0, 0) || path[len(path)-1] != g.At(4, 0) {
		t.Fatal("path does not run source to target")
	}

	g.At(2, 2).Category = CategoryMountain
	if p := findRiverPath(g.At(0, 0), g.At(4, 0), cfg, mapset.New[*Tile]()); p != nil {
		t.Fatalf("path found through a closed wall: %v", p)
	}
}

func TestRiverStepCost(t *testing.T) {
	cfg := RiverConfig{BaseCost: 1, UphillCostMultiplier: 10}
	low, high := &Tile{Elevation: 0.2}, &Tile{Elevation: 0.5}

	if c := riverStepCost(high, low, cfg); math.Abs(c-1.3) > 1e-12 {
		t.Errorf("downhill cost = %v", c)
	}
	if c := riverStepCost(low, high, cfg); c <= riverStepCost(high, low, cfg) {
		t.Errorf("uphill cost %v should exceed downhill", c)
	}
}

func TestCommitRiverRollsBackOnBadStep(t *testing.T) {
	g := landGrid(6, 1, 0.5, 0, 0)
	water := g.At(5, 0)
	water.Category = CategoryWater

	// Second step skips a column.
	path := []*Tile{g.At(0, 0), g.At(1, 0), g.At(3, 0)}
	err := commitRiver(path, water)
	if !errors.Is(err, ErrNotAdjacent) {
		t.Fatalf("err = %v, want ErrNotAdjacent", err)
	}
	for _, tile := range g.Tiles() {
		if tile.HasRiver || tile.Rivers != 0 {
			t.Fatalf("tile %v left modified after rollback", tile.Offset)
		}
	}
}

func TestCommitRiverSetsBothSides(t *testing.T) {
	g := landGrid(4, 1, 0.5, 0, 0)
	water := g.At(3, 0)
	water.Category = CategoryWater

	if err := commitRiver([]*Tile{g.At(1, 0), g.At(2, 0)}, water); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if g.At(1, 0).Rivers.Count() != 1 || g.At(2, 0).Rivers.Count() != 2 || water.Rivers.Count() != 1 {
		t.Errorf("edge counts %d/%d/%d, want 1/2/1",
			g.At(1, 0).Rivers.Count(), g.At(2, 0).Rivers.Count(), water.Rivers.Count())
	}
	if water.HasRiver || g.At(0, 0).HasRiver {
		t.Error("only path tiles carry the river flag")
	}
}

func TestRiverEdgesRotate(t *testing.T) {
	tests := []struct {
		in    RiverEdges
		steps int
		want  RiverEdges
	}{
		{RiverEdgesOf(0), 1, RiverEdgesOf(1)},
		{RiverEdgesOf(5), 1, RiverEdgesOf(0)},
		{RiverEdgesOf(0, 3), 2, RiverEdgesOf(2, 5)},
		{RiverEdgesOf(0, 1), 5, RiverEdgesOf(5, 0)},
		{RiverEdgesOf(2), -1, RiverEdgesOf(1)},
		{allEdges, 3, allEdges},
	}
	for _, tt := range tests {
		if got := tt.in.Rotate(tt.steps); got != tt.want {
			t.Errorf("%06b.Rotate(%d) = %06b, want %06b", tt.in, tt.steps, got, tt.want)
		}
	}
}

func TestMatchRiverPatternCoversEverySet(t *testing.T) {
	for edges := RiverEdges(1); edges <= allEdges; edges++ {
		p, steps, ok := MatchRiverPattern(edges, DefaultRiverPatterns)
		if !ok {
			t.Fatalf("no pattern for %06b", edges)
		}
		if p.Edges.Rotate(steps) != edges {
			t.Fatalf("%s rotated %d = %06b, want %06b", p.Name, steps, p.Edges.Rotate(steps), edges)
		}
	}
	if _, _, ok := MatchRiverPattern(0, DefaultRiverPatterns); ok {
		t.Error("empty set should not match")
	}
}

func TestMatchRiverPatternKnownShapes(t *testing.T) {
	tests := []struct {
		edges RiverEdges
		name  string
		steps int
	}{
		{RiverEdgesOf(3), "source", 3},
		{RiverEdgesOf(1, 4), "straight", 1},
		{RiverEdgesOf(5, 0), "sharp_bend", 5},
		{RiverEdgesOf(1, 3, 5), "fork", 1},
		{allEdges, "full", 0},
	}
	for _, tt := range tests {
		p, steps, ok := MatchRiverPattern(tt.edges, DefaultRiverPatterns)
		if !ok || p.Name != tt.name || steps != tt.steps {
			t.Errorf("%06b matched %q rotation %d, want %q rotation %d", tt.edges, p.Name, steps, tt.name, tt.steps)
		}
	}
}
