package world

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
)

// Grid holds the complete hex grid world state.
//
// Tiles live in a row-major arena. Iteration over Tiles() is always in that
// order, which keeps stages that consume randomness reproducible.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	tiles []*Tile
}

// NewGrid allocates every tile of a width x height grid, then links
// neighbors in a second pass over the finished arena.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	g := &Grid{
		Width:  width,
		Height: height,
		tiles:  make([]*Tile, 0, width*height),
	}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			g.tiles = append(g.tiles, &Tile{Offset: OffsetCoord{Col: col, Row: row}})
		}
	}

	g.linkNeighbors()
	return g
}

// linkNeighbors fills each tile's direction slots. The cube table is closed
// under negation, so if A holds B in slot d then B holds A in slot d+3.
func (g *Grid) linkNeighbors() {
	for _, t := range g.tiles {
		for dir, coord := range t.Offset.Neighbors() {
			t.neighbors[dir] = g.Get(coord)
		}
	}
}

// Get returns the tile at the given coordinate, or nil if out of bounds.
func (g *Grid) Get(coord OffsetCoord) *Tile {
	if !g.InBounds(coord) {
		return nil
	}
	return g.tiles[coord.Row*g.Width+coord.Col]
}

// At is shorthand for Get(OffsetCoord{col, row}).
func (g *Grid) At(col, row int) *Tile {
	return g.Get(OffsetCoord{Col: col, Row: row})
}

// InBounds returns true if the coordinate addresses a tile.
func (g *Grid) InBounds(coord OffsetCoord) bool {
	return coord.Col >= 0 && coord.Col < g.Width && coord.Row >= 0 && coord.Row < g.Height
}

// Tiles returns every tile in row-major order. The slice is shared; callers
// must not reorder it.
func (g *Grid) Tiles() []*Tile {
	return g.tiles
}

// Len returns the total number of tiles.
func (g *Grid) Len() int {
	return len(g.tiles)
}

// Neighbors returns the tiles adjacent to t in table order.
func (g *Grid) Neighbors(t *Tile) []*Tile {
	return t.Neighbors()
}

// TilesInRange returns every tile within radius steps of center, center
// included, in breadth-first order. Each tile appears once.
func (g *Grid) TilesInRange(center *Tile, radius int) []*Tile {
	if center == nil || radius < 0 {
		return nil
	}

	type entry struct {
		tile  *Tile
		depth int
	}

	visited := mapset.New[*Tile]()
	frontier := queue.New[entry]()
	frontier.Enqueue(entry{tile: center})
	visited.Put(center)

	var out []*Tile
	for !frontier.Empty() {
		cur := frontier.Dequeue()
		out = append(out, cur.tile)
		if cur.depth == radius {
			continue
		}
		for _, n := range cur.tile.neighbors {
			if n == nil || visited.Has(n) {
				continue
			}
			visited.Put(n)
			frontier.Enqueue(entry{tile: n, depth: cur.depth + 1})
		}
	}
	return out
}

// HexDistance returns the number of steps between two tiles.
func HexDistance(a, b *Tile) int {
	return CubeDistance(a.Cube(), b.Cube())
}

// BiomeMap flattens the grid to offset -> biome name for consumers that do
// not need full tiles.
func (g *Grid) BiomeMap() map[OffsetCoord]string {
	out := make(map[OffsetCoord]string, len(g.tiles))
	for _, t := range g.tiles {
		out[t.Offset] = t.BiomeName()
	}
	return out
}

// StartingTile returns the tile flagged as the starting location, if any.
func (g *Grid) StartingTile() *Tile {
	for _, t := range g.tiles {
		if t.IsStartingLocation {
			return t
		}
	}
	return nil
}

// CategoryCounts returns a summary of elevation category distribution.
func (g *Grid) CategoryCounts() map[ElevationCategory]int {
	counts := make(map[ElevationCategory]int)
	for _, t := range g.tiles {
		counts[t.Category]++
	}
	return counts
}

// BiomeCounts returns the number of tiles per biome name.
func (g *Grid) BiomeCounts() map[string]int {
	counts := make(map[string]int)
	for _, t := range g.tiles {
		counts[t.BiomeName()]++
	}
	return counts
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, tiles=%d)", g.Width, g.Height, g.Len())
}
