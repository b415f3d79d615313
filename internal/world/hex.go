// Package world provides the hex grid, its coordinate systems, and the staged
// generation pipeline that fills the grid with terrain, climate, settlements,
// vegetation and rivers.
//
// Tiles are addressed by offset coordinates (col, row) in an odd-r layout.
// Axial (q, r) and cube (x, y, z) coordinates are derived from the offset
// address and are never stored.
package world

import (
	"fmt"
	"math"
)

// OffsetCoord is a (col, row) address in the staggered grid. Odd rows are
// shifted half a tile to the right.
type OffsetCoord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// CubeCoord is a cube coordinate. X + Y + Z is always 0.
type CubeCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Add returns the component-wise sum of two cube coordinates.
func (c CubeCoord) Add(o CubeCoord) CubeCoord {
	return CubeCoord{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

// OffsetToAxial converts an odd-r offset address to axial coordinates.
func OffsetToAxial(o OffsetCoord) HexCoord {
	q := o.Col - (o.Row-(o.Row&1))/2
	return HexCoord{Q: q, R: o.Row}
}

// AxialToOffset converts axial coordinates back to an odd-r offset address.
func AxialToOffset(h HexCoord) OffsetCoord {
	col := h.Q + (h.R-(h.R&1))/2
	return OffsetCoord{Col: col, Row: h.R}
}

// AxialToCube maps (q, r) to (x, y, z) with x = q, z = r.
func AxialToCube(h HexCoord) CubeCoord {
	return CubeCoord{X: h.Q, Y: -h.Q - h.R, Z: h.R}
}

// CubeToAxial drops the redundant y component.
func CubeToAxial(c CubeCoord) HexCoord {
	return HexCoord{Q: c.X, R: c.Z}
}

// Direction indexes the six neighbor slots of a tile.
type Direction uint8

const (
	DirNE Direction = iota
	DirE
	DirSE
	DirSW
	DirW
	DirNW
)

// Opposite returns the direction pointing back.
func (d Direction) Opposite() Direction {
	return (d + 3) % 6
}

// CubeNeighborOffsets is the fixed NE, E, SE, SW, W, NW neighbor table.
// Neighbor lists everywhere follow this order.
var CubeNeighborOffsets = [6]CubeCoord{
	{X: 1, Y: -1, Z: 0},
	{X: 1, Y: 0, Z: -1},
	{X: 0, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: 0},
	{X: -1, Y: 0, Z: 1},
	{X: 0, Y: -1, Z: 1},
}

// Neighbors returns the six adjacent hex coordinates in table order.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	cube := AxialToCube(h)
	for i, dir := range CubeNeighborOffsets {
		result[i] = CubeToAxial(cube.Add(dir))
	}
	return result
}

// Neighbors returns the offset addresses of the six adjacent cells in table
// order. Addresses may fall outside any particular grid.
func (o OffsetCoord) Neighbors() [6]OffsetCoord {
	var result [6]OffsetCoord
	for i, h := range OffsetToAxial(o).Neighbors() {
		result[i] = AxialToOffset(h)
	}
	return result
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	return CubeDistance(AxialToCube(a), AxialToCube(b))
}

// CubeDistance is (|dx| + |dy| + |dz|) / 2.
func CubeDistance(a, b CubeCoord) int {
	return (abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)) / 2
}

// InvalidEdge is returned by EdgeBetween for cells that do not share an edge.
const InvalidEdge = -1

// Edge tables keyed by the offset delta from the current cell. Row parity
// changes which deltas are adjacent, so even and odd rows get separate tables.
// Edge numbering is independent of Direction; only e and e+3 facing each
// other is guaranteed.
var (
	evenRowEdges = [6]OffsetCoord{
		{Col: 0, Row: 1},
		{Col: 1, Row: 0},
		{Col: 0, Row: -1},
		{Col: -1, Row: -1},
		{Col: -1, Row: 0},
		{Col: -1, Row: 1},
	}
	oddRowEdges = [6]OffsetCoord{
		{Col: 1, Row: 1},
		{Col: 1, Row: 0},
		{Col: 1, Row: -1},
		{Col: 0, Row: -1},
		{Col: -1, Row: 0},
		{Col: 0, Row: 1},
	}
)

// EdgeBetween returns the edge index (0-5) of from that faces to, or
// InvalidEdge when the two cells are not adjacent.
func EdgeBetween(from, to OffsetCoord) int {
	delta := OffsetCoord{Col: to.Col - from.Col, Row: to.Row - from.Row}

	table := &oddRowEdges
	if from.Row%2 == 0 {
		table = &evenRowEdges
	}
	for i, d := range table {
		if d == delta {
			return i
		}
	}
	return InvalidEdge
}

// OppositeEdge returns the edge index on the neighboring tile that faces back.
func OppositeEdge(edge int) int {
	return (edge + 3) % 6
}

// Orientation selects the tile layout used for world-space projection.
// It has no effect on generation.
type Orientation uint8

const (
	PointyTop Orientation = iota
	FlatTop
)

var orientationNames = [...]string{"pointy_top", "flat_top"}

func (o Orientation) String() string {
	if int(o) < len(orientationNames) {
		return orientationNames[o]
	}
	return "unknown"
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(b []byte) error {
	for i, n := range orientationNames {
		if n == string(b) {
			*o = Orientation(i)
			return nil
		}
	}
	return fmt.Errorf("unknown orientation %q", b)
}

// Vec3 is a world-space position. Y is up and always 0 for grid tiles.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// WorldPosition projects an offset address to world space.
//
// Pointy-top rows are 3/4 of a tile apart with odd rows shifted half a tile
// right; flat-top columns are cos(30°) of a tile apart with odd columns
// shifted half a tile up.
func WorldPosition(o OffsetCoord, orient Orientation, tileWidth, tileHeight float64) Vec3 {
	if orient == FlatTop {
		x := float64(o.Col) * tileWidth * math.Cos(math.Pi/6)
		z := float64(o.Row) * tileHeight
		if o.Col%2 == 1 {
			z += tileHeight * 0.5
		}
		return Vec3{X: x, Z: z}
	}

	x := float64(o.Col) * tileWidth
	if o.Row%2 == 1 {
		x += tileWidth * 0.5
	}
	z := float64(o.Row) * tileHeight * 0.75
	return Vec3{X: x, Z: z}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
