package world

import (
	"fmt"
	"strings"
)

// ElevationCategory is the coarse elevation class that gates later stages.
type ElevationCategory uint8

const (
	CategoryUnset ElevationCategory = iota
	CategoryWater
	CategoryLand
	CategoryMountain
)

var categoryNames = [...]string{"unset", "water", "land", "mountain"}

func (c ElevationCategory) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// MarshalText encodes the category by name.
func (c ElevationCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *ElevationCategory) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, n := range categoryNames {
		if n == name {
			*c = ElevationCategory(i)
			return nil
		}
	}
	return fmt.Errorf("unknown elevation category %q", b)
}

// SettlementType tags a tile holding a placed settlement. Larger values are
// larger settlements.
type SettlementType uint8

const (
	SettlementNone SettlementType = iota
	SettlementHamlet
	SettlementVillage
	SettlementTown
	SettlementCity
)

var settlementNames = [...]string{"none", "hamlet", "village", "town", "city"}

func (s SettlementType) String() string {
	if int(s) < len(settlementNames) {
		return settlementNames[s]
	}
	return "unknown"
}

func (s SettlementType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SettlementType) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, n := range settlementNames {
		if n == name {
			*s = SettlementType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown settlement type %q", b)
}

// MountainType distinguishes low foothills from high peaks.
type MountainType uint8

const (
	MountainNone MountainType = iota
	MountainLow
	MountainHigh
)

var mountainNames = [...]string{"none", "low", "high"}

func (m MountainType) String() string {
	if int(m) < len(mountainNames) {
		return mountainNames[m]
	}
	return "unknown"
}

func (m MountainType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MountainType) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, n := range mountainNames {
		if n == name {
			*m = MountainType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mountain type %q", b)
}

// Tile is a single cell of the world grid. Only the pipeline mutates tiles;
// consumers treat a finished grid as read-only.
type Tile struct {
	Offset OffsetCoord `json:"offset"`

	// Procedural attributes, each in [0, 1] once its stage has run.
	Elevation   float64           `json:"elevation"`
	Moisture    float64           `json:"moisture"`
	Temperature float64           `json:"temperature"`
	Category    ElevationCategory `json:"category"`
	Biome       *Biome            `json:"-"`

	// Gameplay attributes.
	Population          int            `json:"population"`
	HasHousing          bool           `json:"has_housing"`
	IsOccupied          bool           `json:"is_occupied"`
	HasVegetation       bool           `json:"has_vegetation"`
	HasRiver            bool           `json:"has_river"`
	Settlement          SettlementType `json:"settlement"`
	SettlementName      string         `json:"settlement_name,omitempty"`
	Rivers              RiverEdges     `json:"river_connections"`
	IsStartingLocation  bool           `json:"is_starting_location"`
	IsExtremeSettlement bool           `json:"is_extreme_settlement"`
	Mountain            MountainType   `json:"mountain"`

	neighbors [6]*Tile
}

// Axial returns the tile's axial coordinates.
func (t *Tile) Axial() HexCoord {
	return OffsetToAxial(t.Offset)
}

// Cube returns the tile's cube coordinates.
func (t *Tile) Cube() CubeCoord {
	return AxialToCube(t.Axial())
}

// Neighbor returns the adjacent tile in direction d, or nil at the grid edge.
func (t *Tile) Neighbor(d Direction) *Tile {
	return t.neighbors[d%6]
}

// Neighbors returns the adjacent tiles in NE, E, SE, SW, W, NW order,
// skipping directions that fall off the grid.
func (t *Tile) Neighbors() []*Tile {
	out := make([]*Tile, 0, 6)
	for _, n := range t.neighbors {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// BiomeName returns the classification name, or "" before classification.
func (t *Tile) BiomeName() string {
	if t.Biome == nil {
		return ""
	}
	return t.Biome.Name
}

// IsLand reports whether the tile is in the Land band.
func (t *Tile) IsLand() bool {
	return t.Category == CategoryLand
}

// Habitable reports whether the tile is neither water nor mountain.
func (t *Tile) Habitable() bool {
	return t.Category != CategoryWater && t.Category != CategoryMountain
}

func (t *Tile) String() string {
	return fmt.Sprintf("Tile(%d,%d %s)", t.Offset.Col, t.Offset.Row, t.Category)
}
