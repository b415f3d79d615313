package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/talgya/hexgen/internal/world"
)

type fakeCanvas struct {
	w, h  int
	cells map[[2]int]rune
	shown int
}

func newFakeCanvas(w, h int) *fakeCanvas {
	return &fakeCanvas{w: w, h: h, cells: make(map[[2]int]rune)}
}

func (c *fakeCanvas) Clear() { c.cells = make(map[[2]int]rune) }
func (c *fakeCanvas) Show() { c.shown++ }
func (c *fakeCanvas) Size() (int, int) { return c.w, c.h }
func (c *fakeCanvas) SetContent(x, y int, r rune, _ tcell.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[[2]int{x, y}] = r
}

func TestScreenPosStaggersOddRows(t *testing.T) {
	tests := []struct {
		coord world.OffsetCoord
		x, y  int
	}{
		{world.OffsetCoord{Col: 0, Row: 0}, 0, 0},
		{world.OffsetCoord{Col: 0, Row: 1}, 1, 1},
		{world.OffsetCoord{Col: 3, Row: 2}, 6, 2},
		{world.OffsetCoord{Col: 3, Row: 3}, 7, 3},
	}
	for _, tt := range tests {
		x, y := ScreenPos(tt.coord)
		if x != tt.x || y != tt.y {
			t.Errorf("ScreenPos(%v) = %d,%d, want %d,%d", tt.coord, x, y, tt.x, tt.y)
		}
	}
}

func TestTileGlyphPriority(t *testing.T) {
	g := world.NewGrid(1, 1)
	tile := g.At(0, 0)
	tile.Category = world.CategoryLand
	tile.Biome = &world.Biome{Name: "forest"}

	if r, _ := TileGlyph(tile); r != 'f' {
		t.Fatalf("plain land glyph = %q, want 'f'", r)
	}
	tile.HasVegetation = true
	if r, _ := TileGlyph(tile); r != '♣' {
		t.Fatalf("vegetation glyph = %q", r)
	}
	tile.HasRiver = true
	if r, _ := TileGlyph(tile); r != '~' {
		t.Fatalf("river glyph = %q", r)
	}
	tile.Settlement = world.SettlementTown
	if r, _ := TileGlyph(tile); r != 'T' {
		t.Fatalf("settlement glyph = %q", r)
	}
	tile.IsStartingLocation = true
	if r, _ := TileGlyph(tile); r != '@' {
		t.Fatalf("start glyph = %q", r)
	}
}

func TestRenderDrawsEveryVisibleTile(t *testing.T) {
	g := world.NewGrid(4, 3)
	for _, tile := range g.Tiles() {
		tile.Category = world.CategoryWater
	}

	canvas := newFakeCanvas(20, 10)
	r := NewRenderer(canvas)
	r.Render(g, "status")

	for _, tile := range g.Tiles() {
		x, y := ScreenPos(tile.Offset)
		if got := canvas.cells[[2]int{x, y}]; got != '≈' {
			t.Fatalf("tile %v drew %q at %d,%d", tile.Offset, got, x, y)
		}
	}
	if canvas.cells[[2]int{0, 9}] != 's' {
		t.Fatal("status line not drawn on last row")
	}
	if canvas.shown != 1 {
		t.Fatalf("Show called %d times", canvas.shown)
	}
}

func TestPanClampsToGrid(t *testing.T) {
	g := world.NewGrid(5, 5)
	r := NewRenderer(newFakeCanvas(10, 10))

	r.Pan(g, -3, -3)
	if r.OffsetCol != 0 || r.OffsetRow != 0 {
		t.Fatalf("pan below zero: %d,%d", r.OffsetCol, r.OffsetRow)
	}
	r.Pan(g, 10, 2)
	if r.OffsetCol != 4 || r.OffsetRow != 2 {
		t.Fatalf("pan = %d,%d, want 4,2", r.OffsetCol, r.OffsetRow)
	}
}
