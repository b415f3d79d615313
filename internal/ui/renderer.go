package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/talgya/hexgen/internal/world"
)

// Renderer draws a grid as one glyph per tile. Odd rows are indented by one
// cell so the staggered layout reads as hexes.
type Renderer struct {
	canvas Canvas

	// Viewport origin in tiles.
	OffsetCol int
	OffsetRow int
}

// NewRenderer creates a new renderer for the given canvas.
func NewRenderer(canvas Canvas) *Renderer {
	return &Renderer{canvas: canvas}
}

// ScreenPos returns the terminal cell for a tile, ignoring the viewport.
func ScreenPos(o world.OffsetCoord) (x, y int) {
	x = o.Col * 2
	if o.Row%2 == 1 {
		x++
	}
	return x, o.Row
}

// Pan moves the viewport, keeping its origin inside the grid.
func (r *Renderer) Pan(g *world.Grid, dCol, dRow int) {
	r.OffsetCol = min(max(r.OffsetCol+dCol, 0), max(g.Width-1, 0))
	r.OffsetRow = min(max(r.OffsetRow+dRow, 0), max(g.Height-1, 0))
}

// Render draws the visible part of the grid plus a status line.
func (r *Renderer) Render(g *world.Grid, status string) {
	r.canvas.Clear()
	width, height := r.canvas.Size()
	mapHeight := height - 1

	originX, _ := ScreenPos(world.OffsetCoord{Col: r.OffsetCol})
	for _, t := range g.Tiles() {
		if t.Offset.Row < r.OffsetRow || t.Offset.Col < r.OffsetCol {
			continue
		}
		x, y := ScreenPos(t.Offset)
		x -= originX
		y -= r.OffsetRow
		if x >= width || y >= mapHeight {
			continue
		}
		glyph, style := TileGlyph(t)
		r.canvas.SetContent(x, y, glyph, style)
	}

	r.RenderMessage(status, height-1)
	r.canvas.Show()
}

// RenderMessage displays a message on row y.
func (r *Renderer) RenderMessage(msg string, y int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for i, ch := range []rune(msg) {
		r.canvas.SetContent(i, y, ch, style)
	}
}

var settlementGlyphs = map[world.SettlementType]rune{
	world.SettlementCity:    'C',
	world.SettlementTown:    'T',
	world.SettlementVillage: 'V',
	world.SettlementHamlet:  'h',
}

var biomeColors = map[string]tcell.Color{
	"tundra":     tcell.ColorWhite,
	"taiga":      tcell.ColorDarkCyan,
	"steppe":     tcell.ColorTan,
	"grassland":  tcell.ColorLightGreen,
	"forest":     tcell.ColorGreen,
	"savanna":    tcell.ColorOlive,
	"desert":     tcell.ColorYellow,
	"rainforest": tcell.ColorDarkGreen,
}

// TileGlyph picks the rune and style for a tile. Markers win over terrain:
// start, settlement, river, mountain, vegetation, then biome initial.
func TileGlyph(t *world.Tile) (rune, tcell.Style) {
	base := tcell.StyleDefault

	switch {
	case t.IsStartingLocation:
		return '@', base.Foreground(tcell.ColorFuchsia).Bold(true)
	case t.Settlement != world.SettlementNone:
		return settlementGlyphs[t.Settlement], base.Foreground(tcell.ColorGold).Bold(true)
	case t.Category == world.CategoryWater:
		return '≈', base.Foreground(tcell.ColorBlue)
	case t.HasRiver:
		return '~', base.Foreground(tcell.ColorAqua)
	case t.Category == world.CategoryMountain:
		if t.Mountain == world.MountainHigh {
			return '^', base.Foreground(tcell.ColorWhite).Bold(true)
		}
		return '^', base.Foreground(tcell.ColorGray)
	case t.HasVegetation:
		return '♣', base.Foreground(tcell.ColorGreen)
	}

	name := t.BiomeName()
	if name == "" {
		return '?', base.Foreground(tcell.ColorRed)
	}
	color, ok := biomeColors[name]
	if !ok {
		color = tcell.ColorGray
	}
	return []rune(name)[0], base.Foreground(color)
}

// Legend returns the one-line key shown under the map.
func Legend(g *world.Grid, seed int64) string {
	return fmt.Sprintf("seed %d  %dx%d  ≈ water  ~ river  ^ mountain  ♣ vegetation  C/T/V/h settlement  @ start  arrows pan  n new  q quit",
		seed, g.Width, g.Height)
}
