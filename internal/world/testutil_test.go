package world

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

// testRun returns run state with the default tables and a silent logger.
func testRun(seed int64) *Run {
	return NewRun(seed, DefaultGenConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// landGrid returns a grid of Land tiles with uniform attributes.
func landGrid(width, height int, elevation, moisture, temperature float64) *Grid {
	g := NewGrid(width, height)
	for _, t := range g.Tiles() {
		t.Category = CategoryLand
		t.Elevation = elevation
		t.Moisture = moisture
		t.Temperature = temperature
	}
	return g
}

func hasWarning(r *Report, stage, substr string) bool {
	for _, w := range r.Warnings {
		if w.Stage == stage && strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func mustApply(t *testing.T, s Stage, g *Grid, run *Run) {
	t.Helper()
	if err := s.Apply(g, run); err != nil {
		t.Fatalf("%s: %v", s.Name(), err)
	}
}
