package world

// RiverEdges is the set of tile edges (0-5) crossed by a river.
type RiverEdges uint8

const allEdges RiverEdges = 0x3f

// Has reports whether edge carries a river.
func (r RiverEdges) Has(edge int) bool {
	return edge >= 0 && edge < 6 && r&(1<<edge) != 0
}

// Set marks edge as carrying a river. Out of range edges are ignored.
func (r *RiverEdges) Set(edge int) {
	if edge < 0 || edge >= 6 {
		return
	}
	*r |= 1 << edge
}

// Count returns the number of connected edges.
func (r RiverEdges) Count() int {
	n := 0
	for e := 0; e < 6; e++ {
		if r.Has(e) {
			n++
		}
	}
	return n
}

// Rotate shifts every connection steps edges clockwise: the result has edge
// i set when r has edge i-steps set.
func (r RiverEdges) Rotate(steps int) RiverEdges {
	steps = ((steps % 6) + 6) % 6
	return ((r << steps) | (r >> (6 - steps))) & allEdges
}

// Bools expands the set into one flag per edge.
func (r RiverEdges) Bools() [6]bool {
	var out [6]bool
	for e := range out {
		out[e] = r.Has(e)
	}
	return out
}

// RiverEdgesOf builds a set from edge indices.
func RiverEdgesOf(edges ...int) RiverEdges {
	var r RiverEdges
	for _, e := range edges {
		r.Set(e)
	}
	return r
}

// RiverPattern is a canonical river tile shape. A renderer picks a model by
// Name and turns it by the rotation MatchRiverPattern returns.
type RiverPattern struct {
	Name  string     `json:"name"`
	Edges RiverEdges `json:"edges"`
}

// DefaultRiverPatterns covers every non-empty connection set up to rotation.
var DefaultRiverPatterns = []RiverPattern{
	{Name: "source", Edges: RiverEdgesOf(0)},
	{Name: "straight", Edges: RiverEdgesOf(0, 3)},
	{Name: "bend", Edges: RiverEdgesOf(0, 2)},
	{Name: "sharp_bend", Edges: RiverEdgesOf(0, 1)},
	{Name: "fork", Edges: RiverEdgesOf(0, 2, 4)},
	{Name: "t_junction_tight", Edges: RiverEdgesOf(0, 1, 2)},
	{Name: "t_junction_left", Edges: RiverEdgesOf(0, 1, 3)},
	{Name: "t_junction_right", Edges: RiverEdgesOf(0, 2, 3)},
	{Name: "four_way", Edges: RiverEdgesOf(0, 1, 2, 3)},
	{Name: "four_way_split", Edges: RiverEdgesOf(0, 1, 2, 4)},
	{Name: "four_way_cross", Edges: RiverEdgesOf(0, 1, 3, 4)},
	{Name: "five_way", Edges: RiverEdgesOf(0, 1, 2, 3, 4)},
	{Name: "full", Edges: allEdges},
}

// MatchRiverPattern finds the first pattern in patterns that equals edges
// after some rotation, trying rotations 0 through 5 in order.
func MatchRiverPattern(edges RiverEdges, patterns []RiverPattern) (RiverPattern, int, bool) {
	for _, p := range patterns {
		for steps := 0; steps < 6; steps++ {
			if p.Edges.Rotate(steps) == edges {
				return p, steps, true
			}
		}
	}
	return RiverPattern{}, 0, false
}
