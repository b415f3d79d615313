package world

import (
	"math"
	"math/rand"

	"golang.org/x/exp/constraints"
)

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*clamp(t, 0, 1)
}

// inverseLerp returns where v sits between a and b, clamped to [0, 1].
// A zero-width range maps to 0.
func inverseLerp[T constraints.Float](a, b, v T) T {
	if a == b {
		return 0
	}
	return clamp((v-a)/(b-a), 0, 1)
}

// randRange returns a uniform float in [lo, hi).
func randRange(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// randIntRange returns a uniform int in [lo, hi).
func randIntRange(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo)
}

// randIntInclusive returns a uniform int in [lo, hi].
func randIntInclusive(rng *rand.Rand, lo, hi int) int {
	return randIntRange(rng, lo, hi+1)
}

// gridDistance is the straight-line distance between two offset addresses.
func gridDistance(a, b OffsetCoord) float64 {
	dx := float64(a.Col - b.Col)
	dy := float64(a.Row - b.Row)
	return math.Sqrt(dx*dx + dy*dy)
}
