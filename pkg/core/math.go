package core

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Epsilon is the tolerance used for degenerate range checks
const Epsilon = 2.220446049250313e-16

// Clamp limits v to [lo, hi]. lo wins when the bounds cross.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Degenerate reports whether min and max are closer than Epsilon
func Degenerate(min, max float64) bool {
	return math.Abs(max-min) < Epsilon
}

// ApproxEqual compares floats with an absolute tolerance
func ApproxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// Finite reports whether v is neither NaN nor an infinity
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
