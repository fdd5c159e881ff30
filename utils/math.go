package utils

import (
	"math"
	"math/rand"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// WrapAngle maps an angle in radians onto (-pi, pi].
func WrapAngle(rad float64) float64 {
	wrapped := math.Mod(rad+math.Pi, 2*math.Pi)
	if wrapped <= 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

func MinInt(a, b int) int {
	if a > b {
		return b
	}
	return a
}

// Float64AlmostEqual compares two floats with the given absolute tolerance.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// Clamp limits val to [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}

// SampleRange draws a uniform value in [lo, hi]. A degenerate range returns lo and an unbounded
// range returns the point of it closest to zero.
func SampleRange(lo, hi float64, r *rand.Rand) float64 {
	if hi <= lo {
		return lo
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Clamp(0, lo, hi)
	}
	return lo + r.Float64()*(hi-lo)
}
