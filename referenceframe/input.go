package referenceframe

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Input is one variable of a kinematic state, e.g. a joint angle or a prismatic offset.
//   - revolute inputs are in radians.
//   - prismatic and planar/floating positions are in model units.
type Input struct {
	Value float64
}

// Limit is the [Min, Max] bound of one variable.
type Limit struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the limit widened by margin on each side.
func (l Limit) Contains(v, margin float64) bool {
	return v >= l.Min-margin && v <= l.Max+margin
}

// Range returns Max - Min.
func (l Limit) Range() float64 {
	return l.Max - l.Min
}

// Bounded reports whether both ends of the limit are finite.
func (l Limit) Bounded() bool {
	return !math.IsInf(l.Min, 0) && !math.IsInf(l.Max, 0)
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, f := range inputs {
		floats[i] = f.Value
	}
	return floats
}

// CopyInputs returns a copy of the given inputs.
func CopyInputs(inputs []Input) []Input {
	out := make([]Input, len(inputs))
	copy(out, inputs)
	return out
}

// InterpolateInputs returns the inputs that are the specified fraction between the two given sets of
// inputs. Setting by to 0.5 returns the inputs halfway between from and to.
func InterpolateInputs(from, to []Input, by float64) []Input {
	newVals := make([]Input, 0, len(from))
	for i, j1 := range from {
		newVals = append(newVals, Input{j1.Value + ((to[i].Value - j1.Value) * by)})
	}
	return newVals
}

// InputsL2Distance returns the two-norm between two Input sets.
func InputsL2Distance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	diff := make([]float64, 0, len(from))
	for i, f := range from {
		diff = append(diff, f.Value-to[i].Value)
	}
	return floats.Norm(diff, 2)
}

// InputsString formats inputs compactly for log lines.
func InputsString(inputs []Input) string {
	parts := make([]string, 0, len(inputs))
	for _, in := range inputs {
		parts = append(parts, fmt.Sprintf("%.4f", in.Value))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
