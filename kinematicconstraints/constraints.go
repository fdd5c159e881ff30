// Package kinematicconstraints defines constraint descriptions for planning requests and the
// evaluated constraint sets built from them.
package kinematicconstraints

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"
)

// JointConstraint bounds one joint variable to [Position - ToleranceBelow, Position + ToleranceAbove].
// JointName may name a single-variable joint or a variable of a multi-variable joint, e.g.
// "base_joint/theta".
type JointConstraint struct {
	JointName      string  `json:"joint_name"`
	Position       float64 `json:"position"`
	ToleranceAbove float64 `json:"tolerance_above"`
	ToleranceBelow float64 `json:"tolerance_below"`
	Weight         float64 `json:"weight"`
}

// PositionConstraint requires the origin of a link to lie in the axis-aligned box centered at
// Target with half extents Tolerance, in the model frame.
type PositionConstraint struct {
	LinkName  string    `json:"link_name"`
	Target    r3.Vector `json:"target"`
	Tolerance r3.Vector `json:"tolerance"`
	Weight    float64   `json:"weight"`
}

// OrientationConstraint requires the orientation of a link to be within Tolerance radians of
// Orientation, in the model frame.
type OrientationConstraint struct {
	LinkName    string      `json:"link_name"`
	Orientation quat.Number `json:"orientation"`
	Tolerance   float64     `json:"tolerance"`
	Weight      float64     `json:"weight"`
}

// VisibilityConstraint requires Target to lie inside the cone along the +Z axis of SensorLink with
// the given half angle, and within MaxRange when MaxRange is positive.
type VisibilityConstraint struct {
	SensorLink    string    `json:"sensor_link"`
	Target        r3.Vector `json:"target"`
	ConeHalfAngle float64   `json:"cone_half_angle"`
	MaxRange      float64   `json:"max_range"`
	Weight        float64   `json:"weight"`
}

// Constraints is a named collection of constraint descriptions. An empty description imposes no
// restriction.
type Constraints struct {
	Name                   string                  `json:"name"`
	JointConstraints       []JointConstraint       `json:"joint_constraints,omitempty"`
	PositionConstraints    []PositionConstraint    `json:"position_constraints,omitempty"`
	OrientationConstraints []OrientationConstraint `json:"orientation_constraints,omitempty"`
	VisibilityConstraints  []VisibilityConstraint  `json:"visibility_constraints,omitempty"`
}

// IsEmpty reports whether the description contains no constraints.
func (c *Constraints) IsEmpty() bool {
	return c == nil || len(c.JointConstraints) == 0 && len(c.PositionConstraints) == 0 &&
		len(c.OrientationConstraints) == 0 && len(c.VisibilityConstraints) == 0
}

// Count returns the number of constraints in the description.
func (c *Constraints) Count() int {
	if c == nil {
		return 0
	}
	return len(c.JointConstraints) + len(c.PositionConstraints) +
		len(c.OrientationConstraints) + len(c.VisibilityConstraints)
}

// Copy returns a deep copy of the description.
func (c *Constraints) Copy() *Constraints {
	if c == nil {
		return &Constraints{}
	}
	return &Constraints{
		Name:                   c.Name,
		JointConstraints:       append([]JointConstraint(nil), c.JointConstraints...),
		PositionConstraints:    append([]PositionConstraint(nil), c.PositionConstraints...),
		OrientationConstraints: append([]OrientationConstraint(nil), c.OrientationConstraints...),
		VisibilityConstraints:  append([]VisibilityConstraint(nil), c.VisibilityConstraints...),
	}
}

// IncompatibleJointConstraintError is returned by MergeConstraints for every joint whose two
// constraints do not overlap. Both constraints on that joint are discarded.
type IncompatibleJointConstraintError struct {
	JointName string
}

func (e *IncompatibleJointConstraintError) Error() string {
	return fmt.Sprintf("attempted to merge incompatible constraints for joint %q, discarding constraint", e.JointName)
}

// MergeConstraints combines two descriptions. Joint constraints on the same joint are intersected,
// with the new position the weight-averaged position clamped into the intersection. All other
// constraints are concatenated. The merged description is always usable; the returned error lists
// joints whose constraints were discarded because they did not overlap.
func MergeConstraints(first, second *Constraints) (*Constraints, error) {
	if first == nil {
		first = &Constraints{}
	}
	if second == nil {
		second = &Constraints{}
	}
	merged := &Constraints{Name: mergedName(first.Name, second.Name)}

	var errs error
	for _, a := range first.JointConstraints {
		matched := false
		for _, b := range second.JointConstraints {
			if a.JointName != b.JointName {
				continue
			}
			matched = true
			jc, ok := intersectJointConstraints(a, b)
			if !ok {
				errs = multierr.Append(errs, &IncompatibleJointConstraintError{JointName: a.JointName})
			} else {
				merged.JointConstraints = append(merged.JointConstraints, jc)
			}
			break
		}
		if !matched {
			merged.JointConstraints = append(merged.JointConstraints, a)
		}
	}
	for _, b := range second.JointConstraints {
		found := false
		for _, a := range first.JointConstraints {
			if a.JointName == b.JointName {
				found = true
				break
			}
		}
		if !found {
			merged.JointConstraints = append(merged.JointConstraints, b)
		}
	}

	merged.PositionConstraints = append(append(merged.PositionConstraints,
		first.PositionConstraints...), second.PositionConstraints...)
	merged.OrientationConstraints = append(append(merged.OrientationConstraints,
		first.OrientationConstraints...), second.OrientationConstraints...)
	merged.VisibilityConstraints = append(append(merged.VisibilityConstraints,
		first.VisibilityConstraints...), second.VisibilityConstraints...)
	return merged, errs
}

func intersectJointConstraints(a, b JointConstraint) (JointConstraint, bool) {
	low := math.Max(a.Position-a.ToleranceBelow, b.Position-b.ToleranceBelow)
	high := math.Min(a.Position+a.ToleranceAbove, b.Position+b.ToleranceAbove)
	if low > high {
		return JointConstraint{}, false
	}
	wa, wb := a.Weight, b.Weight
	if wa+wb <= 0 {
		wa, wb = 1, 1
	}
	pos := (a.Position*wa + b.Position*wb) / (wa + wb)
	pos = math.Max(low, math.Min(pos, high))
	return JointConstraint{
		JointName:      a.JointName,
		Position:       pos,
		ToleranceAbove: math.Max(0, high-pos),
		ToleranceBelow: math.Max(0, pos-low),
		Weight:         (a.Weight + b.Weight) / 2,
	}, true
}

func mergedName(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "+" + b
}
