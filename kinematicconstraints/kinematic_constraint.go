package kinematicconstraints

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/spatialmath"
	"go.viam.com/planctx/utils"
)

// defaultEpsilon widens every bound slightly so that states sampled exactly on a boundary pass.
const defaultEpsilon = 1e-9

// ConstraintType identifies the kind of a KinematicConstraint.
type ConstraintType string

// The supported constraint kinds.
const (
	JointType       ConstraintType = "joint"
	PositionType    ConstraintType = "position"
	OrientationType ConstraintType = "orientation"
	VisibilityType  ConstraintType = "visibility"
)

// Result is the outcome of evaluating a constraint on a state. Distance is zero when the state
// is exactly at the constraint's target and grows with the violation or deviation.
type Result struct {
	Satisfied bool
	Distance  float64
}

// KinematicConstraint is one constraint bound to a model.
type KinematicConstraint interface {
	Type() ConstraintType
	Decide(state *referenceframe.KinematicState) Result
	String() string
}

type jointKinematicConstraint struct {
	desc      JointConstraint
	joint     *referenceframe.Joint
	varOffset int
	wraps     bool
	low, high float64
}

func newJointKinematicConstraint(m *referenceframe.Model, jc JointConstraint) (*jointKinematicConstraint, error) {
	if jc.ToleranceAbove < 0 || jc.ToleranceBelow < 0 {
		return nil, fmt.Errorf("joint constraint on %q has a negative tolerance", jc.JointName)
	}
	jointName, variable, hasVariable := strings.Cut(jc.JointName, "/")
	joint, err := m.Joint(jointName)
	if err != nil {
		return nil, err
	}
	if joint.VariableCount() == 0 {
		return nil, fmt.Errorf("joint constraint on %q names a joint without variables", jc.JointName)
	}

	offset := 0
	switch {
	case hasVariable:
		offset = -1
		for i, name := range joint.VariableNames() {
			if name == jc.JointName {
				offset = i
				break
			}
		}
		if offset < 0 {
			return nil, fmt.Errorf("joint %q has no variable %q", jointName, variable)
		}
	case joint.VariableCount() != 1:
		return nil, fmt.Errorf("joint constraint on multi-variable joint %q must name a variable", jc.JointName)
	}

	wraps := joint.Type == referenceframe.ContinuousJoint ||
		joint.Type == referenceframe.PlanarJoint && offset == 2
	return &jointKinematicConstraint{
		desc:      jc,
		joint:     joint,
		varOffset: offset,
		wraps:     wraps,
		low:       jc.Position - jc.ToleranceBelow,
		high:      jc.Position + jc.ToleranceAbove,
	}, nil
}

func (c *jointKinematicConstraint) Type() ConstraintType {
	return JointType
}

func (c *jointKinematicConstraint) Decide(state *referenceframe.KinematicState) Result {
	values, err := state.JointValues(c.joint.Name)
	if err != nil {
		return Result{Satisfied: false, Distance: math.Inf(1)}
	}
	v := values[c.varOffset].Value
	diff := v - c.desc.Position
	if c.wraps {
		diff = utils.WrapAngle(diff)
	}
	satisfied := diff <= c.desc.ToleranceAbove+defaultEpsilon && -diff <= c.desc.ToleranceBelow+defaultEpsilon
	return Result{Satisfied: satisfied, Distance: math.Abs(diff)}
}

func (c *jointKinematicConstraint) String() string {
	return fmt.Sprintf("joint %s in [%.4f, %.4f]", c.desc.JointName, c.low, c.high)
}

type positionKinematicConstraint struct {
	desc PositionConstraint
}

func newPositionKinematicConstraint(m *referenceframe.Model, pc PositionConstraint) (*positionKinematicConstraint, error) {
	if !m.HasLink(pc.LinkName) {
		return nil, referenceframe.NewLinkMissingError(pc.LinkName)
	}
	if pc.Tolerance.X <= 0 || pc.Tolerance.Y <= 0 || pc.Tolerance.Z <= 0 {
		return nil, fmt.Errorf("position constraint on %q needs a positive tolerance on every axis", pc.LinkName)
	}
	return &positionKinematicConstraint{desc: pc}, nil
}

func (c *positionKinematicConstraint) Type() ConstraintType {
	return PositionType
}

func (c *positionKinematicConstraint) Decide(state *referenceframe.KinematicState) Result {
	pose, err := state.LinkPose(c.desc.LinkName)
	if err != nil {
		return Result{Satisfied: false, Distance: math.Inf(1)}
	}
	delta := pose.Point().Sub(c.desc.Target)
	tol := c.desc.Tolerance
	satisfied := math.Abs(delta.X) <= tol.X+defaultEpsilon &&
		math.Abs(delta.Y) <= tol.Y+defaultEpsilon &&
		math.Abs(delta.Z) <= tol.Z+defaultEpsilon
	return Result{Satisfied: satisfied, Distance: delta.Norm()}
}

func (c *positionKinematicConstraint) String() string {
	return fmt.Sprintf("position of %s within %v of %v", c.desc.LinkName, c.desc.Tolerance, c.desc.Target)
}

type orientationKinematicConstraint struct {
	desc   OrientationConstraint
	target quat.Number
}

func newOrientationKinematicConstraint(m *referenceframe.Model, oc OrientationConstraint) (*orientationKinematicConstraint, error) {
	if !m.HasLink(oc.LinkName) {
		return nil, referenceframe.NewLinkMissingError(oc.LinkName)
	}
	if oc.Tolerance < 0 {
		return nil, fmt.Errorf("orientation constraint on %q has a negative tolerance", oc.LinkName)
	}
	if quat.Abs(oc.Orientation) == 0 {
		return nil, fmt.Errorf("orientation constraint on %q has a zero quaternion", oc.LinkName)
	}
	return &orientationKinematicConstraint{desc: oc, target: spatialmath.NormalizeQuat(oc.Orientation)}, nil
}

func (c *orientationKinematicConstraint) Type() ConstraintType {
	return OrientationType
}

func (c *orientationKinematicConstraint) Decide(state *referenceframe.KinematicState) Result {
	pose, err := state.LinkPose(c.desc.LinkName)
	if err != nil {
		return Result{Satisfied: false, Distance: math.Inf(1)}
	}
	angle := spatialmath.OrientationDistance(pose.Orientation(), c.target)
	return Result{Satisfied: angle <= c.desc.Tolerance+1e-6, Distance: angle}
}

func (c *orientationKinematicConstraint) String() string {
	return fmt.Sprintf("orientation of %s within %.4f rad", c.desc.LinkName, c.desc.Tolerance)
}

type visibilityKinematicConstraint struct {
	desc VisibilityConstraint
}

func newVisibilityKinematicConstraint(m *referenceframe.Model, vc VisibilityConstraint) (*visibilityKinematicConstraint, error) {
	if !m.HasLink(vc.SensorLink) {
		return nil, referenceframe.NewLinkMissingError(vc.SensorLink)
	}
	if vc.ConeHalfAngle <= 0 || vc.ConeHalfAngle > math.Pi {
		return nil, errors.New("visibility constraint cone half angle must be in (0, pi]")
	}
	return &visibilityKinematicConstraint{desc: vc}, nil
}

func (c *visibilityKinematicConstraint) Type() ConstraintType {
	return VisibilityType
}

func (c *visibilityKinematicConstraint) Decide(state *referenceframe.KinematicState) Result {
	pose, err := state.LinkPose(c.desc.SensorLink)
	if err != nil {
		return Result{Satisfied: false, Distance: math.Inf(1)}
	}
	toTarget := c.desc.Target.Sub(pose.Point())
	rng := toTarget.Norm()
	if rng == 0 {
		return Result{Satisfied: true, Distance: 0}
	}
	axis := spatialmath.RotateVector(pose.Orientation(), r3.Vector{Z: 1})
	angle := axis.Angle(toTarget).Radians()
	satisfied := angle <= c.desc.ConeHalfAngle+defaultEpsilon
	if c.desc.MaxRange > 0 && rng > c.desc.MaxRange {
		satisfied = false
	}
	return Result{Satisfied: satisfied, Distance: angle}
}

func (c *visibilityKinematicConstraint) String() string {
	return fmt.Sprintf("visibility of %v from %s", c.desc.Target, c.desc.SensorLink)
}
