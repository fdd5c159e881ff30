package referenceframe

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/planctx/spatialmath"
	"go.viam.com/planctx/utils"
)

// JointType enumerates the supported joint kinds.
type JointType string

const (
	// FixedJoint has no variables.
	FixedJoint JointType = "fixed"
	// RevoluteJoint rotates about its axis within limits.
	RevoluteJoint JointType = "revolute"
	// ContinuousJoint rotates about its axis without limits; distances wrap around.
	ContinuousJoint JointType = "continuous"
	// PrismaticJoint translates along its axis.
	PrismaticJoint JointType = "prismatic"
	// PlanarJoint moves in the XY plane: x, y, theta.
	PlanarJoint JointType = "planar"
	// FloatingJoint moves freely: x, y, z, qw, qx, qy, qz.
	FloatingJoint JointType = "floating"
)

// Joint connects a parent link to a child link.
type Joint struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	// Origin is the fixed transform from the parent link to the joint frame.
	Origin spatialmath.Pose
	// Axis is the rotation or translation axis for single-variable joints.
	Axis   r3.Vector
	Limits []Limit
}

// NewJoint returns a joint with default limits for its type.
func NewJoint(name string, jType JointType, parent, child string) *Joint {
	j := &Joint{
		Name:   name,
		Type:   jType,
		Parent: parent,
		Child:  child,
		Origin: spatialmath.NewZeroPose(),
		Axis:   r3.Vector{Z: 1},
	}
	j.Limits = DefaultLimits(jType)
	return j
}

// DefaultLimits returns the bounds used for a joint type when none are configured. Positions of
// planar and floating joints are unbounded until a planning volume is applied.
func DefaultLimits(jType JointType) []Limit {
	inf := math.Inf(1)
	switch jType {
	case RevoluteJoint, ContinuousJoint:
		return []Limit{{-math.Pi, math.Pi}}
	case PrismaticJoint:
		return []Limit{{-inf, inf}}
	case PlanarJoint:
		return []Limit{{-inf, inf}, {-inf, inf}, {-math.Pi, math.Pi}}
	case FloatingJoint:
		return []Limit{{-inf, inf}, {-inf, inf}, {-inf, inf}, {-1, 1}, {-1, 1}, {-1, 1}, {-1, 1}}
	case FixedJoint:
	}
	return nil
}

// VariableCount returns the number of state variables the joint contributes.
func (j *Joint) VariableCount() int {
	switch j.Type {
	case RevoluteJoint, ContinuousJoint, PrismaticJoint:
		return 1
	case PlanarJoint:
		return 3
	case FloatingJoint:
		return 7
	case FixedJoint:
	}
	return 0
}

// IsMultiDOF reports whether the joint's variables describe a rigid transform (planar or floating)
// rather than a single scalar.
func (j *Joint) IsMultiDOF() bool {
	return j.Type == PlanarJoint || j.Type == FloatingJoint
}

// VariableNames returns the names of the joint's variables, in order.
func (j *Joint) VariableNames() []string {
	switch j.Type {
	case PlanarJoint:
		return []string{j.Name + "/x", j.Name + "/y", j.Name + "/theta"}
	case FloatingJoint:
		return []string{
			j.Name + "/trans_x", j.Name + "/trans_y", j.Name + "/trans_z",
			j.Name + "/rot_w", j.Name + "/rot_x", j.Name + "/rot_y", j.Name + "/rot_z",
		}
	case RevoluteJoint, ContinuousJoint, PrismaticJoint:
		return []string{j.Name}
	case FixedJoint:
	}
	return nil
}

// DefaultValues returns the joint's neutral values clamped into its limits.
func (j *Joint) DefaultValues() []Input {
	vals := make([]Input, j.VariableCount())
	if j.Type == FloatingJoint {
		vals[3].Value = 1
	}
	for i, lim := range j.Limits {
		if i >= len(vals) || j.Type == FloatingJoint && i >= 3 {
			continue
		}
		vals[i].Value = utils.Clamp(vals[i].Value, lim.Min, lim.Max)
	}
	return vals
}

// Transform returns the pose of the child link relative to the parent link for the given values.
func (j *Joint) Transform(values []Input) (spatialmath.Pose, error) {
	motion, err := j.VariableTransform(values)
	if err != nil {
		return nil, err
	}
	return spatialmath.Compose(j.Origin, motion), nil
}

// VariableTransform returns the motion the joint values produce, without the joint origin.
func (j *Joint) VariableTransform(values []Input) (spatialmath.Pose, error) {
	if len(values) != j.VariableCount() {
		return nil, NewIncorrectDoFError(len(values), j.VariableCount())
	}
	var motion spatialmath.Pose
	switch j.Type {
	case RevoluteJoint, ContinuousJoint:
		aa := &spatialmath.R4AA{Theta: values[0].Value, RX: j.Axis.X, RY: j.Axis.Y, RZ: j.Axis.Z}
		motion = spatialmath.NewPose(r3.Vector{}, aa.Quaternion())
	case PrismaticJoint:
		motion = spatialmath.NewPoseFromPoint(j.Axis.Normalize().Mul(values[0].Value))
	case PlanarJoint:
		aa := &spatialmath.R4AA{Theta: values[2].Value, RZ: 1}
		motion = spatialmath.NewPose(r3.Vector{X: values[0].Value, Y: values[1].Value}, aa.Quaternion())
	case FloatingJoint:
		motion = spatialmath.NewPose(
			r3.Vector{X: values[0].Value, Y: values[1].Value, Z: values[2].Value},
			quat.Number{Real: values[3].Value, Imag: values[4].Value, Jmag: values[5].Value, Kmag: values[6].Value},
		)
	case FixedJoint:
		motion = spatialmath.NewZeroPose()
	default:
		return nil, fmt.Errorf("unsupported joint type %q", j.Type)
	}
	return motion, nil
}

// Distance returns the distance between two value sets of this joint. Continuous and planar
// rotations wrap; floating orientations use the quaternion angle.
func (j *Joint) Distance(a, b []Input) float64 {
	switch j.Type {
	case ContinuousJoint:
		return math.Abs(utils.WrapAngle(b[0].Value - a[0].Value))
	case RevoluteJoint, PrismaticJoint:
		return math.Abs(b[0].Value - a[0].Value)
	case PlanarJoint:
		return math.Hypot(b[0].Value-a[0].Value, b[1].Value-a[1].Value) +
			math.Abs(utils.WrapAngle(b[2].Value-a[2].Value))
	case FloatingJoint:
		trans := math.Sqrt(
			(b[0].Value-a[0].Value)*(b[0].Value-a[0].Value) +
				(b[1].Value-a[1].Value)*(b[1].Value-a[1].Value) +
				(b[2].Value-a[2].Value)*(b[2].Value-a[2].Value))
		return trans + spatialmath.OrientationDistance(floatingQuat(a), floatingQuat(b))
	case FixedJoint:
	}
	return 0
}

// Interpolate writes the values `by` of the way from `from` to `to` into out.
func (j *Joint) Interpolate(from, to []Input, by float64, out []Input) {
	switch j.Type {
	case ContinuousJoint:
		out[0].Value = utils.WrapAngle(from[0].Value + utils.WrapAngle(to[0].Value-from[0].Value)*by)
	case RevoluteJoint, PrismaticJoint:
		out[0].Value = from[0].Value + (to[0].Value-from[0].Value)*by
	case PlanarJoint:
		out[0].Value = from[0].Value + (to[0].Value-from[0].Value)*by
		out[1].Value = from[1].Value + (to[1].Value-from[1].Value)*by
		out[2].Value = utils.WrapAngle(from[2].Value + utils.WrapAngle(to[2].Value-from[2].Value)*by)
	case FloatingJoint:
		for i := 0; i < 3; i++ {
			out[i].Value = from[i].Value + (to[i].Value-from[i].Value)*by
		}
		q := spatialmath.Slerp(floatingQuat(from), floatingQuat(to), by)
		out[3].Value, out[4].Value, out[5].Value, out[6].Value = q.Real, q.Imag, q.Jmag, q.Kmag
	case FixedJoint:
	}
}

// EnforceBounds clamps values into the joint limits. Continuous angles are wrapped and floating
// orientations normalized.
func (j *Joint) EnforceBounds(values []Input) {
	switch j.Type {
	case ContinuousJoint:
		values[0].Value = utils.WrapAngle(values[0].Value)
		return
	case PlanarJoint:
		values[2].Value = utils.WrapAngle(values[2].Value)
		for i := 0; i < 2; i++ {
			values[i].Value = utils.Clamp(values[i].Value, j.Limits[i].Min, j.Limits[i].Max)
		}
		return
	case FloatingJoint:
		for i := 0; i < 3; i++ {
			values[i].Value = utils.Clamp(values[i].Value, j.Limits[i].Min, j.Limits[i].Max)
		}
		q := spatialmath.NormalizeQuat(floatingQuat(values))
		values[3].Value, values[4].Value, values[5].Value, values[6].Value = q.Real, q.Imag, q.Jmag, q.Kmag
		return
	case RevoluteJoint, PrismaticJoint, FixedJoint:
	}
	for i, lim := range j.Limits {
		values[i].Value = utils.Clamp(values[i].Value, lim.Min, lim.Max)
	}
}

// SatisfiesBounds reports whether all values lie within the joint limits widened by margin.
func (j *Joint) SatisfiesBounds(values []Input, margin float64) bool {
	switch j.Type {
	case ContinuousJoint:
		return true
	case PlanarJoint:
		return j.Limits[0].Contains(values[0].Value, margin) && j.Limits[1].Contains(values[1].Value, margin)
	case FloatingJoint:
		for i := 0; i < 3; i++ {
			if !j.Limits[i].Contains(values[i].Value, margin) {
				return false
			}
		}
		return math.Abs(quat.Abs(floatingQuat(values))-1) <= 1e-3+margin
	case RevoluteJoint, PrismaticJoint, FixedJoint:
	}
	for i, lim := range j.Limits {
		if !lim.Contains(values[i].Value, margin) {
			return false
		}
	}
	return true
}

// SampleUniform draws values uniformly within the joint limits into out.
func (j *Joint) SampleUniform(rnd *rand.Rand, out []Input) {
	switch j.Type {
	case ContinuousJoint:
		out[0].Value = utils.SampleRange(-math.Pi, math.Pi, rnd)
	case PlanarJoint:
		out[0].Value = utils.SampleRange(j.Limits[0].Min, j.Limits[0].Max, rnd)
		out[1].Value = utils.SampleRange(j.Limits[1].Min, j.Limits[1].Max, rnd)
		out[2].Value = utils.SampleRange(-math.Pi, math.Pi, rnd)
	case FloatingJoint:
		for i := 0; i < 3; i++ {
			out[i].Value = utils.SampleRange(j.Limits[i].Min, j.Limits[i].Max, rnd)
		}
		q := spatialmath.NormalizeQuat(quat.Number{
			Real: rnd.NormFloat64(), Imag: rnd.NormFloat64(), Jmag: rnd.NormFloat64(), Kmag: rnd.NormFloat64(),
		})
		out[3].Value, out[4].Value, out[5].Value, out[6].Value = q.Real, q.Imag, q.Jmag, q.Kmag
	case RevoluteJoint, PrismaticJoint:
		out[0].Value = utils.SampleRange(j.Limits[0].Min, j.Limits[0].Max, rnd)
	case FixedJoint:
	}
}

// MaximumExtent returns the largest distance between two values of this joint.
func (j *Joint) MaximumExtent() float64 {
	switch j.Type {
	case ContinuousJoint:
		return math.Pi
	case PlanarJoint:
		return math.Hypot(j.Limits[0].Range(), j.Limits[1].Range()) + math.Pi
	case FloatingJoint:
		return math.Sqrt(
			j.Limits[0].Range()*j.Limits[0].Range()+
				j.Limits[1].Range()*j.Limits[1].Range()+
				j.Limits[2].Range()*j.Limits[2].Range()) + math.Pi
	case RevoluteJoint, PrismaticJoint:
		return j.Limits[0].Range()
	case FixedJoint:
	}
	return 0
}

func floatingQuat(values []Input) quat.Number {
	return quat.Number{Real: values[3].Value, Imag: values[4].Value, Jmag: values[5].Value, Kmag: values[6].Value}
}
