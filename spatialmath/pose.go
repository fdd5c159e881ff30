// Package spatialmath defines poses and orientation helpers used for forward kinematics and
// workspace constraints.
package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform: a point plus a unit quaternion orientation.
type Pose interface {
	Point() r3.Vector
	Orientation() quat.Number
}

type pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewPose returns a pose from a point and an orientation. The orientation is normalized.
func NewPose(point r3.Vector, orientation quat.Number) Pose {
	return &pose{point: point, orientation: NormalizeQuat(orientation)}
}

// NewPoseFromPoint returns a pose at the given point with no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &pose{point: point, orientation: NewZeroOrientation()}
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return NewPoseFromPoint(r3.Vector{})
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() quat.Number {
	return p.orientation
}

func (p *pose) String() string {
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f OW:%.4f OX:%.4f OY:%.4f OZ:%.4f}",
		p.point.X, p.point.Y, p.point.Z,
		p.orientation.Real, p.orientation.Imag, p.orientation.Jmag, p.orientation.Kmag)
}

// Compose returns the transform a * b, i.e. b expressed in the frame of a.
func Compose(a, b Pose) Pose {
	return &pose{
		point:       a.Point().Add(RotateVector(a.Orientation(), b.Point())),
		orientation: NormalizeQuat(quat.Mul(a.Orientation(), b.Orientation())),
	}
}

// PoseInverse returns the inverse of p.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(p.Orientation())
	return &pose{point: RotateVector(inv, p.Point()).Mul(-1), orientation: inv}
}

// PoseBetween returns the transform that takes a to b, such that Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// Interpolate linearly interpolates the point and slerps the orientation; by is in [0, 1].
func Interpolate(from, to Pose, by float64) Pose {
	return &pose{
		point:       from.Point().Add(to.Point().Sub(from.Point()).Mul(by)),
		orientation: Slerp(from.Orientation(), to.Orientation(), by),
	}
}

// PoseAlmostEqualEps compares the point with the given tolerance and the orientation within 1e-5 rad.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return a.Point().Sub(b.Point()).Norm() <= epsilon && QuaternionAlmostEqual(a.Orientation(), b.Orientation(), 1e-5)
}

// PoseAlmostEqual is PoseAlmostEqualEps with a 1e-8 point tolerance.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}
