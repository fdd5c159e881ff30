package kinematicconstraints_test

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	kc "go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/spatialmath"
	"go.viam.com/planctx/testutils"
)

func TestMergeConstraints(t *testing.T) {
	first := &kc.Constraints{
		Name: "goal",
		JointConstraints: []kc.JointConstraint{
			{JointName: "j1", Position: 0, ToleranceAbove: 1, ToleranceBelow: 1, Weight: 1},
			{JointName: "j2", Position: 0, ToleranceAbove: 0.1, ToleranceBelow: 0.1, Weight: 1},
		},
		PositionConstraints: []kc.PositionConstraint{{LinkName: "tool"}},
	}
	second := &kc.Constraints{
		Name: "path",
		JointConstraints: []kc.JointConstraint{
			{JointName: "j1", Position: 0.5, ToleranceAbove: 1, ToleranceBelow: 1, Weight: 1},
			{JointName: "j2", Position: 1, ToleranceAbove: 0.1, ToleranceBelow: 0.1, Weight: 1},
			{JointName: "j3", Position: 0.2, ToleranceAbove: 0.1, ToleranceBelow: 0.1, Weight: 1},
		},
		OrientationConstraints: []kc.OrientationConstraint{{LinkName: "tool"}},
	}

	merged, err := kc.MergeConstraints(first, second)
	test.That(t, err, test.ShouldNotBeNil)
	errs := multierr.Errors(err)
	test.That(t, errs, test.ShouldHaveLength, 1)
	var incompatible *kc.IncompatibleJointConstraintError
	test.That(t, errors.As(errs[0], &incompatible), test.ShouldBeTrue)
	test.That(t, incompatible.JointName, test.ShouldEqual, "j2")

	test.That(t, merged.Name, test.ShouldEqual, "goal+path")
	test.That(t, merged.JointConstraints, test.ShouldHaveLength, 2)
	j1 := merged.JointConstraints[0]
	test.That(t, j1.JointName, test.ShouldEqual, "j1")
	test.That(t, j1.Position, test.ShouldAlmostEqual, 0.25)
	test.That(t, j1.Position-j1.ToleranceBelow, test.ShouldAlmostEqual, -0.5)
	test.That(t, j1.Position+j1.ToleranceAbove, test.ShouldAlmostEqual, 1)
	test.That(t, merged.JointConstraints[1].JointName, test.ShouldEqual, "j3")
	test.That(t, merged.PositionConstraints, test.ShouldHaveLength, 1)
	test.That(t, merged.OrientationConstraints, test.ShouldHaveLength, 1)
	test.That(t, merged.Count(), test.ShouldEqual, 4)

	// merging with an empty description is the identity
	same, err := kc.MergeConstraints(first, &kc.Constraints{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, same, test.ShouldResemble, first)

	test.That(t, (&kc.Constraints{}).IsEmpty(), test.ShouldBeTrue)
	test.That(t, (*kc.Constraints)(nil).IsEmpty(), test.ShouldBeTrue)
	test.That(t, first.IsEmpty(), test.ShouldBeFalse)
}

func TestConstraintSetDecide(t *testing.T) {
	m := testutils.MakeArmModel(t)
	g, err := m.Group(testutils.ArmGroup)
	test.That(t, err, test.ShouldBeNil)

	cs, err := kc.NewConstraintSet(m, &kc.Constraints{
		Name: "reach",
		JointConstraints: []kc.JointConstraint{
			{JointName: "j1", Position: 0, ToleranceAbove: 0.2, ToleranceBelow: 0.2, Weight: 1},
		},
		PositionConstraints: []kc.PositionConstraint{
			{LinkName: "tool", Target: r3.Vector{X: 3}, Tolerance: r3.Vector{X: 0.1, Y: 0.5, Z: 0.1}, Weight: 1},
		},
		OrientationConstraints: []kc.OrientationConstraint{
			{LinkName: "tool", Orientation: quat.Number{Real: 1}, Tolerance: 0.5, Weight: 1},
		},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.Empty(), test.ShouldBeFalse)
	test.That(t, cs.Name(), test.ShouldEqual, "reach")
	test.That(t, cs.Constraints(), test.ShouldHaveLength, 3)
	test.That(t, cs.HasPoseConstraints(), test.ShouldBeTrue)

	state := referenceframe.NewKinematicState(m)
	res := cs.Decide(state)
	test.That(t, res.Satisfied, test.ShouldBeTrue)
	test.That(t, res.Distance, test.ShouldAlmostEqual, 0, 1e-6)

	test.That(t, state.SetGroupInputs(g, referenceframe.FloatsToInputs([]float64{0.1, 0, 0})), test.ShouldBeNil)
	res = cs.Decide(state)
	test.That(t, res.Satisfied, test.ShouldBeTrue)
	test.That(t, res.Distance, test.ShouldBeGreaterThan, 0)

	test.That(t, state.SetGroupInputs(g, referenceframe.FloatsToInputs([]float64{0, math.Pi / 2, 0})), test.ShouldBeNil)
	res = cs.Decide(state)
	test.That(t, res.Satisfied, test.ShouldBeFalse)
}

func TestConstraintSetValidation(t *testing.T) {
	m := testutils.MakeArmModel(t)
	_, err := kc.NewConstraintSet(m, &kc.Constraints{
		Name: "broken",
		JointConstraints: []kc.JointConstraint{
			{JointName: "elbow", ToleranceAbove: 1, ToleranceBelow: 1},
			{JointName: "j1", ToleranceAbove: -1},
			{JointName: "tool_mount", ToleranceAbove: 1},
		},
		PositionConstraints: []kc.PositionConstraint{{LinkName: "tool", Tolerance: r3.Vector{X: 1}}},
		OrientationConstraints: []kc.OrientationConstraint{
			{LinkName: "tool", Tolerance: 0.1},
		},
		VisibilityConstraints: []kc.VisibilityConstraint{{SensorLink: "camera", ConeHalfAngle: 1}},
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(pkgerrors.Cause(err)), test.ShouldHaveLength, 6)
	test.That(t, err.Error(), test.ShouldContainSubstring, "broken")

	empty, err := kc.NewConstraintSet(m, &kc.Constraints{Name: "nothing"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, empty.Empty(), test.ShouldBeTrue)
	test.That(t, empty.Decide(referenceframe.NewKinematicState(m)).Satisfied, test.ShouldBeTrue)
}

func TestMultiVariableJointConstraint(t *testing.T) {
	m := testutils.MakeMobileModel(t)
	_, err := kc.NewConstraintSet(m, &kc.Constraints{
		JointConstraints: []kc.JointConstraint{{JointName: "base_joint", ToleranceAbove: 1, ToleranceBelow: 1}},
	})
	test.That(t, err, test.ShouldNotBeNil)

	cs, err := kc.NewConstraintSet(m, &kc.Constraints{
		JointConstraints: []kc.JointConstraint{
			{JointName: "base_joint/theta", Position: math.Pi, ToleranceAbove: 0.1, ToleranceBelow: 0.1},
		},
	})
	test.That(t, err, test.ShouldBeNil)

	state := referenceframe.NewKinematicState(m)
	test.That(t, state.SetJointValues("base_joint", referenceframe.FloatsToInputs([]float64{0, 0, -math.Pi + 0.05})), test.ShouldBeNil)
	test.That(t, cs.Decide(state).Satisfied, test.ShouldBeTrue)
}

func TestVisibilityConstraint(t *testing.T) {
	m := testutils.MakeArmModel(t)
	cs, err := kc.NewConstraintSet(m, &kc.Constraints{
		VisibilityConstraints: []kc.VisibilityConstraint{
			{SensorLink: "tool", Target: r3.Vector{X: 3, Z: 2}, ConeHalfAngle: 0.3, MaxRange: 5},
		},
	})
	test.That(t, err, test.ShouldBeNil)
	state := referenceframe.NewKinematicState(m)
	test.That(t, cs.Decide(state).Satisfied, test.ShouldBeTrue)

	// rotating the whole arm moves the sensor away from under the target
	g, err := m.Group(testutils.ArmGroup)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, state.SetGroupInputs(g, referenceframe.FloatsToInputs([]float64{math.Pi / 2, 0, 0})), test.ShouldBeNil)
	pose, err := state.LinkPose("tool")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqualEps(pose, spatialmath.NewZeroPose(), 1e-9), test.ShouldBeFalse)
	test.That(t, cs.Decide(state).Satisfied, test.ShouldBeFalse)
}
