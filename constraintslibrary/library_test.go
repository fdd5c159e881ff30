package constraintslibrary

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/testutils"
)

func TestMain(m *testing.M) {
	testutils.VerifyTestMain(m)
}

func jointBand(name string) *kinematicconstraints.Constraints {
	return &kinematicconstraints.Constraints{
		Name: name,
		JointConstraints: []kinematicconstraints.JointConstraint{
			{JointName: "j1", Position: 0.5, ToleranceAbove: 0.1, ToleranceBelow: 0.1, Weight: 1},
		},
	}
}

func armSpace(t *testing.T, group string) (*referenceframe.Model, *motionplan.StateSpace) {
	t.Helper()
	m := testutils.MakeArmModel(t)
	g, err := m.Group(group)
	test.That(t, err, test.ShouldBeNil)
	return m, motionplan.NewStateSpace(g)
}

func TestCompute(t *testing.T) {
	logger := logging.NewTestLogger(t)
	m, ss := armSpace(t, testutils.ArmGroup)
	cs, err := kinematicconstraints.NewConstraintSet(m, jointBand("j1_band"))
	test.That(t, err, test.ShouldBeNil)

	lib := NewLibrary(logger)
	test.That(t, lib.GetApproximation(jointBand("j1_band")), test.ShouldBeNil)

	a, err := lib.Compute(context.Background(), ss, cs, nil, 40)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(a.States), test.ShouldEqual, 40)
	test.That(t, a.Group, test.ShouldEqual, testutils.ArmGroup)
	test.That(t, a.ID, test.ShouldNotBeEmpty)
	test.That(t, a.Attempts, test.ShouldBeGreaterThanOrEqualTo, 40)
	for _, s := range a.States {
		test.That(t, s[0], test.ShouldBeGreaterThanOrEqualTo, 0.4-1e-6)
		test.That(t, s[0], test.ShouldBeLessThanOrEqualTo, 0.6+1e-6)
	}
	test.That(t, lib.GetApproximation(jointBand("j1_band")), test.ShouldEqual, a)
	test.That(t, lib.Names(), test.ShouldResemble, []string{"j1_band"})

	t.Run("unnamed constraints", func(t *testing.T) {
		unnamed, err := kinematicconstraints.NewConstraintSet(m, jointBand(""))
		test.That(t, err, test.ShouldBeNil)
		_, err = lib.Compute(context.Background(), ss, unnamed, nil, 10)
		test.That(t, err, test.ShouldBeError, ErrUnnamedConstraints)
		test.That(t, lib.GetApproximation(jointBand("")), test.ShouldBeNil)
	})

	t.Run("no samples", func(t *testing.T) {
		_, err := lib.Compute(context.Background(), ss, cs, nil, 0)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := lib.Compute(ctx, ss, cs, nil, 10)
		test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	})

	t.Run("unsatisfiable", func(t *testing.T) {
		// outside the joint limits
		desc := &kinematicconstraints.Constraints{
			Name: "impossible",
			JointConstraints: []kinematicconstraints.JointConstraint{
				{JointName: "j2", Position: 5, ToleranceAbove: 0.1, ToleranceBelow: 0.1, Weight: 1},
			},
		}
		impossible, err := kinematicconstraints.NewConstraintSet(m, desc)
		test.That(t, err, test.ShouldBeNil)
		_, err = lib.Compute(context.Background(), ss, impossible, nil, 1)
		test.That(t, errors.Is(err, ErrEmptyApproximation), test.ShouldBeTrue)
	})
}

func TestApproximationSampler(t *testing.T) {
	_, ss := armSpace(t, testutils.ArmGroup)
	a := &Approximation{
		Group:       testutils.ArmGroup,
		Constraints: jointBand("band"),
		States:      [][]float64{{0.5, 0, 0}, {0.45, 1, 0}},
	}
	test.That(t, a.StateSamplerAllocator(jointBand("other")), test.ShouldBeNil)
	test.That(t, a.StateSamplerAllocator(nil), test.ShouldBeNil)

	alloc := a.StateSamplerAllocator(jointBand("band"))
	test.That(t, alloc, test.ShouldNotBeNil)

	_, wrist := armSpace(t, "wrist")
	test.That(t, alloc(wrist), test.ShouldBeNil)

	sampler := alloc(ss)
	test.That(t, sampler, test.ShouldNotBeNil)
	out := make([]referenceframe.Input, 3)
	for i := 0; i < 10; i++ {
		sampler.SampleUniform(out)
		test.That(t, out[0].Value == 0.5 || out[0].Value == 0.45, test.ShouldBeTrue)
	}

	// a stored state close enough to the seed is preferred
	near := referenceframe.FloatsToInputs([]float64{0.5, 0.05, 0})
	sampler.SampleUniformNear(out, near, 0.1)
	test.That(t, out, test.ShouldResemble, referenceframe.FloatsToInputs([]float64{0.5, 0, 0}))

	// otherwise the seed is perturbed
	far := referenceframe.FloatsToInputs([]float64{-2, -2, -2})
	sampler.SampleUniformNear(out, far, 0.1)
	for i := range out {
		test.That(t, out[i].Value, test.ShouldAlmostEqual, -2, 0.1)
	}

	// installed on a space, the allocator replaces the default sampler
	ss.SetStateSamplerAllocator(alloc)
	ss.AllocStateSampler().SampleUniform(out)
	test.That(t, out[0].Value == 0.5 || out[0].Value == 0.45, test.ShouldBeTrue)
}

func TestSaveLoad(t *testing.T) {
	logger := logging.NewTestLogger(t)
	lib := NewLibrary(logger)
	test.That(t, lib.Add(&Approximation{Constraints: jointBand("")}), test.ShouldBeError, ErrUnnamedConstraints)
	test.That(t, lib.Add(&Approximation{Constraints: jointBand("empty")}), test.ShouldBeError, ErrEmptyApproximation)

	a := &Approximation{Group: "arm", Constraints: jointBand("arm/band one"), States: [][]float64{{0.5, 0.1, 0.2}}}
	test.That(t, lib.Add(a), test.ShouldBeNil)
	test.That(t, a.ID, test.ShouldNotBeEmpty)

	dir := filepath.Join(t.TempDir(), "library")
	test.That(t, lib.Save(dir), test.ShouldBeNil)

	loadedLib := NewLibrary(logger)
	n, err := loadedLib.Load(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 1)
	loaded := loadedLib.GetApproximation(jointBand("arm/band one"))
	test.That(t, loaded, test.ShouldNotBeNil)
	test.That(t, loaded.ID, test.ShouldEqual, a.ID)
	test.That(t, loaded.States, test.ShouldResemble, a.States)
	test.That(t, loaded.Constraints.JointConstraints, test.ShouldResemble, a.Constraints.JointConstraints)

	_, err = loadedLib.Load(filepath.Join(t.TempDir(), "missing"))
	test.That(t, err, test.ShouldNotBeNil)
}
