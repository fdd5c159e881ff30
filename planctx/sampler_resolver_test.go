package planctx

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/planctx/constraintsamplers"
	"go.viam.com/planctx/constraintslibrary"
	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/testutils"
)

// refusingManager never has a sampler.
type refusingManager struct {
	calls int
}

func (m *refusingManager) SelectSampler(constraintsamplers.Scene, string, *kinematicconstraints.ConstraintSet) constraintsamplers.ConstraintSampler {
	m.calls++
	return nil
}

func TestResolveWithoutCollaborators(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ss := armSpace(t)
	cs, err := kinematicconstraints.NewConstraintSet(ss.Model(), jointGoal("band", 0.1, 0.5))
	test.That(t, err, test.ShouldBeNil)

	r := NewConstraintSamplerResolver(&Specification{}, logger)
	for _, set := range []*kinematicconstraints.ConstraintSet{nil, cs} {
		res := r.Resolve(ss, nil, set)
		test.That(t, res.Source, test.ShouldEqual, DefaultSamplerSource)
		test.That(t, res.Source.String(), test.ShouldEqual, "default")
		test.That(t, res.StateSampler, test.ShouldNotBeNil)
		test.That(t, res.ConstraintSampler, test.ShouldBeNil)
	}
}

func TestResolveTiers(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ss := armSpace(t)
	scene := constraintsamplers.Scene(nil)
	desc := jointGoal("band", 0.1, 0.5)
	cs, err := kinematicconstraints.NewConstraintSet(ss.Model(), desc)
	test.That(t, err, test.ShouldBeNil)

	lib := constraintslibrary.NewLibrary(logger)
	spec := &Specification{
		ConstraintSamplerManager: constraintsamplers.NewManager(logger),
		ConstraintsLibrary:       lib,
	}
	r := NewConstraintSamplerResolver(spec, logger)

	t.Run("manager needs a scene", func(t *testing.T) {
		test.That(t, r.Resolve(ss, scene, cs).Source, test.ShouldEqual, DefaultSamplerSource)
	})

	pc := newArmContext(t, spec)
	t.Run("manager", func(t *testing.T) {
		res := r.Resolve(ss, pc.samplerScene(), cs)
		test.That(t, res.Source, test.ShouldEqual, ManagerSamplerSource)
		test.That(t, res.ConstraintSampler.GroupName(), test.ShouldEqual, testutils.ArmGroup)
		test.That(t, res.StateSampler, test.ShouldBeNil)
	})

	t.Run("empty constraints skip both", func(t *testing.T) {
		empty, err := kinematicconstraints.NewConstraintSet(ss.Model(), &kinematicconstraints.Constraints{Name: "band"})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, r.Resolve(ss, pc.samplerScene(), empty).Source, test.ShouldEqual, DefaultSamplerSource)
	})

	_, err = lib.Compute(context.Background(), ss, cs, nil, 20)
	test.That(t, err, test.ShouldBeNil)

	t.Run("approximation wins", func(t *testing.T) {
		res := r.Resolve(ss, pc.samplerScene(), cs)
		test.That(t, res.Source, test.ShouldEqual, ApproximationSamplerSource)
		out := make([]referenceframe.Input, 3)
		for i := 0; i < 10; i++ {
			res.StateSampler.SampleUniform(out)
			test.That(t, cs.Decide(stateOf(t, ss.Model(), out)).Satisfied, test.ShouldBeTrue)
		}
	})

	t.Run("approximation of another group falls through", func(t *testing.T) {
		g, err := ss.Model().Group("wrist")
		test.That(t, err, test.ShouldBeNil)
		wrist := motionplan.NewStateSpace(g)
		m := &refusingManager{}
		res := NewConstraintSamplerResolver(&Specification{ConstraintSamplerManager: m, ConstraintsLibrary: lib}, logger).
			Resolve(wrist, pc.samplerScene(), cs)
		test.That(t, res.Source, test.ShouldEqual, DefaultSamplerSource)
		test.That(t, m.calls, test.ShouldEqual, 1)
	})
}

func TestGoalSamplerWithApproximation(t *testing.T) {
	desc := jointGoal("target", 0.02, 1, -1, 0.5)
	lib := constraintslibrary.NewLibrary(logging.NewTestLogger(t))
	err := lib.Add(&constraintslibrary.Approximation{
		Group:       testutils.ArmGroup,
		Constraints: desc,
		States:      [][]float64{{1, -1, 0.5}, {1.01, -0.99, 0.49}},
	})
	test.That(t, err, test.ShouldBeNil)
	pc := newArmContext(t, &Specification{ConstraintsLibrary: lib})
	test.That(t, pc.SetGoalConstraints([]*kinematicconstraints.Constraints{desc}, nil, nil), test.ShouldBeNil)
	test.That(t, pc.Configure(), test.ShouldBeNil)
	g := pc.Goal().(*ConstrainedGoalSampler)
	test.That(t, g.SamplerSource(), test.ShouldEqual, ApproximationSamplerSource)

	res, err := pc.Solve(context.Background(), planTimeout, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Solved, test.ShouldBeTrue)
	// only the two stored states can be goal states
	test.That(t, g.StateCount(), test.ShouldBeGreaterThan, 0)
	test.That(t, g.StateCount(), test.ShouldBeLessThanOrEqualTo, 2)
}

func stateOf(t *testing.T, m *referenceframe.Model, state []referenceframe.Input) *referenceframe.KinematicState {
	t.Helper()
	ks := referenceframe.NewKinematicState(m)
	g, err := m.Group(testutils.ArmGroup)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ks.SetGroupInputs(g, state), test.ShouldBeNil)
	return ks
}
