package motionplan

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/testutils"
)

func TestStateSpaceBasics(t *testing.T) {
	ss := armSpace(t)
	test.That(t, ss.Name(), test.ShouldEqual, "arm_JointModel")
	test.That(t, ss.Dimension(), test.ShouldEqual, 3)
	test.That(t, len(ss.Bounds()), test.ShouldEqual, 3)
	test.That(t, ss.MaximumExtent(), test.ShouldAlmostEqual, math.Sqrt(3)*2*math.Pi)

	a, b := inputs(0, 0, 0), inputs(3, 4, 0)
	test.That(t, ss.Distance(a, b), test.ShouldAlmostEqual, 5.)
	mid := ss.Interpolate(a, b, 0.5)
	test.That(t, referenceframe.InputsToFloats(mid), test.ShouldResemble, []float64{1.5, 2, 0})
	test.That(t, ss.EqualStates(a, inputs(0, 0, 1e-12)), test.ShouldBeTrue)
	test.That(t, ss.EqualStates(a, b), test.ShouldBeFalse)

	out := inputs(4, -4, 1)
	test.That(t, ss.SatisfiesBounds(out), test.ShouldBeFalse)
	ss.EnforceBounds(out)
	test.That(t, ss.SatisfiesBounds(out), test.ShouldBeTrue)
	test.That(t, out[0].Value, test.ShouldAlmostEqual, math.Pi)
	test.That(t, out[1].Value, test.ShouldAlmostEqual, -math.Pi)
	test.That(t, ss.SatisfiesBounds(inputs(0, 0)), test.ShouldBeFalse)
}

func TestStateSpaceKinematicState(t *testing.T) {
	m := testutils.MakeArmModel(t)
	g, err := m.Group(testutils.ArmGroup)
	test.That(t, err, test.ShouldBeNil)
	ss := NewStateSpace(g)

	ks := referenceframe.NewKinematicState(m)
	test.That(t, ss.CopyToKinematicState(ks, inputs(0.1, 0.2, 0.3)), test.ShouldBeNil)
	test.That(t, referenceframe.InputsToFloats(ss.FromKinematicState(ks)), test.ShouldResemble, []float64{0.1, 0.2, 0.3})
	test.That(t, ss.CopyToKinematicState(ks, inputs(0.1)), test.ShouldNotBeNil)
}

func TestPlanningVolume(t *testing.T) {
	g, err := testutils.MakeMobileModel(t).Group(testutils.MobileGroup)
	test.That(t, err, test.ShouldBeNil)
	ss := NewStateSpace(g)
	test.That(t, ss.Dimension(), test.ShouldEqual, 4)

	bounds := ss.Bounds()
	test.That(t, bounds[0], test.ShouldResemble, referenceframe.Limit{Min: -1, Max: 1})
	test.That(t, bounds[1], test.ShouldResemble, referenceframe.Limit{Min: -1, Max: 1})
	test.That(t, bounds[3], test.ShouldResemble, referenceframe.Limit{Min: -math.Pi / 2, Max: math.Pi / 2})

	ss.SetPlanningVolume(r3.Vector{X: -5, Y: -2, Z: -1}, r3.Vector{X: 5, Y: 2, Z: 1})
	bounds = ss.Bounds()
	test.That(t, bounds[0], test.ShouldResemble, referenceframe.Limit{Min: -5, Max: 5})
	test.That(t, bounds[1], test.ShouldResemble, referenceframe.Limit{Min: -2, Max: 2})
	test.That(t, bounds[3], test.ShouldResemble, referenceframe.Limit{Min: -math.Pi / 2, Max: math.Pi / 2})

	// the model keeps its own limits
	base, err := g.Model().Joint("base_joint")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsInf(base.Limits[0].Max, 1), test.ShouldBeTrue)

	sampler := ss.AllocDefaultStateSampler()
	state := make([]referenceframe.Input, ss.Dimension())
	for i := 0; i < 200; i++ {
		sampler.SampleUniform(state)
		test.That(t, ss.SatisfiesBounds(state), test.ShouldBeTrue)
		test.That(t, math.Abs(state[0].Value), test.ShouldBeLessThanOrEqualTo, 5)
		test.That(t, math.Abs(state[1].Value), test.ShouldBeLessThanOrEqualTo, 2)
	}
}

type constantSampler struct {
	state []referenceframe.Input
}

func (s *constantSampler) SampleUniform(out []referenceframe.Input) {
	copy(out, s.state)
}

func (s *constantSampler) SampleUniformNear(out, near []referenceframe.Input, distance float64) {
	copy(out, s.state)
}

func TestStateSamplerAllocator(t *testing.T) {
	ss := armSpace(t)
	_, ok := ss.AllocStateSampler().(*UniformSampler)
	test.That(t, ok, test.ShouldBeTrue)

	fixed := inputs(0.5, 0.5, 0.5)
	ss.SetStateSamplerAllocator(func(*StateSpace) StateSampler { return &constantSampler{state: fixed} })
	out := make([]referenceframe.Input, 3)
	ss.AllocStateSampler().SampleUniform(out)
	test.That(t, out, test.ShouldResemble, fixed)

	// an allocator that cannot serve falls back to the default
	ss.SetStateSamplerAllocator(func(*StateSpace) StateSampler { return nil })
	_, ok = ss.AllocStateSampler().(*UniformSampler)
	test.That(t, ok, test.ShouldBeTrue)

	ss.ClearStateSamplerAllocator()
	_, ok = ss.AllocStateSampler().(*UniformSampler)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestSampleValid(t *testing.T) {
	si := armSpaceInformation(t, false)
	si.SetStateValidityChecker(StateValidityCheckerFunc(func(s []referenceframe.Input) bool { return s[0].Value > 0 }))
	out := make([]referenceframe.Input, 3)
	test.That(t, si.SampleValid(si.AllocStateSampler(), out), test.ShouldBeTrue)
	test.That(t, out[0].Value, test.ShouldBeGreaterThan, 0)

	near := inputs(1, 0, 0)
	test.That(t, si.SampleValidNear(si.AllocStateSampler(), out, near, 0.1), test.ShouldBeTrue)
	test.That(t, math.Abs(out[0].Value-1), test.ShouldBeLessThanOrEqualTo, 0.1)

	si.SetStateValidityChecker(StateValidityCheckerFunc(func([]referenceframe.Input) bool { return false }))
	si.SetValidStateSamplingAttempts(5)
	test.That(t, si.SampleValid(si.AllocStateSampler(), out), test.ShouldBeFalse)
}

func TestProjections(t *testing.T) {
	m := testutils.MakeArmModel(t)
	g, err := m.Group(testutils.ArmGroup)
	test.That(t, err, test.ShouldBeNil)
	ss := NewStateSpace(g)

	def := ss.DefaultProjection()
	test.That(t, def, test.ShouldNotBeNil)
	test.That(t, def.Dimension(), test.ShouldEqual, 2)
	out := make([]float64, 2)
	def.Project(inputs(0.1, 0.2, 0.3), out)
	test.That(t, out, test.ShouldResemble, []float64{0.1, 0.2})
	test.That(t, def.CellSizes()[0], test.ShouldAlmostEqual, 2*math.Pi/projectionCells)

	lp := NewLinkPositionProjection(ss, "tool", nil)
	ss.RegisterDefaultProjection(lp)
	test.That(t, ss.DefaultProjection(), test.ShouldEqual, lp)
	pos := make([]float64, 3)
	lp.Project(inputs(0, 0, 0), pos)
	test.That(t, pos[0], test.ShouldAlmostEqual, 3)
	test.That(t, pos[1], test.ShouldAlmostEqual, 0)
	lp.Project(inputs(math.Pi/2, 0, 0), pos)
	test.That(t, pos[0], test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, pos[1], test.ShouldAlmostEqual, 3)

	ss.RegisterProjection("j3", NewJointProjection(ss, []int{2}))
	p, ok := ss.Projection("j3")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p.Dimension(), test.ShouldEqual, 1)
	_, ok = ss.Projection("missing")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestSpaceInformationParams(t *testing.T) {
	si := NewSpaceInformation(armSpace(t), logging.NewTestLogger(t))
	test.That(t, si.Params().LongestValidSegmentFraction, test.ShouldEqual, defaultLongestValidSegmentFraction)

	unused, err := si.SetParams(Params{
		"longest_valid_segment_fraction": "0.05",
		"valid_state_sampler_attempts":   "7",
		"range":                          "0.3",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, unused, test.ShouldResemble, []string{"range"})
	test.That(t, si.Params().LongestValidSegmentFraction, test.ShouldEqual, 0.05)
	test.That(t, si.ValidStateSamplingAttempts(), test.ShouldEqual, 7)
	test.That(t, si.LongestValidSegmentLength(), test.ShouldAlmostEqual, 0.05*si.StateSpace().MaximumExtent())

	_, err = si.SetParams(Params{"longest_valid_segment_fraction": "2"})
	test.That(t, err, test.ShouldBeError, errInvalidSegmentFraction)
	_, err = si.SetParams(Params{"valid_state_sampler_attempts": "0"})
	test.That(t, err, test.ShouldBeError, errInvalidSamplingAttempts)
	_, err = si.SetParams(Params{"valid_state_sampler_attempts": "many"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, si.ValidStateSamplingAttempts(), test.ShouldEqual, 7)
}

func TestSpaceInformationValidity(t *testing.T) {
	si := armSpaceInformation(t, true)
	test.That(t, si.IsSetup(), test.ShouldBeTrue)
	test.That(t, si.IsValid(inputs(0, 0, 0)), test.ShouldBeTrue)
	test.That(t, si.IsValid(inputs(0.7, 0, 0)), test.ShouldBeFalse)
	test.That(t, si.IsValid(inputs(4, 0, 0)), test.ShouldBeFalse)

	mv := si.MotionValidator()
	mv.ResetMotionCounter()
	test.That(t, si.CheckMotion(inputs(0, 0, 0), inputs(0.5, 0, 0)), test.ShouldBeTrue)
	test.That(t, si.CheckMotion(inputs(0, 0, 0), inputs(1.5, 0, 0)), test.ShouldBeFalse)
	test.That(t, si.CheckMotion(inputs(0, 1.2, 0), inputs(1.5, 1.2, 0)), test.ShouldBeTrue)
	test.That(t, mv.ValidMotionCount(), test.ShouldEqual, 2)
	test.That(t, mv.InvalidMotionCount(), test.ShouldEqual, 1)

	ok, last, frac := mv.CheckMotionPartial(inputs(0, 0, 0), inputs(1.5, 0, 0))
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, last[0].Value, test.ShouldBeLessThan, 0.6)
	test.That(t, frac, test.ShouldBeLessThan, 0.4)
	mv.ResetMotionCounter()
	test.That(t, mv.InvalidMotionCount(), test.ShouldEqual, 0)

	empty, err := referenceframe.NewModel("empty", "base", nil, map[string][]string{"none": {}})
	test.That(t, err, test.ShouldBeNil)
	g, err := empty.Group("none")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, NewSpaceInformation(NewStateSpace(g), logging.NewTestLogger(t)).Setup(), test.ShouldBeError, errZeroDimensionalSpace)
}
