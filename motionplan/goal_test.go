package motionplan

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/planctx/referenceframe"
)

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestGoalState(t *testing.T) {
	si := armSpaceInformation(t, false)
	g := NewGoalState(si, inputs(1, 0, 0), 0.1)

	ok, d := g.IsSatisfied(inputs(1.05, 0, 0))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldAlmostEqual, 0.05)
	ok, _ = g.IsSatisfied(inputs(0, 0, 0))
	test.That(t, ok, test.ShouldBeFalse)

	out := make([]referenceframe.Input, 3)
	test.That(t, g.SampleGoal(out), test.ShouldBeTrue)
	test.That(t, out, test.ShouldResemble, inputs(1, 0, 0))
	test.That(t, g.MaxSampleCount(), test.ShouldEqual, 1)
	test.That(t, g.CanSample(), test.ShouldBeTrue)
	test.That(t, g.CouldSample(), test.ShouldBeTrue)
}

func listSampler(states ...[]referenceframe.Input) GoalSamplingFunc {
	i := 0
	return func(_ *GoalLazySamples, out []referenceframe.Input) bool {
		if i >= len(states) {
			return false
		}
		copy(out, states[i])
		i++
		return true
	}
}

func TestGoalLazySamples(t *testing.T) {
	si := armSpaceInformation(t, true)
	g := NewGoalLazySamples(si, listSampler(
		inputs(1, 0, 0),
		inputs(1.0001, 0, 0), // too close to the first
		inputs(0.7, 0, 0),    // invalid
		inputs(-1, 0, 0),
	), false, 0.01)
	test.That(t, g.IsSampling(), test.ShouldBeFalse)
	test.That(t, g.CanSample(), test.ShouldBeFalse)
	test.That(t, g.CouldSample(), test.ShouldBeFalse)

	g.StartSampling()
	waitUntil(t, func() bool { return !g.IsSampling() })
	g.StopSampling()

	test.That(t, g.StateCount(), test.ShouldEqual, 2)
	test.That(t, g.SamplingAttempts(), test.ShouldEqual, 5)
	test.That(t, g.MaxSampleCount(), test.ShouldEqual, 2)

	// samples cycle through the kept states
	out := make([]referenceframe.Input, 3)
	test.That(t, g.SampleGoal(out), test.ShouldBeTrue)
	test.That(t, out, test.ShouldResemble, inputs(1, 0, 0))
	test.That(t, g.SampleGoal(out), test.ShouldBeTrue)
	test.That(t, out, test.ShouldResemble, inputs(-1, 0, 0))
	test.That(t, g.SampleGoal(out), test.ShouldBeTrue)
	test.That(t, out, test.ShouldResemble, inputs(1, 0, 0))

	ok, d := g.IsSatisfied(inputs(-1, 0, 0))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldEqual, 0)
	ok, _ = g.IsSatisfied(inputs(-1.01, 0, 0))
	test.That(t, ok, test.ShouldBeFalse)
	g.SetThreshold(0.05)
	ok, d = g.IsSatisfied(inputs(-1.01, 0, 0))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldAlmostEqual, 0.01)

	test.That(t, g.AddStateIfDifferent(inputs(0, 2, 0)), test.ShouldBeTrue)
	test.That(t, g.AddStateIfDifferent(inputs(0, 2, 0)), test.ShouldBeFalse)
	g.ClearStates()
	test.That(t, g.StateCount(), test.ShouldEqual, 0)
	ok, d = g.IsSatisfied(inputs(0, 0, 0))
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, math.IsInf(d, 1), test.ShouldBeTrue)
}

func TestGoalLazySamplesStop(t *testing.T) {
	si := armSpaceInformation(t, false)
	g := NewGoalLazySamples(si, func(_ *GoalLazySamples, out []referenceframe.Input) bool {
		si.AllocStateSampler().SampleUniform(out)
		return true
	}, true, 0.5)
	test.That(t, g.IsSampling(), test.ShouldBeTrue)
	waitUntil(t, g.CanSample)
	g.StopSampling()
	test.That(t, g.IsSampling(), test.ShouldBeFalse)
	test.That(t, g.CouldSample(), test.ShouldBeTrue)

	// stopping twice is fine, and sampling can restart
	g.StopSampling()
	g.StartSampling()
	test.That(t, g.IsSampling(), test.ShouldBeTrue)
	g.StopSampling()
}

func TestGoalUnion(t *testing.T) {
	si := armSpaceInformation(t, false)
	a := NewGoalState(si, inputs(1, 0, 0), 0.1)
	b := NewGoalState(si, inputs(-1, 0, 0), 0.1)
	lazy := NewGoalLazySamples(si, listSampler(inputs(0, 1, 0)), false, 0.01)
	u := NewGoalUnion(a, b, lazy)
	test.That(t, len(u.Members()), test.ShouldEqual, 3)

	ok, _ := u.IsSatisfied(inputs(1, 0, 0))
	test.That(t, ok, test.ShouldBeTrue)
	ok, _ = u.IsSatisfied(inputs(-1.05, 0, 0))
	test.That(t, ok, test.ShouldBeTrue)
	ok, d := u.IsSatisfied(inputs(0.5, 0, 0))
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, d, test.ShouldAlmostEqual, 0.5)

	test.That(t, u.MaxSampleCount(), test.ShouldEqual, 2)
	test.That(t, u.CanSample(), test.ShouldBeTrue)
	out := make([]referenceframe.Input, 3)
	seen := map[float64]bool{}
	for i := 0; i < 4; i++ {
		test.That(t, u.SampleGoal(out), test.ShouldBeTrue)
		seen[out[0].Value] = true
	}
	test.That(t, seen[1], test.ShouldBeTrue)
	test.That(t, seen[-1], test.ShouldBeTrue)

	// start and stop reach the lazy member
	u.StartSampling()
	waitUntil(t, func() bool { return lazy.StateCount() == 1 })
	u.StopSampling()
	test.That(t, u.IsSampling(), test.ShouldBeFalse)
	test.That(t, u.MaxSampleCount(), test.ShouldEqual, 3)
	ok, _ = u.IsSatisfied(inputs(0, 1, 0))
	test.That(t, ok, test.ShouldBeTrue)
}

func TestTerminationCondition(t *testing.T) {
	mock := clock.NewMock()
	timed := NewTimedTerminationCondition(mock, time.Second)
	test.That(t, timed.Eval(), test.ShouldBeFalse)
	mock.Add(999 * time.Millisecond)
	test.That(t, timed.Eval(), test.ShouldBeFalse)
	mock.Add(time.Millisecond)
	test.That(t, timed.Eval(), test.ShouldBeTrue)
	test.That(t, timed.Terminated(), test.ShouldBeFalse)

	manual := NewTerminationCondition(nil)
	test.That(t, manual.Eval(), test.ShouldBeFalse)
	either := Or(manual, NewDeadlineTerminationCondition(mock, mock.Now().Add(time.Minute)))
	test.That(t, either.Eval(), test.ShouldBeFalse)
	manual.Terminate()
	test.That(t, manual.Terminated(), test.ShouldBeTrue)
	test.That(t, either.Eval(), test.ShouldBeTrue)
	test.That(t, either.Terminated(), test.ShouldBeFalse)

	ctx, cancel := context.WithCancel(context.Background())
	byCtx := NewContextTerminationCondition(ctx)
	test.That(t, byCtx.Eval(), test.ShouldBeFalse)
	cancel()
	test.That(t, byCtx.Eval(), test.ShouldBeTrue)
}
