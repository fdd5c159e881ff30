package motionplan

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

const planTimeout = 10 * time.Second

func wallProblem(t *testing.T) (*SpaceInformation, *ProblemDefinition) {
	t.Helper()
	si := armSpaceInformation(t, true)
	pd := NewProblemDefinition(si)
	pd.SetStartAndGoalStates(inputs(0, 0, 0), inputs(1.5, 0, 0), 0.05)
	return si, pd
}

func timeout() *TerminationCondition {
	return NewTimedTerminationCondition(clock.New(), planTimeout)
}

func TestPlannersSolveAroundWall(t *testing.T) {
	utils.SetRandomSeed(42)
	for _, plannerType := range PlannerTypes() {
		t.Run(plannerType, func(t *testing.T) {
			si, pd := wallProblem(t)
			p, err := AllocatePlanner(si, plannerType, "", nil)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, p.Name(), test.ShouldEqual, plannerType)
			test.That(t, p.Type(), test.ShouldEqual, plannerType)
			p.SetProblemDefinition(pd)
			test.That(t, p.ProblemDefinition(), test.ShouldEqual, pd)
			test.That(t, p.Setup(), test.ShouldBeNil)

			sol, err := p.Solve(timeout())
			test.That(t, err, test.ShouldBeNil)
			test.That(t, sol, test.ShouldNotBeNil)
			test.That(t, sol.Approximate, test.ShouldBeFalse)
			test.That(t, sol.PlannerName, test.ShouldEqual, plannerType)
			test.That(t, sol.Path.Check(), test.ShouldBeTrue)
			test.That(t, sol.Path.State(0), test.ShouldResemble, inputs(0, 0, 0))
			ok, _ := pd.Goal().IsSatisfied(sol.Path.State(sol.Path.StateCount() - 1))
			test.That(t, ok, test.ShouldBeTrue)

			// planners leave the solution list to the caller
			test.That(t, pd.HasSolution(), test.ShouldBeFalse)
			test.That(t, p.PlanMeta().Counters(lowerFirst(plannerType)), test.ShouldNotBeNil)
		})
	}
}

func lowerFirst(s string) string {
	switch s {
	case RRTConnectType:
		return "rrtConnect"
	case RRTType:
		return "rrt"
	default:
		return "projEST"
	}
}

func TestPlannerErrors(t *testing.T) {
	si := armSpaceInformation(t, true)

	t.Run("no goal", func(t *testing.T) {
		p := NewRRTConnect(si, "")
		p.SetProblemDefinition(NewProblemDefinition(si))
		_, err := p.Solve(timeout())
		test.That(t, err, test.ShouldBeError, ErrNoGoal)
	})

	t.Run("no valid start", func(t *testing.T) {
		pd := NewProblemDefinition(si)
		pd.SetStartAndGoalStates(inputs(0.7, 0, 0), inputs(1.5, 0, 0), 0.05)
		p := NewRRT(si, "")
		p.SetProblemDefinition(pd)
		_, err := p.Solve(timeout())
		test.That(t, err, test.ShouldBeError, ErrNoStartState)
	})

	t.Run("rrt connect needs a sampleable goal", func(t *testing.T) {
		pd := NewProblemDefinition(si)
		pd.AddStartState(inputs(0, 0, 0))
		pd.SetGoal(goalFunc(func([]referenceframe.Input) (bool, float64) { return false, 1 }))
		p := NewRRTConnect(si, "")
		p.SetProblemDefinition(pd)
		_, err := p.Solve(timeout())
		test.That(t, err, test.ShouldBeError, ErrUnrecognizedGoalType)
	})

	t.Run("goal without samples", func(t *testing.T) {
		pd := NewProblemDefinition(si)
		pd.AddStartState(inputs(0, 0, 0))
		pd.SetGoal(NewGoalLazySamples(si, listSampler(), false, 0))
		p := NewRRTConnect(si, "")
		p.SetProblemDefinition(pd)
		_, err := p.Solve(timeout())
		test.That(t, err, test.ShouldBeError, ErrNoGoalSamples)
	})

	t.Run("unknown planner", func(t *testing.T) {
		_, err := AllocatePlanner(si, "PRM", "", nil)
		test.That(t, err, test.ShouldBeError, NewUnknownPlannerError("PRM"))
	})

	t.Run("bad parameters", func(t *testing.T) {
		_, err := AllocatePlanner(si, RRTType, "", Params{"goal_bias": "lots"})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

type goalFunc func([]referenceframe.Input) (bool, float64)

func (f goalFunc) IsSatisfied(state []referenceframe.Input) (bool, float64) {
	return f(state)
}

func TestApproximateSolutions(t *testing.T) {
	si := armSpaceInformation(t, true)
	pd := NewProblemDefinition(si)
	pd.AddStartState(inputs(0, 0, 0))
	// unreachable: the goal only accepts states beyond the joint limits
	pd.SetGoal(goalFunc(func(s []referenceframe.Input) (bool, float64) {
		return false, 10 - s[0].Value
	}))

	ptc := NewTerminationCondition(nil)
	iterations := 0
	ptc = Or(ptc, NewTerminationCondition(func() bool {
		iterations++
		return iterations > 300
	}))

	p := NewRRT(si, "approx")
	p.SetProblemDefinition(pd)
	sol, err := p.Solve(ptc)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldNotBeNil)
	test.That(t, sol.Approximate, test.ShouldBeTrue)
	test.That(t, sol.Difference, test.ShouldBeLessThan, 10)
	test.That(t, sol.PlannerName, test.ShouldEqual, "approx")
	test.That(t, sol.Path.Check(), test.ShouldBeTrue)

	// an invalid goal state never roots a goal tree, so the bidirectional planner returns nothing
	pd.SetStartAndGoalStates(inputs(0, 0, 0), inputs(0.75, 0.5, 0), 0.01)
	rc := NewRRTConnect(si, "")
	rc.SetProblemDefinition(pd)
	iterations = 0
	sol, err = rc.Solve(ptc)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldBeNil)
}

func TestPlannerRegistry(t *testing.T) {
	test.That(t, PlannerTypes(), test.ShouldResemble, []string{ProjESTType, RRTType, RRTConnectType})

	si := armSpaceInformation(t, false)
	p, err := AllocatePlanner(si, "geometric::RRT", "named", Params{"range": "0.5", "goal_bias": "0.2", "unknown": "1"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Name(), test.ShouldEqual, "named")
	test.That(t, p.Type(), test.ShouldEqual, RRTType)
	test.That(t, p.Params(), test.ShouldResemble, Params{"range": "0.5", "goal_bias": "0.2"})

	alloc := NewPlannerAllocator(RRTConnectType, "", Params{"range": "0.25"})
	p, err = alloc(si)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Params()["range"], test.ShouldEqual, "0.25")

	_, ok := DefaultPlanner(si, NewGoalState(si, inputs(0, 0, 0), 0.1)).(*RRTConnect)
	test.That(t, ok, test.ShouldBeTrue)
	_, ok = DefaultPlanner(si, goalFunc(func([]referenceframe.Input) (bool, float64) { return false, 0 })).(*RRT)
	test.That(t, ok, test.ShouldBeTrue)

	// range defaults to a fifth of the extent once set up
	rc := NewRRTConnect(si, "")
	test.That(t, rc.Setup(), test.ShouldBeNil)
	range0 := rc.Params()["range"]
	test.That(t, range0, test.ShouldNotEqual, "0")

	RegisterPlanner("geometric::Custom", func(si *SpaceInformation, name string) Planner { return NewRRT(si, name) })
	p, err = AllocatePlanner(si, "Custom", "", nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Type(), test.ShouldEqual, RRTType)
	registryMu.Lock()
	delete(registry, "Custom")
	registryMu.Unlock()
}

func TestProjESTWithoutProjection(t *testing.T) {
	si := armSpaceInformation(t, false)
	si.StateSpace().RegisterDefaultProjection(nil)
	test.That(t, NewProjEST(si, "").Setup(), test.ShouldBeError, ErrNoProjection)
}
