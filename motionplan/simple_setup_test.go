package motionplan

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/planctx/logging"
)

func wallSetup(t *testing.T) *SimpleSetup {
	t.Helper()
	ss := NewSimpleSetup(armSpace(t), logging.NewTestLogger(t))
	ss.SetStateValidityChecker(StateValidityCheckerFunc(wallChecker))
	ss.SetStartState(inputs(0, 0, 0))
	ss.SetGoalState(inputs(1.5, 0, 0), 0.05)
	return ss
}

func TestSimpleSetupSolve(t *testing.T) {
	ss := wallSetup(t)
	test.That(t, ss.Planner(), test.ShouldBeNil)
	test.That(t, ss.HaveSolutionPath(), test.ShouldBeFalse)

	solved, err := ss.SolveFor(context.Background(), planTimeout)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)
	test.That(t, ss.HaveSolutionPath(), test.ShouldBeTrue)
	test.That(t, ss.HaveExactSolutionPath(), test.ShouldBeTrue)
	test.That(t, ss.LastPlanComputationTime(), test.ShouldBeGreaterThan, 0)
	_, ok := ss.Planner().(*RRTConnect)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, ss.PlanMeta().Counters("solve").Calls(), test.ShouldEqual, 1)

	path := ss.SolutionPath()
	before := path.Length()
	ss.SimplifySolutionFor(context.Background(), time.Second)
	test.That(t, ss.SolutionPath().Length(), test.ShouldBeLessThanOrEqualTo, before+1e-9)
	test.That(t, ss.SolutionPath().Check(), test.ShouldBeTrue)
	test.That(t, ss.LastSimplificationTime(), test.ShouldBeGreaterThan, 0)

	ss.Clear()
	test.That(t, ss.HaveSolutionPath(), test.ShouldBeFalse)
	ss.ClearStartStates()
	test.That(t, ss.ProblemDefinition().StartStates(), test.ShouldBeEmpty)
	_, err = ss.SolveFor(context.Background(), planTimeout)
	test.That(t, err, test.ShouldBeError, ErrNoStartState)
}

func TestSimpleSetupPlannerAllocator(t *testing.T) {
	ss := wallSetup(t)
	ss.SetPlannerAllocator(NewPlannerAllocator(RRTType, "mine", Params{"goal_bias": "0.3"}))
	test.That(t, ss.PlannerAllocator(), test.ShouldNotBeNil)
	test.That(t, ss.Setup(), test.ShouldBeNil)
	test.That(t, ss.Planner().Name(), test.ShouldEqual, "mine")
	test.That(t, ss.Planner().Params()["goal_bias"], test.ShouldEqual, "0.3")

	fixed := newFixedPlanner(ss.SpaceInformation(), "fixed", inputs(0, 0, 0), inputs(0, 1.2, 0), inputs(1.5, 1.2, 0), inputs(1.5, 0, 0))
	ss.SetPlanner(fixed)
	solved, err := ss.Solve(context.Background(), NewTerminationCondition(nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)
	test.That(t, ss.SolutionPath().StateCount(), test.ShouldEqual, 4)

	ss.SetPlannerAllocator(func(*SpaceInformation) (Planner, error) { return nil, ErrNoPlanner })
	test.That(t, ss.Setup(), test.ShouldBeError, ErrNoPlanner)
}

func TestSimpleSetupWithoutGoal(t *testing.T) {
	ss := NewSimpleSetup(armSpace(t), logging.NewTestLogger(t))
	ss.SetStartState(inputs(0, 0, 0))
	test.That(t, ss.Goal(), test.ShouldBeNil)
	test.That(t, ss.Setup(), test.ShouldBeError, ErrNoGoal)

	// simplifying without a solution only warns
	logger, logs := logging.NewObservedTestLogger(t)
	ss = NewSimpleSetup(armSpace(t), logger)
	ss.SimplifySolutionFor(context.Background(), time.Millisecond)
	test.That(t, logs.FilterMessage("no solution to simplify").Len(), test.ShouldEqual, 1)
}

func TestProblemDefinitionSolutions(t *testing.T) {
	si := armSpaceInformation(t, false)
	pd := NewProblemDefinition(si)
	long := NewPathGeometric(si, inputs(0, 0, 0), inputs(2, 0, 0))
	short := NewPathGeometric(si, inputs(0, 0, 0), inputs(1, 0, 0))

	pd.AddSolutionPath(nil)
	test.That(t, pd.HasSolution(), test.ShouldBeFalse)

	pd.AddSolutionPath(&Solution{Path: short, Approximate: true, Difference: 0.5})
	test.That(t, pd.HasApproximateSolution(), test.ShouldBeTrue)
	test.That(t, pd.HasExactSolution(), test.ShouldBeFalse)
	pd.AddSolutionPath(&Solution{Path: long, Approximate: true, Difference: 0.1})
	test.That(t, pd.SolutionPath(), test.ShouldEqual, long)
	pd.AddSolutionPath(&Solution{Path: long})
	pd.AddSolutionPath(&Solution{Path: short})
	test.That(t, pd.SolutionPath(), test.ShouldEqual, short)
	test.That(t, pd.HasExactSolution(), test.ShouldBeTrue)
	test.That(t, pd.HasApproximateSolution(), test.ShouldBeFalse)

	sols := pd.Solutions()
	test.That(t, len(sols), test.ShouldEqual, 4)
	test.That(t, sols[1].Path, test.ShouldEqual, long)
	test.That(t, sols[2].Difference, test.ShouldEqual, 0.1)

	pd.ClearSolutionPaths()
	test.That(t, pd.SolutionCount(), test.ShouldEqual, 0)
	test.That(t, pd.SolutionPath(), test.ShouldBeNil)
}

func TestFixInvalidInputStates(t *testing.T) {
	si := armSpaceInformation(t, true)
	pd := NewProblemDefinition(si)
	pd.SetStartAndGoalStates(inputs(0.61, 0.5, 0), inputs(0.89, 0.5, 0), 0.01)
	test.That(t, pd.FixInvalidInputStates(0.001, 0.001, 100), test.ShouldBeFalse)
	test.That(t, pd.FixInvalidInputStates(0.6, 0.6, 1000), test.ShouldBeTrue)

	start := pd.StartStates()[0]
	test.That(t, si.IsValid(start), test.ShouldBeTrue)
	goal := pd.Goal().(*GoalState).State()
	test.That(t, si.IsValid(goal), test.ShouldBeTrue)
	test.That(t, si.Distance(goal, inputs(0.89, 0.5, 0)), test.ShouldBeLessThanOrEqualTo, 0.6*1.8)
}

func TestBenchmark(t *testing.T) {
	ss := wallSetup(t)
	b := NewBenchmark(ss, "arm_wall")
	test.That(t, b.Experiment(), test.ShouldEqual, "arm_wall")
	test.That(t, b.SaveResultsToFile(filepath.Join(t.TempDir(), "none.json")), test.ShouldNotBeNil)

	b.AddPlannerAllocator(NewPlannerAllocator(RRTConnectType, "", nil))
	b.AddPlannerAllocator(func(si *SpaceInformation) (Planner, error) {
		return newFixedPlanner(si, "fixed", inputs(0, 0, 0), inputs(0, 1.2, 0), inputs(1.5, 1.2, 0), inputs(1.5, 0, 0)), nil
	})
	results, err := b.Run(context.Background(), BenchmarkRequest{MaxTime: planTimeout, RunCount: 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Results(), test.ShouldEqual, results)
	test.That(t, results.ID, test.ShouldNotBeEmpty)
	test.That(t, len(results.Runs), test.ShouldEqual, 6)
	test.That(t, len(results.Summaries), test.ShouldEqual, 2)

	for _, s := range results.Summaries {
		test.That(t, s.Runs, test.ShouldEqual, 3)
		test.That(t, s.Solved, test.ShouldEqual, 3)
		test.That(t, s.Approximate, test.ShouldEqual, 0)
		test.That(t, s.LengthMean, test.ShouldBeGreaterThan, 0)
	}
	test.That(t, results.Summaries[1].Planner, test.ShouldEqual, "fixed")
	test.That(t, results.Summaries[1].LengthMedian, test.ShouldAlmostEqual, 1.2+1.5+1.2)

	filename := filepath.Join(t.TempDir(), "bench.json")
	test.That(t, b.SaveResultsToFile(filename), test.ShouldBeNil)
	data, err := os.ReadFile(filename)
	test.That(t, err, test.ShouldBeNil)
	var loaded BenchmarkResults
	test.That(t, json.Unmarshal(data, &loaded), test.ShouldBeNil)
	test.That(t, loaded.Experiment, test.ShouldEqual, "arm_wall")
	test.That(t, len(loaded.Runs), test.ShouldEqual, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Run(ctx, BenchmarkRequest{MaxTime: time.Second, RunCount: 1})
	test.That(t, err, test.ShouldBeError, context.Canceled)
}
