package planctx

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/planctx/motionplan"
)

// SolveResult describes what a Solve did.
type SolveResult struct {
	Solved      bool
	Approximate bool
	// PlanTime is the wall clock time spent searching, across all batches.
	PlanTime       time.Duration
	Batches        int
	ValidMotions   int64
	InvalidMotions int64
}

// Solve searches for a path from the start state to the goal for at most timeout.
//
// A repeatCount of one or less runs the configured planner once. Larger counts run that many planner
// instances: all at once when they fit in the planning thread limit, otherwise in successive batches
// of the thread limit followed by one batch of the remainder, until the time is up. Solutions of
// every batch are kept and, when a batch has several, combined into a shorter hybrid path. With
// several batches Solve succeeds only when every batch that ran found a solution of its own.
// A planner that fails with an error, or a goal that yields no states, counts as a search that
// found nothing.
//
// The search stops early when ctx is done or TerminateSolve is called.
func (pc *PlanningContext) Solve(ctx context.Context, timeout time.Duration, repeatCount int) (SolveResult, error) {
	ctx, span := trace.StartSpan(ctx, "planctx::PlanningContext::Solve")
	defer span.End()

	goal := pc.setup.Goal()
	if goal == nil {
		return SolveResult{}, motionplan.ErrNoGoal
	}
	pc.mu.Lock()
	if pc.state == Solving {
		pc.mu.Unlock()
		return SolveResult{}, ErrSolveInProgress
	}
	pc.state = Solving
	clk := pc.clock
	threads := max(pc.limits.MaxPlanningThreads, 1)
	pc.mu.Unlock()

	res, err := pc.solve(ctx, goal, clk, clk.Now().Add(timeout), repeatCount, threads)

	pc.mu.Lock()
	pc.lastPlanTime = res.PlanTime
	if err == nil && res.Solved {
		pc.state = Solved
	} else {
		pc.state = Failed
	}
	pc.mu.Unlock()
	return res, err
}

func (pc *PlanningContext) solve(
	ctx context.Context,
	goal motionplan.Goal,
	clk clock.Clock,
	deadline time.Time,
	repeatCount, threads int,
) (SolveResult, error) {
	var res SolveResult
	if err := pc.setup.Setup(); err != nil {
		return res, errors.Wrap(err, "setting up planner")
	}
	pc.setup.Clear()

	lazy, isLazy := goal.(motionplan.LazyGoal)
	if isLazy {
		lazy.StartSampling()
	}
	mv := pc.setup.SpaceInformation().MotionValidator()
	mv.ResetMotionCounter()

	ptc := motionplan.Or(
		motionplan.NewDeadlineTerminationCondition(clk, deadline),
		motionplan.NewContextTerminationCondition(ctx),
	)

	var err error
	if repeatCount <= 1 {
		res.Solved, err = pc.solveOnce(ctx, ptc)
		res.Batches = 1
		res.PlanTime = pc.setup.LastPlanComputationTime()
	} else {
		start := clk.Now()
		pc.parallel.ClearHybridizationPaths()
		if repeatCount <= threads {
			res.Solved, err = pc.solveBatch(ctx, ptc, repeatCount)
			res.Batches = 1
		} else {
			res.Solved, res.Batches, err = pc.solveBatches(ctx, ptc, repeatCount, threads)
		}
		res.PlanTime = clk.Since(start)
	}

	if isLazy {
		lazy.StopSampling()
	}
	res.ValidMotions = mv.ValidMotionCount()
	res.InvalidMotions = mv.InvalidMotionCount()
	if res.ValidMotions > 0 || res.InvalidMotions > 0 {
		pc.logger.CDebugf(ctx, "there were %d valid motions and %d invalid motions", res.ValidMotions, res.InvalidMotions)
	}
	if err != nil {
		return res, err
	}
	if res.Solved && !pc.setup.HaveExactSolutionPath() {
		res.Approximate = true
		pc.logger.Warn("computed solution is approximate")
	}
	return res, nil
}

// solveOnce runs the configured planner. A goal that yields no states is a failed search, not an error.
func (pc *PlanningContext) solveOnce(ctx context.Context, ptc *motionplan.TerminationCondition) (bool, error) {
	defer pc.terminator.scope(ptc)()
	solved, err := pc.setup.Solve(ctx, ptc)
	if errors.Is(err, motionplan.ErrNoGoalSamples) {
		pc.logger.Warnw("no plan found", "error", err)
		return false, nil
	}
	return solved, err
}

// solveBatches runs full batches of the thread limit, then the remainder, while ptc has not fired.
func (pc *PlanningContext) solveBatches(
	ctx context.Context,
	ptc *motionplan.TerminationCondition,
	repeatCount, threads int,
) (bool, int, error) {
	solved := true
	batches := 0
	run := func(n int) error {
		ok, err := pc.solveBatch(ctx, ptc, n)
		batches++
		solved = solved && ok
		return err
	}
	for i := 0; i < repeatCount/threads && !ptc.Eval(); i++ {
		if err := run(threads); err != nil {
			return false, batches, err
		}
	}
	if n := repeatCount % threads; n > 0 && !ptc.Eval() {
		if err := run(n); err != nil {
			return false, batches, err
		}
	}
	if batches == 0 {
		pc.logger.CDebug(ctx, "time ran out before the first batch")
		return false, 0, nil
	}
	return solved, batches, nil
}

// solveBatch runs n planner instances concurrently under ptc.
func (pc *PlanningContext) solveBatch(ctx context.Context, ptc *motionplan.TerminationCondition, n int) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "planctx::PlanningContext::solveBatch")
	defer span.End()

	pc.parallel.ClearPlanners()
	si := pc.setup.SpaceInformation()
	alloc := pc.setup.PlannerAllocator()
	for i := 0; i < n; i++ {
		if alloc == nil {
			pc.parallel.AddPlanner(motionplan.DefaultPlanner(si, pc.setup.Goal()))
			continue
		}
		if err := pc.parallel.AddPlannerAllocator(alloc); err != nil {
			return false, err
		}
	}
	pc.logger.CDebugf(ctx, "running %d planners in parallel", n)

	defer pc.terminator.scope(ptc)()
	return pc.parallel.Solve(ctx, ptc, 1, n, true)
}
