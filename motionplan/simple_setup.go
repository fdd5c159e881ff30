package motionplan

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.opencensus.io/trace"

	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/referenceframe"
)

// SimpleSetup wires a space, a problem definition and a planner together for single-planner use.
type SimpleSetup struct {
	si     *SpaceInformation
	pd     *ProblemDefinition
	logger logging.Logger
	clock  clock.Clock
	meta   *PlanMeta

	mu               sync.Mutex
	planner          Planner
	plannerAllocator PlannerAllocator
	configured       bool
	lastPlanTime     time.Duration
	lastSimplifyTime time.Duration
}

// NewSimpleSetup returns a setup for the space.
func NewSimpleSetup(ss *StateSpace, logger logging.Logger) *SimpleSetup {
	si := NewSpaceInformation(ss, logger)
	return &SimpleSetup{
		si:     si,
		pd:     NewProblemDefinition(si),
		logger: logger,
		clock:  clock.New(),
		meta:   NewPlanMeta(),
	}
}

// SetClock replaces the clock used for timing.
func (s *SimpleSetup) SetClock(clk clock.Clock) {
	s.clock = clk
}

// SpaceInformation returns the space information.
func (s *SimpleSetup) SpaceInformation() *SpaceInformation {
	return s.si
}

// StateSpace returns the state space.
func (s *SimpleSetup) StateSpace() *StateSpace {
	return s.si.StateSpace()
}

// ProblemDefinition returns the problem definition.
func (s *SimpleSetup) ProblemDefinition() *ProblemDefinition {
	return s.pd
}

// PlanMeta returns the timing of solve and simplification calls.
func (s *SimpleSetup) PlanMeta() *PlanMeta {
	return s.meta
}

// SetStateValidityChecker sets the validity checker of the space information.
func (s *SimpleSetup) SetStateValidityChecker(c StateValidityChecker) {
	s.si.SetStateValidityChecker(c)
	s.invalidate()
}

// StateValidityChecker returns the validity checker of the space information.
func (s *SimpleSetup) StateValidityChecker() StateValidityChecker {
	return s.si.StateValidityChecker()
}

// SetStartState replaces the start states with the state.
func (s *SimpleSetup) SetStartState(state []referenceframe.Input) {
	s.pd.ClearStartStates()
	s.pd.AddStartState(state)
}

// ClearStartStates removes every start state.
func (s *SimpleSetup) ClearStartStates() {
	s.pd.ClearStartStates()
}

// SetGoal replaces the goal.
func (s *SimpleSetup) SetGoal(goal Goal) {
	s.pd.SetGoal(goal)
	s.invalidate()
}

// SetGoalState sets a single goal state.
func (s *SimpleSetup) SetGoalState(state []referenceframe.Input, threshold float64) {
	s.SetGoal(NewGoalState(s.si, state, threshold))
}

// Goal returns the goal, possibly nil.
func (s *SimpleSetup) Goal() Goal {
	return s.pd.Goal()
}

// SetPlanner sets the planner directly. It takes precedence over the planner allocator.
func (s *SimpleSetup) SetPlanner(p Planner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planner = p
	s.configured = false
}

// Planner returns the planner, possibly nil before Setup.
func (s *SimpleSetup) Planner() Planner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planner
}

// SetPlannerAllocator sets how Setup builds the planner and drops the current one.
func (s *SimpleSetup) SetPlannerAllocator(alloc PlannerAllocator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plannerAllocator = alloc
	s.planner = nil
	s.configured = false
}

// PlannerAllocator returns the planner allocator, possibly nil.
func (s *SimpleSetup) PlannerAllocator() PlannerAllocator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plannerAllocator
}

func (s *SimpleSetup) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured = false
}

// Setup prepares the space information and the planner. The planner is built from the allocator, or
// picked for the goal when there is none.
func (s *SimpleSetup) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configured {
		return nil
	}
	if err := s.si.Setup(); err != nil {
		return err
	}
	if s.planner == nil {
		if s.plannerAllocator != nil {
			p, err := s.plannerAllocator(s.si)
			if err != nil {
				return err
			}
			s.planner = p
		} else {
			goal := s.pd.Goal()
			if goal == nil {
				return ErrNoGoal
			}
			s.planner = DefaultPlanner(s.si, goal)
		}
	}
	s.planner.SetProblemDefinition(s.pd)
	if err := s.planner.Setup(); err != nil {
		return err
	}
	s.configured = true
	return nil
}

// Solve runs the planner until ptc fires and records its solution. It reports whether a solution,
// exact or approximate, was found.
func (s *SimpleSetup) Solve(ctx context.Context, ptc *TerminationCondition) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "motionplan::SimpleSetup::Solve")
	defer span.End()
	start := s.clock.Now()
	defer func() {
		s.mu.Lock()
		s.lastPlanTime = s.clock.Since(start)
		s.mu.Unlock()
		s.meta.AddTiming("solve", s.clock.Since(start))
	}()

	if err := s.Setup(); err != nil {
		return false, err
	}
	planner := s.Planner()
	sol, err := planner.Solve(ptc)
	if err != nil {
		return false, err
	}
	if sol == nil {
		s.logger.CDebugf(ctx, "%s found no solution", planner.Name())
		return false, nil
	}
	s.pd.AddSolutionPath(sol)
	if sol.Approximate {
		s.logger.CDebugf(ctx, "%s found an approximate solution, %.4f from the goal", planner.Name(), sol.Difference)
	}
	return true, nil
}

// SolveFor solves with a time limit.
func (s *SimpleSetup) SolveFor(ctx context.Context, d time.Duration) (bool, error) {
	return s.Solve(ctx, Or(NewTimedTerminationCondition(s.clock, d), NewContextTerminationCondition(ctx)))
}

// LastPlanComputationTime returns the duration of the last Solve.
func (s *SimpleSetup) LastPlanComputationTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPlanTime
}

// HaveSolutionPath reports whether a solution was recorded.
func (s *SimpleSetup) HaveSolutionPath() bool {
	return s.pd.HasSolution()
}

// HaveExactSolutionPath reports whether an exact solution was recorded.
func (s *SimpleSetup) HaveExactSolutionPath() bool {
	return s.pd.HasExactSolution()
}

// SolutionPath returns the best solution path, or nil.
func (s *SimpleSetup) SolutionPath() *PathGeometric {
	return s.pd.SolutionPath()
}

// SimplifySolution simplifies the best solution path in place until ptc fires.
func (s *SimpleSetup) SimplifySolution(ctx context.Context, ptc *TerminationCondition) {
	_, span := trace.StartSpan(ctx, "motionplan::SimpleSetup::SimplifySolution")
	defer span.End()
	start := s.clock.Now()
	defer func() {
		s.mu.Lock()
		s.lastSimplifyTime = s.clock.Since(start)
		s.mu.Unlock()
		s.meta.AddTiming("simplify", s.clock.Since(start))
	}()

	path := s.pd.SolutionPath()
	if path == nil {
		s.logger.Warn("no solution to simplify")
		return
	}
	before := path.StateCount()
	NewPathSimplifier(s.si).Simplify(path, ptc)
	s.logger.CDebugf(ctx, "simplified solution from %d to %d states", before, path.StateCount())
}

// SimplifySolutionFor simplifies with a time limit.
func (s *SimpleSetup) SimplifySolutionFor(ctx context.Context, d time.Duration) {
	s.SimplifySolution(ctx, NewTimedTerminationCondition(s.clock, d))
}

// LastSimplificationTime returns the duration of the last simplification.
func (s *SimpleSetup) LastSimplificationTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSimplifyTime
}

// Clear drops the planner's search state and every recorded solution.
func (s *SimpleSetup) Clear() {
	if p := s.Planner(); p != nil {
		p.Clear()
	}
	s.pd.ClearSolutionPaths()
}
