package motionplan

import (
	"sort"
	"sync"

	"go.viam.com/planctx/referenceframe"
)

// Solution is a path found by a planner.
type Solution struct {
	Path *PathGeometric
	// Approximate is set when the path ends outside the goal.
	Approximate bool
	// Difference is the distance of the path end to the goal.
	Difference  float64
	PlannerName string
}

// ProblemDefinition holds the start states and goal of a problem and the solutions found for it.
// Planners only read it; solutions are added by whoever runs them.
type ProblemDefinition struct {
	si *SpaceInformation

	mu          sync.RWMutex
	startStates [][]referenceframe.Input
	goal        Goal
	solutions   []*Solution
}

// NewProblemDefinition returns an empty problem.
func NewProblemDefinition(si *SpaceInformation) *ProblemDefinition {
	return &ProblemDefinition{si: si}
}

// SpaceInformation returns the space information of the problem.
func (pd *ProblemDefinition) SpaceInformation() *SpaceInformation {
	return pd.si
}

// AddStartState adds a copy of the state as a start state.
func (pd *ProblemDefinition) AddStartState(state []referenceframe.Input) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.startStates = append(pd.startStates, referenceframe.CopyInputs(state))
}

// ClearStartStates removes every start state.
func (pd *ProblemDefinition) ClearStartStates() {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.startStates = nil
}

// StartStates returns copies of the start states.
func (pd *ProblemDefinition) StartStates() [][]referenceframe.Input {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	out := make([][]referenceframe.Input, len(pd.startStates))
	for i, s := range pd.startStates {
		out[i] = referenceframe.CopyInputs(s)
	}
	return out
}

// SetGoal replaces the goal.
func (pd *ProblemDefinition) SetGoal(goal Goal) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.goal = goal
}

// Goal returns the goal, possibly nil.
func (pd *ProblemDefinition) Goal() Goal {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	return pd.goal
}

// SetStartAndGoalStates sets a single start state and a single goal state.
func (pd *ProblemDefinition) SetStartAndGoalStates(start, goal []referenceframe.Input, threshold float64) {
	pd.ClearStartStates()
	pd.AddStartState(start)
	pd.SetGoal(NewGoalState(pd.si, goal, threshold))
}

// AddSolutionPath records a solution. Exact solutions are ordered before approximate ones, then by
// difference and length.
func (pd *ProblemDefinition) AddSolutionPath(sol *Solution) {
	if sol == nil || sol.Path == nil {
		return
	}
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.solutions = append(pd.solutions, sol)
	sort.SliceStable(pd.solutions, func(i, j int) bool {
		a, b := pd.solutions[i], pd.solutions[j]
		if a.Approximate != b.Approximate {
			return !a.Approximate
		}
		if a.Approximate && a.Difference != b.Difference {
			return a.Difference < b.Difference
		}
		return a.Path.Length() < b.Path.Length()
	})
}

// ClearSolutionPaths drops every recorded solution.
func (pd *ProblemDefinition) ClearSolutionPaths() {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.solutions = nil
}

// Solutions returns the recorded solutions, best first.
func (pd *ProblemDefinition) Solutions() []*Solution {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	return append([]*Solution(nil), pd.solutions...)
}

// SolutionCount returns the number of recorded solutions.
func (pd *ProblemDefinition) SolutionCount() int {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	return len(pd.solutions)
}

// HasSolution reports whether any solution, exact or approximate, was recorded.
func (pd *ProblemDefinition) HasSolution() bool {
	return pd.SolutionCount() > 0
}

// HasExactSolution reports whether an exact solution was recorded.
func (pd *ProblemDefinition) HasExactSolution() bool {
	best := pd.BestSolution()
	return best != nil && !best.Approximate
}

// HasApproximateSolution reports whether the best recorded solution is approximate.
func (pd *ProblemDefinition) HasApproximateSolution() bool {
	best := pd.BestSolution()
	return best != nil && best.Approximate
}

// BestSolution returns the best recorded solution, or nil.
func (pd *ProblemDefinition) BestSolution() *Solution {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	if len(pd.solutions) == 0 {
		return nil
	}
	return pd.solutions[0]
}

// SolutionPath returns the path of the best solution, or nil.
func (pd *ProblemDefinition) SolutionPath() *PathGeometric {
	if best := pd.BestSolution(); best != nil {
		return best.Path
	}
	return nil
}

// FixInvalidInputStates replaces invalid start states, and the goal state of a GoalState goal, with
// valid states sampled near them. Start states are searched within startDist and goal states within
// goalDist, for at most attempts samples each. It reports whether every input state is valid
// afterwards.
func (pd *ProblemDefinition) FixInvalidInputStates(startDist, goalDist float64, attempts int) bool {
	sampler := pd.si.AllocStateSampler()
	fix := func(state []referenceframe.Input, dist float64) bool {
		if pd.si.IsValid(state) {
			return true
		}
		candidate := make([]referenceframe.Input, len(state))
		for i := 0; i < attempts; i++ {
			sampler.SampleUniformNear(candidate, state, dist)
			if pd.si.IsValid(candidate) {
				copy(state, candidate)
				return true
			}
		}
		return false
	}

	pd.mu.Lock()
	defer pd.mu.Unlock()
	fixed := true
	for _, s := range pd.startStates {
		if !fix(s, startDist) {
			fixed = false
		}
	}
	if gs, ok := pd.goal.(*GoalState); ok {
		if !fix(gs.state, goalDist) {
			fixed = false
		}
	}
	return fixed
}
