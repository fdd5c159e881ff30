package motionplan

import (
	"context"
	"math"
	"sync"

	"go.uber.org/atomic"

	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

// Goal decides whether a state solves a problem.
type Goal interface {
	// IsSatisfied reports whether the state is a goal state and how far from the goal it is.
	IsSatisfied(state []referenceframe.Input) (bool, float64)
}

// GoalSampleableRegion is a goal that can also produce goal states.
type GoalSampleableRegion interface {
	Goal
	// SampleGoal writes a goal state to out. It returns false when no goal state is available.
	SampleGoal(out []referenceframe.Input) bool
	// MaxSampleCount is the number of distinct goal states available right now.
	MaxSampleCount() int
	// CanSample reports whether a goal state is available right now.
	CanSample() bool
	// CouldSample reports whether a goal state is or may become available.
	CouldSample() bool
}

// LazyGoal is a sampleable goal that produces its states in the background.
type LazyGoal interface {
	GoalSampleableRegion
	StartSampling()
	StopSampling()
	IsSampling() bool
}

// GoalState is a single goal state with a tolerance.
type GoalState struct {
	si        *SpaceInformation
	state     []referenceframe.Input
	threshold float64
}

// NewGoalState returns a goal satisfied by states within threshold of state.
func NewGoalState(si *SpaceInformation, state []referenceframe.Input, threshold float64) *GoalState {
	return &GoalState{si: si, state: referenceframe.CopyInputs(state), threshold: threshold}
}

// State returns the goal state.
func (g *GoalState) State() []referenceframe.Input {
	return referenceframe.CopyInputs(g.state)
}

// IsSatisfied implements Goal.
func (g *GoalState) IsSatisfied(state []referenceframe.Input) (bool, float64) {
	d := g.si.Distance(state, g.state)
	return d <= g.threshold, d
}

// SampleGoal implements GoalSampleableRegion.
func (g *GoalState) SampleGoal(out []referenceframe.Input) bool {
	copy(out, g.state)
	return true
}

// MaxSampleCount implements GoalSampleableRegion.
func (g *GoalState) MaxSampleCount() int {
	return 1
}

// CanSample implements GoalSampleableRegion.
func (g *GoalState) CanSample() bool {
	return true
}

// CouldSample implements GoalSampleableRegion.
func (g *GoalState) CouldSample() bool {
	return true
}

// GoalSamplingFunc produces one candidate goal state into out. Returning false ends sampling.
type GoalSamplingFunc func(g *GoalLazySamples, out []referenceframe.Input) bool

// GoalLazySamples is a goal whose states are produced by a sampling function running in a
// background goroutine. Candidates are kept when they are valid and farther than the minimum
// distance from every state already kept.
type GoalLazySamples struct {
	si        *SpaceInformation
	fn        GoalSamplingFunc
	threshold float64
	minDist   float64

	mu      sync.RWMutex
	states  [][]referenceframe.Input
	next    int
	workers utils.StoppableWorkers

	sampling atomic.Bool
	attempts atomic.Int64
}

// NewGoalLazySamples returns a lazy goal. Sampling starts right away when autoStart is set.
func NewGoalLazySamples(si *SpaceInformation, fn GoalSamplingFunc, autoStart bool, minDist float64) *GoalLazySamples {
	g := &GoalLazySamples{si: si, fn: fn, threshold: math.SmallestNonzeroFloat64, minDist: minDist}
	if autoStart {
		g.StartSampling()
	}
	return g
}

// SpaceInformation returns the space information the goal validates samples with.
func (g *GoalLazySamples) SpaceInformation() *SpaceInformation {
	return g.si
}

// SetThreshold sets how close to a kept goal state a state must be to satisfy the goal.
func (g *GoalLazySamples) SetThreshold(threshold float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threshold = threshold
}

// StartSampling starts the background goroutine unless it is already running.
func (g *GoalLazySamples) StartSampling() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.workers != nil {
		return
	}
	g.sampling.Store(true)
	g.workers = utils.NewStoppableWorkers(g.sample)
}

// StopSampling stops the background goroutine and waits for it. Sampling functions see IsSampling
// turn false as soon as the stop is requested.
func (g *GoalLazySamples) StopSampling() {
	g.mu.Lock()
	workers := g.workers
	g.workers = nil
	g.mu.Unlock()
	g.sampling.Store(false)
	if workers != nil {
		workers.Stop()
	}
}

// IsSampling reports whether the background goroutine is still producing states.
func (g *GoalLazySamples) IsSampling() bool {
	return g.sampling.Load()
}

func (g *GoalLazySamples) sample(ctx context.Context) {
	defer g.sampling.Store(false)
	out := make([]referenceframe.Input, g.si.StateSpace().Dimension())
	for ctx.Err() == nil {
		g.attempts.Inc()
		if !g.fn(g, out) {
			return
		}
		g.AddStateIfDifferent(out)
	}
}

// SamplingAttempts returns how many times the sampling function has been called.
func (g *GoalLazySamples) SamplingAttempts() int64 {
	return g.attempts.Load()
}

// AddStateIfDifferent keeps a copy of the state when it is valid and not within the minimum
// distance of a state already kept.
func (g *GoalLazySamples) AddStateIfDifferent(state []referenceframe.Input) bool {
	if !g.si.IsValid(state) {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.states {
		if g.si.Distance(s, state) < g.minDist {
			return false
		}
	}
	g.states = append(g.states, referenceframe.CopyInputs(state))
	return true
}

// StateCount returns the number of goal states kept so far.
func (g *GoalLazySamples) StateCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.states)
}

// ClearStates drops every kept goal state.
func (g *GoalLazySamples) ClearStates() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states = nil
	g.next = 0
}

// IsSatisfied implements Goal: the state must be within the threshold of a kept goal state.
func (g *GoalLazySamples) IsSatisfied(state []referenceframe.Input) (bool, float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	best := math.Inf(1)
	for _, s := range g.states {
		if d := g.si.Distance(s, state); d < best {
			best = d
		}
	}
	return best <= g.threshold, best
}

// SampleGoal implements GoalSampleableRegion by cycling through the kept goal states.
func (g *GoalLazySamples) SampleGoal(out []referenceframe.Input) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.states) == 0 {
		return false
	}
	copy(out, g.states[g.next%len(g.states)])
	g.next++
	return true
}

// MaxSampleCount implements GoalSampleableRegion.
func (g *GoalLazySamples) MaxSampleCount() int {
	return g.StateCount()
}

// CanSample implements GoalSampleableRegion.
func (g *GoalLazySamples) CanSample() bool {
	return g.StateCount() > 0
}

// CouldSample implements GoalSampleableRegion.
func (g *GoalLazySamples) CouldSample() bool {
	return g.CanSample() || g.IsSampling()
}

// GoalUnion is satisfied by any of its members and samples from them in turn.
type GoalUnion struct {
	members []GoalSampleableRegion

	mu   sync.Mutex
	next int
}

// NewGoalUnion returns the union of the goals.
func NewGoalUnion(members ...GoalSampleableRegion) *GoalUnion {
	return &GoalUnion{members: members}
}

// Members returns the goals of the union.
func (g *GoalUnion) Members() []GoalSampleableRegion {
	return g.members
}

// IsSatisfied implements Goal. The distance is the smallest member distance.
func (g *GoalUnion) IsSatisfied(state []referenceframe.Input) (bool, float64) {
	best := math.Inf(1)
	for _, m := range g.members {
		ok, d := m.IsSatisfied(state)
		if ok {
			return true, d
		}
		best = math.Min(best, d)
	}
	return false, best
}

// SampleGoal implements GoalSampleableRegion, starting with the member after the last one used.
func (g *GoalUnion) SampleGoal(out []referenceframe.Input) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < len(g.members); i++ {
		m := g.members[(g.next+i)%len(g.members)]
		if m.CanSample() && m.SampleGoal(out) {
			g.next = (g.next + i + 1) % len(g.members)
			return true
		}
	}
	return false
}

// MaxSampleCount implements GoalSampleableRegion.
func (g *GoalUnion) MaxSampleCount() int {
	total := 0
	for _, m := range g.members {
		total += m.MaxSampleCount()
	}
	return total
}

// CanSample implements GoalSampleableRegion.
func (g *GoalUnion) CanSample() bool {
	for _, m := range g.members {
		if m.CanSample() {
			return true
		}
	}
	return false
}

// CouldSample implements GoalSampleableRegion.
func (g *GoalUnion) CouldSample() bool {
	for _, m := range g.members {
		if m.CouldSample() {
			return true
		}
	}
	return false
}

// StartSampling starts every lazy member.
func (g *GoalUnion) StartSampling() {
	for _, m := range g.members {
		if lg, ok := m.(LazyGoal); ok {
			lg.StartSampling()
		}
	}
}

// StopSampling stops every lazy member.
func (g *GoalUnion) StopSampling() {
	for _, m := range g.members {
		if lg, ok := m.(LazyGoal); ok {
			lg.StopSampling()
		}
	}
}

// IsSampling reports whether any lazy member is sampling.
func (g *GoalUnion) IsSampling() bool {
	for _, m := range g.members {
		if lg, ok := m.(LazyGoal); ok && lg.IsSampling() {
			return true
		}
	}
	return false
}
