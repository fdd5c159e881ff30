// Package planctx binds one motion planning problem, a group of a robot model with its start state,
// constraints and goal, to the planners of the motionplan library, and runs them.
package planctx

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/planctx/constraintsamplers"
	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/planningscene"
	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

const (
	defaultMaxGoalSamples           = 10
	defaultMaxStateSamplingAttempts = 4
	defaultMaxGoalSamplingAttempts  = 1000
	defaultMaxPlanningThreads       = 4
	// fraction of the state space extent used as the default solution segment length
	defaultSolutionSegmentFraction = 0.01

	randomStateAttempts = 10000
	goalStateThreshold  = 1e-6

	fixInitialDistanceDivisor = 1000.
	fixDistanceIncreaseFactor = 5.
	fixAttempts               = 100

	// DefaultSceneName names the scene a context plans in until another is set.
	DefaultSceneName = "default"
)

// LifecycleState is where a context is in its configure/solve cycle.
type LifecycleState int

// Lifecycle states.
const (
	Created LifecycleState = iota
	Configured
	GoalSet
	Solving
	Solved
	Failed
	Cleared
)

func (s LifecycleState) String() string {
	switch s {
	case Created:
		return "created"
	case Configured:
		return "configured"
	case GoalSet:
		return "goal set"
	case Solving:
		return "solving"
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Limits are the tunable limits of a context.
type Limits struct {
	MaxVelocity              float64
	MaxAcceleration          float64
	MaxGoalSamples           int
	MaxStateSamplingAttempts int
	MaxGoalSamplingAttempts  int
	MaxPlanningThreads       int
	MaxSolutionSegmentLength float64
}

// PlanningContext is one configured planning problem for a joint group. It is created once per named
// planning configuration and reused across problems through Clear.
type PlanningContext struct {
	name     string
	spec     *Specification
	ss       *motionplan.StateSpace
	setup    *motionplan.SimpleSetup
	parallel *motionplan.ParallelPlan
	resolver *ConstraintSamplerResolver
	logger   logging.Logger

	terminator TerminationController
	verbose    atomic.Bool

	mu               sync.RWMutex
	clock            clock.Clock
	fatal            func(msg string)
	scene            *planningscene.Scene
	initialState     *referenceframe.KinematicState
	startSet         bool
	configured       bool
	pathConstraints  *kinematicconstraints.ConstraintSet
	goalConstraints  []*kinematicconstraints.ConstraintSet
	state            LifecycleState
	limits           Limits
	lastPlanTime     time.Duration
	lastSimplifyTime time.Duration
	lastBenchmark    *motionplan.BenchmarkResults
}

// NewPlanningContext returns a context planning for the group of the state space. The context takes
// over the space's sampler allocation, so the space must not be shared with another context.
func NewPlanningContext(name string, ss *motionplan.StateSpace, spec *Specification, logger logging.Logger) *PlanningContext {
	if spec == nil {
		spec = &Specification{}
	}
	logger = logger.Sublogger(name)
	pc := &PlanningContext{
		name:         name,
		spec:         spec,
		ss:           ss,
		setup:        motionplan.NewSimpleSetup(ss, logger),
		resolver:     NewConstraintSamplerResolver(spec, logger),
		logger:       logger,
		clock:        clock.New(),
		scene:        planningscene.NewScene(DefaultSceneName, ss.Model()),
		initialState: referenceframe.NewKinematicState(ss.Model()),
		limits: Limits{
			MaxGoalSamples:           defaultMaxGoalSamples,
			MaxStateSamplingAttempts: defaultMaxStateSamplingAttempts,
			MaxGoalSamplingAttempts:  defaultMaxGoalSamplingAttempts,
			MaxPlanningThreads:       max(utils.GetenvInt(utils.NumThreadsEnvVar, defaultMaxPlanningThreads), 1),
			MaxSolutionSegmentLength: ss.MaximumExtent() * defaultSolutionSegmentFraction,
		},
	}
	pc.fatal = func(msg string) {
		pc.logger.Error(msg)
		panic(msg)
	}
	pc.parallel = motionplan.NewParallelPlan(pc.setup.ProblemDefinition())
	ss.SetStateSamplerAllocator(pc.allocPathConstrainedSampler)
	return pc
}

// Name returns the context name.
func (pc *PlanningContext) Name() string {
	return pc.name
}

// GroupName returns the name of the planned group.
func (pc *PlanningContext) GroupName() string {
	return pc.ss.Group().Name()
}

// Spec returns the specification the context was created with.
func (pc *PlanningContext) Spec() *Specification {
	return pc.spec
}

// StateSpace returns the planned state space.
func (pc *PlanningContext) StateSpace() *motionplan.StateSpace {
	return pc.ss
}

// SimpleSetup returns the planning library setup the context drives.
func (pc *PlanningContext) SimpleSetup() *motionplan.SimpleSetup {
	return pc.setup
}

// State returns the lifecycle state.
func (pc *PlanningContext) State() LifecycleState {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.state
}

// SetClock replaces the clock deadlines and durations are measured with.
func (pc *PlanningContext) SetClock(clk clock.Clock) {
	pc.mu.Lock()
	pc.clock = clk
	pc.mu.Unlock()
	pc.setup.SetClock(clk)
}

func (pc *PlanningContext) now() time.Time {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.clock.Now()
}

// SetFatalHook replaces what happens on contract violations by the caller. The default logs and
// panics.
func (pc *PlanningContext) SetFatalHook(fatal func(msg string)) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.fatal = fatal
}

func (pc *PlanningContext) fail(msg string) {
	pc.mu.RLock()
	fatal := pc.fatal
	pc.mu.RUnlock()
	fatal(msg)
}

// SetPlanningScene replaces the scene states are collision checked in.
func (pc *PlanningContext) SetPlanningScene(scene *planningscene.Scene) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.scene = scene
}

// PlanningScene returns the scene.
func (pc *PlanningContext) PlanningScene() *planningscene.Scene {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.scene
}

// samplerScene returns the scene for sampler selection, a nil interface when there is none.
func (pc *PlanningContext) samplerScene() constraintsamplers.Scene {
	if scene := pc.PlanningScene(); scene != nil {
		return scene
	}
	return nil
}

// SetCompleteInitialState sets the full model state planning starts from. Variables outside the
// group keep these values along the whole plan.
func (pc *PlanningContext) SetCompleteInitialState(state *referenceframe.KinematicState) error {
	if state.Model() != pc.ss.Model() {
		return errors.Errorf("start state is for model %q, not %q", state.Model().Name(), pc.ss.Model().Name())
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.initialState = state.Copy()
	pc.startSet = true
	return nil
}

// SetStartState sets the group variables of the initial state.
func (pc *PlanningContext) SetStartState(inputs []referenceframe.Input) error {
	ks := pc.CompleteInitialState()
	if err := pc.ss.CopyToKinematicState(ks, inputs); err != nil {
		return err
	}
	return pc.SetCompleteInitialState(ks)
}

// CompleteInitialState returns a copy of the full initial state.
func (pc *PlanningContext) CompleteInitialState() *referenceframe.KinematicState {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.initialState.Copy()
}

// SetVerboseStateValidityChecks makes state validity checks log why states are rejected.
func (pc *PlanningContext) SetVerboseStateValidityChecks(verbose bool) {
	pc.verbose.Store(verbose)
}

// Limits returns the current limits.
func (pc *PlanningContext) Limits() Limits {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.limits
}

// MaxVelocity returns the velocity limit used to time trajectories.
func (pc *PlanningContext) MaxVelocity() float64 {
	return pc.Limits().MaxVelocity
}

// SetMaxVelocity sets the velocity limit. Non-positive limits time trajectories at unit velocity.
func (pc *PlanningContext) SetMaxVelocity(v float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.limits.MaxVelocity = v
}

// MaxAcceleration returns the acceleration limit used to time trajectories.
func (pc *PlanningContext) MaxAcceleration() float64 {
	return pc.Limits().MaxAcceleration
}

// SetMaxAcceleration sets the acceleration limit. Non-positive limits time trajectories at unit
// acceleration.
func (pc *PlanningContext) SetMaxAcceleration(a float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.limits.MaxAcceleration = a
}

// MaxGoalSamples returns how many distinct goal states are sampled per goal region.
func (pc *PlanningContext) MaxGoalSamples() int {
	return pc.Limits().MaxGoalSamples
}

// SetMaxGoalSamples sets how many distinct goal states are sampled per goal region.
func (pc *PlanningContext) SetMaxGoalSamples(n int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.limits.MaxGoalSamples = n
}

// MaxStateSamplingAttempts returns how many attempts a constraint sampler gets per state.
func (pc *PlanningContext) MaxStateSamplingAttempts() int {
	return pc.Limits().MaxStateSamplingAttempts
}

// SetMaxStateSamplingAttempts sets how many attempts a constraint sampler gets per state.
func (pc *PlanningContext) SetMaxStateSamplingAttempts(n int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.limits.MaxStateSamplingAttempts = n
}

// MaxGoalSamplingAttempts returns how many candidate goal states a goal region draws at most.
func (pc *PlanningContext) MaxGoalSamplingAttempts() int {
	return pc.Limits().MaxGoalSamplingAttempts
}

// SetMaxGoalSamplingAttempts sets how many candidate goal states a goal region draws at most.
func (pc *PlanningContext) SetMaxGoalSamplingAttempts(n int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.limits.MaxGoalSamplingAttempts = n
}

// MaxPlanningThreads returns how many planners run concurrently in one batch.
func (pc *PlanningContext) MaxPlanningThreads() int {
	return pc.Limits().MaxPlanningThreads
}

// SetMaxPlanningThreads sets how many planners run concurrently in one batch, at least one.
func (pc *PlanningContext) SetMaxPlanningThreads(n int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.limits.MaxPlanningThreads = max(n, 1)
}

// MaxSolutionSegmentLength returns the longest segment an interpolated solution has.
func (pc *PlanningContext) MaxSolutionSegmentLength() float64 {
	return pc.Limits().MaxSolutionSegmentLength
}

// SetMaxSolutionSegmentLength sets the longest segment an interpolated solution has.
func (pc *PlanningContext) SetMaxSolutionSegmentLength(l float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.limits.MaxSolutionSegmentLength = l
}

// LastPlanTime returns how long the last Solve searched.
func (pc *PlanningContext) LastPlanTime() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.lastPlanTime
}

// LastSimplifyTime returns how long the last simplification took.
func (pc *PlanningContext) LastSimplifyTime() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.lastSimplifyTime
}

func (pc *PlanningContext) pathConstraintSet() *kinematicconstraints.ConstraintSet {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.pathConstraints
}

// PathConstraints returns the current path constraints, possibly nil.
func (pc *PlanningContext) PathConstraints() *kinematicconstraints.ConstraintSet {
	return pc.pathConstraintSet()
}

// GoalConstraints returns the current goal constraint sets.
func (pc *PlanningContext) GoalConstraints() []*kinematicconstraints.ConstraintSet {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return append([]*kinematicconstraints.ConstraintSet(nil), pc.goalConstraints...)
}

// Goal returns the installed goal region, or nil.
func (pc *PlanningContext) Goal() motionplan.Goal {
	return pc.setup.Goal()
}

func (pc *PlanningContext) setState(s LifecycleState) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.state = s
}

func (pc *PlanningContext) notSolving() error {
	if pc.State() == Solving {
		return ErrSolveInProgress
	}
	return nil
}

// allocPathConstrainedSampler is the sampler allocator of the context's state space.
func (pc *PlanningContext) allocPathConstrainedSampler(ss *motionplan.StateSpace) motionplan.StateSampler {
	if ss != pc.ss {
		pc.fail(fmt.Sprintf("%s: attempted to allocate a state sampler for an unknown state space", pc.name))
		return ss.AllocDefaultStateSampler()
	}
	pc.logger.Debug("allocating a new state sampler (attempts to use path constraints)")
	r := pc.resolver.Resolve(ss, pc.samplerScene(), pc.pathConstraintSet())
	if r.Source == ManagerSamplerSource {
		return newConstrainedSampler(ss, r.ConstraintSampler, pc.CompleteInitialState(), pc.MaxStateSamplingAttempts())
	}
	return r.StateSampler
}

// Configure binds the start state and state validity checking, and applies the planner
// configuration of the specification. The planner is set up when a goal is already present.
func (pc *PlanningContext) Configure() error {
	if err := pc.notSolving(); err != nil {
		return err
	}
	pc.mu.RLock()
	startSet := pc.startSet
	pc.mu.RUnlock()
	if !startSet {
		return ErrStartStateNotSet
	}

	pc.setup.SetStartState(pc.ss.FromKinematicState(pc.CompleteInitialState()))
	pc.setup.SetStateValidityChecker(newStateValidityChecker(pc))
	pc.useConfig()

	next := Configured
	if pc.setup.Goal() != nil {
		if err := pc.setup.Setup(); err != nil {
			return errors.Wrap(err, "setting up planner")
		}
		next = GoalSet
	}
	pc.mu.Lock()
	pc.configured = true
	pc.state = next
	pc.mu.Unlock()
	return nil
}

// useConfig applies the specification's planner configuration. Malformed options are logged and
// skipped.
func (pc *PlanningContext) useConfig() {
	if len(pc.spec.Config) == 0 {
		return
	}
	opts, err := ParseOptions(pc.spec.Config)
	if err != nil {
		pc.logger.Warnw("ignoring malformed planner options", "error", err)
	}
	if opts.ProjectionEvaluator != "" {
		// errors are logged
		_ = pc.SetProjectionEvaluator(opts.ProjectionEvaluator) //nolint:errcheck
	}
	if opts.MaxVelocity != nil {
		pc.SetMaxVelocity(*opts.MaxVelocity)
	}
	if opts.MaxAcceleration != nil {
		pc.SetMaxAcceleration(*opts.MaxAcceleration)
	}
	if opts.Empty() {
		return
	}

	if opts.PlannerType == "" {
		if pc.name != pc.GroupName() {
			pc.logger.Warnf("attribute 'type' not specified in planner configuration")
		}
	} else {
		plannerName := ""
		if pc.name != pc.GroupName() {
			plannerName = pc.name
		}
		selector := pc.spec.plannerSelector()
		plannerType, params := opts.PlannerType, opts.PlannerParams.Copy()
		pc.setup.SetPlannerAllocator(func(si *motionplan.SpaceInformation) (motionplan.Planner, error) {
			return selector(si, plannerType, plannerName, params)
		})
	}

	si := pc.setup.SpaceInformation()
	if err := si.Setup(); err != nil {
		pc.logger.Warnw("space information setup failed", "error", err)
		return
	}
	unused, err := si.SetParams(opts.PlannerParams)
	if err != nil {
		pc.logger.Warnw("ignoring invalid space information parameters", "error", err)
	} else if len(unused) > 0 {
		pc.logger.Debugf("parameters %v are not space information parameters", unused)
	}
	if err := si.Setup(); err != nil {
		pc.logger.Warnw("space information setup failed", "error", err)
	}
}

// SetPathConstraints replaces the constraints every state of a plan must satisfy. Structurally
// invalid constraints are rejected and leave the previous path constraints in place.
func (pc *PlanningContext) SetPathConstraints(desc *kinematicconstraints.Constraints, code *ErrorCode) error {
	if desc == nil {
		desc = &kinematicconstraints.Constraints{}
	}
	cs, err := kinematicconstraints.NewConstraintSet(pc.ss.Model(), desc)
	if err != nil {
		setCode(code, InvalidPathConstraints)
		return err
	}
	pc.mu.Lock()
	pc.pathConstraints = cs
	pc.mu.Unlock()
	setCode(code, Success)
	return nil
}

// SetGoalConstraints merges every goal with the path constraints and installs the goal region of
// the non-empty results. Incompatible joint constraints are dropped from a merge with a warning.
// When no goal remains, no goal is installed and the code is InvalidGoalConstraints.
func (pc *PlanningContext) SetGoalConstraints(
	goals []*kinematicconstraints.Constraints,
	path *kinematicconstraints.Constraints,
	code *ErrorCode,
) error {
	if err := pc.notSolving(); err != nil {
		return err
	}
	pc.dropGoal()

	var sets []*kinematicconstraints.ConstraintSet
	var causes error
	for _, goal := range goals {
		merged, err := kinematicconstraints.MergeConstraints(goal, path)
		if err != nil {
			pc.logger.Warnw("discarding incompatible constraints while merging goal with path constraints", "error", err)
		}
		cs, err := kinematicconstraints.NewConstraintSet(pc.ss.Model(), merged)
		if err != nil {
			causes = multierr.Append(causes, errors.Wrapf(err, "goal %q", merged.Name))
			pc.logger.Warnw("ignoring invalid goal constraints", "error", err)
			continue
		}
		if !cs.Empty() {
			sets = append(sets, cs)
		}
	}
	if len(sets) == 0 {
		pc.logger.Warn("no goal constraints specified, there is no problem to solve")
		setCode(code, InvalidGoalConstraints)
		if causes != nil {
			return errors.Wrap(ErrInvalidGoalConstraints, causes.Error())
		}
		return ErrInvalidGoalConstraints
	}

	goal, err := pc.constructGoal(sets)
	if err != nil {
		setCode(code, Failure)
		return err
	}
	pc.mu.Lock()
	pc.goalConstraints = sets
	pc.state = GoalSet
	pc.mu.Unlock()
	pc.setup.SetGoal(goal)
	setCode(code, Success)
	return nil
}

// dropGoal uninstalls the goal, stopping its background sampling.
func (pc *PlanningContext) dropGoal() {
	if lazy, ok := pc.setup.Goal().(motionplan.LazyGoal); ok {
		lazy.StopSampling()
	}
	pc.setup.SetGoal(nil)
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.goalConstraints = nil
	if pc.state != GoalSet && pc.state != Solved && pc.state != Failed {
		return
	}
	if pc.configured {
		pc.state = Configured
	} else {
		pc.state = Created
	}
}

// Clear drops the search state, goal, validity checking and path constraints. The specification
// and limits are kept.
func (pc *PlanningContext) Clear() error {
	if err := pc.notSolving(); err != nil {
		return err
	}
	pc.setup.Clear()
	pc.setup.ClearStartStates()
	pc.dropGoal()
	pc.setup.SetStateValidityChecker(nil)
	pc.parallel.ClearPlanners()
	pc.parallel.ClearHybridizationPaths()
	pc.mu.Lock()
	pc.pathConstraints = nil
	pc.configured = false
	pc.state = Cleared
	pc.mu.Unlock()
	return nil
}

// SetPlanningVolume bounds the translations of planar and floating joints to the box. A box with
// both corners at the origin stands for an unset volume and selects the unit cube.
func (pc *PlanningContext) SetPlanningVolume(minCorner, maxCorner r3.Vector) {
	if minCorner == (r3.Vector{}) && maxCorner == (r3.Vector{}) {
		pc.logger.Debug("empty planning volume, using the default unit cube")
		minCorner, maxCorner = motionplan.DefaultPlanningVolumeMin, motionplan.DefaultPlanningVolumeMax
	}
	pc.logger.Debugf("planning volume: x [%f, %f], y [%f, %f], z [%f, %f]",
		minCorner.X, maxCorner.X, minCorner.Y, maxCorner.Y, minCorner.Z, maxCorner.Z)
	pc.ss.SetPlanningVolume(minCorner, maxCorner)
}

// SetRandomStartGoal replaces the start state and the goal with random valid states. The old goal is
// dropped once the start state is replaced, even when no goal state is found.
func (pc *PlanningContext) SetRandomStartGoal() error {
	si := pc.setup.SpaceInformation()
	sampler := si.AllocStateSampler()
	sample := func() ([]referenceframe.Input, bool) {
		out := make([]referenceframe.Input, pc.ss.Dimension())
		for i := 0; i < randomStateAttempts; i++ {
			sampler.SampleUniform(out)
			if si.IsValid(out) {
				return out, true
			}
		}
		return nil, false
	}

	start, ok := sample()
	if !ok {
		pc.logger.Warn("unable to select random valid start/goal states")
		return errors.New("no valid start state found")
	}
	if err := pc.SetStartState(start); err != nil {
		return err
	}
	pc.setup.SetStartState(start)
	pc.logger.Info("selected a random valid start state")

	pc.dropGoal()
	goal, ok := sample()
	if !ok {
		pc.logger.Warn("unable to select random valid goal state")
		return errors.New("no valid goal state found")
	}
	pc.setup.SetGoalState(goal, goalStateThreshold)
	pc.setState(GoalSet)
	pc.logger.Info("selected a random valid goal state")
	return nil
}

// FixInvalidInputStates moves invalid start states and goal states to valid states nearby, searching
// ever larger neighbourhoods until the deadline. It reports whether all input states are valid.
func (pc *PlanningContext) FixInvalidInputStates(deadline time.Time) bool {
	maxSteps := int(math.Log(fixInitialDistanceDivisor) / math.Log(fixDistanceIncreaseFactor))
	d := pc.ss.MaximumExtent() / fixInitialDistanceDivisor
	pd := pc.setup.ProblemDefinition()
	for steps := 1; ; steps++ {
		if pd.FixInvalidInputStates(d, d, fixAttempts) {
			return true
		}
		d *= fixDistanceIncreaseFactor
		if steps >= maxSteps || !pc.now().Before(deadline) {
			return false
		}
	}
}

// TerminateSolve stops the solve in flight, if any, as soon as its planners next check.
func (pc *PlanningContext) TerminateSolve() {
	if pc.terminator.Terminate() {
		pc.logger.Debug("terminating solve")
	}
}

// SimplifySolution shortens the solution path within the timeout.
func (pc *PlanningContext) SimplifySolution(ctx context.Context, timeout time.Duration) {
	ctx, span := trace.StartSpan(ctx, "planctx::PlanningContext::SimplifySolution")
	defer span.End()
	pc.setup.SimplifySolutionFor(ctx, timeout)
	pc.mu.Lock()
	pc.lastSimplifyTime = pc.setup.LastSimplificationTime()
	pc.mu.Unlock()
}

// InterpolateSolution resamples the solution path so that no segment is much longer than the
// maximum solution segment length.
func (pc *PlanningContext) InterpolateSolution() {
	if !pc.setup.HaveSolutionPath() {
		return
	}
	seg := pc.MaxSolutionSegmentLength()
	if seg <= 0 {
		return
	}
	path := pc.setup.SolutionPath()
	path.Interpolate(int(math.Floor(0.5 + path.Length()/seg)))
}

// GetSolutionPath converts the solution path into a timed trajectory.
func (pc *PlanningContext) GetSolutionPath() (*RobotTrajectory, error) {
	if !pc.setup.HaveSolutionPath() {
		return nil, ErrNoSolution
	}
	return pc.ConvertPath(pc.setup.SolutionPath())
}

// ConvertPath converts a path of the context's space into a trajectory timed with the current
// velocity and acceleration limits.
func (pc *PlanningContext) ConvertPath(path *motionplan.PathGeometric) (*RobotTrajectory, error) {
	limits := pc.Limits()
	frame := ""
	if scene := pc.PlanningScene(); scene != nil {
		frame = scene.PlanningFrame()
	}
	return convertPath(path, pc.ss, pc.CompleteInitialState(), frame, limits.MaxVelocity, limits.MaxAcceleration)
}
