package motionplan

import (
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/referenceframe"
)

// Planner searches for a path from the start states of a problem definition to its goal. A planner
// only reads the problem definition; the solution it returns is recorded by the caller.
type Planner interface {
	Name() string
	Type() string
	SpaceInformation() *SpaceInformation
	SetProblemDefinition(pd *ProblemDefinition)
	ProblemDefinition() *ProblemDefinition
	Setup() error
	// Clear drops all search state so the next Solve starts over.
	Clear()
	// Solve searches until a solution is found or ptc fires. A nil solution without error means
	// nothing was found in time.
	Solve(ptc *TerminationCondition) (*Solution, error)
	Params() Params
	// SetParams applies the recognized parameters and returns the names of the others.
	SetParams(params Params) ([]string, error)
	PlanMeta() *PlanMeta
}

// PlannerAllocator builds a planner for a space.
type PlannerAllocator func(si *SpaceInformation) (Planner, error)

// PlannerConstructor builds a planner of one type with the given name.
type PlannerConstructor func(si *SpaceInformation, name string) Planner

var (
	registryMu sync.RWMutex
	registry   = map[string]PlannerConstructor{}
)

const plannerTypePrefix = "geometric::"

func init() {
	RegisterPlanner(RRTConnectType, func(si *SpaceInformation, name string) Planner { return NewRRTConnect(si, name) })
	RegisterPlanner(RRTType, func(si *SpaceInformation, name string) Planner { return NewRRT(si, name) })
	RegisterPlanner(ProjESTType, func(si *SpaceInformation, name string) Planner { return NewProjEST(si, name) })
}

// RegisterPlanner makes a planner type available to AllocatePlanner.
func RegisterPlanner(plannerType string, ctor PlannerConstructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.TrimPrefix(plannerType, plannerTypePrefix)] = ctor
}

// PlannerTypes lists the registered planner types.
func PlannerTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := lo.Keys(registry)
	sort.Strings(types)
	return types
}

// AllocatePlanner builds a planner of the given type, named name when it is not empty, and applies
// params to it. Types may carry a "geometric::" prefix. Unrecognized parameters are logged.
func AllocatePlanner(si *SpaceInformation, plannerType, name string, params Params) (Planner, error) {
	registryMu.RLock()
	ctor, ok := registry[strings.TrimPrefix(plannerType, plannerTypePrefix)]
	registryMu.RUnlock()
	if !ok {
		return nil, NewUnknownPlannerError(plannerType)
	}
	p := ctor(si, name)
	unused, err := p.SetParams(params)
	if err != nil {
		return nil, err
	}
	if len(unused) > 0 {
		si.Logger().Warnw("ignoring unknown planner parameters", "planner", p.Name(), "params", unused)
	}
	return p, nil
}

// NewPlannerAllocator returns an allocator for AllocatePlanner with fixed arguments.
func NewPlannerAllocator(plannerType, name string, params Params) PlannerAllocator {
	params = params.Copy()
	return func(si *SpaceInformation) (Planner, error) {
		return AllocatePlanner(si, plannerType, name, params)
	}
}

// DefaultPlanner picks a planner suited to the goal: a bidirectional tree when goal states can be
// sampled, a goal-directed tree otherwise.
func DefaultPlanner(si *SpaceInformation, goal Goal) Planner {
	if _, ok := goal.(GoalSampleableRegion); ok {
		return NewRRTConnect(si, "")
	}
	return NewRRT(si, "")
}

// plannerBase holds what every planner shares.
type plannerBase struct {
	si     *SpaceInformation
	name   string
	typ    string
	logger logging.Logger
	meta   *PlanMeta

	mu sync.RWMutex
	pd *ProblemDefinition
}

func (pb *plannerBase) init(si *SpaceInformation, typ, name string) {
	if name == "" {
		name = typ
	}
	pb.si, pb.name, pb.typ = si, name, typ
	pb.logger = si.Logger().Sublogger(name)
	pb.meta = NewPlanMeta()
}

func (pb *plannerBase) Name() string {
	return pb.name
}

func (pb *plannerBase) Type() string {
	return pb.typ
}

func (pb *plannerBase) SpaceInformation() *SpaceInformation {
	return pb.si
}

func (pb *plannerBase) SetProblemDefinition(pd *ProblemDefinition) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.pd = pd
}

func (pb *plannerBase) ProblemDefinition() *ProblemDefinition {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.pd
}

func (pb *plannerBase) PlanMeta() *PlanMeta {
	return pb.meta
}

// problem returns the valid start states and the goal of the problem definition.
func (pb *plannerBase) problem() ([][]referenceframe.Input, Goal, error) {
	pd := pb.ProblemDefinition()
	if pd == nil || pd.Goal() == nil {
		return nil, nil, ErrNoGoal
	}
	var starts [][]referenceframe.Input
	for _, s := range pd.StartStates() {
		if pb.si.IsValid(s) {
			starts = append(starts, s)
		} else {
			pb.logger.Debugw("skipping invalid start state", "state", referenceframe.InputsString(s))
		}
	}
	if len(starts) == 0 {
		return nil, nil, ErrNoStartState
	}
	return starts, pd.Goal(), nil
}

// resolveRange returns the configured extension range, or a fifth of the space extent.
func (pb *plannerBase) resolveRange(configured float64) float64 {
	if configured > 0 {
		return configured
	}
	return 0.2 * pb.si.StateSpace().MaximumExtent()
}
