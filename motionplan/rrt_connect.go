package motionplan

import (
	"context"
	"math"
	"time"

	goutils "go.viam.com/utils"

	"go.viam.com/planctx/referenceframe"
)

// Planner type names.
const (
	RRTConnectType = "RRTConnect"
	RRTType        = "RRT"
	ProjESTType    = "ProjEST"
)

// goalSampleWait is how long tree planners wait for a lazy goal to produce its first state.
const goalSampleWait = time.Millisecond

// RRTConnectOptions are the parameters of RRTConnect.
type RRTConnectOptions struct {
	// Range is the longest motion added to a tree in one step. Zero picks a fifth of the space extent.
	Range float64 `mapstructure:"range"`
}

type growStatus int

const (
	trapped growStatus = iota
	advanced
	reached
)

// RRTConnect grows one tree from the start states and one from goal samples, extending them in turn
// towards random states and each other until they meet.
type RRTConnect struct {
	plannerBase
	opts RRTConnectOptions
}

// NewRRTConnect returns an RRTConnect planner.
func NewRRTConnect(si *SpaceInformation, name string) *RRTConnect {
	p := &RRTConnect{}
	p.init(si, RRTConnectType, name)
	return p
}

// Setup implements Planner.
func (mp *RRTConnect) Setup() error {
	mp.opts.Range = mp.resolveRange(mp.opts.Range)
	return nil
}

// Clear implements Planner. Trees only live for one Solve.
func (mp *RRTConnect) Clear() {}

// Params implements Planner.
func (mp *RRTConnect) Params() Params {
	p, err := Encode(mp.opts)
	if err != nil {
		return Params{}
	}
	return p
}

// SetParams implements Planner.
func (mp *RRTConnect) SetParams(params Params) ([]string, error) {
	return params.Decode(&mp.opts)
}

// Solve implements Planner. The trees never produce approximate solutions.
func (mp *RRTConnect) Solve(ptc *TerminationCondition) (*Solution, error) {
	defer mp.meta.DeferTiming("rrtConnect", time.Now())
	starts, goal, err := mp.problem()
	if err != nil {
		return nil, err
	}
	gsr, ok := goal.(GoalSampleableRegion)
	if !ok {
		return nil, ErrUnrecognizedGoalType
	}
	if err := mp.Setup(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	nm := newNeighborManager(mp.si.Distance)
	sampler := mp.si.AllocStateSampler()
	dim := mp.si.StateSpace().Dimension()

	startMap, goalMap := rrtMap{}, rrtMap{}
	var goalRoots []*node
	for _, s := range starts {
		startMap[newConfigurationNode(s)] = nil
	}
	mp.logger.CDebugf(ctx, "starting with %d start states, range %.4f", len(startMap), mp.opts.Range)

	map1, map2 := startMap, goalMap
	rstate := make([]referenceframe.Input, dim)
	for i := 0; !ptc.Eval(); i++ {
		if !mp.addGoalState(gsr, goalMap, &goalRoots) {
			if !gsr.CouldSample() {
				return nil, ErrNoGoalSamples
			}
			goutils.SelectContextOrWait(ctx, goalSampleWait)
			continue
		}

		sampler.SampleUniform(rstate)
		added, status := mp.grow(ctx, nm, map1, rstate)
		if status != trapped {
			// try to connect the other tree to the state just added
			var other *node
			otherStatus := advanced
			for otherStatus == advanced && !ptc.Eval() {
				other, otherStatus = mp.grow(ctx, nm, map2, added.inputs)
			}
			if otherStatus == reached {
				mp.logger.CDebugf(ctx, "trees connected after %d iterations, %d + %d nodes", i, len(startMap), len(goalMap))
				path := extractPath(startMap, goalMap, &nodePair{added, other}, true)
				return &Solution{Path: NewPathGeometric(mp.si, path...), PlannerName: mp.name}, nil
			}
		}
		map1, map2 = map2, map1
	}

	return nil, nil
}

// addGoalState roots a newly sampled goal state in the goal tree while the goal has more samples
// than the tree has roots. It reports whether the goal tree has any root.
func (mp *RRTConnect) addGoalState(gsr GoalSampleableRegion, goalMap rrtMap, roots *[]*node) bool {
	if len(*roots) > 0 && len(*roots) >= gsr.MaxSampleCount() {
		return true
	}
	g := make([]referenceframe.Input, mp.si.StateSpace().Dimension())
	if !gsr.CanSample() || !gsr.SampleGoal(g) || !mp.si.IsValid(g) {
		return len(*roots) > 0
	}
	for _, n := range *roots {
		if mp.si.StateSpace().EqualStates(n.inputs, g) {
			return true
		}
	}
	n := newConfigurationNode(g)
	goalMap[n] = nil
	*roots = append(*roots, n)
	return true
}

// grow extends the tree from its node nearest to target by at most the planner range.
func (mp *RRTConnect) grow(ctx context.Context, nm *neighborManager, tree rrtMap, target []referenceframe.Input) (*node, growStatus) {
	nearest := nm.nearestNeighbor(ctx, target, tree)
	if nearest == nil {
		return nil, trapped
	}
	status := reached
	dstate := target
	if d := mp.si.Distance(nearest.inputs, target); d > mp.opts.Range {
		dstate = mp.si.StateSpace().Interpolate(nearest.inputs, target, mp.opts.Range/d)
		status = advanced
	}
	if !mp.si.CheckMotion(nearest.inputs, dstate) {
		return nil, trapped
	}
	n := newConfigurationNode(referenceframe.CopyInputs(dstate))
	tree[n] = nearest
	return n, status
}

// approximateSolutionFromTree returns the path to the grown node of the tree closest to the goal.
// Roots do not count, a tree that never grew has no approximation.
func approximateSolutionFromTree(si *SpaceInformation, plannerName string, goal Goal, tree rrtMap) *Solution {
	var best *node
	bestDist := math.Inf(1)
	for n, parent := range tree {
		if parent == nil {
			continue
		}
		if _, d := goal.IsSatisfied(n.inputs); d < bestDist {
			bestDist = d
			best = n
		}
	}
	if best == nil || math.IsInf(bestDist, 1) {
		return nil
	}
	return &Solution{
		Path:        NewPathGeometric(si, pathToRoot(tree, best)...),
		Approximate: true,
		Difference:  bestDist,
		PlannerName: plannerName,
	}
}
