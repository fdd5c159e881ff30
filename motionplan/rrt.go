package motionplan

import (
	"context"
	"math/rand"
	"time"

	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

const defaultGoalBias = 0.05

// RRTOptions are the parameters of RRT.
type RRTOptions struct {
	Range float64 `mapstructure:"range"`
	// GoalBias is the probability of growing towards a goal sample instead of a random state.
	GoalBias float64 `mapstructure:"goal_bias"`
}

// RRT grows a single tree from the start states, biased towards goal samples when the goal can be
// sampled. Goals that cannot be sampled are reached by chance.
type RRT struct {
	plannerBase
	opts RRTOptions
	rnd  *rand.Rand
}

// NewRRT returns an RRT planner.
func NewRRT(si *SpaceInformation, name string) *RRT {
	p := &RRT{opts: RRTOptions{GoalBias: defaultGoalBias}, rnd: utils.NewRand()}
	p.init(si, RRTType, name)
	return p
}

// Setup implements Planner.
func (mp *RRT) Setup() error {
	mp.opts.Range = mp.resolveRange(mp.opts.Range)
	if mp.opts.GoalBias < 0 || mp.opts.GoalBias > 1 {
		mp.opts.GoalBias = defaultGoalBias
	}
	return nil
}

// Clear implements Planner.
func (mp *RRT) Clear() {}

// Params implements Planner.
func (mp *RRT) Params() Params {
	p, err := Encode(mp.opts)
	if err != nil {
		return Params{}
	}
	return p
}

// SetParams implements Planner.
func (mp *RRT) SetParams(params Params) ([]string, error) {
	return params.Decode(&mp.opts)
}

// Solve implements Planner. When the goal is not reached the path to the node closest to it is
// returned as an approximate solution.
func (mp *RRT) Solve(ptc *TerminationCondition) (*Solution, error) {
	defer mp.meta.DeferTiming("rrt", time.Now())
	starts, goal, err := mp.problem()
	if err != nil {
		return nil, err
	}
	if err := mp.Setup(); err != nil {
		return nil, err
	}
	gsr, sampleable := goal.(GoalSampleableRegion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	nm := newNeighborManager(mp.si.Distance)
	sampler := mp.si.AllocStateSampler()

	tree := rrtMap{}
	for _, s := range starts {
		n := newConfigurationNode(s)
		tree[n] = nil
		if ok, _ := goal.IsSatisfied(s); ok {
			return &Solution{Path: NewPathGeometric(mp.si, s), PlannerName: mp.name}, nil
		}
	}

	rstate := make([]referenceframe.Input, mp.si.StateSpace().Dimension())
	for i := 0; !ptc.Eval(); i++ {
		if sampleable && mp.rnd.Float64() < mp.opts.GoalBias && gsr.CanSample() {
			gsr.SampleGoal(rstate)
		} else {
			sampler.SampleUniform(rstate)
		}

		nearest := nm.nearestNeighbor(ctx, rstate, tree)
		dstate := rstate
		if d := mp.si.Distance(nearest.inputs, rstate); d > mp.opts.Range {
			dstate = mp.si.StateSpace().Interpolate(nearest.inputs, rstate, mp.opts.Range/d)
		}
		if !mp.si.CheckMotion(nearest.inputs, dstate) {
			continue
		}
		n := newConfigurationNode(referenceframe.CopyInputs(dstate))
		tree[n] = nearest
		if ok, _ := goal.IsSatisfied(n.inputs); ok {
			mp.logger.CDebugf(ctx, "goal reached after %d iterations with %d nodes", i, len(tree))
			return &Solution{Path: NewPathGeometric(mp.si, pathToRoot(tree, n)...), PlannerName: mp.name}, nil
		}
	}
	return approximateSolutionFromTree(mp.si, mp.name, goal, tree), nil
}
