package motionplan

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

// ProjESTOptions are the parameters of ProjEST.
type ProjESTOptions struct {
	Range    float64 `mapstructure:"range"`
	GoalBias float64 `mapstructure:"goal_bias"`
}

type gridCell struct {
	nodes []*node
}

// ProjEST is an expansive-space tree planner. It keeps the tree's nodes in a grid over the space's
// default projection and expands from sparsely populated cells.
type ProjEST struct {
	plannerBase
	opts ProjESTOptions
	rnd  *rand.Rand
}

// NewProjEST returns a ProjEST planner.
func NewProjEST(si *SpaceInformation, name string) *ProjEST {
	p := &ProjEST{opts: ProjESTOptions{GoalBias: defaultGoalBias}, rnd: utils.NewRand()}
	p.init(si, ProjESTType, name)
	return p
}

// Setup implements Planner.
func (mp *ProjEST) Setup() error {
	if mp.si.StateSpace().DefaultProjection() == nil {
		return ErrNoProjection
	}
	mp.opts.Range = mp.resolveRange(mp.opts.Range)
	if mp.opts.GoalBias < 0 || mp.opts.GoalBias > 1 {
		mp.opts.GoalBias = defaultGoalBias
	}
	return nil
}

// Clear implements Planner.
func (mp *ProjEST) Clear() {}

// Params implements Planner.
func (mp *ProjEST) Params() Params {
	p, err := Encode(mp.opts)
	if err != nil {
		return Params{}
	}
	return p
}

// SetParams implements Planner.
func (mp *ProjEST) SetParams(params Params) ([]string, error) {
	return params.Decode(&mp.opts)
}

// Solve implements Planner. When the goal is not reached the path to the node closest to it is
// returned as an approximate solution.
func (mp *ProjEST) Solve(ptc *TerminationCondition) (*Solution, error) {
	defer mp.meta.DeferTiming("projEST", time.Now())
	starts, goal, err := mp.problem()
	if err != nil {
		return nil, err
	}
	if err := mp.Setup(); err != nil {
		return nil, err
	}
	gsr, sampleable := goal.(GoalSampleableRegion)
	proj := mp.si.StateSpace().DefaultProjection()
	sampler := mp.si.AllocStateSampler()

	tree := rrtMap{}
	grid := map[string]*gridCell{}
	var cells []*gridCell
	coords := make([]float64, proj.Dimension())
	addNode := func(n *node, parent *node) {
		tree[n] = parent
		proj.Project(n.inputs, coords)
		key := cellKey(coords, proj.CellSizes())
		c, ok := grid[key]
		if !ok {
			c = &gridCell{}
			grid[key] = c
			cells = append(cells, c)
		}
		c.nodes = append(c.nodes, n)
	}
	for _, s := range starts {
		if ok, _ := goal.IsSatisfied(s); ok {
			return &Solution{Path: NewPathGeometric(mp.si, s), PlannerName: mp.name}, nil
		}
		addNode(newConfigurationNode(s), nil)
	}

	xstate := make([]referenceframe.Input, mp.si.StateSpace().Dimension())
	for i := 0; !ptc.Eval(); i++ {
		existing := mp.selectNode(cells)
		if sampleable && mp.rnd.Float64() < mp.opts.GoalBias && gsr.CanSample() {
			gsr.SampleGoal(xstate)
		} else {
			sampler.SampleUniformNear(xstate, existing.inputs, mp.opts.Range)
		}
		if !mp.si.CheckMotion(existing.inputs, xstate) {
			continue
		}
		n := newConfigurationNode(referenceframe.CopyInputs(xstate))
		addNode(n, existing)
		if ok, _ := goal.IsSatisfied(n.inputs); ok {
			mp.logger.Debugf("goal reached after %d iterations with %d nodes in %d cells", i, len(tree), len(cells))
			return &Solution{Path: NewPathGeometric(mp.si, pathToRoot(tree, n)...), PlannerName: mp.name}, nil
		}
	}
	return approximateSolutionFromTree(mp.si, mp.name, goal, tree), nil
}

// selectNode picks a cell with probability inversely proportional to its population, then a node of
// it uniformly.
func (mp *ProjEST) selectNode(cells []*gridCell) *node {
	total := 0.
	for _, c := range cells {
		total += 1 / float64(len(c.nodes))
	}
	r := mp.rnd.Float64() * total
	chosen := cells[len(cells)-1]
	for _, c := range cells {
		r -= 1 / float64(len(c.nodes))
		if r <= 0 {
			chosen = c
			break
		}
	}
	return chosen.nodes[mp.rnd.Intn(len(chosen.nodes))]
}

func cellKey(coords, cellSizes []float64) string {
	key := make([]byte, 0, 8*len(coords))
	for i, c := range coords {
		size := 1.
		if i < len(cellSizes) && cellSizes[i] > 0 {
			size = cellSizes[i]
		}
		key = strconv.AppendInt(key, int64(math.Floor(c/size)), 10)
		key = append(key, ',')
	}
	return string(key)
}
