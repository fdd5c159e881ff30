package motionplan

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/referenceframe"
)

// HybridPlannerName names solutions built by combining the paths of several planners.
const HybridPlannerName = "hybrid"

// ParallelPlan runs several planners on the same problem at once.
type ParallelPlan struct {
	pd     *ProblemDefinition
	logger logging.Logger

	mu          sync.Mutex
	planners    []Planner
	hybridPaths []*PathGeometric
}

// NewParallelPlan returns a runner without planners for the problem.
func NewParallelPlan(pd *ProblemDefinition) *ParallelPlan {
	return &ParallelPlan{pd: pd, logger: pd.SpaceInformation().Logger().Sublogger("parallel")}
}

// AddPlanner adds a planner. Planners added more than once run more than once.
func (pp *ParallelPlan) AddPlanner(p Planner) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	pp.planners = append(pp.planners, p)
}

// AddPlannerAllocator builds a planner for the problem's space and adds it.
func (pp *ParallelPlan) AddPlannerAllocator(alloc PlannerAllocator) error {
	p, err := alloc(pp.pd.SpaceInformation())
	if err != nil {
		return err
	}
	pp.AddPlanner(p)
	return nil
}

// ClearPlanners removes every planner.
func (pp *ParallelPlan) ClearPlanners() {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	pp.planners = nil
}

// PlannerCount returns the number of planners.
func (pp *ParallelPlan) PlannerCount() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return len(pp.planners)
}

// ClearHybridizationPaths forgets the exact paths kept from earlier runs for hybridization.
func (pp *ParallelPlan) ClearHybridizationPaths() {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	pp.hybridPaths = nil
}

// HybridizationPathCount returns the number of exact paths kept for hybridization.
func (pp *ParallelPlan) HybridizationPathCount() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return len(pp.hybridPaths)
}

// Solve runs every planner concurrently until ptc fires or enough exact solutions exist. Without
// hybridization the planners stop after minSolCount exact solutions; with it they stop after
// maxSolCount, and the exact paths collected so far are combined into a possibly shorter one.
// Solutions are added to the problem definition once all planners have returned. Solve reports
// whether any of these planners found a solution, exact or approximate; paths kept from earlier
// runs never make a run succeed. A planner that fails with an error counts as one that found
// nothing, and the errors are logged.
func (pp *ParallelPlan) Solve(
	ctx context.Context,
	ptc *TerminationCondition,
	minSolCount, maxSolCount int,
	hybridize bool,
) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "motionplan::ParallelPlan::Solve")
	defer span.End()

	pp.mu.Lock()
	planners := append([]Planner(nil), pp.planners...)
	pp.mu.Unlock()
	if len(planners) == 0 {
		return false, ErrNoPlanner
	}
	if minSolCount < 1 {
		minSolCount = 1
	}
	if maxSolCount < minSolCount {
		maxSolCount = minSolCount
	}
	enough := minSolCount
	if hybridize {
		enough = maxSolCount
	}

	var found atomic.Int64
	stop := Or(ptc, NewTerminationCondition(func() bool { return found.Load() >= int64(enough) }))

	for _, p := range planners {
		p.SetProblemDefinition(pp.pd)
		if err := p.Setup(); err != nil {
			return false, err
		}
	}

	solutions := make([]*Solution, len(planners))
	errs := make([]error, len(planners))
	var g errgroup.Group
	for i, p := range planners {
		g.Go(func() error {
			sol, err := p.Solve(stop)
			if err != nil {
				errs[i] = errors.Wrap(err, p.Name())
				return nil
			}
			if sol != nil && !sol.Approximate {
				found.Inc()
			}
			solutions[i] = sol
			return nil
		})
	}
	goutils.UncheckedError(g.Wait())
	if err := multierr.Combine(errs...); err != nil {
		pp.logger.Warnw("planners failed", "failed", len(multierr.Errors(err)), "planners", len(planners), "error", err)
	}

	solved := false
	var exact []*PathGeometric
	for _, sol := range solutions {
		if sol == nil {
			continue
		}
		solved = true
		pp.pd.AddSolutionPath(sol)
		if !sol.Approximate {
			exact = append(exact, sol.Path)
		}
	}
	pp.logger.CDebugf(ctx, "%d planners returned %d exact solutions", len(planners), len(exact))

	// only a run that added exact paths can improve on what the earlier runs found
	if hybridize && len(exact) > 0 {
		pp.mu.Lock()
		pp.hybridPaths = append(pp.hybridPaths, exact...)
		pool := append([]*PathGeometric(nil), pp.hybridPaths...)
		pp.mu.Unlock()
		if len(pool) >= 2 && len(pool) >= minSolCount && !ptc.Eval() {
			if hybrid := computeHybridPath(pp.pd.SpaceInformation(), pool); hybrid != nil {
				pp.logger.CDebugf(ctx, "hybridized %d paths into one of length %.4f", len(pool), hybrid.Length())
				pp.pd.AddSolutionPath(&Solution{Path: hybrid, PlannerName: HybridPlannerName})
			}
		}
	}
	return solved, nil
}

// computeHybridPath finds the shortest route through the union of the paths, switching between
// paths wherever a valid motion joins a state of one to the nearest state of another. It returns
// nil when the result is not shorter than the shortest input path.
func computeHybridPath(si *SpaceInformation, paths []*PathGeometric) *PathGeometric {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	states := map[int64][]referenceframe.Input{}
	ids := make([][]int64, len(paths))
	var next int64 = 1 // 0 is the virtual source
	source := simple.Node(0)
	g.AddNode(source)

	shortest := math.Inf(1)
	for i, p := range paths {
		shortest = math.Min(shortest, p.Length())
		for j, s := range p.states {
			id := next
			next++
			g.AddNode(simple.Node(id))
			states[id] = s
			ids[i] = append(ids[i], id)
			if j == 0 {
				g.SetWeightedEdge(g.NewWeightedEdge(source, simple.Node(id), 0))
				continue
			}
			prev := ids[i][j-1]
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(prev), simple.Node(id), si.Distance(states[prev], s)))
		}
	}

	// link every state to the closest state of each other path
	for i := range paths {
		for _, a := range ids[i] {
			for k := range paths {
				if k == i {
					continue
				}
				var best int64 = -1
				bestDist := math.Inf(1)
				for _, b := range ids[k] {
					if d := si.Distance(states[a], states[b]); d < bestDist {
						best, bestDist = b, d
					}
				}
				if best < 0 || g.HasEdgeBetween(a, best) {
					continue
				}
				if si.CheckMotion(states[a], states[best]) {
					g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(a), simple.Node(best), bestDist))
				}
			}
		}
	}

	tree := path.DijkstraFrom(source, g)
	var route []int64
	cost := math.Inf(1)
	for i := range paths {
		last := ids[i][len(ids[i])-1]
		nodes, w := tree.To(last)
		if len(nodes) == 0 || w >= cost {
			continue
		}
		cost = w
		route = route[:0]
		for _, n := range nodes[1:] {
			route = append(route, n.ID())
		}
	}
	if len(route) == 0 || cost >= shortest-1e-9 {
		return nil
	}
	hybrid := NewPathGeometric(si)
	for _, id := range route {
		hybrid.Append(states[id])
	}
	return hybrid
}
