package planctx

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/referenceframe"
)

// ConstrainedGoalSampler is a lazily sampled goal region made of the states that satisfy a goal
// constraint set. Goal states are drawn in the background with the sampler resolved for the set,
// until the context's goal sample limit or goal sampling attempt limit is reached.
type ConstrainedGoalSampler struct {
	*motionplan.GoalLazySamples
	pc       *PlanningContext
	cs       *kinematicconstraints.ConstraintSet
	sampler  ResolvedSampler
	base     *referenceframe.KinematicState
	attempts atomic.Int64

	// owned by the sampling goroutine
	ks *referenceframe.KinematicState
}

func newConstrainedGoalSampler(pc *PlanningContext, cs *kinematicconstraints.ConstraintSet, sampler ResolvedSampler) *ConstrainedGoalSampler {
	base := pc.CompleteInitialState()
	g := &ConstrainedGoalSampler{pc: pc, cs: cs, sampler: sampler, base: base, ks: base.Copy()}
	g.GoalLazySamples = motionplan.NewGoalLazySamples(pc.setup.SpaceInformation(), g.sample, false, math.SmallestNonzeroFloat64)
	return g
}

// ConstraintSet returns the goal constraints.
func (g *ConstrainedGoalSampler) ConstraintSet() *kinematicconstraints.ConstraintSet {
	return g.cs
}

// SamplerSource tells how goal states are drawn.
func (g *ConstrainedGoalSampler) SamplerSource() SamplerSource {
	return g.sampler.Source
}

// IsSatisfied implements motionplan.Goal: a state is a goal state when it satisfies the goal
// constraints.
func (g *ConstrainedGoalSampler) IsSatisfied(state []referenceframe.Input) (bool, float64) {
	ks := g.base.Copy()
	if err := g.pc.ss.CopyToKinematicState(ks, state); err != nil {
		return false, math.Inf(1)
	}
	res := g.cs.Decide(ks)
	return res.Satisfied, res.Distance
}

func (g *ConstrainedGoalSampler) sample(gls *motionplan.GoalLazySamples, out []referenceframe.Input) bool {
	maxSamples := g.pc.MaxGoalSamples()
	maxAttempts := int64(g.pc.MaxGoalSamplingAttempts())
	stateAttempts := g.pc.MaxStateSamplingAttempts()
	si := gls.SpaceInformation()
	ss := si.StateSpace()

	for gls.IsSampling() && gls.StateCount() < maxSamples {
		if g.attempts.Inc() > maxAttempts {
			g.pc.logger.Debugf("stopped sampling goal %q after %d attempts, %d states found", g.cs.Name(), maxAttempts, gls.StateCount())
			return false
		}
		switch g.sampler.Source {
		case ManagerSamplerSource:
			if !g.sampler.ConstraintSampler.Sample(g.ks, stateAttempts) {
				continue
			}
			copy(out, ss.FromKinematicState(g.ks))
		case DefaultSamplerSource, ApproximationSamplerSource:
			g.sampler.StateSampler.SampleUniform(out)
			if err := ss.CopyToKinematicState(g.ks, out); err != nil {
				continue
			}
		}
		if !ss.SatisfiesBounds(out) || !g.cs.Decide(g.ks).Satisfied || !si.IsValid(out) {
			continue
		}
		return true
	}
	return false
}

// constructGoal builds one goal region per goal constraint set. A single region is used directly;
// several are combined into a union.
func (pc *PlanningContext) constructGoal(goals []*kinematicconstraints.ConstraintSet) (motionplan.Goal, error) {
	members := make([]motionplan.GoalSampleableRegion, 0, len(goals))
	for _, cs := range goals {
		sampler := pc.resolver.Resolve(pc.ss, pc.samplerScene(), cs)
		members = append(members, newConstrainedGoalSampler(pc, cs, sampler))
	}
	switch len(members) {
	case 0:
		return nil, errors.New("unable to construct goal representation")
	case 1:
		return members[0], nil
	default:
		return motionplan.NewGoalUnion(members...), nil
	}
}
