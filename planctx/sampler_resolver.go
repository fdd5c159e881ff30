package planctx

import (
	"go.viam.com/planctx/constraintsamplers"
	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/referenceframe"
)

// SamplerSource tells which tier a resolved sampler comes from.
type SamplerSource int

const (
	// DefaultSamplerSource is the state space's unconstrained sampler.
	DefaultSamplerSource SamplerSource = iota
	// ApproximationSamplerSource draws from a precomputed constraint approximation.
	ApproximationSamplerSource
	// ManagerSamplerSource is a specialized constraint sampler from the sampler manager.
	ManagerSamplerSource
)

func (s SamplerSource) String() string {
	switch s {
	case ApproximationSamplerSource:
		return "approximation"
	case ManagerSamplerSource:
		return "manager"
	case DefaultSamplerSource:
		return "default"
	default:
		return "unknown"
	}
}

// ResolvedSampler is the outcome of sampler resolution. StateSampler is set for the approximation
// and default sources, ConstraintSampler for the manager source.
type ResolvedSampler struct {
	Source            SamplerSource
	StateSampler      motionplan.StateSampler
	ConstraintSampler constraintsamplers.ConstraintSampler
}

// ConstraintSamplerResolver picks how to sample states under a constraint set: from a precomputed
// approximation when the library has one, else from a sampler the manager selects, else from the
// space's default sampler. Failing tiers fall through silently.
type ConstraintSamplerResolver struct {
	spec   *Specification
	logger logging.Logger
}

// NewConstraintSamplerResolver returns a resolver for the collaborators of the specification.
func NewConstraintSamplerResolver(spec *Specification, logger logging.Logger) *ConstraintSamplerResolver {
	return &ConstraintSamplerResolver{spec: spec, logger: logger}
}

// Resolve always returns a usable sampler.
func (r *ConstraintSamplerResolver) Resolve(
	ss *motionplan.StateSpace,
	scene constraintsamplers.Scene,
	cs *kinematicconstraints.ConstraintSet,
) ResolvedSampler {
	if !cs.Empty() {
		if lib := r.spec.ConstraintsLibrary; lib != nil {
			desc := cs.AllConstraints()
			if ca := lib.GetApproximation(desc); ca != nil {
				if alloc := ca.StateSamplerAllocator(desc); alloc != nil {
					if s := alloc(ss); s != nil {
						r.logger.Debug("using precomputed state sampler (approximated constraint space)")
						return ResolvedSampler{Source: ApproximationSamplerSource, StateSampler: s}
					}
				}
			}
		}
		if m := r.spec.ConstraintSamplerManager; m != nil && scene != nil {
			if s := m.SelectSampler(scene, ss.Group().Name(), cs); s != nil {
				r.logger.Debugf("allocating specialized %s for the state space", s.Name())
				return ResolvedSampler{Source: ManagerSamplerSource, ConstraintSampler: s}
			}
		}
	}
	r.logger.Debug("allocating default state sampler for the state space")
	return ResolvedSampler{Source: DefaultSamplerSource, StateSampler: ss.AllocDefaultStateSampler()}
}

// constrainedSampler adapts a constraint sampler to a state sampler. Variables outside the group
// come from the base state; draws the constraint sampler cannot satisfy fall back to uniform samples.
type constrainedSampler struct {
	ss       *motionplan.StateSpace
	cs       constraintsamplers.ConstraintSampler
	ks       *referenceframe.KinematicState
	fallback motionplan.StateSampler
	attempts int
}

func newConstrainedSampler(
	ss *motionplan.StateSpace,
	cs constraintsamplers.ConstraintSampler,
	base *referenceframe.KinematicState,
	attempts int,
) *constrainedSampler {
	return &constrainedSampler{ss: ss, cs: cs, ks: base.Copy(), fallback: ss.AllocDefaultStateSampler(), attempts: attempts}
}

func (s *constrainedSampler) SampleUniform(out []referenceframe.Input) {
	if s.cs.Sample(s.ks, s.attempts) {
		copy(out, s.ss.FromKinematicState(s.ks))
		return
	}
	s.fallback.SampleUniform(out)
}

func (s *constrainedSampler) SampleUniformNear(out, near []referenceframe.Input, distance float64) {
	s.fallback.SampleUniformNear(out, near, distance)
	if err := s.ss.CopyToKinematicState(s.ks, out); err != nil {
		return
	}
	if s.cs.Project(s.ks, s.attempts) {
		copy(out, s.ss.FromKinematicState(s.ks))
	}
}
