package planctx

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"

	"go.viam.com/planctx/constraintsamplers"
	"go.viam.com/planctx/constraintslibrary"
	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/motionplan"
)

// Recognized planner configuration keys. Every other key is a planner parameter.
const (
	ProjectionEvaluatorKey = "projection_evaluator"
	MaxVelocityKey         = "max_velocity"
	MaxAccelerationKey     = "max_acceleration"
	PlannerTypeKey         = "type"
)

// PlannerSelector allocates a planner of the given type. The name is empty when the planner should
// be named after its type.
type PlannerSelector func(si *motionplan.SpaceInformation, plannerType, name string, params motionplan.Params) (motionplan.Planner, error)

// SamplerManager selects a specialized sampler for the constraints on a group, or returns nil.
type SamplerManager interface {
	SelectSampler(scene constraintsamplers.Scene, group string, cs *kinematicconstraints.ConstraintSet) constraintsamplers.ConstraintSampler
}

// ApproximationLibrary holds precomputed approximations of constrained regions.
type ApproximationLibrary interface {
	GetApproximation(desc *kinematicconstraints.Constraints) *constraintslibrary.Approximation
}

// Specification is the configuration a planning context is created with. It is shared, read-only,
// by the context for its whole lifetime.
type Specification struct {
	// Config holds the planner configuration as written, see ParseOptions.
	Config map[string]string
	// PlannerSelector defaults to motionplan.AllocatePlanner.
	PlannerSelector          PlannerSelector
	ConstraintSamplerManager SamplerManager
	ConstraintsLibrary       ApproximationLibrary
}

func (s *Specification) plannerSelector() PlannerSelector {
	if s.PlannerSelector == nil {
		return motionplan.AllocatePlanner
	}
	return s.PlannerSelector
}

// Options is the validated form of a planner configuration.
type Options struct {
	ProjectionEvaluator string
	MaxVelocity         *float64
	MaxAcceleration     *float64
	PlannerType         string
	// PlannerParams holds every unrecognized key, for the planner and the space information.
	PlannerParams motionplan.Params
}

// Empty reports whether nothing beyond the recognized limits and projection is configured.
func (o *Options) Empty() bool {
	return o.PlannerType == "" && len(o.PlannerParams) == 0
}

// ParseOptions validates a planner configuration. Malformed numbers are reported in the combined
// error while every other option is still returned.
func ParseOptions(config map[string]string) (*Options, error) {
	opts := &Options{PlannerParams: motionplan.Params{}}
	var errs error
	for key, raw := range config {
		value := strings.TrimSpace(raw)
		switch key {
		case ProjectionEvaluatorKey:
			opts.ProjectionEvaluator = value
		case MaxVelocityKey:
			v, err := cast.ToFloat64E(value)
			if err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "%s", key))
				continue
			}
			opts.MaxVelocity = &v
		case MaxAccelerationKey:
			v, err := cast.ToFloat64E(value)
			if err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "%s", key))
				continue
			}
			opts.MaxAcceleration = &v
		case PlannerTypeKey:
			opts.PlannerType = value
		default:
			opts.PlannerParams[key] = raw
		}
	}
	return opts, errs
}
