package motionplan

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	errZeroDimensionalSpace    = errors.New("state space has no variables")
	errInvalidSegmentFraction  = errors.New("longest_valid_segment_fraction must be in (0, 1]")
	errInvalidSamplingAttempts = errors.New("valid_state_sampler_attempts must be positive")

	// ErrNoStartState is returned when a problem has no valid start state.
	ErrNoStartState = errors.New("no valid start states")
	// ErrNoGoal is returned when a problem has no goal.
	ErrNoGoal = errors.New("no goal specified")
	// ErrNoGoalSamples is returned when a sampleable goal cannot produce goal states.
	ErrNoGoalSamples = errors.New("goal cannot be sampled")
	// ErrUnrecognizedGoalType is returned when a planner cannot use the goal it is given.
	ErrUnrecognizedGoalType = errors.New("planner does not support the goal type")
	// ErrNoProjection is returned by projection-based planners on spaces without a projection.
	ErrNoProjection = errors.New("no projection evaluator available")
	// ErrNoPlanner is returned when no planner could be allocated.
	ErrNoPlanner = errors.New("no planner")
)

// NewUnknownPlannerError is returned when a planner type is not registered.
func NewUnknownPlannerError(plannerType string) error {
	return fmt.Errorf("unknown planner type %q", plannerType)
}
