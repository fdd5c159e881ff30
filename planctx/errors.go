package planctx

import (
	"github.com/pkg/errors"
)

// ErrorCode is the structured outcome reported to callers that pass an out-parameter.
type ErrorCode int

// Error codes, mirroring the codes surfaced by the planning service.
const (
	Success ErrorCode = iota
	Failure
	PlanningFailed
	TimedOut
	InvalidGoalConstraints
	InvalidPathConstraints
	InvalidRobotState
)

func (c ErrorCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case Failure:
		return "FAILURE"
	case PlanningFailed:
		return "PLANNING_FAILED"
	case TimedOut:
		return "TIMED_OUT"
	case InvalidGoalConstraints:
		return "INVALID_GOAL_CONSTRAINTS"
	case InvalidPathConstraints:
		return "INVALID_PATH_CONSTRAINTS"
	case InvalidRobotState:
		return "INVALID_ROBOT_STATE"
	default:
		return "UNKNOWN"
	}
}

func setCode(out *ErrorCode, c ErrorCode) {
	if out != nil {
		*out = c
	}
}

var (
	// ErrInvalidGoalConstraints is returned when no goal constraint set survives merging.
	ErrInvalidGoalConstraints = errors.New("no goal constraints specified, there is no problem to solve")
	// ErrStartStateNotSet is returned by Configure before a start state is known.
	ErrStartStateNotSet = errors.New("start state not set")
	// ErrNoProjectionJoints is returned when a joint projection names no usable joint.
	ErrNoProjectionJoints = errors.New("no valid joints specified for joint projection")
	// ErrNoSolution is returned when a solution is requested before one was found.
	ErrNoSolution = errors.New("no solution path")
	// ErrSolveInProgress is returned by operations that cannot run while Solve is in flight.
	ErrSolveInProgress = errors.New("a solve is in progress")
)

// NewUnknownProjectionError is returned for projection evaluator descriptions that are neither a
// link nor a joint projection.
func NewUnknownProjectionError(desc string) error {
	return errors.Errorf("unable to allocate projection evaluator based on description: %q", desc)
}

// NewUnknownLinkError is returned for link projections on links the model does not have.
func NewUnknownLinkError(link string) error {
	return errors.Errorf("attempted to set projection evaluator with respect to position of link %q, "+
		"but that link is not known to the kinematic model", link)
}
