package motionplan

import (
	"sync"

	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/referenceframe"
)

const (
	defaultLongestValidSegmentFraction = 0.01
	defaultValidStateSamplingAttempts  = 100
)

// SpaceInformationParams are the space information settings reachable through planner
// configurations.
type SpaceInformationParams struct {
	LongestValidSegmentFraction float64 `mapstructure:"longest_valid_segment_fraction"`
	ValidStateSamplingAttempts  int     `mapstructure:"valid_state_sampler_attempts"`
}

// SpaceInformation bundles a state space with the notion of validity planners search under.
type SpaceInformation struct {
	ss     *StateSpace
	logger logging.Logger

	mu              sync.RWMutex
	checker         StateValidityChecker
	motionValidator MotionValidator
	params          SpaceInformationParams
	isSetup         bool
}

// NewSpaceInformation returns space information that treats every in-bounds state as valid.
func NewSpaceInformation(ss *StateSpace, logger logging.Logger) *SpaceInformation {
	si := &SpaceInformation{
		ss:     ss,
		logger: logger,
		params: SpaceInformationParams{
			LongestValidSegmentFraction: defaultLongestValidSegmentFraction,
			ValidStateSamplingAttempts:  defaultValidStateSamplingAttempts,
		},
	}
	si.motionValidator = NewDiscreteMotionValidator(si)
	return si
}

// StateSpace returns the space.
func (si *SpaceInformation) StateSpace() *StateSpace {
	return si.ss
}

// Logger returns the logger planners built on this space information log to.
func (si *SpaceInformation) Logger() logging.Logger {
	return si.logger
}

// SetStateValidityChecker replaces the validity checker. A nil checker accepts every state.
func (si *SpaceInformation) SetStateValidityChecker(c StateValidityChecker) {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.checker = c
}

// StateValidityChecker returns the installed validity checker, possibly nil.
func (si *SpaceInformation) StateValidityChecker() StateValidityChecker {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.checker
}

// IsValid reports whether the state is in bounds and accepted by the validity checker.
func (si *SpaceInformation) IsValid(state []referenceframe.Input) bool {
	if !si.ss.SatisfiesBounds(state) {
		return false
	}
	c := si.StateValidityChecker()
	return c == nil || c.IsValid(state)
}

// SetMotionValidator replaces the motion validator.
func (si *SpaceInformation) SetMotionValidator(mv MotionValidator) {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.motionValidator = mv
}

// MotionValidator returns the motion validator.
func (si *SpaceInformation) MotionValidator() MotionValidator {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.motionValidator
}

// CheckMotion validates the motion between two states.
func (si *SpaceInformation) CheckMotion(s1, s2 []referenceframe.Input) bool {
	return si.MotionValidator().CheckMotion(s1, s2)
}

// Distance is the state space distance.
func (si *SpaceInformation) Distance(a, b []referenceframe.Input) float64 {
	return si.ss.Distance(a, b)
}

// AllocStateSampler returns a sampler from the state space.
func (si *SpaceInformation) AllocStateSampler() StateSampler {
	return si.ss.AllocStateSampler()
}

// Params returns the current settings.
func (si *SpaceInformation) Params() SpaceInformationParams {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.params
}

// SetParams decodes the recognized settings from the bag, returning the names it did not recognize.
// Invalid values leave the settings untouched.
func (si *SpaceInformation) SetParams(params Params) ([]string, error) {
	next := si.Params()
	unused, err := params.Decode(&next)
	if err != nil {
		return nil, err
	}
	if next.LongestValidSegmentFraction <= 0 || next.LongestValidSegmentFraction > 1 {
		return unused, errInvalidSegmentFraction
	}
	if next.ValidStateSamplingAttempts <= 0 {
		return unused, errInvalidSamplingAttempts
	}
	si.mu.Lock()
	si.params = next
	si.mu.Unlock()
	return unused, nil
}

// SetLongestValidSegmentFraction sets the segment fraction of the space's maximum extent at which
// motions are checked.
func (si *SpaceInformation) SetLongestValidSegmentFraction(f float64) {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.params.LongestValidSegmentFraction = f
}

// LongestValidSegmentLength is the longest motion assumed valid when both its ends are.
func (si *SpaceInformation) LongestValidSegmentLength() float64 {
	return si.Params().LongestValidSegmentFraction * si.ss.MaximumExtent()
}

// SetValidStateSamplingAttempts sets how many samples SampleValid draws.
func (si *SpaceInformation) SetValidStateSamplingAttempts(n int) {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.params.ValidStateSamplingAttempts = n
}

// ValidStateSamplingAttempts returns how many samples SampleValid draws.
func (si *SpaceInformation) ValidStateSamplingAttempts() int {
	return si.Params().ValidStateSamplingAttempts
}

// Setup checks the space information is usable. It may be called repeatedly.
func (si *SpaceInformation) Setup() error {
	if si.ss.Dimension() == 0 {
		return errZeroDimensionalSpace
	}
	si.mu.Lock()
	defer si.mu.Unlock()
	if si.checker == nil {
		si.logger.Debug("no state validity checker set, in-bounds states are valid")
	}
	si.isSetup = true
	return nil
}

// IsSetup reports whether Setup has succeeded.
func (si *SpaceInformation) IsSetup() bool {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.isSetup
}
