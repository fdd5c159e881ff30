package motionplan

import (
	"math"

	"go.uber.org/atomic"

	"go.viam.com/planctx/referenceframe"
)

// StateValidityChecker decides whether a single state may be part of a solution. Checkers are
// called concurrently by parallel planners.
type StateValidityChecker interface {
	IsValid(state []referenceframe.Input) bool
}

// StateValidityCheckerFunc adapts a function to a StateValidityChecker.
type StateValidityCheckerFunc func(state []referenceframe.Input) bool

// IsValid calls f.
func (f StateValidityCheckerFunc) IsValid(state []referenceframe.Input) bool {
	return f(state)
}

// AllValidStateValidityChecker accepts every state.
type AllValidStateValidityChecker struct{}

// IsValid implements StateValidityChecker.
func (AllValidStateValidityChecker) IsValid([]referenceframe.Input) bool {
	return true
}

// MotionValidator decides whether the straight-line motion between two states is valid. The first
// state is assumed valid.
type MotionValidator interface {
	CheckMotion(s1, s2 []referenceframe.Input) bool
	// CheckMotionPartial also returns the last valid state along the motion and the fraction of the
	// motion it is at.
	CheckMotionPartial(s1, s2 []referenceframe.Input) (bool, []referenceframe.Input, float64)
	ValidMotionCount() int64
	InvalidMotionCount() int64
	ResetMotionCounter()
}

// DiscreteMotionValidator checks motions at the resolution of the space information's longest valid
// segment.
type DiscreteMotionValidator struct {
	si      *SpaceInformation
	valid   atomic.Int64
	invalid atomic.Int64
}

// NewDiscreteMotionValidator returns a validator for the space information.
func NewDiscreteMotionValidator(si *SpaceInformation) *DiscreteMotionValidator {
	return &DiscreteMotionValidator{si: si}
}

// CheckMotion implements MotionValidator. The end state is checked first, then intermediate states
// in bisection order so collisions near the middle are found early.
func (mv *DiscreteMotionValidator) CheckMotion(s1, s2 []referenceframe.Input) bool {
	if !mv.si.IsValid(s2) {
		mv.invalid.Inc()
		return false
	}
	nd := mv.si.ValidSegmentCount(s1, s2)
	if nd > 1 {
		type interval struct{ lo, hi int }
		queue := []interval{{1, nd - 1}}
		for len(queue) > 0 {
			iv := queue[0]
			queue = queue[1:]
			if iv.lo > iv.hi {
				continue
			}
			mid := (iv.lo + iv.hi) / 2
			if !mv.si.IsValid(mv.si.StateSpace().Interpolate(s1, s2, float64(mid)/float64(nd))) {
				mv.invalid.Inc()
				return false
			}
			queue = append(queue, interval{iv.lo, mid - 1}, interval{mid + 1, iv.hi})
		}
	}
	mv.valid.Inc()
	return true
}

// CheckMotionPartial implements MotionValidator by walking from s1 towards s2.
func (mv *DiscreteMotionValidator) CheckMotionPartial(s1, s2 []referenceframe.Input) (bool, []referenceframe.Input, float64) {
	ss := mv.si.StateSpace()
	nd := mv.si.ValidSegmentCount(s1, s2)
	last := referenceframe.CopyInputs(s1)
	for j := 1; j <= nd; j++ {
		t := float64(j) / float64(nd)
		st := ss.Interpolate(s1, s2, t)
		if !mv.si.IsValid(st) {
			mv.invalid.Inc()
			return false, last, float64(j-1) / float64(nd)
		}
		last = st
	}
	mv.valid.Inc()
	return true, last, 1
}

// ValidMotionCount implements MotionValidator.
func (mv *DiscreteMotionValidator) ValidMotionCount() int64 {
	return mv.valid.Load()
}

// InvalidMotionCount implements MotionValidator.
func (mv *DiscreteMotionValidator) InvalidMotionCount() int64 {
	return mv.invalid.Load()
}

// ResetMotionCounter implements MotionValidator.
func (mv *DiscreteMotionValidator) ResetMotionCounter() {
	mv.valid.Store(0)
	mv.invalid.Store(0)
}

// ValidSegmentCount returns the number of segments the motion between two states is checked in.
func (si *SpaceInformation) ValidSegmentCount(s1, s2 []referenceframe.Input) int {
	seg := si.LongestValidSegmentLength()
	if seg <= 0 {
		return 1
	}
	n := int(math.Ceil(si.ss.Distance(s1, s2) / seg))
	if n < 1 {
		return 1
	}
	return n
}
