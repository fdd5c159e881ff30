package motionplan

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
)

// TerminationCondition tells planners when to stop. It fires when its predicate holds or after
// Terminate has been called, and may be polled from any number of goroutines.
type TerminationCondition struct {
	eval       func() bool
	terminated atomic.Bool
}

// NewTerminationCondition returns a condition that fires when eval returns true. A nil eval only
// fires on Terminate.
func NewTerminationCondition(eval func() bool) *TerminationCondition {
	return &TerminationCondition{eval: eval}
}

// NewTimedTerminationCondition fires once the duration has passed on the clock.
func NewTimedTerminationCondition(clk clock.Clock, d time.Duration) *TerminationCondition {
	return NewDeadlineTerminationCondition(clk, clk.Now().Add(d))
}

// NewDeadlineTerminationCondition fires once the clock reaches the deadline.
func NewDeadlineTerminationCondition(clk clock.Clock, deadline time.Time) *TerminationCondition {
	return NewTerminationCondition(func() bool {
		return !clk.Now().Before(deadline)
	})
}

// NewContextTerminationCondition fires once the context is done.
func NewContextTerminationCondition(ctx context.Context) *TerminationCondition {
	return NewTerminationCondition(func() bool {
		return ctx.Err() != nil
	})
}

// Or returns a condition that fires when either condition fires. Terminating the result does not
// terminate its operands.
func Or(a, b *TerminationCondition) *TerminationCondition {
	return NewTerminationCondition(func() bool {
		return a.Eval() || b.Eval()
	})
}

// Terminate makes the condition fire.
func (tc *TerminationCondition) Terminate() {
	tc.terminated.Store(true)
}

// Terminated reports whether Terminate was called.
func (tc *TerminationCondition) Terminated() bool {
	return tc.terminated.Load()
}

// Eval reports whether the planner should stop.
func (tc *TerminationCondition) Eval() bool {
	if tc.terminated.Load() {
		return true
	}
	return tc.eval != nil && tc.eval()
}
