package planctx

import (
	"sync"

	"go.viam.com/planctx/motionplan"
)

// TerminationController holds the termination condition of the solve in flight, so that another
// goroutine can cancel it.
type TerminationController struct {
	mu  sync.Mutex
	ptc *motionplan.TerminationCondition
}

// Register installs the condition of a starting solve, replacing any stale one.
func (tc *TerminationController) Register(ptc *motionplan.TerminationCondition) {
	tc.mu.Lock()
	tc.ptc = ptc
	tc.mu.Unlock()
}

// Unregister forgets the registered condition.
func (tc *TerminationController) Unregister() {
	tc.mu.Lock()
	tc.ptc = nil
	tc.mu.Unlock()
}

// Terminate makes the registered condition fire. It does nothing when no solve is in flight.
func (tc *TerminationController) Terminate() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.ptc == nil {
		return false
	}
	tc.ptc.Terminate()
	return true
}

// Active reports whether a condition is registered.
func (tc *TerminationController) Active() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.ptc != nil
}

// scope registers ptc and returns the function that unregisters it, for use with defer.
func (tc *TerminationController) scope(ptc *motionplan.TerminationCondition) func() {
	tc.Register(ptc)
	return tc.Unregister
}
