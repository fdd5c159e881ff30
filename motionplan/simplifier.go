package motionplan

import (
	"math/rand"

	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

// PathSimplifier shortens paths by removing and replacing states. Endpoints never change and every
// motion it introduces is validated.
type PathSimplifier struct {
	si  *SpaceInformation
	rnd *rand.Rand
}

// NewPathSimplifier returns a simplifier for paths in the space.
func NewPathSimplifier(si *SpaceInformation) *PathSimplifier {
	return &PathSimplifier{si: si, rnd: utils.NewRand()}
}

// ReduceVertices drops states whose neighbours `step` states apart are connected by a valid motion.
// It reports whether the path changed.
func (ps *PathSimplifier) ReduceVertices(path *PathGeometric, step int) bool {
	if step < 1 {
		step = 1
	}
	steps := path.states
	originalSize := len(steps)
	// look at each window, see if we can remove the states inside it
	for i := step + 1; i < len(steps); i += step {
		if !ps.si.CheckMotion(steps[i-step-1], steps[i]) {
			continue
		}
		// we can merge
		steps = append(steps[0:i-step], steps[i:]...)
		i -= step
	}
	path.states = steps
	return len(steps) != originalSize
}

// Shortcut picks random points on two segments of the path and connects them directly when the
// motion between them is valid and shorter. It makes up to maxSteps attempts, stopping after
// maxEmptySteps attempts in a row that did not shorten the path, or once ptc fires. It reports
// whether the path changed.
func (ps *PathSimplifier) Shortcut(path *PathGeometric, maxSteps, maxEmptySteps int, ptc *TerminationCondition) bool {
	ss := ps.si.StateSpace()
	changed := false
	empty := 0
	for step := 0; step < maxSteps && empty < maxEmptySteps && !ptc.Eval(); step++ {
		n := len(path.states)
		if n < 3 {
			break
		}
		// segments a < b; points s1 on segment a and s2 on segment b
		a := ps.rnd.Intn(n - 1)
		b := ps.rnd.Intn(n - 1)
		if a == b {
			empty++
			continue
		}
		if a > b {
			a, b = b, a
		}
		ta, tb := ps.rnd.Float64(), ps.rnd.Float64()
		s1 := ss.Interpolate(path.states[a], path.states[a+1], ta)
		s2 := ss.Interpolate(path.states[b], path.states[b+1], tb)

		// cost of the replaced part of the path
		old := ps.si.Distance(s1, path.states[a+1])
		for i := a + 1; i < b; i++ {
			old += ps.si.Distance(path.states[i], path.states[i+1])
		}
		old += ps.si.Distance(path.states[b], s2)
		if ps.si.Distance(s1, s2) >= old-1e-9 {
			empty++
			continue
		}
		if !ps.si.IsValid(s1) || !ps.si.IsValid(s2) || !ps.si.CheckMotion(s1, s2) {
			empty++
			continue
		}

		out := make([][]referenceframe.Input, 0, n)
		out = append(out, path.states[:a+1]...)
		if ta > 0 {
			out = append(out, s1)
		}
		if tb < 1 {
			out = append(out, s2)
		}
		out = append(out, path.states[b+1:]...)
		path.states = out
		changed = true
		empty = 0
	}
	return changed
}

// CollapseCloseVertices removes states between pairs of states closer than the longest valid
// segment when the motion between the pair is valid. It reports whether the path changed.
func (ps *PathSimplifier) CollapseCloseVertices(path *PathGeometric) bool {
	threshold := ps.si.LongestValidSegmentLength()
	changed := false
	for i := 0; i+2 < len(path.states); i++ {
		for j := len(path.states) - 1; j > i+1; j-- {
			if ps.si.Distance(path.states[i], path.states[j]) >= threshold {
				continue
			}
			if !ps.si.CheckMotion(path.states[i], path.states[j]) {
				continue
			}
			path.states = append(path.states[:i+1], path.states[j:]...)
			changed = true
			break
		}
	}
	return changed
}

// Simplify alternates vertex reduction, shortcutting and vertex collapsing until nothing changes or
// ptc fires.
func (ps *PathSimplifier) Simplify(path *PathGeometric, ptc *TerminationCondition) {
	if path.StateCount() < 3 {
		return
	}
	for !ptc.Eval() {
		changed := ps.ReduceVertices(path, 10)
		changed = ps.ReduceVertices(path, 1) || changed
		n := path.StateCount()
		changed = ps.Shortcut(path, n*n, n, ptc) || changed
		changed = ps.CollapseCloseVertices(path) || changed
		if !changed {
			return
		}
	}
}

// SimplifyMax simplifies without a time limit.
func (ps *PathSimplifier) SimplifyMax(path *PathGeometric) {
	ps.Simplify(path, NewTerminationCondition(nil))
}
