package motionplan

import (
	"fmt"
	"math"
	"strings"

	"go.viam.com/planctx/referenceframe"
)

// PathGeometric is a sequence of states connected by straight-line motions.
type PathGeometric struct {
	si     *SpaceInformation
	states [][]referenceframe.Input
}

// NewPathGeometric returns a path through copies of the states.
func NewPathGeometric(si *SpaceInformation, states ...[]referenceframe.Input) *PathGeometric {
	p := &PathGeometric{si: si}
	for _, s := range states {
		p.Append(s)
	}
	return p
}

// SpaceInformation returns the space information the path lives in.
func (p *PathGeometric) SpaceInformation() *SpaceInformation {
	return p.si
}

// Copy returns a deep copy of the path.
func (p *PathGeometric) Copy() *PathGeometric {
	return NewPathGeometric(p.si, p.states...)
}

// Append adds a copy of the state at the end of the path.
func (p *PathGeometric) Append(state []referenceframe.Input) {
	p.states = append(p.states, referenceframe.CopyInputs(state))
}

// States returns the states of the path. The slice is owned by the path.
func (p *PathGeometric) States() [][]referenceframe.Input {
	return p.states
}

// State returns the i-th state.
func (p *PathGeometric) State(i int) []referenceframe.Input {
	return p.states[i]
}

// StateCount returns the number of states.
func (p *PathGeometric) StateCount() int {
	return len(p.states)
}

// Length is the summed distance between consecutive states.
func (p *PathGeometric) Length() float64 {
	total := 0.
	for i := 1; i < len(p.states); i++ {
		total += p.si.Distance(p.states[i-1], p.states[i])
	}
	return total
}

// Reverse reverses the path in place.
func (p *PathGeometric) Reverse() {
	for i, j := 0, len(p.states)-1; i < j; i, j = i+1, j-1 {
		p.states[i], p.states[j] = p.states[j], p.states[i]
	}
}

// Check reports whether every state and every motion of the path is valid.
func (p *PathGeometric) Check() bool {
	if len(p.states) == 0 {
		return false
	}
	if !p.si.IsValid(p.states[0]) {
		return false
	}
	for i := 1; i < len(p.states); i++ {
		if !p.si.CheckMotion(p.states[i-1], p.states[i]) {
			return false
		}
	}
	return true
}

// Interpolate inserts states along the motions of the path until it has count states. States are
// distributed over the segments in proportion to their length. Paths that already have count or
// more states are unchanged.
func (p *PathGeometric) Interpolate(count int) {
	n := len(p.states)
	if n < 2 || count <= n {
		return
	}
	remaining := count - n
	lengths := make([]float64, n-1)
	total := 0.
	for i := range lengths {
		lengths[i] = p.si.Distance(p.states[i], p.states[i+1])
		total += lengths[i]
	}
	extra := make([]int, n-1)
	assigned := 0
	for i := range extra {
		if total > 0 {
			extra[i] = int(math.Floor(float64(remaining) * lengths[i] / total))
		}
		assigned += extra[i]
	}
	// hand out the rounding remainder to the longest segments first
	for assigned < remaining {
		best := 0
		for i := range extra {
			if lengths[i]/float64(extra[i]+1) > lengths[best]/float64(extra[best]+1) {
				best = i
			}
		}
		extra[best]++
		assigned++
	}

	ss := p.si.StateSpace()
	out := make([][]referenceframe.Input, 0, count)
	for i := 0; i < n-1; i++ {
		out = append(out, p.states[i])
		for k := 1; k <= extra[i]; k++ {
			out = append(out, ss.Interpolate(p.states[i], p.states[i+1], float64(k)/float64(extra[i]+1)))
		}
	}
	out = append(out, p.states[n-1])
	p.states = out
}

// ComputeFastTimeParametrization assigns a time from start to every state such that the speed along
// each segment is at most maxVel and speed changes between segments need at most maxAcc. Motion
// starts and ends at rest. Segment durations are only ever lengthened, for at most maxSteps
// forward and backward passes. Non-positive limits are treated as 1.
func (p *PathGeometric) ComputeFastTimeParametrization(maxVel, maxAcc float64, maxSteps int) []float64 {
	n := len(p.states)
	times := make([]float64, n)
	if n < 2 {
		return times
	}
	if maxVel <= 0 {
		maxVel = 1
	}
	if maxAcc <= 0 {
		maxAcc = 1
	}

	dist := make([]float64, n-1)
	dt := make([]float64, n-1)
	for i := range dist {
		dist[i] = p.si.Distance(p.states[i], p.states[i+1])
		dt[i] = dist[i] / maxVel
	}
	velocity := func(i int) float64 {
		if i < 0 || i >= len(dt) || dt[i] == 0 {
			return 0
		}
		return dist[i] / dt[i]
	}
	// shortest duration over d when the speed may differ from v0 by at most maxAcc*t
	minDuration := func(d, v0 float64) float64 {
		return (-v0 + math.Sqrt(v0*v0+4*maxAcc*d)) / (2 * maxAcc)
	}

	for step := 0; step < maxSteps; step++ {
		changed := false
		for i := range dt {
			if dist[i] == 0 {
				continue
			}
			if t := minDuration(dist[i], velocity(i-1)); t > dt[i]*(1+1e-9) {
				dt[i] = t
				changed = true
			}
		}
		for i := len(dt) - 1; i >= 0; i-- {
			if dist[i] == 0 {
				continue
			}
			if t := minDuration(dist[i], velocity(i+1)); t > dt[i]*(1+1e-9) {
				dt[i] = t
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for i := range dt {
		times[i+1] = times[i] + dt[i]
	}
	return times
}

// String lists the states of the path.
func (p *PathGeometric) String() string {
	var b strings.Builder
	for i, s := range p.states {
		fmt.Fprintf(&b, "%d: %s\n", i, referenceframe.InputsString(s))
	}
	return b.String()
}
