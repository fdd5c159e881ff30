// Package motionplan is a sampling-based motion planning library over the variables of a joint
// group: state spaces, samplers, goals, termination conditions, planners and path tools.
package motionplan

import (
	"math"
	"math/rand"
	"sync"

	"github.com/golang/geo/r3"

	"go.viam.com/planctx/referenceframe"
)

// The default planning volume bounds planar and floating translations until another is set.
var (
	DefaultPlanningVolumeMin = r3.Vector{X: -1, Y: -1, Z: -1}
	DefaultPlanningVolumeMax = r3.Vector{X: 1, Y: 1, Z: 1}
)

// StateSamplerAllocator builds a state sampler for a space.
type StateSamplerAllocator func(ss *StateSpace) StateSampler

// StateSpace is the configuration space of a joint group. States are slices of inputs with one
// value per group variable, in group order.
type StateSpace struct {
	group *referenceframe.JointGroup
	// copies of the group joints carrying the space's own limits
	joints  []*referenceframe.Joint
	offsets []int
	dim     int

	mu               sync.RWMutex
	samplerAllocator StateSamplerAllocator
	projections      map[string]ProjectionEvaluator
}

// NewStateSpace returns the state space of the group, with planar and floating translations limited
// to the default planning volume.
func NewStateSpace(group *referenceframe.JointGroup) *StateSpace {
	ss := &StateSpace{group: group, projections: map[string]ProjectionEvaluator{}}
	for _, j := range group.Joints() {
		jc := *j
		jc.Limits = append([]referenceframe.Limit(nil), j.Limits...)
		ss.joints = append(ss.joints, &jc)
		ss.offsets = append(ss.offsets, ss.dim)
		ss.dim += jc.VariableCount()
	}
	ss.SetPlanningVolume(DefaultPlanningVolumeMin, DefaultPlanningVolumeMax)
	if ss.dim > 0 {
		ss.projections[DefaultProjectionName] = NewJointProjection(ss, defaultProjectionIndices(ss))
	}
	return ss
}

// Name identifies the space.
func (ss *StateSpace) Name() string {
	return ss.group.Name() + "_JointModel"
}

// Group returns the joint group the space is built on.
func (ss *StateSpace) Group() *referenceframe.JointGroup {
	return ss.group
}

// Model returns the model of the group.
func (ss *StateSpace) Model() *referenceframe.Model {
	return ss.group.Model()
}

// Dimension returns the number of variables of a state.
func (ss *StateSpace) Dimension() int {
	return ss.dim
}

// Joints returns the space's joints. Their limits reflect the planning volume.
func (ss *StateSpace) Joints() []*referenceframe.Joint {
	return ss.joints
}

// Bounds returns the limits of every variable.
func (ss *StateSpace) Bounds() []referenceframe.Limit {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	limits := make([]referenceframe.Limit, 0, ss.dim)
	for _, j := range ss.joints {
		limits = append(limits, j.Limits...)
	}
	return limits
}

// SetPlanningVolume bounds the translational variables of planar and floating joints to the box.
// Other joints are unaffected.
func (ss *StateSpace) SetPlanningVolume(minCorner, maxCorner r3.Vector) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for _, j := range ss.joints {
		switch j.Type {
		case referenceframe.PlanarJoint:
			j.Limits[0] = referenceframe.Limit{Min: minCorner.X, Max: maxCorner.X}
			j.Limits[1] = referenceframe.Limit{Min: minCorner.Y, Max: maxCorner.Y}
		case referenceframe.FloatingJoint:
			j.Limits[0] = referenceframe.Limit{Min: minCorner.X, Max: maxCorner.X}
			j.Limits[1] = referenceframe.Limit{Min: minCorner.Y, Max: maxCorner.Y}
			j.Limits[2] = referenceframe.Limit{Min: minCorner.Z, Max: maxCorner.Z}
		case referenceframe.FixedJoint, referenceframe.RevoluteJoint,
			referenceframe.ContinuousJoint, referenceframe.PrismaticJoint:
		}
	}
}

// Distance is the L2 norm of the per-joint distances.
func (ss *StateSpace) Distance(a, b []referenceframe.Input) float64 {
	total := 0.
	for i, j := range ss.joints {
		off, n := ss.offsets[i], j.VariableCount()
		d := j.Distance(a[off:off+n], b[off:off+n])
		total += d * d
	}
	return math.Sqrt(total)
}

// Interpolate returns the state `by` of the way from `from` to `to`.
func (ss *StateSpace) Interpolate(from, to []referenceframe.Input, by float64) []referenceframe.Input {
	out := make([]referenceframe.Input, ss.dim)
	for i, j := range ss.joints {
		off, n := ss.offsets[i], j.VariableCount()
		j.Interpolate(from[off:off+n], to[off:off+n], by, out[off:off+n])
	}
	return out
}

// EnforceBounds moves a state inside the space bounds in place.
func (ss *StateSpace) EnforceBounds(state []referenceframe.Input) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	for i, j := range ss.joints {
		off, n := ss.offsets[i], j.VariableCount()
		j.EnforceBounds(state[off : off+n])
	}
}

// SatisfiesBounds reports whether the state lies inside the space bounds.
func (ss *StateSpace) SatisfiesBounds(state []referenceframe.Input) bool {
	if len(state) != ss.dim {
		return false
	}
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	for i, j := range ss.joints {
		off, n := ss.offsets[i], j.VariableCount()
		if !j.SatisfiesBounds(state[off:off+n], 1e-9) {
			return false
		}
	}
	return true
}

// MaximumExtent is the largest distance between two states of the space.
func (ss *StateSpace) MaximumExtent() float64 {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	total := 0.
	for _, j := range ss.joints {
		e := j.MaximumExtent()
		total += e * e
	}
	return math.Sqrt(total)
}

// EqualStates reports whether the two states are the same point of the space.
func (ss *StateSpace) EqualStates(a, b []referenceframe.Input) bool {
	return ss.Distance(a, b) < 1e-9
}

// FromKinematicState extracts the group variables of a full model state.
func (ss *StateSpace) FromKinematicState(ks *referenceframe.KinematicState) []referenceframe.Input {
	return ks.GroupInputs(ss.group)
}

// CopyToKinematicState writes the state into the group variables of a full model state.
func (ss *StateSpace) CopyToKinematicState(ks *referenceframe.KinematicState, state []referenceframe.Input) error {
	return ks.SetGroupInputs(ss.group, state)
}

// SetStateSamplerAllocator replaces the way samplers for this space are built.
func (ss *StateSpace) SetStateSamplerAllocator(alloc StateSamplerAllocator) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.samplerAllocator = alloc
}

// ClearStateSamplerAllocator restores the default sampler.
func (ss *StateSpace) ClearStateSamplerAllocator() {
	ss.SetStateSamplerAllocator(nil)
}

// AllocDefaultStateSampler returns a uniform sampler for the space.
func (ss *StateSpace) AllocDefaultStateSampler() StateSampler {
	return NewUniformSampler(ss)
}

// AllocStateSampler returns a sampler from the configured allocator, or the default sampler.
func (ss *StateSpace) AllocStateSampler() StateSampler {
	ss.mu.RLock()
	alloc := ss.samplerAllocator
	ss.mu.RUnlock()
	if alloc != nil {
		if s := alloc(ss); s != nil {
			return s
		}
	}
	return ss.AllocDefaultStateSampler()
}

func (ss *StateSpace) sampleUniform(rnd *rand.Rand, out []referenceframe.Input) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	for i, j := range ss.joints {
		off, n := ss.offsets[i], j.VariableCount()
		j.SampleUniform(rnd, out[off:off+n])
	}
}

// RegisterProjection registers a named projection for the space.
func (ss *StateSpace) RegisterProjection(name string, p ProjectionEvaluator) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.projections[name] = p
}

// RegisterDefaultProjection replaces the projection planners use when none is named.
func (ss *StateSpace) RegisterDefaultProjection(p ProjectionEvaluator) {
	ss.RegisterProjection(DefaultProjectionName, p)
}

// Projection returns the named projection.
func (ss *StateSpace) Projection(name string) (ProjectionEvaluator, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	p, ok := ss.projections[name]
	return p, ok
}

// DefaultProjection returns the default projection, or nil for a zero-dimensional space.
func (ss *StateSpace) DefaultProjection() ProjectionEvaluator {
	p, _ := ss.Projection(DefaultProjectionName)
	return p
}
