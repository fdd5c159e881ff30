// Package constraintsamplers produces joint-group states that satisfy a constraint set directly,
// rather than by rejection.
package constraintsamplers

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

// Scene is the part of a planning scene a sampler allocator may look at.
type Scene interface {
	Name() string
	Model() *referenceframe.Model
}

// ConstraintSampler writes values for the variables of one group such that the constraints it was
// built for hold. Samplers are not safe for concurrent use.
type ConstraintSampler interface {
	Name() string
	GroupName() string
	// Sample overwrites the group variables of state with a constrained sample. It returns false
	// when no sample was found within maxAttempts.
	Sample(state *referenceframe.KinematicState, maxAttempts int) bool
	// Project moves the group variables of state to the nearest values that satisfy the constraints.
	Project(state *referenceframe.KinematicState, maxAttempts int) bool
}

type boundedVariable struct {
	index int // within the group variables
	low   float64
	high  float64
	wraps bool
}

// JointConstraintSampler samples group states analytically from joint constraints: constrained
// variables are drawn uniformly inside the intersection of their tolerance band and joint limits,
// all others uniformly inside their limits.
type JointConstraintSampler struct {
	group       *referenceframe.JointGroup
	constraints *kinematicconstraints.ConstraintSet
	bounded     []boundedVariable
	rnd         *rand.Rand
}

// NewJointConstraintSampler configures a sampler for the joint constraints of cs that act on the
// group. It fails when none do, or when a constraint does not overlap its joint limits.
func NewJointConstraintSampler(group *referenceframe.JointGroup, cs *kinematicconstraints.ConstraintSet) (*JointConstraintSampler, error) {
	s := &JointConstraintSampler{group: group, constraints: cs, rnd: utils.NewRand()}
	for _, jc := range cs.JointConstraints() {
		idx, joint, varIdx, ok := groupVariable(group, jc.JointName)
		if !ok {
			continue
		}
		bv := boundedVariable{index: idx, low: jc.Position - jc.ToleranceBelow, high: jc.Position + jc.ToleranceAbove}
		bv.wraps = joint.Type == referenceframe.ContinuousJoint ||
			joint.Type == referenceframe.PlanarJoint && varIdx == 2
		if !bv.wraps {
			lim := joint.Limits[varIdx]
			bv.low = math.Max(bv.low, lim.Min)
			bv.high = math.Min(bv.high, lim.Max)
			if bv.low > bv.high {
				return nil, errors.Errorf("joint constraint on %q does not overlap the joint limits", jc.JointName)
			}
		}
		s.bounded = append(s.bounded, bv)
	}
	if len(s.bounded) == 0 {
		return nil, errors.Errorf("no joint constraints act on group %q", group.Name())
	}
	return s, nil
}

// groupVariable resolves a joint constraint name to the index of the variable among the group
// variables.
func groupVariable(group *referenceframe.JointGroup, name string) (int, *referenceframe.Joint, int, bool) {
	offset := 0
	for _, j := range group.Joints() {
		for i, varName := range j.VariableNames() {
			if varName == name {
				return offset + i, j, i, true
			}
		}
		offset += j.VariableCount()
	}
	return 0, nil, 0, false
}

// Name returns the sampler name.
func (s *JointConstraintSampler) Name() string {
	return "JointConstraintSampler"
}

// GroupName returns the group the sampler samples.
func (s *JointConstraintSampler) GroupName() string {
	return s.group.Name()
}

// Sample draws a state. Joint constraints alone are always satisfiable, so a single attempt
// suffices; the attempt count only matters when maxAttempts is zero.
func (s *JointConstraintSampler) Sample(state *referenceframe.KinematicState, maxAttempts int) bool {
	if maxAttempts <= 0 {
		return false
	}
	values := make([]referenceframe.Input, s.group.VariableCount())
	offset := 0
	for _, j := range s.group.Joints() {
		n := j.VariableCount()
		j.SampleUniform(s.rnd, values[offset:offset+n])
		offset += n
	}
	for _, bv := range s.bounded {
		v := utils.SampleRange(bv.low, bv.high, s.rnd)
		if bv.wraps {
			v = utils.WrapAngle(v)
		}
		values[bv.index].Value = v
	}
	return state.SetGroupInputs(s.group, values) == nil
}

// Project clamps the constrained variables into their bands, leaving all others untouched.
func (s *JointConstraintSampler) Project(state *referenceframe.KinematicState, maxAttempts int) bool {
	if maxAttempts <= 0 {
		return false
	}
	values := state.GroupInputs(s.group)
	for _, bv := range s.bounded {
		v := values[bv.index].Value
		if bv.wraps {
			mid := (bv.low + bv.high) / 2
			half := (bv.high - bv.low) / 2
			v = utils.WrapAngle(mid + utils.Clamp(utils.WrapAngle(v-mid), -half, half))
		} else {
			v = utils.Clamp(v, bv.low, bv.high)
		}
		values[bv.index].Value = v
	}
	return state.SetGroupInputs(s.group, values) == nil
}
