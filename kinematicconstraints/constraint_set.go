package kinematicconstraints

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/planctx/referenceframe"
)

// ConstraintSet is a description bound to a model, ready to evaluate states. It is immutable after
// construction and safe for concurrent use.
type ConstraintSet struct {
	model       *referenceframe.Model
	desc        *Constraints
	constraints []KinematicConstraint

	joint       []*jointKinematicConstraint
	position    []*positionKinematicConstraint
	orientation []*orientationKinematicConstraint
	visibility  []*visibilityKinematicConstraint
}

// NewConstraintSet binds the description to the model. Every structurally invalid constraint is
// reported in the combined error and no set is returned.
func NewConstraintSet(m *referenceframe.Model, desc *Constraints) (*ConstraintSet, error) {
	cs := &ConstraintSet{model: m, desc: desc.Copy()}
	var errs error
	for _, jc := range cs.desc.JointConstraints {
		c, err := newJointKinematicConstraint(m, jc)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		cs.joint = append(cs.joint, c)
		cs.constraints = append(cs.constraints, c)
	}
	for _, pc := range cs.desc.PositionConstraints {
		c, err := newPositionKinematicConstraint(m, pc)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		cs.position = append(cs.position, c)
		cs.constraints = append(cs.constraints, c)
	}
	for _, oc := range cs.desc.OrientationConstraints {
		c, err := newOrientationKinematicConstraint(m, oc)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		cs.orientation = append(cs.orientation, c)
		cs.constraints = append(cs.constraints, c)
	}
	for _, vc := range cs.desc.VisibilityConstraints {
		c, err := newVisibilityKinematicConstraint(m, vc)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		cs.visibility = append(cs.visibility, c)
		cs.constraints = append(cs.constraints, c)
	}
	if errs != nil {
		return nil, errors.Wrapf(errs, "invalid constraints %q", cs.desc.Name)
	}
	return cs, nil
}

// Model returns the model the set is bound to.
func (cs *ConstraintSet) Model() *referenceframe.Model {
	return cs.model
}

// Empty reports whether the set imposes no constraint.
func (cs *ConstraintSet) Empty() bool {
	return cs == nil || len(cs.constraints) == 0
}

// Name returns the name of the description the set was built from.
func (cs *ConstraintSet) Name() string {
	if cs == nil {
		return ""
	}
	return cs.desc.Name
}

// AllConstraints returns a copy of the description the set was built from.
func (cs *ConstraintSet) AllConstraints() *Constraints {
	if cs == nil {
		return &Constraints{}
	}
	return cs.desc.Copy()
}

// Constraints returns the bound constraints.
func (cs *ConstraintSet) Constraints() []KinematicConstraint {
	if cs == nil {
		return nil
	}
	return cs.constraints
}

// JointConstraints returns the joint constraint descriptions of the set.
func (cs *ConstraintSet) JointConstraints() []JointConstraint {
	out := make([]JointConstraint, 0, len(cs.joint))
	for _, c := range cs.joint {
		out = append(out, c.desc)
	}
	return out
}

// HasPoseConstraints reports whether the set has any position, orientation or visibility
// constraint, none of which can be sampled analytically in joint space.
func (cs *ConstraintSet) HasPoseConstraints() bool {
	return len(cs.position)+len(cs.orientation)+len(cs.visibility) > 0
}

// Decide evaluates every constraint on the state. The state satisfies the set when it satisfies
// every constraint; the distance is the sum of all distances. An empty set is always satisfied.
func (cs *ConstraintSet) Decide(state *referenceframe.KinematicState) Result {
	res := Result{Satisfied: true}
	if cs.Empty() {
		return res
	}
	for _, c := range cs.constraints {
		r := c.Decide(state)
		if !r.Satisfied {
			res.Satisfied = false
		}
		res.Distance += r.Distance
	}
	return res
}
