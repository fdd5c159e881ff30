package planctx

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/planctx/motionplan"
)

// SetProjectionEvaluator parses a projection description and installs it as the default projection
// of the state space. Recognized descriptions are link(<link name>), projecting onto the position of
// the link, and joints(<joint>,<joint>,...), projecting onto the values of the named group joints.
// Joints without variables are skipped with a warning. On error the previous projection is kept.
func (pc *PlanningContext) SetProjectionEvaluator(desc string) error {
	p, err := pc.parseProjection(strings.TrimSpace(desc))
	if err != nil {
		pc.logger.Error(err)
		return err
	}
	pc.ss.RegisterDefaultProjection(p)
	return nil
}

func (pc *PlanningContext) parseProjection(desc string) (motionplan.ProjectionEvaluator, error) {
	if arg, ok := projectionArgument(desc, "link"); ok {
		link := strings.TrimSpace(arg)
		if !pc.ss.Model().HasLink(link) {
			return nil, NewUnknownLinkError(link)
		}
		return motionplan.NewLinkPositionProjection(pc.ss, link, pc.CompleteInitialState()), nil
	}

	arg, ok := projectionArgument(desc, "joints")
	if !ok {
		return nil, NewUnknownProjectionError(desc)
	}
	group := pc.ss.Group()
	names := strings.Fields(strings.ReplaceAll(arg, ",", " "))
	var indices []int
	for _, name := range lo.Uniq(names) {
		if !group.HasJoint(name) {
			pc.logger.Errorf("attempted to set projection evaluator with respect to value of joint %q, "+
				"but that joint is not known to the group %q", name, group.Name())
			continue
		}
		joint, err := pc.ss.Model().Joint(name)
		if err != nil {
			return nil, err
		}
		if joint.VariableCount() == 0 {
			pc.logger.Warnf("ignoring joint %q in projection since it has 0 DOF", name)
			continue
		}
		offset := group.JointVariableOffset(name)
		indices = append(indices, lo.RangeFrom(offset, joint.VariableCount())...)
	}
	if len(indices) == 0 {
		return nil, errors.Wrapf(ErrNoProjectionJoints, "%q", desc)
	}
	return motionplan.NewJointProjection(pc.ss, indices), nil
}

// projectionArgument returns what is between the parentheses of kind(...).
func projectionArgument(desc, kind string) (string, bool) {
	rest, ok := strings.CutPrefix(desc, kind+"(")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, ")")
}
