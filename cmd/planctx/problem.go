package main

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/planctx/constraintsamplers"
	"go.viam.com/planctx/constraintslibrary"
	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/planctx"
	"go.viam.com/planctx/planningscene"
	"go.viam.com/planctx/referenceframe"
)

// workspace bounds the positions of planar and floating joints.
type workspace struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// problem is a planning request read from a JSON file.
type problem struct {
	Model           referenceframe.ModelConfigJSON      `json:"model"`
	Group           string                              `json:"group"`
	Context         string                              `json:"context,omitempty"`
	Start           []float64                           `json:"start"`
	GoalConstraints []*kinematicconstraints.Constraints `json:"goal_constraints"`
	PathConstraints *kinematicconstraints.Constraints   `json:"path_constraints,omitempty"`
	Config          map[string]string                   `json:"config,omitempty"`
	Workspace       *workspace                          `json:"workspace,omitempty"`
	Scene           *planningscene.Config               `json:"scene,omitempty"`
	// Library is a directory of precomputed constraint approximations.
	Library string `json:"library,omitempty"`
}

func loadProblem(filename string) (*problem, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read problem file")
	}
	p := &problem{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal problem file")
	}
	if p.Group == "" {
		return nil, errors.New("problem has no planning group")
	}
	return p, nil
}

// newContext builds a configured planning context for the problem. The goal is left unset when the
// problem has no goal constraints.
func (p *problem) newContext(logger logging.Logger) (*planctx.PlanningContext, error) {
	model, err := p.Model.ParseConfig("")
	if err != nil {
		return nil, errors.Wrap(err, "parsing model")
	}
	group, err := model.Group(p.Group)
	if err != nil {
		return nil, err
	}

	spec := &planctx.Specification{
		Config:                   p.Config,
		ConstraintSamplerManager: constraintsamplers.NewManager(logger),
	}
	if p.Library != "" {
		lib := constraintslibrary.NewLibrary(logger)
		if _, err := lib.Load(p.Library); err != nil {
			return nil, err
		}
		spec.ConstraintsLibrary = lib
	}

	name := p.Context
	if name == "" {
		name = p.Group
	}
	pc := planctx.NewPlanningContext(name, motionplan.NewStateSpace(group), spec, logger)
	if p.Scene != nil {
		scene, err := planningscene.NewSceneFromConfig(p.Scene, model)
		if err != nil {
			return nil, errors.Wrap(err, "building scene")
		}
		pc.SetPlanningScene(scene)
	}
	if p.Workspace != nil {
		pc.SetPlanningVolume(p.Workspace.Min, p.Workspace.Max)
	}
	if err := pc.SetStartState(referenceframe.FloatsToInputs(p.Start)); err != nil {
		return nil, errors.Wrap(err, "setting start state")
	}

	var code planctx.ErrorCode
	if err := pc.SetPathConstraints(p.PathConstraints, &code); err != nil {
		return nil, errors.Wrapf(err, "path constraints (%s)", code)
	}
	if len(p.GoalConstraints) > 0 {
		if err := pc.SetGoalConstraints(p.GoalConstraints, p.PathConstraints, &code); err != nil {
			return nil, errors.Wrapf(err, "goal constraints (%s)", code)
		}
	}
	if err := pc.Configure(); err != nil {
		return nil, err
	}
	return pc, nil
}
