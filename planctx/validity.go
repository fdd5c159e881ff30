package planctx

import (
	"go.viam.com/planctx/referenceframe"
)

// stateValidityChecker accepts states that satisfy the context's current path constraints and do
// not collide in its planning scene. Bounds are checked by the space information before it is
// called. With verbose checks every rejection is logged with its cause.
type stateValidityChecker struct {
	pc *PlanningContext
}

func newStateValidityChecker(pc *PlanningContext) *stateValidityChecker {
	return &stateValidityChecker{pc: pc}
}

func (c *stateValidityChecker) IsValid(state []referenceframe.Input) bool {
	pc := c.pc
	verbose := pc.verbose.Load()
	ks := pc.CompleteInitialState()
	if err := pc.ss.CopyToKinematicState(ks, state); err != nil {
		if verbose {
			pc.logger.Infow("state cannot be evaluated", "error", err)
		}
		return false
	}

	if path := pc.pathConstraintSet(); !path.Empty() {
		if res := path.Decide(ks); !res.Satisfied {
			if verbose {
				pc.logger.Infow("state violates path constraints",
					"state", referenceframe.InputsString(state), "constraints", path.Name(), "distance", res.Distance)
			}
			return false
		}
	}

	scene := pc.PlanningScene()
	if scene == nil {
		return true
	}
	if !verbose {
		return !scene.IsStateColliding(ks)
	}
	collisions, err := scene.Collisions(ks)
	if err != nil {
		pc.logger.Infow("state cannot be collision checked", "error", err)
		return false
	}
	for _, col := range collisions {
		pc.logger.Infow("state is in collision",
			"state", referenceframe.InputsString(state), "link", col.LinkName,
			"obstacle", col.ObstacleName, "depth", col.PenetrationDepth)
	}
	return len(collisions) == 0
}
