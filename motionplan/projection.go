package motionplan

import (
	"math"

	"go.viam.com/planctx/referenceframe"
)

// DefaultProjectionName is the name the default projection of a space is registered under.
const DefaultProjectionName = ""

// projectionCells is the number of grid cells a projection's extent is divided into by default.
const projectionCells = 20

// ProjectionEvaluator maps states to a low-dimensional euclidean space that projection-based
// planners discretize into a grid.
type ProjectionEvaluator interface {
	Dimension() int
	Project(state []referenceframe.Input, out []float64)
	CellSizes() []float64
}

// JointProjection projects a state onto a subset of its variables.
type JointProjection struct {
	indices   []int
	cellSizes []float64
}

// NewJointProjection projects onto the variables at the given state indices.
func NewJointProjection(ss *StateSpace, indices []int) *JointProjection {
	bounds := ss.Bounds()
	p := &JointProjection{indices: indices}
	for _, idx := range indices {
		r := bounds[idx].Range()
		if math.IsInf(r, 0) || r <= 0 {
			r = 2 * math.Pi
		}
		p.cellSizes = append(p.cellSizes, r/projectionCells)
	}
	return p
}

// Dimension implements ProjectionEvaluator.
func (p *JointProjection) Dimension() int {
	return len(p.indices)
}

// Project implements ProjectionEvaluator.
func (p *JointProjection) Project(state []referenceframe.Input, out []float64) {
	for i, idx := range p.indices {
		out[i] = state[idx].Value
	}
}

// CellSizes implements ProjectionEvaluator.
func (p *JointProjection) CellSizes() []float64 {
	return p.cellSizes
}

// Indices returns the projected variable indices.
func (p *JointProjection) Indices() []int {
	return p.indices
}

// LinkPositionProjection projects a state onto the position of a link in the model frame.
type LinkPositionProjection struct {
	ss        *StateSpace
	link      string
	base      *referenceframe.KinematicState
	cellSizes []float64
}

// NewLinkPositionProjection projects onto the position of link. Variables outside the space's group
// are taken from base.
func NewLinkPositionProjection(ss *StateSpace, link string, base *referenceframe.KinematicState) *LinkPositionProjection {
	if base == nil {
		base = referenceframe.NewKinematicState(ss.Model())
	}
	// a link cannot move further than the summed joint offsets from the root
	reach := 0.
	for _, j := range ss.Model().Joints() {
		reach += j.Origin.Point().Norm()
	}
	if reach <= 0 {
		reach = 1
	}
	cell := 2 * reach / projectionCells
	return &LinkPositionProjection{ss: ss, link: link, base: base.Copy(), cellSizes: []float64{cell, cell, cell}}
}

// Dimension implements ProjectionEvaluator.
func (p *LinkPositionProjection) Dimension() int {
	return 3
}

// Project implements ProjectionEvaluator. States that cannot be posed project to the origin.
func (p *LinkPositionProjection) Project(state []referenceframe.Input, out []float64) {
	out[0], out[1], out[2] = 0, 0, 0
	ks := p.base.Copy()
	if err := p.ss.CopyToKinematicState(ks, state); err != nil {
		return
	}
	pose, err := ks.LinkPose(p.link)
	if err != nil {
		return
	}
	pt := pose.Point()
	out[0], out[1], out[2] = pt.X, pt.Y, pt.Z
}

// CellSizes implements ProjectionEvaluator.
func (p *LinkPositionProjection) CellSizes() []float64 {
	return p.cellSizes
}

// Link returns the projected link.
func (p *LinkPositionProjection) Link() string {
	return p.link
}

// defaultProjectionIndices picks the first two variables of the space, the ones closest to the root
// that move the most of the robot.
func defaultProjectionIndices(ss *StateSpace) []int {
	n := ss.Dimension()
	if n > 2 {
		n = 2
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
