package motionplan

import (
	"math/rand"

	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

// StateSampler draws states of a space. Samplers are not safe for concurrent use; every planner
// allocates its own.
type StateSampler interface {
	SampleUniform(out []referenceframe.Input)
	// SampleUniformNear draws a state within distance of near, per variable.
	SampleUniformNear(out, near []referenceframe.Input, distance float64)
}

// UniformSampler samples uniformly within the space bounds.
type UniformSampler struct {
	ss  *StateSpace
	rnd *rand.Rand
}

// NewUniformSampler returns a uniform sampler with its own random source.
func NewUniformSampler(ss *StateSpace) *UniformSampler {
	return &UniformSampler{ss: ss, rnd: utils.NewRand()}
}

// SampleUniform implements StateSampler.
func (s *UniformSampler) SampleUniform(out []referenceframe.Input) {
	s.ss.sampleUniform(s.rnd, out)
}

// SampleUniformNear implements StateSampler.
func (s *UniformSampler) SampleUniformNear(out, near []referenceframe.Input, distance float64) {
	for i := range out {
		out[i].Value = utils.SampleRange(near[i].Value-distance, near[i].Value+distance, s.rnd)
	}
	s.ss.EnforceBounds(out)
}

// SampleValid draws states from the sampler until one is valid, up to the configured number of
// valid state sampling attempts.
func (si *SpaceInformation) SampleValid(sampler StateSampler, out []referenceframe.Input) bool {
	attempts := si.ValidStateSamplingAttempts()
	for i := 0; i < attempts; i++ {
		sampler.SampleUniform(out)
		if si.IsValid(out) {
			return true
		}
	}
	return false
}

// SampleValidNear is SampleValid restricted to a neighbourhood of near.
func (si *SpaceInformation) SampleValidNear(sampler StateSampler, out, near []referenceframe.Input, distance float64) bool {
	attempts := si.ValidStateSamplingAttempts()
	for i := 0; i < attempts; i++ {
		sampler.SampleUniformNear(out, near, distance)
		if si.IsValid(out) {
			return true
		}
	}
	return false
}
