package utils

import (
	"math/rand"
	"time"

	"go.uber.org/atomic"
)

var (
	seedBase    = atomic.NewInt64(time.Now().UnixNano())
	seedCounter = atomic.NewInt64(0)
)

// SetRandomSeed makes every generator created afterwards by NewRand deterministic. Generators
// are still distinct from each other.
func SetRandomSeed(seed int64) {
	seedBase.Store(seed)
	seedCounter.Store(0)
}

// NewRand returns a new generator with its own seed. Generators are not safe for concurrent use;
// each sampler or planner owns one.
func NewRand() *rand.Rand {
	//nolint:gosec
	return rand.New(rand.NewSource(seedBase.Load() + 7919*seedCounter.Inc()))
}
