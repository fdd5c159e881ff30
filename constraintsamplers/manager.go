package constraintsamplers

import (
	"sync"

	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/logging"
)

// SamplerAllocator is a pluggable source of constraint samplers.
type SamplerAllocator interface {
	Name() string
	CanService(scene Scene, group string, cs *kinematicconstraints.ConstraintSet) bool
	Alloc(scene Scene, group string, cs *kinematicconstraints.ConstraintSet) (ConstraintSampler, error)
}

// Manager selects a constraint sampler for a constraint set. Allocators registered later take
// precedence; when none can service a set, a JointConstraintSampler is tried.
type Manager struct {
	logger logging.Logger

	mu         sync.RWMutex
	allocators []SamplerAllocator
}

// NewManager returns a manager with no registered allocators.
func NewManager(logger logging.Logger) *Manager {
	return &Manager{logger: logger}
}

// RegisterAllocator adds an allocator.
func (m *Manager) RegisterAllocator(a SamplerAllocator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocators = append(m.allocators, a)
}

// SelectSampler returns a sampler for the set restricted to the named group, or nil when the set
// is empty or nothing can service it.
func (m *Manager) SelectSampler(scene Scene, group string, cs *kinematicconstraints.ConstraintSet) ConstraintSampler {
	if cs.Empty() {
		return nil
	}

	m.mu.RLock()
	allocators := append([]SamplerAllocator(nil), m.allocators...)
	m.mu.RUnlock()
	for i := len(allocators) - 1; i >= 0; i-- {
		a := allocators[i]
		if !a.CanService(scene, group, cs) {
			continue
		}
		s, err := a.Alloc(scene, group, cs)
		if err != nil {
			m.logger.Warnw("constraint sampler allocator failed", "allocator", a.Name(), "group", group, "error", err)
			continue
		}
		if s != nil {
			m.logger.Debugf("allocator %s selected a %s for group %q", a.Name(), s.Name(), group)
			return s
		}
	}

	g, err := scene.Model().Group(group)
	if err != nil {
		m.logger.Warnw("cannot select a constraint sampler", "error", err)
		return nil
	}
	if len(cs.JointConstraints()) == 0 {
		m.logger.Debugf("no joint constraints in %q, no analytic sampler for group %q", cs.Name(), group)
		return nil
	}
	s, err := NewJointConstraintSampler(g, cs)
	if err != nil {
		m.logger.Debugw("joint constraint sampler not usable", "group", group, "error", err)
		return nil
	}
	return s
}
