// Package constraintslibrary stores precomputed approximations of constrained regions of a joint
// group's configuration space, so planners can sample constrained states without rejection.
package constraintslibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"go.viam.com/planctx/kinematicconstraints"
	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/utils"
)

const (
	fileExtension = ".json"
	// attempts per requested sample before Compute gives up on a region
	attemptsPerSample = 1000
)

var (
	// ErrEmptyApproximation is returned when an approximation holds no state.
	ErrEmptyApproximation = errors.New("approximation has no states")
	// ErrUnnamedConstraints is returned for constraint descriptions without a name, which cannot be
	// looked up.
	ErrUnnamedConstraints = errors.New("constraints must be named to be approximated")
)

// Approximation is a set of valid states of a group that satisfy a named constraint description.
type Approximation struct {
	ID          string                            `json:"id"`
	Group       string                            `json:"group"`
	Constraints *kinematicconstraints.Constraints `json:"constraints"`
	States      [][]float64                       `json:"states"`
	Attempts    int64                             `json:"attempts"`
	Created     time.Time                         `json:"created"`
}

// Name returns the name of the approximated constraint description.
func (a *Approximation) Name() string {
	if a.Constraints == nil {
		return ""
	}
	return a.Constraints.Name
}

// StateSamplerAllocator returns an allocator of samplers that draw the stored states, or nil when
// the approximation does not describe the constraints.
func (a *Approximation) StateSamplerAllocator(desc *kinematicconstraints.Constraints) motionplan.StateSamplerAllocator {
	if desc == nil || desc.Name != a.Name() || len(a.States) == 0 {
		return nil
	}
	states := make([][]referenceframe.Input, 0, len(a.States))
	for _, s := range a.States {
		states = append(states, referenceframe.FloatsToInputs(s))
	}
	return func(ss *motionplan.StateSpace) motionplan.StateSampler {
		if ss.Group().Name() != a.Group || ss.Dimension() != len(states[0]) {
			return nil
		}
		return &approximationSampler{ss: ss, states: states, rnd: utils.NewRand()}
	}
}

// approximationSampler draws stored states. Near a seed it prefers stored states within the
// requested distance and otherwise perturbs the seed.
type approximationSampler struct {
	ss     *motionplan.StateSpace
	states [][]referenceframe.Input
	rnd    *rand.Rand
}

func (s *approximationSampler) SampleUniform(out []referenceframe.Input) {
	copy(out, s.states[s.rnd.Intn(len(s.states))])
}

func (s *approximationSampler) SampleUniformNear(out, near []referenceframe.Input, distance float64) {
	for i := 0; i < len(s.states); i++ {
		candidate := s.states[s.rnd.Intn(len(s.states))]
		if s.ss.Distance(candidate, near) <= distance {
			copy(out, candidate)
			return
		}
	}
	for i := range out {
		out[i].Value = utils.SampleRange(near[i].Value-distance, near[i].Value+distance, s.rnd)
	}
	s.ss.EnforceBounds(out)
}

// Library holds approximations keyed by the name of the constraint description they approximate.
type Library struct {
	logger logging.Logger

	mu             sync.RWMutex
	approximations map[string]*Approximation
}

// NewLibrary returns an empty library.
func NewLibrary(logger logging.Logger) *Library {
	return &Library{logger: logger, approximations: map[string]*Approximation{}}
}

// Add stores the approximation, replacing any other for the same constraints.
func (l *Library) Add(a *Approximation) error {
	if a.Name() == "" {
		return ErrUnnamedConstraints
	}
	if len(a.States) == 0 {
		return ErrEmptyApproximation
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.approximations[a.Name()] = a
	return nil
}

// GetApproximation returns the approximation of the constraints, or nil.
func (l *Library) GetApproximation(desc *kinematicconstraints.Constraints) *Approximation {
	if desc == nil || desc.Name == "" {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approximations[desc.Name]
}

// Names returns the names of the approximated constraints, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.approximations))
	for name := range l.approximations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compute approximates the constraint set by rejection sampling the state space with one worker per
// CPU, stores the result and returns it. Valid states are those inside the space bounds that satisfy
// the set; variables outside the space's group are taken from base, or model defaults when nil.
func (l *Library) Compute(
	ctx context.Context,
	ss *motionplan.StateSpace,
	cs *kinematicconstraints.ConstraintSet,
	base *referenceframe.KinematicState,
	samples int,
) (*Approximation, error) {
	if cs.Name() == "" {
		return nil, ErrUnnamedConstraints
	}
	if samples <= 0 {
		return nil, fmt.Errorf("cannot approximate %q with %d samples", cs.Name(), samples)
	}
	if base == nil {
		base = referenceframe.NewKinematicState(ss.Model())
	}

	var (
		mu       sync.Mutex
		states   = make([][]float64, 0, samples)
		attempts atomic.Int64
	)
	maxAttempts := int64(samples) * attemptsPerSample
	full := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) >= samples
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < runtime.NumCPU(); w++ {
		g.Go(func() error {
			sampler := ss.AllocDefaultStateSampler()
			ks := base.Copy()
			state := make([]referenceframe.Input, ss.Dimension())
			for !full() && attempts.Inc() <= maxAttempts {
				if err := gctx.Err(); err != nil {
					return err
				}
				sampler.SampleUniform(state)
				if err := ss.CopyToKinematicState(ks, state); err != nil {
					return err
				}
				if !cs.Decide(ks).Satisfied {
					continue
				}
				mu.Lock()
				if len(states) < samples {
					states = append(states, referenceframe.InputsToFloats(state))
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "approximating %q", cs.Name())
	}
	if len(states) == 0 {
		return nil, errors.Wrapf(ErrEmptyApproximation, "no state out of %d satisfies %q", maxAttempts, cs.Name())
	}
	if len(states) < samples {
		l.logger.Warnf("approximation of %q holds %d of %d requested states", cs.Name(), len(states), samples)
	}

	a := &Approximation{
		ID:          uuid.NewString(),
		Group:       ss.Group().Name(),
		Constraints: cs.AllConstraints(),
		States:      states,
		Attempts:    attempts.Load(),
		Created:     time.Now(),
	}
	if a.Attempts > maxAttempts {
		a.Attempts = maxAttempts
	}
	if err := l.Add(a); err != nil {
		return nil, err
	}
	l.logger.Infow("computed constraint approximation",
		"constraints", a.Name(), "group", a.Group, "states", len(a.States), "attempts", a.Attempts)
	return a, nil
}

// Save writes every approximation to its own file in dir.
func (l *Library) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, "creating library directory")
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for name, a := range l.approximations {
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "encoding approximation %q", name)
		}
		if err := os.WriteFile(filepath.Join(dir, fileName(name)), data, 0o600); err != nil {
			return errors.Wrapf(err, "writing approximation %q", name)
		}
	}
	return nil
}

// Load adds every approximation found in dir and returns how many were loaded.
func (l *Library) Load(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrap(err, "reading library directory")
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExtension {
			continue
		}
		//nolint:gosec
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, errors.Wrapf(err, "reading %s", e.Name())
		}
		var a Approximation
		if err := json.Unmarshal(data, &a); err != nil {
			return loaded, errors.Wrapf(err, "decoding %s", e.Name())
		}
		if err := l.Add(&a); err != nil {
			return loaded, errors.Wrapf(err, "loading %s", e.Name())
		}
		loaded++
	}
	l.logger.Debugf("loaded %d constraint approximations from %s", loaded, dir)
	return loaded, nil
}

func fileName(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(name) + fileExtension
}
