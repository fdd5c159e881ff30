// Package planningscene holds the world a planning context plans in: the robot model, its current
// state, and obstacles.
package planningscene

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/planctx/referenceframe"
)

// linkSegmentSamples is the number of points checked along each link segment, endpoints included.
const linkSegmentSamples = 5

// Obstacle is an axis-aligned box in the planning frame.
type Obstacle struct {
	Name string    `json:"name"`
	Min  r3.Vector `json:"min"`
	Max  r3.Vector `json:"max"`
}

// penetration returns how far p lies inside the box, or a non-positive number when it is outside.
func (o Obstacle) penetration(p r3.Vector) float64 {
	return math.Min(
		math.Min(math.Min(p.X-o.Min.X, o.Max.X-p.X), math.Min(p.Y-o.Min.Y, o.Max.Y-p.Y)),
		math.Min(p.Z-o.Min.Z, o.Max.Z-p.Z),
	)
}

// Collision names a link in contact with an obstacle, and how deep the deepest sampled point of the
// link is inside it.
type Collision struct {
	LinkName         string
	ObstacleName     string
	PenetrationDepth float64
}

// Config is the JSON form of a scene.
type Config struct {
	Name              string     `json:"name"`
	Obstacles         []Obstacle `json:"obstacles,omitempty"`
	AllowedCollisions []string   `json:"allowed_collisions,omitempty"`
}

// Scene is a robot model plus its current state and a set of box obstacles. It is safe for
// concurrent use; states handed out are copies.
type Scene struct {
	name  string
	model *referenceframe.Model

	mu        sync.RWMutex
	current   *referenceframe.KinematicState
	obstacles []Obstacle
	allowed   map[string]bool
}

// NewScene returns an empty scene whose current state is the model default state.
func NewScene(name string, model *referenceframe.Model) *Scene {
	return &Scene{
		name:    name,
		model:   model,
		current: referenceframe.NewKinematicState(model),
		allowed: map[string]bool{},
	}
}

// NewSceneFromConfig builds a scene from its JSON form.
func NewSceneFromConfig(cfg *Config, model *referenceframe.Model) (*Scene, error) {
	s := NewScene(cfg.Name, model)
	for _, o := range cfg.Obstacles {
		if err := s.AddObstacle(o); err != nil {
			return nil, err
		}
	}
	for _, link := range cfg.AllowedCollisions {
		if err := s.AllowCollision(link); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadConfig reads a scene config from a JSON file.
func LoadConfig(filename string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scene file")
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scene file")
	}
	return cfg, nil
}

// Name returns the scene name.
func (s *Scene) Name() string {
	return s.name
}

// PlanningFrame returns the frame obstacles and workspace bounds are expressed in: the model root.
func (s *Scene) PlanningFrame() string {
	return s.model.RootLink()
}

// Model returns the robot model.
func (s *Scene) Model() *referenceframe.Model {
	return s.model
}

// CurrentState returns a copy of the current robot state.
func (s *Scene) CurrentState() *referenceframe.KinematicState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Copy()
}

// SetCurrentState replaces the current robot state.
func (s *Scene) SetCurrentState(state *referenceframe.KinematicState) error {
	if state.Model() != s.model {
		return fmt.Errorf("state of model %q does not belong to scene model %q", state.Model().Name(), s.model.Name())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = state.Copy()
	return nil
}

// AddObstacle adds a box obstacle. Min must not exceed Max on any axis.
func (s *Scene) AddObstacle(o Obstacle) error {
	if o.Min.X > o.Max.X || o.Min.Y > o.Max.Y || o.Min.Z > o.Max.Z {
		return fmt.Errorf("obstacle %q has min greater than max", o.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obstacles = append(s.obstacles, o)
	return nil
}

// Obstacles returns a copy of the obstacles.
func (s *Scene) Obstacles() []Obstacle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Obstacle(nil), s.obstacles...)
}

// AllowCollision excludes a link from collision checking.
func (s *Scene) AllowCollision(link string) error {
	if !s.model.HasLink(link) {
		return referenceframe.NewLinkMissingError(link)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed[link] = true
	return nil
}

// Collisions returns every link in contact with an obstacle for the given state, sorted by link
// name. Each link is checked at points along the segment from its parent link's origin to its own.
func (s *Scene) Collisions(state *referenceframe.KinematicState) ([]Collision, error) {
	s.mu.RLock()
	obstacles := s.obstacles
	allowed := s.allowed
	s.mu.RUnlock()
	if len(obstacles) == 0 {
		return nil, nil
	}

	poses, err := state.LinkPoses()
	if err != nil {
		return nil, err
	}
	var collisions []Collision
	for _, link := range s.model.LinkNames() {
		if allowed[link] {
			continue
		}
		end := poses[link].Point()
		start := end
		if j := s.model.ParentJoint(link); j != nil {
			start = poses[j.Parent].Point()
		}
		for _, o := range obstacles {
			deepest := 0.
			for i := 0; i < linkSegmentSamples; i++ {
				p := start.Add(end.Sub(start).Mul(float64(i) / float64(linkSegmentSamples-1)))
				if d := o.penetration(p); d > deepest {
					deepest = d
				}
			}
			if deepest > 0 {
				collisions = append(collisions, Collision{LinkName: link, ObstacleName: o.Name, PenetrationDepth: deepest})
			}
		}
	}
	sort.SliceStable(collisions, func(i, j int) bool { return collisions[i].LinkName < collisions[j].LinkName })
	return collisions, nil
}

// IsStateColliding reports whether any link is in contact with an obstacle. States that cannot be
// evaluated are reported as colliding.
func (s *Scene) IsStateColliding(state *referenceframe.KinematicState) bool {
	collisions, err := s.Collisions(state)
	return err != nil || len(collisions) > 0
}
