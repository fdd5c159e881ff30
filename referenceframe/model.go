// Package referenceframe describes kinematic models: links connected by joints, named groups of
// joints, and the full variable state of a model.
package referenceframe

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/planctx/spatialmath"
)

// Model is a tree of links connected by joints. It is immutable after construction and safe for
// concurrent use.
type Model struct {
	name     string
	rootLink string

	// joints are ordered parents before children; the state vector concatenates their variables in
	// this order.
	joints      []*Joint
	jointByName map[string]*Joint
	varOffset   map[string]int
	parentJoint map[string]*Joint
	links       map[string]bool
	groups      map[string]*JointGroup

	variableCount int
}

// NewModel builds a model rooted at rootLink. groups maps group names to joint names; the joints of
// each group are stored in model order regardless of the order given.
func NewModel(name, rootLink string, joints []*Joint, groups map[string][]string) (*Model, error) {
	m := &Model{
		name:        name,
		rootLink:    rootLink,
		jointByName: map[string]*Joint{},
		varOffset:   map[string]int{},
		parentJoint: map[string]*Joint{},
		links:       map[string]bool{rootLink: true},
		groups:      map[string]*JointGroup{},
	}

	for _, j := range joints {
		if _, ok := m.jointByName[j.Name]; ok {
			return nil, NewDuplicateNameError("joint", j.Name)
		}
		if _, ok := m.parentJoint[j.Child]; ok || j.Child == rootLink {
			return nil, NewDuplicateNameError("link", j.Child)
		}
		if len(j.Limits) != j.VariableCount() {
			return nil, errors.Wrapf(NewIncorrectDoFError(len(j.Limits), j.VariableCount()), "limits of joint %q", j.Name)
		}
		m.jointByName[j.Name] = j
		m.parentJoint[j.Child] = j
	}

	ordered, err := sortJoints(rootLink, joints)
	if err != nil {
		return nil, err
	}
	m.joints = ordered
	for _, j := range ordered {
		m.varOffset[j.Name] = m.variableCount
		m.variableCount += j.VariableCount()
		m.links[j.Child] = true
	}

	var errs error
	for groupName, jointNames := range groups {
		g, err := m.newGroup(groupName, jointNames)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		m.groups[groupName] = g
	}
	if errs != nil {
		return nil, errs
	}
	return m, nil
}

// sortJoints orders joints breadth first from the root link. Joints unreachable from the root are
// reported as an error.
func sortJoints(rootLink string, joints []*Joint) ([]*Joint, error) {
	children := map[string][]*Joint{}
	for _, j := range joints {
		children[j.Parent] = append(children[j.Parent], j)
	}

	ordered := make([]*Joint, 0, len(joints))
	seen := map[string]bool{rootLink: true}
	queue := []string{rootLink}
	for len(queue) > 0 {
		link := queue[0]
		queue = queue[1:]
		for _, j := range children[link] {
			if seen[j.Child] {
				return nil, ErrCircularReference
			}
			seen[j.Child] = true
			ordered = append(ordered, j)
			queue = append(queue, j.Child)
		}
	}
	if len(ordered) != len(joints) {
		for _, j := range joints {
			if !seen[j.Child] {
				return nil, NewLinkMissingError(j.Parent)
			}
		}
	}
	return ordered, nil
}

func (m *Model) newGroup(name string, jointNames []string) (*JointGroup, error) {
	g := &JointGroup{name: name, model: m, jointSet: map[string]bool{}}
	for _, jn := range jointNames {
		if _, ok := m.jointByName[jn]; !ok {
			return nil, errors.Wrapf(NewJointMissingError(jn), "group %q", name)
		}
		g.jointSet[jn] = true
	}
	for _, j := range m.joints {
		if !g.jointSet[j.Name] {
			continue
		}
		g.joints = append(g.joints, j)
		off := m.varOffset[j.Name]
		for i := 0; i < j.VariableCount(); i++ {
			g.varIndex = append(g.varIndex, off+i)
		}
	}
	return g, nil
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// RootLink returns the name of the root link, which is also the model frame.
func (m *Model) RootLink() string {
	return m.rootLink
}

// VariableCount returns the length of the full state vector.
func (m *Model) VariableCount() int {
	return m.variableCount
}

// Joints returns the joints in model order.
func (m *Model) Joints() []*Joint {
	return m.joints
}

// Joint returns the named joint.
func (m *Model) Joint(name string) (*Joint, error) {
	j, ok := m.jointByName[name]
	if !ok {
		return nil, NewJointMissingError(name)
	}
	return j, nil
}

// HasJoint reports whether the model has a joint with the given name.
func (m *Model) HasJoint(name string) bool {
	_, ok := m.jointByName[name]
	return ok
}

// HasLink reports whether the model has a link with the given name.
func (m *Model) HasLink(name string) bool {
	return m.links[name]
}

// LinkNames returns the link names in sorted order.
func (m *Model) LinkNames() []string {
	names := make([]string, 0, len(m.links))
	for name := range m.links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParentJoint returns the joint whose child is the given link, or nil for the root link.
func (m *Model) ParentJoint(link string) *Joint {
	return m.parentJoint[link]
}

// Group returns the named joint group.
func (m *Model) Group(name string) (*JointGroup, error) {
	g, ok := m.groups[name]
	if !ok {
		return nil, NewGroupMissingError(name)
	}
	return g, nil
}

// GroupNames returns the group names in sorted order.
func (m *Model) GroupNames() []string {
	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JointGroup is a named, ordered subset of a model's joints. Planning happens in the space of a
// group's variables.
type JointGroup struct {
	name     string
	model    *Model
	joints   []*Joint
	jointSet map[string]bool
	varIndex []int
}

// Name returns the group name.
func (g *JointGroup) Name() string {
	return g.name
}

// Model returns the model the group belongs to.
func (g *JointGroup) Model() *Model {
	return g.model
}

// Joints returns the group's joints in model order.
func (g *JointGroup) Joints() []*Joint {
	return g.joints
}

// HasJoint reports whether the named joint is part of the group.
func (g *JointGroup) HasJoint(name string) bool {
	return g.jointSet[name]
}

// VariableCount returns the number of variables of the group.
func (g *JointGroup) VariableCount() int {
	return len(g.varIndex)
}

// VariableIndex returns, for each group variable, its index in the full state vector.
func (g *JointGroup) VariableIndex() []int {
	return g.varIndex
}

// JointVariableOffset returns the offset of the named joint's first variable within the group's
// variables, or -1 when the joint is not in the group.
func (g *JointGroup) JointVariableOffset(name string) int {
	off := 0
	for _, j := range g.joints {
		if j.Name == name {
			return off
		}
		off += j.VariableCount()
	}
	return -1
}

// Bounds returns the limits of each group variable.
func (g *JointGroup) Bounds() []Limit {
	limits := make([]Limit, 0, len(g.varIndex))
	for _, j := range g.joints {
		limits = append(limits, j.Limits...)
	}
	return limits
}

// KinematicState is a full assignment of values to every variable of a model.
type KinematicState struct {
	model  *Model
	values []Input
}

// NewKinematicState returns the model's default state: every joint at its neutral values.
func NewKinematicState(m *Model) *KinematicState {
	values := make([]Input, 0, m.variableCount)
	for _, j := range m.joints {
		values = append(values, j.DefaultValues()...)
	}
	return &KinematicState{model: m, values: values}
}

// Model returns the model this state describes.
func (s *KinematicState) Model() *Model {
	return s.model
}

// Copy returns a deep copy of the state.
func (s *KinematicState) Copy() *KinematicState {
	return &KinematicState{model: s.model, values: CopyInputs(s.values)}
}

// Values returns a copy of the full state vector.
func (s *KinematicState) Values() []Input {
	return CopyInputs(s.values)
}

// SetValues replaces the full state vector.
func (s *KinematicState) SetValues(values []Input) error {
	if len(values) != len(s.values) {
		return NewIncorrectDoFError(len(values), len(s.values))
	}
	copy(s.values, values)
	return nil
}

// GroupInputs returns the values of the group's variables.
func (s *KinematicState) GroupInputs(g *JointGroup) []Input {
	out := make([]Input, len(g.varIndex))
	for i, idx := range g.varIndex {
		out[i] = s.values[idx]
	}
	return out
}

// SetGroupInputs assigns the values of the group's variables.
func (s *KinematicState) SetGroupInputs(g *JointGroup, inputs []Input) error {
	if len(inputs) != len(g.varIndex) {
		return NewIncorrectDoFError(len(inputs), len(g.varIndex))
	}
	for i, idx := range g.varIndex {
		s.values[idx] = inputs[i]
	}
	return nil
}

// JointValues returns the values of the named joint.
func (s *KinematicState) JointValues(name string) ([]Input, error) {
	j, err := s.model.Joint(name)
	if err != nil {
		return nil, err
	}
	off := s.model.varOffset[name]
	return CopyInputs(s.values[off : off+j.VariableCount()]), nil
}

// SetJointValues assigns the values of the named joint.
func (s *KinematicState) SetJointValues(name string, values []Input) error {
	j, err := s.model.Joint(name)
	if err != nil {
		return err
	}
	if len(values) != j.VariableCount() {
		return NewIncorrectDoFError(len(values), j.VariableCount())
	}
	copy(s.values[s.model.varOffset[name]:], values)
	return nil
}

// LinkPose returns the pose of the link in the model (root link) frame.
func (s *KinematicState) LinkPose(link string) (spatialmath.Pose, error) {
	if !s.model.HasLink(link) {
		return nil, NewLinkMissingError(link)
	}
	var chain []*Joint
	for cur := link; cur != s.model.rootLink; {
		j := s.model.parentJoint[cur]
		if j == nil {
			return nil, NewLinkMissingError(cur)
		}
		chain = append(chain, j)
		cur = j.Parent
		if len(chain) > len(s.model.joints) {
			return nil, ErrCircularReference
		}
	}

	pose := spatialmath.NewZeroPose()
	for i := len(chain) - 1; i >= 0; i-- {
		j := chain[i]
		off := s.model.varOffset[j.Name]
		t, err := j.Transform(s.values[off : off+j.VariableCount()])
		if err != nil {
			return nil, err
		}
		pose = spatialmath.Compose(pose, t)
	}
	return pose, nil
}

// LinkPoses returns the pose of every link in the model frame.
func (s *KinematicState) LinkPoses() (map[string]spatialmath.Pose, error) {
	poses := map[string]spatialmath.Pose{s.model.rootLink: spatialmath.NewZeroPose()}
	for _, j := range s.model.joints {
		off := s.model.varOffset[j.Name]
		t, err := j.Transform(s.values[off : off+j.VariableCount()])
		if err != nil {
			return nil, err
		}
		poses[j.Child] = spatialmath.Compose(poses[j.Parent], t)
	}
	return poses, nil
}

// SatisfiesBounds reports whether the group's variables are within their limits.
func (s *KinematicState) SatisfiesBounds(g *JointGroup, margin float64) bool {
	for _, j := range g.joints {
		off := s.model.varOffset[j.Name]
		if !j.SatisfiesBounds(s.values[off:off+j.VariableCount()], margin) {
			return false
		}
	}
	return true
}
