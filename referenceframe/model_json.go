package referenceframe

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/planctx/spatialmath"
	"go.viam.com/planctx/utils"
)

// ModelConfigJSON represents all supported fields in a kinematics JSON file.
type ModelConfigJSON struct {
	Name   string              `json:"name"`
	Root   string              `json:"root"`
	Joints []JointConfig       `json:"joints"`
	Groups map[string][]string `json:"groups,omitempty"`
}

// PoseConfig is a translation plus an axis-angle rotation in degrees.
type PoseConfig struct {
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	Z           float64          `json:"z"`
	Orientation *spatialmath.R4AA `json:"orientation,omitempty"`
}

// JointConfig describes one joint. Revolute and planar angle limits are in degrees.
type JointConfig struct {
	ID     string      `json:"id"`
	Type   JointType   `json:"type"`
	Parent string      `json:"parent"`
	Child  string      `json:"child"`
	Origin *PoseConfig `json:"origin,omitempty"`
	Axis   *r3.Vector  `json:"axis,omitempty"`
	Min    *float64    `json:"min,omitempty"`
	Max    *float64    `json:"max,omitempty"`
	// Bounds overrides the limits of multi-variable joints, one [min, max] pair per variable.
	Bounds [][2]float64 `json:"bounds,omitempty"`
}

// ToJoint converts the config into a Joint.
func (cfg *JointConfig) ToJoint() (*Joint, error) {
	switch cfg.Type {
	case FixedJoint, RevoluteJoint, ContinuousJoint, PrismaticJoint, PlanarJoint, FloatingJoint:
	default:
		return nil, fmt.Errorf("unsupported joint type %q for joint %q", cfg.Type, cfg.ID)
	}
	j := NewJoint(cfg.ID, cfg.Type, cfg.Parent, cfg.Child)
	if cfg.Origin != nil {
		orientation := spatialmath.NewZeroOrientation()
		if cfg.Origin.Orientation != nil {
			aa := *cfg.Origin.Orientation
			aa.Theta = utils.DegToRad(aa.Theta)
			orientation = aa.Quaternion()
		}
		j.Origin = spatialmath.NewPose(r3.Vector{X: cfg.Origin.X, Y: cfg.Origin.Y, Z: cfg.Origin.Z}, orientation)
	}
	if cfg.Axis != nil {
		if cfg.Axis.Norm() == 0 {
			return nil, fmt.Errorf("joint %q has a zero axis", cfg.ID)
		}
		j.Axis = cfg.Axis.Normalize()
	}

	if j.VariableCount() == 1 && cfg.Type != ContinuousJoint {
		lim := j.Limits[0]
		conv := func(v float64) float64 { return v }
		if cfg.Type == RevoluteJoint {
			conv = utils.DegToRad
		}
		if cfg.Min != nil {
			lim.Min = conv(*cfg.Min)
		}
		if cfg.Max != nil {
			lim.Max = conv(*cfg.Max)
		}
		if lim.Min > lim.Max {
			return nil, fmt.Errorf("joint %q has min %v greater than max %v", cfg.ID, lim.Min, lim.Max)
		}
		j.Limits[0] = lim
	}
	if len(cfg.Bounds) > 0 {
		if len(cfg.Bounds) > len(j.Limits) {
			return nil, errors.Wrapf(NewIncorrectDoFError(len(cfg.Bounds), len(j.Limits)), "bounds of joint %q", cfg.ID)
		}
		for i, b := range cfg.Bounds {
			j.Limits[i] = Limit{Min: math.Min(b[0], b[1]), Max: math.Max(b[0], b[1])}
		}
	}
	return j, nil
}

// UnmarshalModelJSON parses the given JSON data into a kinematic model. modelName sets the name of
// the model; the name from the JSON is used when it is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*Model, error) {
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}
	cfg := &ModelConfigJSON{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg.ParseConfig(modelName)
}

// ParseConfig converts the ModelConfigJSON struct into a Model.
func (cfg *ModelConfigJSON) ParseConfig(modelName string) (*Model, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	if cfg.Root == "" {
		return nil, errors.New("model has no root link")
	}
	joints := make([]*Joint, 0, len(cfg.Joints))
	for i := range cfg.Joints {
		j, err := cfg.Joints[i].ToJoint()
		if err != nil {
			return nil, err
		}
		joints = append(joints, j)
	}
	return NewModel(modelName, cfg.Root, joints, cfg.Groups)
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string) (*Model, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}
