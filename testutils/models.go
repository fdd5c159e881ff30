// Package testutils provides models and helpers shared by package tests.
package testutils

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/spatialmath"
)

// ArmGroup is the name of the planning group of MakeArmModel.
const ArmGroup = "arm"

// MakeArmModel returns a three joint planar arm rooted at "base":
// base -j1-> link1 -j2-> link2 -j3-> link3 -fixed-> tool, each link 1 unit long along X.
// The joints rotate about Z within [-pi, pi].
func MakeArmModel(t testing.TB) *referenceframe.Model {
	t.Helper()
	joints := []*referenceframe.Joint{
		referenceframe.NewJoint("j1", referenceframe.RevoluteJoint, "base", "link1"),
		referenceframe.NewJoint("j2", referenceframe.RevoluteJoint, "link1", "link2"),
		referenceframe.NewJoint("j3", referenceframe.RevoluteJoint, "link2", "link3"),
		referenceframe.NewJoint("tool_mount", referenceframe.FixedJoint, "link3", "tool"),
	}
	for _, j := range joints[1:] {
		j.Origin = spatialmath.NewPoseFromPoint(r3.Vector{X: 1})
	}
	m, err := referenceframe.NewModel("planar_arm", "base", joints, map[string][]string{
		ArmGroup:    {"j1", "j2", "j3"},
		"wrist":     {"j3"},
		"with_tool": {"j1", "j2", "j3", "tool_mount"},
	})
	test.That(t, err, test.ShouldBeNil)
	return m
}

// MobileGroup is the name of the planning group of MakeMobileModel.
const MobileGroup = "mobile"

// MakeMobileModel returns a planar base carrying a one joint arm, so the group mixes a
// multi-variable joint with a single-variable one.
func MakeMobileModel(t testing.TB) *referenceframe.Model {
	t.Helper()
	base := referenceframe.NewJoint("base_joint", referenceframe.PlanarJoint, "odom", "base")
	arm := referenceframe.NewJoint("shoulder", referenceframe.RevoluteJoint, "base", "upper_arm")
	arm.Limits = []referenceframe.Limit{{Min: -math.Pi / 2, Max: math.Pi / 2}}
	arm.Origin = spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.5})
	m, err := referenceframe.NewModel("mobile_robot", "odom", []*referenceframe.Joint{base, arm},
		map[string][]string{MobileGroup: {"base_joint", "shoulder"}})
	test.That(t, err, test.ShouldBeNil)
	return m
}
