package planctx

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/motionplan"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(map[string]string{
		PlannerTypeKey:         " geometric::RRT ",
		ProjectionEvaluatorKey: "link(tool)",
		MaxVelocityKey:         "1.5",
		MaxAccelerationKey:     "3",
		"range":                "0.25",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.PlannerType, test.ShouldEqual, "geometric::RRT")
	test.That(t, opts.ProjectionEvaluator, test.ShouldEqual, "link(tool)")
	test.That(t, *opts.MaxVelocity, test.ShouldEqual, 1.5)
	test.That(t, *opts.MaxAcceleration, test.ShouldEqual, 3)
	test.That(t, opts.PlannerParams, test.ShouldResemble, motionplan.Params{"range": "0.25"})
	test.That(t, opts.Empty(), test.ShouldBeFalse)

	opts, err = ParseOptions(map[string]string{MaxVelocityKey: "quick", MaxAccelerationKey: "", ProjectionEvaluatorKey: "joints(j1)"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, MaxVelocityKey)
	test.That(t, err.Error(), test.ShouldContainSubstring, MaxAccelerationKey)
	test.That(t, opts.MaxVelocity, test.ShouldBeNil)
	test.That(t, opts.MaxAcceleration, test.ShouldBeNil)
	test.That(t, opts.ProjectionEvaluator, test.ShouldEqual, "joints(j1)")
	// limits and projections alone leave the planner untouched
	test.That(t, opts.Empty(), test.ShouldBeTrue)

	opts, err = ParseOptions(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.Empty(), test.ShouldBeTrue)
}

func TestSpecificationPlannerSelector(t *testing.T) {
	si := motionplan.NewSimpleSetup(armSpace(t), logging.NewTestLogger(t)).SpaceInformation()
	p, err := (&Specification{}).plannerSelector()(si, motionplan.RRTType, "", nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Type(), test.ShouldEqual, motionplan.RRTType)

	_, err = (&Specification{}).plannerSelector()(si, "geometric::Nope", "", nil)
	test.That(t, err, test.ShouldBeError, motionplan.NewUnknownPlannerError("geometric::Nope"))
}
