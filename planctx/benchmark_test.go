package planctx

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/planctx/motionplan"
)

func TestExperimentName(t *testing.T) {
	pc := newArmContext(t, nil)
	test.That(t, pc.ExperimentName(), test.ShouldEqual, "planar_arm_arm_default_arm")
}

func TestBenchmark(t *testing.T) {
	pc := goalContext(t, managerSpec(t))
	filename := filepath.Join(t.TempDir(), "results.json")

	ok, err := pc.Benchmark(context.Background(), 5*time.Second, 3, filename)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	results := pc.LastBenchmark()
	test.That(t, results, test.ShouldNotBeNil)
	test.That(t, results.Experiment, test.ShouldEqual, pc.ExperimentName())
	test.That(t, len(results.Runs), test.ShouldEqual, 3)
	for _, run := range results.Runs {
		test.That(t, run.Solved, test.ShouldBeTrue)
	}
	test.That(t, len(results.Summaries), test.ShouldEqual, 1)
	test.That(t, results.Summaries[0].Runs, test.ShouldEqual, 3)

	data, err := os.ReadFile(filename)
	test.That(t, err, test.ShouldBeNil)
	var saved motionplan.BenchmarkResults
	test.That(t, json.Unmarshal(data, &saved), test.ShouldBeNil)
	test.That(t, saved.ID, test.ShouldEqual, results.ID)

	// goal sampling only runs while benchmarking
	test.That(t, pc.Goal().(*ConstrainedGoalSampler).IsSampling(), test.ShouldBeFalse)
	test.That(t, pc.State(), test.ShouldEqual, GoalSet)
}

func TestBenchmarkDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	pc := goalContext(t, managerSpec(t))
	ok, err := pc.Benchmark(context.Background(), 5*time.Second, 1, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	_, err = os.Stat(pc.ExperimentName() + ".json")
	test.That(t, err, test.ShouldBeNil)
}

func TestBenchmarkFailures(t *testing.T) {
	pc := newArmContext(t, nil)
	ok, err := pc.Benchmark(context.Background(), time.Second, 1, "")
	test.That(t, err, test.ShouldBeError, motionplan.ErrNoGoal)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, pc.LastBenchmark(), test.ShouldBeNil)

	pc = goalContext(t, managerSpec(t))
	ok, err = pc.Benchmark(context.Background(), 5*time.Second, 1, filepath.Join(t.TempDir(), "missing", "results.json"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	// the runs are kept even when they could not be saved
	test.That(t, pc.LastBenchmark(), test.ShouldNotBeNil)
}
