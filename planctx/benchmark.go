package planctx

import (
	"context"
	"fmt"
	"time"

	"go.opencensus.io/trace"

	"go.viam.com/planctx/motionplan"
)

// ExperimentName names benchmarks of this context after the model, group, scene and context.
func (pc *PlanningContext) ExperimentName() string {
	scene := ""
	if s := pc.PlanningScene(); s != nil {
		scene = s.Name()
	}
	return fmt.Sprintf("%s_%s_%s_%s", pc.ss.Model().Name(), pc.GroupName(), scene, pc.name)
}

// Benchmark runs the configured planner runCount times on the current problem and writes the
// results to filename, or to <experiment name>.json when filename is empty. It reports whether the
// results were written.
func (pc *PlanningContext) Benchmark(ctx context.Context, timeout time.Duration, runCount int, filename string) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "planctx::PlanningContext::Benchmark")
	defer span.End()

	if err := pc.notSolving(); err != nil {
		return false, err
	}
	goal := pc.setup.Goal()
	if goal == nil {
		return false, motionplan.ErrNoGoal
	}
	if err := pc.setup.Setup(); err != nil {
		return false, err
	}

	b := motionplan.NewBenchmark(pc.setup, pc.ExperimentName())
	if alloc := pc.setup.PlannerAllocator(); alloc != nil {
		b.AddPlannerAllocator(alloc)
	}
	if lazy, ok := goal.(motionplan.LazyGoal); ok {
		lazy.StartSampling()
		defer lazy.StopSampling()
	}
	results, err := b.Run(ctx, motionplan.BenchmarkRequest{MaxTime: timeout, RunCount: runCount})
	if err != nil {
		return false, err
	}
	pc.mu.Lock()
	pc.lastBenchmark = results
	pc.mu.Unlock()

	if filename == "" {
		filename = b.Experiment() + ".json"
	}
	if err := b.SaveResultsToFile(filename); err != nil {
		pc.logger.Warnw("unable to save benchmark results", "file", filename, "error", err)
		return false, err
	}
	pc.logger.CDebugf(ctx, "benchmark results saved to %q", filename)
	return true, nil
}

// LastBenchmark returns the results of the last Benchmark, or nil.
func (pc *PlanningContext) LastBenchmark() *motionplan.BenchmarkResults {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.lastBenchmark
}
