package motionplan

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"
)

// BenchmarkRequest says how long each run may take and how often each planner runs.
type BenchmarkRequest struct {
	MaxTime  time.Duration
	RunCount int
}

// BenchmarkRun is the outcome of one planner run.
type BenchmarkRun struct {
	Planner        string  `json:"planner"`
	Seconds        float64 `json:"time"`
	Solved         bool    `json:"solved"`
	Approximate    bool    `json:"approximate"`
	Difference     float64 `json:"difference"`
	Length         float64 `json:"length"`
	States         int     `json:"states"`
	ValidMotions   int64   `json:"valid_motions"`
	InvalidMotions int64   `json:"invalid_motions"`
	Error          string  `json:"error,omitempty"`
}

// BenchmarkSummary aggregates the runs of one planner.
type BenchmarkSummary struct {
	Planner      string  `json:"planner"`
	Runs         int     `json:"runs"`
	Solved       int     `json:"solved"`
	Approximate  int     `json:"approximate"`
	TimeMean     float64 `json:"time_mean"`
	TimeMedian   float64 `json:"time_median"`
	TimeStdDev   float64 `json:"time_stddev"`
	LengthMean   float64 `json:"length_mean"`
	LengthMedian float64 `json:"length_median"`
}

// BenchmarkResults is everything a benchmark recorded.
type BenchmarkResults struct {
	ID         string             `json:"id"`
	Experiment string             `json:"experiment"`
	Start      time.Time          `json:"start"`
	MaxTime    float64            `json:"max_time"`
	RunCount   int                `json:"run_count"`
	Runs       []BenchmarkRun     `json:"runs"`
	Summaries  []BenchmarkSummary `json:"summaries"`
}

// Benchmark runs planners on the problem of a setup and records how they do.
type Benchmark struct {
	setup      *SimpleSetup
	experiment string
	clock      clock.Clock
	allocators []PlannerAllocator
	results    *BenchmarkResults
}

// NewBenchmark returns a benchmark of the setup's problem.
func NewBenchmark(setup *SimpleSetup, experiment string) *Benchmark {
	return &Benchmark{setup: setup, experiment: experiment, clock: setup.clock}
}

// Experiment returns the experiment name.
func (b *Benchmark) Experiment() string {
	return b.experiment
}

// AddPlannerAllocator adds a planner to compare. Each run gets a freshly allocated planner.
func (b *Benchmark) AddPlannerAllocator(alloc PlannerAllocator) {
	b.allocators = append(b.allocators, alloc)
}

// Run runs every planner RunCount times. Without planners the setup's planner allocator is used,
// or the default planner for the goal.
func (b *Benchmark) Run(ctx context.Context, req BenchmarkRequest) (*BenchmarkResults, error) {
	ctx, span := trace.StartSpan(ctx, "motionplan::Benchmark::Run")
	defer span.End()
	if req.RunCount < 1 {
		req.RunCount = 1
	}
	si := b.setup.SpaceInformation()
	pd := b.setup.ProblemDefinition()
	if err := si.Setup(); err != nil {
		return nil, err
	}
	if pd.Goal() == nil {
		return nil, ErrNoGoal
	}

	allocators := b.allocators
	if len(allocators) == 0 {
		if alloc := b.setup.PlannerAllocator(); alloc != nil {
			allocators = []PlannerAllocator{alloc}
		} else {
			allocators = []PlannerAllocator{func(si *SpaceInformation) (Planner, error) {
				return DefaultPlanner(si, pd.Goal()), nil
			}}
		}
	}

	results := &BenchmarkResults{
		ID:         uuid.NewString(),
		Experiment: b.experiment,
		Start:      b.clock.Now(),
		MaxTime:    req.MaxTime.Seconds(),
		RunCount:   req.RunCount,
	}
	for _, alloc := range allocators {
		for i := 0; i < req.RunCount; i++ {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			run, err := b.runOnce(ctx, si, pd, alloc, req.MaxTime)
			if err != nil {
				return nil, err
			}
			results.Runs = append(results.Runs, run)
		}
	}
	results.Summaries = summarizeRuns(results.Runs)
	b.results = results
	return results, nil
}

func (b *Benchmark) runOnce(
	ctx context.Context,
	si *SpaceInformation,
	pd *ProblemDefinition,
	alloc PlannerAllocator,
	maxTime time.Duration,
) (BenchmarkRun, error) {
	p, err := alloc(si)
	if err != nil {
		return BenchmarkRun{}, err
	}
	p.SetProblemDefinition(pd)
	if err := p.Setup(); err != nil {
		return BenchmarkRun{}, errors.Wrapf(err, "setting up %s", p.Name())
	}
	pd.ClearSolutionPaths()
	si.MotionValidator().ResetMotionCounter()

	ptc := Or(NewTimedTerminationCondition(b.clock, maxTime), NewContextTerminationCondition(ctx))
	start := b.clock.Now()
	sol, solveErr := p.Solve(ptc)
	run := BenchmarkRun{
		Planner:        p.Name(),
		Seconds:        b.clock.Since(start).Seconds(),
		ValidMotions:   si.MotionValidator().ValidMotionCount(),
		InvalidMotions: si.MotionValidator().InvalidMotionCount(),
	}
	if solveErr != nil {
		run.Error = solveErr.Error()
		return run, nil
	}
	if sol != nil {
		pd.AddSolutionPath(sol)
		run.Solved = true
		run.Approximate = sol.Approximate
		run.Difference = sol.Difference
		run.Length = sol.Path.Length()
		run.States = sol.Path.StateCount()
	}
	return run, nil
}

// Results returns the results of the last Run, or nil.
func (b *Benchmark) Results() *BenchmarkResults {
	return b.results
}

// SaveResultsToFile writes the results of the last Run as JSON.
func (b *Benchmark) SaveResultsToFile(filename string) error {
	if b.results == nil {
		return errors.New("benchmark has not run")
	}
	data, err := json.MarshalIndent(b.results, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(filename, data, 0o600), "saving benchmark results to %q", filename)
}

func summarizeRuns(runs []BenchmarkRun) []BenchmarkSummary {
	byPlanner := lo.GroupBy(runs, func(r BenchmarkRun) string { return r.Planner })
	names := lo.Uniq(lo.Map(runs, func(r BenchmarkRun, _ int) string { return r.Planner }))

	summaries := make([]BenchmarkSummary, 0, len(names))
	for _, name := range names {
		group := byPlanner[name]
		times := stats.Float64Data(lo.Map(group, func(r BenchmarkRun, _ int) float64 { return r.Seconds }))
		solved := lo.Filter(group, func(r BenchmarkRun, _ int) bool { return r.Solved })
		lengths := stats.Float64Data(lo.Map(solved, func(r BenchmarkRun, _ int) float64 { return r.Length }))

		s := BenchmarkSummary{
			Planner:     name,
			Runs:        len(group),
			Solved:      len(solved),
			Approximate: lo.CountBy(solved, func(r BenchmarkRun) bool { return r.Approximate }),
		}
		// errors only come from empty input
		s.TimeMean, _ = times.Mean()
		s.TimeMedian, _ = times.Median()
		s.TimeStdDev, _ = times.StandardDeviation()
		if len(lengths) > 0 {
			s.LengthMean, _ = lengths.Mean()
			s.LengthMedian, _ = lengths.Median()
		}
		summaries = append(summaries, s)
	}
	return summaries
}
