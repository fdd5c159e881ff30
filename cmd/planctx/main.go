// Package main solves and benchmarks planning problems described in JSON files.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/planctx/logging"
	"go.viam.com/planctx/planctx"
	"go.viam.com/planctx/utils"
)

const (
	// Flags.
	flagTimeout  = "timeout"
	flagRepeat   = "repeat"
	flagThreads  = "threads"
	flagSimplify = "simplify"
	flagSeed     = "seed"
	flagDebug    = "debug"
	flagRuns     = "runs"
	flagOutput   = "output"
)

func main() {
	logger := logging.NewLogger("planctx")
	defer goutils.UncheckedErrorFunc(logger.Sync)

	if err := newApp(logger, os.Stdout).Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func newApp(logger logging.Logger, out io.Writer) *cli.App {
	problemFlags := []cli.Flag{
		&cli.DurationFlag{
			Name:  flagTimeout,
			Value: 5 * time.Second,
			Usage: "planning time allowed per solve or benchmark run",
		},
		&cli.IntFlag{
			Name:  flagThreads,
			Usage: "planners run at once, 0 keeps the default",
		},
		&cli.Int64Flag{
			Name:  flagSeed,
			Value: -1,
			Usage: "random seed, negative for a random one",
		},
	}

	return &cli.App{
		Name:            "planctx",
		Usage:           "solve and benchmark motion planning problems",
		ArgsUsage:       "<problem.json>",
		HideHelpCommand: true,
		Writer:          out,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			} else {
				logger.SetLevel(logging.INFO)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "solve",
				Usage:     "plan a path for a problem and print the trajectory",
				ArgsUsage: "<problem.json>",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  flagRepeat,
						Value: 1,
						Usage: "planner runs whose solutions are combined",
					},
					&cli.BoolFlag{
						Name:  flagSimplify,
						Value: true,
						Usage: "shortcut the solution before interpolating it",
					},
				}, problemFlags...),
				Action: func(c *cli.Context) error {
					return solveAction(c, logger)
				},
			},
			{
				Name:      "benchmark",
				Usage:     "run the configured planner repeatedly and print a summary",
				ArgsUsage: "<problem.json>",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  flagRuns,
						Value: 10,
						Usage: "runs per planner",
					},
					&cli.StringFlag{
						Name:  flagOutput,
						Usage: "results `FILE`, defaults to <experiment>.json",
					},
				}, problemFlags...),
				Action: func(c *cli.Context) error {
					return benchmarkAction(c, logger)
				},
			},
		},
	}
}

// contextFromArgs loads the problem named by the first argument and builds its context.
func contextFromArgs(c *cli.Context, logger logging.Logger) (*planctx.PlanningContext, error) {
	if c.NArg() == 0 {
		return nil, errors.New("need a problem file")
	}
	if seed := c.Int64(flagSeed); seed >= 0 {
		utils.SetRandomSeed(seed)
	}
	p, err := loadProblem(c.Args().First())
	if err != nil {
		return nil, err
	}
	pc, err := p.newContext(logger)
	if err != nil {
		return nil, err
	}
	if threads := c.Int(flagThreads); threads > 0 {
		pc.SetMaxPlanningThreads(threads)
	}
	return pc, nil
}

func solveAction(c *cli.Context, logger logging.Logger) error {
	pc, err := contextFromArgs(c, logger)
	if err != nil {
		return err
	}
	res, err := pc.Solve(c.Context, c.Duration(flagTimeout), c.Int(flagRepeat))
	if err != nil {
		return err
	}
	if !res.Solved {
		return errors.Errorf("no solution found in %v", res.PlanTime)
	}
	if c.Bool(flagSimplify) {
		pc.SimplifySolution(c.Context, c.Duration(flagTimeout))
	}
	pc.InterpolateSolution()
	traj, err := pc.GetSolutionPath()
	if err != nil {
		return err
	}

	printf(c.App.Writer, "solved in %v over %d batches (simplified in %v), %d valid and %d invalid motions\n",
		res.PlanTime, res.Batches, pc.LastSimplifyTime(), res.ValidMotions, res.InvalidMotions)
	printf(c.App.Writer, "%s\n", trajectoryTable(traj))
	if c.Bool(flagDebug) {
		pc.SimpleSetup().PlanMeta().OutputTiming(c.App.Writer)
	}
	return nil
}

func benchmarkAction(c *cli.Context, logger logging.Logger) error {
	pc, err := contextFromArgs(c, logger)
	if err != nil {
		return err
	}
	saved, err := pc.Benchmark(c.Context, c.Duration(flagTimeout), c.Int(flagRuns), c.String(flagOutput))
	if results := pc.LastBenchmark(); results != nil {
		printf(c.App.Writer, "%s\n", benchmarkTable(results.Experiment, results.Summaries))
	}
	if err != nil {
		return err
	}
	if !saved {
		return errors.New("benchmark results were not saved")
	}
	return nil
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, err := fmt.Fprintf(w, format, args...)
	goutils.UncheckedError(err)
}
