package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/planctx"
	"go.viam.com/planctx/spatialmath"
	"go.viam.com/planctx/utils"
)

// trajectoryTable renders one row per waypoint: the time from start, then a column per single
// variable joint in radians or meters, then a column per multi variable joint.
func trajectoryTable(traj *planctx.RobotTrajectory) string {
	t := table.NewWriter()
	header := table.Row{"#", "Time"}
	for _, name := range traj.JointTrajectory.JointNames {
		header = append(header, name)
	}
	for _, name := range traj.MultiDOFJointTrajectory.JointNames {
		header = append(header, name)
	}
	t.AppendHeader(header)

	for i := 0; i < traj.WaypointCount(); i++ {
		row := table.Row{fmt.Sprintf("%d", i)}
		if i < len(traj.JointTrajectory.Points) {
			pt := traj.JointTrajectory.Points[i]
			row = append(row, pt.TimeFromStart.String())
			for _, v := range pt.Positions {
				row = append(row, fmt.Sprintf("%.4f", v))
			}
		} else {
			row = append(row, traj.MultiDOFJointTrajectory.Points[i].TimeFromStart.String())
		}
		if i < len(traj.MultiDOFJointTrajectory.Points) {
			for _, pose := range traj.MultiDOFJointTrajectory.Points[i].Poses {
				row = append(row, poseString(pose))
			}
		}
		t.AppendRow(row)
	}
	return t.Render()
}

func poseString(pose spatialmath.Pose) string {
	p := pose.Point()
	aa := spatialmath.QuatToR4AA(pose.Orientation())
	return fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f, Theta:%.1f", p.X, p.Y, p.Z, utils.RadToDeg(aa.Theta))
}

// benchmarkTable renders the per planner summaries of a benchmark.
func benchmarkTable(experiment string, summaries []motionplan.BenchmarkSummary) string {
	t := table.NewWriter()
	t.SetTitle(experiment)
	t.AppendHeader(table.Row{"Planner", "Runs", "Solved", "Approximate", "Time mean", "Time median", "Time stddev", "Length mean"})
	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.Planner,
			s.Runs,
			s.Solved,
			s.Approximate,
			fmt.Sprintf("%.3fs", s.TimeMean),
			fmt.Sprintf("%.3fs", s.TimeMedian),
			fmt.Sprintf("%.3fs", s.TimeStdDev),
			fmt.Sprintf("%.3f", s.LengthMean),
		})
	}
	return t.Render()
}
