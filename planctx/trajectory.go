package planctx

import (
	"time"

	"github.com/samber/lo"

	"go.viam.com/planctx/motionplan"
	"go.viam.com/planctx/referenceframe"
	"go.viam.com/planctx/spatialmath"
)

// timeParametrizationSteps is the resolution of the time parametrization of converted paths.
const timeParametrizationSteps = 50

// JointTrajectoryPoint holds the positions of single variable joints at a time.
type JointTrajectoryPoint struct {
	Positions     []float64     `json:"positions"`
	TimeFromStart time.Duration `json:"time_from_start"`
}

// JointTrajectory is the trajectory of the single variable joints of a group.
type JointTrajectory struct {
	FrameID    string                 `json:"frame_id"`
	JointNames []string               `json:"joint_names"`
	Points     []JointTrajectoryPoint `json:"points"`
}

// MultiDOFJointTrajectoryPoint holds the transforms of multi variable joints at a time.
type MultiDOFJointTrajectoryPoint struct {
	Poses         []spatialmath.Pose `json:"-"`
	TimeFromStart time.Duration      `json:"time_from_start"`
}

// MultiDOFJointTrajectory is the trajectory of the planar and floating joints of a group.
type MultiDOFJointTrajectory struct {
	JointNames    []string                       `json:"joint_names"`
	FrameIDs      []string                       `json:"frame_ids"`
	ChildFrameIDs []string                       `json:"child_frame_ids"`
	Points        []MultiDOFJointTrajectoryPoint `json:"points"`
}

// RobotTrajectory is a solution path with timing, split by joint kind.
type RobotTrajectory struct {
	JointTrajectory         JointTrajectory         `json:"joint_trajectory"`
	MultiDOFJointTrajectory MultiDOFJointTrajectory `json:"multi_dof_joint_trajectory"`
}

// WaypointCount returns the number of waypoints of the trajectory.
func (t *RobotTrajectory) WaypointCount() int {
	return max(len(t.JointTrajectory.Points), len(t.MultiDOFJointTrajectory.Points))
}

// convertPath times the path under the velocity and acceleration limits and emits one waypoint
// per state. Joints without variables are skipped.
func convertPath(
	path *motionplan.PathGeometric,
	ss *motionplan.StateSpace,
	base *referenceframe.KinematicState,
	frame string,
	maxVelocity, maxAcceleration float64,
) (*RobotTrajectory, error) {
	joints := lo.Filter(ss.Group().Joints(), func(j *referenceframe.Joint, _ int) bool { return j.VariableCount() > 0 })
	oneDOF := lo.Filter(joints, func(j *referenceframe.Joint, _ int) bool { return j.VariableCount() == 1 })
	multiDOF := lo.Filter(joints, func(j *referenceframe.Joint, _ int) bool { return j.VariableCount() > 1 })
	jointName := func(j *referenceframe.Joint, _ int) string { return j.Name }

	traj := &RobotTrajectory{}
	traj.JointTrajectory.FrameID = frame
	traj.JointTrajectory.JointNames = lo.Map(oneDOF, jointName)
	traj.MultiDOFJointTrajectory.JointNames = lo.Map(multiDOF, jointName)
	traj.MultiDOFJointTrajectory.FrameIDs = lo.Map(multiDOF, func(*referenceframe.Joint, int) string { return frame })
	traj.MultiDOFJointTrajectory.ChildFrameIDs = lo.Map(multiDOF, func(j *referenceframe.Joint, _ int) string { return j.Child })

	times := path.ComputeFastTimeParametrization(maxVelocity, maxAcceleration, timeParametrizationSteps)
	ks := base.Copy()
	for i, state := range path.States() {
		if err := ss.CopyToKinematicState(ks, state); err != nil {
			return nil, err
		}
		at := time.Duration(times[i] * float64(time.Second))
		if len(oneDOF) > 0 {
			pt := JointTrajectoryPoint{Positions: make([]float64, 0, len(oneDOF)), TimeFromStart: at}
			for _, j := range oneDOF {
				values, err := ks.JointValues(j.Name)
				if err != nil {
					return nil, err
				}
				pt.Positions = append(pt.Positions, values[0].Value)
			}
			traj.JointTrajectory.Points = append(traj.JointTrajectory.Points, pt)
		}
		if len(multiDOF) > 0 {
			pt := MultiDOFJointTrajectoryPoint{Poses: make([]spatialmath.Pose, 0, len(multiDOF)), TimeFromStart: at}
			for _, j := range multiDOF {
				values, err := ks.JointValues(j.Name)
				if err != nil {
					return nil, err
				}
				pose, err := j.VariableTransform(values)
				if err != nil {
					return nil, err
				}
				pt.Poses = append(pt.Poses, pose)
			}
			traj.MultiDOFJointTrajectory.Points = append(traj.MultiDOFJointTrajectory.Points, pt)
		}
	}
	return traj, nil
}
