package kinematics

import "servoarm/arm"

// Kinematics defines the interface for coordinate transformations
type Kinematics interface {
	// Solve converts an end-effector pose to encoded joint values
	Solve(target arm.CartesianTarget) (arm.JointAngles, error)

	// Forward converts encoded joint values back to an end-effector pose
	Forward(joints arm.JointAngles) arm.CartesianTarget

	// CheckLimits validates that every joint value is within its range
	CheckLimits(joints arm.JointAngles) error
}

// jointEncoding maps a kinematic joint angle to the servo degree value:
// value = ZeroOffset + GearRatio*degrees(angle)
type jointEncoding struct {
	zero   float64
	ratio  float64
	limits arm.JointLimits
}

func (e jointEncoding) encode(rad float64) float64 {
	return e.zero + e.ratio*degrees(rad)
}

func (e jointEncoding) decode(value float64) float64 {
	return radians((value - e.zero) / e.ratio)
}
