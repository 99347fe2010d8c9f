// Package arm holds the types shared by the motion core of the 5-axis servo arm.
package arm

import (
	"math"
	"strconv"
)

// AxisID identifies one of the five actuated joints
type AxisID uint8

const (
	Axis1 AxisID = iota + 1 // base bearing
	Axis2                   // shoulder, two mirrored servos
	Axis3                   // elbow
	Axis4                   // wrist pitch
	Axis5                   // wrist deflection
)

// NumAxes is the number of actuated joints
const NumAxes = 5

// AllAxes lists every axis in dispatch order
var AllAxes = [NumAxes]AxisID{Axis1, Axis2, Axis3, Axis4, Axis5}

// Valid reports whether a is one of the five axes
func (a AxisID) Valid() bool {
	return a >= Axis1 && a <= Axis5
}

// Index returns the zero-based array index for a
func (a AxisID) Index() int {
	return int(a) - 1
}

func (a AxisID) String() string {
	if !a.Valid() {
		return "axis?" + strconv.Itoa(int(a))
	}
	return "axis" + strconv.Itoa(int(a))
}

// AxisFromDigit maps the characters '1'..'5' to an axis
func AxisFromDigit(c byte) (AxisID, bool) {
	switch c {
	case '1':
		return Axis1, true
	case '2':
		return Axis2, true
	case '3':
		return Axis3, true
	case '4':
		return Axis4, true
	case '5':
		return Axis5, true
	}
	return 0, false
}

// JointLimits is the closed travel range [0, Range] of a joint in degrees
type JointLimits struct {
	Range int
}

// Contains reports whether deg lies within the limits. NaN is never contained.
func (l JointLimits) Contains(deg float64) bool {
	if math.IsNaN(deg) {
		return false
	}
	return deg >= 0 && deg <= float64(l.Range)
}

// JointAngles holds one encoded joint value in degrees per axis
type JointAngles [NumAxes]float64

// Get returns the value for axis a
func (j JointAngles) Get(a AxisID) float64 {
	return j[a.Index()]
}

// CartesianTarget is an end-effector pose: position in millimeters and the
// tool approach direction as yaw and pitch in degrees.
type CartesianTarget struct {
	X     float64
	Y     float64
	Z     float64
	Yaw   float64
	Pitch float64
}

// RobotMode governs how the next non-keyword line is parsed
type RobotMode uint8

const (
	ModeIdle RobotMode = iota
	ModeSingleAxis
	ModeCartesian
)

func (m RobotMode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeSingleAxis:
		return "single-axis"
	case ModeCartesian:
		return "cartesian"
	}
	return "unknown"
}

// RunState governs which axes the scheduler samples on a tick
type RunState uint8

const (
	RunStopped RunState = iota
	RunSingleAxis
	RunAllAxes
)

func (r RunState) String() string {
	switch r {
	case RunStopped:
		return "stopped"
	case RunSingleAxis:
		return "single-axis"
	case RunAllAxes:
		return "all-axes"
	}
	return "unknown"
}

// CommandKind identifies a parsed protocol line
type CommandKind uint8

const (
	CmdMotor         CommandKind = iota // enter single-axis mode
	CmdCartesianMode                    // enter cartesian mode
	CmdReset                            // blocking return to the initial pose
	CmdStatus                           // report mode, run state and angles
	CmdHelp                             // list keywords
	CmdSingleAxis                       // M<id>.<ppp>
	CmdCartesian                        // fixed-width x y z line
)

// Command is a parsed protocol line
type Command struct {
	Kind    CommandKind
	Axis    AxisID          // CmdSingleAxis
	Percent int             // CmdSingleAxis, 0..100
	Target  CartesianTarget // CmdCartesian
	Raw     string
}
