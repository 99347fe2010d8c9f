package arm

import "time"

// AxisConfig represents configuration for a single joint and its servos
type AxisConfig struct {
	Name         string  `json:"name"`
	Channels     []uint8 `json:"channels"`      // Servo outputs; mirrored servos share an axis
	Range        int     `json:"range"`         // Travel in degrees, [0, Range]
	InitialAngle int     `json:"initial_angle"` // Reset pose
	MinPulseUs   uint16  `json:"min_pulse_us"`
	MaxPulseUs   uint16  `json:"max_pulse_us"`
	GearRatio    float64 `json:"gear_ratio"`  // Servo degrees per joint degree, signed
	ZeroOffset   float64 `json:"zero_offset"` // Servo angle at the joint's kinematic zero
	Reversed     bool    `json:"reversed"`    // Percent commands map 0% to Range
}

// Limits returns the joint travel limits
func (a AxisConfig) Limits() JointLimits {
	return JointLimits{Range: a.Range}
}

// MotionConfig holds the fixed trajectory constants
type MotionConfig struct {
	TotalDurationMs float64 `json:"total_duration_ms"` // TF
	Acceleration    float64 `json:"acceleration"`      // ACC, deg/s^2
	PollIntervalUs  int     `json:"poll_interval_us"`  // Control loop sleep per iteration
}

// PollInterval returns the control loop sleep as a duration
func (m MotionConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalUs) * time.Microsecond
}

// Geometry holds the linkage dimensions in millimeters
type Geometry struct {
	ShoulderHeight float64 `json:"shoulder_height"`  // Base plane to shoulder axis
	LowerArm       float64 `json:"lower_arm"`        // Shoulder axis to elbow axis
	UpperArm       float64 `json:"upper_arm"`        // Elbow axis to wrist pivot along the actuator axis
	UpperArmOffset float64 `json:"upper_arm_offset"` // Wrist pivot offset perpendicular to the actuator axis
	WristLength    float64 `json:"wrist_length"`     // Wrist pivot to tool point
}

// SerialConfig holds the transport settings used by the host tools
type SerialConfig struct {
	Device        string `json:"device"`
	Baud          int    `json:"baud"`
	ReadTimeoutMs int    `json:"read_timeout_ms"`
}

// ArmConfig represents the complete arm configuration
type ArmConfig struct {
	Motion   MotionConfig        `json:"motion"`
	Axes     [NumAxes]AxisConfig `json:"axes"`
	Geometry Geometry            `json:"geometry"`
	Serial   SerialConfig        `json:"serial"`

	// Tool orientation used for cartesian lines, which carry position only
	DefaultYaw   float64 `json:"default_yaw"`
	DefaultPitch float64 `json:"default_pitch"`
}

// Axis returns the configuration of axis a
func (c *ArmConfig) Axis(a AxisID) AxisConfig {
	return c.Axes[a.Index()]
}

// InitialAngles returns the reset pose
func (c *ArmConfig) InitialAngles() JointAngles {
	var j JointAngles
	for i := range c.Axes {
		j[i] = float64(c.Axes[i].InitialAngle)
	}
	return j
}
