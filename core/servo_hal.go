package core

import "github.com/pkg/errors"

// ServoChannel identifies one hobby-servo output
type ServoChannel uint8

// Standard hobby servo frame
const (
	ServoFramePeriodUs = 20000
	DefaultMinPulseUs  = 500
	DefaultMaxPulseUs  = 2500
)

// ServoDriver is the abstract actuator interface the motion core writes to.
// Platform-specific implementations handle the actual pulse generation.
type ServoDriver interface {
	// Attach configures a channel with its pulse width range in microseconds.
	// travel is the angle, in degrees, reached at maxPulseUs.
	Attach(ch ServoChannel, minPulseUs, maxPulseUs uint16, travel int) error

	// WriteAngle commands an integer angle in degrees
	WriteAngle(ch ServoChannel, degrees int) error

	// ReadAngle returns the last angle reported for the channel
	ReadAngle(ch ServoChannel) (int, error)
}

// ErrChannelNotAttached is returned when a channel is used before Attach
var ErrChannelNotAttached = errors.New("servo channel not attached")

// PulseForAngle maps an angle in [0, travel] linearly onto [minUs, maxUs].
// Angles outside the travel are clamped.
func PulseForAngle(degrees, travel int, minUs, maxUs uint16) uint16 {
	if travel <= 0 {
		return minUs
	}
	if degrees < 0 {
		degrees = 0
	}
	if degrees > travel {
		degrees = travel
	}
	span := int(maxUs) - int(minUs)
	return uint16(int(minUs) + span*degrees/travel)
}
