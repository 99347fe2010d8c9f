//go:build rp2040

package main

import (
	"machine"

	"github.com/pkg/errors"
	"tinygo.org/x/drivers/servo"

	"servoarm/core"
)

// PWMServoDriver implements core.ServoDriver on the RP2040's hardware PWM
// slices through the tinygo servo driver. Channel n is GPIO n; the two pins
// of a slice share its 50 Hz period.
type PWMServoDriver struct {
	// Servo arrays per slice, configured on first use
	arrays map[uint8]servo.Array
	servos map[core.ServoChannel]*pwmServo
}

type pwmServo struct {
	servo    servo.Servo
	minPulse uint16
	maxPulse uint16
	travel   int
	angle    int
}

// NewPWMServoDriver creates a driver with no channels attached
func NewPWMServoDriver() *PWMServoDriver {
	return &PWMServoDriver{
		arrays: make(map[uint8]servo.Array),
		servos: make(map[core.ServoChannel]*pwmServo),
	}
}

// Attach binds a channel to its PWM slice
func (d *PWMServoDriver) Attach(ch core.ServoChannel, minPulseUs, maxPulseUs uint16, travel int) error {
	if minPulseUs >= maxPulseUs {
		return errors.Errorf("channel %d: min pulse %dus must be below max pulse %dus", ch, minPulseUs, maxPulseUs)
	}

	// RP2040: GPIO pin N maps to slice (N >> 1) & 0x7
	sliceNum := uint8((uint32(ch) >> 1) & 0x7)
	array, ok := d.arrays[sliceNum]
	if !ok {
		var err error
		array, err = servo.NewArray(getPWMPeripheral(sliceNum))
		if err != nil {
			return errors.Wrapf(err, "could not configure PWM%d", sliceNum)
		}
		d.arrays[sliceNum] = array
	}

	s, err := array.Add(machine.Pin(ch))
	if err != nil {
		return errors.Wrapf(err, "could not add servo on GPIO%d", ch)
	}

	d.servos[ch] = &pwmServo{
		servo:    s,
		minPulse: minPulseUs,
		maxPulse: maxPulseUs,
		travel:   travel,
	}
	return nil
}

// WriteAngle sets the pulse width for an angle
func (d *PWMServoDriver) WriteAngle(ch core.ServoChannel, degrees int) error {
	s, ok := d.servos[ch]
	if !ok {
		return errors.Wrapf(core.ErrChannelNotAttached, "channel %d", ch)
	}
	s.angle = degrees
	s.servo.SetMicroseconds(int16(core.PulseForAngle(degrees, s.travel, s.minPulse, s.maxPulse)))
	return nil
}

// ReadAngle returns the last commanded angle
func (d *PWMServoDriver) ReadAngle(ch core.ServoChannel) (int, error) {
	s, ok := d.servos[ch]
	if !ok {
		return 0, errors.Wrapf(core.ErrChannelNotAttached, "channel %d", ch)
	}
	return s.angle, nil
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
// RP2040 has 8 PWM slices: PWM0-PWM7
func getPWMPeripheral(sliceNum uint8) servo.PWM {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		// Should never happen with proper masking
		return machine.PWM0
	}
}
