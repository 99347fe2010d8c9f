package core

import "github.com/pkg/errors"

// SimServoDriver is an in-memory ServoDriver used by the host simulator and
// by tests. A written angle is immediately reported back, as a position
// servo with no feedback does.
type SimServoDriver struct {
	channels map[ServoChannel]*simChannel
	writes   int
}

type simChannel struct {
	minPulse uint16
	maxPulse uint16
	travel   int
	angle    int
	pulse    uint16
}

// NewSimServoDriver creates an empty simulated servo bank
func NewSimServoDriver() *SimServoDriver {
	return &SimServoDriver{
		channels: make(map[ServoChannel]*simChannel),
	}
}

// Attach configures a simulated channel
func (d *SimServoDriver) Attach(ch ServoChannel, minPulseUs, maxPulseUs uint16, travel int) error {
	if minPulseUs >= maxPulseUs {
		return errors.Errorf("channel %d: min pulse %dus must be below max pulse %dus", ch, minPulseUs, maxPulseUs)
	}
	d.channels[ch] = &simChannel{
		minPulse: minPulseUs,
		maxPulse: maxPulseUs,
		travel:   travel,
		pulse:    minPulseUs,
	}
	return nil
}

// WriteAngle records the commanded angle
func (d *SimServoDriver) WriteAngle(ch ServoChannel, degrees int) error {
	c, ok := d.channels[ch]
	if !ok {
		return errors.Wrapf(ErrChannelNotAttached, "channel %d", ch)
	}
	c.angle = degrees
	c.pulse = PulseForAngle(degrees, c.travel, c.minPulse, c.maxPulse)
	d.writes++
	return nil
}

// ReadAngle returns the last written angle
func (d *SimServoDriver) ReadAngle(ch ServoChannel) (int, error) {
	c, ok := d.channels[ch]
	if !ok {
		return 0, errors.Wrapf(ErrChannelNotAttached, "channel %d", ch)
	}
	return c.angle, nil
}

// SetAngle forces the reported angle without counting a write, e.g. to model
// a servo that was moved by hand.
func (d *SimServoDriver) SetAngle(ch ServoChannel, degrees int) {
	if c, ok := d.channels[ch]; ok {
		c.angle = degrees
	}
}

// Pulse returns the pulse width last generated for a channel
func (d *SimServoDriver) Pulse(ch ServoChannel) uint16 {
	if c, ok := d.channels[ch]; ok {
		return c.pulse
	}
	return 0
}

// Writes returns the total number of WriteAngle calls that succeeded
func (d *SimServoDriver) Writes() int {
	return d.writes
}
