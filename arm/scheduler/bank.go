package scheduler

import (
	"github.com/pkg/errors"

	"servoarm/arm"
	"servoarm/arm/trajectory"
	"servoarm/core"
)

// Bank maps axes onto servo channels. An axis with several channels (the
// mirrored shoulder) writes the same angle to all of them and reports the
// angle of its first channel.
type Bank struct {
	driver core.ServoDriver
	axes   [arm.NumAxes]arm.AxisConfig
}

// NewBank attaches every configured channel on driver
func NewBank(driver core.ServoDriver, cfg *arm.ArmConfig) (*Bank, error) {
	if driver == nil {
		return nil, errors.Wrap(arm.ErrInvalidArgument, "nil servo driver")
	}

	b := &Bank{driver: driver, axes: cfg.Axes}
	for _, id := range arm.AllAxes {
		axis := cfg.Axis(id)
		if len(axis.Channels) == 0 {
			return nil, errors.Wrapf(arm.ErrInvalidArgument, "%s has no servo channel", id)
		}
		for _, ch := range axis.Channels {
			err := driver.Attach(core.ServoChannel(ch), axis.MinPulseUs, axis.MaxPulseUs, axis.Range)
			if err != nil {
				return nil, errors.Wrapf(err, "could not attach %s channel %d", id, ch)
			}
		}
	}

	return b, nil
}

// Write rounds angle to whole degrees and commands every servo of the axis
func (b *Bank) Write(axis arm.AxisID, angle float64) error {
	deg := trajectory.Round(angle)
	for _, ch := range b.axes[axis.Index()].Channels {
		if err := b.driver.WriteAngle(core.ServoChannel(ch), deg); err != nil {
			return errors.Wrapf(err, "could not write %s", axis)
		}
	}
	return nil
}

// Read returns the angle reported by the axis's first servo
func (b *Bank) Read(axis arm.AxisID) (float64, error) {
	ch := b.axes[axis.Index()].Channels[0]
	deg, err := b.driver.ReadAngle(core.ServoChannel(ch))
	if err != nil {
		return 0, errors.Wrapf(err, "could not read %s", axis)
	}
	return float64(deg), nil
}

// ReadAll returns the reported angle of every axis
func (b *Bank) ReadAll() (arm.JointAngles, error) {
	var j arm.JointAngles
	for _, id := range arm.AllAxes {
		v, err := b.Read(id)
		if err != nil {
			return arm.JointAngles{}, err
		}
		j[id.Index()] = v
	}
	return j, nil
}

// WriteAll commands every axis to the given angles
func (b *Bank) WriteAll(angles arm.JointAngles) error {
	for _, id := range arm.AllAxes {
		if err := b.Write(id, angles.Get(id)); err != nil {
			return err
		}
	}
	return nil
}
