//go:build rp2040 && !pio

package main

import "servoarm/core"

// newServoBackend returns the hardware PWM servo driver. It needs no
// servicing between writes.
func newServoBackend() (core.ServoDriver, func()) {
	return NewPWMServoDriver(), nil
}
