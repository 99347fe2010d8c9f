//go:build rp2040 && pio

package main

import (
	"servoarm/core"
	"servoarm/targets/pio"
)

// newServoBackend returns the PIO servo driver and the hook that keeps its
// frame FIFOs topped up
func newServoBackend() (core.ServoDriver, func()) {
	d := pio.NewServoDriver()
	return d, d.Refresh
}
