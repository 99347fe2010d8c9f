//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareUptime reads the full 64-bit RP2040 microsecond timer
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// HardwareClock implements core.Clock on the 1 MHz hardware timer. idle runs
// on every Sleep so output peripherals can be serviced while the loop waits.
type HardwareClock struct {
	idle func()
}

// NewHardwareClock creates the firmware clock
func NewHardwareClock(idle func()) *HardwareClock {
	return &HardwareClock{idle: idle}
}

// Millis returns milliseconds since boot
func (c *HardwareClock) Millis() uint32 {
	return uint32(GetHardwareUptime() / 1000)
}

// Sleep services the idle hook and then yields for d
func (c *HardwareClock) Sleep(d time.Duration) {
	if c.idle != nil {
		c.idle()
	}
	time.Sleep(d)
}
