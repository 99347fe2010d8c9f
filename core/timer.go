package core

import "time"

// Clock is the monotonic millisecond time source sampled by the motion loop.
// Millisecond values wrap at 2^32; callers compute elapsed time with
// unsigned subtraction so a wrap between start and now is harmless.
type Clock interface {
	// Millis returns milliseconds since an arbitrary fixed origin
	Millis() uint32

	// Sleep yields the control loop for roughly d
	Sleep(d time.Duration)
}

// SystemClock reads the process monotonic clock
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock whose origin is now
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Millis returns milliseconds since the clock was created
func (c *SystemClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// Sleep blocks the calling goroutine
func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// ManualClock only moves when told to (for testing and replay)
type ManualClock struct {
	ticks uint32
}

// NewManualClock creates a manual clock starting at ms
func NewManualClock(ms uint32) *ManualClock {
	return &ManualClock{ticks: ms}
}

// Millis returns the current manual time
func (c *ManualClock) Millis() uint32 {
	return c.ticks
}

// SetTime sets the current time
func (c *ManualClock) SetTime(ms uint32) {
	c.ticks = ms
}

// Advance moves the clock forward by ms
func (c *ManualClock) Advance(ms uint32) {
	c.ticks += ms
}

// Sleep advances the clock by d, and by at least one millisecond so a
// polling loop driven by this clock always makes progress.
func (c *ManualClock) Sleep(d time.Duration) {
	ms := uint32(d / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	c.ticks += ms
}
