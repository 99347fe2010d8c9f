package pio

import "servoarm/core"

// Cycles the servo program spends outside its counting loops
const (
	highOverhead = 2
	lowOverhead  = 5
)

// FrameWord encodes one 20 ms servo frame for a pulse width in microseconds
// as the servo program's command word
func FrameWord(pulseUs uint16) uint32 {
	if pulseUs < highOverhead {
		pulseUs = highOverhead
	}
	if pulseUs > core.ServoFramePeriodUs-lowOverhead {
		pulseUs = core.ServoFramePeriodUs - lowOverhead
	}
	high := uint32(pulseUs - highOverhead)
	low := uint32(core.ServoFramePeriodUs - lowOverhead - int(pulseUs))
	return high | low<<16
}

// FramePeriod returns the frame length in microseconds that word produces
func FramePeriod(word uint32) int {
	high := int(word & 0xFFFF)
	low := int(word >> 16)
	return high + highOverhead + low + lowOverhead
}
