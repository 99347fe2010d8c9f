//go:build rp2040

package pio

// PIO servo backend using tinygo-org/pio package
// Each servo gets its own state machine generating a hardware-timed 50 Hz
// pulse train, so pulse widths carry no interrupt or PWM-slice jitter and
// any GPIO can drive a servo.

import (
	"machine"

	"github.com/pkg/errors"
	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"servoarm/core"
)

// PIO program for servo pulse generation, one instruction per microsecond
// Command word format:
//
//	Bits 0-15:  high loop count (pulse width - 2)
//	Bits 16-31: low loop count (frame - pulse width - 5)
//
// Program flow:
//  1. Pull one 32-bit frame from the FIFO (stall low if none)
//  2. Split it into X (high) and Y (low) counters
//  3. Drive the pin high for X+2 cycles, then low for Y+5 cycles
func buildServoProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16 (high count)
		asm.Out(rp2pio.OutDestY, 16).Encode(),   // 2: out y, 16 (low count)
		asm.Set(rp2pio.SetDestPins, 1).Encode(), // 3: set pins, 1
		// high_loop:
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 4: jmp x--, 4
		asm.Set(rp2pio.SetDestPins, 0).Encode(),  // 5: set pins, 0
		// low_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		// .wrap
	}
}

const (
	servoPIOOrigin = 0 // Jumps are absolute, load at offset 0
	servoClkDiv    = 125
)

type pioServo struct {
	sm       rp2pio.StateMachine
	pin      machine.Pin
	minPulse uint16
	maxPulse uint16
	travel   int
	angle    int
	word     uint32
}

// ServoDriver implements core.ServoDriver with one PIO state machine per
// channel. Channel n is GPIO n.
type ServoDriver struct {
	servos  map[core.ServoChannel]*pioServo
	offsets [2]int16
	// PIO allocation tracking: 2 PIO blocks with 4 state machines each
	allocations [2][4]bool
}

// NewServoDriver creates a driver with no channels attached
func NewServoDriver() *ServoDriver {
	return &ServoDriver{
		servos:  make(map[core.ServoChannel]*pioServo),
		offsets: [2]int16{-1, -1},
	}
}

func pioBlock(pioNum uint8) *rp2pio.PIO {
	if pioNum == 0 {
		return rp2pio.PIO0
	}
	return rp2pio.PIO1
}

// allocate claims the next free state machine
func (d *ServoDriver) allocate() (uint8, uint8, bool) {
	for pioNum := uint8(0); pioNum < 2; pioNum++ {
		for smNum := uint8(0); smNum < 4; smNum++ {
			if !d.allocations[pioNum][smNum] {
				d.allocations[pioNum][smNum] = true
				return pioNum, smNum, true
			}
		}
	}
	return 0, 0, false
}

// program loads the servo program into a PIO block once
func (d *ServoDriver) program(pioNum uint8) (uint8, error) {
	if d.offsets[pioNum] >= 0 {
		return uint8(d.offsets[pioNum]), nil
	}
	offset, err := pioBlock(pioNum).AddProgram(buildServoProgram(), servoPIOOrigin)
	if err != nil {
		return 0, err
	}
	d.offsets[pioNum] = int16(offset)
	return offset, nil
}

// Attach claims a state machine and starts it on the channel's pin
func (d *ServoDriver) Attach(ch core.ServoChannel, minPulseUs, maxPulseUs uint16, travel int) error {
	if minPulseUs >= maxPulseUs {
		return errors.Errorf("channel %d: min pulse %dus must be below max pulse %dus", ch, minPulseUs, maxPulseUs)
	}
	if _, ok := d.servos[ch]; ok {
		return errors.Errorf("channel %d already attached", ch)
	}

	pioNum, smNum, ok := d.allocate()
	if !ok {
		return errors.New("no free PIO state machine")
	}
	offset, err := d.program(pioNum)
	if err != nil {
		return errors.Wrapf(err, "could not load servo program into PIO%d", pioNum)
	}

	block := pioBlock(pioNum)
	s := &pioServo{
		sm:       block.StateMachine(smNum),
		pin:      machine.Pin(ch),
		minPulse: minPulseUs,
		maxPulse: maxPulseUs,
		travel:   travel,
	}
	s.sm.TryClaim()
	s.pin.Configure(machine.PinConfig{Mode: block.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(s.pin, 1)
	// shift right, explicit pull, 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(buildServoProgram()))-1, offset)
	// 125 MHz / 125 = 1 cycle per microsecond
	cfg.SetClkDivIntFrac(servoClkDiv, 0)

	s.sm.Init(offset, cfg)
	s.sm.SetPindirsConsecutive(s.pin, 1, true)
	s.sm.SetPinsConsecutive(s.pin, 1, false)
	s.sm.SetEnabled(true)

	d.servos[ch] = s
	return nil
}

// WriteAngle commands an angle and queues its frame
func (d *ServoDriver) WriteAngle(ch core.ServoChannel, degrees int) error {
	s, ok := d.servos[ch]
	if !ok {
		return errors.Wrapf(core.ErrChannelNotAttached, "channel %d", ch)
	}
	s.angle = degrees
	s.word = FrameWord(core.PulseForAngle(degrees, s.travel, s.minPulse, s.maxPulse))
	s.refill()
	return nil
}

// ReadAngle returns the last commanded angle
func (d *ServoDriver) ReadAngle(ch core.ServoChannel) (int, error) {
	s, ok := d.servos[ch]
	if !ok {
		return 0, errors.Wrapf(core.ErrChannelNotAttached, "channel %d", ch)
	}
	return s.angle, nil
}

// Refresh tops up every FIFO with the current frame. It must run at least
// every few frames or the outputs stall low.
func (d *ServoDriver) Refresh() {
	for _, s := range d.servos {
		s.refill()
	}
}

func (s *pioServo) refill() {
	if s.word == 0 {
		return
	}
	for !s.sm.IsTxFIFOFull() {
		s.sm.TxPut(s.word)
	}
}
