// Package trajectory plans and samples fixed-duration trapezoidal velocity
// profiles for a single joint.
//
// Every move takes exactly TotalDuration milliseconds. The acceleration
// magnitude is fixed, so the only free parameter is the cruise (peak) speed,
// which follows in closed form from the distance:
//
//	peak = (TF*ACC - sqrt((TF*ACC)^2 - 4*distance*ACC)) / 2
//
// with TF in seconds. A negative discriminant means the distance cannot be
// covered in TF at ACC.
package trajectory

import (
	"math"

	"github.com/pkg/errors"

	"servoarm/arm"
)

// Limits are the fixed constants shared by every profile
type Limits struct {
	TotalDuration float64 // TF, milliseconds
	Acceleration  float64 // ACC, degrees per second squared
}

// DefaultLimits returns TF = 1500 ms and ACC = 320 deg/s^2
func DefaultLimits() Limits {
	return Limits{TotalDuration: 1500, Acceleration: 320}
}

// LimitsFromConfig extracts the profile constants from the arm config
func LimitsFromConfig(cfg arm.MotionConfig) Limits {
	return Limits{TotalDuration: cfg.TotalDurationMs, Acceleration: cfg.Acceleration}
}

func (l Limits) valid() bool {
	return l.TotalDuration > 0 && l.Acceleration > 0
}

// speedBudget is TF*ACC/1000, the speed reached by accelerating for all of TF
func (l Limits) speedBudget() float64 {
	return l.TotalDuration * l.Acceleration / 1000.0
}

// Discriminant returns the feasibility discriminant for covering distance
// degrees under l. The move is feasible when the result is non-negative.
func (l Limits) Discriminant(distance float64) float64 {
	b := l.speedBudget()
	return b*b - 4*distance*l.Acceleration
}

// Direction of travel of a planned move
type Direction int8

const (
	Decreasing Direction = -1
	Hold       Direction = 0
	Increasing Direction = 1
)

// Profile is the planned motion of one axis. It is mutated only by Plan and
// read only by Sample.
type Profile struct {
	Limits    Limits
	Direction Direction

	// Phase boundaries in milliseconds, 0 <= T1 <= T2 <= TotalDuration
	T1 float64
	T2 float64

	AngleAtStart float64
	AngleAtT1    float64
	AngleAtT2    float64
	AngleAtEnd   float64

	PeakSpeed   float64 // deg/s
	Feasibility float64 // discriminant, negative when infeasible
}

// NewProfile creates a profile holding still at angle
func NewProfile(limits Limits, angle float64) *Profile {
	p := &Profile{Limits: limits}
	p.hold(angle)
	return p
}

func (p *Profile) hold(angle float64) {
	b := p.Limits.speedBudget()
	p.Direction = Hold
	p.T1 = 0
	p.T2 = p.Limits.TotalDuration
	p.AngleAtStart = angle
	p.AngleAtT1 = angle
	p.AngleAtT2 = angle
	p.AngleAtEnd = angle
	p.PeakSpeed = 0
	p.Feasibility = b * b
}

// Feasible reports whether the last plan had a non-negative discriminant
func (p *Profile) Feasible() bool {
	return p.Feasibility >= 0
}

// Plan computes the profile from current to target. An infeasible move is
// still written, with Feasibility negative and the phases collapsed to the
// midpoint, and ErrInfeasibleAcceleration is returned.
func (p *Profile) Plan(current, target float64) error {
	if p == nil {
		return errors.Wrap(arm.ErrInvalidArgument, "nil profile")
	}
	if !p.Limits.valid() {
		return errors.Wrapf(arm.ErrInvalidArgument, "profile limits %+v", p.Limits)
	}

	acc := p.Limits.Acceleration
	tf := p.Limits.TotalDuration

	delta := target - current
	distance := math.Abs(delta)
	dir := Hold
	switch {
	case delta > 0:
		dir = Increasing
	case delta < 0:
		dir = Decreasing
	}

	disc := p.Limits.Discriminant(distance)

	p.Direction = dir
	p.AngleAtStart = current
	p.AngleAtEnd = target
	p.Feasibility = disc

	if disc < 0 {
		p.PeakSpeed = p.Limits.speedBudget() / 2
		p.T1 = tf / 2
		p.T2 = tf / 2
		p.AngleAtT1 = current
		p.AngleAtT2 = current
		return errors.Wrapf(arm.ErrInfeasibleAcceleration,
			"%.1f deg in %.0f ms at %.0f deg/s^2 (discriminant %.1f)", distance, tf, acc, disc)
	}

	peak := 0.5 * (p.Limits.speedBudget() - math.Sqrt(disc))
	t1 := 1000.0 * peak / acc
	t2 := tf - t1
	if t1 > t2 {
		// only reachable through rounding when disc is ~0
		t1 = tf / 2
		t2 = t1
	}

	s := float64(dir)
	p.PeakSpeed = peak
	p.T1 = t1
	p.T2 = t2
	p.AngleAtT1 = current + s*acc/2*sq(t1/1000.0)
	p.AngleAtT2 = p.AngleAtT1 + s*peak*(t2-t1)/1000.0
	return nil
}

// Sample returns the planned angle elapsed milliseconds after the move began
func (p *Profile) Sample(elapsed float64) float64 {
	s := float64(p.Direction)
	acc := p.Limits.Acceleration
	tf := p.Limits.TotalDuration

	switch {
	case elapsed <= 0:
		return p.AngleAtStart
	case elapsed <= p.T1:
		return p.AngleAtStart + s*acc/2*sq(elapsed/1000.0)
	case elapsed <= p.T2:
		return p.AngleAtT1 + (p.AngleAtT2-p.AngleAtT1)*(elapsed-p.T1)/(p.T2-p.T1)
	case elapsed <= tf:
		return p.AngleAtEnd - s*acc/2*sq((tf-elapsed)/1000.0)
	}
	return p.AngleAtEnd
}

// Round converts a sampled angle to the integer degree written to a servo
func Round(angle float64) int {
	return int(math.Round(angle))
}

func sq(x float64) float64 {
	return x * x
}
