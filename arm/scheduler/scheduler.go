// Package scheduler plays planned joint profiles back in real time.
//
// There is a single active move at a time. Each Tick samples the elapsed
// time since the move started and writes the profile angle of every running
// axis, unless any of the five profiles is infeasible, in which case nothing
// at all is written for that tick. Ordinary moves are ticked by the owner's
// control loop; RunToCompletion ticks the same move until it finishes for
// callers that need to wait (reset).
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"servoarm/arm"
	"servoarm/arm/trajectory"
	"servoarm/core"
)

// Scheduler owns the per-axis profiles and the active move
type Scheduler struct {
	limits   trajectory.Limits
	bank     *Bank
	clock    core.Clock
	logger   *slog.Logger
	interval time.Duration
	initial  arm.JointAngles

	profiles [arm.NumAxes]*trajectory.Profile
	state    arm.RunState
	axis     arm.AxisID
	startMs  uint32
}

// New creates a stopped scheduler whose profiles hold still at the initial pose
func New(cfg *arm.ArmConfig, bank *Bank, clock core.Clock, logger *slog.Logger) (*Scheduler, error) {
	if bank == nil || clock == nil {
		return nil, errors.Wrap(arm.ErrInvalidArgument, "scheduler needs a servo bank and a clock")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		limits:   trajectory.LimitsFromConfig(cfg.Motion),
		bank:     bank,
		clock:    clock,
		logger:   logger,
		interval: cfg.Motion.PollInterval(),
		initial:  cfg.InitialAngles(),
		state:    arm.RunStopped,
	}
	for i := range s.profiles {
		s.profiles[i] = trajectory.NewProfile(s.limits, s.initial[i])
	}

	return s, nil
}

// Profile returns the profile of axis a
func (s *Scheduler) Profile(a arm.AxisID) *trajectory.Profile {
	if !a.Valid() {
		return nil
	}
	return s.profiles[a.Index()]
}

// Limits returns the profile constants
func (s *Scheduler) Limits() trajectory.Limits {
	return s.limits
}

// State returns the current run state
func (s *Scheduler) State() arm.RunState {
	return s.state
}

// ReportedAngles returns the angles the servos report
func (s *Scheduler) ReportedAngles() (arm.JointAngles, error) {
	return s.bank.ReadAll()
}

// Plan plans axis a from its reported angle to target. An infeasible plan
// is stored and its error returned.
func (s *Scheduler) Plan(a arm.AxisID, target float64) error {
	if !a.Valid() {
		return errors.Wrapf(arm.ErrInvalidArgument, "plan %s", a)
	}

	current, err := s.bank.Read(a)
	if err != nil {
		return err
	}

	err = s.profiles[a.Index()].Plan(current, target)
	s.logger.Debug("planned axis", "axis", a, "from", current, "to", target, "error", err)
	return err
}

// PlanAll plans every axis. All five profiles are written even when one of
// them is infeasible, so the gate sees a consistent pose; the first
// infeasibility error is returned.
func (s *Scheduler) PlanAll(targets arm.JointAngles) error {
	var first error
	for _, id := range arm.AllAxes {
		err := s.Plan(id, targets.Get(id))
		if err != nil && !errors.Is(err, arm.ErrInfeasibleAcceleration) {
			return err
		}
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Start begins playback of the planned profiles. a selects the axis for
// RunSingleAxis and is ignored otherwise.
func (s *Scheduler) Start(state arm.RunState, a arm.AxisID) {
	s.state = state
	s.axis = a
	s.startMs = s.clock.Millis()
}

// Stop abandons the active move. Profiles keep their parameters.
func (s *Scheduler) Stop() {
	s.state = arm.RunStopped
}

// Feasible reports whether every profile has a non-negative discriminant
func (s *Scheduler) Feasible() bool {
	for _, p := range s.profiles {
		if !p.Feasible() {
			return false
		}
	}
	return true
}

// Tick samples the active move once and returns the number of axes written
func (s *Scheduler) Tick() (int, error) {
	if s.state == arm.RunStopped {
		return 0, nil
	}
	if !s.Feasible() {
		return 0, nil
	}

	elapsed := float64(s.clock.Millis() - s.startMs)

	var axes []arm.AxisID
	switch s.state {
	case arm.RunSingleAxis:
		if !s.axis.Valid() {
			s.state = arm.RunStopped
			return 0, errors.Wrapf(arm.ErrInvalidArgument, "single-axis run on %s", s.axis)
		}
		axes = []arm.AxisID{s.axis}
	case arm.RunAllAxes:
		axes = arm.AllAxes[:]
	}

	for _, id := range axes {
		angle := s.profiles[id.Index()].Sample(elapsed)
		if err := s.bank.Write(id, angle); err != nil {
			return 0, err
		}
	}

	if elapsed > s.limits.TotalDuration {
		s.logger.Debug("move complete", "state", s.state, "elapsed_ms", elapsed)
		s.state = arm.RunStopped
	}

	return len(axes), nil
}

// RunToCompletion ticks the active move until it finishes, sleeping the
// poll interval between ticks. A move blocked by the feasibility gate
// can never finish and is reported as ErrInfeasibleAcceleration.
func (s *Scheduler) RunToCompletion(ctx context.Context) error {
	for s.state != arm.RunStopped {
		if err := ctx.Err(); err != nil {
			s.Stop()
			return err
		}
		if !s.Feasible() {
			s.Stop()
			return errors.Wrap(arm.ErrInfeasibleAcceleration, "move blocked by feasibility gate")
		}
		if _, err := s.Tick(); err != nil {
			s.Stop()
			return err
		}
		if s.state != arm.RunStopped {
			s.clock.Sleep(s.interval)
		}
	}
	return nil
}

// Reset plans every axis back to its initial angle and blocks until the
// move completes
func (s *Scheduler) Reset(ctx context.Context) error {
	if err := s.PlanAll(s.initial); err != nil {
		return errors.Wrap(err, "could not plan reset")
	}

	s.logger.Info("resetting to initial pose", "angles", s.initial)
	s.Start(arm.RunAllAxes, 0)
	return s.RunToCompletion(ctx)
}
