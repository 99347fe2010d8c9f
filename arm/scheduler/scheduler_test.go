package scheduler

import (
	"context"
	"log/slog"
	"testing"

	"github.com/pkg/errors"

	"servoarm/arm"
	"servoarm/arm/config"
	"servoarm/core"
)

type fixture struct {
	cfg    *arm.ArmConfig
	driver *core.SimServoDriver
	clock  *core.ManualClock
	bank   *Bank
	sched  *Scheduler
}

func newFixture(t *testing.T, cfg *arm.ArmConfig) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultArmConfig()
	}

	f := &fixture{
		cfg:    cfg,
		driver: core.NewSimServoDriver(),
		clock:  core.NewManualClock(1000),
	}

	var err error
	f.bank, err = NewBank(f.driver, cfg)
	if err != nil {
		t.Fatalf("NewBank failed: %v", err)
	}
	if err := f.bank.WriteAll(cfg.InitialAngles()); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	f.sched, err = New(cfg, f.bank, f.clock, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func (f *fixture) angle(t *testing.T, ch core.ServoChannel) int {
	t.Helper()
	deg, err := f.driver.ReadAngle(ch)
	if err != nil {
		t.Fatalf("ReadAngle(%d) failed: %v", ch, err)
	}
	return deg
}

func TestTickSingleAxis(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.sched.Plan(arm.Axis1, 180); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	f.sched.Start(arm.RunSingleAxis, arm.Axis1)
	writesBefore := f.driver.Writes()

	f.clock.Advance(750)
	n, err := f.sched.Tick()
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 axis written, got %d", n)
	}
	if got := f.angle(t, 0); got != 135 {
		t.Errorf("Expected axis 1 at 135 halfway, got %d", got)
	}
	if f.driver.Writes() != writesBefore+1 {
		t.Errorf("Expected exactly one servo write, got %d", f.driver.Writes()-writesBefore)
	}
	if got := f.angle(t, 3); got != 165 {
		t.Errorf("Elbow should not move, got %d", got)
	}

	f.clock.Advance(751)
	if _, err := f.sched.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if got := f.angle(t, 0); got != 180 {
		t.Errorf("Expected axis 1 at 180 after TF, got %d", got)
	}
	if f.sched.State() != arm.RunStopped {
		t.Errorf("Expected move to complete, state %s", f.sched.State())
	}
}

func TestTickMirroredShoulder(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.sched.Plan(arm.Axis2, 60); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	f.sched.Start(arm.RunSingleAxis, arm.Axis2)

	for elapsed := 0; elapsed <= 1600; elapsed += 100 {
		if _, err := f.sched.Tick(); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		a, b := f.angle(t, 1), f.angle(t, 2)
		if a != b {
			t.Fatalf("Mirrored servos diverged at %d ms: %d vs %d", elapsed, a, b)
		}
		f.clock.Advance(100)
	}
	if got := f.angle(t, 1); got != 60 {
		t.Errorf("Expected shoulder at 60, got %d", got)
	}
}

func TestFeasibilityGateBlocksAllWrites(t *testing.T) {
	cfg := config.DefaultArmConfig()
	cfg.Motion.Acceleration = 10
	f := newFixture(t, cfg)

	targets := cfg.InitialAngles()
	targets[arm.Axis1.Index()] = 180

	err := f.sched.PlanAll(targets)
	if !errors.Is(err, arm.ErrInfeasibleAcceleration) {
		t.Fatalf("Expected ErrInfeasibleAcceleration, got %v", err)
	}
	if !f.sched.Profile(arm.Axis3).Feasible() {
		t.Fatal("Zero-distance axis should be feasible on its own")
	}
	if f.sched.Feasible() {
		t.Fatal("Gate should fail")
	}

	f.sched.Start(arm.RunAllAxes, 0)
	writesBefore := f.driver.Writes()
	for i := 0; i < 20; i++ {
		f.clock.Advance(100)
		n, err := f.sched.Tick()
		if err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		if n != 0 {
			t.Fatalf("Expected no axes written, got %d", n)
		}
	}
	if f.driver.Writes() != writesBefore {
		t.Errorf("Expected no servo writes, got %d", f.driver.Writes()-writesBefore)
	}
}

func TestStopThenReplanFromReportedAngle(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.sched.Plan(arm.Axis1, 180); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	f.sched.Start(arm.RunSingleAxis, arm.Axis1)
	f.clock.Advance(750)
	if _, err := f.sched.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	f.sched.Stop()
	f.clock.Advance(100)
	if n, _ := f.sched.Tick(); n != 0 {
		t.Errorf("Stopped scheduler wrote %d axes", n)
	}

	if err := f.sched.Plan(arm.Axis1, 90); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if got := f.sched.Profile(arm.Axis1).AngleAtStart; got != 135 {
		t.Errorf("Expected replan from reported 135, got %f", got)
	}
}

func TestResetRestoresInitialPose(t *testing.T) {
	f := newFixture(t, nil)

	// Move the elbow away first
	if err := f.sched.Plan(arm.Axis3, 40); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	f.sched.Start(arm.RunSingleAxis, arm.Axis3)
	if err := f.sched.RunToCompletion(context.Background()); err != nil {
		t.Fatalf("RunToCompletion failed: %v", err)
	}
	if got := f.angle(t, 3); got != 40 {
		t.Fatalf("Expected elbow at 40, got %d", got)
	}

	if err := f.sched.Reset(context.Background()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	reported, err := f.sched.ReportedAngles()
	if err != nil {
		t.Fatalf("ReportedAngles failed: %v", err)
	}
	if reported != f.cfg.InitialAngles() {
		t.Errorf("Expected %v after reset, got %v", f.cfg.InitialAngles(), reported)
	}
	if got := f.angle(t, 3); got != 165 {
		t.Errorf("Expected elbow at 165, got %d", got)
	}
	if f.sched.State() != arm.RunStopped {
		t.Errorf("Expected stopped after reset, got %s", f.sched.State())
	}
}

func TestRunToCompletionInfeasible(t *testing.T) {
	cfg := config.DefaultArmConfig()
	cfg.Motion.Acceleration = 10
	f := newFixture(t, cfg)

	_ = f.sched.Plan(arm.Axis1, 0)
	f.sched.Start(arm.RunAllAxes, 0)

	err := f.sched.RunToCompletion(context.Background())
	if !errors.Is(err, arm.ErrInfeasibleAcceleration) {
		t.Errorf("Expected ErrInfeasibleAcceleration, got %v", err)
	}
	if f.sched.State() != arm.RunStopped {
		t.Errorf("Expected stopped, got %s", f.sched.State())
	}
}

func TestRunToCompletionCancelled(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.sched.Plan(arm.Axis1, 0); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	f.sched.Start(arm.RunSingleAxis, arm.Axis1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.sched.RunToCompletion(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPlanInvalidAxis(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.sched.Plan(arm.AxisID(9), 10); !errors.Is(err, arm.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if f.sched.Profile(arm.AxisID(0)) != nil {
		t.Error("Expected nil profile for axis 0")
	}
}

func TestNewBankRejectsNilDriver(t *testing.T) {
	if _, err := NewBank(nil, config.DefaultArmConfig()); !errors.Is(err, arm.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}
