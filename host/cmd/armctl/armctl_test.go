package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"servoarm/arm"
	"servoarm/arm/config"
	"servoarm/arm/kinematics"
	"servoarm/arm/trajectory"
)

func TestPrintSolution(t *testing.T) {
	cfg := config.DefaultArmConfig()
	solver, err := kinematics.NewSolver(cfg)
	if err != nil {
		t.Fatalf("NewSolver failed: %v", err)
	}

	var out bytes.Buffer
	if err := printSolution(&out, cfg, solver, arm.CartesianTarget{X: 0, Y: 180, Z: 100}); err != nil {
		t.Fatalf("printSolution failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"base", "shoulder", "-> 111", "elbow", "->  40", "reached"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}

	err = printSolution(&out, cfg, solver, arm.CartesianTarget{X: 0, Y: 400, Z: 100})
	if !errors.Is(err, arm.ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable, got %v", err)
	}
}

func TestProfileSeries(t *testing.T) {
	p := trajectory.NewProfile(trajectory.DefaultLimits(), 90)
	if err := p.Plan(90, 180); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	pts := profileSeries(p, 10)
	if len(pts) != 151 {
		t.Fatalf("Expected 151 samples, got %d", len(pts))
	}
	if pts[0].Y != 90 || pts[len(pts)-1].Y != 180 {
		t.Errorf("Expected 90..180, got %f..%f", pts[0].Y, pts[len(pts)-1].Y)
	}

	pts = profileSeries(p, 400)
	if last := pts[len(pts)-1]; last.X != 1500 || last.Y != 180 {
		t.Errorf("Expected the series to end at the target, got %+v", last)
	}
}

func TestSaveProfilePlot(t *testing.T) {
	p := trajectory.NewProfile(trajectory.DefaultLimits(), 0)
	if err := p.Plan(0, 120); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "profile.png")
	if err := saveProfilePlot(p, out); err != nil {
		t.Fatalf("saveProfilePlot failed: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("Expected PNG written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected non-empty PNG")
	}
}

func TestAppSolve(t *testing.T) {
	if err := newApp().Run(context.Background(), []string{"armctl", "solve", "0", "180", "100"}); err != nil {
		t.Errorf("solve failed: %v", err)
	}
	if err := newApp().Run(context.Background(), []string{"armctl", "solve", "0", "180"}); err == nil {
		t.Error("Expected error for missing coordinate")
	}
}

func TestValidateLine(t *testing.T) {
	if err := validateLine("0000,180,100"); err != nil {
		t.Errorf("Expected valid line, got %v", err)
	}
	if err := validateLine(strings.Repeat("x", 40)); err == nil {
		t.Error("Expected long line to be rejected")
	}
}
