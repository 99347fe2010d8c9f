package trajectory

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"servoarm/arm"
)

func TestPlanEndpoints(t *testing.T) {
	limits := DefaultLimits()

	for current := 0; current <= 180; current += 15 {
		for target := 0; target <= 180; target += 15 {
			p := NewProfile(limits, 0)
			if err := p.Plan(float64(current), float64(target)); err != nil {
				t.Fatalf("Plan(%d, %d) failed: %v", current, target, err)
			}

			if got := Round(p.Sample(0)); got != current {
				t.Errorf("Plan(%d, %d): expected %d at t=0, got %d", current, target, current, got)
			}
			if got := Round(p.Sample(limits.TotalDuration)); got != target {
				t.Errorf("Plan(%d, %d): expected %d at t=TF, got %d", current, target, target, got)
			}
			if got := p.Sample(limits.TotalDuration + 250); got != float64(target) {
				t.Errorf("Plan(%d, %d): expected clamp to %d after TF, got %f", current, target, target, got)
			}
		}
	}
}

func TestPlanPhaseInvariant(t *testing.T) {
	limits := DefaultLimits()
	p := NewProfile(limits, 0)

	for _, tc := range []struct{ current, target float64 }{
		{0, 180}, {180, 0}, {90, 91}, {12.5, 140.25}, {165, 165},
	} {
		if err := p.Plan(tc.current, tc.target); err != nil {
			t.Fatalf("Plan(%v, %v) failed: %v", tc.current, tc.target, err)
		}
		if !(0 <= p.T1 && p.T1 <= p.T2 && p.T2 <= limits.TotalDuration) {
			t.Errorf("Plan(%v, %v): phase order violated t1=%f t2=%f", tc.current, tc.target, p.T1, p.T2)
		}
	}
}

func TestSampleMonotonic(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		current float64
		target  float64
	}{
		{0, 180},
		{180, 0},
		{90, 45},
		{10, 11},
		{165, 30},
	}

	for _, test := range tests {
		p := NewProfile(limits, 0)
		if err := p.Plan(test.current, test.target); err != nil {
			t.Fatalf("Plan(%v, %v) failed: %v", test.current, test.target, err)
		}

		lo, hi := math.Min(test.current, test.target), math.Max(test.current, test.target)
		prev := p.Sample(0)
		for e := 1.0; e <= limits.TotalDuration; e++ {
			got := p.Sample(e)
			step := (got - prev) * float64(p.Direction)
			if step < -1e-9 {
				t.Fatalf("Plan(%v, %v): moved backwards at t=%v (%f -> %f)", test.current, test.target, e, prev, got)
			}
			if got < lo-1e-9 || got > hi+1e-9 {
				t.Fatalf("Plan(%v, %v): overshoot at t=%v: %f", test.current, test.target, e, got)
			}
			prev = got
		}
	}
}

func TestSampleContinuousAtPhaseBoundaries(t *testing.T) {
	p := NewProfile(DefaultLimits(), 0)
	if err := p.Plan(20, 120); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	for _, boundary := range []float64{p.T1, p.T2} {
		before := p.Sample(boundary - 1e-6)
		after := p.Sample(boundary + 1e-6)
		if math.Abs(before-after) > 1e-3 {
			t.Errorf("Discontinuity at %f ms: %f vs %f", boundary, before, after)
		}
	}
}

func TestPlanZeroDistance(t *testing.T) {
	limits := DefaultLimits()
	p := NewProfile(limits, 0)

	if err := p.Plan(90, 90); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if p.PeakSpeed != 0 {
		t.Errorf("Expected peak speed 0, got %f", p.PeakSpeed)
	}
	if p.T1 != 0 {
		t.Errorf("Expected t1 = 0, got %f", p.T1)
	}
	if p.Feasibility != 230400 {
		t.Errorf("Expected discriminant 230400, got %f", p.Feasibility)
	}
	for e := -10.0; e <= limits.TotalDuration+10; e += 5 {
		if got := p.Sample(e); got != 90 {
			t.Fatalf("Expected 90 at t=%v, got %f", e, got)
		}
	}
}

func TestPlanFullTravelIsTriangular(t *testing.T) {
	p := NewProfile(DefaultLimits(), 0)
	if err := p.Plan(0, 180); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	// 180 degrees is exactly the distance the default limits allow
	if p.Feasibility != 0 {
		t.Errorf("Expected discriminant 0, got %f", p.Feasibility)
	}
	if p.T1 != 750 || p.T2 != 750 {
		t.Errorf("Expected t1 = t2 = 750, got t1=%f t2=%f", p.T1, p.T2)
	}
	if p.PeakSpeed != 240 {
		t.Errorf("Expected peak speed 240, got %f", p.PeakSpeed)
	}
	if got := p.Sample(750); math.Abs(got-90) > 1e-9 {
		t.Errorf("Expected midpoint 90, got %f", got)
	}
}

func TestPlanInfeasible(t *testing.T) {
	limits := Limits{TotalDuration: 1500, Acceleration: 10}
	p := NewProfile(limits, 0)

	err := p.Plan(0, 90)
	if !errors.Is(err, arm.ErrInfeasibleAcceleration) {
		t.Fatalf("Expected ErrInfeasibleAcceleration, got %v", err)
	}

	if p.Feasible() {
		t.Error("Profile should be marked infeasible")
	}
	if p.AngleAtEnd != 90 {
		t.Errorf("Infeasible plan should still be written, end angle %f", p.AngleAtEnd)
	}
	if !(0 <= p.T1 && p.T1 <= p.T2 && p.T2 <= limits.TotalDuration) {
		t.Errorf("Phase order violated for infeasible plan: t1=%f t2=%f", p.T1, p.T2)
	}

	// A later feasible plan clears the condition
	if err := p.Plan(0, 1); err != nil {
		t.Fatalf("Plan(0, 1) failed: %v", err)
	}
	if !p.Feasible() {
		t.Error("Profile should be feasible again")
	}
}

func TestPlanInvalidArguments(t *testing.T) {
	var p *Profile
	if err := p.Plan(0, 10); !errors.Is(err, arm.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for nil profile, got %v", err)
	}

	p = NewProfile(Limits{}, 0)
	if err := p.Plan(0, 10); !errors.Is(err, arm.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for zero limits, got %v", err)
	}
}

func TestRound(t *testing.T) {
	tests := map[float64]int{
		0:      0,
		89.49:  89,
		89.5:   90,
		164.99: 165,
		-0.4:   0,
	}
	for in, want := range tests {
		if got := Round(in); got != want {
			t.Errorf("Round(%v): expected %d, got %d", in, want, got)
		}
	}
}
