package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"servoarm/arm"
)

// Solver implements closed-form kinematics for the five joint servo arm:
//
//	axis1  base bearing, measured from +Y toward +X
//	axis2  shoulder elevation of the lower arm (two mirrored servos)
//	axis3  elbow, upper arm actuator axis relative to the lower arm
//	axis4  wrist pitch, relative to the upper arm link line
//	axis5  wrist deflection out of the arm plane
//
// The upper arm's wrist pivot sits UpperArmOffset off its actuator axis, so the
// physical link line is rotated by kappa = atan2(UpperArmOffset, UpperArm)
// from the angle the elbow servo reports.
type Solver struct {
	geometry arm.Geometry
	joints   [arm.NumAxes]jointEncoding

	linkLength float64 // elbow axis to wrist pivot
	kappa      float64 // actuator axis to link line
}

// NewSolver creates a solver for the configured linkage
func NewSolver(cfg *arm.ArmConfig) (*Solver, error) {
	g := cfg.Geometry
	if g.LowerArm <= 0 || g.UpperArm <= 0 {
		return nil, errors.Wrapf(arm.ErrInvalidArgument, "arm link lengths %v and %v", g.LowerArm, g.UpperArm)
	}

	s := &Solver{
		geometry:   g,
		linkLength: math.Hypot(g.UpperArm, g.UpperArmOffset),
		kappa:      math.Atan2(g.UpperArmOffset, g.UpperArm),
	}
	for _, id := range arm.AllAxes {
		axis := cfg.Axis(id)
		if axis.GearRatio == 0 {
			return nil, errors.Wrapf(arm.ErrInvalidArgument, "%s: zero gear ratio", id)
		}
		s.joints[id.Index()] = jointEncoding{
			zero:   axis.ZeroOffset,
			ratio:  axis.GearRatio,
			limits: axis.Limits(),
		}
	}

	return s, nil
}

// Solve returns the five encoded joint values for target, or an error
// wrapping ErrUnreachable if any of them falls outside its range. No
// partial result is ever returned.
func (s *Solver) Solve(target arm.CartesianTarget) (arm.JointAngles, error) {
	g := s.geometry

	// Back out the tool offset along the approach direction
	a := approach(radians(target.Yaw), radians(target.Pitch))
	wrist := r3.Vector{X: target.X, Y: target.Y, Z: target.Z}.Sub(a.Mul(g.WristLength))

	horizontalReach := math.Hypot(wrist.X, wrist.Y)
	height := wrist.Z - g.ShoulderHeight
	reach := math.Hypot(horizontalReach, height)
	if reach == 0 {
		return arm.JointAngles{}, errors.Wrap(arm.ErrUnreachable, "wrist pivot on the shoulder axis")
	}

	// Law of cosines over lower arm, upper arm link and reach
	cosElbow := (sq(g.LowerArm) + sq(s.linkLength) - sq(reach)) / (2 * g.LowerArm * s.linkLength)
	cosShoulder := (sq(g.LowerArm) + sq(reach) - sq(s.linkLength)) / (2 * g.LowerArm * reach)
	if math.Abs(cosElbow) > 1 || math.Abs(cosShoulder) > 1 {
		return arm.JointAngles{}, errors.Wrapf(arm.ErrUnreachable, "reach %.1f mm outside the arm envelope", reach)
	}
	elbowInterior := math.Acos(cosElbow)

	// Elbow-up: lower arm above the reach line
	shoulder := math.Atan2(height, horizontalReach) + math.Acos(cosShoulder)
	link := shoulder - (math.Pi - elbowInterior)
	actuator := link - s.kappa

	// Single-quadrant bearing; see DESIGN.md
	bearing := math.Atan(wrist.X / wrist.Y)

	// Direction cosines of the approach vector in the arm frame
	forward, lateral := armFrame(bearing)
	cosForward := a.Dot(forward)
	cosLateral := a.Dot(lateral)
	cosUp := a.Z

	wristPitch := math.Atan2(cosUp, cosForward) - link
	wristDeflection := math.Asin(clamp(cosLateral, -1, 1))

	q := [arm.NumAxes]float64{
		bearing,
		shoulder,
		actuator - shoulder,
		wristPitch,
		wristDeflection,
	}

	var joints arm.JointAngles
	for i, enc := range s.joints {
		joints[i] = enc.encode(q[i])
	}

	if err := s.CheckLimits(joints); err != nil {
		return arm.JointAngles{}, err
	}
	return joints, nil
}

// CheckLimits validates every joint value against its range
func (s *Solver) CheckLimits(joints arm.JointAngles) error {
	for _, id := range arm.AllAxes {
		enc := s.joints[id.Index()]
		v := joints.Get(id)
		if !enc.limits.Contains(v) {
			return errors.Wrapf(arm.ErrUnreachable, "%s at %.1f outside [0, %d]", id, v, enc.limits.Range)
		}
	}
	return nil
}

// Forward reconstructs the end-effector pose from encoded joint values
func (s *Solver) Forward(joints arm.JointAngles) arm.CartesianTarget {
	g := s.geometry

	var q [arm.NumAxes]float64
	for i, enc := range s.joints {
		q[i] = enc.decode(joints[i])
	}
	bearing, shoulder, relative, wristPitch, wristDeflection := q[0], q[1], q[2], q[3], q[4]

	forward, lateral := armFrame(bearing)
	up := r3.Vector{Z: 1}
	inPlane := func(angle, length float64) r3.Vector {
		return forward.Mul(length * math.Cos(angle)).Add(up.Mul(length * math.Sin(angle)))
	}

	link := shoulder + relative + s.kappa
	pitch := link + wristPitch

	elbow := r3.Vector{Z: g.ShoulderHeight}.Add(inPlane(shoulder, g.LowerArm))
	wrist := elbow.Add(inPlane(link, s.linkLength))
	a := inPlane(pitch, math.Cos(wristDeflection)).Add(lateral.Mul(math.Sin(wristDeflection)))
	tool := wrist.Add(a.Mul(g.WristLength))

	return arm.CartesianTarget{
		X:     tool.X,
		Y:     tool.Y,
		Z:     tool.Z,
		Yaw:   degrees(math.Atan2(a.X, a.Y)),
		Pitch: degrees(math.Asin(clamp(a.Z, -1, 1))),
	}
}

// approach returns the unit tool direction for yaw (from +Y toward +X) and
// pitch (up from the base plane)
func approach(yaw, pitch float64) r3.Vector {
	return r3.Vector{
		X: math.Cos(pitch) * math.Sin(yaw),
		Y: math.Cos(pitch) * math.Cos(yaw),
		Z: math.Sin(pitch),
	}
}

// armFrame returns the horizontal unit vectors along and across the arm plane
func armFrame(bearing float64) (forward, lateral r3.Vector) {
	forward = r3.Vector{X: math.Sin(bearing), Y: math.Cos(bearing)}
	lateral = r3.Vector{X: math.Cos(bearing), Y: -math.Sin(bearing)}
	return forward, lateral
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func sq(x float64) float64 {
	return x * x
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
