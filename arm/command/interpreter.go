// Package command turns protocol lines into planned moves.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"servoarm/arm"
)

// Reply lines sent back over the transport
const (
	ReplyOK                 = "ok"
	ReplyUnknownCommand     = "Unknown command"
	ReplyUnreachable        = "Unreachable"
	ReplyAccelerationTooLow = "Acceleration too low"
	ReplyResetComplete      = "Reset complete"
	ReplySingleAxisHint     = "Single-axis mode: M<axis 1-5>.<percent 000-100>, e.g. M1.050"
	ReplyCartesianHint      = "Cartesian mode: xxxx,yyy,zzz in mm, e.g. 0000,180,100"
	ReplyHelp               = "Commands: motor, cartesian, reset, status, help"
)

// Motion is the scheduler surface the interpreter plans against
type Motion interface {
	Plan(a arm.AxisID, target float64) error
	PlanAll(targets arm.JointAngles) error
	Start(state arm.RunState, a arm.AxisID)
	Stop()
	Feasible() bool
	Reset(ctx context.Context) error
	ReportedAngles() (arm.JointAngles, error)
	State() arm.RunState
}

// Solver maps a cartesian pose to joint values
type Solver interface {
	Solve(target arm.CartesianTarget) (arm.JointAngles, error)
}

// Interpreter executes commands in the current robot mode
type Interpreter struct {
	config *arm.ArmConfig
	parser *Parser
	motion Motion
	solver Solver
	logger *slog.Logger
	mode   arm.RobotMode
}

// NewInterpreter creates an interpreter in idle mode
func NewInterpreter(cfg *arm.ArmConfig, motion Motion, solver Solver, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		config: cfg,
		parser: NewParser(),
		motion: motion,
		solver: solver,
		logger: logger,
		mode:   arm.ModeIdle,
	}
}

// Mode returns the current robot mode
func (interp *Interpreter) Mode() arm.RobotMode {
	return interp.mode
}

// HandleLine stops any move in flight, then parses and executes line. A
// blank line is not a command: it leaves the move running and gets no reply.
func (interp *Interpreter) HandleLine(ctx context.Context, line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	interp.motion.Stop()

	cmd, err := interp.parser.ParseLine(interp.mode, line)
	if err != nil {
		return interp.reply(err)
	}
	if cmd == nil {
		return ""
	}

	reply, err := interp.Execute(ctx, cmd)
	if err != nil {
		return interp.reply(err)
	}
	return reply
}

// Execute runs a parsed command and returns its reply line
func (interp *Interpreter) Execute(ctx context.Context, cmd *arm.Command) (string, error) {
	if cmd == nil {
		return "", nil
	}

	switch cmd.Kind {
	case arm.CmdMotor:
		interp.setMode(arm.ModeSingleAxis)
		return ReplySingleAxisHint, nil
	case arm.CmdCartesianMode:
		interp.setMode(arm.ModeCartesian)
		return ReplyCartesianHint, nil
	case arm.CmdReset:
		return interp.doReset(ctx)
	case arm.CmdStatus:
		return interp.status()
	case arm.CmdHelp:
		return ReplyHelp, nil
	case arm.CmdSingleAxis:
		return interp.doSingleAxis(cmd)
	case arm.CmdCartesian:
		return interp.doCartesian(cmd)
	}

	return "", errors.Wrapf(arm.ErrUnknownCommand, "command kind %d", cmd.Kind)
}

func (interp *Interpreter) setMode(mode arm.RobotMode) {
	if interp.mode != mode {
		interp.logger.Info("mode changed", "from", interp.mode, "to", mode)
	}
	interp.mode = mode
}

// AxisTarget maps a percentage of travel onto the axis's joint value.
// Reversed axes count down from the top of their range.
func AxisTarget(axis arm.AxisConfig, percent int) float64 {
	span := float64(percent) * float64(axis.Range) / 100
	if axis.Reversed {
		return float64(axis.Range) - span
	}
	return span
}

func (interp *Interpreter) doSingleAxis(cmd *arm.Command) (string, error) {
	target := AxisTarget(interp.config.Axis(cmd.Axis), cmd.Percent)

	err := interp.motion.Plan(cmd.Axis, target)
	if err != nil && !errors.Is(err, arm.ErrInfeasibleAcceleration) {
		return "", err
	}
	if !interp.motion.Feasible() {
		interp.logger.Warn("move blocked", "axis", cmd.Axis, "target", target)
		return ReplyAccelerationTooLow, nil
	}

	interp.motion.Start(arm.RunSingleAxis, cmd.Axis)
	return ReplyOK, nil
}

func (interp *Interpreter) doCartesian(cmd *arm.Command) (string, error) {
	target := cmd.Target
	target.Yaw = interp.config.DefaultYaw
	target.Pitch = interp.config.DefaultPitch

	joints, err := interp.solver.Solve(target)
	if err != nil {
		return "", err
	}

	err = interp.motion.PlanAll(joints)
	if err != nil && !errors.Is(err, arm.ErrInfeasibleAcceleration) {
		return "", err
	}
	if !interp.motion.Feasible() {
		interp.logger.Warn("move blocked", "target", target, "joints", joints)
		return ReplyAccelerationTooLow, nil
	}

	interp.motion.Start(arm.RunAllAxes, 0)
	return ReplyOK, nil
}

func (interp *Interpreter) doReset(ctx context.Context) (string, error) {
	interp.setMode(arm.ModeIdle)
	if err := interp.motion.Reset(ctx); err != nil {
		return "", err
	}
	return ReplyResetComplete, nil
}

func (interp *Interpreter) status() (string, error) {
	angles, err := interp.motion.ReportedAngles()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s run=%s", interp.mode, interp.motion.State())
	for _, id := range arm.AllAxes {
		fmt.Fprintf(&b, " %s=%.0f", id, angles.Get(id))
	}
	return b.String(), nil
}

// reply maps an execution error onto its protocol reply
func (interp *Interpreter) reply(err error) string {
	switch {
	case errors.Is(err, arm.ErrUnknownCommand):
		interp.logger.Debug("unknown command", "error", err)
		return ReplyUnknownCommand
	case errors.Is(err, arm.ErrUnreachable):
		interp.logger.Warn("target unreachable", "error", err)
		return ReplyUnreachable
	case errors.Is(err, arm.ErrInfeasibleAcceleration):
		interp.logger.Warn("move blocked", "error", err)
		return ReplyAccelerationTooLow
	}
	interp.logger.Error("command failed", "error", err)
	return "Error: " + err.Error()
}
