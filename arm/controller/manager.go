// Package controller runs the arm's single control loop: it feeds protocol
// bytes to the command interpreter and ticks the scheduler in between.
package controller

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"servoarm/arm"
	"servoarm/arm/command"
	"servoarm/arm/config"
	"servoarm/arm/kinematics"
	"servoarm/arm/scheduler"
	"servoarm/core"
)

// Banner is sent when the controller starts
const Banner = "Servo Arm Ready"

const maxLineLength = 64

// Manager coordinates the motion components
type Manager struct {
	config      *arm.ArmConfig
	logger      *slog.Logger
	clock       core.Clock
	scheduler   *scheduler.Scheduler
	interpreter *command.Interpreter

	// Serial interface
	inputBuffer  []byte
	overflow     bool
	outputBuffer []byte

	// Status
	initialized bool
	running     bool
}

// NewManager creates a manager from JSON configuration
func NewManager(configData []byte, logger *slog.Logger) (*Manager, error) {
	cfg, err := config.LoadConfig(configData)
	if err != nil {
		return nil, err
	}

	return NewManagerWithConfig(cfg, logger)
}

// NewManagerWithConfig creates a manager with an existing config
func NewManagerWithConfig(cfg *arm.ArmConfig, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.Wrap(arm.ErrInvalidArgument, "nil config")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	mgr := &Manager{
		config:       cfg,
		logger:       logger,
		inputBuffer:  make([]byte, 0, maxLineLength),
		outputBuffer: make([]byte, 0, 256),
	}

	return mgr, nil
}

// Initialize attaches the servos, drives them to the initial pose and
// builds the scheduler, solver and interpreter
func (m *Manager) Initialize(driver core.ServoDriver, clock core.Clock) error {
	if m.initialized {
		return errors.New("already initialized")
	}
	if clock == nil {
		return errors.Wrap(arm.ErrInvalidArgument, "nil clock")
	}

	bank, err := scheduler.NewBank(driver, m.config)
	if err != nil {
		return err
	}

	// Servos have no position until the first pulse
	if err := bank.WriteAll(m.config.InitialAngles()); err != nil {
		return errors.Wrap(err, "could not move to initial pose")
	}

	sched, err := scheduler.New(m.config, bank, clock, m.logger)
	if err != nil {
		return err
	}

	solver, err := kinematics.NewSolver(m.config)
	if err != nil {
		return err
	}

	m.clock = clock
	m.scheduler = sched
	m.interpreter = command.NewInterpreter(m.config, sched, solver, m.logger)
	m.initialized = true

	m.logger.Info("controller initialized", "initial", m.config.InitialAngles())
	return nil
}

// ProcessLine executes one protocol line and returns its reply
func (m *Manager) ProcessLine(ctx context.Context, line string) (string, error) {
	if !m.initialized {
		return "", errors.New("manager not initialized")
	}

	return m.interpreter.HandleLine(ctx, line), nil
}

// ProcessByte processes a single byte of input (for serial streaming)
func (m *Manager) ProcessByte(ctx context.Context, b byte) error {
	if b != '\n' && b != '\r' {
		if len(m.inputBuffer) >= maxLineLength {
			m.overflow = true
			return nil
		}
		m.inputBuffer = append(m.inputBuffer, b)
		return nil
	}

	line := string(m.inputBuffer)
	m.inputBuffer = m.inputBuffer[:0]

	if m.overflow {
		m.overflow = false
		m.SendResponse(command.ReplyUnknownCommand + "\n")
		return nil
	}

	// The second half of a CRLF pair ends an empty line
	if strings.TrimSpace(line) == "" {
		return nil
	}

	reply, err := m.ProcessLine(ctx, line)
	if err != nil {
		return err
	}
	if reply != "" {
		m.SendResponse(reply + "\n")
	}

	return nil
}

// SendResponse queues a response to be sent to the host
func (m *Manager) SendResponse(response string) {
	m.outputBuffer = append(m.outputBuffer, response...)
}

// GetOutput returns any pending output and clears the buffer
func (m *Manager) GetOutput() []byte {
	if len(m.outputBuffer) == 0 {
		return nil
	}

	output := make([]byte, len(m.outputBuffer))
	copy(output, m.outputBuffer)
	m.outputBuffer = m.outputBuffer[:0]
	return output
}

// Poll advances the active move by one tick
func (m *Manager) Poll() (int, error) {
	if !m.initialized {
		return 0, errors.New("manager not initialized")
	}
	return m.scheduler.Tick()
}

// Start begins operation
func (m *Manager) Start() error {
	if !m.initialized {
		return errors.New("manager not initialized")
	}

	m.running = true
	m.SendResponse(Banner + "\n")
	return nil
}

// Stop halts the control loop and abandons any move in flight
func (m *Manager) Stop() {
	m.running = false
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

// IsRunning returns whether the manager is running
func (m *Manager) IsRunning() bool {
	return m.running
}

// Mode returns the interpreter's current mode
func (m *Manager) Mode() arm.RobotMode {
	if m.interpreter == nil {
		return arm.ModeIdle
	}
	return m.interpreter.Mode()
}

// Scheduler returns the motion scheduler, nil before Initialize
func (m *Manager) Scheduler() *scheduler.Scheduler {
	return m.scheduler
}

// Run is the control loop. Each iteration drains pending input bytes, ticks
// the scheduler once, flushes replies to out and sleeps the poll interval.
// When in reports io.EOF the active move is played to the end and Run
// returns nil.
func (m *Manager) Run(ctx context.Context, in ByteSource, out io.Writer) error {
	if err := m.Start(); err != nil {
		return err
	}
	defer m.Stop()

	interval := m.config.Motion.PollInterval()

	for m.running {
		if err := ctx.Err(); err != nil {
			return err
		}

		for in.Buffered() > 0 {
			b, err := in.ReadByte()
			if errors.Is(err, io.EOF) {
				return m.drain(ctx, out)
			}
			if err != nil {
				return errors.Wrap(err, "read input")
			}
			if err := m.ProcessByte(ctx, b); err != nil {
				return err
			}
		}

		if _, err := m.Poll(); err != nil {
			return err
		}

		if err := m.flush(out); err != nil {
			return err
		}

		m.clock.Sleep(interval)
	}

	return nil
}

// drain finishes the active move after the input has ended
func (m *Manager) drain(ctx context.Context, out io.Writer) error {
	if len(m.inputBuffer) > 0 {
		if err := m.ProcessByte(ctx, '\n'); err != nil {
			return err
		}
	}

	err := m.scheduler.RunToCompletion(ctx)
	if err != nil && !errors.Is(err, arm.ErrInfeasibleAcceleration) {
		return err
	}
	return m.flush(out)
}

func (m *Manager) flush(out io.Writer) error {
	output := m.GetOutput()
	if output == nil {
		return nil
	}
	if _, err := out.Write(output); err != nil {
		return errors.Wrap(err, "write output")
	}
	return nil
}
