package serial

import (
	"io"

	"servoarm/arm"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-memory ports for testing
type Port interface {
	io.ReadWriteCloser

	// Flush discards input not yet read and output not yet transmitted
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int

	// LockDir holds the advisory lock file for the device. Empty uses the
	// system temp directory.
	LockDir string
}

// DefaultConfig returns a default configuration for the arm controller
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// ConfigFromArm builds a port configuration from the arm's serial settings
func ConfigFromArm(cfg arm.SerialConfig) *Config {
	c := DefaultConfig(cfg.Device)
	if cfg.Baud > 0 {
		c.Baud = cfg.Baud
	}
	if cfg.ReadTimeoutMs > 0 {
		c.ReadTimeout = cfg.ReadTimeoutMs
	}
	return c
}
