//go:build !wasm

package serial

import (
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/tarm/serial"
	"go.uber.org/multierr"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	lock *flock.Flock
	cfg  *Config
}

// Open locks and opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	lock, err := lockDevice(cfg.LockDir, cfg.Device)
	if err != nil {
		return nil, err
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		err = errors.Wrapf(err, "failed to open serial port %s", cfg.Device)
		return nil, multierr.Append(err, lock.Unlock())
	}

	return &NativePort{
		port: port,
		lock: lock,
		cfg:  cfg,
	}, nil
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port and releases the device lock
func (p *NativePort) Close() error {
	var err error
	if p.port != nil {
		err = multierr.Append(err, p.port.Close())
		p.port = nil
	}
	if p.lock != nil {
		err = multierr.Append(err, p.lock.Unlock())
		p.lock = nil
	}
	return err
}

// Flush discards stale data in the serial port buffers
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
