// Package link exchanges protocol lines with an arm controller over a serial
// port. The controller answers every command line with exactly one reply
// line.
package link

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"servoarm/host/serial"
)

// ErrTimeout means no complete reply line arrived in time
var ErrTimeout = errors.New("timed out waiting for reply")

// DefaultTimeout covers a full move plus transport latency
const DefaultTimeout = 3 * time.Second

// Link is a line-oriented connection to a controller
type Link struct {
	port    serial.Port
	pending []byte
	buf     []byte
}

// New wraps an open port
func New(port serial.Port) *Link {
	return &Link{
		port: port,
		buf:  make([]byte, 128),
	}
}

// Send writes one command line
func (l *Link) Send(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if _, err := l.port.Write([]byte(line + "\n")); err != nil {
		return errors.Wrapf(err, "could not send %q", line)
	}
	return nil
}

// ReadLine returns the next non-empty reply line without its terminator.
// A port read that times out without data, reported as io.EOF or as an
// empty read, is retried until timeout has passed.
func (l *Link) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	for {
		if line, ok := l.popLine(); ok {
			return line, nil
		}

		n, err := l.port.Read(l.buf)
		if n > 0 {
			l.pending = append(l.pending, l.buf[:n]...)
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", errors.Wrap(err, "could not read reply")
		}
		if time.Now().After(deadline) {
			return "", errors.Wrapf(ErrTimeout, "after %s", timeout)
		}
	}
}

// Exchange sends line and waits for its reply
func (l *Link) Exchange(line string, timeout time.Duration) (string, error) {
	if err := l.Send(line); err != nil {
		return "", err
	}
	return l.ReadLine(timeout)
}

// Drain discards input until the port has been quiet for quiet, e.g. the
// banner printed when the controller starts. It returns the discarded lines.
func (l *Link) Drain(quiet time.Duration) []string {
	var lines []string
	for {
		line, err := l.ReadLine(quiet)
		if err != nil {
			return lines
		}
		lines = append(lines, line)
	}
}

// Close closes the underlying port
func (l *Link) Close() error {
	return l.port.Close()
}

func (l *Link) popLine() (string, bool) {
	for {
		i := bytes.IndexAny(l.pending, "\r\n")
		if i < 0 {
			return "", false
		}
		line := string(l.pending[:i])
		l.pending = l.pending[i+1:]
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
}
