package controller

import (
	"io"
	"sync"
	"sync/atomic"
)

// ByteSource is polled by the control loop for input. It matches the
// buffered serial interface of the firmware's USB port.
type ByteSource interface {
	// Buffered returns the number of bytes that can be read without blocking
	Buffered() int

	// ReadByte returns the next pending byte
	ReadByte() (byte, error)
}

// ChanSource adapts a blocking io.Reader to a ByteSource. A goroutine reads
// the underlying stream into a channel so the control loop never blocks.
// Once the stream ends and every byte has been consumed, Buffered reports
// one more pending read which returns io.EOF. Close stops the goroutine
// from delivering further bytes.
type ChanSource struct {
	ch   chan byte
	quit chan struct{}
	once sync.Once
	done atomic.Bool
	err  atomic.Value
}

// NewChanSource starts reading r in the background
func NewChanSource(r io.Reader, size int) *ChanSource {
	if size <= 0 {
		size = 256
	}
	s := &ChanSource{
		ch:   make(chan byte, size),
		quit: make(chan struct{}),
	}
	go s.pump(r)
	return s
}

func (s *ChanSource) pump(r io.Reader) {
	defer func() {
		close(s.ch)
		s.done.Store(true)
	}()

	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case s.ch <- b:
			case <-s.quit:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				s.err.Store(err)
			}
			return
		}
	}
}

// Close releases the reader goroutine. A Read already blocked on the
// underlying stream returns only when that stream produces data or ends.
func (s *ChanSource) Close() error {
	s.once.Do(func() { close(s.quit) })
	return nil
}

// Buffered returns the number of bytes waiting in the channel
func (s *ChanSource) Buffered() int {
	n := len(s.ch)
	if n == 0 && s.done.Load() {
		return 1
	}
	return n
}

// ReadByte returns the next byte without blocking
func (s *ChanSource) ReadByte() (byte, error) {
	select {
	case b, ok := <-s.ch:
		if !ok {
			if err, _ := s.err.Load().(error); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		return b, nil
	default:
		return 0, io.ErrNoProgress
	}
}
