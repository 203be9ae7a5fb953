// Package mock provides an audio device driven manually by tests.
package mock

import (
	"errors"
	"sync"

	"pipelined.dev/basicdsp/vm"
)

// ErrClosed is returned when a closed stream is used.
var ErrClosed = errors.New("stream closed")

// Counter counts blocks and frames passed through the device.
type Counter struct {
	mu     sync.Mutex
	blocks int
	frames int
}

func (c *Counter) advance(frames int) {
	c.mu.Lock()
	c.blocks++
	c.frames += frames
	c.mu.Unlock()
}

// Count returns the number of blocks and frames.
func (c *Counter) Count() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks, c.frames
}

// Device is a stereo device without a clock. Blocks are processed when
// Run is called. OpenErr and StartErr are returned by Open and Start.
type Device struct {
	OpenErr  error
	StartErr error
	Counter

	// callback is held while a block is processed, Close waits for it.
	callback   sync.Mutex
	mu         sync.Mutex
	process    vm.ProcessFunc
	sampleRate int
	started    bool
	opened     int
}

// Open implements vm.Device.
func (d *Device) Open(sampleRate int, process vm.ProcessFunc) (vm.Stream, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.process = process
	d.sampleRate = sampleRate
	d.opened++
	return &stream{device: d}, nil
}

// SampleRate returns the rate the last stream was opened with.
func (d *Device) SampleRate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampleRate
}

// Opened returns the number of opened streams.
func (d *Device) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Started reports whether a stream is started.
func (d *Device) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Run processes one block of interleaved stereo input and returns the
// output. It returns nil if no stream is started.
func (d *Device) Run(in []float32) []float32 {
	d.callback.Lock()
	defer d.callback.Unlock()
	d.mu.Lock()
	process, started := d.process, d.started
	d.mu.Unlock()
	if !started {
		return nil
	}
	out := make([]float32, len(in))
	process(in, out)
	d.advance(len(in) / 2)
	return out
}

type stream struct {
	device *Device
	closed bool
}

func (s *stream) Start() error {
	if s.closed {
		return ErrClosed
	}
	d := s.device
	if d.StartErr != nil {
		return d.StartErr
	}
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()
	return nil
}

func (s *stream) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	d := s.device
	d.mu.Lock()
	d.started = false
	d.mu.Unlock()
	// wait for the block in flight
	d.callback.Lock()
	d.callback.Unlock()
	return nil
}
