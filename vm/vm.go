// Package vm executes compiled programs once per audio frame.
//
// A Machine is shared by two parties: the control thread, which loads
// programs, changes sliders and sources and starts or stops the device, and
// the audio thread, which calls Process for every block. Control operations
// take the machine lock. Process only tries it and outputs silence when the
// machine is being reconfigured, so the audio thread never blocks.
package vm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/rs/xid"

	"pipelined.dev/basicdsp/bytecode"
	"pipelined.dev/basicdsp/log"
	"pipelined.dev/basicdsp/metric"
	"pipelined.dev/basicdsp/ringbuf"
	"pipelined.dev/basicdsp/signal"
	"pipelined.dev/basicdsp/wav"
)

const (
	// DefaultSampleRate is used when no sample rate option is provided.
	DefaultSampleRate = 44100
	// DefaultStackSize is the default depth of the operand stack.
	DefaultStackSize = 2048
	// MonitorSize is the capacity of a monitor tap in pairs.
	MonitorSize = 32768

	numSliders  = 4
	numMonitors = 4
	// VU meter decay time constant
	vuDecay = 300 * time.Millisecond
)

var (
	// ErrDevice is returned when the audio device fails to open or start.
	ErrDevice = errors.New("device error")
	// ErrNoProgram is returned when the machine is started without a program.
	ErrNoProgram = errors.New("no program loaded")
	// ErrInvalidSlider is returned for a slider id out of range.
	ErrInvalidSlider = errors.New("invalid slider")
	// ErrInvalidSource is returned for an unknown input source.
	ErrInvalidSource = errors.New("invalid source")
	// ErrNoAudioFile is returned when the wav source is selected before a
	// file was set.
	ErrNoAudioFile = errors.New("no audio file")
)

// State identifies the lifecycle state of the machine.
type State int

// Machine states.
const (
	Empty State = iota
	Loaded
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Machine is the real-time virtual machine.
type Machine struct {
	mu         sync.Mutex
	name       string
	log        log.Logger
	metric     *metric.Metric
	measure    metric.MeasureFunc
	device     Device
	stream     Stream
	sampleRate int
	stackSize  int
	state      State

	rt       *runtime
	sliders  [numSliders]float32
	monitors [numMonitors]string
	monitor  [numMonitors]int
	taps     [numMonitors / 2]*ringbuf.Buffer

	gen   generator
	vuL   float32
	vuR   float32
	decay float32
}

// Option provides a way to set functional parameters to machine.
type Option func(m *Machine)

// WithSampleRate sets sample rate the device is opened with.
func WithSampleRate(sampleRate int) Option {
	return func(m *Machine) {
		m.sampleRate = sampleRate
	}
}

// WithLogger sets logger to machine. If this option is not provided,
// silent logger is used.
func WithLogger(logger log.Logger) Option {
	return func(m *Machine) {
		m.log = logger
	}
}

// WithMetric sets the name machine counters are published with.
func WithMetric(name string) Option {
	return func(m *Machine) {
		m.name = name
	}
}

// WithStackSize sets depth of the operand stack.
func WithStackSize(size int) Option {
	return func(m *Machine) {
		if size > 0 {
			m.stackSize = size
		}
	}
}

// WithSeed seeds the noise generator.
func WithSeed(seed uint64) Option {
	return func(m *Machine) {
		m.gen.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New creates a machine in Empty state.
func New(device Device, options ...Option) *Machine {
	m := &Machine{
		name:       "machine-" + xid.New().String(),
		log:        log.Silent(),
		device:     device,
		sampleRate: DefaultSampleRate,
		stackSize:  DefaultStackSize,
		gen: generator{
			frequency: 440,
		},
	}
	for i := range m.taps {
		m.taps[i] = ringbuf.New(MonitorSize)
	}
	for i := range m.monitor {
		m.monitor[i] = -1
	}
	for _, option := range options {
		option(m)
	}
	if m.gen.rng == nil {
		seed := uint64(time.Now().UnixNano())
		m.gen.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	m.metric = metric.New(m.name)
	m.measure = m.metric.Meter(m.sampleRate)
	m.setDecay()
	return m
}

// Name returns the name metrics of the machine are published with.
func (m *Machine) Name() string {
	return m.name
}

// State returns current state of the machine.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsRunning reports whether the device stream is running.
func (m *Machine) IsRunning() bool {
	return m.State() == Running
}

// SampleRate returns the sample rate the device is opened with.
func (m *Machine) SampleRate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampleRate
}

// LoadProgram validates the program and replaces the loaded one. A running
// stream is stopped first. Slider values and monitor names are kept.
func (m *Machine) LoadProgram(p *bytecode.Program) error {
	if p == nil {
		return ErrNoProgram
	}
	if _, err := p.Validate(); err != nil {
		return err
	}
	// allocate before taking the lock
	rt := newRuntime(p, m.stackSize)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.closeStream(); err != nil {
		m.log.Info(fmt.Sprintf("%s: close stream: %v", m.name, err))
	}
	m.rt = rt
	for i, v := range m.sliders {
		rt.set(rt.vars.sliders[i], v)
	}
	rt.set(rt.vars.samplerate, float32(m.sampleRate))
	m.resolveMonitors()
	m.gen.reset()
	m.vuL, m.vuR = 0, 0
	m.state = Loaded
	m.metric.Load()
	m.log.Debug(fmt.Sprintf("%s: loaded program %s (%d instructions, %d variables)", m.name, p.ID, len(p.Code), len(p.Vars)))
	return nil
}

// Program returns the loaded program or nil.
func (m *Machine) Program() *bytecode.Program {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rt == nil {
		return nil
	}
	return m.rt.program
}

// Start opens the device and starts the stream. Starting a running
// machine is a no-op.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rt == nil {
		return ErrNoProgram
	}
	if m.state == Running {
		return nil
	}
	stream, err := m.device.Open(m.sampleRate, m.Process)
	if err != nil {
		m.state = Stopped
		return fmt.Errorf("%w: open: %v", ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		m.state = Stopped
		return fmt.Errorf("%w: start: %v", ErrDevice, err)
	}
	m.stream = stream
	m.vuL, m.vuR = 0, 0
	m.measure = m.metric.Meter(m.sampleRate)
	m.state = Running
	m.log.Debug(fmt.Sprintf("%s: started at %d Hz", m.name, m.sampleRate))
	return nil
}

// Stop closes the stream. It's safe to call Stop in any state.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.closeStream(); err != nil {
		m.log.Info(fmt.Sprintf("%s: close stream: %v", m.name, err))
	}
	if m.rt != nil {
		m.state = Stopped
	}
}

// closeStream must be called with the lock held. Callbacks running while
// the stream is closed fail to take the lock and return immediately.
func (m *Machine) closeStream() error {
	if m.stream == nil {
		return nil
	}
	err := m.stream.Close()
	m.stream = nil
	m.vuL, m.vuR = 0, 0
	if m.state == Running {
		m.state = Stopped
		m.log.Debug(fmt.Sprintf("%s: stopped", m.name))
	}
	return err
}

// SetDevice stops the machine and replaces the device and its sample rate.
func (m *Machine) SetDevice(d Device, sampleRate int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.closeStream(); err != nil {
		m.log.Info(fmt.Sprintf("%s: close stream: %v", m.name, err))
	}
	m.device = d
	if sampleRate > 0 {
		m.sampleRate = sampleRate
	}
	m.setDecay()
	if m.rt != nil {
		m.rt.set(m.rt.vars.samplerate, float32(m.sampleRate))
	}
}

func (m *Machine) setDecay() {
	m.decay = float32(math.Exp(-1 / (vuDecay.Seconds() * float64(m.sampleRate))))
}

func sliderName(i int) string {
	return "slider" + strconv.Itoa(i+1)
}

// SetSlider sets the value of slider1..slider4, id is zero-based. The value
// is kept across program loads.
func (m *Machine) SetSlider(id int, v float32) error {
	if id < 0 || id >= numSliders {
		return fmt.Errorf("%w: %d", ErrInvalidSlider, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sliders[id] = v
	if m.rt != nil {
		m.rt.set(m.rt.vars.sliders[id], v)
	}
	return nil
}

// SetSource selects the input signal.
func (m *Machine) SetSource(s Source) error {
	if s < SourceDevice || s > SourceWav {
		return fmt.Errorf("%w: %v", ErrInvalidSource, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == SourceWav && m.gen.wav == nil {
		return ErrNoAudioFile
	}
	m.gen.source = s
	m.gen.reset()
	return nil
}

// SetFrequency sets frequency of the sine sources in Hz.
func (m *Machine) SetFrequency(hz float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen.frequency = hz
}

// SetAudioFile decodes the wav file and uses it for the wav source. The
// file is decoded before the lock is taken.
func (m *Machine) SetAudioFile(path string) error {
	s, sampleRate, err := wav.Load(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sampleRate != m.sampleRate {
		m.log.Info(fmt.Sprintf("%s: %s sample rate %d differs from %d", m.name, path, sampleRate, m.sampleRate))
	}
	m.gen.wav = s
	m.gen.wavPos = 0
	return nil
}

// HasAudioFile reports whether a wav file was set.
func (m *Machine) HasAudioFile() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen.wav != nil
}

// SetMonitoringVariable sets the variable recorded in one side of a monitor
// pair. It returns false if the pair or side is out of range or the loaded
// program has no scalar with the name. The name is kept and resolved again
// when another program is loaded.
func (m *Machine) SetMonitoringVariable(pair, side int, name string) bool {
	if pair < 0 || pair >= len(m.taps) || side < 0 || side > 1 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := pair*2 + side
	m.monitors[i] = name
	m.monitor[i] = m.lookupScalar(name)
	return m.monitor[i] >= 0
}

func (m *Machine) lookupScalar(name string) int {
	if m.rt == nil || name == "" {
		return -1
	}
	vars := m.rt.program.Vars
	if i := vars.Index(name); i >= 0 && vars[i].Kind == bytecode.Scalar {
		return i
	}
	return -1
}

func (m *Machine) resolveMonitors() {
	for i, name := range m.monitors {
		m.monitor[i] = m.lookupScalar(name)
	}
}

// Tap returns the ring buffer of the monitor pair or nil.
func (m *Machine) Tap(pair int) *ringbuf.Buffer {
	if pair < 0 || pair >= len(m.taps) {
		return nil
	}
	return m.taps[pair]
}

// VU returns peak levels of the input.
func (m *Machine) VU() (float32, float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vuL, m.vuR
}

// Value returns current value of the scalar variable.
func (m *Machine) Value(name string) (float32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.lookupScalar(name)
	if i < 0 {
		return 0, false
	}
	return m.rt.values[i], true
}

// Dump writes disassembly of the loaded program.
func (m *Machine) Dump(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := fmt.Fprintln(w, "-- VIRTUAL MACHINE PROGRAM --"); err != nil {
		return err
	}
	if m.rt == nil {
		return nil
	}
	return m.rt.program.Disassemble(w)
}

// Process is the audio callback. It executes the program once per frame of
// interleaved stereo buffers. Output is silence if the machine isn't
// running or is being reconfigured.
func (m *Machine) Process(in, out []float32) {
	frames := len(out) / 2
	if !m.mu.TryLock() {
		signal.Silence(out)
		m.metric.Drop(int64(frames))
		return
	}
	defer m.mu.Unlock()
	if m.state != Running || m.rt == nil {
		signal.Silence(out)
		return
	}
	rt := m.rt
	for i := 0; i < frames; i++ {
		var l, r float32
		if j := 2*i + 1; j < len(in) {
			l, r = in[j-1], in[j]
		}
		l, r = m.gen.next(m.sampleRate, l, r)
		m.meterVU(l, r)

		rt.bind(l, r)
		if !rt.exec(m.gen.rng) {
			m.metric.Overflow()
		}
		out[2*i], out[2*i+1] = rt.output()

		m.taps[0].Write(ringbuf.Pair{S1: rt.get(m.monitor[0]), S2: rt.get(m.monitor[1])})
		m.taps[1].Write(ringbuf.Pair{S1: rt.get(m.monitor[2]), S2: rt.get(m.monitor[3])})
	}
	m.measure(int64(frames))
}

func (m *Machine) meterVU(l, r float32) {
	m.vuL *= m.decay
	m.vuR *= m.decay
	if a := float32(math.Abs(float64(l))); a > m.vuL {
		m.vuL = a
	}
	if a := float32(math.Abs(float64(r))); a > m.vuR {
		m.vuR = a
	}
}
