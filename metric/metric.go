package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/basicdsp/signal"
)

const machinesLabel = "basicdsp.machines"

const (
	// FrameCounter measures number of executed frames.
	FrameCounter = "Frames"
	// DroppedCounter measures number of frames muted because the machine was
	// being reconfigured.
	DroppedCounter = "Dropped"
	// OverflowCounter measures number of frames aborted by stack overflow.
	OverflowCounter = "Overflows"
	// LoadCounter measures number of loaded programs.
	LoadCounter = "Loads"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of processed signal.
	DurationCounter = "Duration"
)

var (
	machines = metrics{
		m: make(map[string]*Metric),
	}

	counters = []string{
		FrameCounter,
		DroppedCounter,
		OverflowCounter,
		LoadCounter,
		LatencyCounter,
		DurationCounter,
	}
)

// Get metrics values for the named machine.
func Get(name string) map[string]string {
	return getCounters(name)
}

// GetAll returns counters for all measured machines.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	machines.Lock()
	defer machines.Unlock()
	for name := range machines.m {
		m[name] = getCounters(name)
	}
	return m
}

func getCounters(name string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(name, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Metric holds the counters of one machine. Counters are published once per
// name, machines with the same name share them.
type Metric struct {
	name      string
	frames    *expvar.Int
	dropped   *expvar.Int
	overflows *expvar.Int
	loads     *expvar.Int
	latency   *duration
	duration  *duration
}

// New returns the metric for the name.
func New(name string) *Metric {
	return machines.get(name)
}

// Name returns the name counters are published with.
func (m *Metric) Name() string {
	return m.name
}

// MeasureFunc captures metrics when buffer is processed.
type MeasureFunc func(frames int64)

// Meter creates new meter closure to capture buffer counters. It's called
// from the audio callback and doesn't allocate.
func (m *Metric) Meter(sampleRate int) MeasureFunc {
	calledAt := time.Now()
	var (
		bufferSize     int64
		bufferDuration time.Duration
	)
	return func(frames int64) {
		m.latency.set(time.Since(calledAt))
		m.frames.Add(frames)
		// recalculate buffer duration only when buffer size has changed
		if bufferSize != frames {
			bufferSize = frames
			bufferDuration = signal.DurationOf(sampleRate, bufferSize)
		}
		m.duration.add(bufferDuration)
		calledAt = time.Now()
	}
}

// Drop counts muted frames. It's safe to call concurrently with a meter.
func (m *Metric) Drop(frames int64) {
	m.dropped.Add(frames)
}

// Overflow counts an aborted frame.
func (m *Metric) Overflow() {
	m.overflows.Add(1)
}

// Load counts a loaded program.
func (m *Metric) Load() {
	m.loads.Add(1)
}

type metrics struct {
	sync.Mutex
	m map[string]*Metric
}

func (m *metrics) get(name string) *Metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[name]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(name)
	m.m[name] = metric
	return metric
}

func newMetric(name string) *Metric {
	m := Metric{
		name:      name,
		frames:    expvar.NewInt(key(name, FrameCounter)),
		dropped:   expvar.NewInt(key(name, DroppedCounter)),
		overflows: expvar.NewInt(key(name, OverflowCounter)),
		loads:     expvar.NewInt(key(name, LoadCounter)),
		latency:   &duration{},
		duration:  &duration{},
	}
	expvar.Publish(key(name, LatencyCounter), m.latency)
	expvar.Publish(key(name, DurationCounter), m.duration)
	return &m
}

func key(name, counter string) string {
	return fmt.Sprintf("%s.%s.%s", machinesLabel, name, counter)
}

// duration allows to format time.Duration metric values. Values are quoted
// to keep the expvar output valid JSON.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
