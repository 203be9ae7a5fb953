package metric_test

import (
	"sync"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"

	"pipelined.dev/basicdsp/metric"
)

func TestMeter(t *testing.T) {
	sampleRate := 44100
	// counters are process-wide, cases share a name unique to the run
	name := t.Name() + "-" + xid.New().String()
	// test cases
	var tests = []struct {
		name             string
		routines         int
		buffers          int
		frames           int64
		expectedFrames   string
		expectedDuration string
	}{
		{
			name:             name,
			routines:         2,
			buffers:          10,
			frames:           4410,
			expectedFrames:   "88200",
			expectedDuration: `"2s"`,
		},
		{
			name:             name,
			routines:         2,
			buffers:          10,
			frames:           2205,
			expectedFrames:   "132300",
			expectedDuration: `"3s"`,
		},
	}
	// function to test meter.
	testFn := func(fn metric.MeasureFunc, wg *sync.WaitGroup, buffers int, frames int64) {
		for i := 0; i < buffers; i++ {
			fn(frames)
		}
		wg.Done()
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(metric.New(c.name).Meter(sampleRate), wg, c.buffers, c.frames)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(c.name)
		assert.Equal(t, c.expectedFrames, values[metric.FrameCounter])
		assert.Equal(t, c.expectedDuration, values[metric.DurationCounter])
	}
}

func TestCounters(t *testing.T) {
	name := t.Name() + "-" + xid.New().String()
	m := metric.New(name)
	assert.Equal(t, name, m.Name())
	assert.Same(t, m, metric.New(name))
	m.Load()
	m.Overflow()
	m.Overflow()
	m.Drop(512)
	values := metric.Get(name)
	assert.Equal(t, "1", values[metric.LoadCounter])
	assert.Equal(t, "2", values[metric.OverflowCounter])
	assert.Equal(t, "512", values[metric.DroppedCounter])
	assert.Contains(t, metric.GetAll(), name)
	assert.Empty(t, metric.Get("unknown"))
}
