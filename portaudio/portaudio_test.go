//go:build portaudio
// +build portaudio

package portaudio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/basicdsp"
	"pipelined.dev/basicdsp/portaudio"
	"pipelined.dev/basicdsp/vm"
)

func TestDevices(t *testing.T) {
	devices, err := portaudio.Devices()
	require.NoError(t, err)
	assert.NotEmpty(t, devices)
}

func TestPlayback(t *testing.T) {
	m := vm.New(portaudio.NewDevice(portaudio.NoInput, -1))
	require.NoError(t, m.LoadProgram(basicdsp.MustCompile("out = 0.1 * sin1(in)")))
	require.NoError(t, m.SetSource(vm.SourceSine))
	require.NoError(t, m.Start())
	time.Sleep(200 * time.Millisecond)
	l, _ := m.VU()
	assert.Greater(t, l, float32(0.5))
	m.Stop()
	assert.False(t, m.IsRunning())
}
