package mock_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/basicdsp/mock"
)

func TestDevice(t *testing.T) {
	d := &mock.Device{}
	assert.Nil(t, d.Run(make([]float32, 4)))

	var calls int
	s, err := d.Open(48000, func(in, out []float32) {
		calls++
		copy(out, in)
	})
	require.NoError(t, err)
	assert.Equal(t, 48000, d.SampleRate())
	assert.Equal(t, 1, d.Opened())
	assert.Nil(t, d.Run([]float32{1, 2}))

	require.NoError(t, s.Start())
	assert.True(t, d.Started())
	assert.Equal(t, []float32{1, 2, 3, 4}, d.Run([]float32{1, 2, 3, 4}))
	blocks, frames := d.Count()
	assert.Equal(t, 1, blocks)
	assert.Equal(t, 2, frames)

	require.NoError(t, s.Close())
	assert.False(t, d.Started())
	assert.Nil(t, d.Run([]float32{1, 2}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, mock.ErrClosed, s.Close())
	assert.Equal(t, mock.ErrClosed, s.Start())
}

func TestDeviceErrors(t *testing.T) {
	errOpen, errStart := errors.New("open"), errors.New("start")
	d := &mock.Device{OpenErr: errOpen}
	_, err := d.Open(44100, func(in, out []float32) {})
	assert.Equal(t, errOpen, err)

	d = &mock.Device{StartErr: errStart}
	s, err := d.Open(44100, func(in, out []float32) {})
	require.NoError(t, err)
	assert.Equal(t, errStart, s.Start())
	assert.False(t, d.Started())
}
