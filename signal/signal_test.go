package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/basicdsp/signal"
)

func TestInterIntAsStereo(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    signal.Stereo
	}{
		{
			ints:        []int{1, 2, 1, 2, 1, 2},
			numChannels: 2,
			expected:    signal.Stereo{1, 2, 1, 2, 1, 2},
		},
		{
			ints:        []int{1, 2, 1, 2, 1},
			numChannels: 2,
			expected:    signal.Stereo{1, 2, 1, 2, 1, 0},
		},
		{
			ints:        []int{math.MaxInt16, -math.MaxInt16},
			numChannels: 1,
			bitDepth:    signal.BitDepth16,
			expected:    signal.Stereo{1, 1, -1, -1},
		},
		{
			ints:        []int{1, 2, 3, 4, 5, 6},
			numChannels: 3,
			expected:    signal.Stereo{1, 2, 4, 5},
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
	}

	for _, test := range tests {
		ints := signal.InterInt{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}
		assert.Equal(t, test.expected, ints.AsStereo())
	}
}

func TestStereoAsInterInt(t *testing.T) {
	tests := []struct {
		floats   signal.Stereo
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			floats:   signal.Stereo{1, 2, 1, 2},
			expected: []int{1, 1, 1, 1},
		},
		{
			floats:   signal.Stereo{1, -1, 0.5, 2},
			bitDepth: signal.BitDepth16,
			expected: []int{math.MaxInt16 - 1, -(math.MaxInt16 - 1), (math.MaxInt16 - 1) / 2, math.MaxInt16 - 1},
		},
		{
			floats:   signal.Stereo{},
			expected: []int{},
		},
	}

	for _, test := range tests {
		ints := test.floats.AsInterInt(test.bitDepth)
		assert.Equal(t, test.expected, ints.Data)
		assert.Equal(t, 2, ints.NumChannels)
	}
}

func TestStereoSlice(t *testing.T) {
	s := signal.Stereo{1, -1, 2, -2, 3, -3}
	assert.Equal(t, 3, s.Frames())
	assert.Equal(t, signal.Stereo{2, -2, 3, -3}, s.Slice(1, 5))
	assert.Equal(t, signal.Stereo{1, -1}, s.Slice(0, 1))
	assert.Nil(t, s.Slice(3, 1))
	assert.Nil(t, s.Slice(-1, 1))
	l, r := s.Frame(2)
	assert.Equal(t, float32(3), l)
	assert.Equal(t, float32(-3), r)
	signal.Silence(s)
	assert.Equal(t, signal.Stereo{0, 0, 0, 0, 0, 0}, s)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(48000, 24000))
	assert.Equal(t, int64(4410), signal.FramesOf(44100, 100*time.Millisecond))
}
