// Package signal provides an API to manipulate digital signals. It allows to:
// 	- convert interleaved int data of any channel count to stereo floats
//	- convert bit depth for int signals
//	- convert durations to frames and back
package signal

import (
	"math"
	"time"
)

// Stereo is an interleaved two channel float32 signal: left, right, left...
type Stereo []float32

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed frames for this sample rate.
func DurationOf(sampleRate int, frames int64) time.Duration {
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// FramesOf returns number of frames that last the duration at this sample rate.
func FramesOf(sampleRate int, d time.Duration) int64 {
	return int64(math.Round(d.Seconds() * float64(sampleRate)))
}

// AsStereo converts interleaved int signal to stereo. Mono signals are copied
// to both channels, channels after the second are dropped.
func (ints InterInt) AsStereo() Stereo {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	frames := int(math.Ceil(float64(len(ints.Data)) / float64(ints.NumChannels)))
	floats := make(Stereo, frames*2)

	// determine the devider for bit depth conversion
	devider := float32(ints.BitDepth.devider())

	for i := 0; i < frames; i++ {
		pos := i * ints.NumChannels
		l := float32(ints.Data[pos]) / devider
		r := l
		if ints.NumChannels > 1 && pos+1 < len(ints.Data) {
			r = float32(ints.Data[pos+1]) / devider
		} else if ints.NumChannels > 1 {
			r = 0
		}
		floats[2*i] = l
		floats[2*i+1] = r
	}
	return floats
}

// AsInterInt converts stereo signal to interleaved int. Samples are clipped
// to [-1, 1] before conversion.
func (floats Stereo) AsInterInt(bitDepth BitDepth) InterInt {
	// determine the multiplier for bit depth conversion
	multiplier := float64(bitDepth.multiplier())

	ints := make([]int, len(floats))
	for i, v := range floats {
		ints[i] = int(clip(float64(v)) * multiplier)
	}
	return InterInt{
		Data:        ints,
		NumChannels: 2,
		BitDepth:    bitDepth,
	}
}

// Frames returns number of frames in the signal.
func (floats Stereo) Frames() int {
	return len(floats) / 2
}

// Frame returns the left and right samples of frame i.
func (floats Stereo) Frame(i int) (float32, float32) {
	return floats[2*i], floats[2*i+1]
}

// Slice returns frames from start with defined length. It's shortened if the
// signal doesn't have enough frames and nil if start is out of range.
func (floats Stereo) Slice(start int, len int) Stereo {
	if floats == nil || start >= floats.Frames() || start < 0 {
		return nil
	}
	end := start + len
	if end > floats.Frames() {
		end = floats.Frames()
	}
	return floats[2*start : 2*end]
}

// Silence sets all samples to zero.
func Silence(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

func clip(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	case math.IsNaN(v):
		return 0
	}
	return v
}
