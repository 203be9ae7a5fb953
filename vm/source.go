package vm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"pipelined.dev/basicdsp/signal"
)

// Source selects the input signal of the machine.
type Source int

// Input sources.
const (
	SourceDevice Source = iota
	SourceSine
	SourceQuadSine
	SourceNoise
	SourceImpulse
	SourceWav
)

var sourceNames = []string{
	SourceDevice:   "device",
	SourceSine:     "sine",
	SourceQuadSine: "quadsine",
	SourceNoise:    "noise",
	SourceImpulse:  "impulse",
	SourceWav:      "wav",
}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return sourceNames[s]
}

// ParseSource returns the source with the given name.
func ParseSource(name string) (Source, error) {
	for i, n := range sourceNames {
		if n == name {
			return Source(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSource, name)
}

// impulses per second of the impulse source
const impulseRate = 10

// generator produces the input frames for every source but the device.
type generator struct {
	source    Source
	frequency float64
	phase     float64
	countdown int
	rng       *rand.Rand
	wav       signal.Stereo
	wavPos    int
}

func (g *generator) reset() {
	g.phase = 0
	g.countdown = 0
	g.wavPos = 0
}

// next returns the input frame. l and r are the device input.
func (g *generator) next(sampleRate int, l, r float32) (float32, float32) {
	switch g.source {
	case SourceSine:
		v := float32(math.Cos(2 * math.Pi * g.phase))
		g.advance(sampleRate)
		return v, v
	case SourceQuadSine:
		s, c := math.Sincos(2 * math.Pi * g.phase)
		g.advance(sampleRate)
		return float32(c), float32(s)
	case SourceNoise:
		return noise(g.rng), noise(g.rng)
	case SourceImpulse:
		var v float32
		if g.countdown <= 0 {
			v = 1
			g.countdown = int(math.Round(float64(sampleRate) / impulseRate))
		}
		g.countdown--
		return v, v
	case SourceWav:
		frames := g.wav.Frames()
		if frames == 0 {
			return 0, 0
		}
		if g.wavPos >= frames {
			g.wavPos = 0
		}
		l, r := g.wav.Frame(g.wavPos)
		g.wavPos++
		return l, r
	}
	return l, r
}

func (g *generator) advance(sampleRate int) {
	if sampleRate <= 0 {
		return
	}
	g.phase += g.frequency / float64(sampleRate)
	g.phase -= math.Floor(g.phase)
}

