// Package wav loads wav files into stereo signals and writes stereo signals
// into wav files.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/basicdsp/signal"
)

const pcmFormat = 1

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when the input is not a valid wav file.
	ErrInvalidFile = errors.New("wav is not valid")
)

func supported(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth8, signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// Load decodes the whole file. It returns the signal and its sample rate.
func Load(path string) (signal.Stereo, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()
	s, sampleRate, err := Decode(file)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return s, sampleRate, nil
}

// Decode reads all samples from r.
func Decode(r io.ReadSeeker) (signal.Stereo, int, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, 0, ErrInvalidFile
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, 0, ErrUnsupportedBitDepth
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	s := signal.InterInt{
		Data:        buf.Data,
		NumChannels: int(decoder.NumChans),
		BitDepth:    bitDepth,
	}.AsStereo()
	return s, int(decoder.SampleRate), nil
}

// Writer encodes stereo signal into a wav file.
type Writer struct {
	file     *os.File
	encoder  *wav.Encoder
	bitDepth signal.BitDepth
	ib       *audio.IntBuffer
}

// Create creates the file and writes the wav header.
func Create(path string, sampleRate int, bitDepth signal.BitDepth) (*Writer, error) {
	if bitDepth == signal.BitDepth8 || !supported(bitDepth) {
		return nil, ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file:     f,
		encoder:  wav.NewEncoder(f, sampleRate, int(bitDepth), 2, pcmFormat),
		bitDepth: bitDepth,
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 2,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Write appends the signal.
func (w *Writer) Write(s signal.Stereo) error {
	w.ib.Data = s.AsInterInt(w.bitDepth).Data
	return w.encoder.Write(w.ib)
}

// Close flushes encoder and closes the file.
func (w *Writer) Close() error {
	if err := w.encoder.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
