package wav_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/basicdsp/signal"
	"pipelined.dev/basicdsp/wav"
)

func TestWriteLoad(t *testing.T) {
	tests := []struct {
		bitDepth  signal.BitDepth
		tolerance float64
	}{
		{bitDepth: signal.BitDepth16, tolerance: 1e-4},
		{bitDepth: signal.BitDepth24, tolerance: 1e-6},
		{bitDepth: signal.BitDepth32, tolerance: 1e-6},
	}
	in := signal.Stereo{0, 0, 0.5, -0.5, 0.25, -0.25, 1, -1}
	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "out.wav")
		w, err := wav.Create(path, 48000, test.bitDepth)
		require.NoError(t, err)
		require.NoError(t, w.Write(in[:4]))
		require.NoError(t, w.Write(in[4:]))
		require.NoError(t, w.Close())

		out, sampleRate, err := wav.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 48000, sampleRate)
		require.Len(t, out, len(in))
		for i := range in {
			assert.InDelta(t, in[i], out[i], test.tolerance, "bit depth %d sample %d", test.bitDepth, i)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	_, _, err := wav.Load(filepath.Join(t.TempDir(), "missing.wav"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, _, err = wav.Decode(bytes.NewReader([]byte("definitely not a riff file")))
	assert.Equal(t, wav.ErrInvalidFile, err)

	_, err = wav.Create(filepath.Join(t.TempDir(), "out.wav"), 44100, signal.BitDepth(12))
	assert.Equal(t, wav.ErrUnsupportedBitDepth, err)
}
