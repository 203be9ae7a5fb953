package vm

// ProcessFunc is the audio callback. Both buffers hold interleaved stereo
// frames. in may be shorter than out or nil when the device has no input.
type ProcessFunc func(in, out []float32)

// Device opens audio streams.
type Device interface {
	Open(sampleRate int, process ProcessFunc) (Stream, error)
}

// Stream is an opened audio stream. Close must not return before the last
// callback returned.
type Stream interface {
	Start() error
	Close() error
}

// Offline is a device without a clock. The caller drives Machine.Process
// directly, for example to render a file.
var Offline Device = offline{}

type offline struct{}

func (offline) Open(int, ProcessFunc) (Stream, error) {
	return offlineStream{}, nil
}

type offlineStream struct{}

func (offlineStream) Start() error { return nil }

func (offlineStream) Close() error { return nil }
