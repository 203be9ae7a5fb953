// Package portaudio binds the virtual machine to a soundcard.
package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"pipelined.dev/basicdsp/vm"
)

// DefaultBufferSize is the number of frames per callback.
const DefaultBufferSize = 256

const numChannels = 2

// Info describes an audio device.
type Info struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

func (i Info) String() string {
	return fmt.Sprintf("%3d %s (%s) in: %d out: %d rate: %.f", i.Index, i.Name, i.HostAPI, i.MaxInputChannels, i.MaxOutputChannels, i.DefaultSampleRate)
}

// Devices lists available devices.
func Devices() ([]Info, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	defer portaudio.Terminate()
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(devices))
	for i, d := range devices {
		info := Info{
			Index:             i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Device is a duplex stereo device. Input and Output are indexes returned
// by Devices, -1 selects the default device. Input may be disabled with
// NoInput.
type Device struct {
	Input      int
	Output     int
	BufferSize int
}

// NoInput disables the input of the device.
const NoInput = -2

// NewDevice returns a device with default buffer size.
func NewDevice(input, output int) *Device {
	return &Device{
		Input:      input,
		Output:     output,
		BufferSize: DefaultBufferSize,
	}
}

// Open implements vm.Device. It initializes portaudio, which is terminated
// when the stream is closed.
func (d *Device) Open(sampleRate int, process vm.ProcessFunc) (vm.Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s, err := d.open(sampleRate, process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return s, nil
}

func (d *Device) open(sampleRate int, process vm.ProcessFunc) (*stream, error) {
	out, err := device(d.Output, portaudio.DefaultOutputDevice)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	var in *portaudio.DeviceInfo
	if d.Input != NoInput {
		if in, err = device(d.Input, portaudio.DefaultInputDevice); err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
	}
	params := portaudio.LowLatencyParameters(in, out)
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = d.BufferSize
	params.Output.Channels = numChannels
	var callback interface{}
	if in != nil {
		params.Input.Channels = numChannels
		callback = func(in, out []float32) {
			process(in, out)
		}
	} else {
		callback = func(out []float32) {
			process(nil, out)
		}
	}
	s, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, err
	}
	return &stream{s}, nil
}

func device(index int, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if index < 0 {
		return fallback()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if index >= len(devices) {
		return nil, fmt.Errorf("device %d not found", index)
	}
	return devices[index], nil
}

type stream struct {
	*portaudio.Stream
}

// Close stops the stream and terminates portaudio. Stop waits for the
// running callback to return.
func (s *stream) Close() error {
	defer portaudio.Terminate()
	if err := s.Stream.Stop(); err != nil {
		s.Stream.Close()
		return err
	}
	return s.Stream.Close()
}
