package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"pipelined.dev/basicdsp/log"
	"pipelined.dev/basicdsp/metric"
	"pipelined.dev/basicdsp/signal"
	"pipelined.dev/basicdsp/vm"
	"pipelined.dev/basicdsp/wav"
)

const renderBufferSize = 512

type renderCommand struct {
	out        io.Writer
	program    string
	in         string
	output     string
	bitDepth   int
	source     string
	frequency  float64
	duration   time.Duration
	sampleRate int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Run a program offline and save the output to a wav file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.program, "program", "", "program file to run (required)")
	fs.StringVar(&cmd.in, "in", "", "input wav file, required for device source")
	fs.StringVar(&cmd.output, "out", "", "output wav file (required)")
	fs.IntVar(&cmd.bitDepth, "bitdepth", int(signal.BitDepth16), "bit depth of the output: 16, 24 or 32")
	fs.StringVar(&cmd.source, "source", vm.SourceDevice.String(), "input source: device, sine, quadsine, noise, impulse or wav")
	fs.Float64Var(&cmd.frequency, "freq", 440, "frequency of sine sources in Hz")
	fs.DurationVar(&cmd.duration, "duration", time.Second, "duration when there's no input file")
	fs.IntVar(&cmd.sampleRate, "rate", vm.DefaultSampleRate, "sample rate when there's no input file")
}

// Validate checks the flags.
func (cmd *renderCommand) Validate() error {
	var missing []string
	if cmd.program == "" {
		missing = append(missing, "Missing -program required flag")
	}
	if cmd.output == "" {
		missing = append(missing, "Missing -out required flag")
	}
	if cmd.in == "" && (cmd.source == vm.SourceDevice.String() || cmd.source == vm.SourceWav.String()) {
		missing = append(missing, "Missing -in required flag")
	}
	if len(missing) > 0 {
		return errors.New(strings.Join(missing, "\n"))
	}
	return nil
}

func (cmd *renderCommand) Run() error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	source, err := vm.ParseSource(cmd.source)
	if err != nil {
		return err
	}
	p, err := compileProgram(cmd.program)
	if err != nil {
		return err
	}

	var input signal.Stereo
	sampleRate := cmd.sampleRate
	if cmd.in != "" {
		if input, sampleRate, err = wav.Load(cmd.in); err != nil {
			return err
		}
	}
	frames := input.Frames()
	if source != vm.SourceDevice || cmd.in == "" {
		frames = int(signal.FramesOf(sampleRate, cmd.duration))
	}

	m := vm.New(vm.Offline, vm.WithSampleRate(sampleRate), vm.WithLogger(log.GetLogger()))
	if err := m.LoadProgram(p); err != nil {
		return err
	}
	m.SetFrequency(cmd.frequency)
	if source == vm.SourceWav {
		if err := m.SetAudioFile(cmd.in); err != nil {
			return err
		}
	}
	if err := m.SetSource(source); err != nil {
		return err
	}
	if err := m.Start(); err != nil {
		return err
	}
	defer m.Stop()

	w, err := wav.Create(cmd.output, sampleRate, signal.BitDepth(cmd.bitDepth))
	if err != nil {
		return err
	}
	buf := make([]float32, 2*renderBufferSize)
	for start := 0; start < frames; start += renderBufferSize {
		n := renderBufferSize
		if start+n > frames {
			n = frames - start
		}
		out := buf[:2*n]
		m.Process(input.Slice(start, n), out)
		if err := w.Write(out); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	values := metric.Get(m.Name())
	fmt.Fprintf(cmd.out, "rendered %d frames (%s) to %s, overflows: %s\n",
		frames, signal.DurationOf(sampleRate, int64(frames)), cmd.output, values[metric.OverflowCounter])
	return nil
}
