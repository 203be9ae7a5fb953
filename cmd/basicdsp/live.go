package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"pipelined.dev/basicdsp/log"
	"pipelined.dev/basicdsp/metric"
	"pipelined.dev/basicdsp/monitor"
	"pipelined.dev/basicdsp/portaudio"
	"pipelined.dev/basicdsp/ringbuf"
	"pipelined.dev/basicdsp/vm"
)

const prompt = "basicdsp> "

type liveCommand struct {
	out        io.Writer
	program    string
	input      int
	output     int
	sampleRate int
	bufferSize int
	monitor    string
}

func (cmd *liveCommand) Name() string {
	return "live"
}

func (cmd *liveCommand) Help() string {
	return "Run a program on the soundcard with an interactive prompt"
}

func (cmd *liveCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.program, "program", "", "program file to run (required)")
	fs.IntVar(&cmd.input, "in", -1, "input device index, -1 for default, -2 for none")
	fs.IntVar(&cmd.output, "out", -1, "output device index, -1 for default")
	fs.IntVar(&cmd.sampleRate, "rate", vm.DefaultSampleRate, "sample rate")
	fs.IntVar(&cmd.bufferSize, "buffer", portaudio.DefaultBufferSize, "frames per callback")
	fs.StringVar(&cmd.monitor, "monitor", "", "address to serve monitor websocket on, e.g. :8080")
}

func (cmd *liveCommand) Run() error {
	p, err := compileProgram(cmd.program)
	if err != nil {
		return err
	}
	logger := log.GetLogger()
	device := portaudio.NewDevice(cmd.input, cmd.output)
	device.BufferSize = cmd.bufferSize
	m := vm.New(device, vm.WithSampleRate(cmd.sampleRate), vm.WithLogger(logger))
	if err := m.LoadProgram(p); err != nil {
		return err
	}
	if err := m.Start(); err != nil {
		return err
	}
	defer m.Stop()

	if cmd.monitor != "" {
		stop, err := serveMonitor(cmd.monitor, m, logger)
		if err != nil {
			return err
		}
		defer stop()
		fmt.Fprintf(cmd.out, "monitor on ws://%s/monitor\n", cmd.monitor)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	c := &console{m: m, out: cmd.out, program: cmd.program}
	fmt.Fprintln(cmd.out, "type help for commands")
	for {
		line, err := ln.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		quit, err := c.exec(line)
		if err != nil {
			fmt.Fprintln(cmd.out, err)
		}
		if quit {
			return nil
		}
	}
}

// serveMonitor starts the websocket server. The returned function stops it.
func serveMonitor(addr string, m *vm.Machine, logger log.Logger) (func(), error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := monitor.New([]*ringbuf.Buffer{m.Tap(0), m.Tap(1)}, monitor.WithLogger(logger))
	mux := http.NewServeMux()
	mux.Handle("/monitor", srv)
	httpServer := &http.Server{Handler: mux}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{}, 2)
	go func() {
		srv.Run(ctx)
		done <- struct{}{}
	}()
	go func() {
		if err := httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Info("monitor: ", err)
		}
		done <- struct{}{}
	}()
	return func() {
		cancel()
		shutdown, stop := context.WithTimeout(context.Background(), time.Second)
		defer stop()
		httpServer.Shutdown(shutdown)
		<-done
		<-done
	}, nil
}

// console executes the commands of the interactive prompt.
type console struct {
	m       *vm.Machine
	out     io.Writer
	program string
}

const consoleHelp = `commands:
	slider N V          set sliderN (1-4) to V
	source KIND [PATH]  select input: device, sine, quadsine, noise, impulse, wav
	freq HZ             set frequency of sine sources
	monitor PAIR SIDE VAR
	                    record VAR in side (1-2) of monitor pair (1-2)
	reload              compile the program file again and restart
	vu                  print input levels
	dump                print program bytecode
	stats               print machine counters
	start, stop         start or stop the soundcard
	quit                exit`

var errUsage = errors.New("usage")

func (c *console) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	args := fields[1:]
	switch fields[0] {
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
	case "slider":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: slider N V", errUsage)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		v, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return false, err
		}
		return false, c.m.SetSlider(n-1, float32(v))
	case "source":
		if len(args) < 1 || len(args) > 2 {
			return false, fmt.Errorf("%w: source KIND [PATH]", errUsage)
		}
		s, err := vm.ParseSource(args[0])
		if err != nil {
			return false, err
		}
		if len(args) == 2 {
			if err := c.m.SetAudioFile(args[1]); err != nil {
				return false, err
			}
		}
		return false, c.m.SetSource(s)
	case "freq":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: freq HZ", errUsage)
		}
		hz, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, err
		}
		c.m.SetFrequency(hz)
	case "monitor":
		if len(args) != 3 {
			return false, fmt.Errorf("%w: monitor PAIR SIDE VAR", errUsage)
		}
		pair, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		side, err := strconv.Atoi(args[1])
		if err != nil {
			return false, err
		}
		if !c.m.SetMonitoringVariable(pair-1, side-1, args[2]) {
			fmt.Fprintf(c.out, "%s isn't monitored now\n", args[2])
		}
	case "reload":
		p, err := compileProgram(c.program)
		if err != nil {
			return false, err
		}
		if err := c.m.LoadProgram(p); err != nil {
			return false, err
		}
		return false, c.m.Start()
	case "vu":
		l, r := c.m.VU()
		fmt.Fprintf(c.out, "L %6.1f dB  R %6.1f dB\n", decibels(l), decibels(r))
	case "dump":
		return false, c.m.Dump(c.out)
	case "stats":
		values := metric.Get(c.m.Name())
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(c.out, "%s: %v\n", c.m.Name(), c.m.State())
		for _, name := range names {
			fmt.Fprintf(c.out, "\t%s: %s\n", name, values[name])
		}
	case "start":
		return false, c.m.Start()
	case "stop":
		c.m.Stop()
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, type help", fields[0])
	}
	return false, nil
}

func decibels(v float32) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(v))
}
