package main

import (
	"flag"
	"fmt"
	"io"

	"pipelined.dev/basicdsp/portaudio"
)

type listCommand struct {
	out io.Writer
}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the list of available audio devices"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {}

func (cmd *listCommand) Run() error {
	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.out, "Available devices:")
	for _, d := range devices {
		fmt.Fprintln(cmd.out, d)
	}
	return nil
}
