package main

import (
	"flag"
	"fmt"
	"io"

	"pipelined.dev/basicdsp/bytecode"
)

type compileCommand struct {
	out     io.Writer
	program string
	source  bool
}

func (cmd *compileCommand) Name() string {
	return "compile"
}

func (cmd *compileCommand) Help() string {
	return "Compile a program and print its bytecode"
}

func (cmd *compileCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.program, "program", "", "program file to compile (required)")
	fs.BoolVar(&cmd.source, "source", false, "print source reconstructed from bytecode instead")
}

func (cmd *compileCommand) Run() error {
	p, err := compileProgram(cmd.program)
	if err != nil {
		return err
	}
	if cmd.source {
		src, err := bytecode.Source(p)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.out, src)
		return err
	}
	return p.Disassemble(cmd.out)
}
