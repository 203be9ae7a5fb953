package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"pipelined.dev/basicdsp"
	"pipelined.dev/basicdsp/bytecode"
)

type config struct {
	args   []string
	stdout io.Writer
	stderr io.Writer
}

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

func (config *config) run() int {
	cmdName, args := parseArgs(config.args)
	if cmdName == "" {
		printUsage(config.stdout)
		return errorExitCode
	}

	for _, cmd := range commands {
		if cmd.Name() == cmdName {
			flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
			flags.SetOutput(config.stderr)
			cmd.Register(flags)
			if err := flags.Parse(args); err != nil {
				return errorExitCode
			}
			if err := cmd.Run(); err != nil {
				fmt.Fprintln(config.stderr, err)
				return errorExitCode
			}
			return successExitCode
		}
	}
	fmt.Fprintf(config.stderr, "unknown command %q\n", cmdName)
	printUsage(config.stdout)
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        []command
)

func newCommands(stdout io.Writer) []command {
	return []command{
		&listCommand{out: stdout},
		&compileCommand{out: stdout},
		&renderCommand{out: stdout},
		&liveCommand{out: stdout},
	}
}

func main() {
	commands = newCommands(os.Stdout)
	c := config{
		args:   os.Args,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	os.Exit(c.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "basicdsp compiles and runs per-sample audio programs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: basicdsp <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

// compileProgram reads and compiles the program. Compilation errors are
// formatted as "line N: message".
func compileProgram(path string) (*bytecode.Program, error) {
	if path == "" {
		return nil, errors.New("missing -program required flag")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := basicdsp.Compile(string(src))
	if err != nil {
		return nil, errors.New(basicdsp.Describe(err))
	}
	return p, nil
}
