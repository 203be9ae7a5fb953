package basicdsp

import (
	"fmt"

	"pipelined.dev/basicdsp/bytecode"
	"pipelined.dev/basicdsp/compiler"
	"pipelined.dev/basicdsp/syntax"
)

// Compile tokenizes, parses and compiles the source. Errors wrap one of
// syntax.ErrLex, syntax.ErrParse and compiler.ErrCompile.
func Compile(src string) (*bytecode.Program, error) {
	tokens, err := syntax.Tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	tree, err := syntax.Parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	p, err := compiler.Compile(tree)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *bytecode.Program {
	p, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("basicdsp: %v", err))
	}
	return p
}
