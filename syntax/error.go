package syntax

import (
	"errors"
	"fmt"
)

var (
	// ErrLex is the kind of errors raised by the tokenizer.
	ErrLex = errors.New("lex error")
	// ErrParse is the kind of errors raised by the parser.
	ErrParse = errors.New("parse error")
)

// Error is a positioned error of the front-end. Kind is either ErrLex or ErrParse.
type Error struct {
	Pos  Pos
	Msg  string
	Kind error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v: %s", e.Pos, e.Kind, e.Msg)
}

// Unwrap returns the kind of the error.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Line returns the 1-based line of the error.
func (e *Error) Line() int {
	return e.Pos.Line
}

func lexError(pos Pos, format string, args ...interface{}) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...), Kind: ErrLex}
}

func parseError(pos Pos, format string, args ...interface{}) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...), Kind: ErrParse}
}
