package basicdsp

import (
	"errors"
	"fmt"

	"pipelined.dev/basicdsp/compiler"
	"pipelined.dev/basicdsp/syntax"
)

// Line returns the 1-based source line of a compilation error. It returns
// false if the error doesn't carry a position.
func Line(err error) (int, bool) {
	var (
		serr *syntax.Error
		cerr *compiler.Error
	)
	switch {
	case errors.As(err, &serr):
		return serr.Line(), serr.Pos.IsValid()
	case errors.As(err, &cerr):
		return cerr.Line(), cerr.Pos.IsValid()
	}
	return 0, false
}

// Describe formats a compilation error as "line N: message". Errors without
// a position are formatted as is.
func Describe(err error) string {
	var (
		serr *syntax.Error
		cerr *compiler.Error
	)
	switch {
	case errors.As(err, &serr) && serr.Pos.IsValid():
		return fmt.Sprintf("line %d: %s", serr.Line(), serr.Msg)
	case errors.As(err, &cerr) && cerr.Pos.IsValid():
		return fmt.Sprintf("line %d: %s", cerr.Line(), cerr.Msg)
	}
	return err.Error()
}
