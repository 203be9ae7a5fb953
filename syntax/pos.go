// Package syntax implements the front-end of the language: a position tracking
// reader, the tokenizer and a backtracking recursive-descent parser producing
// an AST and the variable table.
package syntax

import "fmt"

// Pos is a position in the source text.
// Line and Col are 1-based, Offset is the 0-based byte offset.
type Pos struct {
	Line   int
	Col    int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// IsValid reports whether the position points into a source.
func (p Pos) IsValid() bool {
	return p.Line > 0
}
