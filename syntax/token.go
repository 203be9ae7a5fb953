package syntax

import (
	"fmt"

	"pipelined.dev/basicdsp/bytecode"
)

// Kind is the kind of a token.
type Kind uint8

// Token kinds.
const (
	Illegal Kind = iota
	EOF
	Newline
	Integer
	Float
	Ident
	Function
	Delay
	Plus
	Minus
	Star
	Slash
	Equal
	LParen
	RParen
	LBrack
	RBrack
	Comma
	Semicolon
)

var kinds = [...]string{
	Illegal:   "illegal",
	EOF:       "end of input",
	Newline:   "newline",
	Integer:   "integer",
	Float:     "float",
	Ident:     "identifier",
	Function:  "function",
	Delay:     "delay",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Equal:     "=",
	LParen:    "(",
	RParen:    ")",
	LBrack:    "[",
	RBrack:    "]",
	Comma:     ",",
	Semicolon: ";",
}

func (k Kind) String() string {
	if int(k) < len(kinds) {
		return kinds[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// punctuation maps single characters to their token kinds.
var punctuation = map[byte]Kind{
	'+':  Plus,
	'-':  Minus,
	'*':  Star,
	'/':  Slash,
	'=':  Equal,
	'(':  LParen,
	')':  RParen,
	'[':  LBrack,
	']':  RBrack,
	',':  Comma,
	';':  Semicolon,
	'\n': Newline,
}

// Token is a lexical unit. Func is set for Function tokens only.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
	Func *bytecode.Function
}

func (t Token) String() string {
	switch t.Kind {
	case Integer, Float, Ident, Function:
		return fmt.Sprintf("%v %q", t.Kind, t.Text)
	case Newline, EOF:
		return t.Kind.String()
	}
	return fmt.Sprintf("%q", t.Text)
}
