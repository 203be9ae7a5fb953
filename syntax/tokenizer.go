package syntax

import (
	"math"
	"strconv"

	"pipelined.dev/basicdsp/bytecode"
)

// keyword of the delay declaration.
const keyword = "delay"

type state int

const (
	begin state = iota
	comment
	ident
	integer
	fraction
	exponentSign
	exponent
)

// Tokenize converts the source into tokens. The result always ends with exactly
// one EOF token. Tokenization stops at the first malformed character.
func Tokenize(src string) ([]Token, error) {
	var (
		r      = NewReader(src)
		tokens []Token
		tok    Token
		text   []byte
		st     = begin
	)
	emit := func(k Kind) {
		tok.Kind = k
		tok.Text = string(text)
		tokens = append(tokens, tok)
		st = begin
	}
	for {
		c := r.Peek()
		end := r.AtEnd()
		switch st {
		case begin:
			if end {
				return append(tokens, Token{Kind: EOF, Pos: r.Pos()}), nil
			}
			tok = Token{Pos: r.Pos()}
			text = text[:0]
			switch {
			case c == ' ' || c == '\t' || c == '\r':
				r.Accept()
			case c == '%':
				r.Accept()
				st = comment
			case isAlpha(c):
				text = append(text, r.Accept())
				st = ident
			case isDigit(c):
				text = append(text, r.Accept())
				st = integer
			default:
				k, ok := punctuation[c]
				if !ok {
					return nil, lexError(r.Pos(), "unexpected character %q", c)
				}
				text = append(text, r.Accept())
				emit(k)
			}
		case comment:
			if end || c == '\n' {
				st = begin
				continue
			}
			r.Accept()
		case ident:
			if !end && (isAlpha(c) || isDigit(c) || c == '_') {
				text = append(text, r.Accept())
				continue
			}
			if string(text) == keyword {
				emit(Delay)
				continue
			}
			if f, ok := bytecode.LookupFunction(string(text)); ok {
				tok.Func = f
				emit(Function)
				continue
			}
			emit(Ident)
		case integer:
			switch {
			case !end && isDigit(c):
				text = append(text, r.Accept())
			case !end && c == '.':
				text = append(text, r.Accept())
				st = fraction
			default:
				if err := checkFloat(tok.Pos, text); err != nil {
					return nil, err
				}
				emit(Integer)
			}
		case fraction:
			switch {
			case !end && isDigit(c):
				text = append(text, r.Accept())
			case !end && (c == 'e' || c == 'E'):
				// the exponent is reported from its start
				r.Mark()
				text = append(text, r.Accept())
				st = exponentSign
			default:
				if err := checkFloat(tok.Pos, text); err != nil {
					return nil, err
				}
				emit(Float)
			}
		case exponentSign:
			switch {
			case !end && (c == '+' || c == '-'):
				text = append(text, r.Accept())
				if !isDigit(r.Peek()) {
					r.Rollback()
					return nil, lexError(r.Pos(), "malformed float exponent in %q", text)
				}
				st = exponent
			case !end && isDigit(c):
				st = exponent
			default:
				r.Rollback()
				return nil, lexError(r.Pos(), "malformed float exponent in %q", text)
			}
		case exponent:
			if !end && isDigit(c) {
				text = append(text, r.Accept())
				continue
			}
			r.Unmark()
			if err := checkFloat(tok.Pos, text); err != nil {
				return nil, err
			}
			emit(Float)
		}
	}
}

// checkFloat rejects literals that don't fit a finite float32.
func checkFloat(pos Pos, text []byte) error {
	v, err := strconv.ParseFloat(string(text), 32)
	if err != nil || math.IsInf(v, 0) {
		return lexError(pos, "literal %q out of range", text)
	}
	return nil
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
