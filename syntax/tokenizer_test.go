package syntax_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/basicdsp/bytecode"
	"pipelined.dev/basicdsp/syntax"
)

func kindsOf(tokens []syntax.Token) []syntax.Kind {
	kinds := make([]syntax.Kind, 0, len(tokens))
	for _, t := range tokens {
		kinds = append(kinds, t.Kind)
	}
	return kinds
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		src   string
		kinds []syntax.Kind
		texts []string
	}{
		{
			src:   "",
			kinds: []syntax.Kind{syntax.EOF},
			texts: []string{""},
		},
		{
			src:   "a = 1 + 2;",
			kinds: []syntax.Kind{syntax.Ident, syntax.Equal, syntax.Integer, syntax.Plus, syntax.Integer, syntax.Semicolon, syntax.EOF},
			texts: []string{"a", "=", "1", "+", "2", ";", ""},
		},
		{
			src:   "outl = sin(inl*2)\n",
			kinds: []syntax.Kind{syntax.Ident, syntax.Equal, syntax.Function, syntax.LParen, syntax.Ident, syntax.Star, syntax.Integer, syntax.RParen, syntax.Newline, syntax.EOF},
			texts: []string{"outl", "=", "sin", "(", "inl", "*", "2", ")", "\n", ""},
		},
		{
			src:   "delay d[4] % comment ; = ( \nd_1",
			kinds: []syntax.Kind{syntax.Delay, syntax.Ident, syntax.LBrack, syntax.Integer, syntax.RBrack, syntax.Newline, syntax.Ident, syntax.EOF},
			texts: []string{"delay", "d", "[", "4", "]", "\n", "d_1", ""},
		},
		{
			src:   "x=-1.5e-3/2.E4,1.",
			kinds: []syntax.Kind{syntax.Ident, syntax.Equal, syntax.Minus, syntax.Float, syntax.Slash, syntax.Float, syntax.Comma, syntax.Float, syntax.EOF},
			texts: []string{"x", "=", "-", "1.5e-3", "/", "2.E4", ",", "1.", ""},
		},
		{
			src:   "\t Sin sine noise\r\n",
			kinds: []syntax.Kind{syntax.Ident, syntax.Ident, syntax.Function, syntax.Newline, syntax.EOF},
			texts: []string{"Sin", "sine", "noise", "\n", ""},
		},
		{
			src:   "% only a comment",
			kinds: []syntax.Kind{syntax.EOF},
			texts: []string{""},
		},
	}
	for _, test := range tests {
		tokens, err := syntax.Tokenize(test.src)
		require.NoError(t, err, test.src)
		assert.Equal(t, test.kinds, kindsOf(tokens), test.src)
		texts := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			texts = append(texts, tok.Text)
		}
		assert.Equal(t, test.texts, texts, test.src)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "=", syntax.Equal.String())
	assert.Equal(t, "end of input", syntax.EOF.String())
	assert.Equal(t, "kind(200)", syntax.Kind(200).String())
}

func TestTokenizeFunctions(t *testing.T) {
	for _, f := range bytecode.Functions {
		tokens, err := syntax.Tokenize(f.Name)
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		assert.Equal(t, syntax.Function, tokens[0].Kind)
		require.NotNil(t, tokens[0].Func)
		assert.Equal(t, f.Op, tokens[0].Func.Op)
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens, err := syntax.Tokenize("a = 1\n  b = 2")
	require.NoError(t, err)
	expected := []syntax.Pos{
		{Line: 1, Col: 1, Offset: 0},
		{Line: 1, Col: 3, Offset: 2},
		{Line: 1, Col: 5, Offset: 4},
		{Line: 1, Col: 6, Offset: 5},
		{Line: 2, Col: 3, Offset: 8},
		{Line: 2, Col: 5, Offset: 10},
		{Line: 2, Col: 7, Offset: 12},
		{Line: 2, Col: 8, Offset: 13},
	}
	require.Len(t, tokens, len(expected))
	for i, tok := range tokens {
		assert.Equal(t, expected[i], tok.Pos, tok.String())
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		src string
		pos syntax.Pos
	}{
		{src: "a = 1 # 2", pos: syntax.Pos{Line: 1, Col: 7, Offset: 6}},
		{src: "a = 1\nb = $", pos: syntax.Pos{Line: 2, Col: 5, Offset: 10}},
		{src: "a = 1.5e", pos: syntax.Pos{Line: 1, Col: 8, Offset: 7}},
		{src: "a = 1.5e+x", pos: syntax.Pos{Line: 1, Col: 8, Offset: 7}},
		{src: "a = 1.0e39", pos: syntax.Pos{Line: 1, Col: 5, Offset: 4}},
		{src: "a = 1\x00", pos: syntax.Pos{Line: 1, Col: 6, Offset: 5}},
	}
	for _, test := range tests {
		tokens, err := syntax.Tokenize(test.src)
		assert.Nil(t, tokens)
		require.Error(t, err, test.src)
		assert.True(t, errors.Is(err, syntax.ErrLex), test.src)
		var serr *syntax.Error
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, test.pos, serr.Pos, test.src)
		assert.Equal(t, test.pos.Line, serr.Line())
	}
}

func TestReaderRollback(t *testing.T) {
	r := syntax.NewReader("ab\nc")
	assert.Equal(t, byte('a'), r.Accept())
	r.Mark()
	assert.Equal(t, byte('b'), r.Accept())
	assert.Equal(t, byte('\n'), r.Accept())
	assert.Equal(t, syntax.Pos{Line: 2, Col: 1, Offset: 3}, r.Pos())
	assert.True(t, r.Rollback())
	assert.Equal(t, syntax.Pos{Line: 1, Col: 2, Offset: 1}, r.Pos())
	assert.False(t, r.Rollback())
	r.Accept()
	r.Accept()
	assert.Equal(t, byte('c'), r.Accept())
	assert.True(t, r.AtEnd())
	assert.Equal(t, byte(0), r.Accept())
	assert.Equal(t, byte(0), r.Peek())
}
