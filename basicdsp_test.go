package basicdsp_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/basicdsp"
	"pipelined.dev/basicdsp/bytecode"
	"pipelined.dev/basicdsp/compiler"
	"pipelined.dev/basicdsp/syntax"
)

var programs = []string{
	"a = 1 + 2;",
	"outl = inl; outr = inr;",
	"x = 1/0",
	"out = (inl + inr) * slider1 - -slider2 / 3",
	"phase = mod1(phase + 440/samplerate)\noutl = sin1(phase) * 0.25\noutr = cos1(phase)",
	"y = tanh(pow(inl, 2) * 1.5e-3) + atan2(inr, 0.001) + limit(sign(abs(x)))",
	"z = round(trunc(ceil(floor(sqrt(tan(cos(sin(noise()))))))))",
	"lp = fir(inl, 0.25, 0.5, 0.25); hp = biquad(inr, 1, -1.5, 0.6, 0.1, 0.2, 0.3)",
	"s = firsymodd(inl, 0.25, 0.5) - firsymeven(inr, 0.5)",
	"big = 16777216 * 1.0e+20 + 0.000001",
}

func TestSourceIsIdempotent(t *testing.T) {
	for _, src := range programs {
		p, err := basicdsp.Compile(src)
		require.NoError(t, err, src)
		canonical, err := bytecode.Source(p)
		require.NoError(t, err, src)
		again, err := basicdsp.Compile(canonical)
		require.NoError(t, err, canonical)
		assert.Equal(t, p.Code, again.Code, canonical)
		assert.Equal(t, p.Vars, again.Vars, canonical)
		assert.Equal(t, p.Filters, again.Filters, canonical)
		// the canonical form is a fixed point
		twice, err := bytecode.Source(again)
		require.NoError(t, err)
		assert.Equal(t, canonical, twice)
	}
}

func TestSourceWithDelays(t *testing.T) {
	p := basicdsp.MustCompile("delay d[4]\nd = inl\noutl = d[1]")
	src, err := bytecode.Source(p)
	require.NoError(t, err)
	assert.Equal(t, "delay d[4]\nd = inl\noutl = d[1]\n", src)
	again, err := basicdsp.Compile(src)
	require.NoError(t, err)
	assert.Equal(t, p.Code, again.Code)
}

func TestLine(t *testing.T) {
	tests := []struct {
		src  string
		kind error
		line int
	}{
		{src: "a = 1\nb = #", kind: syntax.ErrLex, line: 2},
		{src: "a = 1\n\nb = sin(1, 2)", kind: syntax.ErrParse, line: 3},
		{src: "delay d[0]", kind: syntax.ErrParse, line: 1},
		{src: "a = 1 +", kind: syntax.ErrParse, line: 1},
	}
	for _, test := range tests {
		p, err := basicdsp.Compile(test.src)
		assert.Nil(t, p)
		assert.True(t, errors.Is(err, test.kind), test.src)
		line, ok := basicdsp.Line(err)
		assert.True(t, ok)
		assert.Equal(t, test.line, line, test.src)
	}

	_, ok := basicdsp.Line(errors.New("no position"))
	assert.False(t, ok)
	line, ok := basicdsp.Line(&compiler.Error{Pos: syntax.Pos{Line: 4, Col: 1}})
	assert.True(t, ok)
	assert.Equal(t, 4, line)
}

func TestDescribe(t *testing.T) {
	_, err := basicdsp.Compile("a = 1\nb = #")
	d := basicdsp.Describe(err)
	assert.True(t, strings.HasPrefix(d, "line 2: "), d)
	assert.Contains(t, d, "#")

	_, err = basicdsp.Compile("a = 1 +")
	assert.Equal(t, "line 1: unexpected end of input", basicdsp.Describe(err))

	assert.Equal(t, "no position", basicdsp.Describe(errors.New("no position")))
}

func TestMustCompile(t *testing.T) {
	assert.Panics(t, func() { basicdsp.MustCompile("a = ") })
	assert.NotPanics(t, func() { basicdsp.MustCompile("a = 1") })
}
