package compiler_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/basicdsp/bytecode"
	"pipelined.dev/basicdsp/compiler"
	"pipelined.dev/basicdsp/syntax"
)

func compile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	tokens, err := syntax.Tokenize(src)
	require.NoError(t, err)
	tree, err := syntax.Parse(tokens)
	require.NoError(t, err)
	p, err := compiler.Compile(tree)
	require.NoError(t, err)
	return p
}

func TestCompile(t *testing.T) {
	tests := []struct {
		src         string
		disassembly string
	}{
		{
			src:         "a = 1 + 2;",
			disassembly: "LOAD 1\nLOAD 2\nADD\nWRITE a\n",
		},
		{
			src:         "outl = inl; outr = inr;",
			disassembly: "READ inl\nWRITE outl\nREAD inr\nWRITE outr\n",
		},
		{
			src:         "x = -(a - 3.14) / pow(b, 0.5)",
			disassembly: "READ a\nLOAD 3.14\nSUB\nNEG\nREAD b\nLOAD 0.5\nPOW\nDIV\nWRITE x\n",
		},
		{
			src:         "delay d[4]; d = inl; outl = d[1 + 1];",
			disassembly: "READ inl\nWRITEDELAY d\nLOAD 1\nLOAD 1\nADD\nREADDELAY d\nWRITE outl\n",
		},
		{
			src:         "y = sin1(noise()) * atan2(1, 2)",
			disassembly: "NOISE\nSIN1\nLOAD 1\nLOAD 2\nATAN2\nMUL\nWRITE y\n",
		},
		{
			src:         "y = fir(inl, 0.5, 0.5) + biquad(inl, 1, 0, 0, 0, 0)",
			disassembly: "READ inl\nLOAD 0.5\nLOAD 0.5\nFIR 0\nREAD inl\nLOAD 1\nLOAD 0\nLOAD 0\nLOAD 0\nLOAD 0\nBIQUAD 1\nADD\nWRITE y\n",
		},
	}
	for _, test := range tests {
		p := compile(t, test.src)
		assert.Equal(t, test.disassembly, p.String(), test.src)
		assert.NotEmpty(t, p.ID)
	}
}

func TestCompileFilters(t *testing.T) {
	p := compile(t, "y = fir(inl, 1) + biquad(inl, 1, 0, 0, 1, 0, 0) + biquad(y, 1, 0, 0, 0, 0)\nz = firsymodd(y, 1, 2) + firsymeven(y, 1)")
	assert.Equal(t, []bytecode.Filter{
		{Kind: bytecode.FIRFilter, Coefficients: 1},
		{Kind: bytecode.BiquadFilter, Coefficients: 6},
		{Kind: bytecode.BiquadFilter, Coefficients: 5},
		{Kind: bytecode.FIRFilter, Coefficients: 2, Symmetry: bytecode.SymmetricOdd},
		{Kind: bytecode.FIRFilter, Coefficients: 1, Symmetry: bytecode.SymmetricEven},
	}, p.Filters)
}

func TestCompileInstructions(t *testing.T) {
	p := compile(t, "a = 0.25")
	require.Len(t, p.Code, 3)
	assert.Equal(t, bytecode.Literal, p.Code[0].Opcode())
	assert.False(t, p.Code[0].IsParameterized())
	assert.Equal(t, float32(0.25), p.Code[1].Float())
	assert.True(t, p.Code[2].IsParameterized())
	assert.Equal(t, bytecode.WriteVar, p.Code[2].Opcode())
	assert.Equal(t, 0, p.Code[2].Operand())
	depth, err := p.Validate()
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestCompileFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		tree *syntax.Tree
	}{
		{
			name: "nil tree",
		},
		{
			name: "index out of range",
			tree: &syntax.Tree{
				Stmts: []syntax.Node{&syntax.Assign{Var: 1, Expr: &syntax.Literal{Value: 1}}},
				Vars:  bytecode.Variables{{Name: "a"}},
			},
		},
		{
			name: "read of a delay",
			tree: &syntax.Tree{
				Stmts: []syntax.Node{&syntax.Assign{Var: 1, Expr: &syntax.VarRef{Var: 0}}},
				Vars:  bytecode.Variables{{Name: "d", Kind: bytecode.Delay, Length: 2}, {Name: "a"}},
			},
		},
		{
			name: "delay lookup of a scalar",
			tree: &syntax.Tree{
				Stmts: []syntax.Node{&syntax.Assign{Var: 0, Expr: &syntax.DelayLookup{Var: 0, Index: &syntax.Literal{}}}},
				Vars:  bytecode.Variables{{Name: "a"}},
			},
		},
		{
			name: "invalid operator",
			tree: &syntax.Tree{
				Stmts: []syntax.Node{&syntax.Assign{Var: 0, Expr: &syntax.Binary{
					Op:    bytecode.Sin,
					Left:  &syntax.Literal{},
					Right: &syntax.Literal{},
				}}},
				Vars: bytecode.Variables{{Name: "a"}},
			},
		},
		{
			name: "wrong arity",
			tree: &syntax.Tree{
				Stmts: []syntax.Node{&syntax.Assign{Var: 0, Expr: &syntax.Call{Func: &bytecode.Functions[0]}}},
				Vars:  bytecode.Variables{{Name: "a"}},
			},
		},
	}
	for _, test := range tests {
		p, err := compiler.Compile(test.tree)
		assert.Nil(t, p, test.name)
		assert.True(t, errors.Is(err, compiler.ErrCompile), test.name)
	}
}
