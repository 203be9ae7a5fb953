// Package compiler turns a parsed tree into bytecode. Code is emitted in
// post-order, so operands always precede their operator.
package compiler

import (
	"errors"
	"fmt"

	"pipelined.dev/basicdsp/bytecode"
	"pipelined.dev/basicdsp/syntax"
)

// ErrCompile is the kind of all compiler errors. They indicate a tree that
// doesn't satisfy the parser invariants.
var ErrCompile = errors.New("compile error")

// Error is a compiler error positioned at the offending node.
type Error struct {
	Pos syntax.Pos
	Msg string
}

func (e *Error) Error() string {
	if !e.Pos.IsValid() {
		return fmt.Sprintf("%v: %s", ErrCompile, e.Msg)
	}
	return fmt.Sprintf("%v: %v: %s", e.Pos, ErrCompile, e.Msg)
}

// Unwrap returns ErrCompile.
func (e *Error) Unwrap() error {
	return ErrCompile
}

// Line returns the 1-based line of the error or 0 if unknown.
func (e *Error) Line() int {
	return e.Pos.Line
}

func errorf(n syntax.Node, format string, args ...interface{}) error {
	e := &Error{Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Pos = n.Pos()
	}
	return e
}

type compiler struct {
	vars    bytecode.Variables
	code    []bytecode.Instruction
	filters []bytecode.Filter
}

// Compile emits the code of all statements. The variable table is copied
// into the program unmodified, its order defines the operands.
func Compile(tree *syntax.Tree) (*bytecode.Program, error) {
	if tree == nil {
		return nil, errorf(nil, "no tree")
	}
	if len(tree.Vars) > bytecode.MaxOperand+1 {
		return nil, errorf(nil, "%d variables exceed the limit of %d", len(tree.Vars), bytecode.MaxOperand+1)
	}
	c := compiler{vars: tree.Vars.Clone()}
	for _, stmt := range tree.Stmts {
		if err := c.emit(stmt); err != nil {
			return nil, err
		}
	}
	p := bytecode.New(c.code, c.vars, c.filters)
	if _, err := p.Validate(); err != nil {
		return nil, errorf(nil, "%v", err)
	}
	return p, nil
}

func (c *compiler) emit(n syntax.Node) error {
	switch n := n.(type) {
	case *syntax.Literal:
		c.code = append(c.code, bytecode.Plain(bytecode.Literal), bytecode.Value(n.Value))
	case *syntax.VarRef:
		if err := c.check(n, n.Var, bytecode.Scalar); err != nil {
			return err
		}
		c.code = append(c.code, bytecode.Param(bytecode.ReadVar, n.Var))
	case *syntax.Assign:
		if err := c.emit(n.Expr); err != nil {
			return err
		}
		v, err := c.lookup(n, n.Var)
		if err != nil {
			return err
		}
		if v.Kind == bytecode.Delay {
			c.code = append(c.code, bytecode.Param(bytecode.WriteDelay, n.Var))
		} else {
			c.code = append(c.code, bytecode.Param(bytecode.WriteVar, n.Var))
		}
	case *syntax.DelayAssign:
		if err := c.emit(n.Expr); err != nil {
			return err
		}
		if err := c.check(n, n.Var, bytecode.Delay); err != nil {
			return err
		}
		c.code = append(c.code, bytecode.Param(bytecode.WriteDelay, n.Var))
	case *syntax.DelayLookup:
		if err := c.emit(n.Index); err != nil {
			return err
		}
		if err := c.check(n, n.Var, bytecode.Delay); err != nil {
			return err
		}
		c.code = append(c.code, bytecode.Param(bytecode.ReadDelay, n.Var))
	case *syntax.DelayDef:
		return c.check(n, n.Var, bytecode.Delay)
	case *syntax.Binary:
		switch n.Op {
		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div:
		default:
			return errorf(n, "invalid binary operator %v", n.Op)
		}
		if err := c.emit(n.Left); err != nil {
			return err
		}
		if err := c.emit(n.Right); err != nil {
			return err
		}
		c.code = append(c.code, bytecode.Plain(n.Op))
	case *syntax.Neg:
		if err := c.emit(n.X); err != nil {
			return err
		}
		c.code = append(c.code, bytecode.Plain(bytecode.Neg))
	case *syntax.Call:
		return c.call(n)
	default:
		return errorf(n, "unknown node %T", n)
	}
	return nil
}

func (c *compiler) call(n *syntax.Call) error {
	if n.Func == nil || !n.Func.Accepts(len(n.Args)) {
		return errorf(n, "invalid call")
	}
	for _, arg := range n.Args {
		if err := c.emit(arg); err != nil {
			return err
		}
	}
	if !n.Func.IsFilter() {
		c.code = append(c.code, bytecode.Plain(n.Func.Op))
		return nil
	}
	// every call owns its filter state
	slot := len(c.filters)
	if slot > bytecode.MaxOperand {
		return errorf(n, "too many filters")
	}
	f := bytecode.Filter{Kind: bytecode.FIRFilter, Coefficients: len(n.Args) - 1, Symmetry: n.Func.Symmetry}
	if n.Func.Op == bytecode.Biquad {
		f.Kind = bytecode.BiquadFilter
	}
	c.filters = append(c.filters, f)
	c.code = append(c.code, bytecode.Param(n.Func.Op, slot))
	return nil
}

// lookup fails closed on operands outside of the variable table.
func (c *compiler) lookup(n syntax.Node, i int) (bytecode.Variable, error) {
	if i < 0 || i >= len(c.vars) {
		return bytecode.Variable{}, errorf(n, "variable index %d out of range", i)
	}
	return c.vars[i], nil
}

func (c *compiler) check(n syntax.Node, i int, kind bytecode.Kind) error {
	v, err := c.lookup(n, i)
	if err != nil {
		return err
	}
	if v.Kind != kind {
		return errorf(n, "%s is a %v variable, expected %v", v.Name, v.Kind, kind)
	}
	return nil
}
