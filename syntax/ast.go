package syntax

import "pipelined.dev/basicdsp/bytecode"

// Node is the interface implemented by all AST nodes. Variable indexes stored
// in nodes refer to the variable table of the Tree.
type Node interface {
	Pos() Pos // position of the first token of the node
	aNode()
}

// node is embedded in all AST nodes.
type node struct {
	pos Pos
}

func (n *node) Pos() Pos { return n.pos }
func (*node) aNode()     {}

// Tree is the result of parsing: the statements in source order and the
// variable table built along the way.
type Tree struct {
	Stmts []Node
	Vars  bytecode.Variables
}

type (
	// Literal is an integer or float constant.
	Literal struct {
		node
		Value   float32
		Integer bool
	}

	// VarRef reads a scalar variable.
	VarRef struct {
		node
		Var int
	}

	// Assign writes the expression to a scalar variable.
	Assign struct {
		node
		Var  int
		Expr Node
	}

	// DelayAssign writes the expression into a delay line.
	DelayAssign struct {
		node
		Var  int
		Expr Node
	}

	// DelayLookup reads a delay line Index samples back.
	DelayLookup struct {
		node
		Var   int
		Index Node
	}

	// DelayDef declares a delay line. Its length is kept in the variable table.
	DelayDef struct {
		node
		Var int
	}

	// Binary is one of Add, Sub, Mul and Div.
	Binary struct {
		node
		Op    bytecode.Opcode
		Left  Node
		Right Node
	}

	// Neg is an unary minus.
	Neg struct {
		node
		X Node
	}

	// Call invokes a built-in function.
	Call struct {
		node
		Func *bytecode.Function
		Args []Node
	}
)
