package syntax

import (
	"fmt"
	"strconv"

	"pipelined.dev/basicdsp/bytecode"
)

// cursor is the parse position. Productions take a cursor and return the
// cursor after the accepted input, so a failed alternative leaves the
// caller's cursor untouched. nvars is the length of the variable table as
// seen by this path: entries beyond it were created by abandoned alternatives.
type cursor struct {
	tok   int
	nvars int
}

func (c cursor) advance(n int) cursor {
	c.tok += n
	return c
}

type parser struct {
	tokens []Token
	vars   bytecode.Variables
	far    int // furthest token that failed to match
}

// Parse builds the statement list and the variable table from tokens. The
// token list must be terminated by EOF, as returned by Tokenize.
//
// Productions that don't match backtrack. Errors that can't be fixed by
// another alternative abort the parse: wrong number of arguments, invalid
// delay declarations and misuse of delay variables.
func Parse(tokens []Token) (*Tree, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		return nil, parseError(Pos{Line: 1, Col: 1}, "token list is not terminated")
	}
	p := &parser{tokens: tokens}
	var (
		stmts []Node
		c     cursor
	)
	for {
		switch p.tokens[c.tok].Kind {
		case EOF:
			return &Tree{Stmts: stmts, Vars: p.vars[:c.nvars].Clone()}, nil
		case Newline, Semicolon:
			c = c.advance(1)
			continue
		}
		n, next, err := p.assignment(c)
		if err != nil {
			return nil, err
		}
		if n == nil {
			if n, next, err = p.delayDef(c); err != nil {
				return nil, err
			}
		}
		if n == nil {
			t := p.tokens[p.far]
			return nil, parseError(t.Pos, "unexpected %v", t)
		}
		stmts = append(stmts, n)
		c = next
	}
}

// accept matches a single token.
func (p *parser) accept(c cursor, k Kind) (Token, cursor, bool) {
	t := p.tokens[c.tok]
	if t.Kind != k {
		p.miss(c)
		return t, c, false
	}
	return t, c.advance(1), true
}

func (p *parser) miss(c cursor) {
	if c.tok > p.far {
		p.far = c.tok
	}
}

func (p *parser) lookup(c cursor, name string) int {
	return p.vars[:c.nvars].Index(name)
}

// declare returns the index of the named variable, creating it if needed.
func (p *parser) declare(c cursor, v bytecode.Variable) (int, cursor) {
	if i := p.lookup(c, v.Name); i >= 0 {
		return i, c
	}
	p.vars = append(p.vars[:c.nvars], v)
	c.nvars = len(p.vars)
	return c.nvars - 1, c
}

// assignment := IDENT '=' expr
func (p *parser) assignment(c cursor) (Node, cursor, error) {
	id, next, ok := p.accept(c, Ident)
	if !ok {
		return nil, c, nil
	}
	if _, next, ok = p.accept(next, Equal); !ok {
		return nil, c, nil
	}
	x, next, err := p.expr(next)
	if err != nil || x == nil {
		return nil, c, err
	}
	// the target is created after the variables of the expression
	i, next := p.declare(next, bytecode.Variable{Name: id.Text})
	if p.vars[i].Kind == bytecode.Delay {
		return &DelayAssign{node: node{id.Pos}, Var: i, Expr: x}, next, nil
	}
	return &Assign{node: node{id.Pos}, Var: i, Expr: x}, next, nil
}

// delayDef := 'delay' IDENT '[' INTEGER ']'
func (p *parser) delayDef(c cursor) (Node, cursor, error) {
	kw, next, ok := p.accept(c, Delay)
	if !ok {
		return nil, c, nil
	}
	id, next, ok := p.accept(next, Ident)
	if !ok {
		return nil, c, parseError(id.Pos, "expected delay name, found %v", id)
	}
	if t, n, ok := p.accept(next, LBrack); ok {
		next = n
	} else {
		return nil, c, parseError(t.Pos, "expected [ after delay %s, found %v", id.Text, t)
	}
	lt, next, ok := p.accept(next, Integer)
	if !ok {
		return nil, c, parseError(lt.Pos, "delay length must be a positive integer, found %v", lt)
	}
	length, err := strconv.Atoi(lt.Text)
	if err != nil || length <= 0 {
		return nil, c, parseError(lt.Pos, "delay length must be a positive integer, found %s", lt.Text)
	}
	if length > bytecode.MaxDelayLength {
		return nil, c, parseError(lt.Pos, "delay length %d exceeds %d", length, bytecode.MaxDelayLength)
	}
	if t, n, ok := p.accept(next, RBrack); ok {
		next = n
	} else {
		return nil, c, parseError(t.Pos, "expected ] after delay length, found %v", t)
	}
	if i := p.lookup(next, id.Text); i >= 0 {
		return nil, c, parseError(id.Pos, "%s already declared as %v", id.Text, p.vars[i].Kind)
	}
	i, next := p.declare(next, bytecode.Variable{Name: id.Text, Kind: bytecode.Delay, Length: length})
	return &DelayDef{node: node{kw.Pos}, Var: i}, next, nil
}

// expr := term exprTail
func (p *parser) expr(c cursor) (Node, cursor, error) {
	left, next, err := p.term(c)
	if err != nil || left == nil {
		return nil, c, err
	}
	return p.exprTail(next, left)
}

// exprTail := ('+'|'-') term exprTail | ε
func (p *parser) exprTail(c cursor, left Node) (Node, cursor, error) {
	var op bytecode.Opcode
	switch p.tokens[c.tok].Kind {
	case Plus:
		op = bytecode.Add
	case Minus:
		op = bytecode.Sub
	default:
		p.miss(c)
		return left, c, nil
	}
	right, next, err := p.term(c.advance(1))
	if err != nil {
		return nil, c, err
	}
	if right == nil {
		return left, c, nil
	}
	return p.exprTail(next, &Binary{node: node{left.Pos()}, Op: op, Left: left, Right: right})
}

// term := factor termTail
func (p *parser) term(c cursor) (Node, cursor, error) {
	left, next, err := p.factor(c)
	if err != nil || left == nil {
		return nil, c, err
	}
	return p.termTail(next, left)
}

// termTail := ('*'|'/') factor termTail | ε
func (p *parser) termTail(c cursor, left Node) (Node, cursor, error) {
	var op bytecode.Opcode
	switch p.tokens[c.tok].Kind {
	case Star:
		op = bytecode.Mul
	case Slash:
		op = bytecode.Div
	default:
		p.miss(c)
		return left, c, nil
	}
	right, next, err := p.factor(c.advance(1))
	if err != nil {
		return nil, c, err
	}
	if right == nil {
		return left, c, nil
	}
	return p.termTail(next, &Binary{node: node{left.Pos()}, Op: op, Left: left, Right: right})
}

// factor := IDENT '[' expr ']' | FUNCTION '(' args ')' | '(' expr ')'
//
//	| '-' factor | INTEGER | FLOAT | IDENT
func (p *parser) factor(c cursor) (Node, cursor, error) {
	t := p.tokens[c.tok]
	switch t.Kind {
	case Ident:
		if p.tokens[c.tok+1].Kind == LBrack {
			return p.delayLookup(c)
		}
		if i := p.lookup(c, t.Text); i >= 0 && p.vars[i].Kind == bytecode.Delay {
			return nil, c, parseError(t.Pos, "delay variable %s used without index", t.Text)
		}
		i, next := p.declare(c.advance(1), bytecode.Variable{Name: t.Text})
		return &VarRef{node: node{t.Pos}, Var: i}, next, nil
	case Function:
		return p.call(c)
	case LParen:
		x, next, err := p.expr(c.advance(1))
		if err != nil || x == nil {
			return nil, c, err
		}
		if _, next, ok := p.accept(next, RParen); ok {
			return x, next, nil
		}
		return nil, c, nil
	case Minus:
		x, next, err := p.factor(c.advance(1))
		if err != nil || x == nil {
			return nil, c, err
		}
		return &Neg{node: node{t.Pos}, X: x}, next, nil
	case Integer, Float:
		v, err := strconv.ParseFloat(t.Text, 32)
		if err != nil {
			return nil, c, parseError(t.Pos, "invalid literal %s", t.Text)
		}
		return &Literal{node: node{t.Pos}, Value: float32(v), Integer: t.Kind == Integer}, c.advance(1), nil
	}
	p.miss(c)
	return nil, c, nil
}

func (p *parser) delayLookup(c cursor) (Node, cursor, error) {
	t := p.tokens[c.tok]
	i := p.lookup(c, t.Text)
	switch {
	case i < 0:
		return nil, c, parseError(t.Pos, "%s is indexed but not declared as delay", t.Text)
	case p.vars[i].Kind != bytecode.Delay:
		return nil, c, parseError(t.Pos, "%s is indexed but is a %v variable", t.Text, p.vars[i].Kind)
	}
	x, next, err := p.expr(c.advance(2))
	if err != nil || x == nil {
		return nil, c, err
	}
	if _, next, ok := p.accept(next, RBrack); ok {
		return &DelayLookup{node: node{t.Pos}, Var: i, Index: x}, next, nil
	}
	return nil, c, nil
}

// call := FUNCTION '(' [expr (',' expr)*] ')'
func (p *parser) call(c cursor) (Node, cursor, error) {
	t := p.tokens[c.tok]
	lparen, next, ok := p.accept(c.advance(1), LParen)
	if !ok {
		return nil, c, nil
	}
	var args []Node
	if _, n, ok := p.accept(next, RParen); ok {
		next = n
	} else {
		for {
			x, n, err := p.expr(next)
			if err != nil || x == nil {
				return nil, c, err
			}
			args = append(args, x)
			if _, n, ok = p.accept(n, Comma); ok {
				next = n
				continue
			}
			if _, n, ok = p.accept(n, RParen); !ok {
				return nil, c, nil
			}
			next = n
			break
		}
	}
	if !t.Func.Accepts(len(args)) {
		return nil, c, parseError(lparen.Pos, "%s takes %s, got %d", t.Func.Name, arity(t.Func), len(args))
	}
	return &Call{node: node{t.Pos}, Func: t.Func, Args: args}, next, nil
}

func arity(f *bytecode.Function) string {
	switch {
	case f.MinArgs != f.MaxArgs:
		return fmt.Sprintf("%d to %d arguments", f.MinArgs, f.MaxArgs)
	case f.MinArgs == 0:
		return "no arguments"
	case f.MinArgs == 1:
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", f.MinArgs)
}
