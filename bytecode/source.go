package bytecode

import (
	"fmt"
	"strings"
)

var infix = map[Opcode]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
}

// Source rebuilds canonical source text from the bytecode: delay declarations
// first, then one fully parenthesized assignment per line. Compiling the result
// reproduces the same code and variable table for programs without delays.
func Source(p *Program) (string, error) {
	if _, err := p.Validate(); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, v := range p.Vars {
		if v.Kind == Delay {
			fmt.Fprintf(&sb, "delay %s[%d]\n", v.Name, v.Length)
		}
	}
	var stack []string
	pop := func(n int) []string {
		args := stack[len(stack)-n:]
		stack = stack[:len(stack)-n]
		return args
	}
	for pc := 0; pc < len(p.Code); pc++ {
		in := p.Code[pc]
		switch op := in.Opcode(); op {
		case Literal:
			pc++
			stack = append(stack, FormatFloat(p.Code[pc].Float()))
		case ReadVar:
			stack = append(stack, p.Vars[in.Operand()].Name)
		case ReadDelay:
			idx := pop(1)
			stack = append(stack, fmt.Sprintf("%s[%s]", p.Vars[in.Operand()].Name, idx[0]))
		case WriteVar, WriteDelay:
			v := pop(1)
			fmt.Fprintf(&sb, "%s = %s\n", p.Vars[in.Operand()].Name, v[0])
		case Add, Sub, Mul, Div:
			args := pop(2)
			stack = append(stack, fmt.Sprintf("(%s %s %s)", args[0], infix[op], args[1]))
		case Neg:
			args := pop(1)
			stack = append(stack, fmt.Sprintf("-(%s)", args[0]))
		case FIR, Biquad:
			f := p.Filters[in.Operand()]
			args := pop(f.Coefficients + 1)
			if fn, ok := FilterFunction(f); ok {
				stack = append(stack, fmt.Sprintf("%s(%s)", fn.Name, strings.Join(args, ", ")))
			} else {
				stack = append(stack, call(op, args))
			}
		default:
			args := pop(op.Pops())
			stack = append(stack, call(op, args))
		}
	}
	return sb.String(), nil
}

func call(op Opcode, args []string) string {
	name := strings.ToLower(op.String())
	if f, ok := FunctionOf(op); ok {
		name = f.Name
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}
