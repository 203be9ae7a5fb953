package bytecode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/xid"
)

// ErrInvalidProgram is returned when a program violates the bytecode invariants.
var ErrInvalidProgram = errors.New("invalid program")

// Program is an immutable unit of bytecode together with the variable table
// and filter slots it addresses.
type Program struct {
	ID      string
	Code    []Instruction
	Vars    Variables
	Filters []Filter
}

// New returns a program with a new unique id.
func New(code []Instruction, vars Variables, filters []Filter) *Program {
	return &Program{
		ID:      xid.New().String(),
		Code:    code,
		Vars:    vars,
		Filters: filters,
	}
}

// Validate walks the code and checks that every operand is in range, that
// operands are used with the right variable kind and that no instruction pops
// from an empty stack. It returns the maximum stack depth of one execution.
func (p *Program) Validate() (int, error) {
	depth, max := 0, 0
	for pc := 0; pc < len(p.Code); pc++ {
		in := p.Code[pc]
		op := in.Opcode()
		pops, pushes := op.Pops(), 1
		switch op {
		case Literal:
			if pc+1 >= len(p.Code) {
				return 0, fmt.Errorf("%w: literal without value at %d", ErrInvalidProgram, pc)
			}
			pc++
		case ReadVar, WriteVar, ReadDelay, WriteDelay:
			n := in.Operand()
			if n >= len(p.Vars) {
				return 0, fmt.Errorf("%w: %v operand %d out of range at %d", ErrInvalidProgram, op, n, pc)
			}
			want := Scalar
			if op == ReadDelay || op == WriteDelay {
				want = Delay
			}
			if v := p.Vars[n]; v.Kind != want || (want == Delay && (v.Length <= 0 || v.Length > MaxDelayLength)) {
				return 0, fmt.Errorf("%w: %v used on %v variable %q at %d", ErrInvalidProgram, op, v.Kind, v.Name, pc)
			}
			if op == WriteVar || op == WriteDelay {
				pushes = 0
			}
		case FIR, Biquad:
			n := in.Operand()
			if n >= len(p.Filters) {
				return 0, fmt.Errorf("%w: %v operand %d out of range at %d", ErrInvalidProgram, op, n, pc)
			}
			f := p.Filters[n]
			if (op == FIR) != (f.Kind == FIRFilter) {
				return 0, fmt.Errorf("%w: %v used on filter slot %d of another kind at %d", ErrInvalidProgram, op, n, pc)
			}
			if err := f.validate(); err != nil {
				return 0, fmt.Errorf("%w: filter slot %d %v at %d", ErrInvalidProgram, n, err, pc)
			}
			pops = f.Coefficients + 1
		default:
			if _, ok := mnemonics[op]; !ok || op.IsParameterized() {
				return 0, fmt.Errorf("%w: unknown instruction %#x at %d", ErrInvalidProgram, uint32(in), pc)
			}
		}
		if depth < pops {
			return 0, fmt.Errorf("%w: stack underflow at %d", ErrInvalidProgram, pc)
		}
		depth += pushes - pops
		if depth > max {
			max = depth
		}
	}
	return max, nil
}

// Disassemble writes one mnemonic line per instruction.
func (p *Program) Disassemble(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for pc := 0; pc < len(p.Code); pc++ {
		in := p.Code[pc]
		op := in.Opcode()
		switch {
		case op == Literal && pc+1 < len(p.Code):
			pc++
			fmt.Fprintf(bw, "%v %s\n", op, FormatFloat(p.Code[pc].Float()))
		case op == FIR || op == Biquad:
			fmt.Fprintf(bw, "%v %d\n", op, in.Operand())
		case in.IsParameterized():
			if n := in.Operand(); n < len(p.Vars) {
				fmt.Fprintf(bw, "%v %s\n", op, p.Vars[n].Name)
			} else {
				fmt.Fprintf(bw, "%v #%d\n", op, n)
			}
		default:
			fmt.Fprintf(bw, "%v\n", op)
		}
	}
	return bw.Flush()
}

func (p *Program) String() string {
	var sb strings.Builder
	p.Disassemble(&sb)
	return sb.String()
}

// FormatFloat formats a literal so that it is read back as a float token with
// the same float32 value.
func FormatFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if strings.ContainsAny(s, ".nN") {
		return s
	}
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		return s[:i] + ".0" + s[i:]
	}
	return s
}

func (f Filter) validate() error {
	if f.Kind == BiquadFilter {
		if f.Symmetry != Asymmetric || f.Coefficients < 5 || f.Coefficients > 6 {
			return fmt.Errorf("biquad with %d coefficients", f.Coefficients)
		}
		return nil
	}
	if f.Symmetry > SymmetricEven {
		return fmt.Errorf("unknown symmetry %d", f.Symmetry)
	}
	if taps := f.Symmetry.Taps(f.Coefficients); f.Coefficients < 1 || taps > MaxFIRTaps {
		return fmt.Errorf("fir with %d taps", taps)
	}
	return nil
}
