// Package bytecode defines the instruction set executed by the virtual machine,
// the variable table shared by the parser, the compiler and the machine, and the
// compiled Program itself.
package bytecode

import "fmt"

// Opcode identifies a plain instruction or the class of a parameterized one.
type Opcode uint32

// Plain opcodes. They don't carry an operand.
const (
	Add Opcode = 1
	Sub Opcode = 2
	Mul Opcode = 3
	Div Opcode = 4
	Neg Opcode = 5

	Sin   Opcode = 100
	Cos   Opcode = 101
	Sin1  Opcode = 102
	Cos1  Opcode = 103
	Mod1  Opcode = 104
	Abs   Opcode = 105
	Round Opcode = 106
	Sqrt  Opcode = 107
	Tan   Opcode = 108
	Tanh  Opcode = 109
	Pow   Opcode = 110
	Limit Opcode = 111
	Atan2 Opcode = 112
	Sign  Opcode = 113
	Noise Opcode = 114
	Trunc Opcode = 115
	Ceil  Opcode = 116
	Floor Opcode = 117

	// Literal is always followed by one raw float32 slot.
	Literal Opcode = 200
)

// Parameterized opcode classes. The lower 16 bits of the instruction hold
// the variable or filter index.
const (
	WriteVar   Opcode = 0x81000000
	ReadVar    Opcode = 0x82000000
	FIR        Opcode = 0x83000000
	Biquad     Opcode = 0x84000000
	ReadDelay  Opcode = 0x85000000
	WriteDelay Opcode = 0x86000000
)

const (
	paramFlag   = 0x80000000
	classMask   = 0xff000000
	operandMask = 0xffff

	// MaxOperand is the largest index a parameterized instruction can address.
	MaxOperand = operandMask
)

var mnemonics = map[Opcode]string{
	Add:        "ADD",
	Sub:        "SUB",
	Mul:        "MUL",
	Div:        "DIV",
	Neg:        "NEG",
	Sin:        "SIN",
	Cos:        "COS",
	Sin1:       "SIN1",
	Cos1:       "COS1",
	Mod1:       "MOD1",
	Abs:        "ABS",
	Round:      "ROUND",
	Sqrt:       "SQRT",
	Tan:        "TAN",
	Tanh:       "TANH",
	Pow:        "POW",
	Limit:      "LIMIT",
	Atan2:      "ATAN2",
	Sign:       "SIGN",
	Noise:      "NOISE",
	Trunc:      "TRUNC",
	Ceil:       "CEIL",
	Floor:      "FLOOR",
	Literal:    "LOAD",
	WriteVar:   "WRITE",
	ReadVar:    "READ",
	FIR:        "FIR",
	Biquad:     "BIQUAD",
	ReadDelay:  "READDELAY",
	WriteDelay: "WRITEDELAY",
}

func (op Opcode) String() string {
	if s, ok := mnemonics[op]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%#x)", uint32(op))
}

// IsParameterized reports whether the opcode is a parameterized class.
func (op Opcode) IsParameterized() bool {
	return op&paramFlag != 0
}

// Pops returns how many operands the plain opcode consumes from the stack.
// FIR and Biquad pop a number of values that depends on the filter.
func (op Opcode) Pops() int {
	switch op {
	case Add, Sub, Mul, Div, Pow, Atan2:
		return 2
	case Noise, Literal, ReadVar:
		return 0
	}
	return 1
}
