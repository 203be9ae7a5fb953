package bytecode

import "math"

// Instruction is a fixed-size tagged union. With the high bit clear it is a
// plain Opcode; with the high bit set it is a parameterized class plus a
// 16 bit operand. The slot after a Literal holds raw float32 bits instead.
type Instruction uint32

// Plain returns a plain instruction.
func Plain(op Opcode) Instruction {
	return Instruction(op)
}

// Param returns a parameterized instruction. The operand is truncated to 16 bits,
// callers must check it against MaxOperand.
func Param(class Opcode, operand int) Instruction {
	return Instruction(uint32(class)&classMask | paramFlag | uint32(operand)&operandMask)
}

// Value returns the raw slot that follows a Literal.
func Value(v float32) Instruction {
	return Instruction(math.Float32bits(v))
}

// IsParameterized reports whether the instruction carries an operand.
func (i Instruction) IsParameterized() bool {
	return i&paramFlag != 0
}

// Opcode returns the plain opcode or the class of a parameterized instruction.
func (i Instruction) Opcode() Opcode {
	if i.IsParameterized() {
		return Opcode(i & classMask)
	}
	return Opcode(i)
}

// Operand returns the variable or filter index of a parameterized instruction.
func (i Instruction) Operand() int {
	return int(i & operandMask)
}

// Float interprets the slot as a literal value.
func (i Instruction) Float() float32 {
	return math.Float32frombits(uint32(i))
}
