package bytecode

// Kind is the kind of a variable.
type Kind uint8

// Variable kinds.
const (
	Scalar Kind = iota
	Delay
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Delay:
		return "delay"
	}
	return "unknown"
}

// MaxDelayLength is the longest delay line in samples.
const MaxDelayLength = 1 << 22

// Variable is an entry of the variable table. Length is only set for delays.
type Variable struct {
	Name   string
	Kind   Kind
	Length int
}

// Variables is the variable table. The position of a variable is the operand
// encoded into bytecode, so the order must never change once compiled.
type Variables []Variable

// Index returns the index of the variable with the given name or -1.
// Names are case-sensitive.
func (vs Variables) Index(name string) int {
	for i := range vs {
		if vs[i].Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a copy of the table.
func (vs Variables) Clone() Variables {
	if vs == nil {
		return nil
	}
	c := make(Variables, len(vs))
	copy(c, vs)
	return c
}

// FilterKind identifies the filter implementation of a filter slot.
type FilterKind uint8

// Filter kinds.
const (
	FIRFilter FilterKind = iota
	BiquadFilter
)

// Filter describes one filter slot of a program. Coefficients is the number of
// values popped in addition to the input sample. Symmetry applies to FIR only.
type Filter struct {
	Kind         FilterKind
	Coefficients int
	Symmetry     Symmetry
}
