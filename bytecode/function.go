package bytecode

// Function describes a built-in function of the language. Symmetry is set
// for FIR variants that mirror their coefficients.
type Function struct {
	Name     string
	Op       Opcode
	MinArgs  int
	MaxArgs  int
	Symmetry Symmetry
}

// Filter coefficient limits.
const (
	MaxFIRTaps = 256
)

// Symmetry of an FIR impulse response. Symmetric filters are given the first
// half of the coefficients and mirror them.
type Symmetry uint8

// FIR symmetries.
const (
	Asymmetric Symmetry = iota
	// SymmetricOdd has 2n-1 taps, the last coefficient is the centre tap.
	SymmetricOdd
	// SymmetricEven has 2n taps.
	SymmetricEven
)

// Taps returns the length of the impulse response made of n coefficients.
func (s Symmetry) Taps(n int) int {
	switch s {
	case SymmetricOdd:
		return 2*n - 1
	case SymmetricEven:
		return 2 * n
	}
	return n
}

// Functions is the static table of built-ins, ordered as they are documented.
var Functions = []Function{
	{Name: "sin", Op: Sin, MinArgs: 1, MaxArgs: 1},
	{Name: "cos", Op: Cos, MinArgs: 1, MaxArgs: 1},
	{Name: "sin1", Op: Sin1, MinArgs: 1, MaxArgs: 1},
	{Name: "cos1", Op: Cos1, MinArgs: 1, MaxArgs: 1},
	{Name: "mod1", Op: Mod1, MinArgs: 1, MaxArgs: 1},
	{Name: "abs", Op: Abs, MinArgs: 1, MaxArgs: 1},
	{Name: "round", Op: Round, MinArgs: 1, MaxArgs: 1},
	{Name: "sqrt", Op: Sqrt, MinArgs: 1, MaxArgs: 1},
	{Name: "tan", Op: Tan, MinArgs: 1, MaxArgs: 1},
	{Name: "tanh", Op: Tanh, MinArgs: 1, MaxArgs: 1},
	{Name: "pow", Op: Pow, MinArgs: 2, MaxArgs: 2},
	{Name: "atan2", Op: Atan2, MinArgs: 2, MaxArgs: 2},
	{Name: "limit", Op: Limit, MinArgs: 1, MaxArgs: 1},
	{Name: "sign", Op: Sign, MinArgs: 1, MaxArgs: 1},
	{Name: "trunc", Op: Trunc, MinArgs: 1, MaxArgs: 1},
	{Name: "ceil", Op: Ceil, MinArgs: 1, MaxArgs: 1},
	{Name: "floor", Op: Floor, MinArgs: 1, MaxArgs: 1},
	{Name: "noise", Op: Noise, MinArgs: 0, MaxArgs: 0},
	// input followed by the coefficients
	{Name: "fir", Op: FIR, MinArgs: 2, MaxArgs: MaxFIRTaps + 1},
	{Name: "firsymodd", Op: FIR, MinArgs: 2, MaxArgs: MaxFIRTaps/2 + 1, Symmetry: SymmetricOdd},
	{Name: "firsymeven", Op: FIR, MinArgs: 2, MaxArgs: MaxFIRTaps/2 + 1, Symmetry: SymmetricEven},
	// input, gain, a1, a2, b1, b2 or input, a0, a1, a2, b0, b1, b2
	{Name: "biquad", Op: Biquad, MinArgs: 6, MaxArgs: 7},
}

// LookupFunction returns the built-in with the given name.
func LookupFunction(name string) (*Function, bool) {
	for i := range Functions {
		if Functions[i].Name == name {
			return &Functions[i], true
		}
	}
	return nil, false
}

// FunctionOf returns the built-in that compiles to op. For FIR it is the
// asymmetric one, see FilterFunction.
func FunctionOf(op Opcode) (*Function, bool) {
	for i := range Functions {
		if Functions[i].Op == op {
			return &Functions[i], true
		}
	}
	return nil, false
}

// FilterFunction returns the built-in that allocated the filter slot.
func FilterFunction(f Filter) (*Function, bool) {
	op := FIR
	if f.Kind == BiquadFilter {
		op = Biquad
	}
	for i := range Functions {
		if Functions[i].Op == op && Functions[i].Symmetry == f.Symmetry {
			return &Functions[i], true
		}
	}
	return nil, false
}

// Accepts reports whether n arguments are valid for the function.
func (f *Function) Accepts(n int) bool {
	return n >= f.MinArgs && n <= f.MaxArgs
}

// IsFilter reports whether every call of the function owns filter state.
func (f *Function) IsFilter() bool {
	return f.Op == FIR || f.Op == Biquad
}
