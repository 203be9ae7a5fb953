package vm

import (
	"math"
	"math/rand/v2"

	"pipelined.dev/basicdsp/bytecode"
)

// delayLine is the ring buffer of a delay variable. Writes go to the
// cursor, which advances once after a frame that wrote it.
type delayLine struct {
	buf     []float32
	cursor  int
	written bool
}

func (d *delayLine) write(v float32) {
	d.buf[d.cursor] = v
	d.written = true
}

// read returns the sample written k frames ago.
func (d *delayLine) read(k float32) float32 {
	n := len(d.buf)
	f := float64(k)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	i := d.cursor - int(math.Mod(math.Trunc(f), float64(n)))
	i %= n
	if i < 0 {
		i += n
	}
	return d.buf[i]
}

func (d *delayLine) advance() {
	if d.written {
		d.cursor = (d.cursor + 1) % len(d.buf)
		d.written = false
	}
}

// Indexes of the variables the machine binds every frame.
type wellKnown struct {
	in, inl, inr    int
	out, outl, outr int
	samplerate      int
	sliders         [numSliders]int
}

func resolve(vars bytecode.Variables) wellKnown {
	scalar := func(name string) int {
		i := vars.Index(name)
		if i >= 0 && vars[i].Kind != bytecode.Scalar {
			return -1
		}
		return i
	}
	w := wellKnown{
		in:         scalar("in"),
		inl:        scalar("inl"),
		inr:        scalar("inr"),
		out:        scalar("out"),
		outl:       scalar("outl"),
		outr:       scalar("outr"),
		samplerate: scalar("samplerate"),
	}
	for i := range w.sliders {
		w.sliders[i] = scalar(sliderName(i))
	}
	return w
}

// runtime is the mutable state of one loaded program. It's allocated on
// load so executing a frame never allocates.
type runtime struct {
	program *bytecode.Program
	values  []float32
	delays  []*delayLine // indexed by variable, nil for scalars
	lines   []*delayLine
	filters []filter
	stack   []float32
	vars    wellKnown
}

func newRuntime(p *bytecode.Program, stackSize int) *runtime {
	rt := runtime{
		program: p,
		values:  make([]float32, len(p.Vars)),
		delays:  make([]*delayLine, len(p.Vars)),
		filters: make([]filter, len(p.Filters)),
		stack:   make([]float32, stackSize),
		vars:    resolve(p.Vars),
	}
	for i, v := range p.Vars {
		if v.Kind == bytecode.Delay {
			d := &delayLine{buf: make([]float32, v.Length)}
			rt.delays[i] = d
			rt.lines = append(rt.lines, d)
		}
	}
	return &rt
}

func (rt *runtime) set(i int, v float32) {
	if i >= 0 {
		rt.values[i] = v
	}
}

func (rt *runtime) get(i int) float32 {
	if i >= 0 {
		return rt.values[i]
	}
	return 0
}

// bind writes the input frame into the input variables.
func (rt *runtime) bind(l, r float32) {
	rt.set(rt.vars.in, (l+r)/2)
	rt.set(rt.vars.inl, l)
	rt.set(rt.vars.inr, r)
}

// output returns the output frame. out wins over outl and outr.
func (rt *runtime) output() (float32, float32) {
	if rt.vars.out >= 0 {
		v := rt.values[rt.vars.out]
		return v, v
	}
	return rt.get(rt.vars.outl), rt.get(rt.vars.outr)
}

// exec runs the program once. It returns false if the frame was aborted
// because the stack overflowed.
func (rt *runtime) exec(rng *rand.Rand) bool {
	ok := rt.run(rng)
	for _, d := range rt.lines {
		d.advance()
	}
	return ok
}

func (rt *runtime) run(rng *rand.Rand) bool {
	code := rt.program.Code
	stack := rt.stack
	sp := 0
	for pc := 0; pc < len(code); pc++ {
		in := code[pc]
		op := in.Opcode()
		switch op {
		case bytecode.Literal:
			if sp == len(stack) {
				return false
			}
			pc++
			stack[sp] = code[pc].Float()
			sp++
		case bytecode.ReadVar:
			if sp == len(stack) {
				return false
			}
			stack[sp] = rt.values[in.Operand()]
			sp++
		case bytecode.Noise:
			if sp == len(stack) {
				return false
			}
			stack[sp] = noise(rng)
			sp++
		case bytecode.WriteVar:
			if sp < 1 {
				return false
			}
			sp--
			rt.values[in.Operand()] = stack[sp]
		case bytecode.WriteDelay:
			if sp < 1 {
				return false
			}
			sp--
			n := in.Operand()
			rt.delays[n].write(stack[sp])
			rt.values[n] = stack[sp]
		case bytecode.ReadDelay:
			if sp < 1 {
				return false
			}
			stack[sp-1] = rt.delays[in.Operand()].read(stack[sp-1])
		case bytecode.FIR, bytecode.Biquad:
			f := &rt.filters[in.Operand()]
			slot := &rt.program.Filters[in.Operand()]
			n := slot.Coefficients
			if sp < n+1 {
				return false
			}
			sp -= n
			x, c := stack[sp-1], stack[sp:sp+n]
			if op == bytecode.FIR {
				stack[sp-1] = f.fir(x, c, slot.Symmetry)
			} else {
				stack[sp-1] = f.biquad(x, c)
			}
		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Pow, bytecode.Atan2:
			if sp < 2 {
				return false
			}
			sp--
			stack[sp-1] = binary(op, stack[sp-1], stack[sp])
		default:
			if sp < 1 {
				return false
			}
			stack[sp-1] = unary(op, stack[sp-1])
		}
	}
	return true
}

func binary(op bytecode.Opcode, a, b float32) float32 {
	switch op {
	case bytecode.Add:
		return a + b
	case bytecode.Sub:
		return a - b
	case bytecode.Mul:
		return a * b
	case bytecode.Div:
		return a / b
	case bytecode.Pow:
		return float32(math.Pow(float64(a), float64(b)))
	case bytecode.Atan2:
		return float32(math.Atan2(float64(a), float64(b)))
	}
	return 0
}

func unary(op bytecode.Opcode, x float32) float32 {
	f := float64(x)
	switch op {
	case bytecode.Neg:
		return -x
	case bytecode.Sin:
		return float32(math.Sin(f))
	case bytecode.Cos:
		return float32(math.Cos(f))
	case bytecode.Sin1:
		return float32(math.Sin(2 * math.Pi * f))
	case bytecode.Cos1:
		return float32(math.Cos(2 * math.Pi * f))
	case bytecode.Mod1:
		return x - float32(math.Trunc(f))
	case bytecode.Abs:
		return float32(math.Abs(f))
	case bytecode.Round:
		return float32(math.Round(f))
	case bytecode.Sqrt:
		return float32(math.Sqrt(f))
	case bytecode.Tan:
		return float32(math.Tan(f))
	case bytecode.Tanh:
		return float32(math.Tanh(f))
	case bytecode.Limit:
		switch {
		case x > 1:
			return 1
		case x < -1:
			return -1
		}
		return x
	case bytecode.Sign:
		if x >= 0 {
			return 1
		}
		return -1
	case bytecode.Trunc:
		return float32(math.Trunc(f))
	case bytecode.Ceil:
		return float32(math.Ceil(f))
	case bytecode.Floor:
		return float32(math.Floor(f))
	}
	return x
}

// noise returns uniform white noise in [-1, 1).
func noise(rng *rand.Rand) float32 {
	return float32(2*rng.Float64() - 1)
}
