package vm

import "pipelined.dev/basicdsp/bytecode"

const firMask = bytecode.MaxFIRTaps - 1

// filter is the state of one filter slot. Coefficients are taken from the
// stack on every call, so only the history lives here.
type filter struct {
	history [bytecode.MaxFIRTaps]float32
	pos     int
	state   [4]float32
}

// fir returns sum of c[i] * x[n-i]. Symmetric filters mirror c around the
// centre of the impulse response.
func (f *filter) fir(x float32, c []float32, sym bytecode.Symmetry) float32 {
	f.history[f.pos] = x
	var acc float32
	switch last := sym.Taps(len(c)) - 1; sym {
	case bytecode.SymmetricOdd:
		centre := len(c) - 1
		for i, v := range c[:centre] {
			acc += v * (f.tap(i) + f.tap(last-i))
		}
		acc += c[centre] * f.tap(centre)
	case bytecode.SymmetricEven:
		for i, v := range c {
			acc += v * (f.tap(i) + f.tap(last-i))
		}
	default:
		for i, v := range c {
			acc += v * f.tap(i)
		}
	}
	f.pos = (f.pos + 1) & firMask
	return acc
}

// tap returns x[n-i].
func (f *filter) tap(i int) float32 {
	return f.history[(f.pos-i)&firMask]
}

// biquad runs one step of a second order section. Six coefficients are
// gain, a1, a2, b1, b2 in canonical form, seven are a0, a1, a2, b0, b1, b2
// in direct form I.
func (f *filter) biquad(x float32, c []float32) float32 {
	s := &f.state
	if len(c) == 5 {
		g, a1, a2, b1, b2 := c[0], c[1], c[2], c[3], c[4]
		w := g*x - a1*s[0] - a2*s[1]
		y := w + b1*s[0] + b2*s[1]
		s[1], s[0] = s[0], w
		return y
	}
	a0, a1, a2, b0, b1, b2 := c[0], c[1], c[2], c[3], c[4], c[5]
	y := (b0*x + b1*s[0] + b2*s[1] - a1*s[2] - a2*s[3]) / a0
	s[1], s[0] = s[0], x
	s[3], s[2] = s[2], y
	return y
}
