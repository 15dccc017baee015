package filter

import "math"

// biquad holds normalized second-order IIR coefficients (a0 == 1).
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// newNotch designs a band-reject biquad centered at freq with the given
// quality factor, using the RBJ audio-EQ cookbook formulation. Q controls
// the notch width: Q=30 at 50 Hz rejects roughly ±1.67 Hz.
func newNotch(freq, q, sampleRate float64) biquad {
	omega := 2 * math.Pi * freq / sampleRate
	sinOmega := math.Sin(omega)
	cosOmega := math.Cos(omega)
	alpha := sinOmega / (2 * q)

	a0 := 1 + alpha
	return biquad{
		b0: 1 / a0,
		b1: -2 * cosOmega / a0,
		b2: 1 / a0,
		a1: -2 * cosOmega / a0,
		a2: (1 - alpha) / a0,
	}
}

// apply runs the filter over x into dst (direct form I, zero initial state).
// dst and x may alias.
func (f biquad) apply(dst, x []float64) {
	var x1, x2, y1, y2 float64
	for i, in := range x {
		out := f.b0*in + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, in
		y2, y1 = y1, out
		dst[i] = out
	}
}

// applyZeroPhase filters forward then backward, cancelling the filter's
// phase response. The result has zero phase distortion at the cost of
// squaring the magnitude response.
func (f biquad) applyZeroPhase(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	f.apply(out, x)
	reverse(out)
	f.apply(out, out)
	reverse(out)
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
