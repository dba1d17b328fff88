package audio

import "math"

const (
	minCutoff   = 30.0
	denormFloor = 1e-20
)

// ----- Filter ----- //

// filter is a resonant low-pass state-variable filter in the trapezoidal
// (zero-delay feedback) form. Coefficients are updated on the modulation
// clock; step runs every sample.
type filter struct {
	g     float64
	k     float64
	a1    float64
	a2    float64
	a3    float64
	ic1eq float64
	ic2eq float64
}

func (f *filter) setCoefficients(cutoff float64, q float64, sampleRate float64) {
	f.g = math.Tan(math.Pi * cutoff / sampleRate)
	f.k = 1 / q
	f.a1 = 1 / (1 + f.g*(f.g+f.k))
	f.a2 = f.g * f.a1
	f.a3 = f.g * f.a2
}

func (f *filter) reset() {
	f.ic1eq = 0
	f.ic2eq = 0
}

func (f *filter) step(x float64) float64 {
	v3 := x - f.ic2eq
	v1 := f.a1*f.ic1eq + f.a2*v3
	v2 := f.ic2eq + f.a2*f.ic1eq + f.a3*v3
	f.ic1eq = 2*v1 - f.ic1eq
	f.ic2eq = 2*v2 - f.ic2eq
	if math.Abs(f.ic1eq) < denormFloor {
		f.ic1eq = 0
	}
	if math.Abs(f.ic2eq) < denormFloor {
		f.ic2eq = 0
	}
	return v2
}

func clampCutoff(cutoff float64, max float64) float64 {
	if cutoff < minCutoff {
		return minCutoff
	}
	if cutoff > max {
		return max
	}
	return cutoff
}
