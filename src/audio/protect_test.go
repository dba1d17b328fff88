package audio

import (
	"math"
	"testing"
)

func TestGuardSamples(t *testing.T) {
	expectEqual(t, guardSamples([]float64{0, 1, -2}), -1)
	expectEqual(t, guardSamples([]float64{0, 2.5}), 1)
	expectEqual(t, guardSamples([]float64{math.NaN()}), 0)
	expectEqual(t, guardSamples([]float64{0, 0, math.Inf(-1)}), 2)
	expectEqual(t, guardSamples(nil), -1)
}

func TestProtectYourEars(t *testing.T) {
	out := [][]float64{{0.5, 0.5}, {0.5, math.NaN()}}
	expectEqual(t, protectYourEars(out), false)
	expectEqual(t, isSilent(out[0]), true)
	expectEqual(t, isSilent(out[1]), true)

	out = [][]float64{{0.5, -0.5}}
	expectEqual(t, protectYourEars(out), true)
	expectEqual(t, out[0][0], 0.5)
}
