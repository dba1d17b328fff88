package audio

import (
	"math"
	"testing"
)

func TestSpectrumSize(t *testing.T) {
	_, err := newSpectrum(100)
	expectError(t, err)
	_, err = newSpectrum(1)
	expectError(t, err)
	s, err := newSpectrum(8)
	expectNoError(t, err)
	expectEqual(t, len(s.magnitudes(nil)), 4)
}

func TestBitReverse(t *testing.T) {
	expectEqual(t, bitReverse(0, 8), 0)
	expectEqual(t, bitReverse(1, 8), 4)
	expectEqual(t, bitReverse(3, 8), 6)
	expectEqual(t, bitReverse(6, 8), 3)
	expectEqual(t, bitReverse(7, 8), 7)
}

func TestSpectrumOfSine(t *testing.T) {
	size := 256
	bin := 10
	s, err := newSpectrum(size)
	expectNoError(t, err)
	frame := make([]float64, size)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * float64(bin*i) / float64(size))
	}
	result := s.magnitudes(frame)
	expectNearlyEqual(t, result[bin], 0.5)
	expectNearlyEqual(t, result[bin-1], 0.25)
	expectNearlyEqual(t, result[bin+1], 0.25)
	expectNearlyEqual(t, result[0], 0)
	expectNearlyEqual(t, result[bin+5], 0)
}
