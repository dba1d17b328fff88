package audio

import (
	"fmt"
	"math"
	"math/cmplx"
)

// ----- Spectrum ----- //

// spectrum computes the magnitude spectrum of a fixed-size frame with a
// radix-2 FFT and a Hann window. All buffers are allocated up front.
type spectrum struct {
	size            int
	bitReverseTable []int
	wTable          []complex128
	window          []float64
	work            []complex128
	result          []float64
}

func newSpectrum(size int) (*spectrum, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("spectrum size must be a power of two: %v", size)
	}
	s := &spectrum{
		size:            size,
		bitReverseTable: make([]int, size),
		wTable:          make([]complex128, size),
		window:          make([]float64, size),
		work:            make([]complex128, size),
		result:          make([]float64, size/2),
	}
	w := -2.0 * math.Pi / float64(size)
	for i := 0; i < size; i++ {
		s.bitReverseTable[i] = bitReverse(i, size)
		s.wTable[i] = cmplx.Exp(complex(0, w*float64(i)))
		x := float64(i) / float64(size)
		s.window[i] = 0.5 - 0.5*math.Cos(2.0*math.Pi*x)
	}
	return s, nil
}

func bitReverse(k, n int) int {
	m := 0
	for ; n > 1; n = n >> 1 {
		m = m<<1 + k&1
		k = k >> 1
	}
	return m
}

func (s *spectrum) transform(x []complex128) {
	n := s.size
	for i := 0; i < n; i++ {
		rev := s.bitReverseTable[i]
		if i < rev {
			x[i], x[rev] = x[rev], x[i]
		}
	}
	for m := 1; m < n; m = m << 1 {
		step := m << 1
		for k := 0; k < m; k++ {
			w := s.wTable[n/step*k]
			for i := k; i < n; i += step {
				j := i + m
				tmp := x[j] * w
				x[j] = x[i] - tmp
				x[i] = x[i] + tmp
			}
		}
	}
}

// magnitudes windows frame and returns the amplitude of each bin below
// Nyquist, scaled so that a full-scale sine reads about 0.5. The result is
// reused by the next call.
func (s *spectrum) magnitudes(frame []float64) []float64 {
	for i := 0; i < s.size; i++ {
		var v float64
		if i < len(frame) {
			v = frame[i]
		}
		s.work[i] = complex(v*s.window[i], 0)
	}
	s.transform(s.work)
	for i := range s.result {
		s.result[i] = cmplx.Abs(s.work[i]) * 2 / float64(s.size)
	}
	return s.result
}

