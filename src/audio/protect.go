package audio

import (
	"log"
	"math"
)

// maxSafeSample is the loudest sample a sane patch can produce.
const maxSafeSample = 2.0

// guardSamples returns the index of the first sample that is NaN, infinite or
// louder than maxSafeSample, or -1.
func guardSamples(samples []float64) int {
	for i, x := range samples {
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > maxSafeSample {
			return i
		}
	}
	return -1
}

// protectYourEars silences the whole block when any channel holds a bad
// sample. Only compiled into the render path of debug builds.
func protectYourEars(out [][]float64) bool {
	for ch, samples := range out {
		if i := guardSamples(samples); i >= 0 {
			log.Printf("bad sample %v at channel %d frame %d, silencing block", samples[i], ch, i)
			for _, s := range out {
				clear(s)
			}
			return false
		}
	}
	return true
}
