package audio

import "math"

const baseFreq = 440.0

// maxIncrement keeps every oscillator at or below sampleRate/6.
const maxIncrement = 1.0 / 6.0

// pitchToFreq converts a fractional MIDI note number to Hz.
func pitchToFreq(pitch float64) float64 {
	return baseFreq * math.Exp2((pitch-69)/12)
}

// ----- OSC ----- //

// osc is a band-limited sawtooth. The phase accumulator wraps in [0, 1) and
// the discontinuity is smoothed with a polynomial band-limited step.
type osc struct {
	phase float64
}

func (o *osc) reset() {
	o.phase = 0
}

func (o *osc) step(inc float64) float64 {
	t := o.phase
	value := 2*t - 1 - polyBLEP(t, inc)
	o.phase += inc
	if o.phase >= 1 {
		o.phase -= 1
	}
	return value
}

func polyBLEP(t float64, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
