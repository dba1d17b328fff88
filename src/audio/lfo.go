package audio

import "math"

// lfoMax is the decimation factor of the modulation clock. The LFO, glide,
// filter envelope and filter cutoff are only updated once every lfoMax samples.
const lfoMax = 32

// ----- LFO ----- //

type lfo struct {
	phase float64 // radians, [-π, π)
	steps int     // samples left until the next update
	value float64 // sine held between updates
}

func (l *lfo) reset() {
	l.phase = 0
	l.steps = 0
	l.value = 0
}

// tick advances the clock by one sample and reports whether this sample is an
// update point. The first sample after reset always is.
func (l *lfo) tick(inc float64) bool {
	l.steps--
	if l.steps > 0 {
		return false
	}
	l.steps = lfoMax
	l.phase += inc
	if l.phase > math.Pi {
		l.phase -= 2 * math.Pi
	}
	l.value = math.Sin(l.phase)
	return true
}

// ----- Modulation ----- //

// modulation holds the values derived from the LFO sample at the last update.
type modulation struct {
	vibrato float64 // osc1 increment ratio
	pwm     float64 // osc2 increment ratio
	filter  float64 // exponent added to the filter cutoff
}

func newModulation(sine float64, c *Coefficients) modulation {
	return modulation{
		vibrato: 1 + sine*c.vibrato,
		pwm:     1 + sine*c.pwmDepth,
		filter:  c.filterKeyTracking + c.filterLFODepth*sine,
	}
}
