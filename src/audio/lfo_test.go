package audio

import (
	"math"
	"testing"
)

func TestLFODecimation(t *testing.T) {
	l := &lfo{}
	ticks := []int{}
	for i := 0; i < lfoMax*3; i++ {
		if l.tick(0.1) {
			ticks = append(ticks, i)
		}
	}
	expectEqual(t, len(ticks), 3)
	expectEqual(t, ticks[0], 0)
	expectEqual(t, ticks[1], lfoMax)
	expectEqual(t, ticks[2], 2*lfoMax)
	expectNearlyEqual(t, l.value, math.Sin(0.3))
}

func TestLFOPhaseWraps(t *testing.T) {
	l := &lfo{}
	for i := 0; i < 100000; i++ {
		l.tick(1)
		if l.phase < -math.Pi || l.phase > math.Pi {
			t.Fatalf("phase out of range: %v", l.phase)
		}
	}
	l.reset()
	expectEqual(t, *l, lfo{})
}

func TestModulation(t *testing.T) {
	s := DefaultSnapshot()
	s.Vibrato = 100
	s.FilterLFO = 100
	c := NewCoefficients(s, 48000)

	m := newModulation(0, &c)
	expectEqual(t, m.vibrato, 1.0)
	expectEqual(t, m.pwm, 1.0)
	expectNearlyEqual(t, m.filter, c.filterKeyTracking)

	m = newModulation(1, &c)
	expectNearlyEqual(t, m.vibrato, 1.05)
	expectNearlyEqual(t, m.pwm, 1.05)
	expectNearlyEqual(t, m.filter, c.filterKeyTracking+2.5)
}
