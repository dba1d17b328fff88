package audio

import (
	"math"
	"testing"
)

func TestGlideStart(t *testing.T) {
	expectEqual(t, glideStart(GlideOff, 72, 60, true, true, 0), 72.0)
	expectEqual(t, glideStart(GlideOff, 72, 60, true, true, -2), 70.0)
	expectEqual(t, glideStart(GlideAlways, 72, 60, true, false, 0), 60.0)
	expectEqual(t, glideStart(GlideAlways, 72, 60, false, false, 0), 72.0)
	expectEqual(t, glideStart(GlideLegato, 72, 60, true, false, 0), 72.0)
	expectEqual(t, glideStart(GlideLegato, 72, 60, true, true, 0), 60.0)
	expectEqual(t, glideStart(GlideLegato, 72, 60, true, true, 1), 61.0)
}

func TestGlideTrajectory(t *testing.T) {
	snapshot := DefaultSnapshot()
	snapshot.GlideMode = GlideAlways
	snapshot.GlideRate = 50
	s := newTestSynth(snapshot)
	rate := s.c.glideRate
	if rate <= 0 || rate >= 1 {
		t.Fatalf("unexpected glide rate %v", rate)
	}

	s.noteOn(60, 100)
	s.noteOn(72, 100)
	v := &s.voices[1]
	expectEqual(t, v.note, 72)
	start := v.pitch
	target := v.target
	expectNearlyEqual(t, start, 60+v.drift)
	expectNearlyEqual(t, target, 72+v.drift)

	mod := newModulation(0, &s.c)
	prev := start
	for n := 1; n <= 500; n++ {
		v.tick(&s.c, mod)
		expected := target - (target-start)*math.Pow(1-rate, float64(n))
		if math.Abs(v.pitch-expected) > 1e-9 {
			t.Fatalf("tick %v: expected %v, but got %v", n, expected, v.pitch)
		}
		if v.pitch < prev || v.pitch > target {
			t.Fatalf("tick %v: pitch %v must rise monotonically to %v", n, v.pitch, target)
		}
		prev = v.pitch
	}
}

func TestGlideOffJumps(t *testing.T) {
	s := newTestSynth(DefaultSnapshot())
	s.noteOn(60, 100)
	s.noteOn(72, 100)
	v := &s.voices[1]
	expectNearlyEqual(t, v.pitch, v.target)
}

func TestGlideBendDecays(t *testing.T) {
	snapshot := DefaultSnapshot()
	snapshot.GlideBend = -12
	snapshot.GlideRate = 50
	s := newTestSynth(snapshot)
	s.noteOn(60, 100)
	v := &s.voices[0]
	expectNearlyEqual(t, v.pitch, v.target-12)
	mod := newModulation(0, &s.c)
	for n := 0; n < 5000; n++ {
		v.tick(&s.c, mod)
	}
	expectNearlyEqual(t, v.pitch, v.target)
}
