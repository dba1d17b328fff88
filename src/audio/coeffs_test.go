package audio

import (
	"math"
	"testing"
)

func expectFinite(t *testing.T, name string, v float64) {
	t.Helper()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		t.Errorf("%s is not finite: %v", name, v)
	}
}

func expectFiniteCoefficients(t *testing.T, c *Coefficients) {
	t.Helper()
	for name, v := range map[string]float64{
		"ampEnv.attack":     c.ampEnv.attack,
		"ampEnv.decay":      c.ampEnv.decay,
		"ampEnv.sustain":    c.ampEnv.sustain,
		"ampEnv.release":    c.ampEnv.release,
		"filterEnv.attack":  c.filterEnv.attack,
		"filterEnv.decay":   c.filterEnv.decay,
		"filterEnv.sustain": c.filterEnv.sustain,
		"filterEnv.release": c.filterEnv.release,
		"noiseMix":          c.noiseMix,
		"oscMix":            c.oscMix,
		"detune":            c.detune,
		"tune":              c.tune,
		"volumeTrim":        c.volumeTrim,
		"outputGain":        c.outputGain,
		"lfoInc":            c.lfoInc,
		"vibrato":           c.vibrato,
		"pwmDepth":          c.pwmDepth,
		"glideRate":         c.glideRate,
		"glideBend":         c.glideBend,
		"filterKeyTracking": c.filterKeyTracking,
		"filterQ":           c.filterQ,
		"filterLFODepth":    c.filterLFODepth,
		"filterEnvDepth":    c.filterEnvDepth,
		"maxCutoff":         c.maxCutoff,
	} {
		expectFinite(t, name, v)
	}
	for name, v := range map[string]float64{
		"ampEnv.attack":     c.ampEnv.attack,
		"ampEnv.decay":      c.ampEnv.decay,
		"ampEnv.release":    c.ampEnv.release,
		"filterEnv.attack":  c.filterEnv.attack,
		"filterEnv.decay":   c.filterEnv.decay,
		"filterEnv.release": c.filterEnv.release,
	} {
		if v <= 0 || v >= 1 {
			t.Errorf("%s must be in (0, 1): %v", name, v)
		}
	}
	if c.glideRate <= 0 || c.glideRate > 1 {
		t.Errorf("glideRate must be in (0, 1]: %v", c.glideRate)
	}
}

func TestCoefficientsDefault(t *testing.T) {
	c := NewCoefficients(DefaultSnapshot(), 48000)
	expectFiniteCoefficients(t, &c)
	expectEqual(t, c.NumVoices(), MaxVoices)
	expectNearlyEqual(t, c.OutputGain(), 1)
	expectNearlyEqual(t, c.detune, 0.5)
	expectNearlyEqual(t, c.tune, 0)
	expectNearlyEqual(t, c.ampEnv.sustain, 1)
	expectNearlyEqual(t, c.filterKeyTracking, 6.5)
	expectNearlyEqual(t, c.filterQ, math.Exp(0.45))
	expectNearlyEqual(t, c.filterEnvDepth, 3)
	expectNearlyEqual(t, c.maxCutoff, 20000)
	expectEqual(t, c.ignoreVelocity, false)
	expectEqual(t, c.glideMode, GlideOff)
}

func TestCoefficientsMapping(t *testing.T) {
	s := DefaultSnapshot()
	s.PolyMode = PolyModeMono
	s.OutputLevel = -6
	s.EnvRelease = 0
	s.GlideRate = 1
	s.Octave = 1
	s.Tuning = 50
	s.OscTune = 7
	s.OscFine = 0
	s.Noise = 100
	s.FilterVelocity = -100
	s.Vibrato = -100
	c := NewCoefficients(s, 48000)
	expectFiniteCoefficients(t, &c)

	expectEqual(t, c.NumVoices(), 1)
	expectNearlyEqual(t, c.OutputGain(), 0.501187)
	expectEqual(t, c.ampEnv.release, 0.75)
	expectEqual(t, c.glideRate, 1.0)
	expectNearlyEqual(t, c.tune, 12.5)
	expectNearlyEqual(t, c.detune, math.Pow(2, 7.0/12))
	expectNearlyEqual(t, c.noiseMix, 0.06)
	expectEqual(t, c.ignoreVelocity, true)
	expectEqual(t, c.velocitySensitivity, 0.0)
	// negative vibrato is pulse width modulation of osc2 only
	expectEqual(t, c.vibrato, 0.0)
	expectNearlyEqual(t, c.pwmDepth, 0.05)

	s.Vibrato = 100
	c = NewCoefficients(s, 48000)
	expectNearlyEqual(t, c.vibrato, 0.05)
	expectNearlyEqual(t, c.pwmDepth, 0.05)
}

func TestCoefficientsEnvelopeTimes(t *testing.T) {
	s := DefaultSnapshot()
	s.EnvAttack = 0
	fast := NewCoefficients(s, 48000)
	s.EnvAttack = 100
	slow := NewCoefficients(s, 48000)
	if fast.ampEnv.attack >= slow.ampEnv.attack {
		t.Errorf("longer attack must give a larger multiplier: %v >= %v", fast.ampEnv.attack, slow.ampEnv.attack)
	}
	expectNearlyEqual(t, fast.ampEnv.attack, math.Exp(-math.Exp(5.5)/48000))

	// the filter envelope runs on the modulation clock
	s.FilterAttack = 0
	c := NewCoefficients(s, 48000)
	expectNearlyEqual(t, c.filterEnv.attack, math.Exp(-lfoMax*math.Exp(5.5)/48000))
}

func TestCoefficientsGlideRate(t *testing.T) {
	s := DefaultSnapshot()
	s.GlideRate = 35
	c := NewCoefficients(s, 48000)
	expectNearlyEqual(t, c.glideRate, 1-math.Exp(-lfoMax/48000.0*math.Exp(6-0.07*35)))
	s.GlideRate = 100
	slower := NewCoefficients(s, 48000)
	if slower.glideRate >= c.glideRate {
		t.Errorf("higher glide rate setting must glide slower")
	}
}

func TestCoefficientsMaxCutoff(t *testing.T) {
	c := NewCoefficients(DefaultSnapshot(), 22050)
	expectNearlyEqual(t, c.maxCutoff, 0.45*22050)
}

func TestCoefficientsTotal(t *testing.T) {
	lo := NewParams()
	hi := NewParams()
	for _, i := range AllParams() {
		lo.Set(i, math.Inf(-1))
		hi.Set(i, math.Inf(1))
	}
	for _, sr := range []float64{8000, 44100, 48000, 192000} {
		c := NewCoefficients(lo.Snapshot(), sr)
		expectFiniteCoefficients(t, &c)
		c = NewCoefficients(hi.Snapshot(), sr)
		expectFiniteCoefficients(t, &c)
	}
}
