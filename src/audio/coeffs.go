package audio

import "math"

// Snapshot is a plain copy of the parameter values taken once per block.
type Snapshot struct {
	OscMix         float64
	OscTune        float64
	OscFine        float64
	GlideMode      int
	GlideRate      float64
	GlideBend      float64
	FilterFreq     float64
	FilterReso     float64
	FilterEnv      float64
	FilterLFO      float64
	FilterVelocity float64
	FilterAttack   float64
	FilterDecay    float64
	FilterSustain  float64
	FilterRelease  float64
	EnvAttack      float64
	EnvDecay       float64
	EnvSustain     float64
	EnvRelease     float64
	LFORate        float64
	Vibrato        float64
	Noise          float64
	Octave         float64
	Tuning         float64
	PolyMode       int
	OutputLevel    float64
}

// DefaultSnapshot returns the snapshot of a freshly created registry.
func DefaultSnapshot() Snapshot {
	return NewParams().Snapshot()
}

type envelopeCoefficients struct {
	attack  float64
	decay   float64
	sustain float64
	release float64
}

// Coefficients is everything the render path needs, derived from a Snapshot.
// It is computed at most once per block and is not modified while rendering.
type Coefficients struct {
	sampleRate float64

	ampEnv    envelopeCoefficients
	filterEnv envelopeCoefficients

	noiseMix   float64
	oscMix     float64
	detune     float64 // osc2 frequency ratio
	tune       float64 // semitone offset from octave and tuning
	volumeTrim float64
	numVoices  int
	outputGain float64

	velocitySensitivity float64
	ignoreVelocity      bool

	lfoInc   float64
	vibrato  float64
	pwmDepth float64

	glideMode int
	glideRate float64
	glideBend float64

	filterKeyTracking float64
	filterQ           float64
	filterLFODepth    float64
	filterEnvDepth    float64
	maxCutoff         float64
}

func envelopeMultiplier(inverseRate float64, percent float64) float64 {
	return math.Exp(-inverseRate * math.Exp(5.5-0.075*percent))
}

// NewCoefficients maps a parameter snapshot to render coefficients. It is a
// total function over the parameters' valid ranges.
func NewCoefficients(s Snapshot, sampleRate float64) Coefficients {
	var c Coefficients
	c.sampleRate = sampleRate
	inverseSampleRate := 1.0 / sampleRate

	c.ampEnv.attack = envelopeMultiplier(inverseSampleRate, s.EnvAttack)
	c.ampEnv.decay = envelopeMultiplier(inverseSampleRate, s.EnvDecay)
	c.ampEnv.sustain = s.EnvSustain / 100
	if s.EnvRelease < 1 {
		c.ampEnv.release = 0.75 // extra fast release
	} else {
		c.ampEnv.release = envelopeMultiplier(inverseSampleRate, s.EnvRelease)
	}

	// parabolic curve
	noiseMix := s.Noise / 100
	c.noiseMix = noiseMix * noiseMix * 0.06

	c.oscMix = s.OscMix / 100
	c.detune = math.Pow(2, (s.OscTune+0.01*s.OscFine)/12)
	c.tune = 12*s.Octave + s.Tuning/100

	if s.PolyMode == PolyModeMono {
		c.numVoices = 1
	} else {
		c.numVoices = MaxVoices
	}

	c.outputGain = decibelsToGain(s.OutputLevel)

	if s.FilterVelocity < -90 {
		c.velocitySensitivity = 0
		c.ignoreVelocity = true
	} else {
		c.velocitySensitivity = 0.0005 * s.FilterVelocity
	}

	// slow modulation runs lfoMax times slower than the sample rate
	inverseUpdateRate := inverseSampleRate * lfoMax

	lfoRate := math.Exp(7*s.LFORate - 4)
	c.lfoInc = lfoRate * inverseUpdateRate * 2 * math.Pi

	vibrato := s.Vibrato / 200
	c.vibrato = 0.2 * vibrato * vibrato
	c.pwmDepth = c.vibrato
	if vibrato < 0 {
		c.vibrato = 0
	}

	c.glideMode = s.GlideMode
	if s.GlideRate < 2 {
		c.glideRate = 1 // no glide
	} else {
		c.glideRate = 1 - math.Exp(-inverseUpdateRate*math.Exp(6-0.07*s.GlideRate))
	}
	c.glideBend = s.GlideBend

	c.filterKeyTracking = 0.08*s.FilterFreq - 1.5
	filterReso := s.FilterReso / 100
	c.filterQ = math.Exp(3 * filterReso)

	c.volumeTrim = 0.08 * (3.2 - c.oscMix - 25*c.noiseMix) * (1.5 - 0.5*filterReso)

	filterLFO := s.FilterLFO / 100
	c.filterLFODepth = 2.5 * filterLFO * filterLFO

	c.filterEnv.attack = envelopeMultiplier(inverseUpdateRate, s.FilterAttack)
	c.filterEnv.decay = envelopeMultiplier(inverseUpdateRate, s.FilterDecay)
	filterSustain := s.FilterSustain / 100
	c.filterEnv.sustain = filterSustain * filterSustain
	c.filterEnv.release = envelopeMultiplier(inverseUpdateRate, s.FilterRelease)

	c.filterEnvDepth = 0.06 * s.FilterEnv

	c.maxCutoff = math.Min(20000, 0.45*sampleRate)
	return c
}

// NumVoices returns how many voices may be gated at once.
func (c *Coefficients) NumVoices() int {
	return c.numVoices
}

// OutputGain returns the linear master gain the smoother is heading to.
func (c *Coefficients) OutputGain() float64 {
	return c.outputGain
}

func decibelsToGain(db float64) float64 {
	if db <= -100 {
		return 0
	}
	return math.Pow(10, db/20)
}
