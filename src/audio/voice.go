package audio

import "math"

const noNote = -1

// analog is the per-voice pitch offset in semitones that keeps stacked voices
// from phasing perfectly.
const analog = 0.002

// velocityWhenIgnored replaces the played velocity when the filter velocity
// control is switched off.
const velocityWhenIgnored = 80

// ----- Voice ----- //

// Voice is one note: two oscillators plus noise through a low-pass filter and
// an amplitude envelope. Voices are plain values living in Synth's array.
type Voice struct {
	note     int
	velocity float64 // 0..1
	age      uint64
	drift    float64

	osc1      osc
	osc2      osc
	noise     noise
	env       adsr
	filterEnv adsr
	filter    filter

	pitch  float64 // current pitch in semitones, gliding to target
	target float64

	baseCutoff float64
	amplitude  float64
	panLeft    float64
	panRight   float64

	inc1 float64
	inc2 float64
}

func (v *Voice) reset(index int) {
	*v = Voice{
		note:  noNote,
		drift: analog * float64(index),
	}
	v.noise.reset(noiseSeed + uint32(index))
}

// Note returns the MIDI note number or -1 when the voice was never used.
func (v *Voice) Note() int {
	return v.note
}

func (v *Voice) isIdle() bool {
	return v.env.isIdle()
}

func (v *Voice) isGated() bool {
	return v.env.isGated()
}

// trigger starts note at the given MIDI velocity. start is the pitch the
// glide begins from (see glideStart).
func (v *Voice) trigger(c *Coefficients, mod modulation, note int, velocity int, start float64) {
	if c.ignoreVelocity {
		velocity = velocityWhenIgnored
	}
	v.note = note
	v.velocity = float64(velocity) / 127

	v.target = foldPitch(float64(note)+v.drift, c)
	v.pitch = start + (v.target - float64(note) - v.drift)

	vel := float64(velocity)
	v.baseCutoff = pitchToFreq(v.target+c.tune) / math.Pi * math.Exp(c.velocitySensitivity*(vel-64))
	v.amplitude = c.volumeTrim * (0.004*(vel+64)*(vel+64) - 8) / 137.924

	p := (float64(note) - 60) / 24
	if p < -1 {
		p = -1
	} else if p > 1 {
		p = 1
	}
	v.panLeft = math.Sin(math.Pi / 4 * (1 - p))
	v.panRight = math.Sin(math.Pi / 4 * (1 + p))

	v.env.noteOn()
	v.filterEnv.noteOn()
	v.modulate(c, mod)
}

func (v *Voice) release() {
	v.env.noteOff()
	v.filterEnv.noteOff()
}

// quickRelease fades the voice out within a few dozen samples. Used when the
// voice count drops below the number of sounding voices.
func (v *Voice) quickRelease() {
	v.env.quickRelease()
	v.filterEnv.noteOff()
}

// finish clears everything that must not leak into the next note.
func (v *Voice) finish() {
	v.filter.reset()
	v.filterEnv.reset()
}

// tick runs on the modulation clock.
func (v *Voice) tick(c *Coefficients, mod modulation) {
	v.pitch = glideStep(v.pitch, v.target, c.glideRate)
	v.filterEnv.step()
	v.modulate(c, mod)
}

func (v *Voice) modulate(c *Coefficients, mod modulation) {
	freq := pitchToFreq(v.pitch + c.tune)
	v.inc1 = clampIncrement(freq / c.sampleRate * mod.vibrato)
	v.inc2 = clampIncrement(freq * c.detune / c.sampleRate * mod.pwm)

	cutoff := v.baseCutoff * math.Exp(mod.filter+c.filterEnvDepth*v.filterEnv.level)
	v.filter.setCoefficients(clampCutoff(cutoff, c.maxCutoff), c.filterQ, c.sampleRate)
}

func (v *Voice) renderSample(c *Coefficients) float64 {
	s1 := v.osc1.step(v.inc1)
	s2 := v.osc2.step(v.inc2)
	x := (1-c.oscMix)*s1 + c.oscMix*s2 + v.noise.step()*c.noiseMix
	y := v.filter.step(x)
	return y * v.env.step() * v.amplitude
}

// foldPitch lowers pitch by octaves until both oscillators stay below
// sampleRate/6.
func foldPitch(pitch float64, c *Coefficients) float64 {
	ratio := math.Max(1, c.detune)
	limit := c.sampleRate * maxIncrement
	for i := 0; i < 32 && pitchToFreq(pitch+c.tune)*ratio > limit; i++ {
		pitch -= 12
	}
	return pitch
}

func clampIncrement(inc float64) float64 {
	if inc > maxIncrement {
		return maxIncrement
	}
	if inc < 0 {
		return 0
	}
	return inc
}
