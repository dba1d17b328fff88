package audio

// MaxVoices is the capacity of the voice pool.
const MaxVoices = 8

// ----- Synth ----- //

// Synth owns the voice pool and the shared modulation clock. It never
// allocates; every voice lives in a fixed array.
type Synth struct {
	voices    [MaxVoices]Voice
	numVoices int
	c         Coefficients
	lfo       lfo
	mod       modulation

	lastNote    int
	noteCounter uint64
}

func (s *Synth) reset() {
	for i := range s.voices {
		s.voices[i].reset(i)
	}
	s.lfo.reset()
	s.mod = modulation{}
	s.lastNote = noNote
	s.noteCounter = 0
}

// setCoefficients installs the coefficients for the next block and enforces
// the configured voice count.
func (s *Synth) setCoefficients(c *Coefficients) {
	s.c = *c
	s.numVoices = c.numVoices
	for i := range s.voices {
		s.voices[i].env.setParams(&s.c.ampEnv)
		s.voices[i].filterEnv.setParams(&s.c.filterEnv)
	}
	s.releaseExcessVoices()
}

// releaseExcessVoices quickly releases sounding voices until no more than
// numVoices remain, so that the rest go idle within the next block without a
// click. Released voices go first, then held ones, oldest first.
func (s *Synth) releaseExcessVoices() {
	for s.countedVoices() > s.numVoices {
		victim := -1
		for i := range s.voices {
			v := &s.voices[i]
			if v.isIdle() || v.env.quick {
				continue
			}
			if victim < 0 {
				victim = i
				continue
			}
			w := &s.voices[victim]
			if v.isGated() != w.isGated() {
				if !v.isGated() {
					victim = i
				}
			} else if v.age < w.age {
				victim = i
			}
		}
		s.voices[victim].quickRelease()
	}
}

// countedVoices returns the number of non-idle voices that are not already
// fading out after a voice-count change.
func (s *Synth) countedVoices() int {
	n := 0
	for i := range s.voices {
		v := &s.voices[i]
		if !v.isIdle() && !v.env.quick {
			n++
		}
	}
	return n
}

func (s *Synth) gatedVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].isGated() {
			n++
		}
	}
	return n
}

// ActiveVoices returns the number of voices that are not idle.
func (s *Synth) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if !s.voices[i].isIdle() {
			n++
		}
	}
	return n
}

func (s *Synth) noteOn(note int, velocity int) {
	legato := s.gatedVoices() > 0

	var index int
	if s.numVoices == 1 {
		index = s.monoVoice()
	} else {
		index = s.findVoice()
	}
	v := &s.voices[index]

	previous := float64(s.lastNote) + v.drift
	if s.numVoices == 1 && !v.isIdle() {
		previous = v.pitch
	}
	start := glideStart(s.c.glideMode, float64(note)+v.drift, previous, s.lastNote != noNote, legato, s.c.glideBend)

	s.noteCounter++
	v.age = s.noteCounter
	v.trigger(&s.c, newModulation(s.lfo.value, &s.c), note, velocity, start)
	s.lastNote = note

	s.releaseExcessVoices()
}

// monoVoice returns the single voice used in mono mode: the newest one still
// sounding (held or releasing), or the first idle one.
func (s *Synth) monoVoice() int {
	newest := -1
	for i := range s.voices {
		v := &s.voices[i]
		if v.isIdle() || v.env.quick {
			continue
		}
		if newest < 0 || v.age > s.voices[newest].age {
			newest = i
		}
	}
	if newest >= 0 {
		return newest
	}
	return s.findVoice()
}

// findVoice returns the first idle voice, or the oldest sounding one.
func (s *Synth) findVoice() int {
	oldest := 0
	for i := range s.voices {
		v := &s.voices[i]
		if v.isIdle() {
			return i
		}
		if v.age < s.voices[oldest].age {
			oldest = i
		}
	}
	return oldest
}

// noteOff releases every gated voice holding note. In mono mode only the
// held note is gated, so an earlier key lifted after a newer one is ignored.
func (s *Synth) noteOff(note int) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.isGated() && v.note == note {
			v.release()
		}
	}
}

// allNotesOff releases every gated voice.
func (s *Synth) allNotesOff() {
	for i := range s.voices {
		s.voices[i].release()
	}
}

// render adds nothing to the inputs; it overwrites left and right. When right
// is nil the stereo signal is folded down into left.
func (s *Synth) render(left []float64, right []float64) {
	c := &s.c
	for n := range left {
		if s.lfo.tick(c.lfoInc) {
			s.mod = newModulation(s.lfo.value, c)
			for i := range s.voices {
				if !s.voices[i].isIdle() {
					s.voices[i].tick(c, s.mod)
				}
			}
		}
		var l, r float64
		for i := range s.voices {
			v := &s.voices[i]
			if v.isIdle() {
				continue
			}
			out := v.renderSample(c)
			l += out * v.panLeft
			r += out * v.panRight
			if v.isIdle() {
				v.finish()
			}
		}
		if right == nil {
			left[n] = (l + r) / 2
		} else {
			left[n] = l
			right[n] = r
		}
	}
}
