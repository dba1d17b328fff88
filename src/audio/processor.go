package audio

import (
	"fmt"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"
)

const (
	ccVolume      = 7
	ccAllSoundOff = 120 // channel mode messages start here
)

// Event is a MIDI message placed at a sample offset inside a block.
type Event struct {
	Offset  int
	Message midi.Message
}

// ----- Processor ----- //

// Processor splits each block at its MIDI events and renders the segments in
// between. Coefficients are recomputed at most once per block, before the
// first segment.
type Processor struct {
	params      *Params
	changed     ChangeFlag
	nonRealtime atomic.Bool

	sampleRate   float64
	maxBlockSize int
	allocated    bool

	coeffs Coefficients
	synth  Synth
	gain   transitiveValue
}

// NewProcessor returns a processor that follows params. It must be allocated
// before it renders anything but silence.
func NewProcessor(params *Params) *Processor {
	p := &Processor{params: params}
	params.AddListener(p)
	p.changed.Mark()
	return p
}

// ParameterChanged implements ParamListener.
func (p *Processor) ParameterChanged(i ParamIndex, value float64) {
	p.changed.Mark()
}

// GestureChanged implements ParamListener.
func (p *Processor) GestureChanged(i ParamIndex, starting bool) {}

// AllocateResources prepares the processor for a stream.
func (p *Processor) AllocateResources(sampleRate float64, maxBlockSize int) error {
	if !(sampleRate > 0) {
		return fmt.Errorf("invalid sample rate: %v", sampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("invalid block size: %v", maxBlockSize)
	}
	p.sampleRate = sampleRate
	p.maxBlockSize = maxBlockSize
	p.allocated = true
	p.gain.init(sampleRate, gainRampDuration, 0)
	p.changed.Mark()
	p.Reset()
	return nil
}

// DeallocateResources makes ProcessBlock output silence until the next
// AllocateResources.
func (p *Processor) DeallocateResources() {
	p.allocated = false
}

func (p *Processor) SampleRate() float64 {
	return p.sampleRate
}

func (p *Processor) MaxBlockSize() int {
	return p.maxBlockSize
}

// SetNonRealtime forces a recompute on every block, e.g. while bouncing.
func (p *Processor) SetNonRealtime(nonRealtime bool) {
	p.nonRealtime.Store(nonRealtime)
}

// Reset silences every voice and puts the output gain directly at its
// current target so that playback does not start with a ramp.
func (p *Processor) Reset() {
	if !p.allocated {
		return
	}
	p.coeffs = NewCoefficients(p.params.Snapshot(), p.sampleRate)
	p.synth.reset()
	p.synth.setCoefficients(&p.coeffs)
	p.gain.reset(p.coeffs.outputGain)
}

// ActiveVoices returns the number of voices that are not idle.
func (p *Processor) ActiveVoices() int {
	return p.synth.ActiveVoices()
}

// ProcessBlock overwrites out with the next len(out[0]) frames. events must
// be sorted by offset. A single output channel receives the mono mix.
func (p *Processor) ProcessBlock(out [][]float64, events []Event) {
	if len(out) == 0 {
		return
	}
	if !p.allocated {
		for _, ch := range out {
			clear(ch)
		}
		return
	}
	if p.changed.TestAndClear() || p.nonRealtime.Load() {
		p.update()
	}
	n := len(out[0])
	pos := 0
	for _, ev := range events {
		if len(ev.Message) > 3 {
			continue
		}
		offset := ev.Offset
		if offset < pos {
			offset = pos
		}
		if offset > n {
			offset = n
		}
		p.render(out, pos, offset)
		pos = offset
		p.handleMessage(ev.Message)
	}
	p.render(out, pos, n)
	if debugChecks {
		protectYourEars(out)
	}
}

func (p *Processor) update() {
	p.coeffs = NewCoefficients(p.params.Snapshot(), p.sampleRate)
	p.synth.setCoefficients(&p.coeffs)
	p.gain.linear(p.coeffs.outputGain)
}

func (p *Processor) render(out [][]float64, from int, to int) {
	if from >= to {
		return
	}
	left := out[0][from:to]
	var right []float64
	if len(out) > 1 {
		right = out[1][from:to]
	}
	p.synth.render(left, right)
	for i := range left {
		g := p.gain.step()
		left[i] *= g
		if right != nil {
			right[i] *= g
		}
	}
	for _, ch := range out[min(len(out), 2):] {
		clear(ch[from:to])
	}
}

func (p *Processor) handleMessage(msg midi.Message) {
	var channel, key, velocity, controller, value uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		if key > 127 || velocity > 127 {
			return
		}
		p.synth.noteOn(int(key), int(velocity))
	case msg.GetNoteEnd(&channel, &key):
		if key > 127 {
			return
		}
		p.synth.noteOff(int(key))
	case msg.GetControlChange(&channel, &controller, &value):
		switch {
		case controller == ccVolume && value <= 127:
			p.params.BeginGesture(ParamOutputLevel)
			p.params.SetNormalized(ParamOutputLevel, float64(value)/127)
			p.params.EndGesture(ParamOutputLevel)
		case controller >= ccAllSoundOff && controller <= 127:
			p.synth.allNotesOff()
		}
	}
}
