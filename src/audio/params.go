package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
)

// ----- Param IDs ----- //

// ParamIndex identifies a parameter in the registry.
type ParamIndex int

const (
	ParamOscMix ParamIndex = iota
	ParamOscTune
	ParamOscFine
	ParamGlideMode
	ParamGlideRate
	ParamGlideBend
	ParamFilterFreq
	ParamFilterReso
	ParamFilterEnv
	ParamFilterLFO
	ParamFilterVelocity
	ParamFilterAttack
	ParamFilterDecay
	ParamFilterSustain
	ParamFilterRelease
	ParamEnvAttack
	ParamEnvDecay
	ParamEnvSustain
	ParamEnvRelease
	ParamLFORate
	ParamVibrato
	ParamNoise
	ParamOctave
	ParamTuning
	ParamPolyMode
	ParamOutputLevel
	numParams
)

// GlideMode values of the glideMode choice parameter.
const (
	GlideOff = iota
	GlideLegato
	GlideAlways
)

// PolyMode values of the polyMode choice parameter.
const (
	PolyModeMono = iota
	PolyModePoly
)

// ErrUnknownParam is returned when a parameter id does not exist.
var ErrUnknownParam = errors.New("unknown parameter")

type paramSpec struct {
	id        string
	name      string
	min       float64
	max       float64
	step      float64
	def       float64
	label     string
	skew      float64
	symmetric bool
	choices   []string
}

var paramSpecs = [numParams]paramSpec{
	ParamOscMix:         {id: "oscMix", name: "Osc Mix", min: 0, max: 100, def: 0, label: "%"},
	ParamOscTune:        {id: "oscTune", name: "Osc Tune", min: -24, max: 24, step: 1, def: -12, label: "semi"},
	ParamOscFine:        {id: "oscFine", name: "Osc Fine", min: -50, max: 50, step: 0.1, def: 0, label: "cent", skew: 0.3, symmetric: true},
	ParamGlideMode:      {id: "glideMode", name: "Glide Mode", max: 2, def: GlideOff, choices: []string{"Off", "Legato", "Always"}},
	ParamGlideRate:      {id: "glideRate", name: "Glide Rate", min: 0, max: 100, step: 1, def: 35, label: "%"},
	ParamGlideBend:      {id: "glideBend", name: "Glide Bend", min: -36, max: 36, step: 0.01, def: 0, label: "semi", skew: 0.4, symmetric: true},
	ParamFilterFreq:     {id: "filterFreq", name: "Filter Freq", min: 0, max: 100, step: 0.1, def: 100, label: "%"},
	ParamFilterReso:     {id: "filterReso", name: "Filter Reso", min: 0, max: 100, step: 1, def: 15, label: "%"},
	ParamFilterEnv:      {id: "filterEnv", name: "Filter Env", min: -100, max: 100, step: 0.1, def: 50, label: "%"},
	ParamFilterLFO:      {id: "filterLFO", name: "Filter LFO", min: 0, max: 100, step: 1, def: 0, label: "%"},
	ParamFilterVelocity: {id: "filterVelocity", name: "Velocity", min: -100, max: 100, step: 1, def: 0, label: "%"},
	ParamFilterAttack:   {id: "filterAttack", name: "Filter Attack", min: 0, max: 100, step: 1, def: 0, label: "%"},
	ParamFilterDecay:    {id: "filterDecay", name: "Filter Decay", min: 0, max: 100, step: 1, def: 30, label: "%"},
	ParamFilterSustain:  {id: "filterSustain", name: "Filter Sustain", min: 0, max: 100, step: 1, def: 0, label: "%"},
	ParamFilterRelease:  {id: "filterRelease", name: "Filter Release", min: 0, max: 100, step: 1, def: 25, label: "%"},
	ParamEnvAttack:      {id: "envAttack", name: "Env Attack", min: 0, max: 100, step: 1, def: 0, label: "%"},
	ParamEnvDecay:       {id: "envDecay", name: "Env Decay", min: 0, max: 100, step: 1, def: 50, label: "%"},
	ParamEnvSustain:     {id: "envSustain", name: "Env Sustain", min: 0, max: 100, step: 1, def: 100, label: "%"},
	ParamEnvRelease:     {id: "envRelease", name: "Env Release", min: 0, max: 100, step: 1, def: 30, label: "%"},
	ParamLFORate:        {id: "lfoRate", name: "LFO Rate", min: 0, max: 1, def: 0.81, label: "Hz"},
	ParamVibrato:        {id: "vibrato", name: "Vibrato", min: -100, max: 100, step: 0.1, def: 0, label: "%"},
	ParamNoise:          {id: "noise", name: "Noise", min: 0, max: 100, step: 1, def: 0, label: "%"},
	ParamOctave:         {id: "octave", name: "Octave", min: -2, max: 2, step: 1, def: 0},
	ParamTuning:         {id: "tuning", name: "Tuning", min: -100, max: 100, step: 0.1, def: 0, label: "cent"},
	ParamPolyMode:       {id: "polyMode", name: "Polyphony", max: 1, def: PolyModePoly, choices: []string{"Mono", "Poly"}},
	ParamOutputLevel:    {id: "outputLevel", name: "Output Level", min: -24, max: 6, step: 0.1, def: 0, label: "dB"},
}

var paramIndexByID = func() map[string]ParamIndex {
	m := make(map[string]ParamIndex, numParams)
	for i, s := range paramSpecs {
		m[s.id] = ParamIndex(i)
	}
	return m
}()

// LookupParam returns the index of the parameter with the given id.
func LookupParam(id string) (ParamIndex, bool) {
	i, ok := paramIndexByID[id]
	return i, ok
}

// AllParams returns every parameter in display order.
func AllParams() []ParamIndex {
	all := make([]ParamIndex, numParams)
	for i := range all {
		all[i] = ParamIndex(i)
	}
	return all
}

// ID returns the stable string id used in JSON state and commands.
func (i ParamIndex) ID() string {
	return paramSpecs[i].id
}

// Name returns the display name.
func (i ParamIndex) Name() string {
	return paramSpecs[i].name
}

func (s *paramSpec) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.def
	}
	if v < s.min {
		v = s.min
	}
	if v > s.max {
		v = s.max
	}
	if s.choices != nil {
		v = math.Round(v)
	}
	return v
}

// toNormalized follows the skewed range mapping used by plugin hosts.
func (s *paramSpec) toNormalized(v float64) float64 {
	p := (s.clamp(v) - s.min) / (s.max - s.min)
	if s.skew == 0 || s.skew == 1 {
		return p
	}
	if !s.symmetric {
		return math.Pow(p, s.skew)
	}
	d := 2*p - 1
	return (1 + math.Copysign(math.Pow(math.Abs(d), s.skew), d)) / 2
}

func (s *paramSpec) fromNormalized(p float64) float64 {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if s.skew != 0 && s.skew != 1 {
		if !s.symmetric {
			if p > 0 {
				p = math.Exp(math.Log(p) / s.skew)
			}
		} else {
			d := 2*p - 1
			if d != 0 {
				d = math.Copysign(math.Exp(math.Log(math.Abs(d))/s.skew), d)
			}
			p = (1 + d) / 2
		}
	}
	return s.clamp(s.min + (s.max-s.min)*p)
}

// ----- Change Flag ----- //

// ChangeFlag is a single-producer/single-consumer "parameters changed" signal.
// Writers call Mark from any goroutine; the audio goroutine calls TestAndClear
// once at the start of a block.
type ChangeFlag struct {
	v atomic.Bool
}

// Mark records that a parameter changed.
func (f *ChangeFlag) Mark() {
	f.v.Store(true)
}

// TestAndClear reports whether the flag was set and clears it.
func (f *ChangeFlag) TestAndClear() bool {
	return f.v.CompareAndSwap(true, false)
}

// ----- Listener ----- //

// ParamListener is notified about parameter changes. Callbacks may run on
// the audio goroutine (MIDI volume) and must not block.
type ParamListener interface {
	ParameterChanged(i ParamIndex, value float64)
	GestureChanged(i ParamIndex, starting bool)
}

// ----- Params ----- //

// Params is the shared parameter registry. Values are stored as atomic bits
// so that readers and writers on different goroutines never lock.
type Params struct {
	values    [numParams]atomic.Uint64
	listeners atomic.Pointer[[]ParamListener]
	mu        sync.Mutex // serializes AddListener
}

// NewParams returns a registry holding the default value of every parameter.
func NewParams() *Params {
	p := &Params{}
	for i := range paramSpecs {
		p.values[i].Store(math.Float64bits(paramSpecs[i].def))
	}
	return p
}

func (p *Params) AddListener(l ParamListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var next []ParamListener
	if cur := p.listeners.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, l)
	p.listeners.Store(&next)
}

// Value returns the current plain value.
func (p *Params) Value(i ParamIndex) float64 {
	return math.Float64frombits(p.values[i].Load())
}

// Set clamps value to the parameter's range and stores it.
func (p *Params) Set(i ParamIndex, value float64) {
	value = paramSpecs[i].clamp(value)
	p.values[i].Store(math.Float64bits(value))
	if ls := p.listeners.Load(); ls != nil {
		for _, l := range *ls {
			l.ParameterChanged(i, value)
		}
	}
}

// Normalized returns the value mapped to 0..1.
func (p *Params) Normalized(i ParamIndex) float64 {
	return paramSpecs[i].toNormalized(p.Value(i))
}

// SetNormalized sets the value from a 0..1 proportion.
func (p *Params) SetNormalized(i ParamIndex, normalized float64) {
	p.Set(i, paramSpecs[i].fromNormalized(normalized))
}

// BeginGesture brackets a series of changes that belong together, e.g. for
// automation recording.
func (p *Params) BeginGesture(i ParamIndex) {
	p.notifyGesture(i, true)
}

func (p *Params) EndGesture(i ParamIndex) {
	p.notifyGesture(i, false)
}

func (p *Params) notifyGesture(i ParamIndex, starting bool) {
	if ls := p.listeners.Load(); ls != nil {
		for _, l := range *ls {
			l.GestureChanged(i, starting)
		}
	}
}

// SetByName parses value and assigns it to the parameter with the given id.
// Choice parameters also accept their choice labels.
func (p *Params) SetByName(id string, value string) error {
	i, ok := LookupParam(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, id)
	}
	s := &paramSpecs[i]
	for n, c := range s.choices {
		if c == value {
			p.Set(i, float64(n))
			return nil
		}
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", id, err)
	}
	p.Set(i, v)
	return nil
}

// Text formats the current value the way it is displayed to the user.
func (p *Params) Text(i ParamIndex) string {
	v := p.Value(i)
	s := &paramSpecs[i]
	switch i {
	case ParamOscMix:
		return fmt.Sprintf("%4.0f:%2.0f", 100.0-0.5*v, 0.5*v)
	case ParamFilterVelocity:
		if v < -90 {
			return "OFF"
		}
	case ParamLFORate:
		return strconv.FormatFloat(math.Exp(7*v-4), 'f', 3, 64) + " Hz"
	case ParamVibrato:
		if v < 0 {
			return "PWM " + strconv.FormatFloat(-v, 'f', 1, 64) + " %"
		}
	}
	if s.choices != nil {
		return s.choices[int(v)]
	}
	text := strconv.FormatFloat(v, 'f', -1, 64)
	if s.label != "" {
		text += " " + s.label
	}
	return text
}

// Snapshot copies every value into a plain struct for one block of rendering.
func (p *Params) Snapshot() Snapshot {
	return Snapshot{
		OscMix:         p.Value(ParamOscMix),
		OscTune:        p.Value(ParamOscTune),
		OscFine:        p.Value(ParamOscFine),
		GlideMode:      int(p.Value(ParamGlideMode)),
		GlideRate:      p.Value(ParamGlideRate),
		GlideBend:      p.Value(ParamGlideBend),
		FilterFreq:     p.Value(ParamFilterFreq),
		FilterReso:     p.Value(ParamFilterReso),
		FilterEnv:      p.Value(ParamFilterEnv),
		FilterLFO:      p.Value(ParamFilterLFO),
		FilterVelocity: p.Value(ParamFilterVelocity),
		FilterAttack:   p.Value(ParamFilterAttack),
		FilterDecay:    p.Value(ParamFilterDecay),
		FilterSustain:  p.Value(ParamFilterSustain),
		FilterRelease:  p.Value(ParamFilterRelease),
		EnvAttack:      p.Value(ParamEnvAttack),
		EnvDecay:       p.Value(ParamEnvDecay),
		EnvSustain:     p.Value(ParamEnvSustain),
		EnvRelease:     p.Value(ParamEnvRelease),
		LFORate:        p.Value(ParamLFORate),
		Vibrato:        p.Value(ParamVibrato),
		Noise:          p.Value(ParamNoise),
		Octave:         p.Value(ParamOctave),
		Tuning:         p.Value(ParamTuning),
		PolyMode:       int(p.Value(ParamPolyMode)),
		OutputLevel:    p.Value(ParamOutputLevel),
	}
}

// ----- JSON state ----- //

// ToJSON serializes every parameter as {"id": value}.
func (p *Params) ToJSON() json.RawMessage {
	m := make(map[string]float64, numParams)
	for i := range paramSpecs {
		m[paramSpecs[i].id] = p.Value(ParamIndex(i))
	}
	return toRawMessage(m)
}

// ApplyJSON restores values written by ToJSON. Unknown ids are skipped so
// that older state files still load.
func (p *Params) ApplyJSON(data json.RawMessage) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to apply JSON to params: %w", err)
	}
	for id, v := range m {
		i, ok := LookupParam(id)
		if !ok {
			continue
		}
		p.Set(i, v)
	}
	return nil
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}
