package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/oto"
	"gitlab.com/gomidi/midi/v2"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048 // multiple of samplesPerCycle
	maxEvents       = 256
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate

// ----- MIDI queue ----- //

type timedMessage struct {
	at  time.Time
	msg midi.Message
}

// ----- Audio ----- //

// Audio plays the synth on the default output device. It is an io.Reader of
// interleaved 16-bit PCM that the oto player pulls from.
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	Params     *Params
	presets    *PresetManager
	processor  *Processor

	midiCh   chan timedMessage
	events   []Event
	out      [][]float64
	lastRead time.Time

	mu        sync.Mutex // guards ring and pos
	ring      []float64  // length: fftSize
	pos       int
	spectrum  *spectrum
	fftResult []float64
}

var _ io.Reader = (*Audio)(nil)

type audioJSON struct {
	State json.RawMessage `json:"state"`
}

// NewAudio opens the output device.
func NewAudio(params *Params, presets *PresetManager) (*Audio, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	a, err := newAudio(params, presets)
	if err != nil {
		otoContext.Close()
		return nil, err
	}
	a.otoContext = otoContext
	go processCommands(a, a.CommandCh)
	return a, nil
}

func newAudio(params *Params, presets *PresetManager) (*Audio, error) {
	processor := NewProcessor(params)
	if err := processor.AllocateResources(sampleRate, samplesPerCycle); err != nil {
		return nil, err
	}
	spectrum, err := newSpectrum(fftSize)
	if err != nil {
		return nil, err
	}
	return &Audio{
		ctx:       context.Background(),
		CommandCh: make(chan []string, 256),
		Params:    params,
		presets:   presets,
		processor: processor,
		midiCh:    make(chan timedMessage, maxEvents),
		events:    make([]Event, 0, maxEvents),
		out:       [][]float64{make([]float64, samplesPerCycle), make([]float64, samplesPerCycle)},
		lastRead:  time.Now(),
		ring:      make([]float64, fftSize),
		spectrum:  spectrum,
		fftResult: make([]float64, fftSize),
	}, nil
}

// UnmarshalState restores params from a state file written by MarshalState.
func UnmarshalState(data []byte, params *Params) error {
	var audioJSON audioJSON
	if err := json.Unmarshal(data, &audioJSON); err != nil {
		return fmt.Errorf("failed to apply JSON to Audio: %w", err)
	}
	if audioJSON.State == nil {
		return nil
	}
	return params.ApplyJSON(audioJSON.State)
}

// MarshalState wraps the parameter JSON in a {"state": ...} envelope.
func MarshalState(params *Params) []byte {
	return toRawMessage(&audioJSON{
		State: params.ToJSON(),
	})
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	frames := len(buf) / bytesPerSample
	written := 0
	for written < frames {
		n := min(frames-written, samplesPerCycle)
		a.processCycle(buf[written*bytesPerSample:(written+n)*bytesPerSample], n)
		written += n
	}
	return written * bytesPerSample, nil
}

func (a *Audio) processCycle(buf []byte, frames int) {
	timestamp := time.Now()
	a.events = a.events[:0]
loop:
	for len(a.events) < cap(a.events) {
		select {
		case m := <-a.midiCh:
			offset := int(m.at.Sub(a.lastRead).Seconds() / secPerSample)
			if offset < 0 {
				offset = 0
			}
			if offset >= frames {
				offset = frames - 1
			}
			a.events = append(a.events, Event{Offset: offset, Message: m.msg})
		default:
			break loop
		}
	}
	out := [][]float64{a.out[0][:frames], a.out[1][:frames]}
	a.processor.ProcessBlock(out, a.events)
	writeBuffer(out[0], buf, 0)
	writeBuffer(out[1], buf, 1)
	a.lastRead = timestamp

	// never wait for the reporter
	if a.mu.TryLock() {
		for i := 0; i < frames; i++ {
			a.ring[a.pos] = (out[0][i] + out[1][i]) / 2
			a.pos = (a.pos + 1) % fftSize
		}
		a.mu.Unlock()
	}
}

func writeBuffer(out []float64, buf []byte, ch int) {
	for i, value := range out {
		const max = 32767
		if value > 1 {
			value = 1
		} else if value < -1 {
			value = -1
		}
		b := int16(value * max)
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}

// AddMidiMessage queues msg for the next cycle. Messages arriving while the
// queue is full are dropped.
func (a *Audio) AddMidiMessage(msg midi.Message) {
	select {
	case a.midiCh <- timedMessage{at: time.Now(), msg: msg}:
	default:
		log.Println("[WARN] MIDI queue is full")
	}
}

// ListenMidi forwards every message from ch until ch is closed or ctx is done.
func (a *Audio) ListenMidi(ctx context.Context, ch <-chan midi.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			a.AddMidiMessage(msg)
		}
	}
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("command %v failed: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

// Exec runs one command synchronously.
func (a *Audio) Exec(command []string) error {
	return a.update(command)
}

func (a *Audio) update(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	args := command[1:]
	switch command[0] {
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("invalid key-value pair %v", args)
		}
		return a.Params.SetByName(args[0], args[1])
	case "mono":
		a.Params.Set(ParamPolyMode, PolyModeMono)
	case "poly":
		a.Params.Set(ParamPolyMode, PolyModePoly)
	case "preset":
		if len(args) != 1 {
			return fmt.Errorf("preset requires a name")
		}
		if a.presets == nil {
			return fmt.Errorf("no preset directory")
		}
		return a.presets.Apply(args[0], a.Params)
	case "note_on":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: note_on <note> [velocity]")
		}
		note, err := parseDataByte(args[0])
		if err != nil {
			return err
		}
		velocity := uint8(100)
		if len(args) == 2 {
			if velocity, err = parseDataByte(args[1]); err != nil {
				return err
			}
		}
		a.AddMidiMessage(midi.NoteOn(0, note, velocity))
	case "note_off":
		if len(args) != 1 {
			return fmt.Errorf("usage: note_off <note>")
		}
		note, err := parseDataByte(args[0])
		if err != nil {
			return err
		}
		a.AddMidiMessage(midi.NoteOff(0, note))
	case "panic":
		a.AddMidiMessage(midi.ControlChange(0, ccAllSoundOff, 0))
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

func parseDataByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil || v > 127 {
		return 0, fmt.Errorf("invalid MIDI data byte %q", s)
	}
	return uint8(v), nil
}

func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	a.processor.DeallocateResources()
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start plays until ctx is done.
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// GetFFT returns the magnitude spectrum of the last fftSize output samples.
// The result is reused by the next call.
func (a *Audio) GetFFT() []float64 {
	a.mu.Lock()
	// ring:      | 4 | 1 | 2 | 3 |
	// pos:           ^
	// fftResult: | 1 | 2 | 3 | 4 |
	offset := a.pos
	copy(a.fftResult, a.ring[offset:])
	copy(a.fftResult[fftSize-offset:], a.ring[:offset])
	a.mu.Unlock()
	return a.spectrum.magnitudes(a.fftResult)
}
