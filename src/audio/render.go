package audio

import (
	"fmt"
	"io"
	"math"
	"sort"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TimedEvent is a MIDI message at an absolute frame position.
type TimedEvent struct {
	Frame   int64
	Message midi.Message
}

// ReadSMF reads every playable message of a standard MIDI file and places it
// on the frame timeline of the given sample rate. Tempo changes are honored.
func ReadSMF(r io.Reader, sampleRate float64) ([]TimedEvent, error) {
	var events []TimedEvent
	rd := smf.ReadTracksFrom(r).Do(func(ev smf.TrackEvent) {
		if !ev.Message.IsPlayable() {
			return
		}
		msg := make(midi.Message, len(ev.Message))
		copy(msg, ev.Message)
		events = append(events, TimedEvent{
			Frame:   int64(math.Round(float64(ev.AbsMicroSeconds) * sampleRate / 1e6)),
			Message: msg,
		})
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("failed to read SMF: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Frame < events[j].Frame
	})
	return events, nil
}

// Render runs the whole timeline through p offline and returns one buffer per
// channel. tail seconds are added after the last event so releases can ring
// out. p must be allocated; its block size is used for rendering.
func Render(p *Processor, events []TimedEvent, channels int, tail float64) [][]float64 {
	var last int64
	if len(events) > 0 {
		last = events[len(events)-1].Frame
	}
	// one frame past the last event so that it is always delivered
	total := int(last) + 1 + int(tail*p.SampleRate())
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, total)
	}
	p.SetNonRealtime(true)
	defer p.SetNonRealtime(false)

	blockSize := p.MaxBlockSize()
	block := make([][]float64, channels)
	var blockEvents []Event
	next := 0
	for start := 0; start < total; start += blockSize {
		end := min(start+blockSize, total)
		blockEvents = blockEvents[:0]
		for next < len(events) && events[next].Frame < int64(end) {
			offset := int(events[next].Frame) - start
			if offset < 0 {
				offset = 0
			}
			blockEvents = append(blockEvents, Event{Offset: offset, Message: events[next].Message})
			next++
		}
		for ch := range block {
			block[ch] = out[ch][start:end]
		}
		p.ProcessBlock(block, blockEvents)
	}
	return out
}

// WriteWAV encodes channels as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, channels [][]float64, sampleRate int) error {
	if len(channels) == 0 {
		return fmt.Errorf("no channels to write")
	}
	frames := len(channels[0])
	numChannels := len(channels)
	enc := wav.NewEncoder(w, sampleRate, 16, numChannels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, frames*numChannels),
		SourceBitDepth: 16,
	}
	for i := 0; i < frames; i++ {
		for ch, samples := range channels {
			v := samples[i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			buf.Data[i*numChannels+ch] = int(v * 32767)
		}
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish WAV: %w", err)
	}
	return nil
}
