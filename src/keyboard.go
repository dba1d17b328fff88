package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/term"
)

// Terminals report key presses but not releases, so notes end by themselves
// unless key repeat keeps them alive.
const keyboardNoteLength = 300 * time.Millisecond

// keyboardLayout maps keys to semitones above the base note, piano style.
const keyboardLayout = "awsedftgyhujkolp;'"

const keyboardVelocity = 100

// ----- Keyboard ----- //

// keyboard turns key bytes into notes. z and x shift the octave.
type keyboard struct {
	base int
}

func newKeyboard() *keyboard {
	return &keyboard{base: 60}
}

// press returns the note for key, or -1. quit is set for q and Ctrl-C.
func (k *keyboard) press(key byte) (note int, quit bool) {
	switch key {
	case 'q', 3:
		return -1, true
	case 'z':
		if k.base >= 12 {
			k.base -= 12
		}
		return -1, false
	case 'x':
		if k.base+12+len(keyboardLayout) <= 128 {
			k.base += 12
		}
		return -1, false
	}
	i := strings.IndexByte(keyboardLayout, key)
	if i < 0 {
		return -1, false
	}
	return k.base + i, false
}

func runKeyboard(ctx context.Context, a *audio.Audio) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("-keys needs stdin to be a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)
	if err := syscall.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("failed to set nonblocking stdin: %w", err)
	}
	defer syscall.SetNonblock(fd, false)

	log.Printf("keyboard: %s plays notes, z/x changes octave, q quits\r\n", keyboardLayout)
	kb := newKeyboard()
	timers := make(map[int]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
		a.AddMidiMessage(midi.ControlChange(0, 123, 0))
	}()
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := syscall.Read(fd, buf)
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		note, quit := kb.press(buf[0])
		if quit {
			return errQuit
		}
		if note < 0 {
			continue
		}
		// key repeat
		if t, ok := timers[note]; ok && t.Stop() {
			t.Reset(keyboardNoteLength)
			continue
		}
		a.AddMidiMessage(midi.NoteOn(0, uint8(note), keyboardVelocity))
		timers[note] = time.AfterFunc(keyboardNoteLength, func() {
			a.AddMidiMessage(midi.NoteOff(0, uint8(note)))
		})
	}
}
