package main

import (
	"context"
	"net"
	"testing"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func TestKeyboardPress(t *testing.T) {
	kb := newKeyboard()
	note, quit := kb.press('a')
	expectEqual(t, note, 60)
	expectEqual(t, quit, false)
	note, _ = kb.press('k')
	expectEqual(t, note, 72)
	note, _ = kb.press('\'')
	expectEqual(t, note, 77)
	note, _ = kb.press('m')
	expectEqual(t, note, -1)

	_, quit = kb.press('q')
	expectEqual(t, quit, true)
	_, quit = kb.press(3)
	expectEqual(t, quit, true)
}

func TestKeyboardOctave(t *testing.T) {
	kb := newKeyboard()
	kb.press('z')
	note, _ := kb.press('a')
	expectEqual(t, note, 48)
	for i := 0; i < 10; i++ {
		kb.press('z')
	}
	expectEqual(t, kb.base, 0)
	for i := 0; i < 20; i++ {
		kb.press('x')
	}
	note, _ = kb.press('\'')
	if note > 127 {
		t.Errorf("note out of range: %v", note)
	}
	expectEqual(t, kb.base, 108)
}

func TestParseCommand(t *testing.T) {
	command, err := parseCommand("set filterFreq 42.5")
	if err != nil {
		t.Fatal(err)
	}
	expectEqual(t, len(command), 3)
	expectEqual(t, command[1], "filterFreq")

	command, err = parseCommand("preset my%20pad")
	if err != nil {
		t.Fatal(err)
	}
	expectEqual(t, command[1], "my pad")

	command, _ = parseCommand("   ")
	expectEqual(t, len(command), 0)

	_, err = parseCommand("preset %zz")
	if err == nil {
		t.Errorf("expected an error")
	}
}

func TestFormatReport(t *testing.T) {
	expectEqual(t, formatReport("fft", []float64{0.5, 1}), "fft 0.500000 1.000000\n")
	expectEqual(t, formatReport("fft", nil), "fft\n")
}

func TestReceiveCommands(t *testing.T) {
	client, server := net.Pipe()
	commandCh := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- receiveCommands(context.Background(), server, commandCh)
	}()
	if _, err := client.Write([]byte("note_on 60 100\nset %zz\nnote_off 60\n")); err != nil {
		t.Fatal(err)
	}
	client.Close()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	close(commandCh)
	var received [][]string
	for command := range commandCh {
		received = append(received, command)
	}
	expectEqual(t, len(received), 2)
	expectEqual(t, received[0][0], "note_on")
	expectEqual(t, received[1][0], "note_off")
}
