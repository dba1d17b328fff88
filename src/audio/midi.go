package audio

import (
	"context"
	"log"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn opens the first MIDI input whose name contains port (the
// first input at all when port is empty) and forwards its messages until ctx
// is done. The channel is closed when listening stops.
func ListenToMidiIn(ctx context.Context, port string) <-chan midi.Message {
	ch := make(chan midi.Message, 1024)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		index := -1
		for i, in := range ins {
			if strings.Contains(in.String(), port) {
				index = i
				break
			}
		}
		if index < 0 {
			log.Printf("WARN: MIDI IN %q not found\n", port)
			return
		}
		in := ins[index]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := make(midi.Message, len(data))
			copy(msg, data)
			select {
			case ch <- msg:
			default:
				log.Println("WARN: MIDI IN queue is full")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}
