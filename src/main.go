package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jinjor/desktop-synth/src/audio"
	"golang.org/x/sync/errgroup"
)

const renderBlockSize = 512

var (
	ipc       = flag.Bool("ipc", false, "accept commands and send reports on "+sockFileName)
	keys      = flag.Bool("keys", false, "play notes from the computer keyboard")
	midiIn    = flag.String("midi-in", "", "MIDI input port name (substring), or \"none\"")
	presetDir = flag.String("preset-dir", "presets", "directory holding _list.json and presets")
	preset    = flag.String("preset", "", "preset to load at start")
	statePath = flag.String("state", "", "state file restored at start and saved at exit")
	rate      = flag.Int("rate", 48000, "sample rate for render")
	tail      = flag.Float64("tail", 2, "seconds rendered after the last MIDI event")
)

// errQuit stops every goroutine of the live session without being an error.
var errQuit = errors.New("quit")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [render <in.mid> <out.wav> | mcp]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	var err error
	switch flag.Arg(0) {
	case "":
		err = runLive(ctx, false)
	case "mcp":
		err = runLive(ctx, true)
	case "render":
		if flag.NArg() != 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = runRender(flag.Arg(1), flag.Arg(2))
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func loadParams(params *audio.Params, presets *audio.PresetManager) error {
	if *statePath != "" {
		data, err := os.ReadFile(*statePath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err == nil {
			if err := audio.UnmarshalState(data, params); err != nil {
				return err
			}
			log.Printf("restored state from %s\n", *statePath)
		}
	}
	if *preset != "" {
		if err := presets.Apply(*preset, params); err != nil {
			return err
		}
		log.Printf("loaded preset %s\n", *preset)
	}
	return nil
}

func saveParams(params *audio.Params) {
	if *statePath == "" {
		return
	}
	if err := os.WriteFile(*statePath, audio.MarshalState(params), 0o644); err != nil {
		log.Printf("failed to save state: %v\n", err)
		return
	}
	log.Printf("saved state to %s\n", *statePath)
}

func runLive(ctx context.Context, withMCP bool) error {
	if withMCP && *keys {
		return fmt.Errorf("-keys cannot be used with mcp, both read stdin")
	}
	params := audio.NewParams()
	presets := audio.NewPresetManager(*presetDir)
	if err := loadParams(params, presets); err != nil {
		return err
	}
	defer saveParams(params)

	a, err := audio.NewAudio(params, presets)
	if err != nil {
		return err
	}
	defer a.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Start(ctx)
	})
	if *midiIn != "none" {
		g.Go(func() error {
			return a.ListenMidi(ctx, audio.ListenToMidiIn(ctx, *midiIn))
		})
	}
	if *keys {
		g.Go(func() error {
			return runKeyboard(ctx, a)
		})
	}
	if *ipc {
		g.Go(func() error {
			return withIPCConnection(ctx, func(conn net.Conn) error {
				g, ctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					return receiveCommands(ctx, conn, a.CommandCh)
				})
				g.Go(func() error {
					return sendReports(ctx, conn, a)
				})
				return g.Wait()
			})
		})
	}
	if withMCP {
		g.Go(func() error {
			return serveMCP(ctx, a, presets)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func runRender(in string, out string) error {
	params := audio.NewParams()
	if err := loadParams(params, audio.NewPresetManager(*presetDir)); err != nil {
		return err
	}
	p := audio.NewProcessor(params)
	if err := p.AllocateResources(float64(*rate), renderBlockSize); err != nil {
		return err
	}
	defer p.DeallocateResources()

	r, err := os.Open(in)
	if err != nil {
		return err
	}
	defer r.Close()
	events, err := audio.ReadSMF(r, float64(*rate))
	if err != nil {
		return err
	}
	log.Printf("rendering %d events from %s\n", len(events), in)
	channels := audio.Render(p, events, 2, *tail)

	w, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := audio.WriteWAV(w, channels, *rate); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Printf("wrote %d frames to %s\n", len(channels[0]), out)
	return nil
}
