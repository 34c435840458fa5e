package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-spu/spu"
	"github.com/valerio/go-spu/spu/audio"
	"github.com/valerio/go-spu/spu/backend"
	"github.com/valerio/go-spu/spu/backend/headless"
	"github.com/valerio/go-spu/spu/backend/sdl2"
	"github.com/valerio/go-spu/spu/backend/terminal"
	"github.com/valerio/go-spu/spu/library"
	"github.com/valerio/go-spu/spu/reverb"
	"github.com/valerio/go-spu/spu/sequencer"
	"github.com/valerio/go-spu/spu/session"
	"github.com/valerio/go-spu/spu/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "spuplay"
	app.Description = "A PlayStation SPU emulator playing MIDI through sampled instruments"
	app.Usage = "spuplay [options] [MIDI file]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bank",
			Usage: "Sample bank file (default: built-in demo instruments)",
		},
		cli.StringFlag{
			Name:  "save-bank",
			Usage: "Write the loaded sample bank to this path",
		},
		cli.BoolFlag{
			Name:  "list",
			Usage: "List the bank's instruments and exit",
		},
		cli.StringFlag{
			Name:  "midi",
			Usage: "Standard MIDI File to play (default: built-in demo song)",
		},
		cli.BoolFlag{
			Name:  "scale-test",
			Usage: "Play a chromatic octave on every instrument in the bank",
		},
		cli.BoolFlag{
			Name:  "loop",
			Usage: "Restart the song when it ends",
		},
		cli.StringFlag{
			Name:  "output",
			Usage: "Audio output: oto, sdl2, wav or null",
			Value: "oto",
		},
		cli.StringFlag{
			Name:  "out",
			Usage: "WAV file to render to (implies --output wav)",
		},
		cli.Float64Flag{
			Name:  "seconds",
			Usage: "Stop after this many seconds (0 = when the song ends)",
		},
		cli.StringFlag{
			Name:  "reverb",
			Usage: "Reverb preset (off, room, studio-small, studio-medium, studio-large, hall, half-echo, space-echo, chaos-echo, delay)",
			Value: "off",
		},
		cli.Float64Flag{
			Name:  "wet",
			Usage: "Reverb wet level, 0 to 1",
			Value: reverb.DefaultWetLevel,
		},
		cli.Float64Flag{
			Name:  "volume",
			Usage: "Master volume, 0 to 2",
			Value: 1,
		},
		cli.BoolFlag{
			Name:  "tui",
			Usage: "Show the terminal voice meters",
		},
		cli.BoolFlag{
			Name:  "sdl",
			Usage: "Show the SDL2 voice meters (requires the sdl2 build tag)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save voice snapshots every N frames when running without a UI (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save voice snapshots (default: temp directory)",
		},
	}
	app.Action = runPlayer

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running player", "error", err)
		os.Exit(1)
	}
}

func runPlayer(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	lib, err := loadLibrary(c.String("bank"))
	if err != nil {
		return err
	}
	if path := c.String("save-bank"); path != "" {
		if err := saveLibrary(lib, path); err != nil {
			return err
		}
	}
	if c.Bool("list") {
		for _, inst := range lib.InstrumentNames() {
			fmt.Printf("%3d  %s\n", inst.Program, inst.Name)
		}
		return nil
	}

	core := spu.New()
	core.LoadSampleLibrary(lib)

	preset, ok := reverb.ParseType(c.String("reverb"))
	if !ok {
		return fmt.Errorf("unknown reverb preset %q", c.String("reverb"))
	}
	core.SetReverbPreset(preset)
	core.SetReverbWetLevel(float32(c.Float64("wet")))
	core.SetMasterVolume(float32(c.Float64("volume")))

	songPath := c.String("midi")
	if songPath == "" && c.NArg() > 0 {
		songPath = c.Args().Get(0)
	}
	schedule, err := loadSchedule(c, songPath, lib)
	if err != nil {
		return err
	}

	player := sequencer.NewPlayer(schedule, sequencer.NewDispatcher(core))
	player.Loop = c.Bool("loop")
	sess := session.New(core, player)

	outputMode := c.String("output")
	if c.String("out") != "" {
		outputMode = "wav"
	}

	var (
		limiter timing.Limiter
		render  func() error
	)
	switch outputMode {
	case "oto":
		op, err := audio.NewOtoPlayer(sess.Stream(), audio.DefaultBlockFrames)
		if err != nil {
			return err
		}
		defer op.Close()
		op.Start()

	case "sdl2":
		pump := audio.NewPump(sess.Stream(), audio.NewSDLOutput(), nil, 0)
		if err := pump.Start(); err != nil {
			return err
		}
		defer func() {
			if err := pump.Stop(); err != nil {
				slog.Error("Failed to stop audio", "error", err)
			}
		}()

	case "wav", "null":
		var out audio.Output = audio.NullOutput{}
		if outputMode == "wav" {
			path := c.String("out")
			if path == "" {
				return errors.New("wav output requires --out")
			}
			out = audio.NewWAVOutput(path)
			slog.Info("Rendering to file", "path", path)
		}
		if err := out.Open(audio.SampleRate, audio.Channels, audio.DefaultBlockFrames); err != nil {
			return err
		}
		defer func() {
			if err := out.Close(); err != nil {
				slog.Error("Failed to close output", "error", err)
			}
		}()
		render = session.FrameRender(audio.NewPump(sess.Stream(), out, nil, 0))
		limiter = timing.NewNoOpLimiter()

	default:
		return fmt.Errorf("unknown output %q (want oto, sdl2, wav or null)", outputMode)
	}

	b, err := newBackend(c, songPath)
	if err != nil {
		return err
	}
	// real-time outputs pace themselves; offline renders run flat out
	// unless someone is watching
	_, isHeadless := b.(*headless.Backend)
	switch {
	case limiter == nil:
		limiter = timing.NewAdaptiveLimiter(timing.FrameDuration())
	case !isHeadless:
		ticker := timing.NewTickerLimiter(timing.FrameDuration())
		defer ticker.Stop()
		limiter = ticker
	}

	title := fmt.Sprintf("spuplay - %s", schedule.Name)
	if err := b.Init(backend.BackendConfig{Title: title, ShowDebug: c.Bool("debug")}); err != nil {
		return err
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			slog.Error("Failed to clean up backend", "error", err)
		}
	}()

	slog.Info("Playing",
		"song", schedule.Name,
		"length", schedule.Duration(),
		"instruments", len(lib.Instruments),
		"reverb", preset,
		"output", outputMode)
	return sess.Run(b, limiter, render)
}

func loadLibrary(path string) (*library.SampleLibrary, error) {
	if path == "" {
		return library.DemoLibrary()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bank: %w", err)
	}
	defer f.Close()

	lib, err := library.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank %s: %w", path, err)
	}
	return lib, nil
}

func saveLibrary(lib *library.SampleLibrary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create bank file: %w", err)
	}
	if err := library.Save(f, lib); err != nil {
		f.Close()
		return fmt.Errorf("failed to save bank: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to save bank: %w", err)
	}
	slog.Info("Saved sample bank", "path", path, "instruments", len(lib.Instruments))
	return nil
}

func loadSchedule(c *cli.Context, songPath string, lib *library.SampleLibrary) (*sequencer.Schedule, error) {
	switch {
	case c.Bool("scale-test"):
		var programs []uint8
		for _, inst := range lib.InstrumentNames() {
			programs = append(programs, inst.Program)
		}
		return sequencer.ScaleTest(programs), nil

	case songPath != "":
		s, err := sequencer.LoadSMF(songPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load MIDI file: %w", err)
		}
		return s, nil
	}

	return sequencer.DemoSong(), nil
}

func newBackend(c *cli.Context, songPath string) (backend.Backend, error) {
	switch {
	case c.Bool("tui"):
		return terminal.New(), nil
	case c.Bool("sdl"):
		return sdl2.New(), nil
	}

	snapshotConfig, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), songPath)
	if err != nil {
		return nil, err
	}
	frames := int(c.Float64("seconds") * timing.DisplayFPS)
	return headless.New(frames, snapshotConfig), nil
}
