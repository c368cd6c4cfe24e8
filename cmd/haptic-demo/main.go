package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/algo-haptic/audioout"
	"github.com/cwbudde/algo-haptic/haptic"
	"github.com/cwbudde/algo-haptic/preset"
	"github.com/cwbudde/algo-haptic/render"
)

func main() {
	scenario := flag.String("scenario", "slide", "Interaction scenario: click, slide or drive")
	material := flag.String("material", "plastic", "Active material name from the preset table")
	duration := flag.Float64("duration", 5.0, "Scenario duration in seconds")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	headless := flag.Bool("headless", false, "Run without audio output")
	verbose := flag.Bool("verbose", false, "Log every spike")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := preset.Default()
	if *presetPath != "" {
		var err error
		cfg, err = preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}

	durationMs := *duration * 1000.0
	script, err := haptic.BuiltinScript(*scenario, durationMs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var player haptic.Player
	if !*headless {
		out, err := audioout.New(render.DefaultSampleRate, audioout.DefaultChannelCount, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening audio: %v\n", err)
			os.Exit(1)
		}
		defer out.Quit()
		if !out.Enabled() {
			logger.Warn("audio disabled, continuing silently")
		}
		player = out
	}

	engine, err := haptic.New(cfg, player, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()
	if err := engine.SetMaterial(*material); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting scenario",
		"scenario", *scenario, "material", *material,
		"duration_s", *duration, "dt_ms", cfg.DtMs)

	ticker := time.NewTicker(time.Duration(cfg.DtMs * float64(time.Millisecond)))
	defer ticker.Stop()

	ticks := int(durationMs / cfg.DtMs)
	for tick := 0; tick < ticks; tick++ {
		<-ticker.C
		ms := float64(tick) * cfg.DtMs
		if err := script.Apply(engine, ms, cfg.DtMs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		res, err := engine.Step()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error at tick %d: %v\n", tick, err)
			os.Exit(1)
		}
		if res.SAFired || res.RAMotionFired || res.RAClickFired {
			logger.Debug("spike",
				"t_ms", ms,
				"sa", res.SAFired, "ra_motion", res.RAMotionFired, "ra_click", res.RAClickFired,
				"avg_speed", engine.AvgSpeed())
		}
	}

	stats := engine.Stats()
	logger.Info("scenario finished",
		"steps", stats.Steps,
		"sa_spikes", stats.SASpikes,
		"ra_motion_spikes", stats.RAMotionSpikes,
		"ra_click_spikes", stats.RAClickSpikes)
}
