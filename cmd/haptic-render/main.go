package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-haptic/haptic"
	"github.com/cwbudde/algo-haptic/internal/wavio"
	"github.com/cwbudde/algo-haptic/preset"
	"github.com/cwbudde/algo-haptic/render"
)

func main() {
	scenario := flag.String("scenario", "click", "Interaction scenario: click, slide or drive")
	material := flag.String("material", "plastic", "Active material name from the preset table")
	duration := flag.Float64("duration", 2.0, "Scenario duration in seconds")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

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

	mixer := newMixPlayer(render.DefaultSampleRate, durationMs)
	engine, err := haptic.New(cfg, mixer, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()
	if err := engine.SetMaterial(*material); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %q scenario on %s for %.2fs (dt %.2fms)...\n",
		*scenario, *material, *duration, cfg.DtMs)

	ticks := int(durationMs / cfg.DtMs)
	for tick := 0; tick < ticks; tick++ {
		ms := float64(tick) * cfg.DtMs
		mixer.setTimeMs(ms)
		if err := script.Apply(engine, ms, cfg.DtMs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if _, err := engine.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "Error at tick %d: %v\n", tick, err)
			os.Exit(1)
		}
	}

	stats := engine.Stats()
	fmt.Printf("Spikes: SA=%d  RA-motion=%d  RA-click=%d  (%d sounds mixed)\n",
		stats.SASpikes, stats.RAMotionSpikes, stats.RAClickSpikes, mixer.plays)

	timeline := mixer.finish()
	if err := wavio.WriteMonoWAV(*output, timeline, render.DefaultSampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames, peak %.3f)\n",
		*output, len(timeline), wavio.Peak(timeline))
}
