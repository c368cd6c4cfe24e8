// Command haptic-fit searches Izhikevich parameters that make a receptor
// neuron fire at a target rate under a constant drive current.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-haptic/analysis"
	"github.com/cwbudde/algo-haptic/neuron"
	"github.com/cwbudde/algo-haptic/preset"
)

func main() {
	targetHz := flag.Float64("target-hz", 40.0, "Target firing rate in Hz")
	current := flag.Float64("current", 20.0, "Constant drive current")
	ticks := flag.Int("ticks", 2000, "Simulation length in ticks")
	dtMs := flag.Float64("dt", 1.0, "Tick duration in ms")
	vInit := flag.Float64("v-init", -70.0, "Initial membrane potential")
	variant := flag.String("variant", "desma", "Mayfly variant: ma, desma, olce, eobbma, gsasma, mpma, aoblmoa")
	population := flag.Int("population", 20, "Mayfly population size per sex")
	maxEvals := flag.Int("max-evals", 4000, "Evaluation budget")
	seed := flag.Int64("seed", 1, "Optimizer random seed")
	output := flag.String("output", "", "Write best parameters as a preset overlay JSON (optional)")
	flag.Parse()

	if *targetHz <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -target-hz must be > 0")
		os.Exit(1)
	}
	if *ticks < 10 || *dtMs <= 0 {
		fmt.Fprintln(os.Stderr, "Error: need -ticks >= 10 and -dt > 0")
		os.Exit(1)
	}

	cfg := &fitConfig{
		targetHz: *targetHz,
		current:  *current,
		ticks:    *ticks,
		dtMs:     *dtMs,
		vInit:    *vInit,
		variant:  *variant,
		pop:      *population,
		maxEvals: *maxEvals,
		seed:     *seed,
	}

	fmt.Printf("Fitting to %.1f Hz (current %.1f, %d ticks @ %.2fms, %s, budget %d evals)...\n",
		cfg.targetHz, cfg.current, cfg.ticks, cfg.dtMs, cfg.variant, cfg.maxEvals)

	res, err := runFit(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := res.params
	fmt.Printf("Best: a=%.4f b=%.4f c=%.2f d=%.3f\n", p.A, p.B, p.C, p.D)
	fmt.Printf("  rate=%.2fHz (target %.2f)  isi_cv=%.3f  score=%.4f  evals=%d\n",
		res.metrics.RateHz, cfg.targetHz, res.metrics.ISICV, res.metrics.Score, res.evals)

	if *output != "" {
		if err := writeOverlay(*output, p); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *output, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *output)
	}
}

// simulate runs one neuron under constant current and returns spike ticks.
func simulate(p neuron.Params, dtMs, current float64, ticks int) ([]int, error) {
	arr, err := neuron.NewArray(dtMs, []neuron.Params{p})
	if err != nil {
		return nil, err
	}
	drive := []float64{current}
	var spikeTicks []int
	for tick := 0; tick < ticks; tick++ {
		spikes, err := arr.Step(drive)
		if err != nil {
			return nil, err
		}
		if spikes[0].Fired {
			spikeTicks = append(spikeTicks, tick)
		}
	}
	return spikeTicks, nil
}

func score(p neuron.Params, cfg *fitConfig) (analysis.TrainMetrics, error) {
	spikeTicks, err := simulate(p, cfg.dtMs, cfg.current, cfg.ticks)
	if err != nil {
		return analysis.TrainMetrics{}, err
	}
	return analysis.CompareRate(spikeTicks, cfg.ticks, cfg.dtMs, cfg.targetHz), nil
}

// writeOverlay emits a preset overlay that pins the fitted SA parameters.
func writeOverlay(path string, p neuron.Params) error {
	f := preset.File{
		SA: &preset.NeuronSetting{
			A: &p.A, B: &p.B, C: &p.C, D: &p.D, VInit: &p.VInit,
			InitA: &p.A,
		},
	}
	b, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
