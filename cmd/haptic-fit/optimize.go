package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-haptic/analysis"
	"github.com/cwbudde/algo-haptic/neuron"
)

type fitConfig struct {
	targetHz float64
	current  float64
	ticks    int
	dtMs     float64
	vInit    float64
	variant  string
	pop      int
	maxEvals int
	seed     int64
}

type fitResult struct {
	params  neuron.Params
	metrics analysis.TrainMetrics
	evals   int
}

// knobDef maps one normalized optimizer dimension onto a parameter range.
type knobDef struct {
	name string
	lo   float64
	hi   float64
}

// Search ranges cover the regular-spiking through fast-spiking corner of
// the Izhikevich parameter space.
var knobs = []knobDef{
	{"a", 0.01, 0.5},
	{"b", 0.1, 0.3},
	{"c", -70.0, -50.0},
	{"d", 0.5, 10.0},
}

func fromNormalized(pos []float64, vInit float64) neuron.Params {
	vals := make([]float64, len(knobs))
	for i, def := range knobs {
		x := pos[i]
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		vals[i] = def.lo + x*(def.hi-def.lo)
	}
	return neuron.Params{A: vals[0], B: vals[1], C: vals[2], D: vals[3], VInit: vInit}
}

func runFit(cfg *fitConfig) (*fitResult, error) {
	mayflyConfig, err := newMayflyConfig(cfg.variant, cfg.pop, len(knobs), cfg.maxEvals)
	if err != nil {
		return nil, err
	}
	mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed))

	best := &fitResult{metrics: analysis.TrainMetrics{Score: math.Inf(1)}}
	evals := 0
	mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
		p := fromNormalized(pos, cfg.vInit)
		m, err := score(p, cfg)
		if err != nil {
			// Degenerate parameter combinations count as a full miss.
			return 1.0
		}
		evals++
		if m.Score < best.metrics.Score {
			best.params = p
			best.metrics = m
			fmt.Printf("Improved eval=%d score=%.4f rate=%.2fHz\n", evals, m.Score, m.RateHz)
		}
		return m.Score
	}

	if _, err := runMayfly(mayflyConfig); err != nil {
		return nil, err
	}
	if math.IsInf(best.metrics.Score, 1) {
		return nil, fmt.Errorf("no successful evaluation")
	}
	best.evals = evals
	return best, nil
}

func newMayflyConfig(variant string, pop, dims, maxEvals int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	iters := maxEvals / (2 * pop)
	if iters < 1 {
		iters = 1
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	// Mayfly's implementation assumes NC/2 parent pairs are available from
	// both male and female populations.
	cfg.NC = 2 * pop
	// Keep at least one mutation to avoid stalling on small populations.
	nm := int(math.Round(0.05 * float64(pop)))
	if nm < 1 {
		nm = 1
	}
	cfg.NM = nm
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
