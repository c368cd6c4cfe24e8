package render

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-approx"
	effects "github.com/cwbudde/algo-dsp/dsp/effects/modulation"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Material tags the closed set of timbre transforms. The set is fixed;
// adding a material means adding a case to shapeMaterial.
type Material int

const (
	MaterialNone Material = iota
	MaterialGlass
	MaterialMetal
	MaterialWood
	MaterialPlastic
	MaterialFabric
	MaterialCeramic
	MaterialRubber
)

// Valid reports whether m is a known material tag.
func (m Material) Valid() bool {
	return m >= MaterialNone && m <= MaterialRubber
}

func (m Material) String() string {
	switch m {
	case MaterialNone:
		return "none"
	case MaterialGlass:
		return "glass"
	case MaterialMetal:
		return "metal"
	case MaterialWood:
		return "wood"
	case MaterialPlastic:
		return "plastic"
	case MaterialFabric:
		return "fabric"
	case MaterialCeramic:
		return "ceramic"
	case MaterialRubber:
		return "rubber"
	}
	return fmt.Sprintf("material(%d)", int(m))
}

// ParseMaterial maps a material name to its tag.
func ParseMaterial(name string) (Material, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "sine":
		return MaterialNone, nil
	case "glass":
		return MaterialGlass, nil
	case "metal":
		return MaterialMetal, nil
	case "wood":
		return MaterialWood, nil
	case "plastic":
		return MaterialPlastic, nil
	case "fabric":
		return MaterialFabric, nil
	case "ceramic":
		return MaterialCeramic, nil
	case "rubber":
		return MaterialRubber, nil
	}
	return MaterialNone, fmt.Errorf("unknown material %q", name)
}

// CoeffName returns the name of the material's extra coefficient.
func (m Material) CoeffName() string {
	switch m {
	case MaterialGlass:
		return "brightness"
	case MaterialMetal:
		return "resonance"
	case MaterialWood:
		return "warmth"
	case MaterialPlastic:
		return "hardness"
	case MaterialFabric:
		return "softness"
	case MaterialCeramic:
		return "brittleness"
	case MaterialRubber:
		return "elasticity"
	}
	return ""
}

func (m Material) defaultCoeff() float64 {
	switch m {
	case MaterialGlass:
		return 2.0
	case MaterialMetal:
		return 1.5
	case MaterialWood:
		return 1.0
	case MaterialPlastic:
		return 1.0
	case MaterialFabric:
		return 1.0
	case MaterialCeramic:
		return 1.5
	case MaterialRubber:
		return 1.0
	}
	return 1.0
}

// attackMs is the per-material onset ramp duration.
func (m Material) attackMs() float64 {
	switch m {
	case MaterialGlass, MaterialPlastic:
		return 1.0
	case MaterialCeramic:
		return 2.0
	case MaterialWood:
		return 3.0
	case MaterialMetal, MaterialRubber:
		return 5.0
	case MaterialFabric:
		return 10.0
	}
	return 0.0
}

// Profile bundles the coefficients a named material carries in presets.
type Profile struct {
	Material       Material
	Roughness      float64
	FrequencyScale float64
	Coefficient    float64
}

// shapeMaterial builds the n-sample waveform for one material. Every branch
// is a pure function of its inputs plus the renderer's fixed noise seed.
func (r *Renderer) shapeMaterial(m Material, hz, ms, amp, coeff float64, n int) ([]float64, error) {
	switch m {
	case MaterialNone:
		return r.gen.Sine(hz, amp, n)
	case MaterialGlass:
		return r.shapeGlass(hz, amp, coeff, n)
	case MaterialMetal:
		return r.shapeMetal(hz, amp, coeff, n)
	case MaterialWood:
		return r.shapeWood(hz, amp, coeff, n)
	case MaterialPlastic:
		return r.shapePlastic(hz, amp, coeff, n)
	case MaterialFabric:
		return r.shapeFabric(hz, amp, coeff, n)
	case MaterialCeramic:
		return r.shapeCeramic(hz, amp, coeff, n)
	case MaterialRubber:
		return r.shapeRubber(hz, amp, coeff, n)
	}
	return nil, fmt.Errorf("unknown material %d", int(m))
}

// shapeGlass: bright overtone stack over the carrier, with a trace of
// smoothed high-frequency noise. brightness scales the overtones.
func (r *Renderer) shapeGlass(hz, amp, brightness float64, n int) ([]float64, error) {
	wave, err := r.gen.Sine(hz, amp*0.9, n)
	if err != nil {
		return nil, err
	}
	if err := r.addSine(wave, hz*2, amp*0.15*brightness*0.3); err != nil {
		return nil, err
	}
	if err := r.addSine(wave, hz*3, amp*0.05*brightness*0.2); err != nil {
		return nil, err
	}
	noise, err := r.filteredNoise(amp*0.002, 2000.0, n)
	if err != nil {
		return nil, err
	}
	addInPlace(wave, noise)
	return wave, nil
}

// shapeMetal: inharmonic partials and a shallow ring modulation. resonance
// scales the partials.
func (r *Renderer) shapeMetal(hz, amp, resonance float64, n int) ([]float64, error) {
	wave, err := r.gen.Sine(hz, amp*0.6, n)
	if err != nil {
		return nil, err
	}
	// Non-integer partial ratios give the metallic clang.
	if err := r.addSine(wave, hz*2.76, amp*0.25*resonance*0.6); err != nil {
		return nil, err
	}
	if err := r.addSine(wave, hz*5.40, amp*0.12*resonance*0.6); err != nil {
		return nil, err
	}

	trem, err := effects.NewTremolo(float64(r.sampleRate),
		effects.WithTremoloRateHz(ringRate(hz)),
		effects.WithTremoloDepth(0.15),
	)
	if err != nil {
		return nil, err
	}
	if err := trem.ProcessInPlace(wave); err != nil {
		return nil, err
	}

	noise, err := r.gen.WhiteNoise(amp*0.01, n)
	if err != nil {
		return nil, err
	}
	addInPlace(wave, noise)
	return wave, nil
}

// shapeWood: soft harmonics plus a sub-harmonic, then a low-pass over the
// whole stack to pull back the highs. warmth scales the harmonic content.
func (r *Renderer) shapeWood(hz, amp, warmth float64, n int) ([]float64, error) {
	wave, err := r.gen.Sine(hz, amp*0.8, n)
	if err != nil {
		return nil, err
	}
	if err := r.addSine(wave, hz*2, amp*0.3*warmth); err != nil {
		return nil, err
	}
	if err := r.addSine(wave, hz*3, amp*0.2*warmth); err != nil {
		return nil, err
	}
	if err := r.addSine(wave, hz*0.5, amp*0.1*warmth); err != nil {
		return nil, err
	}

	noise, err := r.filteredNoise(amp*0.02, 600.0, n)
	if err != nil {
		return nil, err
	}
	addInPlace(wave, noise)

	cutoff := hz * 3.5
	nyquist := float64(r.sampleRate) / 2
	if cutoff < nyquist*0.9 {
		chain := biquad.NewChain(design.ButterworthLP(cutoff, 2, float64(r.sampleRate)))
		chain.ProcessBlock(wave)
	}
	return wave, nil
}

// shapePlastic: band-limited square component over the carrier with a fast
// exponential decay. hardness scales the second harmonic.
func (r *Renderer) shapePlastic(hz, amp, hardness float64, n int) ([]float64, error) {
	wave, err := r.gen.Sine(hz, amp*0.8, n)
	if err != nil {
		return nil, err
	}
	if err := r.addSine(wave, hz*2, amp*0.2*hardness*0.7); err != nil {
		return nil, err
	}
	// Band-limited square: odd harmonics with 1/k rolloff.
	for _, k := range []float64{1, 3, 5, 7} {
		if hz*k >= float64(r.sampleRate)/2 {
			break
		}
		if err := r.addSine(wave, hz*k, amp*0.03/k); err != nil {
			return nil, err
		}
	}
	applyExpDecay(wave, 3.0)
	return wave, nil
}

// shapeFabric: carrier buried in low-passed broadband noise. softness scales
// the noise level.
func (r *Renderer) shapeFabric(hz, amp, softness float64, n int) ([]float64, error) {
	wave, err := r.gen.Sine(hz, amp*0.6, n)
	if err != nil {
		return nil, err
	}
	noise, err := r.filteredNoise(amp*0.3*softness, 1200.0, n)
	if err != nil {
		return nil, err
	}
	addInPlace(wave, noise)
	return wave, nil
}

// shapeCeramic: like glass but duller — an integer harmonic stack without
// the noise sheen. brittleness scales the harmonics.
func (r *Renderer) shapeCeramic(hz, amp, brittleness float64, n int) ([]float64, error) {
	wave, err := r.gen.Sine(hz, amp*0.7, n)
	if err != nil {
		return nil, err
	}
	for i, gain := range []float64{0.3, 0.2, 0.1} {
		harm := float64(i + 2)
		if err := r.addSine(wave, hz*harm, amp*gain*brittleness); err != nil {
			return nil, err
		}
	}
	return wave, nil
}

// shapeRubber: slightly flattened carrier with slow amplitude modulation and
// a soft decay. elasticity scales the upper partial.
func (r *Renderer) shapeRubber(hz, amp, elasticity float64, n int) ([]float64, error) {
	wave, err := r.gen.Sine(hz*0.8, amp*0.8, n)
	if err != nil {
		return nil, err
	}
	if err := r.addSine(wave, hz*1.6, amp*0.2*elasticity); err != nil {
		return nil, err
	}

	trem, err := effects.NewTremolo(float64(r.sampleRate),
		effects.WithTremoloRateHz(ringRate(hz*0.1)),
		effects.WithTremoloDepth(0.2),
	)
	if err != nil {
		return nil, err
	}
	if err := trem.ProcessInPlace(wave); err != nil {
		return nil, err
	}

	applyExpDecay(wave, 2.0)
	return wave, nil
}

// addSine mixes a sine partial into wave.
func (r *Renderer) addSine(wave []float64, hz, amp float64) error {
	if amp == 0 {
		return nil
	}
	partial, err := r.gen.Sine(hz, amp, len(wave))
	if err != nil {
		return err
	}
	addInPlace(wave, partial)
	return nil
}

// filteredNoise generates seeded white noise low-passed at cutoffHz.
func (r *Renderer) filteredNoise(amp, cutoffHz float64, n int) ([]float64, error) {
	if amp == 0 {
		return make([]float64, n), nil
	}
	noise, err := r.gen.WhiteNoise(amp, n)
	if err != nil {
		return nil, err
	}
	chain := biquad.NewChain(design.ButterworthLP(cutoffHz, 2, float64(r.sampleRate)))
	chain.ProcessBlock(noise)
	return noise, nil
}

// applyExpDecay multiplies the buffer by exp(-rate * t/T).
func applyExpDecay(wave []float64, rate float64) {
	n := len(wave)
	if n == 0 {
		return
	}
	for i := range wave {
		t := float64(i) / float64(n)
		wave[i] *= float64(approx.FastExp(float32(-rate * t)))
	}
}

// ringRate keeps amplitude-modulation rates in a sane audio range.
func ringRate(hz float64) float64 {
	rate := hz * 0.05
	if rate < 0.5 {
		rate = 0.5
	}
	if rate > 40 {
		rate = 40
	}
	return rate
}

func addInPlace(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}
