// Package render synthesizes the short audio buffers that represent single
// receptor spikes. Buffers are parameterized by frequency, duration,
// amplitude and fade-out, optionally shaped by a material timbre, and cached
// by their full parameter tuple so repeated spikes reuse one buffer.
package render

import (
	"encoding/binary"
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	dspsignal "github.com/cwbudde/algo-dsp/dsp/signal"
)

// DefaultSampleRate is the audio rate used by the haptic pipeline.
const DefaultSampleRate = 44100

// Seed for the deterministic noise generator. Identical parameters always
// resolve to byte-identical buffers.
const noiseSeed = 1

// SoundObject is an immutable synthesized buffer. Samples are mono float64
// in [-1, 1]; PCM holds the same data as 16-bit little-endian for playback.
type SoundObject struct {
	SampleRate int
	Samples    []float64
	DurationMs float64
	FadeOutMs  float64

	pcm []byte
}

// PCM16 returns the buffer as 16-bit little-endian mono PCM.
func (s *SoundObject) PCM16() []byte {
	return s.pcm
}

type soundKey struct {
	material  Material
	hz        float64
	ms        float64
	amp       float64
	fadeOutMs float64
	coeff     float64
	sweepToHz float64
}

// Renderer synthesizes and caches sound objects at a fixed sample rate.
type Renderer struct {
	sampleRate int
	gen        *dspsignal.Generator
	cache      map[soundKey]*SoundObject
}

// NewRenderer creates a renderer at the given audio sample rate.
func NewRenderer(sampleRate int) (*Renderer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("render sample rate must be > 0: %d", sampleRate)
	}
	gen := dspsignal.NewGeneratorWithOptions(
		[]dspcore.ProcessorOption{dspcore.WithSampleRate(float64(sampleRate))},
		dspsignal.WithSeed(noiseSeed),
	)
	return &Renderer{
		sampleRate: sampleRate,
		gen:        gen,
		cache:      make(map[soundKey]*SoundObject),
	}, nil
}

// SampleRate returns the renderer's audio sample rate.
func (r *Renderer) SampleRate() int {
	return r.sampleRate
}

// CacheSize returns the number of cached sound objects.
func (r *Renderer) CacheSize() int {
	return len(r.cache)
}

// numSamples converts a duration in milliseconds to a sample count.
func (r *Renderer) numSamples(ms float64) int {
	return int(math.Round(float64(r.sampleRate) * ms / 1000.0))
}

// CreateSoundObject synthesizes (or returns the cached) plain sine buffer.
func (r *Renderer) CreateSoundObject(hz, ms, amp, fadeOutMs float64) (*SoundObject, error) {
	return r.CreateMaterialSound(MaterialNone, hz, ms, amp, fadeOutMs, 0)
}

// CreateMaterialSound synthesizes (or returns the cached) buffer shaped by
// the material's timbre transform. coeff is the material's extra
// coefficient (brightness, resonance, ...); zero selects the material
// default. MaterialNone renders the plain sine carrier.
func (r *Renderer) CreateMaterialSound(m Material, hz, ms, amp, fadeOutMs, coeff float64) (*SoundObject, error) {
	if err := validateSoundParams(hz, ms, amp, fadeOutMs); err != nil {
		return nil, err
	}
	if !m.Valid() {
		return nil, fmt.Errorf("unknown material %d", int(m))
	}
	if coeff == 0 {
		coeff = m.defaultCoeff()
	}

	key := soundKey{material: m, hz: hz, ms: ms, amp: amp, fadeOutMs: fadeOutMs, coeff: coeff}
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}

	n := r.numSamples(ms)
	if n < 1 {
		n = 1
	}

	wave, err := r.shapeMaterial(m, hz, ms, amp, coeff, n)
	if err != nil {
		return nil, err
	}

	applyAttack(wave, r.sampleRate, m.attackMs())
	applyFadeOut(wave, r.sampleRate, fadeOutMs)
	clipInPlace(wave)

	obj := newSoundObject(r.sampleRate, wave, ms, fadeOutMs)
	r.cache[key] = obj
	return obj, nil
}

// CreateSweepSound synthesizes (or returns the cached) buffer whose carrier
// frequency glides linearly from startHz to endHz over the duration.
func (r *Renderer) CreateSweepSound(startHz, endHz, ms, amp, fadeOutMs float64) (*SoundObject, error) {
	if err := validateSoundParams(startHz, ms, amp, fadeOutMs); err != nil {
		return nil, err
	}
	if endHz <= 0 || math.IsNaN(endHz) || math.IsInf(endHz, 0) {
		return nil, fmt.Errorf("sweep end frequency must be > 0 and finite: %f", endHz)
	}

	key := soundKey{material: MaterialNone, hz: startHz, ms: ms, amp: amp, fadeOutMs: fadeOutMs, sweepToHz: endHz}
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}

	n := r.numSamples(ms)
	if n < 1 {
		n = 1
	}
	wave := make([]float64, n)
	phase := 0.0
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n)
		freq := startHz + (endHz-startHz)*frac
		phase += 2 * math.Pi * freq / float64(r.sampleRate)
		wave[i] = amp * math.Sin(phase)
	}

	applyFadeOut(wave, r.sampleRate, fadeOutMs)
	clipInPlace(wave)

	obj := newSoundObject(r.sampleRate, wave, ms, fadeOutMs)
	r.cache[key] = obj
	return obj, nil
}

func newSoundObject(sampleRate int, wave []float64, ms, fadeOutMs float64) *SoundObject {
	pcm := make([]byte, len(wave)*2)
	for i, v := range wave {
		s := int16(v * 32767)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return &SoundObject{
		SampleRate: sampleRate,
		Samples:    wave,
		DurationMs: ms,
		FadeOutMs:  fadeOutMs,
		pcm:        pcm,
	}
}

func validateSoundParams(hz, ms, amp, fadeOutMs float64) error {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("sound frequency must be > 0 and finite: %f", hz)
	}
	if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("sound duration must be > 0 and finite: %f", ms)
	}
	if amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
		return fmt.Errorf("sound amplitude must be >= 0 and finite: %f", amp)
	}
	if fadeOutMs < 0 || math.IsNaN(fadeOutMs) || math.IsInf(fadeOutMs, 0) {
		return fmt.Errorf("sound fade-out must be >= 0 and finite: %f", fadeOutMs)
	}
	return nil
}

// applyAttack ramps the first attackMs of the buffer from silence to avoid
// an onset click.
func applyAttack(wave []float64, sampleRate int, attackMs float64) {
	n := int(float64(sampleRate) * attackMs / 1000.0)
	if n <= 0 || n >= len(wave) {
		return
	}
	for i := 0; i < n; i++ {
		wave[i] *= float64(i) / float64(n)
	}
}

// applyFadeOut linearly ramps the last fadeOutMs of the buffer to zero so
// the buffer ends without a discontinuity.
func applyFadeOut(wave []float64, sampleRate int, fadeOutMs float64) {
	n := int(float64(sampleRate) * fadeOutMs / 1000.0)
	if n <= 0 || n > len(wave) {
		return
	}
	start := len(wave) - n
	for i := 0; i < n; i++ {
		wave[start+i] *= 1.0 - float64(i+1)/float64(n)
	}
}

func clipInPlace(wave []float64) {
	for i, v := range wave {
		if v > 1 {
			wave[i] = 1
		} else if v < -1 {
			wave[i] = -1
		}
	}
}
