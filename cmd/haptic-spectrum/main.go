// Command haptic-spectrum reports band energies of a material waveform or a
// WAV file over successive time windows, for checking how the material
// shapers distribute spectral content.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/cmplx"
	"os"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-haptic/internal/wavio"
	"github.com/cwbudde/algo-haptic/render"
)

func main() {
	input := flag.String("input", "", "Analyze this WAV file instead of synthesizing")
	materialName := flag.String("material", "metal", "Material to synthesize")
	hz := flag.Float64("hz", 80.0, "Base frequency in Hz")
	ms := flag.Float64("ms", 500.0, "Duration in ms")
	amp := flag.Float64("amp", 0.8, "Amplitude in [0,1]")
	fadeOut := flag.Float64("fade-out", 10.0, "Fade-out in ms")
	coeff := flag.Float64("coeff", 0.0, "Material coefficient (0 = default)")
	sampleRate := flag.Int("sample-rate", render.DefaultSampleRate, "Sample rate for synthesis")
	flag.Parse()

	var samples []float64
	sr := *sampleRate

	if *input != "" {
		raw, fileRate, err := wavio.ReadWAVMono(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *input, err)
			os.Exit(1)
		}
		samples, err = wavio.ResampleIfNeeded(raw, fileRate, sr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resampling: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Input: %s, %d frames @ %d Hz (%.2fs)\n\n",
			*input, len(samples), sr, float64(len(samples))/float64(sr))
	} else {
		m, err := render.ParseMaterial(*materialName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		r, err := render.NewRenderer(sr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		sound, err := r.CreateMaterialSound(m, *hz, *ms, *amp, *fadeOut, *coeff)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		samples = sound.Samples
		coeffLabel := ""
		if m != render.MaterialNone {
			coeffLabel = fmt.Sprintf(", %s=%.2f", m.CoeffName(), *coeff)
		}
		fmt.Printf("Synthesized: %s @ %.1f Hz, %.0fms, amp %.2f%s (%d frames)\n\n",
			m, *hz, *ms, *amp, coeffLabel, len(samples))
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stderr, "Error: empty signal")
		os.Exit(1)
	}

	peak := wavio.Peak(samples)
	fmt.Printf("Peak %.4f (%.1f dBFS)  RMS %.4f\n\n",
		peak, 20*math.Log10(math.Max(peak, 1e-12)), wavio.RMS(samples))

	if err := reportBands(samples, sr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type band struct {
	name string
	loHz float64
	hiHz float64
}

type timeWindow struct {
	name    string
	startMs float64
	endMs   float64
}

// reportBands prints per-band average magnitudes for successive time
// windows of the signal.
func reportBands(signal []float64, sr int) error {
	fftSize := 2048
	hop := 1024
	for fftSize > len(signal) && fftSize > 64 {
		fftSize /= 2
		hop /= 2
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return fmt.Errorf("fft plan: %w", err)
	}

	bands := []band{
		{"rumble (10-40Hz)", 10, 40},
		{"fundamental (40-160Hz)", 40, 160},
		{"low harmonics (160-500Hz)", 160, 500},
		{"mid (500-1.5kHz)", 500, 1500},
		{"texture (1.5-4kHz)", 1500, 4000},
		{"edge (4-10kHz)", 4000, 10000},
	}
	totalMs := float64(len(signal)) / float64(sr) * 1000.0
	windows := []timeWindow{
		{"attack", 0, totalMs * 0.1},
		{"body", totalMs * 0.1, totalMs * 0.6},
		{"tail", totalMs * 0.6, totalMs},
	}

	binHz := float64(sr) / float64(fftSize)
	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}

	spec := make([]complex128, fftSize/2+1)
	buf := make([]float64, fftSize)
	nBins := fftSize / 2

	for _, tw := range windows {
		startSamp := int(tw.startMs / 1000.0 * float64(sr))
		endSamp := int(tw.endMs / 1000.0 * float64(sr))
		if endSamp > len(signal) {
			endSamp = len(signal)
		}
		if startSamp >= endSamp {
			continue
		}

		avg := make([]float64, nBins)
		nFrames := 0
		for pos := startSamp; pos+fftSize <= endSamp; pos += hop {
			for i := 0; i < fftSize; i++ {
				buf[i] = signal[pos+i] * hann[i]
			}
			plan.Forward(spec, buf)
			for k := 1; k < nBins; k++ {
				avg[k] += cmplx.Abs(spec[k])
			}
			nFrames++
		}
		if nFrames == 0 {
			for i := range buf {
				buf[i] = 0
			}
			winLen := endSamp - startSamp
			for i := 0; i < winLen && i < fftSize; i++ {
				buf[i] = signal[startSamp+i] * hann[i]
			}
			plan.Forward(spec, buf)
			for k := 1; k < nBins; k++ {
				avg[k] = cmplx.Abs(spec[k])
			}
			nFrames = 1
		}
		scale := 1.0 / float64(nFrames)
		for k := range avg {
			avg[k] *= scale
		}

		fmt.Printf("--- %s (%.0f-%.0fms, %d STFT frames) ---\n",
			tw.name, tw.startMs, tw.endMs, nFrames)
		for _, b := range bands {
			loK := int(b.loHz / binHz)
			hiK := int(b.hiHz / binHz)
			if loK < 1 {
				loK = 1
			}
			if hiK >= nBins {
				hiK = nBins - 1
			}
			if loK > hiK {
				continue
			}
			var pow float64
			cnt := 0
			for k := loK; k <= hiK; k++ {
				pow += avg[k] * avg[k]
				cnt++
			}
			db := 10 * math.Log10(math.Max(pow/float64(cnt), 1e-24))
			fmt.Printf("  %-26s %6.1f dB\n", b.name, db)
		}
		fmt.Println()
	}
	return nil
}
