package wavio

import (
	"math"
	"path/filepath"
	"testing"
)

func sine(hz float64, n, sampleRate int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate))
	}
	return out
}

func TestWriteReadRoundTripPreservesShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tone.wav")
	src := sine(120, 4410, 44100, 0.5)
	if err := WriteMonoWAV(path, src, 44100); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}

	got, rate, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if rate != 44100 {
		t.Fatalf("sample rate: got=%d want=44100", rate)
	}
	if len(got) != len(src) {
		t.Fatalf("length: got=%d want=%d", len(got), len(src))
	}

	// Decoded samples come back in integer PCM scale; compare shapes via
	// normalized correlation instead of absolute values.
	if corr := correlation(src, got); corr < 0.999 {
		t.Fatalf("round trip distorted the signal: correlation=%f", corr)
	}
}

func TestReadWAVMonoMissingFile(t *testing.T) {
	if _, _, err := ReadWAVMono(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResampleIfNeededIdentity(t *testing.T) {
	src := sine(100, 1000, 44100, 0.5)
	out, err := ResampleIfNeeded(src, 44100, 44100)
	if err != nil {
		t.Fatalf("ResampleIfNeeded: %v", err)
	}
	if &out[0] != &src[0] {
		t.Fatalf("same-rate resample should return the input unchanged")
	}
}

func TestResampleIfNeededHalvesRate(t *testing.T) {
	src := sine(100, 4410, 44100, 0.5)
	out, err := ResampleIfNeeded(src, 44100, 22050)
	if err != nil {
		t.Fatalf("ResampleIfNeeded: %v", err)
	}
	ratio := float64(len(out)) / float64(len(src))
	if ratio < 0.45 || ratio > 0.55 {
		t.Fatalf("downsample ratio: got=%f want~0.5 (len %d -> %d)", ratio, len(src), len(out))
	}
}

func TestRMSAndPeak(t *testing.T) {
	if RMS(nil) != 0 || Peak(nil) != 0 {
		t.Fatalf("empty signal should measure zero")
	}
	sig := []float64{0.5, -0.5, 0.5, -0.5}
	if got := RMS(sig); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("rms: got=%f want=0.5", got)
	}
	if got := Peak([]float64{0.1, -0.9, 0.3}); got != 0.9 {
		t.Fatalf("peak: got=%f want=0.9", got)
	}
}

func correlation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}
