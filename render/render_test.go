package render

import (
	"math"
	"testing"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(DefaultSampleRate)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestBufferLengthMatchesDuration(t *testing.T) {
	r := newTestRenderer(t)
	cases := []struct {
		ms   float64
		want int
	}{
		{100, 4410},
		{120, 5292},
		{33.3, int(math.Round(44100 * 33.3 / 1000.0))},
		{1, 44},
	}
	for _, c := range cases {
		s, err := r.CreateSoundObject(80, c.ms, 0.5, 5)
		if err != nil {
			t.Fatalf("CreateSoundObject(%gms): %v", c.ms, err)
		}
		if len(s.Samples) != c.want {
			t.Fatalf("buffer length for %gms: got=%d want=%d", c.ms, len(s.Samples), c.want)
		}
		if len(s.PCM16()) != 2*c.want {
			t.Fatalf("pcm length for %gms: got=%d want=%d", c.ms, len(s.PCM16()), 2*c.want)
		}
	}
}

func TestFadeOutEndsAtZero(t *testing.T) {
	r := newTestRenderer(t)
	faded, err := r.CreateSoundObject(80, 100, 0.8, 20)
	if err != nil {
		t.Fatalf("CreateSoundObject: %v", err)
	}
	plain, err := r.CreateSoundObject(80, 100, 0.8, 0)
	if err != nil {
		t.Fatalf("CreateSoundObject: %v", err)
	}

	n := len(faded.Samples)
	if last := faded.Samples[n-1]; last != 0 {
		t.Fatalf("expected final sample 0, got %f", last)
	}

	fadeSamples := int(math.Round(44100 * 20 / 1000.0))
	start := n - fadeSamples
	prevGain := 1.0
	for i := start; i < n; i++ {
		if plain.Samples[i] == 0 {
			continue
		}
		gain := faded.Samples[i] / plain.Samples[i]
		if gain > prevGain+1e-9 {
			t.Fatalf("fade gain not monotonic at %d: %f after %f", i, gain, prevGain)
		}
		if gain < -1e-9 || gain > 1+1e-9 {
			t.Fatalf("fade gain out of range at %d: %f", i, gain)
		}
		prevGain = gain
	}
	for i := 0; i < start; i++ {
		if faded.Samples[i] != plain.Samples[i] {
			t.Fatalf("fade altered sample %d before fade region", i)
		}
	}
}

func TestSamplesStayWithinUnitRange(t *testing.T) {
	r := newTestRenderer(t)
	for m := MaterialNone; m <= MaterialRubber; m++ {
		s, err := r.CreateMaterialSound(m, 80, 150, 1.0, 10, 0)
		if err != nil {
			t.Fatalf("CreateMaterialSound(%s): %v", m, err)
		}
		for i, v := range s.Samples {
			if v < -1 || v > 1 {
				t.Fatalf("%s sample %d out of range: %f", m, i, v)
			}
		}
	}
}

func TestMaterialsProduceDistinctNonSilentWaves(t *testing.T) {
	r := newTestRenderer(t)
	var prev *SoundObject
	for m := MaterialGlass; m <= MaterialRubber; m++ {
		s, err := r.CreateMaterialSound(m, 80, 150, 0.8, 10, 0)
		if err != nil {
			t.Fatalf("CreateMaterialSound(%s): %v", m, err)
		}
		var energy float64
		for _, v := range s.Samples {
			energy += v * v
		}
		if energy == 0 {
			t.Fatalf("%s produced silence", m)
		}
		if prev != nil {
			same := true
			for i := range s.Samples {
				if s.Samples[i] != prev.Samples[i] {
					same = false
					break
				}
			}
			if same {
				t.Fatalf("%s waveform identical to previous material", m)
			}
		}
		prev = s
	}
}

func TestRendererCachesByParameters(t *testing.T) {
	r := newTestRenderer(t)
	a, err := r.CreateMaterialSound(MaterialWood, 80, 100, 0.5, 10, 0)
	if err != nil {
		t.Fatalf("CreateMaterialSound: %v", err)
	}
	b, err := r.CreateMaterialSound(MaterialWood, 80, 100, 0.5, 10, 0)
	if err != nil {
		t.Fatalf("CreateMaterialSound: %v", err)
	}
	if a != b {
		t.Fatalf("expected cached object for identical parameters")
	}
	c, err := r.CreateMaterialSound(MaterialWood, 81, 100, 0.5, 10, 0)
	if err != nil {
		t.Fatalf("CreateMaterialSound: %v", err)
	}
	if a == c {
		t.Fatalf("expected distinct object for different frequency")
	}
	if r.CacheSize() != 2 {
		t.Fatalf("cache size: got=%d want=2", r.CacheSize())
	}
}

func TestMaterialAttackStartsSoft(t *testing.T) {
	r := newTestRenderer(t)
	s, err := r.CreateMaterialSound(MaterialFabric, 200, 100, 1.0, 10, 0)
	if err != nil {
		t.Fatalf("CreateMaterialSound: %v", err)
	}
	if first := math.Abs(s.Samples[0]); first > 1e-6 {
		t.Fatalf("expected attack ramp to start at silence, got %f", first)
	}
}

func TestSweepSoundCoversRange(t *testing.T) {
	r := newTestRenderer(t)
	s, err := r.CreateSweepSound(40, 400, 200, 0.8, 10)
	if err != nil {
		t.Fatalf("CreateSweepSound: %v", err)
	}
	if want := int(math.Round(44100 * 200 / 1000.0)); len(s.Samples) != want {
		t.Fatalf("sweep length: got=%d want=%d", len(s.Samples), want)
	}

	// Count zero crossings in the first and last quarter: the end of an
	// upward sweep must oscillate faster than the start.
	quarter := len(s.Samples) / 4
	head := zeroCrossings(s.Samples[:quarter])
	tail := zeroCrossings(s.Samples[len(s.Samples)-quarter:])
	if tail <= head {
		t.Fatalf("sweep did not accelerate: head=%d tail=%d crossings", head, tail)
	}
}

func zeroCrossings(wave []float64) int {
	n := 0
	for i := 1; i < len(wave); i++ {
		if (wave[i-1] < 0 && wave[i] >= 0) || (wave[i-1] >= 0 && wave[i] < 0) {
			n++
		}
	}
	return n
}

func TestDeterministicNoiseAcrossRenderers(t *testing.T) {
	r1 := newTestRenderer(t)
	r2 := newTestRenderer(t)
	a, err := r1.CreateMaterialSound(MaterialFabric, 120, 80, 0.8, 5, 0)
	if err != nil {
		t.Fatalf("CreateMaterialSound: %v", err)
	}
	b, err := r2.CreateMaterialSound(MaterialFabric, 120, 80, 0.8, 5, 0)
	if err != nil {
		t.Fatalf("CreateMaterialSound: %v", err)
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("noise not reproducible at sample %d", i)
		}
	}
}

func TestInvalidSoundParamsRejected(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.CreateSoundObject(0, 100, 0.5, 5); err == nil {
		t.Fatalf("expected error for zero frequency")
	}
	if _, err := r.CreateSoundObject(80, 0, 0.5, 5); err == nil {
		t.Fatalf("expected error for zero duration")
	}
	if _, err := r.CreateSoundObject(80, 100, -0.1, 5); err == nil {
		t.Fatalf("expected error for negative amplitude")
	}
	if _, err := r.CreateSoundObject(80, 100, 0.5, -1); err == nil {
		t.Fatalf("expected error for negative fade")
	}
	if _, err := r.CreateMaterialSound(Material(99), 80, 100, 0.5, 5, 0); err == nil {
		t.Fatalf("expected error for unknown material")
	}
	if _, err := NewRenderer(0); err == nil {
		t.Fatalf("expected error for invalid sample rate")
	}
}

func TestParseMaterialRoundTrip(t *testing.T) {
	for m := MaterialNone; m <= MaterialRubber; m++ {
		parsed, err := ParseMaterial(m.String())
		if err != nil {
			t.Fatalf("ParseMaterial(%q): %v", m.String(), err)
		}
		if parsed != m {
			t.Fatalf("round trip mismatch: got=%v want=%v", parsed, m)
		}
	}
	if _, err := ParseMaterial("granite"); err == nil {
		t.Fatalf("expected error for unknown material name")
	}
}
