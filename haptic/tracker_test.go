package haptic

import (
	"math"
	"testing"
)

func TestMovingAveragePartialWindow(t *testing.T) {
	m := NewMovingAverage(10)
	if m.Mean() != 0 || m.Len() != 0 {
		t.Fatalf("empty tracker: mean=%f len=%d", m.Mean(), m.Len())
	}
	m.Push(10)
	m.Push(20)
	if m.Mean() != 15 || m.Len() != 2 {
		t.Fatalf("partial window: mean=%f len=%d", m.Mean(), m.Len())
	}
}

func TestMovingAverageEvictsOldest(t *testing.T) {
	m := NewMovingAverage(3)
	for _, v := range []float64{1, 2, 3} {
		m.Push(v)
	}
	if m.Mean() != 2 {
		t.Fatalf("full window mean: %f", m.Mean())
	}
	m.Push(7)
	// Window is now {2, 3, 7}.
	if want := (2.0 + 3.0 + 7.0) / 3.0; math.Abs(m.Mean()-want) > 1e-12 {
		t.Fatalf("eviction mean: got=%f want=%f", m.Mean(), want)
	}
	if m.Len() != 3 {
		t.Fatalf("len after eviction: %d", m.Len())
	}
}

func TestMovingAverageReset(t *testing.T) {
	m := NewMovingAverage(4)
	for i := 0; i < 10; i++ {
		m.Push(float64(i))
	}
	m.Reset()
	if m.Mean() != 0 || m.Len() != 0 {
		t.Fatalf("reset tracker: mean=%f len=%d", m.Mean(), m.Len())
	}
	m.Push(5)
	if m.Mean() != 5 {
		t.Fatalf("tracker unusable after reset: %f", m.Mean())
	}
}

func TestScriptAppliesEventsInWindow(t *testing.T) {
	e, _ := newTestEngine(t)
	s := NewScript().
		PressAt(10).
		MaterialAt(20, "glass").
		ReleaseAt(30)

	if err := s.Apply(e, 0, 1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if e.Pressed() {
		t.Fatalf("press applied too early")
	}
	if err := s.Apply(e, 10, 1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !e.Pressed() {
		t.Fatalf("press not applied at its tick")
	}
	if err := s.Apply(e, 20, 1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if e.Material() != "glass" {
		t.Fatalf("material switch not applied: %s", e.Material())
	}
	if err := s.Apply(e, 30, 1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if e.Pressed() {
		t.Fatalf("release not applied at its tick")
	}
	if s.EndMs() != 30 {
		t.Fatalf("EndMs: got=%f want=30", s.EndMs())
	}
}

func TestScriptSpeedSegment(t *testing.T) {
	e, _ := newTestEngine(t)
	s := NewScript().
		PressAt(0).
		SpeedBetween(5, 15, func(ms float64) float64 { return 100 * ms })

	if err := s.Apply(e, 0, 1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Apply(e, 10, 1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if e.AvgSpeed() != 1000 {
		t.Fatalf("speed segment not applied: avg=%f", e.AvgSpeed())
	}
	// Outside the segment no sample is fed.
	if err := s.Apply(e, 20, 1); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if e.AvgSpeed() != 1000 {
		t.Fatalf("sample fed outside segment: avg=%f", e.AvgSpeed())
	}
}

func TestScriptUnknownMaterialFails(t *testing.T) {
	e, _ := newTestEngine(t)
	s := NewScript().MaterialAt(0, "granite")
	if err := s.Apply(e, 0, 1); err == nil {
		t.Fatalf("expected error for unknown material in script")
	}
}

func TestBuiltinScripts(t *testing.T) {
	for _, name := range []string{"click", "slide", "drive"} {
		s, err := BuiltinScript(name, 2000)
		if err != nil {
			t.Fatalf("BuiltinScript(%s): %v", name, err)
		}
		if s.EndMs() <= 0 || s.EndMs() >= 2000 {
			t.Fatalf("%s script end out of range: %f", name, s.EndMs())
		}
	}
	if _, err := BuiltinScript("dance", 2000); err == nil {
		t.Fatalf("expected error for unknown scenario")
	}
	if _, err := BuiltinScript("click", 50); err == nil {
		t.Fatalf("expected error for too-short scenario")
	}
}
