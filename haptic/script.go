package haptic

import (
	"fmt"
	"math"
	"sort"
)

// scriptEvent is one timed action in a script.
type scriptEvent struct {
	atMs     float64
	press    bool
	release  bool
	material string
}

// speedSegment drives the speed input over a time range.
type speedSegment struct {
	startMs float64
	endMs   float64
	fn      func(ms float64) float64
}

// Script is a deterministic interaction sequence: presses, releases,
// material switches and speed profiles on a millisecond timeline. The same
// script can drive an offline render and a realtime demo.
type Script struct {
	events   []scriptEvent
	segments []speedSegment
}

// NewScript returns an empty script.
func NewScript() *Script { return &Script{} }

// PressAt schedules a contact press.
func (s *Script) PressAt(ms float64) *Script {
	s.events = append(s.events, scriptEvent{atMs: ms, press: true})
	return s
}

// ReleaseAt schedules a contact release.
func (s *Script) ReleaseAt(ms float64) *Script {
	s.events = append(s.events, scriptEvent{atMs: ms, release: true})
	return s
}

// MaterialAt schedules a material switch.
func (s *Script) MaterialAt(ms float64, name string) *Script {
	s.events = append(s.events, scriptEvent{atMs: ms, material: name})
	return s
}

// SpeedBetween drives the speed input with fn(ms) over [startMs, endMs).
func (s *Script) SpeedBetween(startMs, endMs float64, fn func(ms float64) float64) *Script {
	s.segments = append(s.segments, speedSegment{startMs: startMs, endMs: endMs, fn: fn})
	return s
}

// Apply feeds the engine every action scheduled in [ms, ms+dtMs), in time
// order, then the active speed segment's sample for this tick.
func (s *Script) Apply(e *Engine, ms, dtMs float64) error {
	due := make([]scriptEvent, 0, 2)
	for _, ev := range s.events {
		if ev.atMs >= ms && ev.atMs < ms+dtMs {
			due = append(due, ev)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].atMs < due[j].atMs })
	for _, ev := range due {
		switch {
		case ev.press:
			e.Press()
		case ev.release:
			e.Release()
		case ev.material != "":
			if err := e.SetMaterial(ev.material); err != nil {
				return fmt.Errorf("script at %gms: %w", ev.atMs, err)
			}
		}
	}
	for _, seg := range s.segments {
		if ms >= seg.startMs && ms < seg.endMs {
			e.UpdateSpeed(seg.fn(ms))
			break
		}
	}
	return nil
}

// BuiltinScript returns one of the named interaction scenarios fitted to
// the given total duration:
//
//	click — press, hold, release (pressure onset and release transients)
//	slide — press then stroke the surface with an oscillating speed
//	drive — accelerating sweep with periodic bumps
func BuiltinScript(name string, durationMs float64) (*Script, error) {
	if durationMs < 200 {
		return nil, fmt.Errorf("scenario needs at least 200ms, got %gms", durationMs)
	}
	s := NewScript()
	switch name {
	case "click":
		s.PressAt(50)
		s.ReleaseAt(durationMs - 150)
	case "slide":
		s.PressAt(50)
		s.SpeedBetween(100, durationMs-150, func(ms float64) float64 {
			return 900 + 700*math.Sin(2*math.Pi*ms/800.0)
		})
		s.ReleaseAt(durationMs - 150)
	case "drive":
		s.PressAt(50)
		span := durationMs - 250
		s.SpeedBetween(100, durationMs-150, func(ms float64) float64 {
			t := (ms - 100) / span
			base := 300 + 3500*t
			bump := 600 * math.Max(0, math.Sin(2*math.Pi*ms/400.0)-0.8)
			return base + bump
		})
		s.ReleaseAt(durationMs - 150)
	default:
		return nil, fmt.Errorf("unknown scenario %q (use click, slide or drive)", name)
	}
	return s, nil
}

// EndMs returns the time of the last scheduled action or segment end.
func (s *Script) EndMs() float64 {
	var end float64
	for _, ev := range s.events {
		if ev.atMs > end {
			end = ev.atMs
		}
	}
	for _, seg := range s.segments {
		if seg.endMs > end {
			end = seg.endMs
		}
	}
	return end
}
