package main

import (
	"github.com/cwbudde/algo-haptic/render"
)

// mixPlayer implements haptic.Player for offline rendering: every triggered
// sound is summed into a mono timeline at the current scenario time instead
// of being played on a device.
type mixPlayer struct {
	sampleRate int
	timeline   []float64
	now        int
	plays      int
}

func newMixPlayer(sampleRate int, durationMs float64) *mixPlayer {
	frames := int(float64(sampleRate) * durationMs / 1000.0)
	return &mixPlayer{
		sampleRate: sampleRate,
		timeline:   make([]float64, frames),
	}
}

func (m *mixPlayer) setTimeMs(ms float64) {
	m.now = int(ms / 1000.0 * float64(m.sampleRate))
}

func (m *mixPlayer) PlaySound(sound *render.SoundObject, channelID int, volume float64) bool {
	if sound == nil {
		return false
	}
	// Extend the timeline if a sound rings past the scenario end.
	if end := m.now + len(sound.Samples); end > len(m.timeline) {
		m.timeline = append(m.timeline, make([]float64, end-len(m.timeline))...)
	}
	for i, s := range sound.Samples {
		m.timeline[m.now+i] += s * volume
	}
	m.plays++
	return true
}

func (m *mixPlayer) StopChannel(channelID int) {}

// finish normalizes the mixed timeline so overlapping sounds cannot clip.
func (m *mixPlayer) finish() []float64 {
	var peak float64
	for _, s := range m.timeline {
		if a := s; a < 0 {
			a = -a
			if a > peak {
				peak = a
			}
		} else if a > peak {
			peak = a
		}
	}
	if peak > 1.0 {
		scale := 1.0 / peak
		for i := range m.timeline {
			m.timeline[i] *= scale
		}
	}
	return m.timeline
}
