// Package analysis computes objective metrics over spike trains, used to
// compare neuron behavior against a target firing profile.
package analysis

import (
	"math"
)

// TrainMetrics summarizes one spike train recorded over a fixed tick count.
type TrainMetrics struct {
	Ticks      int     `json:"ticks"`
	DtMs       float64 `json:"dt_ms"`
	SpikeCount int     `json:"spike_count"`

	// FirstSpikeTick is -1 when the train is empty.
	FirstSpikeTick int     `json:"first_spike_tick"`
	RateHz         float64 `json:"rate_hz"`
	MeanISIMs      float64 `json:"mean_isi_ms"`
	ISICV          float64 `json:"isi_cv"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Train computes metrics for a spike train. spikeTicks holds the tick index
// of each spike in ascending order, ticks the total number of simulated
// ticks, dtMs the tick duration.
func Train(spikeTicks []int, ticks int, dtMs float64) TrainMetrics {
	m := TrainMetrics{
		Ticks:          ticks,
		DtMs:           dtMs,
		SpikeCount:     len(spikeTicks),
		FirstSpikeTick: -1,
	}
	if ticks <= 0 || dtMs <= 0 {
		return m
	}
	durationS := float64(ticks) * dtMs / 1000.0
	m.RateHz = float64(len(spikeTicks)) / durationS
	if len(spikeTicks) == 0 {
		return m
	}
	m.FirstSpikeTick = spikeTicks[0]
	if len(spikeTicks) < 2 {
		return m
	}

	isis := make([]float64, 0, len(spikeTicks)-1)
	for i := 1; i < len(spikeTicks); i++ {
		isis = append(isis, float64(spikeTicks[i]-spikeTicks[i-1])*dtMs)
	}
	var sum float64
	for _, isi := range isis {
		sum += isi
	}
	mean := sum / float64(len(isis))
	m.MeanISIMs = mean

	var varsum float64
	for _, isi := range isis {
		d := isi - mean
		varsum += d * d
	}
	if mean > 0 {
		m.ISICV = math.Sqrt(varsum/float64(len(isis))) / mean
	}
	return m
}

// CompareRate scores a train against a target firing rate. The result has
// Score in [0,1] where 0 is a perfect match, combining relative rate error
// with an irregularity penalty; Similarity is 1-Score.
func CompareRate(spikeTicks []int, ticks int, dtMs, targetHz float64) TrainMetrics {
	m := Train(spikeTicks, ticks, dtMs)
	if targetHz <= 0 || ticks <= 0 || dtMs <= 0 {
		m.Score = 1.0
		return m
	}

	rateErr := math.Abs(m.RateHz-targetHz) / targetHz
	if rateErr > 1 {
		rateErr = 1
	}
	// A regular tonic train has CV near zero; weight irregularity lightly
	// so the rate term dominates the fit.
	cvPenalty := m.ISICV
	if cvPenalty > 1 {
		cvPenalty = 1
	}

	m.Score = 0.85*rateErr + 0.15*cvPenalty
	if m.Score > 1 {
		m.Score = 1
	}
	m.Similarity = 1 - m.Score
	return m
}
