// Package wavio holds the WAV read/write and resampling helpers shared by
// the command-line tools.
package wavio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAVMono decodes a WAV file into mono float64 samples, averaging
// channels if the file is not mono. Returns samples and sample rate.
func ReadWAVMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// ResampleIfNeeded converts samples from one rate to another, returning the
// input unchanged when the rates already match.
func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// WriteMonoWAV encodes samples in [-1,1] as a 16-bit mono WAV file,
// creating parent directories as needed.
func WriteMonoWAV(path string, data []float64, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	defer enc.Close()

	data32 := make([]float32, len(data))
	for i, v := range data {
		data32[i] = float32(v)
	}
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data32,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// RMS returns the root-mean-square level of the samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Peak returns the largest absolute sample value.
func Peak(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}
