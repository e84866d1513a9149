package chart

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a waveform for the result panel.
type Stats struct {
	Samples int
	Peak    float64
	RMS     float64
	Mean    float64
	Min     float64
	Max     float64
}

// Summary returns descriptive statistics of amplitude. An empty slice
// yields the zero value.
func Summary(amplitude []float64) Stats {
	if len(amplitude) == 0 {
		return Stats{}
	}
	lo, hi := floats.Min(amplitude), floats.Max(amplitude)
	return Stats{
		Samples: len(amplitude),
		Peak:    math.Max(math.Abs(lo), math.Abs(hi)),
		RMS:     floats.Norm(amplitude, 2) / math.Sqrt(float64(len(amplitude))),
		Mean:    stat.Mean(amplitude, nil),
		Min:     lo,
		Max:     hi,
	}
}

// Downsample picks n evenly spaced values for terminal sparklines.
func Downsample(vs []float64, n int) []float64 {
	if n <= 0 || len(vs) == 0 {
		return nil
	}
	if len(vs) <= n {
		return append([]float64(nil), vs...)
	}
	out := make([]float64, n)
	step := float64(len(vs)) / float64(n)
	for i := range out {
		out[i] = vs[int(float64(i)*step)]
	}
	return out
}
