// Package analysis computes summary statistics used to compare an empirical
// trace with a synthetic one.
package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinBlocks is the fewest aggregated blocks a scale needs to contribute to
// the Hurst estimate.
const MinBlocks = 8

// ErrEmpty is returned when there is nothing to summarize.
var ErrEmpty = errors.New("no increments to summarize")

// Summary describes a sequence of inter-arrival increments.
type Summary struct {
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	CV     float64 `json:"cv"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`

	// Hurst is the aggregated-variance estimate of the Hurst exponent,
	// NaN when fewer than two scales are usable. About 0.5 for
	// uncorrelated increments, larger for long-range dependence.
	Hurst float64 `json:"hurst"`
}

// Summarize computes a Summary of increments.
func Summarize(increments []float64) (Summary, error) {
	if len(increments) == 0 {
		return Summary{}, ErrEmpty
	}

	mean, std := stat.MeanStdDev(increments, nil)
	if len(increments) < 2 {
		std = 0
	}
	s := Summary{
		Count:  len(increments),
		Total:  floats.Sum(increments),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(increments),
		Max:    floats.Max(increments),
		Hurst:  Hurst(increments),
	}
	if mean != 0 {
		s.CV = std / mean
	}
	return s, nil
}

// Hurst estimates the Hurst exponent with the aggregated-variance method:
// the series is averaged over blocks of size m = 1, 2, 4, ... and the slope
// b of log Var(block means) against log m gives H = 1 + b/2.
func Hurst(increments []float64) float64 {
	var logM, logVar []float64
	for m := 1; len(increments)/m >= MinBlocks; m *= 2 {
		blocks := len(increments) / m
		means := make([]float64, blocks)
		for i := range means {
			means[i] = stat.Mean(increments[i*m:(i+1)*m], nil)
		}
		v := stat.Variance(means, nil)
		if !(v > 0) {
			continue
		}
		logM = append(logM, math.Log(float64(m)))
		logVar = append(logVar, math.Log(v))
	}
	if len(logM) < 2 {
		return math.NaN()
	}

	_, slope := stat.LinearRegression(logM, logVar, nil, false)
	return 1 + slope/2
}
