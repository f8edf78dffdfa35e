package cascade

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type fitConfig struct {
	exact bool
}

// FitOption configures Fit.
type FitOption func(*fitConfig)

// WithExactLength rejects a number of increments that is not a power of
// two. Without it, increments beyond the largest whole dyadic block are left
// out of every level's statistics.
func WithExactLength() FitOption {
	return func(c *fitConfig) {
		c.exact = true
	}
}

// Fit builds a cascade from increments.
//
// The number of levels is floor(log2(len(increments))). Level 1 pairs the
// increments themselves; each following level pairs the sums of the level
// below. An odd value left over at a level takes no part in that level's
// statistics or in the levels above it, but it still counts toward the root
// aggregate, which is the sum of all increments.
//
// Fit is deterministic and does not modify increments.
func Fit(increments []float64, opts ...FitOption) (*Model, error) {
	var cfg fitConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	n := len(increments)
	depth := Depth(n)
	if depth < 1 {
		return nil, fmt.Errorf("%w: have %d increments, need at least 2", ErrInsufficientData, n)
	}
	if cfg.exact && n != 1<<depth {
		return nil, fmt.Errorf("%w: have %d increments, the last %d would be left out of the fit",
			ErrUnevenLength, n, n-1<<depth)
	}

	for i, v := range increments {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("%w: increment %d is %v", ErrInvalidRatio, i, v)
		}
	}

	root := floats.Sum(increments)
	if !positiveFinite(root) {
		return nil, fmt.Errorf("%w: increments sum to %v", ErrInvalidRatio, root)
	}

	current := append([]float64(nil), increments...)
	ratios := make([]float64, 0, n/2)
	levels := make([]Level, depth)

	for k := 1; k <= depth; k++ {
		pairs := len(current) / 2
		ratios = ratios[:0]
		for i := 0; i < pairs; i++ {
			a, b := current[2*i], current[2*i+1]
			sum := a + b
			if sum == 0 || math.IsInf(sum, 0) {
				return nil, &LevelError{
					Level:  k,
					Err:    ErrInvalidRatio,
					Detail: fmt.Sprintf("pair %d sums to %v", i, sum),
				}
			}
			ratios = append(ratios, a/sum)
			// Parent i overwrites a slot that has already been read.
			current[i] = sum
		}
		current = current[:pairs]

		level, err := fitLevel(ratios)
		if err != nil {
			return nil, &LevelError{Level: k, Err: err}
		}
		levels[k-1] = level
	}

	return &Model{
		levels:     levels,
		root:       root,
		increments: n,
	}, nil
}

// fitLevel estimates Beta parameters from ratios by the method of moments.
func fitLevel(ratios []float64) (Level, error) {
	if len(ratios) == 1 {
		return Level{Mean: ratios[0], Pairs: 1, Fixed: true}, nil
	}

	mean, variance := stat.MeanVariance(ratios, nil)
	if !(variance > 0) {
		return Level{}, fmt.Errorf("%w: %d ratios with variance %v", ErrDegenerateStatistics, len(ratios), variance)
	}

	common := mean*(1-mean)/variance - 1
	alpha := mean * common
	beta := (1 - mean) * common
	if !positiveFinite(alpha) || !positiveFinite(beta) {
		return Level{}, fmt.Errorf("%w: mean=%v variance=%v give alpha=%v beta=%v",
			ErrDegenerateStatistics, mean, variance, alpha, beta)
	}

	return Level{
		Alpha:    alpha,
		Beta:     beta,
		Mean:     mean,
		Variance: variance,
		Pairs:    len(ratios),
	}, nil
}
