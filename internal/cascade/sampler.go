package cascade

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws synthetic increment batches from a Model.
// It owns two scratch buffers of BatchSize() values and is not safe for
// concurrent use.
type Sampler struct {
	model   *Model
	dists   []distuv.Beta
	a, b    []float64
	onLevel func(level int, values []float64)
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithLevelHook calls fn after each level has been split, with the values
// now held at that level. fn must not retain values.
func WithLevelHook(fn func(level int, values []float64)) SamplerOption {
	return func(s *Sampler) {
		s.onLevel = fn
	}
}

// NewSampler returns a sampler drawing split ratios from src.
func NewSampler(m *Model, src rand.Source, opts ...SamplerOption) *Sampler {
	dists := make([]distuv.Beta, m.Depth())
	for i, l := range m.levels {
		if !l.Fixed {
			dists[i] = distuv.Beta{Alpha: l.Alpha, Beta: l.Beta, Src: src}
		}
	}

	size := m.BatchSize()
	s := &Sampler{
		model: m,
		dists: dists,
		a:     make([]float64, size),
		b:     make([]float64, size),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the model the sampler draws from.
func (s *Sampler) Model() *Model {
	return s.model
}

// Sample synthesizes one batch of exactly BatchSize() increments whose sum
// equals the model's root aggregate up to rounding.
//
// Splits run top-down, one level per pass, and ratios are drawn left to
// right, so the batch order is a pure function of the random source.
func (s *Sampler) Sample() ([]float64, error) {
	root := s.model.root
	if !positiveFinite(root) {
		return nil, fmt.Errorf("%w: root aggregate %v", ErrInvalidRatio, root)
	}

	cur, spare := s.a[:1], s.b
	cur[0] = root

	for k := s.model.Depth(); k >= 1; k-- {
		level := s.model.levels[k-1]
		next := spare[:2*len(cur)]
		for i, v := range cur {
			r := level.Mean
			if !level.Fixed {
				r = s.dists[k-1].Rand()
			}
			if math.IsNaN(r) || r < 0 || r > 1 {
				return nil, &LevelError{
					Level:  k,
					Err:    ErrDrawOutOfRange,
					Detail: fmt.Sprintf("ratio %v", r),
				}
			}
			left := v * r
			next[2*i] = left
			next[2*i+1] = v - left
		}
		if s.onLevel != nil {
			s.onLevel(k, next)
		}
		spare = cur[:cap(cur)]
		cur = next
	}

	batch := make([]float64, len(cur))
	copy(batch, cur)
	return batch, nil
}
