package arrival

import (
	"math/rand/v2"

	"github.com/nvandessel/mina/internal/cascade"
)

// Fractal streams arrivals synthesized from a fitted cascade. Each refill
// draws one batch of BatchSize() increments and accumulates them from the
// last timestamp handed out.
type Fractal struct {
	buffer
	sampler *cascade.Sampler
	batches int
}

var _ Stream = (*Fractal)(nil)

// NewFractal returns a stream starting at time zero.
func NewFractal(model *cascade.Model, src rand.Source, opts ...cascade.SamplerOption) *Fractal {
	f := &Fractal{
		sampler: cascade.NewSampler(model, src, opts...),
	}
	f.queue = NewQueue(model.BatchSize())
	f.refill = f.sample
	return f
}

func (f *Fractal) sample() ([]float64, error) {
	batch, err := f.sampler.Sample()
	if err != nil {
		return nil, err
	}
	f.batches++
	return batch, nil
}

// Next implements Stream.
func (f *Fractal) Next() (float64, error) {
	return f.next()
}

// Peek implements Stream.
func (f *Fractal) Peek() (float64, error) {
	return f.peek()
}

// Pending returns the number of generated but undelivered timestamps.
func (f *Fractal) Pending() int {
	return f.queue.Len()
}

// Time returns the last generated absolute time.
func (f *Fractal) Time() float64 {
	return f.time
}

// Batches returns the number of batches sampled so far.
func (f *Fractal) Batches() int {
	return f.batches
}

// Model returns the cascade the stream samples from.
func (f *Fractal) Model() *cascade.Model {
	return f.sampler.Model()
}
