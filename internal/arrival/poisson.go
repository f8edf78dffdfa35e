package arrival

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/nvandessel/mina/internal/constants"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultPoissonBatch is the refill size used when none is given.
const DefaultPoissonBatch = constants.DefaultPoissonBatch

// ErrInvalidRate is returned for a non-positive or non-finite rate.
var ErrInvalidRate = errors.New("invalid poisson rate")

// FitPoisson estimates the arrival rate of a Poisson process from
// increments: count divided by total elapsed time.
func FitPoisson(increments []float64) (float64, error) {
	if len(increments) == 0 {
		return 0, fmt.Errorf("%w: no increments", ErrInvalidRate)
	}
	total := floats.Sum(increments)
	rate := float64(len(increments)) / total
	if !(rate > 0) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("%w: %d increments over %v", ErrInvalidRate, len(increments), total)
	}
	return rate, nil
}

// Poisson streams arrivals of a homogeneous Poisson process: independent
// exponential increments with the given rate.
type Poisson struct {
	buffer
	exp   distuv.Exponential
	batch int
}

var _ Stream = (*Poisson)(nil)

// NewPoisson returns a stream of rate arrivals per unit time that refills
// batch increments at a time. batch < 1 selects DefaultPoissonBatch.
func NewPoisson(rate float64, batch int, src rand.Source) (*Poisson, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	if batch < 1 {
		batch = DefaultPoissonBatch
	}

	p := &Poisson{
		exp:   distuv.Exponential{Rate: rate, Src: src},
		batch: batch,
	}
	p.queue = NewQueue(batch)
	p.refill = p.sample
	return p, nil
}

func (p *Poisson) sample() ([]float64, error) {
	out := make([]float64, p.batch)
	for i := range out {
		out[i] = p.exp.Rand()
	}
	return out, nil
}

// Next implements Stream.
func (p *Poisson) Next() (float64, error) {
	return p.next()
}

// Peek implements Stream.
func (p *Poisson) Peek() (float64, error) {
	return p.peek()
}

// Rate returns the arrival rate.
func (p *Poisson) Rate() float64 {
	return p.exp.Rate
}

// Pending returns the number of generated but undelivered timestamps.
func (p *Poisson) Pending() int {
	return p.queue.Len()
}
