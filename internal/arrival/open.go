package arrival

import (
	"fmt"

	"github.com/nvandessel/mina/internal/cascade"
	"github.com/nvandessel/mina/internal/constants"
	"github.com/nvandessel/mina/internal/random"
)

// Stream kinds accepted by Open.
const (
	KindCascade = constants.ModelCascade
	KindPoisson = constants.ModelPoisson
)

// Options selects and seeds the stream Open builds.
type Options struct {
	Kind  string // KindCascade (default) or KindPoisson
	Seed  uint64
	Batch int // Poisson refill size; <1 selects DefaultPoissonBatch
}

// Open builds a stream over a fitted model, seeded with a fresh xorshift
// generator. A Poisson stream uses the model's mean rate, the number of
// fitted increments over their total.
func Open(m *cascade.Model, opts Options) (Stream, error) {
	if m == nil {
		return nil, fmt.Errorf("no model to generate from")
	}
	src := random.New(opts.Seed)

	switch opts.Kind {
	case "", KindCascade:
		return NewFractal(m, src), nil
	case KindPoisson:
		return NewPoisson(ModelRate(m), opts.Batch, src)
	default:
		return nil, fmt.Errorf("unknown model kind %q (valid: cascade, poisson)", opts.Kind)
	}
}

// ModelRate returns the mean arrival rate the model was fitted to, the
// same rate FitPoisson gives for the fitted increments.
func ModelRate(m *cascade.Model) float64 {
	return float64(m.Increments()) / m.Root()
}
