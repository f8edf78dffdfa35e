// Package cascade fits a binary multiplicative cascade (multifractal Beta
// model) to a sequence of positive increments and samples synthetic
// increment batches from it.
//
// Level 1 is the finest scale: it describes how each adjacent pair of
// increments splits their sum. Level Depth() is the coarsest: it describes
// how the root aggregate splits into its two halves.
package cascade

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
)

// Level holds the fitted split-ratio distribution for one dyadic scale.
type Level struct {
	// Alpha and Beta are the Beta distribution shape parameters.
	// Both are zero for a fixed level.
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`

	// Mean and Variance are the empirical moments of the observed ratios.
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`

	// Pairs is the number of ratios observed at this level.
	Pairs int `json:"pairs"`

	// Fixed marks a level fitted from a single ratio. It always splits at Mean.
	Fixed bool `json:"fixed,omitempty"`
}

// Validate checks that the level can be sampled from.
func (l Level) Validate() error {
	if l.Pairs < 1 {
		return fmt.Errorf("%w: no ratios observed", ErrDegenerateStatistics)
	}
	if l.Fixed {
		if math.IsNaN(l.Mean) || l.Mean < 0 || l.Mean > 1 {
			return fmt.Errorf("%w: fixed split %v outside [0, 1]", ErrInvalidRatio, l.Mean)
		}
		return nil
	}
	if !positiveFinite(l.Alpha) || !positiveFinite(l.Beta) {
		return fmt.Errorf("%w: alpha=%v beta=%v", ErrDegenerateStatistics, l.Alpha, l.Beta)
	}
	return nil
}

// Model is a fitted cascade. It is immutable and safe to share between
// samplers.
type Model struct {
	levels     []Level
	root       float64
	increments int
}

// NewModel assembles a model from previously fitted parts, for example when
// loading it from storage. levels[0] is level 1.
func NewModel(root float64, increments int, levels []Level) (*Model, error) {
	if len(levels) < 1 {
		return nil, fmt.Errorf("%w: model has no levels", ErrInsufficientData)
	}
	if increments < 2 || Depth(increments) != len(levels) {
		return nil, fmt.Errorf("%w: %d levels do not match %d increments", ErrInsufficientData, len(levels), increments)
	}
	if !positiveFinite(root) {
		return nil, fmt.Errorf("%w: root aggregate %v", ErrInvalidRatio, root)
	}
	for i, l := range levels {
		if err := l.Validate(); err != nil {
			return nil, &LevelError{Level: i + 1, Err: err}
		}
	}

	return &Model{
		levels:     append([]Level(nil), levels...),
		root:       root,
		increments: increments,
	}, nil
}

// Depth returns floor(log2(n)), the number of levels a cascade over n
// increments has. It returns 0 for n < 2.
func Depth(n int) int {
	if n < 2 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}

// Depth returns the number of levels L.
func (m *Model) Depth() int {
	return len(m.levels)
}

// Level returns level k, 1 <= k <= Depth().
func (m *Model) Level(k int) Level {
	return m.levels[k-1]
}

// Levels returns a copy of all levels, finest first.
func (m *Model) Levels() []Level {
	return append([]Level(nil), m.levels...)
}

// Root returns the aggregate value every sampled batch sums to.
func (m *Model) Root() float64 {
	return m.root
}

// Increments returns the number of increments the model was fitted from.
func (m *Model) Increments() int {
	return m.increments
}

// BatchSize returns 2^L, the number of increments per sampled batch.
func (m *Model) BatchSize() int {
	return 1 << len(m.levels)
}

type modelJSON struct {
	Root       float64 `json:"root"`
	Increments int     `json:"increments"`
	Levels     []Level `json:"levels"`
}

// MarshalJSON implements json.Marshaler.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(modelJSON{
		Root:       m.root,
		Increments: m.increments,
		Levels:     m.levels,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded model is validated.
func (m *Model) UnmarshalJSON(data []byte) error {
	var raw modelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewModel(raw.Root, raw.Increments, raw.Levels)
	if err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}
	*m = *parsed
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
