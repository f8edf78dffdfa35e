package cascade

import (
	"errors"
	"fmt"
)

// Fit and sampling failures. All of them are fatal for the current run.
var (
	// ErrInsufficientData means fewer than two increments were supplied.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateStatistics means a level's ratios have no spread or
	// yield non-positive Beta parameters.
	ErrDegenerateStatistics = errors.New("degenerate statistics")

	// ErrInvalidRatio means a pair summed to zero (or a non-finite value),
	// or a negative value reached the cascade.
	ErrInvalidRatio = errors.New("invalid ratio input")

	// ErrUnevenLength means exact fitting was requested for a number of
	// increments that is not a power of two.
	ErrUnevenLength = errors.New("increments do not fill whole dyadic levels")

	// ErrDrawOutOfRange means a split ratio outside [0, 1] was drawn.
	ErrDrawOutOfRange = errors.New("random draw out of range")
)

// LevelError ties a failure to the cascade level it occurred at.
type LevelError struct {
	Level  int
	Err    error
	Detail string
}

func (e *LevelError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("level %d: %v", e.Level, e.Err)
	}
	return fmt.Sprintf("level %d: %v: %s", e.Level, e.Err, e.Detail)
}

func (e *LevelError) Unwrap() error {
	return e.Err
}
