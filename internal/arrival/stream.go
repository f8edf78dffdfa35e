// Package arrival turns increment generators into unbounded, peekable
// streams of absolute arrival times.
//
// Streams refill themselves one whole batch at a time when their queue runs
// dry and never signal the end of the sequence on their own; callers decide
// how many values to take. None of the streams are safe for concurrent use.
package arrival

import (
	"context"
	"errors"
	"fmt"
)

// ErrExhausted is returned when a refill produced no values.
var ErrExhausted = errors.New("arrival stream produced an empty batch")

// Stream is an unbounded source of non-decreasing absolute timestamps.
type Stream interface {
	// Next removes and returns the next timestamp.
	Next() (float64, error)

	// Peek returns the next timestamp without removing it.
	Peek() (float64, error)
}

// Take calls Next exactly n times and hands each value to fn, in order.
// It stops early if ctx is cancelled or fn returns an error.
func Take(ctx context.Context, s Stream, n int, fn func(float64) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := s.Next()
		if err != nil {
			return fmt.Errorf("arrival %d: %w", i, err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

// Collect returns the next n timestamps from s.
func Collect(s Stream, n int) ([]float64, error) {
	out := make([]float64, 0, n)
	err := Take(context.Background(), s, n, func(v float64) error {
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// buffer is the refill-on-empty state shared by the stream implementations.
type buffer struct {
	time   float64
	queue  *Queue
	refill func() ([]float64, error)
}

func (b *buffer) fill() error {
	if b.queue.Len() > 0 {
		return nil
	}
	increments, err := b.refill()
	if err != nil {
		return err
	}
	for _, step := range increments {
		b.time += step
		b.queue.PushBack(b.time)
	}
	if b.queue.Len() == 0 {
		return ErrExhausted
	}
	return nil
}

func (b *buffer) next() (float64, error) {
	if err := b.fill(); err != nil {
		return 0, err
	}
	v, _ := b.queue.PopFront()
	return v, nil
}

func (b *buffer) peek() (float64, error) {
	if err := b.fill(); err != nil {
		return 0, err
	}
	v, _ := b.queue.Front()
	return v, nil
}
