// Package trace reads arrival-time traces, derives their inter-arrival
// increments and writes generated traces back out.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/mina/internal/cascade"
)

// Input errors. ErrTooFewTimestamps wraps cascade.ErrInsufficientData.
var (
	ErrTooFewTimestamps = fmt.Errorf("%w: need at least 2 timestamps", cascade.ErrInsufficientData)
	ErrNonFinite        = errors.New("timestamp is not finite")
	ErrDecreasing       = errors.New("timestamps decrease")
)

// ParseError reports a line that is not a decimal number.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: cannot parse %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadTimestamps parses one decimal timestamp per line. Blank lines and
// lines starting with '#' are skipped.
func ReadTimestamps(r io.Reader) ([]float64, error) {
	var out []float64
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, &ParseError{Line: lineNum, Text: line, Err: err}
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading timestamps: %w", err)
	}
	return out, nil
}

// ReadFile reads timestamps from the file at path.
func ReadFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	ts, err := ReadTimestamps(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// Increments returns the consecutive differences of timestamps, which must
// be finite and non-decreasing. Equal neighbours yield zero increments.
func Increments(timestamps []float64) ([]float64, error) {
	if len(timestamps) < 2 {
		return nil, fmt.Errorf("%w: have %d", ErrTooFewTimestamps, len(timestamps))
	}

	out := make([]float64, len(timestamps)-1)
	for i, t := range timestamps {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: index %d is %v", ErrNonFinite, i, t)
		}
		if i == 0 {
			continue
		}
		d := t - timestamps[i-1]
		if d < 0 {
			return nil, fmt.Errorf("%w: index %d (%v) is before index %d (%v)",
				ErrDecreasing, i, t, i-1, timestamps[i-1])
		}
		out[i-1] = d
	}
	return out, nil
}
