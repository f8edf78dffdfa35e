package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/nvandessel/mina/internal/random"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if s.Count != 4 || s.Total != 10 || s.Mean != 2.5 {
		t.Errorf("count/total/mean = %d/%v/%v, want 4/10/2.5", s.Count, s.Total, s.Mean)
	}
	if s.Min != 1 || s.Max != 4 {
		t.Errorf("min/max = %v/%v, want 1/4", s.Min, s.Max)
	}
	wantStd := math.Sqrt(5.0 / 3.0)
	if math.Abs(s.StdDev-wantStd) > 1e-12 {
		t.Errorf("StdDev = %v, want %v", s.StdDev, wantStd)
	}
	if math.Abs(s.CV-wantStd/2.5) > 1e-12 {
		t.Errorf("CV = %v, want %v", s.CV, wantStd/2.5)
	}
	if !math.IsNaN(s.Hurst) {
		t.Errorf("Hurst = %v, want NaN for a short series", s.Hurst)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if _, err := Summarize(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("error = %v, want ErrEmpty", err)
	}
}

func TestSummarizeSingle(t *testing.T) {
	s, err := Summarize([]float64{2})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if s.StdDev != 0 || s.CV != 0 {
		t.Errorf("single value std/cv = %v/%v, want 0/0", s.StdDev, s.CV)
	}
}

func TestHurstUncorrelated(t *testing.T) {
	src := random.New(11)
	data := make([]float64, 1<<14)
	for i := range data {
		data[i] = src.Float64()
	}

	h := Hurst(data)
	if math.Abs(h-0.5) > 0.15 {
		t.Errorf("Hurst of i.i.d. uniforms = %v, want ~0.5", h)
	}
}
