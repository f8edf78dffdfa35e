package cascade

import (
	"errors"
	"math"
	"testing"
)

func TestDepth(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 2},
		{7, 2},
		{8, 3},
		{1023, 9},
		{1024, 10},
	}

	for _, tt := range tests {
		if got := Depth(tt.n); got != tt.want {
			t.Errorf("Depth(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestFitInsufficientData(t *testing.T) {
	tests := []struct {
		name       string
		increments []float64
	}{
		{"nil", nil},
		{"empty", []float64{}},
		{"one increment", []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.increments)
			if !errors.Is(err, ErrInsufficientData) {
				t.Errorf("Fit(%v) error = %v, want ErrInsufficientData", tt.increments, err)
			}
		})
	}
}

func TestFitSingleRatioLevelIsFixed(t *testing.T) {
	m, err := Fit([]float64{1, 1, 1})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if m.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", m.Depth())
	}
	if m.Root() != 3 {
		t.Errorf("Root() = %v, want 3", m.Root())
	}
	if m.BatchSize() != 2 {
		t.Errorf("BatchSize() = %d, want 2", m.BatchSize())
	}

	l := m.Level(1)
	if !l.Fixed {
		t.Error("expected level 1 to be fixed")
	}
	if l.Mean != 0.5 || l.Pairs != 1 {
		t.Errorf("level 1 = %+v, want fixed split 0.5 from 1 pair", l)
	}
}

func TestFitExactLength(t *testing.T) {
	tests := []struct {
		name       string
		increments []float64
		wantErr    error
	}{
		{"power of two", []float64{1, 3, 3, 1}, nil},
		{"power of two with fixed top level", []float64{1, 3, 3, 1, 1, 1, 2, 6}, nil},
		{"three increments", []float64{1, 1, 1}, ErrUnevenLength},
		{"six increments", []float64{1, 3, 3, 1, 2, 2}, ErrUnevenLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Fit(tt.increments, WithExactLength())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			if m.BatchSize() != len(tt.increments) {
				t.Errorf("BatchSize() = %d, want %d", m.BatchSize(), len(tt.increments))
			}
			if !m.Level(m.Depth()).Fixed {
				t.Error("expected the top level to be a fixed split")
			}
		})
	}
}

func TestFitZeroVariance(t *testing.T) {
	_, err := Fit([]float64{2, 2, 2, 2})
	if !errors.Is(err, ErrDegenerateStatistics) {
		t.Fatalf("error = %v, want ErrDegenerateStatistics", err)
	}

	var le *LevelError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LevelError, got %T", err)
	}
	if le.Level != 1 {
		t.Errorf("LevelError.Level = %d, want 1", le.Level)
	}
}

func TestFitInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		increments []float64
	}{
		{"zero-sum pair", []float64{0, 0, 1, 2}},
		{"negative increment", []float64{1, -1, 2, 3}},
		{"NaN increment", []float64{1, math.NaN(), 2}},
		{"infinite increment", []float64{1, math.Inf(1), 2}},
		{"all zero", []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.increments)
			if !errors.Is(err, ErrInvalidRatio) {
				t.Errorf("Fit(%v) error = %v, want ErrInvalidRatio", tt.increments, err)
			}
		})
	}
}

func TestFitMethodOfMoments(t *testing.T) {
	increments := []float64{1, 3, 3, 1, 1, 1, 2, 6}

	m, err := Fit(increments)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if m.Depth() != 3 {
		t.Fatalf("Depth() = %d, want 3", m.Depth())
	}
	if m.Root() != 18 {
		t.Errorf("Root() = %v, want 18", m.Root())
	}

	// Level 1 ratios: 1/4, 3/4, 1/2, 1/4.
	mean := (0.25 + 0.75 + 0.5 + 0.25) / 4
	variance := (math.Pow(0.25-mean, 2) + math.Pow(0.75-mean, 2) +
		math.Pow(0.5-mean, 2) + math.Pow(0.25-mean, 2)) / 3
	common := mean*(1-mean)/variance - 1
	checkLevel(t, m.Level(1), mean*common, (1-mean)*common, 4)

	// Level 2 parents are 4, 4, 2, 8: ratios 1/2 and 1/5.
	mean = (0.5 + 0.2) / 2
	variance = math.Pow(0.5-mean, 2) + math.Pow(0.2-mean, 2)
	common = mean*(1-mean)/variance - 1
	checkLevel(t, m.Level(2), mean*common, (1-mean)*common, 2)

	// Level 3 splits 8 and 10.
	top := m.Level(3)
	if !top.Fixed || math.Abs(top.Mean-8.0/18.0) > 1e-15 {
		t.Errorf("level 3 = %+v, want fixed split 8/18", top)
	}
}

func TestFitOddRemainder(t *testing.T) {
	m, err := Fit([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if m.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", m.Depth())
	}
	if m.Root() != 15 {
		t.Errorf("Root() = %v, want 15 (remainder counts toward the root)", m.Root())
	}
	if m.Increments() != 5 {
		t.Errorf("Increments() = %d, want 5", m.Increments())
	}
	if p := m.Level(1).Pairs; p != 2 {
		t.Errorf("level 1 pairs = %d, want 2", p)
	}
	if top := m.Level(2); !top.Fixed || math.Abs(top.Mean-0.3) > 1e-15 {
		t.Errorf("level 2 = %+v, want fixed split 0.3", top)
	}
}

func TestFitDoesNotModifyInput(t *testing.T) {
	in := []float64{1, 3, 3, 1, 1, 1, 2, 6}
	orig := append([]float64(nil), in...)

	if _, err := Fit(in); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	for i := range in {
		if in[i] != orig[i] {
			t.Fatalf("input modified at %d: %v != %v", i, in[i], orig[i])
		}
	}
}

func TestFitDeterministic(t *testing.T) {
	data := syntheticIncrements(500)

	a, err := Fit(data)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	b, err := Fit(data)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if a.Root() != b.Root() {
		t.Errorf("roots differ: %v != %v", a.Root(), b.Root())
	}
	for k := 1; k <= a.Depth(); k++ {
		if a.Level(k) != b.Level(k) {
			t.Errorf("level %d differs: %+v != %+v", k, a.Level(k), b.Level(k))
		}
	}
}

func TestFitBetaLevelsArePositive(t *testing.T) {
	m, err := Fit(syntheticIncrements(1000))
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if m.Depth() != 9 {
		t.Fatalf("Depth() = %d, want 9", m.Depth())
	}

	for k, l := range m.Levels() {
		if err := l.Validate(); err != nil {
			t.Errorf("level %d invalid: %v", k+1, err)
		}
		if k+1 < m.Depth() && l.Fixed {
			t.Errorf("level %d has %d pairs but is fixed", k+1, l.Pairs)
		}
	}
}

func checkLevel(t *testing.T, l Level, alpha, beta float64, pairs int) {
	t.Helper()
	if l.Fixed {
		t.Errorf("level unexpectedly fixed: %+v", l)
	}
	if math.Abs(l.Alpha-alpha) > 1e-9 {
		t.Errorf("Alpha = %v, want %v", l.Alpha, alpha)
	}
	if math.Abs(l.Beta-beta) > 1e-9 {
		t.Errorf("Beta = %v, want %v", l.Beta, beta)
	}
	if l.Pairs != pairs {
		t.Errorf("Pairs = %d, want %d", l.Pairs, pairs)
	}
}
