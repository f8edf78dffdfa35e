package arrival

import (
	"math"
	"testing"

	"github.com/nvandessel/mina/internal/cascade"
)

func TestOpen(t *testing.T) {
	m, err := cascade.Fit([]float64{1, 3, 3, 1, 1, 1, 2, 6})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		kind    string
		want    string
		wantErr bool
	}{
		{"default is cascade", "", "fractal", false},
		{"cascade", KindCascade, "fractal", false},
		{"poisson", KindPoisson, "poisson", false},
		{"unknown", "markov", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(m, Options{Kind: tt.kind, Seed: 7})
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			switch s.(type) {
			case *Fractal:
				if tt.want != "fractal" {
					t.Errorf("got *Fractal, want %s", tt.want)
				}
			case *Poisson:
				if tt.want != "poisson" {
					t.Errorf("got *Poisson, want %s", tt.want)
				}
			}
			if _, err := Collect(s, 20); err != nil {
				t.Errorf("Collect() error = %v", err)
			}
		})
	}

	if _, err := Open(nil, Options{}); err == nil {
		t.Error("expected error for nil model")
	}
}

func TestOpen_Deterministic(t *testing.T) {
	m, err := cascade.Fit([]float64{1, 3, 3, 1, 1, 1, 2, 6})
	if err != nil {
		t.Fatal(err)
	}

	for _, kind := range []string{KindCascade, KindPoisson} {
		a, _ := Open(m, Options{Kind: kind, Seed: 99})
		b, _ := Open(m, Options{Kind: kind, Seed: 99})
		xs, err := Collect(a, 50)
		if err != nil {
			t.Fatal(err)
		}
		ys, err := Collect(b, 50)
		if err != nil {
			t.Fatal(err)
		}
		for i := range xs {
			if xs[i] != ys[i] {
				t.Fatalf("%s: value %d differs: %v != %v", kind, i, xs[i], ys[i])
			}
		}
	}
}

func TestModelRate(t *testing.T) {
	m, err := cascade.Fit([]float64{1, 3, 3, 1, 1, 1, 2, 6})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ModelRate(m), 8.0/18.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("ModelRate() = %v, want %v", got, want)
	}
}
