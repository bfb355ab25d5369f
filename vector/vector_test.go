package vector

import (
	"errors"
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
		err  error
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1, nil},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0, nil},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1, nil},
		{"scaled", []float64{1, 2}, []float64{2, 4}, 1, nil},
		{"empty", nil, []float64{1}, 0, ErrEmpty},
		{"mismatch", []float64{1, 2}, []float64{1}, 0, ErrDimensionMismatch},
		{"zero", []float64{0, 0}, []float64{1, 1}, 0, ErrZeroMagnitude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_Symmetric(t *testing.T) {
	a := []float64{0.3, -1.2, 4.5, 0.01}
	b := []float64{2.2, 0.7, -0.4, 3.3}
	ab, _ := Cosine(a, b)
	ba, _ := Cosine(b, a)
	if ab != ba {
		t.Fatalf("not symmetric: %v vs %v", ab, ba)
	}
}

func TestClamp01(t *testing.T) {
	for in, want := range map[float64]float64{-0.5: 0, 0.4: 0.4, 1.0000001: 1, math.NaN(): 0} {
		if got := Clamp01(in); got != want {
			t.Errorf("Clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestMean(t *testing.T) {
	got, err := Mean([][]float64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 3 || got[1] != 4 {
		t.Fatalf("Mean = %v", got)
	}
	if _, err := Mean(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := Mean([][]float64{{1, 2}, {1}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("mismatch: %v", err)
	}
}

func TestNormalizeAndZero(t *testing.T) {
	v := Normalize([]float64{3, 4})
	if math.Abs(v[0]-0.6) > 1e-12 || math.Abs(v[1]-0.8) > 1e-12 {
		t.Fatalf("Normalize = %v", v)
	}
	Zero(v)
	if v[0] != 0 || v[1] != 0 {
		t.Fatalf("Zero left %v", v)
	}
}
