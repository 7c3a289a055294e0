package preprocess

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func fittedNormalizer(t *testing.T, fields []int) *Normalizer {
	t.Helper()
	n := NewNormalizer(fields)
	if err := n.Feed([][]float32{{1, 10}}); err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if err := n.Feed([][]float32{{3, 10}}); err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if err := n.Finalize(); err != nil {
		t.Fatalf("Finalize error: %v", err)
	}
	return n
}

func TestNormalizer_Statistics(t *testing.T) {
	n := fittedNormalizer(t, []int{0})

	if !approxEqual(n.Means[0], 2, 1e-9) || !approxEqual(n.Means[1], 10, 1e-9) {
		t.Fatalf("unexpected means: %v", n.Means)
	}
	if !approxEqual(n.Stds[0], math.Sqrt2, 1e-9) {
		t.Fatalf("unexpected std for column 0: %v", n.Stds[0])
	}
	// constant column is floored instead of zero
	if n.Stds[1] != stdFloor {
		t.Fatalf("expected floored std for constant column, got %v", n.Stds[1])
	}

	in := [][]float32{{1, 10}, {3, 7}}
	out, err := n.Transform(in)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if !approxEqual(float64(out[0][0]), -1/math.Sqrt2, 1e-6) || !approxEqual(float64(out[1][0]), 1/math.Sqrt2, 1e-6) {
		t.Fatalf("unexpected normalized column: %v", out)
	}
	// column 1 is not in Fields and must be copied unchanged
	if out[1][1] != 7 {
		t.Fatalf("expected untouched column, got %v", out[1][1])
	}
	// input is not modified
	if in[0][0] != 1 {
		t.Fatalf("Transform modified its input: %v", in)
	}
}

func TestNormalizer_AllFieldsAndErrors(t *testing.T) {
	if _, err := NewNormalizer(nil).Transform([][]float32{{1}}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}

	n := NewNormalizer(nil)
	if err := n.Feed([][]float32{{1, 2}}); err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if err := n.Feed([][]float32{{1}}); err == nil {
		t.Fatalf("expected error for mismatched width")
	}
	if err := n.Finalize(); err == nil {
		t.Fatalf("expected error when fewer than 2 rows were fed")
	}

	all := fittedNormalizer(t, nil)
	out, err := all.Transform([][]float32{{2, 10}})
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if out[0][0] != 0 || out[0][1] != 0 {
		t.Fatalf("expected all columns centered, got %v", out[0])
	}
	if _, err := all.Transform([][]float32{{1, 2, 3}}); err == nil {
		t.Fatalf("expected error for wrong width")
	}
}

func TestNormalizer_SaveLoadParams(t *testing.T) {
	n := fittedNormalizer(t, []int{0})
	path := filepath.Join(t.TempDir(), "normalizer.json")
	if err := n.SaveParams(path); err != nil {
		t.Fatalf("SaveParams error: %v", err)
	}

	loaded := NewNormalizer([]int{0})
	if err := loaded.LoadParams(path); err != nil {
		t.Fatalf("LoadParams error: %v", err)
	}
	a, err := n.Transform([][]float32{{5, 1}})
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	b, err := loaded.Transform([][]float32{{5, 1}})
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if !approxEqual(float64(a[0][0]), float64(b[0][0]), 1e-6) {
		t.Fatalf("loaded params transform differently: %v vs %v", a, b)
	}

	if err := loaded.LoadParams(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing params file")
	}
}

func TestNormalizer_LoadParamsFieldsMismatch(t *testing.T) {
	n := fittedNormalizer(t, []int{0})
	path := filepath.Join(t.TempDir(), "normalizer.json")
	if err := n.SaveParams(path); err != nil {
		t.Fatalf("SaveParams error: %v", err)
	}

	for _, fields := range [][]int{{1}, {0, 1}, nil} {
		other := NewNormalizer(fields)
		err := other.LoadParams(path)
		if !errors.Is(err, ErrFieldsMismatch) {
			t.Fatalf("fields %v: expected ErrFieldsMismatch, got %v", fields, err)
		}
		if other.Means != nil {
			t.Fatalf("fields %v: params applied despite mismatch", fields)
		}
	}
}
