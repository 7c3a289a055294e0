package preprocess

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
)

// stdFloor keeps constant columns from dividing by zero.
const stdFloor = 1e-7

// ErrNotFitted is returned by Transform before Finalize or LoadParams.
var ErrNotFitted = errors.New("normalizer has no parameters")

// ErrFieldsMismatch is returned by LoadParams when the file was fitted on
// other columns.
var ErrFieldsMismatch = errors.New("normalizer params fitted on different fields")

// Normalizer standardizes selected columns to zero mean and unit variance.
type Normalizer struct {
	// Fields lists the columns to standardize. Nil means every column.
	Fields []int `json:"fields,omitempty"`

	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`

	count int
	sum   []float64
	sumSq []float64
}

// NewNormalizer returns a Normalizer for the given columns.
func NewNormalizer(fields []int) *Normalizer {
	return &Normalizer{Fields: fields}
}

// Feed accumulates column statistics from one matrix.
func (n *Normalizer) Feed(x [][]float32) error {
	for i, row := range x {
		if n.sum == nil {
			n.sum = make([]float64, len(row))
			n.sumSq = make([]float64, len(row))
		}
		if len(row) != len(n.sum) {
			return fmt.Errorf("row %d has %d columns, expected %d", i, len(row), len(n.sum))
		}
		for j, v := range row {
			f := float64(v)
			n.sum[j] += f
			n.sumSq[j] += f * f
		}
		n.count++
	}
	return nil
}

// Finalize computes means and sample standard deviations from the fed data.
func (n *Normalizer) Finalize() error {
	if n.count < 2 {
		return fmt.Errorf("need at least 2 rows to estimate statistics, got %d", n.count)
	}
	N := float64(n.count)
	n.Means = make([]float64, len(n.sum))
	n.Stds = make([]float64, len(n.sum))
	for j := range n.sum {
		mean := n.sum[j] / N
		variance := (n.sumSq[j] - 2*n.sum[j]*mean + N*mean*mean) / (N - 1)
		n.Means[j] = mean
		n.Stds[j] = math.Max(math.Sqrt(math.Max(variance, 0)), stdFloor)
	}
	return nil
}

// Transform returns a standardized copy of x.
func (n *Normalizer) Transform(x [][]float32) ([][]float32, error) {
	if len(n.Means) == 0 {
		return nil, ErrNotFitted
	}
	fields := n.Fields
	if fields == nil {
		fields = make([]int, len(n.Means))
		for j := range fields {
			fields[j] = j
		}
	}

	out := make([][]float32, len(x))
	for i, row := range x {
		if len(row) != len(n.Means) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), len(n.Means))
		}
		r := append([]float32(nil), row...)
		for _, j := range fields {
			if j < 0 || j >= len(r) {
				return nil, fmt.Errorf("field %d out of range [0, %d)", j, len(r))
			}
			r[j] = float32((float64(row[j]) - n.Means[j]) / n.Stds[j])
		}
		out[i] = r
	}
	return out, nil
}

// SaveParams writes the means and stds as JSON.
func (n *Normalizer) SaveParams(path string) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal normalizer params: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write normalizer params: %w", err)
	}
	return nil
}

// LoadParams reads means and stds written by SaveParams. The saved fields
// must match n.Fields.
func (n *Normalizer) LoadParams(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read normalizer params: %w", err)
	}
	var p struct {
		Fields []int     `json:"fields"`
		Means  []float64 `json:"means"`
		Stds   []float64 `json:"stds"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshal normalizer params: %w", err)
	}
	if !slices.Equal(p.Fields, n.Fields) {
		return fmt.Errorf("%w: file has %v, normalizer has %v", ErrFieldsMismatch, p.Fields, n.Fields)
	}
	if len(p.Means) == 0 || len(p.Means) != len(p.Stds) {
		return fmt.Errorf("normalizer params: %d means, %d stds", len(p.Means), len(p.Stds))
	}
	for j, s := range p.Stds {
		if s <= 0 {
			p.Stds[j] = stdFloor
		}
	}
	n.Means, n.Stds = p.Means, p.Stds
	return nil
}
