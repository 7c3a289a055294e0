package phenotyping

import (
	"fmt"
	"slices"
)

// Example is one discretized episode.
type Example struct {
	Name string

	// Time is the episode end time in hours.
	Time float64

	// Features has one row per time step.
	Features [][]float32

	Labels []int32
}

// Len returns the number of time steps.
func (e Example) Len() int {
	return len(e.Features)
}

// Dataset is an ordered, read-only collection of examples. Reordering
// returns a new Dataset and leaves the receiver untouched.
type Dataset struct {
	examples []Example
}

// NewDataset wraps examples. The slice is owned by the Dataset afterwards.
func NewDataset(examples []Example) *Dataset {
	return &Dataset{examples: examples}
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.examples)
}

// At returns the example at index i.
func (d *Dataset) At(i int) Example {
	return d.examples[i]
}

// Slice returns examples [i, j). The result shares memory with the Dataset
// and must not be modified.
func (d *Dataset) Slice(i, j int) []Example {
	return d.examples[i:j:j]
}

// Permute returns a new Dataset whose k-th example is the receiver's
// perm[k]-th. perm must be a permutation of [0, Len()).
func (d *Dataset) Permute(perm []int) (*Dataset, error) {
	if len(perm) != len(d.examples) {
		return nil, fmt.Errorf("permutation has %d entries, dataset has %d", len(perm), len(d.examples))
	}
	seen := make([]bool, len(perm))
	out := make([]Example, len(perm))
	for k, idx := range perm {
		if idx < 0 || idx >= len(perm) || seen[idx] {
			return nil, fmt.Errorf("invalid permutation entry %d at position %d", idx, k)
		}
		seen[idx] = true
		out[k] = d.examples[idx]
	}
	return &Dataset{examples: out}, nil
}

// Names returns the example names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.examples))
	for i, e := range d.examples {
		names[i] = e.Name
	}
	return names
}

// Times returns the example end times in order.
func (d *Dataset) Times() []float64 {
	times := make([]float64, len(d.examples))
	for i, e := range d.examples {
		times[i] = e.Time
	}
	return times
}

// Lengths returns the number of time steps of every example in order.
func (d *Dataset) Lengths() []int {
	lengths := make([]int, len(d.examples))
	for i, e := range d.examples {
		lengths[i] = e.Len()
	}
	return lengths
}

// LabelDim returns the label width, or 0 for an empty dataset.
func (d *Dataset) LabelDim() int {
	if len(d.examples) == 0 {
		return 0
	}
	return len(d.examples[0].Labels)
}

// LabelMatrix returns a copy of the labels as a (Len, LabelDim) matrix.
func (d *Dataset) LabelMatrix() [][]int32 {
	m := make([][]int32, len(d.examples))
	for i, e := range d.examples {
		m[i] = slices.Clone(e.Labels)
	}
	return m
}
