package phenotyping

import (
	"fmt"

	"github.com/Noofbiz/phenoBatch/preprocess"
	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Batch stores one mini-batch in flat contiguous buffers.
type Batch struct {
	// Size is the number of examples, Time the padded number of steps.
	Size     int
	Time     int
	Channels int
	LabelDim int

	// Inputs has shape (Size, Time, Channels). Steps past an example's own
	// length are zero.
	Inputs []float32

	// Labels has shape (Size, LabelDim).
	Labels []int32

	// Replicated has shape (Size, Time, LabelDim): every step repeats the
	// example's labels. Nil unless target replication is enabled.
	Replicated []int32

	// Lengths holds every example's unpadded number of steps.
	Lengths []int

	// Names and Times are only set when names are passed through.
	Names []string
	Times []float64
}

// BatchInfo is the per-batch metadata kept by the Generator when names are
// passed through.
type BatchInfo struct {
	Names   []string
	Times   []float64
	Lengths []int
}

// newBatch pads examples to their longest member and flattens them.
func newBatch(examples []Example, targetRepl, withNames bool) (*Batch, error) {
	seqs := make([][][]float32, len(examples))
	for i, e := range examples {
		seqs[i] = e.Features
	}
	padded, err := preprocess.PadZeros(seqs, 0)
	if err != nil {
		return nil, fmt.Errorf("pad batch: %w", err)
	}

	b := &Batch{
		Size:    len(examples),
		Time:    preprocess.MaxLength(seqs),
		Lengths: make([]int, len(examples)),
	}
	for _, s := range padded {
		if len(s) > 0 {
			b.Channels = len(s[0])
			break
		}
	}
	if len(examples) > 0 {
		b.LabelDim = len(examples[0].Labels)
	}

	b.Inputs = make([]float32, 0, b.Size*b.Time*b.Channels)
	b.Labels = make([]int32, 0, b.Size*b.LabelDim)
	for i, e := range examples {
		if len(e.Labels) != b.LabelDim {
			return nil, fmt.Errorf("%w: example %s has %d labels, expected %d", ErrLabelWidth, e.Name, len(e.Labels), b.LabelDim)
		}
		b.Lengths[i] = e.Len()
		for _, row := range padded[i] {
			b.Inputs = append(b.Inputs, row...)
		}
		b.Labels = append(b.Labels, e.Labels...)
	}

	if targetRepl {
		b.Replicated = make([]int32, 0, b.Size*b.Time*b.LabelDim)
		for i := range b.Size {
			label := b.Label(i)
			for range b.Time {
				b.Replicated = append(b.Replicated, label...)
			}
		}
	}

	if withNames {
		b.Names = make([]string, b.Size)
		b.Times = make([]float64, b.Size)
		for i, e := range examples {
			b.Names[i] = e.Name
			b.Times[i] = e.Time
		}
	}
	return b, nil
}

// Step returns the features of example i at step t.
func (b *Batch) Step(i, t int) []float32 {
	start := (i*b.Time + t) * b.Channels
	return b.Inputs[start : start+b.Channels]
}

// Label returns the labels of example i.
func (b *Batch) Label(i int) []int32 {
	return b.Labels[i*b.LabelDim : (i+1)*b.LabelDim]
}

// ReplicatedLabel returns the replicated labels of example i at step t, or
// nil when target replication is off.
func (b *Batch) ReplicatedLabel(i, t int) []int32 {
	if b.Replicated == nil {
		return nil
	}
	start := (i*b.Time + t) * b.LabelDim
	return b.Replicated[start : start+b.LabelDim]
}

// Cells returns the size of the (Size, Time) grid.
func (b *Batch) Cells() int {
	return b.Size * b.Time
}

// PaddedCells returns how many cells of the (Size, Time) grid are padding.
func (b *Batch) PaddedCells() int {
	used := 0
	for _, l := range b.Lengths {
		used += l
	}
	return b.Cells() - used
}

// PaddingRatio returns the fraction of the (Size, Time) grid made of padding.
func (b *Batch) PaddingRatio() float64 {
	total := b.Cells()
	if total == 0 {
		return 0
	}
	return float64(b.PaddedCells()) / float64(total)
}

// Info returns the batch metadata.
func (b *Batch) Info() *BatchInfo {
	return &BatchInfo{Names: b.Names, Times: b.Times, Lengths: b.Lengths}
}

// ToGomlxTensors converts the batch to gomlx tensors. Inputs holds the
// feature tensor; labels holds the label tensor followed by the replicated
// label tensor when target replication is enabled.
func (b *Batch) ToGomlxTensors() (inputs []*tensors.Tensor, labels []*tensors.Tensor) {
	x := tensors.FromFlatDataAndDimensions(b.Inputs, b.Size, b.Time, b.Channels)
	y := tensors.FromFlatDataAndDimensions(b.Labels, b.Size, b.LabelDim)
	inputs = []*tensors.Tensor{x}
	labels = []*tensors.Tensor{y}
	if b.Replicated != nil {
		labels = append(labels, tensors.FromFlatDataAndDimensions(b.Replicated, b.Size, b.Time, b.LabelDim))
	}
	return inputs, labels
}
