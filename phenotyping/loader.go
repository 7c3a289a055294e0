package phenotyping

import (
	"fmt"
	"log/slog"

	"github.com/Noofbiz/phenoBatch/preprocess"
)

// SmallPartSize is the number of episodes read when LoadOptions.SmallPart is
// set.
const SmallPartSize = 1000

// LoadOptions controls LoadData.
type LoadOptions struct {
	// SmallPart reads at most SmallPartSize episodes.
	SmallPart bool

	// Pad zero-pads every example to the longest one in the dataset.
	Pad bool
}

// LoadData reads episodes from r, discretizes them with d and, when n is not
// nil, normalizes them with n. Any failure aborts the load; no partial
// dataset is returned.
func LoadData(r Reader, d Discretizer, n Normalizer, opts LoadOptions) (*Dataset, error) {
	count := r.Len()
	if opts.SmallPart {
		count = min(count, SmallPartSize)
	}

	raw, err := r.ReadChunk(count)
	if err != nil {
		return nil, &UpstreamError{Stage: "read", Err: err}
	}
	if len(raw) != count {
		return nil, &UpstreamError{Stage: "read", Err: fmt.Errorf("asked for %d episodes, got %d", count, len(raw))}
	}

	examples := make([]Example, len(raw))
	labelDim := -1
	for i, ex := range raw {
		x, _, err := d.Transform(ex.Header, ex.Rows, ex.EndTime)
		if err != nil {
			return nil, &UpstreamError{Stage: "discretize", Name: ex.Name, Err: err}
		}
		if n != nil {
			x, err = n.Transform(x)
			if err != nil {
				return nil, &UpstreamError{Stage: "normalize", Name: ex.Name, Err: err}
			}
		}

		if labelDim < 0 {
			labelDim = len(ex.Labels)
		} else if len(ex.Labels) != labelDim {
			return nil, &UpstreamError{
				Stage: "labels",
				Name:  ex.Name,
				Err:   fmt.Errorf("%w: got %d labels, expected %d", ErrLabelWidth, len(ex.Labels), labelDim),
			}
		}
		labels := make([]int32, len(ex.Labels))
		for j, v := range ex.Labels {
			labels[j] = int32(v)
		}

		examples[i] = Example{
			Name:     ex.Name,
			Time:     ex.EndTime,
			Features: x,
			Labels:   labels,
		}
	}

	if opts.Pad {
		seqs := make([][][]float32, len(examples))
		for i, e := range examples {
			seqs[i] = e.Features
		}
		padded, err := preprocess.PadZeros(seqs, 0)
		if err != nil {
			return nil, fmt.Errorf("pad dataset: %w", err)
		}
		for i := range examples {
			examples[i].Features = padded[i]
		}
	}

	ds := NewDataset(examples)
	slog.Debug("loaded phenotyping dataset",
		"examples", ds.Len(),
		"label_dim", ds.LabelDim(),
		"padded", opts.Pad,
	)
	return ds, nil
}
