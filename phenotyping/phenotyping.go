// Package phenotyping loads ICU phenotyping episodes and serves them as an
// endless stream of padded mini-batches.
//
// LoadData reads every episode once, discretizes and (optionally) normalizes
// it. A Generator owns the loaded Dataset and produces batches on demand. At
// the start of every pass it either draws a fresh random permutation or
// buckets episodes of similar length together, then cuts the pass into
// BatchSize slices, each padded to its own longest episode.
//
// Generator implements gomlx's train.Dataset, so it can be handed directly
// to a training loop. Its Yield spec is always nil; episode names and times
// are read back with Generator.LastInfo.
package phenotyping

import "github.com/Noofbiz/phenoBatch/datasets"

// Reader is the source of raw episodes. datasets.EpisodeReader implements it.
type Reader interface {
	// Len returns the number of episodes available.
	Len() int

	// ReadChunk returns the next n episodes.
	ReadChunk(n int) ([]datasets.RawExample, error)
}

// Discretizer turns a raw episode into a fixed-schema numeric matrix.
// preprocess.Discretizer implements it. Only the matrix is used; the returned
// header is ignored.
type Discretizer interface {
	Transform(header []string, rows [][]string, end float64) ([][]float32, []string, error)
}

// Normalizer rescales a discretized matrix. preprocess.Normalizer implements
// it. Pass an untyped nil to LoadData to skip normalization.
type Normalizer interface {
	Transform(x [][]float32) ([][]float32, error)
}
