package phenotyping

import (
	"fmt"
	"iter"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/Noofbiz/phenoBatch/preprocess"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
)

// BucketFunc returns the order of ds for the next pass when shuffling is
// off. The result must be a permutation of [0, ds.Len()).
type BucketFunc func(ds *Dataset, batchSize int, rng *rand.Rand) []int

// SortAndShuffleBuckets groups examples of similar length into the same
// batch and randomizes the order of the batches.
func SortAndShuffleBuckets(ds *Dataset, batchSize int, rng *rand.Rand) []int {
	order := make([]int, ds.Len())
	for i := range order {
		order[i] = i
	}
	return preprocess.SortAndShuffle(order, func(i int) int { return ds.At(i).Len() }, batchSize, rng)
}

// IdentityBuckets keeps the current order.
func IdentityBuckets(ds *Dataset, _ int, _ *rand.Rand) []int {
	order := make([]int, ds.Len())
	for i := range order {
		order[i] = i
	}
	return order
}

// Config holds the batching options of a Generator.
type Config struct {
	// BatchSize is the maximum number of examples per batch. Must be > 0.
	BatchSize int

	// SmallPart loads at most SmallPartSize episodes.
	SmallPart bool

	// TargetRepl adds a (batch, time, labels) copy of the labels for per-step
	// supervision.
	TargetRepl bool

	// Shuffle draws a new random permutation every pass. When false, the
	// Bucketer decides the order.
	Shuffle bool

	// ReturnNames passes episode names and end times through with every batch
	// (Batch.Names, Batch.Times and Generator.LastInfo).
	ReturnNames bool

	// Seed for the pass reordering. If zero, a time-based seed is used.
	Seed int64

	// Bucketer orders the dataset when Shuffle is false. Nil means
	// SortAndShuffleBuckets.
	Bucketer BucketFunc

	// Name reported to gomlx. Defaults to "phenotyping".
	Name string
}

// Generator serves an endless sequence of batches over a loaded Dataset. It is
// safe for concurrent use; calls to Next are serialized.
type Generator struct {
	cfg   Config
	steps int

	mu   sync.Mutex
	data *Dataset
	rng  *rand.Rand
	pos  int
	pass int
	last *BatchInfo
}

var _ train.Dataset = (*Generator)(nil)

// NewGenerator loads the dataset (unpadded) and returns a Generator over it.
func NewGenerator(r Reader, d Discretizer, n Normalizer, cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ds, err := LoadData(r, d, n, LoadOptions{SmallPart: cfg.SmallPart})
	if err != nil {
		return nil, err
	}
	return NewGeneratorFromDataset(ds, cfg)
}

// NewGeneratorFromDataset returns a Generator over an already loaded dataset.
func NewGeneratorFromDataset(ds *Dataset, cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ds == nil || ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Bucketer == nil {
		cfg.Bucketer = SortAndShuffleBuckets
	}
	if cfg.Name == "" {
		cfg.Name = "phenotyping"
	}

	return &Generator{
		cfg:   cfg,
		steps: (ds.Len() + cfg.BatchSize - 1) / cfg.BatchSize,
		data:  ds,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (c Config) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be > 0, got %d", ErrInvalidConfiguration, c.BatchSize)
	}
	return nil
}

// Steps returns the number of batches per pass.
func (g *Generator) Steps() int {
	return g.steps
}

// Len returns the number of examples.
func (g *Generator) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.data.Len()
}

// Pass returns the number of passes started so far.
func (g *Generator) Pass() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pass
}

// Dataset returns the dataset in its current pass order.
func (g *Generator) Dataset() *Dataset {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.data
}

// reorder starts a new pass. Must be called with g.mu held.
func (g *Generator) reorder() error {
	var perm []int
	if g.cfg.Shuffle {
		perm = g.rng.Perm(g.data.Len())
	} else {
		perm = g.cfg.Bucketer(g.data, g.cfg.BatchSize, g.rng)
	}
	data, err := g.data.Permute(perm)
	if err != nil {
		return fmt.Errorf("reorder pass %d: %w", g.pass+1, err)
	}
	g.data = data
	g.pass++
	slog.Debug("starting pass", "dataset", g.cfg.Name, "pass", g.pass, "shuffle", g.cfg.Shuffle)
	return nil
}

// Next returns the next batch. The last batch of a pass holds the remaining
// Len() % BatchSize examples when the division is not exact. After it, the
// dataset is reordered and a new pass begins.
func (g *Generator) Next() (*Batch, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pos == 0 {
		if err := g.reorder(); err != nil {
			return nil, err
		}
	}

	end := min(g.pos+g.cfg.BatchSize, g.data.Len())
	b, err := newBatch(g.data.Slice(g.pos, end), g.cfg.TargetRepl, g.cfg.ReturnNames)
	if err != nil {
		return nil, err
	}

	g.pos = end
	if g.pos >= g.data.Len() {
		g.pos = 0
	}
	if g.cfg.ReturnNames {
		g.last = b.Info()
	}
	return b, nil
}

// LastInfo returns the names, end times and lengths of the most recent batch,
// or nil before the first batch or when ReturnNames is off. It pairs with
// Yield, whose spec has to stay constant for gomlx.
func (g *Generator) LastInfo() *BatchInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Batches returns an endless iterator over Next. It stops after the first
// error or when the caller breaks out of the loop.
func (g *Generator) Batches() iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		for {
			b, err := g.Next()
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

// Name implements train.Dataset.
func (g *Generator) Name() string {
	return g.cfg.Name
}

// Reset implements train.Dataset. The next batch starts a fresh pass.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pos = 0
}

// Yield implements train.Dataset. It never returns io.EOF. The trainer
// compiles one graph per distinct spec, so spec is always nil; per-batch
// metadata is available from LastInfo.
func (g *Generator) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	b, err := g.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	inputs, labels = b.ToGomlxTensors()
	return nil, inputs, labels, nil
}
