package main

// Example command that opens a directory of phenotyping episodes, discretizes
// the first few of them and turns them into a single padded batch of gomlx
// tensors.
//
// Usage:
//   go run ./datasets/example -data data/phenotyping/train -config resources/discretizer_config.json
//
// Defaults come from the PHENO_* environment variables.
//
// The data directory must hold a listfile.csv next to the per-episode
// timeseries CSVs. Episodes are only read when they are needed.

import (
	"flag"
	"fmt"
	"log"

	"github.com/Noofbiz/phenoBatch/datasets"
	"github.com/Noofbiz/phenoBatch/internal/config"
	"github.com/Noofbiz/phenoBatch/phenotyping"
	"github.com/Noofbiz/phenoBatch/preprocess"
)

func main() {
	cfg := config.Load()
	dataDir := flag.String("data", cfg.Data.Dir, "episode directory")
	configPath := flag.String("config", cfg.Discretizer.ConfigPath, "discretizer channel config")
	n := flag.Int("n", 4, "number of episodes to batch")
	flag.Parse()

	reader, err := datasets.NewEpisodeReader(*dataDir, "")
	if err != nil {
		log.Fatalf("failed to open episodes: %v", err)
	}
	fmt.Printf("Episodes available: %d\n", reader.Len())
	fmt.Printf("Labels: %d (first: %v)\n", len(reader.LabelNames()), reader.LabelNames()[:min(3, len(reader.LabelNames()))])

	m := min(*n, reader.Len())
	for i := range m {
		rows, err := reader.RowCount(i)
		if err != nil {
			log.Fatalf("failed to count rows of episode %d: %v", i, err)
		}
		fmt.Printf("  episode %d: %d raw rows\n", i, rows)
	}

	channels, err := preprocess.LoadDiscretizerConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load discretizer config: %v", err)
	}
	disc, err := preprocess.NewDiscretizer(channels, preprocess.WithTimestep(cfg.Discretizer.Timestep))
	if err != nil {
		log.Fatalf("failed to create discretizer: %v", err)
	}

	ds, err := phenotyping.LoadData(firstN{Reader: reader, n: m}, disc, nil, phenotyping.LoadOptions{})
	if err != nil {
		log.Fatalf("failed to load episodes: %v", err)
	}

	g, err := phenotyping.NewGeneratorFromDataset(ds, phenotyping.Config{
		BatchSize:   m,
		Shuffle:     cfg.Batch.Shuffle,
		TargetRepl:  cfg.Batch.TargetRepl,
		ReturnNames: cfg.Batch.ReturnNames,
		Seed:        cfg.Batch.Seed,
	})
	if err != nil {
		log.Fatalf("failed to create generator: %v", err)
	}
	b, err := g.Next()
	if err != nil {
		log.Fatalf("failed to build batch: %v", err)
	}

	inputs, labels := b.ToGomlxTensors()
	fmt.Printf("Batch of %d episodes, %d steps, %d channels (%.1f%% padding)\n",
		b.Size, b.Time, b.Channels, 100*b.PaddingRatio())
	fmt.Printf("  input shape: %v\n", inputs[0].Shape().Dimensions)
	for _, l := range labels {
		fmt.Printf("  label shape: %v\n", l.Shape().Dimensions)
	}
	for i, l := range b.Lengths {
		if b.Names != nil {
			fmt.Printf("  %s: %.2f hours, %d steps\n", b.Names[i], b.Times[i], l)
			continue
		}
		fmt.Printf("  example %d: %d steps\n", i, l)
	}
}

// firstN limits a reader to its first n episodes.
type firstN struct {
	phenotyping.Reader
	n int
}

func (f firstN) Len() int { return min(f.n, f.Reader.Len()) }
