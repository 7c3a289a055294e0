package main

// batchstats loads a phenotyping dataset, runs the batch generator in both
// reordering modes and reports how much of every batch is zero padding.
//
// Settings come from PHENO_* environment variables (a .env file in the
// working directory is loaded first) and can be overridden with flags.
//
// Usage:
//
//	go run ./cmd/batchstats -data data/phenotyping/train -batch-size 8 -passes 2
//
// Use -fit-normalizer to compute normalizer parameters over the discretized
// episodes and write them as JSON for later runs (-normalizer).

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/Noofbiz/phenoBatch/datasets"
	"github.com/Noofbiz/phenoBatch/internal/config"
	"github.com/Noofbiz/phenoBatch/internal/logging"
	"github.com/Noofbiz/phenoBatch/phenotyping"
	"github.com/Noofbiz/phenoBatch/preprocess"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dataDir := flag.String("data", cfg.Data.Dir, "directory holding the listfile and episode timeseries CSVs")
	listfile := flag.String("listfile", cfg.Data.Listfile, "listfile path (default <data>/listfile.csv)")
	smallPart := flag.Bool("small-part", cfg.Data.SmallPart, "only load the first 1000 episodes")
	normParams := flag.String("normalizer", cfg.Data.NormalizerParams, "normalizer params JSON; empty disables normalization")
	fitNormalizer := flag.String("fit-normalizer", "", "if set, fit normalizer params on the loaded episodes and write them to this path")

	discConfig := flag.String("discretizer-config", cfg.Discretizer.ConfigPath, "discretizer channel config JSON")
	timestep := flag.Float64("timestep", cfg.Discretizer.Timestep, "discretization bin width in hours")
	impute := flag.String("impute", cfg.Discretizer.Impute, "impute strategy: zero, normal_value, previous or next")
	startTime := flag.String("start-time", cfg.Discretizer.StartTime, "start time: zero or relative")
	storeMasks := flag.Bool("masks", cfg.Discretizer.StoreMasks, "append per-channel measurement masks")

	batchSize := flag.Int("batch-size", cfg.Batch.Size, "batch size")
	targetRepl := flag.Bool("target-repl", cfg.Batch.TargetRepl, "replicate labels over the time axis")
	seed := flag.Int64("seed", cfg.Batch.Seed, "random seed (0 = time based)")
	passes := flag.Int("passes", cfg.Output.Passes, "number of passes to run per mode")
	plotDir := flag.String("out", cfg.Output.PlotDir, "output directory for generated plots (empty disables plotting)")

	logLevel := flag.String("log-level", cfg.Log.Level, "log level: debug, info, warn or error")
	logJSON := flag.Bool("log-json", cfg.Log.JSON, "log as JSON")
	flag.Parse()

	logging.Init(*logJSON, logging.ParseLevel(*logLevel))

	reader, err := datasets.NewEpisodeReader(*dataDir, *listfile)
	if err != nil {
		log.Fatalf("failed to open episodes: %v", err)
	}
	slog.Info("episodes found", "dir", *dataDir, "episodes", humanize.Comma(int64(reader.Len())), "labels", len(reader.LabelNames()))

	channels, err := preprocess.LoadDiscretizerConfig(*discConfig)
	if err != nil {
		log.Fatalf("failed to load discretizer config: %v", err)
	}
	disc, err := preprocess.NewDiscretizer(channels,
		preprocess.WithTimestep(*timestep),
		preprocess.WithImpute(*impute),
		preprocess.WithStartTime(*startTime),
		preprocess.WithMasks(*storeMasks),
	)
	if err != nil {
		log.Fatalf("failed to create discretizer: %v", err)
	}

	if *fitNormalizer != "" && *normParams != "" {
		log.Fatalf("-fit-normalizer needs raw discretized data; drop -normalizer")
	}

	var norm phenotyping.Normalizer
	if *normParams != "" {
		n := preprocess.NewNormalizer(disc.ContinuousColumns())
		if err := n.LoadParams(*normParams); err != nil {
			log.Fatalf("failed to load normalizer params: %v", err)
		}
		norm = n
		slog.Info("normalizer loaded", "path", *normParams, "columns", len(disc.ContinuousColumns()))
	}

	ds, err := phenotyping.LoadData(reader, disc, norm, phenotyping.LoadOptions{SmallPart: *smallPart})
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	slog.Info("dataset loaded", "examples", humanize.Comma(int64(ds.Len())), "channels", disc.Width())

	if *fitNormalizer != "" {
		if err := fitAndSave(ds, disc.ContinuousColumns(), *fitNormalizer); err != nil {
			log.Fatalf("failed to fit normalizer: %v", err)
		}
		slog.Info("normalizer params written", "path", *fitNormalizer)
	}

	reports := make([]modeReport, 0, 2)
	for _, shuffle := range []bool{true, false} {
		g, err := phenotyping.NewGeneratorFromDataset(ds, phenotyping.Config{
			BatchSize:  *batchSize,
			Shuffle:    shuffle,
			TargetRepl: *targetRepl,
			Seed:       *seed,
		})
		if err != nil {
			log.Fatalf("failed to create generator: %v", err)
		}
		rep, err := runPasses(g, *passes)
		if err != nil {
			log.Fatalf("failed to generate batches: %v", err)
		}
		rep.Mode = modeName(shuffle)
		reports = append(reports, rep)

		slog.Info("padding summary",
			"mode", rep.Mode,
			"batches", humanize.Comma(int64(len(rep.Ratios))),
			"cells", humanize.Comma(int64(rep.Cells)),
			"padded_cells", humanize.Comma(int64(rep.Padded)),
			"padding", humanize.FormatFloat("#,###.##", 100*rep.Overall())+"%",
		)
	}

	if *plotDir == "" {
		return
	}
	if err := os.MkdirAll(*plotDir, 0o755); err != nil {
		log.Fatalf("failed to create plot dir: %v", err)
	}
	lengthsPath := filepath.Join(*plotDir, "episode_lengths.png")
	if err := plotLengths(ds.Lengths(), lengthsPath); err != nil {
		log.Fatalf("failed to plot episode lengths: %v", err)
	}
	paddingPath := filepath.Join(*plotDir, "batch_padding.png")
	if err := plotPadding(reports, paddingPath); err != nil {
		log.Fatalf("failed to plot batch padding: %v", err)
	}
	slog.Info("plots written", "lengths", lengthsPath, "padding", paddingPath)
}

func modeName(shuffle bool) string {
	if shuffle {
		return "shuffle"
	}
	return "bucket"
}

// fitAndSave estimates normalizer params over every example of ds.
func fitAndSave(ds *phenotyping.Dataset, fields []int, path string) error {
	n := preprocess.NewNormalizer(fields)
	for i := range ds.Len() {
		if err := n.Feed(ds.At(i).Features); err != nil {
			return err
		}
	}
	if err := n.Finalize(); err != nil {
		return err
	}
	return n.SaveParams(path)
}
