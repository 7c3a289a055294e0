package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all batchstats configuration.
type Config struct {
	Data        DataConfig
	Discretizer DiscretizerConfig
	Batch       BatchConfig
	Log         LogConfig
	Output      OutputConfig
}

// DataConfig says where the episodes live.
type DataConfig struct {
	Dir              string
	Listfile         string // empty means Dir/listfile.csv
	SmallPart        bool
	NormalizerParams string // empty disables normalization
}

// DiscretizerConfig holds discretizer settings.
type DiscretizerConfig struct {
	ConfigPath string
	Timestep   float64
	Impute     string // "zero", "normal_value", "previous", "next"
	StartTime  string // "zero", "relative"
	StoreMasks bool
}

// BatchConfig holds generator settings.
type BatchConfig struct {
	Size        int
	Shuffle     bool
	TargetRepl  bool
	ReturnNames bool
	Seed        int64
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
	JSON  bool
}

// OutputConfig holds report settings.
type OutputConfig struct {
	PlotDir string
	Passes  int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Data: DataConfig{
			Dir:              getenv("PHENO_DATA_DIR", "data/phenotyping/train"),
			Listfile:         os.Getenv("PHENO_LISTFILE"),
			SmallPart:        getenvBool("PHENO_SMALL_PART", false),
			NormalizerParams: os.Getenv("PHENO_NORMALIZER_PARAMS"),
		},
		Discretizer: DiscretizerConfig{
			ConfigPath: getenv("PHENO_DISCRETIZER_CONFIG", "resources/discretizer_config.json"),
			Timestep:   getenvFloat("PHENO_TIMESTEP", 0.8),
			Impute:     getenv("PHENO_IMPUTE", "previous"),
			StartTime:  getenv("PHENO_START_TIME", "zero"),
			StoreMasks: getenvBool("PHENO_STORE_MASKS", true),
		},
		Batch: BatchConfig{
			Size:        getenvInt("PHENO_BATCH_SIZE", 8),
			Shuffle:     getenvBool("PHENO_SHUFFLE", false),
			TargetRepl:  getenvBool("PHENO_TARGET_REPL", false),
			ReturnNames: getenvBool("PHENO_RETURN_NAMES", false),
			Seed:        getenvInt64("PHENO_SEED", 0),
		},
		Log: LogConfig{
			Level: getenv("PHENO_LOG_LEVEL", "info"),
			JSON:  getenvBool("PHENO_LOG_JSON", false),
		},
		Output: OutputConfig{
			PlotDir: getenv("PHENO_PLOT_DIR", "plots"),
			Passes:  getenvInt("PHENO_PASSES", 1),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}
