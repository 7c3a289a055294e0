// Package preprocess turns raw episodes into fixed-schema numeric matrices and
// provides the padding and bucketing helpers used when batching them.
package preprocess

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

const eps = 1e-6

// Impute strategies for bins in which a channel was not measured.
const (
	ImputeZero        = "zero"
	ImputeNormalValue = "normal_value"
	ImputePrevious    = "previous"
	ImputeNext        = "next"
)

// Start time modes. StartZero measures hours from admission; StartRelative
// measures them from the first row of the episode.
const (
	StartZero     = "zero"
	StartRelative = "relative"
)

// DiscretizerConfig describes the clinical channels. It uses the same JSON
// layout as the benchmark's discretizer_config.json.
type DiscretizerConfig struct {
	IDToChannel    []string            `json:"id_to_channel"`
	IsCategorical  map[string]bool     `json:"is_categorical_channel"`
	NormalValues   map[string]string   `json:"normal_values"`
	PossibleValues map[string][]string `json:"possible_values"`
}

// LoadDiscretizerConfig reads a channel configuration JSON file.
func LoadDiscretizerConfig(path string) (DiscretizerConfig, error) {
	var cfg DiscretizerConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read discretizer config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal discretizer config: %w", err)
	}
	return cfg, nil
}

// DiscretizerOption customizes a Discretizer.
type DiscretizerOption func(*Discretizer)

// WithTimestep sets the bin width in hours.
func WithTimestep(hours float64) DiscretizerOption {
	return func(d *Discretizer) { d.timestep = hours }
}

// WithImpute selects the impute strategy.
func WithImpute(strategy string) DiscretizerOption {
	return func(d *Discretizer) { d.impute = strategy }
}

// WithMasks controls whether per-channel measurement masks are appended.
func WithMasks(store bool) DiscretizerOption {
	return func(d *Discretizer) { d.storeMasks = store }
}

// WithStartTime selects StartZero or StartRelative.
func WithStartTime(mode string) DiscretizerOption {
	return func(d *Discretizer) { d.startTime = mode }
}

// Discretizer buckets irregular timeseries rows into fixed-width time bins and
// encodes every channel numerically (one-hot for categorical channels).
type Discretizer struct {
	cfg        DiscretizerConfig
	timestep   float64
	impute     string
	storeMasks bool
	startTime  string

	channelID map[string]int
	beginPos  []int
	width     int
}

// NewDiscretizer validates cfg and returns a Discretizer. Defaults: 0.8h
// bins, previous-value imputation, masks stored, start time zero.
func NewDiscretizer(cfg DiscretizerConfig, opts ...DiscretizerOption) (*Discretizer, error) {
	d := &Discretizer{
		cfg:        cfg,
		timestep:   0.8,
		impute:     ImputePrevious,
		storeMasks: true,
		startTime:  StartZero,
		channelID:  make(map[string]int, len(cfg.IDToChannel)),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.timestep <= 0 {
		return nil, fmt.Errorf("timestep must be > 0, got %v", d.timestep)
	}
	switch d.impute {
	case ImputeZero, ImputeNormalValue, ImputePrevious, ImputeNext:
	default:
		return nil, fmt.Errorf("unknown impute strategy %q", d.impute)
	}
	switch d.startTime {
	case StartZero, StartRelative:
	default:
		return nil, fmt.Errorf("unknown start time %q", d.startTime)
	}
	if len(cfg.IDToChannel) == 0 {
		return nil, fmt.Errorf("discretizer config has no channels")
	}

	d.beginPos = make([]int, len(cfg.IDToChannel))
	for i, ch := range cfg.IDToChannel {
		if _, dup := d.channelID[ch]; dup {
			return nil, fmt.Errorf("channel %q listed twice", ch)
		}
		d.channelID[ch] = i
		d.beginPos[i] = d.width
		if cfg.IsCategorical[ch] {
			values := cfg.PossibleValues[ch]
			if len(values) == 0 {
				return nil, fmt.Errorf("categorical channel %q has no possible values", ch)
			}
			d.width += len(values)
		} else {
			d.width++
		}
	}
	return d, nil
}

// Width returns the number of columns produced by Transform.
func (d *Discretizer) Width() int {
	if d.storeMasks {
		return d.width + len(d.cfg.IDToChannel)
	}
	return d.width
}

// ContinuousColumns returns the output columns holding continuous channels,
// which are the ones worth normalizing.
func (d *Discretizer) ContinuousColumns() []int {
	var cols []int
	for i, ch := range d.cfg.IDToChannel {
		if !d.cfg.IsCategorical[ch] {
			cols = append(cols, d.beginPos[i])
		}
	}
	return cols
}

// Header returns the names of the output columns.
func (d *Discretizer) Header() []string {
	header := make([]string, 0, d.Width())
	for _, ch := range d.cfg.IDToChannel {
		if d.cfg.IsCategorical[ch] {
			for _, v := range d.cfg.PossibleValues[ch] {
				header = append(header, ch+"->"+v)
			}
		} else {
			header = append(header, ch)
		}
	}
	if d.storeMasks {
		for _, ch := range d.cfg.IDToChannel {
			header = append(header, "mask->"+ch)
		}
	}
	return header
}

// write encodes value of channel c into row.
func (d *Discretizer) write(row []float32, c int, value string) error {
	ch := d.cfg.IDToChannel[c]
	if d.cfg.IsCategorical[ch] {
		k := slices.Index(d.cfg.PossibleValues[ch], value)
		if k < 0 {
			return fmt.Errorf("channel %q: unknown value %q", ch, value)
		}
		start := d.beginPos[c]
		clear(row[start : start+len(d.cfg.PossibleValues[ch])])
		row[start+k] = 1
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return fmt.Errorf("channel %q: %w", ch, err)
	}
	row[d.beginPos[c]] = float32(v)
	return nil
}

// Transform discretizes one episode. header[0] is the time column and every
// other header entry must be a configured channel. end is the episode length
// in hours; a negative end uses the time of the last row instead. The second
// result is the output column header.
func (d *Discretizer) Transform(header []string, rows [][]string, end float64) ([][]float32, []string, error) {
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("empty header")
	}
	cols := make([]int, len(header))
	for j := 1; j < len(header); j++ {
		c, ok := d.channelID[header[j]]
		if !ok {
			return nil, nil, fmt.Errorf("unknown channel %q", header[j])
		}
		cols[j] = c
	}

	times := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, nil, fmt.Errorf("row %d is empty", i)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: bad time %q: %w", i, row[0], err)
		}
		times[i] = t
	}

	firstTime := 0.0
	if d.startTime == StartRelative {
		if len(rows) == 0 {
			return nil, nil, fmt.Errorf("relative start time needs at least one row")
		}
		firstTime = times[0]
	}

	var maxHours float64
	if end >= 0 {
		maxHours = end - firstTime
	} else {
		for _, t := range times {
			maxHours = max(maxHours, t-firstTime)
		}
	}

	nChannels := len(d.cfg.IDToChannel)
	nBins := int(maxHours/d.timestep + 1.0 - eps)
	if nBins < 0 {
		nBins = 0
	}

	data := make([][]float32, nBins)
	mask := make([][]bool, nBins)
	original := make([][]string, nBins)
	for b := range nBins {
		data[b] = make([]float32, d.Width())
		mask[b] = make([]bool, nChannels)
		original[b] = make([]string, nChannels)
	}

	for i, row := range rows {
		t := times[i] - firstTime
		if t > maxHours+eps {
			continue
		}
		bin := int(t/d.timestep - eps)
		if bin < 0 || bin >= nBins {
			return nil, nil, fmt.Errorf("row %d: time %v falls outside [0, %d) bins", i, times[i], nBins)
		}
		for j := 1; j < len(row) && j < len(header); j++ {
			if row[j] == "" {
				continue
			}
			c := cols[j]
			mask[bin][c] = true
			if err := d.write(data[bin], c, row[j]); err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", i, err)
			}
			original[bin][c] = row[j]
		}
	}

	if err := d.imputeMissing(data, mask, original); err != nil {
		return nil, nil, err
	}

	if d.storeMasks {
		for b := range nBins {
			for c := range nChannels {
				if mask[b][c] {
					data[b][d.width+c] = 1
				}
			}
		}
	}

	return data, d.Header(), nil
}

func (d *Discretizer) imputeMissing(data [][]float32, mask [][]bool, original [][]string) error {
	nChannels := len(d.cfg.IDToChannel)

	fill := func(b int, prev []string) error {
		for c := range nChannels {
			if mask[b][c] {
				prev[c] = original[b][c]
				continue
			}
			value := prev[c]
			if d.impute == ImputeNormalValue || value == "" {
				value = d.cfg.NormalValues[d.cfg.IDToChannel[c]]
			}
			if value == "" {
				continue
			}
			if err := d.write(data[b], c, value); err != nil {
				return fmt.Errorf("impute: %w", err)
			}
		}
		return nil
	}

	switch d.impute {
	case ImputeNormalValue, ImputePrevious:
		prev := make([]string, nChannels)
		for b := range data {
			if err := fill(b, prev); err != nil {
				return err
			}
		}
	case ImputeNext:
		prev := make([]string, nChannels)
		for b := len(data) - 1; b >= 0; b-- {
			if err := fill(b, prev); err != nil {
				return err
			}
		}
	}
	return nil
}
