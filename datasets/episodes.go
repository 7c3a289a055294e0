package datasets

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
)

// listEntry is one parsed listfile row.
type listEntry struct {
	stay         string
	periodLength float64
	labels       []int
}

// EpisodeReader lazily reads phenotyping episodes. The listfile is parsed
// eagerly; the timeseries CSV of an episode is only opened when the episode
// is read.
type EpisodeReader struct {
	// Dir holds the timeseries CSV files named in the listfile.
	Dir string

	// Listfile is the path of the listfile CSV.
	Listfile string

	// Names of the label columns, in listfile order.
	labelNames []string

	entries []listEntry

	// Position of the next example returned by ReadNext / ReadChunk.
	pos int
}

// NewEpisodeReader parses listfile and returns a reader for the episodes it
// names. An empty listfile path defaults to dir/listfile.csv.
func NewEpisodeReader(dir, listfile string) (*EpisodeReader, error) {
	if listfile == "" {
		listfile = filepath.Join(dir, "listfile.csv")
	}

	header, rows, err := readCSV(listfile)
	if err != nil {
		return nil, fmt.Errorf("failed to read listfile %s: %w", listfile, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("listfile %s: expected at least stay and period_length columns, got %v", listfile, header)
	}

	r := &EpisodeReader{
		Dir:        dir,
		Listfile:   listfile,
		labelNames: append([]string(nil), header[2:]...),
		entries:    make([]listEntry, 0, len(rows)),
	}

	for i, record := range rows {
		if len(record) != len(header) {
			return nil, fmt.Errorf("listfile %s row %d: expected %d columns, got %d", listfile, i+1, len(header), len(record))
		}
		t, err := parseFloat64(record[1])
		if err != nil {
			return nil, fmt.Errorf("listfile %s row %d: failed to parse period_length: %w", listfile, i+1, err)
		}
		labels := make([]int, len(record)-2)
		for j, cell := range record[2:] {
			v, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, fmt.Errorf("listfile %s row %d: failed to parse label %q: %w", listfile, i+1, r.labelNames[j], err)
			}
			labels[j] = v
		}
		r.entries = append(r.entries, listEntry{
			stay:         strings.TrimSpace(record[0]),
			periodLength: t,
			labels:       labels,
		})
	}

	return r, nil
}

// Len returns the number of episodes in the listfile.
func (r *EpisodeReader) Len() int {
	return len(r.entries)
}

// LabelNames returns the phenotype names, in label order.
func (r *EpisodeReader) LabelNames() []string {
	return append([]string(nil), r.labelNames...)
}

// ReadExample reads the episode at index idx of the (possibly shuffled)
// listfile order.
func (r *EpisodeReader) ReadExample(idx int) (RawExample, error) {
	if idx < 0 || idx >= len(r.entries) {
		return RawExample{}, fmt.Errorf("index %d out of range [0, %d)", idx, len(r.entries))
	}
	e := r.entries[idx]

	path := filepath.Join(r.Dir, e.stay)
	header, rows, err := readCSV(path)
	if err != nil {
		return RawExample{}, fmt.Errorf("failed to read episode %s: %w", path, err)
	}

	return RawExample{
		Name:    e.stay,
		EndTime: e.periodLength,
		Labels:  append([]int(nil), e.labels...),
		Header:  header,
		Rows:    rows,
	}, nil
}

// RowCount returns the number of raw timeseries rows of the episode at idx
// without parsing them.
func (r *EpisodeReader) RowCount(idx int) (int, error) {
	if idx < 0 || idx >= len(r.entries) {
		return 0, fmt.Errorf("index %d out of range [0, %d)", idx, len(r.entries))
	}
	return countCSVRows(filepath.Join(r.Dir, r.entries[idx].stay))
}

// ReadNext reads the episode under the cursor and advances it, wrapping
// around to the first episode after the last one.
func (r *EpisodeReader) ReadNext() (RawExample, error) {
	if len(r.entries) == 0 {
		return RawExample{}, fmt.Errorf("listfile %s has no episodes", r.Listfile)
	}
	ex, err := r.ReadExample(r.pos)
	if err != nil {
		return RawExample{}, err
	}
	r.pos = (r.pos + 1) % len(r.entries)
	return ex, nil
}

// ReadChunk reads the next n episodes.
func (r *EpisodeReader) ReadChunk(n int) ([]RawExample, error) {
	out := make([]RawExample, 0, n)
	for range n {
		ex, err := r.ReadNext()
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// Shuffle reorders the episodes deterministically for the given seed and
// rewinds the cursor.
func (r *EpisodeReader) Shuffle(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(r.entries), func(i, j int) {
		r.entries[i], r.entries[j] = r.entries[j], r.entries[i]
	})
	r.pos = 0
}

// Reset rewinds the cursor to the first episode.
func (r *EpisodeReader) Reset() {
	r.pos = 0
}
