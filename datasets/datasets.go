package datasets

// This package reads ICU phenotyping episodes from the benchmark layout and
// presents them as raw, untransformed examples.
//
// Layout and intended usage:
//
// EpisodeReader
//   - Stores the parsed listfile (one row per episode) and the directory that
//     holds the per-episode timeseries CSVs
//   - Loads timeseries CSVs on-demand, only when an example is read
//   - Listfile columns: stay, period_length, then one 0/1 column per phenotype
//   - Timeseries columns: Hours, then one column per clinical channel. Empty
//     cells mean "not measured in this row".
//
// The returned RawExample values are fed through a discretizer and a
// normalizer (see package preprocess) before batching (see package
// phenotyping).

// RawExample is one episode as read from disk, before discretization.
type RawExample struct {
	// Name is the timeseries file name, unique per episode.
	Name string

	// EndTime is the length of the episode in hours (period_length).
	EndTime float64

	// Labels holds one 0/1 entry per phenotype.
	Labels []int

	// Header is the timeseries header. Header[0] is the time column.
	Header []string

	// Rows holds the raw timeseries cells. Rows[i][0] is the hour offset.
	Rows [][]string
}

// Len returns the number of raw rows in the episode.
func (r RawExample) Len() int {
	return len(r.Rows)
}
