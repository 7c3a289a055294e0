package phenotyping

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for a non-positive batch size.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUpstreamRead matches every *UpstreamError.
	ErrUpstreamRead = errors.New("upstream read failure")

	// ErrEmptyDataset is returned when there is nothing to batch.
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrLabelWidth is returned when episodes disagree on the number of labels.
	ErrLabelWidth = errors.New("inconsistent label width")
)

// UpstreamError wraps a failure of the reader, the discretizer or the
// normalizer. None of them are retried.
type UpstreamError struct {
	// Stage is "read", "discretize", "normalize" or "labels".
	Stage string

	// Name is the episode being processed, empty for whole-chunk reads.
	Name string

	Err error
}

func (e *UpstreamError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("upstream read failure: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("upstream read failure: %s %s: %v", e.Stage, e.Name, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUpstreamRead.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamRead
}
