package preprocess

import "fmt"

// PadZeros right-pads every sequence with zero rows to the length of the
// longest one, or to minLength if that is larger. The inputs are not
// modified; padded rows are fresh slices.
func PadZeros(seqs [][][]float32, minLength int) ([][][]float32, error) {
	if len(seqs) == 0 {
		return nil, nil
	}

	maxLen := minLength
	channels := -1
	for i, s := range seqs {
		maxLen = max(maxLen, len(s))
		for t, row := range s {
			if channels < 0 {
				channels = len(row)
			} else if len(row) != channels {
				return nil, fmt.Errorf("sequence %d step %d has %d channels, expected %d", i, t, len(row), channels)
			}
		}
	}
	if channels < 0 {
		channels = 0
	}

	out := make([][][]float32, len(seqs))
	for i, s := range seqs {
		padded := make([][]float32, maxLen)
		copy(padded, s)
		for t := len(s); t < maxLen; t++ {
			padded[t] = make([]float32, channels)
		}
		out[i] = padded
	}
	return out, nil
}

// MaxLength returns the length of the longest sequence.
func MaxLength(seqs [][][]float32) int {
	n := 0
	for _, s := range seqs {
		n = max(n, len(s))
	}
	return n
}
