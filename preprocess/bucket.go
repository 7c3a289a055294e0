package preprocess

import (
	"math/rand"
	"sort"
)

// SortAndShuffle reorders items so that batches cut from consecutive runs of
// batchSize items hold sequences of similar length, while batch order stays
// random. The remainder (len(items) % batchSize items) is kept unsorted at
// the end. The input slice is not modified.
func SortAndShuffle[T any](items []T, length func(T) int, batchSize int, rng *rand.Rand) []T {
	data := append([]T(nil), items...)
	if batchSize <= 0 || len(data) == 0 {
		return data
	}
	rng.Shuffle(len(data), func(i, j int) {
		data[i], data[j] = data[j], data[i]
	})

	rem := len(data) % batchSize
	head := data[:len(data)-rem]
	tail := data[len(data)-rem:]

	sort.SliceStable(head, func(i, j int) bool {
		return length(head[i]) < length(head[j])
	})

	blocks := make([][]T, 0, len(head)/batchSize)
	for start := 0; start < len(head); start += batchSize {
		blocks = append(blocks, head[start:start+batchSize])
	}
	rng.Shuffle(len(blocks), func(i, j int) {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	})

	out := make([]T, 0, len(data))
	for _, b := range blocks {
		out = append(out, b...)
	}
	return append(out, tail...)
}
