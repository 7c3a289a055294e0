package phenotyping

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/Noofbiz/phenoBatch/datasets"
)

// mockReader serves a fixed list of raw episodes.
type mockReader struct {
	examples []datasets.RawExample
	err      error
	pos      int
}

func (m *mockReader) Len() int { return len(m.examples) }

func (m *mockReader) ReadChunk(n int) ([]datasets.RawExample, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]datasets.RawExample, 0, n)
	for range n {
		out = append(out, m.examples[m.pos])
		m.pos = (m.pos + 1) % len(m.examples)
	}
	return out, nil
}

// newMockReader builds one episode per length. Episode i is named "ep<i>"
// and carries the labels {i % 2, 1 - i % 2, 1}.
func newMockReader(lengths ...int) *mockReader {
	r := &mockReader{}
	for i, l := range lengths {
		rows := make([][]string, l)
		for t := range rows {
			rows[t] = []string{strconv.Itoa(t), strconv.Itoa(i)}
		}
		r.examples = append(r.examples, datasets.RawExample{
			Name:    fmt.Sprintf("ep%d", i),
			EndTime: float64(l),
			Labels:  []int{i % 2, 1 - i%2, 1},
			Header:  []string{"Hours", "id"},
			Rows:    rows,
		})
	}
	return r
}

// mockDiscretizer emits one row per raw row: {id + 1, step + 1}. No value is
// ever zero, so padding is easy to tell apart.
type mockDiscretizer struct {
	failOn string
}

func (m *mockDiscretizer) Transform(header []string, rows [][]string, end float64) ([][]float32, []string, error) {
	out := make([][]float32, len(rows))
	for t, row := range rows {
		if row[1] == m.failOn {
			return nil, nil, errors.New("bad row")
		}
		id, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, nil, err
		}
		out[t] = []float32{float32(id + 1), float32(t + 1)}
	}
	return out, []string{"id", "step"}, nil
}

// scaleNormalizer multiplies every value by factor.
type scaleNormalizer struct {
	factor float32
	err    error
}

func (s *scaleNormalizer) Transform(x [][]float32) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(x))
	for i, row := range x {
		out[i] = make([]float32, len(row))
		for j, v := range row {
			out[i][j] = v * s.factor
		}
	}
	return out, nil
}

// exampleID recovers the episode index from a batch row written by
// mockDiscretizer.
func exampleID(b *Batch, i int) int {
	return int(b.Step(i, 0)[0]) - 1
}

func mustGenerator(t *testing.T, cfg Config, lengths ...int) *Generator {
	t.Helper()
	g, err := NewGenerator(newMockReader(lengths...), &mockDiscretizer{}, nil, cfg)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	return g
}

func mustNext(t *testing.T, g *Generator) *Batch {
	t.Helper()
	b, err := g.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	return b
}
