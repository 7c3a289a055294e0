package main

import "github.com/Noofbiz/phenoBatch/phenotyping"

// modeReport collects padding statistics for one reordering mode.
type modeReport struct {
	Mode string

	// Ratios holds the padding ratio of every batch, in generation order.
	Ratios []float64

	// Cells is the total number of (example, step) cells generated and
	// Padded the number of them that are padding.
	Cells  int
	Padded int
}

// Overall returns the padding ratio over all batches.
func (r modeReport) Overall() float64 {
	if r.Cells == 0 {
		return 0
	}
	return float64(r.Padded) / float64(r.Cells)
}

// runPasses pulls passes*Steps() batches from g.
func runPasses(g *phenotyping.Generator, passes int) (modeReport, error) {
	var rep modeReport
	for range passes * g.Steps() {
		b, err := g.Next()
		if err != nil {
			return rep, err
		}
		rep.Ratios = append(rep.Ratios, b.PaddingRatio())
		rep.Cells += b.Cells()
		rep.Padded += b.PaddedCells()
	}
	return rep, nil
}
