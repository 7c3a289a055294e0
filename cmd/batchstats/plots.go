package main

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var modeColors = map[string]color.RGBA{
	"shuffle": {R: 200, G: 30, B: 30, A: 255},
	"bucket":  {R: 30, G: 80, B: 200, A: 255},
}

// plotLengths writes a histogram of episode lengths (in time steps).
func plotLengths(lengths []int, outPath string) error {
	values := make(plotter.Values, len(lengths))
	for i, l := range lengths {
		values[i] = float64(l)
	}

	p := plot.New()
	p.Title.Text = "Episode lengths after discretization"
	p.X.Label.Text = "time steps"
	p.Y.Label.Text = "episodes"

	hist, err := plotter.NewHist(values, 30)
	if err != nil {
		return fmt.Errorf("create histogram: %w", err)
	}
	hist.FillColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	p.Add(hist)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// plotPadding writes one line per mode with the padding ratio of every batch.
func plotPadding(reports []modeReport, outPath string) error {
	p := plot.New()
	p.Title.Text = "Padding per batch: shuffle (red), bucket (blue)"
	p.X.Label.Text = "batch"
	p.Y.Label.Text = "padding ratio"
	p.Y.Min = 0
	p.Y.Max = 1

	for _, rep := range reports {
		xys := make(plotter.XYs, len(rep.Ratios))
		for i, r := range rep.Ratios {
			xys[i] = plotter.XY{X: float64(i), Y: r}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("create line for %s: %w", rep.Mode, err)
		}
		line.Color = modeColors[rep.Mode]
		line.Width = vg.Points(0.8)
		p.Add(line)
		p.Legend.Add(rep.Mode, line)
	}
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
