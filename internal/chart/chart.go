// Package chart renders the insight charts to PNG files.
package chart

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Kind selects the chart layout.
type Kind string

const (
	// KindHistograms draws one histogram per series in a grid.
	KindHistograms Kind = "histograms"
	// KindLine draws a single time series.
	KindLine Kind = "line"
)

// Series is a named list of values for one histogram panel.
type Series struct {
	Name   string
	Values []float64
}

// Point is one sample of a time series.
type Point struct {
	X time.Time
	Y float64
}

// Spec describes a chart independently of how it is drawn.
type Spec struct {
	Kind   Kind
	File   string
	Title  string
	XLabel string
	YLabel string
	// Bins is the histogram bin count.
	Bins   int
	Series []Series
	Points []Point
}

const cellSize = 3 * vg.Inch

// Render draws s into dir/s.File and returns the written path.
func Render(s Spec, dir string) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chart: render %s: %v", s.File, r)
		}
	}()
	if s.File == "" {
		return "", fmt.Errorf("chart: empty file name")
	}
	path = filepath.Join(dir, s.File)
	switch s.Kind {
	case KindHistograms:
		err = renderHistograms(s, path)
	case KindLine:
		err = renderLine(s, path)
	default:
		err = fmt.Errorf("chart: unknown kind %q", s.Kind)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func renderHistograms(s Spec, path string) error {
	var panels []*plot.Plot
	for _, ser := range s.Series {
		vals := finite(ser.Values)
		if len(vals) == 0 {
			continue
		}
		bins := s.Bins
		if bins <= 0 {
			bins = 20
		}
		h, err := plotter.NewHist(plotter.Values(vals), bins)
		if err != nil {
			return fmt.Errorf("chart: histogram %s: %w", ser.Name, err)
		}
		p := plot.New()
		p.Title.Text = ser.Name
		p.Y.Label.Text = "count"
		p.Add(h)
		panels = append(panels, p)
	}
	if len(panels) == 0 {
		return fmt.Errorf("chart: no numeric values to plot")
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(panels)))))
	rows := (len(panels) + cols - 1) / cols
	grid := make([][]*plot.Plot, rows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, cols)
		for c := range grid[r] {
			if i := r*cols + c; i < len(panels) {
				grid[r][c] = panels[i]
			} else {
				blank := plot.New()
				blank.HideAxes()
				grid[r][c] = blank
			}
		}
	}

	img := vgimg.New(vg.Length(cols)*cellSize, vg.Length(rows)*cellSize)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}
	canvases := plot.Align(grid, tiles, dc)
	for r := range grid {
		for c := range grid[r] {
			grid[r][c].Draw(canvases[r][c])
		}
	}
	return writePNG(img, path)
}

func renderLine(s Spec, path string) error {
	if len(s.Points) == 0 {
		return fmt.Errorf("chart: no points to plot")
	}
	pts := make(plotter.XYs, len(s.Points))
	for i, p := range s.Points {
		pts[i] = plotter.XY{X: float64(p.X.Unix()), Y: p.Y}
	}
	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("chart: line: %w", err)
	}
	l.LineStyle.Width = vg.Points(2)
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("chart: points: %w", err)
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(l, sc, plotter.NewGrid())
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("chart: save %s: %w", path, err)
	}
	return nil
}

func writePNG(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("chart: write %s: %w", path, err)
	}
	return f.Close()
}

func finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
