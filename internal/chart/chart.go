// Package chart renders benchmark results as PNG images.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"xferbench/internal/model"
	"xferbench/internal/results"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to plot")

var (
	blue    = color.RGBA{B: 255, A: 255}
	red     = color.RGBA{R: 255, A: 255}
	green   = color.RGBA{G: 128, A: 255}
	magenta = color.RGBA{R: 191, B: 191, A: 255}
	gridInk = color.NRGBA{A: 77}
)

// Renderer draws the four-panel analysis chart.
type Renderer struct {
	DPI    int
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a renderer for a 15x10 inch figure at dpi.
func NewRenderer(dpi int) *Renderer {
	return &Renderer{DPI: dpi, Width: 15 * vg.Inch, Height: 10 * vg.Inch}
}

// Analysis renders the analysis chart for items into a PNG file at path.
func (r *Renderer) Analysis(items []model.TransferResult, path string) error {
	if len(items) == 0 {
		return ErrNoData
	}
	return writeFile(path, func(w io.Writer) error {
		return r.WriteAnalysis(w, items)
	})
}

// WriteAnalysis renders the analysis chart as PNG to w.
func (r *Renderer) WriteAnalysis(w io.Writer, items []model.TransferResult) (err error) {
	if len(items) == 0 {
		return ErrNoData
	}
	// gonum reports unplottable ranges by panicking.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render analysis chart: %v", rec)
		}
	}()

	sizes := make([]float64, len(items))
	times := make([]float64, len(items))
	throughputs := make([]float64, len(items))
	efficiencies := make([]float64, len(items))
	for i, it := range items {
		sizes[i] = it.FileSizeMB
		times[i] = it.TransferTimeS
		throughputs[i] = it.ThroughputMbps
		efficiencies[i] = results.Efficiency(it)
	}

	linear, err := panel(series{
		title: "Transfer Time vs File Size (Linear Scale)",
		xAxis: "File Size (MB)", yAxis: "Transfer Time (seconds)",
		x: sizes, y: times, ink: blue, label: "%.3fs",
	})
	if err != nil {
		return err
	}
	loglog, err := panel(series{
		title: "Transfer Time vs File Size (Log Scale)",
		xAxis: "File Size (MB)", yAxis: "Transfer Time (seconds)",
		x: sizes, y: times, ink: red, logScale: true,
	})
	if err != nil {
		return err
	}
	throughput, err := panel(series{
		title: "Throughput vs File Size",
		xAxis: "File Size (MB)", yAxis: "Throughput (Mbps)",
		x: sizes, y: throughputs, ink: green, label: "%.1f Mbps",
	})
	if err != nil {
		return err
	}
	efficiency, err := panel(series{
		title: "Transfer Efficiency vs File Size",
		xAxis: "File Size (MB)", yAxis: "Efficiency (Mbps/MB)",
		x: sizes, y: efficiencies, ink: magenta,
	})
	if err != nil {
		return err
	}

	plots := [][]*plot.Plot{
		{linear, loglog},
		{throughput, efficiency},
	}

	img := vgimg.NewWith(vgimg.UseWH(r.Width, r.Height), vgimg.UseDPI(r.dpi()))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      2,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	_, err = png.WriteTo(w)
	return err
}

func (r *Renderer) dpi() int {
	if r.DPI <= 0 {
		return vgimg.DefaultDPI
	}
	return r.DPI
}

type series struct {
	title, xAxis, yAxis string
	x, y                []float64
	ink                 color.Color
	// label is a printf format for per-point annotations; empty disables them.
	label    string
	logScale bool
}

func panel(s series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = s.title
	p.X.Label.Text = s.xAxis
	p.Y.Label.Text = s.yAxis
	p.Add(newGrid())

	xys := make(plotter.XYs, 0, len(s.x))
	for i := range s.x {
		if s.logScale && (s.x[i] <= 0 || s.y[i] <= 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: s.x[i], Y: s.y[i]})
	}
	if len(xys) == 0 {
		return p, nil
	}

	if s.logScale {
		p.X.Scale = plot.LogScale{}
		p.Y.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, err
	}
	line.Color = s.ink
	line.Width = vg.Points(2)
	points.Shape = draw.CircleGlyph{}
	points.Color = s.ink
	points.Radius = vg.Points(4)
	p.Add(line, points)
	if s.logScale {
		padLogRange(&p.X)
		padLogRange(&p.Y)
	}

	if s.label != "" {
		labels, err := pointLabels(xys, s.label)
		if err != nil {
			return nil, err
		}
		p.Add(labels)
	}
	return p, nil
}

// padLogRange widens a single-valued log axis by a decade each way. Left
// alone, gonum widens it to [v-1, v+1], which goes non-positive.
func padLogRange(a *plot.Axis) {
	if a.Min == a.Max {
		a.Min /= 10
		a.Max *= 10
	}
}

func pointLabels(xys plotter.XYs, format string) (*plotter.Labels, error) {
	texts := make([]string, len(xys))
	for i, xy := range xys {
		texts[i] = fmt.Sprintf(format, xy.Y)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, err
	}
	labels.Offset = vg.Point{Y: vg.Points(10)}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
	}
	return labels, nil
}

func newGrid() *plotter.Grid {
	g := plotter.NewGrid()
	g.Vertical.Color = gridInk
	g.Horizontal.Color = gridInk
	return g
}

func writeFile(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}
