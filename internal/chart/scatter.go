package chart

import (
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"xferbench/internal/model"
)

// ScatterOptions controls the size/time scatter chart.
type ScatterOptions struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// DefaultScatterOptions matches a 10x6 inch figure at 100 dpi.
func DefaultScatterOptions() ScatterOptions {
	return ScatterOptions{
		Title:  "Client Performance: File Size vs Execution Time",
		XLabel: "File Size (bytes)",
		YLabel: "Execution Time (seconds)",
		Width:  10 * vg.Inch,
		Height: 6 * vg.Inch,
		DPI:    100,
	}
}

// Scatter renders samples as a scatter chart into a PNG file at path.
func Scatter(samples []model.Sample, path string, opts ScatterOptions) error {
	if len(samples) == 0 {
		return ErrNoData
	}
	return writeFile(path, func(w io.Writer) error {
		return WriteScatter(w, samples, opts)
	})
}

// WriteScatter renders samples as PNG to w.
func WriteScatter(w io.Writer, samples []model.Sample, opts ScatterOptions) error {
	if len(samples) == 0 {
		return ErrNoData
	}
	def := DefaultScatterOptions()
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Add(newGrid())

	xys := make(plotter.XYs, len(samples))
	for i, s := range samples {
		xys[i] = plotter.XY{X: s.SizeBytes, Y: s.Seconds}
	}
	points, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	points.Shape = draw.CircleGlyph{}
	points.Color = blue
	points.Radius = vg.Points(3)
	p.Add(points)

	img := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	p.Draw(draw.New(img))
	png := vgimg.PngCanvas{Canvas: img}
	_, err = png.WriteTo(w)
	return err
}
