package rfi

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"
)

// VectorPlotter renders flag mask outlines and accumulated statistics
// as SVG plots.
type VectorPlotter struct {
	// Scale is the canvas size of one time-frequency sample; defaults
	// to 1 when zero.
	Scale float64
	// Tolerance is the outline simplification tolerance in samples.
	Tolerance float64
}

func (p *VectorPlotter) scale() float64 {
	if p.Scale <= 0 {
		return 1
	}
	return p.Scale
}

// PlotMask writes the flagged-region outlines of a mask as an SVG
// document.
func (p *VectorPlotter) PlotMask(w io.Writer, mask *Mask) error {
	s := p.scale()
	width := float64(mask.Width()) * s
	height := float64(mask.Height()) * s
	renderer := svg.New(w, width, height, nil)

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	outlineStyle := canvas.DefaultStyle
	outlineStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	outlineStyle.Stroke = canvas.Paint{Color: canvas.Red}
	outlineStyle.StrokeWidth = s / 2

	for _, polygon := range VectorizeMask(mask, p.Tolerance) {
		for _, ring := range polygon {
			renderer.RenderPath(ringPath(ring, s, height), outlineStyle, canvas.Identity)
		}
	}
	return renderer.Close()
}

// ringPath converts a ring in sample coordinates to a closed canvas
// path. The vertical axis is mirrored so channel 0 is at the top, as
// in the raster renderer.
func ringPath(ring orb.Ring, scale, height float64) *canvas.Path {
	path := &canvas.Path{}
	for i, pt := range ring {
		cx := pt[0] * scale
		cy := height - pt[1]*scale
		if i == 0 {
			path.MoveTo(cx, cy)
		} else {
			path.LineTo(cx, cy)
		}
	}
	path.Close()
	return path
}

// PlotPolarizationStatistics writes a bar chart of the flagged
// fraction per polarization as an SVG document.
func (p *VectorPlotter) PlotPolarizationStatistics(w io.Writer, stats []PolarisationStatistic) error {
	const barWidth, barGap, plotHeight, labelSpace = 40.0, 16.0, 120.0, 18.0
	width := float64(len(stats))*(barWidth+barGap) + barGap
	height := plotHeight + 2*labelSpace
	renderer := svg.New(w, width, height, nil)

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	barStyle := canvas.DefaultStyle
	barStyle.Fill = canvas.Paint{Color: canvas.Steelblue}
	barStyle.Stroke = canvas.Paint{Color: canvas.Black}

	fontFamily := canvas.NewFontFamily("sans")
	if err := fontFamily.LoadSystemFont("sans-serif", canvas.FontRegular); err != nil {
		// Labels are best-effort; the bars alone are still a plot.
		fontFamily = nil
	}

	for i, stat := range stats {
		ratio := 0.0
		if stat.TotalCount > 0 {
			ratio = float64(stat.FlagCount) / float64(stat.TotalCount)
		}
		barHeight := ratio * plotHeight
		if barHeight < 1 {
			barHeight = 1
		}
		x := barGap + float64(i)*(barWidth+barGap)
		bar := canvas.Rectangle(barWidth, barHeight).Translate(x, labelSpace)
		renderer.RenderPath(bar, barStyle, canvas.Identity)

		if fontFamily != nil {
			face := fontFamily.Face(10.0, canvas.Black, canvas.FontRegular, canvas.FontNormal)
			label := canvas.NewTextLine(face, fmt.Sprintf("pol %d", stat.Polarisation), canvas.Left)
			renderer.RenderText(label, canvas.Identity.Translate(x, labelSpace-4))
		}
	}
	return renderer.Close()
}
