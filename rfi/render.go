package rfi

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// heatColors defines the gradient used for the waterfall, cold to
// warm.
var heatColors = []color.RGBA{
	{0, 0, 0, 255},       // black
	{0, 0, 255, 255},     // blue
	{0, 255, 255, 255},   // cyan
	{0, 255, 0, 255},     // green
	{255, 255, 0, 255},   // yellow
	{255, 0, 0, 255},     // red
	{255, 255, 255, 255}, // white
}

// flagColor marks flagged samples in rendered waterfalls.
var flagColor = color.RGBA{255, 0, 255, 255} // magenta

// heatColor maps a level in [0,1] onto the gradient.
func heatColor(level float64) color.RGBA {
	if level <= 0 {
		return heatColors[0]
	}
	if level >= 1 {
		return heatColors[len(heatColors)-1]
	}
	scaled := level * float64(len(heatColors)-1)
	idx := int(scaled)
	fract := scaled - float64(idx)
	a := heatColors[idx]
	b := heatColors[idx+1]
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*fract),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*fract),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*fract),
		A: 255,
	}
}

// WaterfallRenderer renders a time-frequency image, optionally with
// its flags overlaid, as a PNG. Levels are log-scaled between the
// unmasked minimum and maximum.
type WaterfallRenderer struct {
	// LabelChannels draws channel index labels on the left margin.
	LabelChannels bool
	// MarginLeft is the label margin width in pixels; ignored unless
	// LabelChannels is set.
	MarginLeft int
}

// labelStep is the number of channels between axis labels.
const labelStep = 32

// Render writes the image (and flags, when non-nil) to w as PNG.
func (r *WaterfallRenderer) Render(w io.Writer, img *Image, flags *Mask) error {
	margin := 0
	if r.LabelChannels {
		margin = r.MarginLeft
		if margin <= 0 {
			margin = 48
		}
	}
	width := img.Width()
	height := img.Height()
	out := image.NewRGBA(image.Rect(0, 0, width+margin, height))

	empty := NewMask(width, height)
	scratch := empty
	if flags != nil {
		scratch = flags
	}
	min := float64(MinValue(img, scratch))
	max := float64(MaxValue(img, scratch))
	span := math.Log1p(max - min)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if flags != nil && flags.Value(x, y) {
				out.SetRGBA(x+margin, y, flagColor)
				continue
			}
			level := 0.0
			if span > 0 {
				level = math.Log1p(float64(img.Value(x, y))-min) / span
			}
			out.SetRGBA(x+margin, y, heatColor(level))
		}
	}

	if r.LabelChannels {
		drawer := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
			Face: basicfont.Face7x13,
		}
		for y := 0; y < height; y += labelStep {
			drawer.Dot = fixed.P(2, y+basicfont.Face7x13.Ascent)
			drawer.DrawString(fmt.Sprintf("ch %d", y))
		}
	}

	return png.Encode(w, out)
}

// RenderMask writes the mask alone as a black/white PNG, flagged
// samples white.
func RenderMask(w io.Writer, mask *Mask) error {
	out := image.NewGray(image.Rect(0, 0, mask.Width(), mask.Height()))
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			if mask.Value(x, y) {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return png.Encode(w, out)
}
