package rfi

import (
	"fmt"
	"math"
)

// DataKind describes how the images of a TimeFrequencyData are laid
// out per polarization.
type DataKind int

const (
	// AmplitudeKind holds one amplitude image per polarization.
	AmplitudeKind DataKind = iota
	// ComplexKind holds a real and an imaginary image per polarization.
	ComplexKind
)

// TimeFrequencyData bundles the images and masks for one baseline. It
// holds 1, 2 or 4 polarizations with either one amplitude image or a
// real/imaginary image pair per polarization, and either one global
// mask or one mask per polarization. All images share one
// (width, height, stride) shape.
//
// Images and masks are handles: views created by Polarisation alias
// the same buffers, and views created by AmplitudeView alias the masks
// (and, for amplitude data, the images), so value-level writes to
// shared buffers propagate. Actions therefore mutate buffer contents
// and never swap handles.
type TimeFrequencyData struct {
	kind     DataKind
	polCount int
	images   []*Image
	masks    []*Mask
}

// NewAmplitudeData wraps a single-polarization amplitude image with a
// global mask.
func NewAmplitudeData(img *Image, mask *Mask) *TimeFrequencyData {
	return &TimeFrequencyData{
		kind:     AmplitudeKind,
		polCount: 1,
		images:   []*Image{img},
		masks:    []*Mask{mask},
	}
}

// NewComplexData wraps a single-polarization real/imaginary pair with a
// global mask.
func NewComplexData(real, imag *Image, mask *Mask) *TimeFrequencyData {
	return &TimeFrequencyData{
		kind:     ComplexKind,
		polCount: 1,
		images:   []*Image{real, imag},
		masks:    []*Mask{mask},
	}
}

// NewPolarisedData wraps interleaved real/imaginary images for 2 or 4
// polarizations (real0, imag0, real1, imag1, ...) with one mask per
// polarization.
func NewPolarisedData(images []*Image, masks []*Mask) (*TimeFrequencyData, error) {
	polCount := len(images) / 2
	if polCount != 2 && polCount != 4 || len(images)%2 != 0 {
		return nil, fmt.Errorf("polarised data needs 4 or 8 images, got %d", len(images))
	}
	if len(masks) != polCount {
		return nil, fmt.Errorf("polarised data needs %d masks, got %d", polCount, len(masks))
	}
	return &TimeFrequencyData{
		kind:     ComplexKind,
		polCount: polCount,
		images:   images,
		masks:    masks,
	}, nil
}

// Kind returns the image layout per polarization.
func (d *TimeFrequencyData) Kind() DataKind { return d.kind }

// PolarisationCount returns the number of polarizations (1, 2 or 4).
func (d *TimeFrequencyData) PolarisationCount() int { return d.polCount }

// ImageCount returns the number of image handles.
func (d *TimeFrequencyData) ImageCount() int { return len(d.images) }

// Image returns the i-th image handle.
func (d *TimeFrequencyData) Image(i int) *Image { return d.images[i] }

// MaskCount returns the number of mask handles.
func (d *TimeFrequencyData) MaskCount() int { return len(d.masks) }

// Mask returns the i-th mask handle.
func (d *TimeFrequencyData) Mask(i int) *Mask { return d.masks[i] }

// Width returns the number of time samples.
func (d *TimeFrequencyData) Width() int { return d.images[0].Width() }

// Height returns the number of frequency channels.
func (d *TimeFrequencyData) Height() int { return d.images[0].Height() }

// SingleImage returns the one image of an amplitude bundle. It panics
// on complex bundles; callers route those through AmplitudeView first.
func (d *TimeFrequencyData) SingleImage() *Image {
	if d.kind != AmplitudeKind || d.polCount != 1 {
		panic("rfi: SingleImage on non-amplitude data")
	}
	return d.images[0]
}

// SingleMask returns a mask combining all flags of the bundle. With one
// mask the handle itself is returned; with per-polarization masks a
// fresh OR-combination is returned.
func (d *TimeFrequencyData) SingleMask() *Mask {
	if len(d.masks) == 1 {
		return d.masks[0]
	}
	combined := d.masks[0].Copy()
	for _, m := range d.masks[1:] {
		combined.Or(m)
	}
	return combined
}

// SetMaskValues overwrites the flags of every mask handle with those of
// src, leaving handle aliasing intact.
func (d *TimeFrequencyData) SetMaskValues(src *Mask) {
	for _, m := range d.masks {
		if m != src {
			m.CopyFrom(src)
		}
	}
}

// ClearMasks sets every flag of every mask handle to false.
func (d *TimeFrequencyData) ClearMasks() {
	for _, m := range d.masks {
		m.SetAll(false)
	}
}

// EqualiseMasks ORs the flags of all polarization masks together and
// writes the combination back into each, so all polarizations carry
// identical flags.
func (d *TimeFrequencyData) EqualiseMasks() {
	if len(d.masks) <= 1 {
		return
	}
	combined := d.masks[0].Copy()
	for _, m := range d.masks[1:] {
		combined.Or(m)
	}
	d.SetMaskValues(combined)
}

// Polarisation returns a single-polarization view sharing image and
// mask buffers with the receiver.
func (d *TimeFrequencyData) Polarisation(i int) *TimeFrequencyData {
	mask := d.masks[0]
	if len(d.masks) > 1 {
		mask = d.masks[i]
	}
	if d.kind == AmplitudeKind {
		return NewAmplitudeData(d.images[i], mask)
	}
	return NewComplexData(d.images[i*2], d.images[i*2+1], mask)
}

// AmplitudeView derives an amplitude bundle from the receiver. For
// complex data the amplitude image is computed (sqrt(re^2+im^2)) into
// fresh buffers; mask handles are shared, so flags set through the view
// persist while image writes to the view do not reach the receiver.
func (d *TimeFrequencyData) AmplitudeView() *TimeFrequencyData {
	if d.kind == AmplitudeKind {
		return &TimeFrequencyData{
			kind:     AmplitudeKind,
			polCount: d.polCount,
			images:   d.images,
			masks:    d.masks,
		}
	}
	images := make([]*Image, d.polCount)
	for p := 0; p < d.polCount; p++ {
		re := d.images[p*2]
		im := d.images[p*2+1]
		amp := NewImage(re.Width(), re.Height())
		for y := 0; y < re.Height(); y++ {
			for x := 0; x < re.Width(); x++ {
				r := float64(re.Value(x, y))
				i := float64(im.Value(x, y))
				amp.SetValue(x, y, float32(math.Sqrt(r*r+i*i)))
			}
		}
		images[p] = amp
	}
	return &TimeFrequencyData{
		kind:     AmplitudeKind,
		polCount: d.polCount,
		images:   images,
		masks:    d.masks,
	}
}

// CopyValuesFrom overwrites every image buffer with the corresponding
// buffer of src. The bundles must have the same layout.
func (d *TimeFrequencyData) CopyValuesFrom(src *TimeFrequencyData) {
	for i, img := range d.images {
		img.CopyFrom(src.images[i])
	}
}

// deepCopy clones the bundle with fresh image and mask buffers.
func (d *TimeFrequencyData) deepCopy() *TimeFrequencyData {
	images := make([]*Image, len(d.images))
	for i, img := range d.images {
		images[i] = img.Copy()
	}
	masks := make([]*Mask, len(d.masks))
	for i, m := range d.masks {
		masks[i] = m.Copy()
	}
	return &TimeFrequencyData{
		kind:     d.kind,
		polCount: d.polCount,
		images:   images,
		masks:    masks,
	}
}
