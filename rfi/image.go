package rfi

// vectorWidth is the number of float32 values per alignment unit. Row
// strides are rounded up to a multiple of this so rows stay
// vector-aligned regardless of image width.
const vectorWidth = 8

// alignedStride returns the smallest multiple of vectorWidth >= width.
func alignedStride(width int) int {
	if width <= 0 {
		return 0
	}
	return (width + vectorWidth - 1) / vectorWidth * vectorWidth
}

// Image is a width x height grid of float32 values in row-major order
// with a per-row stride >= width. Copying an Image copies the handle
// only; both handles alias the same pixel buffer. Use Copy for a deep
// copy.
type Image struct {
	width  int
	height int
	stride int
	data   []float32
}

// NewImage creates a zero-initialized image.
func NewImage(width, height int) *Image {
	stride := alignedStride(width)
	return &Image{
		width:  width,
		height: height,
		stride: stride,
		data:   make([]float32, stride*height),
	}
}

// NewImageValue creates an image with every pixel set to value.
func NewImageValue(width, height int, value float32) *Image {
	img := NewImage(width, height)
	for i := range img.data {
		img.data[i] = value
	}
	return img
}

// Width returns the number of time samples per row.
func (img *Image) Width() int { return img.width }

// Height returns the number of frequency channels.
func (img *Image) Height() int { return img.height }

// Stride returns the number of float32 values per row, >= Width.
func (img *Image) Stride() int { return img.stride }

// Buffer exposes the backing pixel buffer, including row padding.
func (img *Image) Buffer() []float32 { return img.data }

// Value returns the pixel at column x, row y.
func (img *Image) Value(x, y int) float32 {
	return img.data[y*img.stride+x]
}

// SetValue writes the pixel at column x, row y.
func (img *Image) SetValue(x, y int, v float32) {
	img.data[y*img.stride+x] = v
}

// Copy returns a deep copy sharing no storage with the receiver.
func (img *Image) Copy() *Image {
	out := &Image{
		width:  img.width,
		height: img.height,
		stride: img.stride,
		data:   make([]float32, len(img.data)),
	}
	copy(out.data, img.data)
	return out
}

// CopyFrom overwrites the receiver's pixels with those of src. The two
// images must have the same width and height; strides may differ.
func (img *Image) CopyFrom(src *Image) {
	for y := 0; y < img.height; y++ {
		copy(img.data[y*img.stride:y*img.stride+img.width],
			src.data[y*src.stride:y*src.stride+img.width])
	}
}

// Subtract returns a new image holding a - b per pixel.
func Subtract(a, b *Image) *Image {
	out := NewImage(a.width, a.height)
	for y := 0; y < a.height; y++ {
		ra := a.data[y*a.stride:]
		rb := b.data[y*b.stride:]
		ro := out.data[y*out.stride:]
		for x := 0; x < a.width; x++ {
			ro[x] = ra[x] - rb[x]
		}
	}
	return out
}

// ShrinkHorizontally downsamples by an integer factor, averaging up to
// factor source columns per output column. A trailing partial window is
// averaged over the columns it actually covers.
func (img *Image) ShrinkHorizontally(factor int) *Image {
	if factor <= 1 {
		return img.Copy()
	}
	newWidth := (img.width + factor - 1) / factor
	out := NewImage(newWidth, img.height)
	for y := 0; y < img.height; y++ {
		src := img.data[y*img.stride:]
		dst := out.data[y*out.stride:]
		for x := 0; x < newWidth; x++ {
			begin := x * factor
			end := begin + factor
			if end > img.width {
				end = img.width
			}
			var sum float32
			for i := begin; i < end; i++ {
				sum += src[i]
			}
			dst[x] = sum / float32(end-begin)
		}
	}
	return out
}

// ShrinkVertically downsamples rows by an integer factor, averaging up
// to factor source rows per output row.
func (img *Image) ShrinkVertically(factor int) *Image {
	if factor <= 1 {
		return img.Copy()
	}
	newHeight := (img.height + factor - 1) / factor
	out := NewImage(img.width, newHeight)
	for y := 0; y < newHeight; y++ {
		begin := y * factor
		end := begin + factor
		if end > img.height {
			end = img.height
		}
		dst := out.data[y*out.stride:]
		for x := 0; x < img.width; x++ {
			var sum float32
			for i := begin; i < end; i++ {
				sum += img.data[i*img.stride+x]
			}
			dst[x] = sum / float32(end-begin)
		}
	}
	return out
}

// EnlargeHorizontally upsamples to newWidth by duplicating each column
// factor times (the inverse of ShrinkHorizontally's index mapping).
func (img *Image) EnlargeHorizontally(factor, newWidth int) *Image {
	if factor <= 1 {
		return img.Copy()
	}
	out := NewImage(newWidth, img.height)
	for y := 0; y < img.height; y++ {
		src := img.data[y*img.stride:]
		dst := out.data[y*out.stride:]
		for x := 0; x < newWidth; x++ {
			sx := x / factor
			if sx >= img.width {
				sx = img.width - 1
			}
			dst[x] = src[sx]
		}
	}
	return out
}

// EnlargeVertically upsamples to newHeight by duplicating each row
// factor times.
func (img *Image) EnlargeVertically(factor, newHeight int) *Image {
	if factor <= 1 {
		return img.Copy()
	}
	out := NewImage(img.width, newHeight)
	for y := 0; y < newHeight; y++ {
		sy := y / factor
		if sy >= img.height {
			sy = img.height - 1
		}
		copy(out.data[y*out.stride:y*out.stride+img.width],
			img.data[sy*img.stride:sy*img.stride+img.width])
	}
	return out
}
