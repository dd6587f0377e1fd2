package rfi

// Mask is a width x height grid of booleans with the same shape and
// stride model as Image. true means the sample is flagged as
// contaminated. Copying a Mask copies the handle; use Copy for a deep
// copy.
type Mask struct {
	width  int
	height int
	stride int
	data   []bool
}

// NewMask creates an all-false mask.
func NewMask(width, height int) *Mask {
	stride := alignedStride(width)
	return &Mask{
		width:  width,
		height: height,
		stride: stride,
		data:   make([]bool, stride*height),
	}
}

// Width returns the number of time samples per row.
func (m *Mask) Width() int { return m.width }

// Height returns the number of frequency channels.
func (m *Mask) Height() int { return m.height }

// Stride returns the number of booleans per row, >= Width.
func (m *Mask) Stride() int { return m.stride }

// Buffer exposes the backing flag buffer, including row padding.
func (m *Mask) Buffer() []bool { return m.data }

// Value returns the flag at column x, row y.
func (m *Mask) Value(x, y int) bool {
	return m.data[y*m.stride+x]
}

// SetValue writes the flag at column x, row y.
func (m *Mask) SetValue(x, y int, v bool) {
	m.data[y*m.stride+x] = v
}

// Copy returns a deep copy sharing no storage with the receiver.
func (m *Mask) Copy() *Mask {
	out := &Mask{
		width:  m.width,
		height: m.height,
		stride: m.stride,
		data:   make([]bool, len(m.data)),
	}
	copy(out.data, m.data)
	return out
}

// CopyFrom overwrites the receiver's flags with those of src. Shapes
// must match; strides may differ.
func (m *Mask) CopyFrom(src *Mask) {
	for y := 0; y < m.height; y++ {
		copy(m.data[y*m.stride:y*m.stride+m.width],
			src.data[y*src.stride:y*src.stride+m.width])
	}
}

// SetAll sets every flag to v.
func (m *Mask) SetAll(v bool) {
	for y := 0; y < m.height; y++ {
		row := m.data[y*m.stride : y*m.stride+m.width]
		for x := range row {
			row[x] = v
		}
	}
}

// Or sets every flag that is set in other.
func (m *Mask) Or(other *Mask) {
	for y := 0; y < m.height; y++ {
		row := m.data[y*m.stride : y*m.stride+m.width]
		src := other.data[y*other.stride : y*other.stride+m.width]
		for x := range row {
			row[x] = row[x] || src[x]
		}
	}
}

// Count returns the number of flagged samples.
func (m *Mask) Count() int {
	n := 0
	for y := 0; y < m.height; y++ {
		row := m.data[y*m.stride : y*m.stride+m.width]
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// Equal reports whether two masks have identical shape and flags.
// Stride differences are ignored.
func (m *Mask) Equal(other *Mask) bool {
	if m.width != other.width || m.height != other.height {
		return false
	}
	for y := 0; y < m.height; y++ {
		a := m.data[y*m.stride : y*m.stride+m.width]
		b := other.data[y*other.stride : y*other.stride+m.width]
		for x := range a {
			if a[x] != b[x] {
				return false
			}
		}
	}
	return true
}

// IsSupersetOf reports whether every flag set in other is also set in
// the receiver.
func (m *Mask) IsSupersetOf(other *Mask) bool {
	for y := 0; y < m.height; y++ {
		a := m.data[y*m.stride : y*m.stride+m.width]
		b := other.data[y*other.stride : y*other.stride+m.width]
		for x := range b {
			if b[x] && !a[x] {
				return false
			}
		}
	}
	return true
}

// ShrinkHorizontallyForAveraging downsamples columns by an integer
// factor. An output flag is set only when all covered input flags are
// set, so a downsampled pixel keeps unmasked contributions whenever it
// has any.
func (m *Mask) ShrinkHorizontallyForAveraging(factor int) *Mask {
	if factor <= 1 {
		return m.Copy()
	}
	newWidth := (m.width + factor - 1) / factor
	out := NewMask(newWidth, m.height)
	for y := 0; y < m.height; y++ {
		src := m.data[y*m.stride:]
		dst := out.data[y*out.stride:]
		for x := 0; x < newWidth; x++ {
			begin := x * factor
			end := begin + factor
			if end > m.width {
				end = m.width
			}
			all := true
			for i := begin; i < end; i++ {
				if !src[i] {
					all = false
					break
				}
			}
			dst[x] = all
		}
	}
	return out
}

// ShrinkVerticallyForAveraging downsamples rows by an integer factor;
// an output flag is set only when all covered input flags are set.
func (m *Mask) ShrinkVerticallyForAveraging(factor int) *Mask {
	if factor <= 1 {
		return m.Copy()
	}
	newHeight := (m.height + factor - 1) / factor
	out := NewMask(m.width, newHeight)
	for y := 0; y < newHeight; y++ {
		begin := y * factor
		end := begin + factor
		if end > m.height {
			end = m.height
		}
		dst := out.data[y*out.stride:]
		for x := 0; x < m.width; x++ {
			all := true
			for i := begin; i < end; i++ {
				if !m.data[i*m.stride+x] {
					all = false
					break
				}
			}
			dst[x] = all
		}
	}
	return out
}
