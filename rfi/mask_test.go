package rfi

import "testing"

func TestMaskOrAndCount(t *testing.T) {
	a := NewMask(4, 4)
	b := NewMask(4, 4)
	a.SetValue(0, 0, true)
	b.SetValue(3, 3, true)
	b.SetValue(0, 0, true)

	a.Or(b)
	if a.Count() != 2 {
		t.Errorf("count after Or = %d, want 2", a.Count())
	}
	if !a.Value(3, 3) {
		t.Error("Or did not set (3,3)")
	}
}

func TestMaskSupersetAndEqual(t *testing.T) {
	a := NewMask(4, 2)
	b := NewMask(4, 2)
	a.SetValue(1, 1, true)

	if !a.IsSupersetOf(b) {
		t.Error("mask with one flag should be superset of empty mask")
	}
	if b.IsSupersetOf(a) {
		t.Error("empty mask should not be superset of flagged mask")
	}
	if a.Equal(b) {
		t.Error("differing masks reported equal")
	}
	b.SetValue(1, 1, true)
	if !a.Equal(b) {
		t.Error("equal masks reported different")
	}
}

func TestMaskSetAll(t *testing.T) {
	m := NewMask(5, 3)
	m.SetAll(true)
	if m.Count() != 15 {
		t.Errorf("count = %d, want 15", m.Count())
	}
	m.SetAll(false)
	if m.Count() != 0 {
		t.Errorf("count = %d, want 0", m.Count())
	}
}

func TestMaskShrinkForAveraging(t *testing.T) {
	m := NewMask(6, 1)
	// First window fully flagged, second partially.
	m.SetValue(0, 0, true)
	m.SetValue(1, 0, true)
	m.SetValue(2, 0, true)
	m.SetValue(3, 0, true)

	small := m.ShrinkHorizontallyForAveraging(3)
	if !small.Value(0, 0) {
		t.Error("fully flagged window should shrink to flagged")
	}
	if small.Value(1, 0) {
		t.Error("partially flagged window should shrink to unflagged")
	}
}

func TestMaskCopyFromDifferentStride(t *testing.T) {
	// Same shape, different strides: CopyFrom must only rely on width,
	// not stride.
	src := NewMask(4, 2)
	src.SetValue(2, 1, true)
	dst := &Mask{width: 4, height: 2, stride: 16, data: make([]bool, 16*2)}
	dst.CopyFrom(src)
	if !dst.Equal(src) {
		t.Error("CopyFrom did not reproduce flags")
	}
}
