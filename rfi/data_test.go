package rfi

import (
	"math"
	"testing"
)

func makeComplexPair(width, height int, re, im float32) (*Image, *Image) {
	r := NewImageValue(width, height, re)
	i := NewImageValue(width, height, im)
	return r, i
}

func TestAmplitudeViewComputesMagnitude(t *testing.T) {
	re, im := makeComplexPair(8, 4, 3, 4)
	data := NewComplexData(re, im, NewMask(8, 4))
	view := data.AmplitudeView()
	if view.ImageCount() != 1 {
		t.Fatalf("amplitude view has %d images, want 1", view.ImageCount())
	}
	if got := view.Image(0).Value(2, 2); math.Abs(float64(got)-5) > 1e-6 {
		t.Errorf("amplitude = %v, want 5", got)
	}
}

func TestAmplitudeViewSharesMask(t *testing.T) {
	re, im := makeComplexPair(8, 4, 1, 0)
	mask := NewMask(8, 4)
	data := NewComplexData(re, im, mask)
	view := data.AmplitudeView()

	view.Mask(0).SetValue(3, 1, true)
	if !mask.Value(3, 1) {
		t.Error("flag set through the amplitude view did not reach the source mask")
	}
	// Image writes to the derived view stay in the view.
	view.Image(0).SetValue(0, 0, 99)
	if re.Value(0, 0) != 1 {
		t.Error("image write through the amplitude view leaked into the source")
	}
}

func TestPolarisationViewAliasesBuffers(t *testing.T) {
	images := make([]*Image, 4)
	for i := range images {
		images[i] = NewImageValue(6, 3, float32(i))
	}
	masks := []*Mask{NewMask(6, 3), NewMask(6, 3)}
	data, err := NewPolarisedData(images, masks)
	if err != nil {
		t.Fatal(err)
	}
	if data.PolarisationCount() != 2 {
		t.Fatalf("polarisation count = %d, want 2", data.PolarisationCount())
	}

	pol1 := data.Polarisation(1)
	pol1.Image(0).SetValue(0, 0, 42)
	if images[2].Value(0, 0) != 42 {
		t.Error("write through polarisation view did not reach source image")
	}
	pol1.Mask(0).SetValue(1, 1, true)
	if !masks[1].Value(1, 1) {
		t.Error("flag through polarisation view did not reach source mask")
	}
}

func TestSingleMaskCombinesPolarisations(t *testing.T) {
	images := make([]*Image, 4)
	for i := range images {
		images[i] = NewImage(4, 4)
	}
	masks := []*Mask{NewMask(4, 4), NewMask(4, 4)}
	masks[0].SetValue(0, 0, true)
	masks[1].SetValue(3, 3, true)
	data, err := NewPolarisedData(images, masks)
	if err != nil {
		t.Fatal(err)
	}
	combined := data.SingleMask()
	if !combined.Value(0, 0) || !combined.Value(3, 3) {
		t.Error("combined mask misses polarisation flags")
	}
	if combined.Count() != 2 {
		t.Errorf("combined count = %d, want 2", combined.Count())
	}
}

func TestEqualiseMasks(t *testing.T) {
	images := make([]*Image, 4)
	for i := range images {
		images[i] = NewImage(4, 4)
	}
	masks := []*Mask{NewMask(4, 4), NewMask(4, 4)}
	masks[0].SetValue(1, 1, true)
	masks[1].SetValue(2, 2, true)
	data, err := NewPolarisedData(images, masks)
	if err != nil {
		t.Fatal(err)
	}
	data.EqualiseMasks()
	for i := 0; i < 2; i++ {
		if !data.Mask(i).Value(1, 1) || !data.Mask(i).Value(2, 2) {
			t.Errorf("mask %d not equalised", i)
		}
	}
}

func TestNewPolarisedDataValidation(t *testing.T) {
	images := []*Image{NewImage(2, 2), NewImage(2, 2), NewImage(2, 2)}
	if _, err := NewPolarisedData(images, []*Mask{NewMask(2, 2)}); err == nil {
		t.Error("3 images accepted")
	}
	four := []*Image{NewImage(2, 2), NewImage(2, 2), NewImage(2, 2), NewImage(2, 2)}
	if _, err := NewPolarisedData(four, []*Mask{NewMask(2, 2)}); err == nil {
		t.Error("wrong mask count accepted")
	}
}

func TestPartViewAliases(t *testing.T) {
	re, im := makeComplexPair(4, 4, 1, 2)
	data := NewComplexData(re, im, NewMask(4, 4))
	reView := partView(data, 0)
	imView := partView(data, 1)
	reView.Image(0).SetValue(0, 0, 10)
	imView.Image(0).SetValue(0, 0, 20)
	if re.Value(0, 0) != 10 || im.Value(0, 0) != 20 {
		t.Error("part views do not alias the complex images")
	}
}

func TestPhaseViewValues(t *testing.T) {
	re, im := makeComplexPair(2, 2, 0, 1)
	data := NewComplexData(re, im, NewMask(2, 2))
	view := phaseView(data)
	if got := float64(view.Image(0).Value(0, 0)); math.Abs(got-math.Pi/2) > 1e-6 {
		t.Errorf("phase = %v, want pi/2", got)
	}
}
