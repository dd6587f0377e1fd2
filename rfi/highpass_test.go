package rfi

import (
	"math"
	"testing"
)

func defaultTestFilter() *HighPassFilter {
	return &HighPassFilter{
		WindowWidth:    21,
		WindowHeight:   31,
		KernelSigmaSqT: 2.5,
		KernelSigmaSqF: 5.0,
	}
}

func TestBackgroundOfConstantImage(t *testing.T) {
	img := NewImageValue(40, 40, 3.5)
	mask := NewMask(40, 40)
	bg := defaultTestFilter().Background(img, mask)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if math.Abs(float64(bg.Value(x, y))-3.5) > 1e-5 {
				t.Fatalf("background[%d,%d] = %v, want 3.5", x, y, bg.Value(x, y))
			}
		}
	}
}

func TestBackgroundExcludesMaskedSpike(t *testing.T) {
	img := NewImage(40, 40)
	img.SetValue(20, 20, 10000)
	mask := NewMask(40, 40)
	mask.SetValue(20, 20, true)
	bg := defaultTestFilter().Background(img, mask)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if bg.Value(x, y) != 0 {
				t.Fatalf("background[%d,%d] = %v, want 0 with spike masked", x, y, bg.Value(x, y))
			}
		}
	}
}

func TestBackgroundUnmaskedSpikeSpreads(t *testing.T) {
	img := NewImage(40, 40)
	img.SetValue(20, 20, 1000)
	mask := NewMask(40, 40)
	bg := defaultTestFilter().Background(img, mask)
	if bg.Value(20, 20) <= 0 {
		t.Error("background at spike should be positive")
	}
	if bg.Value(19, 20) <= 0 {
		t.Error("background next to spike should be positive")
	}
	if bg.Value(20, 20) >= 1000 {
		t.Error("background should be a smoothed, smaller value than the spike")
	}
	if bg.Value(19, 20) >= bg.Value(20, 20) {
		t.Error("background should decay away from the spike")
	}
}

func TestBackgroundEdgesClipWindow(t *testing.T) {
	// A constant image stays constant at the corners too: the clipped
	// window renormalizes instead of reflecting.
	img := NewImageValue(10, 10, 2)
	mask := NewMask(10, 10)
	bg := defaultTestFilter().Background(img, mask)
	if math.Abs(float64(bg.Value(0, 0))-2) > 1e-5 {
		t.Errorf("corner background = %v, want 2", bg.Value(0, 0))
	}
	if math.Abs(float64(bg.Value(9, 9))-2) > 1e-5 {
		t.Errorf("corner background = %v, want 2", bg.Value(9, 9))
	}
}

func TestBackgroundFullyMaskedNeighborhood(t *testing.T) {
	// With the whole image masked the local mean fallback yields 0.
	img := NewImageValue(8, 8, 5)
	mask := NewMask(8, 8)
	mask.SetAll(true)
	bg := defaultTestFilter().Background(img, mask)
	if bg.Value(4, 4) != 0 {
		t.Errorf("background of fully masked image = %v, want 0", bg.Value(4, 4))
	}
}

func TestBackgroundMostlyMaskedTakesLocalMean(t *testing.T) {
	// Mask a band wider than the window; pixels inside it take the
	// mean of the remaining unmasked samples.
	img := NewImageValue(100, 51, 4)
	mask := NewMask(100, 51)
	for y := 0; y < 51; y++ {
		for x := 20; x < 80; x++ {
			mask.SetValue(x, y, true)
		}
	}
	filter := &HighPassFilter{
		WindowWidth:    5,
		WindowHeight:   5,
		KernelSigmaSqT: 2.5,
		KernelSigmaSqF: 5.0,
	}
	bg := filter.Background(img, mask)
	if math.Abs(float64(bg.Value(50, 25))-4) > 1e-5 {
		t.Errorf("mid-band background = %v, want the surrounding mean 4", bg.Value(50, 25))
	}
}
