package rfi

import "math"

// HighPassFilter fits a smooth background to an image with a weighted
// 2-D Gaussian kernel. Masked samples carry zero weight; the residual
// of the fit is what the detectors operate on.
type HighPassFilter struct {
	// WindowWidth and WindowHeight are the kernel extents in samples;
	// both must be odd.
	WindowWidth  int
	WindowHeight int
	// KernelSigmaSqT and KernelSigmaSqF are the horizontal and vertical
	// kernel variances.
	KernelSigmaSqT float64
	KernelSigmaSqF float64
}

// kernel precomputes the separable Gaussian weights for the window.
func (f *HighPassFilter) kernel() (wt, wf []float64) {
	halfW := f.WindowWidth / 2
	halfH := f.WindowHeight / 2
	wt = make([]float64, 2*halfW+1)
	wf = make([]float64, 2*halfH+1)
	for dx := -halfW; dx <= halfW; dx++ {
		wt[dx+halfW] = math.Exp(-float64(dx*dx) / (2 * f.KernelSigmaSqT))
	}
	for dy := -halfH; dy <= halfH; dy++ {
		wf[dy+halfH] = math.Exp(-float64(dy*dy) / (2 * f.KernelSigmaSqF))
	}
	return wt, wf
}

// Background returns the fitted background of img. At each pixel the
// window is clipped at the image edges, never reflected. Pixels whose
// entire neighborhood is masked take the mean of the unmasked image, or
// 0 when everything is masked.
func (f *HighPassFilter) Background(img *Image, mask *Mask) *Image {
	wt, wf := f.kernel()
	halfW := f.WindowWidth / 2
	halfH := f.WindowHeight / 2
	width := img.Width()
	height := img.Height()
	out := NewImage(width, height)

	surroundingMean := -1.0
	localMean := func() float64 {
		if surroundingMean < 0 {
			var sum float64
			count := 0
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					if !mask.Value(x, y) {
						sum += float64(img.Value(x, y))
						count++
					}
				}
			}
			if count == 0 {
				surroundingMean = 0
			} else {
				surroundingMean = sum / float64(count)
			}
		}
		return surroundingMean
	}

	for y := 0; y < height; y++ {
		yBegin := y - halfH
		if yBegin < 0 {
			yBegin = 0
		}
		yEnd := y + halfH
		if yEnd >= height {
			yEnd = height - 1
		}
		for x := 0; x < width; x++ {
			xBegin := x - halfW
			if xBegin < 0 {
				xBegin = 0
			}
			xEnd := x + halfW
			if xEnd >= width {
				xEnd = width - 1
			}
			var weighted, norm float64
			for wy := yBegin; wy <= yEnd; wy++ {
				kf := wf[wy-y+halfH]
				for wx := xBegin; wx <= xEnd; wx++ {
					if mask.Value(wx, wy) {
						continue
					}
					w := kf * wt[wx-x+halfW]
					weighted += w * float64(img.Value(wx, wy))
					norm += w
				}
			}
			if norm > 0 {
				out.SetValue(x, y, float32(weighted/norm))
			} else {
				out.SetValue(x, y, float32(localMean()))
			}
		}
	}
	return out
}
