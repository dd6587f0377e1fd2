package rfi

import "math"

// sumThresholdLengths are the window lengths applied in order. Each
// length sees the flags set by shorter lengths in the same direction.
var sumThresholdLengths = []int{1, 2, 4, 8, 16, 32, 64, 128, 256}

// defaultShrinkFactor shrinks the threshold per length doubling:
// the threshold for window length L is tau * shrink^(-log2 L).
const defaultShrinkFactor = 1.5

// lengthThreshold returns the threshold for window length, derived from
// the base threshold tau for single samples.
func lengthThreshold(tau float64, length int, shrink float64) float64 {
	if length <= 1 {
		return tau
	}
	return tau * math.Pow(shrink, -math.Log2(float64(length)))
}

// horizontalSumThreshold runs one window length along every row. A
// window is flagged in full when the absolute mean of its
// currently-unmasked samples exceeds the length threshold. Flags are
// collected in scratch so that all windows of this length see the same
// input mask.
func horizontalSumThreshold(img *Image, mask, scratch *Mask, length int, threshold float64) {
	width := img.Width()
	if width < length {
		return
	}
	for y := 0; y < img.Height(); y++ {
		var sum float64
		count := 0
		for x := 0; x < length-1; x++ {
			if !mask.Value(x, y) {
				sum += float64(img.Value(x, y))
				count++
			}
		}
		for x := length - 1; x < width; x++ {
			if !mask.Value(x, y) {
				sum += float64(img.Value(x, y))
				count++
			}
			if count > 0 && math.Abs(sum/float64(count)) > threshold {
				for i := x - length + 1; i <= x; i++ {
					scratch.SetValue(i, y, true)
				}
			}
			left := x - length + 1
			if !mask.Value(left, y) {
				sum -= float64(img.Value(left, y))
				count--
			}
		}
	}
}

// verticalSumThreshold runs one window length along every column.
func verticalSumThreshold(img *Image, mask, scratch *Mask, length int, threshold float64) {
	height := img.Height()
	if height < length {
		return
	}
	for x := 0; x < img.Width(); x++ {
		var sum float64
		count := 0
		for y := 0; y < length-1; y++ {
			if !mask.Value(x, y) {
				sum += float64(img.Value(x, y))
				count++
			}
		}
		for y := length - 1; y < height; y++ {
			if !mask.Value(x, y) {
				sum += float64(img.Value(x, y))
				count++
			}
			if count > 0 && math.Abs(sum/float64(count)) > threshold {
				for i := y - length + 1; i <= y; i++ {
					scratch.SetValue(x, i, true)
				}
			}
			top := y - length + 1
			if !mask.Value(x, top) {
				sum -= float64(img.Value(x, top))
				count--
			}
		}
	}
}

// sumThresholdDirection runs all window lengths in one direction,
// starting from a copy of the input mask and accumulating flags so
// longer windows see shorter windows' detections. It returns the
// resulting mask.
func sumThresholdDirection(img *Image, input *Mask, tau, shrink float64, vertical bool) *Mask {
	mask := input.Copy()
	for _, length := range sumThresholdLengths {
		threshold := lengthThreshold(tau, length, shrink)
		scratch := NewMask(mask.Width(), mask.Height())
		if vertical {
			verticalSumThreshold(img, mask, scratch, length, threshold)
		} else {
			horizontalSumThreshold(img, mask, scratch, length, threshold)
		}
		mask.Or(scratch)
	}
	return mask
}

// SumThreshold runs the multi-length detector over the image and ORs
// new detections into mask. The base threshold is
// sensitivity * winsorized stddev of the unmasked samples. The time
// direction slides along rows; the frequency direction slides along
// columns. Either direction can be disabled.
func SumThreshold(img *Image, mask *Mask, sensitivity, shrink float64, timeDirection, frequencyDirection bool) error {
	if shrink <= 0 {
		shrink = defaultShrinkFactor
	}
	_, stddev := WinsorizedMeanAndStdDev(img, mask)
	if math.IsNaN(stddev) {
		return &NumericError{Action: "sum-threshold"}
	}
	tau := sensitivity * stddev
	var timeFlags, freqFlags *Mask
	if timeDirection {
		timeFlags = sumThresholdDirection(img, mask, tau, shrink, false)
	}
	if frequencyDirection {
		freqFlags = sumThresholdDirection(img, mask, tau, shrink, true)
	}
	if timeFlags != nil {
		mask.Or(timeFlags)
	}
	if freqFlags != nil {
		mask.Or(freqFlags)
	}
	return nil
}
