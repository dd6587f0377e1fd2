package rfi

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// winsorizedFraction is the fraction clipped off each tail before the
// mean and standard deviation are computed.
const winsorizedFraction = 0.1

// MinValue returns the smallest pixel value over samples where the mask
// is false, or 0 when every sample is masked.
func MinValue(img *Image, mask *Mask) float32 {
	found := false
	var min float32
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if mask.Value(x, y) {
				continue
			}
			v := img.Value(x, y)
			if !found || v < min {
				min = v
				found = true
			}
		}
	}
	if !found {
		return 0
	}
	return min
}

// MaxValue returns the largest pixel value over samples where the mask
// is false, or 0 when every sample is masked.
func MaxValue(img *Image, mask *Mask) float32 {
	found := false
	var max float32
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if mask.Value(x, y) {
				continue
			}
			v := img.Value(x, y)
			if !found || v > max {
				max = v
				found = true
			}
		}
	}
	if !found {
		return 0
	}
	return max
}

// WinsorizedMeanAndStdDev computes the mean and population standard
// deviation of the unmasked samples after clipping both tails at the
// 10th/90th percentile values. An empty sample yields (0, 0).
func WinsorizedMeanAndStdDev(img *Image, mask *Mask) (mean, stddev float64) {
	values := make([]float64, 0, img.Width()*img.Height())
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if !mask.Value(x, y) {
				values = append(values, float64(img.Value(x, y)))
			}
		}
	}
	return winsorizedMoments(values)
}

// winsorizedMoments clips the lower and upper winsorizedFraction of the
// sorted sample to the respective percentile boundary value, then
// returns the mean and population standard deviation. The input slice
// is sorted in place.
func winsorizedMoments(values []float64) (mean, stddev float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	sort.Float64s(values)
	tail := int(winsorizedFraction * float64(n))
	low := values[tail]
	high := values[n-1-tail]
	for i := 0; i < tail; i++ {
		values[i] = low
	}
	for i := n - tail; i < n; i++ {
		values[i] = high
	}
	mean = stat.Mean(values, nil)
	stddev = stat.PopStdDev(values, nil)
	return mean, stddev
}

// columnMeans returns, for each column, the mean of the unmasked
// samples; fully masked columns yield 0.
func columnMeans(img *Image, mask *Mask) []float64 {
	means := make([]float64, img.Width())
	for x := 0; x < img.Width(); x++ {
		var sum float64
		count := 0
		for y := 0; y < img.Height(); y++ {
			if !mask.Value(x, y) {
				sum += float64(img.Value(x, y))
				count++
			}
		}
		if count > 0 {
			means[x] = sum / float64(count)
		}
	}
	return means
}

// rowMeans returns, for each row, the mean of the unmasked samples;
// fully masked rows yield 0.
func rowMeans(img *Image, mask *Mask) []float64 {
	means := make([]float64, img.Height())
	for y := 0; y < img.Height(); y++ {
		var sum float64
		count := 0
		for x := 0; x < img.Width(); x++ {
			if !mask.Value(x, y) {
				sum += float64(img.Value(x, y))
				count++
			}
		}
		if count > 0 {
			means[y] = sum / float64(count)
		}
	}
	return means
}
