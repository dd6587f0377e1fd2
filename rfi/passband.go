package rfi

import "sort"

// passbandFilterWidth is the median-filter width (in channels) used to
// smooth the per-channel level estimate. Must be odd.
const passbandFilterWidth = 21

// CalibratePassband flattens the instrumental passband: each channel is
// divided by a smoothed estimate of its level so that a strongly
// frequency-dependent gain does not defeat the channel-direction
// detector. The level per channel is the median absolute unmasked
// value, smoothed with a median filter across channels. Channels whose
// smoothed level is not positive are left untouched.
func CalibratePassband(img *Image, mask *Mask) {
	height := img.Height()
	levels := make([]float64, height)
	for y := 0; y < height; y++ {
		levels[y] = channelMedian(img, mask, y)
	}
	smoothed := medianFilter(levels, passbandFilterWidth)
	for y := 0; y < height; y++ {
		gain := smoothed[y]
		if gain <= 0 {
			continue
		}
		for x := 0; x < img.Width(); x++ {
			img.SetValue(x, y, img.Value(x, y)/float32(gain))
		}
	}
}

// channelMedian returns the median absolute unmasked value of row y, or
// 0 when the row is fully masked.
func channelMedian(img *Image, mask *Mask, y int) float64 {
	values := make([]float64, 0, img.Width())
	for x := 0; x < img.Width(); x++ {
		if !mask.Value(x, y) {
			v := float64(img.Value(x, y))
			if v < 0 {
				v = -v
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}

// medianFilter applies a 1-D median filter with the window clipped at
// the boundaries rather than zero-padded, so edge channels are smoothed
// over the samples that exist.
func medianFilter(data []float64, width int) []float64 {
	n := len(data)
	out := make([]float64, n)
	half := width / 2
	window := make([]float64, 0, width)
	for i := 0; i < n; i++ {
		begin := i - half
		if begin < 0 {
			begin = 0
		}
		end := i + half
		if end >= n {
			end = n - 1
		}
		window = window[:0]
		window = append(window, data[begin:end+1]...)
		sort.Float64s(window)
		mid := len(window) / 2
		if len(window)%2 == 0 {
			out[i] = (window[mid-1] + window[mid]) / 2
		} else {
			out[i] = window[mid]
		}
	}
	return out
}
