package rfi

// selectionSigmas is the number of winsorized standard deviations a
// per-column or per-row mean must exceed the winsorized mean of all
// such means before the whole column or row is rejected.
const selectionSigmas = 3.0

// TimeSelectionFlag rejects whole time samples: every column whose mean
// unmasked value exceeds the winsorized mean plus selectionSigmas times
// the winsorized stddev of all column means is flagged in full.
func TimeSelectionFlag(img *Image, mask *Mask) {
	means := columnMeans(img, mask)
	limit := selectionLimit(means)
	for x, m := range means {
		if m > limit {
			for y := 0; y < mask.Height(); y++ {
				mask.SetValue(x, y, true)
			}
		}
	}
}

// FrequencySelectionFlag rejects whole channels: every row whose mean
// unmasked value exceeds the winsorized mean plus selectionSigmas times
// the winsorized stddev of all row means is flagged in full.
func FrequencySelectionFlag(img *Image, mask *Mask) {
	means := rowMeans(img, mask)
	limit := selectionLimit(means)
	for y, m := range means {
		if m > limit {
			for x := 0; x < mask.Width(); x++ {
				mask.SetValue(x, y, true)
			}
		}
	}
}

// selectionLimit computes the rejection boundary from a set of strip
// means. The means slice is left unchanged; a copy is sorted.
func selectionLimit(means []float64) float64 {
	work := make([]float64, len(means))
	copy(work, means)
	mean, stddev := winsorizedMoments(work)
	return mean + selectionSigmas*stddev
}
