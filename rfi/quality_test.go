package rfi

import (
	"testing"
)

func makeStatsInput(t *testing.T, width, height, count int) *ImageSet {
	t.Helper()
	set, err := NewImageSet(width, height, count)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestCollectCountsAndMoments(t *testing.T) {
	input := makeStatsInput(t, 4, 2, 1)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			input.Image(0).SetValue(x, y, 2)
		}
	}
	mask := NewMask(4, 2)
	mask.SetValue(0, 0, true)

	stats := MakeQualityStatistics(make([]float64, 4), []float64{100e6, 101e6}, 1)
	if err := stats.Collect(input, &FlagMask{mask: mask}); err != nil {
		t.Fatal(err)
	}
	ch := stats.Channels(0)
	if ch[0].Count != 4 || ch[0].RFICount != 1 {
		t.Errorf("channel 0 counts = %d/%d, want 4/1", ch[0].Count, ch[0].RFICount)
	}
	if ch[0].Sum != 6 { // three unflagged samples of 2
		t.Errorf("channel 0 sum = %v, want 6", ch[0].Sum)
	}
	if ch[0].SumSquared != 12 {
		t.Errorf("channel 0 sumsq = %v, want 12", ch[0].SumSquared)
	}
	if ch[1].RFICount != 0 || ch[1].Sum != 8 {
		t.Errorf("channel 1 = %+v", ch[1])
	}
}

func TestCollectPolarizationMismatch(t *testing.T) {
	input := makeStatsInput(t, 4, 4, 4) // two polarizations
	stats := MakeQualityStatistics(make([]float64, 4), make([]float64, 4), 1)
	mask := NewMask(4, 4)
	if err := stats.Collect(input, &FlagMask{mask: mask}); err == nil {
		t.Error("polarization mismatch accepted")
	}
}

func TestMergeAddsCounts(t *testing.T) {
	a := MakeQualityStatistics(make([]float64, 2), make([]float64, 3), 1)
	b := MakeQualityStatistics(make([]float64, 2), make([]float64, 3), 1)
	input := makeStatsInput(t, 2, 3, 1)
	mask := NewMask(2, 3)
	if err := a.Collect(input, &FlagMask{mask: mask}); err != nil {
		t.Fatal(err)
	}
	if err := b.Collect(input, &FlagMask{mask: mask}); err != nil {
		t.Fatal(err)
	}
	a.Merge(b)
	if a.Channels(0)[0].Count != 4 { // 2 samples per collect per channel
		t.Errorf("merged count = %d, want 4", a.Channels(0)[0].Count)
	}
	if b.Channels(0)[0].Count != 2 {
		t.Errorf("merge mutated the source: count = %d, want 2", b.Channels(0)[0].Count)
	}
}

func TestChannelStatisticMean(t *testing.T) {
	c := ChannelStatistic{Count: 4, Sum: 10}
	if c.Mean() != 2.5 {
		t.Errorf("mean = %v, want 2.5", c.Mean())
	}
	empty := ChannelStatistic{}
	if empty.Mean() != 0 {
		t.Errorf("empty mean = %v, want 0", empty.Mean())
	}
}
