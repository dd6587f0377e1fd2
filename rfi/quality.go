package rfi

import (
	"fmt"
	"math"
	"sync"
)

// ChannelStatistic aggregates per-channel sample statistics for one
// polarization: how many samples were seen, how many carried RFI
// flags, and the first two moments of the amplitudes.
type ChannelStatistic struct {
	Frequency  float64
	Count      int64
	RFICount   int64
	Sum        float64
	SumSquared float64
}

// Mean returns the mean amplitude of the counted samples.
func (c *ChannelStatistic) Mean() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.Sum / float64(c.Count)
}

// QualityStatistics collects per-channel, per-polarization statistics
// during flagging. One instance is not safe for concurrent use; give
// each worker its own and combine them with Merge when done.
type QualityStatistics struct {
	scanTimes []float64
	channels  [][]ChannelStatistic // [polarization][channel]
}

// MakeQualityStatistics creates a collector for the given scan times,
// channel frequencies and polarization count.
func MakeQualityStatistics(scanTimes []float64, channelFrequencies []float64, polarizationCount int) *QualityStatistics {
	channels := make([][]ChannelStatistic, polarizationCount)
	for p := range channels {
		channels[p] = make([]ChannelStatistic, len(channelFrequencies))
		for c := range channels[p] {
			channels[p][c].Frequency = channelFrequencies[c]
		}
	}
	return &QualityStatistics{
		scanTimes: append([]float64(nil), scanTimes...),
		channels:  channels,
	}
}

// PolarizationCount returns the number of polarizations collected.
func (q *QualityStatistics) PolarizationCount() int { return len(q.channels) }

// Channels returns the statistics of one polarization.
func (q *QualityStatistics) Channels(polarization int) []ChannelStatistic {
	return q.channels[polarization]
}

// Collect adds one baseline's data to the statistics. The flag mask
// marks RFI; flagged samples contribute to RFICount and are excluded
// from the moments.
func (q *QualityStatistics) Collect(input *ImageSet, flags *FlagMask) error {
	polCount := 1
	if input.ImageCount() > 1 {
		polCount = input.ImageCount() / 2
	}
	if polCount != len(q.channels) {
		return &ConfigError{Reason: fmt.Sprintf(
			"statistics were initialized for %d polarizations, image set has %d",
			len(q.channels), polCount)}
	}
	height := input.Height()
	if height > len(q.channels[0]) {
		return &ConfigError{Reason: fmt.Sprintf(
			"statistics were initialized for %d channels, image set has %d",
			len(q.channels[0]), height)}
	}
	for p := 0; p < polCount; p++ {
		stats := q.channels[p]
		for y := 0; y < height; y++ {
			for x := 0; x < input.Width(); x++ {
				amp := sampleAmplitude(input, p, x, y)
				stats[y].Count++
				if flags.Value(x, y) {
					stats[y].RFICount++
					continue
				}
				stats[y].Sum += amp
				stats[y].SumSquared += amp * amp
			}
		}
	}
	return nil
}

// sampleAmplitude returns the amplitude of one sample for the given
// polarization, handling the amplitude-only single-image layout.
func sampleAmplitude(input *ImageSet, polarization, x, y int) float64 {
	if input.ImageCount() == 1 {
		return float64(input.Image(0).Value(x, y))
	}
	re := float64(input.Image(polarization * 2).Value(x, y))
	im := float64(input.Image(polarization*2 + 1).Value(x, y))
	return math.Sqrt(re*re + im*im)
}

// Merge combines other into the receiver. This is the one cross-thread
// write path on statistics; the caller serializes it. The receiver
// keeps its own meta data.
func (q *QualityStatistics) Merge(other *QualityStatistics) {
	for p := 0; p < len(q.channels) && p < len(other.channels); p++ {
		dst := q.channels[p]
		src := other.channels[p]
		for c := 0; c < len(dst) && c < len(src); c++ {
			dst[c].Count += src[c].Count
			dst[c].RFICount += src[c].RFICount
			dst[c].Sum += src[c].Sum
			dst[c].SumSquared += src[c].SumSquared
		}
	}
}

// SynchronizedStatistics wraps QualityStatistics for concurrent
// collectors that prefer one shared instance over per-worker merge.
type SynchronizedStatistics struct {
	mu    sync.Mutex
	stats *QualityStatistics
}

// NewSynchronizedStatistics wraps stats.
func NewSynchronizedStatistics(stats *QualityStatistics) *SynchronizedStatistics {
	return &SynchronizedStatistics{stats: stats}
}

// Collect adds a baseline under the lock.
func (s *SynchronizedStatistics) Collect(input *ImageSet, flags *FlagMask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Collect(input, flags)
}

// Statistics returns the wrapped collector; do not use it while
// collectors are still running.
func (s *SynchronizedStatistics) Statistics() *QualityStatistics {
	return s.stats
}
