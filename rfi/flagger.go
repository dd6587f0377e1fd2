package rfi

import (
	"fmt"
	"sync"
)

// ImageSet is the caller-facing buffer bundle for one baseline. It
// holds 1, 2, 4 or 8 images: amplitudes of one polarization (1), real
// and imaginary of one polarization (2), or interleaved real/imaginary
// of two (4) or four (8) polarizations. Rows are padded; use
// HorizontalStride to step between rows in the raw buffers.
type ImageSet struct {
	images []*Image
}

// validImageCount reports whether count is one of the supported image
// layouts.
func validImageCount(count int) bool {
	return count == 1 || count == 2 || count == 4 || count == 8
}

// NewImageSet creates a zero-initialized image set.
func NewImageSet(width, height, count int) (*ImageSet, error) {
	if !validImageCount(count) {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"image set count must be 1, 2, 4 or 8, got %d", count)}
	}
	images := make([]*Image, count)
	for i := range images {
		images[i] = NewImage(width, height)
	}
	return &ImageSet{images: images}, nil
}

// NewImageSetValue creates an image set with every pixel set to
// initialValue.
func NewImageSetValue(width, height, count int, initialValue float32) (*ImageSet, error) {
	set, err := NewImageSet(width, height, count)
	if err != nil {
		return nil, err
	}
	for _, img := range set.images {
		for i := range img.data {
			img.data[i] = initialValue
		}
	}
	return set, nil
}

// Width returns the number of time samples.
func (s *ImageSet) Width() int { return s.images[0].Width() }

// Height returns the number of frequency channels.
func (s *ImageSet) Height() int { return s.images[0].Height() }

// ImageCount returns the number of images in the set.
func (s *ImageSet) ImageCount() int { return len(s.images) }

// HorizontalStride returns the number of floats per row in the raw
// buffers.
func (s *ImageSet) HorizontalStride() int { return s.images[0].Stride() }

// ImageBuffer returns the raw buffer of image imageIndex, including
// row padding.
func (s *ImageSet) ImageBuffer(imageIndex int) []float32 {
	return s.images[imageIndex].Buffer()
}

// Image returns the image handle at imageIndex.
func (s *ImageSet) Image(imageIndex int) *Image { return s.images[imageIndex] }

// Clone returns a deep copy of the image set.
func (s *ImageSet) Clone() *ImageSet {
	images := make([]*Image, len(s.images))
	for i, img := range s.images {
		images[i] = img.Copy()
	}
	return &ImageSet{images: images}
}

// FlagMask is the caller-facing result mask; true marks contaminated
// samples. It follows the same stride contract as ImageSet.
type FlagMask struct {
	mask *Mask
}

// Width returns the number of time samples.
func (m *FlagMask) Width() int { return m.mask.Width() }

// Height returns the number of frequency channels.
func (m *FlagMask) Height() int { return m.mask.Height() }

// HorizontalStride returns the number of booleans per row in the raw
// buffer.
func (m *FlagMask) HorizontalStride() int { return m.mask.Stride() }

// Buffer returns the raw flag buffer, including row padding.
func (m *FlagMask) Buffer() []bool { return m.mask.Buffer() }

// Value returns the flag at column x, row y.
func (m *FlagMask) Value(x, y int) bool { return m.mask.Value(x, y) }

// Mask returns the underlying mask handle.
func (m *FlagMask) Mask() *Mask { return m.mask }

// Flagger is the main entry point. It builds buffers and strategies
// and runs strategies over image sets. Run is safe to call from
// multiple goroutines as long as each call gets its own ImageSet; side
// statistics are accumulated under an internal mutex.
type Flagger struct {
	mu    sync.Mutex
	plots PlotCollection
}

// NewFlagger creates and initializes the flagger.
func NewFlagger() *Flagger {
	return &Flagger{}
}

// MakeImageSet creates a zero-initialized ImageSet.
func (f *Flagger) MakeImageSet(width, height, count int) (*ImageSet, error) {
	return NewImageSet(width, height, count)
}

// MakeStrategy builds the default strategy for a telescope. The
// frequency and resolution hints may be zero when unknown.
func (f *Flagger) MakeStrategy(telescope TelescopeId, flags uint, frequency, timeRes, frequencyRes float64) *Strategy {
	return MakeDefaultStrategy(telescope, flags, frequency, timeRes, frequencyRes)
}

// LoadStrategy reads a strategy tree from a YAML strategy file.
func (f *Flagger) LoadStrategy(path string) (*Strategy, error) {
	return LoadStrategyFile(path)
}

// Plots returns a snapshot of the accumulated plot collection.
func (f *Flagger) Plots() PlotCollection {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := PlotCollection{
		Polarisations:     append([]PolarisationStatistic(nil), f.plots.Polarisations...),
		Baselines:         append([]BaselineRecord(nil), f.plots.Baselines...),
		ChannelFlagCounts: append([]int64(nil), f.plots.ChannelFlagCounts...),
	}
	return snapshot
}

// Run executes the strategy over the image set and returns the
// resulting flags. The strategy is not mutated and may be shared
// between concurrent calls.
func (f *Flagger) Run(strategy *Strategy, input *ImageSet) (*FlagMask, error) {
	return f.RunWithListener(strategy, input, NopListener{}, "")
}

// RunWithListener is Run with an explicit progress listener and a
// baseline identifier for side outputs. On cancellation the partial
// mask is returned together with ErrCancelled.
func (f *Flagger) RunWithListener(strategy *Strategy, input *ImageSet, listener ProgressListener, baselineID string) (*FlagMask, error) {
	artifacts, err := f.makeArtifacts(input)
	if err != nil {
		listener.OnError(err)
		return nil, err
	}
	artifacts.BaselineID = baselineID
	if err := strategy.Perform(artifacts, listener); err != nil {
		listener.OnError(err)
		mask := artifacts.Contaminated.SingleMask().Copy()
		return &FlagMask{mask: mask}, err
	}
	mask := artifacts.Contaminated.SingleMask().Copy()
	return &FlagMask{mask: mask}, nil
}

// makeArtifacts wraps the caller's buffers in an artifact set. The
// original data aliases the input images and is never written; the
// contaminated slot gets deep copies and fresh masks; the revised slot
// starts as all-zero images sharing the contaminated masks.
func (f *Flagger) makeArtifacts(input *ImageSet) (*ArtifactSet, error) {
	count := len(input.images)
	if !validImageCount(count) {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"image set count must be 1, 2, 4 or 8, got %d", count)}
	}
	width := input.Width()
	height := input.Height()

	zero := func() *Image { return NewImage(width, height) }

	var original, contaminated, revised *TimeFrequencyData
	switch count {
	case 1:
		mask := NewMask(width, height)
		original = NewAmplitudeData(input.images[0], mask)
		contaminated = NewAmplitudeData(input.images[0].Copy(), mask.Copy())
		revised = NewAmplitudeData(zero(), contaminated.Mask(0))
	case 2:
		mask := NewMask(width, height)
		original = NewComplexData(input.images[0], input.images[1], mask)
		contaminated = NewComplexData(input.images[0].Copy(), input.images[1].Copy(), mask.Copy())
		revised = NewComplexData(zero(), zero(), contaminated.Mask(0))
	default:
		polCount := count / 2
		origMasks := make([]*Mask, polCount)
		contMasks := make([]*Mask, polCount)
		contImages := make([]*Image, count)
		zeroImages := make([]*Image, count)
		for p := 0; p < polCount; p++ {
			origMasks[p] = NewMask(width, height)
			contMasks[p] = NewMask(width, height)
		}
		for i := 0; i < count; i++ {
			contImages[i] = input.images[i].Copy()
			zeroImages[i] = zero()
		}
		var err error
		original, err = NewPolarisedData(input.images, origMasks)
		if err != nil {
			return nil, err
		}
		contaminated, err = NewPolarisedData(contImages, contMasks)
		if err != nil {
			return nil, err
		}
		revised, err = NewPolarisedData(zeroImages, contMasks)
		if err != nil {
			return nil, err
		}
	}
	return NewArtifactSet(original, contaminated, revised, &f.mu, &f.plots), nil
}
