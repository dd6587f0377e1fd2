package rfi

import "math"

// ForEachPolarisationBlock runs its children once per polarization,
// exposing that polarization's images and mask as the active data.
// Views alias the parent buffers, so flags set inside persist.
type ForEachPolarisationBlock struct {
	ActionBlock
}

func (b *ForEachPolarisationBlock) Name() string { return "for-each-polarisation" }

func (b *ForEachPolarisationBlock) Perform(artifacts *ArtifactSet, listener ProgressListener) error {
	count := artifacts.Contaminated.PolarisationCount()
	for p := 0; p < count; p++ {
		if listener.Cancelled() {
			return ErrCancelled
		}
		child := artifacts.child(
			artifacts.Original.Polarisation(p),
			artifacts.Contaminated.Polarisation(p),
			artifacts.Revised.Polarisation(p),
		)
		if err := b.performChildren(child, listener); err != nil {
			return err
		}
	}
	return nil
}

// ForEachComplexComponentBlock runs its children over the selected
// complex components of the data. Component images are derived where
// necessary (amplitude, phase) or aliased (real, imaginary); masks are
// always aliased, so flags persist while image writes to derived
// components are discarded unless RestoreFromAmplitude is set.
type ForEachComplexComponentBlock struct {
	ActionBlock
	OnAmplitude bool
	OnPhase     bool
	OnReal      bool
	OnImaginary bool
	// RestoreFromAmplitude rescales the complex values by the ratio of
	// the evolved to the initial amplitude after the amplitude pass.
	RestoreFromAmplitude bool
}

func (b *ForEachComplexComponentBlock) Name() string { return "for-each-complex-component" }

func (b *ForEachComplexComponentBlock) Perform(artifacts *ArtifactSet, listener ProgressListener) error {
	if artifacts.Contaminated.Kind() == AmplitudeKind {
		// Amplitude data has no complex components; a single amplitude
		// pass operates on the data directly.
		if !b.OnAmplitude {
			return nil
		}
		return b.performChildren(artifacts, listener)
	}
	if b.OnAmplitude {
		if err := b.performAmplitude(artifacts, listener); err != nil {
			return err
		}
	}
	if b.OnReal {
		if err := b.performPart(artifacts, listener, 0); err != nil {
			return err
		}
	}
	if b.OnImaginary {
		if err := b.performPart(artifacts, listener, 1); err != nil {
			return err
		}
	}
	if b.OnPhase {
		if err := b.performPhase(artifacts, listener); err != nil {
			return err
		}
	}
	return nil
}

func (b *ForEachComplexComponentBlock) performAmplitude(artifacts *ArtifactSet, listener ProgressListener) error {
	contaminated := artifacts.Contaminated.AmplitudeView()
	var initial *TimeFrequencyData
	if b.RestoreFromAmplitude {
		initial = contaminated.deepCopy()
	}
	child := artifacts.child(
		artifacts.Original.AmplitudeView(),
		contaminated,
		artifacts.Revised.AmplitudeView(),
	)
	if err := b.performChildren(child, listener); err != nil {
		return err
	}
	if b.RestoreFromAmplitude {
		restoreFromAmplitude(artifacts.Contaminated, initial, contaminated)
	}
	return nil
}

// performPart runs the children on the real (offset 0) or imaginary
// (offset 1) images. Part images are aliased, so writes propagate.
func (b *ForEachComplexComponentBlock) performPart(artifacts *ArtifactSet, listener ProgressListener, offset int) error {
	child := artifacts.child(
		partView(artifacts.Original, offset),
		partView(artifacts.Contaminated, offset),
		partView(artifacts.Revised, offset),
	)
	return b.performChildren(child, listener)
}

func (b *ForEachComplexComponentBlock) performPhase(artifacts *ArtifactSet, listener ProgressListener) error {
	child := artifacts.child(
		phaseView(artifacts.Original),
		phaseView(artifacts.Contaminated),
		phaseView(artifacts.Revised),
	)
	return b.performChildren(child, listener)
}

// partView exposes the real or imaginary image of each polarization as
// an amplitude-kind bundle sharing buffers with d.
func partView(d *TimeFrequencyData, offset int) *TimeFrequencyData {
	images := make([]*Image, d.PolarisationCount())
	for p := 0; p < d.PolarisationCount(); p++ {
		images[p] = d.Image(p*2 + offset)
	}
	return &TimeFrequencyData{
		kind:     AmplitudeKind,
		polCount: d.PolarisationCount(),
		images:   images,
		masks:    d.masks,
	}
}

// phaseView derives the phase of each polarization into fresh buffers;
// masks are shared.
func phaseView(d *TimeFrequencyData) *TimeFrequencyData {
	images := make([]*Image, d.PolarisationCount())
	for p := 0; p < d.PolarisationCount(); p++ {
		re := d.Image(p * 2)
		im := d.Image(p*2 + 1)
		phase := NewImage(re.Width(), re.Height())
		for y := 0; y < re.Height(); y++ {
			for x := 0; x < re.Width(); x++ {
				phase.SetValue(x, y, float32(math.Atan2(
					float64(im.Value(x, y)), float64(re.Value(x, y)))))
			}
		}
		images[p] = phase
	}
	return &TimeFrequencyData{
		kind:     AmplitudeKind,
		polCount: d.PolarisationCount(),
		images:   images,
		masks:    d.masks,
	}
}

// restoreFromAmplitude scales the complex images of target by the ratio
// of the evolved amplitude to the initial amplitude.
func restoreFromAmplitude(target, initial, evolved *TimeFrequencyData) {
	for p := 0; p < target.PolarisationCount(); p++ {
		re := target.Image(p * 2)
		im := target.Image(p*2 + 1)
		before := initial.Image(p)
		after := evolved.Image(p)
		for y := 0; y < re.Height(); y++ {
			for x := 0; x < re.Width(); x++ {
				b := before.Value(x, y)
				if b == 0 {
					continue
				}
				ratio := after.Value(x, y) / b
				re.SetValue(x, y, re.Value(x, y)*ratio)
				im.SetValue(x, y, im.Value(x, y)*ratio)
			}
		}
	}
}

// IterationBlock runs its children N times with a sensitivity that
// halves every iteration: sensitivity(i) = SensitivityStart * 2^-i.
// The artifact's previous sensitivity is restored when the block
// leaves its final iteration.
type IterationBlock struct {
	ActionBlock
	IterationCount   int
	SensitivityStart float64
}

func (b *IterationBlock) Name() string { return "iteration" }

func (b *IterationBlock) Perform(artifacts *ArtifactSet, listener ProgressListener) error {
	previous := artifacts.Sensitivity
	defer func() { artifacts.Sensitivity = previous }()
	for i := 0; i < b.IterationCount; i++ {
		if listener.Cancelled() {
			return ErrCancelled
		}
		artifacts.Sensitivity = b.SensitivityStart * math.Pow(2, -float64(i))
		if err := b.performChildren(artifacts, listener); err != nil {
			return err
		}
	}
	return nil
}

// CombineFlagResults executes each child on the flags as they were on
// entry and ORs all results into the contaminated masks, so sibling
// detectors do not see each other's flags.
type CombineFlagResults struct {
	ActionBlock
}

func (b *CombineFlagResults) Name() string { return "combine-flag-results" }

func (b *CombineFlagResults) Perform(artifacts *ArtifactSet, listener ProgressListener) error {
	data := artifacts.Contaminated
	saved := make([]*Mask, data.MaskCount())
	combined := make([]*Mask, data.MaskCount())
	for i := range saved {
		saved[i] = data.Mask(i).Copy()
		combined[i] = data.Mask(i).Copy()
	}
	for _, child := range b.children {
		if listener.Cancelled() {
			return ErrCancelled
		}
		for i := range saved {
			data.Mask(i).CopyFrom(saved[i])
		}
		listener.OnStartAction(child.Name())
		if err := child.Perform(artifacts, listener); err != nil {
			return err
		}
		for i := range combined {
			combined[i].Or(data.Mask(i))
		}
	}
	for i := range combined {
		data.Mask(i).CopyFrom(combined[i])
	}
	return nil
}

// ChangeResolutionAction runs its children on a downsampled copy of the
// data: images are averaged over unmasked-aware windows, masks shrink
// to flagged-only-if-all-flagged. Afterwards the revised estimate the
// children produced is enlarged back and the full-resolution
// contaminated images are recomputed as data minus background. The
// full-resolution masks are never resampled.
type ChangeResolutionAction struct {
	ActionBlock
	TimeDecreaseFactor      int
	FrequencyDecreaseFactor int
}

func (b *ChangeResolutionAction) Name() string { return "change-resolution" }

func (b *ChangeResolutionAction) Perform(artifacts *ArtifactSet, listener ProgressListener) error {
	tf := b.TimeDecreaseFactor
	ff := b.FrequencyDecreaseFactor
	if tf < 1 {
		tf = 1
	}
	if ff < 1 {
		ff = 1
	}
	width := artifacts.Contaminated.Width()
	height := artifacts.Contaminated.Height()

	child := artifacts.child(
		shrinkData(artifacts.Original, tf, ff),
		shrinkData(artifacts.Contaminated, tf, ff),
		shrinkData(artifacts.Revised, tf, ff),
	)
	if err := b.performChildren(child, listener); err != nil {
		return err
	}

	for i := 0; i < artifacts.Revised.ImageCount(); i++ {
		small := child.Revised.Image(i)
		enlarged := small.EnlargeHorizontally(tf, width).EnlargeVertically(ff, height)
		artifacts.Revised.Image(i).CopyFrom(enlarged)
		full := artifacts.Contaminated.Image(i)
		revised := artifacts.Revised.Image(i)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				full.SetValue(x, y, full.Value(x, y)-revised.Value(x, y))
			}
		}
	}
	return nil
}

// shrinkData downsamples a bundle's images and masks by the two
// factors into fresh buffers. Image blocks average their unmasked
// samples only, so flagged RFI does not leak into the low-resolution
// background fit; a block loses its samples to the average of all of
// them only when every sample is flagged, in which case the block is
// flagged too.
func shrinkData(d *TimeFrequencyData, tf, ff int) *TimeFrequencyData {
	images := make([]*Image, d.ImageCount())
	for i := 0; i < d.ImageCount(); i++ {
		images[i] = shrinkImageMasked(d.Image(i), maskForImage(d, i), tf, ff)
	}
	masks := make([]*Mask, d.MaskCount())
	for i := 0; i < d.MaskCount(); i++ {
		masks[i] = d.Mask(i).ShrinkHorizontallyForAveraging(tf).ShrinkVerticallyForAveraging(ff)
	}
	return &TimeFrequencyData{
		kind:     d.kind,
		polCount: d.polCount,
		images:   images,
		masks:    masks,
	}
}

// shrinkImageMasked block-averages an image, skipping flagged samples.
// Fully flagged blocks fall back to the plain average.
func shrinkImageMasked(img *Image, mask *Mask, tf, ff int) *Image {
	newWidth := (img.Width() + tf - 1) / tf
	newHeight := (img.Height() + ff - 1) / ff
	out := NewImage(newWidth, newHeight)
	for y := 0; y < newHeight; y++ {
		yBegin := y * ff
		yEnd := yBegin + ff
		if yEnd > img.Height() {
			yEnd = img.Height()
		}
		for x := 0; x < newWidth; x++ {
			xBegin := x * tf
			xEnd := xBegin + tf
			if xEnd > img.Width() {
				xEnd = img.Width()
			}
			var sum, sumAll float64
			count := 0
			for wy := yBegin; wy < yEnd; wy++ {
				for wx := xBegin; wx < xEnd; wx++ {
					v := float64(img.Value(wx, wy))
					sumAll += v
					if !mask.Value(wx, wy) {
						sum += v
						count++
					}
				}
			}
			if count > 0 {
				out.SetValue(x, y, float32(sum/float64(count)))
			} else {
				total := (yEnd - yBegin) * (xEnd - xBegin)
				out.SetValue(x, y, float32(sumAll/float64(total)))
			}
		}
	}
	return out
}
