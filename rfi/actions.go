package rfi

// maskForImage returns the mask guarding image index i of the bundle.
func maskForImage(d *TimeFrequencyData, i int) *Mask {
	if d.MaskCount() == 1 {
		return d.Mask(0)
	}
	imagesPerPol := d.ImageCount() / d.PolarisationCount()
	return d.Mask(i / imagesPerPol)
}

// SetImageSource selects what a SetImageAction copies into the
// contaminated images.
type SetImageSource int

const (
	// FromOriginal restores the contaminated images from the original
	// data, keeping the evolved flags.
	FromOriginal SetImageSource = iota
	// FromRevised overwrites the contaminated images with the current
	// background estimate.
	FromRevised
)

// SetImageAction overwrites the contaminated image values. It is one of
// the two actions that are not flag-monotonic: it touches images, never
// masks.
type SetImageAction struct {
	Source SetImageSource
}

func (a *SetImageAction) Name() string { return "set-image" }

func (a *SetImageAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	switch a.Source {
	case FromRevised:
		artifacts.Contaminated.CopyValuesFrom(artifacts.Revised)
	default:
		artifacts.Contaminated.CopyValuesFrom(artifacts.Original)
	}
	return nil
}

// FlaggingMode selects what a SetFlaggingAction does to the
// contaminated masks.
type FlaggingMode int

const (
	// FlagsClear erases all flags. Not flag-monotonic, by contract.
	FlagsClear FlaggingMode = iota
	// FlagsPolarisationsEqual ORs the masks of all polarizations
	// together and writes the result back into each.
	FlagsPolarisationsEqual
	// FlagsOrOriginal ORs the original data's flags into the
	// contaminated masks.
	FlagsOrOriginal
)

// SetFlaggingAction rewrites the contaminated masks wholesale.
type SetFlaggingAction struct {
	Mode FlaggingMode
}

func (a *SetFlaggingAction) Name() string { return "set-flagging" }

func (a *SetFlaggingAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	switch a.Mode {
	case FlagsPolarisationsEqual:
		artifacts.Contaminated.EqualiseMasks()
	case FlagsOrOriginal:
		for i := 0; i < artifacts.Contaminated.MaskCount(); i++ {
			artifacts.Contaminated.Mask(i).Or(artifacts.Original.Mask(i))
		}
	default:
		artifacts.Contaminated.ClearMasks()
	}
	return nil
}

// SumThresholdAction runs the multi-length detector on the amplitude of
// every polarization of the contaminated data. The effective base
// threshold is BaseSensitivity times the artifact's current iteration
// sensitivity times the winsorized stddev of the data.
type SumThresholdAction struct {
	BaseSensitivity            float64
	ShrinkFactor               float64
	TimeDirectionFlagging      bool
	FrequencyDirectionFlagging bool
}

// NewSumThresholdAction returns the action with default configuration:
// base sensitivity 1, shrink factor 1.5, both directions enabled.
func NewSumThresholdAction() *SumThresholdAction {
	return &SumThresholdAction{
		BaseSensitivity:            1.0,
		ShrinkFactor:               defaultShrinkFactor,
		TimeDirectionFlagging:      true,
		FrequencyDirectionFlagging: true,
	}
}

func (a *SumThresholdAction) Name() string { return "sum-threshold" }

func (a *SumThresholdAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	data := artifacts.Contaminated
	sensitivity := a.BaseSensitivity * artifacts.Sensitivity
	for p := 0; p < data.PolarisationCount(); p++ {
		view := data.Polarisation(p).AmplitudeView()
		err := SumThreshold(view.Image(0), view.Mask(0), sensitivity, a.ShrinkFactor,
			a.TimeDirectionFlagging, a.FrequencyDirectionFlagging)
		if err != nil {
			return err
		}
	}
	return nil
}

// HighPassFilterMode selects where a HighPassFilterAction stores its
// results.
type HighPassFilterMode int

const (
	// StoreRevised stores the smooth fit in the revised data and leaves
	// the residual in the contaminated images, so subsequent detection
	// operates on data minus background.
	StoreRevised HighPassFilterMode = iota
	// StoreContaminated leaves the residual in the contaminated images
	// without touching the revised data.
	StoreContaminated
)

// HighPassFilterAction fits the Gaussian-kernel background to each
// contaminated image and subtracts it.
type HighPassFilterAction struct {
	WindowWidth    int
	WindowHeight   int
	HKernelSigmaSq float64
	VKernelSigmaSq float64
	Mode           HighPassFilterMode
}

// NewHighPassFilterAction returns the action with the default window
// and kernel configuration.
func NewHighPassFilterAction() *HighPassFilterAction {
	return &HighPassFilterAction{
		WindowWidth:    21,
		WindowHeight:   31,
		HKernelSigmaSq: 2.5,
		VKernelSigmaSq: 5.0,
		Mode:           StoreRevised,
	}
}

func (a *HighPassFilterAction) Name() string { return "high-pass-filter" }

func (a *HighPassFilterAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	filter := &HighPassFilter{
		WindowWidth:    a.WindowWidth,
		WindowHeight:   a.WindowHeight,
		KernelSigmaSqT: a.HKernelSigmaSq,
		KernelSigmaSqF: a.VKernelSigmaSq,
	}
	data := artifacts.Contaminated
	for i := 0; i < data.ImageCount(); i++ {
		img := data.Image(i)
		mask := maskForImage(data, i)
		background := filter.Background(img, mask)
		if a.Mode == StoreRevised {
			artifacts.Revised.Image(i).CopyFrom(background)
		}
		for y := 0; y < img.Height(); y++ {
			for x := 0; x < img.Width(); x++ {
				img.SetValue(x, y, img.Value(x, y)-background.Value(x, y))
			}
		}
	}
	return nil
}

// FrequencySelectionAction rejects whole channels whose mean level
// stands out from the channel population.
type FrequencySelectionAction struct{}

func (a *FrequencySelectionAction) Name() string { return "frequency-selection" }

func (a *FrequencySelectionAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	data := artifacts.Contaminated
	for p := 0; p < data.PolarisationCount(); p++ {
		view := data.Polarisation(p).AmplitudeView()
		FrequencySelectionFlag(view.Image(0), view.Mask(0))
	}
	return nil
}

// TimeSelectionAction rejects whole time samples whose mean level
// stands out from the sample population.
type TimeSelectionAction struct{}

func (a *TimeSelectionAction) Name() string { return "time-selection" }

func (a *TimeSelectionAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	data := artifacts.Contaminated
	for p := 0; p < data.PolarisationCount(); p++ {
		view := data.Polarisation(p).AmplitudeView()
		TimeSelectionFlag(view.Image(0), view.Mask(0))
	}
	return nil
}

// StatisticalFlagAction finalizes a mask: box dilation followed by the
// SIR operator in the time and the frequency direction. The combined
// result is written into every polarization mask.
type StatisticalFlagAction struct {
	EnlargeTimeSize           int
	EnlargeFrequencySize      int
	MinimumGoodTimeRatio      float64
	MinimumGoodFrequencyRatio float64
}

// NewStatisticalFlagAction returns the action with default ratios of
// 0.2 in both directions and no box dilation.
func NewStatisticalFlagAction() *StatisticalFlagAction {
	return &StatisticalFlagAction{
		MinimumGoodTimeRatio:      0.2,
		MinimumGoodFrequencyRatio: 0.2,
	}
}

func (a *StatisticalFlagAction) Name() string { return "statistical-flagging" }

func (a *StatisticalFlagAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	data := artifacts.Contaminated
	mask := data.SingleMask().Copy()
	DilateFlags(mask, a.EnlargeTimeSize, a.EnlargeFrequencySize)
	SIROperateHorizontally(mask, a.MinimumGoodTimeRatio)
	SIROperateVertically(mask, a.MinimumGoodFrequencyRatio)
	data.SetMaskValues(mask)
	return nil
}

// CalibratePassbandAction flattens the instrumental passband of the
// contaminated images.
type CalibratePassbandAction struct{}

func (a *CalibratePassbandAction) Name() string { return "calibrate-passband" }

func (a *CalibratePassbandAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	data := artifacts.Contaminated
	for i := 0; i < data.ImageCount(); i++ {
		CalibratePassband(data.Image(i), maskForImage(data, i))
	}
	return nil
}

// PlotKind selects what a PlotAction accumulates.
type PlotKind int

const (
	// PolarizationStatisticsPlot accumulates flag counts per
	// polarization.
	PolarizationStatisticsPlot PlotKind = iota
	// FrequencyFlagCountPlot accumulates flag counts per channel.
	FrequencyFlagCountPlot
)

// PlotAction accumulates plot counters into the artifact's shared plot
// collection. The collection crosses baseline boundaries, so updates
// take the artifact mutex.
type PlotAction struct {
	Kind PlotKind
}

func (a *PlotAction) Name() string { return "plot" }

func (a *PlotAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	data := artifacts.Contaminated
	switch a.Kind {
	case FrequencyFlagCountPlot:
		mask := data.SingleMask()
		counts := make([]int64, mask.Height())
		for y := 0; y < mask.Height(); y++ {
			for x := 0; x < mask.Width(); x++ {
				if mask.Value(x, y) {
					counts[y]++
				}
			}
		}
		artifacts.Lock()
		plots := artifacts.Plots()
		for len(plots.ChannelFlagCounts) < len(counts) {
			plots.ChannelFlagCounts = append(plots.ChannelFlagCounts, 0)
		}
		for y, c := range counts {
			plots.ChannelFlagCounts[y] += c
		}
		artifacts.Unlock()
	default:
		total := int64(data.Width()) * int64(data.Height())
		artifacts.Lock()
		for p := 0; p < data.PolarisationCount(); p++ {
			mask := data.Mask(0)
			if data.MaskCount() > 1 {
				mask = data.Mask(p)
			}
			artifacts.Plots().addPolarisationCounts(p, int64(mask.Count()), total)
		}
		artifacts.Unlock()
	}
	return nil
}

// BaselineSelectionAction records this baseline's flag ratio into the
// shared collection when run as a preparation step. The selection
// itself happens off-line over the collected records; within a single
// baseline run the non-preparation form has nothing to decide and does
// nothing.
type BaselineSelectionAction struct {
	PreparationStep bool
}

func (a *BaselineSelectionAction) Name() string { return "baseline-selection" }

func (a *BaselineSelectionAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	if !a.PreparationStep {
		return nil
	}
	mask := artifacts.Contaminated.SingleMask()
	total := mask.Width() * mask.Height()
	ratio := 0.0
	if total > 0 {
		ratio = float64(mask.Count()) / float64(total)
	}
	artifacts.Lock()
	plots := artifacts.Plots()
	plots.Baselines = append(plots.Baselines, BaselineRecord{
		BaselineID: artifacts.BaselineID,
		FlagRatio:  ratio,
	})
	artifacts.Unlock()
	return nil
}

// WriteFlagsAction hands the current combined mask to the artifact's
// flag sink, when one is configured.
type WriteFlagsAction struct{}

func (a *WriteFlagsAction) Name() string { return "write-flags" }

func (a *WriteFlagsAction) Perform(artifacts *ArtifactSet, _ ProgressListener) error {
	if artifacts.Sink == nil {
		return nil
	}
	mask := artifacts.Contaminated.SingleMask().Copy()
	if err := artifacts.Sink.WriteFlags(artifacts.BaselineID, mask); err != nil {
		return &IOError{Op: "writing flags", Err: err}
	}
	return nil
}
