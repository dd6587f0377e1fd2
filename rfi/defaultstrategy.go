package rfi

import "math"

// TelescopeId identifies the telescope a default strategy is built
// for.
type TelescopeId int

const (
	// GenericTelescope is the most generic strategy.
	GenericTelescope TelescopeId = iota
	// LofarTelescope is the default strategy for LOFAR.
	LofarTelescope
	// MwaTelescope is the default strategy for the MWA.
	MwaTelescope
	// WsrtTelescope is the default strategy for the WSRT.
	WsrtTelescope
)

// Strategy flag bits. The numeric values are part of the public
// interface and stay stable across releases.
const (
	FlagNone           uint = 0x000
	FlagLowFrequency   uint = 0x001
	FlagHighFrequency  uint = 0x002
	FlagLargeBandwidth uint = 0x004
	FlagSmallBandwidth uint = 0x008
	// FlagTransients keeps broadband transients: the
	// frequency-direction detector passes are disabled.
	FlagTransients uint = 0x010
	// FlagRobust trades speed for convergence: more, gentler
	// iterations.
	FlagRobust         uint = 0x020
	FlagFast           uint = 0x040
	FlagOffAxisSources uint = 0x080
	FlagUnsensitive    uint = 0x100
	FlagSensitive      uint = 0x200
	// FlagGuiFriendly keeps intermediate images displayable: the
	// contaminated images are reset up front and pre-existing flags
	// are not merged back in.
	FlagGuiFriendly uint = 0x400
	// FlagClearFlags drops flags that were set before the run instead
	// of merging them into the result.
	FlagClearFlags      uint = 0x800
	FlagAutoCorrelation uint = 0x1000
)

// MakeDefaultStrategy constructs the canonical action tree for a
// telescope. The frequency and resolution hints are accepted for
// forward compatibility and do not currently alter the tree.
func MakeDefaultStrategy(telescope TelescopeId, flags uint, frequency, timeRes, frequencyRes float64) *Strategy {
	calPassband := (telescope == MwaTelescope && flags&FlagSmallBandwidth == 0) ||
		flags&FlagLargeBandwidth != 0
	keepTransients := flags&FlagTransients != 0
	clearFlags := flags&FlagClearFlags != 0 || flags&FlagGuiFriendly != 0
	resetContaminated := flags&FlagGuiFriendly != 0
	iterationCount := 2
	if flags&FlagRobust != 0 {
		iterationCount = 4
	}

	strategy := NewStrategy()
	loadSingleStrategy(&strategy.ActionBlock, iterationCount, keepTransients,
		calPassband, clearFlags, resetContaminated)
	return strategy
}

// loadSingleStrategy fills block with the per-baseline flagging recipe.
func loadSingleStrategy(block *ActionBlock, iterationCount int, keepTransients, calPassband, clearFlags, resetContaminated bool) {
	if resetContaminated {
		block.Add(&SetImageAction{})
	}
	block.Add(&SetFlaggingAction{Mode: FlagsClear})

	fepBlock := &ForEachPolarisationBlock{}
	block.Add(fepBlock)

	focBlock := &ForEachComplexComponentBlock{OnAmplitude: true}
	fepBlock.Add(focBlock)

	iteration := &IterationBlock{
		IterationCount:   iterationCount,
		SensitivityStart: 2.0 * math.Pow(2.0, float64(iterationCount)/2.0),
	}
	focBlock.Add(iteration)

	t1 := NewSumThresholdAction()
	t1.BaseSensitivity = 1.0
	if keepTransients {
		t1.FrequencyDirectionFlagging = false
	}
	iteration.Add(t1)

	cfr := &CombineFlagResults{}
	iteration.Add(cfr)
	cfr.Add(&FrequencySelectionAction{})
	if !keepTransients {
		cfr.Add(&TimeSelectionAction{})
	}

	iteration.Add(&SetImageAction{})

	changeRes := &ChangeResolutionAction{
		TimeDecreaseFactor:      3,
		FrequencyDecreaseFactor: 3,
	}
	if keepTransients {
		changeRes.TimeDecreaseFactor = 1
	}
	hp := NewHighPassFilterAction()
	if keepTransients {
		hp.WindowWidth = 1
	}
	hp.Mode = StoreRevised
	changeRes.Add(hp)
	iteration.Add(changeRes)

	if calPassband {
		focBlock.Add(&CalibratePassbandAction{})
	}

	t2 := NewSumThresholdAction()
	if keepTransients {
		t2.FrequencyDirectionFlagging = false
	}
	focBlock.Add(t2)

	block.Add(&PlotAction{Kind: PolarizationStatisticsPlot})
	block.Add(&SetFlaggingAction{Mode: FlagsPolarisationsEqual})
	block.Add(NewStatisticalFlagAction())

	if !keepTransients {
		block.Add(&TimeSelectionAction{})
	}

	block.Add(&BaselineSelectionAction{PreparationStep: true})

	if !clearFlags {
		block.Add(&SetFlaggingAction{Mode: FlagsOrOriginal})
	}
}
