package rfi

import "sync"

// PolarisationStatistic accumulates flag counts for one polarization
// across baselines, for the polarization statistics plot.
type PolarisationStatistic struct {
	Polarisation int
	FlagCount    int64
	TotalCount   int64
}

// BaselineRecord is one baseline's flagging outcome, recorded by the
// baseline selection preparation step for off-line vetting.
type BaselineRecord struct {
	BaselineID string
	FlagRatio  float64
}

// PlotCollection gathers side outputs that cross baseline boundaries.
// All access goes through the owning ArtifactSet's mutex.
type PlotCollection struct {
	Polarisations     []PolarisationStatistic
	Baselines         []BaselineRecord
	ChannelFlagCounts []int64
}

// addPolarisationCounts merges flag counts into the per-polarization
// slots, growing the slice as needed.
func (c *PlotCollection) addPolarisationCounts(pol int, flagged, total int64) {
	for len(c.Polarisations) <= pol {
		c.Polarisations = append(c.Polarisations,
			PolarisationStatistic{Polarisation: len(c.Polarisations)})
	}
	c.Polarisations[pol].FlagCount += flagged
	c.Polarisations[pol].TotalCount += total
}

// FlagSink receives the final mask from a WriteFlags action.
type FlagSink interface {
	WriteFlags(baselineID string, mask *Mask) error
}

// ArtifactSet is the mutable bundle passed through the action tree for
// one baseline. Original is never mutated; Contaminated evolves and
// holds the current best flags; Revised holds the current background
// estimate. The mutex serializes writes to the shared plot collection
// when baselines run concurrently.
type ArtifactSet struct {
	Original     *TimeFrequencyData
	Contaminated *TimeFrequencyData
	Revised      *TimeFrequencyData

	// Sensitivity multiplies detection thresholds; IterationBlock
	// lowers it toward 1 while iterating and restores it afterwards.
	Sensitivity float64

	// BaselineID labels side outputs (plots, statistics, flag sinks).
	BaselineID string

	// Sink, when set, receives the mask from WriteFlags actions.
	Sink FlagSink

	mu    *sync.Mutex
	plots *PlotCollection
}

// NewArtifactSet builds an artifact around the three data slots. The
// mutex and plot collection may be shared between artifact sets of
// concurrent baselines; pass nil to create private ones.
func NewArtifactSet(original, contaminated, revised *TimeFrequencyData, mu *sync.Mutex, plots *PlotCollection) *ArtifactSet {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	if plots == nil {
		plots = &PlotCollection{}
	}
	return &ArtifactSet{
		Original:     original,
		Contaminated: contaminated,
		Revised:      revised,
		Sensitivity:  1.0,
		mu:           mu,
		plots:        plots,
	}
}

// Plots returns the shared plot collection; callers must hold the
// artifact's lock while reading or writing it during a run.
func (a *ArtifactSet) Plots() *PlotCollection { return a.plots }

// Lock acquires the shared side-output mutex.
func (a *ArtifactSet) Lock() { a.mu.Lock() }

// Unlock releases the shared side-output mutex.
func (a *ArtifactSet) Unlock() { a.mu.Unlock() }

// child derives an artifact set for a sub-scope (a polarization or
// component view), sharing the mutex and plot collection and starting
// from a copy of the current sensitivity.
func (a *ArtifactSet) child(original, contaminated, revised *TimeFrequencyData) *ArtifactSet {
	return &ArtifactSet{
		Original:     original,
		Contaminated: contaminated,
		Revised:      revised,
		Sensitivity:  a.Sensitivity,
		BaselineID:   a.BaselineID,
		Sink:         a.Sink,
		mu:           a.mu,
		plots:        a.plots,
	}
}
