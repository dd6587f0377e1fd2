package rfi

import "testing"

// makeAmplitudeArtifacts builds a single-polarization amplitude
// artifact set around an image.
func makeAmplitudeArtifacts(img *Image) *ArtifactSet {
	mask := NewMask(img.Width(), img.Height())
	original := NewAmplitudeData(img, mask)
	contaminated := NewAmplitudeData(img.Copy(), mask.Copy())
	revised := NewAmplitudeData(NewImage(img.Width(), img.Height()), contaminated.Mask(0))
	return NewArtifactSet(original, contaminated, revised, nil, nil)
}

func TestSetImageRestoresOriginal(t *testing.T) {
	img := NewImageValue(8, 8, 3)
	artifacts := makeAmplitudeArtifacts(img)
	artifacts.Contaminated.Image(0).SetValue(0, 0, 77)
	artifacts.Contaminated.Mask(0).SetValue(1, 1, true)

	action := &SetImageAction{}
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	if artifacts.Contaminated.Image(0).Value(0, 0) != 3 {
		t.Error("image not restored from original")
	}
	if !artifacts.Contaminated.Mask(0).Value(1, 1) {
		t.Error("SetImage must not touch the mask")
	}
}

func TestSetImageFromRevised(t *testing.T) {
	img := NewImageValue(4, 4, 1)
	artifacts := makeAmplitudeArtifacts(img)
	artifacts.Revised.Image(0).SetValue(2, 2, 9)

	action := &SetImageAction{Source: FromRevised}
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	if artifacts.Contaminated.Image(0).Value(2, 2) != 9 {
		t.Error("image not copied from revised")
	}
}

func TestSetFlaggingModes(t *testing.T) {
	img := NewImageValue(4, 4, 1)
	artifacts := makeAmplitudeArtifacts(img)
	artifacts.Contaminated.Mask(0).SetValue(0, 0, true)

	clear := &SetFlaggingAction{Mode: FlagsClear}
	if err := clear.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	if artifacts.Contaminated.Mask(0).Count() != 0 {
		t.Error("clear left flags behind")
	}

	// OrOriginal merges the original data's flags back in.
	artifacts.Original.Mask(0).SetValue(3, 3, true)
	orig := &SetFlaggingAction{Mode: FlagsOrOriginal}
	if err := orig.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	if !artifacts.Contaminated.Mask(0).Value(3, 3) {
		t.Error("OrOriginal did not merge original flags")
	}
}

func TestSumThresholdActionMonotonic(t *testing.T) {
	img := NewImage(32, 32)
	img.SetValue(10, 10, 500)
	artifacts := makeAmplitudeArtifacts(img)
	artifacts.Contaminated.Mask(0).SetValue(5, 5, true)
	before := artifacts.Contaminated.Mask(0).Copy()

	action := NewSumThresholdAction()
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	after := artifacts.Contaminated.Mask(0)
	if !after.IsSupersetOf(before) {
		t.Error("sum-threshold removed pre-existing flags")
	}
	if !after.Value(10, 10) {
		t.Error("sum-threshold missed the spike")
	}
}

func TestHighPassFilterStoreRevised(t *testing.T) {
	img := NewImageValue(24, 24, 10)
	artifacts := makeAmplitudeArtifacts(img)

	action := NewHighPassFilterAction()
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	// Constant image: the background is the constant and the residual
	// is zero.
	if v := artifacts.Revised.Image(0).Value(12, 12); v < 9.99 || v > 10.01 {
		t.Errorf("revised = %v, want 10", v)
	}
	if v := artifacts.Contaminated.Image(0).Value(12, 12); v < -0.01 || v > 0.01 {
		t.Errorf("residual = %v, want 0", v)
	}
}

func TestHighPassFilterStoreContaminatedLeavesRevised(t *testing.T) {
	img := NewImageValue(16, 16, 4)
	artifacts := makeAmplitudeArtifacts(img)

	action := NewHighPassFilterAction()
	action.Mode = StoreContaminated
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	if artifacts.Revised.Image(0).Value(8, 8) != 0 {
		t.Error("StoreContaminated touched the revised data")
	}
	if v := artifacts.Contaminated.Image(0).Value(8, 8); v < -0.01 || v > 0.01 {
		t.Errorf("residual = %v, want 0", v)
	}
}

func TestStatisticalFlagActionDilatesRun(t *testing.T) {
	img := NewImage(32, 8)
	artifacts := makeAmplitudeArtifacts(img)
	mask := artifacts.Contaminated.Mask(0)
	for x := 10; x < 14; x++ {
		mask.SetValue(x, 4, true)
	}

	action := NewStatisticalFlagAction()
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	if !mask.Value(9, 4) || !mask.Value(14, 4) {
		t.Error("SIR did not dilate the horizontal run")
	}
	if mask.Value(9, 3) {
		t.Error("SIR leaked into another channel")
	}
}

func TestPlotActionAccumulatesUnderLock(t *testing.T) {
	img := NewImage(10, 10)
	artifacts := makeAmplitudeArtifacts(img)
	artifacts.Contaminated.Mask(0).SetValue(0, 0, true)

	action := &PlotAction{Kind: PolarizationStatisticsPlot}
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	plots := artifacts.Plots()
	if len(plots.Polarisations) != 1 {
		t.Fatalf("polarisation stats = %d entries, want 1", len(plots.Polarisations))
	}
	if plots.Polarisations[0].FlagCount != 1 || plots.Polarisations[0].TotalCount != 100 {
		t.Errorf("counts = %d/%d, want 1/100",
			plots.Polarisations[0].FlagCount, plots.Polarisations[0].TotalCount)
	}
}

func TestBaselineSelectionRecordsRatio(t *testing.T) {
	img := NewImage(10, 10)
	artifacts := makeAmplitudeArtifacts(img)
	artifacts.BaselineID = "ant1-ant2"
	for x := 0; x < 10; x++ {
		artifacts.Contaminated.Mask(0).SetValue(x, 0, true)
	}

	action := &BaselineSelectionAction{PreparationStep: true}
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	records := artifacts.Plots().Baselines
	if len(records) != 1 {
		t.Fatalf("baseline records = %d, want 1", len(records))
	}
	if records[0].BaselineID != "ant1-ant2" {
		t.Errorf("baseline id = %q", records[0].BaselineID)
	}
	if records[0].FlagRatio != 0.1 {
		t.Errorf("flag ratio = %v, want 0.1", records[0].FlagRatio)
	}
}

type recordingSink struct {
	baselines []string
	counts    []int
}

func (s *recordingSink) WriteFlags(baselineID string, mask *Mask) error {
	s.baselines = append(s.baselines, baselineID)
	s.counts = append(s.counts, mask.Count())
	return nil
}

func TestWriteFlagsActionUsesSink(t *testing.T) {
	img := NewImage(6, 6)
	artifacts := makeAmplitudeArtifacts(img)
	artifacts.BaselineID = "b0"
	artifacts.Contaminated.Mask(0).SetValue(2, 2, true)
	sink := &recordingSink{}
	artifacts.Sink = sink

	action := &WriteFlagsAction{}
	if err := action.Perform(artifacts, NopListener{}); err != nil {
		t.Fatal(err)
	}
	if len(sink.baselines) != 1 || sink.baselines[0] != "b0" || sink.counts[0] != 1 {
		t.Errorf("sink saw %v %v", sink.baselines, sink.counts)
	}
}
