package rfi

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
)

func TestRunZeroImageProducesNoFlags(t *testing.T) {
	flagger := NewFlagger()
	input, err := flagger.MakeImageSet(256, 256, 1)
	if err != nil {
		t.Fatal(err)
	}
	strategy := flagger.MakeStrategy(LofarTelescope, FlagNone, 0, 0, 0)
	mask, err := flagger.Run(strategy, input)
	if err != nil {
		t.Fatal(err)
	}
	if got := mask.Mask().Count(); got != 0 {
		t.Errorf("zero image produced %d flags, want 0", got)
	}
}

func TestRunSingleSpike(t *testing.T) {
	flagger := NewFlagger()
	input, err := flagger.MakeImageSet(256, 256, 1)
	if err != nil {
		t.Fatal(err)
	}
	input.Image(0).SetValue(128, 128, 1000)
	strategy := flagger.MakeStrategy(LofarTelescope, FlagNone, 0, 0, 0)
	mask, err := flagger.Run(strategy, input)
	if err != nil {
		t.Fatal(err)
	}
	if !mask.Value(128, 128) {
		t.Error("spike not flagged")
	}
	// An isolated sample does not satisfy any SIR interval beyond
	// itself, so the flagged set stays tight around the spike.
	if got := mask.Mask().Count(); got > 9 {
		t.Errorf("flagged %d samples around an isolated spike", got)
	}
}

func TestRunBroadbandBurst(t *testing.T) {
	for _, flags := range []uint{FlagNone, FlagTransients} {
		flagger := NewFlagger()
		input, err := flagger.MakeImageSet(256, 256, 1)
		if err != nil {
			t.Fatal(err)
		}
		for x := 0; x < 256; x++ {
			input.Image(0).SetValue(x, 50, 100)
		}
		strategy := flagger.MakeStrategy(LofarTelescope, flags, 0, 0, 0)
		mask, err := flagger.Run(strategy, input)
		if err != nil {
			t.Fatal(err)
		}
		for x := 0; x < 256; x++ {
			if !mask.Value(x, 50) {
				t.Fatalf("flags=0x%x: burst sample x=%d not flagged", flags, x)
			}
		}
		for y := 0; y < 256; y += 49 {
			if y == 49 || y == 50 || y == 51 {
				continue
			}
			if mask.Value(100, y) {
				t.Errorf("flags=0x%x: quiet channel %d flagged", flags, y)
			}
		}
	}
}

func TestRunChannelRFI(t *testing.T) {
	flagger := NewFlagger()
	input, err := flagger.MakeImageSet(256, 256, 1)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 256; y++ {
		input.Image(0).SetValue(10, y, 100)
	}
	strategy := flagger.MakeStrategy(LofarTelescope, FlagNone, 0, 0, 0)
	mask, err := flagger.Run(strategy, input)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 256; y++ {
		if !mask.Value(10, y) {
			t.Fatalf("channel RFI at y=%d not flagged", y)
		}
	}
}

func TestRunInvalidImageCount(t *testing.T) {
	if _, err := NewImageSet(64, 64, 3); err == nil {
		t.Fatal("count=3 image set created")
	} else {
		var configErr *ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("err = %T, want *ConfigError", err)
		}
	}
}

func TestRunConcurrentDeterminism(t *testing.T) {
	flagger := NewFlagger()
	strategy := flagger.MakeStrategy(LofarTelescope, FlagNone, 0, 0, 0)

	rng := rand.New(rand.NewSource(2024))
	base, err := flagger.MakeImageSet(128, 64, 1)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 128; x++ {
			base.Image(0).SetValue(x, y, float32(rng.NormFloat64()))
		}
	}
	for i := 0; i < 5; i++ {
		base.Image(0).SetValue(rng.Intn(128), rng.Intn(64), 500)
	}

	const runs = 4
	masks := make([]*FlagMask, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mask, err := flagger.Run(strategy, base.Clone())
			if err != nil {
				t.Error(err)
				return
			}
			masks[i] = mask
		}(i)
	}
	wg.Wait()
	for i := 1; i < runs; i++ {
		if masks[i] == nil || masks[0] == nil {
			t.Fatal("missing mask")
		}
		if !masks[i].Mask().Equal(masks[0].Mask()) {
			t.Errorf("run %d produced a different mask", i)
		}
	}
}

func TestRunComplexAndPolarisedCounts(t *testing.T) {
	for _, count := range []int{2, 4, 8} {
		flagger := NewFlagger()
		input, err := flagger.MakeImageSet(64, 64, count)
		if err != nil {
			t.Fatal(err)
		}
		// RFI in the first polarization's real part.
		for y := 0; y < 64; y++ {
			input.Image(0).SetValue(30, y, 100)
		}
		strategy := flagger.MakeStrategy(GenericTelescope, FlagNone, 0, 0, 0)
		mask, err := flagger.Run(strategy, input)
		if err != nil {
			t.Fatalf("count=%d: %v", count, err)
		}
		for y := 0; y < 64; y++ {
			if !mask.Value(30, y) {
				t.Fatalf("count=%d: RFI column not flagged at y=%d", count, y)
			}
		}
	}
}

func TestRunCancellation(t *testing.T) {
	flagger := NewFlagger()
	input, err := flagger.MakeImageSet(64, 64, 1)
	if err != nil {
		t.Fatal(err)
	}
	strategy := flagger.MakeStrategy(LofarTelescope, FlagNone, 0, 0, 0)
	listener := &CancelListener{}
	listener.Cancel()
	mask, err := flagger.RunWithListener(strategy, input, listener, "b")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if mask == nil {
		t.Fatal("cancelled run must still return the partial mask")
	}
}

func TestRunInjectedRFIRecall(t *testing.T) {
	flagger := NewFlagger()
	strategy := flagger.MakeStrategy(LofarTelescope, FlagNone, 0, 0, 0)

	rng := rand.New(rand.NewSource(7))
	input, err := flagger.MakeImageSet(128, 128, 1)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			input.Image(0).SetValue(x, y, float32(rng.NormFloat64()))
		}
	}
	type point struct{ x, y int }
	injected := make(map[point]bool)
	for len(injected) < 40 {
		p := point{rng.Intn(128), rng.Intn(128)}
		if !injected[p] {
			injected[p] = true
			input.Image(0).SetValue(p.x, p.y, 100)
		}
	}

	mask, err := flagger.Run(strategy, input)
	if err != nil {
		t.Fatal(err)
	}
	hit := 0
	for p := range injected {
		if mask.Value(p.x, p.y) {
			hit++
		}
	}
	recall := float64(hit) / float64(len(injected))
	if recall < 0.9 {
		t.Errorf("recall = %.2f on injected RFI, want >= 0.9", recall)
	}
}

func TestRunAccumulatesPlots(t *testing.T) {
	flagger := NewFlagger()
	input, err := flagger.MakeImageSet(32, 32, 1)
	if err != nil {
		t.Fatal(err)
	}
	strategy := flagger.MakeStrategy(GenericTelescope, FlagNone, 0, 0, 0)
	if _, err := flagger.RunWithListener(strategy, input, NopListener{}, "bl-7"); err != nil {
		t.Fatal(err)
	}
	plots := flagger.Plots()
	if len(plots.Polarisations) == 0 {
		t.Error("no polarisation statistics accumulated")
	}
	if len(plots.Baselines) != 1 || plots.Baselines[0].BaselineID != "bl-7" {
		t.Errorf("baseline records = %+v", plots.Baselines)
	}
}
