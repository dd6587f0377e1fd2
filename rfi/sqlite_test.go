package rfi

import (
	"testing"
)

func TestStatisticsStoreWriteAndQuery(t *testing.T) {
	store, err := OpenStatisticsStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	stats := MakeQualityStatistics(make([]float64, 4), []float64{1e8, 1.01e8, 1.02e8}, 2)
	input, err := NewImageSet(4, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	mask := NewMask(4, 3)
	mask.SetValue(0, 0, true)
	if err := stats.Collect(input, &FlagMask{mask: mask}); err != nil {
		t.Fatal(err)
	}

	runID, err := store.WriteStatistics(stats, "ant1-ant2")
	if err != nil {
		t.Fatal(err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}

	var rows int
	if err := store.DB.QueryRow(
		`SELECT COUNT(*) FROM quality_statistics WHERE RunID = ?`, runID).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 6 { // 2 polarizations x 3 channels
		t.Errorf("stored %d rows, want 6", rows)
	}

	var rfi int64
	if err := store.DB.QueryRow(
		`SELECT RFICount FROM quality_statistics WHERE RunID = ? AND Polarization = 0 AND Channel = 0`,
		runID).Scan(&rfi); err != nil {
		t.Fatal(err)
	}
	if rfi != 1 {
		t.Errorf("stored RFICount = %d, want 1", rfi)
	}
}

func TestStatisticsStoreSeparatesRuns(t *testing.T) {
	store, err := OpenStatisticsStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	stats := MakeQualityStatistics(make([]float64, 2), make([]float64, 2), 1)
	first, err := store.WriteStatistics(stats, "a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.WriteStatistics(stats, "a")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two writes share a run id")
	}
}
