package rfi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lofar.yaml")

	original := MakeDefaultStrategy(MwaTelescope, FlagRobust|FlagTransients, 0, 0, 0)
	require.NoError(t, SaveStrategyFile(path, original))

	loaded, err := LoadStrategyFile(path)
	require.NoError(t, err)

	origNode, err := encodeAction(original)
	require.NoError(t, err)
	loadedNode, err := encodeAction(loaded)
	require.NoError(t, err)
	assert.Equal(t, origNode, loadedNode, "loaded tree differs from saved tree")
}

func TestStrategyFileRoundTripPreservesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")

	strategy := NewStrategy()
	st := NewSumThresholdAction()
	st.BaseSensitivity = 2.5
	st.ShrinkFactor = 1.2
	st.FrequencyDirectionFlagging = false
	strategy.Add(st)
	require.NoError(t, SaveStrategyFile(path, strategy))

	loaded, err := LoadStrategyFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Children(), 1)
	got, ok := loaded.Children()[0].(*SumThresholdAction)
	require.True(t, ok)
	assert.Equal(t, 2.5, got.BaseSensitivity)
	assert.Equal(t, 1.2, got.ShrinkFactor)
	assert.False(t, got.FrequencyDirectionFlagging)
	assert.True(t, got.TimeDirectionFlagging)
}

func TestStrategyFileUnknownType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	doc := `version: 1
strategy:
  type: strategy
  children:
    - type: frobnicate
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	_, err := LoadStrategyFile(path)
	require.Error(t, err)
	var configErr *ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestStrategyFileUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.yaml")
	doc := `version: 99
strategy:
  type: strategy
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	_, err := LoadStrategyFile(path)
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}

func TestStrategyFileMissing(t *testing.T) {
	_, err := LoadStrategyFile(filepath.Join(t.TempDir(), "absent.yaml"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
}

func TestLoadedStrategyRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.yaml")
	require.NoError(t, SaveStrategyFile(path, MakeDefaultStrategy(LofarTelescope, FlagNone, 0, 0, 0)))
	loaded, err := LoadStrategyFile(path)
	require.NoError(t, err)

	flagger := NewFlagger()
	input, err := flagger.MakeImageSet(64, 64, 1)
	require.NoError(t, err)
	for y := 0; y < 64; y++ {
		input.Image(0).SetValue(10, y, 100)
	}
	mask, err := flagger.Run(loaded, input)
	require.NoError(t, err)
	assert.True(t, mask.Value(10, 32), "loaded strategy did not flag the RFI column")
}
