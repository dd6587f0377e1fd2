package rfi

import (
	"encoding/json"
	"fmt"
	"os"
)

// BaselineDump is the JSON interchange format the driver reads: one
// baseline's images as row-major value arrays without padding.
type BaselineDump struct {
	Baseline string      `json:"baseline"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Images   [][]float32 `json:"images"`
}

// LoadBaselineDump reads and validates a baseline dump file and
// unpacks it into an ImageSet.
func LoadBaselineDump(path string) (string, *ImageSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, &IOError{Op: "reading baseline dump", Err: err}
	}
	var dump BaselineDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return "", nil, &IOError{Op: "parsing baseline dump", Err: err}
	}
	if dump.Width <= 0 || dump.Height <= 0 {
		return "", nil, &ConfigError{Reason: fmt.Sprintf(
			"baseline dump %s has invalid size %dx%d", path, dump.Width, dump.Height)}
	}
	set, err := NewImageSet(dump.Width, dump.Height, len(dump.Images))
	if err != nil {
		return "", nil, err
	}
	for i, values := range dump.Images {
		if len(values) != dump.Width*dump.Height {
			return "", nil, &ConfigError{Reason: fmt.Sprintf(
				"baseline dump %s image %d has %d values, want %d",
				path, i, len(values), dump.Width*dump.Height)}
		}
		img := set.Image(i)
		for y := 0; y < dump.Height; y++ {
			row := values[y*dump.Width : (y+1)*dump.Width]
			for x, v := range row {
				img.SetValue(x, y, v)
			}
		}
	}
	return dump.Baseline, set, nil
}

// SaveBaselineDump writes an image set as a baseline dump file.
func SaveBaselineDump(path, baseline string, set *ImageSet) error {
	dump := BaselineDump{
		Baseline: baseline,
		Width:    set.Width(),
		Height:   set.Height(),
		Images:   make([][]float32, set.ImageCount()),
	}
	for i := 0; i < set.ImageCount(); i++ {
		img := set.Image(i)
		values := make([]float32, 0, dump.Width*dump.Height)
		for y := 0; y < dump.Height; y++ {
			for x := 0; x < dump.Width; x++ {
				values = append(values, img.Value(x, y))
			}
		}
		dump.Images[i] = values
	}
	data, err := json.MarshalIndent(&dump, "", "  ")
	if err != nil {
		return &IOError{Op: "encoding baseline dump", Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &IOError{Op: "writing baseline dump", Err: err}
	}
	return nil
}
