package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/kaiw/visflag/rfi"
)

// App wires the flagging library to the configured inputs and outputs.
type App struct {
	Config   *rfi.Config
	Flagger  *rfi.Flagger
	Strategy *rfi.Strategy

	Publisher *rfi.SummaryPublisher
	Store     *rfi.StatisticsStore

	// RunID labels this invocation in MQTT payloads. Statistics rows
	// carry the run id that the store assigns on each write.
	RunID string

	// CLI flags
	ConfigFile string
	RenderPNG  bool
	RenderSVG  bool
}

// NewApp creates an App around a fresh flagger.
func NewApp() *App {
	return &App{
		Flagger: rfi.NewFlagger(),
		RunID:   uuid.New().String(),
	}
}

// Setup loads the configuration, resolves the strategy and connects
// the optional exporters.
func (a *App) Setup() error {
	config, err := rfi.LoadConfig(a.ConfigFile)
	if err != nil {
		return err
	}
	a.Config = config

	if config.StrategyFile != "" {
		strategy, err := a.Flagger.LoadStrategy(config.StrategyFile)
		if err != nil {
			return err
		}
		a.Strategy = strategy
		glog.Infof("Loaded strategy from %s", config.StrategyFile)
	} else {
		a.Strategy = a.Flagger.MakeStrategy(config.TelescopeId(), config.StrategyFlags(), 0, 0, 0)
		glog.Infof("Built default %s strategy (flags 0x%x)", config.Telescope, config.StrategyFlags())
	}

	if config.StatisticsDB != "" {
		store, err := rfi.OpenStatisticsStore(config.StatisticsDB)
		if err != nil {
			return err
		}
		a.Store = store
	}

	if config.MQTT.Broker != "" {
		client, err := rfi.ConnectBroker(config.MQTT.Broker, config.MQTT.ClientID)
		if err != nil {
			return err
		}
		a.Publisher = rfi.NewSummaryPublisher(client, config.MQTT.Prefix)
		glog.Infof("Publishing summaries to %s", config.MQTT.Broker)
	}
	return nil
}

// Close releases exporter resources.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}

// baselineResult carries one worker's outcome back to the collector.
type baselineResult struct {
	baselineID string
	input      *rfi.ImageSet
	mask       *rfi.FlagMask
	err        error
}

// Run flags every baseline dump in the data directory with a worker
// pool, then writes the configured outputs.
func (a *App) Run() error {
	files, err := a.dumpFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no baseline dumps (*.json) in %s", a.Config.DataDir)
	}

	workers := a.Config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}
	glog.Infof("Flagging %d baselines with %d workers", len(files), workers)

	jobs := make(chan string)
	results := make(chan baselineResult)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- a.flagOne(path)
			}
		}()
	}
	go func() {
		for _, path := range files {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	failures := 0
	for result := range results {
		if result.err != nil {
			failures++
			glog.Errorf("Baseline %s: %v", result.baselineID, result.err)
			continue
		}
		if err := a.handleResult(result); err != nil {
			failures++
			glog.Errorf("Baseline %s outputs: %v", result.baselineID, err)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d baselines failed", failures, len(files))
	}
	return nil
}

// dumpFiles lists the baseline dump files in the data directory.
func (a *App) dumpFiles() ([]string, error) {
	entries, err := os.ReadDir(a.Config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(a.Config.DataDir, entry.Name()))
	}
	return files, nil
}

// flagOne loads one dump and runs the shared strategy on it.
func (a *App) flagOne(path string) baselineResult {
	baselineID, input, err := rfi.LoadBaselineDump(path)
	if err != nil {
		return baselineResult{baselineID: path, err: err}
	}
	if baselineID == "" {
		baselineID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	mask, err := a.Flagger.RunWithListener(a.Strategy, input, glogListener{}, baselineID)
	if err != nil {
		return baselineResult{baselineID: baselineID, err: err}
	}
	flagged := mask.Mask().Count()
	total := mask.Width() * mask.Height()
	glog.Infof("Baseline %s: flagged %d/%d samples (%.2f%%)",
		baselineID, flagged, total, 100*float64(flagged)/float64(total))
	return baselineResult{baselineID: baselineID, input: input, mask: mask}
}

// handleResult writes the configured outputs for one flagged baseline.
func (a *App) handleResult(result baselineResult) error {
	if a.Store != nil {
		if err := a.storeStatistics(result); err != nil {
			return err
		}
	}
	if a.Publisher != nil {
		summary := rfi.Summarize(a.RunID, result.baselineID, result.mask)
		if err := a.Publisher.Publish(summary); err != nil {
			return err
		}
	}
	if !a.RenderPNG && !a.RenderSVG {
		return nil
	}
	outDir := a.Config.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if a.RenderPNG {
		path := filepath.Join(outDir, result.baselineID+"-mask.png")
		if err := a.renderPNG(path, result); err != nil {
			return err
		}
	}
	if a.RenderSVG {
		path := filepath.Join(outDir, result.baselineID+"-mask.svg")
		if err := a.renderSVG(path, result); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) storeStatistics(result baselineResult) error {
	polCount := 1
	if result.input.ImageCount() > 1 {
		polCount = result.input.ImageCount() / 2
	}
	channels := make([]float64, result.input.Height())
	scans := make([]float64, result.input.Width())
	stats := rfi.MakeQualityStatistics(scans, channels, polCount)
	if err := stats.Collect(result.input, result.mask); err != nil {
		return err
	}
	runID, err := a.Store.WriteStatistics(stats, result.baselineID)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Stored statistics for %s under run %s", result.baselineID, runID)
	return nil
}

func (a *App) renderPNG(path string, result baselineResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()
	renderer := &rfi.WaterfallRenderer{LabelChannels: true}
	return renderer.Render(file, result.input.Image(0), result.mask.Mask())
}

func (a *App) renderSVG(path string, result baselineResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()
	plotter := &rfi.VectorPlotter{Scale: 2.0}
	return plotter.PlotMask(file, result.mask.Mask())
}

// glogListener forwards strategy progress to glog at high verbosity.
type glogListener struct{}

func (glogListener) OnStartAction(name string) { glog.V(2).Infof("action: %s", name) }
func (glogListener) OnInfo(message string)     { glog.V(1).Info(message) }
func (glogListener) OnError(err error)         { glog.Errorf("strategy error: %v", err) }
func (glogListener) Cancelled() bool           { return false }
