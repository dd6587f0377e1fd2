package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/kaiw/visflag/rfi"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configFile  = flag.String("config", "config.yaml", "Path to configuration file")
	renderPNG   = flag.Bool("render", false, "Write a waterfall PNG with the mask overlaid per baseline")
	renderSVG   = flag.Bool("svg", false, "Write an SVG outline plot of the mask per baseline")
	strategyOut = flag.String("strategy-out", "", "Write the configured strategy as a YAML document and exit")
	plotStats   = flag.String("plot-stats", "", "After flagging, write the polarization statistics plot SVG to this path")
)

func main() {
	flag.Parse()
	glog.Infof("visflag version: %s", Version)

	app := NewApp()
	app.ConfigFile = *configFile
	app.RenderPNG = *renderPNG
	app.RenderSVG = *renderSVG

	if err := app.Setup(); err != nil {
		glog.Exitf("Setup failed: %v", err)
	}
	defer app.Close()

	if *strategyOut != "" {
		if err := rfi.SaveStrategyFile(*strategyOut, app.Strategy); err != nil {
			glog.Exitf("Writing strategy: %v", err)
		}
		glog.Infof("Wrote strategy to %s", *strategyOut)
		return
	}

	if err := app.Run(); err != nil {
		glog.Exitf("Flagging failed: %v", err)
	}

	if *plotStats != "" {
		if err := writeStatsPlot(app, *plotStats); err != nil {
			glog.Exitf("Writing statistics plot: %v", err)
		}
		glog.Infof("Wrote statistics plot to %s", *plotStats)
	}
}

// writeStatsPlot renders the accumulated polarization statistics.
func writeStatsPlot(app *App, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	plots := app.Flagger.Plots()
	plotter := &rfi.VectorPlotter{}
	return plotter.PlotPolarizationStatistics(file, plots.Polarisations)
}
