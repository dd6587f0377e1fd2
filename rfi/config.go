package rfi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the driver configuration.
type Config struct {
	// Telescope selects the default strategy: generic, lofar, mwa or
	// wsrt.
	Telescope string `yaml:"telescope"`
	// Flags lists strategy flag names (e.g. transients, robust,
	// clear-flags) applied to the default strategy.
	Flags []string `yaml:"flags,omitempty"`
	// StrategyFile, when set, overrides the default strategy with a
	// strategy document loaded from this path.
	StrategyFile string `yaml:"strategyFile,omitempty"`

	// DataDir holds the baseline dump files to flag.
	DataDir string `yaml:"dataDir"`
	// OutputDir receives mask images and SVG plots.
	OutputDir string `yaml:"outputDir,omitempty"`
	// Workers is the number of baselines flagged concurrently; 0 means
	// one worker per CPU.
	Workers int `yaml:"workers,omitempty"`

	// StatisticsDB, when set, is the sqlite file quality statistics
	// are written to.
	StatisticsDB string `yaml:"statisticsDb,omitempty"`

	MQTT MQTTConfig `yaml:"mqtt,omitempty"`
}

// MQTTConfig configures the optional summary publisher.
type MQTTConfig struct {
	Broker   string `yaml:"broker,omitempty"`
	ClientID string `yaml:"clientId,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// strategyFlagNames maps config names onto flag bits.
var strategyFlagNames = map[string]uint{
	"low-frequency":    FlagLowFrequency,
	"high-frequency":   FlagHighFrequency,
	"large-bandwidth":  FlagLargeBandwidth,
	"small-bandwidth":  FlagSmallBandwidth,
	"transients":       FlagTransients,
	"robust":           FlagRobust,
	"fast":             FlagFast,
	"off-axis-sources": FlagOffAxisSources,
	"unsensitive":      FlagUnsensitive,
	"sensitive":        FlagSensitive,
	"gui-friendly":     FlagGuiFriendly,
	"clear-flags":      FlagClearFlags,
	"auto-correlation": FlagAutoCorrelation,
}

// telescopeNames maps config names onto telescope ids.
var telescopeNames = map[string]TelescopeId{
	"generic": GenericTelescope,
	"lofar":   LofarTelescope,
	"mwa":     MwaTelescope,
	"wsrt":    WsrtTelescope,
}

// LoadConfig loads and validates the driver configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if config.Telescope == "" {
		config.Telescope = "generic"
	}
	if _, ok := telescopeNames[config.Telescope]; !ok {
		return nil, fmt.Errorf("unknown telescope %q", config.Telescope)
	}
	for _, name := range config.Flags {
		if _, ok := strategyFlagNames[name]; !ok {
			return nil, fmt.Errorf("unknown strategy flag %q", name)
		}
	}
	if config.DataDir == "" {
		return nil, fmt.Errorf("dataDir is required")
	}
	if config.Workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0, got %d", config.Workers)
	}
	return &config, nil
}

// TelescopeId resolves the configured telescope.
func (c *Config) TelescopeId() TelescopeId {
	return telescopeNames[c.Telescope]
}

// StrategyFlags resolves the configured flag names into a bitset.
func (c *Config) StrategyFlags() uint {
	flags := FlagNone
	for _, name := range c.Flags {
		flags |= strategyFlagNames[name]
	}
	return flags
}
