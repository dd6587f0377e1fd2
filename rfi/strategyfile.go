package rfi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// strategyFileVersion is the current strategy document version. Loading
// a document with a different version fails with ConfigError.
const strategyFileVersion = 1

// strategyDocument is the on-disk form of a strategy.
type strategyDocument struct {
	Version int          `yaml:"version"`
	Root    strategyNode `yaml:"strategy"`
}

// strategyNode serializes one action: its type name, its settings and
// its child list.
type strategyNode struct {
	Type     string                 `yaml:"type"`
	Settings map[string]interface{} `yaml:"settings,omitempty"`
	Children []strategyNode         `yaml:"children,omitempty"`
}

// SaveStrategyFile writes the strategy tree as a YAML document.
func SaveStrategyFile(path string, strategy *Strategy) error {
	root, err := encodeAction(strategy)
	if err != nil {
		return err
	}
	doc := strategyDocument{Version: strategyFileVersion, Root: root}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return &IOError{Op: "encoding strategy", Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &IOError{Op: "writing strategy file", Err: err}
	}
	return nil
}

// LoadStrategyFile reads a strategy tree from a YAML document.
func LoadStrategyFile(path string) (*Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "reading strategy file", Err: err}
	}
	var doc strategyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &IOError{Op: "parsing strategy file", Err: err}
	}
	if doc.Version != strategyFileVersion {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"unsupported strategy file version %d", doc.Version)}
	}
	if doc.Root.Type != "strategy" {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"strategy document root must have type %q, got %q", "strategy", doc.Root.Type)}
	}
	strategy := NewStrategy()
	for _, childNode := range doc.Root.Children {
		child, err := decodeAction(childNode)
		if err != nil {
			return nil, err
		}
		strategy.Add(child)
	}
	return strategy, nil
}

// encodeAction converts an action (and its subtree) to its document
// node.
func encodeAction(action Action) (strategyNode, error) {
	node := strategyNode{Type: action.Name()}
	switch a := action.(type) {
	case *Strategy, *ForEachPolarisationBlock, *CombineFlagResults:
		// block actions without settings
	case *SetImageAction:
		node.Settings = map[string]interface{}{"source": int(a.Source)}
	case *SetFlaggingAction:
		node.Settings = map[string]interface{}{"mode": int(a.Mode)}
	case *SumThresholdAction:
		node.Settings = map[string]interface{}{
			"base-sensitivity":    a.BaseSensitivity,
			"shrink-factor":       a.ShrinkFactor,
			"time-direction":      a.TimeDirectionFlagging,
			"frequency-direction": a.FrequencyDirectionFlagging,
		}
	case *HighPassFilterAction:
		node.Settings = map[string]interface{}{
			"window-width":      a.WindowWidth,
			"window-height":     a.WindowHeight,
			"h-kernel-sigma-sq": a.HKernelSigmaSq,
			"v-kernel-sigma-sq": a.VKernelSigmaSq,
			"mode":              int(a.Mode),
		}
	case *FrequencySelectionAction, *TimeSelectionAction, *CalibratePassbandAction, *WriteFlagsAction:
	case *StatisticalFlagAction:
		node.Settings = map[string]interface{}{
			"enlarge-time":        a.EnlargeTimeSize,
			"enlarge-frequency":   a.EnlargeFrequencySize,
			"min-good-time-ratio": a.MinimumGoodTimeRatio,
			"min-good-freq-ratio": a.MinimumGoodFrequencyRatio,
		}
	case *PlotAction:
		node.Settings = map[string]interface{}{"kind": int(a.Kind)}
	case *BaselineSelectionAction:
		node.Settings = map[string]interface{}{"preparation-step": a.PreparationStep}
	case *ForEachComplexComponentBlock:
		node.Settings = map[string]interface{}{
			"on-amplitude":           a.OnAmplitude,
			"on-phase":               a.OnPhase,
			"on-real":                a.OnReal,
			"on-imaginary":           a.OnImaginary,
			"restore-from-amplitude": a.RestoreFromAmplitude,
		}
	case *IterationBlock:
		node.Settings = map[string]interface{}{
			"iteration-count":   a.IterationCount,
			"sensitivity-start": a.SensitivityStart,
		}
	case *ChangeResolutionAction:
		node.Settings = map[string]interface{}{
			"time-decrease-factor":      a.TimeDecreaseFactor,
			"frequency-decrease-factor": a.FrequencyDecreaseFactor,
		}
	default:
		return strategyNode{}, &ConfigError{Reason: fmt.Sprintf(
			"cannot serialize action type %q", action.Name())}
	}
	if block, ok := action.(ChildActions); ok {
		for _, child := range block.Children() {
			childNode, err := encodeAction(child)
			if err != nil {
				return strategyNode{}, err
			}
			node.Children = append(node.Children, childNode)
		}
	}
	return node, nil
}

// decodeAction converts a document node (and its subtree) back to an
// action.
func decodeAction(node strategyNode) (Action, error) {
	settings := nodeSettings{values: node.Settings}
	var action Action
	switch node.Type {
	case "set-image":
		action = &SetImageAction{Source: SetImageSource(settings.intOr("source", 0))}
	case "set-flagging":
		action = &SetFlaggingAction{Mode: FlaggingMode(settings.intOr("mode", 0))}
	case "sum-threshold":
		a := NewSumThresholdAction()
		a.BaseSensitivity = settings.floatOr("base-sensitivity", a.BaseSensitivity)
		a.ShrinkFactor = settings.floatOr("shrink-factor", a.ShrinkFactor)
		a.TimeDirectionFlagging = settings.boolOr("time-direction", a.TimeDirectionFlagging)
		a.FrequencyDirectionFlagging = settings.boolOr("frequency-direction", a.FrequencyDirectionFlagging)
		action = a
	case "high-pass-filter":
		a := NewHighPassFilterAction()
		a.WindowWidth = settings.intOr("window-width", a.WindowWidth)
		a.WindowHeight = settings.intOr("window-height", a.WindowHeight)
		a.HKernelSigmaSq = settings.floatOr("h-kernel-sigma-sq", a.HKernelSigmaSq)
		a.VKernelSigmaSq = settings.floatOr("v-kernel-sigma-sq", a.VKernelSigmaSq)
		a.Mode = HighPassFilterMode(settings.intOr("mode", int(a.Mode)))
		action = a
	case "frequency-selection":
		action = &FrequencySelectionAction{}
	case "time-selection":
		action = &TimeSelectionAction{}
	case "statistical-flagging":
		a := NewStatisticalFlagAction()
		a.EnlargeTimeSize = settings.intOr("enlarge-time", a.EnlargeTimeSize)
		a.EnlargeFrequencySize = settings.intOr("enlarge-frequency", a.EnlargeFrequencySize)
		a.MinimumGoodTimeRatio = settings.floatOr("min-good-time-ratio", a.MinimumGoodTimeRatio)
		a.MinimumGoodFrequencyRatio = settings.floatOr("min-good-freq-ratio", a.MinimumGoodFrequencyRatio)
		action = a
	case "calibrate-passband":
		action = &CalibratePassbandAction{}
	case "plot":
		action = &PlotAction{Kind: PlotKind(settings.intOr("kind", 0))}
	case "baseline-selection":
		action = &BaselineSelectionAction{PreparationStep: settings.boolOr("preparation-step", false)}
	case "write-flags":
		action = &WriteFlagsAction{}
	case "for-each-polarisation":
		action = &ForEachPolarisationBlock{}
	case "for-each-complex-component":
		a := &ForEachComplexComponentBlock{}
		a.OnAmplitude = settings.boolOr("on-amplitude", false)
		a.OnPhase = settings.boolOr("on-phase", false)
		a.OnReal = settings.boolOr("on-real", false)
		a.OnImaginary = settings.boolOr("on-imaginary", false)
		a.RestoreFromAmplitude = settings.boolOr("restore-from-amplitude", false)
		action = a
	case "iteration":
		action = &IterationBlock{
			IterationCount:   settings.intOr("iteration-count", 2),
			SensitivityStart: settings.floatOr("sensitivity-start", 4.0),
		}
	case "combine-flag-results":
		action = &CombineFlagResults{}
	case "change-resolution":
		action = &ChangeResolutionAction{
			TimeDecreaseFactor:      settings.intOr("time-decrease-factor", 1),
			FrequencyDecreaseFactor: settings.intOr("frequency-decrease-factor", 1),
		}
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"unknown action type %q in strategy file", node.Type)}
	}
	if len(node.Children) > 0 {
		adder, ok := action.(interface{ Add(Action) })
		if !ok {
			return nil, &ConfigError{Reason: fmt.Sprintf(
				"action type %q cannot have children", node.Type)}
		}
		for _, childNode := range node.Children {
			child, err := decodeAction(childNode)
			if err != nil {
				return nil, err
			}
			adder.Add(child)
		}
	}
	return action, nil
}

// nodeSettings reads typed values out of a decoded settings map,
// falling back to defaults for missing keys.
type nodeSettings struct {
	values map[string]interface{}
}

func (s nodeSettings) intOr(key string, def int) int {
	switch v := s.values[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func (s nodeSettings) floatOr(key string, def float64) float64 {
	switch v := s.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

func (s nodeSettings) boolOr(key string, def bool) bool {
	if v, ok := s.values[key].(bool); ok {
		return v
	}
	return def
}
