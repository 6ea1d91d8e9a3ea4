package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// YAMLProvider implements ConfigProvider for YAML configuration files.
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider.
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{filename: filename}
}

// stepSpecYAML is the list form step overrides take in YAML; the map form
// used internally does not marshal naturally.
type stepSpecYAML struct {
	Cycle int    `yaml:"cycle"`
	Step  int    `yaml:"step"`
	Type  string `yaml:"type"`
}

// LoadConfig loads the complete configuration from the YAML file. Omitted
// raw limits fall back to the defaults field by field is deliberately not
// attempted: a raw_limits block replaces the defaults wholesale, while an
// absent block keeps them.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlConfig struct {
		CellName      string            `yaml:"cell_name"`
		Instrument    string            `yaml:"instrument"`
		RawLimits     *types.RawLimits  `yaml:"raw_limits"`
		StepSpecs     []stepSpecYAML    `yaml:"step_specifications"`
		Normalization types.NormContext `yaml:"normalization"`
	}
	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	config := Defaults()
	config.CellName = yamlConfig.CellName
	if yamlConfig.Instrument != "" {
		config.Instrument = yamlConfig.Instrument
	}
	if yamlConfig.RawLimits != nil {
		config.RawLimits = *yamlConfig.RawLimits
	}
	config.Normalization = yamlConfig.Normalization

	if len(yamlConfig.StepSpecs) > 0 {
		config.StepSpecs = make(types.StepSpecs, len(yamlConfig.StepSpecs))
		for _, s := range yamlConfig.StepSpecs {
			key := types.StepKey{CycleIndex: s.Cycle, StepIndex: s.Step}
			config.StepSpecs[key] = types.StepType(s.Type)
		}
		if err := config.StepSpecs.Validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// IsReadOnly reports whether this provider supports writes. YAML files are
// read-only.
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers.
func (y *YAMLProvider) Close() error {
	return nil
}
