// Package config loads analysis run configuration: the classification
// thresholds, caller step-type overrides, normalization context and
// instrument selection. A configuration is loaded once per analysis run and
// treated as immutable afterwards.
package config

import "github.com/electrochem-tools/cellcycle/internal/types"

// ConfigProvider defines the interface for configuration data sources.
type ConfigProvider interface {
	// LoadConfig loads the complete run configuration.
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData is the complete configuration of one analysis run.
type ConfigData struct {
	// CellName labels the dataset in persisted artifacts.
	CellName string `yaml:"cell_name"`
	// Instrument selects the loader used for input files.
	Instrument string `yaml:"instrument"`

	RawLimits     types.RawLimits   `yaml:"raw_limits"`
	StepSpecs     types.StepSpecs   `yaml:"-"`
	Normalization types.NormContext `yaml:"normalization"`
}

// Defaults returns a usable configuration for a generic CSV export with
// default thresholds and no normalization context.
func Defaults() *ConfigData {
	return &ConfigData{
		Instrument: "generic_csv",
		RawLimits:  types.DefaultRawLimits(),
	}
}
