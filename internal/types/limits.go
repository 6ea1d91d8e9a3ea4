package types

import "strconv"

// RawLimits is the threshold configuration driving step classification.
// The hard value of each pair is the strict threshold, the soft value the
// hysteresis band used when a group sits near the boundary. Constructed once
// per analysis run and never mutated mid-run.
type RawLimits struct {
	// CurrentHard/CurrentSoft split "really zero" current (rest and OCV
	// relaxation candidates) from "weakly zero" current, in amperes.
	CurrentHard float64 `yaml:"current_hard" msgpack:"current_hard"`
	CurrentSoft float64 `yaml:"current_soft" msgpack:"current_soft"`

	// IRChange is the minimum voltage jump, in volts, for a short pulse
	// to count as an internal-resistance measurement.
	IRChange float64 `yaml:"ir_change" msgpack:"ir_change"`

	// Stability thresholds are relative: a column is stable when its
	// span over the step divided by its mean magnitude stays below the
	// hard value, weakly stable below the soft value.
	StableChargeHard  float64 `yaml:"stable_charge_hard" msgpack:"stable_charge_hard"`
	StableChargeSoft  float64 `yaml:"stable_charge_soft" msgpack:"stable_charge_soft"`
	StableCurrentHard float64 `yaml:"stable_current_hard" msgpack:"stable_current_hard"`
	StableCurrentSoft float64 `yaml:"stable_current_soft" msgpack:"stable_current_soft"`
	StableVoltageHard float64 `yaml:"stable_voltage_hard" msgpack:"stable_voltage_hard"`
	StableVoltageSoft float64 `yaml:"stable_voltage_soft" msgpack:"stable_voltage_soft"`
}

// DefaultRawLimits returns the thresholds that work for most cyclers when
// values are SI-normalized. Callers with unusual cells (micro-electrodes,
// high-noise channels) supply their own.
func DefaultRawLimits() RawLimits {
	return RawLimits{
		CurrentHard:       1e-13,
		CurrentSoft:       1e-5,
		IRChange:          1e-5,
		StableChargeHard:  0.9,
		StableChargeSoft:  5.0,
		StableCurrentHard: 2.0,
		StableCurrentSoft: 4.0,
		StableVoltageHard: 2.0,
		StableVoltageSoft: 4.0,
	}
}

// StepKey identifies one (cycle, step) pair for overrides.
type StepKey struct {
	CycleIndex int `yaml:"cycle"`
	StepIndex  int `yaml:"step"`
}

// StepSpecs maps (cycle, step) pairs to caller-pinned step types. A pinned
// pair bypasses automatic classification entirely; all sub-steps of the pair
// receive the pinned type.
type StepSpecs map[StepKey]StepType

// Lookup returns the pinned type for a pair, if any.
func (s StepSpecs) Lookup(cycle, step int) (StepType, bool) {
	if s == nil {
		return "", false
	}
	t, ok := s[StepKey{CycleIndex: cycle, StepIndex: step}]
	return t, ok
}

// Validate rejects specs whose type is outside the fixed vocabulary.
func (s StepSpecs) Validate() error {
	for k, t := range s {
		if !t.Valid() {
			return &InvalidInputError{
				Invariant: "step specification type in fixed vocabulary",
				Detail:    "cycle " + strconv.Itoa(k.CycleIndex) + " step " + strconv.Itoa(k.StepIndex) + " has type " + string(t),
			}
		}
	}
	return nil
}

// NormContext carries the caller-supplied normalization quantities used by
// the summary aggregator. Zero values mean "not supplied" and disable the
// derived columns rather than erroring.
type NormContext struct {
	// Mass is the active electrode mass in grams.
	Mass float64 `yaml:"mass" msgpack:"mass"`
	// Area is the electrode area in square centimeters.
	Area float64 `yaml:"area" msgpack:"area"`
	// NominalCapacity is the rated cell capacity in ampere-hours, used
	// for C-rate columns.
	NominalCapacity float64 `yaml:"nominal_capacity" msgpack:"nominal_capacity"`
	// CRateMultiplier scales the C-rate columns; defaults to 1 when 0.
	CRateMultiplier float64 `yaml:"c_rate_multiplier" msgpack:"c_rate_multiplier"`
	// ReferenceCycle is the cycle whose capacities anchor the loss
	// columns (commonly 1 or 3). 0 leaves the loss columns as NaN.
	ReferenceCycle int `yaml:"reference_cycle" msgpack:"reference_cycle"`
}
