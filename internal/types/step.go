package types

import "github.com/google/uuid"

// StepType classifies what the cycler was doing during one step. The
// vocabulary is fixed; the classifier in internal/steps assigns these from
// numeric thresholds and callers may override them per (cycle, step).
type StepType string

const (
	StepCharge      StepType = "charge"       // constant-current charge
	StepDischarge   StepType = "discharge"    // constant-current discharge
	StepChargeCV    StepType = "charge_cv"    // CV tail of a CC charge step
	StepDischargeCV StepType = "discharge_cv" // CV tail of a CC discharge step
	StepCVCharge    StepType = "cv_charge"    // standalone constant-voltage charge
	StepCVDischarge StepType = "cv_discharge" // standalone constant-voltage discharge
	StepOCVRlxUp    StepType = "ocvrlx_up"    // open-circuit relaxation, voltage rising
	StepOCVRlxDown  StepType = "ocvrlx_down"  // open-circuit relaxation, voltage falling
	StepIR          StepType = "ir"           // internal-resistance pulse
	StepRest        StepType = "rest"         // zero-current hold, flat voltage
	StepNotKnown    StepType = "not_known"    // unclassifiable or degraded group
)

// IsCharge reports whether the type accumulates charge capacity.
func (s StepType) IsCharge() bool {
	switch s {
	case StepCharge, StepChargeCV, StepCVCharge:
		return true
	}
	return false
}

// IsDischarge reports whether the type accumulates discharge capacity.
func (s StepType) IsDischarge() bool {
	switch s {
	case StepDischarge, StepDischargeCV, StepCVDischarge:
		return true
	}
	return false
}

// IsRelaxation reports whether the type is an open-circuit relaxation.
func (s StepType) IsRelaxation() bool {
	return s == StepOCVRlxUp || s == StepOCVRlxDown
}

// Valid reports whether s is one of the fixed vocabulary values.
func (s StepType) Valid() bool {
	switch s {
	case StepCharge, StepDischarge, StepChargeCV, StepDischargeCV,
		StepCVCharge, StepCVDischarge, StepOCVRlxUp, StepOCVRlxDown,
		StepIR, StepRest, StepNotKnown:
		return true
	}
	return false
}

// ColumnStats is the order-independent aggregate of one numeric column over
// a step's rows. Delta is End-Start; Rate is Delta over elapsed step time and
// NaN when the step has no elapsed time.
type ColumnStats struct {
	Min   float64 `gorm:"column:min" msgpack:"min"`
	Max   float64 `gorm:"column:max" msgpack:"max"`
	Mean  float64 `gorm:"column:mean" msgpack:"mean"`
	Std   float64 `gorm:"column:std" msgpack:"std"`
	Start float64 `gorm:"column:start" msgpack:"start"`
	End   float64 `gorm:"column:end" msgpack:"end"`
	Delta float64 `gorm:"column:delta" msgpack:"delta"`
	Rate  float64 `gorm:"column:rate" msgpack:"rate"`
}

// StepRecord is one row of the step table: the aggregate statistics and
// classified type of a single (cycle, step, sub-step) group.
type StepRecord struct {
	CycleIndex   int `gorm:"column:cycle_index" msgpack:"cycle_index"`
	StepIndex    int `gorm:"column:step_index" msgpack:"step_index"`
	SubStepIndex int `gorm:"column:sub_step_index" msgpack:"sub_step_index"`

	Current           ColumnStats `gorm:"embedded;embeddedPrefix:current_" msgpack:"current"`
	Voltage           ColumnStats `gorm:"embedded;embeddedPrefix:voltage_" msgpack:"voltage"`
	ChargeCapacity    ColumnStats `gorm:"embedded;embeddedPrefix:charge_" msgpack:"charge_capacity"`
	DischargeCapacity ColumnStats `gorm:"embedded;embeddedPrefix:discharge_" msgpack:"discharge_capacity"`

	StepTimeSpan float64 `gorm:"column:step_time_span" msgpack:"step_time_span"`
	PointCount   int     `gorm:"column:point_count" msgpack:"point_count"`

	Type StepType `gorm:"column:type" msgpack:"type"`

	// SubType names the classifier rule family that assigned Type
	// (relaxation, ir_pulse, constant_current, constant_voltage). It is a
	// diagnostic vocabulary separate from the StepType one; overridden
	// records leave it empty.
	SubType string `gorm:"column:sub_type" msgpack:"sub_type"`

	// Overridden marks types pinned by a caller-supplied step
	// specification rather than the automatic classifier.
	Overridden bool `gorm:"column:overridden" msgpack:"overridden"`
}

// StepTable holds one StepRecord per (cycle, step, sub-step) group, ordered
// by cycle then first appearance within the cycle.
type StepTable struct {
	SessionID uuid.UUID    `msgpack:"session_id"`
	Records   []StepRecord `msgpack:"records"`
}

// ForCycle returns the records belonging to one cycle, in table order.
func (t *StepTable) ForCycle(cycle int) []StepRecord {
	var out []StepRecord
	for _, r := range t.Records {
		if r.CycleIndex == cycle {
			out = append(out, r)
		}
	}
	return out
}

// Cycles returns the distinct cycle indices present, in ascending order.
func (t *StepTable) Cycles() []int {
	var cycles []int
	last := -1
	for _, r := range t.Records {
		if r.CycleIndex != last {
			cycles = append(cycles, r.CycleIndex)
			last = r.CycleIndex
		}
	}
	return cycles
}
