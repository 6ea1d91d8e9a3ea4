package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawRecord is one normalized measurement sample from a battery cycler.
// Loaders are responsible for mapping instrument-native column names and
// units onto this struct before it enters the analysis core; the core never
// sees vendor naming. Values are SI-normalized: seconds, amperes, volts,
// ampere-hours, watt-hours, ohms, degrees Celsius.
type RawRecord struct {
	DataPoint          int64     `gorm:"column:data_point" msgpack:"data_point"`
	TestTime           float64   `gorm:"column:test_time" msgpack:"test_time"`
	StepTime           float64   `gorm:"column:step_time" msgpack:"step_time"`
	CycleIndex         int       `gorm:"column:cycle_index" msgpack:"cycle_index"`
	StepIndex          int       `gorm:"column:step_index" msgpack:"step_index"`
	Current            float64   `gorm:"column:current" msgpack:"current"`
	Voltage            float64   `gorm:"column:voltage" msgpack:"voltage"`
	ChargeCapacity     float64   `gorm:"column:charge_capacity" msgpack:"charge_capacity"`
	DischargeCapacity  float64   `gorm:"column:discharge_capacity" msgpack:"discharge_capacity"`
	ChargeEnergy       float64   `gorm:"column:charge_energy" msgpack:"charge_energy"`
	DischargeEnergy    float64   `gorm:"column:discharge_energy" msgpack:"discharge_energy"`
	InternalResistance float64   `gorm:"column:internal_resistance" msgpack:"internal_resistance"`
	Temperature        float64   `gorm:"column:temperature" msgpack:"temperature"`
	DateTime           time.Time `gorm:"column:datetime" msgpack:"datetime"`
}

// RawTable is the full normalized record stream for one dataset, possibly
// assembled from several instrument files via Append. The table is read-only
// to the analysis core; derived tables are always recomputed in full.
type RawTable struct {
	SessionID uuid.UUID   `msgpack:"session_id"`
	CellName  string      `msgpack:"cell_name"`
	Records   []RawRecord `msgpack:"records"`

	// Presence flags for optional instrument channels. Summary columns
	// derived from absent channels degrade to NaN rather than erroring.
	HasEnergy      bool `msgpack:"has_energy"`
	HasResistance  bool `msgpack:"has_resistance"`
	HasTemperature bool `msgpack:"has_temperature"`
	HasDateTime    bool `msgpack:"has_datetime"`
}

// NewRawTable creates an empty table with a fresh session ID.
func NewRawTable(cellName string) *RawTable {
	return &RawTable{
		SessionID: uuid.New(),
		CellName:  cellName,
	}
}

// Len returns the number of measurement samples.
func (t *RawTable) Len() int {
	return len(t.Records)
}

// LastCycle returns the highest cycle index in the table, or 0 when empty.
func (t *RawTable) LastCycle() int {
	if len(t.Records) == 0 {
		return 0
	}
	return t.Records[len(t.Records)-1].CycleIndex
}

// Cycles returns the distinct cycle indices present, in ascending order.
// Relies on the table invariant that cycle_index is non-decreasing.
func (t *RawTable) Cycles() []int {
	var cycles []int
	last := -1
	for i := range t.Records {
		if c := t.Records[i].CycleIndex; c != last {
			cycles = append(cycles, c)
			last = c
		}
	}
	return cycles
}

// Validate checks the caller contract on a loaded table: required values
// populated, data_point strictly increasing and cycle_index non-decreasing.
// A violation is returned as an *InvalidInputError and the table must not be
// fed into step or summary computation.
func (t *RawTable) Validate() error {
	if t == nil {
		return &InvalidInputError{Invariant: "raw table", Detail: "table is nil"}
	}
	for i := range t.Records {
		r := &t.Records[i]
		if r.CycleIndex < 1 {
			return &InvalidInputError{
				Invariant: "cycle_index >= 1",
				Detail:    fmt.Sprintf("row %d has cycle_index %d", i, r.CycleIndex),
			}
		}
		if r.StepIndex < 1 {
			return &InvalidInputError{
				Invariant: "step_index >= 1",
				Detail:    fmt.Sprintf("row %d has step_index %d", i, r.StepIndex),
			}
		}
		if i == 0 {
			continue
		}
		prev := &t.Records[i-1]
		if r.DataPoint <= prev.DataPoint {
			return &InvalidInputError{
				Invariant: "data_point strictly increasing",
				Detail:    fmt.Sprintf("row %d repeats or rewinds data_point", i),
			}
		}
		if r.CycleIndex < prev.CycleIndex {
			return &InvalidInputError{
				Invariant: "cycle_index non-decreasing",
				Detail:    fmt.Sprintf("row %d rewinds cycle_index", i),
			}
		}
	}
	return nil
}

// MergeOptions controls how a second file segment is stitched onto an
// existing table.
type MergeOptions struct {
	// ContinueCycle treats the incoming segment's first cycle as a
	// continuation of the current last cycle instead of a new one.
	ContinueCycle bool
}

// Append merges another file segment onto this table, renumbering the
// incoming data_point, test_time and cycle_index so the merged table stays
// monotonic. Instruments restart all three counters at the top of each file,
// so the second segment's values continue from the end of the first.
// step_time and step_index are left alone: they restart logically with each
// new step and the segmenter handles them file-agnostically.
func (t *RawTable) Append(other *RawTable, opts MergeOptions) {
	if other == nil || len(other.Records) == 0 {
		return
	}
	if len(t.Records) == 0 {
		t.Records = append(t.Records, other.Records...)
		t.mergeFlags(other)
		return
	}

	last := t.Records[len(t.Records)-1]
	cycleOffset := last.CycleIndex
	if opts.ContinueCycle {
		cycleOffset--
	}
	firstIncoming := other.Records[0].CycleIndex
	// Anchor on the incoming segment's own first value so numbering stays
	// strictly increasing whether the instrument restarts at 0 or 1.
	pointOffset := last.DataPoint - other.Records[0].DataPoint + 1

	for _, r := range other.Records {
		r.DataPoint += pointOffset
		r.TestTime += last.TestTime
		// Incoming cycles are renumbered relative to their own first
		// cycle so a file that restarts at 1 continues seamlessly.
		r.CycleIndex = r.CycleIndex - firstIncoming + 1 + cycleOffset
		t.Records = append(t.Records, r)
	}
	t.mergeFlags(other)
}

func (t *RawTable) mergeFlags(other *RawTable) {
	t.HasEnergy = t.HasEnergy || other.HasEnergy
	t.HasResistance = t.HasResistance || other.HasResistance
	t.HasTemperature = t.HasTemperature || other.HasTemperature
	t.HasDateTime = t.HasDateTime || other.HasDateTime
}
