package types

import "github.com/google/uuid"

// SummaryRecord is one row of the per-cycle summary table. Columns that
// cannot be computed for a cycle (missing relaxation steps, unset reference
// cycle, absent optional channels) hold NaN rather than zero so downstream
// plotting can distinguish "absent" from "measured zero".
type SummaryRecord struct {
	CycleIndex int `gorm:"column:cycle_index" msgpack:"cycle_index"`

	ChargeCapacity    float64 `gorm:"column:charge_capacity" msgpack:"charge_capacity"`
	DischargeCapacity float64 `gorm:"column:discharge_capacity" msgpack:"discharge_capacity"`

	// Gravimetric (per-mass) and areal capacities, NaN without a
	// normalization context.
	ChargeCapacityGrav     float64 `gorm:"column:charge_capacity_grav" msgpack:"charge_capacity_grav"`
	DischargeCapacityGrav  float64 `gorm:"column:discharge_capacity_grav" msgpack:"discharge_capacity_grav"`
	ChargeCapacityAreal    float64 `gorm:"column:charge_capacity_areal" msgpack:"charge_capacity_areal"`
	DischargeCapacityAreal float64 `gorm:"column:discharge_capacity_areal" msgpack:"discharge_capacity_areal"`

	CoulombicEfficiency          float64 `gorm:"column:coulombic_efficiency" msgpack:"coulombic_efficiency"`
	CumulatedCoulombicEfficiency float64 `gorm:"column:cumulated_coulombic_efficiency" msgpack:"cumulated_coulombic_efficiency"`
	CoulombicDifference          float64 `gorm:"column:coulombic_difference" msgpack:"coulombic_difference"`
	CumulatedCoulombicDifference float64 `gorm:"column:cumulated_coulombic_difference" msgpack:"cumulated_coulombic_difference"`

	CumulatedChargeCapacity    float64 `gorm:"column:cumulated_charge_capacity" msgpack:"cumulated_charge_capacity"`
	CumulatedDischargeCapacity float64 `gorm:"column:cumulated_discharge_capacity" msgpack:"cumulated_discharge_capacity"`

	ChargeCapacityLoss             float64 `gorm:"column:charge_capacity_loss" msgpack:"charge_capacity_loss"`
	DischargeCapacityLoss          float64 `gorm:"column:discharge_capacity_loss" msgpack:"discharge_capacity_loss"`
	CumulatedChargeCapacityLoss    float64 `gorm:"column:cumulated_charge_capacity_loss" msgpack:"cumulated_charge_capacity_loss"`
	CumulatedDischargeCapacityLoss float64 `gorm:"column:cumulated_discharge_capacity_loss" msgpack:"cumulated_discharge_capacity_loss"`

	// Endpoint-slippage ("shifted") capacities tracking electrode drift
	// across cycles; see the aggregator for the exact recurrence.
	ShiftedChargeCapacity    float64 `gorm:"column:shifted_charge_capacity" msgpack:"shifted_charge_capacity"`
	ShiftedDischargeCapacity float64 `gorm:"column:shifted_discharge_capacity" msgpack:"shifted_discharge_capacity"`

	// Loss partition between within-cycle irreversible loss and
	// cycle-to-cycle capacity fade, in percent.
	LowLevelLoss  float64 `gorm:"column:low_level" msgpack:"low_level"`
	HighLevelLoss float64 `gorm:"column:high_level" msgpack:"high_level"`

	OCVFirstMin  float64 `gorm:"column:ocv_first_min" msgpack:"ocv_first_min"`
	OCVFirstMax  float64 `gorm:"column:ocv_first_max" msgpack:"ocv_first_max"`
	OCVSecondMin float64 `gorm:"column:ocv_second_min" msgpack:"ocv_second_min"`
	OCVSecondMax float64 `gorm:"column:ocv_second_max" msgpack:"ocv_second_max"`

	InternalResistance float64 `gorm:"column:internal_resistance" msgpack:"internal_resistance"`

	ChargeCRate    float64 `gorm:"column:charge_c_rate" msgpack:"charge_c_rate"`
	DischargeCRate float64 `gorm:"column:discharge_c_rate" msgpack:"discharge_c_rate"`

	TemperatureLast float64 `gorm:"column:temperature_last" msgpack:"temperature_last"`
	TemperatureMean float64 `gorm:"column:temperature_mean" msgpack:"temperature_mean"`
}

// SummaryTable holds one SummaryRecord per cycle, ordered by cycle_index.
type SummaryTable struct {
	SessionID uuid.UUID       `msgpack:"session_id"`
	Records   []SummaryRecord `msgpack:"records"`
}

// ForCycle returns the summary row for one cycle, or nil when absent.
func (t *SummaryTable) ForCycle(cycle int) *SummaryRecord {
	for i := range t.Records {
		if t.Records[i].CycleIndex == cycle {
			return &t.Records[i]
		}
	}
	return nil
}
