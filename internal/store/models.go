package store

import (
	"database/sql/driver"
	"fmt"
	"math"
	"time"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// Float is a float64 column that maps NaN to SQL NULL and back. Summary
// columns use NaN for "not computable"; SQLite has no NaN representation,
// so NULL carries it through a save/load round trip.
type Float float64

// Value implements driver.Valuer.
func (f Float) Value() (driver.Value, error) {
	if math.IsNaN(float64(f)) {
		return nil, nil
	}
	return float64(f), nil
}

// Scan implements sql.Scanner.
func (f *Float) Scan(v interface{}) error {
	switch x := v.(type) {
	case nil:
		*f = Float(math.NaN())
	case float64:
		*f = Float(x)
	case int64:
		*f = Float(x)
	default:
		return fmt.Errorf("cannot scan %T into Float", v)
	}
	return nil
}

// Dataset is the metadata row identifying one persisted analysis session.
type Dataset struct {
	SessionID      string    `gorm:"primaryKey;column:session_id"`
	CellName       string    `gorm:"column:cell_name"`
	HasRaw         bool      `gorm:"column:has_raw"`
	HasEnergy      bool      `gorm:"column:has_energy"`
	HasResistance  bool      `gorm:"column:has_resistance"`
	HasTemperature bool      `gorm:"column:has_temperature"`
	HasDateTime    bool      `gorm:"column:has_datetime"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for Dataset.
func (Dataset) TableName() string {
	return "datasets"
}

// rawRow maps RawRecord onto the raw_records table. The optional channels
// (internal resistance, temperature) hold NaN when the instrument did not
// report them and go through Float so the NaN survives as NULL instead of
// scanning back as 0.
type rawRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement;column:id"`
	SessionID string `gorm:"column:session_id;index"`

	DataPoint         int64   `gorm:"column:data_point"`
	TestTime          float64 `gorm:"column:test_time"`
	StepTime          float64 `gorm:"column:step_time"`
	CycleIndex        int     `gorm:"column:cycle_index"`
	StepIndex         int     `gorm:"column:step_index"`
	Current           float64 `gorm:"column:current"`
	Voltage           float64 `gorm:"column:voltage"`
	ChargeCapacity    float64 `gorm:"column:charge_capacity"`
	DischargeCapacity float64 `gorm:"column:discharge_capacity"`
	ChargeEnergy      float64 `gorm:"column:charge_energy"`
	DischargeEnergy   float64 `gorm:"column:discharge_energy"`

	InternalResistance Float `gorm:"column:internal_resistance"`
	Temperature        Float `gorm:"column:temperature"`

	DateTime time.Time `gorm:"column:datetime"`
}

func (rawRow) TableName() string {
	return "raw_records"
}

func toRawRow(sessionID string, r types.RawRecord) rawRow {
	return rawRow{
		SessionID:          sessionID,
		DataPoint:          r.DataPoint,
		TestTime:           r.TestTime,
		StepTime:           r.StepTime,
		CycleIndex:         r.CycleIndex,
		StepIndex:          r.StepIndex,
		Current:            r.Current,
		Voltage:            r.Voltage,
		ChargeCapacity:     r.ChargeCapacity,
		DischargeCapacity:  r.DischargeCapacity,
		ChargeEnergy:       r.ChargeEnergy,
		DischargeEnergy:    r.DischargeEnergy,
		InternalResistance: Float(r.InternalResistance),
		Temperature:        Float(r.Temperature),
		DateTime:           r.DateTime,
	}
}

func (r rawRow) record() types.RawRecord {
	return types.RawRecord{
		DataPoint:          r.DataPoint,
		TestTime:           r.TestTime,
		StepTime:           r.StepTime,
		CycleIndex:         r.CycleIndex,
		StepIndex:          r.StepIndex,
		Current:            r.Current,
		Voltage:            r.Voltage,
		ChargeCapacity:     r.ChargeCapacity,
		DischargeCapacity:  r.DischargeCapacity,
		ChargeEnergy:       r.ChargeEnergy,
		DischargeEnergy:    r.DischargeEnergy,
		InternalResistance: float64(r.InternalResistance),
		Temperature:        float64(r.Temperature),
		DateTime:           r.DateTime,
	}
}

// statCols mirrors types.ColumnStats with NULL-safe floats.
type statCols struct {
	Min   Float `gorm:"column:min"`
	Max   Float `gorm:"column:max"`
	Mean  Float `gorm:"column:mean"`
	Std   Float `gorm:"column:std"`
	Start Float `gorm:"column:start"`
	End   Float `gorm:"column:end"`
	Delta Float `gorm:"column:delta"`
	Rate  Float `gorm:"column:rate"`
}

func toStatCols(cs types.ColumnStats) statCols {
	return statCols{
		Min: Float(cs.Min), Max: Float(cs.Max),
		Mean: Float(cs.Mean), Std: Float(cs.Std),
		Start: Float(cs.Start), End: Float(cs.End),
		Delta: Float(cs.Delta), Rate: Float(cs.Rate),
	}
}

func (s statCols) stats() types.ColumnStats {
	return types.ColumnStats{
		Min: float64(s.Min), Max: float64(s.Max),
		Mean: float64(s.Mean), Std: float64(s.Std),
		Start: float64(s.Start), End: float64(s.End),
		Delta: float64(s.Delta), Rate: float64(s.Rate),
	}
}

type stepRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement;column:id"`
	SessionID string `gorm:"column:session_id;index"`

	CycleIndex   int `gorm:"column:cycle_index"`
	StepIndex    int `gorm:"column:step_index"`
	SubStepIndex int `gorm:"column:sub_step_index"`

	Current           statCols `gorm:"embedded;embeddedPrefix:current_"`
	Voltage           statCols `gorm:"embedded;embeddedPrefix:voltage_"`
	ChargeCapacity    statCols `gorm:"embedded;embeddedPrefix:charge_"`
	DischargeCapacity statCols `gorm:"embedded;embeddedPrefix:discharge_"`

	StepTimeSpan float64 `gorm:"column:step_time_span"`
	PointCount   int     `gorm:"column:point_count"`
	Type         string  `gorm:"column:type"`
	SubType      string  `gorm:"column:sub_type"`
	Overridden   bool    `gorm:"column:overridden"`
}

func (stepRow) TableName() string {
	return "step_records"
}

func toStepRow(sessionID string, r types.StepRecord) stepRow {
	return stepRow{
		SessionID:         sessionID,
		CycleIndex:        r.CycleIndex,
		StepIndex:         r.StepIndex,
		SubStepIndex:      r.SubStepIndex,
		Current:           toStatCols(r.Current),
		Voltage:           toStatCols(r.Voltage),
		ChargeCapacity:    toStatCols(r.ChargeCapacity),
		DischargeCapacity: toStatCols(r.DischargeCapacity),
		StepTimeSpan:      r.StepTimeSpan,
		PointCount:        r.PointCount,
		Type:              string(r.Type),
		SubType:           r.SubType,
		Overridden:        r.Overridden,
	}
}

func (r stepRow) record() types.StepRecord {
	return types.StepRecord{
		CycleIndex:        r.CycleIndex,
		StepIndex:         r.StepIndex,
		SubStepIndex:      r.SubStepIndex,
		Current:           r.Current.stats(),
		Voltage:           r.Voltage.stats(),
		ChargeCapacity:    r.ChargeCapacity.stats(),
		DischargeCapacity: r.DischargeCapacity.stats(),
		StepTimeSpan:      r.StepTimeSpan,
		PointCount:        r.PointCount,
		Type:              types.StepType(r.Type),
		SubType:           r.SubType,
		Overridden:        r.Overridden,
	}
}

type summaryRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement;column:id"`
	SessionID string `gorm:"column:session_id;index"`

	CycleIndex int `gorm:"column:cycle_index"`

	ChargeCapacity         Float `gorm:"column:charge_capacity"`
	DischargeCapacity      Float `gorm:"column:discharge_capacity"`
	ChargeCapacityGrav     Float `gorm:"column:charge_capacity_grav"`
	DischargeCapacityGrav  Float `gorm:"column:discharge_capacity_grav"`
	ChargeCapacityAreal    Float `gorm:"column:charge_capacity_areal"`
	DischargeCapacityAreal Float `gorm:"column:discharge_capacity_areal"`

	CoulombicEfficiency          Float `gorm:"column:coulombic_efficiency"`
	CumulatedCoulombicEfficiency Float `gorm:"column:cumulated_coulombic_efficiency"`
	CoulombicDifference          Float `gorm:"column:coulombic_difference"`
	CumulatedCoulombicDifference Float `gorm:"column:cumulated_coulombic_difference"`

	CumulatedChargeCapacity    Float `gorm:"column:cumulated_charge_capacity"`
	CumulatedDischargeCapacity Float `gorm:"column:cumulated_discharge_capacity"`

	ChargeCapacityLoss             Float `gorm:"column:charge_capacity_loss"`
	DischargeCapacityLoss          Float `gorm:"column:discharge_capacity_loss"`
	CumulatedChargeCapacityLoss    Float `gorm:"column:cumulated_charge_capacity_loss"`
	CumulatedDischargeCapacityLoss Float `gorm:"column:cumulated_discharge_capacity_loss"`

	ShiftedChargeCapacity    Float `gorm:"column:shifted_charge_capacity"`
	ShiftedDischargeCapacity Float `gorm:"column:shifted_discharge_capacity"`

	LowLevelLoss  Float `gorm:"column:low_level"`
	HighLevelLoss Float `gorm:"column:high_level"`

	OCVFirstMin  Float `gorm:"column:ocv_first_min"`
	OCVFirstMax  Float `gorm:"column:ocv_first_max"`
	OCVSecondMin Float `gorm:"column:ocv_second_min"`
	OCVSecondMax Float `gorm:"column:ocv_second_max"`

	InternalResistance Float `gorm:"column:internal_resistance"`

	ChargeCRate    Float `gorm:"column:charge_c_rate"`
	DischargeCRate Float `gorm:"column:discharge_c_rate"`

	TemperatureLast Float `gorm:"column:temperature_last"`
	TemperatureMean Float `gorm:"column:temperature_mean"`
}

func (summaryRow) TableName() string {
	return "summary_records"
}

func toSummaryRow(sessionID string, r types.SummaryRecord) summaryRow {
	return summaryRow{
		SessionID:                      sessionID,
		CycleIndex:                     r.CycleIndex,
		ChargeCapacity:                 Float(r.ChargeCapacity),
		DischargeCapacity:              Float(r.DischargeCapacity),
		ChargeCapacityGrav:             Float(r.ChargeCapacityGrav),
		DischargeCapacityGrav:          Float(r.DischargeCapacityGrav),
		ChargeCapacityAreal:            Float(r.ChargeCapacityAreal),
		DischargeCapacityAreal:         Float(r.DischargeCapacityAreal),
		CoulombicEfficiency:            Float(r.CoulombicEfficiency),
		CumulatedCoulombicEfficiency:   Float(r.CumulatedCoulombicEfficiency),
		CoulombicDifference:            Float(r.CoulombicDifference),
		CumulatedCoulombicDifference:   Float(r.CumulatedCoulombicDifference),
		CumulatedChargeCapacity:        Float(r.CumulatedChargeCapacity),
		CumulatedDischargeCapacity:     Float(r.CumulatedDischargeCapacity),
		ChargeCapacityLoss:             Float(r.ChargeCapacityLoss),
		DischargeCapacityLoss:          Float(r.DischargeCapacityLoss),
		CumulatedChargeCapacityLoss:    Float(r.CumulatedChargeCapacityLoss),
		CumulatedDischargeCapacityLoss: Float(r.CumulatedDischargeCapacityLoss),
		ShiftedChargeCapacity:          Float(r.ShiftedChargeCapacity),
		ShiftedDischargeCapacity:       Float(r.ShiftedDischargeCapacity),
		LowLevelLoss:                   Float(r.LowLevelLoss),
		HighLevelLoss:                  Float(r.HighLevelLoss),
		OCVFirstMin:                    Float(r.OCVFirstMin),
		OCVFirstMax:                    Float(r.OCVFirstMax),
		OCVSecondMin:                   Float(r.OCVSecondMin),
		OCVSecondMax:                   Float(r.OCVSecondMax),
		InternalResistance:             Float(r.InternalResistance),
		ChargeCRate:                    Float(r.ChargeCRate),
		DischargeCRate:                 Float(r.DischargeCRate),
		TemperatureLast:                Float(r.TemperatureLast),
		TemperatureMean:                Float(r.TemperatureMean),
	}
}

func (r summaryRow) record() types.SummaryRecord {
	return types.SummaryRecord{
		CycleIndex:                     r.CycleIndex,
		ChargeCapacity:                 float64(r.ChargeCapacity),
		DischargeCapacity:              float64(r.DischargeCapacity),
		ChargeCapacityGrav:             float64(r.ChargeCapacityGrav),
		DischargeCapacityGrav:          float64(r.DischargeCapacityGrav),
		ChargeCapacityAreal:            float64(r.ChargeCapacityAreal),
		DischargeCapacityAreal:         float64(r.DischargeCapacityAreal),
		CoulombicEfficiency:            float64(r.CoulombicEfficiency),
		CumulatedCoulombicEfficiency:   float64(r.CumulatedCoulombicEfficiency),
		CoulombicDifference:            float64(r.CoulombicDifference),
		CumulatedCoulombicDifference:   float64(r.CumulatedCoulombicDifference),
		CumulatedChargeCapacity:        float64(r.CumulatedChargeCapacity),
		CumulatedDischargeCapacity:     float64(r.CumulatedDischargeCapacity),
		ChargeCapacityLoss:             float64(r.ChargeCapacityLoss),
		DischargeCapacityLoss:          float64(r.DischargeCapacityLoss),
		CumulatedChargeCapacityLoss:    float64(r.CumulatedChargeCapacityLoss),
		CumulatedDischargeCapacityLoss: float64(r.CumulatedDischargeCapacityLoss),
		ShiftedChargeCapacity:          float64(r.ShiftedChargeCapacity),
		ShiftedDischargeCapacity:       float64(r.ShiftedDischargeCapacity),
		LowLevelLoss:                   float64(r.LowLevelLoss),
		HighLevelLoss:                  float64(r.HighLevelLoss),
		OCVFirstMin:                    float64(r.OCVFirstMin),
		OCVFirstMax:                    float64(r.OCVFirstMax),
		OCVSecondMin:                   float64(r.OCVSecondMin),
		OCVSecondMax:                   float64(r.OCVSecondMax),
		InternalResistance:             float64(r.InternalResistance),
		ChargeCRate:                    float64(r.ChargeCRate),
		DischargeCRate:                 float64(r.DischargeCRate),
		TemperatureLast:                float64(r.TemperatureLast),
		TemperatureMean:                float64(r.TemperatureMean),
	}
}
