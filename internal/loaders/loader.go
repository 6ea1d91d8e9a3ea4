// Package loaders parses instrument-native cycler exports into normalized
// raw tables. Each loader owns the vendor's column naming and units; the
// analysis core only ever sees the normalized schema.
package loaders

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// Loader parses one instrument file into a normalized, validated raw table.
type Loader interface {
	// Name is the registry key, e.g. "generic_csv".
	Name() string
	// Load parses the file at path into a raw table.
	Load(path string) (*types.RawTable, error)
}

// New returns the loader registered under the given instrument name.
func New(instrument string, logger *zap.SugaredLogger) (Loader, error) {
	switch instrument {
	case "generic_csv", "csv":
		return NewCSVLoader(logger), nil
	case "arbin_xlsx", "arbin":
		return NewArbinLoader(logger), nil
	}
	return nil, fmt.Errorf("unsupported instrument %q (supported: generic_csv, arbin_xlsx)", instrument)
}

// columnID identifies a normalized column during header mapping.
type columnID int

const (
	colUnknown columnID = iota
	colDataPoint
	colTestTime
	colStepTime
	colCycleIndex
	colStepIndex
	colCurrent
	colVoltage
	colChargeCapacity
	colDischargeCapacity
	colChargeEnergy
	colDischargeEnergy
	colInternalResistance
	colTemperature
	colDateTime
)

// headerAliases maps lowercased, unit-stripped instrument headers to
// normalized columns. Covers Arbin exports and the common generic naming.
var headerAliases = map[string]columnID{
	"data_point":          colDataPoint,
	"datapoint":           colDataPoint,
	"point":               colDataPoint,
	"test_time":           colTestTime,
	"testtime":            colTestTime,
	"test time":           colTestTime,
	"step_time":           colStepTime,
	"steptime":            colStepTime,
	"step time":           colStepTime,
	"cycle_index":         colCycleIndex,
	"cycle":               colCycleIndex,
	"cycle number":        colCycleIndex,
	"step_index":          colStepIndex,
	"step":                colStepIndex,
	"step number":         colStepIndex,
	"current":             colCurrent,
	"i":                   colCurrent,
	"voltage":             colVoltage,
	"v":                   colVoltage,
	"charge_capacity":     colChargeCapacity,
	"charge capacity":     colChargeCapacity,
	"discharge_capacity":  colDischargeCapacity,
	"discharge capacity":  colDischargeCapacity,
	"charge_energy":       colChargeEnergy,
	"charge energy":       colChargeEnergy,
	"discharge_energy":    colDischargeEnergy,
	"discharge energy":    colDischargeEnergy,
	"internal_resistance": colInternalResistance,
	"internal resistance": colInternalResistance,
	"ir":                  colInternalResistance,
	"temperature":         colTemperature,
	"aux_temperature":     colTemperature,
	"date_time":           colDateTime,
	"datetime":            colDateTime,
	"date time":           colDateTime,
}

// unitScales converts a parenthesized header unit to the SI scale applied
// to every value of the column.
var unitScales = map[string]float64{
	"a":   1,
	"ma":  1e-3,
	"ua":  1e-6,
	"µa":  1e-6,
	"v":   1,
	"mv":  1e-3,
	"ah":  1,
	"mah": 1e-3,
	"uah": 1e-6,
	"wh":  1,
	"mwh": 1e-3,
	"ohm": 1,
	"mohm": 1e-3,
	"s":   1,
	"sec": 1,
	"ms":  1e-3,
	"min": 60,
	"h":   3600,
	"hr":  3600,
	"c":   1,
}

// column is one mapped input column: its normalized identity plus the unit
// scale derived from the header.
type column struct {
	id    columnID
	scale float64
}

// mapHeader resolves one instrument header cell. "Current(mA)" yields
// colCurrent with scale 1e-3; unrecognized headers map to colUnknown and
// are skipped by the loaders.
func mapHeader(h string) column {
	name := strings.ToLower(strings.TrimSpace(h))
	scale := 1.0

	if i := strings.IndexAny(name, "(["); i >= 0 {
		unit := strings.Trim(name[i+1:], "()[] ")
		name = strings.TrimSpace(name[:i])
		if s, ok := unitScales[unit]; ok {
			scale = s
		}
	}

	id, ok := headerAliases[name]
	if !ok {
		return column{id: colUnknown, scale: 1}
	}
	return column{id: id, scale: scale}
}

// requiredColumns are the columns a file must provide; data_point and
// step_time are synthesized when missing.
var requiredColumns = []columnID{
	colTestTime, colCycleIndex, colStepIndex,
	colCurrent, colVoltage, colChargeCapacity, colDischargeCapacity,
}

func columnName(id columnID) string {
	switch id {
	case colDataPoint:
		return "data_point"
	case colTestTime:
		return "test_time"
	case colStepTime:
		return "step_time"
	case colCycleIndex:
		return "cycle_index"
	case colStepIndex:
		return "step_index"
	case colCurrent:
		return "current"
	case colVoltage:
		return "voltage"
	case colChargeCapacity:
		return "charge_capacity"
	case colDischargeCapacity:
		return "discharge_capacity"
	case colChargeEnergy:
		return "charge_energy"
	case colDischargeEnergy:
		return "discharge_energy"
	case colInternalResistance:
		return "internal_resistance"
	case colTemperature:
		return "temperature"
	case colDateTime:
		return "datetime"
	}
	return "unknown"
}

// checkRequired verifies every required column was found in the header.
func checkRequired(found map[columnID]bool) error {
	for _, id := range requiredColumns {
		if !found[id] {
			return &types.InvalidInputError{
				Invariant: "required column present",
				Detail:    "missing required column " + columnName(id),
			}
		}
	}
	return nil
}
