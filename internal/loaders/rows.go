package loaders

import (
	"math"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// buildTable assembles a raw table from a mapped header and string rows.
// Shared by the CSV and workbook loaders: once a file is reduced to header
// plus cell strings, normalization is instrument-independent.
func buildTable(cols []column, rows [][]string, logger *zap.SugaredLogger) (*types.RawTable, error) {
	found := make(map[columnID]bool, len(cols))
	for _, c := range cols {
		if c.id != colUnknown {
			found[c.id] = true
		}
	}
	if err := checkRequired(found); err != nil {
		return nil, err
	}

	table := types.NewRawTable("")
	table.HasEnergy = found[colChargeEnergy] && found[colDischargeEnergy]
	table.HasResistance = found[colInternalResistance]
	table.HasTemperature = found[colTemperature]
	table.HasDateTime = found[colDateTime]

	skipped := 0
	stepStart := math.NaN()
	var prev *types.RawRecord

	for _, row := range rows {
		rec := types.RawRecord{
			InternalResistance: math.NaN(),
			Temperature:        math.NaN(),
		}
		ok := true
		hasPoint, hasStepTime := false, false

		for i, c := range cols {
			if c.id == colUnknown || i >= len(row) {
				continue
			}
			cell := row[i]
			if cell == "" {
				continue
			}

			if c.id == colDateTime {
				if ts, err := cast.ToTimeE(cell); err == nil {
					rec.DateTime = ts
				} else if ts, ok := parseTime(cell); ok {
					rec.DateTime = ts
				}
				continue
			}

			v, err := cast.ToFloat64E(cell)
			if err != nil {
				ok = false
				break
			}
			v *= c.scale

			switch c.id {
			case colDataPoint:
				rec.DataPoint = int64(v)
				hasPoint = true
			case colTestTime:
				rec.TestTime = v
			case colStepTime:
				rec.StepTime = v
				hasStepTime = true
			case colCycleIndex:
				rec.CycleIndex = int(v)
			case colStepIndex:
				rec.StepIndex = int(v)
			case colCurrent:
				rec.Current = v
			case colVoltage:
				rec.Voltage = v
			case colChargeCapacity:
				rec.ChargeCapacity = v
			case colDischargeCapacity:
				rec.DischargeCapacity = v
			case colChargeEnergy:
				rec.ChargeEnergy = v
			case colDischargeEnergy:
				rec.DischargeEnergy = v
			case colInternalResistance:
				rec.InternalResistance = v
			case colTemperature:
				rec.Temperature = v
			}
		}

		if !ok {
			skipped++
			continue
		}

		if !hasPoint {
			rec.DataPoint = int64(len(table.Records) + 1)
		}
		if !hasStepTime {
			// Derive step time from test time at each step boundary.
			if prev == nil || prev.CycleIndex != rec.CycleIndex || prev.StepIndex != rec.StepIndex {
				stepStart = rec.TestTime
			}
			rec.StepTime = rec.TestTime - stepStart
		}

		table.Records = append(table.Records, rec)
		prev = &table.Records[len(table.Records)-1]
	}

	if skipped > 0 {
		logger.Warnw("skipped unparseable rows", "rows", skipped)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// parseTime is a strict fallback for instruments whose timestamps cast
// cannot handle; currently the Arbin export format.
func parseTime(cell string) (time.Time, bool) {
	for _, layout := range []string{
		"01/02/2006 15:04:05",
		"2006-01-02 15:04:05",
	} {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
