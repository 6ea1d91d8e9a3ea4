package steps

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// columnStats reduces one numeric column of a step group. All reductions
// are commutative/associative so the result is independent of row order;
// start/end come from the table's data_point ordering, which segmentation
// preserves. span is the elapsed step time used for the rate column.
func columnStats(values []float64, span float64) types.ColumnStats {
	if len(values) == 0 {
		return types.ColumnStats{
			Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), Std: math.NaN(),
			Start: math.NaN(), End: math.NaN(), Delta: math.NaN(), Rate: math.NaN(),
		}
	}

	cs := types.ColumnStats{
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Mean:  stat.Mean(values, nil),
		Start: values[0],
		End:   values[len(values)-1],
	}
	cs.Delta = cs.End - cs.Start
	if len(values) > 1 {
		cs.Std = stat.StdDev(values, nil)
	}
	if span > 0 {
		cs.Rate = cs.Delta / span
	} else {
		cs.Rate = math.NaN()
	}
	return cs
}

// buildRecord computes the numeric half of a StepRecord from a group. The
// type is filled in afterwards by the classifier.
func buildRecord(g *group) types.StepRecord {
	n := len(g.rows)
	current := make([]float64, n)
	voltage := make([]float64, n)
	charge := make([]float64, n)
	discharge := make([]float64, n)
	for i, r := range g.rows {
		current[i] = r.Current
		voltage[i] = r.Voltage
		charge[i] = r.ChargeCapacity
		discharge[i] = r.DischargeCapacity
	}

	span := 0.0
	if n > 0 {
		span = g.rows[n-1].StepTime - g.rows[0].StepTime
	}

	return types.StepRecord{
		CycleIndex:        g.cycle,
		StepIndex:         g.step,
		SubStepIndex:      g.subStep,
		Current:           columnStats(current, span),
		Voltage:           columnStats(voltage, span),
		ChargeCapacity:    columnStats(charge, span),
		DischargeCapacity: columnStats(discharge, span),
		StepTimeSpan:      span,
		PointCount:        n,
	}
}
