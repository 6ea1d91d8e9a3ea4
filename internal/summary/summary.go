// Package summary aggregates a step table (plus the raw table it came from)
// into one record per cycle: capacities, efficiencies, cumulative and
// shifted quantities, relaxation-voltage extrema, C-rates and temperature
// aggregates.
package summary

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// Aggregator derives summary tables. Like the step builder it is stateless
// across calls; the normalization context is fixed at construction.
type Aggregator struct {
	norm   types.NormContext
	logger *zap.SugaredLogger
}

// NewAggregator creates a summary aggregator with the given normalization
// context. Zero-valued context fields disable the corresponding columns.
func NewAggregator(norm types.NormContext, logger *zap.SugaredLogger) *Aggregator {
	return &Aggregator{norm: norm, logger: logger}
}

// accumulator carries the running state of the cycle fold: cumulative sums
// and the endpoint-slippage position. Cumulative capacity columns are
// non-decreasing by construction since per-cycle capacities are never
// negative.
type accumulator struct {
	charge        float64 // cumulated charge capacity
	discharge     float64 // cumulated discharge capacity
	efficiency    float64 // cumulated coulombic efficiency
	difference    float64 // cumulated coulombic difference
	chargeLoss    float64 // cumulated charge capacity loss
	dischargeLoss float64 // cumulated discharge capacity loss
	endpoint      float64 // current slippage endpoint position
	prevCharge    float64 // previous cycle's charge capacity
	hasPrev       bool
}

// Process builds the summary table. An empty step table yields an empty
// summary table. A reference cycle that is configured but absent from the
// data is a caller-contract violation.
func (a *Aggregator) Process(steps *types.StepTable, raw *types.RawTable) (*types.SummaryTable, error) {
	out := &types.SummaryTable{SessionID: steps.SessionID}
	cycles := steps.Cycles()
	if len(cycles) == 0 {
		return out, nil
	}

	refCharge, refDischarge := math.NaN(), math.NaN()
	if a.norm.ReferenceCycle > 0 {
		ref := steps.ForCycle(a.norm.ReferenceCycle)
		if len(ref) == 0 {
			return nil, &types.InvalidInputError{
				Invariant: "reference cycle present in data",
				Detail:    "no steps for configured reference cycle",
			}
		}
		refCharge = terminalCapacity(ref, true)
		refDischarge = terminalCapacity(ref, false)
	}

	acc := accumulator{}
	for _, cycle := range cycles {
		rec := a.buildCycle(cycle, steps.ForCycle(cycle), raw, refCharge, refDischarge, &acc)
		out.Records = append(out.Records, rec)
	}

	a.logger.Debugw("summary table built", "cycles", len(out.Records))
	return out, nil
}

// buildCycle computes one summary record and advances the fold accumulator.
func (a *Aggregator) buildCycle(cycle int, cycleSteps []types.StepRecord, raw *types.RawTable,
	refCharge, refDischarge float64, acc *accumulator) types.SummaryRecord {

	rec := types.SummaryRecord{CycleIndex: cycle}

	// Capacity columns in the raw table are cumulative within a step
	// run, so the per-cycle capacity is the terminal (maximum) value
	// over the typed steps, not a sum across them. A cycle without a
	// charge (discharge) step reports 0.
	charge := terminalCapacity(cycleSteps, true)
	discharge := terminalCapacity(cycleSteps, false)
	rec.ChargeCapacity = charge
	rec.DischargeCapacity = discharge

	rec.ChargeCapacityGrav = normalize(charge, a.norm.Mass)
	rec.DischargeCapacityGrav = normalize(discharge, a.norm.Mass)
	rec.ChargeCapacityAreal = normalize(charge, a.norm.Area)
	rec.DischargeCapacityAreal = normalize(discharge, a.norm.Area)

	// Coulombic efficiency is undefined, never a division by zero, when
	// the cycle has no charge capacity.
	if charge > 0 {
		rec.CoulombicEfficiency = discharge / charge * 100
	} else {
		rec.CoulombicEfficiency = math.NaN()
	}
	rec.CoulombicDifference = charge - discharge

	// Loss columns anchor on the caller's reference cycle; without one
	// they stay NaN, not zero.
	rec.ChargeCapacityLoss = refCharge - charge
	rec.DischargeCapacityLoss = refDischarge - discharge

	// Within-cycle irreversible loss versus cycle-to-cycle fade, both in
	// percent (formula choice documented in DESIGN.md).
	if charge > 0 {
		rec.LowLevelLoss = (charge - discharge) / charge * 100
	} else {
		rec.LowLevelLoss = math.NaN()
	}
	if acc.hasPrev && acc.prevCharge > 0 {
		rec.HighLevelLoss = (acc.prevCharge - charge) / acc.prevCharge * 100
	} else {
		rec.HighLevelLoss = math.NaN()
	}

	// Endpoint slippage: the charge endpoint advances from the previous
	// discharge endpoint by this cycle's charge capacity; the discharge
	// endpoint walks back by the discharge capacity. The distance from
	// zero accumulates cycle-to-cycle drift.
	rec.ShiftedChargeCapacity = acc.endpoint + charge
	rec.ShiftedDischargeCapacity = rec.ShiftedChargeCapacity - discharge
	acc.endpoint = rec.ShiftedDischargeCapacity

	// Cumulative columns via the fold accumulator.
	acc.charge += charge
	acc.discharge += discharge
	if !math.IsNaN(rec.CoulombicEfficiency) {
		acc.efficiency += rec.CoulombicEfficiency
	}
	acc.difference += rec.CoulombicDifference
	if !math.IsNaN(rec.ChargeCapacityLoss) {
		acc.chargeLoss += rec.ChargeCapacityLoss
	}
	if !math.IsNaN(rec.DischargeCapacityLoss) {
		acc.dischargeLoss += rec.DischargeCapacityLoss
	}
	rec.CumulatedChargeCapacity = acc.charge
	rec.CumulatedDischargeCapacity = acc.discharge
	rec.CumulatedCoulombicEfficiency = acc.efficiency
	rec.CumulatedCoulombicDifference = acc.difference
	if a.norm.ReferenceCycle > 0 {
		rec.CumulatedChargeCapacityLoss = acc.chargeLoss
		rec.CumulatedDischargeCapacityLoss = acc.dischargeLoss
	} else {
		rec.CumulatedChargeCapacityLoss = math.NaN()
		rec.CumulatedDischargeCapacityLoss = math.NaN()
	}

	acc.prevCharge = charge
	acc.hasPrev = true

	a.fillRelaxation(&rec, cycleSteps)
	a.fillCRates(&rec, cycleSteps)
	a.fillRawAggregates(&rec, raw, cycle)

	return rec
}

// terminalCapacity returns the terminal capacity over a cycle's charge- or
// discharge-typed steps: the maximum observed cumulative value. Cycles
// without a matching step report 0.
func terminalCapacity(cycleSteps []types.StepRecord, charge bool) float64 {
	found := false
	max := 0.0
	for _, s := range cycleSteps {
		var v float64
		switch {
		case charge && s.Type.IsCharge():
			v = s.ChargeCapacity.Max
		case !charge && s.Type.IsDischarge():
			v = s.DischargeCapacity.Max
		default:
			continue
		}
		if math.IsNaN(v) {
			continue
		}
		found = true
		if v > max {
			max = v
		}
	}
	if !found {
		return 0
	}
	return max
}

func normalize(v, by float64) float64 {
	if by <= 0 {
		return math.NaN()
	}
	return v / by
}

// fillRelaxation records the voltage extrema of the first and second OCV
// relaxation steps of the cycle; missing relaxations leave NaN.
func (a *Aggregator) fillRelaxation(rec *types.SummaryRecord, cycleSteps []types.StepRecord) {
	rec.OCVFirstMin = math.NaN()
	rec.OCVFirstMax = math.NaN()
	rec.OCVSecondMin = math.NaN()
	rec.OCVSecondMax = math.NaN()

	seen := 0
	for _, s := range cycleSteps {
		if !s.Type.IsRelaxation() {
			continue
		}
		seen++
		switch seen {
		case 1:
			rec.OCVFirstMin = s.Voltage.Min
			rec.OCVFirstMax = s.Voltage.Max
		case 2:
			rec.OCVSecondMin = s.Voltage.Min
			rec.OCVSecondMax = s.Voltage.Max
			return
		}
	}
}

// fillCRates derives C-rate columns from the dominant (longest) charge and
// discharge steps. Only computed with a positive nominal capacity.
func (a *Aggregator) fillCRates(rec *types.SummaryRecord, cycleSteps []types.StepRecord) {
	rec.ChargeCRate = math.NaN()
	rec.DischargeCRate = math.NaN()
	if a.norm.NominalCapacity <= 0 {
		return
	}
	mult := a.norm.CRateMultiplier
	if mult == 0 {
		mult = 1
	}

	if span := dominantSpan(cycleSteps, true); span > 0 {
		rec.ChargeCRate = mult / (span / 3600)
	}
	if span := dominantSpan(cycleSteps, false); span > 0 {
		rec.DischargeCRate = mult / (span / 3600)
	}
}

// dominantSpan returns the step-time span of the longest charge- or
// discharge-typed step in the cycle.
func dominantSpan(cycleSteps []types.StepRecord, charge bool) float64 {
	span := 0.0
	for _, s := range cycleSteps {
		if charge && !s.Type.IsCharge() {
			continue
		}
		if !charge && !s.Type.IsDischarge() {
			continue
		}
		if s.StepTimeSpan > span {
			span = s.StepTimeSpan
		}
	}
	return span
}

// fillRawAggregates pulls per-cycle aggregates straight from the raw table:
// internal resistance and temperature, when those channels exist.
func (a *Aggregator) fillRawAggregates(rec *types.SummaryRecord, raw *types.RawTable, cycle int) {
	rec.InternalResistance = math.NaN()
	rec.TemperatureLast = math.NaN()
	rec.TemperatureMean = math.NaN()
	if raw == nil {
		return
	}

	var temps []float64
	lastIR, lastTemp := math.NaN(), math.NaN()
	for i := range raw.Records {
		r := &raw.Records[i]
		if r.CycleIndex != cycle {
			continue
		}
		if raw.HasResistance && !math.IsNaN(r.InternalResistance) {
			lastIR = r.InternalResistance
		}
		if raw.HasTemperature && !math.IsNaN(r.Temperature) {
			temps = append(temps, r.Temperature)
			lastTemp = r.Temperature
		}
	}
	rec.InternalResistance = lastIR
	if len(temps) > 0 {
		rec.TemperatureLast = lastTemp
		rec.TemperatureMean = stat.Mean(temps, nil)
	}
}
