package steps

import (
	"math"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// Classification is an ordered decision table: the first rule that matches a
// group's aggregate statistics wins. Keeping the rules as plain predicate
// functions (rather than a hierarchy per step type) keeps each one
// independently testable.

const (
	// monotoneFrac is the fraction of non-reversing sample pairs required
	// to call a relaxation voltage trace monotonic.
	monotoneFrac = 0.9

	// irPulseMaxSeconds bounds the elapsed step time of an
	// internal-resistance pulse.
	irPulseMaxSeconds = 2.0

	// cvDecayFactor: a CV step's current magnitude must fall at least
	// this much from start to end to count as decaying under the soft
	// voltage-stability band.
	cvDecayFactor = 0.5
)

type rule struct {
	name  string
	match func(rec *types.StepRecord, g *group, prev *types.StepRecord, lim types.RawLimits) (types.StepType, bool)
}

// rules in fixed precedence order; ties between plausible types are broken
// by this ordering alone.
var rules = []rule{
	{"relaxation", matchRelaxation},
	{"ir_pulse", matchIRPulse},
	{"constant_current", matchConstantCurrent},
	{"constant_voltage", matchConstantVoltage},
}

// classify assigns a type to rec. prev is the previously classified record
// of the same (cycle, step) pair with the preceding sub-step index, or nil;
// the CV rule uses it to tell a CC-into-CV tail from a standalone CV step.
func classify(rec *types.StepRecord, g *group, prev *types.StepRecord, lim types.RawLimits) types.StepType {
	if g.degraded || rec.PointCount < 2 {
		return types.StepNotKnown
	}
	for _, r := range rules {
		if t, ok := r.match(rec, g, prev, lim); ok {
			rec.SubType = r.name
			return t
		}
	}
	return types.StepNotKnown
}

// relPercent is the relative span of a column in percent of its mean
// magnitude: the stability measure the stable_* thresholds apply to.
func relPercent(delta, mean float64) float64 {
	m := math.Abs(mean)
	if m < 1e-12 {
		if delta == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(delta) / m * 100
}

// matchRelaxation handles near-zero-current groups: flat voltage is rest,
// a monotonic drift is OCV relaxation in the drift direction. A voltage
// trace that drifts past the stability band without a monotonic shape
// matches nothing here (and no later rule accepts near-zero current), so
// such groups end up not_known.
func matchRelaxation(rec *types.StepRecord, g *group, _ *types.StepRecord, lim types.RawLimits) (types.StepType, bool) {
	if math.Abs(rec.Current.Mean) >= lim.CurrentHard {
		return "", false
	}
	vRel := relPercent(rec.Voltage.Delta, rec.Voltage.Mean)
	switch {
	case vRel <= lim.StableVoltageHard:
		return types.StepRest, true
	case rec.Voltage.Delta > 0 && g.voltageUpFrac >= monotoneFrac:
		return types.StepOCVRlxUp, true
	case rec.Voltage.Delta < 0 && g.voltageDownFrac >= monotoneFrac:
		return types.StepOCVRlxDown, true
	}
	return "", false
}

// matchIRPulse catches abrupt short pulses used for internal-resistance
// measurements: near-zero elapsed time, a voltage jump past ir_change, and
// a current clearly above the rest threshold.
func matchIRPulse(rec *types.StepRecord, _ *group, _ *types.StepRecord, lim types.RawLimits) (types.StepType, bool) {
	if rec.StepTimeSpan > irPulseMaxSeconds {
		return "", false
	}
	if math.Abs(rec.Voltage.Delta) < lim.IRChange {
		return "", false
	}
	if math.Abs(rec.Current.Mean) <= lim.CurrentHard {
		return "", false
	}
	return types.StepIR, true
}

// matchConstantCurrent handles galvanostatic steps: a clearly non-zero,
// stable current whose voltage trends with the current sign.
func matchConstantCurrent(rec *types.StepRecord, g *group, _ *types.StepRecord, lim types.RawLimits) (types.StepType, bool) {
	if math.Abs(rec.Current.Mean) < lim.CurrentSoft {
		return "", false
	}
	iRel := relPercent(rec.Current.Delta, rec.Current.Mean)
	stable := iRel <= lim.StableCurrentHard
	// Hysteresis band: accept weak current stability when the voltage
	// trace backs up the polarity with a monotonic trend.
	if !stable && iRel <= lim.StableCurrentSoft {
		stable = (rec.Current.Mean > 0 && g.voltageUpFrac >= monotoneFrac) ||
			(rec.Current.Mean < 0 && g.voltageDownFrac >= monotoneFrac)
	}
	if !stable {
		return "", false
	}

	// Allow the voltage to sit inside its flat band against the trend;
	// beyond that the polarity and voltage direction must agree.
	flat := math.Abs(rec.Voltage.Mean) * lim.StableVoltageHard / 100
	switch {
	case rec.Current.Mean > 0 && rec.Voltage.Delta >= -flat:
		return types.StepCharge, true
	case rec.Current.Mean < 0 && rec.Voltage.Delta <= flat:
		return types.StepDischarge, true
	}
	return "", false
}

// matchConstantVoltage handles potentiostatic steps: held voltage with a
// decaying, unstable current. When the group is the tail of a
// constant-current step of the same polarity (same step index, previous
// sub-step classified charge/discharge) it is the CC step's CV phase;
// otherwise it is a standalone CV step.
func matchConstantVoltage(rec *types.StepRecord, _ *group, prev *types.StepRecord, lim types.RawLimits) (types.StepType, bool) {
	if math.Abs(rec.Current.Mean) <= lim.CurrentHard {
		return "", false
	}
	iRel := relPercent(rec.Current.Delta, rec.Current.Mean)
	if iRel <= lim.StableCurrentSoft {
		return "", false // current too stable to be a CV taper
	}
	vRel := relPercent(rec.Voltage.Delta, rec.Voltage.Mean)
	decaying := math.Abs(rec.Current.End) <= math.Abs(rec.Current.Start)*cvDecayFactor
	if vRel > lim.StableVoltageHard {
		if !(decaying && vRel <= lim.StableVoltageSoft) {
			return "", false
		}
	}

	charging := rec.Current.Start > 0
	tail := prev != nil &&
		((charging && prev.Type == types.StepCharge) ||
			(!charging && prev.Type == types.StepDischarge))
	switch {
	case charging && tail:
		return types.StepChargeCV, true
	case charging:
		return types.StepCVCharge, true
	case tail:
		return types.StepDischargeCV, true
	default:
		return types.StepCVDischarge, true
	}
}
