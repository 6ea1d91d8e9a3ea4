package steps

import (
	"math"
	"testing"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// mkGroup builds a group plus its aggregate record from parallel samples.
func mkGroup(t *testing.T, cycle, step, subStep int, stepTime, current, voltage []float64) (*types.StepRecord, *group) {
	t.Helper()
	g := &group{cycle: cycle, step: step, subStep: subStep}
	for i := range current {
		g.rows = append(g.rows, types.RawRecord{
			DataPoint:  int64(i + 1),
			StepTime:   stepTime[i],
			CycleIndex: cycle,
			StepIndex:  step,
			Current:    current[i],
			Voltage:    voltage[i],
		})
	}
	finishGroup(g)
	rec := buildRecord(g)
	return &rec, g
}

// ramp returns n evenly spaced values from lo to hi inclusive.
func ramp(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// flat returns n copies of v.
func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassify(t *testing.T) {
	lim := types.DefaultRawLimits()

	tests := []struct {
		name     string
		stepTime []float64
		current  []float64
		voltage  []float64
		prev     *types.StepRecord
		want     types.StepType
	}{
		{
			name:     "zero current flat voltage is rest",
			stepTime: ramp(0, 600, 6),
			current:  flat(0, 6),
			voltage:  flat(3.7, 6),
			want:     types.StepRest,
		},
		{
			name:     "zero current rising voltage is upward relaxation",
			stepTime: ramp(0, 600, 6),
			current:  flat(0, 6),
			voltage:  ramp(3.0, 3.2, 6),
			want:     types.StepOCVRlxUp,
		},
		{
			name:     "zero current falling voltage is downward relaxation",
			stepTime: ramp(0, 600, 6),
			current:  flat(0, 6),
			voltage:  ramp(4.1, 3.9, 6),
			want:     types.StepOCVRlxDown,
		},
		{
			name:     "zero current non-monotonic drift is not_known",
			stepTime: ramp(0, 600, 6),
			current:  flat(0, 6),
			voltage:  []float64{3.0, 3.3, 3.1, 3.4, 3.2, 3.5},
			want:     types.StepNotKnown,
		},
		{
			name:     "short pulse with voltage jump is ir",
			stepTime: ramp(0, 0.5, 5),
			current:  flat(1.0, 5),
			voltage:  ramp(3.5, 3.6, 5),
			want:     types.StepIR,
		},
		{
			name:     "stable positive current rising voltage is charge",
			stepTime: ramp(0, 3600, 10),
			current:  flat(1.0, 10),
			voltage:  ramp(3.0, 4.0, 10),
			want:     types.StepCharge,
		},
		{
			name:     "stable negative current falling voltage is discharge",
			stepTime: ramp(0, 3600, 10),
			current:  flat(-1.0, 10),
			voltage:  ramp(4.0, 3.0, 10),
			want:     types.StepDischarge,
		},
		{
			name:     "decaying current held voltage standalone is cv_charge",
			stepTime: ramp(0, 3600, 10),
			current:  ramp(1.0, 0.05, 10),
			voltage:  flat(4.2, 10),
			want:     types.StepCVCharge,
		},
		{
			name:     "decaying negative current held voltage standalone is cv_discharge",
			stepTime: ramp(0, 3600, 10),
			current:  ramp(-1.0, -0.05, 10),
			voltage:  flat(2.8, 10),
			want:     types.StepCVDischarge,
		},
		{
			name:     "cv tail after cc charge of same step is charge_cv",
			stepTime: ramp(0, 3600, 10),
			current:  ramp(1.0, 0.05, 10),
			voltage:  flat(4.2, 10),
			prev: &types.StepRecord{
				CycleIndex: 1, StepIndex: 1, SubStepIndex: 1,
				Type: types.StepCharge,
			},
			want: types.StepChargeCV,
		},
		{
			name:     "cv tail after cc discharge of same step is discharge_cv",
			stepTime: ramp(0, 3600, 10),
			current:  ramp(-1.0, -0.05, 10),
			voltage:  flat(2.8, 10),
			prev: &types.StepRecord{
				CycleIndex: 1, StepIndex: 1, SubStepIndex: 1,
				Type: types.StepDischarge,
			},
			want: types.StepDischargeCV,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subStep := 1
			if tt.prev != nil {
				subStep = 2
			}
			rec, g := mkGroup(t, 1, 1, subStep, tt.stepTime, tt.current, tt.voltage)
			got := classify(rec, g, tt.prev, lim)
			if got != tt.want {
				t.Errorf("classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyDegradedGroups(t *testing.T) {
	lim := types.DefaultRawLimits()

	t.Run("single sample is not_known", func(t *testing.T) {
		rec, g := mkGroup(t, 1, 1, 1, []float64{0}, []float64{1.0}, []float64{3.7})
		if got := classify(rec, g, nil, lim); got != types.StepNotKnown {
			t.Errorf("classify() = %s, want not_known", got)
		}
	})

	t.Run("NaN samples are not_known", func(t *testing.T) {
		rec, g := mkGroup(t, 1, 1, 1,
			ramp(0, 3600, 4),
			[]float64{1.0, math.NaN(), 1.0, 1.0},
			ramp(3.0, 4.0, 4))
		if got := classify(rec, g, nil, lim); got != types.StepNotKnown {
			t.Errorf("classify() = %s, want not_known", got)
		}
	})
}

func TestRelPercent(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		mean  float64
		want  float64
	}{
		{"no change", 0, 3.7, 0},
		{"small drift", 0.037, 3.7, 1.0},
		{"zero mean zero delta", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relPercent(tt.delta, tt.mean); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("relPercent(%v, %v) = %v, want %v", tt.delta, tt.mean, got, tt.want)
			}
		})
	}

	t.Run("zero mean with drift is unstable", func(t *testing.T) {
		if got := relPercent(0.1, 0); !math.IsInf(got, 1) {
			t.Errorf("relPercent(0.1, 0) = %v, want +Inf", got)
		}
	})
}
