package steps

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// fixtureRaw builds a raw table from (cycle, step) row specs, assigning
// monotonic data points and test times.
type fixtureStep struct {
	cycle   int
	step    int
	current []float64
	voltage []float64
}

func fixtureRaw(steps []fixtureStep) *types.RawTable {
	table := types.NewRawTable("test-cell")
	dp := int64(0)
	testTime := 0.0
	for _, fs := range steps {
		for i := range fs.current {
			dp++
			testTime += 600
			table.Records = append(table.Records, types.RawRecord{
				DataPoint:  dp,
				TestTime:   testTime,
				StepTime:   float64(i) * 600,
				CycleIndex: fs.cycle,
				StepIndex:  fs.step,
				Current:    fs.current[i],
				Voltage:    fs.voltage[i],
			})
		}
	}
	return table
}

func TestProcessCoversEveryGroup(t *testing.T) {
	raw := fixtureRaw([]fixtureStep{
		{1, 1, flat(1.0, 6), ramp(3.0, 4.0, 6)},
		{1, 2, flat(0, 6), flat(4.0, 6)},
		{1, 3, flat(-1.0, 6), ramp(4.0, 3.0, 6)},
		{2, 1, flat(1.0, 6), ramp(3.0, 4.0, 6)},
		{2, 2, flat(0, 6), flat(4.0, 6)},
	})

	table, err := NewBuilder(types.DefaultRawLimits(), nil, zap.NewNop().Sugar()).Process(raw)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	want := []struct{ cycle, step, subStep int }{
		{1, 1, 1}, {1, 2, 1}, {1, 3, 1}, {2, 1, 1}, {2, 2, 1},
	}
	if len(table.Records) != len(want) {
		t.Fatalf("got %d step records, want %d", len(table.Records), len(want))
	}
	for i, w := range want {
		r := table.Records[i]
		if r.CycleIndex != w.cycle || r.StepIndex != w.step || r.SubStepIndex != w.subStep {
			t.Errorf("record %d = (%d,%d,%d), want (%d,%d,%d)",
				i, r.CycleIndex, r.StepIndex, r.SubStepIndex, w.cycle, w.step, w.subStep)
		}
	}
}

func TestProcessSubStepIncrements(t *testing.T) {
	// A GITT-style protocol: step 1 pulses repeat after rests at step 2.
	raw := fixtureRaw([]fixtureStep{
		{1, 1, flat(-1.0, 6), ramp(4.0, 3.8, 6)},
		{1, 2, flat(0, 6), ramp(3.8, 3.9, 6)},
		{1, 1, flat(-1.0, 6), ramp(3.9, 3.7, 6)},
		{1, 2, flat(0, 6), ramp(3.7, 3.8, 6)},
	})

	table, err := NewBuilder(types.DefaultRawLimits(), nil, zap.NewNop().Sugar()).Process(raw)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	want := []struct{ step, subStep int }{
		{1, 1}, {2, 1}, {1, 2}, {2, 2},
	}
	for i, w := range want {
		r := table.Records[i]
		if r.StepIndex != w.step || r.SubStepIndex != w.subStep {
			t.Errorf("record %d = step %d sub %d, want step %d sub %d",
				i, r.StepIndex, r.SubStepIndex, w.step, w.subStep)
		}
	}
}

func TestProcessEmitsNotKnownForShortGroups(t *testing.T) {
	raw := fixtureRaw([]fixtureStep{
		{1, 1, flat(1.0, 6), ramp(3.0, 4.0, 6)},
		{1, 2, flat(1.0, 1), flat(4.0, 1)}, // single-sample glitch
	})

	table, err := NewBuilder(types.DefaultRawLimits(), nil, zap.NewNop().Sugar()).Process(raw)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("got %d records, want 2 (short group must not be dropped)", len(table.Records))
	}
	if table.Records[1].Type != types.StepNotKnown {
		t.Errorf("short group type = %s, want not_known", table.Records[1].Type)
	}
	if table.Records[1].PointCount != 1 {
		t.Errorf("short group point count = %d, want 1", table.Records[1].PointCount)
	}
}

func TestProcessOverridesWinOverClassifier(t *testing.T) {
	// A pattern that auto-classifies as rest, pinned to ir by the caller.
	raw := fixtureRaw([]fixtureStep{
		{1, 1, flat(0, 6), flat(3.7, 6)},
	})
	specs := types.StepSpecs{
		{CycleIndex: 1, StepIndex: 1}: types.StepIR,
	}

	table, err := NewBuilder(types.DefaultRawLimits(), specs, zap.NewNop().Sugar()).Process(raw)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if got := table.Records[0].Type; got != types.StepIR {
		t.Errorf("overridden type = %s, want ir", got)
	}
	if !table.Records[0].Overridden {
		t.Error("record not marked overridden")
	}
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	raw := fixtureRaw([]fixtureStep{
		{1, 1, flat(1.0, 3), ramp(3.0, 3.2, 3)},
	})
	raw.Records[2].DataPoint = raw.Records[1].DataPoint // break monotonicity

	_, err := NewBuilder(types.DefaultRawLimits(), nil, zap.NewNop().Sugar()).Process(raw)
	if err == nil {
		t.Fatal("Process() succeeded on non-monotonic data_point")
	}
	var invalid *types.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("error %v is not an InvalidInputError", err)
	}
}
