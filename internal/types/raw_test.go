package types

import (
	"errors"
	"testing"
)

func segmentTable(cycles []int) *RawTable {
	t := NewRawTable("cell-01")
	for i, c := range cycles {
		t.Records = append(t.Records, RawRecord{
			DataPoint:  int64(i), // instruments commonly start at 0
			TestTime:   float64(i) * 10,
			CycleIndex: c,
			StepIndex:  1,
			Current:    1.0,
			Voltage:    3.7,
		})
	}
	return t
}

func TestAppendRenumbersCounters(t *testing.T) {
	// Two file segments from the same run: the second restarts data_point,
	// test_time and cycle_index at their file-local origins.
	first := segmentTable([]int{1, 1, 2, 2})
	second := segmentTable([]int{1, 1, 2})

	first.Append(second, MergeOptions{})

	if got := first.Len(); got != 7 {
		t.Fatalf("merged length = %d, want 7", got)
	}
	for i := 1; i < first.Len(); i++ {
		if first.Records[i].DataPoint <= first.Records[i-1].DataPoint {
			t.Fatalf("data_point not strictly increasing at row %d", i)
		}
		if first.Records[i].TestTime < first.Records[i-1].TestTime {
			t.Fatalf("test_time decreased at row %d", i)
		}
	}

	// Incoming cycles 1,1,2 continue as 3,3,4 after the first segment's
	// last cycle 2.
	wantCycles := []int{1, 1, 2, 2, 3, 3, 4}
	for i, w := range wantCycles {
		if got := first.Records[i].CycleIndex; got != w {
			t.Errorf("row %d cycle_index = %d, want %d", i, got, w)
		}
	}
	if err := first.Validate(); err != nil {
		t.Errorf("merged table failed validation: %v", err)
	}
}

func TestAppendContinueCycle(t *testing.T) {
	first := segmentTable([]int{1, 1, 2, 2})
	second := segmentTable([]int{1, 1, 2})

	first.Append(second, MergeOptions{ContinueCycle: true})

	// The second file's first cycle folds into cycle 2; its second cycle
	// becomes 3.
	wantCycles := []int{1, 1, 2, 2, 2, 2, 3}
	for i, w := range wantCycles {
		if got := first.Records[i].CycleIndex; got != w {
			t.Errorf("row %d cycle_index = %d, want %d", i, got, w)
		}
	}
}

func TestAppendIntoEmptyTable(t *testing.T) {
	empty := NewRawTable("cell-01")
	second := segmentTable([]int{1, 2})
	second.HasTemperature = true

	empty.Append(second, MergeOptions{})

	if empty.Len() != 2 {
		t.Fatalf("merged length = %d, want 2", empty.Len())
	}
	if !empty.HasTemperature {
		t.Error("channel presence flag not carried over")
	}
}

func TestAppendEmptySegmentIsNoOp(t *testing.T) {
	table := segmentTable([]int{1, 2})
	table.Append(NewRawTable("other"), MergeOptions{})
	if table.Len() != 2 {
		t.Errorf("length = %d after empty append, want 2", table.Len())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RawTable)
		wantErr bool
	}{
		{"well-formed table", func(*RawTable) {}, false},
		{"zero cycle index", func(t *RawTable) { t.Records[0].CycleIndex = 0 }, true},
		{"zero step index", func(t *RawTable) { t.Records[1].StepIndex = 0 }, true},
		{"repeated data point", func(t *RawTable) { t.Records[2].DataPoint = t.Records[1].DataPoint }, true},
		{"rewinding cycle index", func(t *RawTable) { t.Records[3].CycleIndex = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := segmentTable([]int{1, 1, 2, 2})
			tt.mutate(table)
			err := table.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate() accepted a malformed table")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if tt.wantErr {
				var invalid *InvalidInputError
				if !errors.As(err, &invalid) {
					t.Errorf("error %v is not an InvalidInputError", err)
				}
			}
		})
	}
}

func TestCycles(t *testing.T) {
	table := segmentTable([]int{1, 1, 2, 2, 2, 3})
	got := table.Cycles()
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Cycles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Cycles() = %v, want %v", got, want)
		}
	}
	if table.LastCycle() != 3 {
		t.Errorf("LastCycle() = %d, want 3", table.LastCycle())
	}
}
