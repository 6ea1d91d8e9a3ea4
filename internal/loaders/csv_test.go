package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMapHeader(t *testing.T) {
	tests := []struct {
		header string
		id     columnID
		scale  float64
	}{
		{"Current(mA)", colCurrent, 1e-3},
		{"current", colCurrent, 1},
		{"Voltage(V)", colVoltage, 1},
		{"Charge_Capacity(mAh)", colChargeCapacity, 1e-3},
		{"Test_Time(s)", colTestTime, 1},
		{"Test_Time(min)", colTestTime, 60},
		{"Step_Time [h]", colStepTime, 3600},
		{"Cycle_Index", colCycleIndex, 1},
		{"Aux_Temperature(C)", colTemperature, 1},
		{"Comments", colUnknown, 1},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			c := mapHeader(tt.header)
			assert.Equal(t, tt.id, c.id)
			assert.Equal(t, tt.scale, c.scale)
		})
	}
}

func TestCSVLoaderLoad(t *testing.T) {
	path := writeCSV(t, "cell_042.csv", `Data_Point,Test_Time(s),Step_Time(s),Cycle_Index,Step_Index,Current(mA),Voltage(V),Charge_Capacity(mAh),Discharge_Capacity(mAh)
1,0,0,1,1,1000,3.0,0,0
2,10,10,1,1,1000,3.1,2.5,0
3,20,0,1,2,-1000,3.1,2.5,1.2
`)

	table, err := NewCSVLoader(zap.NewNop().Sugar()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cell_042", table.CellName)
	require.Equal(t, 3, table.Len())

	// Milliampere and milliampere-hour columns land in SI units.
	assert.InDelta(t, 1.0, table.Records[0].Current, 1e-12)
	assert.InDelta(t, -1.0, table.Records[2].Current, 1e-12)
	assert.InDelta(t, 0.0025, table.Records[1].ChargeCapacity, 1e-12)
	assert.InDelta(t, 0.0012, table.Records[2].DischargeCapacity, 1e-12)

	assert.False(t, table.HasEnergy)
	assert.False(t, table.HasTemperature)
	require.NoError(t, table.Validate())
}

func TestCSVLoaderSynthesizesMissingColumns(t *testing.T) {
	// No data_point or step_time columns: both are derived.
	path := writeCSV(t, "minimal.csv", `Test_Time(s),Cycle_Index,Step_Index,Current(A),Voltage(V),Charge_Capacity(Ah),Discharge_Capacity(Ah)
0,1,1,1.0,3.0,0,0
30,1,1,1.0,3.1,0.01,0
60,1,2,0,3.1,0.01,0
90,1,2,0,3.08,0.01,0
`)

	table, err := NewCSVLoader(zap.NewNop().Sugar()).Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	for i, r := range table.Records {
		assert.Equal(t, int64(i+1), r.DataPoint)
	}
	// Step time restarts from zero at the step boundary.
	assert.Equal(t, 0.0, table.Records[0].StepTime)
	assert.Equal(t, 30.0, table.Records[1].StepTime)
	assert.Equal(t, 0.0, table.Records[2].StepTime)
	assert.Equal(t, 30.0, table.Records[3].StepTime)
}

func TestCSVLoaderMissingRequiredColumn(t *testing.T) {
	path := writeCSV(t, "broken.csv", `Test_Time(s),Cycle_Index,Step_Index,Current(A),Charge_Capacity(Ah),Discharge_Capacity(Ah)
0,1,1,1.0,0,0
`)

	_, err := NewCSVLoader(zap.NewNop().Sugar()).Load(path)
	require.Error(t, err)
	var invalid *types.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, err.Error(), "voltage")
}

func TestCSVLoaderSkipsUnparseableRows(t *testing.T) {
	path := writeCSV(t, "noisy.csv", `Test_Time(s),Cycle_Index,Step_Index,Current(A),Voltage(V),Charge_Capacity(Ah),Discharge_Capacity(Ah)
0,1,1,1.0,3.0,0,0
garbage,1,1,1.0,3.0,0,0
10,1,1,1.0,3.1,0.001,0
`)

	table, err := NewCSVLoader(zap.NewNop().Sugar()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestNewRejectsUnknownInstrument(t *testing.T) {
	_, err := New("novonix", zap.NewNop().Sugar())
	require.Error(t, err)

	for _, name := range []string{"generic_csv", "csv", "arbin_xlsx", "arbin"} {
		l, err := New(name, zap.NewNop().Sugar())
		require.NoError(t, err, name)
		require.NotNil(t, l, name)
	}
}
