package interp

import "github.com/electrochem-tools/cellcycle/internal/types"

// CurveOptions selects which part of a raw table a capacity-voltage curve
// is extracted from.
type CurveOptions struct {
	// Cycles limits extraction to these cycle indices; empty means all.
	Cycles []int
	// Charge extracts the charge half-cycles when true, discharge
	// half-cycles otherwise.
	Charge bool
}

// CapacityVoltage extracts a capacity-versus-voltage curve from the raw
// table: x is the cumulative capacity of the selected polarity, y the cell
// voltage. Rows from consecutive steps are concatenated in table order, so
// constant-voltage tapers show up as the near-plateau runs the resampler is
// built to preserve.
func CapacityVoltage(raw *types.RawTable, opts CurveOptions) []Point {
	wanted := func(int) bool { return true }
	if len(opts.Cycles) > 0 {
		set := make(map[int]bool, len(opts.Cycles))
		for _, c := range opts.Cycles {
			set[c] = true
		}
		wanted = func(c int) bool { return set[c] }
	}

	var out []Point
	for i := range raw.Records {
		r := &raw.Records[i]
		if !wanted(r.CycleIndex) {
			continue
		}
		if opts.Charge {
			if r.Current <= 0 {
				continue
			}
			out = append(out, Point{X: r.ChargeCapacity, Y: r.Voltage})
		} else {
			if r.Current >= 0 {
				continue
			}
			out = append(out, Point{X: r.DischargeCapacity, Y: r.Voltage})
		}
	}
	return out
}
