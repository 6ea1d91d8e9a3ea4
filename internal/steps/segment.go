// Package steps segments a raw measurement table into per-step groups,
// computes order-independent aggregate statistics for each group, and
// classifies every group into the fixed step-type vocabulary using
// threshold/hysteresis rules. The output step table is the input to the
// per-cycle summary aggregator.
package steps

import (
	"math"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// group is one maximal contiguous run of a single (cycle, step) identity in
// the raw table. Repeats of the same step index within a cycle (pulse and
// GITT protocols) get increasing sub-step indices.
type group struct {
	cycle   int
	step    int
	subStep int
	rows    []types.RawRecord

	// Monotonicity fractions of the voltage trace, used by the
	// relaxation rules: the fraction of consecutive sample pairs that do
	// not move down (up) respectively.
	voltageUpFrac   float64
	voltageDownFrac float64

	// degraded marks groups with NaN samples; they classify as
	// not_known without touching the threshold rules.
	degraded bool
}

// segment splits the raw table into groups. A new group starts whenever
// step_index changes or the cycle boundary is crossed; a step index that
// reappears within the same cycle after a different one gets the next
// sub-step index.
func segment(raw *types.RawTable) []group {
	var groups []group

	// seen counts completed runs per (cycle, step) so repeats get
	// incrementing sub-step indices.
	seen := make(map[types.StepKey]int)

	var cur *group
	for _, r := range raw.Records {
		if cur == nil || r.CycleIndex != cur.cycle || r.StepIndex != cur.step {
			if cur != nil {
				finishGroup(cur)
				groups = append(groups, *cur)
			}
			key := types.StepKey{CycleIndex: r.CycleIndex, StepIndex: r.StepIndex}
			seen[key]++
			cur = &group{
				cycle:   r.CycleIndex,
				step:    r.StepIndex,
				subStep: seen[key],
			}
		}
		cur.rows = append(cur.rows, r)
	}
	if cur != nil {
		finishGroup(cur)
		groups = append(groups, *cur)
	}
	return groups
}

// finishGroup fills the derived per-group fields once all rows are known.
func finishGroup(g *group) {
	up, down, pairs := 0, 0, 0
	for i := 1; i < len(g.rows); i++ {
		a, b := g.rows[i-1].Voltage, g.rows[i].Voltage
		if math.IsNaN(a) || math.IsNaN(b) {
			g.degraded = true
			continue
		}
		pairs++
		if b >= a {
			up++
		}
		if b <= a {
			down++
		}
	}
	if pairs > 0 {
		g.voltageUpFrac = float64(up) / float64(pairs)
		g.voltageDownFrac = float64(down) / float64(pairs)
	}
	for _, r := range g.rows {
		if math.IsNaN(r.Current) || math.IsNaN(r.Voltage) ||
			math.IsNaN(r.ChargeCapacity) || math.IsNaN(r.DischargeCapacity) {
			g.degraded = true
			return
		}
	}
}
