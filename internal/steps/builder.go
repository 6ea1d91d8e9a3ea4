package steps

import (
	"go.uber.org/zap"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// Builder derives a step table from a raw table using one immutable
// threshold configuration and optional caller overrides. Builders hold no
// state between calls; concurrent Process calls on different tables are
// safe.
type Builder struct {
	limits types.RawLimits
	specs  types.StepSpecs
	logger *zap.SugaredLogger
}

// NewBuilder creates a step table builder. specs may be nil when the caller
// has no overrides.
func NewBuilder(limits types.RawLimits, specs types.StepSpecs, logger *zap.SugaredLogger) *Builder {
	return &Builder{
		limits: limits,
		specs:  specs,
		logger: logger,
	}
}

// Process segments, aggregates and classifies the raw table. Every
// (cycle, step, sub-step) group present in the input yields exactly one
// record; degraded groups are emitted as not_known rather than dropped.
// The raw table is never mutated.
func (b *Builder) Process(raw *types.RawTable) (*types.StepTable, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	if err := b.specs.Validate(); err != nil {
		return nil, err
	}

	groups := segment(raw)
	table := &types.StepTable{SessionID: raw.SessionID}

	for i := range groups {
		g := &groups[i]
		rec := buildRecord(g)

		if pinned, ok := b.specs.Lookup(g.cycle, g.step); ok {
			rec.Type = pinned
			rec.Overridden = true
			table.Records = append(table.Records, rec)
			continue
		}

		rec.Type = classify(&rec, g, b.prevSubStep(table, g), b.limits)
		if rec.Type == types.StepNotKnown {
			b.logger.Warnw("step classified as not_known",
				"cycle", g.cycle,
				"step", g.step,
				"sub_step", g.subStep,
				"points", len(g.rows),
				"degraded", g.degraded,
			)
		}
		table.Records = append(table.Records, rec)
	}

	b.logger.Debugw("step table built",
		"groups", len(groups),
		"records", len(table.Records),
	)
	return table, nil
}

// prevSubStep finds the already-classified record for the preceding
// sub-step of the same (cycle, step) pair, if any. Groups arrive in table
// order, so a linear scan backwards finds it near the tail.
func (b *Builder) prevSubStep(table *types.StepTable, g *group) *types.StepRecord {
	if g.subStep < 2 {
		return nil
	}
	for i := len(table.Records) - 1; i >= 0; i-- {
		r := &table.Records[i]
		if r.CycleIndex != g.cycle {
			return nil
		}
		if r.StepIndex == g.step && r.SubStepIndex == g.subStep-1 {
			return r
		}
	}
	return nil
}
