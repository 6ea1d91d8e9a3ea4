package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// ArbinLoader reads Arbin workbook exports: one or more "Channel" sheets
// holding the normal data table, split across sheets when a test exceeds
// the per-sheet row limit.
type ArbinLoader struct {
	logger *zap.SugaredLogger
}

// NewArbinLoader creates an Arbin workbook loader.
func NewArbinLoader(logger *zap.SugaredLogger) *ArbinLoader {
	return &ArbinLoader{logger: logger}
}

// Name returns the registry key.
func (l *ArbinLoader) Name() string {
	return "arbin_xlsx"
}

// Load parses the workbook at path into a normalized raw table. Channel
// sheets are concatenated in workbook order; Arbin keeps counters
// continuous across them, so no renumbering is needed here.
func (l *ArbinLoader) Load(path string) (*types.RawTable, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer wb.Close()

	sheets := channelSheets(wb.GetSheetList())
	if len(sheets) == 0 {
		return nil, &types.InvalidInputError{
			Invariant: "workbook contains a channel data sheet",
			Detail:    path + " has sheets " + strings.Join(wb.GetSheetList(), ", "),
		}
	}

	var cols []column
	var dataRows [][]string
	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		if cols == nil {
			cols = make([]column, len(rows[0]))
			for i, h := range rows[0] {
				cols[i] = mapHeader(h)
			}
		}
		dataRows = append(dataRows, rows[1:]...)
	}
	if cols == nil {
		return nil, &types.InvalidInputError{
			Invariant: "channel sheet has a header row",
			Detail:    path,
		}
	}

	table, err := buildTable(cols, dataRows, l.logger)
	if err != nil {
		return nil, err
	}
	table.CellName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	l.logger.Infow("loaded arbin workbook",
		"path", path,
		"sheets", len(sheets),
		"rows", table.Len(),
		"cycles", table.LastCycle(),
	)
	return table, nil
}

// channelSheets selects the data sheets of an Arbin workbook, skipping the
// info/statistics sheets.
func channelSheets(names []string) []string {
	var out []string
	for _, n := range names {
		lower := strings.ToLower(n)
		if !strings.Contains(lower, "channel") {
			continue
		}
		if strings.Contains(lower, "statistic") || strings.Contains(lower, "info") {
			continue
		}
		out = append(out, n)
	}
	return out
}
