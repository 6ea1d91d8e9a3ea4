package loaders

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// CSVLoader reads generic cycler CSV exports: one header row naming the
// columns (units in parentheses), one row per sample. Neware, Maccor and
// Biologic text exports all reduce to this shape.
type CSVLoader struct {
	logger *zap.SugaredLogger
}

// NewCSVLoader creates a generic CSV loader.
func NewCSVLoader(logger *zap.SugaredLogger) *CSVLoader {
	return &CSVLoader{logger: logger}
}

// Name returns the registry key.
func (l *CSVLoader) Name() string {
	return "generic_csv"
}

// Load parses the CSV file at path into a normalized raw table.
func (l *CSVLoader) Load(path string) (*types.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, &types.InvalidInputError{
			Invariant: "file has a header row",
			Detail:    path + " is empty",
		}
	}

	cols := make([]column, len(rows[0]))
	for i, h := range rows[0] {
		cols[i] = mapHeader(h)
	}

	table, err := buildTable(cols, rows[1:], l.logger)
	if err != nil {
		return nil, err
	}
	table.CellName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	l.logger.Infow("loaded csv export",
		"path", path,
		"rows", table.Len(),
		"cycles", table.LastCycle(),
	)
	return table, nil
}
