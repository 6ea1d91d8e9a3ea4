package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// SQLiteProvider implements ConfigProvider for SQLite configuration
// databases, the format shared between runs of a larger batch study.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return &SQLiteProvider{db: db, dbPath: dbPath}, nil
}

// LoadConfig loads the complete configuration from the database.
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := Defaults()

	row := s.db.QueryRow(`
		SELECT cell_name, instrument,
		       mass, area, nominal_capacity, c_rate_multiplier, reference_cycle
		FROM analysis
		WHERE name = 'default'
	`)
	var mass, area, nominal, mult sql.NullFloat64
	var refCycle sql.NullInt64
	if err := row.Scan(&config.CellName, &config.Instrument,
		&mass, &area, &nominal, &mult, &refCycle); err != nil {
		return nil, fmt.Errorf("failed to load analysis row: %w", err)
	}
	config.Normalization = types.NormContext{
		Mass:            mass.Float64,
		Area:            area.Float64,
		NominalCapacity: nominal.Float64,
		CRateMultiplier: mult.Float64,
		ReferenceCycle:  int(refCycle.Int64),
	}

	limits, err := s.loadRawLimits()
	if err != nil {
		return nil, err
	}
	if limits != nil {
		config.RawLimits = *limits
	}

	specs, err := s.loadStepSpecs()
	if err != nil {
		return nil, err
	}
	config.StepSpecs = specs

	return config, nil
}

// loadRawLimits reads the threshold row, returning nil when the table holds
// no override row so defaults stay in effect.
func (s *SQLiteProvider) loadRawLimits() (*types.RawLimits, error) {
	row := s.db.QueryRow(`
		SELECT current_hard, current_soft, ir_change,
		       stable_charge_hard, stable_charge_soft,
		       stable_current_hard, stable_current_soft,
		       stable_voltage_hard, stable_voltage_soft
		FROM raw_limits
		WHERE name = 'default'
	`)

	var l types.RawLimits
	err := row.Scan(&l.CurrentHard, &l.CurrentSoft, &l.IRChange,
		&l.StableChargeHard, &l.StableChargeSoft,
		&l.StableCurrentHard, &l.StableCurrentSoft,
		&l.StableVoltageHard, &l.StableVoltageSoft)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load raw limits: %w", err)
	}
	return &l, nil
}

func (s *SQLiteProvider) loadStepSpecs() (types.StepSpecs, error) {
	rows, err := s.db.Query(`
		SELECT cycle_index, step_index, type
		FROM step_specifications
		ORDER BY cycle_index, step_index
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query step specifications: %w", err)
	}
	defer rows.Close()

	specs := types.StepSpecs{}
	for rows.Next() {
		var cycle, step int
		var stepType string
		if err := rows.Scan(&cycle, &step, &stepType); err != nil {
			return nil, fmt.Errorf("failed to scan step specification: %w", err)
		}
		specs[types.StepKey{CycleIndex: cycle, StepIndex: step}] = types.StepType(stepType)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, nil
	}
	if err := specs.Validate(); err != nil {
		return nil, err
	}
	return specs, nil
}

// IsReadOnly reports whether this provider supports writes.
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection.
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
