// Package store persists analysis sessions (raw, step and summary tables)
// to a local SQLite dataset file, and offers a msgpack snapshot codec for
// fast single-file round trips. Step and summary tables reload without the
// raw table, so downstream tooling can append to a summary it did not
// compute.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/electrochem-tools/cellcycle/internal/log"
	"github.com/electrochem-tools/cellcycle/internal/types"
)

// Store holds the connection to a dataset file.
type Store struct {
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// Open opens (creating if needed) a SQLite dataset file and migrates the
// schema.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Warn,
		},
	)

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: path}, &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("opening dataset file %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Dataset{}, &rawRow{}, &stepRow{}, &summaryRow{}); err != nil {
		return nil, fmt.Errorf("migrating dataset schema: %w", err)
	}
	return &Store{DB: db, logger: logger}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	db, err := s.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// SaveSession writes one complete analysis session. raw may be nil when
// only derived tables are kept; an existing session with the same ID is
// replaced wholesale, matching the recompute-not-patch lifecycle of the
// derived tables.
func (s *Store) SaveSession(raw *types.RawTable, steps *types.StepTable, summary *types.SummaryTable) error {
	if steps == nil {
		return &types.InvalidInputError{Invariant: "step table present", Detail: "nil step table"}
	}
	id := steps.SessionID.String()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&Dataset{}, &rawRow{}, &stepRow{}, &summaryRow{}} {
			if err := tx.Where("session_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		ds := Dataset{SessionID: id, CreatedAt: time.Now()}
		if raw != nil {
			ds.CellName = raw.CellName
			ds.HasRaw = true
			ds.HasEnergy = raw.HasEnergy
			ds.HasResistance = raw.HasResistance
			ds.HasTemperature = raw.HasTemperature
			ds.HasDateTime = raw.HasDateTime
		}
		if err := tx.Create(&ds).Error; err != nil {
			return err
		}

		if raw != nil {
			rows := make([]rawRow, len(raw.Records))
			for i, r := range raw.Records {
				rows[i] = toRawRow(id, r)
			}
			if err := createBatched(tx, rows); err != nil {
				return err
			}
		}

		stepRows := make([]stepRow, len(steps.Records))
		for i, r := range steps.Records {
			stepRows[i] = toStepRow(id, r)
		}
		if err := createBatched(tx, stepRows); err != nil {
			return err
		}

		if summary != nil {
			sumRows := make([]summaryRow, len(summary.Records))
			for i, r := range summary.Records {
				sumRows[i] = toSummaryRow(id, r)
			}
			if err := createBatched(tx, sumRows); err != nil {
				return err
			}
		}

		s.logger.Infow("session saved",
			"session", id,
			"raw_rows", lenOrZero(raw),
			"step_rows", len(steps.Records),
		)
		return nil
	})
}

// createBatched inserts rows in batches; SQLite caps bound variables per
// statement and the wide summary rows hit it quickly.
func createBatched[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 200).Error
}

func lenOrZero(raw *types.RawTable) int {
	if raw == nil {
		return 0
	}
	return raw.Len()
}

// Sessions lists the dataset metadata rows, newest first.
func (s *Store) Sessions() ([]Dataset, error) {
	var out []Dataset
	if err := s.DB.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LoadRaw reloads the raw table of a session; errors when the session was
// saved without one.
func (s *Store) LoadRaw(sessionID uuid.UUID) (*types.RawTable, error) {
	var ds Dataset
	if err := s.DB.First(&ds, "session_id = ?", sessionID.String()).Error; err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", sessionID, err)
	}
	if !ds.HasRaw {
		return nil, fmt.Errorf("session %s was saved without its raw table", sessionID)
	}

	var rows []rawRow
	if err := s.DB.Order("id").Find(&rows, "session_id = ?", sessionID.String()).Error; err != nil {
		return nil, err
	}

	table := &types.RawTable{
		SessionID:      sessionID,
		CellName:       ds.CellName,
		HasEnergy:      ds.HasEnergy,
		HasResistance:  ds.HasResistance,
		HasTemperature: ds.HasTemperature,
		HasDateTime:    ds.HasDateTime,
		Records:        make([]types.RawRecord, len(rows)),
	}
	for i, r := range rows {
		table.Records[i] = r.record()
	}
	return table, nil
}

// LoadSteps reloads the step table of a session.
func (s *Store) LoadSteps(sessionID uuid.UUID) (*types.StepTable, error) {
	var rows []stepRow
	if err := s.DB.Order("id").Find(&rows, "session_id = ?", sessionID.String()).Error; err != nil {
		return nil, err
	}
	table := &types.StepTable{SessionID: sessionID, Records: make([]types.StepRecord, len(rows))}
	for i, r := range rows {
		table.Records[i] = r.record()
	}
	return table, nil
}

// LoadSummary reloads the summary table of a session.
func (s *Store) LoadSummary(sessionID uuid.UUID) (*types.SummaryTable, error) {
	var rows []summaryRow
	if err := s.DB.Order("cycle_index").Find(&rows, "session_id = ?", sessionID.String()).Error; err != nil {
		return nil, err
	}
	table := &types.SummaryTable{SessionID: sessionID, Records: make([]types.SummaryRecord, len(rows))}
	for i, r := range rows {
		table.Records[i] = r.record()
	}
	return table, nil
}
