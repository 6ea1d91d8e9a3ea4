package store

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/electrochem-tools/cellcycle/internal/types"
)

// Snapshot is the msgpack single-file form of a session: faster than the
// SQLite store and exact (NaN survives natively), at the cost of not being
// queryable in place.
type Snapshot struct {
	Version int                 `msgpack:"version"`
	Raw     *types.RawTable     `msgpack:"raw"`
	Steps   *types.StepTable    `msgpack:"steps"`
	Summary *types.SummaryTable `msgpack:"summary"`
}

const snapshotVersion = 1

// WriteSnapshot serializes a session to path.
func WriteSnapshot(path string, raw *types.RawTable, steps *types.StepTable, summary *types.SummaryTable) error {
	snap := Snapshot{
		Version: snapshotVersion,
		Raw:     raw,
		Steps:   steps,
		Summary: summary,
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot deserializes a session from path.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return &snap, nil
}
