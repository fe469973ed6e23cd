package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SchemaVersion is the schema version this build expects after migrating.
const SchemaVersion = 2

// Migration is one versioned schema step, applied inside a transaction.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					dataset TEXT NOT NULL,
					params TEXT NOT NULL,
					transactions INTEGER NOT NULL,
					items INTEGER NOT NULL,
					itemsets INTEGER NOT NULL,
					rules INTEGER NOT NULL,
					duration_ms INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS itemsets (
					run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
					position INTEGER NOT NULL,
					items TEXT NOT NULL,
					size INTEGER NOT NULL,
					support REAL NOT NULL,
					count INTEGER NOT NULL,
					PRIMARY KEY (run_id, position)
				)`,
				`CREATE TABLE IF NOT EXISTS rules (
					run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
					position INTEGER NOT NULL,
					antecedent TEXT NOT NULL,
					consequent TEXT NOT NULL,
					antecedent_support REAL NOT NULL,
					consequent_support REAL NOT NULL,
					support REAL NOT NULL,
					confidence REAL NOT NULL,
					lift REAL NOT NULL,
					leverage REAL NOT NULL,
					conviction REAL,
					PRIMARY KEY (run_id, position)
				)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Index runs by dataset and time",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, q := range queries {
		if _, err := tx.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Migrate applies all pending migrations.
func (s *Store) Migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
		slog.Debug("applied migration", "version", m.Version, "description", m.Description)
	}

	var final int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&final); err != nil {
		return fmt.Errorf("verify schema version: %w", err)
	}
	if final != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, final)
	}
	return nil
}
