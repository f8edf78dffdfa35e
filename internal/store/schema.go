package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the SQLite catalog.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS models (
    name TEXT PRIMARY KEY,
    source TEXT,
    root REAL NOT NULL,
    increments INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- One row per cascade level, level 1 is the finest
CREATE TABLE IF NOT EXISTS model_levels (
    model_name TEXT NOT NULL REFERENCES models(name) ON DELETE CASCADE,
    level INTEGER NOT NULL,
    alpha REAL NOT NULL,
    beta REAL NOT NULL,
    mean REAL NOT NULL,
    variance REAL NOT NULL,
    pairs INTEGER NOT NULL,
    fixed INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (model_name, level)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema creates the schema on a fresh database or migrates an
// existing one to SchemaVersion.
func InitSchema(ctx context.Context, db *sql.DB) error {
	version, err := getSchemaVersion(ctx, db)
	if err != nil {
		// Schema version table doesn't exist yet, create fresh schema
		return createSchema(ctx, db)
	}

	if version < SchemaVersion {
		return migrateSchema(ctx, db, version)
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	return nil
}

// getSchemaVersion returns the current schema version from the database.
// Returns 0 and an error if the schema_version table doesn't exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, fmt.Errorf("schema_version is empty")
	}
	return int(version.Int64), nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// migrateSchema upgrades from currentVersion. There is only one version so far.
func migrateSchema(ctx context.Context, db *sql.DB, currentVersion int) error {
	if currentVersion < 1 {
		return createSchema(ctx, db)
	}
	return nil
}
