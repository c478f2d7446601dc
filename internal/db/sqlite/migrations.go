package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL PRIMARY KEY
		);

		CREATE TABLE owner (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			address TEXT NOT NULL,
			time_zone TEXT NOT NULL DEFAULT 'UTC',
			default_expression TEXT,
			secret BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			verified_at INTEGER
		);
		CREATE UNIQUE INDEX owner_address_idx ON owner (address);

		CREATE TABLE reminder (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL,
			root_message_id TEXT NOT NULL,
			parent_id INTEGER REFERENCES reminder (id),
			owner_address TEXT NOT NULL,
			target_address TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			status TEXT NOT NULL,
			due_at INTEGER,
			secret BLOB NOT NULL,
			notes TEXT NOT NULL DEFAULT ''
		);
		CREATE UNIQUE INDEX reminder_message_id_idx ON reminder (message_id);
		CREATE INDEX reminder_status_due_at_idx ON reminder (status, due_at);
		CREATE INDEX reminder_owner_status_idx ON reminder (owner_address, status);

		INSERT INTO schema_version (version) VALUES (1);
		`,
	},
	{
		version: 2,
		sql: `
		ALTER TABLE reminder ADD COLUMN snoozed_at INTEGER;

		INSERT INTO schema_version (version) VALUES (2);
		`,
	},
}

func runMigrations(db *sqlx.DB) error {
	currentVersion := 0

	var tableCount int
	err := db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}
