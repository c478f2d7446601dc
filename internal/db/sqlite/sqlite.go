package sqlite

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Open opens (or creates) the database at path and applies pending
// migrations. A single connection is kept open, so callers must not use the
// returned handle while a unit of work is in progress on it.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// Timestamps are stored as Unix nanoseconds in UTC.
func encodeTime(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func decodeTime(v int64) time.Time {
	return time.Unix(0, v).UTC()
}

// limitOrAll maps a zero limit to -1, which SQLite reads as no limit.
func limitOrAll(limit uint) int64 {
	if limit == 0 {
		return -1
	}
	return int64(limit)
}
