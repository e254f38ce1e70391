package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	continuation_id TEXT,
	gate            TEXT NOT NULL,
	token           TEXT NOT NULL,
	request_code    INTEGER NOT NULL,
	decision        TEXT NOT NULL,
	reason          TEXT,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS continuations (
	gate            TEXT NOT NULL,
	request_code    INTEGER NOT NULL,
	continuation_id TEXT NOT NULL,
	payload         BLOB NOT NULL,
	issued_at       TEXT NOT NULL,
	PRIMARY KEY (gate, request_code)
);

CREATE TABLE IF NOT EXISTS reports (
	report_id     TEXT PRIMARY KEY,
	text          TEXT NOT NULL,
	readings_json TEXT NOT NULL,
	missing_json  TEXT NOT NULL,
	mode          TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	channel     TEXT NOT NULL,
	value       REAL NOT NULL,
	recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_channel_time ON samples(channel, recorded_at);

CREATE TABLE IF NOT EXISTS subscriptions (
	channel    TEXT PRIMARY KEY,
	ok         INTEGER NOT NULL,
	detail     TEXT,
	updated_at TEXT NOT NULL
);
`
// #endregion schema

// #region store-struct
// Store persists the controller's journal, pending continuations, report
// history and the local channel data in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. the
// decision journal in logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
