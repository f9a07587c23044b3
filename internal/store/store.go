package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Sentinel errors returned by registry and ledger operations. Callers match
// them with errors.Is and translate them into user-facing messages.
var (
	// ErrNoActiveTimer is returned by StopAndRecord when the user has no
	// running timer.
	ErrNoActiveTimer = errors.New("no active timer")

	// ErrNotFound is returned when a session does not exist or does not
	// belong to the requesting user. Ownership failures are deliberately
	// indistinguishable from missing rows.
	ErrNotFound = errors.New("session not found")

	// ErrBelowMinDuration and ErrAboveMaxDuration are returned by
	// StopAndRecord when the elapsed time falls outside the configured
	// policy. The timer row is still removed; no session is recorded.
	ErrBelowMinDuration = errors.New("elapsed time below minimum duration")
	ErrAboveMaxDuration = errors.New("elapsed time above maximum duration")
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS active_timers (
		user_id     INTEGER PRIMARY KEY,
		start_time  TEXT NOT NULL,
		category    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		timer_id    INTEGER PRIMARY KEY,
		user_id     INTEGER NOT NULL,
		date        TEXT NOT NULL,
		category    TEXT NOT NULL,
		start_time  TEXT NOT NULL,
		finish_time TEXT NOT NULL,
		duration    INTEGER NOT NULL DEFAULT 0,
		note        TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(user_id, date);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/tempo/tempo.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tempo", "tempo.db"), nil
}
