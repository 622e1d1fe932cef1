package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore backs both the credential store and the email cache with a
// local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS oauth_credentials (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			provider      TEXT NOT NULL,
			access_token  TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			expires_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL,
			UNIQUE (user_id, provider)
		);

		CREATE TABLE IF NOT EXISTS email_cache (
			user_id     TEXT NOT NULL,
			email_id    TEXT NOT NULL,
			sender      TEXT NOT NULL DEFAULT '',
			subject     TEXT NOT NULL DEFAULT '',
			snippet     TEXT NOT NULL DEFAULT '',
			body        TEXT NOT NULL DEFAULT '',
			summary     TEXT NOT NULL DEFAULT '',
			received_at TIMESTAMP NOT NULL,
			replied     INTEGER NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL,
			updated_at  TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, email_id)
		);

		CREATE INDEX IF NOT EXISTS idx_email_cache_received
			ON email_cache (user_id, received_at DESC);

		INSERT INTO schema_version (version) VALUES (1);
		`,
	},
}

// NewSQLiteStore opens (or creates) the database at dbPath, enables WAL
// mode, and applies any pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}
