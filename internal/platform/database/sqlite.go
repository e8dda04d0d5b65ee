package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"qrforge/internal/platform/config"
)

// Schema for the metadata store. The UNIQUE primary key on short_codes is
// what makes short-code reservation atomic.
const Schema = `
CREATE TABLE IF NOT EXISTS qr_codes (
	id TEXT PRIMARY KEY,
	short_code TEXT,
	type TEXT NOT NULL,
	mode TEXT NOT NULL,
	payload TEXT,
	format TEXT NOT NULL,
	size INTEGER NOT NULL,
	version INTEGER NOT NULL,
	modules INTEGER NOT NULL,
	byte_size INTEGER NOT NULL,
	image_ref TEXT NOT NULL,
	label TEXT,
	created_by TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_qr_codes_short_code ON qr_codes(short_code);

CREATE TABLE IF NOT EXISTS short_codes (
	code TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
`

func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.Path
	if len(dsn) > 5 && dsn[:5] == "file:" {
		dsn = dsn[5:]
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate applies the schema. Idempotent.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
