package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
    id            TEXT PRIMARY KEY CHECK(length(id) = 14),
    title         TEXT NOT NULL,
    description   TEXT NOT NULL,
    mime_type     TEXT NOT NULL CHECK(mime_type IN ('image/jpeg','image/png','image/webp')),
    steps         TEXT NOT NULL,
    image_key     TEXT,
    thumbnail_key TEXT,
    created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS upload_policies (
    token          TEXT PRIMARY KEY,
    object_key     TEXT NOT NULL,
    content_type   TEXT NOT NULL,
    content_length INTEGER NOT NULL CHECK(content_length >= 0),
    content_md5    TEXT NOT NULL,
    expires_at     INTEGER NOT NULL,
    used           INTEGER NOT NULL DEFAULT 0 CHECK(used IN (0,1))
);

CREATE INDEX IF NOT EXISTS idx_upload_policies_expires_at ON upload_policies(expires_at);
`

// Open opens or creates the SQLite database and initializes the schema.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps policy consumption serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}
