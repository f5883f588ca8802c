//go:build !tinygo && cgo

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key     TEXT PRIMARY KEY,
    value   INTEGER NOT NULL
);
`

const (
	keyModelTS   = "model_ts"
	keyRealTS    = "real_ts"
	keyTimescale = "timescale"
)

// SQLiteStore keeps the record as key/value rows, one per field, for the
// host simulator.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads the record. Missing keys keep their default; with no keys at
// all it returns Defaults and ErrNoRecord.
func (s *SQLiteStore) Load() (Record, error) {
	rec := Defaults()
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return rec, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var key string
		var value int64
		if err := rows.Scan(&key, &value); err != nil {
			return Defaults(), fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case keyModelTS:
			rec.ModelTS = value
		case keyRealTS:
			rec.RealTS = value
		case keyTimescale:
			rec.Timescale = uint32(value)
		default:
			continue
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return Defaults(), fmt.Errorf("iterate settings: %w", err)
	}
	if n == 0 {
		return rec, ErrNoRecord
	}
	return rec.Sanitize(), nil
}

// Save writes all three keys in one transaction.
func (s *SQLiteStore) Save(r Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, kv := range []struct {
		key   string
		value int64
	}{
		{keyModelTS, r.ModelTS},
		{keyRealTS, r.RealTS},
		{keyTimescale, int64(r.Timescale)},
	} {
		if _, err := stmt.Exec(kv.key, kv.value); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}
	if err := tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}
