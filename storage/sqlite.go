// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers sqlite3 driver.
)

// SQLite is a Backend keeping all keys in one sqlite table.
type SQLite struct {
	db *sql.DB
}

// ensures that SQLite implements Backend.
var _ Backend = (*SQLite)(nil)

// OpenSQLite opens or creates sqlite database at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database at %q: %w", path, err)
	}

	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (key BLOB PRIMARY KEY, value BLOB NOT NULL)`)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create kv table: %w", err), db.Close())
	}

	return &SQLite{db: db}, nil
}

// Get returns value by key.
func (s *SQLite) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %x: %w", key, err)
	}

	return value, nil
}

// Write applies all updates in one sqlite transaction.
func (s *SQLite) Write(updates map[string][]byte) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	for _, key := range sortedKeys(updates) {
		value := updates[key]
		if len(value) == 0 {
			_, err = tx.Exec(`DELETE FROM kv WHERE key = ?`, []byte(key))
		} else {
			_, err = tx.Exec(`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, []byte(key), value)
		}
		if err != nil {
			return fmt.Errorf("write %x: %w", key, err)
		}
	}

	return tx.Commit()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
