// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package storage

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

// Backend defines the durable key-value layer under the Batch.
type Backend interface {
	// Get returns nil value without error if the key is missing.
	Get(key []byte) ([]byte, error)
	// Write atomically applies updates, empty values remove keys.
	Write(updates map[string][]byte) error
	Close() error
}

// LevelDB is a Backend on top of goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// ensures that LevelDB implements Backend.
var _ Backend = (*LevelDB)(nil)

// OpenLevelDB opens or creates LevelDB database at the given path.
// If path is empty, in-memory storage is used.
func OpenLevelDB(path string) (*LevelDB, error) {
	var (
		db  *leveldb.DB
		err error
	)

	options := &opt.Options{Compression: opt.SnappyCompression}
	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), options)
	} else {
		db, err = leveldb.OpenFile(path, options)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}

	return &LevelDB{db: db}, nil
}

// NewMemoryLevelDB creates in-memory LevelDB backend.
func NewMemoryLevelDB() (*LevelDB, error) {
	return OpenLevelDB("")
}

// Get returns value by key.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %x: %w", key, err)
	}

	return value, nil
}

// Write applies all updates in one leveldb batch.
func (l *LevelDB) Write(updates map[string][]byte) error {
	batch := new(leveldb.Batch)
	for _, key := range sortedKeys(updates) {
		value := updates[key]
		if len(value) == 0 {
			batch.Delete([]byte(key))
			continue
		}

		batch.Put([]byte(key), value)
	}

	return l.db.Write(batch, nil)
}

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
