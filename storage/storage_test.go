// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/storage"
)

// failingBackend fails every read.
type failingBackend struct {
	storage.Backend
}

func (failingBackend) Get([]byte) ([]byte, error) {
	return nil, errors.New("disk failure")
}

func TestBatch(t *testing.T) {
	backend, err := storage.NewMemoryLevelDB()
	require.NoError(t, err)
	defer func() { require.NoError(t, backend.Close()) }()

	t.Run("get and set", func(t *testing.T) {
		batch := storage.NewBatch(backend)
		ptr := batch.Root().Keyword("/alkanes/").Keyword("counter")
		require.Nil(t, ptr.Get())
		require.Equal(t, []byte("/alkanes/counter"), ptr.Key())

		ptr.SetValue(uint128.From64(42))
		require.Equal(t, uint128.From64(42), ptr.GetValue())

		ptr.SetUint64(7)
		require.Equal(t, uint64(7), ptr.GetUint64())

		require.NoError(t, batch.Flush())
		value, err := backend.Get([]byte("/alkanes/counter"))
		require.NoError(t, err)
		require.NotEmpty(t, value)

		ptr.Set(nil)
		require.NoError(t, batch.Flush())
		value, err = backend.Get([]byte("/alkanes/counter"))
		require.NoError(t, err)
		require.Nil(t, value)
	})

	t.Run("list", func(t *testing.T) {
		batch := storage.NewBatch(backend)
		list := batch.Root().Keyword("/list")
		require.Zero(t, list.Length())

		list.Append([]byte("a"))
		list.Append([]byte("b"))
		require.Equal(t, uint32(2), list.Length())
		require.Equal(t, [][]byte{[]byte("a"), []byte("b")}, list.GetList())
		require.Equal(t, []byte("b"), list.SelectIndex(1).Get())
	})

	t.Run("derive commit rollback", func(t *testing.T) {
		batch := storage.NewBatch(backend)
		root := batch.Root()
		key := root.Keyword("/key")
		key.Set([]byte("base"))

		child := root.Derive()
		require.Equal(t, 1, batch.Depth())
		key.Set([]byte("child"))

		nested := child.Derive()
		key.Set([]byte("nested"))
		require.ErrorIs(t, child.Commit(), storage.ErrCheckpointOrder)
		require.NoError(t, nested.Rollback())
		require.Equal(t, []byte("child"), key.Get())

		require.NoError(t, child.Commit())
		require.Zero(t, batch.Depth())
		require.Equal(t, []byte("child"), key.Get())

		require.ErrorIs(t, child.Commit(), storage.ErrCheckpointOrder)

		dropped := root.Derive()
		key.Set([]byte("dropped"))
		require.NoError(t, dropped.Rollback())
		require.Equal(t, []byte("child"), key.Get())
	})

	t.Run("flush with open checkpoint", func(t *testing.T) {
		batch := storage.NewBatch(backend)
		child := batch.Root().Derive()
		require.ErrorIs(t, batch.Flush(), storage.ErrCheckpointOrder)
		require.NoError(t, child.Rollback())
		require.NoError(t, batch.Flush())
	})

	t.Run("guard poisons on panic", func(t *testing.T) {
		batch := storage.NewBatch(backend)
		batch.Root().Keyword("/pending").Set([]byte{1})

		err := batch.Guard(func() error {
			panic("boom")
		})
		require.ErrorIs(t, err, storage.ErrPoisoned)
		require.ErrorIs(t, err, storage.ErrStorageFatal)

		require.ErrorIs(t, batch.Guard(func() error { return nil }), storage.ErrPoisoned)
		require.ErrorIs(t, batch.Flush(), storage.ErrPoisoned)

		batch.Discard()
		require.Nil(t, batch.Root().Keyword("/pending").Get())
		require.NoError(t, batch.Guard(func() error { return nil }))
	})

	t.Run("backend failure is sticky", func(t *testing.T) {
		batch := storage.NewBatch(failingBackend{Backend: backend})

		err := batch.Guard(func() error {
			require.Nil(t, batch.Root().Keyword("/missing").Get())
			return nil
		})
		require.ErrorIs(t, err, storage.ErrStorageFatal)
		require.ErrorIs(t, batch.Err(), storage.ErrStorageFatal)
		require.ErrorIs(t, batch.Flush(), storage.ErrStorageFatal)
	})
}

func TestBackends(t *testing.T) {
	leveldb, err := storage.OpenLevelDB(filepath.Join(t.TempDir(), "leveldb"))
	require.NoError(t, err)
	sqlite, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	require.NoError(t, err)

	for name, backend := range map[string]storage.Backend{"leveldb": leveldb, "sqlite": sqlite} {
		t.Run(name, func(t *testing.T) {
			defer func() { require.NoError(t, backend.Close()) }()

			value, err := backend.Get([]byte("a"))
			require.NoError(t, err)
			require.Nil(t, value)

			require.NoError(t, backend.Write(map[string][]byte{"a": {1}, "b": {2}}))
			value, err = backend.Get([]byte("a"))
			require.NoError(t, err)
			require.Equal(t, []byte{1}, value)

			require.NoError(t, backend.Write(map[string][]byte{"a": nil, "b": {3}}))
			value, err = backend.Get([]byte("a"))
			require.NoError(t, err)
			require.Nil(t, value)

			value, err = backend.Get([]byte("b"))
			require.NoError(t, err)
			require.Equal(t, []byte{3}, value)
		})
	}
}
