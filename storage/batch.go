// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrStorageFatal defines failure of the underlying storage. Always fatal for the whole block.
var ErrStorageFatal = errors.New("storage failure")

// ErrPoisoned defines that a panic happened while the batch guard was held.
var ErrPoisoned = fmt.Errorf("%w: guard poisoned", ErrStorageFatal)

// ErrCheckpointOrder defines commit or rollback of a checkpoint which is not the innermost one.
var ErrCheckpointOrder = errors.New("checkpoint is not the innermost one")

// Batch keeps pending writes as a stack of checkpoints on top of the Backend.
// INFO: layer 0 holds block level writes, every Derive pushes a new layer.
type Batch struct {
	mu       sync.Mutex
	backend  Backend
	layers   []map[string][]byte
	err      error
	poisoned bool
}

// NewBatch is a constructor for Batch.
func NewBatch(backend Backend) *Batch {
	return &Batch{
		backend: backend,
		layers:  []map[string][]byte{make(map[string][]byte)},
	}
}

// Root returns pointer to the root key of the batch.
func (b *Batch) Root() *Pointer {
	return &Pointer{batch: b}
}

// Err returns first storage failure met by the batch if any.
func (b *Batch) Err() error {
	return b.err
}

// Depth returns number of open checkpoints.
func (b *Batch) Depth() int {
	return len(b.layers) - 1
}

// Guard runs fn holding the batch lock. A panic inside fn poisons the batch
// until Discard is called, storage failures are reported after fn returns.
func (b *Batch) Guard(fn func() error) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.poisoned {
		return ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			b.poisoned = true
			err = fmt.Errorf("%w: %v", ErrPoisoned, r)
		}
	}()

	if err = fn(); err != nil {
		return err
	}

	return b.err
}

// Flush writes block level layer into the backend.
func (b *Batch) Flush() error {
	switch {
	case b.poisoned:
		return ErrPoisoned
	case b.err != nil:
		return b.err
	case b.Depth() != 0:
		return ErrCheckpointOrder
	}

	if err := b.backend.Write(b.layers[0]); err != nil {
		b.err = fmt.Errorf("%w: %v", ErrStorageFatal, err)
		return b.err
	}

	b.layers[0] = make(map[string][]byte)

	return nil
}

// Discard drops all pending writes and resets failure state.
func (b *Batch) Discard() {
	b.layers = []map[string][]byte{make(map[string][]byte)}
	b.err = nil
	b.poisoned = false
}

// get returns the latest value of the key.
func (b *Batch) get(key []byte) []byte {
	for idx := len(b.layers) - 1; idx >= 0; idx-- {
		if value, ok := b.layers[idx][string(key)]; ok {
			return value
		}
	}

	value, err := b.backend.Get(key)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("%w: %v", ErrStorageFatal, err)
		}

		return nil
	}

	return value
}

// set writes value into the innermost checkpoint.
func (b *Batch) set(key, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	b.layers[len(b.layers)-1][string(key)] = stored
}

// checkpoint pushes new layer and returns its depth.
func (b *Batch) checkpoint() int {
	b.layers = append(b.layers, make(map[string][]byte))

	return b.Depth()
}

// commit merges the innermost layer into the previous one.
func (b *Batch) commit(depth int) error {
	if depth == 0 || depth != b.Depth() {
		return ErrCheckpointOrder
	}

	top := b.layers[depth]
	for key, value := range top {
		b.layers[depth-1][key] = value
	}
	b.layers = b.layers[:depth]

	return nil
}

// rollback drops the innermost layer.
func (b *Batch) rollback(depth int) error {
	if depth == 0 || depth != b.Depth() {
		return ErrCheckpointOrder
	}

	b.layers = b.layers[:depth]

	return nil
}

// sortedKeys returns keys of the map in ascending order.
func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
