// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package storage

import (
	"encoding/binary"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/numbers"
)

// lengthKeyword defines suffix of the list length key.
const lengthKeyword = "/length"

// Pointer addresses a key inside the Batch. Keys are built by concatenating
// keyword prefixes, e.g. /alkanes/<id>/storage/<slot>.
type Pointer struct {
	batch *Batch
	key   []byte
	depth int // checkpoint owned by this pointer, 0 if none.
}

// Key returns the full key of the pointer.
func (p *Pointer) Key() []byte {
	return p.key
}

// Select returns child pointer with sub key appended.
func (p *Pointer) Select(sub []byte) *Pointer {
	key := make([]byte, 0, len(p.key)+len(sub))
	key = append(key, p.key...)
	key = append(key, sub...)

	return &Pointer{batch: p.batch, key: key}
}

// Keyword returns child pointer with string sub key appended.
func (p *Pointer) Keyword(word string) *Pointer {
	return p.Select([]byte(word))
}

// SelectIndex returns pointer to the list item.
func (p *Pointer) SelectIndex(idx uint32) *Pointer {
	return p.Keyword("/").Select(numbers.PutUint32(idx))
}

// Get returns stored bytes, nil if nothing stored.
func (p *Pointer) Get() []byte {
	return p.batch.get(p.key)
}

// Set stores bytes, empty value means absence.
func (p *Pointer) Set(value []byte) {
	p.batch.set(p.key, value)
}

// GetValue returns stored little-endian uint128.
func (p *Pointer) GetValue() uint128.Uint128 {
	return numbers.Uint128FromBytes(p.Get())
}

// SetValue stores little-endian uint128.
func (p *Pointer) SetValue(value uint128.Uint128) {
	p.Set(numbers.PutUint128(value))
}

// GetUint64 returns stored little-endian uint64.
func (p *Pointer) GetUint64() uint64 {
	buf := make([]byte, 8)
	copy(buf, p.Get())

	return binary.LittleEndian.Uint64(buf)
}

// SetUint64 stores little-endian uint64.
func (p *Pointer) SetUint64(value uint64) {
	p.Set(numbers.PutUint64(value))
}

// Length returns number of items appended to the list.
func (p *Pointer) Length() uint32 {
	buf := make([]byte, 4)
	copy(buf, p.Keyword(lengthKeyword).Get())

	return binary.LittleEndian.Uint32(buf)
}

// Append adds item to the list.
func (p *Pointer) Append(value []byte) {
	length := p.Length()
	p.SelectIndex(length).Set(value)
	p.Keyword(lengthKeyword).Set(numbers.PutUint32(length + 1))
}

// GetList returns all list items.
func (p *Pointer) GetList() [][]byte {
	length := p.Length()
	items := make([][]byte, 0, length)
	for idx := uint32(0); idx < length; idx++ {
		items = append(items, p.SelectIndex(idx).Get())
	}

	return items
}

// Derive opens a checkpoint and returns pointer owning it. Writes through any
// pointer of the batch land in the innermost checkpoint until it is committed
// or rolled back.
func (p *Pointer) Derive() *Pointer {
	return &Pointer{batch: p.batch, key: p.key, depth: p.batch.checkpoint()}
}

// Commit merges the checkpoint owned by the pointer into its parent.
func (p *Pointer) Commit() error {
	err := p.batch.commit(p.depth)
	if err == nil {
		p.depth = 0
	}

	return err
}

// Rollback drops the checkpoint owned by the pointer.
func (p *Pointer) Rollback() error {
	err := p.batch.rollback(p.depth)
	if err == nil {
		p.depth = 0
	}

	return err
}

// Batch returns the batch of the pointer.
func (p *Pointer) Batch() *Batch {
	return p.batch
}
