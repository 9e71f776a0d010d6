// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"lukechampine.com/uint128"
)

// RuneID defined the id of the rune.
type RuneID struct {
	Block uint64
	TxID  uint32
}

// NewRuneIDFromString returns RuneID parsed from string.
func NewRuneIDFromString(s string) (RuneID, error) {
	data := strings.Split(s, ":")
	if len(data) != 2 {
		return RuneID{}, fmt.Errorf("invalid rune id format: %s", s)
	}

	block, err := strconv.ParseUint(data[0], 10, 64)
	if err != nil {
		return RuneID{}, err
	}

	txID, err := strconv.ParseUint(data[1], 10, 32)
	if err != nil {
		return RuneID{}, err
	}

	return RuneID{Block: block, TxID: uint32(txID)}, nil
}

// NewRuneIDFromIntSeq returns RuneID from block and tx integers, false if
// values do not fit or the id is malformed.
func NewRuneIDFromIntSeq(block, tx uint128.Uint128) (RuneID, bool) {
	if block.Hi != 0 || tx.Hi != 0 || tx.Lo > math.MaxUint32 {
		return RuneID{}, false
	}

	id := RuneID{Block: block.Lo, TxID: uint32(tx.Lo)}

	return id, id.IsValid()
}

// IsValid returns false for ids with zero block and non-zero tx.
func (id RuneID) IsValid() bool {
	return id.Block != 0 || id.TxID == 0
}

// Next produces next RuneID from delta encoding.
func (id *RuneID) Next(delta RuneID) RuneID {
	next, _ := id.CheckedNext(delta)

	return next
}

// CheckedNext produces next RuneID from delta encoding, false on overflow.
func (id *RuneID) CheckedNext(delta RuneID) (RuneID, bool) {
	if delta.Block == 0 {
		if id.TxID > math.MaxUint32-delta.TxID {
			return RuneID{}, false
		}

		return RuneID{Block: id.Block, TxID: id.TxID + delta.TxID}, true
	}

	if id.Block > math.MaxUint64-delta.Block {
		return RuneID{}, false
	}

	return RuneID{Block: id.Block + delta.Block, TxID: delta.TxID}, true
}

// Set is a copying setter, sets runeID values to id.
func (id *RuneID) Set(runeID RuneID) {
	id.Block = runeID.Block
	id.TxID = runeID.TxID
}

// String returns RuneID as string.
func (id *RuneID) String() string {
	return fmt.Sprintf("%d:%d", id.Block, id.TxID)
}

// ToIntSeq returns RuneID as integer sequence.
func (id *RuneID) ToIntSeq() []uint128.Uint128 {
	return []uint128.Uint128{uint128.From64(id.Block), uint128.From64(uint64(id.TxID))}
}
