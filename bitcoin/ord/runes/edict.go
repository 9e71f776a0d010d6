// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"math"
	"slices"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/sequencereader"
)

// Edict defines transfer values of the rune protocol.
type Edict struct {
	RuneID RuneID
	Amount uint128.Uint128
	Output uint32
}

// ParseEdictsFromIntSeq parses vector of Edicts from number sequence.
// Edicts parsed before a malformed one are returned together with the cenotaph.
func ParseEdictsFromIntSeq(sr *sequencereader.SequenceReader[uint128.Uint128]) ([]Edict, error) {
	var prevRuneID RuneID
	edicts := make([]Edict, 0, sr.Len()/4)
	for sr.Len() >= 4 {
		// skip error due to loop condition check.
		group, _ := sr.Take(4)
		block, tx, amount, output := group[0], group[1], group[2], group[3]

		if block.Hi != 0 || tx.Hi != 0 || tx.Lo > math.MaxUint32 {
			return edicts, newCenotaphError(EdictsCenotaphErrorType, "edict rune id delta %s:%s overflows", block, tx)
		}

		runeID, ok := prevRuneID.CheckedNext(RuneID{Block: block.Lo, TxID: uint32(tx.Lo)})
		if !ok {
			return edicts, newCenotaphError(EdictsCenotaphErrorType, "edict rune id %s overflows", prevRuneID.String())
		}

		if output.Hi != 0 || output.Lo > math.MaxUint32 {
			return edicts, newCenotaphError(EdictsCenotaphErrorType, "edict output %s overflows", output)
		}

		edict := Edict{
			RuneID: runeID,
			Amount: amount,
			Output: uint32(output.Lo),
		}

		prevRuneID.Set(edict.RuneID)
		edicts = append(edicts, edict)
	}

	if sr.HasNext() {
		return edicts, newCenotaphError(TrailingIntegersCenotaphErrorType, "%d trailing integers after edicts", sr.Len())
	}

	return edicts, nil
}

// ToIntSeq returns Edict as sequence on integers.
func (edict *Edict) ToIntSeq() []uint128.Uint128 {
	return append(edict.RuneID.ToIntSeq(), edict.Amount, uint128.From64(uint64(edict.Output)))
}

// SortEdicts sorts edicts by block number and transaction id.
func SortEdicts(edicts []Edict) {
	slices.SortStableFunc(edicts, func(a, b Edict) int {
		switch {
		case a.RuneID.Block < b.RuneID.Block:
			return -1
		case a.RuneID.Block > b.RuneID.Block:
			return 1
		case a.RuneID.TxID < b.RuneID.TxID:
			return -1
		case a.RuneID.TxID > b.RuneID.TxID:
			return 1
		}

		return 0
	})
}

// UseDelta converts list of Edits using delta encoding.
func UseDelta(sortedEdicts []Edict) []Edict {
	var (
		deltaEdicts   = make([]Edict, len(sortedEdicts))
		previousBlock uint64
		previousTx    uint32
		blockDelta    uint64
		txDelta       uint32
	)

	for idx, edict := range sortedEdicts {
		blockDelta = edict.RuneID.Block - previousBlock
		if blockDelta == 0 {
			txDelta = edict.RuneID.TxID - previousTx
		} else {
			txDelta = edict.RuneID.TxID
		}

		deltaEdicts[idx] = Edict{
			RuneID: RuneID{
				Block: blockDelta,
				TxID:  txDelta,
			},
			Amount: edict.Amount,
			Output: edict.Output,
		}

		previousBlock = edict.RuneID.Block
		previousTx = edict.RuneID.TxID
	}

	return deltaEdicts
}

// EdictsToIntSeq converts list of Edicts into in list of integers.
func EdictsToIntSeq(edicts []Edict) []uint128.Uint128 {
	sorted := slices.Clone(edicts)
	SortEdicts(sorted)

	sequence := make([]uint128.Uint128, 0, len(edicts)*4)
	for _, edict := range UseDelta(sorted) {
		sequence = append(sequence, edict.ToIntSeq()...)
	}

	return sequence
}
