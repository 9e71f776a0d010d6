// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package indexer

import (
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/utils"
	"github.com/BoostyLabs/alkanes/internal/numbers"
	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// Allocation defines amount assigned to the output.
type Allocation struct {
	Vout   uint32
	Amount uint128.Uint128
}

// Destinations returns indexes of the outputs which are not OP_RETURN.
func Destinations(tx *wire.MsgTx) []uint32 {
	destinations := make([]uint32, 0, len(tx.TxOut))
	for vout, out := range tx.TxOut {
		if !utils.IsUnspendable(out.PkScript) {
			destinations = append(destinations, uint32(vout))
		}
	}

	return destinations
}

// DefaultOutput returns the first output which is not OP_RETURN, false if there is none.
func DefaultOutput(tx *wire.MsgTx) (uint32, bool) {
	destinations := Destinations(tx)
	if len(destinations) == 0 {
		return 0, false
	}

	return destinations[0], true
}

// TransferToVout splits at most available between outputs for the edict targeting vout.
// Vout equal to the number of outputs spreads over all outputs except OP_RETURN ones:
// zero amount splits evenly with the remainder going to the lowest indexes, otherwise
// every output gets amount while available lasts. Any other vout gets the whole
// amount, zero amount meaning everything available.
func TransferToVout(vout uint32, amount, available uint128.Uint128, tx *wire.MsgTx) []Allocation {
	if available.IsZero() {
		return nil
	}

	if int(vout) != len(tx.TxOut) {
		if amount.IsZero() {
			amount = available
		}

		return []Allocation{{Vout: vout, Amount: numbers.Min(amount, available)}}
	}

	destinations := Destinations(tx)
	if len(destinations) == 0 {
		return nil
	}

	allocations := make([]Allocation, 0, len(destinations))
	if amount.IsZero() {
		share, remainder := available.QuoRem64(uint64(len(destinations)))
		for idx, destination := range destinations {
			part := share
			if uint64(idx) < remainder {
				part = part.Add64(1)
			}

			if !part.IsZero() {
				allocations = append(allocations, Allocation{Vout: destination, Amount: part})
			}
		}

		return allocations
	}

	remaining := available
	for _, destination := range destinations {
		if remaining.IsZero() {
			break
		}

		part := numbers.Min(amount, remaining)
		remaining = remaining.Sub(part)
		allocations = append(allocations, Allocation{Vout: destination, Amount: part})
	}

	return allocations
}

// Allocate moves allocations of the asset from the source sheet into output sheets.
func Allocate(source *balance.Sheet, id balance.AssetID, allocations []Allocation, outputs map[uint32]*balance.Sheet) error {
	for _, allocation := range allocations {
		if err := source.Decrease(id, allocation.Amount); err != nil {
			return err
		}

		sheet, ok := outputs[allocation.Vout]
		if !ok {
			sheet = balance.NewSheet()
			outputs[allocation.Vout] = sheet
		}

		if err := sheet.Increase(id, allocation.Amount); err != nil {
			return err
		}
	}

	return nil
}
