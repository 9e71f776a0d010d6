// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package indexer

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/protorune/protostone"
)

// txContext defines transaction being indexed.
type txContext struct {
	block     *BlockContext
	tx        *wire.MsgTx
	hash      chainhash.Hash
	index     uint32
	runestone *runes.Runestone
	stones    []protostone.Protostone
	// runeOutputs holds runes allocated to real and shadow outputs.
	runeOutputs map[uint32]*balance.Sheet
}

// indexTransaction routes runes and then the protocol balances of the transaction.
func (ix *Indexer) indexTransaction(bctx *BlockContext, tx *wire.MsgTx, index uint32) error {
	tc := &txContext{
		block:       bctx,
		tx:          tx,
		hash:        tx.TxHash(),
		index:       index,
		runeOutputs: make(map[uint32]*balance.Sheet),
	}

	runestone, err := runes.Decipher(tx)
	switch {
	case errors.Is(err, runes.ErrNoRunestone):
	case err != nil:
		log.Debugf("tx %s: runestone: %v", tc.hash, err)
	default:
		tc.runestone = runestone
	}

	if tc.runestone != nil && !tc.runestone.IsCenotaph() {
		if tc.stones, err = protostone.FromRunestone(tc.runestone); err != nil {
			log.Debugf("tx %s: %v", tc.hash, err)
			tc.stones = nil
		}

		if err = tc.runestone.Verify(len(tx.TxOut), len(tc.stones)); err != nil {
			var flaw *runes.CenotaphError
			if !errors.As(err, &flaw) {
				return err
			}

			tc.runestone.IntoCenotaph(flaw)
			tc.stones = nil
		}
	}

	if err = ix.indexRunes(tc); err != nil {
		return err
	}

	if err = ix.indexProtocol(tc); err != nil {
		return err
	}

	return ix.finishRunes(tc)
}

// isCenotaph returns true if the transaction carries a malformed runestone.
func (tc *txContext) isCenotaph() bool {
	return tc.runestone != nil && tc.runestone.IsCenotaph()
}

// outputs returns number of real outputs.
func (tc *txContext) outputs() uint32 {
	return uint32(len(tc.tx.TxOut))
}

// shadow returns shadow vout of the protostone.
func (tc *txContext) shadow(index int) uint32 {
	return protostone.ShadowVout(len(tc.tx.TxOut), index)
}

// isShadow returns true for vouts of the protostones.
func (tc *txContext) isShadow(vout uint32) bool {
	return vout > tc.outputs() && vout <= tc.outputs()+uint32(len(tc.stones))
}

// isSpendable returns true for real outputs which are not OP_RETURN.
func (tc *txContext) isSpendable(vout uint32) bool {
	if vout >= tc.outputs() {
		return false
	}

	for _, destination := range Destinations(tc.tx) {
		if destination == vout {
			return true
		}
	}

	return false
}

// target returns output receiving balances sent to pointer from the position after,
// shadow vouts before or at after are never targets. The default output is used
// otherwise, false if the transaction has only OP_RETURN outputs.
func (tc *txContext) target(pointer *uint32, after uint32) (uint32, bool) {
	if pointer != nil {
		vout := *pointer
		if vout < tc.outputs() || (tc.isShadow(vout) && vout > after) {
			return vout, true
		}
	}

	return DefaultOutput(tc.tx)
}

// outpoint returns outpoint of the real output.
func (tc *txContext) outpoint(vout uint32) wire.OutPoint {
	return wire.OutPoint{Hash: tc.hash, Index: vout}
}

// loadInputs returns concatenated sheets of the spent outpoints and clears them.
func loadInputs(table *balance.Table, tx *wire.MsgTx) (*balance.Sheet, error) {
	sheets := make([]*balance.Sheet, 0, len(tx.TxIn))
	for _, in := range tx.TxIn {
		sheet, err := table.Load(in.PreviousOutPoint)
		if err != nil {
			return nil, err
		}

		if !sheet.IsZero() {
			table.Clear(in.PreviousOutPoint)
			sheets = append(sheets, sheet)
		}
	}

	return balance.Concat(sheets...)
}

// route moves the whole sheet to the output sheet of vout.
func route(sheet *balance.Sheet, vout uint32, outputs map[uint32]*balance.Sheet) error {
	if sheet.IsZero() {
		return nil
	}

	target, ok := outputs[vout]
	if !ok {
		target = balance.NewSheet()
		outputs[vout] = target
	}

	return sheet.Pipe(target)
}
