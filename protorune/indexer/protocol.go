// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package indexer

import (
	"errors"

	"github.com/BoostyLabs/alkanes/alkanes/message"
	"github.com/BoostyLabs/alkanes/bitcoin/ord/envelope"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/storage"
)

// indexProtocol routes the protocol balances of the inputs through the protostones of the indexed tag.
func (ix *Indexer) indexProtocol(tc *txContext) error {
	unallocated, err := loadInputs(ix.protocol, tc.tx)
	if err != nil {
		return err
	}

	if tc.isCenotaph() {
		return ix.protocol.BurnSheet(unallocated)
	}

	outputs := make(map[uint32]*balance.Sheet)
	if err = ix.protoburns(tc, outputs); err != nil {
		return err
	}

	var pointer *uint32
	if tc.runestone != nil {
		pointer = tc.runestone.Pointer
	}

	vout, ok := tc.target(pointer, tc.outputs())
	if !ok {
		if err = ix.protocol.BurnSheet(unallocated); err != nil {
			return err
		}
	} else if err = route(unallocated, vout, outputs); err != nil {
		return err
	}

	for idx := range tc.stones {
		if err = ix.protostone(tc, idx, outputs); err != nil {
			return err
		}
	}

	for vout, sheet := range outputs {
		if !tc.isSpendable(vout) {
			if err = ix.protocol.BurnSheet(sheet); err != nil {
				return err
			}

			continue
		}

		if !sheet.IsZero() {
			ix.protocol.Save(tc.outpoint(vout), sheet)
		}
	}

	return nil
}

// protoburns moves runes sent to the shadow vouts of burning protostones into the protocol.
func (ix *Indexer) protoburns(tc *txContext, outputs map[uint32]*balance.Sheet) error {
	for idx, stone := range tc.stones {
		if !stone.IsBurn() || stone.ProtocolTag != ix.tag || stone.Cenotaph {
			continue
		}

		shadow := tc.shadow(idx)
		burned, ok := tc.runeOutputs[shadow]
		if !ok || burned.IsZero() {
			continue
		}
		delete(tc.runeOutputs, shadow)

		if err := ix.runes.BurnSheet(burned); err != nil {
			return err
		}

		vout, ok := tc.target(stone.Pointer, tc.outputs())
		if !ok {
			if err := ix.protocol.BurnSheet(burned); err != nil {
				return err
			}

			continue
		}

		log.Debugf("tx %s: protoburn of %d runes to vout %d", tc.hash, burned.Len(), vout)

		if err := route(burned, vout, outputs); err != nil {
			return err
		}
	}

	return nil
}

// protostone runs the message of the protostone and its edicts over the balance of its shadow vout.
func (ix *Indexer) protostone(tc *txContext, idx int, outputs map[uint32]*balance.Sheet) error {
	stone := tc.stones[idx]
	shadow := tc.shadow(idx)
	if stone.ProtocolTag != ix.tag {
		return nil
	}

	sheet, ok := outputs[shadow]
	if !ok {
		sheet = balance.NewSheet()
	}
	delete(outputs, shadow)

	if stone.Cenotaph {
		log.Debugf("tx %s: protostone %d is a cenotaph", tc.hash, idx)
		return ix.protocol.BurnSheet(sheet)
	}

	if stone.IsMessage() {
		out, err := tc.block.Handler.Handle(ix.parcel(tc, shadow, stone.Message, sheet))
		if err != nil {
			if errors.Is(err, storage.ErrStorageFatal) {
				return err
			}

			refund := stone.Refund
			if refund == nil {
				refund = stone.Pointer
			}

			vout, ok := tc.target(refund, shadow)
			if !ok {
				return ix.protocol.BurnSheet(sheet)
			}

			log.Debugf("tx %s: message of protostone %d refunded to vout %d: %v", tc.hash, idx, vout, err)

			return route(sheet, vout, outputs)
		}

		sheet = out
	}

	for _, edict := range stone.Edicts {
		// edicts may not target shadow vouts of processed protostones.
		if edict.Output > tc.outputs() && (!tc.isShadow(edict.Output) || edict.Output <= shadow) {
			continue
		}

		allocations := TransferToVout(edict.Output, edict.Amount, sheet.Get(edict.ID), tc.tx)
		if err := Allocate(sheet, edict.ID, allocations, outputs); err != nil {
			return err
		}
	}

	vout, ok := tc.target(stone.Pointer, shadow)
	if !ok {
		return ix.protocol.BurnSheet(sheet)
	}

	return route(sheet, vout, outputs)
}

// parcel returns message of the protostone carrying the balance of its shadow vout.
func (ix *Indexer) parcel(tc *txContext, shadow uint32, calldata []byte, sheet *balance.Sheet) *message.Parcel {
	payload, err := envelope.Payload(tc.tx)
	if err != nil && !errors.Is(err, envelope.ErrNoEnvelope) {
		log.Debugf("tx %s: envelope: %v", tc.hash, err)
	}

	return &message.Parcel{
		Tx:       tc.tx,
		Height:   tc.block.Height,
		TxIndex:  tc.index,
		Vout:     shadow,
		Calldata: calldata,
		Runes:    sheet,
		Payload:  payload,
	}
}
