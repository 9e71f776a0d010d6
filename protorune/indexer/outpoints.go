// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package indexer

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/bitcoin/utils"
	"github.com/BoostyLabs/alkanes/internal/numbers"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/storage"
)

// CommitConfirmations defines confirmations of the commit output required to etch a named rune.
const CommitConfirmations = 6

// outpointInfoSize defines size of the record: height u64 LE ‖ taproot flag.
const outpointInfoSize = 9

// OutpointInfo defines output recorded by the indexer.
type OutpointInfo struct {
	Height  uint64
	Taproot bool
}

// Outpoints records heights and script types of indexed outputs.
type Outpoints struct {
	root *storage.Pointer
}

// NewOutpoints is a constructor for Outpoints.
func NewOutpoints(root *storage.Pointer) *Outpoints {
	return &Outpoints{root: root}
}

// Record stores info of all outputs of the transaction.
func (o *Outpoints) Record(tx *wire.MsgTx, height uint64) {
	hash := tx.TxHash()
	for vout, out := range tx.TxOut {
		record := numbers.PutUint64(height)
		if utils.IsTaproot(out.PkScript) {
			record = append(record, 1)
		} else {
			record = append(record, 0)
		}

		o.outpoint(wire.OutPoint{Hash: hash, Index: uint32(vout)}).Set(record)
	}
}

// Info returns recorded info of the output, false if the output was never indexed.
func (o *Outpoints) Info(op wire.OutPoint) (OutpointInfo, bool) {
	record := o.outpoint(op).Get()
	if len(record) != outpointInfoSize {
		return OutpointInfo{}, false
	}

	return OutpointInfo{
		Height:  binary.LittleEndian.Uint64(record),
		Taproot: record[8] == 1,
	}, true
}

// CommitsToRune returns true if an input reveals tapscript pushing the name
// commitment and spends a taproot output with enough confirmations.
func (o *Outpoints) CommitsToRune(tx *wire.MsgTx, name *runes.Rune, height uint64) bool {
	commitment := name.Commitment()
	for _, in := range tx.TxIn {
		script, ok := utils.TapScript(in.Witness)
		if !ok {
			continue
		}

		tokenizer := txscript.MakeScriptTokenizer(0, script)
		for tokenizer.Next() {
			if tokenizer.Opcode() > txscript.OP_PUSHDATA4 || !bytes.Equal(tokenizer.Data(), commitment) {
				continue
			}

			info, ok := o.Info(in.PreviousOutPoint)
			if !ok || !info.Taproot || info.Height > height {
				continue
			}

			if height-info.Height+1 >= CommitConfirmations {
				return true
			}
		}
	}

	return false
}

func (o *Outpoints) outpoint(op wire.OutPoint) *storage.Pointer {
	return o.root.Keyword("/outpoint/info/").Select(balance.OutpointKey(op))
}
