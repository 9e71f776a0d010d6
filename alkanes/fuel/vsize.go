// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package fuel

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/envelope"
)

// VirtualSize returns fuel size of the transaction. Witness data is counted
// only for transactions carrying a binary envelope, so large witnesses
// cannot buy fuel.
func VirtualSize(tx *wire.MsgTx) uint64 {
	if _, err := envelope.Payload(tx); err == nil {
		weight := blockchain.GetTransactionWeight(btcutil.NewTx(tx))
		return uint64((weight + blockchain.WitnessScaleFactor - 1) / blockchain.WitnessScaleFactor)
	}

	return uint64(tx.SerializeSizeStripped())
}
