// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package utils

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// RevealCommitment defines taproot output committing to a single leaf, spent by
// the script path which reveals the leaf on chain.
type RevealCommitment struct {
	InternalKey  *btcec.PublicKey
	LeafScript   []byte
	Tree         *txscript.IndexedTapScriptTree
	ControlBlock []byte
	Address      *btcutil.AddressTaproot
}

// NewRevealCommitment commits the leaf script under the internal key.
func NewRevealCommitment(chainParams *chaincfg.Params, internalKey *btcec.PublicKey, leafScript []byte) (*RevealCommitment, error) {
	if len(leafScript) == 0 {
		return nil, errors.New("empty leaf script")
	}

	tree, err := NewTapScriptTreeFromRawScripts(leafScript)
	if err != nil {
		return nil, err
	}

	leafControlBlock := tree.LeafMerkleProofs[0].ToControlBlock(internalKey)
	controlBlock, err := leafControlBlock.ToBytes()
	if err != nil {
		return nil, err
	}

	rootHash := tree.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(internalKey, rootHash[:])

	address, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), chainParams)
	if err != nil {
		return nil, err
	}

	return &RevealCommitment{
		InternalKey:  internalKey,
		LeafScript:   leafScript,
		Tree:         tree,
		ControlBlock: controlBlock,
		Address:      address,
	}, nil
}

// PkScript returns output script paying to the commitment.
func (c *RevealCommitment) PkScript() []byte {
	return append([]byte{txscript.OP_1, txscript.OP_DATA_32}, c.Address.WitnessProgram()...)
}

// Witness returns script path witness spending the commitment with the leaf signature.
func (c *RevealCommitment) Witness(signature []byte) wire.TxWitness {
	return wire.TxWitness{signature, c.LeafScript, c.ControlBlock}
}
