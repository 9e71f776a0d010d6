// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package utils_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/alkanes/bitcoin/utils"
)

func TestScripts(t *testing.T) {
	t.Run("unspendable", func(t *testing.T) {
		script := utils.MustUnspendableScript([]byte("alkanes")...)
		require.True(t, utils.IsUnspendable(script))
		require.Equal(t, append([]byte{txscript.OP_RETURN, 7}, []byte("alkanes")...), script)

		require.Equal(t, []byte{txscript.OP_RETURN}, utils.MustUnspendableScript())
		require.False(t, utils.IsUnspendable(nil))
		require.False(t, utils.IsUnspendable([]byte{txscript.OP_TRUE}))
	})

	t.Run("taproot", func(t *testing.T) {
		script, err := hex.DecodeString("5120c936d7950336707023cb9d18086d3e97937e31c571ffcec770d8840b8e205a64")
		require.NoError(t, err)
		require.True(t, utils.IsTaproot(script))
		require.False(t, utils.IsTaproot(script[:33]))
	})

	t.Run("tap script", func(t *testing.T) {
		leaf := []byte{txscript.OP_TRUE}
		controlBlock := bytes.Repeat([]byte{0xc0}, txscript.ControlBlockBaseSize)

		script, ok := utils.TapScript(wire.TxWitness{{0x01}, leaf, controlBlock})
		require.True(t, ok)
		require.Equal(t, leaf, script)

		script, ok = utils.TapScript(wire.TxWitness{leaf, controlBlock, {0x50, 0x01}})
		require.True(t, ok)
		require.Equal(t, leaf, script)

		deep := append(append([]byte{}, controlBlock...), bytes.Repeat([]byte{0x01}, txscript.ControlBlockNodeSize)...)
		script, ok = utils.TapScript(wire.TxWitness{leaf, deep})
		require.True(t, ok)
		require.Equal(t, leaf, script)

		_, ok = utils.TapScript(wire.TxWitness{make([]byte, 64)})
		require.False(t, ok)

		_, ok = utils.TapScript(wire.TxWitness{leaf, controlBlock[:20]})
		require.False(t, ok)

		_, ok = utils.TapScript(nil)
		require.False(t, ok)
	})

	t.Run("tap script tree", func(t *testing.T) {
		_, err := utils.NewTapScriptTreeFromRawScripts()
		require.Error(t, err)

		require.Panics(t, func() { utils.MustTapScriptTreeFromRawScripts() })

		tree := utils.MustTapScriptTreeFromRawScripts([]byte{txscript.OP_TRUE})
		require.Len(t, tree.LeafMerkleProofs, 1)
	})
}

func TestRevealCommitment(t *testing.T) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	leaf := []byte{txscript.OP_TRUE}

	commitment, err := utils.NewRevealCommitment(&chaincfg.RegressionNetParams, privKey.PubKey(), leaf)
	require.NoError(t, err)
	require.True(t, commitment.Address.IsForNet(&chaincfg.RegressionNetParams))

	t.Run("output script", func(t *testing.T) {
		script, err := txscript.PayToAddrScript(commitment.Address)
		require.NoError(t, err)
		require.Equal(t, script, commitment.PkScript())
		require.True(t, utils.IsTaproot(commitment.PkScript()))
	})

	t.Run("witness reveals the leaf", func(t *testing.T) {
		witness := commitment.Witness(make([]byte, 64))

		script, ok := utils.TapScript(witness)
		require.True(t, ok)
		require.Equal(t, leaf, script)

		controlBlock, err := txscript.ParseControlBlock(witness[2])
		require.NoError(t, err)
		require.NoError(t, txscript.VerifyTaprootLeafCommitment(controlBlock, commitment.Address.WitnessProgram(), leaf))
		require.Error(t, txscript.VerifyTaprootLeafCommitment(controlBlock, commitment.Address.WitnessProgram(), []byte{txscript.OP_FALSE}))
	})

	t.Run("psbt leaf data", func(t *testing.T) {
		input := &psbt.PInput{}
		require.Error(t, utils.UpdatePSBTInputWithTapScriptLeafData(input, commitment.Tree))

		input.TaprootInternalKey = schnorr.SerializePubKey(privKey.PubKey())
		require.Error(t, utils.UpdatePSBTInputWithTapScriptLeafData(input, commitment.Tree))

		input.WitnessScript = leaf
		require.NoError(t, utils.UpdatePSBTInputWithTapScriptLeafData(input, commitment.Tree))
		require.Len(t, input.TaprootLeafScript, 1)
		require.Equal(t, leaf, input.TaprootLeafScript[0].Script)
		require.Equal(t, commitment.ControlBlock, input.TaprootLeafScript[0].ControlBlock)

		outputKey := txscript.ComputeTaprootOutputKey(privKey.PubKey(), input.TaprootMerkleRoot)
		require.Equal(t, schnorr.SerializePubKey(outputKey), commitment.Address.WitnessProgram())
	})

	t.Run("no leaf", func(t *testing.T) {
		_, err := utils.NewRevealCommitment(&chaincfg.RegressionNetParams, privKey.PubKey(), nil)
		require.Error(t, err)
	})
}
