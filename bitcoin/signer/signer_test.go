// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer_test

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin"
	"github.com/BoostyLabs/alkanes/bitcoin/ord/envelope"
	"github.com/BoostyLabs/alkanes/bitcoin/signer"
	"github.com/BoostyLabs/alkanes/bitcoin/txbuilder"
)

func TestSigner(t *testing.T) {
	s := signer.NewSigner(&chaincfg.MainNetParams)
	builder := txbuilder.NewTxBuilder(&chaincfg.MainNetParams)

	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	pubKey := privKey.PubKey()

	recipient, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(txscript.ComputeTaprootKeyNoScript(pubKey)),
		&chaincfg.MainNetParams)
	require.NoError(t, err)

	binary := bytes.Repeat([]byte("\x00asm\x01\x00\x00\x00"), 100)

	deployment, err := builder.PrepareDeployment(binary, pubKey)
	require.NoError(t, err)

	commit := bitcoin.UTXO{
		TxHash: "5aa4e4e957b467d07413aa75cdab5e4ce9ff2b714cd81b6af0e90bfee5ff070c",
		Amount: 43000,
		Script: deployment.PkScript(),
	}

	tx, fee, err := builder.BuildRevealTx(deployment, txbuilder.RevealParams{
		ProtocolTag:      uint128.From64(1),
		Commit:           commit,
		Inputs:           []uint128.Uint128{uint128.Zero},
		RecipientAddress: recipient.EncodeAddress(),
		SatoshiPerKVByte: 2000,
	})
	require.NoError(t, err)
	require.Positive(t, fee)
	require.Len(t, tx.TxOut, 2)
	require.EqualValues(t, commit.Amount-fee, tx.TxOut[0].Value)

	packet, err := builder.BuildRevealPSBT(deployment, tx, commit)
	require.NoError(t, err)

	// modified returns the reveal PSBT changed by fn.
	modified := func(t *testing.T, fn func(p *psbt.Packet)) []byte {
		p, err := psbt.NewFromRawBytes(bytes.NewReader(packet), false)
		require.NoError(t, err)

		fn(p)

		w := bytes.NewBuffer(nil)
		require.NoError(t, p.Serialize(w))

		return w.Bytes()
	}

	t.Run("reveal of the deployment", func(t *testing.T) {
		signedTx, err := s.SignReveal(signer.RevealParams{
			SerializedPSBT: packet,
			PrivateKey:     privKey,
		})
		require.NoError(t, err)
		require.Len(t, signedTx.TxIn[0].Witness, 3)
		require.Equal(t, deployment.LeafScript, []byte(signedTx.TxIn[0].Witness[1]))
		require.Equal(t, deployment.ControlBlock, []byte(signedTx.TxIn[0].Witness[2]))

		prevFetcher := txscript.NewCannedPrevOutputFetcher(commit.Script, int64(commit.Amount))
		sigHashes := txscript.NewTxSigHashes(signedTx, prevFetcher)

		vm, err := txscript.NewEngine(
			commit.Script, signedTx, 0, txscript.StandardVerifyFlags,
			nil, sigHashes, int64(commit.Amount), prevFetcher,
		)
		require.NoError(t, err)
		require.NoError(t, vm.Execute())

		payload, err := envelope.Payload(signedTx)
		require.NoError(t, err)
		require.Equal(t, binary, payload)
	})

	t.Run("foreign key", func(t *testing.T) {
		other, err := btcec.NewPrivateKey()
		require.NoError(t, err)

		_, err = s.SignReveal(signer.RevealParams{SerializedPSBT: packet, PrivateKey: other})
		require.ErrorIs(t, err, signer.ErrKeyMismatch)
	})

	t.Run("leaf outside of the commitment", func(t *testing.T) {
		forged := modified(t, func(p *psbt.Packet) {
			p.Inputs[0].TaprootLeafScript[0].Script = []byte{txscript.OP_TRUE}
		})

		_, err := s.SignReveal(signer.RevealParams{SerializedPSBT: forged, PrivateKey: privKey})
		require.ErrorIs(t, err, signer.ErrNotCommitted)
	})

	t.Run("missing leaf script", func(t *testing.T) {
		bare := modified(t, func(p *psbt.Packet) {
			p.Inputs[0].TaprootLeafScript = nil
		})

		_, err := s.SignReveal(signer.RevealParams{SerializedPSBT: bare, PrivateKey: privKey})
		require.ErrorIs(t, err, signer.ErrNoLeafScript)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := s.SignReveal(signer.RevealParams{SerializedPSBT: packet, Input: 3, PrivateKey: privKey})
		require.Error(t, err)

		noTaproot := modified(t, func(p *psbt.Packet) {
			p.Inputs[0].WitnessUtxo.PkScript = []byte{txscript.OP_TRUE}
		})

		_, err = s.SignReveal(signer.RevealParams{SerializedPSBT: noTaproot, PrivateKey: privKey})
		require.Error(t, err)
	})
}
