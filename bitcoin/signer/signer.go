// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/alkanes/bitcoin/utils"
)

var (
	// ErrNoLeafScript defines reveal input without tap leaf to spend.
	ErrNoLeafScript = errors.New("reveal input has no tap leaf script")
	// ErrKeyMismatch defines private key which is not the internal key of the commitment.
	ErrKeyMismatch = errors.New("private key does not match internal key of the commitment")
	// ErrNotCommitted defines leaf script the spent output does not commit to.
	ErrNotCommitted = errors.New("output does not commit to the leaf script")
)

// RevealParams defines parameters for SignReveal method.
type RevealParams struct {
	SerializedPSBT []byte
	Input          int // index of the commitment input.
	PrivateKey     *btcec.PrivateKey
}

// Signer provides reveal transaction signing.
type Signer struct {
	networkParams *chaincfg.Params
}

// NewSigner is a constructor for Signer.
func NewSigner(networkParams *chaincfg.Params) *Signer {
	return &Signer{
		networkParams: networkParams,
	}
}

// SignReveal signs script path spend of the commitment input, finalizes the PSBT
// and returns transaction ready to broadcast.
func (signer *Signer) SignReveal(params RevealParams) (*wire.MsgTx, error) {
	packet, err := psbt.NewFromRawBytes(bytes.NewReader(params.SerializedPSBT), false)
	if err != nil {
		return nil, err
	}

	if params.Input < 0 || len(packet.Inputs) <= params.Input {
		return nil, fmt.Errorf("invalid input index %d", params.Input)
	}

	input := &packet.Inputs[params.Input]
	if input.WitnessUtxo == nil || !utils.IsTaproot(input.WitnessUtxo.PkScript) {
		return nil, fmt.Errorf("input %d does not spend taproot output", params.Input)
	}
	if len(input.TaprootLeafScript) == 0 {
		return nil, ErrNoLeafScript
	}

	xOnly := schnorr.SerializePubKey(params.PrivateKey.PubKey())
	if !bytes.Equal(input.TaprootInternalKey, xOnly) {
		return nil, ErrKeyMismatch
	}

	leaf := input.TaprootLeafScript[0]
	if err = signer.verifyCommitment(input.WitnessUtxo.PkScript, leaf); err != nil {
		return nil, err
	}

	prevOutputs := make(map[wire.OutPoint]*wire.TxOut, len(packet.Inputs))
	for idx, in := range packet.Inputs {
		if in.WitnessUtxo != nil {
			prevOutputs[packet.UnsignedTx.TxIn[idx].PreviousOutPoint] = in.WitnessUtxo
		}
	}

	var (
		tapLeaf   = txscript.NewTapLeaf(leaf.LeafVersion, leaf.Script)
		leafHash  = tapLeaf.TapHash()
		sigHashes = txscript.NewTxSigHashes(packet.UnsignedTx, txscript.NewMultiPrevOutFetcher(prevOutputs))
	)

	sig, err := txscript.RawTxInTapscriptSignature(
		packet.UnsignedTx, sigHashes, params.Input,
		input.WitnessUtxo.Value, input.WitnessUtxo.PkScript, tapLeaf, input.SighashType, params.PrivateKey,
	)
	if err != nil {
		return nil, err
	}

	// sighash byte is appended back by the finalizer.
	if len(sig) > schnorr.SignatureSize {
		sig = sig[:schnorr.SignatureSize]
	}
	input.TaprootScriptSpendSig = []*psbt.TaprootScriptSpendSig{{
		XOnlyPubKey: xOnly,
		LeafHash:    leafHash.CloneBytes(),
		Signature:   sig,
		SigHash:     input.SighashType,
	}}

	if err = psbt.Finalize(packet, params.Input); err != nil {
		return nil, fmt.Errorf("finalize input %d: %w", params.Input, err)
	}

	return psbt.Extract(packet)
}

// verifyCommitment checks that control block of the leaf proves its inclusion into the output.
func (signer *Signer) verifyCommitment(pkScript []byte, leaf *psbt.TaprootTapLeafScript) error {
	controlBlock, err := txscript.ParseControlBlock(leaf.ControlBlock)
	if err != nil {
		return err
	}

	program := pkScript[2:]
	if err = txscript.VerifyTaprootLeafCommitment(controlBlock, program, leaf.Script); err != nil {
		address, addrErr := btcutil.NewAddressTaproot(program, signer.networkParams)
		if addrErr != nil {
			return fmt.Errorf("%w: %w", ErrNotCommitted, err)
		}

		return fmt.Errorf("%w: %s: %w", ErrNotCommitted, address.EncodeAddress(), err)
	}

	return nil
}
