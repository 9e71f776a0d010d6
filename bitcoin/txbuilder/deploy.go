// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/alkanes/cellpack"
	"github.com/BoostyLabs/alkanes/bitcoin"
	"github.com/BoostyLabs/alkanes/bitcoin/ord/envelope"
	"github.com/BoostyLabs/alkanes/bitcoin/utils"
	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// Deployment defines envelope commitment of the contract binary.
type Deployment struct {
	*utils.RevealCommitment
	Envelope *envelope.Envelope
}

// RevealParams describes data needed to build transaction revealing the binary.
type RevealParams struct {
	ProtocolTag uint128.Uint128
	// Commit is the output paying to the deployment address.
	Commit           bitcoin.UTXO
	Inputs           []uint128.Uint128 // constructor inputs, opcode first.
	RecipientAddress string
	SatoshiPerKVByte btcutil.Amount
}

// PrepareDeployment returns taproot address committing to the envelope of the binary.
func (b *TxBuilder) PrepareDeployment(binary []byte, internalKey *btcec.PublicKey) (*Deployment, error) {
	e, err := envelope.New(binary)
	if err != nil {
		return nil, err
	}

	leafScript, err := e.IntoScriptForWitness(schnorr.SerializePubKey(internalKey))
	if err != nil {
		return nil, err
	}

	commitment, err := utils.NewRevealCommitment(b.networkParams, internalKey, leafScript)
	if err != nil {
		return nil, err
	}

	return &Deployment{RevealCommitment: commitment, Envelope: e}, nil
}

// BuildRevealTx constructs unsigned transaction spending the commitment and calling
// the deploy cellpack [1, 0, inputs...].
//
//	outputs:
//	┌─────────┬──────────────┬────────────────────────────────────────┐
//	│  index  │     type     │             description                │
//	├=========┼==============┼========================================┤
//	│       0 │ asset output │ receives assets minted by constructor. │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│       1 │ runestone    │ carries the deploy protostone.         │
//	└─────────┴──────────────┴────────────────────────────────────────┘
func (b *TxBuilder) BuildRevealTx(d *Deployment, params RevealParams) (*wire.MsgTx, btcutil.Amount, error) {
	outpoint, err := params.Commit.OutPoint()
	if err != nil {
		return nil, 0, err
	}

	size, err := d.Envelope.VBytesSize()
	if err != nil {
		return nil, 0, err
	}

	fee := (RoughTxSizeEstimate(1, 2) + btcutil.Amount(size)) * params.SatoshiPerKVByte / 1000
	if params.Commit.Amount < fee+DustAmount {
		return nil, 0, fmt.Errorf("%w: commitment %s does not cover fee %s", bitcoin.ErrInsufficientNativeBalance, params.Commit.Amount, fee)
	}

	deploy := &cellpack.Cellpack{Target: balance.NewAssetID(1, 0), Inputs: params.Inputs}
	runestoneData, err := b.runestoneScript(params.ProtocolTag, deploy, nil, 2)
	if err != nil {
		return nil, 0, err
	}

	tx := wire.NewMsgTx(txVersion)
	tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))

	unallocated := params.Commit.Amount - fee
	if err = b.addOutput(tx, unallocated, &unallocated, params.RecipientAddress); err != nil {
		return nil, 0, err
	}
	tx.AddTxOut(wire.NewTxOut(0, runestoneData))

	return tx, fee, nil
}

// BuildRevealPSBT returns serialised PSBT of the reveal transaction with the leaf data to sign.
func (b *TxBuilder) BuildRevealPSBT(d *Deployment, tx *wire.MsgTx, commit bitcoin.UTXO) ([]byte, error) {
	p, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, err
	}

	input := &p.Inputs[0]
	input.WitnessUtxo = wire.NewTxOut(int64(commit.Amount), commit.Script)
	input.SighashType = txscript.SigHashDefault
	input.TaprootInternalKey = schnorr.SerializePubKey(d.InternalKey)
	input.WitnessScript = d.LeafScript
	if err = utils.UpdatePSBTInputWithTapScriptLeafData(input, d.Tree); err != nil {
		return nil, err
	}

	w := bytes.NewBuffer(nil)
	if err = p.Serialize(w); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}
