// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/alkanes/cellpack"
	"github.com/BoostyLabs/alkanes/bitcoin"
	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/protorune/protostone"
)

const (
	// txVersion defines transaction version for this builder.
	txVersion int32 = 2
	// signHashType define signature hash type for input signing.
	signHashType = txscript.SigHashAll

	// headerSizeVBytes defined rough tx header size in vBytes.
	headerSizeVBytes = 11
	// inputSizeVBytes defined rough tx input size in vBytes.
	inputSizeVBytes = 90
	// outputSizeVBytes defined rough tx output size in vBytes.
	outputSizeVBytes = 30

	// DustAmount defines the smallest amount in satoshi linked to the asset output.
	DustAmount btcutil.Amount = 546
)

// recipientOutput defines output receiving assets of the message transaction.
var recipientOutput uint32 = 0

// TxBuilder builds transactions carrying runestones with protostones.
type TxBuilder struct {
	networkParams *chaincfg.Params
}

// NewTxBuilder is a constructor for TxBuilder.
func NewTxBuilder(networkParams *chaincfg.Params) *TxBuilder {
	return &TxBuilder{networkParams: networkParams}
}

// MessageParams describes data needed to build transaction calling the contract.
type MessageParams struct {
	ProtocolTag uint128.Uint128
	// Cellpack is optional, transaction without it only moves assets by edicts.
	Cellpack         *cellpack.Cellpack
	Edicts           []protostone.Edict
	AssetUTXOs       []bitcoin.UTXO // spent entirely.
	BaseUTXOs        []bitcoin.UTXO // must be sorted by amount desc.
	RecipientAddress string
	ChangeAddress    string
	SatoshiPerKVByte btcutil.Amount
}

// PSBTParams describes data needed to turn unsigned transaction into PSBT.
type PSBTParams struct {
	Tx             *wire.MsgTx
	UsedAssetUTXOs []*bitcoin.UTXO
	UsedBaseUTXOs  []*bitcoin.UTXO
	AssetPubKey    string
	PaymentPubKey  string
}

// BuildMessageTx constructs message transaction.
// Returns transaction, list of used base utxos pointers, estimated fee, and error if any.
//
//	Tx struct
//	inputs:
//	┌─────────┬──────────────┬────────────────────────────────────────┐
//	│  index  │     type     │             description                │
//	├=========┼==============┼========================================┤
//	│   0 - k │ asset inputs │ utxos with linked assets, all of them  │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│ k+1 - n │ base inputs  │ utxos with bitcoin only, possibly many │
//	└─────────┴──────────────┴────────────────────────────────────────┘
//
//	outputs:
//	┌─────────┬──────────────┬────────────────────────────────────────┐
//	│  index  │     type     │             description                │
//	├=========┼==============┼========================================┤
//	│       0 │ asset output │ receives assets left by the message    │
//	│         │              │ and the refund of the failed one.      │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│       1 │ runestone    │ carries the protostone.                │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│       2 │ base output  │ change, if any left above dust.        │
//	└─────────┴──────────────┴────────────────────────────────────────┘
//
// With the cellpack set the runestone pointer targets the shadow output of the
// protostone, so protocol assets of the inputs reach the contract while runes
// linked to the inputs are burned. Without it everything lands on output #0.
func (b *TxBuilder) BuildMessageTx(params MessageParams) (*wire.MsgTx, []*bitcoin.UTXO, btcutil.Amount, error) {
	var assetsAmount btcutil.Amount
	for _, utxo := range params.AssetUTXOs {
		assetsAmount += utxo.Amount
	}

	transferAmount := DustAmount - assetsAmount
	if transferAmount < 0 {
		transferAmount = 0
	}

	baseUTXOs, bitcoinAmount, fee, err := PrepareUTXOs(params.BaseUTXOs, len(params.AssetUTXOs), 3, transferAmount, params.SatoshiPerKVByte)
	if err != nil {
		return nil, nil, 0, err
	}
	bitcoinAmount += assetsAmount

	tx := wire.NewMsgTx(txVersion)
	for idx := range params.AssetUTXOs {
		outpoint, err := params.AssetUTXOs[idx].OutPoint()
		if err != nil {
			return nil, nil, 0, err
		}

		tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
	}
	for _, utxo := range baseUTXOs {
		outpoint, err := utxo.OutPoint()
		if err != nil {
			return nil, nil, 0, err
		}

		tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
	}

	// subtract fee.
	bitcoinAmount -= fee

	change := bitcoinAmount-DustAmount >= DustAmount
	outputs := 2
	if change {
		outputs++
	}

	runestoneData, err := b.runestoneScript(params.ProtocolTag, params.Cellpack, params.Edicts, outputs)
	if err != nil {
		return nil, nil, 0, err
	}

	// recipient asset output (#0).
	if err = b.addOutput(tx, DustAmount, &bitcoinAmount, params.RecipientAddress); err != nil {
		return nil, nil, 0, err
	}

	// runestone output (#1).
	tx.AddTxOut(wire.NewTxOut(0, runestoneData))

	// change btc output (#2).
	if change {
		if err = b.addOutput(tx, bitcoinAmount, &bitcoinAmount, params.ChangeAddress); err != nil {
			return nil, nil, 0, err
		}
	}

	return tx, baseUTXOs, fee, nil
}

// runestoneScript returns OP_RETURN script of the runestone with one protostone
// for the transaction with given number of outputs.
func (b *TxBuilder) runestoneScript(tag uint128.Uint128, call *cellpack.Cellpack, edicts []protostone.Edict, outputs int) ([]byte, error) {
	stone := protostone.Protostone{
		ProtocolTag: tag,
		Edicts:      edicts,
		Pointer:     &recipientOutput,
		Refund:      &recipientOutput,
	}

	if call != nil {
		calldata, err := call.Encode()
		if err != nil {
			return nil, err
		}

		stone.Message = calldata
	}

	protocol, err := protostone.Encipher([]protostone.Protostone{stone})
	if err != nil {
		return nil, err
	}

	pointer := recipientOutput
	if call != nil {
		pointer = protostone.ShadowVout(outputs, 0)
	}

	runestone := &runes.Runestone{
		Pointer:  &pointer,
		Protocol: protocol,
	}

	return runestone.IntoScript()
}

// BuildPSBT returns serialised PSBT from unsigned message transaction.
func (b *TxBuilder) BuildPSBT(params PSBTParams) ([]byte, error) {
	p, err := psbt.NewFromUnsignedTx(params.Tx)
	if err != nil {
		return nil, err
	}

	assetInputs := len(params.UsedAssetUTXOs)
	for idx, utxo := range params.UsedAssetUTXOs {
		if err = b.prepareInput(&p.Inputs[idx], utxo, params.AssetPubKey); err != nil {
			return nil, err
		}
	}

	for idx, utxo := range params.UsedBaseUTXOs {
		if err = b.prepareInput(&p.Inputs[idx+assetInputs], utxo, params.PaymentPubKey); err != nil {
			return nil, err
		}
	}

	w := bytes.NewBuffer(nil)
	if err = p.Serialize(w); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// prepareInput fills PSBT input with previous output and key data of the utxo address.
func (b *TxBuilder) prepareInput(input *psbt.PInput, utxo *bitcoin.UTXO, pubKey string) error {
	pib, err := NewPSBTInputBuilder(pubKey, utxo.Address, b.networkParams)
	if err != nil {
		return err
	}

	input.WitnessUtxo = wire.NewTxOut(int64(utxo.Amount), utxo.Script)
	input.SighashType = signHashType
	pib.PrepareInput(input)

	return nil
}

// PrepareUTXOs selects utxos to cover rough estimated fee.
// Returns used utxos, total satoshi amount of utxos, rough estimation in satoshi and error if any.
func PrepareUTXOs(utxos []bitcoin.UTXO, inputs, outputs int, transferAmount, satoshiPerKVByte btcutil.Amount) (usedUTXOs []*bitcoin.UTXO, totalAmount, roughEstimate btcutil.Amount, err error) {
	satFn := func(u *bitcoin.UTXO) uint128.Uint128 { return uint128.From64(uint64(u.Amount)) }

	for i := 1; i <= len(utxos); i++ {
		// vB * ( sat / kvB ) = 1000 sat.
		roughEstimate = RoughTxSizeEstimate(i+inputs, outputs) * satoshiPerKVByte / 1000

		var total uint128.Uint128
		usedUTXOs, total, err = SelectUTXO(utxos, satFn, uint128.From64(uint64(roughEstimate+transferAmount)), i, bitcoin.ErrInsufficientNativeBalance)
		if err != nil {
			if errors.Is(err, bitcoin.ErrInsufficientNativeBalance) {
				continue
			}

			return nil, 0, 0, err
		}

		return usedUTXOs, btcutil.Amount(total.Lo), roughEstimate, nil
	}

	return nil, 0, 0, fmt.Errorf("%w: need %s", bitcoin.ErrInsufficientNativeBalance, transferAmount+roughEstimate)
}

// PrepareAssetUTXOs selects utxos to cover asset transfer amount.
// Returns used utxos, total asset amount of utxos and error if any.
func PrepareAssetUTXOs(utxos []bitcoin.UTXO, transferAmount uint128.Uint128, id balance.AssetID) (usedUTXOs []*bitcoin.UTXO, totalAmount uint128.Uint128, err error) {
	assetFn := func(u *bitcoin.UTXO) uint128.Uint128 { return u.AssetAmount(id) }

	for i := 1; i <= len(utxos); i++ {
		usedUTXOs, totalAmount, err = SelectUTXO(utxos, assetFn, transferAmount, i, bitcoin.ErrInsufficientAssetBalance)
		if err != nil {
			if errors.Is(err, bitcoin.ErrInsufficientAssetBalance) {
				continue
			}

			return nil, uint128.Zero, err
		}

		return usedUTXOs, totalAmount, nil
	}

	return nil, uint128.Zero, fmt.Errorf("%w: need %s of %s", bitcoin.ErrInsufficientAssetBalance, transferAmount, id)
}

// RoughTxSizeEstimate returns Tx rough estimated size in vBytes.
func RoughTxSizeEstimate(inputs, outputs int) btcutil.Amount {
	return btcutil.Amount(headerSizeVBytes + inputSizeVBytes*inputs + outputSizeVBytes*outputs)
}

// SelectUTXO is a partly greedy selection algorithm for UTXOs with 'requiredUTXOs' parameter.
// Returns list of selected by algorithm UTXOs with total amount, counted by passed amount function.
func SelectUTXO(utxos []bitcoin.UTXO, amountFn func(*bitcoin.UTXO) uint128.Uint128, minAmount uint128.Uint128, requiredUTXOs int,
	insufficientBalanceError error) (usedUTXOs []*bitcoin.UTXO, totalAmount uint128.Uint128, _ error) {
	if len(utxos) < requiredUTXOs {
		return nil, uint128.Zero, bitcoin.ErrInvalidUTXOAmount
	}

	usedUTXOs = make([]*bitcoin.UTXO, 0, requiredUTXOs)
	used := make(map[int]bool, requiredUTXOs)

	// find the closest by amount UTXO that is greater than minAmount or take the biggest possible.
	startIdx := 0
	for idx := range utxos {
		if minAmount.Cmp(amountFn(&utxos[idx])) > 0 {
			break
		}

		startIdx = idx
	}

	used[startIdx] = true
	totalAmount = amountFn(&utxos[startIdx])
	usedUTXOs = append(usedUTXOs, &utxos[startIdx])
	requiredUTXOs--

	// pick bigger amount if total amount do not cover minAmount, otherwise - the smallest to pass requiredUTXOs.
	for ; requiredUTXOs > 0; requiredUTXOs-- {
		idx := selectUnused(startIdx, len(utxos), used, totalAmount.Cmp(minAmount) >= 0)
		if idx == -1 {
			return nil, uint128.Zero, bitcoin.ErrInvalidUTXOAmount
		}

		used[idx] = true
		totalAmount = totalAmount.Add(amountFn(&utxos[idx]))
		usedUTXOs = append(usedUTXOs, &utxos[idx])
	}

	if minAmount.Cmp(totalAmount) > 0 {
		return nil, uint128.Zero, insufficientBalanceError
	}

	return usedUTXOs, totalAmount, nil
}

// addOutput adds output to transaction, subtracts amount from unallocated amount.
func (b *TxBuilder) addOutput(tx *wire.MsgTx, amount btcutil.Amount, unallocated *btcutil.Amount, address string) error {
	if *unallocated < amount {
		return fmt.Errorf("%w: unallocated %s is less than %s", bitcoin.ErrInsufficientNativeBalance, *unallocated, amount)
	}

	pkScript, err := b.payToAddress(address)
	if err != nil {
		return err
	}

	tx.AddTxOut(wire.NewTxOut(int64(amount), pkScript))
	*unallocated -= amount

	return nil
}

// payToAddress returns script paying to encoded address of the builder network.
func (b *TxBuilder) payToAddress(address string) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(address, b.networkParams)
	if err != nil {
		return nil, err
	}

	return txscript.PayToAddrScript(decoded)
}

// selectUnused returns first unused idx depending on search direction.
func selectUnused(start, end int, used map[int]bool, reversed bool) int {
	if reversed {
		for idx := end - 1; idx >= start; idx-- {
			if !used[idx] {
				return idx
			}
		}
	} else {
		for idx := start; idx < end; idx++ {
			if !used[idx] {
				return idx
			}
		}
	}

	return -1
}
