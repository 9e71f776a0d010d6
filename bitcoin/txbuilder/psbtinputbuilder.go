// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ErrPSBTInputBuilder defines errors class for prepare address data method.
var ErrPSBTInputBuilder = errors.New("prepare address data")

// ScriptType defines script type over which the address is built.
type ScriptType string

const (
	// P2PK defines P2PK (public key) script type.
	P2PK ScriptType = "P2PK"
	// P2PKH defines P2PK (public key hash) script type.
	P2PKH ScriptType = "P2PKH"
	// P2SH defines P2SH (script hash) script type.
	P2SH ScriptType = "P2SH"
	// P2WPKH defines P2WPKH (witness public key hash) script type.
	P2WPKH ScriptType = "P2WPKH"
	// P2WSH defines P2WSH (witness script hash) script type.
	P2WSH ScriptType = "P2WSH"
	// P2TR defines P2TR (taproot) script type.
	P2TR ScriptType = "P2TR"
)

// PSBTInputBuilder prepares psbt input spending the utxo of the address based on its type.
type PSBTInputBuilder struct {
	params         *chaincfg.Params
	scriptType     ScriptType
	address        btcutil.Address
	publicKeyBytes []byte
	publicKey      *btcec.PublicKey
	xOnlyPubKey    []byte
	witnessScript  []byte
	redeemScript   []byte
}

// NewPSBTInputBuilder is a constructor for PSBTInputBuilder.
func NewPSBTInputBuilder(pubKey, address string, networkParams *chaincfg.Params) (pib *PSBTInputBuilder, err error) {
	pib = &PSBTInputBuilder{params: networkParams}

	defer func(err *error) {
		if err != nil && *err != nil {
			*err = errors.Join(ErrPSBTInputBuilder, *err)
		}
	}(&err)

	pib.publicKeyBytes, err = hex.DecodeString(pubKey)
	if err != nil {
		return pib, err
	}

	switch len(pib.publicKeyBytes) {
	case btcec.PubKeyBytesLenCompressed:
		pib.xOnlyPubKey = pib.publicKeyBytes[1:]
		pib.publicKey, err = btcec.ParsePubKey(pib.publicKeyBytes)
	case schnorr.PubKeyBytesLen:
		pib.xOnlyPubKey = pib.publicKeyBytes
		pib.publicKey, err = schnorr.ParsePubKey(pib.publicKeyBytes)
	default:
		err = fmt.Errorf("public key of %d bytes", len(pib.publicKeyBytes))
	}
	if err != nil {
		return pib, err
	}

	pib.address, err = btcutil.DecodeAddress(address, pib.params)
	if err != nil {
		return pib, err
	}

	switch pib.address.(type) {
	case *btcutil.AddressTaproot:
		pib.scriptType = P2TR
	case *btcutil.AddressWitnessPubKeyHash:
		pib.scriptType = P2WPKH
	case *btcutil.AddressWitnessScriptHash:
		pib.scriptType = P2WSH
	case *btcutil.AddressPubKeyHash:
		pib.scriptType = P2PKH
	case *btcutil.AddressPubKey:
		pib.scriptType = P2PK
	case *btcutil.AddressScriptHash:
		pib.scriptType = P2SH
	default:
		return pib, btcutil.ErrUnknownAddressType
	}

	switch pib.scriptType {
	case P2PK, P2PKH, P2SH:
		pib.redeemScript, err = txscript.PayToAddrScript(pib.address)
	case P2WPKH, P2WSH:
		pib.witnessScript, err = txscript.PayToAddrScript(pib.address)
	}
	if err != nil {
		return pib, err
	}

	return pib, nil
}

// PrepareInput updates input with required data based on address type.
func (pib *PSBTInputBuilder) PrepareInput(input *psbt.PInput) {
	switch pib.scriptType {
	case P2TR:
		input.TaprootInternalKey = pib.xOnlyPubKey
	case P2PK, P2PKH, P2SH:
		input.RedeemScript = pib.redeemScript
	case P2WPKH, P2WSH:
		input.WitnessScript = pib.witnessScript
	}
}

// ScriptType returns underlying script type.
func (pib *PSBTInputBuilder) ScriptType() ScriptType {
	return pib.scriptType
}
