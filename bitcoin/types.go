// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoin

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/protorune/balance"
)

var (
	// ErrInsufficientNativeBalance defines that utxos do not cover bitcoin amount.
	ErrInsufficientNativeBalance = errors.New("insufficient native balance")
	// ErrInsufficientAssetBalance defines that utxos do not cover asset amount.
	ErrInsufficientAssetBalance = errors.New("insufficient asset balance")
	// ErrInvalidUTXOAmount defines that there are less utxos than required.
	ErrInvalidUTXOAmount = errors.New("invalid utxo amount")
)

// UTXO describes unspent transaction output data.
type UTXO struct {
	TxHash  string
	Index   uint32         // output index in transaction outputs.
	Amount  btcutil.Amount // in Satoshi.
	Script  []byte         // ScriptPubKey.
	Address string         // output recipient address.
	Assets  []AssetUTXO
}

// AssetUTXO describes rune or protocol asset linked to UTXO.
type AssetUTXO struct {
	ID     balance.AssetID
	Amount uint128.Uint128
}

// OutPoint returns outpoint of the utxo.
func (u *UTXO) OutPoint() (*wire.OutPoint, error) {
	hash, err := chainhash.NewHashFromStr(u.TxHash)
	if err != nil {
		return nil, err
	}

	return wire.NewOutPoint(hash, u.Index), nil
}

// AssetAmount returns amount of the asset linked to utxo.
func (u *UTXO) AssetAmount(id balance.AssetID) uint128.Uint128 {
	amount := uint128.Zero
	for _, asset := range u.Assets {
		if asset.ID == id {
			amount = amount.Add(asset.Amount)
		}
	}

	return amount
}
