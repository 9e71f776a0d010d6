// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package balance

import (
	"fmt"
	"strings"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/internal/numbers"
)

// AssetIDSize defines size of the encoded AssetID.
const AssetIDSize = 2 * numbers.Uint128Size

// AssetID defines id of a fungible asset, runes and contracts share the namespace.
type AssetID struct {
	Block uint128.Uint128
	Tx    uint128.Uint128
}

// NewAssetID is a constructor for AssetID.
func NewAssetID(block, tx uint64) AssetID {
	return AssetID{Block: uint128.From64(block), Tx: uint128.From64(tx)}
}

// FromRuneID converts RuneID into AssetID.
func FromRuneID(id runes.RuneID) AssetID {
	return NewAssetID(id.Block, uint64(id.TxID))
}

// AssetIDFromBytes decodes AssetID from block LE ‖ tx LE.
func AssetIDFromBytes(data []byte) (AssetID, error) {
	if len(data) != AssetIDSize {
		return AssetID{}, fmt.Errorf("invalid asset id length %d", len(data))
	}

	return AssetID{
		Block: numbers.Uint128FromBytes(data[:numbers.Uint128Size]),
		Tx:    numbers.Uint128FromBytes(data[numbers.Uint128Size:]),
	}, nil
}

// NewAssetIDFromString parses AssetID from "block:tx".
func NewAssetIDFromString(s string) (AssetID, error) {
	data := strings.Split(s, ":")
	if len(data) != 2 {
		return AssetID{}, fmt.Errorf("invalid asset id format: %s", s)
	}

	block, err := uint128.FromString(data[0])
	if err != nil {
		return AssetID{}, err
	}

	tx, err := uint128.FromString(data[1])
	if err != nil {
		return AssetID{}, err
	}

	return AssetID{Block: block, Tx: tx}, nil
}

// Bytes returns AssetID as block LE ‖ tx LE.
func (id AssetID) Bytes() []byte {
	return append(numbers.PutUint128(id.Block), numbers.PutUint128(id.Tx)...)
}

// Cmp compares ids by block, then by tx.
func (id AssetID) Cmp(other AssetID) int {
	if c := id.Block.Cmp(other.Block); c != 0 {
		return c
	}

	return id.Tx.Cmp(other.Tx)
}

// IsZero returns true for 0:0 id.
func (id AssetID) IsZero() bool {
	return id.Block.IsZero() && id.Tx.IsZero()
}

// String returns AssetID as "block:tx".
func (id AssetID) String() string {
	return id.Block.String() + ":" + id.Tx.String()
}
