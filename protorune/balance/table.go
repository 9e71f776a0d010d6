// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package balance

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/numbers"
	"github.com/BoostyLabs/alkanes/storage"
)

// RuntimeVout defines pseudo output which holds balances not assigned to a concrete output.
const RuntimeVout = math.MaxUint32

// Table persists balance sheets of one protocol.
type Table struct {
	root   *storage.Pointer
	prefix *storage.Pointer
}

// NewRunesTable returns table of the native runes.
func NewRunesTable(root *storage.Pointer) *Table {
	return &Table{root: root, prefix: root.Keyword("/runes")}
}

// NewProtocolTable returns table of the protocol with given tag.
func NewProtocolTable(root *storage.Pointer, tag uint128.Uint128) *Table {
	if tag.IsZero() {
		return NewRunesTable(root)
	}

	return &Table{root: root, prefix: root.Keyword("/runes/proto/" + tag.String())}
}

// OutpointKey returns storage key of the outpoint as txid ‖ vout LE.
func OutpointKey(op wire.OutPoint) []byte {
	return append(op.Hash.CloneBytes(), numbers.PutUint32(op.Index)...)
}

// Outpoint returns pointer to the sheet of the outpoint.
func (t *Table) Outpoint(op wire.OutPoint) *storage.Pointer {
	return t.prefix.Keyword("/byoutpoint/").Select(OutpointKey(op))
}

// Load returns sheet of the outpoint, empty sheet if nothing is stored.
func (t *Table) Load(op wire.OutPoint) (*Sheet, error) {
	return Load(t.Outpoint(op))
}

// Save stores sheet of the outpoint.
func (t *Table) Save(op wire.OutPoint, sheet *Sheet) {
	sheet.Save(t.Outpoint(op))
}

// Clear removes sheet of the outpoint.
func (t *Table) Clear(op wire.OutPoint) {
	t.Outpoint(op).Set(nil)
}

// Burn adds amount to burned total of the asset.
func (t *Table) Burn(id AssetID, amount uint128.Uint128) error {
	ptr := t.prefix.Keyword("/burned/").Select(id.Bytes())
	sum, ok := numbers.CheckedAdd(ptr.GetValue(), amount)
	if !ok {
		return fmt.Errorf("%w: burned %s", ErrOverflow, id)
	}

	ptr.SetValue(sum)

	return nil
}

// BurnSheet burns every balance of the sheet.
func (t *Table) BurnSheet(sheet *Sheet) error {
	for _, transfer := range sheet.Transfers() {
		if err := t.Burn(transfer.ID, transfer.Amount); err != nil {
			return err
		}
	}

	return nil
}

// Burned returns total burned amount of the asset.
func (t *Table) Burned(id AssetID) uint128.Uint128 {
	return t.prefix.Keyword("/burned/").Select(id.Bytes()).GetValue()
}

// holder returns pointer to the storage of the contract.
func (t *Table) holder(holder AssetID) *storage.Pointer {
	return t.root.Keyword("/alkanes/").Select(holder.Bytes())
}

// Held returns balance of the asset held by the contract.
func (t *Table) Held(holder, id AssetID) uint128.Uint128 {
	return t.holder(holder).Keyword("/balances/").Select(id.Bytes()).GetValue()
}

// Holdings returns all balances held by the contract.
func (t *Table) Holdings(holder AssetID) (*Sheet, error) {
	sheet := NewSheet()
	seen := make(map[AssetID]bool)
	for _, raw := range t.holder(holder).Keyword("/inventory").GetList() {
		id, err := AssetIDFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: inventory of %s: %v", ErrMalformedSheet, holder, err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		sheet.Set(id, t.Held(holder, id))
	}

	return sheet, nil
}

// SetHeld overrides balance of the asset held by the contract.
func (t *Table) SetHeld(holder, id AssetID, amount uint128.Uint128) {
	ptr := t.holder(holder).Keyword("/balances/").Select(id.Bytes())
	if len(ptr.Get()) == 0 && !amount.IsZero() {
		t.holder(holder).Keyword("/inventory").Append(id.Bytes())
	}

	if amount.IsZero() {
		// zero is stored explicitly so the inventory entry is not appended twice.
		ptr.Set(make([]byte, numbers.Uint128Size))
		return
	}

	ptr.SetValue(amount)
}

// CreditHolder adds all balances of the sheet to the contract.
func (t *Table) CreditHolder(holder AssetID, sheet *Sheet) error {
	for _, transfer := range sheet.Transfers() {
		sum, ok := numbers.CheckedAdd(t.Held(holder, transfer.ID), transfer.Amount)
		if !ok {
			return fmt.Errorf("%w: %s held by %s", ErrOverflow, transfer.ID, holder)
		}

		t.SetHeld(holder, transfer.ID, sum)
	}

	return nil
}

// DebitHolder subtracts all balances of the sheet from the contract.
// Nothing is written on error.
func (t *Table) DebitHolder(holder AssetID, sheet *Sheet, mintable func(AssetID) bool) error {
	held := NewSheet()
	for _, id := range sheet.IDs() {
		held.Set(id, t.Held(holder, id))
	}

	if err := held.DebitMintable(sheet, mintable); err != nil {
		return fmt.Errorf("debit %s: %w", holder, err)
	}

	for _, id := range sheet.IDs() {
		t.SetHeld(holder, id, held.Get(id))
	}

	return nil
}

// Save stores the sheet under the pointer, an empty sheet removes the key.
func (s *Sheet) Save(ptr *storage.Pointer) {
	ptr.Set(s.Encode())
}

// Load reads sheet stored under the pointer.
func Load(ptr *storage.Pointer) (*Sheet, error) {
	return DecodeSheet(ptr.Get())
}
