// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package balance

import (
	"errors"
	"fmt"
	"slices"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/numbers"
)

// ErrOverflow defines balance which does not fit into uint128.
var ErrOverflow = errors.New("balance overflows uint128")

// ErrInsufficient defines debit of more than the balance holds.
var ErrInsufficient = errors.New("insufficient balance")

// ErrMalformedSheet defines stored sheet which could not be decoded.
var ErrMalformedSheet = errors.New("malformed balance sheet")

// sheetEntrySize defines size of the encoded sheet entry.
const sheetEntrySize = AssetIDSize + numbers.Uint128Size

// Transfer defines amount of the asset.
type Transfer struct {
	ID     AssetID
	Amount uint128.Uint128
}

// Sheet defines balances of the assets. Zero balances are never kept,
// iteration is always in ascending id order.
type Sheet struct {
	balances map[AssetID]uint128.Uint128
}

// NewSheet is a constructor for Sheet.
func NewSheet() *Sheet {
	return &Sheet{balances: make(map[AssetID]uint128.Uint128)}
}

// NewSheetFromTransfers builds Sheet summing transfers.
func NewSheetFromTransfers(transfers []Transfer) (*Sheet, error) {
	sheet := NewSheet()
	for _, transfer := range transfers {
		if err := sheet.Increase(transfer.ID, transfer.Amount); err != nil {
			return nil, err
		}
	}

	return sheet, nil
}

// Get returns balance of the asset.
func (s *Sheet) Get(id AssetID) uint128.Uint128 {
	return s.balances[id]
}

// Set overrides balance of the asset.
func (s *Sheet) Set(id AssetID, amount uint128.Uint128) {
	if amount.IsZero() {
		delete(s.balances, id)
		return
	}

	s.balances[id] = amount
}

// Increase adds amount to the balance of the asset.
func (s *Sheet) Increase(id AssetID, amount uint128.Uint128) error {
	sum, ok := numbers.CheckedAdd(s.Get(id), amount)
	if !ok {
		return fmt.Errorf("%w: %s", ErrOverflow, id)
	}

	s.Set(id, sum)

	return nil
}

// Decrease subtracts amount from the balance of the asset.
func (s *Sheet) Decrease(id AssetID, amount uint128.Uint128) error {
	diff, ok := numbers.CheckedSub(s.Get(id), amount)
	if !ok {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficient, id, s.Get(id), amount)
	}

	s.Set(id, diff)

	return nil
}

// IDs returns ids of the assets with non zero balance in ascending order.
func (s *Sheet) IDs() []AssetID {
	ids := make([]AssetID, 0, len(s.balances))
	for id := range s.balances {
		ids = append(ids, id)
	}

	slices.SortFunc(ids, AssetID.Cmp)

	return ids
}

// Transfers returns balances in ascending id order.
func (s *Sheet) Transfers() []Transfer {
	transfers := make([]Transfer, 0, len(s.balances))
	for _, id := range s.IDs() {
		transfers = append(transfers, Transfer{ID: id, Amount: s.balances[id]})
	}

	return transfers
}

// Len returns number of assets with non zero balance.
func (s *Sheet) Len() int {
	return len(s.balances)
}

// IsZero returns true if the sheet holds nothing.
func (s *Sheet) IsZero() bool {
	return len(s.balances) == 0
}

// Clone returns deep copy of the sheet.
func (s *Sheet) Clone() *Sheet {
	clone := NewSheet()
	for id, amount := range s.balances {
		clone.balances[id] = amount
	}

	return clone
}

// Equal returns true if both sheets hold the same balances.
func (s *Sheet) Equal(other *Sheet) bool {
	if s.Len() != other.Len() {
		return false
	}

	for id, amount := range s.balances {
		if !other.Get(id).Equals(amount) {
			return false
		}
	}

	return true
}

// Pipe moves all balances of the sheet to the target sheet leaving the sheet empty.
func (s *Sheet) Pipe(to *Sheet) error {
	if err := s.addTo(to); err != nil {
		return err
	}

	s.balances = make(map[AssetID]uint128.Uint128)

	return nil
}

// addTo adds all balances of the sheet to the target sheet.
func (s *Sheet) addTo(to *Sheet) error {
	for _, transfer := range s.Transfers() {
		if err := to.Increase(transfer.ID, transfer.Amount); err != nil {
			return err
		}
	}

	return nil
}

// Concat returns sum of the sheets.
func Concat(sheets ...*Sheet) (*Sheet, error) {
	result := NewSheet()
	for _, sheet := range sheets {
		if sheet == nil {
			continue
		}

		if err := sheet.addTo(result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Debit subtracts all balances of out from the sheet.
func (s *Sheet) Debit(out *Sheet) error {
	return s.DebitMintable(out, func(AssetID) bool { return false })
}

// DebitMintable subtracts all balances of out from the sheet. Shortage of the
// assets accepted by mintable is treated as minted instead of failing.
// The sheet is left untouched on error.
func (s *Sheet) DebitMintable(out *Sheet, mintable func(AssetID) bool) error {
	result := s.Clone()
	for _, transfer := range out.Transfers() {
		held := result.Get(transfer.ID)
		if held.Cmp(transfer.Amount) < 0 {
			if !mintable(transfer.ID) {
				return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficient, transfer.ID, held, transfer.Amount)
			}

			result.Set(transfer.ID, uint128.Zero)
			continue
		}

		result.Set(transfer.ID, held.Sub(transfer.Amount))
	}

	s.balances = result.balances

	return nil
}

// Encode returns sheet as concatenated id ‖ amount entries in ascending id order.
func (s *Sheet) Encode() []byte {
	data := make([]byte, 0, s.Len()*sheetEntrySize)
	for _, transfer := range s.Transfers() {
		data = append(data, transfer.ID.Bytes()...)
		data = append(data, numbers.PutUint128(transfer.Amount)...)
	}

	return data
}

// DecodeSheet decodes sheet produced by Encode.
func DecodeSheet(data []byte) (*Sheet, error) {
	if len(data)%sheetEntrySize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedSheet, len(data))
	}

	sheet := NewSheet()
	for start := 0; start < len(data); start += sheetEntrySize {
		id, err := AssetIDFromBytes(data[start : start+AssetIDSize])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
		}

		amount := numbers.Uint128FromBytes(data[start+AssetIDSize : start+sheetEntrySize])
		if err = sheet.Increase(id, amount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSheet, err)
		}
	}

	return sheet, nil
}
