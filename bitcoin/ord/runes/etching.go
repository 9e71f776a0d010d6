// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/numbers"
)

// Etching defines values to create new rune.
type Etching struct {
	Divisibility *byte
	Premine      *uint128.Uint128
	Rune         *Rune
	Spacers      *uint32
	Symbol       *rune
	Terms        *Terms
	Turbo        bool
}

// Terms defines additional Etching parameters.
type Terms struct {
	Amount      *uint128.Uint128
	Cap         *uint128.Uint128
	HeightStart *uint64
	HeightEnd   *uint64
	OffsetStart *uint64
	OffsetEnd   *uint64
}

// Supply returns premine + cap * amount, false if it overflows uint128.
func (etching *Etching) Supply() (uint128.Uint128, bool) {
	premine := uint128.Zero
	if etching.Premine != nil {
		premine = *etching.Premine
	}

	if etching.Terms == nil {
		return premine, true
	}

	capValue, amount := uint128.Zero, uint128.Zero
	if etching.Terms.Cap != nil {
		capValue = *etching.Terms.Cap
	}
	if etching.Terms.Amount != nil {
		amount = *etching.Terms.Amount
	}

	if !capValue.IsZero() && !amount.IsZero() && uint128.Max.Div(amount).Cmp(capValue) < 0 {
		return uint128.Zero, false
	}

	return numbers.CheckedAdd(premine, capValue.MulWrap(amount))
}
