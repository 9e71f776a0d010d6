// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"lukechampine.com/uint128"
)

var (
	// FlagEtching defines that the transaction contains an etching.
	FlagEtching = uint128.From64(1)
	// FlagTerms defines that the transaction's etching has open mint terms.
	FlagTerms = uint128.From64(1).Lsh(1)
	// FlagTurbo defines that the transaction's etching has set turbo mode.
	FlagTurbo = uint128.From64(1).Lsh(2)
	// FlagCenotaph is unrecognized.
	FlagCenotaph = uint128.From64(1).Lsh(127)
)

// HasFlag returns true if transmitted value contains the flag.
func HasFlag(value uint128.Uint128, flag uint128.Uint128) bool {
	return value.And(flag).Equals(flag)
}

// AddFlag returns value with the flag set.
func AddFlag(value uint128.Uint128, flag uint128.Uint128) uint128.Uint128 {
	return value.Or(flag)
}

// TakeFlag returns value with the flag cleared and true if the flag was set.
func TakeFlag(value uint128.Uint128, flag uint128.Uint128) (uint128.Uint128, bool) {
	if !HasFlag(value, flag) {
		return value, false
	}

	return value.Xor(flag), true
}
