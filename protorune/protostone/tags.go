// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package protostone

import "lukechampine.com/uint128"

// Tag defines field tag of the protostone.
type Tag uint64

const (
	// TagBody defines start of the edicts.
	TagBody Tag = 0
	// TagMessage defines calldata chunk, repeated for every 15 bytes.
	TagMessage Tag = 81
	// TagBurn defines protocol tag the runes are burned into.
	TagBurn Tag = 83
	// TagFrom defines list of edict indexes funding the protoburn.
	TagFrom Tag = 85
	// TagPointer defines output for the unallocated balance.
	TagPointer Tag = 91
	// TagRefund defines output for the balance of the failed message.
	TagRefund Tag = 93
	// TagCenotaph defines explicitly broken protostone.
	TagCenotaph Tag = 126
	// TagNop defines ignored field.
	TagNop Tag = 127
)

// Uint128 returns tag as uint128.
func (t Tag) Uint128() uint128.Uint128 {
	return uint128.From64(uint64(t))
}
