// Copyright (C) 2022 Creditor Corp. Group.
// See LICENSE for copying information.

package numbers

import (
	"encoding/binary"
	"errors"
	"math/big"

	"lukechampine.com/uint128"
)

// Zero defines 0 number.
const Zero = 0

// Uint128Size defines size of the little-endian encoded uint128.
const Uint128Size = 16

// ErrOverflowsUint128 defines that the value does not fit into uint128.
var ErrOverflowsUint128 = errors.New("value overflows uint128")

// ZeroBigInt defies 0 as *big.Int type.
var ZeroBigInt = big.NewInt(0)

// OneBigInt defies 1 as *big.Int type.
var OneBigInt = big.NewInt(1)

// MaxUInt128Value defines maximum value of uint128 type.
var MaxUInt128Value = new(big.Int).Sub(new(big.Int).Lsh(OneBigInt, 128), OneBigInt)

// IsNegative returns true if the number is less than zero.
func IsNegative(num *big.Int) bool {
	return num.Sign() < Zero
}

// IsZero returns true if the number is zero.
func IsZero(num *big.Int) bool {
	return num.Sign() == Zero
}

// IsGreater returns true is a > b.
func IsGreater(a, b *big.Int) bool {
	return a.Cmp(b) > Zero
}

// IsLess returns true is a < b.
func IsLess(a, b *big.Int) bool {
	return a.Cmp(b) < Zero
}

// ToUint128 converts non-negative *big.Int into uint128.
func ToUint128(num *big.Int) (uint128.Uint128, error) {
	if num == nil {
		return uint128.Zero, nil
	}
	if IsNegative(num) || num.BitLen() > 128 {
		return uint128.Zero, ErrOverflowsUint128
	}

	return uint128.FromBig(num), nil
}

// CheckedAdd returns a + b and false if the sum overflows uint128.
func CheckedAdd(a, b uint128.Uint128) (uint128.Uint128, bool) {
	sum := a.AddWrap(b)
	if sum.Cmp(a) < 0 {
		return uint128.Zero, false
	}

	return sum, true
}

// CheckedSub returns a - b and false if b > a.
func CheckedSub(a, b uint128.Uint128) (uint128.Uint128, bool) {
	if a.Cmp(b) < 0 {
		return uint128.Zero, false
	}

	return a.Sub(b), true
}

// Min returns the least value from provided.
func Min(a uint128.Uint128, b ...uint128.Uint128) uint128.Uint128 {
	minValue := a
	for _, el := range b {
		if el.Cmp(minValue) < 0 {
			minValue = el
		}
	}

	return minValue
}

// PutUint128 writes value as 16 bytes little-endian.
func PutUint128(value uint128.Uint128) []byte {
	data := make([]byte, Uint128Size)
	value.PutBytes(data)

	return data
}

// Uint128FromBytes reads little-endian uint128, shorter inputs are zero-extended.
func Uint128FromBytes(data []byte) uint128.Uint128 {
	buf := make([]byte, Uint128Size)
	copy(buf, data)

	return uint128.FromBytes(buf)
}

// PutUint32 writes value as 4 bytes little-endian.
func PutUint32(value uint32) []byte {
	return binary.LittleEndian.AppendUint32(make([]byte, 0, 4), value)
}

// PutUint64 writes value as 8 bytes little-endian.
func PutUint64(value uint64) []byte {
	return binary.LittleEndian.AppendUint64(make([]byte, 0, 8), value)
}
