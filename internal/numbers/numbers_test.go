// Copyright (C) 2022 Creditor Corp. Group.
// See LICENSE for copying information.

package numbers_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/numbers"
)

func TestNumbers(t *testing.T) {
	negative := big.NewInt(-100)
	zero := big.NewInt(0)
	positive := big.NewInt(100)

	t.Run("IsNegative", func(t *testing.T) {
		require.True(t, numbers.IsNegative(negative))
		require.False(t, numbers.IsNegative(zero))
		require.False(t, numbers.IsNegative(positive))
	})

	t.Run("IsZero", func(t *testing.T) {
		require.False(t, numbers.IsZero(negative))
		require.True(t, numbers.IsZero(zero))
	})

	t.Run("MaxUint128Value", func(t *testing.T) {
		for i := 0; i < 128; i++ {
			require.EqualValues(t, numbers.MaxUInt128Value.Bit(i), 1)
		}
		require.EqualValues(t, numbers.MaxUInt128Value.Bit(128), 0)
	})

	t.Run("ToUint128", func(t *testing.T) {
		value, err := numbers.ToUint128(positive)
		require.NoError(t, err)
		require.Equal(t, uint128.From64(100), value)

		value, err = numbers.ToUint128(numbers.MaxUInt128Value)
		require.NoError(t, err)
		require.Equal(t, uint128.Max, value)

		_, err = numbers.ToUint128(new(big.Int).Add(numbers.MaxUInt128Value, numbers.OneBigInt))
		require.ErrorIs(t, err, numbers.ErrOverflowsUint128)

		_, err = numbers.ToUint128(negative)
		require.ErrorIs(t, err, numbers.ErrOverflowsUint128)
	})

	t.Run("CheckedAdd", func(t *testing.T) {
		sum, ok := numbers.CheckedAdd(uint128.From64(2), uint128.From64(3))
		require.True(t, ok)
		require.Equal(t, uint128.From64(5), sum)

		_, ok = numbers.CheckedAdd(uint128.Max, uint128.From64(1))
		require.False(t, ok)
	})

	t.Run("CheckedSub", func(t *testing.T) {
		diff, ok := numbers.CheckedSub(uint128.From64(5), uint128.From64(3))
		require.True(t, ok)
		require.Equal(t, uint128.From64(2), diff)

		_, ok = numbers.CheckedSub(uint128.From64(3), uint128.From64(5))
		require.False(t, ok)
	})

	t.Run("Min", func(t *testing.T) {
		require.Equal(t, uint128.From64(1), numbers.Min(uint128.From64(7), uint128.From64(1), uint128.From64(3)))
	})

	t.Run("bytes", func(t *testing.T) {
		value := uint128.New(0x0102, 0x0304)
		data := numbers.PutUint128(value)
		require.Len(t, data, numbers.Uint128Size)
		require.Equal(t, value, numbers.Uint128FromBytes(data))
		require.Equal(t, uint128.From64(7), numbers.Uint128FromBytes([]byte{7}))
		require.Equal(t, []byte{1, 0, 0, 0}, numbers.PutUint32(1))
	})
}
