// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/internal/sequencereader"
)

func TestEdicts(t *testing.T) {
	t.Run("ParseEdictsFromIntSeq (single)", func(t *testing.T) {
		edicts := []runes.Edict{
			{
				RuneID: runes.RuneID{
					Block: 2585359,
					TxID:  84,
				},
				Amount: uint128.From64(1879),
				Output: 1,
			},
		}
		payload := sequencereader.New(
			[]uint128.Uint128{uint128.From64(2585359), uint128.From64(84), uint128.From64(1879), uint128.From64(1)},
		)
		parsedEdicts, err := runes.ParseEdictsFromIntSeq(payload)
		require.NoError(t, err)
		require.Len(t, parsedEdicts, 1)
		require.Equal(t, edicts, parsedEdicts)
	})

	t.Run("ParseEdictsFromIntSeq (many)", func(t *testing.T) {
		edicts := []runes.Edict{
			{ // base edict.
				RuneID: runes.RuneID{
					Block: 2585359,
					TxID:  84,
				},
				Amount: uint128.From64(1879),
				Output: 1,
			},
			{ // 0 blocks delta, 16 tx delta.
				RuneID: runes.RuneID{
					Block: 2585359,
					TxID:  100,
				},
				Amount: uint128.From64(2000),
				Output: 2,
			},
			{ // 0 blocks delta, 0 tx delta.
				RuneID: runes.RuneID{
					Block: 2585359,
					TxID:  100,
				},
				Amount: uint128.From64(3000),
				Output: 3,
			},
			{ // 1085 blocks delta, 12 tx.
				RuneID: runes.RuneID{
					Block: 2586444,
					TxID:  12,
				},
				Amount: uint128.From64(10052),
				Output: 4,
			},
		}
		payload := sequencereader.New(
			[]uint128.Uint128{
				uint128.From64(2585359), uint128.From64(84), uint128.From64(1879), uint128.From64(1),
				uint128.From64(0), uint128.From64(16), uint128.From64(2000), uint128.From64(2),
				uint128.From64(0), uint128.From64(0), uint128.From64(3000), uint128.From64(3),
				uint128.From64(1085), uint128.From64(12), uint128.From64(10052), uint128.From64(4),
			},
		)
		parsedEdicts, err := runes.ParseEdictsFromIntSeq(payload)
		require.NoError(t, err)
		require.Len(t, parsedEdicts, 4)
		require.Equal(t, edicts, parsedEdicts)
	})

	t.Run("ParseEdictsFromIntSeq (invalid length)", func(t *testing.T) {
		payload := sequencereader.New(
			[]uint128.Uint128{uint128.From64(2585359), uint128.From64(84), uint128.From64(1879), uint128.From64(1), uint128.From64(0)},
		)
		edicts, err := runes.ParseEdictsFromIntSeq(payload)
		require.Error(t, err)
		require.ErrorIs(t, err, runes.ErrCenotaph)
		require.Len(t, edicts, 1)

		var cenotaph *runes.CenotaphError
		require.ErrorAs(t, err, &cenotaph)
		require.Equal(t, runes.TrailingIntegersCenotaphErrorType, cenotaph.Type())
	})

	t.Run("ParseEdictsFromIntSeq (rune id overflow)", func(t *testing.T) {
		payload := sequencereader.New([]uint128.Uint128{
			uint128.From64(1), uint128.From64(math.MaxUint32), uint128.From64(1), uint128.From64(1),
			uint128.From64(0), uint128.From64(1), uint128.From64(1), uint128.From64(1),
		})
		_, err := runes.ParseEdictsFromIntSeq(payload)
		require.ErrorIs(t, err, runes.ErrCenotaph)
	})

	t.Run("EdictsToIntSeq", func(t *testing.T) {
		edict := runes.Edict{
			RuneID: runes.RuneID{
				Block: 12,
				TxID:  2,
			},
			Amount: uint128.From64(1000),
			Output: 1,
		}
		seq := []uint128.Uint128{uint128.From64(12), uint128.From64(2), uint128.From64(1000), uint128.From64(1)}
		require.Equal(t, seq, edict.ToIntSeq())
	})

	t.Run("SortEdicts", func(t *testing.T) {
		edicts := []runes.Edict{
			{
				RuneID: runes.RuneID{
					Block: 12,
					TxID:  2,
				},
				Amount: uint128.From64(1000),
				Output: 1,
			},
			{
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  13,
				},
				Amount: uint128.From64(1200),
				Output: 3,
			},
			{
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  12,
				},
				Amount: uint128.From64(10000),
				Output: 4,
			},
			{
				RuneID: runes.RuneID{
					Block: 13,
					TxID:  45,
				},
				Amount: uint128.From64(100),
				Output: 3,
			},
		}

		sortedEdicts := []runes.Edict{
			{
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  12,
				},
				Amount: uint128.From64(10000),
				Output: 4,
			},
			{
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  13,
				},
				Amount: uint128.From64(1200),
				Output: 3,
			},
			{
				RuneID: runes.RuneID{
					Block: 12,
					TxID:  2,
				},
				Amount: uint128.From64(1000),
				Output: 1,
			},
			{
				RuneID: runes.RuneID{
					Block: 13,
					TxID:  45,
				},
				Amount: uint128.From64(100),
				Output: 3,
			},
		}

		runes.SortEdicts(edicts)
		require.Equal(t, sortedEdicts, edicts)
	})

	t.Run("UseDelta", func(t *testing.T) {
		sortedEdicts := []runes.Edict{
			{
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  12,
				},
				Amount: uint128.From64(10000),
				Output: 4,
			},
			{
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  13,
				},
				Amount: uint128.From64(1200),
				Output: 3,
			},
			{
				RuneID: runes.RuneID{
					Block: 12,
					TxID:  2,
				},
				Amount: uint128.From64(1000),
				Output: 1,
			},
			{
				RuneID: runes.RuneID{
					Block: 13,
					TxID:  45,
				},
				Amount: uint128.From64(100),
				Output: 3,
			},
		}

		deltaEdicts := []runes.Edict{
			{ // first edict.
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  12,
				},
				Amount: uint128.From64(10000),
				Output: 4,
			},
			{ // 0 block delta, 1 tx delta.
				RuneID: runes.RuneID{
					Block: 0,
					TxID:  1,
				},
				Amount: uint128.From64(1200),
				Output: 3,
			},
			{ // 3 block delta, no delta for tx.
				RuneID: runes.RuneID{
					Block: 3,
					TxID:  2,
				},
				Amount: uint128.From64(1000),
				Output: 1,
			},
			{ // 1 block delta, no delta for tx.
				RuneID: runes.RuneID{
					Block: 1,
					TxID:  45,
				},
				Amount: uint128.From64(100),
				Output: 3,
			},
		}

		require.Equal(t, deltaEdicts, runes.UseDelta(sortedEdicts))
	})

	t.Run("EdictsToIntSeq", func(t *testing.T) {
		edicts := []runes.Edict{
			{
				RuneID: runes.RuneID{
					Block: 12,
					TxID:  2,
				},
				Amount: uint128.From64(1000),
				Output: 1,
			},
			{
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  13,
				},
				Amount: uint128.From64(1200),
				Output: 3,
			},
			{
				RuneID: runes.RuneID{
					Block: 9,
					TxID:  12,
				},
				Amount: uint128.From64(10000),
				Output: 4,
			},
			{
				RuneID: runes.RuneID{
					Block: 13,
					TxID:  45,
				},
				Amount: uint128.From64(100),
				Output: 3,
			},
		}

		seq := []uint128.Uint128{
			uint128.From64(9), uint128.From64(12), uint128.From64(10000), uint128.From64(4),
			uint128.From64(0), uint128.From64(1), uint128.From64(1200), uint128.From64(3),
			uint128.From64(3), uint128.From64(2), uint128.From64(1000), uint128.From64(1),
			uint128.From64(1), uint128.From64(45), uint128.From64(100), uint128.From64(3),
		}

		require.Equal(t, seq, runes.EdictsToIntSeq(edicts))
	})
}
