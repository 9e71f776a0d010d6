// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes_test

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
)

func TestRunestone(t *testing.T) {
	u := uint128.From64
	ptr := func(v uint32) *uint32 { return &v }

	etchingOnly := func() *runes.Runestone {
		divisibility := byte(10)
		spacers := uint32(0)
		symbol := rune(77)
		premine := u(210000000)

		return &runes.Runestone{
			Etching: &runes.Etching{
				Divisibility: &divisibility,
				Premine:      &premine,
				Rune:         runes.NewRuneFromNumber(u(104114246938590)),
				Spacers:      &spacers,
				Symbol:       &symbol,
			},
		}
	}

	etchingWithPointer := func() *runes.Runestone {
		divisibility := byte(4)
		spacers := uint32(256)
		symbol := rune(36)
		premine := u(100000000)

		return &runes.Runestone{
			Etching: &runes.Etching{
				Divisibility: &divisibility,
				Premine:      &premine,
				Rune:         runes.NewRuneFromNumber(u(1490942589659574650)),
				Spacers:      &spacers,
				Symbol:       &symbol,
			},
			Pointer: ptr(1),
		}
	}

	vectors := []struct {
		name      string
		script    string
		runestone *runes.Runestone
	}{
		{
			name:   "edict only",
			script: "6a5d09008fe69d0154d70e01",
			runestone: &runes.Runestone{
				Edicts: []runes.Edict{{RuneID: runes.RuneID{Block: 2585359, TxID: 84}, Amount: u(1879), Output: 1}},
			},
		},
		{
			name:      "mint only",
			script:    "6a5d0814e5e49d0114cc01",
			runestone: &runes.Runestone{Mint: &runes.RuneID{Block: 2585189, TxID: 204}},
		},
		{
			name:      "mint with pointer",
			script:    "6a5d0a14b0dd9d011482011601",
			runestone: &runes.Runestone{Mint: &runes.RuneID{Block: 2584240, TxID: 130}, Pointer: ptr(1)},
		},
		{
			name:      "pointer only",
			script:    "6a5d02160e",
			runestone: &runes.Runestone{Pointer: ptr(14)},
		},
		{
			name:      "etching only",
			script:    "6a5d15010a0201030004dedfd1e58fd617054d0680b19164",
			runestone: etchingOnly(),
		},
		{
			name:      "etching with pointer",
			script:    "6a5d1a020104fae2a3e9ac8cb9d814010403800205240680c2d72f1601",
			runestone: etchingWithPointer(),
		},
		{
			name:      "protocol",
			script:    "6a5d03ff7f05",
			runestone: &runes.Runestone{Protocol: []uint128.Uint128{u(5)}},
		},
	}

	t.Run("parse script data", func(t *testing.T) {
		for _, vector := range vectors {
			t.Run(vector.name, func(t *testing.T) {
				data, err := hex.DecodeString(vector.script)
				require.NoError(t, err)

				parsedRunestone, err := runes.ParseRunestone(data)
				require.NoError(t, err)
				require.Equal(t, vector.runestone, parsedRunestone)
				require.False(t, parsedRunestone.IsCenotaph())
			})
		}
	})

	t.Run("data into script", func(t *testing.T) {
		for _, vector := range vectors {
			t.Run(vector.name, func(t *testing.T) {
				data, err := vector.runestone.IntoScript()
				require.NoError(t, err)
				require.Equal(t, vector.script, hex.EncodeToString(data))
			})
		}
	})

	t.Run("large payload is split into pushes", func(t *testing.T) {
		protocol := make([]uint128.Uint128, 100)
		for i := range protocol {
			protocol[i] = uint128.Max.Rsh(8)
		}
		runestone := &runes.Runestone{Protocol: protocol}

		script, err := runestone.IntoScript()
		require.NoError(t, err)

		parsed, err := runes.ParseRunestone(script)
		require.NoError(t, err)
		require.False(t, parsed.IsCenotaph())
		require.Equal(t, protocol, parsed.Protocol)
	})

	t.Run("cenotaph", func(t *testing.T) {
		tests := []struct {
			name   string
			script string
			type_  byte
		}{
			{"invalid script", "6a5d09008fe69d0154d70e0115", runes.InvalidScriptCenotaphErrorType},
			{"non push opcode", "6a5d51", runes.OpcodeCenotaphErrorType},
			{"truncated varint", "6a5d0180", runes.VarintCenotaphErrorType},
			{"truncated field", "6a5d0114", runes.TruncatedFieldCenotaphErrorType},
			{"trailing integers", "6a5d0400010203", runes.TrailingIntegersCenotaphErrorType},
			{"unrecognized even tag", "6a5d020801", runes.UnrecognizedEvenTagCenotaphErrorType},
			{"unrecognized flag", "6a5d020208", runes.UnrecognizedFlagCenotaphErrorType},
			{"terms without etching", "6a5d020202", runes.UnrecognizedFlagCenotaphErrorType},
		}
		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				data, err := hex.DecodeString(test.script)
				require.NoError(t, err)

				runestone, err := runes.ParseRunestone(data)
				require.NoError(t, err)
				require.True(t, runestone.IsCenotaph())
				require.ErrorIs(t, runestone.Cenotaph, runes.ErrCenotaph)
				require.Equal(t, test.type_, runestone.Cenotaph.Type())
				require.Nil(t, runestone.Edicts)
				require.Nil(t, runestone.Pointer)
			})
		}

		t.Run("keeps mint and rune name", func(t *testing.T) {
			// flags etching|8, rune 5, mint 1:0.
			data, err := hex.DecodeString("6a5d080209040514011400")
			require.NoError(t, err)

			runestone, err := runes.ParseRunestone(data)
			require.NoError(t, err)
			require.True(t, runestone.IsCenotaph())
			require.Equal(t, &runes.RuneID{Block: 1, TxID: 0}, runestone.Mint)
			require.Equal(t, &runes.Etching{Rune: runes.NewRuneFromNumber(u(5))}, runestone.Etching)
		})
	})

	t.Run("not a runestone", func(t *testing.T) {
		for _, script := range []string{"", "6a", "0231", "6a5c01"} {
			data, err := hex.DecodeString(script)
			require.NoError(t, err)

			_, err = runes.ParseRunestone(data)
			require.ErrorIs(t, err, runes.ErrNoRunestone)
		}
	})

	t.Run("Decipher", func(t *testing.T) {
		script, err := hex.DecodeString("6a5d0814e5e49d0114cc01")
		require.NoError(t, err)

		tx := wire.NewMsgTx(2)
		tx.AddTxOut(wire.NewTxOut(546, []byte{0x51}))
		tx.AddTxOut(wire.NewTxOut(0, []byte{0x6a, 0x01, 0x01}))
		tx.AddTxOut(wire.NewTxOut(0, script))

		runestone, err := runes.Decipher(tx)
		require.NoError(t, err)
		require.Equal(t, &runes.RuneID{Block: 2585189, TxID: 204}, runestone.Mint)

		empty := wire.NewMsgTx(2)
		empty.AddTxOut(wire.NewTxOut(546, []byte{0x51}))
		_, err = runes.Decipher(empty)
		require.ErrorIs(t, err, runes.ErrNoRunestone)
	})

	t.Run("IsPossibleRunestone", func(t *testing.T) {
		tests := []struct {
			script string
			mustBe bool
		}{
			{"6a5d09008fe69d0154d70e01", true},
			{"6a5d02160e", true},
			{"", false},
			{"10", false},
			{"0231", false},
			{"6a5d", true},
			{"6a5d1a", true},
			{"6affff00", false},
			{"ffffff00", false},
			{"ff5d1a00", false},
		}
		for _, test := range tests {
			script, err := hex.DecodeString(test.script)
			require.NoError(t, err)
			require.Equal(t, test.mustBe, runes.IsPossibleRunestone(script), test.script)
		}
	})

	t.Run("Verify", func(t *testing.T) {
		edicts := func(output uint32) []runes.Edict {
			return []runes.Edict{{RuneID: runes.RuneID{Block: 1, TxID: 0}, Amount: u(1), Output: output}}
		}

		require.NoError(t, (&runes.Runestone{Pointer: ptr(1)}).Verify(2, 0))
		require.ErrorIs(t, (&runes.Runestone{Pointer: ptr(2)}).Verify(2, 0), runes.ErrCenotaph)
		require.NoError(t, (&runes.Runestone{Pointer: ptr(3)}).Verify(2, 1))
		require.Error(t, (&runes.Runestone{Pointer: ptr(4)}).Verify(2, 1))

		require.NoError(t, (&runes.Runestone{Edicts: edicts(2)}).Verify(2, 0))
		require.NoError(t, (&runes.Runestone{Edicts: edicts(4)}).Verify(2, 2))
		require.Error(t, (&runes.Runestone{Edicts: edicts(3)}).Verify(2, 0))
		require.Error(t, (&runes.Runestone{Mint: &runes.RuneID{Block: 0, TxID: 1}}).Verify(2, 0))
	})

	t.Run("Supply", func(t *testing.T) {
		premine, amount, capValue := u(10), u(5), u(4)
		etching := &runes.Etching{Premine: &premine, Terms: &runes.Terms{Amount: &amount, Cap: &capValue}}
		supply, ok := etching.Supply()
		require.True(t, ok)
		require.Equal(t, u(30), supply)

		huge := uint128.Max
		etching.Terms.Cap = &huge
		_, ok = etching.Supply()
		require.False(t, ok)
	})
}
