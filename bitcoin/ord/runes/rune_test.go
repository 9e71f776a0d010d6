// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
)

func TestRunes(t *testing.T) {
	t.Run("conversions", func(t *testing.T) {
		tests := []struct {
			num uint128.Uint128
			str string
		}{
			{uint128.From64(0), "A"},
			{uint128.From64(1), "B"},
			{uint128.From64(2), "C"},
			{uint128.From64(3), "D"},
			{uint128.From64(4), "E"},
			{uint128.From64(5), "F"},
			{uint128.From64(6), "G"},
			{uint128.From64(7), "H"},
			{uint128.From64(8), "I"},
			{uint128.From64(9), "J"},
			{uint128.From64(10), "K"},
			{uint128.From64(11), "L"},
			{uint128.From64(12), "M"},
			{uint128.From64(13), "N"},
			{uint128.From64(14), "O"},
			{uint128.From64(15), "P"},
			{uint128.From64(16), "Q"},
			{uint128.From64(17), "R"},
			{uint128.From64(18), "S"},
			{uint128.From64(19), "T"},
			{uint128.From64(20), "U"},
			{uint128.From64(21), "V"},
			{uint128.From64(22), "W"},
			{uint128.From64(23), "X"},
			{uint128.From64(24), "Y"},
			{uint128.From64(25), "Z"},
			{uint128.From64(26), "AA"},
			{uint128.From64(27), "AB"},
			{uint128.From64(51), "AZ"},
			{uint128.From64(52), "BA"},
		}
		for _, test := range tests {
			runeFromStr, err := runes.NewRuneFromString(test.str)
			require.NoError(t, err)
			runeFromNum := runes.NewRuneFromNumber(test.num)
			require.Equal(t, runeFromStr.Value(), test.num, "str: "+test.str)
			require.Equal(t, runeFromNum.String(), test.str, "num: "+test.num.String())
		}
	})

	t.Run("MaxUInt128 name", func(t *testing.T) {
		rune_ := runes.NewRuneFromNumber(uint128.Max)
		require.EqualValues(t, "BCGDENLQRQWDSLRUGSNLBTMFIJAV", rune_.String())
	})

	t.Run("NewRuneFromString", func(t *testing.T) {
		var (
			errSymb         = errors.New("invalid symbol in the rune")
			errU128Overflow = errors.New("value overflows uint128")
			errReserved     = errors.New("reserved name")
		)
		tests := []struct {
			str string
			err error
		}{
			{"A", nil},
			{"B", nil},
			{"AB", nil},
			{"BA", nil},
			{"AZNF", nil},
			{"Aok", errSymb},
			{"TP3", errSymb},
			{"ORNV_", errSymb},
			{"OR V", errSymb},
			{"OR2V", errSymb},
			{"123", errSymb},
			{"ABCDEFGHIJKLMNOPQRSTUVWXYZ", nil},
			{"ABACDEFGHIJKLMNOPQRSTUVWXYZ", errReserved},      // > AAAAAAAAAAAAAAAAAAAAAAAAAAA.
			{"ZZZZZZZZZZZZZZZZZZZZZZZZZZZZ", errU128Overflow}, // uint128 overflow.
		}
		for _, test := range tests {
			_, err := runes.NewRuneFromString(test.str)
			require.Equal(t, test.err, err)
		}
	})

	t.Run("NewRuneFromStringWithSpacer", func(t *testing.T) {
		var (
			rune_  *runes.Rune
			spacer uint32
			err    error
		)
		tests := []struct {
			runeWithSpacer string
			spacer         rune
			spacers        uint32
			expectedRune   string
		}{
			{
				runeWithSpacer: "ABC_DEF_GHI_JKL_MNO_PQR_STU_VWX_YZ",
				spacer:         '_',
				spacers:        0b00000000_10010010_01001001_00100100,
				expectedRune:   "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
			},
			{
				runeWithSpacer: "ABC•DEF•GHI•JKL•MNO•PQR•STU•VWX•YZ",
				spacers:        0b00000000_10010010_01001001_00100100,
				expectedRune:   "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
			},
			{
				runeWithSpacer: "HELLO TEST RUNE",
				spacer:         ' ',
				spacers:        0b00000000_00000000_00000001_00010000,
				expectedRune:   "HELLOTESTRUNE",
			},
			{
				runeWithSpacer: "HE\\LLO\\TEST\\RUN\\E",
				spacer:         '\\',
				spacers:        0b00000000_00000000_00001001_00010010,
				expectedRune:   "HELLOTESTRUNE",
			},
		}
		for _, test := range tests {
			if test.spacer == 0 {
				rune_, spacer, err = runes.NewRuneFromStringWithSpacer(test.runeWithSpacer)
			} else {
				rune_, spacer, err = runes.NewRuneFromStringWithSpacer(test.runeWithSpacer, test.spacer)
			}
			require.NoError(t, err)
			require.EqualValues(t, test.spacers, spacer)
			require.EqualValues(t, test.expectedRune, rune_.String(), test.expectedRune)
			require.EqualValues(t, test.expectedRune, rune_.String(), test.expectedRune)
		}
	})

	t.Run("StringWithSeparator", func(t *testing.T) {
		tests := []struct {
			rawRune      string
			spacer       rune
			spacers      uint32
			expectedRune string
		}{
			{
				rawRune:      "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
				spacer:       '_',
				spacers:      0b00000000_10010010_01001001_00100100,
				expectedRune: "ABC_DEF_GHI_JKL_MNO_PQR_STU_VWX_YZ",
			},
			{
				rawRune:      "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
				spacers:      0b00000000_10010010_01001001_00100100,
				expectedRune: "ABC•DEF•GHI•JKL•MNO•PQR•STU•VWX•YZ",
			},
			{
				rawRune:      "HELLOTESTRUNE",
				spacer:       ' ',
				spacers:      0b00000000_00000000_00000001_00010000,
				expectedRune: "HELLO TEST RUNE",
			},
			{
				rawRune:      "HELLOTESTRUNE",
				spacer:       '\\',
				spacers:      0b00000000_00000000_00001001_00010010,
				expectedRune: "HE\\LLO\\TEST\\RUN\\E",
			},
		}
		for _, test := range tests {
			rune_, err := runes.NewRuneFromString(test.rawRune)
			require.NoError(t, err)
			if test.spacer == 0 {
				require.EqualValues(t, test.expectedRune, rune_.StringWithSeparator(test.spacers), test.rawRune)
			} else {
				require.EqualValues(t, test.expectedRune, rune_.StringWithSeparator(test.spacers, test.spacer), test.rawRune)
			}
		}
	})

	t.Run("RuneReserve", func(t *testing.T) {
		tests := []struct {
			block    uint64
			tx       uint32
			expected string
		}{
			{0, 0, "AAAAAAAAAAAAAAAAAAAAAAAAAAA"},
			{0, 1, "AAAAAAAAAAAAAAAAAAAAAAAAAAB"},
			{100, 1, "AAAAAAAAAAAAAAAAAACBMITDVSR"},
		}
		for _, test := range tests {
			require.EqualValues(t, test.expected, runes.RuneReserve(runes.RuneID{Block: test.block, TxID: test.tx}).String())
		}
	})

	t.Run("MinimumAtHeight", func(t *testing.T) {
		name := func(length int) uint128.Uint128 {
			rune_, err := runes.NewRuneFromString(strings.Repeat("A", length))
			require.NoError(t, err)
			return rune_.Value()
		}

		tests := []struct {
			height   uint64
			expected uint128.Uint128
		}{
			{0, name(13)},
			{839998, name(13)},
			{839999, name(13)},
			{857499, name(12)},
			{1032499, name(2)},
			{1049999, uint128.Zero},
			{1050000, uint128.Zero},
		}
		for _, test := range tests {
			require.Equal(t, test.expected, runes.MinimumAtHeight(test.height, runes.ProtocolBlockStart), "%d", test.height)
		}

		middle := runes.MinimumAtHeight(839999+runes.UnlockNamePeriod/2, runes.ProtocolBlockStart)
		require.True(t, middle.Cmp(name(13)) < 0)
		require.True(t, middle.Cmp(name(12)) > 0)
	})

	t.Run("IsReserved", func(t *testing.T) {
		require.True(t, runes.FirstReservedRuneName.IsReserved())
		require.True(t, runes.RuneReserve(runes.RuneID{Block: 840000, TxID: 1}).IsReserved())

		rune_, err := runes.NewRuneFromString("ABCDEFGHIJKLMNOPQRSTUVWXYZ")
		require.NoError(t, err)
		require.False(t, rune_.IsReserved())
	})

	t.Run("Commitment", func(t *testing.T) {
		require.Empty(t, runes.NewRuneFromNumber(uint128.Zero).Commitment())
		require.Equal(t, []byte{0x01, 0x01}, runes.NewRuneFromNumber(uint128.From64(257)).Commitment())
		require.Len(t, runes.FirstReservedRuneName.Commitment(), 16)
	})
}
