// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/internal/sequencereader"
)

func TestMessage(t *testing.T) {
	u := uint128.From64

	t.Run("ParseMessage", func(t *testing.T) {
		t.Run("mint", func(t *testing.T) {
			message := &runes.Message{
				Fields: map[runes.Tag][]uint128.Uint128{
					runes.TagMint: {u(2585189), u(204)},
				},
			}

			parsedMessage := runes.ParseMessage(sequencereader.New(
				[]uint128.Uint128{u(20), u(2585189), u(20), u(204)},
			))
			require.Equal(t, message, parsedMessage)
		})

		t.Run("edict", func(t *testing.T) {
			message := &runes.Message{
				Edicts: []runes.Edict{
					{
						RuneID: runes.RuneID{
							Block: 2585359,
							TxID:  84,
						},
						Amount: u(1879),
						Output: 1,
					},
				},
				Fields: map[runes.Tag][]uint128.Uint128{},
			}

			parsedMessage := runes.ParseMessage(sequencereader.New(
				[]uint128.Uint128{u(0), u(2585359), u(84), u(1879), u(1)},
			))
			require.Equal(t, message, parsedMessage)
		})

		t.Run("protocol", func(t *testing.T) {
			parsedMessage := runes.ParseMessage(sequencereader.New(
				[]uint128.Uint128{u(16383), u(1), u(16383), u(2)},
			))
			require.Nil(t, parsedMessage.Flaw)
			require.Equal(t, []uint128.Uint128{u(1), u(2)}, parsedMessage.Fields[runes.TagProtocol])
		})
	})

	t.Run("ParseMessage (invalid)", func(t *testing.T) {
		t.Run("invalid edicts group size", func(t *testing.T) {
			message := runes.ParseMessage(sequencereader.New(
				[]uint128.Uint128{u(0), u(1), u(2), u(3)},
			))
			require.NotNil(t, message.Flaw)
			require.ErrorIs(t, message.Flaw, runes.ErrCenotaph)
			require.Equal(t, runes.TrailingIntegersCenotaphErrorType, message.Flaw.Type())
		})

		t.Run("truncated", func(t *testing.T) {
			message := runes.ParseMessage(sequencereader.New(
				[]uint128.Uint128{u(20), u(21156847), u(20)},
			))
			require.NotNil(t, message.Flaw)
			require.Equal(t, runes.TruncatedFieldCenotaphErrorType, message.Flaw.Type())
			require.Equal(t, []uint128.Uint128{u(21156847)}, message.Fields[runes.TagMint])
		})

		t.Run("huge even tag", func(t *testing.T) {
			message := runes.ParseMessage(sequencereader.New(
				[]uint128.Uint128{uint128.New(2, 1), u(1)},
			))
			require.NotNil(t, message.Flaw)
			require.Equal(t, runes.UnrecognizedEvenTagCenotaphErrorType, message.Flaw.Type())
		})
	})

	t.Run("ToIntSeq", func(t *testing.T) {
		t.Run("mint", func(t *testing.T) {
			seq := []uint128.Uint128{u(20), u(2585189), u(20), u(204)}
			message := &runes.Message{
				Fields: map[runes.Tag][]uint128.Uint128{
					runes.TagMint: {u(2585189), u(204)},
				},
			}

			require.Equal(t, seq, message.ToIntSeq())
		})

		t.Run("edict", func(t *testing.T) {
			seq := []uint128.Uint128{u(0), u(2585359), u(84), u(1879), u(1)}
			message := &runes.Message{
				Edicts: []runes.Edict{
					{
						RuneID: runes.RuneID{
							Block: 2585359,
							TxID:  84,
						},
						Amount: u(1879),
						Output: 1,
					},
				},
			}

			require.Equal(t, seq, message.ToIntSeq())
		})
	})
}
