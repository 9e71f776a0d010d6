// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package balance_test

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/storage"
)

func TestAssetID(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		id, err := balance.NewAssetIDFromString("2:17")
		require.NoError(t, err)
		require.Equal(t, balance.NewAssetID(2, 17), id)
		require.Equal(t, "2:17", id.String())

		_, err = balance.NewAssetIDFromString("2")
		require.Error(t, err)
		_, err = balance.NewAssetIDFromString("a:1")
		require.Error(t, err)
	})

	t.Run("bytes", func(t *testing.T) {
		id := balance.AssetID{Block: uint128.Max, Tx: uint128.From64(1)}
		data := id.Bytes()
		require.Len(t, data, balance.AssetIDSize)

		decoded, err := balance.AssetIDFromBytes(data)
		require.NoError(t, err)
		require.Equal(t, id, decoded)

		_, err = balance.AssetIDFromBytes(data[1:])
		require.Error(t, err)
	})

	t.Run("Cmp", func(t *testing.T) {
		require.Equal(t, -1, balance.NewAssetID(1, 9).Cmp(balance.NewAssetID(2, 0)))
		require.Equal(t, 1, balance.NewAssetID(2, 1).Cmp(balance.NewAssetID(2, 0)))
		require.Equal(t, 0, balance.NewAssetID(2, 1).Cmp(balance.NewAssetID(2, 1)))
		require.True(t, balance.AssetID{}.IsZero())
	})

	t.Run("FromRuneID", func(t *testing.T) {
		require.Equal(t, balance.NewAssetID(840000, 3), balance.FromRuneID(runes.RuneID{Block: 840000, TxID: 3}))
	})
}

func TestSheet(t *testing.T) {
	u := uint128.From64
	a, b := balance.NewAssetID(2, 0), balance.NewAssetID(2, 1)

	t.Run("Increase and Decrease", func(t *testing.T) {
		sheet := balance.NewSheet()
		require.NoError(t, sheet.Increase(a, u(10)))
		require.NoError(t, sheet.Increase(a, u(5)))
		require.Equal(t, u(15), sheet.Get(a))

		require.ErrorIs(t, sheet.Increase(a, uint128.Max), balance.ErrOverflow)
		require.Equal(t, u(15), sheet.Get(a))

		require.ErrorIs(t, sheet.Decrease(a, u(16)), balance.ErrInsufficient)
		require.Equal(t, u(15), sheet.Get(a))

		require.NoError(t, sheet.Decrease(a, u(15)))
		require.True(t, sheet.IsZero())
	})

	t.Run("Concat and Pipe", func(t *testing.T) {
		first, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: a, Amount: u(1)}, {ID: b, Amount: u(2)}})
		require.NoError(t, err)
		second, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: a, Amount: u(3)}})
		require.NoError(t, err)

		sum, err := balance.Concat(first, nil, second)
		require.NoError(t, err)
		require.Equal(t, []balance.Transfer{{ID: a, Amount: u(4)}, {ID: b, Amount: u(2)}}, sum.Transfers())

		overflow, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: a, Amount: uint128.Max}})
		require.NoError(t, err)
		_, err = balance.Concat(first, overflow)
		require.ErrorIs(t, err, balance.ErrOverflow)

		target := balance.NewSheet()
		before := first.Clone()
		require.NoError(t, first.Pipe(target))
		require.True(t, target.Equal(before))
		require.True(t, first.IsZero())
	})

	t.Run("DebitMintable", func(t *testing.T) {
		sheet, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: a, Amount: u(5)}, {ID: b, Amount: u(1)}})
		require.NoError(t, err)
		out, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: a, Amount: u(2)}, {ID: b, Amount: u(7)}})
		require.NoError(t, err)

		before := sheet.Clone()
		require.ErrorIs(t, sheet.Debit(out), balance.ErrInsufficient)
		require.True(t, sheet.Equal(before))

		require.NoError(t, sheet.DebitMintable(out, func(id balance.AssetID) bool { return id == b }))
		require.Equal(t, []balance.Transfer{{ID: a, Amount: u(3)}}, sheet.Transfers())
	})

	t.Run("Encode", func(t *testing.T) {
		sheet, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: b, Amount: u(7)}, {ID: a, Amount: u(9)}})
		require.NoError(t, err)

		decoded, err := balance.DecodeSheet(sheet.Encode())
		require.NoError(t, err)
		require.True(t, sheet.Equal(decoded))
		require.Equal(t, []balance.AssetID{a, b}, decoded.IDs())

		empty, err := balance.DecodeSheet(nil)
		require.NoError(t, err)
		require.True(t, empty.IsZero())

		_, err = balance.DecodeSheet([]byte{1, 2, 3})
		require.ErrorIs(t, err, balance.ErrMalformedSheet)
	})
}

func TestTable(t *testing.T) {
	u := uint128.From64
	a, b := balance.NewAssetID(2, 0), balance.NewAssetID(840000, 1)
	holder := balance.NewAssetID(2, 5)
	op := wire.OutPoint{Hash: chainhash.Hash{1, 2, 3}, Index: 7}

	backend, err := storage.NewMemoryLevelDB()
	require.NoError(t, err)
	defer func() { require.NoError(t, backend.Close()) }()

	batch := storage.NewBatch(backend)
	root := batch.Root()

	t.Run("outpoint", func(t *testing.T) {
		runesTable := balance.NewRunesTable(root)
		protoTable := balance.NewProtocolTable(root, u(1))

		sheet, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: b, Amount: u(100)}})
		require.NoError(t, err)
		runesTable.Save(op, sheet)

		loaded, err := runesTable.Load(op)
		require.NoError(t, err)
		require.True(t, sheet.Equal(loaded))

		other, err := protoTable.Load(op)
		require.NoError(t, err)
		require.True(t, other.IsZero())

		same, err := balance.NewProtocolTable(root, uint128.Zero).Load(op)
		require.NoError(t, err)
		require.True(t, sheet.Equal(same))

		require.NoError(t, batch.Flush())
		runesTable.Clear(op)
		require.NoError(t, batch.Flush())

		loaded, err = runesTable.Load(op)
		require.NoError(t, err)
		require.True(t, loaded.IsZero())
	})

	t.Run("burn", func(t *testing.T) {
		table := balance.NewProtocolTable(root, u(1))
		require.NoError(t, table.Burn(a, u(3)))

		sheet, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: a, Amount: u(4)}})
		require.NoError(t, err)
		require.NoError(t, table.BurnSheet(sheet))
		require.Equal(t, u(7), table.Burned(a))

		require.ErrorIs(t, table.Burn(a, uint128.Max), balance.ErrOverflow)
	})

	t.Run("holdings", func(t *testing.T) {
		table := balance.NewProtocolTable(root, u(1))

		incoming, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: a, Amount: u(10)}, {ID: b, Amount: u(2)}})
		require.NoError(t, err)
		require.NoError(t, table.CreditHolder(holder, incoming))
		require.NoError(t, table.CreditHolder(holder, incoming))

		holdings, err := table.Holdings(holder)
		require.NoError(t, err)
		require.Equal(t, []balance.Transfer{{ID: a, Amount: u(20)}, {ID: b, Amount: u(4)}}, holdings.Transfers())

		out, err := balance.NewSheetFromTransfers([]balance.Transfer{{ID: b, Amount: u(5)}})
		require.NoError(t, err)
		require.ErrorIs(t, table.DebitHolder(holder, out, func(balance.AssetID) bool { return false }), balance.ErrInsufficient)
		require.Equal(t, u(4), table.Held(holder, b))

		require.NoError(t, table.DebitHolder(holder, out, func(id balance.AssetID) bool { return id == b }))
		require.True(t, table.Held(holder, b).IsZero())

		require.NoError(t, table.CreditHolder(holder, out))
		require.Equal(t, uint32(2), root.Keyword("/alkanes/").Select(holder.Bytes()).Keyword("/inventory").Length())
	})
}
