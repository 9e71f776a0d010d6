// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/alkanes/alkanes/trace"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/protorune/indexer"
)

// traceCommand renders recorded traces.
type traceCommand struct {
	cfg *config

	Height int64 `long:"height" description:"List outpoints with traces recorded at the height" default:"-1"`
	Args   struct {
		Outpoints []string `positional-arg-name:"txid:vout" description:"Outpoint of the protostone, vout is the shadow vout"`
	} `positional-args:"yes"`
}

// Execute prints traces of the outpoints.
func (c *traceCommand) Execute(_ []string) error {
	if err := c.cfg.validate(); err != nil {
		return err
	}

	batch, closeBatch, err := openBatch(c.cfg)
	if err != nil {
		return err
	}
	defer closeBatch()

	store := trace.NewStore(batch.Root())

	if c.Height >= 0 {
		outpoints, err := store.ByHeight(uint64(c.Height))
		if err != nil {
			return err
		}

		for _, op := range outpoints {
			fmt.Println(op)
		}
	}

	for _, arg := range c.Args.Outpoints {
		op, err := wire.NewOutPointFromString(arg)
		if err != nil {
			return fmt.Errorf("invalid outpoint %q: %w", arg, err)
		}

		t, err := store.Load(*op)
		if err != nil {
			return err
		}

		fmt.Println(t.Tree(op.String()))
	}

	return nil
}

// balanceCommand prints balances of outpoints and contracts.
type balanceCommand struct {
	cfg *config

	Holders []string `long:"holder" description:"Contract id block:tx to print the holdings of"`
	Args    struct {
		Outpoints []string `positional-arg-name:"txid:vout"`
	} `positional-args:"yes"`
}

// Execute prints runes and protocol balances.
func (c *balanceCommand) Execute(_ []string) error {
	if err := c.cfg.validate(); err != nil {
		return err
	}

	batch, closeBatch, err := openBatch(c.cfg)
	if err != nil {
		return err
	}
	defer closeBatch()

	ix := indexer.New(c.cfg.Indexer, nil, batch)

	for _, arg := range c.Args.Outpoints {
		op, err := wire.NewOutPointFromString(arg)
		if err != nil {
			return fmt.Errorf("invalid outpoint %q: %w", arg, err)
		}

		runes, err := ix.Runes().Load(*op)
		if err != nil {
			return err
		}

		protocol, err := ix.Protocol().Load(*op)
		if err != nil {
			return err
		}

		fmt.Println(op)
		printSheet("runes", runes)
		printSheet(fmt.Sprintf("protocol %d", c.cfg.Indexer.ProtocolTag), protocol)
	}

	for _, arg := range c.Holders {
		holder, err := balance.NewAssetIDFromString(arg)
		if err != nil {
			return err
		}

		holdings, err := ix.Protocol().Holdings(holder)
		if err != nil {
			return err
		}

		fmt.Println(holder)
		printSheet("holdings", holdings)
	}

	return nil
}

func printSheet(title string, sheet *balance.Sheet) {
	fmt.Printf("  %s:\n", title)
	for _, transfer := range sheet.Transfers() {
		fmt.Printf("    %s %s\n", transfer.ID, transfer.Amount)
	}
}
