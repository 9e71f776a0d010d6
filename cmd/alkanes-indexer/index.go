// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/alkanes/alkanes/vm"
	"github.com/BoostyLabs/alkanes/protorune/indexer"
	"github.com/BoostyLabs/alkanes/storage"
)

// indexCommand indexes blocks stored in files.
type indexCommand struct {
	cfg *config

	Height int64 `long:"height" description:"Height of the first block, the next unindexed height if omitted" default:"-1"`
	Args   struct {
		Blocks []string `positional-arg-name:"block-file" description:"File with the serialized block, binary or hex"`
	} `positional-args:"yes" required:"yes"`
}

// Execute indexes blocks one after another until all files are processed or the process is interrupted.
func (c *indexCommand) Execute(_ []string) error {
	if err := c.cfg.validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch, closeBatch, err := openBatch(c.cfg)
	if err != nil {
		return err
	}
	defer closeBatch()

	ix := indexer.New(c.cfg.Indexer, vm.NewNative(), batch)

	height, ok := ix.Height()
	switch {
	case c.Height >= 0:
		height = uint64(c.Height)
	case !ok:
		height = c.cfg.Indexer.FirstRuneHeight
	}

	for _, path := range c.Args.Blocks {
		block, err := readBlock(path)
		if err != nil {
			return err
		}

		if err = ix.IndexBlockWithRetry(ctx, block, height); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Infof("interrupted before block %d", height)
				return nil
			}

			return fmt.Errorf("block %d from %s: %w", height, path, err)
		}

		height++
	}

	log.Infof("index is at height %d", height-1)

	return nil
}

// openBatch opens the configured backend and returns the batch on top of it.
func openBatch(cfg *config) (*storage.Batch, func(), error) {
	backend, err := cfg.openBackend()
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := backend.Close(); err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
	}

	return storage.NewBatch(backend), closeFn, nil
}

// readBlock deserializes block from the file, hex content is decoded first.
func readBlock(path string) (*wire.MsgBlock, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if decoded, err := hex.DecodeString(string(bytes.TrimSpace(raw))); err == nil {
		raw = decoded
	}

	block := new(wire.MsgBlock)
	if err = block.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to deserialize block from %s: %w", path, err)
	}

	return block, nil
}
