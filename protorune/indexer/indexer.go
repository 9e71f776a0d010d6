// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/alkanes/fuel"
	"github.com/BoostyLabs/alkanes/alkanes/message"
	"github.com/BoostyLabs/alkanes/alkanes/vm"
	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/storage"
)

// ErrBlockRetry defines block which failed on storage and must be indexed again.
var ErrBlockRetry = errors.New("block must be retried")

// Config defines indexer options.
type Config struct {
	ProtocolTag         uint64        `long:"protocol-tag" description:"Tag of the indexed protocol" default:"1"`
	FirstRuneHeight     uint64        `long:"first-rune-height" description:"Height the runes protocol starts at" default:"840000"`
	SkipCommitmentCheck bool          `long:"skip-commitment-check" description:"Accept named etchings without taproot commitment"`
	Retries             int           `long:"retries" description:"Attempts to index the block after storage failures" default:"3"`
	RetryDelay          time.Duration `long:"retry-delay" description:"Delay between block attempts" default:"1s"`

	Fuel fuel.Config `group:"Fuel" namespace:"fuel"`
}

// DefaultConfig returns config with mainnet values.
func DefaultConfig() Config {
	return Config{
		ProtocolTag:     1,
		FirstRuneHeight: runes.ProtocolBlockStart,
		Retries:         3,
		RetryDelay:      time.Second,
		Fuel:            fuel.DefaultConfig(),
	}
}

// BlockContext defines state living for the time of one block.
type BlockContext struct {
	Height  uint64
	Tank    *fuel.Tank
	Root    *storage.Pointer
	Handler *message.Handler
}

// Indexer indexes runes and the protocol messages block by block.
type Indexer struct {
	config   Config
	host     vm.Host
	batch    *storage.Batch
	tag      uint128.Uint128
	runes    *balance.Table
	protocol *balance.Table
	registry *Registry
	outputs  *Outpoints
}

// New is a constructor for Indexer.
func New(config Config, host vm.Host, batch *storage.Batch) *Indexer {
	root := batch.Root()
	tag := uint128.From64(config.ProtocolTag)

	return &Indexer{
		config:   config,
		host:     host,
		batch:    batch,
		tag:      tag,
		runes:    balance.NewRunesTable(root),
		protocol: balance.NewProtocolTable(root, tag),
		registry: NewRegistry(root),
		outputs:  NewOutpoints(root),
	}
}

// Runes returns table of the runes balances.
func (ix *Indexer) Runes() *balance.Table {
	return ix.runes
}

// Protocol returns table of the protocol balances.
func (ix *Indexer) Protocol() *balance.Table {
	return ix.protocol
}

// Registry returns etched runes.
func (ix *Indexer) Registry() *Registry {
	return ix.registry
}

// Height returns the next height to index, false if nothing is indexed yet.
func (ix *Indexer) Height() (uint64, bool) {
	stored := ix.batch.Root().Keyword("/height").Get()
	if len(stored) == 0 {
		return 0, false
	}

	return ix.batch.Root().Keyword("/height").GetUint64() + 1, true
}

// IndexBlock indexes transactions of the block in order and flushes the result.
// Nothing of the block is written if it fails.
func (ix *Indexer) IndexBlock(ctx context.Context, block *wire.MsgBlock, height uint64) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	root := ix.batch.Root()
	checkpoint := root.Derive()
	defer func() {
		if err == nil {
			return
		}

		if rollbackErr := checkpoint.Rollback(); rollbackErr != nil {
			log.Debugf("block %d checkpoint: %v", height, rollbackErr)
		}
		ix.batch.Discard()

		if errors.Is(err, storage.ErrStorageFatal) {
			err = fmt.Errorf("%w: height %d: %w", ErrBlockRetry, height, err)
		}
	}()

	tank := fuel.NewTank(ix.config.Fuel)
	tank.Initialize(block)

	bctx := &BlockContext{
		Height:  height,
		Tank:    tank,
		Root:    root,
		Handler: message.NewHandler(ix.host, tank, root, ix.protocol),
	}

	for idx, tx := range block.Transactions {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = ix.batch.Guard(func() error {
			ix.outputs.Record(tx, height)
			return ix.indexTransaction(bctx, tx, uint32(idx))
		})
		if err != nil {
			return fmt.Errorf("tx %s: %w", tx.TxHash(), err)
		}
	}

	root.Keyword("/height").SetUint64(height)

	if err = checkpoint.Commit(); err != nil {
		return err
	}

	if err = ix.batch.Flush(); err != nil {
		return err
	}

	log.Infof("indexed block %d with %d transactions, fuel left %d", height, len(block.Transactions), tank.BlockFuel())

	return nil
}

// IndexBlockWithRetry indexes the block retrying storage failures.
func (ix *Indexer) IndexBlockWithRetry(ctx context.Context, block *wire.MsgBlock, height uint64) error {
	var err error
	for attempt := 0; attempt <= ix.config.Retries; attempt++ {
		if attempt > 0 {
			log.Warnf("retrying block %d, attempt %d: %v", height, attempt, err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ix.config.RetryDelay):
			}
		}

		if err = ix.IndexBlock(ctx, block, height); !errors.Is(err, ErrBlockRetry) {
			return err
		}
	}

	return err
}
