// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package fuel

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"
)

// ErrFuelExhausted defines call which used more fuel than allocated.
var ErrFuelExhausted = errors.New("fuel exhausted")

// State defines phase of the tank within the block.
type State int

const (
	// StateIdle defines tank without block budget.
	StateIdle State = iota
	// StateFueled defines tank funding the current transaction.
	StateFueled
	// StateDraining defines tank whose transaction reverted.
	StateDraining
)

// String returns state name.
func (s State) String() string {
	switch s {
	case StateFueled:
		return "fueled"
	case StateDraining:
		return "draining"
	default:
		return "idle"
	}
}

// Config defines fuel budget constants.
type Config struct {
	BlockFuel          uint64 `long:"block-fuel" description:"Fuel budget of the block" default:"100000000"`
	MinTransactionFuel uint64 `long:"min-tx-fuel" description:"Minimal fuel of the transaction" default:"350000"`
	MaxTransactionFuel uint64 `long:"max-tx-fuel" description:"Maximal fuel of the transaction" default:"50000000"`
}

// DefaultConfig returns config with mainnet constants.
func DefaultConfig() Config {
	return Config{
		BlockFuel:          100_000_000,
		MinTransactionFuel: 350_000,
		MaxTransactionFuel: 50_000_000,
	}
}

// Tank meters fuel of one block. Remaining block fuel never grows
// until the next refuel.
type Tank struct {
	config Config
	state  State

	blockFuel uint64
	blockSize uint64
	funded    bool

	txIndex uint32
	txFuel  uint64
}

// NewTank is a constructor for Tank.
func NewTank(config Config) *Tank {
	return &Tank{config: config}
}

// Initialize refuels the tank with virtual size of the whole block.
func (t *Tank) Initialize(block *wire.MsgBlock) {
	var size uint64
	for _, tx := range block.Transactions {
		size += VirtualSize(tx)
	}

	t.RefuelBlock(size)
}

// RefuelBlock resets block budget for the block of given virtual size.
func (t *Tank) RefuelBlock(size uint64) {
	t.state = StateFueled
	t.blockFuel = t.config.BlockFuel
	t.blockSize = size
	t.funded = false
	t.txIndex, t.txFuel = 0, 0
}

// State returns phase of the tank.
func (t *Tank) State() State {
	return t.state
}

// IsTop returns true if no transaction of the block has been fueled yet.
func (t *Tank) IsTop() bool {
	return !t.funded
}

// ShouldAdvance returns true if txindex is not the funded transaction.
func (t *Tank) ShouldAdvance(txindex uint32) bool {
	return !t.funded || t.txIndex != txindex
}

// FuelTransaction allocates fuel of the transaction proportionally to its share of the block size.
func (t *Tank) FuelTransaction(vsize uint64, txindex uint32, height uint64) {
	if t.state == StateIdle {
		t.RefuelBlock(vsize)
	}

	share := t.config.MaxTransactionFuel
	if t.blockSize != 0 {
		// block fuel * vsize may overflow uint64.
		share = uint128.From64(t.blockFuel).Mul64(vsize).Div64(t.blockSize).Lo
	}

	fuel := max(t.config.MinTransactionFuel, min(share, t.config.MaxTransactionFuel))

	t.blockFuel -= min(fuel, t.blockFuel)
	t.blockSize -= min(vsize, t.blockSize)
	t.funded = true
	t.state = StateFueled
	t.txIndex, t.txFuel = txindex, fuel

	log.Tracef("height %d tx %d: fueled %d for vsize %d, block fuel left %d", height, txindex, fuel, vsize, t.blockFuel)
}

// StartFuel returns fuel left to the current transaction.
func (t *Tank) StartFuel() uint64 {
	return t.txFuel
}

// BlockFuel returns fuel left to the block.
func (t *Tank) BlockFuel() uint64 {
	return t.blockFuel
}

// ConsumeFuel subtracts used fuel of the call.
func (t *Tank) ConsumeFuel(used uint64) error {
	if used > t.txFuel {
		return fmt.Errorf("%w: used %d, left %d", ErrFuelExhausted, used, t.txFuel)
	}

	t.txFuel -= used

	return nil
}

// DrainFuel zeroes fuel of the reverted transaction.
func (t *Tank) DrainFuel() {
	log.Tracef("tx %d: drained %d", t.txIndex, t.txFuel)

	t.txFuel = 0
	t.state = StateDraining
}
