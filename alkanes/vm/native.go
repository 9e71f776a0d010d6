// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package vm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ErrUnsupportedBinary defines binary without registered implementation.
var ErrUnsupportedBinary = errors.New("unsupported binary")

// Contract defines Go implementation of the contract binary.
type Contract func(rt Runtime, fuel uint64) (*Response, uint64, error)

// Native is a Host running Go implementations registered by binary hash.
type Native struct {
	mu        sync.RWMutex
	contracts map[chainhash.Hash]Contract
}

// ensures that Native implements Host.
var _ Host = (*Native)(nil)

// NewNative is a constructor for Native.
func NewNative() *Native {
	return &Native{contracts: make(map[chainhash.Hash]Contract)}
}

// Register binds implementation to the binary.
func (n *Native) Register(binary []byte, contract Contract) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.contracts[chainhash.HashH(binary)] = contract
}

// Run executes implementation of the binary.
func (n *Native) Run(rt Runtime, binary []byte, fuel uint64) (*Response, uint64, error) {
	n.mu.RLock()
	contract, ok := n.contracts[chainhash.HashH(binary)]
	n.mu.RUnlock()
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnsupportedBinary, chainhash.HashH(binary))
	}

	return contract(rt, fuel)
}
