// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package vm

//go:generate mockgen -source vm.go -destination vm_mock.go -package vm

import (
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/alkanes/cellpack"
	"github.com/BoostyLabs/alkanes/alkanes/trace"
	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// RevertMarker defines leading bytes of the revert response data.
var RevertMarker = []byte{0x08, 0xc3, 0x79, 0xa0}

// CallKind defines how the nested call switches context.
type CallKind int

const (
	// Call runs the callee with its own identity and commits its writes.
	Call CallKind = iota
	// Delegatecall runs the callee binary with the caller identity.
	Delegatecall
	// Staticcall runs the callee with its own identity and drops its writes.
	Staticcall
)

// String returns call kind name.
func (k CallKind) String() string {
	switch k {
	case Delegatecall:
		return "delegatecall"
	case Staticcall:
		return "staticcall"
	default:
		return "call"
	}
}

// EnterEvent returns trace event kind of the call.
func (k CallKind) EnterEvent() trace.EventKind {
	switch k {
	case Delegatecall:
		return trace.EnterDelegatecall
	case Staticcall:
		return trace.EnterStaticcall
	default:
		return trace.EnterCall
	}
}

// Context defines execution context of one call.
type Context struct {
	Caller     balance.AssetID
	Myself     balance.AssetID
	Incoming   *balance.Sheet
	Inputs     []uint128.Uint128
	IsStatic   bool
	IsDelegate bool
	Vout       uint32
	Height     uint64
	TxIndex    uint32
	Tx         *wire.MsgTx
}

// Response defines result of the successful call.
type Response struct {
	// Alkanes are sent back to the caller.
	Alkanes []balance.Transfer
	// Storage are writes into the contract storage.
	Storage []trace.StorageEntry
	Data    []byte
}

// Runtime defines what the contract may request from the indexer while running.
type Runtime interface {
	// Context returns context of the running call.
	Context() *Context
	// Load returns value of the contract storage including writes of the enclosing calls.
	Load(key []byte) []byte
	// Balance returns amount of the asset held by the contract.
	Balance(holder, id balance.AssetID) uint128.Uint128
	// Sequence returns the next sequence number.
	Sequence() uint128.Uint128
	// Extcall runs nested call and returns its response with used fuel.
	Extcall(kind CallKind, target *cellpack.Cellpack, incoming []balance.Transfer, storage []trace.StorageEntry, fuel uint64) (*Response, uint64, error)
}

// Host executes contract binaries.
type Host interface {
	// Run executes binary with given fuel and returns response with used fuel.
	Run(rt Runtime, binary []byte, fuel uint64) (*Response, uint64, error)
}

// RevertData returns canonical response data of the failed call.
func RevertData(err error) []byte {
	return append(append([]byte{}, RevertMarker...), []byte(err.Error())...)
}
