// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package message

import (
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/alkanes/alkanes/cellpack"
	"github.com/BoostyLabs/alkanes/alkanes/fuel"
	"github.com/BoostyLabs/alkanes/alkanes/trace"
	"github.com/BoostyLabs/alkanes/alkanes/vm"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/storage"
)

// Parcel defines message of the protostone addressed to the shadow vout.
type Parcel struct {
	Tx      *wire.MsgTx
	Height  uint64
	TxIndex uint32
	// Vout is the shadow vout of the protostone.
	Vout     uint32
	Calldata []byte
	// Runes are credited to the contract before execution.
	Runes *balance.Sheet
	// Payload is the binary carried by the transaction envelope.
	Payload []byte
}

// Outpoint returns outpoint the trace of the message is keyed by.
func (p *Parcel) Outpoint() wire.OutPoint {
	return wire.OutPoint{Hash: p.Tx.TxHash(), Index: p.Vout}
}

// Handler executes protostone messages against contracts.
type Handler struct {
	host     vm.Host
	tank     *fuel.Tank
	root     *storage.Pointer
	table    *balance.Table
	resolver *cellpack.Resolver
	traces   *trace.Store
}

// NewHandler is a constructor for Handler.
func NewHandler(host vm.Host, tank *fuel.Tank, root *storage.Pointer, table *balance.Table) *Handler {
	return &Handler{
		host:     host,
		tank:     tank,
		root:     root,
		table:    table,
		resolver: cellpack.NewResolver(root),
		traces:   trace.NewStore(root),
	}
}

// Handle runs the message and returns balances sent back by the contract.
// Failed messages leave no writes except the persisted trace.
func (h *Handler) Handle(parcel *Parcel) (*balance.Sheet, error) {
	record := new(trace.Trace)
	out, err := h.handle(parcel, record)
	if err == nil {
		return out, nil
	}

	if errors.Is(err, storage.ErrStorageFatal) {
		return nil, err
	}

	// messages failing before the transaction is funded leave fuel of the previous one intact.
	if !h.tank.ShouldAdvance(parcel.TxIndex) {
		h.tank.DrainFuel()
	}
	if errors.Is(err, trace.ErrTraceTooLarge) {
		record = new(trace.Trace)
	}
	record.Append(trace.Event{Kind: trace.RevertContext, Response: &trace.Response{
		Data:     vm.RevertData(err),
		FuelUsed: math.MaxUint64,
	}})

	log.Debugf("message %s reverted: %v", parcel.Outpoint(), err)

	if saveErr := h.saveTrace(parcel, record); saveErr != nil {
		return nil, saveErr
	}

	return nil, err
}

// saveTrace persists trace of the message. Oversized traces revert the message,
// any other failure to write the trace makes the block fail.
func (h *Handler) saveTrace(parcel *Parcel, record *trace.Trace) error {
	err := h.traces.Save(parcel.Outpoint(), parcel.Height, record)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, trace.ErrTraceTooLarge):
		return err
	default:
		return fmt.Errorf("%w: trace of %s: %w", storage.ErrStorageFatal, parcel.Outpoint(), err)
	}
}

// handle runs decode, resolve, credit, fuel and execute steps inside a checkpoint.
func (h *Handler) handle(parcel *Parcel, record *trace.Trace) (_ *balance.Sheet, err error) {
	cp, err := cellpack.Decode(parcel.Calldata)
	if err != nil {
		return nil, err
	}

	checkpoint := h.root.Derive()
	defer func() {
		if err != nil {
			err = errors.Join(err, checkpoint.Rollback())
		}
	}()

	resolution, err := h.resolver.Resolve(cp.Target, parcel.Payload)
	if err != nil {
		return nil, err
	}

	incoming := parcel.Runes
	if incoming == nil {
		incoming = balance.NewSheet()
	}
	if err = h.table.CreditHolder(resolution.Myself, incoming); err != nil {
		return nil, err
	}

	if h.tank.ShouldAdvance(parcel.TxIndex) {
		h.tank.FuelTransaction(fuel.VirtualSize(parcel.Tx), parcel.TxIndex, parcel.Height)
	}
	startFuel := h.tank.StartFuel()

	ctx := &vm.Context{
		Caller:   balance.AssetID{},
		Myself:   resolution.Myself,
		Incoming: incoming,
		Inputs:   cp.Inputs,
		Vout:     parcel.Vout,
		Height:   parcel.Height,
		TxIndex:  parcel.TxIndex,
		Tx:       parcel.Tx,
	}
	record.Append(enterEvent(vm.Call, ctx, startFuel))
	if resolution.Kind.IsCreate() {
		record.Append(trace.Event{Kind: trace.CreateAlkane, Created: resolution.Myself})
	}

	rt := &runtime{handler: h, ctx: ctx, record: record, parcel: parcel}
	response, used, err := h.host.Run(rt, resolution.Binary, startFuel)
	if err != nil {
		return nil, err
	}
	if response == nil {
		response = new(vm.Response)
	}

	if err = h.tank.ConsumeFuel(used); err != nil {
		return nil, err
	}

	out, err := h.settle(ctx.Myself, response)
	if err != nil {
		return nil, err
	}

	record.Append(returnEvent(response, used))
	if err = h.saveTrace(parcel, record); err != nil {
		return nil, err
	}

	if err = checkpoint.Commit(); err != nil {
		return nil, err
	}

	return out, nil
}

// settle persists storage writes of the contract and debits balances it sends out.
func (h *Handler) settle(myself balance.AssetID, response *vm.Response) (*balance.Sheet, error) {
	h.store(myself, response.Storage)

	out, err := balance.NewSheetFromTransfers(response.Alkanes)
	if err != nil {
		return nil, err
	}

	// a contract may mint its own token beyond what it holds.
	mintable := func(id balance.AssetID) bool { return id == myself }
	if err = h.table.DebitHolder(myself, out, mintable); err != nil {
		return nil, err
	}

	return out, nil
}

// store writes storage entries into the namespace of the contract.
func (h *Handler) store(myself balance.AssetID, entries []trace.StorageEntry) {
	for _, entry := range entries {
		h.namespace(myself).Select(entry.Key).Set(entry.Value)
	}
}

// namespace returns pointer to the storage namespace of the contract.
func (h *Handler) namespace(myself balance.AssetID) *storage.Pointer {
	return h.root.Keyword("/alkanes/").Select(myself.Bytes()).Keyword("/storage/")
}

// enterEvent returns snapshot of the call context.
func enterEvent(kind vm.CallKind, ctx *vm.Context, startFuel uint64) trace.Event {
	return trace.Event{Kind: kind.EnterEvent(), Context: &trace.Context{
		Caller:   ctx.Caller,
		Myself:   ctx.Myself,
		Inputs:   ctx.Inputs,
		Incoming: ctx.Incoming.Transfers(),
		Vout:     ctx.Vout,
		Fuel:     startFuel,
	}}
}

// returnEvent returns record of the successful call.
func returnEvent(response *vm.Response, used uint64) trace.Event {
	return trace.Event{Kind: trace.ReturnContext, Response: &trace.Response{
		Alkanes:  response.Alkanes,
		Storage:  response.Storage,
		Data:     response.Data,
		FuelUsed: used,
	}}
}

// String returns short description of the parcel.
func (p *Parcel) String() string {
	return fmt.Sprintf("%s at %d", p.Outpoint(), p.Height)
}
