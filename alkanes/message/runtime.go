// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package message

import (
	"errors"
	"fmt"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/alkanes/cellpack"
	"github.com/BoostyLabs/alkanes/alkanes/fuel"
	"github.com/BoostyLabs/alkanes/alkanes/trace"
	"github.com/BoostyLabs/alkanes/alkanes/vm"
	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// runtime serves contract requests of one call.
type runtime struct {
	handler *Handler
	ctx     *vm.Context
	record  *trace.Trace
	parcel  *Parcel
}

// ensures that runtime implements vm.Runtime.
var _ vm.Runtime = (*runtime)(nil)

// Context returns context of the running call.
func (rt *runtime) Context() *vm.Context {
	return rt.ctx
}

// Load returns value of the contract storage.
func (rt *runtime) Load(key []byte) []byte {
	return rt.handler.namespace(rt.ctx.Myself).Select(key).Get()
}

// Balance returns amount of the asset held by the contract.
func (rt *runtime) Balance(holder, id balance.AssetID) uint128.Uint128 {
	return rt.handler.table.Held(holder, id)
}

// Sequence returns the next sequence number.
func (rt *runtime) Sequence() uint128.Uint128 {
	return rt.handler.resolver.Sequence()
}

// Extcall runs nested call. Call commits writes of the callee, staticcall drops
// them and delegatecall runs callee binary as the calling contract.
func (rt *runtime) Extcall(kind vm.CallKind, target *cellpack.Cellpack, incoming []balance.Transfer,
	pending []trace.StorageEntry, callFuel uint64,
) (_ *vm.Response, used uint64, err error) {
	if rt.ctx.IsStatic && kind != vm.Staticcall {
		return nil, callFuel, errors.New("state changing call inside staticcall")
	}

	// writes made so far by the caller are visible to the callee.
	rt.handler.store(rt.ctx.Myself, pending)

	checkpoint := rt.handler.root.Derive()
	defer func() {
		if err != nil || kind == vm.Staticcall {
			err = errors.Join(err, checkpoint.Rollback())
			return
		}

		err = checkpoint.Commit()
	}()

	sub, binary, err := rt.enter(kind, target, incoming)
	if err != nil {
		rt.record.Append(trace.Event{Kind: trace.RevertContext, Response: &trace.Response{Data: vm.RevertData(err), FuelUsed: callFuel}})
		return nil, callFuel, err
	}

	rt.record.Append(enterEvent(kind, sub, callFuel))

	child := &runtime{handler: rt.handler, ctx: sub, record: rt.record, parcel: rt.parcel}
	response, used, err := rt.handler.host.Run(child, binary, callFuel)
	if err == nil && used > callFuel {
		err = fmt.Errorf("%w: used %d of %d", fuel.ErrFuelExhausted, used, callFuel)
	}
	if err != nil {
		rt.record.Append(trace.Event{Kind: trace.RevertContext, Response: &trace.Response{Data: vm.RevertData(err), FuelUsed: callFuel}})
		return nil, callFuel, err
	}
	if response == nil {
		response = new(vm.Response)
	}

	if kind == vm.Staticcall {
		response.Alkanes = nil
	}

	out, err := rt.handler.settle(sub.Myself, response)
	if err != nil {
		rt.record.Append(trace.Event{Kind: trace.RevertContext, Response: &trace.Response{Data: vm.RevertData(err), FuelUsed: callFuel}})
		return nil, callFuel, err
	}

	if err = rt.handler.table.CreditHolder(rt.ctx.Myself, out); err != nil {
		return nil, callFuel, err
	}

	rt.record.Append(returnEvent(response, used))

	return response, used, nil
}

// enter resolves the callee and moves incoming balances to it.
func (rt *runtime) enter(kind vm.CallKind, target *cellpack.Cellpack, incoming []balance.Transfer) (*vm.Context, []byte, error) {
	resolution, err := rt.handler.resolver.Resolve(target.Target, nil)
	if err != nil {
		return nil, nil, err
	}

	sheet, err := balance.NewSheetFromTransfers(incoming)
	if err != nil {
		return nil, nil, err
	}

	sub := &vm.Context{
		Caller:   rt.ctx.Myself,
		Myself:   resolution.Myself,
		Incoming: sheet,
		Inputs:   target.Inputs,
		IsStatic: rt.ctx.IsStatic || kind == vm.Staticcall,
		Vout:     rt.ctx.Vout,
		Height:   rt.ctx.Height,
		TxIndex:  rt.ctx.TxIndex,
		Tx:       rt.ctx.Tx,
	}

	if kind == vm.Delegatecall {
		sub.Caller, sub.Myself, sub.IsDelegate = rt.ctx.Caller, rt.ctx.Myself, true

		return sub, resolution.Binary, nil
	}

	mintable := func(id balance.AssetID) bool { return id == rt.ctx.Myself }
	if err = rt.handler.table.DebitHolder(rt.ctx.Myself, sheet, mintable); err != nil {
		return nil, nil, err
	}
	if err = rt.handler.table.CreditHolder(sub.Myself, sheet); err != nil {
		return nil, nil, err
	}

	return sub, resolution.Binary, nil
}
