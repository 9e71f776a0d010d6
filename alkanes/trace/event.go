// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/numbers"
	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// pver defines protocol version passed to wire var-int codec.
const pver = 0

// maxVarBytes defines limit of the single encoded byte string.
const maxVarBytes = 1 << 24

// ErrMalformedTrace defines stored trace which could not be decoded.
var ErrMalformedTrace = errors.New("malformed trace")

// ErrTraceTooLarge defines trace holding byte string over the decodable limit.
var ErrTraceTooLarge = errors.New("trace too large")

// EventKind defines type of the trace event.
type EventKind byte

const (
	// EnterCall defines start of the call.
	EnterCall EventKind = iota + 1
	// EnterDelegatecall defines start of the delegatecall.
	EnterDelegatecall
	// EnterStaticcall defines start of the staticcall.
	EnterStaticcall
	// ReturnContext defines successful end of the call.
	ReturnContext
	// RevertContext defines failed end of the call.
	RevertContext
	// CreateAlkane defines contract created by the call.
	CreateAlkane
)

// String returns event kind name.
func (k EventKind) String() string {
	switch k {
	case EnterCall:
		return "enter call"
	case EnterDelegatecall:
		return "enter delegatecall"
	case EnterStaticcall:
		return "enter staticcall"
	case ReturnContext:
		return "return"
	case RevertContext:
		return "revert"
	case CreateAlkane:
		return "create"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// IsEnter returns true for call start events.
func (k EventKind) IsEnter() bool {
	return k == EnterCall || k == EnterDelegatecall || k == EnterStaticcall
}

// Context defines snapshot of the call taken on enter.
type Context struct {
	Caller   balance.AssetID
	Myself   balance.AssetID
	Inputs   []uint128.Uint128
	Incoming []balance.Transfer
	Vout     uint32
	Fuel     uint64
}

// StorageEntry defines contract storage write.
type StorageEntry struct {
	Key   []byte
	Value []byte
}

// Response defines result of the call.
type Response struct {
	Alkanes  []balance.Transfer
	Storage  []StorageEntry
	Data     []byte
	FuelUsed uint64
}

// Event defines single trace record.
type Event struct {
	Kind     EventKind
	Context  *Context
	Response *Response
	// Created is set for CreateAlkane.
	Created balance.AssetID
}

// Trace defines ordered events of one message.
type Trace struct {
	Events []Event
}

// Append adds event to the trace.
func (t *Trace) Append(event Event) {
	t.Events = append(t.Events, event)
}

// Encode serializes trace with wire var-ints.
func (t *Trace) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarInt(&buf, pver, uint64(len(t.Events))); err != nil {
		return nil, err
	}

	for _, event := range t.Events {
		if err := writeEvent(&buf, event); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode deserializes trace produced by Encode.
func Decode(data []byte) (*Trace, error) {
	reader := bytes.NewReader(data)
	count, err := wire.ReadVarInt(reader, pver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrace, err)
	}
	if count > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d events in %d bytes", ErrMalformedTrace, count, len(data))
	}

	trace := &Trace{Events: make([]Event, 0, count)}
	for idx := uint64(0); idx < count; idx++ {
		event, err := readEvent(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrMalformedTrace, idx, err)
		}

		trace.Append(event)
	}

	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedTrace, reader.Len())
	}

	return trace, nil
}

// writeEvent writes kind byte followed by context or response.
func writeEvent(w *bytes.Buffer, event Event) error {
	w.WriteByte(byte(event.Kind))

	switch {
	case event.Kind == CreateAlkane:
		w.Write(event.Created.Bytes())
		return nil
	case event.Kind.IsEnter():
		if event.Context == nil {
			return fmt.Errorf("%s event without context", event.Kind)
		}

		return writeContext(w, event.Context)
	default:
		if event.Response == nil {
			return fmt.Errorf("%s event without response", event.Kind)
		}

		return writeResponse(w, event.Response)
	}
}

// readEvent reads event written by writeEvent.
func readEvent(r *bytes.Reader) (Event, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return Event{}, err
	}

	event := Event{Kind: EventKind(kind)}
	switch {
	case event.Kind == CreateAlkane:
		event.Created, err = readAssetID(r)
	case event.Kind.IsEnter():
		event.Context, err = readContext(r)
	case event.Kind == ReturnContext || event.Kind == RevertContext:
		event.Response, err = readResponse(r)
	default:
		err = fmt.Errorf("unknown event kind %d", kind)
	}

	return event, err
}

func writeContext(w *bytes.Buffer, ctx *Context) error {
	w.Write(ctx.Caller.Bytes())
	w.Write(ctx.Myself.Bytes())

	if err := writeValues(w, ctx.Inputs); err != nil {
		return err
	}
	if err := writeTransfers(w, ctx.Incoming); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, pver, uint64(ctx.Vout)); err != nil {
		return err
	}

	return wire.WriteVarInt(w, pver, ctx.Fuel)
}

func readContext(r *bytes.Reader) (_ *Context, err error) {
	ctx := new(Context)
	if ctx.Caller, err = readAssetID(r); err != nil {
		return nil, err
	}
	if ctx.Myself, err = readAssetID(r); err != nil {
		return nil, err
	}
	if ctx.Inputs, err = readValues(r); err != nil {
		return nil, err
	}
	if ctx.Incoming, err = readTransfers(r); err != nil {
		return nil, err
	}

	vout, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}
	ctx.Vout = uint32(vout)

	if ctx.Fuel, err = wire.ReadVarInt(r, pver); err != nil {
		return nil, err
	}

	return ctx, nil
}

func writeResponse(w *bytes.Buffer, response *Response) error {
	if err := writeTransfers(w, response.Alkanes); err != nil {
		return err
	}

	if err := wire.WriteVarInt(w, pver, uint64(len(response.Storage))); err != nil {
		return err
	}
	for _, entry := range response.Storage {
		if err := writeVarBytes(w, entry.Key, "storage key"); err != nil {
			return err
		}
		if err := writeVarBytes(w, entry.Value, "storage value"); err != nil {
			return err
		}
	}

	if err := writeVarBytes(w, response.Data, "data"); err != nil {
		return err
	}

	return wire.WriteVarInt(w, pver, response.FuelUsed)
}

// writeVarBytes writes byte string which readResponse accepts back.
func writeVarBytes(w *bytes.Buffer, data []byte, field string) error {
	if len(data) > maxVarBytes {
		return fmt.Errorf("%w: %s of %d bytes", ErrTraceTooLarge, field, len(data))
	}

	return wire.WriteVarBytes(w, pver, data)
}

func readResponse(r *bytes.Reader) (_ *Response, err error) {
	response := new(Response)
	if response.Alkanes, err = readTransfers(r); err != nil {
		return nil, err
	}

	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	for idx := uint64(0); idx < count; idx++ {
		var entry StorageEntry
		if entry.Key, err = wire.ReadVarBytes(r, pver, maxVarBytes, "storage key"); err != nil {
			return nil, err
		}
		if entry.Value, err = wire.ReadVarBytes(r, pver, maxVarBytes, "storage value"); err != nil {
			return nil, err
		}
		response.Storage = append(response.Storage, entry)
	}

	if response.Data, err = wire.ReadVarBytes(r, pver, maxVarBytes, "data"); err != nil {
		return nil, err
	}
	if response.FuelUsed, err = wire.ReadVarInt(r, pver); err != nil {
		return nil, err
	}

	return response, nil
}

func writeValues(w *bytes.Buffer, values []uint128.Uint128) error {
	if err := wire.WriteVarInt(w, pver, uint64(len(values))); err != nil {
		return err
	}
	for _, value := range values {
		w.Write(numbers.PutUint128(value))
	}

	return nil
}

func readValues(r *bytes.Reader) ([]uint128.Uint128, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}

	var values []uint128.Uint128
	for idx := uint64(0); idx < count; idx++ {
		value, err := readUint128(r)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, nil
}

func writeTransfers(w *bytes.Buffer, transfers []balance.Transfer) error {
	if err := wire.WriteVarInt(w, pver, uint64(len(transfers))); err != nil {
		return err
	}
	for _, transfer := range transfers {
		w.Write(transfer.ID.Bytes())
		w.Write(numbers.PutUint128(transfer.Amount))
	}

	return nil
}

func readTransfers(r *bytes.Reader) ([]balance.Transfer, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}

	var transfers []balance.Transfer
	for idx := uint64(0); idx < count; idx++ {
		id, err := readAssetID(r)
		if err != nil {
			return nil, err
		}

		amount, err := readUint128(r)
		if err != nil {
			return nil, err
		}

		transfers = append(transfers, balance.Transfer{ID: id, Amount: amount})
	}

	return transfers, nil
}

// readCount reads list length bounded by the bytes left.
func readCount(r *bytes.Reader) (uint64, error) {
	count, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return 0, err
	}
	if count > uint64(r.Len()) {
		return 0, fmt.Errorf("list of %d items exceeds %d bytes left", count, r.Len())
	}

	return count, nil
}

func readAssetID(r *bytes.Reader) (balance.AssetID, error) {
	data := make([]byte, balance.AssetIDSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return balance.AssetID{}, err
	}

	return balance.AssetIDFromBytes(data)
}

func readUint128(r *bytes.Reader) (uint128.Uint128, error) {
	data := make([]byte, numbers.Uint128Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return uint128.Zero, err
	}

	return numbers.Uint128FromBytes(data), nil
}
