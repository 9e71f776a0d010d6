// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package protostone

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"slices"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/internal/numbers"
	"github.com/BoostyLabs/alkanes/internal/sequencereader"
	"github.com/BoostyLabs/alkanes/internal/varint"
	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// ErrMalformed defines protocol field which could not be split into protostones.
var ErrMalformed = errors.New("malformed protostones")

// ErrZeroProtocolTag defines protostone with reserved protocol tag 0.
var ErrZeroProtocolTag = errors.New("protocol tag 0 is reserved for runes")

// Edict defines transfer of the protocol asset.
type Edict struct {
	ID     balance.AssetID
	Amount uint128.Uint128
	Output uint32
}

// Protostone defines message of the sub protocol carried by the runestone.
type Protostone struct {
	ProtocolTag uint128.Uint128
	Message     []byte
	Edicts      []Edict
	Pointer     *uint32
	Refund      *uint32
	Burn        *uint128.Uint128
	From        []uint32
	// Cenotaph is set for malformed protostones, their balances are burned.
	Cenotaph bool
}

// IsMessage returns true if protostone carries calldata.
func (p *Protostone) IsMessage() bool {
	return len(p.Message) > 0
}

// IsBurn returns true if protostone burns runes into the protocol.
func (p *Protostone) IsBurn() bool {
	return p.Burn != nil
}

// ShadowVout returns virtual output of the protostone with given index.
func ShadowVout(outputs, index int) uint32 {
	return uint32(outputs + 1 + index)
}

// FromRunestone returns protostones carried by the runestone.
func FromRunestone(runestone *runes.Runestone) ([]Protostone, error) {
	return Decipher(runestone.Protocol)
}

// Decipher splits protocol field values into protostones.
// INFO: values pack 15 bytes each of the varint stream [tag, length, payload...]*,
// protocol tag 0 ends the stream.
func Decipher(protocol []uint128.Uint128) ([]Protostone, error) {
	if len(protocol) == 0 {
		return nil, nil
	}

	data, err := varint.JoinChunks(protocol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	values, err := varint.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var stones []Protostone
	sr := sequencereader.New(values)
	for sr.HasNext() {
		tag, _ := sr.Next() // skip error due to loop condition check.
		if tag.IsZero() {
			break
		}

		length, err := sr.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: protostone %d has no length", ErrMalformed, len(stones))
		}
		if length.Hi != 0 || length.Lo > uint64(sr.Len()) {
			return nil, fmt.Errorf("%w: protostone %d length %s exceeds payload", ErrMalformed, len(stones), length)
		}

		payload, _ := sr.Take(int(length.Lo))
		stones = append(stones, parse(tag, payload))
	}

	return stones, nil
}

// Encipher packs protostones into protocol field values.
func Encipher(stones []Protostone) ([]uint128.Uint128, error) {
	sequence := make([]uint128.Uint128, 0)
	for idx := range stones {
		if stones[idx].ProtocolTag.IsZero() {
			return nil, ErrZeroProtocolTag
		}

		payload := stones[idx].ToIntSeq()
		sequence = append(sequence, stones[idx].ProtocolTag, uint128.From64(uint64(len(payload))))
		sequence = append(sequence, payload...)
	}

	data, err := varint.Encode(sequence)
	if err != nil {
		return nil, err
	}

	return varint.SplitChunks(data), nil
}

// parse builds protostone from its tag value payload.
func parse(protocolTag uint128.Uint128, payload []uint128.Uint128) Protostone {
	stone := Protostone{ProtocolTag: protocolTag}
	fields := make(map[Tag][]uint128.Uint128)

	sr := sequencereader.New(payload)
	for sr.HasNext() {
		tagValue, _ := sr.Next() // skip error due to loop condition check.
		if tagValue.IsZero() {
			edicts, ok := parseEdicts(sr)
			stone.Edicts = edicts
			stone.Cenotaph = stone.Cenotaph || !ok
			break
		}

		value, err := sr.Next()
		if err != nil {
			stone.Cenotaph = true
			break
		}

		if tagValue.Hi != 0 {
			stone.Cenotaph = stone.Cenotaph || tagValue.Lo%2 == 0
			continue
		}

		tag := Tag(tagValue.Lo)
		fields[tag] = append(fields[tag], value)
	}

	for tag, values := range fields {
		switch tag {
		case TagMessage:
			message, err := varint.JoinChunks(values)
			if err != nil {
				stone.Cenotaph = true
				continue
			}
			stone.Message = bytes.TrimRight(message, "\x00")
		case TagBurn:
			burn := values[0]
			stone.Burn = &burn
		case TagFrom:
			for _, value := range values {
				from, ok := toUint32(value)
				if !ok {
					stone.Cenotaph = true
					break
				}
				stone.From = append(stone.From, from)
			}
		case TagPointer:
			stone.Pointer = stone.uint32Field(values[0])
		case TagRefund:
			stone.Refund = stone.uint32Field(values[0])
		case TagCenotaph:
			stone.Cenotaph = true
		default:
			if tag%2 == 0 {
				stone.Cenotaph = true
			}
		}
	}

	return stone
}

// uint32Field converts value into output index, marks cenotaph on overflow.
func (p *Protostone) uint32Field(value uint128.Uint128) *uint32 {
	out, ok := toUint32(value)
	if !ok {
		p.Cenotaph = true
		return nil
	}

	return &out
}

// parseEdicts parses delta encoded edicts, returns false on malformed tail.
func parseEdicts(sr *sequencereader.SequenceReader[uint128.Uint128]) ([]Edict, bool) {
	var (
		prev   balance.AssetID
		edicts = make([]Edict, 0, sr.Len()/4)
	)

	for sr.Len() >= 4 {
		group, _ := sr.Take(4) // skip error due to loop condition check.
		block, tx, amount, output := group[0], group[1], group[2], group[3]

		next := balance.AssetID{Block: prev.Block, Tx: prev.Tx}
		var ok bool
		if block.IsZero() {
			next.Tx, ok = numbers.CheckedAdd(prev.Tx, tx)
		} else {
			next.Block, ok = numbers.CheckedAdd(prev.Block, block)
			next.Tx = tx
		}
		if !ok {
			return edicts, false
		}

		out, ok := toUint32(output)
		if !ok {
			return edicts, false
		}

		edicts = append(edicts, Edict{ID: next, Amount: amount, Output: out})
		prev = next
	}

	return edicts, !sr.HasNext()
}

// ToIntSeq returns protostone fields as tag value sequence.
func (p *Protostone) ToIntSeq() []uint128.Uint128 {
	sequence := make([]uint128.Uint128, 0)
	for _, chunk := range varint.SplitChunks(p.Message) {
		sequence = append(sequence, TagMessage.Uint128(), chunk)
	}
	if p.Burn != nil {
		sequence = append(sequence, TagBurn.Uint128(), *p.Burn)
	}
	for _, from := range p.From {
		sequence = append(sequence, TagFrom.Uint128(), uint128.From64(uint64(from)))
	}
	if p.Pointer != nil {
		sequence = append(sequence, TagPointer.Uint128(), uint128.From64(uint64(*p.Pointer)))
	}
	if p.Refund != nil {
		sequence = append(sequence, TagRefund.Uint128(), uint128.From64(uint64(*p.Refund)))
	}
	if p.Cenotaph {
		sequence = append(sequence, TagCenotaph.Uint128(), uint128.Zero)
	}

	if len(p.Edicts) > 0 {
		sequence = append(sequence, TagBody.Uint128())
		sequence = append(sequence, EdictsToIntSeq(p.Edicts)...)
	}

	return sequence
}

// EdictsToIntSeq returns edicts sorted by id and delta encoded.
func EdictsToIntSeq(edicts []Edict) []uint128.Uint128 {
	sorted := slices.Clone(edicts)
	slices.SortStableFunc(sorted, func(a, b Edict) int { return a.ID.Cmp(b.ID) })

	var prev balance.AssetID
	sequence := make([]uint128.Uint128, 0, len(sorted)*4)
	for _, edict := range sorted {
		block, tx := edict.ID.Block.Sub(prev.Block), edict.ID.Tx
		if block.IsZero() {
			tx = edict.ID.Tx.Sub(prev.Tx)
		}

		sequence = append(sequence, block, tx, edict.Amount, uint128.From64(uint64(edict.Output)))
		prev = edict.ID
	}

	return sequence
}

// toUint32 converts value into uint32 if it fits.
func toUint32(value uint128.Uint128) (uint32, bool) {
	if value.Hi != 0 || value.Lo > math.MaxUint32 {
		return 0, false
	}

	return uint32(value.Lo), true
}
