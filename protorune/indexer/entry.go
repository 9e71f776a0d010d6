// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package indexer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/internal/numbers"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/storage"
)

// pver defines protocol version passed to wire var-int codec.
const pver = 0

// ErrMalformedEntry defines stored rune entry which could not be decoded.
var ErrMalformedEntry = errors.New("malformed rune entry")

// ErrUnmintable defines mint of the rune outside of its terms.
var ErrUnmintable = errors.New("rune is not mintable")

// terms field presence bits.
const (
	termsAmount byte = 1 << iota
	termsCap
	termsHeightStart
	termsHeightEnd
	termsOffsetStart
	termsOffsetEnd
)

// RuneEntry defines etched rune.
type RuneEntry struct {
	ID           runes.RuneID
	Rune         runes.Rune
	Spacers      uint32
	Symbol       *rune
	Divisibility byte
	Premine      uint128.Uint128
	Terms        *runes.Terms
	Turbo        bool
	// Mints is the number of accepted mints.
	Mints uint128.Uint128
	// Number is the sequential number of the rune starting from zero.
	Number        uint64
	EtchingTxHash chainhash.Hash
}

// AssetID returns id of the rune balances.
func (e *RuneEntry) AssetID() balance.AssetID {
	return balance.FromRuneID(e.ID)
}

// start returns the first height the rune is mintable at.
func (e *RuneEntry) start() (uint64, bool) {
	var start uint64
	var ok bool
	if e.Terms.HeightStart != nil {
		start, ok = *e.Terms.HeightStart, true
	}
	if e.Terms.OffsetStart != nil {
		start, ok = max(start, e.ID.Block+*e.Terms.OffsetStart), true
	}

	return start, ok
}

// end returns the first height the rune is not mintable at.
func (e *RuneEntry) end() (uint64, bool) {
	end, ok := ^uint64(0), false
	if e.Terms.HeightEnd != nil {
		end, ok = *e.Terms.HeightEnd, true
	}
	if e.Terms.OffsetEnd != nil {
		end, ok = min(end, e.ID.Block+*e.Terms.OffsetEnd), true
	}

	return end, ok
}

// Mintable returns amount of the single mint at the height.
func (e *RuneEntry) Mintable(height uint64) (uint128.Uint128, error) {
	if e.Terms == nil {
		return uint128.Zero, fmt.Errorf("%w: %s has no terms", ErrUnmintable, e.Rune.String())
	}

	if start, ok := e.start(); ok && height < start {
		return uint128.Zero, fmt.Errorf("%w: %s starts at %d", ErrUnmintable, e.Rune.String(), start)
	}

	if end, ok := e.end(); ok && height >= end {
		return uint128.Zero, fmt.Errorf("%w: %s ended at %d", ErrUnmintable, e.Rune.String(), end)
	}

	capValue := uint128.Zero
	if e.Terms.Cap != nil {
		capValue = *e.Terms.Cap
	}
	if e.Mints.Cmp(capValue) >= 0 {
		return uint128.Zero, fmt.Errorf("%w: %s reached cap %s", ErrUnmintable, e.Rune.String(), capValue)
	}

	if e.Terms.Amount == nil {
		return uint128.Zero, nil
	}

	return *e.Terms.Amount, nil
}

// Encode serializes entry with wire var-ints.
func (e *RuneEntry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarInt(&buf, pver, e.ID.Block); err != nil {
		return nil, err
	}
	if err := wire.WriteVarInt(&buf, pver, uint64(e.ID.TxID)); err != nil {
		return nil, err
	}

	value := e.Rune.Value()
	buf.Write(numbers.PutUint128(value))
	if err := wire.WriteVarInt(&buf, pver, uint64(e.Spacers)); err != nil {
		return nil, err
	}

	symbol := uint64(0)
	if e.Symbol != nil {
		symbol = uint64(*e.Symbol) + 1
	}
	if err := wire.WriteVarInt(&buf, pver, symbol); err != nil {
		return nil, err
	}

	buf.WriteByte(e.Divisibility)
	buf.Write(numbers.PutUint128(e.Premine))
	buf.Write(numbers.PutUint128(e.Mints))

	turbo := byte(0)
	if e.Turbo {
		turbo = 1
	}
	buf.WriteByte(turbo)

	if err := wire.WriteVarInt(&buf, pver, e.Number); err != nil {
		return nil, err
	}
	buf.Write(e.EtchingTxHash[:])

	if err := writeTerms(&buf, e.Terms); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeRuneEntry deserializes entry produced by Encode.
func DecodeRuneEntry(data []byte) (*RuneEntry, error) {
	entry, err := decodeRuneEntry(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}

	return entry, nil
}

func decodeRuneEntry(r *bytes.Reader) (_ *RuneEntry, err error) {
	entry := new(RuneEntry)
	if entry.ID.Block, err = wire.ReadVarInt(r, pver); err != nil {
		return nil, err
	}

	txID, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}
	entry.ID.TxID = uint32(txID)

	value, err := readUint128(r)
	if err != nil {
		return nil, err
	}
	entry.Rune = *runes.NewRuneFromNumber(value)

	spacers, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}
	entry.Spacers = uint32(spacers)

	symbol, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}
	if symbol != 0 {
		char := rune(symbol - 1)
		entry.Symbol = &char
	}

	if entry.Divisibility, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if entry.Premine, err = readUint128(r); err != nil {
		return nil, err
	}
	if entry.Mints, err = readUint128(r); err != nil {
		return nil, err
	}

	turbo, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	entry.Turbo = turbo == 1

	if entry.Number, err = wire.ReadVarInt(r, pver); err != nil {
		return nil, err
	}
	if _, err = io.ReadFull(r, entry.EtchingTxHash[:]); err != nil {
		return nil, err
	}

	if entry.Terms, err = readTerms(r); err != nil {
		return nil, err
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Len())
	}

	return entry, nil
}

// writeTerms writes presence bits followed by present fields.
func writeTerms(w *bytes.Buffer, terms *runes.Terms) error {
	if terms == nil {
		return nil
	}

	var bits byte
	if terms.Amount != nil {
		bits |= termsAmount
	}
	if terms.Cap != nil {
		bits |= termsCap
	}

	heights := make([]uint64, 0, 4)
	for idx, field := range []*uint64{terms.HeightStart, terms.HeightEnd, terms.OffsetStart, terms.OffsetEnd} {
		if field != nil {
			bits |= termsHeightStart << idx
			heights = append(heights, *field)
		}
	}

	w.WriteByte(bits)
	if terms.Amount != nil {
		w.Write(numbers.PutUint128(*terms.Amount))
	}
	if terms.Cap != nil {
		w.Write(numbers.PutUint128(*terms.Cap))
	}
	for _, height := range heights {
		if err := wire.WriteVarInt(w, pver, height); err != nil {
			return err
		}
	}

	return nil
}

// readTerms reads terms written by writeTerms, nil if nothing is left.
func readTerms(r *bytes.Reader) (*runes.Terms, error) {
	if r.Len() == 0 {
		return nil, nil
	}

	bits, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	terms := new(runes.Terms)
	if bits&termsAmount != 0 {
		amount, err := readUint128(r)
		if err != nil {
			return nil, err
		}
		terms.Amount = &amount
	}
	if bits&termsCap != 0 {
		capValue, err := readUint128(r)
		if err != nil {
			return nil, err
		}
		terms.Cap = &capValue
	}

	fields := []struct {
		bit   byte
		field **uint64
	}{
		{termsHeightStart, &terms.HeightStart},
		{termsHeightEnd, &terms.HeightEnd},
		{termsOffsetStart, &terms.OffsetStart},
		{termsOffsetEnd, &terms.OffsetEnd},
	}
	for _, f := range fields {
		if bits&f.bit == 0 {
			continue
		}

		height, err := wire.ReadVarInt(r, pver)
		if err != nil {
			return nil, err
		}
		*f.field = &height
	}

	return terms, nil
}

func readUint128(r *bytes.Reader) (uint128.Uint128, error) {
	data := make([]byte, numbers.Uint128Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return uint128.Zero, err
	}

	return numbers.Uint128FromBytes(data), nil
}

// Registry persists rune entries.
type Registry struct {
	root *storage.Pointer
}

// NewRegistry is a constructor for Registry.
func NewRegistry(root *storage.Pointer) *Registry {
	return &Registry{root: root}
}

// Entry returns entry of the rune, nil if the rune is not etched.
func (r *Registry) Entry(id runes.RuneID) (*RuneEntry, error) {
	stored := r.entry(id).Get()
	if len(stored) == 0 {
		return nil, nil
	}

	return DecodeRuneEntry(stored)
}

// EntryByName returns entry of the rune with given name, nil if the name is free.
func (r *Registry) EntryByName(name runes.Rune) (*RuneEntry, error) {
	stored := r.byName(name).Get()
	if len(stored) == 0 {
		return nil, nil
	}

	id, err := balance.AssetIDFromBytes(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}

	return r.Entry(runes.RuneID{Block: id.Block.Lo, TxID: uint32(id.Tx.Lo)})
}

// Exists returns true if the name is taken.
func (r *Registry) Exists(name runes.Rune) bool {
	return len(r.byName(name).Get()) != 0
}

// Create stores new entry assigning its number.
func (r *Registry) Create(entry *RuneEntry) error {
	count := r.root.Keyword("/runes/count")
	entry.Number = count.GetUint64()
	count.SetUint64(entry.Number + 1)

	r.byName(entry.Rune).Set(entry.AssetID().Bytes())

	return r.Save(entry)
}

// Save overrides stored entry.
func (r *Registry) Save(entry *RuneEntry) error {
	encoded, err := entry.Encode()
	if err != nil {
		return err
	}

	r.entry(entry.ID).Set(encoded)

	return nil
}

// Count returns number of etched runes.
func (r *Registry) Count() uint64 {
	return r.root.Keyword("/runes/count").GetUint64()
}

func (r *Registry) entry(id runes.RuneID) *storage.Pointer {
	return r.root.Keyword("/runes/entry/").Select(balance.FromRuneID(id).Bytes())
}

func (r *Registry) byName(name runes.Rune) *storage.Pointer {
	return r.root.Keyword("/runes/byname/").Select(numbers.PutUint128(name.Value()))
}
