// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package trace

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/golang/snappy"

	"github.com/BoostyLabs/alkanes/internal/numbers"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/storage"
)

// ErrTraceExists defines second write of the trace for the same outpoint.
var ErrTraceExists = errors.New("trace already recorded")

// ErrNoTrace defines outpoint without recorded trace.
var ErrNoTrace = errors.New("no trace recorded")

// outpointSize defines size of the encoded outpoint.
const outpointSize = chainhash.HashSize + 4

// Store persists traces keyed by outpoint.
type Store struct {
	root *storage.Pointer
}

// NewStore is a constructor for Store.
func NewStore(root *storage.Pointer) *Store {
	return &Store{root: root}
}

// Save records trace of the message executed at the outpoint. Traces are write once.
func (s *Store) Save(op wire.OutPoint, height uint64, trace *Trace) error {
	ptr := s.outpoint(op)
	if len(ptr.Get()) != 0 {
		return fmt.Errorf("%w: %s", ErrTraceExists, op)
	}

	encoded, err := trace.Encode()
	if err != nil {
		return err
	}

	ptr.Set(snappy.Encode(nil, encoded))
	s.byHeight(height).Append(balance.OutpointKey(op))

	log.Debugf("recorded trace of %s at height %d with %d events", op, height, len(trace.Events))

	return nil
}

// Load returns trace recorded for the outpoint.
func (s *Store) Load(op wire.OutPoint) (*Trace, error) {
	stored := s.outpoint(op).Get()
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTrace, op)
	}

	encoded, err := snappy.Decode(nil, stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrace, err)
	}

	return Decode(encoded)
}

// ByHeight returns outpoints of the traces recorded at the height in execution order.
func (s *Store) ByHeight(height uint64) ([]wire.OutPoint, error) {
	items := s.byHeight(height).GetList()
	outpoints := make([]wire.OutPoint, 0, len(items))
	for _, item := range items {
		if len(item) != outpointSize {
			return nil, fmt.Errorf("%w: outpoint of %d bytes", ErrMalformedTrace, len(item))
		}

		var op wire.OutPoint
		copy(op.Hash[:], item[:chainhash.HashSize])
		op.Index = uint32(numbers.Uint128FromBytes(item[chainhash.HashSize:]).Lo)
		outpoints = append(outpoints, op)
	}

	return outpoints, nil
}

func (s *Store) outpoint(op wire.OutPoint) *storage.Pointer {
	return s.root.Keyword("/trace/").Select(balance.OutpointKey(op))
}

func (s *Store) byHeight(height uint64) *storage.Pointer {
	return s.root.Keyword("/trace/byheight/").Select(numbers.PutUint64(height))
}
