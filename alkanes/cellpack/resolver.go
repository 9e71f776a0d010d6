// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package cellpack

import (
	"errors"
	"fmt"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/envelope"
	"github.com/BoostyLabs/alkanes/protorune/balance"
	"github.com/BoostyLabs/alkanes/storage"
)

// ErrUnknownContract defines call of the contract without stored binary.
var ErrUnknownContract = errors.New("unknown contract")

// ErrNoBinary defines deploy without envelope payload.
var ErrNoBinary = errors.New("deploy requires binary payload")

// ErrAlreadyDeployed defines predictable deploy to the taken id.
var ErrAlreadyDeployed = errors.New("contract already deployed")

// ErrReferenceDepth defines clone reference chain which never reaches a binary.
var ErrReferenceDepth = errors.New("clone reference chain too deep")

// maxReferenceDepth limits clone references followed to find the binary.
const maxReferenceDepth = 8

// Kind defines how the target was resolved.
type Kind int

const (
	// KindCall defines call of the existing contract.
	KindCall Kind = iota
	// KindDeploy defines deploy to the next sequence id.
	KindDeploy
	// KindPredictableDeploy defines deploy to the fixed id.
	KindPredictableDeploy
	// KindFactory defines clone of the sequence deployed contract.
	KindFactory
	// KindPredictableFactory defines clone of the predictably deployed contract.
	KindPredictableFactory
)

// target blocks with special meaning.
const (
	blockDeploy             = 1
	blockSequence           = 2
	blockPredictableDeploy  = 3
	blockPredictable        = 4
	blockFactory            = 5
	blockPredictableFactory = 6
)

// String returns kind name.
func (k Kind) String() string {
	switch k {
	case KindDeploy:
		return "deploy"
	case KindPredictableDeploy:
		return "predictable deploy"
	case KindFactory:
		return "factory"
	case KindPredictableFactory:
		return "predictable factory"
	default:
		return "call"
	}
}

// IsCreate returns true if resolution creates a new contract.
func (k Kind) IsCreate() bool {
	return k != KindCall
}

// Resolution defines the contract the cellpack is executed against.
type Resolution struct {
	Myself balance.AssetID
	Binary []byte
	Kind   Kind
}

// Resolver maps cellpack targets to contract ids and binaries.
type Resolver struct {
	root *storage.Pointer
}

// NewResolver is a constructor for Resolver.
func NewResolver(root *storage.Pointer) *Resolver {
	return &Resolver{root: root}
}

// Resolve returns contract of the target. Create variants allocate the id and
// store binary, so resolution must run inside a checkpoint of the message.
func (r *Resolver) Resolve(target balance.AssetID, payload []byte) (*Resolution, error) {
	if target.Block.Hi != 0 {
		return r.call(target)
	}

	switch target.Block.Lo {
	case blockDeploy:
		if len(payload) == 0 {
			return nil, ErrNoBinary
		}

		return r.create(r.nextSequence(), payload, KindDeploy)
	case blockPredictableDeploy:
		if len(payload) == 0 {
			return nil, ErrNoBinary
		}

		id := balance.AssetID{Block: uint128.From64(blockPredictable), Tx: target.Tx}
		if len(r.contract(id).Get()) != 0 {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyDeployed, id)
		}

		return r.create(id, payload, KindPredictableDeploy)
	case blockFactory, blockPredictableFactory:
		source, kind := balance.AssetID{Block: uint128.From64(blockSequence), Tx: target.Tx}, KindFactory
		if target.Block.Lo == blockPredictableFactory {
			source.Block, kind = uint128.From64(blockPredictable), KindPredictableFactory
		}

		holder, stored, err := r.record(source)
		if err != nil {
			return nil, err
		}

		binary, err := envelope.Decompress(stored)
		if err != nil {
			return nil, err
		}

		// clones always reference the contract holding the binary itself.
		id := r.nextSequence()
		r.contract(id).Set(holder.Bytes())

		return &Resolution{Myself: id, Binary: binary, Kind: kind}, nil
	default:
		return r.call(target)
	}
}

// Binary returns decompressed binary of the contract following clone references.
func (r *Resolver) Binary(id balance.AssetID) ([]byte, error) {
	_, stored, err := r.record(id)
	if err != nil {
		return nil, err
	}

	return envelope.Decompress(stored)
}

// record returns the compressed binary of the contract and the id it is stored under.
func (r *Resolver) record(id balance.AssetID) (balance.AssetID, []byte, error) {
	holder := id
	for depth := 0; depth <= maxReferenceDepth; depth++ {
		stored := r.contract(holder).Get()
		if len(stored) == 0 {
			return balance.AssetID{}, nil, fmt.Errorf("%w: %s", ErrUnknownContract, id)
		}

		if len(stored) != balance.AssetIDSize || envelope.IsCompressed(stored) {
			return holder, stored, nil
		}

		source, err := balance.AssetIDFromBytes(stored)
		if err != nil {
			return balance.AssetID{}, nil, err
		}
		holder = source
	}

	return balance.AssetID{}, nil, fmt.Errorf("%w: %s", ErrReferenceDepth, id)
}

// Sequence returns number of the next sequence contract.
func (r *Resolver) Sequence() uint128.Uint128 {
	return r.root.Keyword("/alkanes/sequence").GetValue()
}

// call resolves ordinary call.
func (r *Resolver) call(target balance.AssetID) (*Resolution, error) {
	binary, err := r.Binary(target)
	if err != nil {
		return nil, err
	}

	return &Resolution{Myself: target, Binary: binary, Kind: KindCall}, nil
}

// create stores binary of the new contract.
func (r *Resolver) create(id balance.AssetID, binary []byte, kind Kind) (*Resolution, error) {
	compressed, err := envelope.Compress(binary)
	if err != nil {
		return nil, err
	}

	r.contract(id).Set(compressed)

	return &Resolution{Myself: id, Binary: binary, Kind: kind}, nil
}

// nextSequence allocates the next sequence id.
func (r *Resolver) nextSequence() balance.AssetID {
	ptr := r.root.Keyword("/alkanes/sequence")
	sequence := ptr.GetValue()
	ptr.SetValue(sequence.Add64(1))

	return balance.AssetID{Block: uint128.From64(blockSequence), Tx: sequence}
}

// contract returns pointer to the binary record of the contract.
func (r *Resolver) contract(id balance.AssetID) *storage.Pointer {
	return r.root.Keyword("/alkanes/").Select(id.Bytes())
}
