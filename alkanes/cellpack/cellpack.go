// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package cellpack

import (
	"errors"
	"fmt"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/varint"
	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// ErrDecode defines calldata which is not a cellpack.
var ErrDecode = errors.New("cellpack decode")

// Cellpack defines call of the contract.
type Cellpack struct {
	Target balance.AssetID
	// Inputs carry opcode as the first value.
	Inputs []uint128.Uint128
}

// Decode parses varint list [target.block, target.tx, inputs...], missing target tx is zero.
func Decode(data []byte) (*Cellpack, error) {
	values, err := varint.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty calldata", ErrDecode)
	}

	// protostone messages drop trailing zero bytes, so a zero target tx may be missing.
	if len(values) == 1 {
		values = append(values, uint128.Zero)
	}

	return &Cellpack{
		Target: balance.AssetID{Block: values[0], Tx: values[1]},
		Inputs: values[2:],
	}, nil
}

// Encode returns cellpack as varint list.
func (c *Cellpack) Encode() ([]byte, error) {
	return varint.Encode(c.Values())
}

// Values returns cellpack as list of integers.
func (c *Cellpack) Values() []uint128.Uint128 {
	return append([]uint128.Uint128{c.Target.Block, c.Target.Tx}, c.Inputs...)
}

// Opcode returns the first input, 0 if there are no inputs.
func (c *Cellpack) Opcode() uint128.Uint128 {
	if len(c.Inputs) == 0 {
		return uint128.Zero
	}

	return c.Inputs[0]
}
