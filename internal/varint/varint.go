// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package varint

import (
	"bytes"

	"github.com/aviate-labs/leb128"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/numbers"
)

// Decode decodes LEB128 byte stream into list of uint128 values.
func Decode(data []byte) ([]uint128.Uint128, error) {
	values := make([]uint128.Uint128, 0)
	reader := bytes.NewReader(data)
	for reader.Len() > 0 {
		num, err := leb128.DecodeUnsigned(reader)
		if err != nil {
			return nil, err
		}

		value, err := numbers.ToUint128(num)
		if err != nil {
			return nil, err
		}

		values = append(values, value)
	}

	return values, nil
}

// Encode encodes list of uint128 values into LEB128 byte stream.
func Encode(values []uint128.Uint128) ([]byte, error) {
	data := make([]byte, 0, len(values))
	for _, value := range values {
		encoded, err := leb128.EncodeUnsigned(value.Big())
		if err != nil {
			return nil, err
		}

		data = append(data, encoded...)
	}

	return data, nil
}

// JoinChunks concatenates 15 low bytes of every value in little-endian order.
// INFO: values carried in runestone fields are limited to 15 bytes per integer
// so that every packed chunk stays below the uint128 varint limit.
func JoinChunks(values []uint128.Uint128) ([]byte, error) {
	data := make([]byte, 0, len(values)*ChunkSize)
	for _, value := range values {
		raw := numbers.PutUint128(value)
		if raw[ChunkSize] != 0 {
			return nil, ErrChunkOverflow
		}

		data = append(data, raw[:ChunkSize]...)
	}

	return data, nil
}

// SplitChunks packs bytes into uint128 values by 15 bytes little-endian.
func SplitChunks(data []byte) []uint128.Uint128 {
	values := make([]uint128.Uint128, 0, len(data)/ChunkSize+1)
	for start := 0; start < len(data); start += ChunkSize {
		end := start + ChunkSize
		if end > len(data) {
			end = len(data)
		}

		values = append(values, numbers.Uint128FromBytes(data[start:end]))
	}

	return values
}
