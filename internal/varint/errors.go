// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package varint

import "errors"

// ChunkSize defines how many payload bytes are packed into one integer.
const ChunkSize = 15

// ErrChunkOverflow defines packed integer with non-zero 16th byte.
var ErrChunkOverflow = errors.New("packed chunk exceeds 15 bytes")
