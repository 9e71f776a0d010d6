// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package sequencereader

import (
	"errors"
)

// ErrEnded defines that the sequence has no more items to read.
var ErrEnded = errors.New("the sequence is ended")

// SequenceReader defines the simplest reader for sequences.
type SequenceReader[T any] struct {
	s    []T
	idx  int
	size int
}

// New is a constructor for SequenceReader.
func New[T any](seq []T) *SequenceReader[T] {
	return &SequenceReader[T]{
		s:    seq,
		idx:  0,
		size: len(seq),
	}
}

// HasNext returns true is sequence is not ended.
func (sr *SequenceReader[T]) HasNext() bool {
	return sr.idx < sr.size
}

// Next returns next element of the sequence.
func (sr *SequenceReader[T]) Next() (T, error) {
	if !sr.HasNext() {
		return *new(T), ErrEnded
	}

	pIdx := sr.idx
	sr.idx++

	return sr.s[pIdx], nil
}

// Peek returns next element of the sequence without moving forward.
func (sr *SequenceReader[T]) Peek() (T, bool) {
	if !sr.HasNext() {
		return *new(T), false
	}

	return sr.s[sr.idx], true
}

// Take returns next n elements of the sequence.
func (sr *SequenceReader[T]) Take(n int) ([]T, error) {
	if n < 0 || sr.Len() < n {
		return nil, ErrEnded
	}

	items := sr.s[sr.idx : sr.idx+n]
	sr.idx += n

	return items, nil
}

// Rest returns all items which are left and moves reader to the end.
func (sr *SequenceReader[T]) Rest() []T {
	items := sr.s[sr.idx:]
	sr.idx = sr.size

	return items
}

// Len returns how many items are left.
func (sr *SequenceReader[T]) Len() int {
	return sr.size - sr.idx
}
