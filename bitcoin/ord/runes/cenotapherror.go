// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"fmt"
)

const (
	// PointerCenotaphErrorType describes invalid pointer values.
	PointerCenotaphErrorType byte = 1
	// EtchingCenotaphErrorType describes invalid etching values.
	EtchingCenotaphErrorType byte = 2
	// MintCenotaphErrorType describes invalid mint values.
	MintCenotaphErrorType byte = 3
	// EdictsCenotaphErrorType describes invalid edict values.
	EdictsCenotaphErrorType byte = 4
	// TrailingIntegersCenotaphErrorType describes edicts body which is not a multiple of 4.
	TrailingIntegersCenotaphErrorType byte = 5
	// TruncatedFieldCenotaphErrorType describes tag without value.
	TruncatedFieldCenotaphErrorType byte = 6
	// UnrecognizedEvenTagCenotaphErrorType describes unknown or unconsumed even tag.
	UnrecognizedEvenTagCenotaphErrorType byte = 7
	// UnrecognizedFlagCenotaphErrorType describes unknown flag bits.
	UnrecognizedFlagCenotaphErrorType byte = 8
	// VarintCenotaphErrorType describes malformed LEB128 payload.
	VarintCenotaphErrorType byte = 9
	// OpcodeCenotaphErrorType describes non push opcode in the runestone script.
	OpcodeCenotaphErrorType byte = 10
	// InvalidScriptCenotaphErrorType describes script which could not be tokenized.
	InvalidScriptCenotaphErrorType byte = 11
)

// CenotaphError provides wide description of the cenotaph.
type CenotaphError struct {
	type_   byte
	message string
}

// newCenotaphError is a constructor for CenotaphError.
func newCenotaphError(type_ byte, format string, args ...any) *CenotaphError {
	return &CenotaphError{type_: type_, message: fmt.Sprintf(format, args...)}
}

func (e *CenotaphError) Error() string {
	return e.message
}

// Is makes every CenotaphError match ErrCenotaph.
func (e *CenotaphError) Is(target error) bool {
	return target == ErrCenotaph
}

// Type returns cenotaph error type.
func (e *CenotaphError) Type() byte {
	return e.type_
}
