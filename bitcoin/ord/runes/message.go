// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"errors"
	"slices"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes/utils"
	"github.com/BoostyLabs/alkanes/internal/sequencereader"
)

// fieldType defines helping struct for ordering map.
type fieldType struct {
	Tag  Tag
	Nums []uint128.Uint128
}

// Message defines helping struct for serialising and deserializing Runestone.
type Message struct {
	Edicts []Edict
	Fields map[Tag][]uint128.Uint128
	// Flaw holds the first malformation met while parsing.
	Flaw *CenotaphError
}

// ParseMessage parses Message from integer sequence. Malformations do not stop
// parsing of already collected fields and are reported in Message.Flaw.
func ParseMessage(sr *sequencereader.SequenceReader[uint128.Uint128]) *Message {
	message := &Message{
		Fields: make(map[Tag][]uint128.Uint128),
	}

	for sr.HasNext() {
		tagValue, _ := sr.Next() // skip error due to loop condition check.
		if tagValue.IsZero() {
			edicts, err := ParseEdictsFromIntSeq(sr)
			message.Edicts = edicts
			var cenotaph *CenotaphError
			if errors.As(err, &cenotaph) {
				message.Flaw = cenotaph
			}

			break
		}

		value, err := sr.Next()
		if err != nil {
			message.Flaw = newCenotaphError(TruncatedFieldCenotaphErrorType, "tag %s has no value", tagValue)
			break
		}

		if tagValue.Hi != 0 {
			if tagValue.Lo%2 == 0 && message.Flaw == nil {
				message.Flaw = newCenotaphError(UnrecognizedEvenTagCenotaphErrorType, "unrecognized even tag %s", tagValue)
			}

			continue
		}

		tag := Tag(tagValue.Lo)
		message.Fields[tag] = append(message.Fields[tag], value)
	}

	return message
}

// ToIntSeq returns Message as sequence on integers.
func (message *Message) ToIntSeq() []uint128.Uint128 {
	ordered := make([]fieldType, 0, len(message.Fields))
	for tag, ints := range message.Fields {
		ordered = append(ordered, fieldType{tag, ints})
	}

	// sort ordered for immutability.
	slices.SortFunc(ordered, func(a, b fieldType) int {
		switch {
		case a.Tag < b.Tag:
			return -1
		case a.Tag > b.Tag:
			return 1
		}

		return 0
	})

	sequence := make([]uint128.Uint128, 0, len(message.Fields)*2+len(message.Edicts)*4+1)
	for _, field := range ordered {
		for _, val := range field.Nums {
			sequence = append(sequence, field.Tag.Uint128(), val)
		}
	}

	if len(message.Edicts) > 0 {
		sequence = append(sequence, TagBody.Uint128())
		sequence = append(sequence, EdictsToIntSeq(message.Edicts)...)
	}

	return sequence
}

// take removes n leading values of the tag if fn accepts them.
// Rejected or missing values stay in fields so even tags turn into cenotaph.
func (message *Message) take(tag Tag, n int, fn func(values []uint128.Uint128) bool) bool {
	values := message.Fields[tag]

	var accepted bool
	utils.IfMinLen(values, n).Then(func() error {
		accepted = fn(values[:n])
		return nil
	})
	if !accepted {
		return false
	}

	if len(values) == n {
		delete(message.Fields, tag)
	} else {
		message.Fields[tag] = values[n:]
	}

	return true
}
