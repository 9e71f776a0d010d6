// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/sequencereader"
	"github.com/BoostyLabs/alkanes/internal/varint"
)

const (
	// MaxDivisibility defines maximum divisibility for runes.
	MaxDivisibility byte = 38
	// MaxSpacers defines max value for spacers.
	MaxSpacers uint32 = 0b00000111_11111111_11111111_11111111
	// MaxPushSize defines the largest data push used while building runestone script.
	MaxPushSize = txscript.MaxScriptElementSize
)

// ErrCenotaph defines invalid runestone produced malformed payload.
var ErrCenotaph = errors.New("cenotaph")

// ErrNoRunestone defines script or transaction without runestone.
var ErrNoRunestone = errors.New("no runestone")

// Runestone abstractly defines runestone fields.
type Runestone struct {
	Edicts  []Edict
	Etching *Etching
	Mint    *RuneID
	Pointer *uint32
	// Protocol holds raw values of the protocol tag, packed protostones.
	Protocol []uint128.Uint128
	// Cenotaph is set if the runestone is malformed. Cenotaph keeps only
	// the mint and the etched rune name.
	Cenotaph *CenotaphError
}

// Decipher returns runestone of the first output starting with OP_RETURN OP_13.
func Decipher(tx *wire.MsgTx) (*Runestone, error) {
	for _, out := range tx.TxOut {
		if IsPossibleRunestone(out.PkScript) {
			return ParseRunestone(out.PkScript)
		}
	}

	return nil, ErrNoRunestone
}

// ParseRunestone parses Runestone from script code. Malformed payload produces
// runestone with Cenotaph set, error is returned only if the script is not a runestone.
func ParseRunestone(script []byte) (*Runestone, error) {
	runestone := new(Runestone)
	payload, err := PreparePayload(script)
	if err != nil {
		var cenotaph *CenotaphError
		if errors.As(err, &cenotaph) {
			runestone.IntoCenotaph(cenotaph)
			return runestone, nil
		}

		return nil, err
	}

	sequence, err := varint.Decode(payload)
	if err != nil {
		runestone.IntoCenotaph(newCenotaphError(VarintCenotaphErrorType, "malformed varint: %v", err))
		return runestone, nil
	}

	runestone.parse(sequencereader.New(sequence))

	return runestone, nil
}

// parse parses runestone fields from integer sequence.
func (runestone *Runestone) parse(sr *sequencereader.SequenceReader[uint128.Uint128]) {
	message := ParseMessage(sr)
	flaw := message.Flaw

	var flags uint128.Uint128
	message.take(TagFlags, 1, func(values []uint128.Uint128) bool {
		flags = values[0]
		return true
	})

	var etching bool
	if flags, etching = TakeFlag(flags, FlagEtching); etching {
		flags = runestone.parseEtching(message, flags)
	}

	message.take(TagMint, 2, func(values []uint128.Uint128) bool {
		id, ok := NewRuneIDFromIntSeq(values[0], values[1])
		if ok {
			runestone.Mint = &id
		}

		return ok
	})

	message.take(TagPointer, 1, func(values []uint128.Uint128) bool {
		pointer, ok := toUint32(values[0])
		if ok {
			runestone.Pointer = &pointer
		}

		return ok
	})

	if values, ok := message.Fields[TagProtocol]; ok {
		runestone.Protocol = values
		delete(message.Fields, TagProtocol)
	}

	runestone.Edicts = message.Edicts

	if flaw == nil && runestone.Etching != nil {
		if _, ok := runestone.Etching.Supply(); !ok {
			flaw = newCenotaphError(EtchingCenotaphErrorType, "etching supply overflows uint128")
		}
	}

	if flaw == nil && !flags.IsZero() {
		flaw = newCenotaphError(UnrecognizedFlagCenotaphErrorType, "unrecognized flags %s", flags)
	}

	if flaw == nil {
		if tag, ok := lowestEvenTag(message.Fields); ok {
			flaw = newCenotaphError(UnrecognizedEvenTagCenotaphErrorType, "unrecognized even tag %d", tag)
		}
	}

	if flaw != nil {
		runestone.IntoCenotaph(flaw)
	}
}

// parseEtching collects etching fields and returns flags left.
func (runestone *Runestone) parseEtching(message *Message, flags uint128.Uint128) uint128.Uint128 {
	etching := new(Etching)

	message.take(TagDivisibility, 1, func(values []uint128.Uint128) bool {
		if values[0].Cmp64(uint64(MaxDivisibility)) > 0 {
			return false
		}

		divisibility := byte(values[0].Lo)
		etching.Divisibility = &divisibility
		return true
	})
	message.take(TagPremine, 1, func(values []uint128.Uint128) bool {
		premine := values[0]
		etching.Premine = &premine
		return true
	})
	message.take(TagRune, 1, func(values []uint128.Uint128) bool {
		etching.Rune = NewRuneFromNumber(values[0])
		return true
	})
	message.take(TagSpacers, 1, func(values []uint128.Uint128) bool {
		spacers, ok := toUint32(values[0])
		if !ok || spacers > MaxSpacers {
			return false
		}

		etching.Spacers = &spacers
		return true
	})
	message.take(TagSymbol, 1, func(values []uint128.Uint128) bool {
		value, ok := toUint32(values[0])
		if !ok || !utf8.ValidRune(rune(value)) {
			return false
		}

		symbol := rune(value)
		etching.Symbol = &symbol
		return true
	})

	var terms, turbo bool
	if flags, terms = TakeFlag(flags, FlagTerms); terms {
		etching.Terms = new(Terms)
		message.take(TagCap, 1, func(values []uint128.Uint128) bool {
			value := values[0]
			etching.Terms.Cap = &value
			return true
		})
		message.take(TagAmount, 1, func(values []uint128.Uint128) bool {
			value := values[0]
			etching.Terms.Amount = &value
			return true
		})
		for tag, target := range map[Tag]**uint64{
			TagHeightStart: &etching.Terms.HeightStart,
			TagHeightEnd:   &etching.Terms.HeightEnd,
			TagOffsetStart: &etching.Terms.OffsetStart,
			TagOffsetEnd:   &etching.Terms.OffsetEnd,
		} {
			message.take(tag, 1, func(values []uint128.Uint128) bool {
				if values[0].Hi != 0 {
					return false
				}

				value := values[0].Lo
				*target = &value
				return true
			})
		}
	}

	flags, turbo = TakeFlag(flags, FlagTurbo)
	etching.Turbo = turbo
	runestone.Etching = etching

	return flags
}

// IntoCenotaph turns runestone into cenotaph keeping the mint and the etched rune name only.
func (runestone *Runestone) IntoCenotaph(flaw *CenotaphError) {
	runestone.Cenotaph = flaw
	runestone.Edicts = nil
	runestone.Pointer = nil
	runestone.Protocol = nil
	if runestone.Etching != nil {
		if runestone.Etching.Rune == nil {
			runestone.Etching = nil
		} else {
			runestone.Etching = &Etching{Rune: runestone.Etching.Rune}
		}
	}
}

// IsCenotaph returns true if the runestone is malformed.
func (runestone *Runestone) IsCenotaph() bool {
	return runestone.Cenotaph != nil
}

// IntoScript returns Runestone as script bytes.
func (runestone *Runestone) IntoScript() ([]byte, error) {
	payload, err := runestone.Serialize()
	if err != nil {
		return nil, err
	}

	script := []byte{txscript.OP_RETURN, txscript.OP_13}
	for len(payload) > 0 {
		size := min(len(payload), MaxPushSize)
		script = appendPush(script, payload[:size])
		payload = payload[size:]
	}

	if len(script) > txscript.MaxScriptSize {
		return nil, errors.New("runestone script exceeds max script size")
	}

	return script, nil
}

// Serialize returns Runestone as bytes array.
func (runestone *Runestone) Serialize() ([]byte, error) {
	message := Message{
		Edicts: runestone.Edicts,
		Fields: map[Tag][]uint128.Uint128{},
	}
	flags := uint128.Zero
	if runestone.Etching != nil {
		flags = AddFlag(flags, FlagEtching)
		if runestone.Etching.Divisibility != nil {
			message.Fields[TagDivisibility] = []uint128.Uint128{uint128.From64(uint64(*runestone.Etching.Divisibility))}
		}
		if runestone.Etching.Premine != nil {
			message.Fields[TagPremine] = []uint128.Uint128{*runestone.Etching.Premine}
		}
		if runestone.Etching.Rune != nil {
			message.Fields[TagRune] = []uint128.Uint128{runestone.Etching.Rune.Value()}
		}
		if runestone.Etching.Spacers != nil {
			message.Fields[TagSpacers] = []uint128.Uint128{uint128.From64(uint64(*runestone.Etching.Spacers))}
		}
		if runestone.Etching.Symbol != nil {
			message.Fields[TagSymbol] = []uint128.Uint128{uint128.From64(uint64(*runestone.Etching.Symbol))}
		}

		if runestone.Etching.Terms != nil {
			terms := runestone.Etching.Terms
			flags = AddFlag(flags, FlagTerms)
			if terms.Cap != nil {
				message.Fields[TagCap] = []uint128.Uint128{*terms.Cap}
			}
			if terms.Amount != nil {
				message.Fields[TagAmount] = []uint128.Uint128{*terms.Amount}
			}
			if terms.HeightStart != nil {
				message.Fields[TagHeightStart] = []uint128.Uint128{uint128.From64(*terms.HeightStart)}
			}
			if terms.HeightEnd != nil {
				message.Fields[TagHeightEnd] = []uint128.Uint128{uint128.From64(*terms.HeightEnd)}
			}
			if terms.OffsetStart != nil {
				message.Fields[TagOffsetStart] = []uint128.Uint128{uint128.From64(*terms.OffsetStart)}
			}
			if terms.OffsetEnd != nil {
				message.Fields[TagOffsetEnd] = []uint128.Uint128{uint128.From64(*terms.OffsetEnd)}
			}
		}

		if runestone.Etching.Turbo {
			flags = AddFlag(flags, FlagTurbo)
		}

		message.Fields[TagFlags] = []uint128.Uint128{flags}
	}

	if runestone.Mint != nil {
		message.Fields[TagMint] = runestone.Mint.ToIntSeq()
	}

	if runestone.Pointer != nil {
		message.Fields[TagPointer] = []uint128.Uint128{uint128.From64(uint64(*runestone.Pointer))}
	}

	if len(runestone.Protocol) > 0 {
		message.Fields[TagProtocol] = runestone.Protocol
	}

	return varint.Encode(message.ToIntSeq())
}

// Verify verifies that pointer and edict outputs address existing outputs.
// Outputs above the real ones up to outputs+virtual are allowed, the output
// equal to outputs means split across all non OP_RETURN outputs.
func (runestone *Runestone) Verify(outputs, virtual int) error {
	if runestone.Pointer != nil {
		pointer := int(*runestone.Pointer)
		if pointer == outputs || pointer > outputs+virtual {
			return newCenotaphError(PointerCenotaphErrorType,
				"the Pointer(%d) is out of output idxs range [0;%d)", pointer, outputs)
		}
	}

	if runestone.Mint != nil && !runestone.Mint.IsValid() {
		return newCenotaphError(MintCenotaphErrorType, "invalid Mint(%s)", runestone.Mint.String())
	}

	for idx, edict := range runestone.Edicts {
		if !edict.RuneID.IsValid() || int(edict.Output) > outputs+virtual {
			return newCenotaphError(EdictsCenotaphErrorType,
				"the Edict[%d] is malformed: %+v in output idxs range [0;%d]", idx, edict, outputs+virtual)
		}
	}

	return nil
}

// PreparePayload validates raw script payload, removes OP_<...> bytes,
// returns collected data from data push commands.
func PreparePayload(script []byte) ([]byte, error) {
	if !IsPossibleRunestone(script) {
		return nil, ErrNoRunestone
	}

	payload := make([]byte, 0, len(script))
	tokenizer := txscript.MakeScriptTokenizer(0, script[2:])
	for tokenizer.Next() {
		if tokenizer.Opcode() > txscript.OP_PUSHDATA4 {
			return nil, newCenotaphError(OpcodeCenotaphErrorType, "non push opcode %#x", tokenizer.Opcode())
		}

		payload = append(payload, tokenizer.Data()...)
	}

	if err := tokenizer.Err(); err != nil {
		return nil, newCenotaphError(InvalidScriptCenotaphErrorType, "invalid script: %v", err)
	}

	return payload, nil
}

// IsPossibleRunestone returns true if the script starts with rune protocol bytes sequence.
func IsPossibleRunestone(script []byte) bool {
	return len(script) >= 2 && script[0] == txscript.OP_RETURN && script[1] == txscript.OP_13
}

// appendPush appends data push with the smallest push opcode. Small integer
// opcodes are never used as they are not data pushes for the runestone.
func appendPush(script []byte, data []byte) []byte {
	size := len(data)
	switch {
	case size <= txscript.OP_DATA_75:
		script = append(script, byte(size))
	case size <= math.MaxUint8:
		script = append(script, txscript.OP_PUSHDATA1, byte(size))
	default:
		script = append(script, txscript.OP_PUSHDATA2)
		script = binary.LittleEndian.AppendUint16(script, uint16(size))
	}

	return append(script, data...)
}

// lowestEvenTag returns the smallest even tag left in fields.
func lowestEvenTag(fields map[Tag][]uint128.Uint128) (Tag, bool) {
	tags := make([]Tag, 0, len(fields))
	for tag := range fields {
		if tag.IsEven() {
			tags = append(tags, tag)
		}
	}

	if len(tags) == 0 {
		return 0, false
	}

	return slices.Min(tags), true
}

// toUint32 converts value if it fits into uint32.
func toUint32(value uint128.Uint128) (uint32, bool) {
	if value.Hi != 0 || value.Lo > math.MaxUint32 {
		return 0, false
	}

	return uint32(value.Lo), true
}

// String returns short description of the runestone.
func (runestone *Runestone) String() string {
	if runestone.IsCenotaph() {
		return fmt.Sprintf("cenotaph(%s)", runestone.Cenotaph.Error())
	}

	return fmt.Sprintf("runestone(edicts=%d, etching=%t, mint=%t, protocol=%d)",
		len(runestone.Edicts), runestone.Etching != nil, runestone.Mint != nil, len(runestone.Protocol))
}
