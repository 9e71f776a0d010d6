// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package runes

import (
	"errors"
	"math/big"
	"strings"

	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/internal/numbers"
)

// DefaultSpacer defines default spacer for Rune name.
const DefaultSpacer = '•'

const (
	// ProtocolBlockStart defines the block when protocol was launched on mainnet.
	ProtocolBlockStart uint64 = 840_000
	// SubsidyHalvingInterval defines interval in blocks between subsidy halvings.
	SubsidyHalvingInterval uint64 = 210_000
	// UnlockNamePeriod defines interval in blocks to unlock shorter name.
	UnlockNamePeriod = SubsidyHalvingInterval / 12

	// StartNameLength defines minimum name length on the ProtocolBlockStart.
	StartNameLength = 13
)

// base26 defines 26 as *big.Int.
var base26 = big.NewInt(26)

// FirstReservedRuneNameInt defines FirstReservedRuneName as number.
var FirstReservedRuneNameInt = uint128.FromBig(func() *big.Int {
	value, _ := new(big.Int).SetString("6402364363415443603228541259936211926", 10)
	return value
}())

// FirstReservedRuneName defines first reserved rune name AAAAAAAAAAAAAAAAAAAAAAAAAAA.
var FirstReservedRuneName = RuneReserve(RuneID{0, 0})

// steps defines the smallest value of the name per length, steps[i] is "A" repeated i+1 times.
var steps = func() [StartNameLength]uint128.Uint128 {
	var values [StartNameLength]uint128.Uint128
	for i := 1; i < StartNameLength; i++ {
		values[i] = values[i-1].Add64(1).Mul64(26)
	}

	return values
}()

// Rune defines rune names and encodes as modified base-26 integers.
type Rune struct {
	value uint128.Uint128
}

// NewRuneFromString creates new Rune from string name.
// NOTE: Valid symbols are A-Z only.
func NewRuneFromString(runeStr string) (*Rune, error) {
	var value = big.NewInt(0)
	for i, c := range runeStr {
		if i > 0 {
			value.Add(value, numbers.OneBigInt)
		}
		value = value.Mul(value, base26)
		if c < 'A' || c > 'Z' {
			return nil, errors.New("invalid symbol in the rune")
		}
		value = value.Add(value, big.NewInt(int64(c)-'A'))
	}

	converted, err := numbers.ToUint128(value)
	if err != nil {
		return nil, errors.New("value overflows uint128")
	}

	r := &Rune{value: converted}
	if r.IsReserved() && !converted.Equals(FirstReservedRuneNameInt) {
		return nil, errors.New("reserved name")
	}

	return r, nil
}

// NewRuneFromStringWithSpacer creates new Rune from string name with spacers scanned.
//
//	NOTE:
//	- Instead of empty spacer the default one will be used.
//	- If many spacers were provided, the first one will be used.
func NewRuneFromStringWithSpacer(runeStr string, spacer ...rune) (*Rune, uint32, error) {
	var s = DefaultSpacer
	if len(spacer) > 0 {
		s = spacer[0]
	}

	var (
		spacers uint32
		idx     uint
	)
	for _, char := range runeStr {
		if char == s {
			spacers |= 1 << (idx - 1)
		} else {
			idx++
		}
	}

	runeStr = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}

		return -1
	}, runeStr)
	rune_, err := NewRuneFromString(runeStr)
	if err != nil {
		return nil, 0, err
	}

	return rune_, spacers, nil
}

// NewRuneFromNumber creates new Rune from number.
func NewRuneFromNumber(number uint128.Uint128) *Rune {
	return &Rune{value: number}
}

// Value returns Rune name as number.
func (r *Rune) Value() uint128.Uint128 {
	return r.value
}

// Commitment returns little-endian name value without trailing zero bytes.
// The etching input tapscript must push it to reveal the name.
func (r *Rune) Commitment() []byte {
	data := make([]byte, 16)
	r.value.PutBytes(data)

	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}

	return data[:end]
}

// IsReserved returns true for names allocated to etchings without explicit name.
func (r *Rune) IsReserved() bool {
	return r.value.Cmp(FirstReservedRuneNameInt) >= 0
}

// String returns Rune name as string.
func (r *Rune) String() string {
	if r.value.Equals(uint128.Max) {
		return "BCGDENLQRQWDSLRUGSNLBTMFIJAV"
	}

	value := r.value.Add64(1)
	var symbol []byte
	for !value.IsZero() {
		quo, rem := value.Sub64(1).QuoRem64(26)
		symbol = append(symbol, byte('A'+rem))
		value = quo
	}

	for i, j := 0, len(symbol)-1; i < j; i, j = i+1, j-1 {
		symbol[i], symbol[j] = symbol[j], symbol[i]
	}

	return string(symbol)
}

// StringWithSeparator returns Rune name as string with provides spacer.
//
//	NOTE:
//	- Instead of empty spacer the default one will be used.
//	- If many spacers were provided, the first one will be used.
func (r *Rune) StringWithSeparator(spacers uint32, spacer ...rune) string {
	rune_ := r.String()

	var s = string(DefaultSpacer)
	if len(spacer) > 0 {
		s = string(spacer[0])
	}

	symbol := ""
	for idx, char := range rune_ {
		symbol += string(char)

		if idx < len(rune_)-1 && spacers&(1<<idx) != 0 {
			symbol += s
		}
	}

	return symbol
}

// RuneReserve returns allocated rune name in case it was omitted in etching.
func RuneReserve(runeID RuneID) *Rune {
	offset := uint128.New(uint64(runeID.TxID)|runeID.Block<<32, runeID.Block>>32)

	return &Rune{value: FirstReservedRuneNameInt.Add(offset)}
}

// MinimumAtHeight returns the smallest name value unlocked at the height.
// Names get one letter shorter every UnlockNamePeriod blocks since firstHeight.
func MinimumAtHeight(height, firstHeight uint64) uint128.Uint128 {
	offset := height + 1
	if offset < firstHeight {
		return steps[StartNameLength-1]
	}

	if offset >= firstHeight+SubsidyHalvingInterval {
		return uint128.Zero
	}

	progress := offset - firstHeight
	length := uint64(StartNameLength-1) - progress/UnlockNamePeriod
	end, start := steps[length-1], steps[length]
	remainder := progress % UnlockNamePeriod

	return start.Sub(start.Sub(end).Mul64(remainder).Div64(UnlockNamePeriod))
}
