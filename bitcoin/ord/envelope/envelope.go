// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/klauspost/compress/gzip"

	"github.com/BoostyLabs/alkanes/bitcoin/utils"
)

// ProtocolID defines protocol identifier of the envelopes carrying contract binaries.
const ProtocolID = "BIN"

// EncodingGzip defines gzip content encoding.
const EncodingGzip = "gzip"

// MaxPayloadSize defines the largest decompressed payload.
const MaxPayloadSize = 1 << 24

// maxBodyDataPushLen defines maximum size of the data push for bitcoin scripts.
const maxBodyDataPushLen int = txscript.MaxScriptElementSize

// maxScriptDataPushes defines maximum number of the data push of maxBodyDataPushLen size for one script builder.
const maxScriptDataPushes int = 19

// gzipMagic defines leading bytes of gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// ErrNoEnvelope defines that transaction has no envelope of the protocol.
var ErrNoEnvelope = errors.New("no envelope")

// ErrMalformedEnvelope defines that envelope is malformed and failed to parse.
var ErrMalformedEnvelope = errors.New("envelope is malformed")

// ErrPayloadTooLarge defines payload which exceeds MaxPayloadSize after decompression.
var ErrPayloadTooLarge = errors.New("payload too large")

// Envelope describes data pushed inside OP_FALSE OP_IF ... OP_ENDIF of a tapscript.
type Envelope struct {
	Input           int
	Protocol        []byte
	ContentType     string
	ContentEncoding string
	Body            []byte
}

// FromTransaction returns all envelopes revealed by script path spends of the transaction inputs.
func FromTransaction(tx *wire.MsgTx) []*Envelope {
	envelopes := make([]*Envelope, 0)
	for idx, in := range tx.TxIn {
		script, ok := utils.TapScript(in.Witness)
		if !ok {
			continue
		}

		for _, envelope := range FromTapScript(script) {
			envelope.Input = idx
			envelopes = append(envelopes, envelope)
		}
	}

	return envelopes
}

// FromTapScript returns all well formed envelopes of the tapscript.
func FromTapScript(script []byte) []*Envelope {
	envelopes := make([]*Envelope, 0)
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	var prevFalse bool
	for tokenizer.Next() {
		if prevFalse && tokenizer.Opcode() == txscript.OP_IF {
			pushes, ok := readPushes(&tokenizer)
			if ok {
				if envelope, err := fromPushes(pushes); err == nil {
					envelopes = append(envelopes, envelope)
				}
			}
		}

		prevFalse = tokenizer.Opcode() == txscript.OP_FALSE
	}

	return envelopes
}

// Payload returns decompressed body of the first envelope of the protocol.
func Payload(tx *wire.MsgTx) ([]byte, error) {
	for _, envelope := range FromTransaction(tx) {
		if string(envelope.Protocol) == ProtocolID {
			return envelope.Payload()
		}
	}

	return nil, ErrNoEnvelope
}

// readPushes collects data pushes until OP_ENDIF, false if other opcode met.
func readPushes(tokenizer *txscript.ScriptTokenizer) ([][]byte, bool) {
	pushes := make([][]byte, 0)
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		switch {
		case op == txscript.OP_ENDIF:
			return pushes, true
		case op <= txscript.OP_PUSHDATA4:
			pushes = append(pushes, tokenizer.Data())
		case op == txscript.OP_1NEGATE:
			pushes = append(pushes, []byte{0x81})
		case op >= txscript.OP_1 && op <= txscript.OP_16:
			pushes = append(pushes, []byte{op - txscript.OP_1 + 1})
		default:
			return nil, false
		}
	}

	return nil, false
}

// fromPushes builds Envelope from protocol id, tag-value pairs and body pushes.
func fromPushes(pushes [][]byte) (*Envelope, error) {
	if len(pushes) == 0 {
		return nil, ErrMalformedEnvelope
	}

	envelope := &Envelope{Protocol: pushes[0]}
	rest := pushes[1:]
	for len(rest) > 0 {
		tag := rest[0]
		if len(tag) == 0 {
			var body bytes.Buffer
			for _, push := range rest[1:] {
				body.Write(push)
			}
			envelope.Body = body.Bytes()

			return envelope, nil
		}

		if len(rest) < 2 {
			return nil, ErrMalformedEnvelope
		}

		value := rest[1]
		rest = rest[2:]
		if len(tag) != 1 {
			continue
		}

		switch Tag(tag[0]) {
		case TagContentType:
			envelope.ContentType = string(value)
		case TagContentEncoding:
			envelope.ContentEncoding = string(value)
		}
	}

	return envelope, nil
}

// Payload returns body, gzip compressed body is decompressed transparently.
func (e *Envelope) Payload() ([]byte, error) {
	if e.ContentEncoding != EncodingGzip && !IsCompressed(e.Body) {
		return e.Body, nil
	}

	return Decompress(e.Body)
}

// IsCompressed returns true if data starts with gzip magic.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}

// Decompress returns gzip decompressed data limited by MaxPayloadSize.
func Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	defer func() { _ = reader.Close() }()

	payload, err := io.ReadAll(io.LimitReader(reader, MaxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	return payload, nil
}

// Compress returns gzip compressed data.
func Compress(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buffer, gzip.BestCompression)
	if err != nil {
		return nil, err
	}

	if _, err = writer.Write(data); err != nil {
		return nil, err
	}

	if err = writer.Close(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// New returns Envelope of the protocol carrying gzip compressed binary.
func New(binary []byte) (*Envelope, error) {
	body, err := Compress(binary)
	if err != nil {
		return nil, err
	}

	return &Envelope{Protocol: []byte(ProtocolID), ContentEncoding: EncodingGzip, Body: body}, nil
}

// IntoScript returns Envelope as a script.
func (e *Envelope) IntoScript() ([]byte, error) {
	scriptBuilder := txscript.NewScriptBuilder()

	// envelope start.
	scriptBuilder.AddOp(txscript.OP_FALSE)
	scriptBuilder.AddOp(txscript.OP_IF)
	scriptBuilder.AddData(e.Protocol)

	if len(e.ContentType) != 0 {
		scriptBuilder.AddOps(TagContentType.IntoDataPush())
		scriptBuilder.AddData([]byte(e.ContentType))
	}

	if len(e.ContentEncoding) != 0 {
		scriptBuilder.AddOps(TagContentEncoding.IntoDataPush())
		scriptBuilder.AddData([]byte(e.ContentEncoding))
	}

	scriptBuilder.AddOp(txscript.OP_0)
	script, err := scriptBuilder.Script()
	if err != nil {
		return nil, err
	}

	for _, group := range e.PrepareBody() {
		bodyScriptBuilder := txscript.NewScriptBuilder()
		for _, data := range group {
			bodyScriptBuilder.AddData(data)
		}

		bodyPartScript, err := bodyScriptBuilder.Script()
		if err != nil {
			return nil, err
		}

		script = append(script, bodyPartScript...)
	}

	// envelope end.
	return append(script, txscript.OP_ENDIF), nil
}

// PrepareBody returns Envelope body as array of bytes arrays with maxBodyDataPushLen size with separation by maximum script size.
func (e *Envelope) PrepareBody() [][][]byte {
	bufferSize := ceilQuotient(len(e.Body), maxBodyDataPushLen)
	buffer := make([][]byte, bufferSize)
	start, end := 0, maxBodyDataPushLen
	for idx := 0; idx < bufferSize; idx++ {
		if end > len(e.Body) {
			end = len(e.Body)
		}

		buffer[idx] = e.Body[start:end]
		start = end
		end += maxBodyDataPushLen
	}

	groupsSize := ceilQuotient(bufferSize, maxScriptDataPushes)
	groups := make([][][]byte, groupsSize)
	start, end = 0, maxScriptDataPushes
	for idx := 0; idx < groupsSize; idx++ {
		if end > len(buffer) {
			end = len(buffer)
		}

		groups[idx] = buffer[start:end]
		start = end
		end += maxScriptDataPushes
	}

	return groups
}

// ceilQuotient returns division result with ceil function applied.
func ceilQuotient(divided, divisor int) int {
	ceilQuo := divided / divisor
	if divided%divisor != 0 {
		ceilQuo++
	}

	return ceilQuo
}

// IntoScriptForWitness returns Envelope as a script with pubKey verify at the beginning for witness data.
func (e *Envelope) IntoScriptForWitness(serializedPubKey []byte) ([]byte, error) {
	scriptBuilder := txscript.NewScriptBuilder()
	scriptBuilder.AddData(serializedPubKey)
	scriptBuilder.AddOp(txscript.OP_CHECKSIG)

	script, err := scriptBuilder.Script()
	if err != nil {
		return nil, err
	}

	envelope, err := e.IntoScript()
	if err != nil {
		return nil, err
	}

	return append(script, envelope...), nil
}

// IntoAddress returns commit address whose script path spend reveals the envelope.
func (e *Envelope) IntoAddress(pubKey *btcec.PublicKey, chainParams *chaincfg.Params) (*btcutil.AddressTaproot, error) {
	leafScript, err := e.IntoScriptForWitness(schnorr.SerializePubKey(pubKey))
	if err != nil {
		return nil, err
	}

	commitment, err := utils.NewRevealCommitment(chainParams, pubKey, leafScript)
	if err != nil {
		return nil, err
	}

	return commitment.Address, nil
}

// VBytesSize returns estimated reveal input witness size in virtual bytes.
func (e *Envelope) VBytesSize() (int, error) {
	script, err := e.IntoScript()
	if err != nil {
		return 0, err
	}

	// INFO: signature [65 bytes] + pubkey size [1 byte] + pubkey [32 bytes] + OP_CHECKSIG [1 byte]
	// + envelope script size [variable] + control block [33 bytes].
	bytesSize := len(script) + 65 + 34 + 33

	return ceilQuotient(bytesSize, 4), nil
}
