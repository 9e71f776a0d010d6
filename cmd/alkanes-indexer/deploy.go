// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/uint128"

	"github.com/BoostyLabs/alkanes/bitcoin"
	"github.com/BoostyLabs/alkanes/bitcoin/signer"
	"github.com/BoostyLabs/alkanes/bitcoin/txbuilder"
)

// deployCommand builds transactions deploying the contract binary.
type deployCommand struct {
	cfg *config

	InternalKey string   `long:"internal-key" description:"Hex of the taproot internal public key, derived from --wif if omitted"`
	WIF         string   `long:"wif" description:"Private key signing the reveal transaction"`
	Commit      string   `long:"commit" description:"Outpoint txid:vout paying to the commitment address"`
	Amount      int64    `long:"amount" description:"Value of the commitment output in satoshi"`
	Recipient   string   `long:"recipient" description:"Address receiving the constructor output"`
	FeeRate     int64    `long:"fee-rate" description:"Fee rate in satoshi per kvbyte" default:"2000"`
	Inputs      []string `long:"input" description:"Constructor input, opcode first"`
	Args        struct {
		Binary string `positional-arg-name:"binary" description:"File with the contract binary"`
	} `positional-args:"yes" required:"yes"`
}

// Execute prints the commitment address, and the reveal PSBT or signed reveal transaction
// when the commitment outpoint is given.
func (c *deployCommand) Execute(_ []string) error {
	if err := c.cfg.validate(); err != nil {
		return err
	}

	binary, err := os.ReadFile(c.Args.Binary)
	if err != nil {
		return err
	}

	var privateKey *btcec.PrivateKey
	if c.WIF != "" {
		wif, err := btcutil.DecodeWIF(c.WIF)
		if err != nil {
			return fmt.Errorf("invalid wif: %w", err)
		}
		privateKey = wif.PrivKey
	}

	internalKey, err := c.internalKey(privateKey)
	if err != nil {
		return err
	}

	builder := txbuilder.NewTxBuilder(c.cfg.params.Params)
	deployment, err := builder.PrepareDeployment(binary, internalKey)
	if err != nil {
		return err
	}

	fmt.Printf("commitment address: %s\n", deployment.Address.EncodeAddress())
	if c.Commit == "" {
		return nil
	}

	revealTx, fee, packet, err := c.buildReveal(builder, deployment)
	if err != nil {
		return err
	}

	log.Infof("reveal %s pays fee %s", revealTx.TxHash(), fee)

	if privateKey == nil {
		fmt.Printf("reveal psbt: %s\n", base64.StdEncoding.EncodeToString(packet))
		return nil
	}

	tx, err := signer.NewSigner(c.cfg.params.Params).SignReveal(signer.RevealParams{
		SerializedPSBT: packet,
		PrivateKey:     privateKey,
	})
	if err != nil {
		return err
	}

	raw := bytes.NewBuffer(nil)
	if err = tx.Serialize(raw); err != nil {
		return err
	}

	fmt.Printf("reveal tx: %x\n", raw.Bytes())

	return nil
}

// buildReveal builds the reveal transaction and its PSBT.
func (c *deployCommand) buildReveal(builder *txbuilder.TxBuilder, deployment *txbuilder.Deployment) (*wire.MsgTx, btcutil.Amount, []byte, error) {
	op, err := wire.NewOutPointFromString(c.Commit)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("invalid commitment outpoint %q: %w", c.Commit, err)
	}

	if c.Recipient == "" {
		return nil, 0, nil, errors.New("recipient address is required to build the reveal")
	}

	inputs := make([]uint128.Uint128, 0, len(c.Inputs))
	for _, input := range c.Inputs {
		value, err := uint128.FromString(input)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("invalid constructor input %q: %w", input, err)
		}
		inputs = append(inputs, value)
	}

	commit := bitcoin.UTXO{
		TxHash:  op.Hash.String(),
		Index:   op.Index,
		Amount:  btcutil.Amount(c.Amount),
		Script:  deployment.PkScript(),
		Address: deployment.Address.EncodeAddress(),
	}

	tx, fee, err := builder.BuildRevealTx(deployment, txbuilder.RevealParams{
		ProtocolTag:      uint128.From64(c.cfg.Indexer.ProtocolTag),
		Commit:           commit,
		Inputs:           inputs,
		RecipientAddress: c.Recipient,
		SatoshiPerKVByte: btcutil.Amount(c.FeeRate),
	})
	if err != nil {
		return nil, 0, nil, err
	}

	packet, err := builder.BuildRevealPSBT(deployment, tx, commit)
	if err != nil {
		return nil, 0, nil, err
	}

	return tx, fee, packet, nil
}

// internalKey parses the configured internal key, compressed or x-only.
func (c *deployCommand) internalKey(privateKey *btcec.PrivateKey) (*btcec.PublicKey, error) {
	if c.InternalKey == "" {
		if privateKey == nil {
			return nil, errors.New("either internal key or wif is required")
		}

		return privateKey.PubKey(), nil
	}

	data, err := hex.DecodeString(c.InternalKey)
	if err != nil {
		return nil, fmt.Errorf("invalid internal key: %w", err)
	}

	if len(data) == schnorr.PubKeyBytesLen {
		return schnorr.ParsePubKey(data)
	}

	return btcec.ParsePubKey(data)
}
