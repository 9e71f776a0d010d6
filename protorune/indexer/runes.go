// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package indexer

import (
	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/protorune/balance"
)

// indexRunes routes runes of the inputs, the mint and the etching into runeOutputs.
func (ix *Indexer) indexRunes(tc *txContext) error {
	unallocated, err := loadInputs(ix.runes, tc.tx)
	if err != nil {
		return err
	}

	runestone := tc.runestone
	if runestone != nil {
		if runestone.Mint != nil {
			if err = ix.mint(tc, *runestone.Mint, unallocated); err != nil {
				return err
			}
		}

		etched, name, err := ix.etched(tc)
		if err != nil {
			return err
		}

		if !runestone.IsCenotaph() {
			if etched != nil && runestone.Etching.Premine != nil {
				if err = unallocated.Increase(balance.FromRuneID(*etched), *runestone.Etching.Premine); err != nil {
					return err
				}
			}

			if err = ix.runeEdicts(tc, etched, unallocated); err != nil {
				return err
			}
		}

		if etched != nil {
			if err = ix.createEntry(tc, *etched, name); err != nil {
				return err
			}
		}
	}

	if tc.isCenotaph() {
		log.Debugf("tx %s: cenotaph %v burns %d runes", tc.hash, tc.runestone.Cenotaph, unallocated.Len())

		return ix.runes.BurnSheet(unallocated)
	}

	var pointer *uint32
	if runestone != nil {
		pointer = runestone.Pointer
	}

	vout, ok := tc.target(pointer, tc.outputs())
	if !ok {
		return ix.runes.BurnSheet(unallocated)
	}

	return route(unallocated, vout, tc.runeOutputs)
}

// runeEdicts applies top level edicts to the unallocated runes.
func (ix *Indexer) runeEdicts(tc *txContext, etched *runes.RuneID, unallocated *balance.Sheet) error {
	for _, edict := range tc.runestone.Edicts {
		runeID := edict.RuneID
		if runeID == (runes.RuneID{}) {
			if etched == nil {
				continue
			}

			runeID = *etched
		}

		id := balance.FromRuneID(runeID)
		allocations := TransferToVout(edict.Output, edict.Amount, unallocated.Get(id), tc.tx)
		if err := Allocate(unallocated, id, allocations, tc.runeOutputs); err != nil {
			return err
		}
	}

	return nil
}

// mint credits one mint of the rune if its terms allow it, otherwise nothing happens.
func (ix *Indexer) mint(tc *txContext, id runes.RuneID, unallocated *balance.Sheet) error {
	entry, err := ix.registry.Entry(id)
	if err != nil || entry == nil {
		return err
	}

	amount, err := entry.Mintable(tc.block.Height)
	if err != nil {
		log.Tracef("tx %s: mint of %s: %v", tc.hash, id.String(), err)
		return nil
	}

	entry.Mints = entry.Mints.Add64(1)
	if err = ix.registry.Save(entry); err != nil {
		return err
	}

	return unallocated.Increase(entry.AssetID(), amount)
}

// etched returns id and name of the rune etched by the transaction, nil if the etching is invalid.
func (ix *Indexer) etched(tc *txContext) (*runes.RuneID, *runes.Rune, error) {
	etching := tc.runestone.Etching
	if etching == nil {
		return nil, nil, nil
	}

	id := runes.RuneID{Block: tc.block.Height, TxID: tc.index}
	if etching.Rune == nil {
		return &id, runes.RuneReserve(id), nil
	}

	name := etching.Rune
	switch {
	case name.Value().Cmp(runes.MinimumAtHeight(tc.block.Height, ix.config.FirstRuneHeight)) < 0:
		log.Debugf("tx %s: rune %s is locked at height %d", tc.hash, name, tc.block.Height)
		return nil, nil, nil
	case name.IsReserved():
		log.Debugf("tx %s: rune %s is reserved", tc.hash, name)
		return nil, nil, nil
	case ix.registry.Exists(*name):
		log.Debugf("tx %s: rune %s is already etched", tc.hash, name)
		return nil, nil, nil
	case !ix.config.SkipCommitmentCheck && !ix.outputs.CommitsToRune(tc.tx, name, tc.block.Height):
		log.Debugf("tx %s: rune %s has no commitment", tc.hash, name)
		return nil, nil, nil
	}

	return &id, name, nil
}

// createEntry registers etched rune, cenotaph etchings keep only the name.
func (ix *Indexer) createEntry(tc *txContext, id runes.RuneID, name *runes.Rune) error {
	entry := &RuneEntry{ID: id, Rune: *name, EtchingTxHash: tc.hash}

	if etching := tc.runestone.Etching; !tc.isCenotaph() && etching != nil {
		if etching.Divisibility != nil {
			entry.Divisibility = *etching.Divisibility
		}
		if etching.Premine != nil {
			entry.Premine = *etching.Premine
		}
		if etching.Spacers != nil {
			entry.Spacers = *etching.Spacers
		}

		entry.Symbol = etching.Symbol
		entry.Terms = etching.Terms
		entry.Turbo = etching.Turbo
	}

	if err := ix.registry.Create(entry); err != nil {
		return err
	}

	log.Debugf("etched rune %s as %s", name.String(), id.String())

	return nil
}

// finishRunes saves rune sheets of the real outputs and burns the rest.
func (ix *Indexer) finishRunes(tc *txContext) error {
	for vout, sheet := range tc.runeOutputs {
		if !tc.isSpendable(vout) {
			if err := ix.runes.BurnSheet(sheet); err != nil {
				return err
			}

			continue
		}

		if !sheet.IsZero() {
			ix.runes.Save(tc.outpoint(vout), sheet)
		}
	}

	return nil
}
