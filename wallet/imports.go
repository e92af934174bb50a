package wallet

import (
	"fmt"

	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/safeupdate"
	"github.com/rivine-labs/walletstore/walletfile"
)

// ImportOptions supplies the raw material for ImportPrivateKey (spec.md
// §4.7 "Imported-key insertion").
type ImportOptions struct {
	PrivateKey [32]byte
	// WantHash160, if non-nil, must match the hash160 computed from the
	// derived public key, or ErrPubKeyMismatch is returned.
	WantHash160 *[20]byte
	FirstSeenTime  uint64
	FirstSeenBlock uint32
	LastSeenTime   uint64
	LastSeenBlock  uint32
}

// ImportPrivateKey inserts an address derived from raw key material with
// chainIndex == address.ImportedIndex (spec.md §4.7 "Imported-key
// insertion"). If the wallet is encrypted, it must already be Unlocked.
func (w *Wallet) ImportPrivateKey(opts ImportOptions) ([20]byte, error) {
	if err := w.tg.Add(); err != nil {
		return [20]byte{}, errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.flags&walletfile.FlagEncrypted != 0 && w.state != stateUnlocked {
		return [20]byte{}, ErrWalletLocked
	}

	rec, err := address.NewImported(opts.PrivateKey, opts.WantHash160)
	if err != nil {
		return [20]byte{}, err
	}
	if _, exists := w.addrMap[rec.Hash160]; exists {
		return [20]byte{}, ErrDuplicateAddress
	}
	rec.FirstSeenTime = opts.FirstSeenTime
	rec.FirstSeenBlock = opts.FirstSeenBlock
	rec.LastSeenTime = opts.LastSeenTime
	rec.LastSeenBlock = opts.LastSeenBlock

	if w.flags&walletfile.FlagEncrypted != 0 {
		if err := rec.Reencrypt(w.derivedKey); err != nil {
			return [20]byte{}, err
		}
	} else {
		if err := rec.Reencrypt(zeroDerivedKey); err != nil {
			return [20]byte{}, err
		}
	}

	entryBytes := walletfile.EncodeKeyData(rec)
	offsets, err := w.engine.Apply([]safeupdate.Op{safeupdate.Add(entryBytes)})
	if err != nil {
		return [20]byte{}, fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}
	rec.WalletByteLoc = offsets[0] + 1 + 20

	w.linearList = append(w.linearList, rec)
	w.addrMap[rec.Hash160] = rec

	if w.cfg.Indexer != nil {
		_ = w.cfg.Indexer.RegisterImportedScriptHash(rec.Hash160, opts.FirstSeenTime, uint64(opts.FirstSeenBlock), opts.LastSeenTime, uint64(opts.LastSeenBlock))
	}
	return rec.Hash160, nil
}

// ImportBulk imports several private keys in one call, matching the
// teacher-lineage wallet's "bulkImportAddresses" convenience (supplemented
// from original_source/armoryengine/PyBtcWallet.py, which the distilled
// spec dropped). It is not atomic across keys: a failure partway through
// leaves the already-imported keys in place.
func (w *Wallet) ImportBulk(keys [][32]byte) ([][20]byte, error) {
	out := make([][20]byte, 0, len(keys))
	for _, k := range keys {
		h, err := w.ImportPrivateKey(ImportOptions{PrivateKey: k})
		if err != nil {
			return out, err
		}
		out = append(out, h)
	}
	return out, nil
}

// DeleteImported tombstones an imported address's entry in place and
// reloads the wallet from disk to rebuild in-memory state (spec.md §4.7
// "Imported-key deletion"). Only chainIndex == ImportedIndex addresses are
// deletable.
func (w *Wallet) DeleteImported(hash160 [20]byte) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	rec, ok := w.addrMap[hash160]
	if !ok {
		return ErrUnknownAddress
	}
	if rec.ChainIndex != address.ImportedIndex {
		return ErrNonImportedDelete
	}

	entryStart := rec.WalletByteLoc - 1 - 20 // see walletfile.Entry.EntryStart
	tombstone := walletfile.EncodeTombstone(20 + address.RecordWidth - 2)
	if _, err := w.engine.Apply([]safeupdate.Op{safeupdate.Modify(entryStart, tombstone)}); err != nil {
		return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}

	return w.reloadLocked()
}
