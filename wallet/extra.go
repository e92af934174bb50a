package wallet

import (
	"fmt"
	"os"

	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/kdf"
	"github.com/rivine-labs/walletstore/walletfile"
)

// DetectHighestUsedIndex recomputes HighestUsedChainIndex from indexer
// ledger activity, for a wallet restored from a seed with no prior
// on-disk usage record (original_source/armoryengine/PyBtcWallet.py
// detectHighestUsedIndex). If fullScan is false, only chain indices
// beyond the current HighestUsedChainIndex are probed.
func (w *Wallet) DetectHighestUsedIndex(fullScan bool) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cfg.Indexer == nil {
		return nil
	}

	start := w.highestUsedChainIndex + 1
	if fullScan {
		start = 0
	}

	highest := w.highestUsedChainIndex
	for idx := start; idx <= w.lastComputedChainIndex; idx++ {
		rec, ok := w.chainIndexMap[idx]
		if !ok {
			continue
		}
		entries, err := w.cfg.Indexer.LedgerFor(rec.Hash160)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			highest = idx
		}
	}

	if highest != w.highestUsedChainIndex {
		return w.advanceHighestIndexLocked(highest)
	}
	return nil
}

// BootstrapFromRoot finds the highest used chain index of a freshly
// imported root key with no pool yet, by exponentially probing forward
// then binary-searching the boundary against indexer ledger activity
// (original_source/armoryengine/PyBtcWallet.py freshImportFindHighestIndex).
// maxProbe bounds how far the exponential phase will search.
func (w *Wallet) BootstrapFromRoot(maxProbe int64) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cfg.Indexer == nil {
		return nil
	}

	usedAt := func(idx int64) (bool, error) {
		for w.lastComputedChainIndex < idx {
			if _, err := w.computeNextAddressLocked(); err != nil {
				return false, err
			}
		}
		rec := w.chainIndexMap[idx]
		entries, err := w.cfg.Indexer.LedgerFor(rec.Hash160)
		if err != nil {
			return false, err
		}
		return len(entries) > 0, nil
	}

	var lo int64 = -1
	hi := int64(1)
	for hi <= maxProbe {
		used, err := usedAt(hi)
		if err != nil {
			return err
		}
		if !used {
			break
		}
		lo = hi
		hi *= 2
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		used, err := usedAt(mid)
		if err != nil {
			return err
		}
		if used {
			lo = mid
		} else {
			hi = mid
		}
	}
	if lo < 0 {
		return nil
	}
	return w.advanceHighestIndexLocked(lo)
}

// exportCopyLocked writes a fresh wallet file at destPath holding every
// address this wallet knows re-encrypted under newKey, with the encrypted
// flag set according to encrypted. It does not touch the source wallet's
// own file or in-memory state. Caller must hold w.mu (for read) and the
// source wallet must already have plaintext keys available (Unlocked or
// Unencrypted).
func (w *Wallet) exportCopyLocked(destPath string, encrypted bool, params kdf.Params, newKey [32]byte, watchingOnly bool) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("wallet: %s already exists", destPath)
	}

	rootCopy := *w.root
	if watchingOnly {
		stripPrivateKey(&rootCopy)
	} else if err := rootCopy.Reencrypt(newKey); err != nil {
		return err
	}

	flags := uint64(0)
	if encrypted {
		flags |= walletfile.FlagEncrypted
	}
	if watchingOnly {
		flags |= walletfile.FlagWatchingOnly
	}

	header := walletfile.Header{
		ChainMagic:            w.chainMagic,
		Flags:                 flags,
		UniqueID:              w.uniqueID,
		CreateTime:            w.createTime,
		ShortLabel:            w.shortLabel,
		LongLabel:             w.longLabel,
		HighestUsedChainIndex: w.highestUsedChainIndex,
		RootAddr:              &rootCopy,
	}
	if encrypted {
		header.KDF = params
	}

	data, _, err := walletfile.Pack(header)
	if err != nil {
		return err
	}

	for _, rec := range w.linearList {
		cp := *rec
		if watchingOnly {
			stripPrivateKey(&cp)
		} else if err := cp.Reencrypt(newKey); err != nil {
			return err
		}
		data = append(data, walletfile.EncodeKeyData(&cp)...)
	}

	return os.WriteFile(destPath, data, 0600)
}

// stripPrivateKey clears every private-key-derived field on a copy,
// leaving only the public material a watching-only wallet needs.
func stripPrivateKey(rec *address.Record) {
	rec.IV = [16]byte{}
	rec.EncryptedPrivKey = [32]byte{}
	rec.HasEncryptedKey = false
	rec.PlainPrivKey = [32]byte{}
	rec.HasPlainKey = false
	rec.CreatePrivKeyNextUnlock = false
	rec.AncestorIV = [16]byte{}
	rec.AncestorEncryptedKey = [32]byte{}
	rec.Depth = 0
}

// ExportPlaintextCopy writes a sibling wallet file with every key
// re-encrypted under the well-known zero key (an "Unencrypted" copy),
// without mutating this wallet (original_source/armoryengine/PyBtcWallet.py
// makeUnencryptedWalletCopy). Requires plaintext keys to be available.
func (w *Wallet) ExportPlaintextCopy(destPath string) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.state == stateLocked {
		return ErrWalletLocked
	}
	return w.exportCopyLocked(destPath, false, kdf.Params{}, zeroDerivedKey, false)
}

// ExportEncryptedCopy writes a sibling wallet file encrypted under a new
// passphrase, without mutating this wallet
// (original_source/armoryengine/PyBtcWallet.py makeEncryptedWalletCopy).
func (w *Wallet) ExportEncryptedCopy(destPath string, passphrase []byte, params kdf.Params) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.state == stateLocked {
		return ErrWalletLocked
	}
	key, err := kdf.DeriveKey(passphrase, params)
	if err != nil {
		return err
	}
	return w.exportCopyLocked(destPath, true, params, key, false)
}

// ForkWatchingOnly writes a sibling wallet file with every private key
// stripped and the watching-only flag set, suitable for a network-
// connected machine (original_source/armoryengine/PyBtcWallet.py
// forkOnlineWallet).
func (w *Wallet) ForkWatchingOnly(destPath string) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.exportCopyLocked(destPath, false, kdf.Params{}, zeroDerivedKey, true)
}

// String renders a human-readable summary of the wallet, matching the
// teacher-lineage format's pprint (original_source/armoryengine/PyBtcWallet.py:2884).
func (w *Wallet) String() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var state string
	switch w.state {
	case stateUnencrypted:
		state = "unencrypted"
	case stateLocked:
		state = "locked"
	default:
		state = "unlocked"
	}
	return fmt.Sprintf(
		"wallet %x (%q / %q) state=%s addrs=%d highestUsed=%d lastComputed=%d",
		w.uniqueID, w.shortLabel, w.longLabel, state, len(w.linearList),
		w.highestUsedChainIndex, w.lastComputedChainIndex,
	)
}

// Equal reports whether w and other are semantically identical: same
// unique ID, labels, and address-by-address serialization
// (original_source/armoryengine/PyBtcWallet.py:2907 isEqualTo; spec.md §8
// Testable Property 6).
func (w *Wallet) Equal(other *Wallet) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	if w.uniqueID != other.uniqueID || w.shortLabel != other.shortLabel || w.longLabel != other.longLabel {
		return false
	}
	if len(w.linearList) != len(other.linearList) {
		return false
	}
	for i, rec := range w.linearList {
		if string(rec.Serialize()) != string(other.linearList[i].Serialize()) {
			return false
		}
	}
	return string(w.root.Serialize()) == string(other.root.Serialize())
}
