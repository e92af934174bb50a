package wallet

import (
	"fmt"
	"os"

	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/walletfile"
)

// applyEntriesLocked folds a decoded entry stream into the in-memory
// chain/pool and comment maps. It does not reset the containers first;
// callers that are rebuilding from scratch (Open, reloadLocked) must clear
// them beforehand.
func (w *Wallet) applyEntriesLocked(entries []walletfile.Entry) {
	for _, e := range entries {
		switch e.Type {
		case walletfile.TypeKeyData:
			w.linearList = append(w.linearList, e.Addr)
			w.addrMap[e.Addr.Hash160] = e.Addr
			if e.Addr.ChainIndex >= 0 {
				w.chainIndexMap[e.Addr.ChainIndex] = e.Addr
				if e.Addr.ChainIndex > w.lastComputedChainIndex {
					w.lastComputedChainIndex = e.Addr.ChainIndex
				}
			}
		case walletfile.TypeAddrComment:
			var id [20]byte
			copy(id[:], e.ID)
			w.addrComments[id] = e.Comment
			w.addrCommentLoc[id] = e.EntryStart
		case walletfile.TypeTxComment:
			var id [32]byte
			copy(id[:], e.ID)
			w.txComments[id] = e.Comment
			w.txCommentLoc[id] = e.EntryStart
		case walletfile.TypeTombstone:
			// Superseded or deleted record; nothing to index.
		}
	}
}

// reloadLocked rebuilds every in-memory cache from the on-disk file,
// matching spec.md §4.7 "Imported-key deletion... reloads the wallet from
// disk to rebuild in-memory state". It re-derives plaintext for every
// address using whatever key the wallet already held (the zero key for an
// Unencrypted wallet, or the held derived key for an Unlocked one).
func (w *Wallet) reloadLocked() error {
	data, err := os.ReadFile(w.cfg.Path)
	if err != nil {
		return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}

	header, off, _, err := walletfile.Unpack(data, w.cfg.ChainMagic)
	if err != nil {
		return mapWalletfileErr(err)
	}

	w.off = off
	w.flags = header.Flags
	w.kdf = header.KDF
	w.root = header.RootAddr
	w.highestUsedChainIndex = header.HighestUsedChainIndex
	w.lastComputedChainIndex = address.RootIndex
	w.chainIndexMap = make(map[int64]*address.Record)
	w.addrMap = make(map[[20]byte]*address.Record)
	w.linearList = nil
	w.addrComments = make(map[[20]byte][]byte)
	w.txComments = make(map[[32]byte][]byte)
	w.addrCommentLoc = make(map[[20]byte]int64)
	w.txCommentLoc = make(map[[32]byte]int64)

	entries, err := walletfile.ReadEntries(data[walletfile.HeaderSize:], int64(walletfile.HeaderSize))
	if err != nil {
		return mapWalletfileErr(err)
	}
	w.applyEntriesLocked(entries)

	switch w.state {
	case stateUnencrypted:
		return w.unlockAllLocked(zeroDerivedKey)
	case stateUnlocked:
		return w.unlockAllLocked(w.derivedKey)
	default:
		return nil
	}
}
