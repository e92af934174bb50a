package wallet

import (
	"fmt"

	"github.com/rivine-labs/walletstore/safeupdate"
	"github.com/rivine-labs/walletstore/walletfile"
)

// SetAddressComment attaches or replaces the comment for a known address
// (spec.md §3 "Lifecycles": comment changes tombstone the prior entry and
// append a new one). Passing a nil or empty comment clears it on disk.
func (w *Wallet) SetAddressComment(hash160 [20]byte, comment []byte) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.addrMap[hash160]; !ok {
		return ErrUnknownAddress
	}

	entryBytes, err := walletfile.EncodeAddrComment(hash160, comment)
	if err != nil {
		return err
	}
	ops := w.tombstoneCommentOpsLocked(w.addrCommentLoc, hash160[:])
	ops = append(ops, safeupdate.Add(entryBytes))

	offsets, err := w.engine.Apply(ops)
	if err != nil {
		return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}
	newStart := offsets[len(offsets)-1]

	if len(comment) == 0 {
		delete(w.addrComments, hash160)
		delete(w.addrCommentLoc, hash160)
	} else {
		w.addrComments[hash160] = comment
		w.addrCommentLoc[hash160] = newStart
	}
	return nil
}

// SetTxComment attaches or replaces the comment for a transaction hash.
func (w *Wallet) SetTxComment(txHash [32]byte, comment []byte) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	entryBytes, err := walletfile.EncodeTxComment(txHash, comment)
	if err != nil {
		return err
	}
	ops := w.tombstoneCommentOpsLocked32(w.txCommentLoc, txHash[:])
	ops = append(ops, safeupdate.Add(entryBytes))

	offsets, err := w.engine.Apply(ops)
	if err != nil {
		return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}
	newStart := offsets[len(offsets)-1]

	if len(comment) == 0 {
		delete(w.txComments, txHash)
		delete(w.txCommentLoc, txHash)
	} else {
		w.txComments[txHash] = comment
		w.txCommentLoc[txHash] = newStart
	}
	return nil
}

// tombstoneCommentOpsLocked returns a Modify op zeroing the prior
// address-comment entry for id, if one is on record, else nil.
func (w *Wallet) tombstoneCommentOpsLocked(loc map[[20]byte]int64, id []byte) []safeupdate.Op {
	var key [20]byte
	copy(key[:], id)
	start, ok := loc[key]
	if !ok {
		return nil
	}
	width := 1 + len(id) + 2 + len(w.addrComments[key])
	return []safeupdate.Op{safeupdate.Modify(start, walletfile.EncodeTombstone(width-1-2))}
}

func (w *Wallet) tombstoneCommentOpsLocked32(loc map[[32]byte]int64, id []byte) []safeupdate.Op {
	var key [32]byte
	copy(key[:], id)
	start, ok := loc[key]
	if !ok {
		return nil
	}
	width := 1 + len(id) + 2 + len(w.txComments[key])
	return []safeupdate.Op{safeupdate.Modify(start, walletfile.EncodeTombstone(width-1-2))}
}

// AddressComment returns the comment attached to a known address, if any.
func (w *Wallet) AddressComment(hash160 [20]byte) ([]byte, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.addrComments[hash160]
	return c, ok
}

// TxComment returns the comment attached to a transaction hash, if any.
func (w *Wallet) TxComment(txHash [32]byte) ([]byte, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.txComments[txHash]
	return c, ok
}
