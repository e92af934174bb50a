package wallet

import (
	"fmt"

	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/binpack"
	"github.com/rivine-labs/walletstore/build"
	"github.com/rivine-labs/walletstore/safeupdate"
	"github.com/rivine-labs/walletstore/walletfile"
)

// tailLocked returns the address this wallet should extend from next: the
// most recently computed chained address, or the root if none has been
// computed yet. Caller must hold w.mu.
func (w *Wallet) tailLocked() *address.Record {
	if w.lastComputedChainIndex == address.RootIndex {
		return w.root
	}
	tail, ok := w.chainIndexMap[w.lastComputedChainIndex]
	if !ok {
		build.Critical("wallet: chainIndexMap missing lastComputedChainIndex", w.lastComputedChainIndex)
	}
	return tail
}

// computeNextAddressLocked derives one new chained address past the
// current tail, appends it via the safe-update engine, updates the
// in-memory maps, and registers its hash with the indexer (spec.md §4.6
// computeNextAddress). Caller must hold w.mu.
func (w *Wallet) computeNextAddressLocked() (*address.Record, error) {
	next, err := w.tailLocked().ExtendChain()
	if err != nil {
		return nil, err
	}
	if w.state == stateUnencrypted && next.HasPlainKey {
		if err := next.Reencrypt(zeroDerivedKey); err != nil {
			return nil, err
		}
	}

	entryBytes := walletfile.EncodeKeyData(next)
	offsets, err := w.engine.Apply([]safeupdate.Op{safeupdate.Add(entryBytes)})
	if err != nil {
		return nil, fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}
	next.WalletByteLoc = offsets[0] + 1 + 20 // skip type byte + hash160 id

	w.linearList = append(w.linearList, next)
	w.chainIndexMap[next.ChainIndex] = next
	w.addrMap[next.Hash160] = next
	w.lastComputedChainIndex = next.ChainIndex

	if w.cfg.Indexer != nil {
		now := uint64(w.cfg.now().Unix())
		_ = w.cfg.Indexer.RegisterScriptHash(next.Hash160, now, 0)
	}
	return next, nil
}

// fillAddressPoolLocked computes addresses until lastComputed - highestUsed
// >= target (spec.md §4.6 fillAddressPool). It may run while locked: newly
// computed addresses simply carry CreatePrivKeyNextUnlock (spec.md §4.6
// "Locked-wallet extension").
func (w *Wallet) fillAddressPoolLocked(target int) error {
	for w.lastComputedChainIndex-w.highestUsedChainIndex < int64(target) {
		if _, err := w.computeNextAddressLocked(); err != nil {
			return err
		}
	}
	return nil
}

// advanceHighestIndexLocked clamps newHighest into [0, lastComputed],
// writes it to the header's TopUsed slot, and refills the pool (spec.md
// §4.6 advanceHighestIndex).
func (w *Wallet) advanceHighestIndexLocked(newHighest int64) error {
	if newHighest < 0 {
		newHighest = 0
	}
	if newHighest > w.lastComputedChainIndex {
		newHighest = w.lastComputedChainIndex
	}

	payload := binpack.NewWriter(8)
	payload.PutInt64(newHighest)
	if _, err := w.engine.Apply([]safeupdate.Op{safeupdate.Modify(w.off.TopUsed, payload.Bytes())}); err != nil {
		return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}
	w.highestUsedChainIndex = newHighest

	return w.fillAddressPoolLocked(w.cfg.poolTarget())
}

// peekNextUnusedLocked returns the address at highestUsed+1, computing it
// first if the pool is short (spec.md §4.6 peekNextUnused).
func (w *Wallet) peekNextUnusedLocked() (*address.Record, error) {
	idx := w.highestUsedChainIndex + 1
	for idx > w.lastComputedChainIndex {
		if _, err := w.computeNextAddressLocked(); err != nil {
			return nil, err
		}
	}
	return w.chainIndexMap[idx], nil
}

// getNextUnusedLocked returns the address at highestUsed+1 and advances
// highestUsed to claim it (spec.md §4.6 getNextUnused).
func (w *Wallet) getNextUnusedLocked() (*address.Record, error) {
	next, err := w.peekNextUnusedLocked()
	if err != nil {
		return nil, err
	}
	if err := w.advanceHighestIndexLocked(next.ChainIndex); err != nil {
		return nil, err
	}
	return next, nil
}

// getAddress160ByChainIndexLocked returns the 20-byte identity hash of the
// address at chain index i (spec.md §4.6 getAddress160ByChainIndex). The
// fallback chain-walk the spec describes is unreachable here since this
// implementation always keeps chainIndexMap dense over [0, lastComputed].
func (w *Wallet) getAddress160ByChainIndexLocked(i int64) ([20]byte, error) {
	a, ok := w.chainIndexMap[i]
	if !ok {
		return [20]byte{}, ErrChainIndexOutOfRange
	}
	return a.Hash160, nil
}

// PeekNextUnused returns the next unused address without claiming it.
func (w *Wallet) PeekNextUnused() (*address.Record, error) {
	if err := w.tg.Add(); err != nil {
		return nil, errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.peekNextUnusedLocked()
}

// GetNextUnused returns the next unused address and advances
// HighestUsedChainIndex to claim it.
func (w *Wallet) GetNextUnused() (*address.Record, error) {
	if err := w.tg.Add(); err != nil {
		return nil, errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.getNextUnusedLocked()
}

// AddressByChainIndex returns the 20-byte identity hash of the address at
// chain index i.
func (w *Wallet) AddressByChainIndex(i int64) ([20]byte, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.getAddress160ByChainIndexLocked(i)
}

// FillAddressPool tops the address pool up to target addresses beyond
// HighestUsedChainIndex; it is valid to call while locked (spec.md §4.6
// "Locked-wallet extension").
func (w *Wallet) FillAddressPool(target int) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fillAddressPoolLocked(target)
}
