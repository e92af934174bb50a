package wallet

import (
	"fmt"
	"time"

	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/binpack"
	"github.com/rivine-labs/walletstore/kdf"
	"github.com/rivine-labs/walletstore/safeupdate"
	"github.com/rivine-labs/walletstore/secutil"
	"github.com/rivine-labs/walletstore/walletfile"
)

// zeroDerivedKey is the well-known encryption key an "Unencrypted" wallet
// uses internally so that every address record still round-trips through
// the on-disk format, which has no separate plaintext-key field (the
// teacher-lineage format always stores an AES-encrypted private key; a
// wallet with no passphrase simply uses this fixed key instead of one
// derived from user input, matching Armory's own historical design).
var zeroDerivedKey [32]byte

// allRecordsLocked returns every address record this wallet holds, root
// first, in an order stable enough for deterministic iteration.
func (w *Wallet) allRecordsLocked() []*address.Record {
	out := make([]*address.Record, 0, len(w.linearList)+1)
	out = append(out, w.root)
	out = append(out, w.linearList...)
	return out
}

// unlockAllLocked decrypts every address (materializing deferred ones via
// their ancestor chain) under key, in ascending chain-index order so each
// deferred address sees a freshly materialized predecessor (spec.md §4.6
// "Locked-wallet extension").
func (w *Wallet) unlockAllLocked(key [32]byte) error {
	if err := w.root.Unlock(key); err != nil {
		return err
	}
	for i := int64(0); i <= w.lastComputedChainIndex; i++ {
		a, ok := w.chainIndexMap[i]
		if !ok {
			continue
		}
		if err := a.Unlock(key); err != nil {
			return err
		}
	}
	for _, a := range w.linearList {
		if a.ChainIndex == address.ImportedIndex {
			if err := a.Unlock(key); err != nil {
				return err
			}
		}
	}
	return nil
}

// rewriteOpsLocked builds one MODIFY for the root slot plus one for every
// address in linearList, each rewriting the payload with the record's
// current in-memory serialization (whether or not it changed).
func (w *Wallet) rewriteOpsLocked() []safeupdate.Op {
	ops := []safeupdate.Op{safeupdate.Modify(w.off.RootAddr, w.root.Serialize())}
	for _, a := range w.linearList {
		ops = append(ops, safeupdate.Modify(a.WalletByteLoc, a.Serialize()))
	}
	return ops
}

// encryptLocked performs the Unencrypted -> Encrypted-Unlocked transition
// (spec.md §4.7): derive a key from passphrase under params, re-encrypt
// every address under it (grouped with the flag-bit flip in one atomic
// update), and leave the wallet Unlocked.
func (w *Wallet) encryptLocked(params kdf.Params, passphrase []byte) error {
	if w.state != stateUnencrypted {
		return ErrAlreadyEncrypted
	}
	key, err := kdf.DeriveKey(passphrase, params)
	if err != nil {
		return err
	}

	for _, a := range w.allRecordsLocked() {
		if !a.HasPlainKey {
			continue
		}
		if err := a.Reencrypt(key); err != nil {
			secutil.Wipe32(&key)
			return err
		}
	}

	newFlags := w.flags | walletfile.FlagEncrypted
	ops := append(w.rewriteOpsLocked(), safeupdate.Modify(w.off.Flags, flagsBytes(newFlags)))
	ops = append(ops, safeupdate.Modify(w.off.KdfParams, params.Serialize()))
	if _, err := w.engine.Apply(ops); err != nil {
		secutil.Wipe32(&key)
		return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}

	w.flags = newFlags
	w.kdf = params
	w.hasKDF = true
	w.state = stateUnlocked
	w.derivedKey = key
	w.lockWalletAtTime = w.nextLockDeadlineLocked()
	return nil
}

// Encrypt transitions an Unencrypted wallet to Encrypted-Unlocked.
func (w *Wallet) Encrypt(passphrase []byte, params kdf.Params) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encryptLocked(params, passphrase)
}

// Unlock verifies passphrase against the root address and materializes
// every deferred private key (spec.md §4.7 Encrypted-Locked ->
// Encrypted-Unlocked).
func (w *Wallet) Unlock(passphrase []byte) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateUnlocked {
		return nil // idempotent, spec.md §8 property 5
	}
	if w.state == stateUnencrypted {
		return ErrNotEncrypted
	}
	if !w.hasKDF {
		return ErrKdfAbsent
	}

	key, err := kdf.DeriveKey(passphrase, w.kdf)
	if err != nil {
		return err
	}
	if !w.root.VerifyEncryptionKey(key) {
		secutil.Wipe32(&key)
		return ErrBadPassphrase
	}

	if err := w.unlockAllLocked(key); err != nil {
		secutil.Wipe32(&key)
		return err
	}

	if ops := w.rewriteOpsLocked(); len(ops) > 0 {
		if _, err := w.engine.Apply(ops); err != nil {
			secutil.Wipe32(&key)
			return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
		}
	}

	w.state = stateUnlocked
	w.derivedKey = key
	w.lockWalletAtTime = w.nextLockDeadlineLocked()
	return nil
}

// Lock wipes the derived key and every address's plaintext private key
// (spec.md §4.7 Encrypted-Unlocked -> Encrypted-Locked).
func (w *Wallet) Lock() error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != stateUnlocked {
		return nil // idempotent, spec.md §8 property 5
	}
	for _, a := range w.allRecordsLocked() {
		if err := a.Lock(&w.derivedKey); err != nil {
			return err
		}
	}
	secutil.Wipe32(&w.derivedKey)
	w.state = stateLocked
	return nil
}

// CheckLockTimeout is the heartbeat of spec.md §5 "Cancellation &
// timeouts": if unlocked and past lockWalletAtTime, it locks the wallet.
// A caller polls this; the wallet never schedules its own timer.
func (w *Wallet) CheckLockTimeout() error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.RLock()
	expired := w.state == stateUnlocked && !w.lockWalletAtTime.IsZero() && w.cfg.now().After(w.lockWalletAtTime)
	w.mu.RUnlock()
	if !expired {
		return nil
	}
	return w.Lock()
}

// ChangePassphrase re-derives the encryption key under newParams and
// newPassphrase and re-encrypts every address (spec.md §4.3 "Critical
// rule", §4.7 "Key-change re-encryption"). The wallet must already be
// Unlocked.
func (w *Wallet) ChangePassphrase(newPassphrase []byte, newParams kdf.Params) error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != stateUnlocked {
		return ErrWalletLocked
	}

	newKey, err := kdf.DeriveKey(newPassphrase, newParams)
	if err != nil {
		return err
	}
	defer secutil.Wipe32(&newKey)

	for _, a := range w.allRecordsLocked() {
		if !a.HasPlainKey {
			continue
		}
		if err := a.Reencrypt(newKey); err != nil {
			return err
		}
	}

	ops := append(w.rewriteOpsLocked(), safeupdate.Modify(w.off.KdfParams, newParams.Serialize()))
	if _, err := w.engine.Apply(ops); err != nil {
		return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}

	secutil.Wipe32(&w.derivedKey)
	w.derivedKey = newKey
	w.kdf = newParams
	return nil
}

// Decrypt transitions an Unlocked wallet back to Unencrypted: every
// address is re-encoded under the well-known zero key and the encrypted
// flag bit is cleared, grouped into one atomic update (spec.md §4.7
// "Encrypted -> Unencrypted: requires unlocked state; re-encode each
// address in plaintext form").
func (w *Wallet) Decrypt() error {
	if err := w.tg.Add(); err != nil {
		return errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != stateUnlocked {
		return ErrWalletLocked
	}

	for _, a := range w.allRecordsLocked() {
		if !a.HasPlainKey {
			continue
		}
		if err := a.Reencrypt(zeroDerivedKey); err != nil {
			return err
		}
	}

	newFlags := w.flags &^ walletfile.FlagEncrypted
	ops := append(w.rewriteOpsLocked(), safeupdate.Modify(w.off.Flags, flagsBytes(newFlags)))
	if _, err := w.engine.Apply(ops); err != nil {
		return fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}

	secutil.Wipe32(&w.derivedKey)
	w.flags = newFlags
	w.hasKDF = false
	w.state = stateUnencrypted
	w.lockWalletAtTime = time.Time{}
	return nil
}

func flagsBytes(flags uint64) []byte {
	w := binpack.NewWriter(8)
	w.PutUint64(flags)
	return w.Bytes()
}

// nextLockDeadlineLocked returns the time at which CheckLockTimeout should
// next re-lock the wallet, or the zero time if no timeout is configured.
func (w *Wallet) nextLockDeadlineLocked() time.Time {
	lifetime := w.cfg.keyLifetime()
	if lifetime <= 0 {
		return time.Time{}
	}
	return w.cfg.now().Add(lifetime)
}
