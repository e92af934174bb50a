// Package wallet implements the wallet facade and chain/pool manager of
// spec.md §4.6-§4.7 (C6, C7): the lock state machine, deterministic address
// chain and pool maintenance, import/delete of addresses, key-change
// re-encryption, and signing of a partially-signed transaction proposal.
package wallet

import (
	"fmt"
	"sync"
	"time"

	"github.com/NebulousLabs/threadgroup"
	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/kdf"
	"github.com/rivine-labs/walletstore/safeupdate"
	"github.com/rivine-labs/walletstore/secutil"
	"github.com/rivine-labs/walletstore/walletfile"
)

// lockState mirrors spec.md §4.7's three wallet states.
type lockState int

const (
	stateUnencrypted lockState = iota
	stateLocked
	stateUnlocked
)

// Wallet is the facade spec.md §4.7 describes: it owns the on-disk safe-
// update engine, the in-memory address chain/pool (C6), and the lock state
// machine (C7). All exported methods are safe to call concurrently except
// as noted in spec.md §5 ("at most one mutating operation may be in
// flight").
type Wallet struct {
	mu sync.RWMutex
	tg threadgroup.ThreadGroup

	cfg    Config
	engine *safeupdate.Engine

	chainMagic [4]byte
	uniqueID   [6]byte
	createTime uint64
	shortLabel string
	longLabel  string

	off    walletfile.Offsets
	kdf    kdf.Params
	hasKDF bool
	flags  uint64

	root          *address.Record
	linearList    []*address.Record
	chainIndexMap map[int64]*address.Record
	addrMap       map[[20]byte]*address.Record

	lastComputedChainIndex int64
	highestUsedChainIndex  int64

	state            lockState
	derivedKey       [32]byte
	lockWalletAtTime time.Time

	addrComments map[[20]byte][]byte
	txComments   map[[32]byte][]byte
	addrCommentLoc map[[20]byte]int64
	txCommentLoc   map[[32]byte]int64
}

func newWallet(cfg Config) *Wallet {
	return &Wallet{
		cfg:           cfg,
		engine:        safeupdate.NewEngine(cfg.Path),
		chainMagic:    cfg.ChainMagic,
		chainIndexMap: make(map[int64]*address.Record),
		addrMap:       make(map[[20]byte]*address.Record),
		addrComments:  make(map[[20]byte][]byte),
		txComments:    make(map[[32]byte][]byte),
		addrCommentLoc: make(map[[20]byte]int64),
		txCommentLoc:   make(map[[32]byte]int64),
		lastComputedChainIndex: address.RootIndex,
		highestUsedChainIndex:  address.RootIndex,
	}
}

// Close stops accepting new operations, waits for in-flight ones to
// finish, locks the wallet if it was unlocked, and closes the log,
// matching the teacher's Wallet.Close (modules/wallet/wallet.go).
func (w *Wallet) Close() error {
	if err := w.tg.Stop(); err != nil {
		return err
	}

	// The thread group is stopped, so Lock (which calls tg.Add) would
	// refuse; lock the records directly instead.
	w.mu.Lock()
	if w.state == stateUnlocked {
		for _, a := range w.allRecordsLocked() {
			if err := a.Lock(&w.derivedKey); err != nil {
				w.mu.Unlock()
				return fmt.Errorf("wallet: lock on close: %w", err)
			}
		}
		secutil.Wipe32(&w.derivedKey)
		w.state = stateLocked
	}
	w.mu.Unlock()

	if w.cfg.Log != nil {
		return w.cfg.Log.Close()
	}
	return nil
}

func (w *Wallet) logf(format string, v ...interface{}) {
	if w.cfg.Log != nil {
		w.cfg.Log.Debugf(format, v...)
	}
}

// State reports the wallet's current lock state as one of "unencrypted",
// "locked", "unlocked".
func (w *Wallet) State() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var s string
	switch w.state {
	case stateUnencrypted:
		s = "unencrypted"
	case stateLocked:
		s = "locked"
	default:
		s = "unlocked"
	}
	w.logf("wallet: State() -> %s", s)
	return s
}

// UniqueID returns the wallet's durable six-byte identifier (spec.md §3
// invariant 5).
func (w *Wallet) UniqueID() [6]byte {
	w.mu.RLock()
	defer w.mu.RUnlock()
	w.logf("wallet: UniqueID() -> %x", w.uniqueID)
	return w.uniqueID
}

// HighestUsedChainIndex returns the highest chain index the caller has
// marked used (spec.md §3 invariant 2).
func (w *Wallet) HighestUsedChainIndex() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	w.logf("wallet: HighestUsedChainIndex() -> %d", w.highestUsedChainIndex)
	return w.highestUsedChainIndex
}

// LastComputedChainIndex returns the highest chain index that has been
// derived and stored on disk, whether or not it has been used.
func (w *Wallet) LastComputedChainIndex() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	w.logf("wallet: LastComputedChainIndex() -> %d", w.lastComputedChainIndex)
	return w.lastComputedChainIndex
}
