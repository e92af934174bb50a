// Package indexer defines the blockchain-indexer contract the wallet core
// consumes (spec.md §1 "Out of scope" / §4.8): the wallet never talks to a
// chain directly, it only calls the small surface below. An Adapter carries
// the "direct" (called from the indexer's own thread) versus "cooperative"
// call-site flag, which decides whether output and balance queries are
// gated on indexer readiness (spec.md §4.8, §5 "calledFromBDM"); it does
// not queue or reroute calls itself.
package indexer

import "errors"

// State mirrors the indexer's own lifecycle, used to gate output and
// balance queries; ledger queries are not gated (spec.md §4.8 "Balance and
// ledger queries").
type State int

const (
	StateOffline State = iota
	StateUninitialized
	StateBlockchainReady
)

// UTXOKind selects which subset of transaction outputs TxOutsFor returns.
type UTXOKind int

const (
	UTXOSpendable UTXOKind = iota
	UTXOUnconfirmed
	UTXOFull
)

// TxOut is a minimal unspent-output view; the wallet only needs enough to
// select inputs for signing (spec.md §4.7 "Transaction signing").
type TxOut struct {
	TxHash      [32]byte
	Index       uint32
	Value       int64
	ScriptHash  [20]byte
	BlockHeight uint64
}

// LedgerEntry is one confirmed or unconfirmed balance-affecting event for
// an address or wallet.
type LedgerEntry struct {
	TxHash      [32]byte
	Amount      int64
	BlockHeight uint64
	Time        uint64
}

// ErrNotReady is returned by Adapter.TxOutsFor calls not marked direct that
// are made before the indexer reaches StateBlockchainReady, and by
// NullIndexer's height and output queries.
var ErrNotReady = errors.New("indexer: blockchain not ready")

// ErrUnknownBalanceType is returned for an unrecognized balance-type
// argument to Adapter.Balance.
var ErrUnknownBalanceType = errors.New("indexer: unknown balance type")

// Indexer is the opaque external collaborator spec.md §1 describes:
// "supplies top-block height and per-script-hash ledger/UTXO queries;
// registers script-hashes for future scans."
type Indexer interface {
	State() State
	TopHeight() (uint64, error)

	RegisterScriptHash(hash [20]byte, firstSeenTime, firstSeenBlock uint64) error
	RegisterImportedScriptHash(hash [20]byte, firstTime, firstBlock, lastTime, lastBlock uint64) error
	RegisterWallet(walletID string, isFresh bool) error

	ScanWalletSince(walletID string, fromBlock uint64) error
	ScanRegisteredTxFor(walletID string, fromBlock uint64) error
	NumBlocksBehind(walletID string) (uint64, error)

	TxOutsFor(scriptHash [20]byte, currentBlock uint64, kind UTXOKind) ([]TxOut, error)
	LedgerFor(scriptHash [20]byte) ([]LedgerEntry, error)
}
