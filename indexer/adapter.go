package indexer

// Adapter wraps an Indexer with the direct/cooperative call-path switch
// of spec.md §4.8/§5: "A boolean 'direct' mode switches between a
// queued/cooperative call path and a direct call path; the direct path is
// used only when the indexer is itself the active caller (would otherwise
// self-deadlock on its own queue)." This module has no real multi-thread
// queue of its own (that lives in the indexer implementation, out of
// scope per spec.md §1); Adapter's job is purely to carry the call-site
// flag through to the output/balance gating below.
type Adapter struct {
	idx    Indexer
	direct bool
}

// NewAdapter wraps idx. direct should be true only at call sites reached
// from the indexer's own callback/thread (spec.md "calledFromBDM").
func NewAdapter(idx Indexer, direct bool) *Adapter {
	return &Adapter{idx: idx, direct: direct}
}

// WithDirect returns a copy of the adapter with the direct flag set,
// letting a single Indexer be shared between a wallet's normal
// (cooperative) call sites and its indexer-callback (direct) call sites.
func (a *Adapter) WithDirect(direct bool) *Adapter {
	return &Adapter{idx: a.idx, direct: direct}
}

// Direct reports whether this adapter is in the indexer's own
// (non-re-entrant-safe) call path.
func (a *Adapter) Direct() bool { return a.direct }

func (a *Adapter) State() State { return a.idx.State() }

func (a *Adapter) TopHeight() (uint64, error) { return a.idx.TopHeight() }

func (a *Adapter) RegisterScriptHash(hash [20]byte, firstSeenTime, firstSeenBlock uint64) error {
	return a.idx.RegisterScriptHash(hash, firstSeenTime, firstSeenBlock)
}

func (a *Adapter) RegisterImportedScriptHash(hash [20]byte, firstTime, firstBlock, lastTime, lastBlock uint64) error {
	return a.idx.RegisterImportedScriptHash(hash, firstTime, firstBlock, lastTime, lastBlock)
}

func (a *Adapter) RegisterWallet(walletID string, isFresh bool) error {
	return a.idx.RegisterWallet(walletID, isFresh)
}

func (a *Adapter) ScanWalletSince(walletID string, fromBlock uint64) error {
	return a.idx.ScanWalletSince(walletID, fromBlock)
}

func (a *Adapter) ScanRegisteredTxFor(walletID string, fromBlock uint64) error {
	return a.idx.ScanRegisteredTxFor(walletID, fromBlock)
}

func (a *Adapter) NumBlocksBehind(walletID string) (uint64, error) {
	return a.idx.NumBlocksBehind(walletID)
}

// TxOutsFor resolves "currentBlock" against TopHeight internally when the
// ready-gating below passes; callers needing a specific historical height
// should use the Indexer directly.
func (a *Adapter) TxOutsFor(scriptHash [20]byte, kind UTXOKind) ([]TxOut, error) {
	if !a.ready() {
		return nil, ErrNotReady
	}
	top, err := a.idx.TopHeight()
	if err != nil {
		return nil, err
	}
	return a.idx.TxOutsFor(scriptHash, top, kind)
}

// LedgerFor is a pure pass-through: ledger history is available
// regardless of whether the indexer has caught up to the chain tip
// (spec.md §4.8 "Balance and ledger queries are pure pass-through except
// that Spendable/Unconfirmed/Full are resolved against topHeight()").
func (a *Adapter) LedgerFor(scriptHash [20]byte) ([]LedgerEntry, error) {
	return a.idx.LedgerFor(scriptHash)
}

// ready reports whether balance-style queries may proceed: either the
// indexer has reached StateBlockchainReady, or this call is itself marked
// direct (spec.md §4.8).
func (a *Adapter) ready() bool {
	return a.direct || a.idx.State() == StateBlockchainReady
}

// Balance resolves balType ("Spendable"/"Unconfirmed"/"Full") against the
// wallet's known outputs for scriptHash, returning -1 when the indexer is
// not ready and the call is not direct (spec.md §4.8).
func (a *Adapter) Balance(scriptHash [20]byte, balType string) (int64, error) {
	if !a.ready() {
		return -1, nil
	}
	var kind UTXOKind
	switch balType {
	case "Spendable":
		kind = UTXOSpendable
	case "Unconfirmed":
		kind = UTXOUnconfirmed
	case "Full":
		kind = UTXOFull
	default:
		return 0, ErrUnknownBalanceType
	}
	outs, err := a.TxOutsFor(scriptHash, kind)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, o := range outs {
		total += o.Value
	}
	return total, nil
}
