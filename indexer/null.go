package indexer

// NullIndexer is a no-op Indexer for watching-only or not-yet-connected
// wallets (spec.md §4.8 "a wallet may be constructed with no indexer at
// all"): it never leaves StateOffline, so every gated query on top of it
// reports -1/ErrNotReady rather than blocking or panicking.
type NullIndexer struct{}

func (NullIndexer) State() State { return StateOffline }

func (NullIndexer) TopHeight() (uint64, error) { return 0, ErrNotReady }

func (NullIndexer) RegisterScriptHash(hash [20]byte, firstSeenTime, firstSeenBlock uint64) error {
	return nil
}

func (NullIndexer) RegisterImportedScriptHash(hash [20]byte, firstTime, firstBlock, lastTime, lastBlock uint64) error {
	return nil
}

func (NullIndexer) RegisterWallet(walletID string, isFresh bool) error { return nil }

func (NullIndexer) ScanWalletSince(walletID string, fromBlock uint64) error { return nil }

func (NullIndexer) ScanRegisteredTxFor(walletID string, fromBlock uint64) error { return nil }

func (NullIndexer) NumBlocksBehind(walletID string) (uint64, error) { return 0, ErrNotReady }

func (NullIndexer) TxOutsFor(scriptHash [20]byte, currentBlock uint64, kind UTXOKind) ([]TxOut, error) {
	return nil, ErrNotReady
}

func (NullIndexer) LedgerFor(scriptHash [20]byte) ([]LedgerEntry, error) {
	return nil, nil
}
