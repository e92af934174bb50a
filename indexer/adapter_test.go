package indexer

import "testing"

type fakeIndexer struct {
	state    State
	top      uint64
	outs     []TxOut
	ledger   []LedgerEntry
	topErr   error
	outsErr  error
}

func (f *fakeIndexer) State() State { return f.state }
func (f *fakeIndexer) TopHeight() (uint64, error) { return f.top, f.topErr }
func (f *fakeIndexer) RegisterScriptHash(hash [20]byte, firstSeenTime, firstSeenBlock uint64) error {
	return nil
}
func (f *fakeIndexer) RegisterImportedScriptHash(hash [20]byte, firstTime, firstBlock, lastTime, lastBlock uint64) error {
	return nil
}
func (f *fakeIndexer) RegisterWallet(walletID string, isFresh bool) error { return nil }
func (f *fakeIndexer) ScanWalletSince(walletID string, fromBlock uint64) error { return nil }
func (f *fakeIndexer) ScanRegisteredTxFor(walletID string, fromBlock uint64) error { return nil }
func (f *fakeIndexer) NumBlocksBehind(walletID string) (uint64, error) { return 0, nil }
func (f *fakeIndexer) TxOutsFor(scriptHash [20]byte, currentBlock uint64, kind UTXOKind) ([]TxOut, error) {
	return f.outs, f.outsErr
}
func (f *fakeIndexer) LedgerFor(scriptHash [20]byte) ([]LedgerEntry, error) { return f.ledger, nil }

func TestAdapterGatesOnNotReady(t *testing.T) {
	idx := &fakeIndexer{state: StateUninitialized}
	a := NewAdapter(idx, false)

	if _, err := a.TxOutsFor([20]byte{}, UTXOSpendable); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	bal, err := a.Balance([20]byte{}, "Spendable")
	if err != nil {
		t.Fatal(err)
	}
	if bal != -1 {
		t.Fatalf("expected -1 balance when not ready, got %d", bal)
	}
}

func TestAdapterDirectBypassesReadyGate(t *testing.T) {
	idx := &fakeIndexer{
		state: StateUninitialized,
		top:   10,
		outs:  []TxOut{{Value: 5}, {Value: 7}},
	}
	a := NewAdapter(idx, true)

	outs, err := a.TxOutsFor([20]byte{}, UTXOSpendable)
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 2 {
		t.Fatalf("expected 2 outs, got %d", len(outs))
	}
}

func TestAdapterBalanceSumsOuts(t *testing.T) {
	idx := &fakeIndexer{
		state: StateBlockchainReady,
		top:   100,
		outs:  []TxOut{{Value: 3}, {Value: 4}},
	}
	a := NewAdapter(idx, false)

	bal, err := a.Balance([20]byte{}, "Full")
	if err != nil {
		t.Fatal(err)
	}
	if bal != 7 {
		t.Fatalf("expected 7, got %d", bal)
	}
}

func TestAdapterUnknownBalanceType(t *testing.T) {
	idx := &fakeIndexer{state: StateBlockchainReady}
	a := NewAdapter(idx, false)

	if _, err := a.Balance([20]byte{}, "Bogus"); err != ErrUnknownBalanceType {
		t.Fatalf("expected ErrUnknownBalanceType, got %v", err)
	}
}

func TestAdapterLedgerForIgnoresReadiness(t *testing.T) {
	idx := &fakeIndexer{
		state:  StateOffline,
		ledger: []LedgerEntry{{Amount: 1}},
	}
	a := NewAdapter(idx, false)

	entries, err := a.LedgerFor([20]byte{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
}

func TestWithDirectDoesNotMutateOriginal(t *testing.T) {
	idx := &fakeIndexer{state: StateOffline}
	a := NewAdapter(idx, false)
	b := a.WithDirect(true)

	if a.Direct() {
		t.Fatal("original adapter should remain non-direct")
	}
	if !b.Direct() {
		t.Fatal("derived adapter should be direct")
	}
}
