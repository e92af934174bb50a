package wallet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rivine-labs/walletstore/build"
	"github.com/rivine-labs/walletstore/kdf"
)

func testSeed(b byte) (seed [32]byte, chainCode [32]byte) {
	for i := range seed {
		seed[i] = b + byte(i)
	}
	for i := range chainCode {
		chainCode[i] = 200 + byte(i)
	}
	return
}

func testConfig(t *testing.T, path string) Config {
	t.Helper()
	return Config{
		Path:       path,
		ChainMagic: [4]byte{0xf9, 0xbe, 0xb4, 0xd9},
		PoolTarget: 5,
		Now:        time.Now,
	}
}

// S1 — create/reopen round trip.
func TestCreateReopenRoundTrip(t *testing.T) {
	dir := build.TempDir("wallet", t.Name())
	path := filepath.Join(dir, "s1.wallet")
	seed, chainCode := testSeed(1)

	w, err := Create(testConfig(t, path), CreateOptions{
		Seed:       seed,
		ChainCode:  chainCode,
		ShortLabel: "wlt",
		LongLabel:  "desc",
		PoolSize:   5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := w.LastComputedChainIndex(); got != 4 {
		t.Fatalf("lastComputedChainIndex = %d, want 4", got)
	}
	if got := w.HighestUsedChainIndex(); got != -1 {
		t.Fatalf("highestUsedChainIndex = %d, want -1", got)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(testConfig(t, path))
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if !w.Equal(reopened) {
		t.Fatal("reopened wallet is not equal to the original")
	}
}

// S3 — locked pool fill: fillAddressPool must succeed while locked, with
// deferred addresses materializing cleanly on unlock.
func TestLockedPoolFill(t *testing.T) {
	dir := build.TempDir("wallet", t.Name())
	path := filepath.Join(dir, "s3.wallet")
	seed, chainCode := testSeed(2)

	passphrase := []byte("hunter2hunter2")
	params := kdf.Params{MemoryBytes: 1 << 20, Iterations: 3}

	w, err := Create(testConfig(t, path), CreateOptions{
		Seed:       seed,
		ChainCode:  chainCode,
		PoolSize:   5,
		Passphrase: passphrase,
		KDFParams:  &params,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.State() != "unlocked" {
		t.Fatalf("state = %s, want unlocked", w.State())
	}
	if err := w.Lock(); err != nil {
		t.Fatal(err)
	}
	if w.State() != "locked" {
		t.Fatalf("state = %s, want locked", w.State())
	}

	if err := w.FillAddressPool(20); err != nil {
		t.Fatalf("FillAddressPool while locked: %v", err)
	}
	if w.LastComputedChainIndex() < 19 {
		t.Fatalf("lastComputedChainIndex = %d, want >= 19", w.LastComputedChainIndex())
	}

	if err := w.Unlock(passphrase); err != nil {
		t.Fatal(err)
	}
	for i := int64(0); i <= 19; i++ {
		rec, ok := w.chainIndexMap[i]
		if !ok {
			t.Fatalf("missing chain index %d", i)
		}
		if !rec.HasPlainKey {
			t.Fatalf("chain index %d not materialized after unlock", i)
		}
	}
}

// S4 — passphrase change: old passphrase fails, new one succeeds.
func TestChangePassphrase(t *testing.T) {
	dir := build.TempDir("wallet", t.Name())
	path := filepath.Join(dir, "s4.wallet")
	seed, chainCode := testSeed(3)

	oldPass := []byte("hunter2hunter2")
	newPass := []byte("ƛ-unicode-Ω")
	params := kdf.Params{MemoryBytes: 1 << 20, Iterations: 3}

	w, err := Create(testConfig(t, path), CreateOptions{
		Seed:       seed,
		ChainCode:  chainCode,
		PoolSize:   5,
		Passphrase: oldPass,
		KDFParams:  &params,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.ChangePassphrase(newPass, params); err != nil {
		t.Fatal(err)
	}
	if err := w.Lock(); err != nil {
		t.Fatal(err)
	}
	if err := w.Unlock(oldPass); err != ErrBadPassphrase {
		t.Fatalf("Unlock(oldPass) = %v, want ErrBadPassphrase", err)
	}
	if err := w.Unlock(newPass); err != nil {
		t.Fatalf("Unlock(newPass): %v", err)
	}
}

// S5 — import and delete.
func TestImportAndDelete(t *testing.T) {
	dir := build.TempDir("wallet", t.Name())
	path := filepath.Join(dir, "s5.wallet")
	seed, chainCode := testSeed(4)

	w, err := Create(testConfig(t, path), CreateOptions{
		Seed:      seed,
		ChainCode: chainCode,
		PoolSize:  5,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	before := len(w.addrMap)

	var priv [32]byte
	for i := range priv {
		priv[i] = 0xC0 + byte(i%16)
	}
	h160, err := w.ImportPrivateKey(ImportOptions{PrivateKey: priv})
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := w.addrMap[h160]
	if !ok || rec.ChainIndex != -2 {
		t.Fatalf("imported address missing or wrong chain index: %+v", rec)
	}

	if err := w.DeleteImported(h160); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.addrMap[h160]; ok {
		t.Fatal("deleted address still present")
	}
	if len(w.addrMap) != before {
		t.Fatalf("addrMap size = %d, want %d (pre-import)", len(w.addrMap), before)
	}
}

// Comments: set, read, replace.
func TestAddressComment(t *testing.T) {
	dir := build.TempDir("wallet", t.Name())
	path := filepath.Join(dir, "comments.wallet")
	seed, chainCode := testSeed(5)

	w, err := Create(testConfig(t, path), CreateOptions{
		Seed:      seed,
		ChainCode: chainCode,
		PoolSize:  3,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	addr, err := w.PeekNextUnused()
	if err != nil {
		t.Fatal(err)
	}

	if err := w.SetAddressComment(addr.Hash160, []byte("first")); err != nil {
		t.Fatal(err)
	}
	got, ok := w.AddressComment(addr.Hash160)
	if !ok || string(got) != "first" {
		t.Fatalf("comment = %q, ok=%v, want \"first\"", got, ok)
	}

	if err := w.SetAddressComment(addr.Hash160, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, ok = w.AddressComment(addr.Hash160)
	if !ok || string(got) != "second" {
		t.Fatalf("comment after replace = %q, ok=%v, want \"second\"", got, ok)
	}
}

// Unencrypted wallets must still round-trip a signature: the zero-key
// encoding is purely an on-disk convention.
func TestSignTransactionP2PKH(t *testing.T) {
	dir := build.TempDir("wallet", t.Name())
	path := filepath.Join(dir, "sign.wallet")
	seed, chainCode := testSeed(6)

	w, err := Create(testConfig(t, path), CreateOptions{
		Seed:      seed,
		ChainCode: chainCode,
		PoolSize:  2,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	addr, err := w.GetNextUnused()
	if err != nil {
		t.Fatal(err)
	}

	tx := &fakePTX{
		inputs: []PTXInput{{
			ScriptType:        ScriptP2PKH,
			OutputScript:      []byte("fake-output-script"),
			DestinationHashes: [][20]byte{addr.Hash160},
		}},
	}
	signed, err := w.SignTransaction(tx)
	if err != nil {
		t.Fatal(err)
	}
	if signed != 1 {
		t.Fatalf("signed = %d, want 1", signed)
	}
	if len(tx.scripts[0]) == 0 {
		t.Fatal("expected a non-empty scriptSig")
	}
}

type fakePTX struct {
	inputs  []PTXInput
	scripts [][]byte
}

func (f *fakePTX) NumInputs() int { return len(f.inputs) }

func (f *fakePTX) Input(i int) PTXInput { return f.inputs[i] }

func (f *fakePTX) SigningPreimage(inputIndex int, scriptOverride []byte, hashCode uint32) ([]byte, error) {
	return append([]byte{byte(inputIndex), byte(hashCode)}, scriptOverride...), nil
}

func (f *fakePTX) SetInputScript(i int, scriptSig []byte) {
	if f.scripts == nil {
		f.scripts = make([][]byte, len(f.inputs))
	}
	f.scripts[i] = scriptSig
}
