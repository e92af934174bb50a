package address

import (
	"bytes"
	"testing"
)

func testSeed() [privKeyLen]byte {
	var s [privKeyLen]byte
	for i := range s {
		s[i] = byte(i + 1)
	}
	return s
}

func testChainCode() [chainCodeLen]byte {
	var c [chainCodeLen]byte
	for i := range c {
		c[i] = byte(200 + i)
	}
	return c
}

func TestSerializeUnserializeRoundTrip(t *testing.T) {
	root, err := NewRoot(testSeed(), testChainCode())
	if err != nil {
		t.Fatal(err)
	}
	data := root.Serialize()
	if len(data) != RecordWidth {
		t.Fatalf("expected %d bytes, got %d", RecordWidth, len(data))
	}

	got, repaired, err := Unserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	if repaired {
		t.Fatal("clean record should not need repair")
	}
	if got.PublicKey != root.PublicKey || got.ChainIndex != root.ChainIndex {
		t.Fatalf("round trip mismatch")
	}
}

func TestUnserializeRepairsCorruption(t *testing.T) {
	root, _ := NewRoot(testSeed(), testChainCode())
	data := root.Serialize()
	data[3] ^= 1 << 1

	got, repaired, err := Unserialize(data)
	if err != nil {
		t.Fatalf("expected repair, got error: %v", err)
	}
	if !repaired {
		t.Fatal("expected repaired=true")
	}
	if got.PublicKey != root.PublicKey {
		t.Fatal("repair did not recover original record")
	}
}

func TestExtendChainUnlocked(t *testing.T) {
	root, _ := NewRoot(testSeed(), testChainCode())
	child, err := root.ExtendChain()
	if err != nil {
		t.Fatal(err)
	}
	if child.ChainIndex != 0 {
		t.Fatalf("expected chain index 0, got %d", child.ChainIndex)
	}
	if !child.HasPlainKey {
		t.Fatal("expected materialized child from unlocked root")
	}

	grandchild, err := child.ExtendChain()
	if err != nil {
		t.Fatal(err)
	}
	if grandchild.ChainIndex != 1 {
		t.Fatalf("expected chain index 1, got %d", grandchild.ChainIndex)
	}
}

func TestLockThenExtendThenUnlockMaterializes(t *testing.T) {
	root, _ := NewRoot(testSeed(), testChainCode())
	var key [32]byte
	copy(key[:], []byte("hunter2hunter2hunter2hunter2hunt"))

	if err := root.Lock(&key); err != nil {
		t.Fatal(err)
	}
	if root.HasPlainKey {
		t.Fatal("expected root to be locked")
	}

	child, err := root.ExtendChain()
	if err != nil {
		t.Fatal(err)
	}
	if !child.CreatePrivKeyNextUnlock {
		t.Fatal("expected deferred child from locked root")
	}
	if child.HasPlainKey {
		t.Fatal("deferred child should not have plaintext key yet")
	}

	if err := child.Unlock(key); err != nil {
		t.Fatal(err)
	}
	if !child.HasPlainKey {
		t.Fatal("expected materialized child after unlock")
	}

	sig, err := child.Sign([32]byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) == 0 {
		t.Fatal("expected non-empty signature")
	}
}

func TestLockIdempotent(t *testing.T) {
	root, _ := NewRoot(testSeed(), testChainCode())
	var key [32]byte
	copy(key[:], []byte("hunter2hunter2hunter2hunter2hunt"))

	if err := root.Lock(&key); err != nil {
		t.Fatal(err)
	}
	if err := root.Lock(&key); err != nil {
		t.Fatal(err)
	}
}

func TestVerifyEncryptionKey(t *testing.T) {
	root, _ := NewRoot(testSeed(), testChainCode())
	var key [32]byte
	copy(key[:], []byte("hunter2hunter2hunter2hunter2hunt"))
	if err := root.Lock(&key); err != nil {
		t.Fatal(err)
	}
	if !root.VerifyEncryptionKey(key) {
		t.Fatal("expected correct key to verify")
	}
	var wrong [32]byte
	copy(wrong[:], []byte("wrongwrongwrongwrongwrongwrongww"))
	if root.VerifyEncryptionKey(wrong) {
		t.Fatal("expected wrong key to fail verification")
	}
}

func TestImportRejectsHashMismatch(t *testing.T) {
	seed := testSeed()
	bad := [hash160Len]byte{1, 2, 3}
	if _, err := NewImported(seed, &bad); err != ErrPubKeyMismatch {
		t.Fatalf("expected ErrPubKeyMismatch, got %v", err)
	}
}

func TestImportedHasFixedChainCode(t *testing.T) {
	seed := testSeed()
	rec, err := NewImported(seed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ChainIndex != ImportedIndex {
		t.Fatalf("expected chain index %d, got %d", ImportedIndex, rec.ChainIndex)
	}
	want := bytes.Repeat([]byte{0xFF}, chainCodeLen)
	if !bytes.Equal(rec.ChainCode[:], want) {
		t.Fatal("expected 0xFF-filled chain code for imported address")
	}
}
