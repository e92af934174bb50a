package kdf

import "testing"

func TestSerializeUnserializeRoundTrip(t *testing.T) {
	p := Params{MemoryBytes: 1 << 20, Iterations: 3, Salt: NewSalt()}
	block := p.Serialize()
	if len(block) != BlockSize {
		t.Fatalf("expected %d-byte block, got %d", BlockSize, len(block))
	}

	got, needsRewrite, err := Unserialize(block)
	if err != nil {
		t.Fatal(err)
	}
	if needsRewrite {
		t.Fatal("clean block should not need a rewrite")
	}
	if got.MemoryBytes != p.MemoryBytes || got.Iterations != p.Iterations || got.Salt != p.Salt {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestUnserializeRepairsSingleBitCorruption(t *testing.T) {
	p := Params{MemoryBytes: 1 << 20, Iterations: 3, Salt: NewSalt()}
	block := p.Serialize()
	block[5] ^= 1 << 2 // corrupt a byte within the memoryBytes/iterations field

	got, needsRewrite, err := Unserialize(block)
	if err != nil {
		t.Fatalf("expected repair to succeed, got error: %v", err)
	}
	if !needsRewrite {
		t.Fatal("expected needsRewrite after repair")
	}
	if got.MemoryBytes != p.MemoryBytes || got.Iterations != p.Iterations {
		t.Fatalf("repair did not recover original params: got %+v, want %+v", got, p)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	p := Params{MemoryBytes: 1 << 15, Iterations: 1, Salt: [SaltSize]byte{1, 2, 3}}
	k1, err := DeriveKey([]byte("hunter2hunter2"), p)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := DeriveKey([]byte("hunter2hunter2"), p)
	if err != nil {
		t.Fatal(err)
	}
	if k1 != k2 {
		t.Fatal("DeriveKey is not deterministic for identical inputs")
	}

	k3, err := DeriveKey([]byte("different"), p)
	if err != nil {
		t.Fatal(err)
	}
	if k1 == k3 {
		t.Fatal("different passphrases produced the same key")
	}
}

func TestCalibrateIsMonotoneInMemory(t *testing.T) {
	small := Calibrate(0.01, 1<<14)
	large := Calibrate(0.01, 1<<18)
	if large.MemoryBytes < small.MemoryBytes {
		t.Fatalf("expected calibration to be monotone in memory budget: small=%d large=%d",
			small.MemoryBytes, large.MemoryBytes)
	}
}
