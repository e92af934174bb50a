package secutil

import "testing"

func TestChecksumRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	chk := Checksum4(payload)

	repaired, wasRepaired, ok := VerifyChecksum(payload, chk)
	if !ok || wasRepaired {
		t.Fatalf("expected clean verify, got ok=%v repaired=%v", ok, wasRepaired)
	}
	if string(repaired) != string(payload) {
		t.Fatal("payload mutated on clean verify")
	}
}

func TestChecksumSingleBitRepair(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	chk := Checksum4(payload)

	corrupt := make([]byte, len(payload))
	copy(corrupt, payload)
	corrupt[10] ^= 1 << 3

	repaired, wasRepaired, ok := VerifyChecksum(corrupt, chk)
	if !ok || !wasRepaired {
		t.Fatalf("expected repair, got ok=%v repaired=%v", ok, wasRepaired)
	}
	if string(repaired) != string(payload) {
		t.Fatal("repair did not recover original payload")
	}
}

func TestChecksumUnrepairable(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	chk := Checksum4(payload)

	corrupt := make([]byte, len(payload))
	copy(corrupt, payload)
	corrupt[0] ^= 0xFF
	corrupt[1] ^= 0xFF

	_, _, ok := VerifyChecksum(corrupt, chk)
	if ok {
		t.Fatal("expected multi-byte corruption to fail closed")
	}
}
