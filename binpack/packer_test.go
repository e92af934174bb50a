package binpack

import (
	"bytes"
	"testing"
)

func TestRoundTripPrimitives(t *testing.T) {
	w := NewWriter(64)
	w.PutUint8(0xAB)
	w.PutUint16(0x1234)
	w.PutUint32(0xDEADBEEF)
	w.PutUint64(0x0102030405060708)
	w.PutInt64(-42)
	w.PutFixedString("hello", 16)
	if err := w.PutVarBytes([]byte("comment")); err != nil {
		t.Fatal(err)
	}

	r := NewReader(w.Bytes())
	if v, err := r.Uint8(); err != nil || v != 0xAB {
		t.Fatalf("Uint8: got %x, err %v", v, err)
	}
	if v, err := r.Uint16(); err != nil || v != 0x1234 {
		t.Fatalf("Uint16: got %x, err %v", v, err)
	}
	if v, err := r.Uint32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("Uint32: got %x, err %v", v, err)
	}
	if v, err := r.Uint64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("Uint64: got %x, err %v", v, err)
	}
	if v, err := r.Int64(); err != nil || v != -42 {
		t.Fatalf("Int64: got %d, err %v", v, err)
	}
	if s, err := r.FixedString(16); err != nil || s != "hello" {
		t.Fatalf("FixedString: got %q, err %v", s, err)
	}
	if b, err := r.VarBytes(); err != nil || string(b) != "comment" {
		t.Fatalf("VarBytes: got %q, err %v", b, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected no remaining bytes, got %d", r.Remaining())
	}
}

func TestFixedTruncatesAndPads(t *testing.T) {
	w := NewWriter(8)
	w.PutFixed([]byte("toolongvalue"), 4)
	if !bytes.Equal(w.Bytes(), []byte("tool")) {
		t.Fatalf("expected truncation, got %q", w.Bytes())
	}

	w = NewWriter(8)
	w.PutFixed([]byte("ab"), 4)
	if !bytes.Equal(w.Bytes(), []byte{'a', 'b', 0, 0}) {
		t.Fatalf("expected zero padding, got %v", w.Bytes())
	}
}

func TestShortReadError(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.Uint32(); err == nil {
		t.Fatal("expected short read error")
	}
}
