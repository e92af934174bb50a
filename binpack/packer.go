// Package binpack implements the little-endian, fixed-width primitive
// packer/unpacker the wallet file format is built from (spec.md §4.1):
// bounded-width integer and blob fields with no alignment padding. The
// checksum-with-repair helper is not in this package; it lives in secutil.
package binpack

import (
	"encoding/binary"
	"fmt"
)

// Writer accumulates a little-endian fixed-width byte stream. The zero
// value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with cap pre-allocated.
func NewWriter(cap int) *Writer {
	return &Writer{buf: make([]byte, 0, cap)}
}

// Bytes returns the accumulated byte stream.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

// PutUint16 appends a little-endian uint16.
func (w *Writer) PutUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutUint32 appends a little-endian uint32.
func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutUint64 appends a little-endian uint64.
func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutInt64 appends a little-endian, two's complement int64.
func (w *Writer) PutInt64(v int64) { w.PutUint64(uint64(v)) }

// PutFixed appends raw bytes, truncating or zero-padding to exactly width
// bytes. It never writes more than width bytes.
func (w *Writer) PutFixed(data []byte, width int) {
	field := make([]byte, width)
	copy(field, data)
	w.buf = append(w.buf, field...)
}

// PutFixedString NUL-pads s to width bytes, matching the wallet header's
// short/long label fields (spec.md §3).
func (w *Writer) PutFixedString(s string, width int) {
	w.PutFixed([]byte(s), width)
}

// PutVarBytes appends a u16 length prefix followed by data, the comment
// entry encoding of spec.md §3.
func (w *Writer) PutVarBytes(data []byte) error {
	if len(data) > 0xFFFF {
		return fmt.Errorf("binpack: var-bytes field too long: %d bytes", len(data))
	}
	w.PutUint16(uint16(len(data)))
	w.buf = append(w.buf, data...)
	return nil
}

// PutZeros appends n zero bytes, used for tombstone payloads.
func (w *Writer) PutZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}
