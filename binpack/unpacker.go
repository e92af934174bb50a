package binpack

import (
	"encoding/binary"
	"fmt"
)

// Reader reads a little-endian fixed-width byte stream sequentially,
// tracking position so callers can record byte offsets (the wallet codec
// uses this to remember each record's on-disk location, spec.md §4.4).
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential reading starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current read offset into the underlying buffer.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// need returns an error if fewer than n bytes remain.
func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("binpack: short read, need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// Int64 reads a little-endian, two's complement int64.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Fixed reads exactly width bytes.
func (r *Reader) Fixed(width int) ([]byte, error) {
	if err := r.need(width); err != nil {
		return nil, err
	}
	out := make([]byte, width)
	copy(out, r.buf[r.pos:r.pos+width])
	r.pos += width
	return out, nil
}

// FixedString reads width bytes and trims trailing NULs, the inverse of
// Writer.PutFixedString.
func (r *Reader) FixedString(width int) (string, error) {
	b, err := r.Fixed(width)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}

// VarBytes reads a u16-length-prefixed blob.
func (r *Reader) VarBytes() ([]byte, error) {
	n, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return r.Fixed(int(n))
}

// Skip advances the read position by n bytes without copying.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}
