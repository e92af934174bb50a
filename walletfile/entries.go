package walletfile

import (
	"fmt"

	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/binpack"
)

// Entry type tags, spec.md §3 "Entry stream".
const (
	TypeKeyData     uint8 = 0x01
	TypeAddrComment uint8 = 0x02
	TypeTxComment   uint8 = 0x03
	TypeOpEval      uint8 = 0x04 // reserved, reject on read
	TypeTombstone   uint8 = 0x05
)

// Entry is one decoded record from the entry stream, with the absolute
// file offset of its payload (recordStart + 1 type byte + 20-byte id),
// which the wallet stores on the in-memory address for O(1) in-place
// rewrites (spec.md §4.4).
type Entry struct {
	Type        uint8
	ID          []byte // 20 bytes for key-data/addr-comment, 32 for tx-comment
	EntryStart  int64  // absolute offset of the type byte that opens this entry
	PayloadAt   int64  // absolute offset of the payload, after type+id
	Addr        *address.Record
	Comment     []byte
	TombstoneOf int // length of the tombstoned region, for 0x05
}

// EncodeKeyData builds a 0x01 entry: hash160 || addressRecord.
func EncodeKeyData(rec *address.Record) []byte {
	w := binpack.NewWriter(1 + 20 + address.RecordWidth)
	w.PutUint8(TypeKeyData)
	w.PutFixed(rec.Hash160[:], 20)
	w.PutFixed(rec.Serialize(), address.RecordWidth)
	return w.Bytes()
}

// EncodeAddrComment builds a 0x02 entry: hash160 || len(u16) || bytes.
func EncodeAddrComment(addr160 [20]byte, comment []byte) ([]byte, error) {
	return encodeComment(TypeAddrComment, addr160[:], comment)
}

// EncodeTxComment builds a 0x03 entry: txHash(32) || len(u16) || bytes.
func EncodeTxComment(txHash [32]byte, comment []byte) ([]byte, error) {
	w := binpack.NewWriter(1 + 32 + 2 + len(comment))
	w.PutUint8(TypeTxComment)
	w.PutFixed(txHash[:], 32)
	if err := w.PutVarBytes(comment); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func encodeComment(typ uint8, id []byte, comment []byte) ([]byte, error) {
	w := binpack.NewWriter(1 + len(id) + 2 + len(comment))
	w.PutUint8(typ)
	w.PutFixed(id, len(id))
	if err := w.PutVarBytes(comment); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeTombstone builds a 0x05 entry of the given payload width, all
// zeros, marking a previously-live record as deleted/superseded (spec.md
// §3 "Lifecycles").
func EncodeTombstone(payloadWidth int) []byte {
	w := binpack.NewWriter(1 + 2 + payloadWidth)
	w.PutUint8(TypeTombstone)
	w.PutUint16(uint16(payloadWidth))
	w.PutZeros(payloadWidth)
	return w.Bytes()
}

// ReadEntries decodes the entry stream starting at baseOffset (the
// absolute file position of data[0]), in a loop of (typeByte, body).
// Unknown types are fatal except 0x04 (reserved-reject) and 0x05 (which
// simply advances by its declared length), per spec.md §4.4.
func ReadEntries(data []byte, baseOffset int64) ([]Entry, error) {
	r := binpack.NewReader(data)
	var entries []Entry
	for r.Remaining() > 0 {
		entryStart := int64(r.Pos())
		absEntryStart := baseOffset + entryStart
		typ, err := r.Uint8()
		if err != nil {
			return nil, err
		}

		switch typ {
		case TypeKeyData:
			id, err := r.Fixed(20)
			if err != nil {
				return nil, err
			}
			payloadAt := baseOffset + int64(r.Pos())
			recBytes, err := r.Fixed(address.RecordWidth)
			if err != nil {
				return nil, err
			}
			rec, _, err := address.Unserialize(recBytes)
			if err != nil {
				return nil, fmt.Errorf("walletfile: entry at %d: %w", entryStart, ErrCorruptKeyData)
			}
			copy(rec.Hash160[:], id)
			rec.WalletByteLoc = payloadAt
			entries = append(entries, Entry{Type: typ, ID: id, EntryStart: absEntryStart, PayloadAt: payloadAt, Addr: rec})

		case TypeAddrComment, TypeTxComment:
			idWidth := 20
			if typ == TypeTxComment {
				idWidth = 32
			}
			id, err := r.Fixed(idWidth)
			if err != nil {
				return nil, err
			}
			comment, err := r.VarBytes()
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Type: typ, ID: id, EntryStart: absEntryStart, Comment: comment})

		case TypeOpEval:
			return nil, ErrUnsupportedRecord

		case TypeTombstone:
			n, err := r.Uint16()
			if err != nil {
				return nil, err
			}
			if err := r.Skip(int(n)); err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Type: typ, EntryStart: absEntryStart, TombstoneOf: int(n)})

		default:
			return nil, fmt.Errorf("walletfile: %w: 0x%02x", ErrUnsupportedRecord, typ)
		}
	}
	return entries, nil
}
