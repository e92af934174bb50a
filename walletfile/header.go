// Package walletfile implements the wallet file codec of spec.md §4.4:
// the fixed header (magic, version, chain magic, flags, unique ID, labels,
// highest-used index, KDF/crypto parameter blocks, root address record)
// and the variable-length entry stream that follows it.
package walletfile

import (
	"bytes"
	"fmt"

	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/binpack"
	"github.com/rivine-labs/walletstore/kdf"
)

// Magic identifies a wallet file, matching the teacher-lineage format's
// fileTypeStr ('\xbaWALLET\x00').
var Magic = [8]byte{0xba, 'W', 'A', 'L', 'L', 'E', 'T', 0x00}

// Version is the only wallet file version this implementation accepts;
// spec.md §9 Open Questions leaves tolerance for any other version,
// including future ones, undefined, so Unpack fails closed on them.
const Version uint32 = 1

const (
	shortLabelLen = 32
	longLabelLen  = 256
	cryptoLen     = 256
	reservedPad   = 1024
)

// Flag bits within Header.Flags, per spec.md §3.
const (
	FlagEncrypted    uint64 = 1 << 0
	FlagWatchingOnly uint64 = 1 << 1
)

// Header is the wallet file's fixed prefix (spec.md §3 "Header").
type Header struct {
	ChainMagic            [4]byte
	Flags                 uint64
	UniqueID              [6]byte
	CreateTime            uint64
	ShortLabel            string
	LongLabel             string
	HighestUsedChainIndex int64
	KDF                   kdf.Params
	RootAddr              *address.Record
}

// Offsets records the absolute byte position of every mutable field in a
// packed header, so a single in-place MODIFY can be targeted without
// re-deriving the layout (spec.md §4.4: "pack(header) ... records the
// discovered offsets").
type Offsets struct {
	Flags      int64
	LabelName  int64
	LabelDescr int64
	TopUsed    int64
	KdfParams  int64
	Crypto     int64
	RootAddr   int64
}

// HeaderSize is the total byte width of the fixed header, including the
// trailing reserved pad.
var HeaderSize = computeHeaderSize()

func computeHeaderSize() int {
	// 8 magic + 4 version + 4 chainMagic + 8 flags + 6 uniqueID + 8 createTime
	// + shortLabel + longLabel + 8 highestUsed + 256 kdf + 256 crypto + rootAddr + pad
	return 8 + 4 + 4 + 8 + 6 + 8 + shortLabelLen + longLabelLen + 8 + kdf.BlockSize + cryptoLen + address.RecordWidth + reservedPad
}

// Pack serializes h into HeaderSize bytes and returns the offsets of its
// mutable fields.
func Pack(h Header) ([]byte, Offsets, error) {
	w := binpack.NewWriter(HeaderSize)
	w.PutFixed(Magic[:], 8)
	w.PutUint32(Version)
	w.PutFixed(h.ChainMagic[:], 4)

	var off Offsets
	off.Flags = int64(w.Len())
	w.PutUint64(h.Flags)

	w.PutFixed(h.UniqueID[:], 6)
	w.PutUint64(h.CreateTime)

	off.LabelName = int64(w.Len())
	w.PutFixedString(h.ShortLabel, shortLabelLen)
	off.LabelDescr = int64(w.Len())
	w.PutFixedString(h.LongLabel, longLabelLen)

	off.TopUsed = int64(w.Len())
	w.PutInt64(h.HighestUsedChainIndex)

	off.KdfParams = int64(w.Len())
	w.PutFixed(h.KDF.Serialize(), kdf.BlockSize)

	off.Crypto = int64(w.Len())
	w.PutZeros(cryptoLen) // reserved, all zero in v1 (spec.md §3)

	off.RootAddr = int64(w.Len())
	if h.RootAddr == nil {
		w.PutZeros(address.RecordWidth)
	} else {
		w.PutFixed(h.RootAddr.Serialize(), address.RecordWidth)
	}

	w.PutZeros(reservedPad)

	if w.Len() != HeaderSize {
		return nil, Offsets{}, fmt.Errorf("walletfile: packed header is %d bytes, want %d", w.Len(), HeaderSize)
	}
	return w.Bytes(), off, nil
}

// RepairSchedule lists header slots whose on-disk bytes differed from
// their checksum-repaired form and should be rewritten in place.
type RepairSchedule struct {
	KdfParamsNeedsRewrite bool
	RootAddrNeedsRewrite  bool
}

// Unpack parses a HeaderSize-byte prefix into a Header, rejecting on
// magic/version/chain-magic mismatch and applying checksum repair to the
// KDF block and root address record (spec.md §4.4).
func Unpack(data []byte, expectChainMagic [4]byte) (h Header, off Offsets, repair RepairSchedule, err error) {
	if len(data) < HeaderSize {
		return Header{}, Offsets{}, RepairSchedule{}, fmt.Errorf("walletfile: short header: %d bytes, want %d", len(data), HeaderSize)
	}
	r := binpack.NewReader(data[:HeaderSize])

	magic, _ := r.Fixed(8)
	if !bytes.Equal(magic, Magic[:]) {
		return Header{}, Offsets{}, RepairSchedule{}, ErrWrongMagic
	}
	version, err := r.Uint32()
	if err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, err
	}
	if version != Version {
		return Header{}, Offsets{}, RepairSchedule{}, ErrUnsupportedVersion
	}

	chainMagic, _ := r.Fixed(4)
	copy(h.ChainMagic[:], chainMagic)
	if h.ChainMagic != expectChainMagic {
		return Header{}, Offsets{}, RepairSchedule{}, ErrWrongChainMagic
	}

	off.Flags = int64(r.Pos())
	h.Flags, err = r.Uint64()
	if err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, err
	}

	uid, _ := r.Fixed(6)
	copy(h.UniqueID[:], uid)
	h.CreateTime, err = r.Uint64()
	if err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, err
	}

	off.LabelName = int64(r.Pos())
	h.ShortLabel, err = r.FixedString(shortLabelLen)
	if err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, err
	}
	off.LabelDescr = int64(r.Pos())
	h.LongLabel, err = r.FixedString(longLabelLen)
	if err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, err
	}

	off.TopUsed = int64(r.Pos())
	h.HighestUsedChainIndex, err = r.Int64()
	if err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, err
	}

	off.KdfParams = int64(r.Pos())
	kdfBlock, _ := r.Fixed(kdf.BlockSize)
	h.KDF, repair.KdfParamsNeedsRewrite, err = kdf.Unserialize(kdfBlock)
	if err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, fmt.Errorf("walletfile: %w", ErrCorruptKeyData)
	}

	off.Crypto = int64(r.Pos())
	if err := r.Skip(cryptoLen); err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, err
	}

	off.RootAddr = int64(r.Pos())
	rootBytes, _ := r.Fixed(address.RecordWidth)
	rootRec, rootRepaired, err := address.Unserialize(rootBytes)
	if err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, fmt.Errorf("walletfile: root address: %w", ErrCorruptKeyData)
	}
	h.RootAddr = rootRec
	repair.RootAddrNeedsRewrite = rootRepaired

	if err := r.Skip(reservedPad); err != nil {
		return Header{}, Offsets{}, RepairSchedule{}, err
	}

	return h, off, repair, nil
}
